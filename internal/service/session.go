package service

import (
	"context"
	"errors"

	"github.com/bernyforce/llm-council/internal/domain"
	"github.com/bernyforce/llm-council/internal/store"
	"github.com/google/uuid"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

var ErrSessionNotFound = errors.New("session not found")

// SessionService is the read side over persisted deliberations.
type SessionService struct {
	store domain.SessionStore
}

func NewSessionService(s domain.SessionStore) *SessionService {
	return &SessionService{store: s}
}

func (s *SessionService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	sess, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List returns the newest sessions first. limit is clamped to
// [1, MaxListLimit]; zero or less means DefaultListLimit.
func (s *SessionService) List(ctx context.Context, limit int) ([]domain.SessionSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.store.List(ctx, limit)
}
