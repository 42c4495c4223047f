package domain

import (
	"context"

	"github.com/google/uuid"
)

// SessionStore persists finished deliberations. Sessions are write-once.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	List(ctx context.Context, limit int) ([]SessionSummary, error)
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Gateway is the single call contract to the model provider.
type Gateway interface {
	Invoke(ctx context.Context, model string, messages []Message) (string, error)
}
