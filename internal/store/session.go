package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bernyforce/llm-council/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionStore persists deliberations in PostgreSQL.
type SessionStore struct {
	db *pgxpool.Pool
}

func NewSessionStore(db *pgxpool.Pool) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	opinions, err := json.Marshal(sess.FirstOpinions)
	if err != nil {
		return fmt.Errorf("marshal opinions: %w", err)
	}
	reviews, err := json.Marshal(sess.Reviews)
	if err != nil {
		return fmt.Errorf("marshal reviews: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO council_sessions (id, query, first_opinions, reviews, final_response, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sess.ID, sess.Query, opinions, reviews, sess.FinalResponse, sess.Timestamp,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	sess := &domain.Session{}
	var opinions, reviews []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, query, first_opinions, reviews, final_response, created_at
		 FROM council_sessions WHERE id = $1`,
		id,
	).Scan(&sess.ID, &sess.Query, &opinions, &reviews, &sess.FinalResponse, &sess.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(opinions, &sess.FirstOpinions); err != nil {
		return nil, fmt.Errorf("decode opinions: %w", err)
	}
	if err := json.Unmarshal(reviews, &sess.Reviews); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	sess.Stage = domain.StagePersisted
	return sess, nil
}

func (s *SessionStore) List(ctx context.Context, limit int) ([]domain.SessionSummary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, query, created_at
		 FROM council_sessions
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SessionSummary
	for rows.Next() {
		var sum domain.SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Query, &sum.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
