package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidTransition = errors.New("invalid session stage transition")

// Stage tracks how far a deliberation has progressed.
type Stage string

const (
	StageCreated           Stage = "created"
	StageOpinionsCollected Stage = "opinions_collected"
	StageReviewsCollected  Stage = "reviews_collected"
	StageSynthesized       Stage = "synthesized"
	StagePersisted         Stage = "persisted"
)

var stageOrder = []Stage{
	StageCreated,
	StageOpinionsCollected,
	StageReviewsCollected,
	StageSynthesized,
	StagePersisted,
}

func (s Stage) index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Session is the full transcript of one deliberation.
type Session struct {
	ID            uuid.UUID `json:"id"`
	Query         string    `json:"query"`
	FirstOpinions Opinions  `json:"first_opinions"`
	Reviews       ReviewSet `json:"reviews"`
	FinalResponse string    `json:"final_response"`
	Timestamp     time.Time `json:"timestamp"`
	Stage         Stage     `json:"-"`
}

func NewSession(id uuid.UUID, query string) *Session {
	return &Session{ID: id, Query: query, Stage: StageCreated}
}

// Advance moves the session to the next stage. Stages cannot be skipped or
// revisited.
func (s *Session) Advance(to Stage) error {
	cur := s.Stage.index()
	if cur < 0 || to.index() != cur+1 {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Stage, to)
	}
	s.Stage = to
	return nil
}

// SessionSummary is the listing view of a persisted session.
type SessionSummary struct {
	ID        uuid.UUID `json:"id"`
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Session) Summary() SessionSummary {
	return SessionSummary{ID: s.ID, Query: s.Query, Timestamp: s.Timestamp}
}
