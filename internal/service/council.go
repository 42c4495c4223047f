package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bernyforce/llm-council/internal/domain"
	"github.com/bernyforce/llm-council/internal/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrGatewayNotConfigured = errors.New("LLM provider API key not configured")
	ErrEmptyQuery           = errors.New("query is required")
)

// CouncilService runs the three-stage deliberation: opinions, anonymized
// cross-review, chairman synthesis.
type CouncilService struct {
	gateway        domain.Gateway
	sessions       domain.SessionStore
	council        domain.Council
	maxConcurrency int
	logger         *zap.Logger
	now            func() time.Time

	mu        sync.Mutex
	lastStamp time.Time
}

// NewCouncilService creates a council service. A nil gateway means no
// provider credential was configured; every deliberation then fails with
// ErrGatewayNotConfigured before any model is called.
func NewCouncilService(
	gateway domain.Gateway,
	sessions domain.SessionStore,
	council domain.Council,
	logger *zap.Logger,
) *CouncilService {
	return &CouncilService{
		gateway:  gateway,
		sessions: sessions,
		council:  council,
		logger:   logger,
		now:      time.Now,
	}
}

// SetMaxConcurrency bounds in-flight gateway calls per stage. 0 is unbounded.
func (s *CouncilService) SetMaxConcurrency(n int) {
	s.maxConcurrency = n
}

func (s *CouncilService) Council() domain.Council {
	return s.council
}

// Deliberate runs the full pipeline for query and persists the transcript.
// Individual model failures are folded into the session as placeholder text;
// only a missing gateway or a persistence failure is returned as an error.
func (s *CouncilService) Deliberate(ctx context.Context, query string) (*domain.Session, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if s.gateway == nil {
		observability.DeliberationsTotal.WithLabelValues("not_configured").Inc()
		return nil, ErrGatewayNotConfigured
	}

	start := time.Now()
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	sess := domain.NewSession(id, query)
	log := s.logger.With(zap.String("session_id", id.String()))

	sess.FirstOpinions = s.CollectOpinions(ctx, query)
	if err := sess.Advance(domain.StageOpinionsCollected); err != nil {
		return nil, err
	}
	log.Debug("opinions collected", zap.Int("members", len(sess.FirstOpinions)))

	sess.Reviews = s.ReviewOpinions(ctx, query, sess.FirstOpinions)
	if err := sess.Advance(domain.StageReviewsCollected); err != nil {
		return nil, err
	}
	log.Debug("reviews collected", zap.Int("reviewers", len(sess.Reviews)))

	sess.FinalResponse = s.Synthesize(ctx, query, sess.FirstOpinions, sess.Reviews)
	sess.Timestamp = s.stamp()
	if err := sess.Advance(domain.StageSynthesized); err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		observability.DeliberationsTotal.WithLabelValues("persist_failed").Inc()
		log.Error("failed to persist session", zap.Error(err))
		return nil, fmt.Errorf("persist session %s: %w", id, err)
	}
	if err := sess.Advance(domain.StagePersisted); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	observability.DeliberationsTotal.WithLabelValues("persisted").Inc()
	observability.DeliberationDuration.Observe(elapsed.Seconds())
	log.Info("deliberation complete",
		zap.Int("members", len(s.council.Members)),
		zap.String("chairman", s.council.Chairman),
		zap.Duration("duration", elapsed))

	return sess, nil
}

// CollectOpinions asks every member the raw query concurrently. The result
// always has one entry per member in configured order.
func (s *CouncilService) CollectOpinions(ctx context.Context, query string) domain.Opinions {
	opinions := domain.NewOpinions(s.council.Members)
	messages := []domain.Message{{Role: domain.RoleUser, Content: query}}

	s.fanOut(len(opinions), func(i int) {
		member := opinions[i].Member
		text, err := s.gateway.Invoke(ctx, member, messages)
		if err != nil {
			observability.StageFailuresTotal.WithLabelValues(string(domain.StageOpinionsCollected)).Inc()
			s.logger.Warn("member failed to answer",
				zap.String("member", member),
				zap.Error(err))
			text = errorText(err)
		}
		opinions[i].Text = text
	})

	return opinions
}

// ReviewOpinions has each member rank the other members' anonymized opinions.
// The model mapping is recorded even when the review call fails.
func (s *CouncilService) ReviewOpinions(ctx context.Context, query string, opinions domain.Opinions) domain.ReviewSet {
	reviews := domain.NewReviewSet(s.council.Members)

	s.fanOut(len(reviews), func(i int) {
		reviewer := reviews[i].Reviewer
		view := domain.Anonymize(reviewer, opinions)
		messages := []domain.Message{{Role: domain.RoleUser, Content: buildReviewPrompt(query, view)}}

		text, err := s.gateway.Invoke(ctx, reviewer, messages)
		if err != nil {
			observability.StageFailuresTotal.WithLabelValues(string(domain.StageReviewsCollected)).Inc()
			s.logger.Warn("reviewer failed",
				zap.String("member", reviewer),
				zap.Error(err))
			text = errorText(err)
		}
		reviews[i].Review = domain.Review{Text: text, ModelMapping: view.Mapping}
	})

	return reviews
}

// Synthesize asks the chairman for the final answer.
func (s *CouncilService) Synthesize(ctx context.Context, query string, opinions domain.Opinions, reviews domain.ReviewSet) string {
	prompt, err := buildChairmanPrompt(query, opinions, reviews)
	if err != nil {
		return "Chairman error: " + err.Error()
	}

	text, err := s.gateway.Invoke(ctx, s.council.Chairman, []domain.Message{{Role: domain.RoleUser, Content: prompt}})
	if err != nil {
		observability.StageFailuresTotal.WithLabelValues(string(domain.StageSynthesized)).Inc()
		s.logger.Warn("chairman failed",
			zap.String("model", s.council.Chairman),
			zap.Error(err))
		return "Chairman error: " + err.Error()
	}
	return text
}

// fanOut runs task for every index and waits for all of them. Tasks never
// fail the group, so one slow or failing member cannot cancel the others.
func (s *CouncilService) fanOut(n int, task func(i int)) {
	var g errgroup.Group
	if s.maxConcurrency > 0 {
		g.SetLimit(s.maxConcurrency)
	}
	for i := 0; i < n; i++ {
		g.Go(func() error {
			task(i)
			return nil
		})
	}
	_ = g.Wait()
}

// stamp returns the session timestamp, never earlier than the previous one.
// Microsecond precision matches what every session store can round-trip.
func (s *CouncilService) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().UTC().Truncate(time.Microsecond)
	if t.Before(s.lastStamp) {
		t = s.lastStamp
	}
	s.lastStamp = t
	return t
}

func errorText(err error) string {
	return "Error: " + err.Error()
}

func buildReviewPrompt(query string, view domain.AnonymizedView) string {
	lines := make([]string, len(view.Responses))
	for i, r := range view.Responses {
		lines[i] = r.Label + ": " + r.Text
	}
	return fmt.Sprintf(reviewPrompt, query, strings.Join(lines, "\n"))
}

func buildChairmanPrompt(query string, opinions domain.Opinions, reviews domain.ReviewSet) (string, error) {
	ops, err := indentJSON(opinions)
	if err != nil {
		return "", fmt.Errorf("encode opinions: %w", err)
	}
	revs, err := indentJSON(reviews.Texts())
	if err != nil {
		return "", fmt.Errorf("encode reviews: %w", err)
	}
	return fmt.Sprintf(chairmanPrompt, query, ops, revs), nil
}

func indentJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
