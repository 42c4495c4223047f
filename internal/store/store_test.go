package store

import (
	"context"
	"testing"
	"time"

	"github.com/bernyforce/llm-council/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession(t *testing.T, query string, ts time.Time) *domain.Session {
	t.Helper()

	mapping, err := domain.NewLabelMap([]string{"Response 1"}, []string{"openai/gpt-4-turbo"})
	require.NoError(t, err)
	mappingB, err := domain.NewLabelMap([]string{"Response 1"}, []string{"anthropic/claude-3-opus-20240229"})
	require.NoError(t, err)

	sess := domain.NewSession(uuid.New(), query)
	sess.FirstOpinions = domain.Opinions{
		{Member: "openai/gpt-4-turbo", Text: "4"},
		{Member: "anthropic/claude-3-opus-20240229", Text: "Error: timeout"},
	}
	sess.Reviews = domain.ReviewSet{
		{Reviewer: "openai/gpt-4-turbo", Review: domain.Review{Text: "RANKING: [Response 1]", ModelMapping: mappingB}},
		{Reviewer: "anthropic/claude-3-opus-20240229", Review: domain.Review{Text: "Error: timeout", ModelMapping: mapping}},
	}
	sess.FinalResponse = "Final: 4"
	sess.Timestamp = ts.UTC()
	return sess
}

// runSessionStoreContract exercises behavior every SessionStore must share.
func runSessionStoreContract(t *testing.T, st domain.SessionStore) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("round trip keeps member order", func(t *testing.T) {
		sess := sampleSession(t, "2+2?", base)
		require.NoError(t, st.Save(ctx, sess))

		got, err := st.GetByID(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
		assert.Equal(t, sess.Query, got.Query)
		assert.Equal(t, sess.FirstOpinions, got.FirstOpinions)
		assert.Equal(t, sess.Reviews, got.Reviews)
		assert.Equal(t, sess.FinalResponse, got.FinalResponse)
		assert.WithinDuration(t, sess.Timestamp, got.Timestamp, time.Millisecond)
		assert.Equal(t, domain.StagePersisted, got.Stage)
	})

	t.Run("write once", func(t *testing.T) {
		sess := sampleSession(t, "again", base.Add(time.Second))
		require.NoError(t, st.Save(ctx, sess))

		sess.FinalResponse = "changed"
		assert.ErrorIs(t, st.Save(ctx, sess), ErrConflict)

		got, err := st.GetByID(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "Final: 4", got.FinalResponse)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := st.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		newest := sampleSession(t, "newest", base.Add(time.Hour))
		require.NoError(t, st.Save(ctx, newest))

		got, err := st.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "newest", got[0].Query)
		assert.Equal(t, "again", got[1].Query)

		all, err := st.List(ctx, 100)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}
