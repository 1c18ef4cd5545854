package engine

import (
	"context"
	"math"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/postloop/creative-bandit/internal/bandit"
	"github.com/postloop/creative-bandit/internal/config"
	"github.com/postloop/creative-bandit/internal/reward"
	"github.com/postloop/creative-bandit/internal/store"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "engine.db"), bandit.ContextDim)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	eng, err := New(st, config.Default(), rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	return eng
}

func testContext() bandit.Context {
	business := make([]float32, bandit.EmbeddingHalfDim)
	topic := make([]float32, bandit.EmbeddingHalfDim)
	for i := range business {
		business[i] = 0.01
		topic[i] = -0.02
	}
	return bandit.Context{
		Platform:          bandit.PlatformInstagram,
		TimeBucket:        bandit.BucketEvening,
		DayOfWeek:         5,
		BusinessEmbedding: business,
		TopicEmbedding:    topic,
	}
}

func TestSelectActionPersistsRecord(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	sel, err := eng.SelectAction(ctx, "post-1", testContext())
	require.NoError(t, err)
	require.NotEmpty(t, sel.ActionID)
	require.NoError(t, sel.Action.Validate())
	require.Len(t, sel.ContextVector, bandit.ContextDim)

	rec, err := eng.Store().GetAction(ctx, sel.ActionID)
	require.NoError(t, err)
	require.Equal(t, "post-1", rec.PostID)
	require.Equal(t, bandit.PlatformInstagram, rec.Platform)
	require.Equal(t, sel.Action, rec.Action)
	require.Equal(t, sel.ContextVector, rec.ContextVector)
}

func TestLearnUpdatesPolicyAndBaseline(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	c := testContext()

	sel, err := eng.SelectAction(ctx, "post-1", c)
	require.NoError(t, err)

	out, err := eng.Learn(ctx, sel.ActionID, 0.8, false, 0)
	require.NoError(t, err)
	// Baseline updates before the advantage is taken: b' = 0.9*0 + 0.1*0.8.
	require.InDelta(t, 0.08, out.Baseline, 1e-12)
	require.InDelta(t, 0.72, out.Advantage, 1e-12)

	b, err := eng.Baseline(ctx, bandit.PlatformInstagram)
	require.NoError(t, err)
	require.InDelta(t, 0.08, b, 1e-12)

	// The selected hook type gained preference mass in this context bucket.
	entry, err := eng.Store().Preference(ctx, c.Key("hook_type", sel.Action.HookType))
	require.NoError(t, err)
	require.InDelta(t, 0.05*0.72, entry.Score, 1e-9)
	require.Equal(t, 1, entry.NumSamples)
}

func TestLearnRefusesSecondReward(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	sel, err := eng.SelectAction(ctx, "post-1", testContext())
	require.NoError(t, err)

	out, err := eng.Learn(ctx, sel.ActionID, 0.5, false, 0)
	require.NoError(t, err)

	_, err = eng.Learn(ctx, sel.ActionID, 0.5, false, 0)
	require.ErrorIs(t, err, bandit.ErrDuplicateLearn)

	// The refused pass must leave the baseline where the first one put it.
	b, err := eng.Baseline(ctx, bandit.PlatformInstagram)
	require.NoError(t, err)
	require.InDelta(t, out.Baseline, b, 1e-12)

	// And the learned preference keeps a single sample.
	c := testContext()
	entry, err := eng.Store().Preference(ctx, c.Key("hook_type", sel.Action.HookType))
	require.NoError(t, err)
	require.Equal(t, 1, entry.NumSamples)
}

func TestLearnFromMetricsUsesPlatformWeights(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	sel, err := eng.SelectAction(ctx, "post-1", testContext())
	require.NoError(t, err)

	m := reward.Metrics{Likes: 100, Comments: 20, Shares: 10, Saves: 30, Followers: 10000}
	out, err := eng.LearnFromMetrics(ctx, sel.ActionID, m, false, 0)
	require.NoError(t, err)

	// instagram: 3*30 + 2*10 + 20 + 0.3*100 = 160
	want := math.Tanh(math.Log(1+160.0) / math.Log(1+10000.0))
	require.InDelta(t, want, out.Reward, 1e-9)
}

func TestLearnFromSnapshotsAggregatesWindows(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	sel, err := eng.SelectAction(ctx, "post-1", testContext())
	require.NoError(t, err)

	now := time.Now().UTC()
	for _, snap := range []store.SnapshotRecord{
		{PostID: "post-1", Platform: bandit.PlatformInstagram, WindowHours: 6,
			Metrics: reward.Metrics{Likes: 50, Followers: 5000}, SnapshotAt: now},
		{PostID: "post-1", Platform: bandit.PlatformInstagram, WindowHours: 24,
			Metrics: reward.Metrics{Likes: 200, Comments: 10, Followers: 5000}, SnapshotAt: now},
	} {
		require.NoError(t, eng.Store().InsertSnapshot(ctx, snap))
	}

	out, err := eng.LearnFromSnapshots(ctx, sel.ActionID, false, 0)
	require.NoError(t, err)
	require.Greater(t, out.Reward, 0.0)
	require.LessOrEqual(t, out.Reward, 1.0)
}

func TestWorkerDrainsJobs(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	sel, err := eng.SelectAction(ctx, "post-1", testContext())
	require.NoError(t, err)
	require.NoError(t, eng.Store().InsertSnapshot(ctx, store.SnapshotRecord{
		PostID: "post-1", Platform: bandit.PlatformInstagram, WindowHours: 24,
		Metrics: reward.Metrics{Likes: 80, Followers: 2000}, SnapshotAt: time.Now().UTC(),
	}))

	w := NewWorker(eng, 4)
	w.Start(ctx)
	require.NoError(t, w.Enqueue(Job{ActionID: sel.ActionID}))
	w.Stop()

	has, err := eng.Store().HasReward(ctx, sel.ActionID)
	require.NoError(t, err)
	require.True(t, has)

	require.ErrorIs(t, w.Enqueue(Job{ActionID: "x"}), ErrWorkerStopped)
}

func TestWorkerQueueFull(t *testing.T) {
	eng := newTestEngine(t)

	w := NewWorker(eng, 1)
	// Not started: the single slot fills and the second enqueue bounces.
	require.NoError(t, w.Enqueue(Job{ActionID: "a"}))
	require.ErrorIs(t, w.Enqueue(Job{ActionID: "b"}), ErrQueueFull)
}
