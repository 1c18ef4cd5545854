package replay

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/postloop/creative-bandit/internal/actionspace"
	"github.com/postloop/creative-bandit/internal/bandit"
	"github.com/postloop/creative-bandit/internal/config"
	"github.com/postloop/creative-bandit/internal/engine"
	"github.com/postloop/creative-bandit/internal/store"
)

func newTestEngine(t *testing.T, seed int64) *engine.Engine {
	t.Helper()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "replay.db"), bandit.ContextDim)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	eng, err := engine.New(st, config.Default(), rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return eng
}

func testScenario() Scenario {
	return Scenario{
		Platform:     bandit.PlatformInstagram,
		TimeBucket:   bandit.BucketMorning,
		DayOfWeek:    1,
		BusinessText: "independent coffee roaster in Lisbon",
		TopicText:    "new single-origin arrival",
	}
}

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder()
	ctx := context.Background()

	a, err := e.Embed(ctx, "some text")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "some text")
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a, bandit.EmbeddingHalfDim)

	c, err := e.Embed(ctx, "other text")
	require.NoError(t, err)
	require.NotEqual(t, a, c)

	for _, v := range a {
		require.GreaterOrEqual(t, float64(v), -1.0)
		require.Less(t, float64(v), 1.0)
	}
}

func TestHarnessLearnsFavoredValue(t *testing.T) {
	eng := newTestEngine(t, 11)
	h := NewHarness(eng, NewHashEmbedder(), testScenario())

	model := FavoredValues(map[actionspace.Dimension]string{
		actionspace.DimHookType: "question",
	}, 0.9, 0.1)

	results, summary, err := h.Run(context.Background(), 200, model)
	require.NoError(t, err)
	require.Len(t, results, 200)
	require.Equal(t, 200, summary.Episodes)

	// The paying hook type must end up the clear mode of the run.
	questionCount := summary.Count(actionspace.DimHookType, "question")
	require.Greater(t, questionCount, 100, "policy failed to concentrate on the rewarded value")

	// And must be favored more in the back half than the cold-start half.
	firstHalf, backHalf := 0, 0
	for i, r := range results {
		if r.Action.HookType == "question" {
			if i < 100 {
				firstHalf++
			} else {
				backHalf++
			}
		}
	}
	require.Greater(t, backHalf, firstHalf, "selection rate did not improve over the run")
}

func TestHarnessTraceConsistency(t *testing.T) {
	eng := newTestEngine(t, 3)
	h := NewHarness(eng, NewHashEmbedder(), testScenario())

	model := func(actionspace.Action) float64 { return 0.5 }
	results, summary, err := h.Run(context.Background(), 10, model)
	require.NoError(t, err)
	require.InDelta(t, 0.5, summary.MeanReward, 1e-12)

	for _, r := range results {
		require.NoError(t, r.Action.Validate())
		require.InDelta(t, 0.5, r.Reward, 1e-12)
	}
	// Constant reward drags the baseline toward it, shrinking the advantage.
	require.Greater(t, results[0].Advantage, results[len(results)-1].Advantage)
}

func TestHarnessSameSeedSameTrace(t *testing.T) {
	model := func(actionspace.Action) float64 { return 0.3 }

	runTrace := func() []EpisodeResult {
		eng := newTestEngine(t, 99)
		h := NewHarness(eng, NewHashEmbedder(), testScenario())
		results, _, err := h.Run(context.Background(), 25, model)
		require.NoError(t, err)
		return results
	}

	a := runTrace()
	b := runTrace()
	require.Equal(t, len(a), len(b))
	for i := range a {
		require.Equal(t, a[i].Action, b[i].Action, "episode %d diverged", i)
	}
}
