package replay

import (
	"context"
	"fmt"

	"github.com/postloop/creative-bandit/internal/actionspace"
	"github.com/postloop/creative-bandit/internal/bandit"
	"github.com/postloop/creative-bandit/internal/engine"
)

// #region types

// Scenario fixes the context every simulated post is generated under.
type Scenario struct {
	Platform     bandit.Platform
	TimeBucket   bandit.TimeBucket
	DayOfWeek    int
	BusinessText string
	TopicText    string
}

// RewardModel maps a chosen action to the reward the simulated audience
// would produce. The harness treats it as ground truth.
type RewardModel func(action actionspace.Action) float64

// FavoredValues builds a reward model that pays high whenever every listed
// (dimension, value) pair was chosen and low otherwise.
func FavoredValues(favored map[actionspace.Dimension]string, high, low float64) RewardModel {
	return func(action actionspace.Action) float64 {
		for dim, val := range favored {
			if action.Value(dim) != val {
				return low
			}
		}
		return high
	}
}

// EpisodeResult records one simulated post cycle.
type EpisodeResult struct {
	PostID    string
	ActionID  string
	Action    actionspace.Action
	Reward    float64
	Baseline  float64
	Advantage float64
}

// Summary aggregates a harness run.
type Summary struct {
	Episodes    int
	MeanReward  float64
	ValueCounts map[actionspace.Dimension]map[string]int
}

// Count returns how often a value was selected for a dimension.
func (s Summary) Count(dim actionspace.Dimension, value string) int {
	return s.ValueCounts[dim][value]
}

// #endregion types

// #region harness

// Harness drives select-learn cycles against a live engine to observe
// policy progression under a known reward model.
type Harness struct {
	engine   *engine.Engine
	embedder bandit.Embedder
	scenario Scenario
}

// NewHarness creates a harness for one scenario.
func NewHarness(eng *engine.Engine, embedder bandit.Embedder, scenario Scenario) *Harness {
	return &Harness{engine: eng, embedder: embedder, scenario: scenario}
}

// Run executes episodes full select-then-learn cycles and returns the
// per-episode trace plus an aggregate summary.
func (h *Harness) Run(ctx context.Context, episodes int, model RewardModel) ([]EpisodeResult, Summary, error) {
	business, err := h.embedder.Embed(ctx, h.scenario.BusinessText)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("embed business: %w", err)
	}
	topic, err := h.embedder.Embed(ctx, h.scenario.TopicText)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("embed topic: %w", err)
	}

	c := bandit.Context{
		Platform:          h.scenario.Platform,
		TimeBucket:        h.scenario.TimeBucket,
		DayOfWeek:         h.scenario.DayOfWeek,
		BusinessEmbedding: business,
		TopicEmbedding:    topic,
	}

	summary := Summary{ValueCounts: make(map[actionspace.Dimension]map[string]int)}
	for _, dim := range actionspace.Dimensions {
		summary.ValueCounts[dim] = make(map[string]int)
	}

	results := make([]EpisodeResult, 0, episodes)
	for i := 0; i < episodes; i++ {
		postID := fmt.Sprintf("replay-%d", i)
		sel, err := h.engine.SelectAction(ctx, postID, c)
		if err != nil {
			return nil, Summary{}, fmt.Errorf("episode %d select: %w", i, err)
		}

		r := model(sel.Action)
		out, err := h.engine.Learn(ctx, sel.ActionID, r, false, 0)
		if err != nil {
			return nil, Summary{}, fmt.Errorf("episode %d learn: %w", i, err)
		}

		for _, p := range sel.Action.Pairs() {
			summary.ValueCounts[p.Dimension][p.Value]++
		}
		summary.MeanReward += r
		results = append(results, EpisodeResult{
			PostID:    postID,
			ActionID:  sel.ActionID,
			Action:    sel.Action,
			Reward:    r,
			Baseline:  out.Baseline,
			Advantage: out.Advantage,
		})
	}
	summary.Episodes = episodes
	if episodes > 0 {
		summary.MeanReward /= float64(episodes)
	}
	return results, summary, nil
}

// #endregion harness
