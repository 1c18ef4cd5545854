package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/postloop/creative-bandit/internal/actionspace"
	"github.com/postloop/creative-bandit/internal/bandit"
	"github.com/postloop/creative-bandit/internal/config"
	"github.com/postloop/creative-bandit/internal/engine"
	"github.com/postloop/creative-bandit/internal/replay"
	"github.com/postloop/creative-bandit/internal/store"
)

var (
	simEpisodes int
	simSeed     int64
	simPlatform string
	simFavorDim string
	simFavorVal string
	simHighRwd  float64
	simLowRwd   float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a policy progression simulation against a throwaway database",
	Long: "Drives select-learn cycles under a synthetic reward model that favors one " +
		"action value, then reports how strongly the policy concentrated on it.",
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&simEpisodes, "episodes", 200, "number of simulated posts")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 1, "sampling seed")
	simulateCmd.Flags().StringVar(&simPlatform, "platform", "instagram", "platform")
	simulateCmd.Flags().StringVar(&simFavorDim, "favor-dim", "hook_type", "dimension the audience favors")
	simulateCmd.Flags().StringVar(&simFavorVal, "favor-value", "question", "value the audience favors")
	simulateCmd.Flags().Float64Var(&simHighRwd, "high", 0.9, "reward when the favored value is chosen")
	simulateCmd.Flags().Float64Var(&simLowRwd, "low", 0.1, "reward otherwise")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	platform, err := bandit.ParsePlatform(simPlatform)
	if err != nil {
		return err
	}
	dim := actionspace.Dimension(simFavorDim)
	if !actionspace.ValidValue(dim, simFavorVal) {
		return fmt.Errorf("%q is not a valid value for dimension %q", simFavorVal, simFavorDim)
	}

	dir, err := os.MkdirTemp("", "creative-bandit-sim")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	st, err := store.NewStore(filepath.Join(dir, "sim.db"), bandit.ContextDim)
	if err != nil {
		return err
	}
	defer st.Close()

	eng, err := engine.New(st, config.Default(), rand.New(rand.NewSource(simSeed)))
	if err != nil {
		return err
	}

	h := replay.NewHarness(eng, replay.NewHashEmbedder(), replay.Scenario{
		Platform:     platform,
		TimeBucket:   bandit.BucketMorning,
		DayOfWeek:    1,
		BusinessText: "simulated business profile",
		TopicText:    "simulated topic",
	})
	model := replay.FavoredValues(map[actionspace.Dimension]string{dim: simFavorVal}, simHighRwd, simLowRwd)

	_, summary, err := h.Run(context.Background(), simEpisodes, model)
	if err != nil {
		return err
	}

	fmt.Printf("episodes=%d mean_reward=%.4f\n", summary.Episodes, summary.MeanReward)
	fmt.Printf("selection counts for %s:\n", simFavorDim)
	for _, v := range actionspace.Values(dim) {
		marker := " "
		if v == simFavorVal {
			marker = "*"
		}
		fmt.Printf("  %s %-16s %d\n", marker, v, summary.Count(dim, v))
	}
	return nil
}
