package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	learnActionID string
	learnReward   float64
	learnSnaps    bool
	learnDeleted  bool
	learnDays     float64
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Fold a realized reward into the policy",
	Long: "Applies the learning update for a previously selected action, either from an " +
		"explicit reward value or from the post's stored engagement snapshots.",
	RunE: runLearn,
}

func init() {
	learnCmd.Flags().StringVar(&learnActionID, "action-id", "", "action to learn from")
	learnCmd.Flags().Float64Var(&learnReward, "reward", 0, "explicit reward in [-1, 1]")
	learnCmd.Flags().BoolVar(&learnSnaps, "from-snapshots", false, "compute the reward from stored snapshots")
	learnCmd.Flags().BoolVar(&learnDeleted, "deleted", false, "post was deleted")
	learnCmd.Flags().Float64Var(&learnDays, "days", 0, "days between posting and deletion")
	learnCmd.MarkFlagRequired("action-id")
}

func runLearn(cmd *cobra.Command, args []string) error {
	if !learnSnaps && !cmd.Flags().Changed("reward") {
		return fmt.Errorf("either --reward or --from-snapshots is required")
	}

	eng, st, err := openEngine()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if learnSnaps {
		out, err := eng.LearnFromSnapshots(ctx, learnActionID, learnDeleted, learnDays)
		if err != nil {
			return err
		}
		printOutcome(out.Reward, out.Baseline, out.Advantage, out.Warnings)
		return nil
	}

	out, err := eng.Learn(ctx, learnActionID, learnReward, learnDeleted, learnDays)
	if err != nil {
		return err
	}
	printOutcome(out.Reward, out.Baseline, out.Advantage, out.Warnings)
	return nil
}

func printOutcome(reward, baseline, advantage float64, warnings []string) {
	fmt.Printf("reward=%.4f baseline=%.4f advantage=%.4f\n", reward, baseline, advantage)
	for _, w := range warnings {
		fmt.Printf("warning: %s\n", w)
	}
}
