package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/postloop/creative-bandit/internal/bandit"
	"github.com/postloop/creative-bandit/internal/reward"
)

var (
	rwdPlatform string
	rwdDeleted  bool
	rwdDays     float64
	rwdMetrics  metricsFlags
)

var rewardCmd = &cobra.Command{
	Use:   "reward",
	Short: "Compute the reward for a set of engagement metrics",
	Long:  "Dry-run reward computation: prints the bounded reward without touching the policy.",
	RunE:  runReward,
}

func init() {
	rewardCmd.Flags().StringVar(&rwdPlatform, "platform", "", "platform whose weight table to use")
	rewardCmd.Flags().BoolVar(&rwdDeleted, "deleted", false, "post was deleted")
	rewardCmd.Flags().Float64Var(&rwdDays, "days", 0, "days between posting and deletion")
	rwdMetrics.register(rewardCmd)
	rewardCmd.MarkFlagRequired("platform")
}

func runReward(cmd *cobra.Command, args []string) error {
	platform, err := bandit.ParsePlatform(rwdPlatform)
	if err != nil {
		return err
	}

	calc := reward.NewCalculator(reward.DefaultConfig())
	m := rwdMetrics.metrics()

	eng, err := reward.Engagement(platform, m)
	if err != nil {
		return err
	}
	r, err := calc.Compute(platform, m, rwdDeleted, rwdDays)
	if err != nil {
		return err
	}

	fmt.Printf("engagement=%.2f reward=%.4f\n", eng, r)
	return nil
}
