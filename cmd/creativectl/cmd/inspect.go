package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/postloop/creative-bandit/internal/bandit"
)

var (
	insPlatform string
	insLimit    int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the learned state for a platform",
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&insPlatform, "platform", "", "platform to inspect")
	inspectCmd.Flags().IntVar(&insLimit, "limit", 20, "max preference rows to print")
	inspectCmd.MarkFlagRequired("platform")
}

func runInspect(cmd *cobra.Command, args []string) error {
	platform, err := bandit.ParsePlatform(insPlatform)
	if err != nil {
		return err
	}

	eng, st, err := openEngine()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	baseline, err := eng.Baseline(ctx, platform)
	if err != nil {
		return err
	}
	fmt.Printf("platform=%s baseline=%.4f\n\n", platform, baseline)

	rows, err := st.ListPreferences(ctx, platform)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("no learned preferences yet")
		return nil
	}

	fmt.Printf("%-10s %-4s %-14s %-16s %10s %8s\n",
		"bucket", "day", "dimension", "value", "score", "samples")
	for i, r := range rows {
		if i >= insLimit {
			break
		}
		fmt.Printf("%-10s %-4d %-14s %-16s %10.4f %8d\n",
			r.Key.TimeBucket, r.Key.DayOfWeek, r.Key.Dimension, r.Key.Value,
			r.Entry.Score, r.Entry.NumSamples)
	}
	return nil
}
