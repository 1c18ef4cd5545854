package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/postloop/creative-bandit/internal/bandit"
	"github.com/postloop/creative-bandit/internal/reward"
	"github.com/postloop/creative-bandit/internal/store"
)

var (
	snapPostID   string
	snapPlatform string
	snapWindow   int
	snapMetrics  metricsFlags
)

// metricsFlags binds the engagement metric flags shared by snapshot and reward.
type metricsFlags struct {
	likes     float64
	comments  float64
	shares    float64
	saves     float64
	replies   float64
	retweets  float64
	reactions float64
	followers float64
}

func (m *metricsFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&m.likes, "likes", 0, "like count")
	cmd.Flags().Float64Var(&m.comments, "comments", 0, "comment count")
	cmd.Flags().Float64Var(&m.shares, "shares", 0, "share count")
	cmd.Flags().Float64Var(&m.saves, "saves", 0, "save count")
	cmd.Flags().Float64Var(&m.replies, "replies", 0, "reply count")
	cmd.Flags().Float64Var(&m.retweets, "retweets", 0, "retweet count")
	cmd.Flags().Float64Var(&m.reactions, "reactions", 0, "reaction count")
	cmd.Flags().Float64Var(&m.followers, "followers", 0, "follower count at snapshot time")
}

func (m *metricsFlags) metrics() reward.Metrics {
	return reward.Metrics{
		Likes:     m.likes,
		Comments:  m.comments,
		Shares:    m.shares,
		Saves:     m.saves,
		Replies:   m.replies,
		Retweets:  m.retweets,
		Reactions: m.reactions,
		Followers: m.followers,
	}
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record an engagement snapshot for a post",
	RunE:  runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapPostID, "post", "", "post ID")
	snapshotCmd.Flags().StringVar(&snapPlatform, "platform", "", "platform")
	snapshotCmd.Flags().IntVar(&snapWindow, "window", 24, "snapshot window in hours (6|24|48|72|168)")
	snapMetrics.register(snapshotCmd)
	snapshotCmd.MarkFlagRequired("post")
	snapshotCmd.MarkFlagRequired("platform")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	platform, err := bandit.ParsePlatform(snapPlatform)
	if err != nil {
		return err
	}

	_, st, err := openEngine()
	if err != nil {
		return err
	}
	defer st.Close()

	err = st.InsertSnapshot(context.Background(), store.SnapshotRecord{
		PostID:      snapPostID,
		Platform:    platform,
		WindowHours: snapWindow,
		Metrics:     snapMetrics.metrics(),
		SnapshotAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	fmt.Printf("snapshot recorded: post=%s window=%dh\n", snapPostID, snapWindow)
	return nil
}
