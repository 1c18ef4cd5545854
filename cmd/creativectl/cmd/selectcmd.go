package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/postloop/creative-bandit/internal/bandit"
	"github.com/postloop/creative-bandit/internal/replay"
)

var (
	selPostID       string
	selPlatform     string
	selBucket       string
	selDay          int
	selBusinessText string
	selTopicText    string
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select a creative action for a new post",
	RunE:  runSelect,
}

func init() {
	selectCmd.Flags().StringVar(&selPostID, "post", "", "post ID (generated when empty)")
	selectCmd.Flags().StringVar(&selPlatform, "platform", "", "target platform")
	selectCmd.Flags().StringVar(&selBucket, "bucket", "morning", "time bucket (morning|afternoon|evening|night)")
	selectCmd.Flags().IntVar(&selDay, "day", 0, "day of week, 0-6")
	selectCmd.Flags().StringVar(&selBusinessText, "business", "", "business description to embed")
	selectCmd.Flags().StringVar(&selTopicText, "topic", "", "post topic to embed")
	selectCmd.MarkFlagRequired("platform")
	selectCmd.MarkFlagRequired("business")
	selectCmd.MarkFlagRequired("topic")
}

func runSelect(cmd *cobra.Command, args []string) error {
	platform, err := bandit.ParsePlatform(selPlatform)
	if err != nil {
		return err
	}
	if selPostID == "" {
		selPostID = uuid.New().String()
	}

	eng, st, err := openEngine()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	embedder := replay.NewHashEmbedder()
	business, err := embedder.Embed(ctx, selBusinessText)
	if err != nil {
		return err
	}
	topic, err := embedder.Embed(ctx, selTopicText)
	if err != nil {
		return err
	}

	sel, err := eng.SelectAction(ctx, selPostID, bandit.Context{
		Platform:          platform,
		TimeBucket:        bandit.TimeBucket(selBucket),
		DayOfWeek:         selDay,
		BusinessEmbedding: business,
		TopicEmbedding:    topic,
	})
	if err != nil {
		return err
	}

	out := struct {
		ActionID string      `json:"action_id"`
		PostID   string      `json:"post_id"`
		Action   interface{} `json:"action"`
	}{sel.ActionID, sel.PostID, sel.Action}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	return nil
}
