package cmd

import (
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/postloop/creative-bandit/internal/bandit"
	"github.com/postloop/creative-bandit/internal/config"
	"github.com/postloop/creative-bandit/internal/engine"
	"github.com/postloop/creative-bandit/internal/store"
)

var (
	flagDB      string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "creativectl",
	Short: "creativectl — creative-control learning engine",
	Long:  "Selects creative decisions for auto-generated posts and learns from their engagement.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if flagVerbose {
			level = zerolog.DebugLevel
		}
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(level).With().Timestamp().Logger()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(rewardCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(inspectCmd)
}

// openEngine wires a live engine over the configured database.
// The caller must Close the returned store.
func openEngine() (*engine.Engine, *store.Store, error) {
	cfg := config.Load()
	if flagDB != "" {
		cfg.Database.Path = flagDB
	}

	st, err := store.NewStore(cfg.Database.Path, bandit.ContextDim)
	if err != nil {
		return nil, nil, err
	}
	eng, err := engine.New(st, cfg, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return eng, st, nil
}
