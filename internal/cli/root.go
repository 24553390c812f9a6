// Package cli implements the hunkr command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/hunkr/internal/config"
	"github.com/sprite-ai/hunkr/internal/logger"
)

var (
	cfgFile string
	v       = config.New()
	cfg     *config.Config
	log     = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "hunkr",
	Short: "Review git diffs hunk by hunk",
	Long: `hunkr walks through a git diff one hunk at a time. Hunks are approved,
rejected, saved for later, or trusted automatically when their labels match
a trust pattern. Review state is saved per comparison.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/hunkr/config.toml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("store", "file", "review store: file or sqlite")
	pf.String("state-dir", "", "directory holding saved reviews")

	rootCmd.AddCommand(reviewCmd, statusCmd, trustCmd, freshCmd, serveCmd, versionCmd)
}

// flagBindings maps config keys to the flags of cmd. Commands add their own
// bindings through Annotations.
func flagBindings(cmd *cobra.Command) map[string]string {
	keys := map[string]string{
		"log.level": "log-level",
		"store":     "store",
		"state_dir": "state-dir",
	}
	maps.Copy(keys, cmd.Annotations)
	return keys
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := config.BindFlags(v, cmd.Flags(), flagBindings(cmd)); err != nil {
		return err
	}
	c, err := config.Load(v, cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg = c
	log = logger.New(cfg.Log, nil)
	slog.SetDefault(log)
	return nil
}

// Execute runs the root command. Interrupts cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
