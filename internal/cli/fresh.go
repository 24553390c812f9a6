package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/hunkr/internal/freshness"
	"github.com/sprite-ai/hunkr/internal/review"
)

var freshCmd = &cobra.Command{
	Use:   "fresh",
	Short: "Check saved reviews against the repository",
	Long: `Resolve the refs of every saved review and report whether its diff
still has changes. Results are cached on the saved reviews; refs whose
commits have not moved are not diffed again.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{"freshness.concurrency": "concurrency"},
	RunE:        runFresh,
}

func init() {
	freshCmd.Flags().IntP("concurrency", "j", freshness.DefaultConcurrency, "reviews checked in parallel")
	freshCmd.Flags().StringP("format", "f", "text", "output format: text, json")
	freshCmd.Flags().Bool("prune", false, "delete saved reviews with no remaining changes")
}

func runFresh(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	repoDir, err := gitRepoRoot(ctx)
	if err != nil {
		return fmt.Errorf("not in a git repository (or git not installed): %w", err)
	}
	repo, err := freshness.OpenRepo(repoDir)
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	saved, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("listing reviews: %w", err)
	}
	reviews := make([]freshness.Review, len(saved))
	for i, s := range saved {
		reviews[i] = freshness.Review{Comparison: s.Comparison, Cached: s.Freshness}
	}

	results, err := freshness.NewChecker(repo, cfg.Freshness.Concurrency, log).Check(ctx, reviews)
	if err != nil {
		return err
	}

	prune, _ := cmd.Flags().GetBool("prune")
	now := time.Now()
	for _, r := range results {
		if r.Err != "" {
			continue
		}
		if prune && !r.IsActive {
			if err := store.Delete(ctx, r.Key); err != nil {
				return fmt.Errorf("pruning %s: %w", r.Key, err)
			}
			log.Info("pruned review", "comparison", r.Key)
			continue
		}
		state, err := store.Load(ctx, r.Key)
		if err != nil {
			return fmt.Errorf("loading review %s: %w", r.Key, err)
		}
		next, err := review.Apply(state, review.SetFreshness(r.Freshness(now)))
		if err != nil {
			return err
		}
		if _, err := store.Save(ctx, next); err != nil {
			return fmt.Errorf("saving review %s: %w", r.Key, err)
		}
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "text":
		printFresh(results)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func printFresh(results []freshness.Result) {
	if len(results) == 0 {
		fmt.Println("No saved reviews.")
		return
	}
	for _, r := range results {
		state := "active"
		switch {
		case r.Err != "":
			state = "error: " + r.Err
		case !r.IsActive:
			state = "no changes"
		}
		line := fmt.Sprintf("  %-40s %s", r.Key, state)
		if r.DiffStats != nil {
			line += fmt.Sprintf(" (%d files, +%d -%d)", r.DiffStats.FileCount, r.DiffStats.Additions, r.DiffStats.Deletions)
		}
		if r.Err == "" && !r.Refetched {
			line += " [cached]"
		}
		fmt.Println(line)
	}
}
