package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/hunkr/internal/diff"
	"github.com/sprite-ai/hunkr/internal/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review [comparison]",
	Short: "Open an interactive review session",
	Long: `Open an interactive TUI for reviewing changes hunk by hunk. By default,
reviews the working tree against HEAD. Decisions are saved as you go and
restored the next time the same comparison is reviewed.

Examples:
  hunkr review                         # working tree vs HEAD
  hunkr review HEAD~1..HEAD            # last commit
  hunkr review main..HEAD              # branch vs main
  hunkr review HEAD..HEAD+staged       # staged changes only`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{"context_lines": "context"},
	RunE:        runReview,
}

func init() {
	reviewCmd.Flags().IntP("context", "C", 3, "lines of context around changes")
	reviewCmd.Flags().Bool("stat", false, "print diff stats and exit (non-interactive)")
	reviewCmd.Flags().StringP("output-patch", "o", "", "write approved and trusted hunks as a patch to file")
	reviewCmd.Flags().Bool("commit-msg", false, "print a suggested commit message after review")
}

func runReview(cmd *cobra.Command, args []string) error {
	c, err := parseComparison(args)
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), c)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(s.ds.Files) == 0 {
		fmt.Println("No changes to review.")
		return nil
	}

	stat, _ := cmd.Flags().GetBool("stat")
	if stat {
		return printStat(s.ds)
	}

	if err := tui.Run(cmd.Context(), s.svc, s.ds); err != nil {
		return err
	}

	patchPath, _ := cmd.Flags().GetString("output-patch")
	if patchPath != "" {
		patch := diff.Patch(s.ds.Files, s.accepted)
		if patch != "" {
			if err := os.WriteFile(patchPath, []byte(patch), 0o644); err != nil {
				return fmt.Errorf("writing patch: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Patch written to %s\n", patchPath)
		} else {
			fmt.Fprintln(os.Stderr, "No approved hunks, no patch written.")
		}
	}

	commitMsg, _ := cmd.Flags().GetBool("commit-msg")
	if commitMsg {
		if msg := diff.CommitMessage(s.ds.Files, s.accepted); msg != "" {
			fmt.Println(msg)
		}
	}

	return nil
}

func printStat(ds *diff.DiffSet) error {
	files, added, deleted := ds.Stats()
	fmt.Printf("%d file(s) changed, %d insertions(+), %d deletions(-)\n\n", files, added, deleted)
	for _, f := range ds.Files {
		fmt.Printf("  %s %-50s +%-4d -%d\n", f.Entry().Status.Letter(), f.Name(), f.AddedLines, f.DeletedLines)
	}
	return nil
}
