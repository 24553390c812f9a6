package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/hunkr/internal/aggregate"
	"github.com/sprite-ai/hunkr/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status [comparison]",
	Short: "Print review progress per file",
	Long: `Print the saved review progress of a comparison as a directory tree.
Each entry shows how many of its hunks are reviewed. Exits non-zero with
--check when hunks are still pending or saved for later.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{"context_lines": "context"},
	RunE:        runStatus,
}

func init() {
	statusCmd.Flags().IntP("context", "C", 3, "lines of context around changes")
	statusCmd.Flags().StringP("format", "f", "text", "output format: text, json")
	statusCmd.Flags().Bool("check", false, "exit 1 unless every hunk is reviewed")
}

var errIncomplete = errors.New("review incomplete")

type statusReport struct {
	Comparison model.Comparison  `json:"comparison"`
	Progress   aggregate.Progress `json:"progress"`
	TrustList  []string           `json:"trustList"`
	Files      []fileStatus       `json:"files"`
}

type fileStatus struct {
	Path   string               `json:"path"`
	Status model.ChangeStatus   `json:"status,omitempty"`
	Counts model.FileHunkStatus `json:"counts"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := parseComparison(args)
	if err != nil {
		return err
	}
	s, err := openSession(cmd.Context(), c)
	if err != nil {
		return err
	}
	defer s.Close()

	format, _ := cmd.Flags().GetString("format")
	p := s.svc.Progress()

	switch format {
	case "json":
		r := statusReport{Comparison: c, Progress: p, TrustList: s.svc.State().TrustList}
		counts := s.svc.FileStatus()
		for _, f := range s.svc.Files() {
			r.Files = append(r.Files, fileStatus{Path: f.Path, Status: f.Status, Counts: counts[f.Path]})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return err
		}
	case "text":
		printStatus(c, p, s.svc.Tree())
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	check, _ := cmd.Flags().GetBool("check")
	if check && !p.Done() {
		return errIncomplete
	}
	return nil
}

func printStatus(c model.Comparison, p aggregate.Progress, tree *aggregate.Node) {
	fmt.Printf("%s: %d/%d hunks reviewed (%.0f%%)\n", c, p.Reviewed(), p.Total, p.Percent)
	fmt.Printf("  %d approved, %d trusted, %d rejected, %d saved for later, %d pending\n\n",
		p.Approved, p.Trusted, p.Rejected, p.SavedForLater, p.Pending)

	aggregate.Walk(tree, func(depth int, n *aggregate.Node) bool {
		if depth == 0 {
			return true
		}
		name := n.Name
		if n.IsDir {
			name += "/"
		}
		if n.RenamedFrom != "" {
			name += " (from " + n.RenamedFrom + ")"
		}
		indent := strings.Repeat("  ", depth-1)
		fmt.Printf("  %s %s%-*s %d/%d\n", n.Status.Letter(), indent, max(40-len(indent), 1), name, n.Counts.Reviewed(), n.Counts.Total)
		return true
	})
}
