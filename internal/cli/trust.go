package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var trustCmd = &cobra.Command{
	Use:   "trust",
	Short: "Edit the trust list of a review",
	Long: `Hunks with no explicit status whose labels match a trust pattern are
trusted automatically. Patterns are matched against labels such as
"imports:added"; "*" matches any label and "imports:*" any label of the
imports category.`,
}

var trustListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trust patterns and the hunks each one trusts",
	Args:  cobra.NoArgs,
	RunE:  runTrustList,
}

var trustAddCmd = &cobra.Command{
	Use:   "add <pattern>...",
	Short: "Add trust patterns",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTrustEdit(true),
}

var trustRmCmd = &cobra.Command{
	Use:     "rm <pattern>...",
	Aliases: []string{"remove"},
	Short:   "Remove trust patterns",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runTrustEdit(false),
}

func init() {
	trustCmd.PersistentFlags().StringP("comparison", "c", "", "comparison to edit (default: working tree vs HEAD)")
	trustCmd.AddCommand(trustListCmd, trustAddCmd, trustRmCmd)
}

func trustComparisonArgs(cmd *cobra.Command) []string {
	if key, _ := cmd.Flags().GetString("comparison"); key != "" {
		return []string{key}
	}
	return nil
}

func runTrustList(cmd *cobra.Command, _ []string) error {
	c, err := parseComparison(trustComparisonArgs(cmd))
	if err != nil {
		return err
	}
	s, err := openSession(cmd.Context(), c)
	if err != nil {
		return err
	}
	defer s.Close()

	st := s.svc.State()
	if len(st.TrustList) == 0 {
		fmt.Println("No trust patterns.")
	}
	for _, p := range st.TrustList {
		fmt.Printf("  %-30s %d hunk(s)\n", p, s.svc.TrustedHunkCount(p))
	}
	if st.AutoApproveStaged {
		fmt.Println("  (staged files are trusted)")
	}
	return nil
}

func runTrustEdit(add bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := parseComparison(trustComparisonArgs(cmd))
		if err != nil {
			return err
		}
		s, err := openSession(cmd.Context(), c)
		if err != nil {
			return err
		}
		defer s.Close()

		if add {
			_, err = s.svc.AddTrust(cmd.Context(), args...)
		} else {
			_, err = s.svc.RemoveTrust(cmd.Context(), args...)
		}
		if err != nil {
			return err
		}

		p := s.svc.Progress()
		fmt.Printf("%s: %d pattern(s), %d hunk(s) trusted\n", c, len(s.svc.State().TrustList), p.Trusted)
		return nil
	}
}
