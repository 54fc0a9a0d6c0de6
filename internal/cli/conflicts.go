package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List disagreements between knowledge layers",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		conflicts := rt.engine.Conflicts()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(conflicts)
		}

		out := cmd.OutOrStdout()
		if len(conflicts) == 0 {
			fmt.Fprintln(out, "No conflicts between layers.")
			return nil
		}
		fmt.Fprintf(out, "%d conflict(s):\n\n", len(conflicts))
		for _, c := range conflicts {
			fmt.Fprintf(out, "  %s\n", describeConflict(c))
		}
		return nil
	},
}

func init() {
	conflictsCmd.Flags().Bool("json", false, "print the conflicts as JSON")
}
