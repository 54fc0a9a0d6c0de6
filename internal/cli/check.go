package cli

import (
	"fmt"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load and resolve the knowledge base without quoting",
	Long: `Load every configured layer, resolve them and report the result.

Exits non-zero when a layer fails to load, the master layer is missing, or a
critical conflict (formulas or business rules) is found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		view := rt.engine.Snapshot()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Knowledge version: %s\n", view.Version)
		fmt.Fprintf(out, "  products:    %d\n", len(view.Products))
		fmt.Fprintf(out, "  accessories: %d\n", len(view.Accessories))
		fmt.Fprintf(out, "  formulas:    %d\n", len(view.Formulas))
		fmt.Fprintf(out, "  guards:      %d\n", len(view.Rules.Guards))
		if view.Rules.TaxDeclared {
			fmt.Fprintf(out, "  iva:         %s\n", view.Rules.TaxRate)
		} else {
			fmt.Fprintf(out, "  iva:         not declared, quotations carry no tax\n")
		}

		unverified := 0
		for _, p := range view.Products {
			if p.Unverified {
				unverified++
			}
		}
		if unverified > 0 {
			fmt.Fprintf(out, "  unverified:  %d product(s) not in the master layer\n", unverified)
		}

		critical := 0
		for _, c := range view.Conflicts {
			if c.Severity == domain.SeverityCritical {
				critical++
			}
		}
		fmt.Fprintf(out, "  conflicts:   %d (%d critical)\n", len(view.Conflicts), critical)
		if critical > 0 {
			return fmt.Errorf("%d critical conflict(s), run `cotizador conflicts` for details", critical)
		}
		return nil
	},
}
