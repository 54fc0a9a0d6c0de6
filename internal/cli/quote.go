package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Assemble a quotation for one roof",
	Long: `Assemble a quotation from the current knowledge snapshot.

The request can be given with flags or as a JSON file (--request). Span
violations and guard hits are shown as warnings; lookup and pricing errors
abort with their error code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := requestFromFlags(cmd)
		if err != nil {
			return err
		}

		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		q, err := rt.engine.Quote(cmd.Context(), req)
		if err != nil {
			if code := domain.ErrorCode(err); code != "" {
				return fmt.Errorf("[%s] %w", code, err)
			}
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(q)
		}
		displayQuotation(cmd.OutOrStdout(), q)
		return nil
	},
}

func init() {
	f := quoteCmd.Flags()
	f.String("request", "", "JSON file with the quotation request")
	f.String("product", "", "product key, e.g. ISODEC_EPS")
	f.Int("thickness", 0, "panel thickness in mm")
	f.String("length", "", "roof length in m")
	f.String("width", "", "roof width in m")
	f.String("span", "", "distance between supports in m")
	f.String("fixing", "concrete", "fixing type: concrete, metal or wood")
	f.String("overhang-start", "0", "overhang at the start of the run in m")
	f.String("overhang-end", "0", "overhang at the end of the run in m")
	f.String("slope", "0", "roof slope in percent")
	f.Bool("json", false, "print the quotation as JSON")
}

func requestFromFlags(cmd *cobra.Command) (domain.QuotationRequest, error) {
	var req domain.QuotationRequest
	f := cmd.Flags()

	if path, _ := f.GetString("request"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return req, fmt.Errorf("reading request: %w", err)
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		return req, nil
	}

	req.ProductKey, _ = f.GetString("product")
	req.ThicknessMM, _ = f.GetInt("thickness")
	fixing, _ := f.GetString("fixing")
	ft, err := domain.ParseFixingType(fixing)
	if err != nil {
		return req, err
	}
	req.FixingType = ft

	decimals := []struct {
		flag string
		dst  *decimal.Decimal
	}{
		{"length", &req.LengthM},
		{"width", &req.WidthM},
		{"span", &req.SpanM},
		{"overhang-start", &req.OverhangStartM},
		{"overhang-end", &req.OverhangEndM},
		{"slope", &req.SlopePct},
	}
	for _, d := range decimals {
		raw, _ := f.GetString(d.flag)
		if raw == "" {
			return req, fmt.Errorf("%w: --%s is required", domain.ErrInvalidRequest, d.flag)
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return req, fmt.Errorf("%w: --%s: %v", domain.ErrInvalidRequest, d.flag, err)
		}
		*d.dst = v
	}
	return req, nil
}
