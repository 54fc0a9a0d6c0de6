package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
)

func displayQuotation(w io.Writer, q *domain.Quotation) {
	line := strings.Repeat("=", 72)
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "   COTIZACIÓN %s\n", q.QuotationID)
	fmt.Fprintf(w, "   %s (%s) | KB %s\n", q.ProductName, q.Request.ProductID(), q.KnowledgeVersion)
	fmt.Fprintln(w, line)

	// 1. Caminho percorrido pelo pipeline
	fmt.Fprintln(w, "\n[1. LOG DE EXECUÇÃO]")
	for _, step := range q.AuditLog {
		fmt.Fprintf(w, "   [%-9s] %-10s -> %s\n", strings.ToUpper(step.Phase), step.Action, step.Message)
	}

	// 2. Autoportância
	fmt.Fprintln(w, "\n[2. AUTOPORTANCIA]")
	v := q.Validation
	if v.Passed {
		fmt.Fprintf(w, "   OK: luz %s m <= %s m\n", v.MeasuredValue, v.LimitValue)
	} else {
		fmt.Fprintf(w, "   [%s] %s\n", v.Code, v.WarningMessage)
	}

	// 3. Lista de materiais
	fmt.Fprintln(w, "\n[3. MATERIALES]")
	for _, l := range q.BOM {
		fmt.Fprintf(w, "   %-22s %6d %-8s x %10s = %12s  (L%d)\n",
			l.ItemKey, l.Quantity, l.Unit, l.UnitPrice.StringFixed(q.MinorUnits), l.LineTotal.StringFixed(q.MinorUnits), l.SourceLevel)
	}

	// 4. Totais
	fmt.Fprintln(w, "\n[4. TOTALES]")
	fmt.Fprintf(w, "   Subtotal:   %s %s\n", q.Subtotal.StringFixed(q.MinorUnits), q.Currency)
	if !q.DiscountAmount.IsZero() {
		fmt.Fprintf(w, "   Descuento:  -%s (%s%%)\n", q.DiscountAmount.StringFixed(q.MinorUnits), q.DiscountRate.Shift(2))
	}
	fmt.Fprintf(w, "   IVA:        %s (%s%%)\n", q.TaxAmount.StringFixed(q.MinorUnits), q.TaxRate.Shift(2))
	fmt.Fprintf(w, "   Total:      %s %s\n", q.Total.StringFixed(q.MinorUnits), q.Currency)
	fmt.Fprintf(w, "   Verificado: %t\n", q.CalculationVerified)

	// 5. Avisos e conflitos
	if len(q.Warnings) > 0 || len(q.Conflicts) > 0 {
		fmt.Fprintln(w, "\n[5. AVISOS]")
		for _, warn := range q.Warnings {
			fmt.Fprintf(w, "   ! %s\n", warn)
		}
		for _, c := range q.Conflicts {
			fmt.Fprintf(w, "   ! %s\n", describeConflict(c))
		}
	}
	fmt.Fprintln(w, line)
}

func describeConflict(c domain.ConflictReport) string {
	subject := c.ProductKey
	if c.ThicknessMM > 0 {
		subject = domain.ProductID{Key: c.ProductKey, ThicknessMM: c.ThicknessMM}.String()
	}
	return fmt.Sprintf("[%s] %s.%s: L%d=%s vs L%d=%s", strings.ToUpper(c.Severity), subject, c.Field, c.LevelA, c.ValueA, c.LevelB, c.ValueB)
}
