package usecase

import (
	"context"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	"github.com/Victor-armando18/cotizador-paneles/internal/interfaces"
	"go.uber.org/zap"
)

// GuardEvaluator runs the knowledge base guards against a finished quotation.
// Guards only warn; a guard that fails to evaluate is logged and skipped.
type GuardEvaluator struct {
	executor interfaces.GuardExecutor
	log      *zap.Logger
}

func NewGuardEvaluator(executor interfaces.GuardExecutor, log *zap.Logger) *GuardEvaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &GuardEvaluator{executor: executor, log: log}
}

func (g *GuardEvaluator) Evaluate(ctx context.Context, guards []domain.GuardRule, q *domain.Quotation, rules domain.BusinessRules) []domain.GuardViolation {
	if g.executor == nil || len(guards) == 0 {
		return nil
	}
	data := guardContext(q, rules)

	var hits []domain.GuardViolation
	for _, guard := range guards {
		out, err := g.executor.Execute(ctx, guard.Logic, data)
		if err != nil {
			g.log.Warn("guard evaluation failed", zap.String("guard", guard.ID), zap.Error(err))
			continue
		}
		if v, ok := out.(bool); ok && v {
			msg := guard.Message
			if msg == "" {
				msg = "Condición restrictiva alcanzada"
			}
			hits = append(hits, domain.GuardViolation{RuleID: guard.ID, Message: msg})
		}
	}
	return hits
}

// guardContext exposes the quotation as plain numbers. Guards are advisory, so
// float conversion is acceptable here and nowhere else.
func guardContext(q *domain.Quotation, rules domain.BusinessRules) map[string]interface{} {
	var panels int64
	if len(q.BOM) > 0 {
		panels = q.BOM[0].Quantity
	}
	req := q.Request
	return map[string]interface{}{
		"request": map[string]interface{}{
			"product_key":      req.ProductKey,
			"thickness_mm":     req.ThicknessMM,
			"length_m":         req.LengthM.InexactFloat64(),
			"width_m":          req.WidthM.InexactFloat64(),
			"span_m":           req.SpanM.InexactFloat64(),
			"fixing_type":      string(req.FixingType),
			"overhang_start_m": req.OverhangStartM.InexactFloat64(),
			"overhang_end_m":   req.OverhangEndM.InexactFloat64(),
			"slope_pct":        req.SlopePct.InexactFloat64(),
		},
		"quotation": map[string]interface{}{
			"panel_count": panels,
			"area_total":  TotalArea(req).InexactFloat64(),
			"subtotal":    q.Subtotal.InexactFloat64(),
			"total":       q.Total.InexactFloat64(),
			"span_ok":     q.Validation.Passed,
		},
		"reglas": map[string]interface{}{
			"iva":                    rules.TaxRate.InexactFloat64(),
			"pendiente_minima_techo": rules.MinSlopePct.InexactFloat64(),
			"moneda":                 rules.Currency,
		},
	}
}
