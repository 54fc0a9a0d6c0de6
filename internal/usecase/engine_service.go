package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	"github.com/Victor-armando18/cotizador-paneles/internal/interfaces"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Fases do pipeline de cotação, na ordem em que aparecem no log de auditoria.
const (
	PhaseResolve  = "resolve"
	PhaseValidate = "validate"
	PhaseMaterial = "material"
	PhasePricing  = "pricing"
	PhaseGuards   = "guards"
	PhaseVerify   = "verify"
)

var quotationNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("cotizador-paneles/quotation"))

// QuotationService assembles quotations from the current knowledge snapshot.
type QuotationService struct {
	views   interfaces.ViewProvider
	pricing *PricingEngine
	guards  *GuardEvaluator
	log     *zap.Logger
}

func NewQuotationService(views interfaces.ViewProvider, executor interfaces.GuardExecutor, log *zap.Logger) *QuotationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &QuotationService{
		views:   views,
		pricing: NewPricingEngine(),
		guards:  NewGuardEvaluator(executor, log),
		log:     log,
	}
}

func (s *QuotationService) Quote(ctx context.Context, req domain.QuotationRequest) (*domain.Quotation, error) {
	view := s.views.Current()
	if view == nil {
		return nil, domain.ErrMasterMissing
	}
	return s.QuoteWith(ctx, view, req)
}

// QuoteWith runs the pipeline against an explicit snapshot.
func (s *QuotationService) QuoteWith(ctx context.Context, view *domain.ResolvedView, req domain.QuotationRequest) (*domain.Quotation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	product, err := view.Product(req.ProductID())
	if err != nil {
		return nil, err
	}
	spec := product.Spec
	auditLog := []domain.ExecutionStep{{
		Phase:   PhaseResolve,
		Action:  "lookup",
		Message: fmt.Sprintf("%s resolved from level %d (unverified=%t)", spec.ID(), product.Level, product.Unverified),
	}}

	validation := NewSpanValidator(view).Validate(spec, req.SpanM)
	auditLog = append(auditLog, domain.ExecutionStep{
		Phase:   PhaseValidate,
		Action:  "span",
		Message: fmt.Sprintf("span %s m vs limit %s m: passed=%t", req.SpanM, spec.MaxSpanM, validation.Passed),
	})

	bom, err := NewMaterialCalculator(view).Calculate(spec, req)
	if err != nil {
		return nil, err
	}
	auditLog = append(auditLog, domain.ExecutionStep{
		Phase:   PhaseMaterial,
		Action:  "bom",
		Message: fmt.Sprintf("area %s m2, %d panels, %d lines", TotalArea(req), bom[0].Quantity, len(bom)),
	})

	priced, err := s.pricing.Price(view, spec, bom, view.Rules)
	if err != nil {
		return nil, err
	}
	auditLog = append(auditLog, domain.ExecutionStep{
		Phase:   PhasePricing,
		Action:  "totals",
		Message: fmt.Sprintf("subtotal %s, discount %s, tax %s, total %s %s", priced.Subtotal, priced.DiscountAmount, priced.TaxAmount, priced.Total, priced.Currency),
	})

	q := &domain.Quotation{
		QuotationID:        quotationID(req, view.Version),
		KnowledgeVersion:   view.Version,
		Request:            req,
		ProductName:        spec.Name,
		ResolvedLayerLevel: priced.PanelLevel,
		Validation:         validation,
		BOM:                priced.Lines,
		Subtotal:           priced.Subtotal,
		DiscountRate:       priced.DiscountRate,
		DiscountAmount:     priced.DiscountAmount,
		TaxRate:            priced.TaxRate,
		TaxAmount:          priced.TaxAmount,
		Total:              priced.Total,
		Currency:           priced.Currency,
		MinorUnits:         priced.MinorUnits,
		Conflicts:          relevantConflicts(view, spec, bom),
	}
	if !validation.Passed {
		q.Warnings = append(q.Warnings, validation.WarningMessage)
	}

	q.Guards = s.guards.Evaluate(ctx, view.Rules.Guards, q, view.Rules)
	for _, g := range q.Guards {
		q.Warnings = append(q.Warnings, g.Message)
	}
	auditLog = append(auditLog, domain.ExecutionStep{
		Phase:   PhaseGuards,
		Action:  "evaluate",
		Message: fmt.Sprintf("%d of %d guards hit", len(q.Guards), len(view.Rules.Guards)),
	})

	verr := Verify(q)
	q.CalculationVerified = verr == nil
	msg := "all totals reconcile"
	if verr != nil {
		msg = verr.Error()
		s.log.Error("quotation failed self-check", zap.String("quotation_id", q.QuotationID), zap.Error(verr))
	}
	q.AuditLog = append(auditLog, domain.ExecutionStep{Phase: PhaseVerify, Action: "reconcile", Message: msg})

	s.log.Info("quotation assembled",
		zap.String("quotation_id", q.QuotationID),
		zap.String("product", spec.ID().String()),
		zap.String("total", q.Total.String()),
		zap.String("currency", q.Currency),
		zap.Bool("span_passed", validation.Passed),
		zap.Int("guards_hit", len(q.Guards)),
		zap.Bool("verified", q.CalculationVerified),
	)
	return q, nil
}

// Verify recomputes every figure of q from its stored fields and reports the
// first mismatch. A nil error means the quotation can be presented.
func Verify(q *domain.Quotation) error {
	if len(q.BOM) == 0 {
		return fmt.Errorf("quotation has no lines")
	}
	places := q.MinorUnits
	sum := decimal.Zero
	for _, line := range q.BOM {
		want := LineTotal(line.Quantity, line.UnitPrice, places)
		if !line.LineTotal.Equal(want) {
			return fmt.Errorf("line %s: total %s, expected %s", line.ItemKey, line.LineTotal, want)
		}
		sum = sum.Add(line.LineTotal)
	}
	if !q.Subtotal.Equal(sum) {
		return fmt.Errorf("subtotal %s, lines add up to %s", q.Subtotal, sum)
	}
	discount := RoundMoney(q.Subtotal.Mul(q.DiscountRate), places)
	if !q.DiscountAmount.Equal(discount) {
		return fmt.Errorf("discount %s, expected %s", q.DiscountAmount, discount)
	}
	taxable := q.Subtotal.Sub(q.DiscountAmount)
	tax := RoundMoney(taxable.Mul(q.TaxRate), places)
	if !q.TaxAmount.Equal(tax) {
		return fmt.Errorf("tax %s, expected %s", q.TaxAmount, tax)
	}
	if total := taxable.Add(q.TaxAmount); !q.Total.Equal(total) {
		return fmt.Errorf("total %s, expected %s", q.Total, total)
	}
	return nil
}

// quotationID is derived from the request and the knowledge version so the
// same input on the same snapshot always yields the same id.
// Numerically equal measures written differently ("10" and "10.0") hash alike.
func quotationID(req domain.QuotationRequest, version string) string {
	key := strings.Join([]string{
		req.ProductKey,
		fmt.Sprint(req.ThicknessMM),
		canonicalDecimal(req.LengthM),
		canonicalDecimal(req.WidthM),
		canonicalDecimal(req.SpanM),
		string(req.FixingType),
		canonicalDecimal(req.OverhangStartM),
		canonicalDecimal(req.OverhangEndM),
		canonicalDecimal(req.SlopePct),
		version,
	}, "|")
	return uuid.NewSHA1(quotationNamespace, []byte(key)).String()
}

func canonicalDecimal(d decimal.Decimal) string {
	s := d.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

func relevantConflicts(view *domain.ResolvedView, spec domain.ProductSpec, bom []domain.BOMLineItem) []domain.ConflictReport {
	items := make(map[string]bool, len(bom))
	for _, line := range bom[1:] {
		items[line.ItemKey] = true
	}
	var out []domain.ConflictReport
	for _, c := range view.Conflicts {
		switch {
		case c.Severity == domain.SeverityCritical:
			out = append(out, c)
		case c.ProductKey == spec.Key && c.ThicknessMM == spec.ThicknessMM:
			out = append(out, c)
		case c.ThicknessMM == 0 && items[c.ProductKey]:
			out = append(out, c)
		}
	}
	return out
}
