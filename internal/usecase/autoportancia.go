package usecase

import (
	"fmt"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	"github.com/shopspring/decimal"
)

// SpanValidator checks a requested span against the product's autoportancia.
// The check is advisory: a failure becomes a warning on the quotation.
type SpanValidator struct {
	view *domain.ResolvedView
}

func NewSpanValidator(view *domain.ResolvedView) *SpanValidator {
	return &SpanValidator{view: view}
}

func (v *SpanValidator) Validate(spec domain.ProductSpec, span decimal.Decimal) domain.ValidationOutcome {
	out := domain.ValidationOutcome{
		Passed:        span.LessThanOrEqual(spec.MaxSpanM),
		MeasuredValue: span,
		LimitValue:    spec.MaxSpanM,
	}
	if out.Passed {
		return out
	}

	out.Code = domain.CodeSpanExceeded
	if alt, ok := v.thickerOption(spec, span); ok {
		id := alt.ID()
		out.Alternative = &id
		out.WarningMessage = fmt.Sprintf(
			"La luz de %s m supera la autoportancia de %s m para %s %d mm. Opción segura: %s %d mm (autoportancia %s m).",
			span, spec.MaxSpanM, spec.Key, spec.ThicknessMM, alt.Key, alt.ThicknessMM, alt.MaxSpanM)
		return out
	}
	out.WarningMessage = fmt.Sprintf(
		"La luz de %s m supera la autoportancia de %s m para %s %d mm por %s m. No hay espesor mayor disponible: se requiere un apoyo intermedio.",
		span, spec.MaxSpanM, spec.Key, spec.ThicknessMM, span.Sub(spec.MaxSpanM))
	return out
}

// thickerOption picks the thinnest verified product of the same family that is
// thicker than spec and bridges span. Same product key wins a thickness tie.
func (v *SpanValidator) thickerOption(spec domain.ProductSpec, span decimal.Decimal) (domain.ProductSpec, bool) {
	if v.view == nil || spec.Family == "" {
		return domain.ProductSpec{}, false
	}
	var best domain.ProductSpec
	found := false
	for _, p := range v.view.FamilyProducts(spec.Family) {
		c := p.Spec
		if p.Unverified || c.ThicknessMM <= spec.ThicknessMM || c.MaxSpanM.LessThan(span) {
			continue
		}
		switch {
		case !found:
			best, found = c, true
		case c.ThicknessMM < best.ThicknessMM:
			best = c
		case c.ThicknessMM == best.ThicknessMM && c.Key == spec.Key && best.Key != spec.Key:
			best = c
		}
	}
	return best, found
}
