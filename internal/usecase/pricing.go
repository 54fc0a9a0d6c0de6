package usecase

import (
	"fmt"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	"github.com/shopspring/decimal"
)

// PriceBreakdown is the output of the PricingEngine.
type PriceBreakdown struct {
	Lines          []domain.BOMLineItem
	Subtotal       decimal.Decimal
	DiscountRate   decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxRate        decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
	Currency       string
	MinorUnits     int32
	PanelLevel     domain.Level
}

// PricingEngine prices a BOM with exact decimals. Every rounding happens once,
// half-up, at the currency's minor unit.
type PricingEngine struct{}

func NewPricingEngine() *PricingEngine { return &PricingEngine{} }

// Price fills unit prices from the view and totals the BOM. The first line is
// the panel of spec; the others are accessories.
func (p *PricingEngine) Price(view *domain.ResolvedView, spec domain.ProductSpec, bom []domain.BOMLineItem, rules domain.BusinessRules) (PriceBreakdown, error) {
	places := rules.MinorUnits
	out := PriceBreakdown{
		Lines:      make([]domain.BOMLineItem, len(bom)),
		Subtotal:   decimal.Zero,
		TaxRate:    rules.TaxRate,
		Currency:   rules.Currency,
		MinorUnits: places,
	}

	for i, line := range bom {
		price, level, err := unitPrice(view, spec, i, line)
		if err != nil {
			return PriceBreakdown{}, err
		}
		if i == 0 {
			out.PanelLevel = level
		}
		line.UnitPrice = price
		line.SourceLevel = level
		line.LineTotal = LineTotal(line.Quantity, price, places)
		out.Lines[i] = line
		out.Subtotal = out.Subtotal.Add(line.LineTotal)
	}

	out.DiscountRate = rules.DiscountFor(out.Subtotal)
	out.DiscountAmount = RoundMoney(out.Subtotal.Mul(out.DiscountRate), places)
	taxable := out.Subtotal.Sub(out.DiscountAmount)
	out.TaxAmount = RoundMoney(taxable.Mul(rules.TaxRate), places)
	out.Total = taxable.Add(out.TaxAmount)
	return out, nil
}

func unitPrice(view *domain.ResolvedView, spec domain.ProductSpec, i int, line domain.BOMLineItem) (decimal.Decimal, domain.Level, error) {
	if i == 0 {
		rp, err := view.Product(spec.ID())
		if err != nil {
			return decimal.Zero, 0, err
		}
		if rp.Unverified {
			return decimal.Zero, 0, fmt.Errorf("%w: %s is only defined at level %d", domain.ErrSourceOfTruthViolation, spec.ID(), rp.Level)
		}
		return rp.Spec.UnitPrice, rp.Level, nil
	}
	acc, err := view.Accessory(line.ItemKey)
	if err != nil {
		return decimal.Zero, 0, err
	}
	if acc.Unverified {
		return decimal.Zero, 0, fmt.Errorf("%w: accessory %s is only defined at level %d", domain.ErrSourceOfTruthViolation, line.ItemKey, acc.Level)
	}
	return acc.Accessory.UnitPrice, acc.Level, nil
}

// RoundMoney rounds half-up (away from zero) to the given minor units.
func RoundMoney(v decimal.Decimal, places int32) decimal.Decimal {
	return v.Round(places)
}

func LineTotal(qty int64, unitPrice decimal.Decimal, places int32) decimal.Decimal {
	return RoundMoney(decimal.NewFromInt(qty).Mul(unitPrice), places)
}
