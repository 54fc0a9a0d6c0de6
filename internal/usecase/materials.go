package usecase

import (
	"fmt"
	"sort"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	"github.com/shopspring/decimal"
)

// MaterialCalculator turns a request into BOM quantities using the formulas of
// the resolved view. Prices are left for the PricingEngine.
type MaterialCalculator struct {
	view *domain.ResolvedView
}

func NewMaterialCalculator(view *domain.ResolvedView) *MaterialCalculator {
	return &MaterialCalculator{view: view}
}

// TotalArea is length × width plus the overhangs, which extend the covered
// length along the span direction only.
func TotalArea(req domain.QuotationRequest) decimal.Decimal {
	return req.LengthM.Mul(req.WidthM).
		Add(req.OverhangStartM.Mul(req.WidthM)).
		Add(req.OverhangEndM.Mul(req.WidthM))
}

func (c *MaterialCalculator) Calculate(spec domain.ProductSpec, req domain.QuotationRequest) ([]domain.BOMLineItem, error) {
	rules, ok := spec.FixingRules[req.FixingType]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no material rule for %s", domain.ErrUnsupportedFixing, spec.ID(), req.FixingType)
	}

	vars := map[string]decimal.Decimal{
		domain.VarTotalArea:   TotalArea(req),
		domain.VarWidth:       req.WidthM,
		domain.VarTotalLength: req.LengthM.Add(req.OverhangStartM).Add(req.OverhangEndM),
		domain.VarPanelLength: spec.PanelLengthM,
		domain.VarUsableWidth: spec.UsableWidthM,
	}

	panelFormula, err := c.view.Formula(domain.PanelFormulaKey)
	if err != nil {
		return nil, err
	}
	panels, err := evalQuantity(panelFormula, vars)
	if err != nil {
		return nil, err
	}
	vars[domain.VarPanelCount] = decimal.NewFromInt(panels)

	unit := spec.Unit
	if unit == "" {
		unit = "panel"
	}
	bom := make([]domain.BOMLineItem, 0, len(rules)+1)
	bom = append(bom, domain.BOMLineItem{
		ItemKey:     spec.Key,
		Description: panelDescription(spec),
		Quantity:    panels,
		Unit:        unit,
	})

	for _, rule := range rules {
		f, err := c.view.Formula(rule.Formula)
		if err != nil {
			return nil, fmt.Errorf("material %s: %w", rule.ItemKey, err)
		}
		qty, err := evalQuantity(f, vars)
		if err != nil {
			return nil, fmt.Errorf("material %s: %w", rule.ItemKey, err)
		}
		vars[rule.ItemKey] = decimal.NewFromInt(qty)

		line := domain.BOMLineItem{ItemKey: rule.ItemKey, Description: rule.ItemKey, Quantity: qty, Unit: "unid"}
		if acc, ok := c.view.Accessories[rule.ItemKey]; ok {
			line.Description = acc.Accessory.Description
			if acc.Accessory.Unit != "" {
				line.Unit = acc.Accessory.Unit
			}
		}
		bom = append(bom, line)
	}
	return bom, nil
}

// CheckMaterialRules walks every fixing rule list of the view in order. Each
// formula must exist and read only paneles or an item computed before it.
func CheckMaterialRules(view *domain.ResolvedView) error {
	ids := make([]domain.ProductID, 0, len(view.Products))
	for id := range view.Products {
		ids = append(ids, id)
	}
	domain.SortProductIDs(ids)

	for _, id := range ids {
		spec := view.Products[id].Spec
		fixings := make([]domain.FixingType, 0, len(spec.FixingRules))
		for ft := range spec.FixingRules {
			fixings = append(fixings, ft)
		}
		sort.Slice(fixings, func(i, j int) bool { return fixings[i] < fixings[j] })

		for _, ft := range fixings {
			known := map[string]bool{domain.VarPanelCount: true}
			for _, rule := range spec.FixingRules[ft] {
				f, ok := view.Formulas[rule.Formula]
				if !ok {
					return fmt.Errorf("%w: %s %s: item %s uses undeclared formula %s", domain.ErrInvalidLayer, id, ft, rule.ItemKey, rule.Formula)
				}
				for _, in := range f.Formula.Inputs() {
					if !known[in] {
						return fmt.Errorf("%w: %s %s: item %s reads %q before it is computed", domain.ErrInvalidLayer, id, ft, rule.ItemKey, in)
					}
				}
				known[rule.ItemKey] = true
			}
		}
	}
	return nil
}

// evalQuantity applies the formula and rounds upward: a fraction of a panel or
// fastener is always one more physical unit.
func evalQuantity(f domain.Formula, vars map[string]decimal.Decimal) (int64, error) {
	v, err := f.Eval(vars)
	if err != nil {
		return 0, err
	}
	if v.IsNegative() {
		return 0, fmt.Errorf("%w: formula %s returned %s", domain.ErrInvalidRequest, f.Name(), v)
	}
	return v.Ceil().IntPart(), nil
}

func panelDescription(spec domain.ProductSpec) string {
	name := spec.Name
	if name == "" {
		name = spec.Key
	}
	return fmt.Sprintf("Panel %s %d mm", name, spec.ThicknessMM)
}
