package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ResolvedProduct is a product as seen after precedence resolution.
// Unverified is set when no level 1 layer defines it.
type ResolvedProduct struct {
	Spec       ProductSpec
	Level      Level
	Unverified bool
}

type ResolvedAccessory struct {
	Accessory  Accessory
	Level      Level
	Unverified bool
}

type ResolvedFormula struct {
	Formula Formula
	Level   Level
}

// BusinessRules are the effective rules after resolution.
type BusinessRules struct {
	TaxRate     decimal.Decimal
	TaxDeclared bool // false when no layer declares iva
	MinSlopePct decimal.Decimal
	Currency    string
	MinorUnits  int32
	Discounts   []DiscountTier
	Guards      []GuardRule
}

// DiscountFor returns the rate of the highest tier the subtotal reaches.
func (b BusinessRules) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	best := decimal.Zero
	var bestFrom *decimal.Decimal
	for i, t := range b.Discounts {
		if subtotal.LessThan(t.From) {
			continue
		}
		if bestFrom == nil || t.From.GreaterThan(*bestFrom) {
			bestFrom = &b.Discounts[i].From
			best = t.Rate
		}
	}
	return best
}

// ResolvedView is the single authoritative, read-only view built from all
// layers. It is never modified after the resolver returns it.
type ResolvedView struct {
	Version     string
	Products    map[ProductID]ResolvedProduct
	Accessories map[string]ResolvedAccessory
	Formulas    map[string]ResolvedFormula
	Families    map[string]Family
	Rules       BusinessRules
	Conflicts   []ConflictReport
	ResolvedAt  time.Time
}

func (v *ResolvedView) Product(id ProductID) (ResolvedProduct, error) {
	p, ok := v.Products[id]
	if !ok {
		return ResolvedProduct{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return p, nil
}

func (v *ResolvedView) Accessory(key string) (ResolvedAccessory, error) {
	a, ok := v.Accessories[key]
	if !ok {
		return ResolvedAccessory{}, fmt.Errorf("%w: accessory %s", ErrProductNotFound, key)
	}
	return a, nil
}

func (v *ResolvedView) Formula(name string) (Formula, error) {
	f, ok := v.Formulas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFormulaNotFound, name)
	}
	return f.Formula, nil
}

// FamilyProducts lists the resolved products of a family ordered by key and
// thickness.
func (v *ResolvedView) FamilyProducts(family string) []ResolvedProduct {
	var ids []ProductID
	for id, p := range v.Products {
		if p.Spec.Family == family {
			ids = append(ids, id)
		}
	}
	SortProductIDs(ids)
	out := make([]ResolvedProduct, 0, len(ids))
	for _, id := range ids {
		out = append(out, v.Products[id])
	}
	return out
}

// ViewDelta lists what changed between two snapshots, as ids or item keys.
type ViewDelta struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Changed []string `json:"changed,omitempty"`
}

func (d ViewDelta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}
