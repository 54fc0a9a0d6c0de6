package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	"github.com/shopspring/decimal"
)

// Defaults used when business rules leave a field undeclared.
const (
	DefaultCurrency   = "USD"
	DefaultMinorUnits = int32(2)
)

// Resolver merges knowledge layers by precedence. Conflicts between layers
// are reported, never resolved by ingestion order.
type Resolver struct {
	AbsTolerance decimal.Decimal
	RelTolerance decimal.Decimal
	// Used when no layer declares moneda or decimales.
	Currency   string
	MinorUnits int32
	Now        func() time.Time
}

func NewResolver(abs, rel decimal.Decimal) *Resolver {
	return &Resolver{
		AbsTolerance: abs,
		RelTolerance: rel,
		Currency:     DefaultCurrency,
		MinorUnits:   DefaultMinorUnits,
		Now:          time.Now,
	}
}

// DefaultResolver uses 0.01 currency units and 1%.
func DefaultResolver() *Resolver {
	return NewResolver(decimal.RequireFromString("0.01"), decimal.RequireFromString("0.01"))
}

func (r *Resolver) Resolve(layers []domain.KnowledgeLayer) (*domain.ResolvedView, []domain.ConflictReport, error) {
	sorted, err := orderLayers(layers)
	if err != nil {
		return nil, nil, err
	}

	view := &domain.ResolvedView{
		Products:    map[domain.ProductID]domain.ResolvedProduct{},
		Accessories: map[string]domain.ResolvedAccessory{},
		Formulas:    map[string]domain.ResolvedFormula{},
		Families:    map[string]domain.Family{},
	}
	var conflicts []domain.ConflictReport
	familyLevel := map[string]domain.Level{}
	versions := make([]string, 0, len(sorted))

	for _, layer := range sorted {
		versions = append(versions, fmt.Sprintf("L%d:%s", layer.Level, layer.Version))

		for _, name := range layer.FamilyNames() {
			fam := layer.Families[name]
			cur, ok := view.Families[name]
			if !ok {
				view.Families[name] = fam
				familyLevel[name] = layer.Level
				continue
			}
			if a, b := intsString(cur.Thicknesses), intsString(fam.Thicknesses); a != b {
				conflicts = append(conflicts, domain.ConflictReport{
					ProductKey: name, Field: "thicknesses",
					LevelA: familyLevel[name], ValueA: a,
					LevelB: layer.Level, ValueB: b,
					Severity: domain.SeverityWarning,
				})
			}
		}

		for _, id := range layer.ProductIDs() {
			spec := layer.Products[id]
			cur, ok := view.Products[id]
			if !ok {
				view.Products[id] = domain.ResolvedProduct{
					Spec:       spec,
					Level:      layer.Level,
					Unverified: layer.Level != domain.LevelMaster,
				}
				continue
			}
			conflicts = append(conflicts, r.compareProducts(cur, spec, layer.Level)...)
		}

		for _, key := range layer.AccessoryKeys() {
			acc := layer.Accessories[key]
			cur, ok := view.Accessories[key]
			if !ok {
				view.Accessories[key] = domain.ResolvedAccessory{
					Accessory:  acc,
					Level:      layer.Level,
					Unverified: layer.Level != domain.LevelMaster,
				}
				continue
			}
			if r.priceDiffers(cur.Accessory.UnitPrice, acc.UnitPrice) {
				conflicts = append(conflicts, domain.ConflictReport{
					ProductKey: key, Field: "unit_price",
					LevelA: cur.Level, ValueA: cur.Accessory.UnitPrice.String(),
					LevelB: layer.Level, ValueB: acc.UnitPrice.String(),
					Severity: domain.SeverityWarning,
				})
			}
		}

		for _, name := range layer.FormulaNames() {
			f := layer.Formulas[name]
			cur, ok := view.Formulas[name]
			if !ok {
				view.Formulas[name] = domain.ResolvedFormula{Formula: f, Level: layer.Level}
				continue
			}
			if cur.Formula.Expression() != f.Expression() {
				conflicts = append(conflicts, domain.ConflictReport{
					ProductKey: name, Field: "formula",
					LevelA: cur.Level, ValueA: cur.Formula.Expression(),
					LevelB: layer.Level, ValueB: f.Expression(),
					Severity: domain.SeverityCritical,
				})
			}
		}
	}

	rules, ruleConflicts := resolveRules(sorted, r.Currency, r.MinorUnits)
	view.Rules = rules
	conflicts = append(conflicts, ruleConflicts...)

	if err := CheckMaterialRules(view); err != nil {
		return nil, nil, err
	}

	view.Version = strings.Join(versions, "|")
	view.Conflicts = conflicts
	if r.Now != nil {
		view.ResolvedAt = r.Now()
	}
	return view, conflicts, nil
}

// orderLayers validates levels and returns a stable copy sorted by level.
func orderLayers(layers []domain.KnowledgeLayer) ([]domain.KnowledgeLayer, error) {
	masters := 0
	for _, l := range layers {
		if !l.Level.Valid() {
			return nil, fmt.Errorf("%w: layer %q has level %d", domain.ErrInvalidLayer, l.Name, l.Level)
		}
		if l.Level == domain.LevelMaster {
			masters++
		}
	}
	if masters == 0 {
		return nil, domain.ErrMasterMissing
	}
	if masters > 1 {
		return nil, fmt.Errorf("%w: %d layers claim level 1", domain.ErrInvalidLayer, masters)
	}

	sorted := make([]domain.KnowledgeLayer, len(layers))
	copy(sorted, layers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })
	return sorted, nil
}

func (r *Resolver) compareProducts(cur domain.ResolvedProduct, other domain.ProductSpec, level domain.Level) []domain.ConflictReport {
	var out []domain.ConflictReport
	add := func(field string, a, b decimal.Decimal) {
		out = append(out, domain.ConflictReport{
			ProductKey: other.Key, ThicknessMM: other.ThicknessMM, Field: field,
			LevelA: cur.Level, ValueA: a.String(),
			LevelB: level, ValueB: b.String(),
			Severity: domain.SeverityWarning,
		})
	}
	if r.priceDiffers(cur.Spec.UnitPrice, other.UnitPrice) {
		add("unit_price", cur.Spec.UnitPrice, other.UnitPrice)
	}
	if !cur.Spec.MaxSpanM.Equal(other.MaxSpanM) {
		add("max_span_m", cur.Spec.MaxSpanM, other.MaxSpanM)
	}
	if !cur.Spec.PanelLengthM.Equal(other.PanelLengthM) {
		add("panel_length_m", cur.Spec.PanelLengthM, other.PanelLengthM)
	}
	if !cur.Spec.UsableWidthM.Equal(other.UsableWidthM) {
		add("usable_width_m", cur.Spec.UsableWidthM, other.UsableWidthM)
	}
	return out
}

// priceDiffers is true when the difference exceeds the absolute tolerance or
// the relative one, measured against the higher-precedence price.
func (r *Resolver) priceDiffers(a, b decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	if diff.GreaterThan(r.AbsTolerance) {
		return true
	}
	if a.IsZero() {
		return false
	}
	return diff.Div(a.Abs()).GreaterThan(r.RelTolerance)
}

func resolveRules(layers []domain.KnowledgeLayer, currency string, minorUnits int32) (domain.BusinessRules, []domain.ConflictReport) {
	if currency == "" {
		currency = DefaultCurrency
	}
	rules := domain.BusinessRules{
		Currency:   currency,
		MinorUnits: minorUnits,
	}
	var conflicts []domain.ConflictReport
	owner := map[string]domain.Level{}
	values := map[string]string{}

	claim := func(field string, level domain.Level, value string) bool {
		if lvl, ok := owner[field]; ok {
			if values[field] != value {
				conflicts = append(conflicts, domain.ConflictReport{
					ProductKey: "reglas_negocio", Field: field,
					LevelA: lvl, ValueA: values[field],
					LevelB: level, ValueB: value,
					Severity: domain.SeverityCritical,
				})
			}
			return false
		}
		owner[field] = level
		values[field] = value
		return true
	}

	for _, l := range layers {
		rs := l.Rules
		if rs.TaxRate != nil && claim("iva", l.Level, rs.TaxRate.String()) {
			rules.TaxRate = *rs.TaxRate
			rules.TaxDeclared = true
		}
		if rs.MinSlopePct != nil && claim("pendiente_minima_techo", l.Level, rs.MinSlopePct.String()) {
			rules.MinSlopePct = *rs.MinSlopePct
		}
		if rs.Currency != nil && claim("moneda", l.Level, *rs.Currency) {
			rules.Currency = *rs.Currency
		}
		if rs.MinorUnits != nil && claim("decimales", l.Level, fmt.Sprint(*rs.MinorUnits)) {
			rules.MinorUnits = *rs.MinorUnits
		}
		if rs.Discounts != nil && claim("descuentos", l.Level, tiersString(rs.Discounts)) {
			rules.Discounts = rs.Discounts
		}
		if rs.Guards != nil && claim("guardas", l.Level, guardsString(rs.Guards)) {
			rules.Guards = rs.Guards
		}
	}
	return rules, conflicts
}

func intsString(v []int) string {
	s := make([]string, len(v))
	for i, n := range v {
		s[i] = fmt.Sprint(n)
	}
	return strings.Join(s, ",")
}

func tiersString(tiers []domain.DiscountTier) string {
	s := make([]string, len(tiers))
	for i, t := range tiers {
		s[i] = t.From.String() + ":" + t.Rate.String()
	}
	return strings.Join(s, ",")
}

func guardsString(guards []domain.GuardRule) string {
	s := make([]string, len(guards))
	for i, g := range guards {
		s[i] = g.ID
	}
	return strings.Join(s, ",")
}
