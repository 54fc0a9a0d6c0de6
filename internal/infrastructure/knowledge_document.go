package infrastructure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	"github.com/shopspring/decimal"
)

// knowledgeDocument is the on-disk shape of one knowledge base file.
type knowledgeDocument struct {
	Version     string                       `json:"version"`
	Families    map[string]familyDocument    `json:"familias"`
	Products    map[string]productDocument   `json:"products"`
	Accessories map[string]accessoryDocument `json:"accesorios"`
	Formulas    map[string]string            `json:"formulas_cotizacion"`
	Rules       *rulesDocument               `json:"reglas_negocio"`
}

type familyDocument struct {
	Thicknesses []int `json:"espesores"`
}

type productDocument struct {
	Family       string                           `json:"familia"`
	Name         string                           `json:"nombre"`
	Unit         string                           `json:"unidad"`
	PanelLengthM decimal.Decimal                  `json:"largo_panel_m"`
	UsableWidthM decimal.Decimal                  `json:"ancho_util_m"`
	Thicknesses  map[string]thicknessDocument     `json:"espesores"`
	Fixings      map[string][]domain.MaterialRule `json:"fijaciones"`
}

type thicknessDocument struct {
	Price        decimal.Decimal  `json:"precio"`
	MaxSpanM     decimal.Decimal  `json:"autoportancia"`
	PanelLengthM *decimal.Decimal `json:"largo_panel_m"`
	UsableWidthM *decimal.Decimal `json:"ancho_util_m"`
}

type accessoryDocument struct {
	Description string          `json:"descripcion"`
	Unit        string          `json:"unidad"`
	Price       decimal.Decimal `json:"precio"`
}

type rulesDocument struct {
	TaxRate     *decimal.Decimal      `json:"iva"`
	MinSlopePct *decimal.Decimal      `json:"pendiente_minima_techo"`
	Currency    *string               `json:"moneda"`
	MinorUnits  *int32                `json:"decimales"`
	Discounts   []domain.DiscountTier `json:"descuentos"`
	Guards      []domain.GuardRule    `json:"guardas"`
}

// ParseLayer decodes a JSON knowledge document and validates it into a layer.
func ParseLayer(data []byte, level domain.Level, name string, now time.Time) (domain.KnowledgeLayer, error) {
	var doc knowledgeDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return domain.KnowledgeLayer{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidLayer, name, err)
	}
	return doc.toLayer(level, name, now)
}

func (d knowledgeDocument) toLayer(level domain.Level, name string, now time.Time) (domain.KnowledgeLayer, error) {
	layer := domain.KnowledgeLayer{
		Level:       level,
		Name:        name,
		Version:     d.Version,
		Families:    make(map[string]domain.Family, len(d.Families)),
		Products:    map[domain.ProductID]domain.ProductSpec{},
		Accessories: make(map[string]domain.Accessory, len(d.Accessories)),
		Formulas:    make(map[string]domain.Formula, len(d.Formulas)),
		LoadedAt:    now,
	}

	for fname, fam := range d.Families {
		layer.Families[fname] = domain.Family{Name: fname, Thicknesses: fam.Thicknesses}
	}

	for key, p := range d.Products {
		family, ok := layer.Families[p.Family]
		if !ok {
			return domain.KnowledgeLayer{}, fmt.Errorf("%w: %s: product %s references undeclared family %q", domain.ErrInvalidLayer, name, key, p.Family)
		}
		rules, err := fixingRules(key, p.Fixings)
		if err != nil {
			return domain.KnowledgeLayer{}, fmt.Errorf("%s: %w", name, err)
		}
		for raw, t := range p.Thicknesses {
			mm, err := strconv.Atoi(raw)
			if err != nil {
				return domain.KnowledgeLayer{}, fmt.Errorf("%w: %s: product %s thickness %q is not an integer", domain.ErrInvalidLayer, name, key, raw)
			}
			spec := domain.ProductSpec{
				Key:          key,
				Family:       p.Family,
				Name:         p.Name,
				ThicknessMM:  mm,
				UnitPrice:    t.Price,
				Unit:         p.Unit,
				MaxSpanM:     t.MaxSpanM,
				PanelLengthM: p.PanelLengthM,
				UsableWidthM: p.UsableWidthM,
				FixingRules:  rules,
			}
			if t.PanelLengthM != nil {
				spec.PanelLengthM = *t.PanelLengthM
			}
			if t.UsableWidthM != nil {
				spec.UsableWidthM = *t.UsableWidthM
			}
			if err := spec.Validate(family); err != nil {
				return domain.KnowledgeLayer{}, fmt.Errorf("%s: %w", name, err)
			}
			layer.Products[spec.ID()] = spec
		}
	}

	for key, a := range d.Accessories {
		if a.Price.IsNegative() {
			return domain.KnowledgeLayer{}, fmt.Errorf("%w: %s: accessory %s has a negative price", domain.ErrInvalidLayer, name, key)
		}
		layer.Accessories[key] = domain.Accessory{Key: key, Description: a.Description, Unit: a.Unit, UnitPrice: a.Price}
	}

	for fname, expr := range d.Formulas {
		f, err := domain.ParseFormula(fname, expr)
		if err != nil {
			return domain.KnowledgeLayer{}, fmt.Errorf("%s: %w", name, err)
		}
		layer.Formulas[fname] = f
	}

	if d.Rules != nil {
		r := d.Rules
		if r.TaxRate != nil && (r.TaxRate.IsNegative() || r.TaxRate.GreaterThan(decimal.NewFromInt(1))) {
			return domain.KnowledgeLayer{}, fmt.Errorf("%w: %s: iva must be a rate between 0 and 1", domain.ErrInvalidLayer, name)
		}
		if r.MinorUnits != nil && (*r.MinorUnits < 0 || *r.MinorUnits > 6) {
			return domain.KnowledgeLayer{}, fmt.Errorf("%w: %s: decimales must be between 0 and 6", domain.ErrInvalidLayer, name)
		}
		for _, t := range r.Discounts {
			if t.Rate.IsNegative() || t.Rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
				return domain.KnowledgeLayer{}, fmt.Errorf("%w: %s: discount rate %s out of range", domain.ErrInvalidLayer, name, t.Rate)
			}
		}
		layer.Rules = domain.RuleSet{
			TaxRate:     r.TaxRate,
			MinSlopePct: r.MinSlopePct,
			Currency:    r.Currency,
			MinorUnits:  r.MinorUnits,
			Discounts:   r.Discounts,
			Guards:      r.Guards,
		}
	}
	return layer, nil
}

func fixingRules(product string, raw map[string][]domain.MaterialRule) (map[domain.FixingType][]domain.MaterialRule, error) {
	out := make(map[domain.FixingType][]domain.MaterialRule, len(raw))
	for key, rules := range raw {
		ft, err := domain.ParseFixingType(key)
		if err != nil {
			return nil, fmt.Errorf("%w: product %s: %v", domain.ErrInvalidLayer, product, err)
		}
		seen := map[string]bool{}
		for _, r := range rules {
			if r.ItemKey == "" || r.Formula == "" {
				return nil, fmt.Errorf("%w: product %s: %s rule needs item and formula", domain.ErrInvalidLayer, product, ft)
			}
			if seen[r.ItemKey] {
				return nil, fmt.Errorf("%w: product %s: %s lists %s twice", domain.ErrInvalidLayer, product, ft, r.ItemKey)
			}
			seen[r.ItemKey] = true
		}
		out[ft] = rules
	}
	return out, nil
}
