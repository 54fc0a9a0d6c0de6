package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func formula(t testing.TB, name, expr string) domain.Formula {
	t.Helper()
	f, err := domain.ParseFormula(name, expr)
	if err != nil {
		t.Fatalf("ParseFormula(%s): %v", name, err)
	}
	return f
}

func isodec(mm int, price, span string) domain.ProductSpec {
	return domain.ProductSpec{
		Key:          "ISODEC_EPS",
		Family:       "ISODEC",
		Name:         "Isodec EPS",
		ThicknessMM:  mm,
		UnitPrice:    d(price),
		Unit:         "panel",
		MaxSpanM:     d(span),
		PanelLengthM: d("6"),
		UsableWidthM: d("0.95"),
		FixingRules: map[domain.FixingType][]domain.MaterialRule{
			domain.FixingConcrete: {
				{ItemKey: "varilla_roscada", Formula: "varillas"},
				{ItemKey: "tuerca", Formula: "tuercas"},
			},
			domain.FixingMetal: {},
		},
	}
}

func layerWith(level domain.Level, name string, products ...domain.ProductSpec) domain.KnowledgeLayer {
	l := domain.KnowledgeLayer{
		Level:       level,
		Name:        name,
		Version:     name + "-1",
		Families:    map[string]domain.Family{"ISODEC": {Name: "ISODEC", Thicknesses: []int{50, 100, 150, 200}}},
		Products:    map[domain.ProductID]domain.ProductSpec{},
		Accessories: map[string]domain.Accessory{},
		Formulas:    map[string]domain.Formula{},
		LoadedAt:    time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
	}
	for _, p := range products {
		l.Products[p.ID()] = p
	}
	return l
}

// masterLayer is the ISODEC catalogue used across the tests.
func masterLayer(t testing.TB) domain.KnowledgeLayer {
	l := layerWith(domain.LevelMaster, "maestro",
		isodec(100, "46.07", "5.5"),
		isodec(150, "51.50", "7.5"),
		isodec(200, "57.20", "9.1"),
	)
	l.Accessories["varilla_roscada"] = domain.Accessory{Key: "varilla_roscada", Description: "Varilla roscada 3/8", Unit: "unid", UnitPrice: d("1.85")}
	l.Accessories["tuerca"] = domain.Accessory{Key: "tuerca", Description: "Tuerca 3/8", Unit: "unid", UnitPrice: d("0.12")}
	l.Formulas["paneles"] = formula(t, "paneles", "ceil(area_total / (largo_panel * ancho_util))")
	l.Formulas["varillas"] = formula(t, "varillas", "paneles * 4")
	l.Formulas["tuercas"] = formula(t, "tuercas", "varilla_roscada * 2")
	l.Rules = domain.RuleSet{
		TaxRate:     ptr(d("0.22")),
		MinSlopePct: ptr(d("7")),
		Currency:    ptr("USD"),
		MinorUnits:  ptr(int32(2)),
	}
	return l
}

func resolve(t testing.TB, layers ...domain.KnowledgeLayer) *domain.ResolvedView {
	t.Helper()
	view, _, err := DefaultResolver().Resolve(layers)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return view
}

func request(mm int, length, width, span string, fixing domain.FixingType) domain.QuotationRequest {
	return domain.QuotationRequest{
		ProductKey:  "ISODEC_EPS",
		ThicknessMM: mm,
		LengthM:     d(length),
		WidthM:      d(width),
		SpanM:       d(span),
		FixingType:  fixing,
		SlopePct:    d("10"),
	}
}

// staticLoader returns fixed layers, or err when set.
type staticLoader struct {
	layers []domain.KnowledgeLayer
	err    error
}

func (s *staticLoader) Load(ctx context.Context) ([]domain.KnowledgeLayer, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.layers, nil
}

type fixedView struct{ view *domain.ResolvedView }

func (f fixedView) Current() *domain.ResolvedView { return f.view }
