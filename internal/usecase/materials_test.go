package usecase

import (
	"errors"
	"testing"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
)

func TestMaterialCalculator(t *testing.T) {
	view := resolve(t, masterLayer(t))
	calc := NewMaterialCalculator(view)
	spec := view.Products[domain.ProductID{Key: "ISODEC_EPS", ThicknessMM: 100}].Spec

	t.Run("ISODEC 50 m2 em concreto", func(t *testing.T) {
		req := request(100, "10", "5", "4.5", domain.FixingConcrete)
		if got := TotalArea(req); !got.Equal(d("50")) {
			t.Fatalf("area = %s, want 50", got)
		}
		bom, err := calc.Calculate(spec, req)
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}
		want := []struct {
			key string
			qty int64
		}{{"ISODEC_EPS", 9}, {"varilla_roscada", 36}, {"tuerca", 72}}
		if len(bom) != len(want) {
			t.Fatalf("expected %d lines, got %+v", len(want), bom)
		}
		for i, w := range want {
			if bom[i].ItemKey != w.key || bom[i].Quantity != w.qty {
				t.Errorf("line %d = %s x%d, want %s x%d", i, bom[i].ItemKey, bom[i].Quantity, w.key, w.qty)
			}
		}
		if bom[0].Description != "Panel Isodec EPS 100 mm" || bom[0].Unit != "panel" {
			t.Errorf("panel line = %+v", bom[0])
		}
		if bom[1].Description != "Varilla roscada 3/8" || bom[1].Unit != "unid" {
			t.Errorf("accessory line should take the accessory description: %+v", bom[1])
		}
	})

	t.Run("voladizos aumentam a area", func(t *testing.T) {
		req := request(100, "10", "5", "4.5", domain.FixingMetal)
		req.OverhangStartM = d("0.5")
		req.OverhangEndM = d("0.5")
		bom, err := calc.Calculate(spec, req)
		if err != nil {
			t.Fatal(err)
		}
		// 55 / 5.7 = 9.65
		if bom[0].Quantity != 10 || len(bom) != 1 {
			t.Errorf("expected 10 panels and no fasteners, got %+v", bom)
		}
	})

	t.Run("fixacao sem regra", func(t *testing.T) {
		_, err := calc.Calculate(spec, request(100, "10", "5", "4.5", domain.FixingWood))
		if !errors.Is(err, domain.ErrUnsupportedFixing) {
			t.Errorf("expected ErrUnsupportedFixing, got %v", err)
		}
	})
}

func TestMaterialCalculator_StripsFormula(t *testing.T) {
	master := masterLayer(t)
	master.Formulas["paneles"] = formula(t, "paneles", "ceil(ancho / ancho_util) * ceil(largo_total / largo_panel)")
	view := resolve(t, master)
	spec := view.Products[domain.ProductID{Key: "ISODEC_EPS", ThicknessMM: 100}].Spec

	bom, err := NewMaterialCalculator(view).Calculate(spec, request(100, "10", "5", "4.5", domain.FixingMetal))
	if err != nil {
		t.Fatal(err)
	}
	// 6 faixas de 0.95 m x 2 paineis de 6 m
	if bom[0].Quantity != 12 {
		t.Errorf("panels = %d, want 12", bom[0].Quantity)
	}
}

func TestMaterialCalculator_MissingFormula(t *testing.T) {
	view := resolve(t, masterLayer(t))
	delete(view.Formulas, "tuercas")
	spec := view.Products[domain.ProductID{Key: "ISODEC_EPS", ThicknessMM: 100}].Spec

	_, err := NewMaterialCalculator(view).Calculate(spec, request(100, "10", "5", "4.5", domain.FixingConcrete))
	if !errors.Is(err, domain.ErrFormulaNotFound) {
		t.Errorf("expected ErrFormulaNotFound, got %v", err)
	}
}

func TestCheckMaterialRules(t *testing.T) {
	t.Run("base de mestre valida", func(t *testing.T) {
		if err := CheckMaterialRules(resolve(t, masterLayer(t))); err != nil {
			t.Fatalf("valid rules rejected: %v", err)
		}
	})

	t.Run("formula nao declarada", func(t *testing.T) {
		master := masterLayer(t)
		delete(master.Formulas, "tuercas")
		_, _, err := DefaultResolver().Resolve([]domain.KnowledgeLayer{master})
		if !errors.Is(err, domain.ErrInvalidLayer) {
			t.Errorf("expected ErrInvalidLayer at resolve time, got %v", err)
		}
	})

	t.Run("item lido antes de ser calculado", func(t *testing.T) {
		master := masterLayer(t)
		for id, p := range master.Products {
			p.FixingRules = map[domain.FixingType][]domain.MaterialRule{
				domain.FixingConcrete: {
					{ItemKey: "tuerca", Formula: "tuercas"},
					{ItemKey: "varilla_roscada", Formula: "varillas"},
				},
			}
			master.Products[id] = p
		}
		_, _, err := DefaultResolver().Resolve([]domain.KnowledgeLayer{master})
		if !errors.Is(err, domain.ErrInvalidLayer) {
			t.Errorf("expected ErrInvalidLayer, got %v", err)
		}
	})

	t.Run("contagem de paineis como fixacao", func(t *testing.T) {
		master := masterLayer(t)
		master.Formulas["tuercas"] = formula(t, "tuercas", "ceil(ancho / ancho_util) * ceil(largo_total / largo_panel)")
		_, _, err := DefaultResolver().Resolve([]domain.KnowledgeLayer{master})
		if !errors.Is(err, domain.ErrInvalidLayer) {
			t.Errorf("fasteners must not read request geometry, got %v", err)
		}
	})
}
