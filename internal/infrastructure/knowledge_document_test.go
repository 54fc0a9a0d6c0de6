package infrastructure

import (
	"strings"
	"testing"
	"time"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	"github.com/shopspring/decimal"
)

const masterDoc = `{
  "version": "m1",
  "familias": {"ISODEC": {"espesores": [100, 150]}},
  "products": {
    "ISODEC_EPS": {
      "familia": "ISODEC",
      "nombre": "Isodec EPS",
      "largo_panel_m": 6,
      "ancho_util_m": 0.95,
      "espesores": {
        "100": {"precio": 46.07, "autoportancia": 5.5},
        "150": {"precio": 51.50, "autoportancia": 7.5, "largo_panel_m": 8}
      },
      "fijaciones": {
        "hormigon": [
          {"item": "varilla_roscada", "formula": "varillas"},
          {"item": "tuerca", "formula": "tuercas"}
        ]
      }
    }
  },
  "accesorios": {
    "varilla_roscada": {"descripcion": "Varilla", "unidad": "unid", "precio": 1.85},
    "tuerca": {"descripcion": "Tuerca", "unidad": "unid", "precio": 0.12}
  },
  "formulas_cotizacion": {
    "paneles": "ceil(area_total / (largo_panel * ancho_util))",
    "varillas": "paneles * 4",
    "tuercas": "varilla_roscada * 2"
  },
  "reglas_negocio": {
    "iva": 0.22,
    "moneda": "USD",
    "descuentos": [{"desde": 2500, "porcentaje": 0.03}],
    "guardas": [{"id": "G1", "logic": {"<": [1, 2]}, "mensaje": "m"}]
  }
}`

func TestParseLayer(t *testing.T) {
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	layer, err := ParseLayer([]byte(masterDoc), domain.LevelMaster, "maestro", now)
	if err != nil {
		t.Fatalf("ParseLayer: %v", err)
	}

	if layer.Version != "m1" || layer.Level != domain.LevelMaster || !layer.LoadedAt.Equal(now) {
		t.Errorf("unexpected header: %+v", layer)
	}
	if len(layer.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(layer.Products))
	}

	p100 := layer.Products[domain.ProductID{Key: "ISODEC_EPS", ThicknessMM: 100}]
	if !p100.UnitPrice.Equal(decimal.RequireFromString("46.07")) {
		t.Errorf("price = %s, want 46.07", p100.UnitPrice)
	}
	if !p100.PanelLengthM.Equal(decimal.NewFromInt(6)) {
		t.Errorf("panel length = %s, want 6", p100.PanelLengthM)
	}
	rules := p100.FixingRules[domain.FixingConcrete]
	if len(rules) != 2 || rules[0].ItemKey != "varilla_roscada" || rules[1].ItemKey != "tuerca" {
		t.Errorf("fixing rules lost their order: %+v", rules)
	}

	p150 := layer.Products[domain.ProductID{Key: "ISODEC_EPS", ThicknessMM: 150}]
	if !p150.PanelLengthM.Equal(decimal.NewFromInt(8)) {
		t.Errorf("per-thickness panel length override ignored: %s", p150.PanelLengthM)
	}

	if _, ok := layer.Formulas["paneles"].(domain.PanelCountFormula); !ok {
		t.Errorf("paneles should parse as a panel count formula, got %T", layer.Formulas["paneles"])
	}
	if layer.Rules.TaxRate == nil || !layer.Rules.TaxRate.Equal(decimal.RequireFromString("0.22")) {
		t.Errorf("iva not parsed: %v", layer.Rules.TaxRate)
	}
	if layer.Rules.MinSlopePct != nil {
		t.Error("undeclared pendiente_minima_techo should stay nil")
	}
	if len(layer.Rules.Guards) != 1 || layer.Rules.Guards[0].Message != "m" {
		t.Errorf("guards not parsed: %+v", layer.Rules.Guards)
	}
}

func TestParseLayer_Rejects(t *testing.T) {
	cases := []struct {
		name    string
		replace [2]string
	}{
		{"espessura fora da familia", [2]string{`"150": {`, `"250": {`}},
		{"familia nao declarada", [2]string{`"familia": "ISODEC"`, `"familia": "ISOROOF"`}},
		{"formula desconhecida", [2]string{`"paneles * 4"`, `"paneles ** 4"`}},
		{"fixacao calculada pela area", [2]string{`"paneles * 4"`, `"ceil(area_total * 5.5)"`}},
		{"fixacao desconhecida", [2]string{`"hormigon"`, `"adhesivo"`}},
		{"preco negativo", [2]string{`"precio": 46.07`, `"precio": -46.07`}},
		{"iva acima de 1", [2]string{`"iva": 0.22`, `"iva": 22`}},
		{"item repetido", [2]string{`"item": "tuerca"`, `"item": "varilla_roscada"`}},
		{"json invalido", [2]string{`"version": "m1",`, `"version": "m1"`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := strings.Replace(masterDoc, tc.replace[0], tc.replace[1], 1)
			if doc == masterDoc {
				t.Fatalf("replacement %q did not apply", tc.replace[0])
			}
			_, err := ParseLayer([]byte(doc), domain.LevelMaster, "maestro", time.Now())
			if err == nil {
				t.Fatal("expected an error")
			}
			if code := domain.ErrorCode(err); code != domain.CodeInvalidLayer && code != domain.CodeUnsupportedFixing {
				t.Errorf("unexpected error code %q: %v", code, err)
			}
		})
	}
}
