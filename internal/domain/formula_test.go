package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseFormula(t *testing.T) {
	vars := map[string]decimal.Decimal{
		VarTotalArea:      dec("50"),
		VarWidth:          dec("5"),
		VarTotalLength:    dec("10"),
		VarPanelLength:    dec("6"),
		VarUsableWidth:    dec("0.95"),
		VarPanelCount:     dec("9"),
		"varilla_roscada": dec("36"),
	}

	cases := []struct {
		name string
		expr string
		want string
	}{
		{"paneles por area", "ceil(area_total / (largo_panel * ancho_util))", "9"},
		{"paneles por faixas", "ceil(ancho / ancho_util) * ceil(largo_total / largo_panel)", "12"},
		{"multiplicacao simples", "paneles * 4", "36"},
		{"multiplicacao de item anterior", "varilla_roscada * 2", "72"},
		{"multiplicacao com ceil", "ceil(paneles * 5.5)", "50"},
		{"divisao com ceil", "ceil(paneles / 4)", "3"},
		{"divisao exata", "paneles / 4", "2.25"},
		{"maiusculas e espacos", "  CEIL( Paneles*0.3 ) ", "3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := ParseFormula("f", tc.expr)
			if err != nil {
				t.Fatalf("ParseFormula(%q): %v", tc.expr, err)
			}
			got, err := f.Eval(vars)
			if err != nil {
				t.Fatalf("Eval: %v", err)
			}
			if !got.Equal(dec(tc.want)) {
				t.Errorf("%s = %s, want %s", tc.expr, got, tc.want)
			}
		})
	}
}

func TestParseFormula_Rejects(t *testing.T) {
	for _, expr := range []string{
		"paneles + 2",
		"paneles * ancho_util",
		"ceil(paneles / 0)",
		"paneles / 0.0",
		"os.Exit(1)",
		"ceil(area_total * 5.5)",
		"area_total * 5",
		"ceil(ancho / 0.6)",
		"largo_total * 2",
		"ceil(largo_panel * 3)",
		"",
	} {
		if _, err := ParseFormula("bad", expr); !errors.Is(err, ErrInvalidLayer) {
			t.Errorf("ParseFormula(%q) error = %v, want ErrInvalidLayer", expr, err)
		}
	}
}

func TestFormula_MissingInput(t *testing.T) {
	f, err := ParseFormula("tornillos", "ceil(tornillo_base * 2)")
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Eval(map[string]decimal.Decimal{})
	if !errors.Is(err, ErrFormulaNotFound) {
		t.Fatalf("expected ErrFormulaNotFound, got %v", err)
	}
}

func TestFormula_ExpressionIsCanonical(t *testing.T) {
	a, _ := ParseFormula("a", "ceil(paneles*4.0)")
	b, _ := ParseFormula("b", "ceil( paneles * 4 )")
	if a.Expression() != b.Expression() {
		t.Errorf("equivalent formulas render differently: %q vs %q", a.Expression(), b.Expression())
	}
}

func TestCeilDiv(t *testing.T) {
	t.Run("divisao exata nao arredonda", func(t *testing.T) {
		got, err := CeilDiv(dec("5.7"), dec("5.7"))
		if err != nil || !got.Equal(dec("1")) {
			t.Fatalf("CeilDiv(5.7, 5.7) = %s, %v", got, err)
		}
	})
	t.Run("fracao sobe", func(t *testing.T) {
		got, _ := CeilDiv(dec("50"), dec("5.7"))
		if !got.Equal(dec("9")) {
			t.Fatalf("CeilDiv(50, 5.7) = %s, want 9", got)
		}
	})
	t.Run("divisor invalido", func(t *testing.T) {
		if _, err := CeilDiv(dec("1"), decimal.Zero); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("expected ErrInvalidRequest, got %v", err)
		}
	})
}

func TestCeilDiv_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := decimal.New(rapid.Int64Range(0, 1_000_000).Draw(rt, "a"), -2)
		b := decimal.New(rapid.Int64Range(1, 100_000).Draw(rt, "b"), -2)

		q, err := CeilDiv(a, b)
		if err != nil {
			rt.Fatalf("CeilDiv(%s, %s): %v", a, b, err)
		}
		if !q.Equal(q.Truncate(0)) {
			rt.Fatalf("CeilDiv(%s, %s) = %s is not an integer", a, b, q)
		}
		if q.Mul(b).LessThan(a) {
			rt.Fatalf("CeilDiv(%s, %s) = %s is too small", a, b, q)
		}
		if q.IsPositive() && q.Sub(decimal.NewFromInt(1)).Mul(b).GreaterThanOrEqual(a) {
			rt.Fatalf("CeilDiv(%s, %s) = %s is too large", a, b, q)
		}
	})
}
