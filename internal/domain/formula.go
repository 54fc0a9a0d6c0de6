package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Variables every formula can read. Item keys computed earlier in the BOM are
// also exposed under their own names.
const (
	VarTotalArea    = "area_total"
	VarWidth        = "ancho"
	VarTotalLength  = "largo_total"
	VarPanelLength  = "largo_panel"
	VarUsableWidth  = "ancho_util"
	VarPanelCount   = "paneles"
	PanelFormulaKey = "paneles"
)

// Formula is a pure arithmetic rule stored in the knowledge base. The set of
// shapes is closed: ParseFormula only recognises the variants below.
type Formula interface {
	Name() string
	Expression() string
	Inputs() []string
	Eval(vars map[string]decimal.Decimal) (decimal.Decimal, error)
}

type PanelCountMode string

const (
	PanelsByArea   PanelCountMode = "area"
	PanelsByStrips PanelCountMode = "strips"
)

// PanelCountFormula counts physical panels. The result is always an integer
// rounded upward.
type PanelCountFormula struct {
	FormulaName string
	Mode        PanelCountMode
}

func (f PanelCountFormula) Name() string { return f.FormulaName }

func (f PanelCountFormula) Expression() string {
	if f.Mode == PanelsByStrips {
		return "ceil(ancho / ancho_util) * ceil(largo_total / largo_panel)"
	}
	return "ceil(area_total / (largo_panel * ancho_util))"
}

func (f PanelCountFormula) Inputs() []string {
	if f.Mode == PanelsByStrips {
		return []string{VarWidth, VarUsableWidth, VarTotalLength, VarPanelLength}
	}
	return []string{VarTotalArea, VarPanelLength, VarUsableWidth}
}

func (f PanelCountFormula) Eval(vars map[string]decimal.Decimal) (decimal.Decimal, error) {
	in, err := lookup(f, vars)
	if err != nil {
		return decimal.Zero, err
	}
	if f.Mode == PanelsByStrips {
		strips, err := CeilDiv(in[0], in[1])
		if err != nil {
			return decimal.Zero, err
		}
		pieces, err := CeilDiv(in[2], in[3])
		if err != nil {
			return decimal.Zero, err
		}
		return strips.Mul(pieces), nil
	}
	return CeilDiv(in[0], in[1].Mul(in[2]))
}

// RatioFormula derives a quantity from a base quantity: base*Factor, or
// base/Factor when Divide is set, optionally rounded upward.
type RatioFormula struct {
	FormulaName string
	Base        string
	Factor      decimal.Decimal
	Divide      bool
	Ceil        bool
}

func (f RatioFormula) Name() string { return f.FormulaName }

func (f RatioFormula) Expression() string {
	op := "*"
	if f.Divide {
		op = "/"
	}
	expr := fmt.Sprintf("%s %s %s", f.Base, op, f.Factor.String())
	if f.Ceil {
		return "ceil(" + expr + ")"
	}
	return expr
}

func (f RatioFormula) Inputs() []string { return []string{f.Base} }

func (f RatioFormula) Eval(vars map[string]decimal.Decimal) (decimal.Decimal, error) {
	in, err := lookup(f, vars)
	if err != nil {
		return decimal.Zero, err
	}
	if f.Divide {
		if f.Ceil {
			return CeilDiv(in[0], f.Factor)
		}
		if f.Factor.IsZero() {
			return decimal.Zero, fmt.Errorf("%w: %s divides by zero", ErrInvalidLayer, f.FormulaName)
		}
		return in[0].Div(f.Factor), nil
	}
	v := in[0].Mul(f.Factor)
	if f.Ceil {
		v = v.Ceil()
	}
	return v, nil
}

func lookup(f Formula, vars map[string]decimal.Decimal) ([]decimal.Decimal, error) {
	names := f.Inputs()
	out := make([]decimal.Decimal, len(names))
	for i, n := range names {
		v, ok := vars[n]
		if !ok {
			return nil, fmt.Errorf("%w: formula %s needs %q", ErrFormulaNotFound, f.Name(), n)
		}
		out[i] = v
	}
	return out, nil
}

// CeilDiv returns the smallest integer >= a/b using an exact quotient and
// remainder, so no digits are lost to a division precision limit.
func CeilDiv(a, b decimal.Decimal) (decimal.Decimal, error) {
	if !b.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: divisor must be positive, got %s", ErrInvalidRequest, b)
	}
	q, r := a.QuoRem(b, 0)
	if r.IsPositive() {
		q = q.Add(decimal.NewFromInt(1))
	}
	return q, nil
}

// Request geometry only feeds PanelCountFormula. A ratio over raw area
// undercounts fasteners once panels are rounded up.
var geometryVars = map[string]bool{
	VarTotalArea:   true,
	VarWidth:       true,
	VarTotalLength: true,
	VarPanelLength: true,
	VarUsableWidth: true,
}

var (
	spaces        = regexp.MustCompile(`\s+`)
	areaPattern   = regexp.MustCompile(`^ceil\(area_total/\(largo_panel\*ancho_util\)\)$`)
	stripsPattern = regexp.MustCompile(`^ceil\(ancho/ancho_util\)\*ceil\(largo_total/largo_panel\)$`)
	ceilPattern   = regexp.MustCompile(`^ceil\(([a-z][a-z0-9_]*)([*/])([0-9]+(?:\.[0-9]+)?)\)$`)
	plainPattern  = regexp.MustCompile(`^([a-z][a-z0-9_]*)([*/])([0-9]+(?:\.[0-9]+)?)$`)
)

// ParseFormula maps an expression string from the knowledge base onto one of
// the known formula variants. Anything else is rejected at load time.
func ParseFormula(name, expression string) (Formula, error) {
	expr := strings.ToLower(spaces.ReplaceAllString(expression, ""))

	switch {
	case areaPattern.MatchString(expr):
		return PanelCountFormula{FormulaName: name, Mode: PanelsByArea}, nil
	case stripsPattern.MatchString(expr):
		return PanelCountFormula{FormulaName: name, Mode: PanelsByStrips}, nil
	}

	ceil := true
	m := ceilPattern.FindStringSubmatch(expr)
	if m == nil {
		ceil = false
		m = plainPattern.FindStringSubmatch(expr)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: formula %s has unsupported expression %q", ErrInvalidLayer, name, expression)
	}

	factor, err := decimal.NewFromString(m[3])
	if err != nil {
		return nil, fmt.Errorf("%w: formula %s: %v", ErrInvalidLayer, name, err)
	}
	if m[2] == "/" && factor.IsZero() {
		return nil, fmt.Errorf("%w: formula %s divides by zero", ErrInvalidLayer, name)
	}
	if geometryVars[m[1]] {
		return nil, fmt.Errorf("%w: formula %s derives from %s; quantities must come from paneles or an earlier item", ErrInvalidLayer, name, m[1])
	}
	return RatioFormula{
		FormulaName: name,
		Base:        m[1],
		Factor:      factor,
		Divide:      m[2] == "/",
		Ceil:        ceil,
	}, nil
}
