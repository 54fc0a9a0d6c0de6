package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// --- Camadas de conhecimento ---

// Level is the precedence tier of a knowledge layer. Lower values win.
type Level int

const (
	LevelMaster     Level = 1
	LevelValidation Level = 2
	LevelDynamic    Level = 3
	LevelSupport    Level = 4
)

func (l Level) Valid() bool {
	return l >= LevelMaster && l <= LevelSupport
}

func (l Level) String() string {
	switch l {
	case LevelMaster:
		return "master"
	case LevelValidation:
		return "validation"
	case LevelDynamic:
		return "dynamic"
	case LevelSupport:
		return "support"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel accepts either the ordinal ("1") or the tier name ("master").
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "master", "maestro":
		return LevelMaster, nil
	case "2", "validation", "validacion":
		return LevelValidation, nil
	case "3", "dynamic", "dinamico":
		return LevelDynamic, nil
	case "4", "support", "soporte":
		return LevelSupport, nil
	}
	return 0, fmt.Errorf("%w: unknown level %q", ErrInvalidLayer, s)
}

// FixingType is the structure the panels are fixed to.
type FixingType string

const (
	FixingConcrete FixingType = "concrete"
	FixingMetal    FixingType = "metal"
	FixingWood     FixingType = "wood"
)

// ParseFixingType accepts the canonical names and the Spanish ones used in the
// knowledge base documents.
func ParseFixingType(s string) (FixingType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "concrete", "hormigon", "hormigón":
		return FixingConcrete, nil
	case "metal", "metalica", "metálica":
		return FixingMetal, nil
	case "wood", "madera":
		return FixingWood, nil
	}
	return "", fmt.Errorf("%w: fixing type %q", ErrUnsupportedFixing, s)
}

func (f *FixingType) UnmarshalText(text []byte) error {
	parsed, err := ParseFixingType(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ProductID identifies one product/thickness combination.
type ProductID struct {
	Key         string `json:"product_key"`
	ThicknessMM int    `json:"thickness_mm"`
}

func (p ProductID) String() string {
	return fmt.Sprintf("%s@%dmm", p.Key, p.ThicknessMM)
}

// MaterialRule derives one BOM item from a named formula.
type MaterialRule struct {
	ItemKey string `json:"item"`
	Formula string `json:"formula"`
}

// ProductSpec is a closed record for one product at one thickness.
type ProductSpec struct {
	Key          string                        `json:"product_key"`
	Family       string                        `json:"family"`
	Name         string                        `json:"name"`
	ThicknessMM  int                           `json:"thickness_mm"`
	UnitPrice    decimal.Decimal               `json:"unit_price"`
	Unit         string                        `json:"unit"`
	MaxSpanM     decimal.Decimal               `json:"max_span_m"`
	PanelLengthM decimal.Decimal               `json:"panel_length_m"`
	UsableWidthM decimal.Decimal               `json:"usable_width_m"`
	FixingRules  map[FixingType][]MaterialRule `json:"fixing_material_rules"`
}

func (p ProductSpec) ID() ProductID {
	return ProductID{Key: p.Key, ThicknessMM: p.ThicknessMM}
}

// Validate checks the load-time invariants of a product record.
func (p ProductSpec) Validate(family Family) error {
	switch {
	case p.Key == "":
		return fmt.Errorf("%w: product without key", ErrInvalidLayer)
	case p.ThicknessMM <= 0:
		return fmt.Errorf("%w: %s thickness must be positive", ErrInvalidLayer, p.ID())
	case !family.Allows(p.ThicknessMM):
		return fmt.Errorf("%w: %s thickness not declared for family %s", ErrInvalidLayer, p.ID(), family.Name)
	case p.UnitPrice.IsNegative():
		return fmt.Errorf("%w: %s unit price is negative", ErrInvalidLayer, p.ID())
	case !p.MaxSpanM.IsPositive():
		return fmt.Errorf("%w: %s max span must be positive", ErrInvalidLayer, p.ID())
	case !p.PanelLengthM.IsPositive() || !p.UsableWidthM.IsPositive():
		return fmt.Errorf("%w: %s panel dimensions must be positive", ErrInvalidLayer, p.ID())
	}
	return nil
}

// Family declares the finite set of thicknesses a product family is sold in.
type Family struct {
	Name        string `json:"name"`
	Thicknesses []int  `json:"thicknesses"`
}

func (f Family) Allows(mm int) bool {
	for _, t := range f.Thicknesses {
		if t == mm {
			return true
		}
	}
	return false
}

// Accessory is a fastener or complement priced per unit.
type Accessory struct {
	Key         string          `json:"item_key"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// DiscountTier applies Rate once the subtotal reaches From.
type DiscountTier struct {
	From decimal.Decimal `json:"desde"`
	Rate decimal.Decimal `json:"porcentaje"`
}

// GuardRule is a JsonLogic expression evaluated against the finished
// quotation. When it yields true the message is attached as a warning.
type GuardRule struct {
	ID      string         `json:"id"`
	Logic   map[string]any `json:"logic"`
	Message string         `json:"mensaje"`
}

// RuleSet holds the business rules one layer declares. Nil fields and nil
// slices are not declared by that layer.
type RuleSet struct {
	TaxRate     *decimal.Decimal
	MinSlopePct *decimal.Decimal
	Currency    *string
	MinorUnits  *int32
	Discounts   []DiscountTier
	Guards      []GuardRule
}

// KnowledgeLayer is an immutable snapshot of one precedence tier.
type KnowledgeLayer struct {
	Level       Level
	Name        string
	Version     string
	Families    map[string]Family
	Products    map[ProductID]ProductSpec
	Accessories map[string]Accessory
	Formulas    map[string]Formula
	Rules       RuleSet
	LoadedAt    time.Time
}

// ProductIDs returns the layer's product ids in a stable order.
func (k KnowledgeLayer) ProductIDs() []ProductID {
	ids := make([]ProductID, 0, len(k.Products))
	for id := range k.Products {
		ids = append(ids, id)
	}
	SortProductIDs(ids)
	return ids
}

func SortProductIDs(ids []ProductID) {
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Key != ids[j].Key {
			return ids[i].Key < ids[j].Key
		}
		return ids[i].ThicknessMM < ids[j].ThicknessMM
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (k KnowledgeLayer) AccessoryKeys() []string { return sortedKeys(k.Accessories) }
func (k KnowledgeLayer) FormulaNames() []string  { return sortedKeys(k.Formulas) }
func (k KnowledgeLayer) FamilyNames() []string   { return sortedKeys(k.Families) }
