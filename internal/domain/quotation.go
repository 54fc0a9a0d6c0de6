package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// --- Estruturas de Entrada/Saída ---

// QuotationRequest is the structured input of one quotation attempt.
type QuotationRequest struct {
	ProductKey     string          `json:"product_key"`
	ThicknessMM    int             `json:"thickness_mm"`
	LengthM        decimal.Decimal `json:"length_m"`
	WidthM         decimal.Decimal `json:"width_m"`
	SpanM          decimal.Decimal `json:"span_m"`
	FixingType     FixingType      `json:"fixing_type"`
	OverhangStartM decimal.Decimal `json:"overhang_start_m"`
	OverhangEndM   decimal.Decimal `json:"overhang_end_m"`
	SlopePct       decimal.Decimal `json:"slope_pct"`
}

func (r QuotationRequest) ProductID() ProductID {
	return ProductID{Key: r.ProductKey, ThicknessMM: r.ThicknessMM}
}

// Validate rejects requests the engine cannot compute on.
func (r QuotationRequest) Validate() error {
	switch {
	case r.ProductKey == "":
		return fmt.Errorf("%w: product_key is required", ErrInvalidRequest)
	case r.ThicknessMM <= 0:
		return fmt.Errorf("%w: thickness_mm must be positive", ErrInvalidRequest)
	case !r.LengthM.IsPositive() || !r.WidthM.IsPositive():
		return fmt.Errorf("%w: length_m and width_m must be positive", ErrInvalidRequest)
	case !r.SpanM.IsPositive():
		return fmt.Errorf("%w: span_m must be positive", ErrInvalidRequest)
	case r.OverhangStartM.IsNegative() || r.OverhangEndM.IsNegative():
		return fmt.Errorf("%w: overhangs must be >= 0", ErrInvalidRequest)
	case r.SlopePct.IsNegative():
		return fmt.Errorf("%w: slope_pct must be >= 0", ErrInvalidRequest)
	}
	if _, err := ParseFixingType(string(r.FixingType)); err != nil {
		return err
	}
	return nil
}

// ValidationOutcome is the advisory result of the span check.
type ValidationOutcome struct {
	Passed         bool            `json:"passed"`
	Code           string          `json:"code,omitempty"`
	MeasuredValue  decimal.Decimal `json:"measured_value"`
	LimitValue     decimal.Decimal `json:"limit_value"`
	WarningMessage string          `json:"warning_message,omitempty"`
	Alternative    *ProductID      `json:"alternative,omitempty"`
}

// BOMLineItem is one priced line of the bill of materials.
type BOMLineItem struct {
	ItemKey     string          `json:"item_key"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	SourceLevel Level           `json:"source_level,omitempty"`
}

const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// ConflictReport records two layers disagreeing on the same field.
type ConflictReport struct {
	ProductKey  string `json:"product_key"`
	ThicknessMM int    `json:"thickness_mm,omitempty"`
	Field       string `json:"field"`
	LevelA      Level  `json:"level_a"`
	ValueA      string `json:"value_a"`
	LevelB      Level  `json:"level_b"`
	ValueB      string `json:"value_b"`
	Severity    string `json:"severity"`
}

// GuardViolation is a business guard from the knowledge base that fired.
type GuardViolation struct {
	RuleID  string `json:"rule_id"`
	Message string `json:"message"`
}

type ExecutionStep struct {
	Phase   string `json:"phase"`
	Action  string `json:"action"`
	Message string `json:"message"`
}

// Quotation is the terminal aggregate of the engine. It is built once by the
// assembler and only read afterwards.
type Quotation struct {
	QuotationID         string            `json:"quotation_id"`
	KnowledgeVersion    string            `json:"knowledge_version"`
	Request             QuotationRequest  `json:"request"`
	ProductName         string            `json:"product_name,omitempty"`
	ResolvedLayerLevel  Level             `json:"resolved_layer_level"`
	Validation          ValidationOutcome `json:"validation"`
	BOM                 []BOMLineItem     `json:"bom"`
	Subtotal            decimal.Decimal   `json:"subtotal"`
	DiscountRate        decimal.Decimal   `json:"discount_rate"`
	DiscountAmount      decimal.Decimal   `json:"discount_amount"`
	TaxRate             decimal.Decimal   `json:"tax_rate"`
	TaxAmount           decimal.Decimal   `json:"tax_amount"`
	Total               decimal.Decimal   `json:"total"`
	Currency            string            `json:"currency"`
	MinorUnits          int32             `json:"minor_units"`
	Warnings            []string          `json:"warnings,omitempty"`
	Guards              []GuardViolation  `json:"guards,omitempty"`
	Conflicts           []ConflictReport  `json:"conflicts,omitempty"`
	AuditLog            []ExecutionStep   `json:"audit_log"`
	CalculationVerified bool              `json:"calculation_verified"`
}

// HasWarnings reports whether a sales rep must look at the quotation before
// sending it: span exceeded or a guard fired.
func (q *Quotation) HasWarnings() bool {
	return !q.Validation.Passed || len(q.Guards) > 0
}
