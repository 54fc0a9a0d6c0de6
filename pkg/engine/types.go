package engine

import (
	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	"github.com/Victor-armando18/cotizador-paneles/internal/infrastructure"
	"github.com/Victor-armando18/cotizador-paneles/internal/interfaces"
	"github.com/Victor-armando18/cotizador-paneles/internal/usecase"
)

// Tipos públicos do motor, para aplicações que o embutem.
type (
	Level             = domain.Level
	FixingType        = domain.FixingType
	ProductID         = domain.ProductID
	QuotationRequest  = domain.QuotationRequest
	Quotation         = domain.Quotation
	BOMLineItem       = domain.BOMLineItem
	ValidationOutcome = domain.ValidationOutcome
	ConflictReport    = domain.ConflictReport
	GuardViolation    = domain.GuardViolation
	ExecutionStep     = domain.ExecutionStep
	KnowledgeLayer    = domain.KnowledgeLayer
	ResolvedView      = domain.ResolvedView
	QuoteError        = domain.QuoteError
	LayerSource       = infrastructure.LayerSource
	LayerLoader       = interfaces.LayerLoader
	GuardExecutor     = interfaces.GuardExecutor
	ReloadReport      = usecase.ReloadReport
)

const (
	LevelMaster     = domain.LevelMaster
	LevelValidation = domain.LevelValidation
	LevelDynamic    = domain.LevelDynamic
	LevelSupport    = domain.LevelSupport

	FixingConcrete = domain.FixingConcrete
	FixingMetal    = domain.FixingMetal
	FixingWood     = domain.FixingWood
)

var (
	ErrMasterMissing          = domain.ErrMasterMissing
	ErrProductNotFound        = domain.ErrProductNotFound
	ErrUnsupportedFixing      = domain.ErrUnsupportedFixing
	ErrSourceOfTruthViolation = domain.ErrSourceOfTruthViolation
	ErrFormulaNotFound        = domain.ErrFormulaNotFound
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrInvalidLayer           = domain.ErrInvalidLayer
)

// ErrorCode returns the stable code carried by err, or "" when it has none.
func ErrorCode(err error) string {
	return domain.ErrorCode(err)
}
