package interfaces

import (
	"context"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
)

// Erros do domínio expostos para quem consome as portas.
var (
	ErrMasterMissing          = domain.ErrMasterMissing
	ErrProductNotFound        = domain.ErrProductNotFound
	ErrUnsupportedFixing      = domain.ErrUnsupportedFixing
	ErrSourceOfTruthViolation = domain.ErrSourceOfTruthViolation
	ErrFormulaNotFound        = domain.ErrFormulaNotFound
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrInvalidLayer           = domain.ErrInvalidLayer
)

// LayerLoader define o contrato para carregar as camadas de conhecimento (de disco, rede, etc.).
type LayerLoader interface {
	Load(ctx context.Context) ([]domain.KnowledgeLayer, error)
}

// GuardExecutor avalia uma expressão JsonLogic contra os dados da cotação.
type GuardExecutor interface {
	Execute(ctx context.Context, logic map[string]interface{}, data map[string]interface{}) (interface{}, error)
}

// Reloader troca o snapshot de conhecimento de forma atômica.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ViewProvider entrega o snapshot resolvido vigente.
type ViewProvider interface {
	Current() *domain.ResolvedView
}

// QuotationFacade é a porta de entrada do motor para os colaboradores externos.
type QuotationFacade interface {
	Quote(ctx context.Context, req domain.QuotationRequest) (*domain.Quotation, error)
}
