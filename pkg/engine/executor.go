package engine

import (
	"github.com/Victor-armando18/cotizador-paneles/internal/infrastructure"
)

// NewGuardExecutor returns the JsonLogic evaluator used for the `guardas`
// of the knowledge base. Embedders may supply their own GuardExecutor in
// Options instead.
func NewGuardExecutor() GuardExecutor {
	return infrastructure.NewJsonLogicExecutor()
}
