package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	"github.com/Victor-armando18/cotizador-paneles/internal/infrastructure"
	"github.com/Victor-armando18/cotizador-paneles/internal/infrastructure/diff"
	"github.com/Victor-armando18/cotizador-paneles/internal/usecase"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Options configures an Engine. Either Layers or Loader must be set.
type Options struct {
	Layers []LayerSource
	Loader LayerLoader

	// Nil falls back to 0.01 currency units and 1%. Zero reports any difference.
	AbsoluteTolerance *decimal.Decimal
	RelativeTolerance *decimal.Decimal

	// Used when no knowledge layer declares moneda or decimales.
	Currency   string
	MinorUnits *int32

	Executor GuardExecutor
	Logger   *zap.Logger
}

// Engine is the embeddable quotation engine: a knowledge store plus the
// quotation pipeline over its current snapshot.
type Engine struct {
	store   *usecase.KnowledgeStore
	service *usecase.QuotationService
	paths   []string
	log     *zap.Logger
}

// New builds the engine and performs the first load. A knowledge base
// without a master layer fails here with ErrMasterMissing.
func New(ctx context.Context, opts Options) (*Engine, error) {
	e, err := build(opts)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.ReloadWithReport(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func build(opts Options) (*Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	loader := opts.Loader
	var paths []string
	if loader == nil {
		if len(opts.Layers) == 0 {
			return nil, fmt.Errorf("%w: no knowledge layers configured", domain.ErrMasterMissing)
		}
		fl := infrastructure.NewFileLayerLoader(opts.Layers...)
		loader = fl
		paths = fl.Paths()
	}

	resolver := usecase.DefaultResolver()
	if opts.AbsoluteTolerance != nil {
		resolver.AbsTolerance = *opts.AbsoluteTolerance
	}
	if opts.RelativeTolerance != nil {
		resolver.RelTolerance = *opts.RelativeTolerance
	}
	if opts.Currency != "" {
		resolver.Currency = opts.Currency
	}
	if opts.MinorUnits != nil {
		resolver.MinorUnits = *opts.MinorUnits
	}

	executor := opts.Executor
	if executor == nil {
		executor = NewGuardExecutor()
	}

	store := usecase.NewKnowledgeStore(loader, resolver, &diff.Differ{}, log.Named("knowledge"))
	return &Engine{
		store:   store,
		service: usecase.NewQuotationService(store, executor, log.Named("quotation")),
		paths:   paths,
		log:     log,
	}, nil
}

// Quote assembles a quotation from the current snapshot. Span violations
// and guard hits come back as warnings on a successful quotation.
func (e *Engine) Quote(ctx context.Context, req QuotationRequest) (*Quotation, error) {
	return e.service.Quote(ctx, req)
}

// Verify recomputes every figure of q.
func (e *Engine) Verify(q *Quotation) error {
	return usecase.Verify(q)
}

// Reload re-reads every layer. A failed reload keeps the previous snapshot.
func (e *Engine) Reload(ctx context.Context) (ReloadReport, error) {
	return e.store.ReloadWithReport(ctx)
}

// Publish resolves layers built in memory and makes them current.
func (e *Engine) Publish(layers []KnowledgeLayer) (ReloadReport, error) {
	return e.store.Publish(layers)
}

// Snapshot returns the active resolved view.
func (e *Engine) Snapshot() *ResolvedView {
	return e.store.Current()
}

// Conflicts lists every disagreement found in the active snapshot.
func (e *Engine) Conflicts() []ConflictReport {
	view := e.store.Current()
	if view == nil {
		return nil
	}
	out := make([]ConflictReport, len(view.Conflicts))
	copy(out, view.Conflicts)
	return out
}

// Watch reloads on file changes until ctx is done. Only engines built from
// file layers can be watched.
func (e *Engine) Watch(ctx context.Context, debounce time.Duration) error {
	if len(e.paths) == 0 {
		return fmt.Errorf("engine has no knowledge files to watch")
	}
	return infrastructure.NewKnowledgeWatcher(e.paths, e.store, debounce, e.log.Named("watcher")).Watch(ctx)
}
