package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	"github.com/Victor-armando18/cotizador-paneles/internal/interfaces"
	"go.uber.org/zap"
)

// Differ compares two resolved views; nil before means first load.
type Differ interface {
	Diff(before, after *domain.ResolvedView) domain.ViewDelta
}

// ReloadReport describes one successful snapshot swap.
type ReloadReport struct {
	Version   string
	Layers    int
	Conflicts []domain.ConflictReport
	Delta     domain.ViewDelta
}

// KnowledgeStore owns the current resolved view. Readers get an immutable
// snapshot; Reload builds a new one and swaps the pointer.
type KnowledgeStore struct {
	loader   interfaces.LayerLoader
	resolver *Resolver
	differ   Differ
	log      *zap.Logger

	current atomic.Pointer[domain.ResolvedView]
	mu      sync.Mutex // serialises reloads, never held by readers
}

func NewKnowledgeStore(loader interfaces.LayerLoader, resolver *Resolver, differ Differ, log *zap.Logger) *KnowledgeStore {
	if resolver == nil {
		resolver = DefaultResolver()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &KnowledgeStore{loader: loader, resolver: resolver, differ: differ, log: log}
}

// Current returns the active snapshot, or nil before the first load.
func (s *KnowledgeStore) Current() *domain.ResolvedView {
	return s.current.Load()
}

func (s *KnowledgeStore) Reload(ctx context.Context) error {
	_, err := s.ReloadWithReport(ctx)
	return err
}

// ReloadWithReport loads every layer, resolves them and publishes the result.
// On any error the previous snapshot stays active.
func (s *KnowledgeStore) ReloadWithReport(ctx context.Context) (ReloadReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	layers, err := s.loader.Load(ctx)
	if err != nil {
		s.log.Error("knowledge load failed, keeping previous snapshot", zap.Error(err))
		return ReloadReport{}, fmt.Errorf("loading knowledge layers: %w", err)
	}
	return s.publish(layers)
}

// Publish resolves already loaded layers and swaps them in.
func (s *KnowledgeStore) Publish(layers []domain.KnowledgeLayer) (ReloadReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publish(layers)
}

func (s *KnowledgeStore) publish(layers []domain.KnowledgeLayer) (ReloadReport, error) {
	view, conflicts, err := s.resolver.Resolve(layers)
	if err != nil {
		s.log.Error("knowledge resolution failed, keeping previous snapshot", zap.Error(err))
		return ReloadReport{}, err
	}

	prev := s.current.Swap(view)

	report := ReloadReport{Version: view.Version, Layers: len(layers), Conflicts: conflicts}
	if s.differ != nil {
		report.Delta = s.differ.Diff(prev, view)
	}

	for _, c := range conflicts {
		fields := []zap.Field{
			zap.String("key", c.ProductKey),
			zap.Int("thickness_mm", c.ThicknessMM),
			zap.String("field", c.Field),
			zap.Int("level_a", int(c.LevelA)),
			zap.String("value_a", c.ValueA),
			zap.Int("level_b", int(c.LevelB)),
			zap.String("value_b", c.ValueB),
		}
		if c.Severity == domain.SeverityCritical {
			s.log.Error("knowledge conflict", fields...)
		} else {
			s.log.Warn("knowledge conflict", fields...)
		}
	}
	if !view.Rules.TaxDeclared {
		s.log.Warn("no layer declares iva, quotations carry no tax", zap.String("version", view.Version))
	}
	s.log.Info("knowledge snapshot published",
		zap.String("version", view.Version),
		zap.Int("layers", len(layers)),
		zap.Int("products", len(view.Products)),
		zap.Int("conflicts", len(conflicts)),
		zap.Strings("added", report.Delta.Added),
		zap.Strings("removed", report.Delta.Removed),
		zap.Strings("changed", report.Delta.Changed),
	)
	return report, nil
}
