package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	"github.com/Victor-armando18/cotizador-paneles/internal/infrastructure/diff"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestKnowledgeStore_Reload(t *testing.T) {
	ctx := context.Background()
	loader := &staticLoader{layers: []domain.KnowledgeLayer{masterLayer(t)}}
	core, logs := observer.New(zap.InfoLevel)
	store := NewKnowledgeStore(loader, nil, &diff.Differ{}, zap.New(core))

	if store.Current() != nil {
		t.Fatal("store should be empty before the first load")
	}

	report, err := store.ReloadWithReport(ctx)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	first := store.Current()
	if first == nil || first.Version != report.Version || len(report.Delta.Added) != 5 {
		t.Fatalf("unexpected first report %+v", report)
	}
	if logs.FilterMessage("knowledge snapshot published").Len() != 1 {
		t.Error("publish should be logged")
	}
	if logs.FilterMessage("no layer declares iva, quotations carry no tax").Len() != 0 {
		t.Error("master declares iva, no warning expected")
	}

	t.Run("falha de leitura mantem o snapshot anterior", func(t *testing.T) {
		loader.err = errors.New("disk gone")
		defer func() { loader.err = nil }()
		if err := store.Reload(ctx); err == nil {
			t.Fatal("expected an error")
		}
		if store.Current() != first {
			t.Error("failed reload replaced the snapshot")
		}
	})

	t.Run("falta de mestre mantem o snapshot anterior", func(t *testing.T) {
		loader.layers = []domain.KnowledgeLayer{layerWith(domain.LevelDynamic, "dinamico")}
		defer func() { loader.layers = []domain.KnowledgeLayer{masterLayer(t)} }()
		if err := store.Reload(ctx); !errors.Is(err, domain.ErrMasterMissing) {
			t.Fatalf("expected ErrMasterMissing, got %v", err)
		}
		if store.Current() != first {
			t.Error("failed resolution replaced the snapshot")
		}
	})

	t.Run("conflito e registrado no log e o delta reportado", func(t *testing.T) {
		loader.layers = []domain.KnowledgeLayer{masterLayer(t), layerWith(domain.LevelDynamic, "dinamico", isodec(100, "45.99", "5.5"), isodec(50, "40", "4"))}
		report, err := store.ReloadWithReport(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(report.Conflicts) != 1 || logs.FilterMessage("knowledge conflict").Len() != 1 {
			t.Errorf("conflict not reported: %+v", report.Conflicts)
		}
		if len(report.Delta.Added) != 1 || report.Delta.Added[0] != "ISODEC_EPS@50mm" {
			t.Errorf("delta = %+v", report.Delta)
		}
		if store.Current() == first {
			t.Error("successful reload kept the old snapshot")
		}
	})
}

func TestKnowledgeStore_ReadersSeeWholeSnapshots(t *testing.T) {
	cheap := masterLayer(t)
	cheap.Version = "cheap"
	dear := masterLayer(t)
	dear.Version = "dear"
	for id, p := range dear.Products {
		p.UnitPrice = p.UnitPrice.Add(d("10"))
		dear.Products[id] = p
	}

	store := NewKnowledgeStore(&staticLoader{}, nil, nil, nil)
	if _, err := store.Publish([]domain.KnowledgeLayer{cheap}); err != nil {
		t.Fatal(err)
	}
	id := domain.ProductID{Key: "ISODEC_EPS", ThicknessMM: 100}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				v := store.Current()
				price := v.Products[id].Spec.UnitPrice
				switch v.Version {
				case "L1:cheap":
					if !price.Equal(d("46.07")) {
						t.Errorf("torn read: %s with %s", v.Version, price)
					}
				case "L1:dear":
					if !price.Equal(d("56.07")) {
						t.Errorf("torn read: %s with %s", v.Version, price)
					}
				default:
					t.Errorf("unknown version %q", v.Version)
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		layers := []domain.KnowledgeLayer{cheap}
		if i%2 == 0 {
			layers = []domain.KnowledgeLayer{dear}
		}
		if _, err := store.Publish(layers); err != nil {
			t.Fatal(err)
		}
	}
	close(stop)
	wg.Wait()
}

func TestKnowledgeStore_WarnsWithoutTax(t *testing.T) {
	master := masterLayer(t)
	master.Rules.TaxRate = nil
	core, logs := observer.New(zap.WarnLevel)
	store := NewKnowledgeStore(&staticLoader{}, nil, nil, zap.New(core))

	if _, err := store.Publish([]domain.KnowledgeLayer{master}); err != nil {
		t.Fatal(err)
	}
	if store.Current().Rules.TaxDeclared || !store.Current().Rules.TaxRate.IsZero() {
		t.Errorf("rules = %+v", store.Current().Rules)
	}
	if logs.FilterMessage("no layer declares iva, quotations carry no tax").Len() != 1 {
		t.Errorf("missing iva warning, logs: %+v", logs.All())
	}
}
