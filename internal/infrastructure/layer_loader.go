package infrastructure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	kbyaml "github.com/Victor-armando18/cotizador-paneles/internal/infrastructure/yaml"
)

// LayerSource points at one knowledge document and the tier it feeds.
type LayerSource struct {
	Path  string
	Level domain.Level
	Name  string
	Patch string
}

// FileLayerLoader reads knowledge layers from JSON or YAML files.
type FileLayerLoader struct {
	sources []LayerSource
	now     func() time.Time
}

func NewFileLayerLoader(sources ...LayerSource) *FileLayerLoader {
	return &FileLayerLoader{sources: sources, now: time.Now}
}

func (l *FileLayerLoader) Load(ctx context.Context) ([]domain.KnowledgeLayer, error) {
	layers := make([]domain.KnowledgeLayer, 0, len(l.sources))
	for _, src := range l.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		layer, err := l.loadOne(src)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

// Paths returns every file the loader reads, patches included.
func (l *FileLayerLoader) Paths() []string {
	var out []string
	for _, src := range l.sources {
		out = append(out, src.Path)
		if src.Patch != "" {
			out = append(out, src.Patch)
		}
	}
	return out
}

func (l *FileLayerLoader) loadOne(src LayerSource) (domain.KnowledgeLayer, error) {
	data, err := readDocument(src.Path)
	if err != nil {
		return domain.KnowledgeLayer{}, fmt.Errorf("failed to read knowledge file %s: %w", src.Path, err)
	}

	if src.Patch != "" {
		patch, err := readDocument(src.Patch)
		if err != nil {
			return domain.KnowledgeLayer{}, fmt.Errorf("failed to read patch file %s: %w", src.Patch, err)
		}
		if data, err = ApplyLayerPatch(data, patch); err != nil {
			return domain.KnowledgeLayer{}, fmt.Errorf("%s: %w", src.Patch, err)
		}
	}

	name := src.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(src.Path), filepath.Ext(src.Path))
	}
	return ParseLayer(data, src.Level, name, l.now())
}

func readDocument(path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return kbyaml.LoadDocument(path)
	}
	return os.ReadFile(path)
}
