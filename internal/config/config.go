// Package config loads the engine configuration: where the knowledge layers
// live, conflict tolerances, pricing defaults and logging.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Victor-armando18/cotizador-paneles/internal/domain"
	"github.com/Victor-armando18/cotizador-paneles/internal/infrastructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Knowledge KnowledgeConfig
	Conflicts ConflictConfig
	Pricing   PricingConfig
	Log       LogConfig
}

type KnowledgeConfig struct {
	Layers   []infrastructure.LayerSource
	Debounce time.Duration
}

type ConflictConfig struct {
	AbsoluteTolerance decimal.Decimal
	RelativeTolerance decimal.Decimal
}

// PricingConfig values apply only when no knowledge layer declares them.
type PricingConfig struct {
	Currency   string
	MinorUnits int32
}

type LogConfig struct {
	Level  string
	Format string
}

func defaultLayers() []map[string]interface{} {
	return []map[string]interface{}{
		{"path": "data/kb/maestro.json", "level": 1, "name": "maestro"},
		{"path": "data/kb/validacion.yaml", "level": 2, "name": "validacion"},
		{"path": "data/kb/dinamico.json", "level": 3, "name": "dinamico", "patch": "data/kb/dinamico.patch.json"},
	}
}

// Load reads the YAML configuration at path, or cotizador.yaml from the
// working directory when path is empty. A missing file yields the defaults.
// Environment variables prefixed COTIZADOR_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("cotizador")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("COTIZADOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("knowledge.layers", defaultLayers())
	v.SetDefault("knowledge.debounce", "500ms")
	v.SetDefault("conflicts.absolute_tolerance", "0.01")
	v.SetDefault("conflicts.relative_tolerance", "0.01")
	v.SetDefault("pricing.currency", "USD")
	v.SetDefault("pricing.minor_units", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	baseDir := "."
	if used := v.ConfigFileUsed(); used != "" {
		baseDir = filepath.Dir(used)
	}

	layers, err := parseLayers(v.Get("knowledge.layers"), baseDir)
	if err != nil {
		return nil, err
	}

	abs, err := decimal.NewFromString(v.GetString("conflicts.absolute_tolerance"))
	if err != nil {
		return nil, fmt.Errorf("conflicts.absolute_tolerance: %w", err)
	}
	rel, err := decimal.NewFromString(v.GetString("conflicts.relative_tolerance"))
	if err != nil {
		return nil, fmt.Errorf("conflicts.relative_tolerance: %w", err)
	}
	if abs.IsNegative() || rel.IsNegative() {
		return nil, fmt.Errorf("conflict tolerances must be >= 0")
	}

	minor := v.GetInt("pricing.minor_units")
	if minor < 0 || minor > 6 {
		return nil, fmt.Errorf("pricing.minor_units must be between 0 and 6, got %d", minor)
	}

	return &Config{
		Knowledge: KnowledgeConfig{
			Layers:   layers,
			Debounce: v.GetDuration("knowledge.debounce"),
		},
		Conflicts: ConflictConfig{AbsoluteTolerance: abs, RelativeTolerance: rel},
		Pricing: PricingConfig{
			Currency:   v.GetString("pricing.currency"),
			MinorUnits: int32(minor),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}, nil
}

// parseLayers maps the raw knowledge.layers list onto layer sources. Relative
// paths are taken from the config file's directory.
func parseLayers(raw interface{}, baseDir string) ([]infrastructure.LayerSource, error) {
	var items []map[string]interface{}
	switch t := raw.(type) {
	case []map[string]interface{}:
		items = t
	case []interface{}:
		for i, it := range t {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("knowledge.layers[%d] is not a mapping", i)
			}
			items = append(items, m)
		}
	default:
		return nil, fmt.Errorf("knowledge.layers must be a list")
	}

	sources := make([]infrastructure.LayerSource, 0, len(items))
	for i, m := range items {
		path, _ := m["path"].(string)
		if path == "" {
			return nil, fmt.Errorf("knowledge.layers[%d].path is required", i)
		}
		level, err := domain.ParseLevel(fmt.Sprint(m["level"]))
		if err != nil {
			return nil, fmt.Errorf("knowledge.layers[%d].level: %w", i, err)
		}
		src := infrastructure.LayerSource{Path: resolvePath(baseDir, path), Level: level}
		if name, ok := m["name"].(string); ok {
			src.Name = name
		}
		if patch, ok := m["patch"].(string); ok && patch != "" {
			src.Patch = resolvePath(baseDir, patch)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
