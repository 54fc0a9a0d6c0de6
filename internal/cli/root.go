package cli

import (
	"context"
	"fmt"

	"github.com/Victor-armando18/cotizador-paneles/internal/config"
	"github.com/Victor-armando18/cotizador-paneles/pkg/engine"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	appVersion = "dev"
	appCommit  = "none"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit string) {
	appVersion = version
	appCommit = commit
}

var configPath string

var rootCmd = &cobra.Command{
	Use:   "cotizador",
	Short: "Roofing panel quotation engine",
	Long: `cotizador resolves the layered panel knowledge base (master, validation,
dynamic and support layers) and assembles verified quotations from it.

Prices, spans and formulas always come from the knowledge base; layers that
disagree are reported as conflicts instead of being silently merged.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cotizador %s\ncommit: %s\n", appVersion, appCommit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./cotizador.yaml)")
	rootCmd.AddCommand(versionCmd, quoteCmd, conflictsCmd, checkCmd, watchCmd)
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// runtime bundles what every subcommand needs.
type runtime struct {
	cfg    *config.Config
	log    *zap.Logger
	engine *engine.Engine
}

func (r *runtime) close() {
	_ = r.log.Sync()
}

func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := initLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	minor := cfg.Pricing.MinorUnits
	eng, err := engine.New(ctx, engine.Options{
		Layers:            cfg.Knowledge.Layers,
		AbsoluteTolerance: &cfg.Conflicts.AbsoluteTolerance,
		RelativeTolerance: &cfg.Conflicts.RelativeTolerance,
		Currency:          cfg.Pricing.Currency,
		MinorUnits:        &minor,
		Logger:            log,
	})
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return &runtime{cfg: cfg, log: log, engine: eng}, nil
}
