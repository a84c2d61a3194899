package main

import (
	"fmt"
	"os"
	_ "time/tzdata" // birthplace zones on hosts without a zoneinfo database

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"woflstrology/internal/chart"
	"woflstrology/internal/config"
	"woflstrology/internal/content"
	"woflstrology/internal/ephemeris"
	"woflstrology/internal/geo"
	"woflstrology/internal/logging"
	"woflstrology/internal/metrics"
	"woflstrology/internal/model"
	"woflstrology/internal/pipeline"
	"woflstrology/internal/profile"
	"woflstrology/internal/recorder"
)

var (
	// Global flags
	cfgPath string
	verbose bool
	plain   bool

	// Built by PersistentPreRunE
	cfg      *config.Config
	logger   *zap.Logger
	stats    *metrics.Metrics
	catalog  *ephemeris.Catalog
	service  *pipeline.Service
	history  recorder.Recorder
	profiles *profile.Manager
)

var rootCmd = &cobra.Command{
	Use:   "woflstrology",
	Short: "Horoscopes and chart readings from birth data",
	Long: `woflstrology casts charts from a birth date, time and place and renders
readings: daily horoscopes, natal charts, compatibility, synastry, transits,
forecasts, solar returns, progressions, relocation and asteroids.

Run without a subcommand to answer a few questions interactively.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Name() == "daemon")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if history != nil {
			_ = history.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config file (default: $CONFIG_PATH or configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "Print raw Markdown even on a terminal")

	for _, c := range readingCommands() {
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(daemonCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads config and wires the reading pipeline. The daemon logs JSON;
// everything else logs to the console.
func setup(daemon bool) error {
	if err := config.LoadEnvFile(".env"); err != nil {
		return err
	}
	path := cfgPath
	if path == "" {
		path = "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}
	var err error
	if cfg, err = config.Load(path); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if logger, err = logging.New(verbose, !daemon); err != nil {
		return err
	}
	logger.Debug("config loaded", zap.String("path", path))
	stats = metrics.New()

	// Place lookup: literal coordinates first, then Nominatim behind a breaker
	nominatim := geo.NewNominatimResolver(cfg.Location.NominatimURL, cfg.Location.UserAgent, cfg.Proxy, cfg.Location.Timeout)
	breaker := geo.NewBreakerResolver(nominatim, cfg.Location.Timeout*3, logger)
	locations := geo.NewFallback(&geo.CoordinateResolver{Next: breaker}, cfg.DefaultLocation(), logger)

	engine := ephemeris.NewMeeusEngine(cfg.Ephemeris.VSOP87Dir, logger)
	if catalog, err = ephemeris.LoadCatalog(cfg.Ephemeris.BodiesFile, engine); err != nil {
		return err
	}
	logger.Debug("ephemeris ready", zap.String("engine", engine.Name()))

	system, err := chart.ParseHouseSystem(cfg.Chart.HouseSystem)
	if err != nil {
		return err
	}
	asm := chart.NewAssembler(system)
	asm.Aspects = chart.WithOrbs(chart.DefaultAspects, cfg.Chart.Orbs)

	db, err := loadContent(cfg.Content.DatabasePath)
	if err != nil {
		return err
	}

	history = recorder.Open(cfg.Database.SQLitePath, logger)
	if profiles, err = profile.NewManager(cfg.Profiles.StateFile, logger); err != nil {
		return err
	}

	service, err = pipeline.NewService(pipeline.Deps{
		Locations: locations,
		Ephemeris: ephemeris.NewAdapter(engine, logger, catalog),
		Assembler: asm,
		Content:   db,
		Recorder:  history,
		Metrics:   stats,
		Logger:    logger,
		Directory: catalog,
		Bodies:    cfg.BodyList(),
		Stars:     catalog.Bodies(model.KindFixedStar),
	})
	return err
}

func loadContent(path string) (*content.Database, error) {
	if path == "" {
		return content.Default()
	}
	return content.Load(path)
}
