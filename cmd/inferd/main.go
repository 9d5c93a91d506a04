package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"inferd/internal/backend"
	"inferd/internal/cache"
	"inferd/internal/common/fsutil"
	"inferd/internal/config"
	"inferd/internal/hostinfo"
	"inferd/internal/httpapi"
	"inferd/internal/registry"
	"inferd/internal/router"
	"inferd/internal/sched"
	"inferd/internal/session"
	"inferd/pkg/types"
)

type options struct {
	addr          string
	configPath    string
	catalogPath   string
	budgetMB      int
	remoteBaseURL string
	logLevel      string
	prettyLog     bool
	corsOrigins   []string
}

func main() {
	opts := options{
		addr:          envOr("INFERD_ADDR", ":8080"),
		remoteBaseURL: envOr("INFERD_REMOTE_BASE_URL", "https://generativelanguage.googleapis.com"),
		logLevel:      envOr("INFERD_LOG_LEVEL", "info"),
	}

	root := &cobra.Command{
		Use:           "inferd",
		Short:         "Adaptive, memory-aware inference routing daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	root.Flags().StringVar(&opts.addr, "addr", opts.addr, "HTTP listen address, e.g. :8080")
	root.Flags().StringVar(&opts.configPath, "config", "", "Path to a yaml/json/toml config file")
	root.Flags().StringVar(&opts.catalogPath, "catalog", "", "Path to a yaml backend catalog (default: built-in)")
	root.Flags().IntVar(&opts.budgetMB, "memory-budget-mb", 0, "Memory budget in MB for warm backends (0=derive from host)")
	root.Flags().StringVar(&opts.remoteBaseURL, "remote-base-url", opts.remoteBaseURL, "Base URL of the remote fallback endpoint")
	root.Flags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "Log level: debug|info|warn|error")
	root.Flags().BoolVar(&opts.prettyLog, "pretty-log", false, "Human-readable console logging")
	root.Flags().StringSliceVar(&opts.corsOrigins, "cors-origins", nil, "Allowed CORS origins (empty disables CORS)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(opts options) error {
	log := newLogger(opts)

	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}

	reg, err := loadRegistry(opts)
	if err != nil {
		return err
	}

	sampler := hostinfo.NewHostSampler()
	factory := backend.NewHTTPFactory(opts.remoteBaseURL, "")

	// Warm a local backend by issuing an empty generation; Ollama-style
	// servers load the model on first use and keep it resident.
	loader := cache.LoadFunc(func(ctx context.Context, b types.Backend) error {
		_, err := factory.For(b).Invoke(ctx, "")
		return err
	})

	bc := cache.New(cache.Config{
		Registry: reg,
		Sampler:  sampler,
		Loader:   loader,
		TTL:      settings.CacheTTL(),
		BudgetMB: settings.MemoryBudgetMB,
		Logger:   log.With().Str("component", "cache").Logger(),
	})

	tracker := session.New()

	rt := router.New(router.Config{
		Registry: reg,
		Cache:    bc,
		Sampler:  sampler,
		Factory:  factory,
		Settings: &settings,
		Session:  tracker,
		Logger:   log.With().Str("component", "router").Logger(),
	})

	sc := sched.New(sched.Config{
		Cache:    bc,
		Session:  tracker,
		Sampler:  sampler,
		Settings: &settings,
		Logger:   log.With().Str("component", "sched").Logger(),
	})

	if len(opts.corsOrigins) > 0 {
		httpapi.SetCORSOptions(true, opts.corsOrigins,
			[]string{"GET", "POST", "OPTIONS"},
			[]string{"Accept", "Content-Type"})
	}

	mux := httpapi.NewMux(httpapi.Deps{
		Router:    rt,
		Cache:     bc,
		Scheduler: sc,
		Session:   tracker,
		Registry:  reg,
		Sampler:   sampler,
		StartedAt: time.Now(),
		Logger:    log.With().Str("component", "http").Logger(),
	})
	srv := &http.Server{Addr: opts.addr, Handler: mux}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	go sc.Run(bgCtx)

	go func() {
		log.Info().Str("addr", opts.addr).Int("backends", len(reg.All())).Msg("inferd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	bgCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

// defaultConfigPath is probed when --config is not given.
const defaultConfigPath = "~/.config/inferd/config.yaml"

func loadSettings(opts options) (config.Settings, error) {
	var settings config.Settings
	path := opts.configPath
	if path == "" {
		if p, err := fsutil.ExpandHome(defaultConfigPath); err == nil && fsutil.PathExists(p) {
			path = p
		}
	}
	if path != "" {
		s, err := config.Load(path)
		if err != nil {
			return settings, err
		}
		settings = s
	}
	if opts.addr != "" {
		settings.Addr = opts.addr
	}
	if opts.budgetMB > 0 {
		settings.MemoryBudgetMB = opts.budgetMB
	}
	settings.ApplyEnv()
	settings.Normalize()
	return settings, nil
}

func loadRegistry(opts options) (*registry.Registry, error) {
	if opts.catalogPath != "" {
		return registry.LoadFile(opts.catalogPath)
	}
	return registry.New(registry.DefaultCatalog())
}

func newLogger(opts options) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(opts.logLevel))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	var w = os.Stderr
	if opts.prettyLog {
		return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
