package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/waypoint/internal/cli"
	"github.com/alexanderramin/waypoint/internal/config"
	"github.com/alexanderramin/waypoint/internal/db"
	"github.com/alexanderramin/waypoint/internal/generation"
	"github.com/alexanderramin/waypoint/internal/llm"
	"github.com/alexanderramin/waypoint/internal/repository"
	"github.com/alexanderramin/waypoint/internal/server"
	"github.com/alexanderramin/waypoint/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("finding home directory: %w", err)
	}
	cfgPath := os.Getenv("WAYPOINT_CONFIG")
	if cfgPath == "" {
		cfgPath = config.DefaultPath(home)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// Open database
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	uow := db.NewSQLiteUnitOfWork(database)

	// Wire the plan cache, with the redis hot layer in front when configured
	var cache repository.PlanCache = repository.NewSQLitePlanCache(database, uow)
	if cfg.Redis.Addr != "" {
		rdb, err := repository.DialRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			logger.Warn("redis unavailable, using sqlite only", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer rdb.Close()
			cache = repository.NewRedisPlanCache(cache, rdb, cfg.RedisTTL(), logger)
		}
	}

	// Wire the generator. The llm backend also serves the /functions
	// endpoints; the http backend is a client of someone else's.
	var (
		gen       generation.Generator
		functions *server.GenerationHandler
	)
	switch cfg.Generation.Backend {
	case config.BackendHTTP:
		gen = generation.NewHTTPClient(generation.HTTPConfig{
			Endpoint: cfg.Generation.Endpoint,
			APIKey:   cfg.Generation.APIKey,
		})
	default:
		llmCfg := llm.LoadConfig()
		if cfg.Generation.Endpoint != "" {
			llmCfg.Endpoint = cfg.Generation.Endpoint
		}
		var observer llm.Observer = llm.NoopObserver{}
		if llmCfg.LogCalls {
			observer = llm.NewLogObserver(logger.With("component", "llm"))
		}
		llmGen := generation.NewLLMGenerator(llm.NewOllamaClient(llmCfg, observer))
		gen = llmGen
		functions = server.NewGenerationHandler(llmGen, cfg.GenerationTimeout(), logger)
	}

	// Wire services
	var observers []service.UseCaseObserver
	if cfg.LogUseCases {
		observers = append(observers, service.NewLogUseCaseObserver(os.Stderr))
	}
	roadmap := service.NewRoadmapService(cache, gen, service.RoadmapOptions{
		GenerationTimeout:  cfg.GenerationTimeout(),
		GenerationAttempts: cfg.Generation.Attempts,
		Logger:             logger,
	}, observers...)
	progress := service.NewProgressService(cache,
		repository.NewSQLiteProgressRepo(database),
		repository.NewSQLiteReflectionRepo(database),
		uow, observers...)

	auth := server.NewTokenAuth(cfg.Server.JWTSecret)
	srv := server.NewServer(server.RouterConfig{
		PlanHandler:       server.NewPlanHandler(roadmap, progress),
		GenerationHandler: functions,
		Auth:              auth,
		DefaultOwner:      cfg.Owner,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		Logger:            slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})),
	})

	app := &cli.App{
		Roadmap:    roadmap,
		Progress:   progress,
		Owner:      cfg.Owner,
		Server:     srv,
		ServerAddr: cfg.Server.Addr,
		Auth:       auth,
		Config:     cfg,
		ConfigPath: cfgPath,
	}

	// Detect interactive terminal for forms and spinners.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	// Execute root command
	rootCmd := cli.NewRootCmd(app)
	return rootCmd.ExecuteContext(ctx)
}
