package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/brotherbot/internal/config"
	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/internal/graph"
	"github.com/sandevgo/brotherbot/internal/providers/articles"
	"github.com/sandevgo/brotherbot/internal/providers/llm"
	"github.com/sandevgo/brotherbot/internal/providers/sandbox"
	"github.com/sandevgo/brotherbot/internal/service/bot"
	"github.com/sandevgo/brotherbot/internal/service/timers"
	"github.com/sandevgo/brotherbot/internal/storage/jsonfile"
	"github.com/sandevgo/brotherbot/internal/storage/sqlite"
	"github.com/sandevgo/brotherbot/internal/transport/cli"
	"github.com/sandevgo/brotherbot/internal/transport/telegram"
	"github.com/sandevgo/brotherbot/pkg/log"
	"github.com/sandevgo/brotherbot/pkg/srv"
)

var errNoTransport = errors.New("no transport enabled, set ENABLE_TELEGRAM or ENABLE_CLI")

// transport is what a chat platform has to offer the rest of the bot.
type transport interface {
	srv.Service
	core.Outbound
	core.Responder
	core.Announcer
	core.Notifier
	core.Confirmer
	Bind(h core.InboundHandler, r core.TimerResolver)
}

func NewServices(ctx context.Context, stop context.CancelFunc) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	err := initEnv(ctx, config.GetRuntimePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)
	sandboxCfg := config.NewSandboxConfig(ctx)
	timersCfg := config.NewTimersConfig(ctx)
	articlesCfg := config.NewArticlesConfig(ctx)

	// 2. Conversation graph
	g, closeStore, err := initGraph(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize conversation graph")
	}

	// 3. AI Provider
	aiProvider, err := llm.NewProvider(ctx, llmCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	// 4. Code sandbox
	runner := sandbox.NewDocker(sandbox.Config{
		DockerBin:     sandboxCfg.DockerBin,
		Image:         sandboxCfg.Image,
		Timeout:       sandboxCfg.Timeout,
		Memory:        sandboxCfg.Memory,
		Network:       sandboxCfg.Network,
		MaxConcurrent: sandboxCfg.MaxConcurrent,
		MaxOutput:     sandboxCfg.MaxOutput,
	})

	// 5. Transport
	tr, err := initTransport(ctx, appCfg, stop)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transport")
	}

	// 6. Timers
	scheduler := timers.NewScheduler(
		timers.NewStore(timersCfg.GetStorePath(appCfg.GetRuntimePath())),
		tr, tr, tr,
		timers.WithMinLead(timersCfg.MinLead),
	)

	// 7. Bot
	router := bot.NewRouter(
		bot.NewPythonTool(g, tr, runner),
		bot.NewTimerTool(scheduler, tr),
	)
	b := bot.New(
		g,
		graph.NewSeeder(g, bot.LoadPersona(ctx, appCfg)),
		aiProvider,
		tr,
		router,
		bot.NewChunker(g, tr, appCfg.ChunkLimit),
		bot.Options{PromptLimit: appCfg.PromptLimit},
	)
	tr.Bind(b, scheduler)

	// 8. Background jobs
	cron, err := initCron(ctx, appCfg, timersCfg, articlesCfg, g, scheduler, tr)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule background jobs")
	}

	// Shutdown runs in list order: stop producers before the final save.
	services = append(services, cron, tr)
	services = append(services, srv.NewCleanup("graph", g.Save))
	services = append(services, srv.NewCloser("store", closeStore))

	return services
}

func initGraph(ctx context.Context, cfg *config.AppConfig) (*graph.Graph, func() error, error) {
	repo, closeStore, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	g := graph.New(repo, graph.WithRetention(cfg))
	if _, err := g.Load(ctx); err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	return g, closeStore, nil
}

func initStorage(ctx context.Context, cfg *config.AppConfig) (core.NodeRepository, func() error, error) {
	if cfg.Store == config.StoreSQLite {
		db, err := sqlite.NewDB(ctx, cfg.GetDatabasePath())
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewNodesRepo(db), db.Close, nil
	}
	return jsonfile.NewNodeStore(cfg.GetGraphPath()), func() error { return nil }, nil
}

func initTransport(ctx context.Context, cfg *config.AppConfig, stop context.CancelFunc) (transport, error) {
	// Telegram Bot
	if cfg.IsTelegramSelected() {
		tgCfg := config.NewTelegramConfig(ctx)
		tg, err := telegram.NewBot(ctx, tgCfg)
		if err != nil {
			return nil, err
		}
		return tg, nil
	}

	if !cfg.IsCLISelected() {
		return nil, errNoTransport
	}

	rl, err := cli.NewReadLine(cfg.GetRuntimePath())
	if err != nil {
		return nil, err
	}
	return &stopOnExit{transport: rl, stop: stop}, nil
}

func initCron(
	ctx context.Context,
	appCfg *config.AppConfig,
	timersCfg *config.TimersConfig,
	articlesCfg *config.ArticlesConfig,
	g *graph.Graph,
	scheduler *timers.Scheduler,
	announcer core.Announcer,
) (*srv.Cron, error) {
	cron := srv.NewCron(ctx)

	if err := cron.Register("timers", timersCfg.Schedule, scheduler.Check); err != nil {
		return nil, err
	}

	err := cron.Register("graph-sweep", appCfg.SweepSchedule, func(ctx context.Context) {
		if _, err := g.Sweep(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("retention sweep failed")
		}
	})
	if err != nil {
		return nil, err
	}

	if articlesCfg.Enabled {
		if articlesCfg.ChannelID == "" {
			log.FromCtx(ctx).Warn().Msg("article poller enabled without ARTICLES_CHANNEL_ID, skipping")
			return cron, nil
		}
		checker := articles.NewChecker(articles.Config{
			URL:     articlesCfg.URL,
			BaseURL: articlesCfg.BaseURL,
			Filter:  articlesCfg.Filter,
		}, articles.NewSeenStore(articlesCfg.GetSeenPath(appCfg.GetRuntimePath())))
		poller := articles.NewPoller(checker, announcer, articlesCfg.ChannelID, articlesCfg.Header)
		if err := cron.Register("articles", articlesCfg.Schedule, poller.Run); err != nil {
			return nil, err
		}
	}

	return cron, nil
}

// stopOnExit ends the process when the local REPL is closed.
type stopOnExit struct {
	transport
	stop context.CancelFunc
}

func (s *stopOnExit) Start(ctx context.Context) error {
	defer s.stop()
	return s.transport.Start(ctx)
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}

// openGraph loads the graph for one-shot commands.
func openGraph(ctx context.Context) (*graph.Graph, func() error, error) {
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		return nil, nil, err
	}
	return initGraph(ctx, config.NewAppConfig(ctx))
}

var (
	_ transport         = (*telegram.Bot)(nil)
	_ transport         = (*cli.ReadLine)(nil)
	_ core.MessageSizer = (*telegram.Bot)(nil)
)
