// Command lyricsroman romanizes YouTube Music lyrics in a browser it drives.
//
// Usage:
//
//	lyricsroman -config lyricsroman.yaml            # music page + agent
//	lyricsroman -url https://music.youtube.com/...  # same, overriding music_url
//	lyricsroman -serve                              # orchestrator over HTTP/MCP only
//	lyricsroman -text "頑張って"                     # one-shot romanization
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/lyricsroman/dbopen"
	"github.com/hazyhaar/lyricsroman/extraction"
	"github.com/hazyhaar/lyricsroman/internal/browser"
	"github.com/hazyhaar/lyricsroman/internal/config"
	"github.com/hazyhaar/lyricsroman/internal/sink"
	"github.com/hazyhaar/lyricsroman/msgchan"
	"github.com/hazyhaar/lyricsroman/observability"
	"github.com/hazyhaar/lyricsroman/orchestrator"
	"github.com/hazyhaar/lyricsroman/pageagent"
	"github.com/hazyhaar/lyricsroman/romanize"
	"github.com/hazyhaar/lyricsroman/script"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to lyricsroman.yaml")
	musicURL := flag.String("url", "", "music page to open (overrides music_url)")
	remote := flag.String("orchestrator", "", "base URL of a remote orchestrator (overrides orchestrator.remote)")
	text := flag.String("text", "", "romanize this text once and exit")
	serve := flag.Bool("serve", false, "serve the orchestrator over HTTP and MCP")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			logger.Error("lyricsroman: fatal", "error", err)
			os.Exit(1)
		}
	}
	if *musicURL != "" {
		cfg.MusicURL = *musicURL
	}
	if *remote != "" {
		cfg.Orchestrator.Remote = *remote
	}

	var err error
	switch {
	case *serve:
		err = runServe(ctx, logger, cfg)
	case *text != "":
		err = runOnce(ctx, logger, cfg, *text)
	default:
		err = runAgent(ctx, logger, cfg)
	}
	if err != nil {
		logger.Error("lyricsroman: fatal", "error", err)
		os.Exit(1)
	}
}

// app holds the started browser and the channel to the orchestrator.
type app struct {
	mgr     *browser.Manager
	driver  *browser.Driver
	handler romanize.Handler
	sender  msgchan.Sender
	metrics *observability.MetricsManager
	db      *sql.DB
}

func (a *app) Close() {
	if a.metrics != nil {
		a.metrics.Close()
		a.db.Close()
	}
	a.mgr.Close()
}

func start(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*app, error) {
	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		Mode:             browser.ParseMode(cfg.Browser.Mode),
		Stealth:          *cfg.Browser.Stealth,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		XvfbDisplay:      cfg.Browser.XvfbDisplay,
		Logger:           logger,
	})
	if _, err := mgr.Start(ctx); err != nil {
		return nil, err
	}

	a := &app{mgr: mgr, driver: browser.NewDriver(mgr)}
	if cfg.Orchestrator.Remote != "" {
		a.sender = msgchan.NewClient(cfg.Orchestrator.Remote, msgchan.WithToken(cfg.Orchestrator.Token))
		logger.Info("lyricsroman: using remote orchestrator", "url", cfg.Orchestrator.Remote)
		return a, nil
	}

	orch := orchestrator.New(a.driver, orchestrator.Config{
		TranslateURL: cfg.Orchestrator.TranslateURL,
		LoadTimeout:  cfg.Orchestrator.LoadTimeout,
		Routine: extraction.New(extraction.Config{
			InputSelectors:  cfg.Orchestrator.InputSelectors,
			ResultSelectors: cfg.Orchestrator.ResultSelectors,
			InputTimeout:    cfg.Orchestrator.InputTimeout,
			ResultTimeout:   cfg.Orchestrator.ResultTimeout,
			Logger:          logger,
		}),
		Logger: logger,
	})
	a.handler = orch.Handle
	if cfg.Metrics.Path != "" {
		db, err := dbopen.Open(cfg.Metrics.Path, dbopen.WithMkdirAll(), dbopen.WithSchema(observability.Schema))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.db = db
		a.metrics = observability.NewMetricsManager(db, 100, 5*time.Second, logger)
		a.handler = observability.MeasureHandler(a.metrics, a.handler)
	}
	a.sender = msgchan.NewLocal(a.handler, logger)
	return a, nil
}

func runServe(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	cfg.Orchestrator.Remote = ""
	a, err := start(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := msgchan.NewServer(msgchan.ServerConfig{
		Handler:   a.handler,
		TokenHash: cfg.Server.TokenHash,
		RateLimit: cfg.Server.RateLimit,
		Version:   version,
		Logger:    logger,
	})
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func runOnce(ctx context.Context, logger *slog.Logger, cfg *config.Config, text string) error {
	joined, ok := script.Extract(text)
	if !ok {
		fmt.Println(text)
		return nil
	}

	a, err := start(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	romanized, err := msgchan.NewChannel(a.sender).Romanize(ctx, joined)
	if err != nil {
		return fmt.Errorf("romanize: %w", err)
	}
	fmt.Println(script.Merge(text, romanized))
	return nil
}

func runAgent(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	sinks, err := openSinks(cfg.Sinks, logger)
	if err != nil {
		return err
	}
	notifier := sink.NewNotifier(sinks, sink.WithLogger(logger))
	defer notifier.Close()

	a, err := start(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	page, err := a.mgr.OpenPage(ctx, cfg.MusicURL, false)
	if err != nil {
		return err
	}
	a.driver.Register(page)

	host, err := browser.NewHostPage(ctx, page, logger)
	if err != nil {
		return err
	}

	agent := pageagent.New(host, pageagent.Config{
		Romanizer:              msgchan.NewChannel(a.sender),
		ToggleLabel:            cfg.Agent.ToggleLabel,
		ToggleOnlyWithNonLatin: !*cfg.Agent.AlwaysShowToggle,
		EagerTabSwitch:         !*cfg.Agent.DeferredTabSwitch,
		RomanizeTimeout:        cfg.Agent.RomanizeTimeout,
		MaxInjectRetries:       cfg.Agent.MaxInjectRetries,
		Notifier:               notifier,
		Logger:                 logger,
	})
	logger.Info("lyricsroman: agent running", "url", cfg.MusicURL, "version", version)
	return agent.Run(ctx)
}

func openSinks(cfgs []config.SinkConfig, logger *slog.Logger) (*sink.Router, error) {
	var sinks []sink.Sink
	for _, sc := range cfgs {
		switch sc.Type {
		case "stdout":
			sinks = append(sinks, sink.NewStdout(nil))
		case "webhook":
			sinks = append(sinks, sink.NewWebhook(sc.URL, sink.WithWebhookLogger(logger)))
		case "sqlite":
			s, err := sink.OpenSQLite(sc.Path)
			if err != nil {
				for _, open := range sinks {
					open.Close()
				}
				return nil, err
			}
			sinks = append(sinks, s)
		}
	}
	return sink.NewRouter(logger, sinks...), nil
}
