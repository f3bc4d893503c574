// Command nmtp serves the NMTP recruitment portal: the application
// wizard at /apply, the applicant dashboard and the recruitment
// dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/nmtp/applyportal/client"
	"github.com/nmtp/applyportal/internal/admin"
	"github.com/nmtp/applyportal/internal/app"
	"github.com/nmtp/applyportal/internal/config"
	"github.com/nmtp/applyportal/internal/submission"
	"github.com/nmtp/applyportal/pkg/health"
	"github.com/nmtp/applyportal/pkg/i18n"
	"github.com/nmtp/applyportal/pkg/limits"
	"github.com/nmtp/applyportal/pkg/logging"
	"github.com/nmtp/applyportal/pkg/metrics"
	"github.com/nmtp/applyportal/pkg/router"
	"github.com/nmtp/applyportal/pkg/shutdown"
	"github.com/nmtp/applyportal/pkg/state"
	"github.com/nmtp/applyportal/pkg/transport"
	"github.com/nmtp/applyportal/pkg/uploads"
)

var version = "0.1.0"

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.LoadWith(config.Options{ConfigFile: configFile})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.App.Version != "" {
		version = cfg.App.Version
	}

	log := logging.NewSlogLogger(
		logging.WithLevelName(cfg.Logging.Level),
		logging.WithFormat(cfg.Logging.Format),
	)
	logging.SetDefault(log)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	drafts := state.NewDrafts(store,
		state.WithTTL(cfg.Drafts.TTL),
		state.WithKeyPrefix(cfg.Drafts.KeyPrefix),
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	registry := admin.NewRegistry()
	if cfg.Admin.DemoData {
		n := admin.SeedDemo(registry, time.Now())
		log.Info("seeded demo applications", logging.Int("count", n))
	}

	r := router.New(
		router.WithLogger(log),
		router.WithMetrics(m),
		router.WithWebSocketConfig(&transport.WebSocketConfig{AllowedOrigins: cfg.Server.AllowedOrigins}),
	)
	r.Use(logging.RequestLogger(log))
	r.Use(router.Recovery())
	r.Use(limits.NewConnectionLimiter(cfg.Server.MaxLivePerIP, cfg.Server.MaxLive).Middleware())
	r.Use(router.SecureHeaders(router.DefaultSecureHeadersConfig()))

	app.Register(r, &app.Deps{
		Drafts:   drafts,
		Registry: registry,
		Metrics:  m,
		Uploads: &uploads.UploadConfig{
			Accept:      cfg.Uploads.Accept,
			MaxFileSize: cfg.Uploads.MaxFileSize,
		},
		Dates: i18n.NewFormatter(cfg.App.Locale),
		Submission: []submission.Option{
			submission.WithDelay(cfg.Submission.Delay),
			submission.WithReferencePrefix(cfg.Submission.ReferencePrefix),
		},
	})

	r.Handle("/_live/", http.StripPrefix("/_live/", client.Handler()))
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	checker := health.NewChecker(version)
	checker.AddCriticalCheck("drafts", health.PingCheck(store), 2*time.Second)
	checker.AddCheck("sessions", health.SessionsCheck(r.Sockets().Count, cfg.Server.MaxLive), time.Second)
	r.Handle("/health", checker.Handler())
	r.Handle("/health/live", checker.LivenessHandler())

	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			http.NotFound(w, req)
			return
		}
		http.Redirect(w, req, app.ApplyPath, http.StatusFound)
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	stop := shutdown.NewHandler(&shutdown.Config{
		Timeout: cfg.Server.ShutdownTimeout,
		Logger:  log,
	})
	stop.RegisterFunc("http", shutdown.PriorityHTTP, srv.Shutdown)
	stop.RegisterFunc("live", shutdown.PriorityLive, r.Shutdown)
	stop.RegisterCloser("store", shutdown.PriorityStore, store)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("portal listening",
			logging.String("addr", cfg.Server.Addr),
			logging.String("store", cfg.Store.Driver),
			logging.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var failed error
	go func() {
		if err, ok := <-serveErr; ok {
			failed = err
			cancel()
		}
	}()

	if err := stop.Wait(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if failed != nil {
		return fmt.Errorf("serve: %w", failed)
	}
	log.Info("portal stopped")
	return nil
}

func openStore(cfg *config.Config) (state.Store, error) {
	switch cfg.Store.Driver {
	case "redis":
		store := state.NewRedisStore(state.RedisConfig{
			Addr:     cfg.Store.Redis.Address,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			PoolSize: cfg.Store.Redis.PoolSize,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("connect draft store: %w", err)
		}
		return store, nil
	default:
		return state.NewMemoryStore(0), nil
	}
}
