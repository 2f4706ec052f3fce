// Package main runs wapd, the skill-exchange core's HTTP daemon.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/otitou/wap-backend-go/internal/cache"
	"github.com/otitou/wap-backend-go/internal/completion"
	"github.com/otitou/wap-backend-go/internal/config"
	"github.com/otitou/wap-backend-go/internal/economy"
	"github.com/otitou/wap-backend-go/internal/email"
	"github.com/otitou/wap-backend-go/internal/embedding"
	"github.com/otitou/wap-backend-go/internal/httpapi"
	"github.com/otitou/wap-backend-go/internal/matching"
	"github.com/otitou/wap-backend-go/internal/messaging"
	"github.com/otitou/wap-backend-go/internal/moderation"
	"github.com/otitou/wap-backend-go/internal/portfolio"
	"github.com/otitou/wap-backend-go/internal/reviews"
	"github.com/otitou/wap-backend-go/internal/search"
	"github.com/otitou/wap-backend-go/internal/store"
	"github.com/otitou/wap-backend-go/internal/swaprequest"
	"github.com/otitou/wap-backend-go/internal/vectorindex"
	"github.com/otitou/wap-backend-go/pkg/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

// autoCompleteSweepSpec runs the pending_completion sweep every five
// minutes; 48h deadlines don't need finer granularity.
const autoCompleteSweepSpec = "*/5 * * * *"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	log := logging.New(&logging.Config{Level: "info", TimeFormat: time.TimeOnly})
	logging.SetDefault(log)

	if *showVersion {
		log.Infof("wapd %s (commit: %s)", version, commit)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}
	log = logging.New(&logging.Config{Level: cfg.LogLevel, TimeFormat: time.TimeOnly})
	logging.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(store.Config{DSN: cfg.Store.DSN})
	if err != nil {
		log.Fatal("failed to open store", "error", err)
	}
	defer st.Close()
	log.Info("store opened", "dsn", cfg.Store.DSN)

	idx, err := vectorindex.Open(ctx, vectorindex.Config{
		Addr:       cfg.Vector.Addr,
		APIKey:     cfg.Vector.APIKey,
		Collection: cfg.Vector.Collection,
		Dimension:  uint64(cfg.Vector.Dimension),
	})
	if err != nil {
		log.Fatal("failed to open vector index", "error", err)
	}
	log.Info("vector index opened", "addr", cfg.Vector.Addr, "collection", cfg.Vector.Collection)

	var emb *embedding.Client
	if cfg.Embedding.Enabled() {
		emb, err = embedding.New(embedding.Config{
			Endpoint:       cfg.Embedding.Endpoint,
			APIKey:         cfg.Embedding.APIKey,
			APIVersion:     cfg.Embedding.APIVersion,
			DeploymentName: cfg.Embedding.DeploymentName,
			Dimension:      cfg.Embedding.Dimension,
		})
		if err != nil {
			log.Fatal("failed to build embedding client", "error", err)
		}
		log.Info("embedding client ready", "deployment", cfg.Embedding.DeploymentName)
	} else {
		log.Warn("embedding disabled: missing AZURE_OPENAI_ENDPOINT/AZURE_OPENAI_API_KEY, search and matching will fail")
	}

	c := cache.Open(cache.Config{Addr: cfg.Cache.Addr, Password: cfg.Cache.Password, DB: cfg.Cache.DB})
	log.Info("cache opened", "enabled", c.Enabled())

	notifier := email.New(email.Config{
		Enabled: cfg.Email.Enabled,
		APIKey:  cfg.Email.APIKey,
		From:    cfg.Email.FromAddr,
	}, c)
	log.Info("email notifier ready", "enabled", notifier.Enabled())

	matcher := matching.New(st, idx, emb, c)
	searchSvc := search.New(idx, emb, c)
	econ := economy.New(st)
	swapReqSvc := swaprequest.New(st, econ, notifier)
	completionSvc := completion.New(st, econ, notifier)
	reviewSvc := reviews.New(st, econ)
	portfolioSvc := portfolio.New(st)
	messagingSvc := messaging.New(st, notifier)
	moderationSvc := moderation.New(st)

	if err := completionSvc.StartSweep(autoCompleteSweepSpec); err != nil {
		log.Fatal("failed to start auto-complete sweep", "error", err)
	}
	defer completionSvc.StopSweep(ctx)
	log.Info("auto-complete sweep started", "spec", autoCompleteSweepSpec)

	srv := httpapi.New(httpapi.Deps{
		Store:       st,
		Index:       idx,
		Cache:       c,
		Email:       notifier,
		Matcher:     matcher,
		Search:      searchSvc,
		SwapRequest: swapReqSvc,
		Completion:  completionSvc,
		Economy:     econ,
		Reviews:     reviewSvc,
		Portfolio:   portfolioSvc,
		Messaging:   messagingSvc,
		Moderation:  moderationSvc,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server listening", "addr", cfg.HTTP.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during http shutdown", "error", err)
	}
}
