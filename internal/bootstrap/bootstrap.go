// Package bootstrap assembles the service: configuration, logging, cache
// store, LLM segmenter, orchestrator and HTTP server, with graceful shutdown.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mengzhisuoliu/easyVoice/internal/domain/audio"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/cache"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/eventbus"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/generate"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/llm"
	platformconfig "github.com/mengzhisuoliu/easyVoice/internal/platform/config"
	platformerrors "github.com/mengzhisuoliu/easyVoice/internal/platform/errors"
	"github.com/mengzhisuoliu/easyVoice/internal/platform/logging"
	transporthttp "github.com/mengzhisuoliu/easyVoice/internal/transport/http"
)

// Run starts the whole service lifecycle and blocks until shutdown.
func Run(ctx context.Context, configPath string) error {
	const op = "bootstrap"

	result, err := platformconfig.NewLoader(configPath).Load()
	if err != nil {
		return err
	}
	cfg := result.Config

	logger, err := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: cfg.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, op, "init logging", err)
	}
	defer logger.Close()

	if result.Path != "" {
		logger.InfoTag("Bootstrap", "loaded configuration from %s", result.Path)
	} else {
		logger.InfoTag("Bootstrap", "no config file found, using defaults and environment")
	}

	store, err := cache.New(cfg.Cache)
	if err != nil {
		return err
	}
	defer store.Close()

	var segmenter generate.Segmenter
	if cfg.LLM.APIKey != "" {
		segmenter = llm.NewSegmenter(cfg.LLM, logger)
	} else {
		logger.WarnTag("Bootstrap", "no LLM api key configured, useLLM requests fall back to plain splitting")
	}

	bus := eventbus.New()
	tracker, err := transporthttp.NewProgressTracker(bus)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, op, "init progress tracker", err)
	}

	service := generate.NewService(cfg.TTS, generate.Deps{
		Store:     store,
		Concat:    audio.NewFFmpeg("", logger),
		Segmenter: segmenter,
		Bus:       bus,
		Logger:    logger,
	})

	router := transporthttp.NewRouter(cfg, transporthttp.RouterDeps{
		Generator: service,
		Tracker:   tracker,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.IP, cfg.Server.Port),
		Handler: router,
	}

	rootCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	group.Go(func() error {
		logger.InfoTag("Bootstrap", "listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return platformerrors.Wrap(platformerrors.KindBootstrap, op, "http server", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.InfoTag("Bootstrap", "shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
