package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/alexswiontek/dungeon-crawler/internal/config"
	"github.com/alexswiontek/dungeon-crawler/internal/logging"
	"github.com/alexswiontek/dungeon-crawler/internal/session"
	"github.com/alexswiontek/dungeon-crawler/internal/store"
	"github.com/alexswiontek/dungeon-crawler/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	checkpointStore, err := newStore(cfg, log)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	sessions := session.NewManager(checkpointStore, cfg.IdleTimeout, log)
	defer sessions.Stop()

	handler := transport.NewHandler(sessions, checkpointStore, cfg, log)

	mux := http.NewServeMux()
	mux.Handle("/ws", handler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("env", string(cfg.Env)))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen and serve failed", zap.Error(err))
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdownCh
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sessions.DrainAll(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}

func newStore(cfg config.Config, log *zap.Logger) (store.CheckpointStore, error) {
	if cfg.Env == config.EnvTest || cfg.MongoURI == "" {
		log.Warn("using in-memory checkpoint store; runs will not survive a restart")
		return store.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return store.NewMongoStore(ctx, cfg.MongoURI)
}
