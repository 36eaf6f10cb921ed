package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/aretw0/coldline/internal/config"
	httpapi "github.com/aretw0/coldline/pkg/adapters/http"
	"github.com/aretw0/coldline/pkg/adapters/memory"
	"github.com/aretw0/coldline/pkg/adapters/redis"
	"github.com/aretw0/coldline/pkg/session"
)

// serveCmd runs the standalone record API: browse and clean up
// persisted call records independently of any live call.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the call record API",
	Long: `Serves read access to persisted call records (session list, record
lookup, deletion). Point it at the same Redis instance the agent
workers write to; without REDIS_ADDR it serves an empty in-memory store.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command) error {
	logger := newLogger(cmd)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var manager *session.Manager
	if cfg.RedisAddr != "" {
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		manager = session.NewManager(redis.NewFromClient(client),
			session.WithLogger(logger),
			session.WithLocker(redis.NewLocker(client, "coldline:")),
		)
		logger.Info("record store backed by redis", "addr", cfg.RedisAddr)
	} else {
		logger.Warn("REDIS_ADDR not set, serving an empty in-memory store")
		manager = session.NewManager(memory.NewStore(), session.WithLogger(logger))
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: httpapi.NewRecordsHandler(manager, prometheus.DefaultGatherer, logger),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("record api listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
