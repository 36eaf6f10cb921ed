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
	"github.com/spf13/cobra"

	"github.com/aretw0/coldline"
	"github.com/aretw0/coldline/internal/config"
	httpapi "github.com/aretw0/coldline/pkg/adapters/http"
	"github.com/aretw0/coldline/pkg/adapters/livekit"
	"github.com/aretw0/coldline/pkg/adapters/memory"
	"github.com/aretw0/coldline/pkg/adapters/redis"
)

// agentCmd runs a single call job to completion: it dials the prospect,
// walks the conversation flow and exits once the call has ended.
var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run one outbound call job",
	Long: `Places the call described by the job metadata and serves the control
API for the duration of the call. The process exits when the call ends,
whichever side hangs up first.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runAgent(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(agentCmd)

	agentCmd.Flags().String("room", "", "Call session name (the dispatch room)")
	agentCmd.Flags().String("metadata", "", `Job payload, e.g. '{"phone_number": "+15551234567"}'`)
	_ = agentCmd.MarkFlagRequired("room")
	_ = agentCmd.MarkFlagRequired("metadata")
}

func runAgent(cmd *cobra.Command) error {
	logger := newLogger(cmd)

	s, err := loadScript(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("incomplete environment: %w", err)
	}

	opts := []coldline.Option{
		coldline.WithLogger(logger),
		coldline.WithMetrics(prometheus.DefaultRegisterer),
		coldline.WithNoiseCancellation(true),
	}
	if cfg.RedisAddr != "" {
		opts = append(opts, coldline.WithStore(redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)))
	}
	engine, err := coldline.New(s, opts...)
	if err != nil {
		return err
	}

	room, _ := cmd.Flags().GetString("room")
	metadata, _ := cmd.Flags().GetString("metadata")

	bridge := livekit.NewBridge(livekit.Credentials{
		URL:       cfg.LiveKit.URL,
		APIKey:    cfg.LiveKit.APIKey,
		APISecret: cfg.LiveKit.APISecret,
		TrunkID:   cfg.LiveKit.TrunkID,
	}, room, livekit.WithLogger(logger))

	// TODO: swap the echo pipeline for a real-time media pipeline once
	// the realtime voice stack (STT/LLM/TTS over the room's audio
	// tracks) is wired up. Until then utterances are logged and the
	// conversation is driven entirely through the control API.
	speech := memory.NewPipeline()
	speech.OnUtterance = func(u memory.Utterance) {
		logger.Info("utterance", "kind", string(u.Kind), "text", u.Text)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	call, err := engine.StartCall(ctx, room, metadata, bridge, speech)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: httpapi.NewHandler(call, prometheus.DefaultGatherer, httpapi.WithLogger(logger)),
	}
	go func() {
		logger.Info("control api listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("control api failed", "error", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested, ending call")
		call.Terminate(context.WithoutCancel(ctx))
		<-call.Done()
	case <-call.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	rec := call.Snapshot()
	logger.Info("call finished", "session", rec.SessionID, "outcome", string(rec.Outcome))
	return nil
}
