// Package coldline is the high-level entry point for the coldline
// engine. It loads a persona script, wires the telephony and speech
// ports, and runs outbound call sessions.
package coldline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/coldline/internal/logging"
	"github.com/aretw0/coldline/internal/metrics"
	"github.com/aretw0/coldline/internal/runtime"
	"github.com/aretw0/coldline/internal/script"
	"github.com/aretw0/coldline/pkg/domain"
	"github.com/aretw0/coldline/pkg/ports"
)

// Engine binds a compiled persona script to the ports needed to run
// call sessions. One Engine can run many sessions over its lifetime;
// each session gets its own CallState, phase chain and telephony
// bridge.
type Engine struct {
	script  *script.Script
	phases  map[domain.PhaseID]*domain.Phase
	store   ports.RecordStore
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	metrics *metrics.Metrics
	noise   bool
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithStore enables call record persistence.
func WithStore(store ports.RecordStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithMetrics registers Prometheus collectors on the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.metrics = metrics.New(reg)
	}
}

// WithNoiseCancellation requests telephony-grade noise suppression on
// dialed calls.
func WithNoiseCancellation(enabled bool) Option {
	return func(e *Engine) {
		e.noise = enabled
	}
}

// New compiles the script and configures an engine.
func New(s *script.Script, opts ...Option) (*Engine, error) {
	phases, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("failed to compile script: %w", err)
	}

	e := &Engine{
		script: s,
		phases: phases,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Script returns the engine's persona script.
func (e *Engine) Script() *script.Script {
	return e.script
}

// Call is one live call session driven by the engine.
type Call struct {
	orch *runtime.Orchestrator
}

// StartCall parses the job metadata, binds a session to the given
// telephony and speech ports, and starts it: the voice pipeline attach
// and the dial run concurrently and are joined before the call is
// considered live. Metadata without a phone number fails before any
// dial attempt.
func (e *Engine) StartCall(ctx context.Context, sessionID, metadata string, telephony ports.Telephony, speech ports.Speech) (*Call, error) {
	md, err := domain.ParseJobMetadata(metadata)
	if err != nil {
		return nil, err
	}

	hooks := e.hooks
	if e.metrics != nil {
		hooks = mergeHooks(hooks, e.metrics.Hooks())
	}

	orch, err := runtime.New(runtime.Config{
		SessionID:         sessionID,
		Persona:           e.script.Persona,
		Target:            md.PhoneNumber,
		Phases:            e.phases,
		Voicemail:         e.script.Voicemail,
		Telephony:         telephony,
		Speech:            speech,
		Store:             e.store,
		Hooks:             hooks,
		Logger:            e.logger,
		NoiseCancellation: e.noise,
	})
	if err != nil {
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.CallsStarted.Inc()
	}
	if err := orch.Start(ctx); err != nil {
		if e.metrics != nil {
			e.metrics.DialFailures.Inc()
		}
		return nil, err
	}
	return &Call{orch: orch}, nil
}

// Phase returns the currently active phase.
func (c *Call) Phase() domain.PhaseID { return c.orch.Phase() }

// Transitions returns the active phase's exposed transition set.
func (c *Call) Transitions() []domain.Transition { return c.orch.Transitions() }

// State returns a copy of the call state.
func (c *Call) State() *domain.CallState { return c.orch.State() }

// Snapshot returns a copy of the full call record.
func (c *Call) Snapshot() *domain.CallRecord { return c.orch.Snapshot() }

// Ended reports whether the session has terminated.
func (c *Call) Ended() bool { return c.orch.Ended() }

// Done returns a channel closed when the session has terminated.
func (c *Call) Done() <-chan struct{} { return c.orch.Done() }

// ApplyTransition fires a named transition with raw classifier params.
func (c *Call) ApplyTransition(ctx context.Context, name domain.TransitionName, params map[string]any) error {
	return c.orch.ApplyTransition(ctx, name, params)
}

// Terminate ends the call session. Idempotent.
func (c *Call) Terminate(ctx context.Context) {
	c.orch.Terminate(ctx)
}

// mergeHooks chains two hook sets; both run, a first then b.
func mergeHooks(a, b domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseEnter: chain(a.OnPhaseEnter, b.OnPhaseEnter),
		OnPhaseLeave: chain(a.OnPhaseLeave, b.OnPhaseLeave),
		OnTransition: chain(a.OnTransition, b.OnTransition),
		OnCallEnded:  chain(a.OnCallEnded, b.OnCallEnded),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, ev T) {
		a(ctx, ev)
		b(ctx, ev)
	}
}
