// Package runtime implements the conversation orchestrator: the
// finite-state dialog manager that owns one CallState and one active
// phase per call, applies named transitions selected by the external
// classifier, and coordinates the handoffs with the telephony lifecycle.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/coldline/internal/logging"
	"github.com/aretw0/coldline/pkg/domain"
	"github.com/aretw0/coldline/pkg/ports"
)

// ErrNotLive is returned when a transition arrives before the session
// joined both the dial and the voice pipeline.
var ErrNotLive = errors.New("call session is not live")

// Config wires one call session. Phases and Voicemail come from the
// compiled persona script; Telephony and Speech are bound to the same
// underlying session (room).
type Config struct {
	SessionID string
	Persona   string
	Target    string

	Phases    map[domain.PhaseID]*domain.Phase
	Voicemail string

	Telephony ports.Telephony
	Speech    ports.Speech

	// Store is optional; when set, the call record is persisted at
	// phase boundaries and on termination.
	Store ports.RecordStore

	Hooks  domain.LifecycleHooks
	Logger *slog.Logger

	NoiseCancellation bool
}

// Orchestrator drives a single call session. Exactly one phase is
// active at a time and transition handlers run to completion before the
// next phase's entry action begins; handlerMu enforces that ordering.
// No state here is shared across calls.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger

	handlerMu sync.Mutex // serializes transitions and phase entries

	recMu  sync.RWMutex // guards record/state/active for snapshots
	record *domain.CallRecord
	active *domain.Phase

	live     atomic.Bool
	ended    atomic.Bool
	termOnce sync.Once
	done     chan struct{}
}

// New validates the wiring and prepares a session bound to a fresh
// CallState and the Greeting phase. Nothing is dialed until Start.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.SessionID == "" {
		return nil, errors.New("runtime: session ID is required")
	}
	if strings.TrimSpace(cfg.Target) == "" {
		return nil, domain.ErrMissingPhoneNumber
	}
	if cfg.Telephony == nil || cfg.Speech == nil {
		return nil, errors.New("runtime: telephony and speech ports are required")
	}
	for _, id := range []domain.PhaseID{
		domain.PhaseGreeting, domain.PhaseQualification,
		domain.PhaseObjectionHandler, domain.PhaseClosing, domain.PhaseGoodbye,
	} {
		if cfg.Phases[id] == nil {
			return nil, fmt.Errorf("runtime: phase table is missing %q", id)
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	return &Orchestrator{
		cfg:    cfg,
		logger: cfg.Logger.With("session_id", cfg.SessionID, "persona", cfg.Persona),
		record: domain.NewCallRecord(cfg.SessionID, cfg.Persona, cfg.Target),
		active: cfg.Phases[domain.PhaseGreeting],
		done:   make(chan struct{}),
	}, nil
}

// Start begins the session. The voice pipeline attach and the outbound
// dial proceed concurrently; both must succeed before the call is
// considered live and Greeting's entry utterance is generated, so the
// remote party never hears the agent before picking up.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.persist(ctx)

	o.logger.Info("starting outbound call", "target", o.cfg.Target)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return o.cfg.Speech.Start(gctx)
	})
	g.Go(func() error {
		return o.cfg.Telephony.Dial(gctx, o.cfg.Target, ports.DialOptions{
			Identity:          o.cfg.Target,
			NoiseCancellation: o.cfg.NoiseCancellation,
		})
	})
	if err := g.Wait(); err != nil {
		o.failSession(ctx, err)
		return err
	}

	if err := o.cfg.Telephony.AwaitParticipant(ctx, o.cfg.Target); err != nil {
		o.failSession(ctx, err)
		return fmt.Errorf("waiting for participant: %w", err)
	}
	o.logger.Info("participant answered", "identity", o.cfg.Target)

	go o.watchHangup(ctx)

	o.live.Store(true)
	o.recMu.Lock()
	o.record.Status = domain.StatusLive
	o.recMu.Unlock()
	o.persist(ctx)

	o.handlerMu.Lock()
	defer o.handlerMu.Unlock()
	return o.enterPhase(ctx, domain.PhaseGreeting)
}

// ApplyTransition fires a named transition on the active phase with the
// raw parameters extracted by the classifier. The acknowledgement, the
// CallState effect and the phase handoff form one atomic result: on any
// failure before the handoff commits, the active phase is unchanged.
// Already-applied CallState mutations are not rolled back; effects are
// single assignments or appends, so partial application is safe.
func (o *Orchestrator) ApplyTransition(ctx context.Context, name domain.TransitionName, raw map[string]any) error {
	o.handlerMu.Lock()
	defer o.handlerMu.Unlock()

	if o.ended.Load() {
		return domain.ErrCallEnded
	}
	if !o.live.Load() {
		return ErrNotLive
	}

	o.recMu.RLock()
	active := o.active
	o.recMu.RUnlock()

	t, ok := active.Transition(name)
	if !ok {
		return fmt.Errorf("%w: %q is not exposed by phase %q", domain.ErrUnknownTransition, name, active.ID)
	}

	params, err := decodeParams(t, raw)
	if err != nil {
		return err
	}

	ack, err := renderAck(t, params)
	if err != nil {
		return fmt.Errorf("rendering acknowledgement for %q: %w", t.Name, err)
	}

	// The remote party may have hung up while the classifier was
	// deciding; apply no further mutations in that case.
	if o.ended.Load() {
		return domain.ErrCallEnded
	}

	o.applyEffect(t, params)
	o.logger.Info("transition fired", "phase", active.ID, "transition", t.Name)
	o.emitTransition(ctx, active.ID, t, params)

	if t.Terminal {
		return o.finishTerminal(ctx, t)
	}

	// Speak the acknowledgement before the handoff takes effect so the
	// user never receives two overlapping utterances.
	if ack != "" {
		if err := o.cfg.Speech.Say(ctx, ack); err != nil {
			return fmt.Errorf("speaking acknowledgement: %w", err)
		}
	}

	o.emitPhase(ctx, domain.EventPhaseLeave, active.ID)
	if t.Outcome != "" {
		o.recMu.Lock()
		o.record.Outcome = t.Outcome
		o.recMu.Unlock()
	}

	err = o.enterPhase(ctx, t.Next)
	o.persist(ctx)
	return err
}

// Terminate ends the call session. Idempotent: N calls produce exactly
// one underlying telephony termination request. A termination failure
// is logged and swallowed; the call is already conceptually over.
func (o *Orchestrator) Terminate(ctx context.Context) {
	o.termOnce.Do(func() {
		o.ended.Store(true)

		if err := o.cfg.Telephony.Terminate(ctx); err != nil {
			o.logger.Warn("telephony termination failed", "err", err)
		}

		o.recMu.Lock()
		o.record.Status = domain.StatusEnded
		o.record.EndedAt = time.Now().UTC()
		if o.record.Outcome == "" {
			o.record.Outcome = domain.OutcomeEnded
		}
		outcome := o.record.Outcome
		duration := o.record.EndedAt.Sub(o.record.StartedAt)
		o.recMu.Unlock()

		o.logger.Info("call ended", "outcome", outcome, "duration", duration)
		if o.cfg.Hooks.OnCallEnded != nil {
			o.cfg.Hooks.OnCallEnded(ctx, &domain.CallEndedEvent{
				EventBase: o.eventBase(domain.EventCallEnded),
				Outcome:   outcome,
				Duration:  duration,
			})
		}
		o.persist(ctx)
		close(o.done)
	})
}

// Done returns a channel closed when the session has terminated.
func (o *Orchestrator) Done() <-chan struct{} { return o.done }

// Phase returns the currently active phase ID.
func (o *Orchestrator) Phase() domain.PhaseID {
	o.recMu.RLock()
	defer o.recMu.RUnlock()
	return o.active.ID
}

// Transitions returns the active phase's exposed transition set, in
// script order, for advertisement to the classifier.
func (o *Orchestrator) Transitions() []domain.Transition {
	o.recMu.RLock()
	defer o.recMu.RUnlock()
	return append([]domain.Transition(nil), o.active.Transitions...)
}

// State returns a copy of the call state.
func (o *Orchestrator) State() *domain.CallState {
	o.recMu.RLock()
	defer o.recMu.RUnlock()
	return o.record.State.Clone()
}

// Snapshot returns a copy of the full call record.
func (o *Orchestrator) Snapshot() *domain.CallRecord {
	o.recMu.RLock()
	defer o.recMu.RUnlock()
	return o.record.Clone()
}

// Ended reports whether the session has terminated.
func (o *Orchestrator) Ended() bool { return o.ended.Load() }

// enterPhase activates a phase and runs its entry action. Callers must
// hold handlerMu.
func (o *Orchestrator) enterPhase(ctx context.Context, id domain.PhaseID) error {
	ph := o.cfg.Phases[id]

	o.recMu.Lock()
	o.active = ph
	o.record.Phase = id
	o.recMu.Unlock()

	o.logger.Info("phase entered", "phase", id)
	o.emitPhase(ctx, domain.EventPhaseEnter, id)

	if id == domain.PhaseGoodbye {
		return o.goodbye(ctx, ph)
	}

	if err := o.cfg.Speech.SetPrompt(ctx, id, ph.Prompt, ph.Transitions); err != nil {
		return fmt.Errorf("installing prompt for %q: %w", id, err)
	}
	if ph.Entry != "" {
		if err := o.cfg.Speech.Generate(ctx, ph.Entry); err != nil {
			return fmt.Errorf("entry action for %q: %w", id, err)
		}
	}
	return nil
}

// goodbye speaks the closing line based on the full call state, waits
// for playout to finish, then terminates. Tearing down telephony while
// audio is still queued would truncate the message.
func (o *Orchestrator) goodbye(ctx context.Context, ph *domain.Phase) error {
	o.recMu.RLock()
	instructions := goodbyeInstructions(ph, o.record)
	o.recMu.RUnlock()

	if err := o.cfg.Speech.SetPrompt(ctx, domain.PhaseGoodbye, ph.Prompt, nil); err != nil {
		o.logger.Warn("failed to install goodbye prompt", "err", err)
	}
	if err := o.cfg.Speech.Generate(ctx, instructions); err != nil {
		o.logger.Warn("failed to generate goodbye", "err", err)
	} else if err := o.cfg.Speech.WaitForPlayout(ctx); err != nil {
		o.logger.Warn("goodbye playout interrupted", "err", err)
	}

	o.Terminate(ctx)
	return nil
}

// finishTerminal handles transitions that end the call without passing
// through Goodbye (the answering-machine branch). Termination is a
// guaranteed side effect of this path.
func (o *Orchestrator) finishTerminal(ctx context.Context, t *domain.Transition) error {
	if t.Name == domain.TransitionAnsweringMachine && o.cfg.Voicemail != "" {
		if err := o.cfg.Speech.Say(ctx, o.cfg.Voicemail); err != nil {
			o.logger.Warn("failed to queue voicemail message", "err", err)
		} else if err := o.cfg.Speech.WaitForPlayout(ctx); err != nil {
			o.logger.Warn("voicemail playout interrupted", "err", err)
		}
	}

	if t.Outcome != "" {
		o.recMu.Lock()
		o.record.Outcome = t.Outcome
		o.recMu.Unlock()
	}

	o.Terminate(ctx)
	return nil
}

func (o *Orchestrator) applyEffect(t *domain.Transition, params map[string]string) {
	if t.Effect == domain.EffectNone {
		return
	}
	o.recMu.Lock()
	defer o.recMu.Unlock()
	switch t.Effect {
	case domain.EffectMarkInterested:
		o.record.State.MarkInterested(params)
	case domain.EffectRecordObjection:
		o.record.State.RecordObjection(params["objection"])
	}
}

// failSession tears down a session whose dial or pipeline attach never
// completed. No conversation occurred.
func (o *Orchestrator) failSession(ctx context.Context, cause error) {
	o.logger.Error("session start failed", "err", cause)
	o.recMu.Lock()
	o.record.Outcome = domain.OutcomeFailed
	o.recMu.Unlock()
	o.Terminate(ctx)
}

// watchHangup abandons the session when the remote party drops the
// call. In-flight work observes the ended flag and applies no further
// CallState mutations.
func (o *Orchestrator) watchHangup(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-o.cfg.Telephony.Hangup():
		if o.ended.Load() {
			return
		}
		o.logger.Info("remote party hung up")
		// The session context may already be unwinding; termination
		// still has to reach the provider.
		o.Terminate(context.WithoutCancel(ctx))
	}
}

func (o *Orchestrator) persist(ctx context.Context) {
	if o.cfg.Store == nil {
		return
	}
	if err := o.cfg.Store.Save(ctx, o.cfg.SessionID, o.Snapshot()); err != nil {
		o.logger.Warn("failed to persist call record", "err", err)
	}
}

func (o *Orchestrator) eventBase(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now().UTC(), Type: t, SessionID: o.cfg.SessionID}
}

func (o *Orchestrator) emitPhase(ctx context.Context, t domain.EventType, id domain.PhaseID) {
	var fn func(context.Context, *domain.PhaseEvent)
	switch t {
	case domain.EventPhaseEnter:
		fn = o.cfg.Hooks.OnPhaseEnter
	case domain.EventPhaseLeave:
		fn = o.cfg.Hooks.OnPhaseLeave
	}
	if fn != nil {
		fn(ctx, &domain.PhaseEvent{EventBase: o.eventBase(t), Phase: id})
	}
}

func (o *Orchestrator) emitTransition(ctx context.Context, from domain.PhaseID, t *domain.Transition, params map[string]string) {
	if o.cfg.Hooks.OnTransition == nil {
		return
	}
	o.cfg.Hooks.OnTransition(ctx, &domain.TransitionEvent{
		EventBase: o.eventBase(domain.EventTransition),
		Phase:     from,
		Name:      t.Name,
		Params:    params,
		Next:      t.Next,
	})
}

// goodbyeInstructions folds the accumulated call state into the goodbye
// entry instruction so the closing line reflects the call's outcome.
func goodbyeInstructions(ph *domain.Phase, rec *domain.CallRecord) string {
	var sb strings.Builder
	sb.WriteString(ph.Entry)

	state := rec.State
	facts := make([]string, 0, 4)
	if state.ContactName != "" {
		facts = append(facts, "the contact's name is "+state.ContactName)
	}
	switch {
	case rec.Outcome == domain.OutcomeScheduled:
		facts = append(facts, "a consultation was scheduled; confirm it")
	case state.Interested:
		facts = append(facts, "the prospect showed interest but nothing was booked")
	case rec.Outcome == domain.OutcomeDeclined:
		facts = append(facts, "the prospect was not interested; keep it brief and gracious")
	}
	if n := len(state.Objections); n > 0 {
		facts = append(facts, fmt.Sprintf("%d objection(s) were raised", n))
	}

	if len(facts) > 0 {
		sb.WriteString(" Context: ")
		sb.WriteString(strings.Join(facts, "; "))
		sb.WriteString(".")
	}
	return sb.String()
}
