package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/coldline/internal/runtime"
	"github.com/aretw0/coldline/internal/script"
	"github.com/aretw0/coldline/pkg/adapters/memory"
	"github.com/aretw0/coldline/pkg/domain"
)

type fixture struct {
	orch   *runtime.Orchestrator
	bridge *memory.Bridge
	speech *memory.Pipeline
	store  *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := script.Builtin("jack")
	require.NoError(t, err)
	phases, err := s.Compile()
	require.NoError(t, err)

	f := &fixture{
		bridge: memory.NewBridge(),
		speech: memory.NewPipeline(),
		store:  memory.NewStore(),
	}
	f.orch, err = runtime.New(runtime.Config{
		SessionID: "session-1",
		Persona:   s.Persona,
		Target:    "+15551234567",
		Phases:    phases,
		Voicemail: s.Voicemail,
		Telephony: f.bridge,
		Speech:    f.speech,
		Store:     f.store,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.orch.Start(context.Background()))
}

func TestNew_RequiresTarget(t *testing.T) {
	s, err := script.Builtin("jack")
	require.NoError(t, err)
	phases, err := s.Compile()
	require.NoError(t, err)

	_, err = runtime.New(runtime.Config{
		SessionID: "session-1",
		Target:    "   ",
		Phases:    phases,
		Telephony: memory.NewBridge(),
		Speech:    memory.NewPipeline(),
	})
	assert.ErrorIs(t, err, domain.ErrMissingPhoneNumber)
}

func TestStart_DialsAndEntersGreeting(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	assert.Equal(t, []string{"+15551234567"}, f.bridge.Dialed())
	assert.True(t, f.speech.Started())
	assert.Equal(t, domain.PhaseGreeting, f.orch.Phase())
	assert.Equal(t, []domain.PhaseID{domain.PhaseGreeting}, f.speech.Prompts())

	// Entry utterance is generated only after both dial and pipeline
	// attach succeeded.
	utts := f.speech.Utterances()
	require.Len(t, utts, 1)
	assert.Equal(t, memory.UtteranceGenerate, utts[0].Kind)

	rec, err := f.store.Load(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLive, rec.Status)
}

func TestStart_DialFailureFailsSession(t *testing.T) {
	f := newFixture(t)
	f.bridge.DialErr = errors.New("sip 486 busy here")

	err := f.orch.Start(context.Background())
	require.Error(t, err)
	var dialErr *domain.DialError
	assert.ErrorAs(t, err, &dialErr)

	assert.True(t, f.orch.Ended())
	assert.Equal(t, domain.OutcomeFailed, f.orch.Snapshot().Outcome)
	assert.Equal(t, 1, f.bridge.Terminations())
	// No conversation took place.
	assert.Empty(t, f.speech.Prompts())
}

func TestApplyTransition_BeforeStartIsRejected(t *testing.T) {
	f := newFixture(t)
	err := f.orch.ApplyTransition(context.Background(), domain.TransitionProceedToQualification, nil)
	assert.ErrorIs(t, err, runtime.ErrNotLive)
}

// Happy path: greeting through a booked consultation.
func TestCall_ScheduledConsultation(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionProceedToQualification, nil))
	assert.Equal(t, domain.PhaseQualification, f.orch.Phase())

	require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionProspectInterested, map[string]any{
		"travel_dates": "March 3-7",
		"party_size":   4, // classifier may send a number; it is coerced
	}))
	assert.Equal(t, domain.PhaseClosing, f.orch.Phase())

	state := f.orch.State()
	assert.True(t, state.Interested)
	assert.Equal(t, "March 3-7", state.Qualification["travel_dates"])
	assert.Equal(t, "4", state.Qualification["party_size"])

	require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionMeetingScheduled, map[string]any{
		"date": "Tuesday", "time": "2 PM",
	}))

	// The scheduled handoff lands in goodbye, which speaks and ends the
	// call on its own.
	assert.True(t, f.orch.Ended())
	rec := f.orch.Snapshot()
	assert.Equal(t, domain.OutcomeScheduled, rec.Outcome)
	assert.Equal(t, domain.StatusEnded, rec.Status)
	assert.Equal(t, 1, f.bridge.Terminations())

	// The rendered acknowledgement precedes the goodbye generation.
	utts := f.speech.Utterances()
	var ack string
	for _, u := range utts {
		if u.Kind == memory.UtteranceSay {
			ack = u.Text
		}
	}
	assert.Contains(t, ack, "Tuesday")
	assert.Contains(t, ack, "2 PM")
	// Goodbye playout completed before teardown.
	assert.Equal(t, 1, f.speech.Waits())
}

// Answering machine: terminal branch that never reaches goodbye.
func TestCall_AnsweringMachine(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionAnsweringMachine, nil))

	assert.True(t, f.orch.Ended())
	rec := f.orch.Snapshot()
	assert.Equal(t, domain.OutcomeVoicemail, rec.Outcome)
	assert.Equal(t, domain.PhaseGreeting, rec.Phase, "the goodbye phase is bypassed")
	assert.Equal(t, 1, f.bridge.Terminations())

	// The voicemail message was spoken literally and fully played out
	// before termination.
	utts := f.speech.Utterances()
	require.Len(t, utts, 2)
	assert.Equal(t, memory.UtteranceSay, utts[1].Kind)
	assert.Contains(t, utts[1].Text, "Jack")
	assert.Equal(t, 1, f.speech.Waits())
}

// Objection loop: qualification -> objection_handler and back, any
// number of times, each objection appended in order.
func TestCall_ObjectionLoop(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionProceedToQualification, nil))

	objections := []string{"too expensive", "not the right time", "already have plans"}
	for _, obj := range objections {
		require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionProspectObjects, map[string]any{
			"objection": obj,
		}))
		assert.Equal(t, domain.PhaseObjectionHandler, f.orch.Phase())

		require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionObjectionResolved, nil))
		assert.Equal(t, domain.PhaseQualification, f.orch.Phase())
	}

	assert.Equal(t, objections, f.orch.State().Objections)
	assert.False(t, f.orch.Ended())
}

// Declined: prospect_not_interested routes through goodbye with its own
// outcome code.
func TestCall_NotInterested(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionProceedToQualification, nil))
	require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionProspectNotInterested, nil))

	assert.True(t, f.orch.Ended())
	assert.Equal(t, domain.OutcomeDeclined, f.orch.Snapshot().Outcome)
}

// end_call stays distinct from prospect_not_interested.
func TestCall_UserEndsCall(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionEndCall, nil))

	assert.True(t, f.orch.Ended())
	assert.Equal(t, domain.OutcomeEnded, f.orch.Snapshot().Outcome)
}

func TestApplyTransition_UnknownIsRejectedUnchanged(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	// consultation_scheduled belongs to closing, not greeting.
	err := f.orch.ApplyTransition(ctx, domain.TransitionMeetingScheduled, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownTransition)
	assert.Equal(t, domain.PhaseGreeting, f.orch.Phase())

	err = f.orch.ApplyTransition(ctx, domain.TransitionName("made_up"), nil)
	assert.ErrorIs(t, err, domain.ErrUnknownTransition)
	assert.Equal(t, domain.PhaseGreeting, f.orch.Phase())

	// The session remains usable after a rejection.
	require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionProceedToQualification, nil))
	assert.Equal(t, domain.PhaseQualification, f.orch.Phase())
}

func TestApplyTransition_MissingRequiredParams(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionProceedToQualification, nil))

	err := f.orch.ApplyTransition(ctx, domain.TransitionProspectObjects, nil)
	var paramErr *domain.ParamError
	require.ErrorAs(t, err, &paramErr)
	assert.Equal(t, []string{"objection"}, paramErr.Missing)

	// No effect ran and the phase did not move.
	assert.Empty(t, f.orch.State().Objections)
	assert.Equal(t, domain.PhaseQualification, f.orch.Phase())
}

func TestTerminate_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		f.orch.Terminate(ctx)
	}

	assert.Equal(t, 1, f.bridge.Terminations(), "repeated termination collapses to one provider request")
	assert.True(t, f.orch.Ended())

	select {
	case <-f.orch.Done():
	default:
		t.Fatal("done channel should be closed after termination")
	}
}

func TestRemoteHangup_AbandonsSession(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	f.bridge.RemoteHangup()
	select {
	case <-f.orch.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hangup was not observed")
	}

	assert.True(t, f.orch.Ended())
	assert.Equal(t, domain.OutcomeEnded, f.orch.Snapshot().Outcome)

	// Anything in flight lands on the ended session and is refused.
	err := f.orch.ApplyTransition(ctx, domain.TransitionProceedToQualification, nil)
	assert.ErrorIs(t, err, domain.ErrCallEnded)
	assert.Equal(t, 1, f.bridge.Terminations())
}

func TestInterest_SurvivesObjections(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionProceedToQualification, nil))
	require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionProspectInterested, map[string]any{
		"travel_dates": "June", "party_size": "2",
	}))
	require.True(t, f.orch.State().Interested)

	// An objection after interest must not clear the flag.
	require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionEndCall, nil))
	assert.True(t, f.orch.State().Interested)
}

func TestSnapshot_IsIsolatedFromLiveState(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionProceedToQualification, nil))
	snap := f.orch.Snapshot()
	snap.State.RecordObjection("mutated from outside")

	assert.Empty(t, f.orch.State().Objections)
}

func TestRecordPersistedAtPhaseBoundaries(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionProceedToQualification, nil))

	rec, err := f.store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseQualification, rec.Phase)

	require.NoError(t, f.orch.ApplyTransition(ctx, domain.TransitionEndCall, nil))
	rec, err = f.store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, rec.Status)
	assert.False(t, rec.EndedAt.IsZero())
}

func TestLifecycleHooks_Fire(t *testing.T) {
	s, err := script.Builtin("jack")
	require.NoError(t, err)
	phases, err := s.Compile()
	require.NoError(t, err)

	var entered []domain.PhaseID
	var transitions []domain.TransitionName
	var ended int

	orch, err := runtime.New(runtime.Config{
		SessionID: "session-hooks",
		Persona:   s.Persona,
		Target:    "+15551234567",
		Phases:    phases,
		Telephony: memory.NewBridge(),
		Speech:    memory.NewPipeline(),
		Hooks: domain.LifecycleHooks{
			OnPhaseEnter: func(_ context.Context, e *domain.PhaseEvent) {
				entered = append(entered, e.Phase)
			},
			OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
				transitions = append(transitions, e.Name)
			},
			OnCallEnded: func(_ context.Context, e *domain.CallEndedEvent) {
				ended++
				assert.Equal(t, domain.OutcomeEnded, e.Outcome)
			},
		},
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, orch.Start(ctx))
	require.NoError(t, orch.ApplyTransition(ctx, domain.TransitionProceedToQualification, nil))
	require.NoError(t, orch.ApplyTransition(ctx, domain.TransitionEndCall, nil))

	assert.Equal(t, []domain.PhaseID{
		domain.PhaseGreeting, domain.PhaseQualification, domain.PhaseGoodbye,
	}, entered)
	assert.Equal(t, []domain.TransitionName{
		domain.TransitionProceedToQualification, domain.TransitionEndCall,
	}, transitions)
	assert.Equal(t, 1, ended)
}
