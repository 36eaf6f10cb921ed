package coldline_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/coldline"
	"github.com/aretw0/coldline/internal/script"
	"github.com/aretw0/coldline/pkg/adapters/memory"
	"github.com/aretw0/coldline/pkg/domain"
)

func newEngine(t *testing.T, opts ...coldline.Option) *coldline.Engine {
	t.Helper()
	s, err := script.Builtin("jack")
	require.NoError(t, err)
	engine, err := coldline.New(s, opts...)
	require.NoError(t, err)
	return engine
}

func TestStartCall_RejectsBadMetadata(t *testing.T) {
	engine := newEngine(t)
	bridge := memory.NewBridge()

	_, err := engine.StartCall(context.Background(), "s1", `{}`, bridge, memory.NewPipeline())
	assert.ErrorIs(t, err, domain.ErrMissingPhoneNumber)
	assert.Empty(t, bridge.Dialed(), "no dial may happen without a phone number")
}

func TestStartCall_DialsParsedNumber(t *testing.T) {
	store := memory.NewStore()
	engine := newEngine(t, coldline.WithStore(store))
	bridge := memory.NewBridge()

	call, err := engine.StartCall(context.Background(),
		"s1", `{"phone_number": "+15557654321"}`, bridge, memory.NewPipeline())
	require.NoError(t, err)

	assert.Equal(t, []string{"+15557654321"}, bridge.Dialed())
	assert.Equal(t, domain.PhaseGreeting, call.Phase())

	rec, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "jack", rec.Persona)
	assert.Equal(t, domain.StatusLive, rec.Status)
}

func TestStartCall_MetricsCountOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	engine := newEngine(t, coldline.WithMetrics(reg))

	call, err := engine.StartCall(context.Background(),
		"s1", `{"phone_number": "+15557654321"}`, memory.NewBridge(), memory.NewPipeline())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, call.ApplyTransition(ctx, domain.TransitionAnsweringMachine, nil))
	require.True(t, call.Ended())

	started, err := testutil.GatherAndCount(reg, "coldline_calls_started_total")
	require.NoError(t, err)
	assert.Equal(t, 1, started)

	families, err := reg.Gather()
	require.NoError(t, err)
	var sawVoicemail bool
	for _, mf := range families {
		if mf.GetName() != "coldline_calls_ended_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == "voicemail" {
					sawVoicemail = true
					assert.Equal(t, float64(1), m.GetCounter().GetValue())
				}
			}
		}
	}
	assert.True(t, sawVoicemail, "ended counter carries the outcome label")
}

func TestCall_FullConversationThroughFacade(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	call, err := engine.StartCall(ctx, "s1", `{"phone_number": "+15557654321"}`,
		memory.NewBridge(), memory.NewPipeline())
	require.NoError(t, err)

	require.NoError(t, call.ApplyTransition(ctx, domain.TransitionProceedToQualification, nil))
	require.NoError(t, call.ApplyTransition(ctx, domain.TransitionProspectInterested, map[string]any{
		"travel_dates": "July 10-14", "party_size": "2",
	}))
	require.NoError(t, call.ApplyTransition(ctx, domain.TransitionMeetingScheduled, map[string]any{
		"date": "Friday", "time": "10 AM",
	}))

	<-call.Done()
	assert.Equal(t, domain.OutcomeScheduled, call.Snapshot().Outcome)
}
