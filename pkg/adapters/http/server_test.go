package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/coldline/internal/runtime"
	"github.com/aretw0/coldline/internal/script"
	httpapi "github.com/aretw0/coldline/pkg/adapters/http"
	"github.com/aretw0/coldline/pkg/adapters/memory"
	"github.com/aretw0/coldline/pkg/domain"
)

func newTestServer(t *testing.T) (*httptest.Server, *runtime.Orchestrator, *memory.Bridge) {
	t.Helper()

	s, err := script.Builtin("jack")
	require.NoError(t, err)
	phases, err := s.Compile()
	require.NoError(t, err)

	bridge := memory.NewBridge()
	orch, err := runtime.New(runtime.Config{
		SessionID: "api-session",
		Persona:   s.Persona,
		Target:    "+15551234567",
		Phases:    phases,
		Voicemail: s.Voicemail,
		Telephony: bridge,
		Speech:    memory.NewPipeline(),
	})
	require.NoError(t, err)
	require.NoError(t, orch.Start(context.Background()))

	srv := httptest.NewServer(httpapi.NewHandler(orch, nil))
	t.Cleanup(srv.Close)
	return srv, orch, bridge
}

func postTransition(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/call/transition", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestControlAPI_Healthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestControlAPI_GetCall(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/call")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestControlAPI_GetTransitions(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/call/transitions")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body httpapi.TransitionsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, domain.PhaseGreeting, body.Phase)
	require.NotEmpty(t, body.Transitions)
	assert.Equal(t, domain.TransitionAnsweringMachine, body.Transitions[0].Name)
}

func TestControlAPI_PostTransition(t *testing.T) {
	srv, orch, _ := newTestServer(t)

	resp := postTransition(t, srv, `{"name": "proceed_to_qualification"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, domain.PhaseQualification, orch.Phase())
}

func TestControlAPI_PostTransition_Errors(t *testing.T) {
	srv, orch, _ := newTestServer(t)

	t.Run("malformed body", func(t *testing.T) {
		resp := postTransition(t, srv, `{`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing name", func(t *testing.T) {
		resp := postTransition(t, srv, `{"params": {}}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown transition", func(t *testing.T) {
		resp := postTransition(t, srv, `{"name": "consultation_scheduled"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, domain.PhaseGreeting, orch.Phase(), "a rejected transition leaves the phase unchanged")
	})

	t.Run("missing required params", func(t *testing.T) {
		require.NoError(t, orch.ApplyTransition(context.Background(), domain.TransitionProceedToQualification, nil))
		resp := postTransition(t, srv, `{"name": "prospect_has_objection"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestControlAPI_Terminate(t *testing.T) {
	srv, orch, bridge := newTestServer(t)

	resp, err := http.Post(srv.URL+"/call/terminate", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.True(t, orch.Ended())
	assert.Equal(t, 1, bridge.Terminations())

	// Transitions after termination conflict.
	tresp := postTransition(t, srv, `{"name": "proceed_to_qualification"}`)
	assert.Equal(t, http.StatusConflict, tresp.StatusCode)
}
