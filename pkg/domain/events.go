package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPhaseEnter EventType = "phase_enter"
	EventPhaseLeave EventType = "phase_leave"
	EventTransition EventType = "transition"
	EventCallEnded  EventType = "call_ended"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// PhaseEvent represents entry into or exit from a phase.
type PhaseEvent struct {
	EventBase
	Phase PhaseID `json:"phase"`
}

// TransitionEvent represents a fired transition.
type TransitionEvent struct {
	EventBase
	Phase  PhaseID           `json:"phase"`
	Name   TransitionName    `json:"name"`
	Params map[string]string `json:"params,omitempty"`
	Next   PhaseID           `json:"next,omitempty"`
}

// CallEndedEvent is emitted exactly once when the session terminates.
type CallEndedEvent struct {
	EventBase
	Outcome  Outcome       `json:"outcome,omitempty"`
	Duration time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for orchestrator observability.
// Nil hooks are skipped. Hooks run synchronously on the session's
// single event path, so they must be cheap.
type LifecycleHooks struct {
	OnPhaseEnter func(context.Context, *PhaseEvent)
	OnPhaseLeave func(context.Context, *PhaseEvent)
	OnTransition func(context.Context, *TransitionEvent)
	OnCallEnded  func(context.Context, *CallEndedEvent)
}
