package domain

// TransitionName identifies a named handoff action exposed by a phase.
type TransitionName string

const (
	TransitionAnsweringMachine       TransitionName = "detected_answering_machine"
	TransitionProceedToQualification TransitionName = "proceed_to_qualification"
	TransitionProspectInterested     TransitionName = "prospect_is_interested"
	TransitionProspectObjects        TransitionName = "prospect_has_objection"
	TransitionProspectNotInterested  TransitionName = "prospect_not_interested"
	TransitionObjectionResolved      TransitionName = "objection_resolved"
	TransitionMeetingScheduled       TransitionName = "consultation_scheduled"
	TransitionEndCall                TransitionName = "end_call"
)

// Effect selects the CallState mutation applied when a transition fires.
// Effects are single-field assignments or log appends, so a handler that
// fails after its effect ran leaves the state safe without rollback.
type Effect string

const (
	EffectNone Effect = ""

	// EffectMarkInterested sets Interested=true and merges the decoded
	// qualification fields into CallState.Qualification.
	EffectMarkInterested Effect = "mark_interested"

	// EffectRecordObjection appends the "objection" parameter to
	// CallState.Objections.
	EffectRecordObjection Effect = "record_objection"
)

// Param describes one parameter the classifier must extract from the
// live conversation before invoking a transition.
type Param struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// Transition is a named, parameterized handoff action. Firing one
// applies its effect to CallState, speaks the acknowledgement, and
// activates the next phase as a single atomic result, so the remote
// party never hears overlapping utterances.
type Transition struct {
	Name TransitionName `json:"name"`

	// Description is surfaced to the external classifier as tool help.
	Description string `json:"description,omitempty"`

	// Params is the typed parameter schema. Raw classifier arguments
	// are decoded and validated against it before the effect runs.
	Params []Param `json:"params,omitempty"`

	Effect Effect `json:"effect,omitempty"`

	// Ack is a text/template body spoken before the handoff takes
	// effect. Templates may reference params, e.g. {{.date}}.
	Ack string `json:"ack,omitempty"`

	// Next is the phase activated after the acknowledgement. Empty for
	// terminal transitions.
	Next PhaseID `json:"next,omitempty"`

	// Terminal marks a transition that ends the call without passing
	// through Goodbye (the answering-machine branch). The orchestrator
	// still guarantees telephony termination on this path.
	Terminal bool `json:"terminal,omitempty"`

	// Outcome, when non-empty, is recorded on the call record when this
	// transition puts the call on an ending path.
	Outcome Outcome `json:"outcome,omitempty"`
}
