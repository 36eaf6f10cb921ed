package domain

// PhaseID identifies a stage of the call script.
type PhaseID string

const (
	PhaseGreeting         PhaseID = "greeting"
	PhaseQualification    PhaseID = "qualification"
	PhaseObjectionHandler PhaseID = "objection_handler"
	PhaseClosing          PhaseID = "closing"
	PhaseGoodbye          PhaseID = "goodbye"
)

// Valid reports whether the ID names a known phase.
func (p PhaseID) Valid() bool {
	switch p {
	case PhaseGreeting, PhaseQualification, PhaseObjectionHandler, PhaseClosing, PhaseGoodbye:
		return true
	}
	return false
}

// Phase is a conversational policy bound to one stage of the script.
// It carries no mutable state of its own: only the prompt that governs
// the voice model while the phase is active and the closed set of
// transitions it exposes to the external classifier.
type Phase struct {
	ID PhaseID

	// Prompt is the instruction text installed on the voice pipeline
	// while this phase is active.
	Prompt string

	// Entry, when non-empty, is spoken (generated) when the phase
	// becomes active. An empty Entry means the phase enters silently
	// and waits for the remote party.
	Entry string

	// Transitions is the closed set of outbound transitions, in script
	// order. Order is preserved because it is surfaced verbatim to the
	// classifier as the tool list.
	Transitions []Transition
}

// Transition looks up a transition by name. The bool result follows the
// comma-ok convention; an absent name means the classifier picked a
// transition that does not belong to this phase.
func (p *Phase) Transition(name TransitionName) (*Transition, bool) {
	for i := range p.Transitions {
		if p.Transitions[i].Name == name {
			return &p.Transitions[i], true
		}
	}
	return nil, false
}

// TransitionNames returns the names of the exposed transitions in order.
func (p *Phase) TransitionNames() []TransitionName {
	names := make([]TransitionName, len(p.Transitions))
	for i := range p.Transitions {
		names[i] = p.Transitions[i].Name
	}
	return names
}
