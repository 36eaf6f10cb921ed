package domain

import "time"

// CallStatus tracks the telephony lifecycle of a session.
type CallStatus string

const (
	StatusDialing CallStatus = "dialing"
	StatusLive    CallStatus = "live"
	StatusEnded   CallStatus = "ended"
)

// Outcome classifies how a call ended.
type Outcome string

const (
	// OutcomeScheduled: a consultation was booked in Closing.
	OutcomeScheduled Outcome = "scheduled"
	// OutcomeDeclined: the prospect explicitly said they are not
	// interested. Kept distinct from OutcomeEnded even though both
	// route to Goodbye today.
	OutcomeDeclined Outcome = "declined"
	// OutcomeEnded: the call wound down without a booking (user asked
	// to end, or the script ran out of road).
	OutcomeEnded Outcome = "ended"
	// OutcomeVoicemail: an answering machine picked up.
	OutcomeVoicemail Outcome = "voicemail"
	// OutcomeFailed: the dial never connected or the session died
	// before the conversation finished.
	OutcomeFailed Outcome = "failed"
)

// CallRecord is the persistence envelope for one call session. It is
// written to the record store at phase boundaries so the dispatch layer
// can inspect progress and outcomes without touching the live session.
type CallRecord struct {
	SessionID string     `json:"session_id"`
	Persona   string     `json:"persona"`
	Target    string     `json:"target"`
	Phase     PhaseID    `json:"phase"`
	Status    CallStatus `json:"status"`
	Outcome   Outcome    `json:"outcome,omitempty"`
	State     *CallState `json:"state"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   time.Time  `json:"ended_at,omitzero"`
}

// NewCallRecord initializes a record for a session about to dial.
func NewCallRecord(sessionID, persona, target string) *CallRecord {
	return &CallRecord{
		SessionID: sessionID,
		Persona:   persona,
		Target:    target,
		Phase:     PhaseGreeting,
		Status:    StatusDialing,
		State:     NewCallState(),
		StartedAt: time.Now().UTC(),
	}
}

// Clone returns a deep copy of the record.
func (r *CallRecord) Clone() *CallRecord {
	if r == nil {
		return nil
	}
	cp := *r
	cp.State = r.State.Clone()
	return &cp
}
