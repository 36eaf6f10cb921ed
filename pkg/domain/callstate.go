package domain

// CallState is the per-call record of facts learned during the
// conversation. One instance exists per call, owned by the orchestrator
// and mutated only inside transition effects.
type CallState struct {
	ContactName string `json:"contact_name,omitempty"`

	// Interested is monotonic: once set true it stays true for the
	// remainder of the call. Use MarkInterested, never assign directly.
	Interested bool `json:"interested"`

	// Qualification is a flat string record whose keys come from the
	// persona script's qualification field schema.
	Qualification map[string]string `json:"qualification,omitempty"`

	// Objections is an append-only log of objections raised by the
	// prospect, in the order they were raised.
	Objections []string `json:"objections,omitempty"`
}

// NewCallState returns an empty state for a fresh call session.
func NewCallState() *CallState {
	return &CallState{
		Qualification: make(map[string]string),
	}
}

// MarkInterested flags the prospect as interested and merges the
// qualification fields extracted from the conversation. Repeated calls
// only ever add information; Interested is never reset.
func (s *CallState) MarkInterested(fields map[string]string) {
	s.Interested = true
	if s.Qualification == nil {
		s.Qualification = make(map[string]string, len(fields))
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		s.Qualification[k] = v
	}
}

// RecordObjection appends an objection to the log. Empty strings are
// ignored so a sloppy extraction cannot pollute the record.
func (s *CallState) RecordObjection(text string) {
	if text == "" {
		return
	}
	s.Objections = append(s.Objections, text)
}

// Clone returns a deep copy, used by stores and snapshots so callers
// cannot mutate orchestrator-owned state through a shared pointer.
func (s *CallState) Clone() *CallState {
	if s == nil {
		return nil
	}
	cp := &CallState{
		ContactName: s.ContactName,
		Interested:  s.Interested,
	}
	if s.Qualification != nil {
		cp.Qualification = make(map[string]string, len(s.Qualification))
		for k, v := range s.Qualification {
			cp.Qualification[k] = v
		}
	}
	if s.Objections != nil {
		cp.Objections = append([]string(nil), s.Objections...)
	}
	return cp
}
