package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/coldline/pkg/domain"
)

func TestCallState_InterestIsMonotonic(t *testing.T) {
	state := domain.NewCallState()
	assert.False(t, state.Interested)

	state.MarkInterested(map[string]string{"timeline": "next month"})
	assert.True(t, state.Interested)

	// Later calls with no new facts must not reset the flag.
	state.MarkInterested(nil)
	assert.True(t, state.Interested)
	assert.Equal(t, "next month", state.Qualification["timeline"])
}

func TestCallState_QualificationMerges(t *testing.T) {
	state := domain.NewCallState()
	state.MarkInterested(map[string]string{"party_size": "2"})
	state.MarkInterested(map[string]string{"travel_dates": "March 3-7", "party_size": "4"})

	assert.Equal(t, "4", state.Qualification["party_size"], "later extraction refines the field")
	assert.Equal(t, "March 3-7", state.Qualification["travel_dates"])
}

func TestCallState_MarkInterestedIgnoresBlankValues(t *testing.T) {
	state := domain.NewCallState()
	state.MarkInterested(map[string]string{"party_size": "4"})
	state.MarkInterested(map[string]string{"party_size": ""})

	assert.Equal(t, "4", state.Qualification["party_size"], "blank extraction must not erase a known fact")
}

func TestCallState_ObjectionsAppendInOrder(t *testing.T) {
	state := domain.NewCallState()
	state.RecordObjection("too expensive")
	state.RecordObjection("") // ignored
	state.RecordObjection("bad timing")

	assert.Equal(t, []string{"too expensive", "bad timing"}, state.Objections)
}

func TestCallState_CloneIsDeep(t *testing.T) {
	state := domain.NewCallState()
	state.ContactName = "Dana"
	state.MarkInterested(map[string]string{"goals": "retirement"})
	state.RecordObjection("already have an advisor")

	cp := state.Clone()
	cp.Qualification["goals"] = "college fund"
	cp.Objections[0] = "mutated"
	cp.ContactName = "Eve"

	assert.Equal(t, "retirement", state.Qualification["goals"])
	assert.Equal(t, "already have an advisor", state.Objections[0])
	assert.Equal(t, "Dana", state.ContactName)
}

func TestCallState_CloneNil(t *testing.T) {
	var state *domain.CallState
	assert.Nil(t, state.Clone())
}
