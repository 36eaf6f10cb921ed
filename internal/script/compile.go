package script

import (
	"fmt"
	"strings"

	"github.com/aretw0/coldline/pkg/domain"
)

// defaultAcks are the built-in acknowledgement templates, used when a
// script does not override them.
var defaultAcks = map[domain.TransitionName]string{
	domain.TransitionProceedToQualification: "Great!",
	domain.TransitionProspectInterested:     "That sounds wonderful!",
	domain.TransitionProspectObjects:        "I understand.",
	domain.TransitionProspectNotInterested:  "I appreciate your time.",
	domain.TransitionObjectionResolved:      "Does that make sense?",
	domain.TransitionMeetingScheduled:       "Perfect, I've booked that consultation for {{.date}} at {{.time}}.",
	domain.TransitionEndCall:                "Of course. Thanks for your time.",
}

// Compile materializes the fixed phase state machine with this script's
// strings plugged in. The machine shape never varies per persona:
//
//	greeting → {qualification, goodbye, terminal voicemail}
//	qualification ↔ objection_handler
//	qualification → {closing, goodbye}
//	closing → goodbye; goodbye is terminal.
func (s *Script) Compile() (map[domain.PhaseID]*domain.Phase, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	qualParams := make([]domain.Param, len(s.Qualification))
	qualNames := make([]string, len(s.Qualification))
	for i, f := range s.Qualification {
		qualParams[i] = domain.Param{
			Name:        f.Name,
			Description: f.Description,
			Required:    f.Required,
		}
		qualNames[i] = f.Name
	}

	phases := map[domain.PhaseID]*domain.Phase{
		domain.PhaseGreeting: {
			ID:     domain.PhaseGreeting,
			Prompt: s.Phases[domain.PhaseGreeting].Prompt,
			Entry:  s.Phases[domain.PhaseGreeting].Entry,
			Transitions: []domain.Transition{
				{
					Name:        domain.TransitionAnsweringMachine,
					Description: "The call was answered by voicemail or an answering machine.",
					Terminal:    true,
					Outcome:     domain.OutcomeVoicemail,
				},
				{
					Name:        domain.TransitionProceedToQualification,
					Description: "The prospect responded neutrally or positively; move on to qualification.",
					Ack:         s.Ack(domain.PhaseGreeting, domain.TransitionProceedToQualification),
					Next:        domain.PhaseQualification,
				},
				s.endCall(domain.PhaseGreeting),
			},
		},
		domain.PhaseQualification: {
			ID:     domain.PhaseQualification,
			Prompt: s.Phases[domain.PhaseQualification].Prompt,
			Entry:  s.Phases[domain.PhaseQualification].Entry,
			Transitions: []domain.Transition{
				{
					Name: domain.TransitionProspectInterested,
					Description: fmt.Sprintf(
						"The prospect is interested. Extract: %s.",
						strings.Join(qualNames, ", ")),
					Params: qualParams,
					Effect: domain.EffectMarkInterested,
					Ack:    s.Ack(domain.PhaseQualification, domain.TransitionProspectInterested),
					Next:   domain.PhaseClosing,
				},
				{
					Name:        domain.TransitionProspectObjects,
					Description: "The prospect raised a concern or objection.",
					Params: []domain.Param{
						{Name: "objection", Description: "The objection in the prospect's own words", Required: true},
					},
					Effect: domain.EffectRecordObjection,
					Ack:    s.Ack(domain.PhaseQualification, domain.TransitionProspectObjects),
					Next:   domain.PhaseObjectionHandler,
				},
				{
					Name:        domain.TransitionProspectNotInterested,
					Description: "The prospect is clearly not interested.",
					Ack:         s.Ack(domain.PhaseQualification, domain.TransitionProspectNotInterested),
					Next:        domain.PhaseGoodbye,
					Outcome:     domain.OutcomeDeclined,
				},
				s.endCall(domain.PhaseQualification),
			},
		},
		domain.PhaseObjectionHandler: {
			ID:     domain.PhaseObjectionHandler,
			Prompt: s.Phases[domain.PhaseObjectionHandler].Prompt,
			Entry:  s.Phases[domain.PhaseObjectionHandler].Entry,
			Transitions: []domain.Transition{
				{
					Name:        domain.TransitionObjectionResolved,
					Description: "The objection is resolved; steer back to qualification.",
					Ack:         s.Ack(domain.PhaseObjectionHandler, domain.TransitionObjectionResolved),
					Next:        domain.PhaseQualification,
				},
				s.endCall(domain.PhaseObjectionHandler),
			},
		},
		domain.PhaseClosing: {
			ID:     domain.PhaseClosing,
			Prompt: s.Phases[domain.PhaseClosing].Prompt,
			Entry:  s.Phases[domain.PhaseClosing].Entry,
			Transitions: []domain.Transition{
				{
					Name:        domain.TransitionMeetingScheduled,
					Description: "A consultation has been agreed. Extract the date and time.",
					Params: []domain.Param{
						{Name: "date", Description: "Agreed date", Required: true},
						{Name: "time", Description: "Agreed time", Required: true},
					},
					Ack:     s.Ack(domain.PhaseClosing, domain.TransitionMeetingScheduled),
					Next:    domain.PhaseGoodbye,
					Outcome: domain.OutcomeScheduled,
				},
				s.endCall(domain.PhaseClosing),
			},
		},
		domain.PhaseGoodbye: {
			ID:     domain.PhaseGoodbye,
			Prompt: s.Phases[domain.PhaseGoodbye].Prompt,
			Entry:  s.goodbyeEntry(),
		},
	}

	return phases, nil
}

// endCall builds the end_call transition for a phase. It is exposed on
// every non-terminal phase with the same effect as
// prospect_not_interested (handoff to goodbye) but stays a distinct
// named transition carrying its own outcome code.
func (s *Script) endCall(phase domain.PhaseID) domain.Transition {
	return domain.Transition{
		Name:        domain.TransitionEndCall,
		Description: "The user asked to end the call.",
		Ack:         s.Ack(phase, domain.TransitionEndCall),
		Next:        domain.PhaseGoodbye,
		Outcome:     domain.OutcomeEnded,
	}
}

func (s *Script) goodbyeEntry() string {
	if e := s.Phases[domain.PhaseGoodbye].Entry; e != "" {
		return e
	}
	return "Say goodbye to the user based on the outcome of the call."
}
