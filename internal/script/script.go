// Package script defines the persona script configuration: per-phase
// prompt text, the qualification field schema, acknowledgement
// templates and the voice/provider settings forwarded at session start.
//
// A script is pure data. The phase state machine shape is fixed;
// personas only vary the strings and the qualification schema, so the
// three historical near-identical call scripts collapse into three YAML
// files compiled against one transition table.
package script

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/aretw0/coldline/pkg/domain"
)

// Field is one entry of the qualification schema: a named free-text
// value the classifier extracts when the prospect shows interest.
type Field struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Required    bool   `yaml:"required"`
}

// PhaseScript holds the per-phase strings.
type PhaseScript struct {
	// Prompt is the instruction text governing the voice model while
	// the phase is active.
	Prompt string `yaml:"prompt"`

	// Entry, when set, is the generation instruction spoken on phase
	// entry. Empty means the phase enters silently.
	Entry string `yaml:"entry,omitempty"`

	// Acks overrides the script-level acknowledgement templates for
	// transitions fired from this phase.
	Acks map[string]string `yaml:"acks,omitempty"`
}

// Voice is provider selection forwarded unchanged to the speech
// pipeline at session start. The engine is agnostic to these values.
type Voice struct {
	LLMModel string `yaml:"llm_model,omitempty"`
	STTModel string `yaml:"stt_model,omitempty"`
	TTSModel string `yaml:"tts_model,omitempty"`
	TTSVoice string `yaml:"tts_voice,omitempty"`
	Language string `yaml:"language,omitempty"`
}

// Script is one persona's call script configuration.
type Script struct {
	Persona   string `yaml:"persona"`
	AgentName string `yaml:"agent_name"`
	Company   string `yaml:"company,omitempty"`

	// Voicemail is the literal message left when an answering machine
	// is detected.
	Voicemail string `yaml:"voicemail"`

	// Qualification is the ordered field schema for the
	// prospect_is_interested transition.
	Qualification []Field `yaml:"qualification"`

	Phases map[domain.PhaseID]PhaseScript `yaml:"phases"`

	// Acks maps transition names to acknowledgement templates
	// (text/template; params are available as {{.name}}).
	Acks map[string]string `yaml:"acks,omitempty"`

	Voice Voice `yaml:"voice,omitempty"`
}

var requiredPhases = []domain.PhaseID{
	domain.PhaseGreeting,
	domain.PhaseQualification,
	domain.PhaseObjectionHandler,
	domain.PhaseClosing,
	domain.PhaseGoodbye,
}

// Validate checks the script for structural problems. It is called by
// the loader; callers constructing scripts in code should call it too.
func (s *Script) Validate() error {
	if strings.TrimSpace(s.Persona) == "" {
		return fmt.Errorf("script: persona is required")
	}
	if strings.TrimSpace(s.AgentName) == "" {
		return fmt.Errorf("script %q: agent_name is required", s.Persona)
	}
	if strings.TrimSpace(s.Voicemail) == "" {
		return fmt.Errorf("script %q: voicemail message is required", s.Persona)
	}

	if len(s.Qualification) == 0 {
		return fmt.Errorf("script %q: qualification schema must not be empty", s.Persona)
	}
	seen := make(map[string]bool, len(s.Qualification))
	for _, f := range s.Qualification {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return fmt.Errorf("script %q: qualification field with empty name", s.Persona)
		}
		if seen[name] {
			return fmt.Errorf("script %q: duplicate qualification field %q", s.Persona, name)
		}
		seen[name] = true
	}

	for _, id := range requiredPhases {
		ps, ok := s.Phases[id]
		if !ok {
			return fmt.Errorf("script %q: missing phase %q", s.Persona, id)
		}
		if strings.TrimSpace(ps.Prompt) == "" {
			return fmt.Errorf("script %q: phase %q has no prompt", s.Persona, id)
		}
	}
	for id := range s.Phases {
		if !id.Valid() {
			return fmt.Errorf("script %q: unknown phase %q", s.Persona, id)
		}
	}

	// Ack templates must at least parse; rendering errors at call time
	// would otherwise swallow the acknowledgement mid-conversation.
	check := func(scope, name, body string) error {
		if _, err := template.New(name).Parse(body); err != nil {
			return fmt.Errorf("script %q: %s ack %q: %w", s.Persona, scope, name, err)
		}
		return nil
	}
	for name, body := range s.Acks {
		if err := check("script-level", name, body); err != nil {
			return err
		}
	}
	for id, ps := range s.Phases {
		for name, body := range ps.Acks {
			if err := check(string(id), name, body); err != nil {
				return err
			}
		}
	}

	return nil
}

// Ack resolves the acknowledgement template for a transition fired from
// the given phase: phase-level override first, then script-level, then
// the built-in default.
func (s *Script) Ack(phase domain.PhaseID, name domain.TransitionName) string {
	if ps, ok := s.Phases[phase]; ok {
		if body, ok := ps.Acks[string(name)]; ok {
			return body
		}
	}
	if body, ok := s.Acks[string(name)]; ok {
		return body
	}
	return defaultAcks[name]
}
