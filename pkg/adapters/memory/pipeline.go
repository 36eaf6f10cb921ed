package memory

import (
	"context"
	"sync"

	"github.com/aretw0/coldline/pkg/domain"
)

// UtteranceKind distinguishes literal from model-generated speech.
type UtteranceKind string

const (
	UtteranceSay      UtteranceKind = "say"
	UtteranceGenerate UtteranceKind = "generate"
)

// Utterance is one queued spoken output.
type Utterance struct {
	Kind UtteranceKind
	Text string
}

// Pipeline is an in-memory ports.Speech. It records prompts and
// utterances in order and counts playout waits, so tests can assert the
// strict output ordering the orchestrator promises.
type Pipeline struct {
	// OnUtterance, when set, is invoked synchronously for each queued
	// utterance. The local console uses it to echo the agent's lines.
	OnUtterance func(Utterance)

	// StartErr, when set, is returned by Start.
	StartErr error

	mu         sync.Mutex
	started    bool
	prompts    []domain.PhaseID
	utterances []Utterance
	waits      int
}

// NewPipeline creates a fake speech pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

func (p *Pipeline) Start(ctx context.Context) error {
	if p.StartErr != nil {
		return p.StartErr
	}
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
	return nil
}

func (p *Pipeline) SetPrompt(ctx context.Context, phase domain.PhaseID, prompt string, transitions []domain.Transition) error {
	p.mu.Lock()
	p.prompts = append(p.prompts, phase)
	p.mu.Unlock()
	return nil
}

func (p *Pipeline) Say(ctx context.Context, text string) error {
	p.enqueue(Utterance{Kind: UtteranceSay, Text: text})
	return nil
}

func (p *Pipeline) Generate(ctx context.Context, instructions string) error {
	p.enqueue(Utterance{Kind: UtteranceGenerate, Text: instructions})
	return nil
}

func (p *Pipeline) WaitForPlayout(ctx context.Context) error {
	p.mu.Lock()
	p.waits++
	p.mu.Unlock()
	return nil
}

func (p *Pipeline) enqueue(u Utterance) {
	p.mu.Lock()
	p.utterances = append(p.utterances, u)
	cb := p.OnUtterance
	p.mu.Unlock()
	if cb != nil {
		cb(u)
	}
}

// Started reports whether the pipeline was attached.
func (p *Pipeline) Started() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// Prompts returns the phase prompts installed, in order.
func (p *Pipeline) Prompts() []domain.PhaseID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.PhaseID(nil), p.prompts...)
}

// Utterances returns the queued utterances, in order.
func (p *Pipeline) Utterances() []Utterance {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Utterance(nil), p.utterances...)
}

// Waits returns how many times playout was awaited.
func (p *Pipeline) Waits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waits
}
