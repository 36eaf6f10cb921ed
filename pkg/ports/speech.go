package ports

import (
	"context"

	"github.com/aretw0/coldline/pkg/domain"
)

// Speech is the voice pipeline boundary. STT, the language model, TTS,
// VAD and noise cancellation all live behind this interface; the engine
// only forwards configuration and text through it.
//
// Spoken output is a strictly ordered queue per call: Say and Generate
// enqueue, WaitForPlayout drains. The orchestrator relies on that
// ordering to guarantee the remote party never hears two overlapping
// utterances and that audio finishes before the call is torn down.
type Speech interface {
	// Start attaches the voice pipeline to the call session. Runs
	// concurrently with the dial at session start; both must succeed
	// before the call is considered live.
	Start(ctx context.Context) error

	// SetPrompt installs the active phase's instruction text and
	// advertises its transition set to the external classifier.
	SetPrompt(ctx context.Context, phase domain.PhaseID, prompt string, transitions []domain.Transition) error

	// Say queues a literal utterance (acknowledgements, voicemail text).
	Say(ctx context.Context, text string) error

	// Generate queues a model-generated utterance driven by the given
	// instructions (phase entry actions, the goodbye line).
	Generate(ctx context.Context, instructions string) error

	// WaitForPlayout blocks until everything queued so far has finished
	// playing to the remote party.
	WaitForPlayout(ctx context.Context) error
}
