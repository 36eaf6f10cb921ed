package memory

import (
	"context"
	"sync"

	"github.com/aretw0/coldline/pkg/domain"
	"github.com/aretw0/coldline/pkg/ports"
)

// Bridge is an in-memory ports.Telephony. Dials succeed immediately
// unless DialErr is set; terminations are counted so tests can assert
// exactly-once semantics.
type Bridge struct {
	// DialErr, when set, is returned by Dial. Set before use.
	DialErr error

	mu           sync.Mutex
	dialed       []string
	terminations int
	hangup       chan struct{}
	hangupOnce   sync.Once
}

// NewBridge creates a fake telephony bridge.
func NewBridge() *Bridge {
	return &Bridge{
		hangup: make(chan struct{}),
	}
}

// Dial records the target and returns DialErr if configured.
func (b *Bridge) Dial(ctx context.Context, target string, opts ports.DialOptions) error {
	b.mu.Lock()
	b.dialed = append(b.dialed, target)
	b.mu.Unlock()
	if b.DialErr != nil {
		return &domain.DialError{Target: target, Reason: b.DialErr.Error(), Err: b.DialErr}
	}
	return nil
}

// AwaitParticipant succeeds immediately; the fake remote party is
// always present once dialed.
func (b *Bridge) AwaitParticipant(ctx context.Context, identity string) error {
	return ctx.Err()
}

// Terminate counts termination requests.
func (b *Bridge) Terminate(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.terminations++
	return nil
}

// Hangup returns the remote-hangup channel.
func (b *Bridge) Hangup() <-chan struct{} {
	return b.hangup
}

// RemoteHangup simulates the remote party dropping the call.
func (b *Bridge) RemoteHangup() {
	b.hangupOnce.Do(func() { close(b.hangup) })
}

// Dialed returns the targets dialed so far.
func (b *Bridge) Dialed() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.dialed...)
}

// Terminations returns how many termination requests were issued.
func (b *Bridge) Terminations() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.terminations
}
