package ports

import "context"

// DialOptions carries per-dial settings forwarded to the provider.
type DialOptions struct {
	// Identity is the participant identity assigned to the remote
	// party. Conventionally the dialed number.
	Identity string

	// NoiseCancellation requests telephony-grade noise suppression on
	// the inbound leg, when the provider supports it.
	NoiseCancellation bool
}

// Telephony is the external call-control boundary for one call session.
// Implementations are bound to a single session (room) at construction.
type Telephony interface {
	// Dial places the outbound call and blocks until the remote party
	// answers or the attempt fails. Failures are reported as
	// *domain.DialError; context cancellation aborts the attempt.
	Dial(ctx context.Context, target string, opts DialOptions) error

	// AwaitParticipant blocks until the remote participant has joined
	// the session. Fires at most once per call.
	AwaitParticipant(ctx context.Context, identity string) error

	// Terminate ends the underlying call session. Best effort: errors
	// are returned for logging but a hung or already-dropped call is an
	// acceptable terminal state, so callers must not treat a failure
	// here as fatal.
	Terminate(ctx context.Context) error

	// Hangup returns a channel closed when the remote party drops the
	// call. The orchestrator uses it to abandon in-flight work.
	Hangup() <-chan struct{}
}
