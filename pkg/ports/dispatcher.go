package ports

import "context"

// DispatchRequest submits a new call job to the job-dispatch service.
type DispatchRequest struct {
	// AgentName routes the job to a named agent/persona worker pool.
	AgentName string
	// Room is the uniquely-named call session identifier.
	Room string
	// Metadata is the JSON-encoded job payload (see domain.JobMetadata).
	Metadata string
}

// DispatchInfo describes a successfully created dispatch.
type DispatchInfo struct {
	ID   string
	Room string
}

// Dispatcher is the job-dispatch boundary. Dispatch failures are
// surfaced to the operator; this layer never retries.
type Dispatcher interface {
	// Check verifies connectivity and credentials against the provider
	// before any dispatch is attempted.
	Check(ctx context.Context) error

	// CreateDispatch submits the job.
	CreateDispatch(ctx context.Context, req DispatchRequest) (*DispatchInfo, error)
}
