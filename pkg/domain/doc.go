// Package domain contains the core types of the coldline call engine:
// the per-call state record, the phase/transition table, call outcomes,
// lifecycle events and the error taxonomy.
//
// The domain is deliberately free of I/O. Telephony, speech and
// persistence live behind the interfaces in pkg/ports; the orchestration
// logic lives in internal/runtime.
package domain
