// Package ports defines the driven-port interfaces of the coldline
// engine: telephony, the voice pipeline, record persistence, distributed
// locking and job dispatch. Adapters live in pkg/adapters.
package ports
