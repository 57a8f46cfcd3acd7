// Package ioexec provides a bounded asynchronous executor that runs
// operations against a single shared I/O resource and guarantees a graceful
// drain before the resource is closed.
//
// The guarantee is two-sided:
//   - every operation accepted by Submit runs to completion before the
//     resource is closed, even when Close is requested concurrently from
//     another goroutine while workers are still draining the queue;
//   - once Close has been requested, no new operation is accepted.
//
// Lifecycle
// An Executor moves through three states, strictly one-directional:
//   - running: submissions accepted, workers draining the queue;
//   - preparing: Close has been requested, submissions rejected, queued and
//     in-flight operations still run to completion;
//   - shutdown: drain complete, resource closed, workers joined.
//
// The admission check, the state transitions, and the drain-complete
// handshake all share one mutex; that single lock is what makes the
// "no acceptance after close begins" and "at most one drain signal"
// guarantees hold without a lost-wakeup window.
//
// Defaults
// Unless overridden via options, a newly created instance uses:
//   - Capacity: 0 (unbounded queue)
//   - Metrics: no-op provider
//   - JoinTimeout: 5s (bounded worker join during teardown)
//
// Operation outcomes
// Execution failures are recorded on the failing operation's Outcome and
// delivered through its Done callback; they never terminate a worker and
// never prevent the remaining queued operations from draining. Lifecycle
// failures (drain timeout, double close, stalled worker) are returned from
// Close itself.
package ioexec
