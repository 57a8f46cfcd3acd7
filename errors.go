package ioexec

import "errors"

const Namespace = "ioexec"

var (
	// ErrClosed is returned by Submit and SubmitWait once Close has begun.
	// It is an admission outcome, not an operational failure: the caller
	// must simply not expect the operation to run.
	ErrClosed = errors.New(Namespace + ": executor is closed to new operations")

	// ErrOverloaded is returned by Submit when a bounded queue is full while
	// the executor is still running. Recoverable via backpressure; see
	// SubmitWait for the blocking alternative.
	ErrOverloaded = errors.New(Namespace + ": operation queue is full")

	// ErrOperationFailed wraps a resource write failure recorded on an
	// operation's Outcome. It never affects other operations or the
	// executor lifecycle.
	ErrOperationFailed = errors.New(Namespace + ": operation execution failed")

	// ErrOperationPanicked wraps a panic raised while executing an operation
	// or its completion callback. Converted to an Outcome error; the worker
	// keeps draining.
	ErrOperationPanicked = errors.New(Namespace + ": operation execution panicked")

	// ErrDrainTimeout is returned by Close when the drain did not complete
	// within the caller-supplied bound. The resource stays open and the
	// executor stays in the preparing state; a later Close resumes waiting.
	ErrDrainTimeout = errors.New(Namespace + ": timed out waiting for queued operations to drain")

	// ErrAlreadyClosing is returned by Close when another close is in
	// progress or has already completed.
	ErrAlreadyClosing = errors.New(Namespace + ": close already requested")

	// ErrWorkerStall is returned by Close when a worker goroutine failed to
	// terminate within the join bound after shutdown.
	ErrWorkerStall = errors.New(Namespace + ": worker failed to terminate during teardown")

	// ErrInvalidConfig reports an invalid constructor argument or option.
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")
)
