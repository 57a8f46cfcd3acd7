package ioexec

import "fmt"

// Operation is a single unit of work submitted to an Executor: a payload to
// be written at a target offset of the shared resource, plus an optional
// completion callback.
//
// Ownership transfers on Submit: the submitter must not mutate Payload after
// a successful submission. The executing worker records the Outcome exactly
// once and, if Done is non-nil, invokes it from the worker goroutine after
// the outcome is recorded. Done must not block for long; a slow callback
// delays the drain of subsequent operations.
type Operation struct {
	// Payload is the data the operation carries to the resource.
	Payload []byte

	// Offset is the target position within the resource.
	Offset int64

	// Done, when non-nil, receives the operation's outcome after execution.
	// It is called exactly once, for accepted operations only; rejected
	// submissions never reach it.
	Done func(Outcome)
}

// Outcome is the recorded result of one executed Operation. Err is nil on
// success; otherwise it wraps ErrOperationFailed or ErrOperationPanicked.
type Outcome struct {
	// BytesWritten is the number of payload bytes the resource accepted.
	BytesWritten int

	// Err is the execution failure, if any.
	Err error
}

// deliver invokes the callback with the recorded outcome. A panicking
// callback cannot take down the worker: the panic is recovered and returned
// as an error so the executor can count the misbehaving delivery. The
// outcome itself is already recorded at this point.
func (op *Operation) deliver(out Outcome) (err error) {
	if op.Done == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrOperationPanicked, r)
		}
	}()
	op.Done(out)
	return nil
}
