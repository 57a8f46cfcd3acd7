package ioexec

import (
	"fmt"
	"io"
)

// Resource is the shared I/O object all operations act upon. *os.File
// satisfies it. The executor owns the resource for its entire lifetime and
// closes it exactly once, after the drain handshake has proven that no
// operation is queued or in flight.
type Resource interface {
	io.WriterAt
	io.Closer
}

// handle adapts a Resource to the executor: it translates an Operation into
// the concrete WriteAt call and the call's result into the Operation's
// Outcome, and it owns the exactly-once close.
//
// handle performs no admission or lifecycle checks of its own; calling
// execute after close is prevented upstream by the admission gate and the
// drain handshake, not here.
type handle struct {
	res    Resource
	closed bool
}

func newHandle(res Resource) *handle { return &handle{res: res} }

// execute runs one operation against the resource, converting failures,
// short writes, and panics into the outcome. It never panics itself: a
// worker must survive any single operation.
func (h *handle) execute(op Operation) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("%w: %v", ErrOperationPanicked, r)
		}
	}()

	n, err := h.res.WriteAt(op.Payload, op.Offset)
	out.BytesWritten = n
	switch {
	case err != nil:
		out.Err = fmt.Errorf("%w: %w", ErrOperationFailed, err)
	case n < len(op.Payload):
		out.Err = fmt.Errorf("%w: %w", ErrOperationFailed, io.ErrShortWrite)
	}
	return out
}

// close closes the underlying resource. The shutdown coordinator calls it
// exactly once; the guard only hardens against a future coordinator bug.
func (h *handle) close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	return h.res.Close()
}
