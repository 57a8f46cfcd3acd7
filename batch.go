package ioexec

import (
	"context"
	"errors"
)

// RunBatch submits ops to e in order and blocks until every accepted
// operation has a recorded outcome.
//
// Semantics:
//   - Submission uses SubmitWait, so a bounded queue applies backpressure
//     instead of failing the batch.
//   - Submission stops at the first admission failure (ErrClosed or ctx
//     ending); operations already accepted still run to completion and their
//     outcomes are collected.
//   - Per-operation Done callbacks still fire, before the outcome is
//     collected here.
//
// The returned slice is indexed like ops; entries past the accepted count
// are zero. The error is errors.Join of the admission failure (if any) and
// every execution failure.
func RunBatch(ctx context.Context, e *Executor, ops []Operation) ([]Outcome, int, error) {
	outcomes := make([]Outcome, len(ops))
	done := make(chan struct{}, len(ops))

	accepted := 0
	var admissionErr error
	for i := range ops {
		idx := i
		op := ops[i]
		prev := op.Done
		op.Done = func(out Outcome) {
			outcomes[idx] = out
			// The token must be sent even if the caller's callback panics
			// (the panic is recovered by the worker's delivery path), or
			// the wait below would never finish.
			defer func() { done <- struct{}{} }()
			if prev != nil {
				prev(out)
			}
		}
		if err := e.SubmitWait(ctx, op); err != nil {
			admissionErr = err
			break
		}
		accepted++
	}

	for i := 0; i < accepted; i++ {
		<-done
	}

	errs := make([]error, 0, accepted+1)
	if admissionErr != nil {
		errs = append(errs, admissionErr)
	}
	for i := 0; i < accepted; i++ {
		if outcomes[i].Err != nil {
			errs = append(errs, outcomes[i].Err)
		}
	}
	return outcomes, accepted, errors.Join(errs...)
}
