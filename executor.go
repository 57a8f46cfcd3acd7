package ioexec

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/ioexec/metrics"
)

// Executor owns a shared I/O resource, a FIFO queue of pending operations,
// and a fixed set of worker goroutines draining that queue. Methods are safe
// for concurrent use.
//
// One mutex guards the queue, the lifecycle state, and the drain handshake.
// The admission check in Submit and the running->preparing transition in
// Close are therefore mutually exclusive: no operation can be accepted after
// the transition begins, and the closer cannot start waiting for a drain
// that a worker has already announced.
type Executor struct {
	// noCopy prevents accidental copying of the executor.
	//go:nocopy
	nc noCopy

	cfg config
	res *handle

	mu       sync.Mutex
	notEmpty *sync.Cond // workers wait here for queued operations
	notFull  *sync.Cond // SubmitWait waits here for queue space
	state    State
	queue    *opQueue
	inflight int

	// drained is closed exactly once, under mu, when the queue is empty and
	// no operation is in flight after the preparing transition. Closing a
	// channel cannot be missed by a waiter that starts waiting later, which
	// is what rules out the lost-wakeup race between the last worker and
	// the closer.
	drained       chan struct{}
	drainSignaled bool

	// closing marks an active Close call. Reset on drain timeout so a later
	// Close can resume waiting.
	closing bool

	workers sync.WaitGroup

	submitted    metrics.Counter
	rejected     metrics.Counter
	completed    metrics.Counter
	failed       metrics.Counter
	depth        metrics.UpDownCounter
	drainSeconds metrics.Histogram
}

// noCopy is a vet-recognized marker to discourage copying types with this
// field embedded. It works with the "-copylocks" analyzer via the presence
// of Lock/Unlock methods.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// New creates an Executor guarding res with a fixed pool of workerCount
// goroutines, configured via functional options. Workers start immediately;
// the executor accepts submissions until Close is called.
func New(res Resource, workerCount int, opts ...Option) (*Executor, error) {
	if res == nil {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("", "resource must not be nil"))
	}
	if workerCount <= 0 {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("", "worker count must be > 0"))
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	e := &Executor{
		cfg:     cfg,
		res:     newHandle(res),
		state:   StateRunning,
		queue:   newOpQueue(cfg.Capacity),
		drained: make(chan struct{}),
	}
	e.notEmpty = sync.NewCond(&e.mu)
	e.notFull = sync.NewCond(&e.mu)

	m := cfg.Metrics
	e.submitted = m.Counter("ioexec_operations_submitted",
		metrics.WithDescription("operations accepted for execution"))
	e.rejected = m.Counter("ioexec_operations_rejected",
		metrics.WithDescription("submissions rejected by the admission gate"))
	e.completed = m.Counter("ioexec_operations_completed",
		metrics.WithDescription("operations executed successfully"))
	e.failed = m.Counter("ioexec_operations_failed",
		metrics.WithDescription("operations whose execution or callback delivery failed"))
	e.depth = m.UpDownCounter("ioexec_queue_depth",
		metrics.WithDescription("operations currently queued"))
	e.drainSeconds = m.Histogram("ioexec_drain_seconds",
		metrics.WithDescription("time Close spent draining"), metrics.WithUnit("seconds"))

	for i := 0; i < workerCount; i++ {
		e.workers.Add(1)
		go e.workerLoop()
	}
	return e, nil
}

// Submit offers an operation for execution without blocking.
//
// Returns:
//   - (true, nil) if the operation was accepted; it is now guaranteed to run
//     to completion before the resource is closed.
//   - (false, ErrClosed) once Close has begun; the operation will never run.
//   - (false, ErrOverloaded) if a bounded queue is full while still running;
//     retry, back off, or use SubmitWait.
func (e *Executor) Submit(op Operation) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRunning {
		e.rejected.Add(1)
		return false, ErrClosed
	}
	if e.cfg.Capacity > 0 && uint(e.queue.len()) >= e.cfg.Capacity {
		e.rejected.Add(1)
		return false, ErrOverloaded
	}

	e.enqueueLocked(op)
	return true, nil
}

// SubmitWait offers an operation for execution, blocking while a bounded
// queue is full. It returns nil once the operation is accepted, ErrClosed if
// Close begins while waiting, or ctx.Err() if the context ends first.
func (e *Executor) SubmitWait(ctx context.Context, op Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Wake this waiter (and any others) when the context ends; the loop
	// below re-checks ctx under the lock.
	stop := context.AfterFunc(ctx, func() {
		e.mu.Lock()
		e.notFull.Broadcast()
		e.mu.Unlock()
	})
	defer stop()

	e.mu.Lock()
	defer e.mu.Unlock()

	for {
		if e.state != StateRunning {
			e.rejected.Add(1)
			return ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.cfg.Capacity == 0 || uint(e.queue.len()) < e.cfg.Capacity {
			e.enqueueLocked(op)
			return nil
		}
		e.notFull.Wait()
	}
}

func (e *Executor) enqueueLocked(op Operation) {
	e.queue.push(op)
	e.submitted.Add(1)
	e.depth.Add(1)
	e.notEmpty.Signal()
}

// State reports the current lifecycle state.
func (e *Executor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Pending reports the number of operations queued or in flight.
func (e *Executor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.len() + e.inflight
}

// workerLoop is the body of each worker goroutine: dequeue, execute against
// the resource outside the lock, record the outcome, then run the
// check-and-signal step. The loop exits once a close has begun and the queue
// is empty.
func (e *Executor) workerLoop() {
	defer e.workers.Done()

	for {
		e.mu.Lock()
		for e.queue.empty() && e.state == StateRunning {
			e.notEmpty.Wait()
		}
		if e.queue.empty() {
			e.mu.Unlock()
			return
		}
		op := e.queue.pop()
		e.inflight++
		e.depth.Add(-1)
		e.notFull.Signal()
		e.mu.Unlock()

		out := e.res.execute(op)
		deliverErr := op.deliver(out)
		if out.Err != nil || deliverErr != nil {
			e.failed.Add(1)
		} else {
			e.completed.Add(1)
		}

		e.mu.Lock()
		e.inflight--
		e.signalDrainedLocked()
		e.mu.Unlock()
	}
}

// signalDrainedLocked announces drain completion to a waiting closer. The
// drainSignaled guard plus the shared lock make the signal at-most-once even
// when several workers finish their last operation at nearly the same
// instant. Completion of execution, not dequeue, is what permits the signal:
// inflight must be zero, not just the queue empty.
func (e *Executor) signalDrainedLocked() {
	if e.state == StatePreparing && e.queue.empty() && e.inflight == 0 && !e.drainSignaled {
		e.drainSignaled = true
		close(e.drained)
	}
}

// Close stops admission, waits for all queued and in-flight operations to
// finish, closes the resource exactly once, and joins the workers. It blocks
// by design; run it on a separate goroutine if a non-blocking close is
// needed.
//
// timeout bounds the drain wait; timeout <= 0 waits indefinitely. On
// ErrDrainTimeout the resource stays open and submissions stay rejected; a
// later Close resumes waiting for the drain. A Close issued while another is
// active, or after one has completed, returns ErrAlreadyClosing.
func (e *Executor) Close(timeout time.Duration) error {
	start := time.Now()

	e.mu.Lock()
	if e.state == StateShutdown || e.closing {
		st := e.state
		e.mu.Unlock()
		return errorc.With(ErrAlreadyClosing, errorc.String("state", st.String()))
	}
	if e.state == StateRunning {
		e.state = StatePreparing
		// Idle workers re-check state and begin exiting; blocked SubmitWait
		// callers observe the rejection.
		e.notEmpty.Broadcast()
		e.notFull.Broadcast()
	}
	e.closing = true
	e.signalDrainedLocked() // already drained: skip waiting below
	e.mu.Unlock()

	if err := e.awaitDrain(timeout); err != nil {
		e.mu.Lock()
		e.closing = false
		e.mu.Unlock()
		return err
	}

	e.mu.Lock()
	e.state = StateShutdown
	e.mu.Unlock()

	e.drainSeconds.Record(time.Since(start).Seconds())

	closeErr := e.res.close()
	if err := e.joinWorkers(); err != nil {
		if closeErr != nil {
			return errors.Join(closeErr, err)
		}
		return err
	}
	return closeErr
}

// awaitDrain blocks until the drain-complete signal or the timeout.
func (e *Executor) awaitDrain(timeout time.Duration) error {
	if timeout <= 0 {
		<-e.drained
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-e.drained:
		return nil
	case <-timer.C:
		e.mu.Lock()
		queued, inflight := e.queue.len(), e.inflight
		e.mu.Unlock()
		return errorc.With(
			ErrDrainTimeout,
			errorc.String("queued", strconv.Itoa(queued)),
			errorc.String("inflight", strconv.Itoa(inflight)),
		)
	}
}

// joinWorkers waits for worker goroutines to terminate, bounded by
// JoinTimeout. A worker running past the bound is a reported condition, not
// a silent leak.
func (e *Executor) joinWorkers() error {
	done := make(chan struct{})
	go func() {
		e.workers.Wait()
		close(done)
	}()

	timer := time.NewTimer(e.cfg.JoinTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		return ErrWorkerStall
	}
}
