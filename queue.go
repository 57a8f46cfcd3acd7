package ioexec

// opQueue is a FIFO holding area for accepted operations awaiting a worker.
//
// It is deliberately not self-synchronized: every access goes through the
// executor's mutex, the same lock that guards the lifecycle state and the
// drain handshake. Giving the queue its own lock would reopen the window
// between the admission check and the enqueue that the shared lock closes.
//
// Implemented as a growable ring so a bounded queue never reallocates after
// warm-up and an unbounded one does not leak its consumed prefix.
type opQueue struct {
	buf  []Operation
	head int
	n    int
}

func newOpQueue(capacity uint) *opQueue {
	initial := int(capacity)
	if initial == 0 {
		initial = 16
	}
	return &opQueue{buf: make([]Operation, initial)}
}

func (q *opQueue) len() int { return q.n }

func (q *opQueue) empty() bool { return q.n == 0 }

// push appends op at the tail, growing the ring when full.
func (q *opQueue) push(op Operation) {
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)%len(q.buf)] = op
	q.n++
}

// pop removes and returns the head element. Callers must check empty first;
// popping an empty queue panics, which under the executor's lock discipline
// indicates a bug rather than a race.
func (q *opQueue) pop() Operation {
	if q.n == 0 {
		panic(Namespace + ": pop from empty queue")
	}
	op := q.buf[q.head]
	q.buf[q.head] = Operation{} // release payload reference
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return op
}

func (q *opQueue) grow() {
	next := make([]Operation, 2*len(q.buf))
	for i := 0; i < q.n; i++ {
		next[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = next
	q.head = 0
}
