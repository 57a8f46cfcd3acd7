package ioexec

import "testing"

func TestOpQueue_FIFO(t *testing.T) {
	q := newOpQueue(0)
	if !q.empty() {
		t.Fatal("new queue should be empty")
	}

	for i := 0; i < 50; i++ {
		q.push(Operation{Offset: int64(i)})
	}
	if q.len() != 50 {
		t.Fatalf("len = %d; want 50", q.len())
	}
	for i := 0; i < 50; i++ {
		op := q.pop()
		if op.Offset != int64(i) {
			t.Fatalf("pop %d: offset = %d; want %d", i, op.Offset, i)
		}
	}
	if !q.empty() {
		t.Fatal("queue should be empty after draining")
	}
}

func TestOpQueue_WrapsAroundRing(t *testing.T) {
	q := newOpQueue(4)

	// Interleave pushes and pops so head walks past the ring boundary.
	next := int64(0)
	expect := int64(0)
	for round := 0; round < 10; round++ {
		for i := 0; i < 3; i++ {
			q.push(Operation{Offset: next})
			next++
		}
		for i := 0; i < 3; i++ {
			if got := q.pop().Offset; got != expect {
				t.Fatalf("round %d: offset = %d; want %d", round, got, expect)
			}
			expect++
		}
	}
}

func TestOpQueue_GrowsPreservingOrder(t *testing.T) {
	q := newOpQueue(2)
	// Shift head first so growth has to unwrap a non-zero head.
	q.push(Operation{Offset: 100})
	q.pop()

	for i := 0; i < 20; i++ {
		q.push(Operation{Offset: int64(i)})
	}
	for i := 0; i < 20; i++ {
		if got := q.pop().Offset; got != int64(i) {
			t.Fatalf("offset = %d; want %d", got, i)
		}
	}
}

func TestOpQueue_PopEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("pop from empty queue should panic")
		}
	}()
	newOpQueue(0).pop()
}
