package tests

import (
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/ioexec"
)

// fileLike is an in-memory stand-in for the shared resource: a growable byte
// buffer with positional writes, a close counter, and an optional per-write
// delay used to randomize which worker finishes the drain last.
type fileLike struct {
	mu     sync.Mutex
	buf    []byte
	closed bool
	closes int32
	delay  func() time.Duration
}

func (f *fileLike) WriteAt(p []byte, off int64) (int, error) {
	if f.delay != nil {
		time.Sleep(f.delay())
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, errors.New("write after close")
	}
	end := off + int64(len(p))
	if int64(len(f.buf)) < end {
		next := make([]byte, end)
		copy(next, f.buf)
		f.buf = next
	}
	copy(f.buf[off:end], p)
	return len(p), nil
}

func (f *fileLike) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	atomic.AddInt32(&f.closes, 1)
	return nil
}

func (f *fileLike) contents() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]byte, len(f.buf))
	copy(out, f.buf)
	return out
}

// Accepted-before-close operations must all have recorded outcomes and all
// be reflected in the resource once Close returns.
func TestAcceptedOperationsAreNeverLost(t *testing.T) {
	const n = 500

	f := &fileLike{}
	e, err := ioexec.New(f, 8)
	require.NoError(t, err)

	var outcomes atomic.Int64
	var failures atomic.Int64
	for i := 0; i < n; i++ {
		_, err := e.Submit(ioexec.Operation{
			Payload: []byte("01234"),
			Offset:  int64(i) * 5,
			Done: func(out ioexec.Outcome) {
				outcomes.Add(1)
				if out.Err != nil {
					failures.Add(1)
				}
			},
		})
		require.NoError(t, err)
	}

	require.NoError(t, e.Close(0))

	require.Equal(t, int64(n), outcomes.Load())
	require.Zero(t, failures.Load())
	require.Len(t, f.contents(), n*5, "total bytes written must equal the sum of accepted payloads")
	require.Equal(t, int32(1), atomic.LoadInt32(&f.closes))
}

// Close must always return (no lost wakeup, no hang) regardless of which
// worker finishes the drain last. Randomized per-write delays shuffle that
// across runs; the resource close must still happen exactly once.
func TestCloseAlwaysReturnsUnderRandomizedDrain(t *testing.T) {
	for iter := 0; iter < 20; iter++ {
		workerCount := 1 + rand.Intn(4)
		opCount := 1 + rand.Intn(40)

		f := &fileLike{
			delay: func() time.Duration { return time.Duration(rand.Intn(2000)) * time.Microsecond },
		}
		e, err := ioexec.New(f, workerCount)
		require.NoError(t, err)

		for i := 0; i < opCount; i++ {
			_, err := e.Submit(ioexec.Operation{Payload: []byte("abcde"), Offset: int64(i) * 5})
			require.NoError(t, err)
		}

		done := make(chan error, 1)
		go func() { done <- e.Close(0) }()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Fatalf("iter %d (workers=%d ops=%d): Close hung", iter, workerCount, opCount)
		}
		require.Equal(t, int32(1), atomic.LoadInt32(&f.closes), "iter %d", iter)
	}
}

// A single-worker executor must execute operations in submission order.
func TestSingleWorkerPreservesSubmissionOrder(t *testing.T) {
	f := &fileLike{}
	e, err := ioexec.New(f, 1)
	require.NoError(t, err)

	var mu sync.Mutex
	var order []int64
	for i := 0; i < 100; i++ {
		off := int64(i) * 5
		_, err := e.Submit(ioexec.Operation{
			Payload: []byte("abcde"),
			Offset:  off,
			Done: func(ioexec.Outcome) {
				mu.Lock()
				order = append(order, off)
				mu.Unlock()
			},
		})
		require.NoError(t, err)
	}
	require.NoError(t, e.Close(0))

	require.Len(t, order, 100)
	for i, off := range order {
		require.Equal(t, int64(i)*5, off, "completion %d out of submission order", i)
	}
}

// The concrete acceptance scenario: 1000 operations of 5 bytes at strictly
// increasing offsets from 4 concurrent submitters, with Close issued once
// 500 submissions have been accepted. Everything accepted lands in the
// resource with the right layout; everything after the flip is rejected
// with ErrClosed.
func TestConcurrentSubmittersWithMidstreamClose(t *testing.T) {
	const (
		total      = 1000
		submitters = 4
		perSub     = total / submitters
		closeAfter = 500
	)

	f := &fileLike{}
	e, err := ioexec.New(f, 4)
	require.NoError(t, err)

	payloadFor := func(idx int) []byte {
		b := byte('A' + idx%26)
		return []byte{b, b, b, b, b}
	}

	var (
		acceptedCount atomic.Int64
		mu            sync.Mutex
		acceptedIdx   = make(map[int]struct{})
		rejectedErrs  []error
	)

	closeDone := make(chan error, 1)
	closeOnce := sync.Once{}

	var wg sync.WaitGroup
	for s := 0; s < submitters; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			for i := 0; i < perSub; i++ {
				idx := s*perSub + i
				accepted, err := e.Submit(ioexec.Operation{
					Payload: payloadFor(idx),
					Offset:  int64(idx) * 5,
				})
				if accepted {
					mu.Lock()
					acceptedIdx[idx] = struct{}{}
					mu.Unlock()
					if acceptedCount.Add(1) == closeAfter {
						closeOnce.Do(func() {
							go func() { closeDone <- e.Close(0) }()
						})
					}
				} else {
					mu.Lock()
					rejectedErrs = append(rejectedErrs, err)
					mu.Unlock()
				}
			}
		}(s)
	}
	wg.Wait()

	// Submitters may all finish before the 500th acceptance triggers the
	// close only if everything was accepted; close in that case too.
	closeOnce.Do(func() {
		go func() { closeDone <- e.Close(0) }()
	})
	require.NoError(t, <-closeDone)

	accepted := int(acceptedCount.Load())
	require.GreaterOrEqual(t, accepted, closeAfter)
	require.LessOrEqual(t, accepted, total)
	require.Len(t, rejectedErrs, total-accepted)
	for _, err := range rejectedErrs {
		require.ErrorIs(t, err, ioexec.ErrClosed)
	}

	contents := f.contents()
	for idx := range acceptedIdx {
		off := idx * 5
		require.GreaterOrEqual(t, len(contents), off+5, "accepted op %d missing from resource", idx)
		require.Equal(t, payloadFor(idx), contents[off:off+5], "byte layout for op %d", idx)
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&f.closes))
}

// Sequential and concurrent double closes must yield exactly one real close
// of the resource.
func TestDoubleCloseYieldsOneRealClose(t *testing.T) {
	f := &fileLike{}
	e, err := ioexec.New(f, 2)
	require.NoError(t, err)

	require.NoError(t, e.Close(0))
	require.ErrorIs(t, e.Close(0), ioexec.ErrAlreadyClosing)
	require.ErrorIs(t, e.Close(0), ioexec.ErrAlreadyClosing)
	require.Equal(t, int32(1), atomic.LoadInt32(&f.closes))
}
