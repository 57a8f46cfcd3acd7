package ioexec

import (
	"errors"
	"sync"
	"time"
)

// Registry is a get-or-create convenience mapping resource identifiers to
// executors. It sits on top of the core: the lock-guarded check-then-insert
// here is deliberately separate from the executor's own state machine.
//
// The zero value is not usable; construct via NewRegistry.
type Registry struct {
	mu        sync.Mutex
	executors map[string]*Executor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]*Executor)}
}

// GetOrCreate returns the executor registered under key, building and
// registering one via build on first use. build runs under the registry
// lock, so exactly one executor is ever created per key; keep it cheap. A
// build failure leaves the key unregistered.
func (r *Registry) GetOrCreate(key string, build func() (*Executor, error)) (*Executor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.executors[key]; ok {
		return e, nil
	}
	e, err := build()
	if err != nil {
		return nil, err
	}
	r.executors[key] = e
	return e, nil
}

// Get returns the executor registered under key, if any.
func (r *Registry) Get(key string) (*Executor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.executors[key]
	return e, ok
}

// Remove unregisters key without closing its executor. Returns the removed
// executor, if any; the caller owns its shutdown.
func (r *Registry) Remove(key string) (*Executor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.executors[key]
	if ok {
		delete(r.executors, key)
	}
	return e, ok
}

// CloseAll closes every registered executor with the given per-executor
// drain timeout and empties the registry. Executors are closed sequentially;
// the returned error is errors.Join of all close failures.
func (r *Registry) CloseAll(timeout time.Duration) error {
	r.mu.Lock()
	executors := make([]*Executor, 0, len(r.executors))
	for _, e := range r.executors {
		executors = append(executors, e)
	}
	r.executors = make(map[string]*Executor)
	r.mu.Unlock()

	var errs []error
	for _, e := range executors {
		if err := e.Close(timeout); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
