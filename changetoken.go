package drivekit

import (
	"context"
	"sync"
)

// CallbackChangeToken is a single-use ChangeToken. Leaf drivers signal it
// when new data reaches their medium.
type CallbackChangeToken struct {
	mu        sync.Mutex
	changed   bool
	nextID    int
	callbacks map[int]func()
}

// NewCallbackChangeToken creates a pending token.
func NewCallbackChangeToken() *CallbackChangeToken {
	return &CallbackChangeToken{callbacks: make(map[int]func())}
}

func (t *CallbackChangeToken) HasChanged() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.changed
}

func (t *CallbackChangeToken) ActiveChangeCallbacks() bool {
	return true
}

// RegisterChangeCallback registers callback. If the token has already
// changed the callback runs immediately.
func (t *CallbackChangeToken) RegisterChangeCallback(callback func()) (unregister func()) {
	t.mu.Lock()
	if t.changed {
		t.mu.Unlock()
		callback()
		return func() {}
	}
	id := t.nextID
	t.nextID++
	t.callbacks[id] = callback
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.callbacks, id)
		t.mu.Unlock()
	}
}

// SignalChange marks the token as changed and runs the pending callbacks
// outside the lock. Later calls do nothing.
func (t *CallbackChangeToken) SignalChange() {
	t.mu.Lock()
	if t.changed {
		t.mu.Unlock()
		return
	}
	t.changed = true
	callbacks := t.callbacks
	t.callbacks = nil
	t.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
}

// Follow tails a chain: it hands every available record to handle, then
// blocks until leaf reports new data and drains the chain again. The watch is
// armed before each drain, so a record sent while handle runs is never
// missed.
//
// Follow returns ctx.Err() once ctx is done, or the first error from Watch
// or Receive.
//
//	err := drivekit.Follow(ctx, leaf, chain, func(rec any) {
//	    log.Println(rec)
//	})
func Follow(ctx context.Context, leaf CanWatch, chain Driver, handle func(record any)) error {
	for {
		if err := followOnce(ctx, leaf, chain, handle); err != nil {
			return err
		}
	}
}

func followOnce(ctx context.Context, leaf CanWatch, chain Driver, handle func(record any)) error {
	watchCtx, stop := context.WithCancel(ctx)
	defer stop()

	token, err := leaf.Watch(watchCtx)
	if err != nil {
		return err
	}
	changed := make(chan struct{})
	var once sync.Once
	unregister := token.RegisterChangeCallback(func() {
		once.Do(func() { close(changed) })
	})
	defer unregister()

	for {
		rec, err := chain.Receive(MaxSize)
		if err != nil {
			return err
		}
		if rec == nil {
			break
		}
		handle(rec)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-changed:
		return nil
	}
}
