package drivekit

import (
	"context"
)

// ============================================================================
// ReadOnly Driver
// ============================================================================

// ReadOnly wraps a Driver to reject every Send while passing Receive through
// untouched. This is useful for:
// - Handing a chain to code that should only consume records
// - Replaying a record file without risking appends to it
//
// Example:
//
//	leaf, _ := file.New(drivekit.Settings{"filename": "records.dat"})
//	chain, _ := drivekit.NewBase64(leaf, nil)
//	reader, _ := drivekit.NewReadOnly(chain, nil)
//
//	// Receive works normally
//	rec, _ := reader.Receive(drivekit.MaxSize)
//
//	// Send returns an error matching ErrReadOnly
//	err := reader.Send("x")
//
// ReadOnly recognizes no settings.
type ReadOnly struct {
	deeper   Driver
	settings Settings
	opts     ReadOnlyOptions
}

// ReadOnlyOptions configures the ReadOnly behavior.
type ReadOnlyOptions struct {
	// OnSendAttempt is called when a send is attempted.
	// If nil, the default behavior returns ErrReadOnly.
	// If this function returns nil, the send is allowed (use carefully).
	OnSendAttempt func(data any) error
}

// ReadOnlyOption is a functional option for configuring ReadOnly.
type ReadOnlyOption func(*ReadOnlyOptions)

// WithSendAttemptHandler sets a custom handler for send attempts.
func WithSendAttemptHandler(handler func(data any) error) ReadOnlyOption {
	return func(o *ReadOnlyOptions) {
		o.OnSendAttempt = handler
	}
}

// NewReadOnly creates a read-only wrapper around deeper.
func NewReadOnly(deeper Driver, settings Settings, opts ...ReadOnlyOption) (*ReadOnly, error) {
	if err := requireDeeper("readonly", deeper); err != nil {
		return nil, err
	}
	options := ReadOnlyOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	d := &ReadOnly{deeper: deeper, opts: options}
	if err := d.Reconfigure(settings); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *ReadOnly) Reconfigure(settings Settings) error {
	d.settings = settings.Clone()
	return nil
}

// Unwrap returns the wrapped driver.
func (d *ReadOnly) Unwrap() Driver {
	return d.deeper
}

func (d *ReadOnly) Send(data any) error {
	if d.opts.OnSendAttempt != nil {
		if err := d.opts.OnSendAttempt(data); err != nil {
			return NewError("readonly", "send", ErrReadOnly, err)
		}
		// Handler returned nil, allow the send
		return d.deeper.Send(data)
	}
	return NewError("readonly", "send", ErrReadOnly, nil)
}

func (d *ReadOnly) Receive(size int) (any, error) {
	return d.deeper.Receive(size)
}

func (d *ReadOnly) Close() error {
	return d.deeper.Close()
}

// Watch delegates to the wrapped driver if supported.
func (d *ReadOnly) Watch(ctx context.Context) (ChangeToken, error) {
	if watcher, ok := d.deeper.(CanWatch); ok {
		return watcher.Watch(ctx)
	}
	return nil, NewError("readonly", "watch", ErrNotSupported, nil)
}

var (
	_ Driver   = (*ReadOnly)(nil)
	_ CanWatch = (*ReadOnly)(nil)
)
