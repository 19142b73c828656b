package drivekit

import (
	"context"
	"math"
)

// MaxSize is the default size hint for Receive.
const MaxSize = math.MaxInt

// Driver is one link in a transformation chain.
//
// Non-leaf drivers transform data in Send before forwarding it to their
// deeper driver, and in Receive they first call the deeper driver's Receive
// with the same size hint, then transform the result. Leaf drivers perform
// the external effect themselves.
//
// The size hint passed to Receive must be forwarded unmodified. Only a leaf
// may interpret it, and each leaf documents whether it honors it as a byte
// count or overrides it with its own framing.
type Driver interface {
	// Send transforms data and forwards it down the chain.
	Send(data any) error

	// Receive reads a value from the chain. A nil value with a nil error
	// signals the end of the stream.
	Receive(size int) (any, error)

	// Reconfigure replaces the settings wholesale and re-runs the
	// driver-specific setup.
	Reconfigure(settings Settings) error

	// Close releases owned resources. Non-leaf drivers close their deeper
	// driver.
	Close() error
}

// ============================================================================
// Optional Capability Interfaces
// ============================================================================

// ChangeToken represents a change notification token.
//
// Consumers can either poll HasChanged or register a callback via
// RegisterChangeCallback.
type ChangeToken interface {
	// HasChanged returns true if a change has occurred.
	// Once true, it remains true (tokens are single-use).
	HasChanged() bool

	// ActiveChangeCallbacks indicates if the token proactively raises callbacks.
	ActiveChangeCallbacks() bool

	// RegisterChangeCallback registers a callback to be invoked when change occurs.
	// Returns a function to unregister the callback.
	RegisterChangeCallback(callback func()) (unregister func())
}

// CanWatch indicates the driver can notify about new data written to its
// medium. Watching is the only operation that runs in the background, and
// only while the returned token is pending and ctx is alive.
//
// Example:
//
//	if watcher, ok := leaf.(drivekit.CanWatch); ok {
//	    token, err := watcher.Watch(ctx)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    token.RegisterChangeCallback(func() {
//	        line, _ := chain.Receive(drivekit.MaxSize)
//	        fmt.Println(line)
//	    })
//	}
type CanWatch interface {
	Watch(ctx context.Context) (ChangeToken, error)
}

// ToBytes converts a []byte or string payload to a byte slice. These are the
// byte-like values that drivers exchange.
func ToBytes(v any) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case string:
		return []byte(b), true
	default:
		return nil, false
	}
}
