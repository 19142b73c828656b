// Package memory implements an in-process leaf driver backed by a byte
// buffer. It is useful for tests and for peers that exchange records
// within one process.
//
// Unlike the File driver, the memory driver documents two framings for its
// size hint:
//   - "line" (default): Receive returns the next non-empty trimmed line and
//     ignores the hint, exactly like the File driver
//   - "bytes": Receive honors the hint as a byte count
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/gobeaver/drivekit"
)

// Framing modes
const (
	FramingLine  = "line"
	FramingBytes = "bytes"
)

// Driver is an in-memory byte stream with a read cursor.
// Safe for concurrent use.
//
// Settings:
//   - framing (string, default "line"): line or bytes
//   - data ([]byte or string): initial content
//   - maxSize (int): maximum total size in bytes (0 = unlimited)
type Driver struct {
	mu       sync.Mutex
	settings drivekit.Settings
	framing  string
	maxSize  int
	buf      []byte
	off      int
	closed   bool

	// Watch support
	watchMu sync.Mutex
	watches []*drivekit.CallbackChangeToken
}

// New creates a new in-memory driver.
func New(settings drivekit.Settings) (*Driver, error) {
	d := &Driver{}
	if err := d.Reconfigure(settings); err != nil {
		return nil, err
	}
	return d, nil
}

// Reconfigure replaces the settings and resets the stream to the data
// setting.
func (d *Driver) Reconfigure(settings drivekit.Settings) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.settings = settings.Clone()

	framing, err := d.settings.String("framing")
	if err != nil {
		return drivekit.NewError("memory", "reconfigure", drivekit.ErrConfiguration, err)
	}
	switch framing {
	case "":
		framing = FramingLine
	case FramingLine, FramingBytes:
	default:
		return drivekit.NewError("memory", "reconfigure", drivekit.ErrConfiguration,
			fmt.Errorf("unknown framing %q", framing))
	}

	var maxSize int
	switch v := d.settings["maxSize"].(type) {
	case nil:
	case int:
		maxSize = v
	case int64:
		maxSize = int(v)
	default:
		return drivekit.NewError("memory", "reconfigure", drivekit.ErrConfiguration,
			fmt.Errorf("setting \"maxSize\": unsupported type %T", v))
	}

	var initial []byte
	if v, ok := d.settings["data"]; ok && v != nil {
		raw, ok := drivekit.ToBytes(v)
		if !ok {
			return drivekit.NewError("memory", "reconfigure", drivekit.ErrConfiguration,
				fmt.Errorf("setting \"data\": unsupported type %T", v))
		}
		initial = raw
	}
	if maxSize > 0 && len(initial) > maxSize {
		return drivekit.NewError("memory", "reconfigure", drivekit.ErrConfiguration,
			fmt.Errorf("initial data exceeds maxSize %d", maxSize))
	}

	d.framing = framing
	d.maxSize = maxSize
	d.buf = append([]byte(nil), initial...)
	d.off = 0
	d.closed = false
	return nil
}

// Send appends data to the stream.
func (d *Driver) Send(data any) error {
	raw, ok := drivekit.ToBytes(data)
	if !ok {
		return drivekit.NewError("memory", "send", drivekit.ErrEncoding, fmt.Errorf("unsupported type %T", data))
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return drivekit.NewError("memory", "send", drivekit.ErrIO, drivekit.ErrClosed)
	}
	if d.maxSize > 0 && len(d.buf)+len(raw) > d.maxSize {
		d.mu.Unlock()
		return drivekit.NewError("memory", "send", drivekit.ErrIO, fmt.Errorf("no space left: maxSize %d", d.maxSize))
	}
	d.buf = append(d.buf, raw...)
	d.mu.Unlock()

	d.notifyWatchers()
	return nil
}

// Receive returns the next record according to the framing, or nil when
// the stream is exhausted.
func (d *Driver) Receive(size int) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, drivekit.NewError("memory", "receive", drivekit.ErrIO, drivekit.ErrClosed)
	}

	if d.framing == FramingBytes {
		if size < 0 {
			return nil, drivekit.NewError("memory", "receive", drivekit.ErrConfiguration, fmt.Errorf("invalid size %d", size))
		}
		rest := d.buf[d.off:]
		if len(rest) == 0 {
			return nil, nil
		}
		n := min(size, len(rest))
		out := make([]byte, n)
		copy(out, rest)
		d.off += n
		return out, nil
	}

	for d.off < len(d.buf) {
		rest := d.buf[d.off:]
		end := len(rest)
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			end = i + 1
		}
		d.off += end
		if line := bytes.TrimSpace(rest[:end]); len(line) > 0 {
			return append([]byte(nil), line...), nil
		}
	}
	return nil, nil
}

// Rewind moves the read cursor back to the start.
func (d *Driver) Rewind() {
	d.mu.Lock()
	d.off = 0
	d.mu.Unlock()
}

// Bytes returns a copy of everything sent so far.
func (d *Driver) Bytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.buf...)
}

// Size returns the current stream size in bytes.
func (d *Driver) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buf)
}

// Close drops the content. A closed driver can be revived with Reconfigure.
func (d *Driver) Close() error {
	d.mu.Lock()
	d.closed = true
	d.buf = nil
	d.off = 0
	d.mu.Unlock()
	return nil
}

// Watch returns a token that changes on the next Send.
func (d *Driver) Watch(ctx context.Context) (drivekit.ChangeToken, error) {
	token := drivekit.NewCallbackChangeToken()

	d.watchMu.Lock()
	d.watches = append(d.watches, token)
	d.watchMu.Unlock()

	// Remove the watch when context is cancelled
	context.AfterFunc(ctx, func() {
		d.removeWatch(token)
	})

	return token, nil
}

func (d *Driver) notifyWatchers() {
	d.watchMu.Lock()
	watches := d.watches
	d.watches = nil
	d.watchMu.Unlock()

	for _, token := range watches {
		token.SignalChange()
	}
}

func (d *Driver) removeWatch(token *drivekit.CallbackChangeToken) {
	d.watchMu.Lock()
	defer d.watchMu.Unlock()

	for i, entry := range d.watches {
		if entry == token {
			d.watches[i] = d.watches[len(d.watches)-1]
			d.watches = d.watches[:len(d.watches)-1]
			return
		}
	}
}

var (
	_ drivekit.Driver   = (*Driver)(nil)
	_ drivekit.CanWatch = (*Driver)(nil)
)
