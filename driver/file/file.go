// Package file implements the File leaf driver: concurrency-safe file I/O
// with advisory locking, offset control and line-oriented reads.
//
// The driver has a single required setting, filename. The file is opened
// read/write, created if absent and never truncated. An optional perm
// setting sets the mode used when the file is created (default 0644).
//
// Every Write takes an exclusive lock and every Read or GetLine a shared
// one, so independent processes and independent File drivers on the same
// path serialize their operations. Two goroutines sharing one Driver still
// share its cursor and may interleave positioning unless they synchronize
// themselves.
//
// Receive ignores the size hint and returns one line at a time, which is
// the framing that line-terminated layers such as drivekit.Base64 produce.
package file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"sync"

	"github.com/gobeaver/drivekit"
)

const (
	defaultPerm fs.FileMode = 0o644
	lineChunk               = 4096
)

// Driver is the File leaf driver.
type Driver struct {
	// mu guards the handle itself, not the file contents: Reconfigure and
	// Close swap or release f while operations only hold it.
	mu       sync.RWMutex
	settings drivekit.Settings
	filename string
	f        *os.File
	logger   *drivekit.Logger
}

// Option configures a Driver
type Option func(*Driver)

// WithLogger sets the logger used for handle lifecycle events.
func WithLogger(logger *drivekit.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New opens the file named by the filename setting.
func New(settings drivekit.Settings, opts ...Option) (*Driver, error) {
	d := &Driver{logger: drivekit.NoopLogger()}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.WithDriver("file")

	if err := d.Reconfigure(settings); err != nil {
		return nil, err
	}
	return d, nil
}

// Reconfigure closes any open handle, validates the new settings and opens
// the file they name. After a failure the driver has no open handle and
// every operation fails until a successful Reconfigure.
func (d *Driver) Reconfigure(settings drivekit.Settings) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.settings = settings.Clone()
	if err := d.closeLocked(); err != nil {
		d.logger.Warn("closing previous file failed", "path", d.filename, "error", err)
	}
	d.filename = ""

	name, err := d.settings.String("filename")
	if err != nil {
		return d.fail("reconfigure", drivekit.ErrConfiguration, err)
	}
	if name == "" {
		return d.fail("reconfigure", drivekit.ErrConfiguration, errors.New("file driver requires a filename setting"))
	}
	perm, err := filePerm(d.settings["perm"])
	if err != nil {
		return d.fail("reconfigure", drivekit.ErrConfiguration, err)
	}

	d.filename = name
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, perm)
	if err != nil {
		return d.fail("open", drivekit.ErrIO, err)
	}
	d.f = f
	d.logger.Debug("file opened", "path", name)
	return nil
}

// Filename returns the path of the file currently configured.
func (d *Driver) Filename() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.filename
}

// Send appends data to the end of the file. data must be a []byte or a
// string.
func (d *Driver) Send(data any) error {
	raw, ok := drivekit.ToBytes(data)
	if !ok {
		return d.fail("send", drivekit.ErrEncoding, fmt.Errorf("unsupported type %T", data))
	}
	return d.Write(raw, Offset(0), Whence(io.SeekEnd))
}

// Receive returns the next non-empty line, trimmed, or nil at end of file.
// The size hint is ignored in favor of line framing.
func (d *Driver) Receive(size int) (any, error) {
	line, err := d.GetLine(true)
	if err != nil || line == nil {
		return nil, err
	}
	return line, nil
}

// Write writes all of data under an exclusive lock and flushes it to
// storage. Without options it writes at the current cursor.
func (d *Driver) Write(data []byte, opts ...PosOption) error {
	pos, err := newPosition(opts)
	if err != nil {
		return d.fail("write", drivekit.ErrConfiguration, err)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.f == nil {
		return d.fail("write", drivekit.ErrIO, drivekit.ErrClosed)
	}

	return d.withLock(lockExclusive, "write", func() error {
		if err := pos.seek(d.f); err != nil {
			return d.fail("write", drivekit.ErrIO, err)
		}
		n, err := d.f.Write(data)
		if err != nil {
			return d.fail("write", drivekit.ErrIO, err)
		}
		if n < len(data) {
			return d.fail("write", drivekit.ErrIO, io.ErrShortWrite)
		}
		if err := d.f.Sync(); err != nil {
			return d.fail("write", drivekit.ErrIO, err)
		}
		return nil
	})
}

// Read reads up to size bytes under a shared lock. It returns nil at end of
// file. Reading zero bytes anywhere else, including a zero size before the
// end, is an I/O error.
func (d *Driver) Read(size int, opts ...PosOption) ([]byte, error) {
	if size < 0 {
		return nil, d.fail("read", drivekit.ErrConfiguration, fmt.Errorf("invalid size %d", size))
	}
	pos, err := newPosition(opts)
	if err != nil {
		return nil, d.fail("read", drivekit.ErrConfiguration, err)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.f == nil {
		return nil, d.fail("read", drivekit.ErrIO, drivekit.ErrClosed)
	}

	var out []byte
	err = d.withLock(lockShared, "read", func() error {
		if err := pos.seek(d.f); err != nil {
			return d.fail("read", drivekit.ErrIO, err)
		}
		data, err := io.ReadAll(io.LimitReader(d.f, int64(size)))
		if err != nil {
			return d.fail("read", drivekit.ErrIO, err)
		}
		if len(data) > 0 {
			out = data
			return nil
		}

		eof, err := atEOF(d.f)
		if err != nil {
			return d.fail("read", drivekit.ErrIO, err)
		}
		if !eof {
			return d.fail("read", drivekit.ErrIO, errors.New("no data read before end of file"))
		}
		return nil
	})
	return out, err
}

// GetLine reads lines at the cursor under a shared lock. With trim set it
// strips surrounding whitespace, line terminator included, and skips lines
// that end up empty. It returns nil once no non-empty line remains.
//
// The cursor is left just after the returned line.
func (d *Driver) GetLine(trim bool) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.f == nil {
		return nil, d.fail("getline", drivekit.ErrIO, drivekit.ErrClosed)
	}

	var out []byte
	err := d.withLock(lockShared, "getline", func() error {
		for {
			line, eof, err := readLine(d.f)
			if err != nil {
				return d.fail("getline", drivekit.ErrIO, err)
			}
			if trim {
				line = bytes.TrimSpace(line)
			}
			if len(line) > 0 {
				out = line
				return nil
			}
			if eof {
				return nil
			}
		}
	})
	return out, err
}

// Rewind moves the cursor back to the start of the file. It takes no lock,
// so another handle repositioning concurrently is not accounted for.
func (d *Driver) Rewind() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.f == nil {
		return d.fail("rewind", drivekit.ErrIO, drivekit.ErrClosed)
	}
	if _, err := d.f.Seek(0, io.SeekStart); err != nil {
		return d.fail("rewind", drivekit.ErrIO, err)
	}
	return nil
}

// Checksum hashes the whole file under a shared lock without moving the
// cursor.
func (d *Driver) Checksum(algorithm drivekit.ChecksumAlgorithm) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.f == nil {
		return "", d.fail("checksum", drivekit.ErrIO, drivekit.ErrClosed)
	}

	var sum string
	err := d.withLock(lockShared, "checksum", func() error {
		fi, err := d.f.Stat()
		if err != nil {
			return d.fail("checksum", drivekit.ErrIO, err)
		}
		sum, err = drivekit.CalculateChecksum(io.NewSectionReader(d.f, 0, fi.Size()), algorithm)
		if errors.Is(err, drivekit.ErrNotSupported) {
			return d.fail("checksum", drivekit.ErrConfiguration, err)
		}
		if err != nil {
			return d.fail("checksum", drivekit.ErrIO, err)
		}
		return nil
	})
	return sum, err
}

// Close releases the file handle. Closing a driver without an open handle
// is a no-op.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.closeLocked(); err != nil {
		return d.fail("close", drivekit.ErrIO, err)
	}
	return nil
}

func (d *Driver) closeLocked() error {
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	d.logger.Debug("file closed", "path", d.filename)
	return err
}

// withLock holds an advisory lock of the given type around fn. The lock is
// released on every path; a release failure is reported only when fn
// itself succeeded.
func (d *Driver) withLock(how lockType, op string, fn func() error) (err error) {
	if err := lockFile(d.f, how); err != nil {
		return d.fail(op, drivekit.ErrLock, fmt.Errorf("%s lock: %w", how, err))
	}
	defer func() {
		if uerr := unlockFile(d.f); uerr != nil && err == nil {
			err = d.fail(op, drivekit.ErrLock, fmt.Errorf("unlock: %w", uerr))
		}
	}()
	return fn()
}

func (d *Driver) fail(op string, kind, err error) error {
	return &drivekit.DriverError{Op: op, Driver: "file", Path: d.filename, Kind: kind, Err: err}
}

// readLine reads up to and including the next '\n'. It reads in chunks and
// seeks back over whatever followed the terminator, so the OS cursor always
// sits right after the line and no read-ahead state is kept.
func readLine(f *os.File) (line []byte, eof bool, err error) {
	buf := make([]byte, lineChunk)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if i := bytes.IndexByte(buf[:n], '\n'); i >= 0 {
				line = append(line, buf[:i+1]...)
				if _, err := f.Seek(int64(i+1-n), io.SeekCurrent); err != nil {
					return nil, false, err
				}
				return line, false, nil
			}
			line = append(line, buf[:n]...)
		}
		if err == io.EOF {
			return line, true, nil
		}
		if err != nil {
			return nil, false, err
		}
	}
}

func atEOF(f *os.File) (bool, error) {
	off, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, err
	}
	fi, err := f.Stat()
	if err != nil {
		return false, err
	}
	return off >= fi.Size(), nil
}

func filePerm(v any) (fs.FileMode, error) {
	switch p := v.(type) {
	case nil:
		return defaultPerm, nil
	case fs.FileMode:
		return p, nil
	case int:
		return fs.FileMode(p), nil
	case uint32:
		return fs.FileMode(p), nil
	case string:
		n, err := strconv.ParseUint(p, 8, 32)
		if err != nil {
			return 0, fmt.Errorf("setting \"perm\": %w", err)
		}
		return fs.FileMode(n), nil
	default:
		return 0, fmt.Errorf("setting \"perm\": unsupported type %T", v)
	}
}

var (
	_ drivekit.Driver   = (*Driver)(nil)
	_ drivekit.CanWatch = (*Driver)(nil)
)
