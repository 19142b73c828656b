package drivekit

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionAlgorithm names a supported compression algorithm
type CompressionAlgorithm string

const (
	// CompressionZstd gives the best ratio for text-like records
	CompressionZstd CompressionAlgorithm = "zstd"
	// CompressionLZ4 uses the LZ4 frame format
	CompressionLZ4 CompressionAlgorithm = "lz4"
	// CompressionS2 is the fastest option
	CompressionS2 CompressionAlgorithm = "s2"
)

// pipe transforms a whole record. decode performs the inverse of encode.
type pipe struct {
	encode func(data []byte) ([]byte, error)
	decode func(data []byte) ([]byte, error)
	close  func()
}

func newPipe(algorithm CompressionAlgorithm) (*pipe, error) {
	switch algorithm {
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			enc.Close()
			return nil, err
		}
		return &pipe{
			encode: func(b []byte) ([]byte, error) { return enc.EncodeAll(b, nil), nil },
			decode: func(b []byte) ([]byte, error) { return dec.DecodeAll(b, nil) },
			close: func() {
				enc.Close()
				dec.Close()
			},
		}, nil
	case CompressionLZ4:
		return &pipe{encode: lz4Encode, decode: lz4Decode, close: func() {}}, nil
	case CompressionS2:
		return &pipe{
			encode: func(b []byte) ([]byte, error) { return s2.Encode(nil, b), nil },
			decode: func(b []byte) ([]byte, error) { return s2.Decode(nil, b) },
			close:  func() {},
		}, nil
	default:
		return nil, fmt.Errorf("%w: compression algorithm %q", ErrNotSupported, algorithm)
	}
}

func lz4Encode(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(b); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lz4Decode(b []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(b)))
}

// Compression compresses outgoing records and decompresses incoming ones.
// Its output is binary.
//
// Settings:
//   - algorithm (string, default "zstd"): zstd, lz4 or s2
type Compression struct {
	deeper   Driver
	settings Settings
	pipe     *pipe
}

// NewCompression creates a Compression driver over deeper.
func NewCompression(deeper Driver, settings Settings) (*Compression, error) {
	if err := requireDeeper("compression", deeper); err != nil {
		return nil, err
	}
	d := &Compression{deeper: deeper}
	if err := d.Reconfigure(settings); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Compression) Reconfigure(settings Settings) error {
	s := settings.Clone()

	name, err := s.String("algorithm")
	if err != nil {
		return NewError("compression", "reconfigure", ErrConfiguration, err)
	}
	if name == "" {
		name = string(CompressionZstd)
	}
	p, err := newPipe(CompressionAlgorithm(name))
	if err != nil {
		return NewError("compression", "reconfigure", ErrConfiguration, err)
	}

	if d.pipe != nil {
		d.pipe.close()
	}
	d.settings = s
	d.pipe = p
	return nil
}

func (d *Compression) Send(data any) error {
	if d.pipe == nil {
		return NewError("compression", "send", ErrClosed, nil)
	}
	raw, ok := ToBytes(data)
	if !ok {
		return NewError("compression", "send", ErrEncoding, fmt.Errorf("unsupported type %T", data))
	}
	out, err := d.pipe.encode(raw)
	if err != nil {
		return NewError("compression", "send", ErrEncoding, err)
	}
	return d.deeper.Send(out)
}

func (d *Compression) Receive(size int) (any, error) {
	if d.pipe == nil {
		return nil, NewError("compression", "receive", ErrClosed, nil)
	}
	v, err := d.deeper.Receive(size)
	if err != nil || v == nil {
		return nil, err
	}
	raw, ok := ToBytes(v)
	if !ok {
		return nil, NewError("compression", "receive", ErrDecoding, fmt.Errorf("unsupported type %T", v))
	}
	out, err := d.pipe.decode(raw)
	if err != nil {
		return nil, NewError("compression", "receive", ErrDecoding, err)
	}
	if out == nil {
		// Empty record, not end of stream
		out = []byte{}
	}
	return out, nil
}

func (d *Compression) Close() error {
	if d.pipe != nil {
		d.pipe.close()
		d.pipe = nil
	}
	return d.deeper.Close()
}
