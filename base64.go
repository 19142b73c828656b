package drivekit

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

// Base64 encodes outgoing data as base64 text and decodes what it receives.
//
// Settings:
//   - appendLF (bool, default true): terminate each encoded record with a
//     line feed so a line-framed leaf such as the File driver can read
//     records back one at a time
//   - encoding (string, default "std"): one of std, url, raw-std, raw-url
//
// Empty payloads encode to an empty record, which line-framed leaves skip.
type Base64 struct {
	deeper   Driver
	settings Settings
	appendLF bool
	enc      *base64.Encoding
}

var base64Encodings = map[string]*base64.Encoding{
	"std":     base64.StdEncoding,
	"url":     base64.URLEncoding,
	"raw-std": base64.RawStdEncoding,
	"raw-url": base64.RawURLEncoding,
}

// NewBase64 creates a Base64 driver over deeper.
func NewBase64(deeper Driver, settings Settings) (*Base64, error) {
	if err := requireDeeper("base64", deeper); err != nil {
		return nil, err
	}
	d := &Base64{deeper: deeper}
	if err := d.Reconfigure(settings); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Base64) Reconfigure(settings Settings) error {
	s := settings.Clone()

	appendLF, err := s.Bool("appendLF", true)
	if err != nil {
		return NewError("base64", "reconfigure", ErrConfiguration, err)
	}
	name, err := s.String("encoding")
	if err != nil {
		return NewError("base64", "reconfigure", ErrConfiguration, err)
	}
	if name == "" {
		name = "std"
	}
	enc, ok := base64Encodings[name]
	if !ok {
		return NewError("base64", "reconfigure", ErrConfiguration, fmt.Errorf("unknown encoding %q", name))
	}

	d.settings = s
	d.appendLF = appendLF
	d.enc = enc
	return nil
}

func (d *Base64) Send(data any) error {
	raw, ok := ToBytes(data)
	if !ok {
		return NewError("base64", "send", ErrEncoding, fmt.Errorf("unsupported type %T", data))
	}

	n := d.enc.EncodedLen(len(raw))
	if d.appendLF {
		n++
	}
	out := make([]byte, n)
	d.enc.Encode(out, raw)
	if d.appendLF {
		out[n-1] = '\n'
	}
	return d.deeper.Send(out)
}

func (d *Base64) Receive(size int) (any, error) {
	v, err := d.deeper.Receive(size)
	if err != nil || v == nil {
		return nil, err
	}
	raw, ok := ToBytes(v)
	if !ok {
		return nil, NewError("base64", "receive", ErrDecoding, fmt.Errorf("unsupported type %T", v))
	}

	raw = bytes.TrimSpace(raw)
	out := make([]byte, d.enc.DecodedLen(len(raw)))
	n, err := d.enc.Decode(out, raw)
	if err != nil {
		return nil, NewError("base64", "receive", ErrDecoding, err)
	}
	return out[:n], nil
}

func (d *Base64) Close() error {
	return d.deeper.Close()
}

func requireDeeper(name string, deeper Driver) error {
	if deeper == nil {
		return NewError(name, "new", ErrConfiguration, fmt.Errorf("%s driver requires a deeper driver", name))
	}
	return nil
}
