package drivekit

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	gojson "github.com/goccy/go-json"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format marshals structured values to bytes and back.
// Implementations must be safe for concurrent use.
type Format interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// FormatByName returns a built-in format by its stable name.
func FormatByName(name string) (Format, bool) {
	switch name {
	case "", "json", "go-json":
		return JSONFormat{}, true
	case "jsonc":
		return JSONCFormat{}, true
	case "cbor":
		return CBORFormat{}, true
	case "yaml":
		return YAMLFormat{}, true
	default:
		return nil, false
	}
}

// JSONFormat emits single-line JSON without HTML escaping, so records stay
// on one line and non-ASCII text is written as is.
type JSONFormat struct{}

func (JSONFormat) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := gojson.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (JSONFormat) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

func (JSONFormat) Name() string { return "json" }

// JSONCFormat writes plain JSON but also accepts comments and trailing
// commas when decoding, which helps with hand-edited record files.
type JSONCFormat struct{}

func (JSONCFormat) Marshal(v any) ([]byte, error) { return JSONFormat{}.Marshal(v) }

func (JSONCFormat) Unmarshal(data []byte, v any) error {
	return gojson.Unmarshal(jsonc.ToJSON(data), v)
}

func (JSONCFormat) Name() string { return "jsonc" }

// cborEnc uses Core Deterministic Encoding: same logical data always
// produces identical bytes.
var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("drivekit: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{
		// any-typed targets decode maps as map[string]any, like JSON does
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("drivekit: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBORFormat is a binary format. Put a Base64 driver below it when the leaf
// is line-framed.
type CBORFormat struct{}

func (CBORFormat) Marshal(v any) ([]byte, error) { return cborEnc.Marshal(v) }

func (CBORFormat) Unmarshal(data []byte, v any) error { return cborDec.Unmarshal(data, v) }

func (CBORFormat) Name() string { return "cbor" }

// YAMLFormat produces multi-line output. Put a Base64 driver below it when
// the leaf is line-framed.
type YAMLFormat struct{}

func (YAMLFormat) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

func (YAMLFormat) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }

func (YAMLFormat) Name() string { return "yaml" }

// Codec encodes structured values (maps, slices, structs) with a Format on
// the way down and decodes them on the way up.
//
// A nil value has no record form: a (nil, nil) Receive means end of stream.
// Send rejects nil with ErrEncoding and Receive reports a record that
// decodes to nil (null, ~) as ErrDecoding.
//
// Over a line-framed leaf such as the File driver, either put a Base64
// driver below the Codec or set appendLF. Without one of them consecutive
// JSON records share a line and the next Receive cannot decode it.
//
// Settings:
//   - codec (string, default "json"): json, go-json, jsonc, cbor or yaml
//   - appendLF (bool, default false): terminate each record with a line feed
type Codec struct {
	deeper   Driver
	settings Settings
	format   Format
	appendLF bool
}

// NewCodec creates a Codec driver over deeper.
func NewCodec(deeper Driver, settings Settings) (*Codec, error) {
	if err := requireDeeper("codec", deeper); err != nil {
		return nil, err
	}
	d := &Codec{deeper: deeper}
	if err := d.Reconfigure(settings); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Codec) Reconfigure(settings Settings) error {
	s := settings.Clone()

	name, err := s.String("codec")
	if err != nil {
		return NewError("codec", "reconfigure", ErrConfiguration, err)
	}
	format, ok := FormatByName(name)
	if !ok {
		return NewError("codec", "reconfigure", ErrConfiguration, fmt.Errorf("unknown codec %q", name))
	}
	appendLF, err := s.Bool("appendLF", false)
	if err != nil {
		return NewError("codec", "reconfigure", ErrConfiguration, err)
	}

	d.settings = s
	d.format = format
	d.appendLF = appendLF
	return nil
}

// Format returns the active format.
func (d *Codec) Format() Format {
	return d.format
}

func (d *Codec) Send(data any) error {
	if isNil(data) {
		return NewError("codec", "send", ErrEncoding, errNilRecord)
	}
	out, err := d.format.Marshal(data)
	if err != nil {
		return NewError("codec", "send", ErrEncoding, fmt.Errorf("%s: %w", d.format.Name(), err))
	}
	if d.appendLF {
		out = append(out, '\n')
	}
	return d.deeper.Send(out)
}

func (d *Codec) Receive(size int) (any, error) {
	var out any
	ok, err := d.ReceiveInto(size, &out)
	if err != nil || !ok {
		return nil, err
	}
	if out == nil {
		return nil, NewError("codec", "receive", ErrDecoding, errNilRecord)
	}
	return out, nil
}

// ReceiveInto decodes the next record into v. It reports false when the
// chain is exhausted, leaving v untouched.
func (d *Codec) ReceiveInto(size int, v any) (bool, error) {
	in, err := d.deeper.Receive(size)
	if err != nil || in == nil {
		return false, err
	}
	raw, ok := ToBytes(in)
	if !ok {
		return false, NewError("codec", "receive", ErrDecoding, fmt.Errorf("unsupported type %T", in))
	}
	if err := d.format.Unmarshal(raw, v); err != nil {
		return false, NewError("codec", "receive", ErrDecoding, fmt.Errorf("%s: %w", d.format.Name(), err))
	}
	return true, nil
}

var errNilRecord = errors.New("nil record")

// isNil reports whether v would marshal to a null record.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func (d *Codec) Close() error {
	return d.deeper.Close()
}
