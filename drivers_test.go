package drivekit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordDriver is an in-memory leaf that keeps every record it receives and
// hands them back one per Receive.
type recordDriver struct {
	records  []any
	pos      int
	sizes    []int
	settings Settings
	closed   int
	sendErr  error
}

func newRecordDriver(records ...any) *recordDriver {
	return &recordDriver{records: records}
}

func (d *recordDriver) Send(data any) error {
	if d.sendErr != nil {
		return d.sendErr
	}
	if b, ok := data.([]byte); ok {
		data = append([]byte(nil), b...)
	}
	d.records = append(d.records, data)
	return nil
}

func (d *recordDriver) Receive(size int) (any, error) {
	d.sizes = append(d.sizes, size)
	if d.pos >= len(d.records) {
		return nil, nil
	}
	v := d.records[d.pos]
	d.pos++
	return v, nil
}

func (d *recordDriver) Reconfigure(settings Settings) error {
	d.settings = settings.Clone()
	return nil
}

func (d *recordDriver) Close() error {
	d.closed++
	return nil
}

var testKey = []byte("0123456789abcdef0123456789abcdef")

// layerFactories builds every non-leaf driver over a deeper driver.
var layerFactories = map[string]func(Driver) (Driver, error){
	"base64":      func(d Driver) (Driver, error) { return NewBase64(d, nil) },
	"codec":       func(d Driver) (Driver, error) { return NewCodec(d, Settings{"codec": "json"}) },
	"compression": func(d Driver) (Driver, error) { return NewCompression(d, nil) },
	"encryption":  func(d Driver) (Driver, error) { return NewEncryption(d, Settings{"key": testKey}) },
	"checksum":    func(d Driver) (Driver, error) { return NewChecksum(d, nil) },
	"readonly":    func(d Driver) (Driver, error) { return NewReadOnly(d, nil) },
}

func TestLayersForwardSizeHint(t *testing.T) {
	for name, factory := range layerFactories {
		t.Run(name, func(t *testing.T) {
			leaf := newRecordDriver()
			d, err := factory(leaf)
			require.NoError(t, err)

			v, err := d.Receive(17)
			require.NoError(t, err)
			assert.Nil(t, v)
			assert.Equal(t, []int{17}, leaf.sizes)

			_, err = d.Receive(MaxSize)
			require.NoError(t, err)
			assert.Equal(t, []int{17, MaxSize}, leaf.sizes)
		})
	}
}

func TestLayersCloseDeeper(t *testing.T) {
	for name, factory := range layerFactories {
		t.Run(name, func(t *testing.T) {
			leaf := newRecordDriver()
			d, err := factory(leaf)
			require.NoError(t, err)
			require.NoError(t, d.Close())
			assert.Equal(t, 1, leaf.closed)
		})
	}
}

func TestLayersRequireDeeper(t *testing.T) {
	for name, factory := range layerFactories {
		t.Run(name, func(t *testing.T) {
			_, err := factory(nil)
			require.Error(t, err)
			assert.True(t, IsConfiguration(err))
		})
	}
}

func TestLayersPropagateSendErrors(t *testing.T) {
	boom := errors.New("boom")
	for name, factory := range layerFactories {
		if name == "readonly" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			leaf := newRecordDriver()
			leaf.sendErr = boom
			d, err := factory(leaf)
			require.NoError(t, err)
			assert.ErrorIs(t, d.Send([]byte(`"x"`)), boom)
		})
	}
}

func TestFullChainRoundTrip(t *testing.T) {
	leaf := newRecordDriver()

	var chain Driver = leaf
	for _, name := range []string{"base64", "checksum", "encryption", "compression", "codec"} {
		next, err := layerFactories[name](chain)
		require.NoError(t, err, name)
		chain = next
	}

	records := []any{
		map[string]any{"user": "ada", "tags": []any{"x", "y"}},
		"plain string",
		[]any{float64(1), true, nil},
	}
	for _, r := range records {
		require.NoError(t, chain.Send(r))
	}
	require.Len(t, leaf.records, len(records))
	for _, r := range leaf.records {
		line := r.([]byte)
		assert.Equal(t, byte('\n'), line[len(line)-1])
	}

	for _, want := range records {
		got, err := chain.Receive(MaxSize)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := chain.Receive(MaxSize)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, chain.Close())
	assert.Equal(t, 1, leaf.closed)
}
