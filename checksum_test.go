package drivekit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateChecksum(t *testing.T) {
	tests := []struct {
		algorithm ChecksumAlgorithm
		want      string
	}{
		{ChecksumMD5, "5d41402abc4b2a76b9719d911017c592"},
		{ChecksumSHA1, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"},
		{ChecksumSHA256, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
		{ChecksumCRC32, "3610a686"},
	}
	for _, tt := range tests {
		t.Run(string(tt.algorithm), func(t *testing.T) {
			got, err := CalculateChecksum(strings.NewReader("hello"), tt.algorithm)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		_, err := CalculateChecksum(strings.NewReader("hello"), "crc64")
		assert.ErrorIs(t, err, ErrNotSupported)
	})
}

func TestNewHasherSizes(t *testing.T) {
	sizes := map[ChecksumAlgorithm]int{
		ChecksumMD5:    16,
		ChecksumSHA1:   20,
		ChecksumSHA256: 32,
		ChecksumSHA512: 64,
		ChecksumCRC32:  4,
		ChecksumXXHash: 8,
		ChecksumBLAKE3: 32,
	}
	for alg, size := range sizes {
		h, err := NewHasher(alg)
		require.NoError(t, err, alg)
		assert.Equal(t, size, h.Size(), alg)
	}
}

func TestChecksumRoundTrip(t *testing.T) {
	for _, alg := range []ChecksumAlgorithm{ChecksumXXHash, ChecksumBLAKE3, ChecksumSHA256, ChecksumCRC32} {
		t.Run(string(alg), func(t *testing.T) {
			leaf := newRecordDriver()
			d, err := NewChecksum(leaf, Settings{"algorithm": string(alg)})
			require.NoError(t, err)
			assert.Equal(t, alg, d.Algorithm())

			require.NoError(t, d.Send("payload"))
			require.NoError(t, d.Send([]byte{}))

			got, err := d.Receive(MaxSize)
			require.NoError(t, err)
			assert.Equal(t, []byte("payload"), got)

			got, err = d.Receive(MaxSize)
			require.NoError(t, err)
			assert.Equal(t, []byte{}, got)
		})
	}
}

func TestChecksumDetectsCorruption(t *testing.T) {
	leaf := newRecordDriver()
	d, err := NewChecksum(leaf, nil)
	require.NoError(t, err)
	assert.Equal(t, ChecksumXXHash, d.Algorithm())

	require.NoError(t, d.Send("payload"))
	rec := leaf.records[0].([]byte)
	rec[0] ^= 0xff

	_, err = d.Receive(MaxSize)
	assert.True(t, IsDecoding(err))
}

func TestChecksumErrors(t *testing.T) {
	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := NewChecksum(newRecordDriver(), Settings{"algorithm": "crc64"})
		assert.True(t, IsConfiguration(err))
	})

	t.Run("record shorter than digest", func(t *testing.T) {
		d, err := NewChecksum(newRecordDriver([]byte("abc")), nil)
		require.NoError(t, err)
		_, err = d.Receive(MaxSize)
		assert.True(t, IsDecoding(err))
	})

	t.Run("unsupported payload", func(t *testing.T) {
		d, err := NewChecksum(newRecordDriver(), nil)
		require.NoError(t, err)
		assert.True(t, IsEncoding(d.Send(1)))
	})
}

func TestChecksumFailedReconfigureKeepsState(t *testing.T) {
	d, err := NewChecksum(newRecordDriver(), Settings{"algorithm": "sha256"})
	require.NoError(t, err)

	err = d.Reconfigure(Settings{"algorithm": "crc7"})
	assert.True(t, IsConfiguration(err))
	assert.Equal(t, ChecksumSHA256, d.Algorithm())
	assert.Equal(t, Settings{"algorithm": "sha256"}, d.settings)
}
