package drivekit

import (
	"bytes"
	"crypto/md5"  //nolint:gosec // MD5 used for checksum verification, not security
	"crypto/sha1" //nolint:gosec // SHA1 used for checksum verification, not security
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// ChecksumAlgorithm represents a supported checksum algorithm
type ChecksumAlgorithm string

const (
	// ChecksumMD5 is the MD5 hash algorithm (128-bit, fast but not cryptographically secure)
	ChecksumMD5 ChecksumAlgorithm = "md5"
	// ChecksumSHA1 is the SHA-1 hash algorithm (160-bit, legacy)
	ChecksumSHA1 ChecksumAlgorithm = "sha1"
	// ChecksumSHA256 is the SHA-256 hash algorithm (256-bit, recommended)
	ChecksumSHA256 ChecksumAlgorithm = "sha256"
	// ChecksumSHA512 is the SHA-512 hash algorithm (512-bit, most secure)
	ChecksumSHA512 ChecksumAlgorithm = "sha512"
	// ChecksumCRC32 is the CRC32 checksum (32-bit, fastest, for integrity only)
	ChecksumCRC32 ChecksumAlgorithm = "crc32"
	// ChecksumXXHash is the xxHash algorithm (64-bit, extremely fast)
	ChecksumXXHash ChecksumAlgorithm = "xxhash"
	// ChecksumBLAKE3 is the BLAKE3 hash algorithm (256-bit, fast and secure)
	ChecksumBLAKE3 ChecksumAlgorithm = "blake3"
)

// NewHasher creates a new hash.Hash for the given algorithm.
// Returns an error if the algorithm is not supported.
func NewHasher(algorithm ChecksumAlgorithm) (hash.Hash, error) {
	switch algorithm {
	case ChecksumMD5:
		return md5.New(), nil //nolint:gosec // MD5 used for checksum verification, not security
	case ChecksumSHA1:
		return sha1.New(), nil //nolint:gosec // SHA1 used for checksum verification, not security
	case ChecksumSHA256:
		return sha256.New(), nil
	case ChecksumSHA512:
		return sha512.New(), nil
	case ChecksumCRC32:
		return crc32.NewIEEE(), nil
	case ChecksumXXHash:
		return xxhash.New(), nil
	case ChecksumBLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported checksum algorithm: %s", ErrNotSupported, algorithm)
	}
}

// CalculateChecksum reads from the reader and calculates the checksum using
// the specified algorithm. Returns the hex-encoded checksum string.
func CalculateChecksum(r io.Reader, algorithm ChecksumAlgorithm) (string, error) {
	h, err := NewHasher(algorithm)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Checksum appends a digest to every outgoing record and verifies it on the
// way back up, so corruption anywhere below is reported as a decoding error
// instead of surfacing as garbage. Its output is binary.
//
// Settings:
//   - algorithm (string, default "xxhash"): any ChecksumAlgorithm
type Checksum struct {
	deeper    Driver
	settings  Settings
	algorithm ChecksumAlgorithm
}

// NewChecksum creates a Checksum driver over deeper.
func NewChecksum(deeper Driver, settings Settings) (*Checksum, error) {
	if err := requireDeeper("checksum", deeper); err != nil {
		return nil, err
	}
	d := &Checksum{deeper: deeper}
	if err := d.Reconfigure(settings); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Checksum) Reconfigure(settings Settings) error {
	s := settings.Clone()

	name, err := s.String("algorithm")
	if err != nil {
		return NewError("checksum", "reconfigure", ErrConfiguration, err)
	}
	algorithm := ChecksumAlgorithm(name)
	if algorithm == "" {
		algorithm = ChecksumXXHash
	}
	if _, err := NewHasher(algorithm); err != nil {
		return NewError("checksum", "reconfigure", ErrConfiguration, err)
	}

	d.settings = s
	d.algorithm = algorithm
	return nil
}

// Algorithm returns the active algorithm.
func (d *Checksum) Algorithm() ChecksumAlgorithm {
	return d.algorithm
}

func (d *Checksum) Send(data any) error {
	raw, ok := ToBytes(data)
	if !ok {
		return NewError("checksum", "send", ErrEncoding, fmt.Errorf("unsupported type %T", data))
	}
	h, err := NewHasher(d.algorithm)
	if err != nil {
		return NewError("checksum", "send", ErrEncoding, err)
	}
	h.Write(raw)

	out := make([]byte, len(raw), len(raw)+h.Size())
	copy(out, raw)
	return d.deeper.Send(h.Sum(out))
}

func (d *Checksum) Receive(size int) (any, error) {
	v, err := d.deeper.Receive(size)
	if err != nil || v == nil {
		return nil, err
	}
	raw, ok := ToBytes(v)
	if !ok {
		return nil, NewError("checksum", "receive", ErrDecoding, fmt.Errorf("unsupported type %T", v))
	}
	h, err := NewHasher(d.algorithm)
	if err != nil {
		return nil, NewError("checksum", "receive", ErrDecoding, err)
	}

	n := len(raw) - h.Size()
	if n < 0 {
		return nil, NewError("checksum", "receive", ErrDecoding, errors.New("record shorter than digest"))
	}
	payload, digest := raw[:n], raw[n:]
	h.Write(payload)
	if !bytes.Equal(h.Sum(nil), digest) {
		return nil, NewError("checksum", "receive", ErrDecoding,
			fmt.Errorf("%s mismatch", d.algorithm))
	}
	return payload, nil
}

func (d *Checksum) Close() error {
	return d.deeper.Close()
}
