package drivekit

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
	"golang.org/x/crypto/chacha20poly1305"
)

// Encryption algorithms
const (
	EncryptionAESGCM            = "AES-256-GCM"
	EncryptionXChaCha20Poly1305 = "XChaCha20-Poly1305"
	EncryptionAge               = "age"
)

// Encryption seals each outgoing record and opens each incoming one. Its
// output is binary.
//
// With the AEAD algorithms a record is the random nonce followed by the
// sealed data, so identical payloads never produce identical records. With
// age each record is a complete age file, which lets peers holding
// different identities read the same stream.
//
// Settings:
//   - algorithm (string, default "AES-256-GCM"): AES-256-GCM,
//     XChaCha20-Poly1305 or age
//   - key (required): for the AEAD algorithms 32 bytes as []byte or a
//     base64 string; for age an AGE-SECRET-KEY-1... identity string
//   - recipients ([]string, age only): age1... public keys to encrypt to,
//     defaults to the recipient of key
type Encryption struct {
	deeper   Driver
	settings Settings
	sealer   sealer
}

// sealer encrypts and decrypts whole records.
type sealer interface {
	seal(plaintext []byte) ([]byte, error)
	open(record []byte) ([]byte, error)
}

// NewEncryption creates an Encryption driver over deeper.
func NewEncryption(deeper Driver, settings Settings) (*Encryption, error) {
	if err := requireDeeper("encryption", deeper); err != nil {
		return nil, err
	}
	d := &Encryption{deeper: deeper}
	if err := d.Reconfigure(settings); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Encryption) Reconfigure(settings Settings) error {
	d.settings = settings.Clone()
	d.sealer = nil

	algorithm, err := d.settings.String("algorithm")
	if err != nil {
		return NewError("encryption", "reconfigure", ErrConfiguration, err)
	}

	var s sealer
	if algorithm == EncryptionAge {
		s, err = newAgeSealer(d.settings)
	} else {
		s, err = newAEADSealer(algorithm, d.settings)
	}
	if err != nil {
		return NewError("encryption", "reconfigure", ErrConfiguration, err)
	}

	d.sealer = s
	return nil
}

func (d *Encryption) Send(data any) error {
	raw, ok := ToBytes(data)
	if !ok {
		return NewError("encryption", "send", ErrEncoding, fmt.Errorf("unsupported type %T", data))
	}
	if d.sealer == nil {
		return NewError("encryption", "send", ErrConfiguration, errors.New("no key configured"))
	}

	out, err := d.sealer.seal(raw)
	if err != nil {
		return NewError("encryption", "send", ErrEncoding, err)
	}
	return d.deeper.Send(out)
}

func (d *Encryption) Receive(size int) (any, error) {
	if d.sealer == nil {
		return nil, NewError("encryption", "receive", ErrConfiguration, errors.New("no key configured"))
	}
	v, err := d.deeper.Receive(size)
	if err != nil || v == nil {
		return nil, err
	}
	raw, ok := ToBytes(v)
	if !ok {
		return nil, NewError("encryption", "receive", ErrDecoding, fmt.Errorf("unsupported type %T", v))
	}

	plaintext, err := d.sealer.open(raw)
	if err != nil {
		return nil, NewError("encryption", "receive", ErrDecoding, err)
	}
	return plaintext, nil
}

func (d *Encryption) Close() error {
	return d.deeper.Close()
}

type aeadSealer struct {
	aead cipher.AEAD
}

func newAEADSealer(algorithm string, settings Settings) (*aeadSealer, error) {
	key, err := settings.Bytes("key")
	if err != nil {
		return nil, err
	}
	// Ensure key is 32 bytes (for AES-256)
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes (got %d bytes)", len(key))
	}

	switch algorithm {
	case "", EncryptionAESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		return &aeadSealer{aead: aead}, nil
	case EncryptionXChaCha20Poly1305:
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return nil, err
		}
		return &aeadSealer{aead: aead}, nil
	default:
		return nil, fmt.Errorf("%w: encryption algorithm %q", ErrNotSupported, algorithm)
	}
}

func (s *aeadSealer) seal(plaintext []byte) ([]byte, error) {
	ns := s.aead.NonceSize()
	nonce := make([]byte, ns, ns+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *aeadSealer) open(record []byte) ([]byte, error) {
	ns := s.aead.NonceSize()
	if len(record) < ns+s.aead.Overhead() {
		return nil, errors.New("record too short")
	}
	return s.aead.Open(make([]byte, 0, len(record)-ns), record[:ns], record[ns:], nil)
}

type ageSealer struct {
	identity   *age.X25519Identity
	recipients []age.Recipient
}

func newAgeSealer(settings Settings) (*ageSealer, error) {
	key, err := settings.String("key")
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, errors.New("age encryption requires an identity in the key setting")
	}
	identity, err := age.ParseX25519Identity(key)
	if err != nil {
		return nil, fmt.Errorf("parsing age identity: %w", err)
	}

	var keys []string
	switch v := settings["recipients"].(type) {
	case nil:
	case []string:
		keys = v
	case string:
		keys = []string{v}
	default:
		return nil, fmt.Errorf("setting \"recipients\": unsupported type %T", v)
	}

	s := &ageSealer{identity: identity}
	if len(keys) == 0 {
		s.recipients = []age.Recipient{identity.Recipient()}
		return s, nil
	}
	for _, k := range keys {
		r, err := age.ParseX25519Recipient(k)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient key %q: %w", k, err)
		}
		s.recipients = append(s.recipients, r)
	}
	return s, nil
}

func (s *ageSealer) seal(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, s.recipients...)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ageSealer) open(record []byte) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(record), s.identity)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
