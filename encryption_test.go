package drivekit

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"filippo.io/age"
)

func TestNewEncryption(t *testing.T) {
	validKey := make([]byte, 32)
	if _, err := rand.Read(validKey); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		settings Settings
		wantErr  bool
	}{
		{
			name:     "raw key",
			settings: Settings{"key": validKey},
		},
		{
			name:     "base64 key",
			settings: Settings{"key": base64.StdEncoding.EncodeToString(validKey)},
		},
		{
			name:     "xchacha",
			settings: Settings{"key": validKey, "algorithm": EncryptionXChaCha20Poly1305},
		},
		{
			name:     "missing key",
			settings: Settings{},
			wantErr:  true,
		},
		{
			name:     "short key",
			settings: Settings{"key": []byte("too-short")},
			wantErr:  true,
		},
		{
			name:     "invalid base64",
			settings: Settings{"key": "not base64!"},
			wantErr:  true,
		},
		{
			name:     "unknown algorithm",
			settings: Settings{"key": validKey, "algorithm": "ROT13"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEncryption(newRecordDriver(), tt.settings)
			if tt.wantErr {
				if !IsConfiguration(err) {
					t.Errorf("NewEncryption() error = %v, want configuration error", err)
				}
				return
			}
			if err != nil {
				t.Errorf("NewEncryption() unexpected error = %v", err)
			}
		})
	}
}

func TestEncryptionRoundtrip(t *testing.T) {
	for _, algorithm := range []string{EncryptionAESGCM, EncryptionXChaCha20Poly1305} {
		t.Run(algorithm, func(t *testing.T) {
			leaf := newRecordDriver()
			d, err := NewEncryption(leaf, Settings{"key": testKey, "algorithm": algorithm})
			if err != nil {
				t.Fatal(err)
			}

			payloads := [][]byte{
				[]byte("Hello, World!"),
				{},
				bytes.Repeat([]byte("A"), 64*1024+7),
			}
			for _, p := range payloads {
				if err := d.Send(p); err != nil {
					t.Fatalf("Send() error = %v", err)
				}
			}

			for i, p := range payloads {
				if len(p) > 0 && bytes.Contains(leaf.records[i].([]byte), p) {
					t.Error("record contains plaintext")
				}
				got, err := d.Receive(MaxSize)
				if err != nil {
					t.Fatalf("Receive() error = %v", err)
				}
				if !bytes.Equal(got.([]byte), p) {
					t.Errorf("payload %d mismatch", i)
				}
			}
		})
	}
}

func TestEncryptionNonceIsRandom(t *testing.T) {
	leaf := newRecordDriver()
	d, err := NewEncryption(leaf, Settings{"key": testKey})
	if err != nil {
		t.Fatal(err)
	}
	d.Send("same")
	d.Send("same")
	if bytes.Equal(leaf.records[0].([]byte), leaf.records[1].([]byte)) {
		t.Error("identical payloads produced identical records")
	}
}

func TestEncryptionWrongKey(t *testing.T) {
	leaf := newRecordDriver()
	writer, _ := NewEncryption(leaf, Settings{"key": testKey})
	if err := writer.Send("secret"); err != nil {
		t.Fatal(err)
	}

	otherKey := bytes.Repeat([]byte{7}, 32)
	reader, _ := NewEncryption(leaf, Settings{"key": otherKey})
	_, err := reader.Receive(MaxSize)
	if !IsDecoding(err) {
		t.Errorf("expected decoding error with wrong key, got %v", err)
	}
}

func TestEncryptionCorruptedData(t *testing.T) {
	tests := []struct {
		name   string
		record []byte
	}{
		{"too short", []byte("abc")},
		{"flipped bit", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leaf := newRecordDriver()
			d, _ := NewEncryption(leaf, Settings{"key": testKey})

			if tt.record == nil {
				d.Send("payload")
				rec := leaf.records[0].([]byte)
				rec[len(rec)-1] ^= 0x01
			} else {
				leaf.records = append(leaf.records, tt.record)
			}

			_, err := d.Receive(MaxSize)
			if !IsDecoding(err) {
				t.Errorf("expected decoding error, got %v", err)
			}
		})
	}
}

func TestEncryptionReconfigure(t *testing.T) {
	leaf := newRecordDriver()
	d, _ := NewEncryption(leaf, Settings{"key": testKey})

	if err := d.Reconfigure(Settings{}); !IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if err := d.Send("x"); !IsConfiguration(err) {
		t.Errorf("send after failed reconfigure: expected configuration error, got %v", err)
	}

	if err := d.Reconfigure(Settings{"key": testKey, "algorithm": EncryptionXChaCha20Poly1305}); err != nil {
		t.Fatal(err)
	}
	if err := d.Send("x"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEncryptionRejectsNonBytes(t *testing.T) {
	d, _ := NewEncryption(newRecordDriver(), Settings{"key": testKey})
	if err := d.Send(map[string]any{}); !IsEncoding(err) {
		t.Errorf("expected encoding error, got %v", err)
	}
}

func TestEncryptionAge(t *testing.T) {
	alice, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatal(err)
	}
	bob, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatal(err)
	}

	t.Run("roundtrip to own identity", func(t *testing.T) {
		leaf := newRecordDriver()
		d, err := NewEncryption(leaf, Settings{"algorithm": EncryptionAge, "key": alice.String()})
		if err != nil {
			t.Fatal(err)
		}
		if err := d.Send("hello"); err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(leaf.records[0].([]byte), []byte("age-encryption.org/v1\n")) {
			t.Error("record is not an age file")
		}
		got, err := d.Receive(MaxSize)
		if err != nil {
			t.Fatal(err)
		}
		if string(got.([]byte)) != "hello" {
			t.Errorf("got %q, want hello", got)
		}
	})

	t.Run("peer with another identity", func(t *testing.T) {
		leaf := newRecordDriver()
		writer, err := NewEncryption(leaf, Settings{
			"algorithm":  EncryptionAge,
			"key":        alice.String(),
			"recipients": []string{alice.Recipient().String(), bob.Recipient().String()},
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := writer.Send("for both"); err != nil {
			t.Fatal(err)
		}

		reader, err := NewEncryption(leaf, Settings{"algorithm": EncryptionAge, "key": bob.String()})
		if err != nil {
			t.Fatal(err)
		}
		got, err := reader.Receive(MaxSize)
		if err != nil {
			t.Fatal(err)
		}
		if string(got.([]byte)) != "for both" {
			t.Errorf("got %q, want %q", got, "for both")
		}
	})

	t.Run("not a recipient", func(t *testing.T) {
		leaf := newRecordDriver()
		writer, _ := NewEncryption(leaf, Settings{"algorithm": EncryptionAge, "key": alice.String()})
		writer.Send("alice only")

		reader, _ := NewEncryption(leaf, Settings{"algorithm": EncryptionAge, "key": bob.String()})
		if _, err := reader.Receive(MaxSize); !IsDecoding(err) {
			t.Errorf("expected decoding error, got %v", err)
		}
	})

	t.Run("invalid settings", func(t *testing.T) {
		bad := []Settings{
			{"algorithm": EncryptionAge},
			{"algorithm": EncryptionAge, "key": "AGE-SECRET-KEY-1NOPE"},
			{"algorithm": EncryptionAge, "key": alice.String(), "recipients": []string{"age1invalid"}},
			{"algorithm": EncryptionAge, "key": alice.String(), "recipients": 3},
		}
		for _, settings := range bad {
			if _, err := NewEncryption(newRecordDriver(), settings); !IsConfiguration(err) {
				t.Errorf("NewEncryption(%v) error = %v, want configuration error", settings, err)
			}
		}
	})
}
