package drivekit

import (
	"github.com/gobeaver/beaver-kit/config"
)

// Config defines drivekit configuration loaded from the environment.
type Config struct {
	// File driver configuration
	Filename string `env:"DRIVEKIT_FILENAME"`

	// Base64 framing (always present in a stacked chain)
	AppendLF       bool   `env:"DRIVEKIT_APPEND_LF,default:true"`
	Base64Encoding string `env:"DRIVEKIT_BASE64_ENCODING,default:std"`

	// Optional layers, empty means disabled
	Codec       string `env:"DRIVEKIT_CODEC"`       // json, go-json, jsonc, cbor, yaml
	Compression string `env:"DRIVEKIT_COMPRESSION"` // zstd, lz4, s2
	Checksum    string `env:"DRIVEKIT_CHECKSUM"`    // xxhash, blake3, sha256, ...

	// Encryption settings
	EncryptionEnabled    bool   `env:"DRIVEKIT_ENCRYPTION_ENABLED,default:false"`
	EncryptionAlgorithm  string `env:"DRIVEKIT_ENCRYPTION_ALGORITHM,default:AES-256-GCM"`
	EncryptionKey        string `env:"DRIVEKIT_ENCRYPTION_KEY"`        // base64 encoded 32-byte key, or an age identity
	EncryptionRecipients string `env:"DRIVEKIT_ENCRYPTION_RECIPIENTS"` // comma separated age1... keys

	ReadOnly bool `env:"DRIVEKIT_READ_ONLY,default:false"`

	// Logging
	LogLevel  string `env:"DRIVEKIT_LOG_LEVEL,default:info"`
	LogFormat string `env:"DRIVEKIT_LOG_FORMAT,default:text"` // text or json
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Logger builds the logger described by LogLevel and LogFormat.
func (c *Config) Logger() *Logger {
	level := ParseLevel(c.LogLevel)
	if c.LogFormat == "json" {
		return NewJSONLogger(level)
	}
	return NewTextLogger(level)
}
