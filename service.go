package drivekit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobeaver/beaver-kit/config"
)

// Builder loads a Config from the environment with a custom prefix
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Config loads the configuration using the builder's prefix
func (b *Builder) Config() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Stack wraps leaf with the layers enabled in cfg. From the root down the
// chain is:
//
//	ReadOnly? -> Codec? -> Compression? -> Encryption? -> Checksum? -> Base64 -> leaf
//
// Base64 is always present so binary layers stay safe over a line-framed
// leaf. On failure the layers built so far are closed, which closes leaf.
func Stack(leaf Driver, cfg *Config, logger *Logger) (Driver, error) {
	if leaf == nil {
		return nil, NewError("stack", "new", ErrConfiguration, errors.New("leaf driver is required"))
	}
	if cfg == nil {
		cfg = &Config{AppendLF: true}
	}
	if logger == nil {
		logger = NoopLogger()
	}

	return buildStack(leaf, cfg, logger)
}

func buildStack(leaf Driver, cfg *Config, logger *Logger) (Driver, error) {
	var chain Driver = leaf
	layers := []string{}

	wrap := func(name string, build func(Driver) (Driver, error)) error {
		next, err := build(chain)
		if err != nil {
			chain.Close()
			return fmt.Errorf("failed to create %s driver: %w", name, err)
		}
		chain = next
		layers = append(layers, name)
		return nil
	}

	if err := wrap("base64", func(d Driver) (Driver, error) {
		return NewBase64(d, Settings{"appendLF": cfg.AppendLF, "encoding": cfg.Base64Encoding})
	}); err != nil {
		return nil, err
	}

	if cfg.Checksum != "" {
		if err := wrap("checksum", func(d Driver) (Driver, error) {
			return NewChecksum(d, Settings{"algorithm": cfg.Checksum})
		}); err != nil {
			return nil, err
		}
	}

	// Wrap with encryption if enabled
	if cfg.EncryptionEnabled {
		if err := wrap("encryption", func(d Driver) (Driver, error) {
			settings := Settings{"key": cfg.EncryptionKey, "algorithm": cfg.EncryptionAlgorithm}
			if recipients := splitList(cfg.EncryptionRecipients); len(recipients) > 0 {
				settings["recipients"] = recipients
			}
			return NewEncryption(d, settings)
		}); err != nil {
			return nil, err
		}
	}

	if cfg.Compression != "" {
		if err := wrap("compression", func(d Driver) (Driver, error) {
			return NewCompression(d, Settings{"algorithm": cfg.Compression})
		}); err != nil {
			return nil, err
		}
	}

	if cfg.Codec != "" {
		if err := wrap("codec", func(d Driver) (Driver, error) {
			return NewCodec(d, Settings{"codec": cfg.Codec})
		}); err != nil {
			return nil, err
		}
	}

	if cfg.ReadOnly {
		if err := wrap("readonly", func(d Driver) (Driver, error) {
			return NewReadOnly(d, nil)
		}); err != nil {
			return nil, err
		}
	}

	logger.Debug("driver chain assembled", "layers", layers)
	return chain, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
