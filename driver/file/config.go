package file

import (
	"github.com/gobeaver/drivekit"
)

// NewFromConfig opens cfg.Filename and stacks the layers enabled in cfg on
// top of it (see drivekit.Stack).
func NewFromConfig(cfg *drivekit.Config) (drivekit.Driver, error) {
	logger := cfg.Logger()
	leaf, err := New(drivekit.Settings{"filename": cfg.Filename}, WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return drivekit.Stack(leaf, cfg, logger)
}

// NewFromEnv is NewFromConfig with the configuration loaded from the
// environment.
func NewFromEnv() (drivekit.Driver, error) {
	cfg, err := drivekit.GetConfig()
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg)
}
