package config

import "errors"

// ErrInvalidConfig is wrapped by every Validate failure; ErrLoadConfig by
// file, env and decode failures in Load.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
