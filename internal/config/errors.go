package config

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("vexsync: invalid config")
	ErrLoadConfig    = errors.New("vexsync: load config failed")
)
