package config

import "errors"

var (
	// ErrInvalidConfig marks values Validate rejects.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks failures reading the file or environment layers.
	ErrLoadConfig = errors.New("load config failed")
)
