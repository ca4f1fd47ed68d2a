package server

import "errors"

// Server-specific errors
var (
	ErrServerClosed         = errors.New("server is closed")
	ErrServerNotRunning     = errors.New("server is not running")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrMaxObserversReached  = errors.New("maximum observers reached")
	ErrWorldNotFound        = errors.New("world not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidConfig        = errors.New("invalid server configuration")
)
