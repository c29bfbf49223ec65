package entity

import "errors"

var (
	ErrAlreadyRunning      = errors.New("agent run already in progress")
	ErrUnsupportedProvider = errors.New("unsupported llm provider")
	ErrSessionNotStarted   = errors.New("browser session not started")
	ErrElementNotFound     = errors.New("element not found")
	ErrInvalidURL          = errors.New("invalid url")
	ErrUnknownAction       = errors.New("unknown action")
)
