package runs

import "errors"

var (
	ErrNotFound      = errors.New("run not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrTooLarge      = errors.New("file too large")
	ErrExtraction    = errors.New("could not read resume")
	ErrInvalidStatus = errors.New("invalid status transition")
)
