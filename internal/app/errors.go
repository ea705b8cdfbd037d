package app

import "errors"

var (
	ErrEmptyInput       = errors.New("question is empty")
	ErrExchangeInFlight = errors.New("a question is already pending")
	ErrNoSelection      = errors.New("no files selected")
	ErrUploadInProgress = errors.New("an upload is already running")
	ErrInvalidDocument  = errors.New("invalid document id")
)
