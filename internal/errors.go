package internal

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrEmptyOrder     = errors.New("order needs a title and at least one product")
	ErrNotFound       = errors.New("order or product not found")
	ErrStaleReference = errors.New("reference points at removed data")
	ErrNoRecords      = errors.New("no records")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOrderFinalized     = errors.New("order is already finalized")
)
