package services

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidInput       = errors.New("invalid input")

	ErrEntryNotFound   = errors.New("vault entry not found")
	ErrEntryReverted   = errors.New("vault entry has been reverted")
	ErrAlreadyReverted = errors.New("vault entry is already reverted")
	ErrRestoreFailed   = errors.New("original message could not be restored upstream")
)
