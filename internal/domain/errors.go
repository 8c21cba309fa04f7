package domain

import "errors"

var (
	// ErrInvalidArgument marks caller input the service refuses to guess about (language, tier, ids).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrSessionNotFound is returned when a live attempt has not been started or was already submitted.
	ErrSessionNotFound = errors.New("attempt session not found")
	// ErrSessionExpired is returned when an answer arrives after the attempt deadline.
	ErrSessionExpired = errors.New("attempt session expired")
	// ErrAttemptNotFound indicates no stored attempt exists for the id.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptExists is returned when persisting an attempt id twice.
	ErrAttemptExists = errors.New("attempt already exists")
)
