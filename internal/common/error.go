// Package common defines shared constants and sentinel errors used across
// the Kidsgram server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("an entry already exists for this date")

	// Service-level errors.
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrEntriesUnavailable = errors.New("entries unavailable")

	// Validation errors.
	ErrorValidation = errors.New("validation error")
	ErrEmptyEntry   = errors.New("entry must contain a photo, an audio clip or a note")
	ErrInvalidDate  = errors.New("invalid date")
	ErrForeignMedia = errors.New("media reference does not belong to this entry")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
