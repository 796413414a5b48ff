package models

import "errors"

var (
	// ErrNotFound is returned for unknown product codes, receptions, audits or users.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCode indicates a catalog create collided with an existing code.
	ErrDuplicateCode = errors.New("duplicate product code")

	// ErrValidation covers missing fields, malformed spreadsheets, non-numeric
	// quantities and inverted date ranges.
	ErrValidation = errors.New("validation error")

	// ErrStorage wraps any persistence failure.
	ErrStorage = errors.New("storage error")

	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the session role may not call the operation.
	ErrForbidden = errors.New("forbidden")
)
