package domain

import "errors"

var (
	// ErrPaperNotFound signals that no paper exists for the requested id.
	ErrPaperNotFound = errors.New("paper not found")
	// ErrInvalidParameter signals a request parameter that could not be parsed or is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrStorageUnavailable signals a connection or durability failure in the record store.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
