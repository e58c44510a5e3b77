package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrRowNotFound = errors.New("db: row not found")
)

// Op names used for error context.
const (
	OpPing   = "PING"
	OpSchema = "CREATE"
	OpSelect = "SELECT"
	OpCount  = "COUNT"
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpBegin  = "BEGIN"
	OpCommit = "COMMIT"
	OpGet    = "GET"
	OpSet    = "SET"
	OpIncr   = "INCR"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
