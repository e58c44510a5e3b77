package sqldb

import (
	"bytes"
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// SQLite's built-in lower() folds ASCII only. Replacing it on every new
// connection gives sqlite the same Unicode case mapping postgres applies,
// so LOWER(col) LIKE LOWER(?) matches "Über" against "über".
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("lower", 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return bytes.ToLower(v), nil
	default:
		return v, nil
	}
}
