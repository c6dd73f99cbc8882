package sqlstore

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// SQLite's LOWER folds ASCII only. unicodeLower is used instead on that
// dialect so keyword search matches accented names.
const unicodeLower = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(unicodeLower, 1, foldLower)
}

func foldLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	}
	return args[0], nil
}

// lowerFunc names the case folding function for the dialect of the handle.
func lowerFunc(dialect string) string {
	if dialect == "sqlite" {
		return unicodeLower
	}
	return "LOWER"
}
