package sqlstore

import (
	"database/sql/driver"
	"strings"

	"golang.org/x/text/cases"
	"modernc.org/sqlite"
)

// foldFunc is a SQLite scalar applying Unicode case folding. The built-in
// LOWER only folds ASCII.
const foldFunc = "unicode_fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case nil:
			return nil, nil
		case string:
			return cases.Fold().String(v), nil
		case []byte:
			return cases.Fold().String(string(v)), nil
		default:
			return v, nil
		}
	})
}

// searchExprs returns the case-insensitive title and description match
// expressions for the dialect together with the LIKE pattern for term.
func searchExprs(d Dialect, term string) (title, description, pattern string) {
	if d == DialectSQLite {
		pattern = "%" + escapeLike(cases.Fold().String(term)) + "%"
		return foldFunc + `(b.title) LIKE ? ESCAPE '\'`,
			foldFunc + `(COALESCE(b.description, '')) LIKE ? ESCAPE '\'`,
			pattern
	}
	pattern = "%" + escapeLike(strings.ToLower(term)) + "%"
	return `LOWER(b.title) LIKE ? ESCAPE '\'`,
		`LOWER(COALESCE(b.description, '')) LIKE ? ESCAPE '\'`,
		pattern
}
