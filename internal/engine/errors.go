package engine

import (
	"fmt"
	"strings"
)

const maxSQLInError = 200

// QueryError reports that the database rejected or failed to return the
// result of a query. Err is the underlying driver error.
type QueryError struct {
	SQL string
	Err error
}

func (e *QueryError) Error() string {
	sql := strings.Join(strings.Fields(e.SQL), " ")
	if runes := []rune(sql); len(runes) > maxSQLInError {
		sql = string(runes[:maxSQLInError]) + "..."
	}
	return fmt.Sprintf("error executing query: %v\nSQL: %s", e.Err, sql)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
