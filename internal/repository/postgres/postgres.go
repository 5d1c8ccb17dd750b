package postgres

import (
	"database/sql"
	"fmt"
)

// requireRow turns a zero-row UPDATE into sql.ErrNoRows so services can map
// it to a 404 instead of silently succeeding.
func requireRow(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for %s: %w", entity, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
