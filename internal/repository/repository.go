package repository

import (
	"database/sql"
	"fmt"
)

func requireRowAffected(result sql.Result, entity string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s update rows: %w", entity, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
