package store

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

// collectRows drains a result set into JSON-friendly column→value maps.
func collectRows(rows pgx.Rows) ([]map[string]any, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := []map[string]any{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return out, nil
}
