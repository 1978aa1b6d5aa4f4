package store

import (
	"fmt"
	"sort"
	"strings"
)

// whereClause renders a simple WHERE grammar: a scalar compares with "=",
// a list becomes "IN (...)" (an empty list renders FALSE so nothing
// matches), and nil becomes "IS NULL". Clauses join with AND. Keys are
// emitted in sorted order so generated SQL is deterministic. argOffset is
// the number of bind parameters already consumed by the caller.
func whereClause(where map[string]any, argOffset int) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	var params []any
	n := argOffset

	for _, key := range keys {
		col, err := quoteIdent(key)
		if err != nil {
			return "", nil, err
		}

		switch val := where[key].(type) {
		case nil:
			clauses = append(clauses, col+" IS NULL")
		case []any:
			if len(val) == 0 {
				clauses = append(clauses, "FALSE")
				continue
			}
			placeholders := make([]string, len(val))
			for i, v := range val {
				n++
				placeholders[i] = fmt.Sprintf("$%d", n)
				params = append(params, v)
			}
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")))
		default:
			n++
			clauses = append(clauses, fmt.Sprintf("%s = $%d", col, n))
			params = append(params, val)
		}
	}

	return " WHERE " + strings.Join(clauses, " AND "), params, nil
}

// sortedKeys returns map keys in sorted order, used wherever column lists
// are rendered so SQL output is stable.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
