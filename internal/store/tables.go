package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TableListResult is the result of ListTables.
type TableListResult struct {
	Count  int              `json:"count"`
	Tables []map[string]any `json:"tables"`
}

const defaultListLimit = 200

// CreateTable creates a table from a JSON document like
// {"table":"person","columns":{"id":"INT PRIMARY KEY","name":"VARCHAR(255)"},"if_not_exists":true}.
func (s *Store) CreateTable(ctx context.Context, content string) (string, error) {
	req, err := parseCreateTable(content)
	if err != nil {
		return "", err
	}

	query, err := buildCreateTable(req)
	if err != nil {
		return "", err
	}

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create table %s: %w", req.Table, err)
	}

	s.logger.Info("table created", zap.String("table", req.Table))
	return fmt.Sprintf("table %s created (or already existed)", req.Table), nil
}

// DropTable drops a table from a JSON document like
// {"table":"person","if_exists":true,"cascade":false}.
func (s *Store) DropTable(ctx context.Context, content string) (string, error) {
	req, err := parseDropTable(content)
	if err != nil {
		return "", err
	}

	query, err := buildDropTable(req)
	if err != nil {
		return "", err
	}

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("drop table %s: %w", req.Table, err)
	}

	s.logger.Info("table dropped", zap.String("table", req.Table))
	return fmt.Sprintf("table %s dropped", req.Table), nil
}

// ListTables lists tables from a JSON document like
// {"schema":"public","include_views":false,"pattern":"user","limit":200}.
func (s *Store) ListTables(ctx context.Context, content string) (*TableListResult, error) {
	req, err := parseListTables(content)
	if err != nil {
		return nil, err
	}

	query, params := buildListTables(req)

	var rows []map[string]any
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		r, err := tx.Query(ctx, query, params...)
		if err != nil {
			return err
		}
		rows, err = collectRows(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	return &TableListResult{Count: len(rows), Tables: rows}, nil
}

func buildCreateTable(req CreateTableRequest) (string, error) {
	table, err := quoteIdent(req.Table)
	if err != nil {
		return "", err
	}

	defs := make([]string, 0, len(req.Columns))
	for _, name := range sortedKeys(req.Columns) {
		col, err := quoteIdent(name)
		if err != nil {
			return "", err
		}
		typ := req.Columns[name]
		if err := checkColumnType(typ); err != nil {
			return "", err
		}
		defs = append(defs, col+" "+typ)
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if req.IfNotExists == nil || *req.IfNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(defs, ", "))
	b.WriteString(")")
	return b.String(), nil
}

func buildDropTable(req DropTableRequest) (string, error) {
	table, err := quoteIdent(req.Table)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("DROP TABLE ")
	if req.IfExists == nil || *req.IfExists {
		b.WriteString("IF EXISTS ")
	}
	b.WriteString(table)
	if req.Cascade {
		b.WriteString(" CASCADE")
	}
	return b.String(), nil
}

func buildListTables(req ListTablesRequest) (string, []any) {
	conds := []string{"1=1"}
	var params []any
	n := 0

	if !req.IncludeViews {
		conds = append(conds, "table_type = 'BASE TABLE'")
	}
	if req.Schema != "" {
		n++
		conds = append(conds, fmt.Sprintf("table_schema = $%d", n))
		params = append(params, req.Schema)
	}
	if req.Pattern != "" {
		// Wrap in % when the caller gave no wildcard of their own.
		pattern := req.Pattern
		if !strings.ContainsAny(pattern, "%_") {
			pattern = "%" + pattern + "%"
		}
		n++
		conds = append(conds, fmt.Sprintf("table_name ILIKE $%d", n))
		params = append(params, pattern)
	}

	limit := defaultListLimit
	if req.Limit != nil && *req.Limit > 0 {
		limit = *req.Limit
	}

	query := "SELECT table_schema, table_name, table_type FROM information_schema.tables WHERE " +
		strings.Join(conds, " AND ") +
		" ORDER BY table_schema, table_name" +
		fmt.Sprintf(" LIMIT %d", limit)
	return query, params
}
