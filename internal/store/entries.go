package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// InsertResult is the result of Insert.
type InsertResult struct {
	Inserted int              `json:"inserted"`
	Rows     []map[string]any `json:"rows"`
}

// SelectResult is the result of Select.
type SelectResult struct {
	Count int              `json:"count"`
	Rows  []map[string]any `json:"rows"`
}

// DeleteResult is the result of Delete.
type DeleteResult struct {
	Deleted int              `json:"deleted"`
	Rows    []map[string]any `json:"rows"`
}

// UpdateResult is the result of Update.
type UpdateResult struct {
	Updated int              `json:"updated"`
	Rows    []map[string]any `json:"rows"`
}

// Insert adds one row from a JSON document like
// {"table":"person","values":{"id":1,"name":"Mike"}} and returns the
// inserted row.
func (s *Store) Insert(ctx context.Context, content string) (*InsertResult, error) {
	req, err := parseInsert(content)
	if err != nil {
		return nil, err
	}

	query, params, err := buildInsert(req)
	if err != nil {
		return nil, err
	}

	rows, err := s.queryTx(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", req.Table, err)
	}
	return &InsertResult{Inserted: len(rows), Rows: rows}, nil
}

// Select reads rows from a JSON document like
// {"table":"person","columns":["id","name"],"where":{"id":[1,2]},"limit":100}.
func (s *Store) Select(ctx context.Context, content string) (*SelectResult, error) {
	req, err := parseSelect(content)
	if err != nil {
		return nil, err
	}

	query, params, err := buildSelect(req)
	if err != nil {
		return nil, err
	}

	rows, err := s.queryTx(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", req.Table, err)
	}
	return &SelectResult{Count: len(rows), Rows: rows}, nil
}

// Delete removes rows from a JSON document like
// {"table":"person","where":{"id":1}}. WHERE is mandatory; the deleted rows
// are returned.
func (s *Store) Delete(ctx context.Context, content string) (*DeleteResult, error) {
	req, err := parseDelete(content)
	if err != nil {
		return nil, err
	}

	query, params, err := buildDelete(req)
	if err != nil {
		return nil, err
	}

	rows, err := s.queryTx(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("delete from %s: %w", req.Table, err)
	}
	return &DeleteResult{Deleted: len(rows), Rows: rows}, nil
}

// Update modifies rows from a JSON document like
// {"table":"person","set":{"name":"Veli"},"where":{"id":1}}. WHERE is
// mandatory; the updated rows are returned.
func (s *Store) Update(ctx context.Context, content string) (*UpdateResult, error) {
	req, err := parseUpdate(content)
	if err != nil {
		return nil, err
	}

	query, params, err := buildUpdate(req)
	if err != nil {
		return nil, err
	}

	rows, err := s.queryTx(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", req.Table, err)
	}
	return &UpdateResult{Updated: len(rows), Rows: rows}, nil
}

// queryTx runs a row-returning statement inside a transaction.
func (s *Store) queryTx(ctx context.Context, query string, params []any) ([]map[string]any, error) {
	var rows []map[string]any
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		r, err := tx.Query(ctx, query, params...)
		if err != nil {
			return err
		}
		rows, err = collectRows(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func buildInsert(req InsertRequest) (string, []any, error) {
	table, err := quoteIdent(req.Table)
	if err != nil {
		return "", nil, err
	}

	keys := sortedKeys(req.Values)
	cols := make([]string, len(keys))
	placeholders := make([]string, len(keys))
	params := make([]any, len(keys))
	for i, key := range keys {
		col, err := quoteIdent(key)
		if err != nil {
			return "", nil, err
		}
		cols[i] = col
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		params[i] = req.Values[key]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return query, params, nil
}

func buildSelect(req SelectRequest) (string, []any, error) {
	table, err := quoteIdent(req.Table)
	if err != nil {
		return "", nil, err
	}

	colSQL := "*"
	if len(req.Columns) > 0 {
		cols := make([]string, len(req.Columns))
		for i, name := range req.Columns {
			col, err := quoteIdent(name)
			if err != nil {
				return "", nil, err
			}
			cols[i] = col
		}
		colSQL = strings.Join(cols, ", ")
	}

	whereSQL, params, err := whereClause(req.Where, 0)
	if err != nil {
		return "", nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s", colSQL, table, whereSQL)
	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", req.Limit)
	}
	return query, params, nil
}

func buildDelete(req DeleteRequest) (string, []any, error) {
	table, err := quoteIdent(req.Table)
	if err != nil {
		return "", nil, err
	}

	whereSQL, params, err := whereClause(req.Where, 0)
	if err != nil {
		return "", nil, err
	}

	query := fmt.Sprintf("DELETE FROM %s%s RETURNING *", table, whereSQL)
	return query, params, nil
}

func buildUpdate(req UpdateRequest) (string, []any, error) {
	table, err := quoteIdent(req.Table)
	if err != nil {
		return "", nil, err
	}

	keys := sortedKeys(req.Set)
	setClauses := make([]string, len(keys))
	params := make([]any, 0, len(keys)+len(req.Where))
	for i, key := range keys {
		col, err := quoteIdent(key)
		if err != nil {
			return "", nil, err
		}
		setClauses[i] = fmt.Sprintf("%s = $%d", col, i+1)
		params = append(params, req.Set[key])
	}

	whereSQL, whereParams, err := whereClause(req.Where, len(keys))
	if err != nil {
		return "", nil, err
	}
	params = append(params, whereParams...)

	query := fmt.Sprintf("UPDATE %s SET %s%s RETURNING *",
		table, strings.Join(setClauses, ", "), whereSQL)
	return query, params, nil
}
