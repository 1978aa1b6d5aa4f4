package store

import (
	"encoding/json"
	"strings"
)

// Request payloads arrive as JSON documents inside a tool call's "content"
// argument. The shapes mirror the tool descriptions the model sees.

// CreateTableRequest creates a table.
type CreateTableRequest struct {
	Table       string            `json:"table"`
	Columns     map[string]string `json:"columns"`
	IfNotExists *bool             `json:"if_not_exists"`
}

// DropTableRequest drops a table.
type DropTableRequest struct {
	Table    string `json:"table"`
	IfExists *bool  `json:"if_exists"`
	Cascade  bool   `json:"cascade"`
}

// InsertRequest inserts one row.
type InsertRequest struct {
	Table  string         `json:"table"`
	Values map[string]any `json:"values"`
}

// SelectRequest reads rows.
type SelectRequest struct {
	Table   string         `json:"table"`
	Columns []string       `json:"columns"`
	Where   map[string]any `json:"where"`
	Limit   int            `json:"limit"`
}

// DeleteRequest deletes rows. WHERE is mandatory.
type DeleteRequest struct {
	Table string         `json:"table"`
	Where map[string]any `json:"where"`
}

// UpdateRequest updates rows. WHERE is mandatory.
type UpdateRequest struct {
	Table string         `json:"table"`
	Set   map[string]any `json:"set"`
	Where map[string]any `json:"where"`
}

// ListTablesRequest lists tables from information_schema.
type ListTablesRequest struct {
	Schema       string `json:"schema"`
	IncludeViews bool   `json:"include_views"`
	Pattern      string `json:"pattern"`
	Limit        *int   `json:"limit"`
}

// parseContent decodes a JSON object document into dst.
func parseContent(content string, dst any) error {
	if strings.TrimSpace(content) == "" {
		return invalidf("empty content, a JSON document is expected")
	}
	if err := json.Unmarshal([]byte(content), dst); err != nil {
		return invalidf("content is not a valid JSON object: %v", err)
	}
	return nil
}

func parseCreateTable(content string) (CreateTableRequest, error) {
	var req CreateTableRequest
	if err := parseContent(content, &req); err != nil {
		return req, err
	}
	if req.Table == "" {
		return req, invalidf("'table' is required")
	}
	if len(req.Columns) == 0 {
		return req, invalidf("'columns' must be a non-empty object")
	}
	return req, nil
}

func parseDropTable(content string) (DropTableRequest, error) {
	var req DropTableRequest
	if err := parseContent(content, &req); err != nil {
		return req, err
	}
	if req.Table == "" {
		return req, invalidf("'table' is required")
	}
	return req, nil
}

func parseInsert(content string) (InsertRequest, error) {
	var req InsertRequest
	if err := parseContent(content, &req); err != nil {
		return req, err
	}
	if req.Table == "" {
		return req, invalidf("'table' is required")
	}
	if len(req.Values) == 0 {
		return req, invalidf("'values' must be a non-empty object")
	}
	return req, nil
}

func parseSelect(content string) (SelectRequest, error) {
	var req SelectRequest
	if err := parseContent(content, &req); err != nil {
		return req, err
	}
	if req.Table == "" {
		return req, invalidf("'table' is required")
	}
	return req, nil
}

func parseDelete(content string) (DeleteRequest, error) {
	var req DeleteRequest
	if err := parseContent(content, &req); err != nil {
		return req, err
	}
	if req.Table == "" {
		return req, invalidf("'table' is required")
	}
	if len(req.Where) == 0 {
		return req, invalidf("a WHERE clause is mandatory for deletes")
	}
	return req, nil
}

func parseUpdate(content string) (UpdateRequest, error) {
	var req UpdateRequest
	if err := parseContent(content, &req); err != nil {
		return req, err
	}
	if req.Table == "" {
		return req, invalidf("'table' is required")
	}
	if len(req.Set) == 0 {
		return req, invalidf("'set' must be a non-empty object")
	}
	if len(req.Where) == 0 {
		return req, invalidf("a WHERE clause is mandatory for updates")
	}
	return req, nil
}

func parseListTables(content string) (ListTablesRequest, error) {
	var req ListTablesRequest
	if err := parseContent(content, &req); err != nil {
		return req, err
	}
	return req, nil
}
