package assistant

import (
	"context"
	"encoding/json"

	"google.golang.org/genai"

	"github.com/dbpilot/dbpilot/internal/store"
)

// Tool is one function the model may call. Every tool takes a single
// "content" argument holding a JSON document; Run receives that document.
type Tool struct {
	Name        string
	Description string
	Run         func(ctx context.Context, content string) (ToolResult, error)
}

// ToolResult is what a tool reports back to the model.
type ToolResult struct {
	Message string
	Data    any
}

// Executor is the database surface the tools need. *store.Store satisfies it.
type Executor interface {
	CreateTable(ctx context.Context, content string) (string, error)
	DropTable(ctx context.Context, content string) (string, error)
	Insert(ctx context.Context, content string) (*store.InsertResult, error)
	Select(ctx context.Context, content string) (*store.SelectResult, error)
	Delete(ctx context.Context, content string) (*store.DeleteResult, error)
	Update(ctx context.Context, content string) (*store.UpdateResult, error)
	ListTables(ctx context.Context, content string) (*store.TableListResult, error)
}

// DatabaseTools declares the seven database operations as tools.
func DatabaseTools(db Executor) []Tool {
	return []Tool{
		{
			Name:        "create_sql_table",
			Description: `Create a SQL table. JSON: {"table":"...","columns":{"col":"TYPE ..."},"if_not_exists":true}`,
			Run: func(ctx context.Context, content string) (ToolResult, error) {
				msg, err := db.CreateTable(ctx, content)
				if err != nil {
					return ToolResult{}, err
				}
				return ToolResult{Message: "Create table result: " + msg}, nil
			},
		},
		{
			Name:        "drop_sql_table",
			Description: `Drop a SQL table. JSON: {"table":"...","if_exists":true,"cascade":false}`,
			Run: func(ctx context.Context, content string) (ToolResult, error) {
				msg, err := db.DropTable(ctx, content)
				if err != nil {
					return ToolResult{}, err
				}
				return ToolResult{Message: msg}, nil
			},
		},
		{
			Name:        "insert_sql_entry",
			Description: `Insert a row. JSON: {"table":"...","values":{"col":val,...}}`,
			Run: func(ctx context.Context, content string) (ToolResult, error) {
				res, err := db.Insert(ctx, content)
				if err != nil {
					return ToolResult{}, err
				}
				return ToolResult{Message: "Inserted", Data: res}, nil
			},
		},
		{
			Name:        "read_sql_entry",
			Description: `Read rows. JSON: {"table":"...","columns":[...],"where":{...},"limit":N}`,
			Run: func(ctx context.Context, content string) (ToolResult, error) {
				res, err := db.Select(ctx, content)
				if err != nil {
					return ToolResult{}, err
				}
				return ToolResult{Message: "Rows", Data: res}, nil
			},
		},
		{
			Name:        "delete_sql_entry",
			Description: `Delete rows (WHERE required). JSON: {"table":"...","where":{...}}`,
			Run: func(ctx context.Context, content string) (ToolResult, error) {
				res, err := db.Delete(ctx, content)
				if err != nil {
					return ToolResult{}, err
				}
				return ToolResult{Message: "Deleted", Data: res}, nil
			},
		},
		{
			Name:        "update_sql_entry",
			Description: `Update rows (WHERE required). JSON: {"table":"...","set":{...},"where":{...}}`,
			Run: func(ctx context.Context, content string) (ToolResult, error) {
				res, err := db.Update(ctx, content)
				if err != nil {
					return ToolResult{}, err
				}
				return ToolResult{Message: "Updated", Data: res}, nil
			},
		},
		{
			Name:        "list_tables",
			Description: `List tables. JSON: {"schema":"public","include_views":false,"pattern":"user","limit":200}`,
			Run: func(ctx context.Context, content string) (ToolResult, error) {
				res, err := db.ListTables(ctx, content)
				if err != nil {
					return ToolResult{}, err
				}
				return ToolResult{Message: "Tables", Data: res}, nil
			},
		},
	}
}

// declarations converts tools to Gemini function declarations.
func declarations(tools []Tool) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		decls[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"content": {
						Type:        genai.TypeString,
						Description: "JSON document",
					},
				},
				Required: []string{"content"},
			},
		}
	}
	return decls
}

// contentArg extracts the "content" argument. Models occasionally pass the
// document as a JSON object instead of a string; re-marshal in that case.
func contentArg(args map[string]any) string {
	raw, ok := args["content"]
	if !ok || raw == nil {
		return ""
	}
	if s, ok := raw.(string); ok {
		return s
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return ""
	}
	return string(b)
}
