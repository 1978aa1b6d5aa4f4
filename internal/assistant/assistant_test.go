package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/dbpilot/dbpilot/internal/store"
)

func textResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, len(texts))
	for i, t := range texts {
		parts[i] = &genai.Part{Text: t}
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: genai.RoleModel, Parts: parts}},
		},
	}
}

func TestExtractText(t *testing.T) {
	t.Run("joins parts across candidates", func(t *testing.T) {
		resp := textResponse("hello", "world")
		assert.Equal(t, "hello\nworld", extractText(resp))
	})

	t.Run("tolerates nil and empty", func(t *testing.T) {
		assert.Empty(t, extractText(nil))
		assert.Empty(t, extractText(&genai.GenerateContentResponse{}))
		assert.Empty(t, extractText(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{nil, {Content: nil}, {Content: &genai.Content{}}},
		}))
	})

	t.Run("trims whitespace", func(t *testing.T) {
		assert.Equal(t, "hi", extractText(textResponse("  hi \n")))
	})
}

func TestExtractFunctionCall(t *testing.T) {
	t.Run("nil when text only", func(t *testing.T) {
		assert.Nil(t, extractFunctionCall(textResponse("just text")))
		assert.Nil(t, extractFunctionCall(nil))
	})

	t.Run("first call wins", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []*genai.Part{
					{Text: "thinking"},
					{FunctionCall: &genai.FunctionCall{Name: "list_tables"}},
					{FunctionCall: &genai.FunctionCall{Name: "read_sql_entry"}},
				}}},
			},
		}
		call := extractFunctionCall(resp)
		require.NotNil(t, call)
		assert.Equal(t, "list_tables", call.Name)
	})
}

func TestContentArg(t *testing.T) {
	assert.Equal(t, `{"table":"person"}`, contentArg(map[string]any{"content": `{"table":"person"}`}))
	assert.Equal(t, `{"table":"person"}`, contentArg(map[string]any{"content": map[string]any{"table": "person"}}))
	assert.Empty(t, contentArg(map[string]any{}))
	assert.Empty(t, contentArg(map[string]any{"content": nil}))
}

func TestDeclarations(t *testing.T) {
	decls := declarations(DatabaseTools(&fakeExecutor{}))
	require.Len(t, decls, 7)

	names := make([]string, len(decls))
	for i, d := range decls {
		names[i] = d.Name
		require.NotNil(t, d.Parameters)
		assert.Equal(t, genai.TypeObject, d.Parameters.Type)
		assert.Contains(t, d.Parameters.Properties, "content")
		assert.Equal(t, []string{"content"}, d.Parameters.Required)
	}
	assert.Equal(t, []string{
		"create_sql_table", "drop_sql_table", "insert_sql_entry",
		"read_sql_entry", "delete_sql_entry", "update_sql_entry", "list_tables",
	}, names)
}

type fakeExecutor struct {
	lastContent string
	failWith    error
}

func (f *fakeExecutor) CreateTable(_ context.Context, content string) (string, error) {
	f.lastContent = content
	if f.failWith != nil {
		return "", f.failWith
	}
	return "table person created (or already existed)", nil
}

func (f *fakeExecutor) DropTable(_ context.Context, content string) (string, error) {
	f.lastContent = content
	return "table person dropped", f.failWith
}

func (f *fakeExecutor) Insert(_ context.Context, content string) (*store.InsertResult, error) {
	f.lastContent = content
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &store.InsertResult{Inserted: 1, Rows: []map[string]any{{"id": 1}}}, nil
}

func (f *fakeExecutor) Select(_ context.Context, content string) (*store.SelectResult, error) {
	f.lastContent = content
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &store.SelectResult{Count: 0, Rows: []map[string]any{}}, nil
}

func (f *fakeExecutor) Delete(_ context.Context, content string) (*store.DeleteResult, error) {
	f.lastContent = content
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &store.DeleteResult{Deleted: 1}, nil
}

func (f *fakeExecutor) Update(_ context.Context, content string) (*store.UpdateResult, error) {
	f.lastContent = content
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &store.UpdateResult{Updated: 1}, nil
}

func (f *fakeExecutor) ListTables(_ context.Context, content string) (*store.TableListResult, error) {
	f.lastContent = content
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &store.TableListResult{Count: 2, Tables: []map[string]any{
		{"table_name": "person"}, {"table_name": "orders"},
	}}, nil
}

func newTestClient(exec Executor) *Client {
	tools := DatabaseTools(exec)
	byName := make(map[string]Tool, len(tools))
	for _, tool := range tools {
		byName[tool.Name] = tool
	}
	return &Client{tools: tools, byName: byName, logger: zap.NewNop()}
}

func TestRunTool(t *testing.T) {
	ctx := context.Background()

	t.Run("success wraps message and data", func(t *testing.T) {
		exec := &fakeExecutor{}
		c := newTestClient(exec)

		out := c.runTool(ctx, &genai.FunctionCall{
			Name: "insert_sql_entry",
			Args: map[string]any{"content": `{"table":"person","values":{"id":1}}`},
		})

		assert.Equal(t, true, out["ok"])
		assert.Equal(t, "Inserted", out["message"])
		assert.NotNil(t, out["data"])
		assert.Equal(t, `{"table":"person","values":{"id":1}}`, exec.lastContent)
	})

	t.Run("tool error becomes ok=false", func(t *testing.T) {
		exec := &fakeExecutor{failWith: errors.New("boom")}
		c := newTestClient(exec)

		out := c.runTool(ctx, &genai.FunctionCall{
			Name: "read_sql_entry",
			Args: map[string]any{"content": `{"table":"person"}`},
		})

		assert.Equal(t, false, out["ok"])
		assert.Equal(t, "boom", out["error"])
		assert.NotContains(t, out, "data")
	})

	t.Run("unknown tool reported", func(t *testing.T) {
		c := newTestClient(&fakeExecutor{})
		out := c.runTool(ctx, &genai.FunctionCall{Name: "shell_exec"})
		assert.Equal(t, false, out["ok"])
		assert.Contains(t, out["error"], "unknown tool")
	})

	t.Run("object content re-marshalled", func(t *testing.T) {
		exec := &fakeExecutor{}
		c := newTestClient(exec)

		out := c.runTool(ctx, &genai.FunctionCall{
			Name: "list_tables",
			Args: map[string]any{"content": map[string]any{"schema": "public"}},
		})

		assert.Equal(t, true, out["ok"])
		assert.JSONEq(t, `{"schema":"public"}`, exec.lastContent)
	})
}

type fakeModels struct {
	responses []*genai.GenerateContentResponse
	err       error
	calls     [][]*genai.Content
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, contents)
	if f.err != nil {
		return nil, f.err
	}
	turn := len(f.calls) - 1
	if turn >= len(f.responses) {
		return &genai.GenerateContentResponse{}, nil
	}
	return f.responses[turn], nil
}

func toolCallResponse(name, content string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{
				{FunctionCall: &genai.FunctionCall{
					Name: name,
					Args: map[string]any{"content": content},
				}},
			}}},
		},
	}
}

func newChatClient(exec Executor, models modelCaller) *Client {
	c := newTestClient(exec)
	c.models = models
	c.model = "gemini-2.5-flash"
	c.timeout = time.Minute
	return c
}

func TestHandleMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("text-only answer needs one turn", func(t *testing.T) {
		models := &fakeModels{responses: []*genai.GenerateContentResponse{
			textResponse("Hello! How can I help?"),
		}}
		c := newChatClient(&fakeExecutor{}, models)

		reply, err := c.HandleMessage(ctx, "hi")
		require.NoError(t, err)
		assert.Equal(t, "Hello! How can I help?", reply)
		require.Len(t, models.calls, 1)
		require.Len(t, models.calls[0], 1)
		assert.Equal(t, "hi", models.calls[0][0].Parts[0].Text)
	})

	t.Run("tool call runs and the model phrases the reply", func(t *testing.T) {
		exec := &fakeExecutor{}
		models := &fakeModels{responses: []*genai.GenerateContentResponse{
			toolCallResponse("insert_sql_entry", `{"table":"person","values":{"id":1}}`),
			textResponse("Added one person."),
		}}
		c := newChatClient(exec, models)

		reply, err := c.HandleMessage(ctx, "add a person with id 1")
		require.NoError(t, err)
		assert.Equal(t, "Added one person.", reply)
		assert.Equal(t, `{"table":"person","values":{"id":1}}`, exec.lastContent)

		require.Len(t, models.calls, 2)
		second := models.calls[1]
		require.Len(t, second, 3)
		require.NotEmpty(t, second[2].Parts)
		fr := second[2].Parts[0].FunctionResponse
		require.NotNil(t, fr)
		assert.Equal(t, "insert_sql_entry", fr.Name)
		assert.Equal(t, true, fr.Response["ok"])
	})

	t.Run("empty second turn falls back to the tool message", func(t *testing.T) {
		models := &fakeModels{responses: []*genai.GenerateContentResponse{
			toolCallResponse("insert_sql_entry", `{"table":"person","values":{"id":1}}`),
			{},
		}}
		c := newChatClient(&fakeExecutor{}, models)

		reply, err := c.HandleMessage(ctx, "add a person")
		require.NoError(t, err)
		assert.Equal(t, "Inserted", reply)
	})

	t.Run("failed tool with silent model renders the payload", func(t *testing.T) {
		models := &fakeModels{responses: []*genai.GenerateContentResponse{
			toolCallResponse("read_sql_entry", `{"table":"person"}`),
			{},
		}}
		c := newChatClient(&fakeExecutor{failWith: errors.New("connection refused")}, models)

		reply, err := c.HandleMessage(ctx, "show people")
		require.NoError(t, err)
		assert.Contains(t, reply, "connection refused")
	})

	t.Run("empty first response", func(t *testing.T) {
		models := &fakeModels{responses: []*genai.GenerateContentResponse{{}}}
		c := newChatClient(&fakeExecutor{}, models)

		reply, err := c.HandleMessage(ctx, "hi")
		require.NoError(t, err)
		assert.Equal(t, "The model returned an empty response.", reply)
	})

	t.Run("model error surfaces", func(t *testing.T) {
		models := &fakeModels{err: errors.New("quota exceeded")}
		c := newChatClient(&fakeExecutor{}, models)

		_, err := c.HandleMessage(ctx, "hi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model call failed")
	})
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}
