// Package assistant routes user messages through Gemini with the database
// operations declared as function tools. A message takes at most two model
// calls: the first may answer directly or request a tool; after the tool
// runs its result is sent back so the model can phrase the final reply.
package assistant

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Config configures the assistant client.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// modelCaller is the slice of the Gemini SDK the assistant uses. Satisfied
// by *genai.Models; tests substitute a fake.
type modelCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client talks to the Gemini API.
type Client struct {
	models      modelCaller
	model       string
	temperature float32
	timeout     time.Duration
	tools       []Tool
	byName      map[string]Tool
	logger      *zap.Logger
}

// New creates an assistant client. The API key is required.
func New(ctx context.Context, cfg Config, tools []Tool, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Name] = t
	}

	return &Client{
		models:      client.Models,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		tools:       tools,
		byName:      byName,
		logger:      logger,
	}, nil
}

// HandleMessage answers a single user message, executing at most one tool
// call in between the two model turns.
func (c *Client) HandleMessage(ctx context.Context, text string) (string, error) {
	// Auto-apply timeout if context has no deadline
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	userContent := genai.NewContentFromText(text, genai.RoleUser)

	first, err := c.generate(ctx, []*genai.Content{userContent})
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}

	call := extractFunctionCall(first)
	if call == nil {
		if reply := extractText(first); reply != "" {
			return reply, nil
		}
		return "The model returned an empty response.", nil
	}

	result := c.runTool(ctx, call)

	reply := genai.NewContentFromParts(
		[]*genai.Part{genai.NewPartFromFunctionResponse(call.Name, result)},
		"tool",
	)

	second, err := c.generate(ctx, []*genai.Content{
		userContent,
		modelTurn(first),
		reply,
	})
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}

	if text := extractText(second); text != "" {
		return text, nil
	}
	if msg, ok := result["message"].(string); ok && msg != "" {
		return msg, nil
	}
	return fmt.Sprintf("%v", result), nil
}

func (c *Client) generate(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(c.temperature),
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}
	if decls := declarations(c.tools); len(decls) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return c.models.GenerateContent(ctx, c.model, contents, cfg)
}

// runTool executes a requested tool and wraps the outcome as a function
// response payload. Tool failures are reported to the model, never returned
// as errors: the conversation continues and the model explains the problem.
func (c *Client) runTool(ctx context.Context, call *genai.FunctionCall) map[string]any {
	tool, ok := c.byName[call.Name]
	if !ok {
		return map[string]any{"ok": false, "error": fmt.Sprintf("unknown tool: %s", call.Name)}
	}

	content := contentArg(call.Args)
	c.logger.Debug("executing tool",
		zap.String("tool", call.Name),
		zap.Int("content_len", len(content)),
	)

	result, err := tool.Run(ctx, content)
	if err != nil {
		c.logger.Warn("tool failed", zap.String("tool", call.Name), zap.Error(err))
		return map[string]any{"ok": false, "error": err.Error()}
	}

	out := map[string]any{"ok": true, "message": result.Message}
	if result.Data != nil {
		out["data"] = result.Data
	}
	return out
}
