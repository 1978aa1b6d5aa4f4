package assistant

import (
	"strings"

	"google.golang.org/genai"
)

// extractText joins the text parts of every candidate. Empty candidates and
// part lists are tolerated; the result may be "".
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var texts []string
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				texts = append(texts, part.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n"))
}

// modelTurn returns the first candidate content, the model's turn to echo
// back when replying with a function response.
func modelTurn(resp *genai.GenerateContentResponse) *genai.Content {
	for _, candidate := range resp.Candidates {
		if candidate != nil && candidate.Content != nil {
			return candidate.Content
		}
	}
	return nil
}

// extractFunctionCall returns the first function call in the response, or
// nil when the model answered with text only.
func extractFunctionCall(resp *genai.GenerateContentResponse) *genai.FunctionCall {
	if resp == nil {
		return nil
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.FunctionCall != nil {
				return part.FunctionCall
			}
		}
	}
	return nil
}
