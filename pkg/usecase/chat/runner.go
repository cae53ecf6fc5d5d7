package chat

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/agentfactor/cryptoassist/pkg/adapter"
	"github.com/agentfactor/cryptoassist/pkg/tool"
	"github.com/agentfactor/cryptoassist/pkg/utils/logging"
)

// Tool call limit per turn
const maxToolIterations = 8

// runAgent drives one agent execution: it sends the user input with the
// assembled instructions, executes any tool calls the model makes, feeds the
// results back, and returns the final text output.
func runAgent(ctx context.Context, gemini adapter.Gemini, registry *tool.Registry, instructions, userInput string) (string, error) {
	logger := logging.From(ctx)

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instructions, ""),
	}
	if specs := registry.Specs(); len(specs) > 0 {
		config.Tools = specs
	}

	contents := []*genai.Content{
		genai.NewContentFromText(userInput, genai.RoleUser),
	}

	var lastText string

	for i := 0; i < maxToolIterations; i++ {
		resp, err := gemini.GenerateContent(ctx, contents, config)
		if err != nil {
			return "", goerr.Wrap(err, "failed to generate content")
		}

		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", goerr.New("agent returned an empty response")
		}

		content := resp.Candidates[0].Content
		contents = append(contents, content)

		var text strings.Builder
		var functionResponses []*genai.Part

		for _, part := range content.Parts {
			if part == nil {
				continue
			}

			if part.Text != "" {
				text.WriteString(part.Text)
			}

			if part.FunctionCall != nil {
				logger.Debug("executing tool", "name", part.FunctionCall.Name, "iteration", i+1)

				funcResp, execErr := registry.Execute(ctx, *part.FunctionCall)
				if execErr != nil {
					logger.Warn("tool execution failed",
						"name", part.FunctionCall.Name, "error", execErr)
					funcResp = &genai.FunctionResponse{
						Name:     part.FunctionCall.Name,
						Response: map[string]any{"error": execErr.Error()},
					}
				}

				functionResponses = append(functionResponses, &genai.Part{FunctionResponse: funcResp})
			}
		}

		if text.Len() > 0 {
			lastText = text.String()
		}

		if len(functionResponses) == 0 {
			if lastText == "" {
				return "", goerr.New("agent produced no text output")
			}
			return lastText, nil
		}

		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: functionResponses,
		})
	}

	if lastText == "" {
		return "", goerr.New("tool call limit reached without a final answer",
			goerr.V("limit", maxToolIterations))
	}
	return lastText, nil
}
