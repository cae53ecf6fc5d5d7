package websearch

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"

	"github.com/agentfactor/cryptoassist/pkg/adapter"
	"github.com/agentfactor/cryptoassist/pkg/tool"
)

type webSearchInput struct {
	Query string `json:"query"`
}

type webSearch struct {
	gemini adapter.Gemini
}

// New creates a new web search tool
func New() *webSearch {
	return &webSearch{}
}

// Flags returns CLI flags for this tool
func (x *webSearch) Flags() []cli.Flag {
	return nil
}

// Init initializes the tool. It is enabled whenever an agent client is
// available since search runs through the same backend.
func (x *webSearch) Init(ctx context.Context, client *tool.Client) (bool, error) {
	if client == nil || client.Gemini == nil {
		return false, nil
	}
	x.gemini = client.Gemini
	return true, nil
}

// Prompt returns additional information to be added to the system prompt
func (x *webSearch) Prompt(ctx context.Context) string {
	return `When the user asks about current events or live data in the crypto and blockchain space, use the web_search tool. It only accepts blockchain-related queries.`
}

// Spec returns the tool specification for Gemini function calling
func (x *webSearch) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "web_search",
				Description: "Search the web for up-to-date information about blockchain and crypto topics",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"query": {
							Type:        genai.TypeString,
							Description: "The search query",
						},
					},
					Required: []string{"query"},
				},
			},
		},
	}
}

// Execute runs the tool with the given function call. The query is first
// validated as blockchain-related before the search runs.
func (x *webSearch) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	paramsJSON, err := json.Marshal(fc.Args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal function arguments")
	}

	var input webSearchInput
	if err := json.Unmarshal(paramsJSON, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}
	if input.Query == "" {
		return nil, goerr.New("query must be a non-empty string")
	}

	related, err := x.validateQuery(ctx, input.Query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to validate query")
	}
	if !related {
		return nil, goerr.New("blocked query: input was flagged as not related to blockchain",
			goerr.V("query", input.Query))
	}

	answer, err := x.search(ctx, input.Query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run web search")
	}

	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"answer": answer},
	}, nil
}

func (x *webSearch) validateQuery(ctx context.Context, query string) (bool, error) {
	prompt := "Analyze if this input is related to blockchain topics: '" + query + "'. " +
		"Reply ONLY with 'YES' if it is related, or 'NO' if it is not related."

	resp, err := x.gemini.GenerateContent(ctx,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{})
	if err != nil {
		return false, err
	}

	decision := strings.ToUpper(strings.TrimSpace(extractText(resp)))
	return decision != "NO", nil
}

func (x *webSearch) search(ctx context.Context, query string) (string, error) {
	resp, err := x.gemini.GenerateContent(ctx,
		[]*genai.Content{genai.NewContentFromText(query, genai.RoleUser)},
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
		})
	if err != nil {
		return "", err
	}

	answer := extractText(resp)
	if answer == "" {
		return "", goerr.New("search returned no answer", goerr.V("query", query))
	}
	return answer, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
