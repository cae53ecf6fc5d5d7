package memsearch

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"

	"github.com/agentfactor/cryptoassist/pkg/service/memory"
	"github.com/agentfactor/cryptoassist/pkg/tool"
)

type searchMemoryInput struct {
	Query string `json:"query"`
}

type memSearch struct {
	retriever *memory.Retriever
}

// New creates a new memory search tool
func New() *memSearch {
	return &memSearch{}
}

// Flags returns CLI flags for this tool
func (x *memSearch) Flags() []cli.Flag {
	return nil
}

// Init initializes the tool. It is enabled only when session memory is
// available.
func (x *memSearch) Init(ctx context.Context, client *tool.Client) (bool, error) {
	if client == nil || client.Memory == nil {
		return false, nil
	}
	x.retriever = client.Memory
	return true, nil
}

// Prompt returns additional information to be added to the system prompt
func (x *memSearch) Prompt(ctx context.Context) string {
	return `Use the search_memory tool to recall facts about the user from previous conversations, such as their holdings, preferences, or past questions.`
}

// Spec returns the tool specification for Gemini function calling
func (x *memSearch) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "search_memory",
				Description: "Search for relevant facts about the user from long-term memory",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"query": {
							Type:        genai.TypeString,
							Description: "The query to search for relevant facts",
						},
					},
					Required: []string{"query"},
				},
			},
		},
	}
}

// Execute runs the tool with the given function call
func (x *memSearch) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	paramsJSON, err := json.Marshal(fc.Args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal function arguments")
	}

	var input searchMemoryInput
	if err := json.Unmarshal(paramsJSON, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}
	if input.Query == "" {
		return nil, goerr.New("query must not be empty")
	}

	digest, err := x.retriever.SearchDigest(ctx, input.Query, 0)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search memory")
	}

	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"result": digest},
	}, nil
}
