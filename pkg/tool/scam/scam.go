package scam

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"

	"github.com/agentfactor/cryptoassist/pkg/tool"
)

type checkScamInput struct {
	Address string `json:"address"`
}

type scam struct {
	databaseURL string
	httpClient  *http.Client
}

// New creates a new scam address checker tool
func New() *scam {
	return &scam{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Flags returns CLI flags for this tool
func (x *scam) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "scam-database-url",
			Sources:     cli.EnvVars("CRYPTOASSIST_SCAM_DATABASE_URL"),
			Usage:       "URL of the scam address database (JSON)",
			Destination: &x.databaseURL,
		},
	}
}

// Init initializes the tool
func (x *scam) Init(ctx context.Context, client *tool.Client) (bool, error) {
	// Only enable if a database URL is provided
	return x.databaseURL != "", nil
}

// Prompt returns additional information to be added to the system prompt
func (x *scam) Prompt(ctx context.Context) string {
	return `When the user asks whether a crypto wallet address is safe, use the check_scam_address tool to look it up in the scam address database.`
}

// Spec returns the tool specification for Gemini function calling
func (x *scam) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "check_scam_address",
				Description: "Check whether a crypto wallet address is a known scam address",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"address": {
							Type:        genai.TypeString,
							Description: "The wallet address to check",
						},
					},
					Required: []string{"address"},
				},
			},
		},
	}
}

// Execute runs the tool with the given function call
func (x *scam) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	paramsJSON, err := json.Marshal(fc.Args)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal function arguments")
	}

	var input checkScamInput
	if err := json.Unmarshal(paramsJSON, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input parameters")
	}
	if input.Address == "" {
		return nil, goerr.New("address must not be empty")
	}

	addresses, err := x.fetchDatabase(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch scam database")
	}

	_, isScam := addresses[strings.ToLower(input.Address)]

	return &genai.FunctionResponse{
		Name:     fc.Name,
		Response: map[string]any{"is_scam": isScam},
	}, nil
}

// fetchDatabase downloads the scam address list and indexes it by
// lowercased address
func (x *scam) fetchDatabase(ctx context.Context) (map[string]struct{}, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", x.databaseURL, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, goerr.New("scam database returned error",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)))
	}

	var db struct {
		Address []string `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&db); err != nil {
		return nil, goerr.Wrap(err, "failed to decode response")
	}

	addresses := make(map[string]struct{}, len(db.Address))
	for _, addr := range db.Address {
		addresses[strings.ToLower(addr)] = struct{}{}
	}

	return addresses, nil
}
