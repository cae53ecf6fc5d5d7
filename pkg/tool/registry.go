package tool

import (
	"context"
	"strings"

	"github.com/agentfactor/cryptoassist/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

var errToolNotFound = goerr.New("tool not found")

// Registry manages the tools available to the agent. Tools are registered
// up front for flag binding and become callable only after Init enables
// them.
type Registry struct {
	allTools []Tool

	enabled   []Tool
	tools     map[string]Tool
	toolSpecs []*genai.Tool
}

// New creates a new tool registry with the given tools
func New(tools ...Tool) *Registry {
	return &Registry{
		allTools: tools,
		tools:    make(map[string]Tool),
	}
}

// Init initializes every registered tool and keeps the ones that report
// themselves enabled
func (r *Registry) Init(ctx context.Context, client *Client) error {
	logger := logging.From(ctx)

	for _, t := range r.allTools {
		enabled, err := t.Init(ctx, client)
		if err != nil {
			return goerr.Wrap(err, "failed to initialize tool")
		}

		spec := t.Spec()
		if !enabled || spec == nil || len(spec.FunctionDeclarations) == 0 {
			continue
		}

		r.enabled = append(r.enabled, t)
		r.toolSpecs = append(r.toolSpecs, spec)
		for _, fd := range spec.FunctionDeclarations {
			r.tools[fd.Name] = t
			logger.Debug("tool enabled", "name", fd.Name)
		}
	}

	return nil
}

// Specs returns the specifications of enabled tools for Gemini function calling
func (r *Registry) Specs() []*genai.Tool {
	return r.toolSpecs
}

// EnabledTools returns the function names of all enabled tools
func (r *Registry) EnabledTools() []string {
	names := make([]string, 0, len(r.tools))
	for _, spec := range r.toolSpecs {
		for _, fd := range spec.FunctionDeclarations {
			names = append(names, fd.Name)
		}
	}
	return names
}

// Prompts returns the prompts of enabled tools concatenated
func (r *Registry) Prompts(ctx context.Context) string {
	var prompts []string
	for _, t := range r.enabled {
		if prompt := t.Prompt(ctx); prompt != "" {
			prompts = append(prompts, prompt)
		}
	}
	return strings.Join(prompts, "\n\n")
}

// Flags returns the flags of all registered tools, enabled or not
func (r *Registry) Flags() []cli.Flag {
	var flags []cli.Flag
	for _, t := range r.allTools {
		if toolFlags := t.Flags(); toolFlags != nil {
			flags = append(flags, toolFlags...)
		}
	}
	return flags
}

// Execute runs the tool with the given function call
func (r *Registry) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	tool, ok := r.tools[fc.Name]
	if !ok {
		return nil, goerr.Wrap(errToolNotFound, "tool not found", goerr.V("name", fc.Name))
	}

	return tool.Execute(ctx, fc)
}
