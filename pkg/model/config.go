package model

import (
	_ "embed"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

//go:embed config/agent.yaml
var defaultAgentConfigRaw []byte

// AgentConfig is the prompt configuration document. Each agent role carries
// a model identifier and its instruction templates.
type AgentConfig struct {
	Orchestrator OrchestratorConfig `yaml:"orchestrator_agent"`
}

// OrchestratorConfig configures the session orchestrator agent.
type OrchestratorConfig struct {
	Model                string `yaml:"model"`
	Instructions         string `yaml:"instructions"`
	MedievalInstructions string `yaml:"medieval_instructions"`
}

// LoadAgentConfig reads an agent configuration YAML from path. An empty
// path loads the embedded default configuration.
func LoadAgentConfig(path string) (*AgentConfig, error) {
	raw := defaultAgentConfigRaw
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read agent config", goerr.V("path", path))
		}
		raw = data
	}

	var cfg AgentConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse agent config", goerr.V("path", path))
	}

	if cfg.Orchestrator.Model == "" {
		return nil, goerr.New("orchestrator_agent.model is required", goerr.V("path", path))
	}
	if cfg.Orchestrator.Instructions == "" {
		return nil, goerr.New("orchestrator_agent.instructions is required", goerr.V("path", path))
	}
	// The stylistic variant falls back to the default instructions
	if cfg.Orchestrator.MedievalInstructions == "" {
		cfg.Orchestrator.MedievalInstructions = cfg.Orchestrator.Instructions
	}

	return &cfg, nil
}
