package tool

import (
	"github.com/agentfactor/cryptoassist/pkg/adapter"
	"github.com/agentfactor/cryptoassist/pkg/service/memory"
)

// Client contains shared resources that tools can use
type Client struct {
	Gemini adapter.Gemini
	Memory *memory.Retriever
}
