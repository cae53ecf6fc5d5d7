package memory

import (
	"context"
	"fmt"
	"strings"
)

// NoRelevantFacts is returned when a memory search yields nothing
const NoRelevantFacts = "I couldn't find any relevant facts about the user."

// Retriever exposes read-only access to session memory for prompt assembly
// and for the memory search tool
type Retriever struct {
	mgr *Manager
}

func NewRetriever(mgr *Manager) *Retriever {
	return &Retriever{mgr: mgr}
}

// Context returns the memory context string for the session
func (x *Retriever) Context(ctx context.Context) (string, error) {
	return x.mgr.GetContext(ctx)
}

// SearchDigest searches the memory graph and renders the results as a
// plain-text digest suitable for feeding back to the agent
func (x *Retriever) SearchDigest(ctx context.Context, query string, limit int) (string, error) {
	facts, err := x.mgr.SearchFacts(ctx, query, limit)
	if err != nil {
		return "", err
	}

	if len(facts) == 0 {
		return NoRelevantFacts, nil
	}

	lines := make([]string, 0, len(facts))
	for _, fact := range facts {
		lines = append(lines, fmt.Sprintf("- %s: %s", fact.Role, fact.Content))
	}

	return "Facts about the user:\n" + strings.Join(lines, "\n"), nil
}
