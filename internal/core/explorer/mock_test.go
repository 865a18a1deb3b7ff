package explorer

import (
	"context"
	"sync"

	"github.com/mindforks/tangent/internal/core/graph"
	"github.com/mindforks/tangent/internal/oracle"
)

// MockOracle serves canned batches and explanations and records what
// was asked of it.
type MockOracle struct {
	mu sync.Mutex

	RelatedByTerm     map[string][]graph.GeneratedItem
	ExplanationByTerm map[string]string
	RelatedErr        error
	ExplanationErr    error

	RelatedCalls     []string
	ModesSeen        []oracle.Mode
	ExplanationCalls []string

	// Block, when non-nil, is closed by the test to release in-flight
	// explanation fetches.
	Block chan struct{}
}

func (m *MockOracle) FetchRelated(ctx context.Context, term string, mode oracle.Mode) ([]graph.GeneratedItem, error) {
	m.mu.Lock()
	m.RelatedCalls = append(m.RelatedCalls, term)
	m.ModesSeen = append(m.ModesSeen, mode)
	items := m.RelatedByTerm[term]
	err := m.RelatedErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (m *MockOracle) FetchExplanation(ctx context.Context, term string) (string, error) {
	m.mu.Lock()
	m.ExplanationCalls = append(m.ExplanationCalls, term)
	text, ok := m.ExplanationByTerm[term]
	err := m.ExplanationErr
	block := m.Block
	m.mu.Unlock()
	if block != nil {
		<-block
	}
	if err != nil {
		return "", err
	}
	if !ok {
		return oracle.FallbackExplanation, nil
	}
	return text, nil
}
