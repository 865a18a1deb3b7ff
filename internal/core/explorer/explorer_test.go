package explorer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mindforks/tangent/internal/core/graph"
	"github.com/mindforks/tangent/internal/oracle"
)

const (
	waitLong = 2 * time.Second
	waitTick = 5 * time.Millisecond
)

func octopusItems() []graph.GeneratedItem {
	return []graph.GeneratedItem{
		{Label: "Cephalopod", Relation: "is a type of", RelationType: "hierarchical"},
		{Label: "Mimic Octopus", Relation: "related species", RelationType: "neutral"},
	}
}

func newTestExplorer(mock *MockOracle) *Explorer {
	e := New(mock, zap.NewNop().Sugar())
	counter := 0
	e.NewID = func() string {
		counter++
		return fmt.Sprintf("root-%d", counter)
	}
	e.merger = &graph.Merger{
		NewID: func() string {
			counter++
			return fmt.Sprintf("id-%d", counter)
		},
		Jitter: func() float64 { return 0 },
	}
	return e
}

func TestSearch_SeedsRootAndExpandsIt(t *testing.T) {
	mock := &MockOracle{
		RelatedByTerm:     map[string][]graph.GeneratedItem{"Octopus": octopusItems()},
		ExplanationByTerm: map[string]string{"Octopus": "Eight arms, big brain."},
	}
	e := newTestExplorer(mock)

	snap, err := e.Search(context.Background(), "Octopus")
	require.NoError(t, err)

	require.Len(t, snap.Nodes, 3)
	require.Len(t, snap.Edges, 2)
	root := snap.Nodes[0]
	assert.Equal(t, "Octopus", root.Label)
	assert.Equal(t, "Eight arms, big brain.", root.Explanation)
	for _, edge := range snap.Edges {
		assert.Equal(t, root.ID, edge.SourceID)
	}
	assert.Equal(t, root.ID, snap.ActiveNodeID)
	assert.Empty(t, snap.LoadingNodeIDs)
	// The paired fetch hit both oracle endpoints once.
	assert.Equal(t, []string{"Octopus"}, mock.RelatedCalls)
	assert.Equal(t, []string{"Octopus"}, mock.ExplanationCalls)
}

func TestSearch_ResetsPreviousGraph(t *testing.T) {
	mock := &MockOracle{
		RelatedByTerm: map[string][]graph.GeneratedItem{"Octopus": octopusItems()},
	}
	e := newTestExplorer(mock)

	_, err := e.Search(context.Background(), "Octopus")
	require.NoError(t, err)

	snap, err := e.Search(context.Background(), "Mercury")
	require.NoError(t, err)

	// No related items configured for Mercury: just the fresh root.
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, "Mercury", snap.Nodes[0].Label)
	assert.Empty(t, snap.Edges)
}

func TestSearch_PairedFetchFailureLeavesResetRoot(t *testing.T) {
	mock := &MockOracle{RelatedErr: errors.New("oracle down")}
	e := newTestExplorer(mock)

	_, err := e.Search(context.Background(), "Octopus")
	require.Error(t, err)

	// The reset to the root is not rolled back, but no partial merge
	// landed and nothing is left loading.
	snap := e.Snapshot()
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, "Octopus", snap.Nodes[0].Label)
	assert.Empty(t, snap.Edges)
	assert.Empty(t, snap.LoadingNodeIDs)
}

func TestExpand_MergesChildrenAtNodePosition(t *testing.T) {
	mock := &MockOracle{
		RelatedByTerm: map[string][]graph.GeneratedItem{
			"Octopus":    octopusItems(),
			"Cephalopod": {{Label: "Nautilus", Relation: "includes", RelationType: "hierarchical"}},
		},
	}
	e := newTestExplorer(mock)

	snap, err := e.Search(context.Background(), "Octopus")
	require.NoError(t, err)
	ceph := findByLabel(t, snap, "Cephalopod")

	require.NoError(t, e.SetPosition(ceph.ID, graph.Position{X: 300, Y: 120}))

	snap, err = e.Expand(context.Background(), ceph.ID)
	require.NoError(t, err)

	require.Len(t, snap.Nodes, 4)
	nautilus := findByLabel(t, snap, "Nautilus")
	require.NotNil(t, nautilus.Position)
	assert.Equal(t, 300.0, nautilus.Position.X)
	assert.Equal(t, 120.0, nautilus.Position.Y)
	assert.True(t, hasEdge(snap, ceph.ID, nautilus.ID))
}

func TestExpand_EmptyResultIsNoExpansion(t *testing.T) {
	mock := &MockOracle{
		RelatedByTerm: map[string][]graph.GeneratedItem{"Octopus": octopusItems()},
	}
	e := newTestExplorer(mock)

	snap, err := e.Search(context.Background(), "Octopus")
	require.NoError(t, err)
	mimic := findByLabel(t, snap, "Mimic Octopus")

	snap, err = e.Expand(context.Background(), mimic.ID)
	require.NoError(t, err)

	assert.Len(t, snap.Nodes, 3)
	assert.Len(t, snap.Edges, 2)
	assert.Empty(t, snap.LoadingNodeIDs)
}

func TestExpand_UnknownNode(t *testing.T) {
	e := newTestExplorer(&MockOracle{})

	_, err := e.Expand(context.Background(), "no-such-node")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestExplain_FetchesOnceThenServesCache(t *testing.T) {
	mock := &MockOracle{
		RelatedByTerm:     map[string][]graph.GeneratedItem{"Octopus": octopusItems()},
		ExplanationByTerm: map[string]string{"Cephalopod": "A class of molluscs."},
	}
	e := newTestExplorer(mock)

	snap, err := e.Search(context.Background(), "Octopus")
	require.NoError(t, err)
	ceph := findByLabel(t, snap, "Cephalopod")

	text, err := e.Explain(context.Background(), ceph.ID)
	require.NoError(t, err)
	assert.Equal(t, "A class of molluscs.", text)

	text, err = e.Explain(context.Background(), ceph.ID)
	require.NoError(t, err)
	assert.Equal(t, "A class of molluscs.", text)

	// One search explanation for the root, one for the node. The second
	// Explain must be served from the cache.
	assert.Equal(t, []string{"Octopus", "Cephalopod"}, mock.ExplanationCalls)
	assert.Equal(t, ceph.ID, e.Snapshot().ActiveNodeID)
}

func TestExplain_ItemExplanationPreCachesNode(t *testing.T) {
	mock := &MockOracle{
		RelatedByTerm: map[string][]graph.GeneratedItem{
			"Octopus": {{Label: "Cephalopod", Relation: "is a type of", RelationType: "hierarchical", Explanation: "A class of molluscs."}},
		},
	}
	e := newTestExplorer(mock)

	snap, err := e.Search(context.Background(), "Octopus")
	require.NoError(t, err)
	ceph := findByLabel(t, snap, "Cephalopod")

	text, err := e.Explain(context.Background(), ceph.ID)
	require.NoError(t, err)
	assert.Equal(t, "A class of molluscs.", text)
	// Served from the merge-time cache without an oracle round trip.
	assert.Equal(t, []string{"Octopus"}, mock.ExplanationCalls)
}

func TestExplain_StaleResultKeepsLaterActiveNode(t *testing.T) {
	mock := &MockOracle{
		RelatedByTerm: map[string][]graph.GeneratedItem{"Octopus": octopusItems()},
		ExplanationByTerm: map[string]string{
			"Cephalopod":    "A class of molluscs.",
			"Mimic Octopus": "A master of disguise.",
		},
	}
	e := newTestExplorer(mock)

	snap, err := e.Search(context.Background(), "Octopus")
	require.NoError(t, err)
	ceph := findByLabel(t, snap, "Cephalopod")
	mimic := findByLabel(t, snap, "Mimic Octopus")

	// Start a slow fetch for Cephalopod, then click Mimic Octopus
	// while it is in flight.
	block := make(chan struct{})
	mock.mu.Lock()
	mock.Block = block
	mock.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = e.Explain(context.Background(), ceph.ID)
	}()

	// Wait until the slow fetch is registered, then switch nodes.
	require.Eventually(t, func() bool {
		mock.mu.Lock()
		defer mock.mu.Unlock()
		return len(mock.ExplanationCalls) == 2 // root + ceph
	}, waitLong, waitTick)

	mock.mu.Lock()
	mock.Block = nil
	mock.mu.Unlock()
	_, err = e.Explain(context.Background(), mimic.ID)
	require.NoError(t, err)

	close(block)
	<-done

	// The stale result still populated Cephalopod's cache, but the
	// active node stays with the later click.
	snap = e.Snapshot()
	assert.Equal(t, mimic.ID, snap.ActiveNodeID)
	assert.Equal(t, "A class of molluscs.", findByLabel(t, snap, "Cephalopod").Explanation)
}

func TestSetMode_AffectsSubsequentFetchesOnly(t *testing.T) {
	mock := &MockOracle{
		RelatedByTerm: map[string][]graph.GeneratedItem{"Octopus": octopusItems()},
	}
	e := newTestExplorer(mock)

	snap, err := e.Search(context.Background(), "Octopus")
	require.NoError(t, err)

	e.SetMode(oracle.ModePrecise)
	_, err = e.Expand(context.Background(), snap.Nodes[0].ID)
	require.NoError(t, err)

	assert.Equal(t, []oracle.Mode{oracle.ModeDefault, oracle.ModePrecise}, mock.ModesSeen)
}

func TestPinUnpin_TracksInteractionState(t *testing.T) {
	mock := &MockOracle{}
	e := newTestExplorer(mock)

	snap, err := e.Search(context.Background(), "Octopus")
	require.NoError(t, err)
	rootID := snap.Nodes[0].ID

	e.Pin(rootID, 42, 24)
	snap = e.Snapshot()
	assert.Equal(t, []string{rootID}, snap.PinnedNodeIDs)
	assert.Equal(t, 42.0, snap.Nodes[0].Position.X)

	e.Unpin(rootID)
	assert.Empty(t, e.Snapshot().PinnedNodeIDs)
}

func findByLabel(t *testing.T, snap *Snapshot, label string) *graph.Node {
	t.Helper()
	for _, n := range snap.Nodes {
		if n.Label == label {
			return n
		}
	}
	t.Fatalf("node %q not in snapshot", label)
	return nil
}

func hasEdge(snap *Snapshot, a, b string) bool {
	for _, e := range snap.Edges {
		if (e.SourceID == a && e.TargetID == b) || (e.SourceID == b && e.TargetID == a) {
			return true
		}
	}
	return false
}
