// Package explorer holds the session state of an interactive
// knowledge-graph exploration: the current graph, the search mode, and
// which nodes are active or loading. It orchestrates the concept
// oracle and the merge engine; rendering and layout live elsewhere.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mindforks/tangent/internal/core/graph"
	"github.com/mindforks/tangent/internal/oracle"
)

// ErrNodeNotFound is returned when an operation names a node id that is
// not in the current graph.
var ErrNodeNotFound = errors.New("node not found")

// Snapshot is the data contract to the renderer: the graph value plus
// the interaction state it needs to draw loading spinners, highlight
// the active node, and pin dragged nodes in the simulation.
type Snapshot struct {
	Nodes          []*graph.Node `json:"nodes"`
	Edges          []graph.Edge  `json:"edges"`
	Mode           oracle.Mode   `json:"mode"`
	ActiveNodeID   string        `json:"active_node_id,omitempty"`
	LoadingNodeIDs []string      `json:"loading_node_ids,omitempty"`
	PinnedNodeIDs  []string      `json:"pinned_node_ids,omitempty"`
}

// Explorer is a single exploration session. All methods are safe for
// concurrent use; the graph itself is copy-on-write so a snapshot
// handed out stays consistent while later merges land.
type Explorer struct {
	mu sync.Mutex

	oracle oracle.Oracle
	merger *graph.Merger
	log    *zap.SugaredLogger

	// NewID generates the root node id on search. Injectable for tests.
	NewID func() string

	graph   *graph.Graph
	mode    oracle.Mode
	rootID  string
	active  string
	loading map[string]bool
	pinned  map[string]bool

	// gen increments on every search reset; in-flight fetches started
	// under an older generation discard their commit.
	gen int
}

func New(o oracle.Oracle, log *zap.SugaredLogger) *Explorer {
	return &Explorer{
		oracle:  o,
		merger:  graph.NewMerger(),
		log:     log,
		NewID:   uuid.NewString,
		graph:   graph.New(),
		mode:    oracle.ModeDefault,
		loading: make(map[string]bool),
		pinned:  make(map[string]bool),
	}
}

// Search starts a new exploration: the graph is reset to a single root
// node for term, then the root's related concepts and explanation are
// fetched in parallel and committed together. If the paired fetch
// fails, the reset root remains and no partial result lands.
func (e *Explorer) Search(ctx context.Context, term string) (*Snapshot, error) {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	rootID := e.NewID()
	root := &graph.Node{
		ID:       rootID,
		Label:    term,
		Color:    graph.PaletteColor(0),
		Position: &graph.Position{},
	}
	e.graph = &graph.Graph{Nodes: []*graph.Node{root}}
	e.rootID = rootID
	e.active = rootID
	e.loading = map[string]bool{rootID: true}
	e.pinned = make(map[string]bool)
	mode := e.mode
	e.mu.Unlock()

	var (
		items       []graph.GeneratedItem
		explanation string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = e.oracle.FetchRelated(gctx, term, mode)
		return err
	})
	g.Go(func() error {
		var err error
		explanation, err = e.oracle.FetchExplanation(gctx, term)
		return err
	})
	err := g.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.loading, rootID)
	if e.gen != gen {
		// A newer search reset the session while we were fetching.
		return e.snapshotLocked(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}

	root.Explanation = explanation
	e.graph = e.merger.Merge(e.graph, rootID, *root.Position, items)
	return e.snapshotLocked(), nil
}

// Expand fetches concepts related to the node's label in the current
// mode and merges them in. An empty oracle result means no expansion
// occurred; the loading flag clears either way.
func (e *Explorer) Expand(ctx context.Context, nodeID string) (*Snapshot, error) {
	e.mu.Lock()
	node := e.graph.NodeByID(nodeID)
	if node == nil {
		e.mu.Unlock()
		e.log.Warnw("expand requested for unknown node", "node_id", nodeID)
		return nil, ErrNodeNotFound
	}
	gen := e.gen
	label := node.Label
	pos := graph.Position{}
	if node.Position != nil {
		pos = *node.Position
	}
	mode := e.mode
	e.loading[nodeID] = true
	e.mu.Unlock()

	items, err := e.oracle.FetchRelated(ctx, label, mode)

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.loading, nodeID)
	if e.gen != gen {
		return e.snapshotLocked(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("expand %q: %w", label, err)
	}

	e.graph = e.merger.Merge(e.graph, nodeID, pos, items)
	return e.snapshotLocked(), nil
}

// Explain returns the node's explanation, fetching and caching it on
// first request. The cache is written at most once per node; a result
// arriving after the user moved on still lands in the cache but the
// active-node display is left with the later choice.
func (e *Explorer) Explain(ctx context.Context, nodeID string) (string, error) {
	e.mu.Lock()
	node := e.graph.NodeByID(nodeID)
	if node == nil {
		e.mu.Unlock()
		return "", ErrNodeNotFound
	}
	e.active = nodeID
	if node.Explanation != "" {
		cached := node.Explanation
		e.mu.Unlock()
		return cached, nil
	}
	gen := e.gen
	label := node.Label
	e.loading[nodeID] = true
	e.mu.Unlock()

	text, err := e.oracle.FetchExplanation(ctx, label)

	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.loading, nodeID)
	if err != nil {
		return "", fmt.Errorf("explain %q: %w", label, err)
	}
	if e.gen == gen && node.Explanation == "" {
		node.Explanation = text
	}
	return text, nil
}

// SetMode switches between default and precise generation. It affects
// subsequent expansions only.
func (e *Explorer) SetMode(m oracle.Mode) {
	e.mu.Lock()
	e.mode = m
	e.mu.Unlock()
}

func (e *Explorer) Mode() oracle.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// HasNode reports whether the node exists in the current graph.
func (e *Explorer) HasNode(nodeID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.NodeByID(nodeID) != nil
}

// SetPosition records a simulation position written back by the
// renderer, so later merges seed children near where the node actually
// sits on screen.
func (e *Explorer) SetPosition(nodeID string, pos graph.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	node := e.graph.NodeByID(nodeID)
	if node == nil {
		return ErrNodeNotFound
	}
	node.Position = &pos
	return nil
}

// Pin marks the node as held by an interaction and pins its position.
func (e *Explorer) Pin(nodeID string, x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	node := e.graph.NodeByID(nodeID)
	if node == nil {
		return
	}
	e.pinned[nodeID] = true
	node.Position = &graph.Position{X: x, Y: y}
}

// Unpin releases the node back to the free-running simulation.
func (e *Explorer) Unpin(nodeID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pinned, nodeID)
}

// Snapshot returns the current renderer-facing state.
func (e *Explorer) Snapshot() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Explorer) snapshotLocked() *Snapshot {
	return &Snapshot{
		Nodes:          e.graph.Nodes,
		Edges:          e.graph.Edges,
		Mode:           e.mode,
		ActiveNodeID:   e.active,
		LoadingNodeIDs: sortedKeys(e.loading),
		PinnedNodeIDs:  sortedKeys(e.pinned),
	}
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
