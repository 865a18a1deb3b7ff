package graph

import "strings"

// RelationType categorizes how two concepts relate. Edge colors are
// derived from it.
type RelationType string

const (
	RelationHierarchical  RelationType = "hierarchical"
	RelationCompositional RelationType = "compositional"
	RelationCausal        RelationType = "causal"
	RelationTemporal      RelationType = "temporal"
	RelationNeutral       RelationType = "neutral"
)

var relationColors = map[RelationType]string{
	RelationHierarchical:  "#e15759",
	RelationCompositional: "#4e79a7",
	RelationCausal:        "#f28e2b",
	RelationTemporal:      "#b07aa1",
	RelationNeutral:       "#9a9a9a",
}

// NormalizeRelationType maps an arbitrary string (typically from an LLM
// response) onto the fixed enumeration. Unknown values become neutral.
func NormalizeRelationType(s string) RelationType {
	switch RelationType(strings.ToLower(strings.TrimSpace(s))) {
	case RelationHierarchical:
		return RelationHierarchical
	case RelationCompositional:
		return RelationCompositional
	case RelationCausal:
		return RelationCausal
	case RelationTemporal:
		return RelationTemporal
	default:
		return RelationNeutral
	}
}

func (t RelationType) Color() string {
	if c, ok := relationColors[t]; ok {
		return c
	}
	return relationColors[RelationNeutral]
}

// nodePalette is cycled by node creation order.
var nodePalette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2",
	"#59a14f", "#edc948", "#b07aa1", "#ff9da7",
	"#9c755f", "#bab0ac",
}

// Position is a 2D coordinate owned by the force simulation. The core
// stores the last known value so merges can seed new nodes near their
// origin and the simulation does not jump across updates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Node struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Color    string    `json:"color"`
	Position *Position `json:"position,omitempty"`
	// Explanation is cached on first successful fetch and never
	// invalidated within a session.
	Explanation string `json:"explanation,omitempty"`
}

type Edge struct {
	SourceID     string       `json:"source_id"`
	TargetID     string       `json:"target_id"`
	Relation     string       `json:"relation"`
	RelationType RelationType `json:"relation_type"`
	Color        string       `json:"color"`
}

// GeneratedItem is an ephemeral record produced by the concept oracle.
// It is consumed immediately by Merge and never persisted as its own
// entity.
type GeneratedItem struct {
	Label        string `json:"label"`
	Relation     string `json:"relation"`
	RelationType string `json:"relationType"`
	Explanation  string `json:"explanation,omitempty"`
}

// Graph holds nodes unique by ID and edges deduplicated by unordered
// endpoint pair. Nodes are shared by pointer across snapshots so an
// explanation backfill is visible everywhere; the slices themselves are
// copy-on-write (see Merger.Merge).
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []Edge  `json:"edges"`
}

func New() *Graph {
	return &Graph{}
}

func (g *Graph) NodeByID(id string) *Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// NodeByLabel looks a node up case-insensitively. Label is the dedup
// key when merging generated items.
func (g *Graph) NodeByLabel(label string) *Node {
	for _, n := range g.Nodes {
		if strings.EqualFold(n.Label, label) {
			return n
		}
	}
	return nil
}

// HasEdge reports whether an edge exists between the unordered pair.
func (g *Graph) HasEdge(a, b string) bool {
	for _, e := range g.Edges {
		if (e.SourceID == a && e.TargetID == b) || (e.SourceID == b && e.TargetID == a) {
			return true
		}
	}
	return false
}

// PaletteColor returns the display color for the i-th created node.
func PaletteColor(i int) string {
	return nodePalette[i%len(nodePalette)]
}
