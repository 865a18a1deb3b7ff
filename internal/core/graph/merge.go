package graph

import (
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// jitterRadius bounds the random offset applied to a new node's seed
// position so children fan out around their source instead of stacking
// on the exact same coordinate.
const jitterRadius = 40.0

// Merger folds batches of generated items into a graph. NewID and
// Jitter are injectable for deterministic tests.
type Merger struct {
	NewID  func() string
	Jitter func() float64
}

func NewMerger() *Merger {
	return &Merger{
		NewID:  uuid.NewString,
		Jitter: func() float64 { return (rand.Float64()*2 - 1) * jitterRadius },
	}
}

// Merge returns a new graph containing everything in g plus the given
// items anchored at sourceID. The input graph value is never mutated
// structurally; prior snapshots stay valid. Node objects are shared, so
// an explanation backfill on an existing node is visible through older
// snapshots as well.
//
// Resolution rules:
//   - items are matched to existing nodes by case-insensitive label,
//     including nodes added earlier in the same batch;
//   - matched nodes get their explanation backfilled first-writer-wins;
//   - unmatched items become new nodes seeded near sourcePos;
//   - an edge source->target is added only if the unordered pair is not
//     already connected and source != target;
//   - a sourceID not present in g skips edge creation for the whole
//     batch rather than failing (caller error, not fatal).
func (m *Merger) Merge(g *Graph, sourceID string, sourcePos Position, items []GeneratedItem) *Graph {
	out := &Graph{
		Nodes: append(make([]*Node, 0, len(g.Nodes)+len(items)), g.Nodes...),
		Edges: append(make([]Edge, 0, len(g.Edges)+len(items)), g.Edges...),
	}

	hasSource := out.NodeByID(sourceID) != nil

	for _, it := range items {
		label := strings.TrimSpace(it.Label)
		if label == "" {
			continue
		}

		target := out.NodeByLabel(label)
		if target == nil {
			target = &Node{
				ID:    m.NewID(),
				Label: label,
				Color: PaletteColor(len(out.Nodes)),
				Position: &Position{
					X: sourcePos.X + m.Jitter(),
					Y: sourcePos.Y + m.Jitter(),
				},
				Explanation: it.Explanation,
			}
			out.Nodes = append(out.Nodes, target)
		} else if target.Explanation == "" && it.Explanation != "" {
			target.Explanation = it.Explanation
		}

		if !hasSource || target.ID == sourceID || out.HasEdge(sourceID, target.ID) {
			continue
		}

		rt := NormalizeRelationType(it.RelationType)
		out.Edges = append(out.Edges, Edge{
			SourceID:     sourceID,
			TargetID:     target.ID,
			Relation:     it.Relation,
			RelationType: rt,
			Color:        rt.Color(),
		})
	}

	return out
}
