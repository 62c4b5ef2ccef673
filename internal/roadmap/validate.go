package roadmap

import (
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Repairs counts the fixes Validate applied to a roadmap.
type Repairs struct {
	UnlabeledNodes int
	DuplicateNodes int
	AssignedIDs    int
	DanglingEdges  int
	SelfEdges      int
	DuplicateEdges int
}

// Total is the number of fixes applied.
func (r Repairs) Total() int {
	return r.UnlabeledNodes + r.DuplicateNodes + r.AssignedIDs + r.DanglingEdges + r.SelfEdges + r.DuplicateEdges
}

func (r Repairs) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("unlabeled_nodes", r.UnlabeledNodes)
	enc.AddInt("duplicate_nodes", r.DuplicateNodes)
	enc.AddInt("assigned_ids", r.AssignedIDs)
	enc.AddInt("dangling_edges", r.DanglingEdges)
	enc.AddInt("self_edges", r.SelfEdges)
	enc.AddInt("duplicate_edges", r.DuplicateEdges)
	return nil
}

// Validate returns a copy of in in which every edge references existing,
// distinct node ids. Nodes without a label are dropped, repeated ids keep
// their first node, and nodes without an id get the next free numeric id.
func Validate(in Roadmap) (Roadmap, Repairs) {
	var repairs Repairs

	used := make(map[string]struct{}, len(in.Nodes))
	for _, n := range in.Nodes {
		if id := strings.TrimSpace(n.ID); id != "" {
			used[id] = struct{}{}
		}
	}

	out := Roadmap{Nodes: make([]Node, 0, len(in.Nodes)), Edges: make([]Edge, 0, len(in.Edges))}
	kept := make(map[string]struct{}, len(in.Nodes))
	next := 1

	for _, n := range in.Nodes {
		n.ID = strings.TrimSpace(n.ID)
		n.Label = strings.TrimSpace(n.Label)
		n.Phase = strings.TrimSpace(n.Phase)
		n.Week = strings.TrimSpace(n.Week)
		n.Description = strings.TrimSpace(n.Description)
		n.Status = strings.TrimSpace(n.Status)

		if n.Label == "" {
			repairs.UnlabeledNodes++
			continue
		}

		if n.ID == "" {
			for {
				candidate := strconv.Itoa(next)
				next++
				if _, taken := used[candidate]; !taken {
					n.ID = candidate
					used[candidate] = struct{}{}
					break
				}
			}
			repairs.AssignedIDs++
		}

		if _, dup := kept[n.ID]; dup {
			repairs.DuplicateNodes++
			continue
		}
		kept[n.ID] = struct{}{}

		if n.Status == "" {
			n.Status = defaultNodeStatus
		}
		out.Nodes = append(out.Nodes, n)
	}

	seen := make(map[Edge]struct{}, len(in.Edges))
	for _, e := range in.Edges {
		e.Source = strings.TrimSpace(e.Source)
		e.Target = strings.TrimSpace(e.Target)

		_, okSource := kept[e.Source]
		_, okTarget := kept[e.Target]
		switch {
		case !okSource || !okTarget:
			repairs.DanglingEdges++
			continue
		case e.Source == e.Target:
			repairs.SelfEdges++
			continue
		}

		if _, dup := seen[e]; dup {
			repairs.DuplicateEdges++
			continue
		}
		seen[e] = struct{}{}
		out.Edges = append(out.Edges, e)
	}

	return out, repairs
}
