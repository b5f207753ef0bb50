package graph

import "sort"

// Stats summarizes the shape of a forest.
type Stats struct {
	Nodes        int
	Placeholders int
	Edges        int
	MaxDepth     int
}

// FanOut is a type with its number of direct subtypes.
type FanOut struct {
	Name        string
	Subtypes    int
	Placeholder bool
}

func (f *Forest) Stats() Stats {
	s := Stats{Nodes: len(f.nodes)}
	for _, n := range f.nodes {
		if n.Placeholder && n != f.Root {
			s.Placeholders++
		}
		s.Edges += len(n.Children)
	}

	depth := map[*Node]int{f.Root: 0}
	queue := []*Node{f.Root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range n.Children {
			if _, seen := depth[c]; seen {
				continue
			}
			depth[c] = depth[n] + 1
			if depth[c] > s.MaxDepth {
				s.MaxDepth = depth[c]
			}
			queue = append(queue, c)
		}
	}
	return s
}

// TopFanOut returns the n types with the most direct subtypes.
func (f *Forest) TopFanOut(n int) []FanOut {
	if n <= 0 {
		return nil
	}
	out := make([]FanOut, 0, len(f.nodes))
	for _, node := range f.nodes {
		if len(node.Children) == 0 {
			continue
		}
		out = append(out, FanOut{Name: node.Name, Subtypes: len(node.Children), Placeholder: node.Placeholder})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subtypes == out[j].Subtypes {
			return out[i].Name < out[j].Name
		}
		return out[i].Subtypes > out[j].Subtypes
	})
	if len(out) > n {
		return out[:n]
	}
	return out
}
