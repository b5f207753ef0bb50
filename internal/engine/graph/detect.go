// # internal/engine/graph/detect.go
package graph

import "sort"

// DetectCycles reports inheritance cycles, which only malformed sources
// produce. Each cycle lists type names in parent-to-child order.
func (f *Forest) DetectCycles() [][]string {
	names := f.sortedNames()
	adjacency := make(map[string][]string, len(names))
	for _, name := range names {
		for _, c := range f.nodes[name].Children {
			adjacency[name] = append(adjacency[name], c.Name)
		}
		sort.Strings(adjacency[name])
	}

	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	for _, name := range names {
		if !visited[name] {
			findCycles(name, adjacency, visited, onStack, nil, &cycles)
		}
	}
	return cycles
}

func findCycles(curr string, adjacency map[string][]string, visited, onStack map[string]bool, path []string, cycles *[][]string) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range adjacency[curr] {
		if onStack[next] {
			for i, name := range path {
				if name == next {
					cycle := make([]string, len(path)-i)
					copy(cycle, path[i:])
					*cycles = append(*cycles, cycle)
					break
				}
			}
		} else if !visited[next] {
			findCycles(next, adjacency, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}

// FindChain returns the inheritance path from sub up to super, inclusive,
// preferring the shortest one.
func (f *Forest) FindChain(sub, super string) ([]string, bool) {
	if sub == super {
		return []string{sub}, true
	}
	start, ok := f.nodes[super]
	if !ok {
		return nil, false
	}

	prev := make(map[string]string)
	seen := map[string]bool{super: true}
	queue := []*Node{start}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, c := range curr.Children {
			if seen[c.Name] {
				continue
			}
			seen[c.Name] = true
			prev[c.Name] = curr.Name
			if c.Name == sub {
				chain := []string{sub}
				for at := sub; at != super; {
					at = prev[at]
					chain = append(chain, at)
				}
				return chain, true
			}
			queue = append(queue, c)
		}
	}
	return nil, false
}

func (f *Forest) sortedNames() []string {
	names := make([]string, 0, len(f.nodes))
	for name := range f.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
