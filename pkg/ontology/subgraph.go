package ontology

import "fmt"

// Subgraph extracts every term and typed relation reachable from the
// closest match for name in the given category, via breadth-first
// traversal to exhaustion. With directed=false the traversal also
// follows relations backwards (an individual reaches the facts that
// point at it, not only the ones it points to).
//
// A name that matches nothing returns (nil, nil, nil) without error.
// Failures are reported as GetSubgraphError so that one entity's bad
// subgraph never aborts its siblings.
func (r *Resolver) Subgraph(name string, category Category, directed bool) ([]*Term, []Relation, *Term, error) {
	root, err := r.FindClosestMatch(name, category)
	if err != nil {
		return nil, nil, nil, &GetSubgraphError{Name: name, Err: err}
	}
	if root == nil {
		return nil, nil, nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	visited := map[string]struct{}{root.IRI: {}}
	queue := []string{root.IRI}
	nodes := []*Term{root}
	var edges []Relation

	seenEdges := make(map[string]struct{})
	appendEdge := func(srcIRI, relName, dstIRI string) error {
		key := srcIRI + "|" + relName + "|" + dstIRI
		if _, ok := seenEdges[key]; ok {
			return nil
		}
		src, okS := r.terms[srcIRI]
		dst, okD := r.terms[dstIRI]
		if !okS || !okD {
			return fmt.Errorf("dangling relation %s -[%s]-> %s", srcIRI, relName, dstIRI)
		}
		seenEdges[key] = struct{}{}
		edges = append(edges, Relation{Source: src, Name: relName, Target: dst})
		return nil
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, ref := range r.relations[current] {
			if err := appendEdge(current, ref.name, ref.target); err != nil {
				return nil, nil, nil, &GetSubgraphError{Name: name, Err: err}
			}
			if _, ok := visited[ref.target]; ok {
				continue
			}
			visited[ref.target] = struct{}{}
			nodes = append(nodes, r.terms[ref.target])
			queue = append(queue, ref.target)
		}

		if directed {
			continue
		}
		for _, ref := range r.inbound[current] {
			if err := appendEdge(ref.target, ref.name, current); err != nil {
				return nil, nil, nil, &GetSubgraphError{Name: name, Err: err}
			}
			if _, ok := visited[ref.target]; ok {
				continue
			}
			visited[ref.target] = struct{}{}
			nodes = append(nodes, r.terms[ref.target])
			queue = append(queue, ref.target)
		}
	}

	return nodes, edges, root, nil
}
