package workflow

// IndexOfNode returns the index of the node with the given id, or -1.
func IndexOfNode(nodes []Node, id string) int {
	for i := range nodes {
		if nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// IndexOfEdge returns the index of the edge with the given id, or -1.
func IndexOfEdge(edges []Edge, id string) int {
	for i := range edges {
		if edges[i].ID == id {
			return i
		}
	}
	return -1
}

// Incoming returns the edges terminating at the given input port.
func Incoming(edges []Edge, nodeID, portID string) []Edge {
	var out []Edge
	for _, e := range edges {
		if e.Target.NodeID == nodeID && e.Target.PortID == portID {
			out = append(out, e)
		}
	}
	return out
}

// WithoutNode returns edges that do not touch nodeID, plus the removed ones.
func WithoutNode(edges []Edge, nodeID string) (kept, removed []Edge) {
	kept = make([]Edge, 0, len(edges))
	for _, e := range edges {
		if e.Touches(nodeID) {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	return kept, removed
}

// PortLookup resolves a port definition by reference.
type PortLookup func(ref PortRef) (Port, bool)

// LookupIn builds a PortLookup over nodes.
func LookupIn(nodes []Node) PortLookup {
	return func(ref PortRef) (Port, bool) {
		i := IndexOfNode(nodes, ref.NodeID)
		if i < 0 {
			return Port{}, false
		}
		return nodes[i].Port(ref.PortID, ref.Kind)
	}
}
