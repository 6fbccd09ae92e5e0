package workflow

// Clone returns a deep copy of n. Parameter values are copied shallowly.
func (n Node) Clone() Node {
	n.Data = n.Data.Clone()
	return n
}

// Clone returns a deep copy of d.
func (d NodeData) Clone() NodeData {
	d.Inputs = clonePorts(d.Inputs)
	d.Outputs = clonePorts(d.Outputs)
	if d.Parameters != nil {
		params := make([]Parameter, len(d.Parameters))
		copy(params, d.Parameters)
		d.Parameters = params
	}
	return d
}

func clonePorts(ports []Port) []Port {
	if ports == nil {
		return nil
	}
	out := make([]Port, len(ports))
	copy(out, ports)
	return out
}

// CloneNodes deep copies a node slice. A nil slice stays nil.
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// CloneEdges copies an edge slice. Edges contain no references.
func CloneEdges(edges []Edge) []Edge {
	if edges == nil {
		return nil
	}
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Nodes: CloneNodes(s.Nodes), Edges: CloneEdges(s.Edges)}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	return State{View: s.View, Nodes: CloneNodes(s.Nodes), Edges: CloneEdges(s.Edges)}
}
