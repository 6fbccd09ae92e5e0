package canvas

import (
	"fmt"
	"reflect"

	"github.com/matsen/weft/internal/connect"
	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/history"
	"github.com/matsen/weft/internal/interaction"
	"github.com/matsen/weft/internal/ports"
	"github.com/matsen/weft/internal/workflow"
)

// AddNode inserts a node built from template at the screen position
// (sx, sy), converted to world coordinates through the current view.
func (c *Canvas) AddNode(template workflow.NodeData, sx, sy float64) workflow.Node {
	at := geom.ScreenToWorld(geom.Point{X: sx, Y: sy}, c.view)
	return c.insert(template, at, "Added")
}

// PasteNode inserts a copy of data at a world position.
func (c *Canvas) PasteNode(data workflow.NodeData, at geom.Point) (workflow.Node, error) {
	return c.insert(data, at, "Pasted"), nil
}

// DuplicateNode inserts a copy of a node offset by the paste offset.
func (c *Canvas) DuplicateNode(id string) (workflow.Node, error) {
	n, ok := c.Node(id)
	if !ok {
		return workflow.Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return c.PasteNode(n.Data, n.Position.Add(interaction.PasteOffset))
}

func (c *Canvas) insert(data workflow.NodeData, at geom.Point, verb string) workflow.Node {
	n := workflow.Node{ID: c.newID(), Position: at, Data: data.Clone()}
	if n.Data.NodeName == "" {
		n.Data.NodeName = n.Data.Type
	}
	c.history.Record(history.NodeCreate, fmt.Sprintf("%s node %s", verb, n.Data.NodeName),
		history.NodeDetails{NodeID: n.ID, NodeName: n.Data.NodeName})
	c.nodes = append(c.nodes, n)
	c.sync()
	c.logger.Debug("node added", "node", n.ID, "name", n.Data.NodeName, "x", at.X, "y", at.Y)
	return n.Clone()
}

// MoveNode moves a node to a world position and records NODE_MOVE. Moving
// a node onto its current position is a no-op.
func (c *Canvas) MoveNode(id string, to geom.Point) error {
	i := workflow.IndexOfNode(c.nodes, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	from := c.nodes[i].Position
	if from == to {
		return nil
	}
	c.SetNodePosition(id, to)
	c.RecordMove(id, from, to)
	return nil
}

// DeleteNode removes a node and every edge touching it.
func (c *Canvas) DeleteNode(id string) error {
	return c.DeleteNodes([]string{id})
}

// DeleteNodes removes several nodes and their edges as one history entry.
// A single node records NODE_DELETE; more than one records MULTI_ACTION.
// Unknown ids fail the whole call.
func (c *Canvas) DeleteNodes(ids []string) error {
	ids = unique(ids)
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if workflow.IndexOfNode(c.nodes, id) < 0 {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
	}

	var steps []history.Step
	var single history.NodeDetails
	edges := c.edges
	for _, id := range ids {
		var removed []workflow.Edge
		edges, removed = workflow.WithoutNode(edges, id)
		single = history.NodeDetails{NodeID: id, NodeName: c.nodeName(id), EdgeIDs: edgeIDs(removed)}
		steps = append(steps, history.Step{ActionType: history.NodeDelete, Description: "Deleted node " + single.NodeName})
	}
	if len(ids) == 1 {
		c.history.Record(history.NodeDelete, steps[0].Description, single)
	} else {
		c.history.Record(history.MultiAction, fmt.Sprintf("Deleted %d nodes", len(ids)), history.MultiDetails{Steps: steps})
	}

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]workflow.Node, 0, len(c.nodes))
	for _, n := range c.nodes {
		if !drop[n.ID] {
			kept = append(kept, n)
		}
	}
	c.nodes = kept
	c.edges = edges
	c.sync()
	c.ctl.Forget(c.exists)
	return nil
}

func edgeIDs(edges []workflow.Edge) []string {
	if len(edges) == 0 {
		return nil
	}
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.ID
	}
	return out
}

// DeleteEdge removes an edge.
func (c *Canvas) DeleteEdge(id string) error {
	i := workflow.IndexOfEdge(c.edges, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}
	e := c.edges[i]
	c.history.Record(history.EdgeDelete, "Deleted connection "+c.describeEdge(e),
		history.EdgeDetails{EdgeID: e.ID, Source: e.Source, Target: e.Target})

	edges := make([]workflow.Edge, 0, len(c.edges)-1)
	edges = append(edges, c.edges[:i]...)
	c.edges = append(edges, c.edges[i+1:]...)
	c.ctl.Forget(c.exists)
	return nil
}

// Connect commits a connection from source to the port target under the
// connection rules. Policy rejections come back as the connect package's
// sentinel errors and leave the canvas unchanged.
func (c *Canvas) Connect(source workflow.Endpoint, target ports.Key) (workflow.Edge, error) {
	res, err := connect.Commit(c.edges, workflow.LookupIn(c.nodes), &source, target, c.newID())
	if err != nil {
		return workflow.Edge{}, err
	}
	c.history.Record(history.EdgeCreate, "Connected "+c.describeEdge(res.Created), history.EdgeDetails{
		EdgeID:   res.Created.ID,
		Source:   res.Created.Source,
		Target:   res.Created.Target,
		Replaced: edgeIDs(res.Replaced),
	})
	c.edges = res.Edges
	c.logger.Debug("edge created", "edge", res.Created.ID, "replaced", len(res.Replaced))
	return res.Created, nil
}

// ConnectPorts resolves two port references and connects them.
func (c *Canvas) ConnectPorts(source, target workflow.PortRef) (workflow.Edge, error) {
	src, ok := c.Endpoint(source)
	if !ok {
		return workflow.Edge{}, fmt.Errorf("%w: %s", connect.ErrUnknownPort, ports.KeyOf(source))
	}
	return c.Connect(src, ports.KeyOf(target))
}

// LiftEdge detaches the edge occupying a single-edge input and records
// EDGE_DELETE. It returns the detached edge's source.
func (c *Canvas) LiftEdge(input workflow.PortRef) (workflow.Endpoint, bool) {
	lifted, ok := connect.Lift(c.edges, workflow.LookupIn(c.nodes), input)
	if !ok {
		return workflow.Endpoint{}, false
	}
	c.history.Record(history.EdgeDelete, "Deleted connection "+c.describeEdge(lifted.Edge),
		history.EdgeDetails{EdgeID: lifted.Edge.ID, Source: lifted.Edge.Source, Target: lifted.Edge.Target})
	c.edges = lifted.Edges
	return lifted.Source, true
}

func (c *Canvas) describeEdge(e workflow.Edge) string {
	return fmt.Sprintf("%s.%s -> %s.%s",
		c.nodeName(e.Source.NodeID), e.Source.PortID,
		c.nodeName(e.Target.NodeID), e.Target.PortID)
}

// RenameNode changes a node's display name and records NODE_UPDATE.
func (c *Canvas) RenameNode(id, name string) error {
	i := workflow.IndexOfNode(c.nodes, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	old := c.nodes[i].Data.NodeName
	if old == name {
		return nil
	}
	c.history.Record(history.NodeUpdate, fmt.Sprintf("Renamed %s to %s", old, name),
		history.UpdateDetails{NodeID: id, Field: "nodeName", From: old, To: name})
	c.nodes[i].Data.NodeName = name
	return nil
}

// SetParameter changes a parameter value and records NODE_UPDATE.
func (c *Canvas) SetParameter(id, name string, value any) error {
	i := workflow.IndexOfNode(c.nodes, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	p := c.nodes[i].Parameter(name)
	if p == nil {
		return fmt.Errorf("%w: %s on %s", ErrNoParameter, name, id)
	}
	if reflect.DeepEqual(p.Value, value) {
		return nil
	}
	c.history.Record(history.NodeUpdate, fmt.Sprintf("Set %s.%s", c.nodes[i].Data.NodeName, name),
		history.UpdateDetails{NodeID: id, Field: "parameters." + name, From: p.Value, To: value})
	p.Value = value
	return nil
}

// Undo restores the previous snapshot and returns the entry undone.
func (c *Canvas) Undo() (history.Entry, bool) {
	return c.history.Undo()
}

// Redo moves forward one entry and returns the entry redone.
func (c *Canvas) Redo() (history.Entry, bool) {
	return c.history.Redo()
}

// JumpToHistory restores the snapshot at index i, or the live canvas for
// history.Present.
func (c *Canvas) JumpToHistory(i int) ([]history.Entry, bool) {
	return c.history.Jump(i)
}

// ClearHistory drops every history entry.
func (c *Canvas) ClearHistory() {
	c.history.Clear()
}

// Entries returns the history entries, newest first.
func (c *Canvas) Entries() []history.Entry {
	return c.history.Entries()
}

// unique returns ids in first-seen order without repeats.
func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
