package storage

import (
	"time"

	"github.com/matsen/weft/internal/geom"
	"github.com/matsen/weft/internal/history"
	"github.com/matsen/weft/internal/workflow"
)

// testState is a three-node pipeline: Counter -> Scale -> Log, with
// Scale's required input connected and a second Log input left open.
func testState() workflow.State {
	return workflow.State{
		View: geom.View{X: 10, Y: 20, Scale: 1.5},
		Nodes: []workflow.Node{
			{ID: "n1", Position: geom.Point{X: 0, Y: 0}, Data: workflow.NodeData{
				NodeName: "Counter", Type: "Counter",
				Outputs:  []workflow.Port{{ID: "count", Name: "count", Type: "INT", Stream: true}},
			}},
			{ID: "n2", Position: geom.Point{X: 300, Y: 0}, Data: workflow.NodeData{
				NodeName:   "Scale",
				Type:       "Scale",
				Inputs:     []workflow.Port{{ID: "value", Name: "value", Type: "FLOAT", Required: true}},
				Outputs:    []workflow.Port{{ID: "result", Name: "result", Type: "FLOAT"}},
				Parameters: []workflow.Parameter{{Name: "factor", Type: "number", Value: 2.0}},
			}},
			{ID: "n3", Position: geom.Point{X: 600, Y: 0}, Data: workflow.NodeData{
				NodeName: "Log", Type: "Log",
				Inputs: []workflow.Port{
					{ID: "message", Name: "message", Type: "ANY", Required: true, Multi: true},
					{ID: "prefix", Name: "prefix", Type: "STRING", Required: true},
				},
			}},
		},
		Edges: []workflow.Edge{
			{ID: "e1",
				Source: workflow.Endpoint{NodeID: "n1", PortID: "count", Kind: workflow.Output, Type: "INT"},
				Target: workflow.Endpoint{NodeID: "n2", PortID: "value", Kind: workflow.Input}},
			{ID: "e2",
				Source: workflow.Endpoint{NodeID: "n2", PortID: "result", Kind: workflow.Output, Type: "FLOAT"},
				Target: workflow.Endpoint{NodeID: "n3", PortID: "message", Kind: workflow.Input}},
		},
	}
}

func testEntries() []history.Entry {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := testState().Snapshot()
	return []history.Entry{
		{ID: "h3", Timestamp: ts.Add(2 * time.Second), ActionType: history.EdgeCreate, Description: "Connected Scale.result -> Log.message",
			Details:     history.EdgeDetails{EdgeID: "e2", Source: s.Edges[1].Source, Target: s.Edges[1].Target},
			CanvasState: workflow.Snapshot{Nodes: s.Nodes, Edges: s.Edges[:1]}},
		{ID: "h2", Timestamp: ts.Add(time.Second), ActionType: history.NodeMove, Description: "Moved Scale",
			Details:     history.MoveDetails{NodeID: "n2", From: geom.Point{X: 250}, To: geom.Point{X: 300}},
			CanvasState: workflow.Snapshot{Nodes: s.Nodes, Edges: s.Edges[:1]}},
		{ID: "h1", Timestamp: ts, ActionType: history.NodeCreate, Description: "Added node Log",
			Details:     history.NodeDetails{NodeID: "n3", NodeName: "Log"},
			CanvasState: workflow.Snapshot{Nodes: s.Nodes[:2], Edges: s.Edges[:1]}},
	}
}
