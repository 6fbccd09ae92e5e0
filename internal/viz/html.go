package viz

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
)

var (
	//go:embed page.html.tmpl
	pageSource string
	//go:embed empty.html.tmpl
	emptySource string

	pageTemplate  = template.Must(template.New("page").Parse(pageSource))
	emptyTemplate = template.Must(template.New("empty").Parse(emptySource))
)

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Layout  string // "preset", "force", "circle", or "grid"
	Offline bool   // Whether to embed Cytoscape.js inline
	Title   string
}

// DefaultOptions returns default HTML generation options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{Layout: "preset", Title: "Workflow"}
}

// ValidLayouts lists the supported layout names.
var ValidLayouts = []string{"preset", "force", "circle", "grid"}

// cytoscapeLayouts maps layout names to Cytoscape.js layout algorithms.
var cytoscapeLayouts = map[string]string{
	"":       "preset",
	"preset": "preset",
	"force":  "cose",
	"circle": "circle",
	"grid":   "grid",
}

type pageData struct {
	Title     string
	ScriptTag template.HTML
	GraphJSON template.JS
	Layout    string
}

// GenerateHTML renders a self-contained page for the graph.
func GenerateHTML(graph *GraphData, opts HTMLOptions) (string, error) {
	if graph == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}
	layout, ok := cytoscapeLayouts[opts.Layout]
	if !ok {
		return "", fmt.Errorf("invalid layout %q: must be one of %v", opts.Layout, ValidLayouts)
	}
	title := opts.Title
	if title == "" {
		title = "Workflow"
	}

	var buf bytes.Buffer
	if graph.IsEmpty() {
		if err := emptyTemplate.Execute(&buf, title); err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	graphJSON, err := graph.ToCytoscapeJSON()
	if err != nil {
		return "", err
	}
	err = pageTemplate.Execute(&buf, pageData{
		Title:     title,
		ScriptTag: template.HTML(scriptTag(opts.Offline)),
		GraphJSON: template.JS(graphJSON),
		Layout:    layout,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// scriptTag returns either an inline script or the CDN reference.
func scriptTag(offline bool) string {
	if offline && cytoscapeJS != "" {
		return "<script>" + cytoscapeJS + "</script>"
	}
	return `<script src="https://unpkg.com/cytoscape@3/dist/cytoscape.min.js"></script>`
}

// cytoscapeJS holds an inline copy of Cytoscape.js for offline pages. When
// empty, offline pages fall back to the CDN.
var cytoscapeJS string
