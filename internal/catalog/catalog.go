package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/matsen/weft/internal/workflow"
	"gopkg.in/yaml.v3"
)

//go:embed builtin.yml
var builtin []byte

// ErrUnknownType is returned by Lookup for a type the catalog lacks.
var ErrUnknownType = errors.New("unknown node type")

// Builtin returns the catalog shipped with weft.
func Builtin() *Catalog {
	cat, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("builtin catalog: %v", err))
	}
	return cat
}

// Load reads and validates a catalog file. Files ending in .toml are
// decoded as TOML, everything else as YAML.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	parse := Parse
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		parse = ParseTOML
	}
	cat, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes and validates catalog YAML. Port ids default to port names.
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, err
	}
	if err := cat.validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// ParseTOML decodes and validates a catalog written as [[nodes]] tables.
func ParseTOML(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := toml.Unmarshal(data, &cat); err != nil {
		return nil, err
	}
	if err := cat.validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (cat *Catalog) validate() error {
	if len(cat.Nodes) == 0 {
		return fmt.Errorf("catalog must define at least one node type")
	}

	seen := make(map[string]bool, len(cat.Nodes))
	for i := range cat.Nodes {
		t := &cat.Nodes[i]
		if t.Type == "" {
			return fmt.Errorf("node entry %d must have a 'type'", i+1)
		}
		if seen[t.Type] {
			return fmt.Errorf("duplicate node type %q", t.Type)
		}
		seen[t.Type] = true
		if err := normalizePorts(t.Type, "input", t.Inputs); err != nil {
			return err
		}
		if err := normalizePorts(t.Type, "output", t.Outputs); err != nil {
			return err
		}
		for _, p := range t.Inputs {
			if p.Stream {
				return fmt.Errorf("%s: input %q cannot be a stream", t.Type, p.ID)
			}
		}
	}
	return nil
}

func normalizePorts(nodeType, kind string, specs []PortSpec) error {
	ids := make(map[string]bool, len(specs))
	for i := range specs {
		p := &specs[i]
		if p.ID == "" {
			p.ID = p.Name
		}
		if p.ID == "" {
			return fmt.Errorf("%s: %s %d must have a 'name' or 'id'", nodeType, kind, i+1)
		}
		if ids[p.ID] {
			return fmt.Errorf("%s: duplicate %s %q", nodeType, kind, p.ID)
		}
		ids[p.ID] = true
	}
	return nil
}

// Merge returns a catalog with the templates of c followed by those of
// other; templates in other replace same-typed templates in c.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	if other == nil {
		return c
	}
	out := &Catalog{}
	override := make(map[string]Template, len(other.Nodes))
	for _, t := range other.Nodes {
		override[t.Type] = t
	}
	for _, t := range c.Nodes {
		if o, ok := override[t.Type]; ok {
			out.Nodes = append(out.Nodes, o)
			delete(override, t.Type)
			continue
		}
		out.Nodes = append(out.Nodes, t)
	}
	for _, t := range other.Nodes {
		if _, pending := override[t.Type]; pending {
			out.Nodes = append(out.Nodes, t)
		}
	}
	return out
}

// Lookup finds a template by type.
func (c *Catalog) Lookup(nodeType string) (Template, error) {
	for _, t := range c.Nodes {
		if t.Type == nodeType {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %s", ErrUnknownType, nodeType)
}

// Types returns every template type in sorted order.
func (c *Catalog) Types() []string {
	out := make([]string, len(c.Nodes))
	for i, t := range c.Nodes {
		out[i] = t.Type
	}
	sort.Strings(out)
	return out
}

// NodeData instantiates the template as fresh node data.
func (t Template) NodeData() workflow.NodeData {
	name := t.Name
	if name == "" {
		name = t.Type
	}
	d := workflow.NodeData{
		NodeName: name,
		Type:     t.Type,
		Inputs:   make([]workflow.Port, 0, len(t.Inputs)),
		Outputs:  make([]workflow.Port, 0, len(t.Outputs)),
	}
	for _, p := range t.Inputs {
		d.Inputs = append(d.Inputs, p.port(false))
	}
	for _, p := range t.Outputs {
		d.Outputs = append(d.Outputs, p.port(true))
	}
	for _, p := range t.Parameters {
		d.Parameters = append(d.Parameters, workflow.Parameter{Name: p.Name, Type: p.Type, Value: p.Default})
	}
	return d
}

func (p PortSpec) port(output bool) workflow.Port {
	return workflow.Port{
		ID:       p.ID,
		Name:     p.Name,
		Type:     p.Type,
		Required: p.Required,
		Multi:    p.Multi,
		Stream:   output && p.Stream,
	}
}
