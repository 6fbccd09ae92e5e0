// Package catalog loads node templates from YAML or TOML. A template describes a
// node type's ports and parameters; the canvas instantiates nodes from it.
package catalog

// Catalog is the top-level structure of a catalog file.
type Catalog struct {
	Nodes []Template `yaml:"nodes" toml:"nodes" json:"nodes"`
}

// Template describes one node type.
type Template struct {
	Type        string      `yaml:"type" toml:"type" json:"type"`
	Name        string      `yaml:"name,omitempty" toml:"name" json:"name,omitempty"` // Default node name; falls back to Type
	Category    string      `yaml:"category,omitempty" toml:"category" json:"category,omitempty"`
	Description string      `yaml:"description,omitempty" toml:"description" json:"description,omitempty"`
	Inputs      []PortSpec  `yaml:"inputs,omitempty" toml:"inputs" json:"inputs,omitempty"`
	Outputs     []PortSpec  `yaml:"outputs,omitempty" toml:"outputs" json:"outputs,omitempty"`
	Parameters  []ParamSpec `yaml:"parameters,omitempty" toml:"parameters" json:"parameters,omitempty"`
}

// PortSpec describes a port. ID defaults to Name.
type PortSpec struct {
	ID       string `yaml:"id,omitempty" toml:"id" json:"id,omitempty"`
	Name     string `yaml:"name" toml:"name" json:"name"`
	Type     string `yaml:"type,omitempty" toml:"type" json:"type,omitempty"`
	Required bool   `yaml:"required,omitempty" toml:"required" json:"required,omitempty"`
	Multi    bool   `yaml:"multi,omitempty" toml:"multi" json:"multi,omitempty"`
	Stream   bool   `yaml:"stream,omitempty" toml:"stream" json:"stream,omitempty"`
}

// ParamSpec describes a parameter and its default value.
type ParamSpec struct {
	Name    string `yaml:"name" toml:"name" json:"name"`
	Type    string `yaml:"type,omitempty" toml:"type" json:"type,omitempty"`
	Default any    `yaml:"default,omitempty" toml:"default" json:"default,omitempty"`
}
