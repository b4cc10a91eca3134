// Package resource holds the minimal template document the host assembles:
// named resources with a type, properties and metadata. It implements the
// resource binding the bootstrap builder mutates.
package resource

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// metadataAttr lives beside Properties rather than inside them.
const metadataAttr = "Metadata"

// Resource is one logical resource. Metadata is stored at the resource
// level; every other attribute (UserData included) is a property.
type Resource struct {
	name       string
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	Metadata   map[string]any `json:"Metadata,omitempty" yaml:"Metadata,omitempty"`
}

// New returns an empty resource.
func New(name, typ string) *Resource {
	return &Resource{name: name, Type: typ}
}

func (r *Resource) Name() string { return r.name }

func (r *Resource) Attribute(key string) (any, bool) {
	if key == metadataAttr {
		if r.Metadata == nil {
			return nil, false
		}
		return r.Metadata, true
	}
	v, ok := r.Properties[key]
	return v, ok
}

func (r *Resource) SetAttribute(key string, value any) {
	if key == metadataAttr {
		m, _ := value.(map[string]any)
		r.Metadata = m
		return
	}
	if r.Properties == nil {
		r.Properties = map[string]any{}
	}
	r.Properties[key] = value
}

// Template is a set of uniquely named resources.
type Template struct {
	Description string
	resources   map[string]*Resource
}

// NewTemplate returns an empty template.
func NewTemplate(description string) *Template {
	return &Template{Description: description, resources: map[string]*Resource{}}
}

// Add registers r. Names must be unique.
func (t *Template) Add(r *Resource) error {
	if _, ok := t.resources[r.Name()]; ok {
		return fmt.Errorf("resource %q already defined", r.Name())
	}
	t.resources[r.Name()] = r
	return nil
}

// Get returns the named resource.
func (t *Template) Get(name string) (*Resource, bool) {
	r, ok := t.resources[name]
	return r, ok
}

// document is the serialized form. yaml.v3 and encoding/json both sort map
// keys, which keeps output stable.
type document struct {
	Description string               `json:"Description,omitempty" yaml:"Description,omitempty"`
	Resources   map[string]*Resource `json:"Resources" yaml:"Resources"`
}

func (t *Template) document() document {
	return document{Description: t.Description, Resources: t.resources}
}

// WriteYAML writes the template as YAML.
func (t *Template) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t.document()); err != nil {
		return fmt.Errorf("encoding template as yaml: %w", err)
	}
	return enc.Close()
}

// WriteJSON writes the template as indented JSON.
func (t *Template) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t.document()); err != nil {
		return fmt.Errorf("encoding template as json: %w", err)
	}
	return nil
}
