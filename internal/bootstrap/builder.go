package bootstrap

import (
	"reflect"

	"github.com/specialistvlad/cfize/internal/surface"
)

const (
	MetadataAttribute = "Metadata"
	UserDataAttribute = "UserData"

	InitKey           = "AWS::CloudFormation::Init"
	AuthenticationKey = "AWS::CloudFormation::Authentication"
	ConfigSetsKey     = "configSets"
	DefaultConfigSet  = "default"
)

// Resource is the binding to the resource being authored.
type Resource interface {
	Name() string
	Attribute(key string) (any, bool)
	SetAttribute(key string, value any)
}

// Builder mutates one resource's metadata and user data.
type Builder struct {
	resource Resource
	surface  surface.Surface
}

// New returns a Builder for r that renders script text through s.
func New(r Resource, s surface.Surface) *Builder {
	return &Builder{resource: r, surface: s}
}

// Resource returns the bound resource.
func (b *Builder) Resource() Resource {
	return b.resource
}

// Auth registers an authentication entry, replacing any entry with the same
// name.
func (b *Builder) Auth(name string, options map[string]any) {
	md := b.metadata()
	auth := asMap(md[AuthenticationKey])
	auth[name] = cloneValue(options)
	md[AuthenticationKey] = auth
	b.resource.SetAttribute(MetadataAttribute, md)
}

// ConfigSet returns the {"ConfigSet": name} reference used to include one
// config set from another.
func ConfigSet(name string) map[string]any {
	return map[string]any{"ConfigSet": name}
}

// InitConfigSet adds sections to the named config set. Sections already in
// the set are skipped; new ones are appended in the order given. The
// configSets table is seeded with an empty default set when absent.
func (b *Builder) InitConfigSet(name string, sections ...any) {
	md, init := b.initMetadata()
	sets, ok := init[ConfigSetsKey].(map[string]any)
	if !ok {
		sets = map[string]any{DefaultConfigSet: []any{}}
	}
	sets[name] = mergeUnique(asList(sets[name]), sections)
	init[ConfigSetsKey] = sets
	b.storeInit(md, init)
}

// InitConfig opens a Section over the config stored at name (or an empty
// one), runs block against it and stores the result. If block fails nothing
// is written.
func (b *Builder) InitConfig(name string, block func(*Section) error) error {
	return b.updateInit(func(init map[string]any) error {
		sec := loadSection(init[name])
		if err := block(sec); err != nil {
			return err
		}
		init[name] = sec.Map()
		return nil
	})
}

// metadata returns a private deep copy of the resource's metadata mapping.
func (b *Builder) metadata() map[string]any {
	v, _ := b.resource.Attribute(MetadataAttribute)
	return asMap(v)
}

// initMetadata returns copies of the metadata mapping and its Init entry.
func (b *Builder) initMetadata() (map[string]any, map[string]any) {
	md := b.metadata()
	return md, asMap(md[InitKey])
}

func (b *Builder) storeInit(md, init map[string]any) {
	md[InitKey] = init
	b.resource.SetAttribute(MetadataAttribute, md)
}

// updateInit runs fn on a copy of the Init mapping and stores it back on
// success.
func (b *Builder) updateInit(fn func(init map[string]any) error) error {
	md, init := b.initMetadata()
	if err := fn(init); err != nil {
		return err
	}
	b.storeInit(md, init)
	return nil
}

// resetInit replaces the Init mapping with an empty one.
func (b *Builder) resetInit() {
	md := b.metadata()
	md[InitKey] = map[string]any{}
	b.resource.SetAttribute(MetadataAttribute, md)
}

// mergeUnique appends the items of add that are not already in list.
func mergeUnique(list []any, add []any) []any {
	out := list
	for _, item := range add {
		if !containsValue(out, item) {
			out = append(out, item)
		}
	}
	return out
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if reflect.DeepEqual(item, v) {
			return true
		}
	}
	return false
}

// asMap returns a deep copy of v when it is a mapping, or a new empty one.
func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return cloneValue(m).(map[string]any)
	}
	return map[string]any{}
}

// asList returns a copy of v as []any when it is a list, or an empty list.
func asList(v any) []any {
	switch l := v.(type) {
	case []any:
		return cloneValue(l).([]any)
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out
	}
	return []any{}
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return map[string]any{}
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}
