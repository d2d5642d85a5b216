package model

import (
	"fmt"
	"io"
	"strings"

	"sigs.k8s.io/yaml"
)

// SchemaDefinition is the serialized form of one or more namespaces.
// It is read from YAML or JSON.
//
//	namespaces:
//	- uri: http://example.com/library
//	  prefix: lib
//	  dataTypes:
//	  - name: Color
//	    category: enum
//	    literals: [red, green]
//	  classes:
//	  - name: Folder
//	    features:
//	    - name: items
//	      kind: containment
//	      type: File
//	      many: true
//
// Types are resolved in this order: declarations of the same namespace,
// built-in data types, then "<namespace uri>#<name>" against the registry
// and the other namespaces of the definition.
type SchemaDefinition struct {
	Namespaces []NamespaceDefinition `json:"namespaces"`
}

type NamespaceDefinition struct {
	URI       string               `json:"uri"`
	Prefix    string               `json:"prefix,omitempty"`
	DataTypes []DataTypeDefinition `json:"dataTypes,omitempty"`
	Classes   []ClassDefinition    `json:"classes,omitempty"`
}

type DataTypeDefinition struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Literals []string `json:"literals,omitempty"`
}

type ClassDefinition struct {
	Name       string              `json:"name"`
	Abstract   bool                `json:"abstract,omitempty"`
	Shape      string              `json:"shape,omitempty"`
	SuperTypes []string            `json:"superTypes,omitempty"`
	Features   []FeatureDefinition `json:"features,omitempty"`
}

// FeatureDefinition kinds.
const (
	KindNameAttribute   = "attribute"
	KindNameReference   = "reference"
	KindNameContainment = "containment"
)

type FeatureDefinition struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Type       string `json:"type,omitempty"`
	Many       bool   `json:"many,omitempty"`
	Opposite   string `json:"opposite,omitempty"`
	Transient  bool   `json:"transient,omitempty"`
	Derived    bool   `json:"derived,omitempty"`
	Unsettable bool   `json:"unsettable,omitempty"`
	ID         bool   `json:"id,omitempty"`
}

// NamespaceLookup resolves registered namespaces by uri.
type NamespaceLookup interface {
	Namespace(uri string) (*Namespace, bool)
}

// ParseSchema reads a schema definition without building it.
func ParseSchema(data []byte) (*SchemaDefinition, error) {
	var def SchemaDefinition
	if err := yaml.UnmarshalStrict(data, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	return &def, nil
}

// DecodeSchema reads a schema definition, builds its namespaces and
// registers them in registry.
func DecodeSchema(r io.Reader, registry *Registry) ([]*Namespace, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read schema: %w", err)
	}
	return LoadSchema(data, registry)
}

// LoadSchema is DecodeSchema for in-memory data.
func LoadSchema(data []byte, registry *Registry) ([]*Namespace, error) {
	def, err := ParseSchema(data)
	if err != nil {
		return nil, err
	}
	namespaces, err := def.Build(registry)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(namespaces...); err != nil {
		return nil, err
	}
	return namespaces, nil
}

// Build creates the namespaces of the definition without registering them.
// The lookup is only used to resolve types of other namespaces and may be nil.
func (def *SchemaDefinition) Build(lookup NamespaceLookup) ([]*Namespace, error) {
	b := &schemaBuilder{lookup: lookup, byURI: map[string]*Namespace{}}
	namespaces := make([]*Namespace, 0, len(def.Namespaces))
	for _, nsDef := range def.Namespaces {
		if nsDef.URI == "" {
			return nil, fmt.Errorf("namespace definition without uri")
		}
		ns := NewNamespace(nsDef.URI, nsDef.Prefix)
		for _, dtDef := range nsDef.DataTypes {
			category, err := ParseCategory(dtDef.Category)
			if err != nil {
				return nil, fmt.Errorf("data type %s in %s: %w", dtDef.Name, nsDef.URI, err)
			}
			if category == CategoryEnum {
				ns.NewEnum(dtDef.Name, dtDef.Literals...)
			} else {
				ns.NewDataType(dtDef.Name, category)
			}
		}
		for _, cDef := range nsDef.Classes {
			c := ns.NewClass(cDef.Name)
			c.Abstract = cDef.Abstract
			shape, err := ParseShape(cDef.Shape)
			if err != nil {
				return nil, fmt.Errorf("class %s in %s: %w", cDef.Name, nsDef.URI, err)
			}
			c.Shape = shape
		}
		b.byURI[ns.URI] = ns
		namespaces = append(namespaces, ns)
	}

	for i, nsDef := range def.Namespaces {
		ns := namespaces[i]
		for _, cDef := range nsDef.Classes {
			c := ns.Class(cDef.Name)
			for _, super := range cDef.SuperTypes {
				superClass, err := b.class(ns, super)
				if err != nil {
					return nil, fmt.Errorf("super type of %s: %w", c, err)
				}
				c.Extends(superClass)
			}
			for _, fDef := range cDef.Features {
				f, err := b.feature(ns, fDef)
				if err != nil {
					return nil, fmt.Errorf("feature %s of %s: %w", fDef.Name, c, err)
				}
				c.AddFeatures(f)
			}
		}
	}
	return namespaces, nil
}

type schemaBuilder struct {
	lookup NamespaceLookup
	byURI  map[string]*Namespace
}

func (b *schemaBuilder) namespace(uri string) *Namespace {
	if ns, ok := b.byURI[uri]; ok {
		return ns
	}
	if b.lookup != nil {
		if ns, ok := b.lookup.Namespace(uri); ok {
			return ns
		}
	}
	return nil
}

func (b *schemaBuilder) class(ns *Namespace, ref string) (*Class, error) {
	if uri, name, qualified := strings.Cut(ref, "#"); qualified {
		other := b.namespace(uri)
		if other == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNamespace, uri)
		}
		ns, ref = other, name
	}
	if c := ns.Class(ref); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q in namespace %q", ErrUnknownClass, ref, ns.URI)
}

func (b *schemaBuilder) dataType(ns *Namespace, ref string) (*DataType, error) {
	if uri, name, qualified := strings.Cut(ref, "#"); qualified {
		other := b.namespace(uri)
		if other == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNamespace, uri)
		}
		if dt := other.DataType(name); dt != nil {
			return dt, nil
		}
		return nil, fmt.Errorf("unknown data type %q in namespace %q", name, uri)
	}
	if dt := ns.DataType(ref); dt != nil {
		return dt, nil
	}
	for _, dt := range BuiltinDataTypes() {
		if dt.Name == ref {
			return dt, nil
		}
	}
	return nil, fmt.Errorf("unknown data type %q", ref)
}

func (b *schemaBuilder) feature(ns *Namespace, def FeatureDefinition) (*Feature, error) {
	opts := []FeatureOption{}
	if def.Many {
		opts = append(opts, Many())
	}
	if def.Transient {
		opts = append(opts, Transient())
	}
	if def.Derived {
		opts = append(opts, Derived())
	}
	if def.Unsettable {
		opts = append(opts, Unsettable())
	}
	if def.ID {
		opts = append(opts, AsID())
	}
	if def.Opposite != "" {
		opts = append(opts, WithOpposite(def.Opposite))
	}

	switch def.Kind {
	case KindNameAttribute, "":
		dt, err := b.dataType(ns, def.Type)
		if err != nil {
			return nil, err
		}
		return NewAttribute(def.Name, dt, opts...), nil
	case KindNameReference, KindNameContainment:
		var target *Class
		if def.Type != "" {
			var err error
			if target, err = b.class(ns, def.Type); err != nil {
				return nil, err
			}
		}
		if def.Kind == KindNameContainment {
			return NewContainment(def.Name, target, opts...), nil
		}
		return NewReference(def.Name, target, opts...), nil
	default:
		return nil, fmt.Errorf("unknown feature kind %q", def.Kind)
	}
}

// DefinitionOf renders namespaces back into a schema definition.
func DefinitionOf(namespaces ...*Namespace) *SchemaDefinition {
	def := &SchemaDefinition{}
	for _, ns := range namespaces {
		nsDef := NamespaceDefinition{URI: ns.URI, Prefix: ns.Prefix}
		for _, dt := range ns.DataTypes() {
			if dt.namespace != ns {
				continue
			}
			dtDef := DataTypeDefinition{Name: dt.Name, Category: dt.Category.String()}
			for _, l := range dt.Literals {
				dtDef.Literals = append(dtDef.Literals, l.Name)
			}
			nsDef.DataTypes = append(nsDef.DataTypes, dtDef)
		}
		for _, c := range ns.Classes() {
			cDef := ClassDefinition{Name: c.Name, Abstract: c.Abstract}
			if c.Shape != ShapeGeneric {
				cDef.Shape = c.Shape.String()
			}
			for _, super := range c.SuperTypes {
				cDef.SuperTypes = append(cDef.SuperTypes, typeRef(ns, super.namespace, super.Name))
			}
			for _, f := range c.DeclaredFeatures() {
				cDef.Features = append(cDef.Features, featureDefinition(ns, f))
			}
			nsDef.Classes = append(nsDef.Classes, cDef)
		}
		def.Namespaces = append(def.Namespaces, nsDef)
	}
	return def
}

// MarshalSchema renders namespaces as YAML.
func MarshalSchema(namespaces ...*Namespace) ([]byte, error) {
	return yaml.Marshal(DefinitionOf(namespaces...))
}

func featureDefinition(ns *Namespace, f *Feature) FeatureDefinition {
	def := FeatureDefinition{
		Name:       f.Name,
		Many:       f.Many,
		Opposite:   f.Opposite,
		Transient:  f.Transient,
		Derived:    f.Derived,
		Unsettable: f.Unsettable,
		ID:         f.ID,
	}
	switch {
	case f.IsAttribute():
		def.Kind = KindNameAttribute
		if f.DataType.namespace == Meta() || f.DataType.namespace == nil {
			def.Type = f.DataType.Name
		} else {
			def.Type = typeRef(ns, f.DataType.namespace, f.DataType.Name)
		}
	case f.Containment:
		def.Kind = KindNameContainment
	default:
		def.Kind = KindNameReference
	}
	if f.IsReference() && f.Target != nil {
		def.Type = typeRef(ns, f.Target.namespace, f.Target.Name)
	}
	return def
}

func typeRef(current, owner *Namespace, name string) string {
	if owner == nil || owner == current {
		return name
	}
	return owner.URI + "#" + name
}
