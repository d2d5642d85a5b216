package model

import (
	"fmt"
	"slices"
)

// FeatureKind distinguishes value slots from object slots.
type FeatureKind int

const (
	KindAttribute FeatureKind = iota
	KindReference
)

func (k FeatureKind) String() string {
	switch k {
	case KindAttribute:
		return "attribute"
	case KindReference:
		return "reference"
	default:
		return fmt.Sprintf("FeatureKind(%d)", int(k))
	}
}

// Shape selects the wire encoding of a class. Every class not marked with
// one of the compact meta shapes uses ShapeGeneric.
type Shape int

const (
	ShapeGeneric Shape = iota
	ShapeAnnotation
	ShapeDetailEntry
	ShapeEnumLiteral
	ShapeOperation
	ShapeParameter
	ShapeTypeParameter
	ShapeGenericType
)

var shapeNames = map[Shape]string{
	ShapeGeneric:       "generic",
	ShapeAnnotation:    "annotation",
	ShapeDetailEntry:   "detailEntry",
	ShapeEnumLiteral:   "enumLiteral",
	ShapeOperation:     "operation",
	ShapeParameter:     "parameter",
	ShapeTypeParameter: "typeParameter",
	ShapeGenericType:   "genericType",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// ParseShape is the inverse of Shape.String.
func ParseShape(name string) (Shape, error) {
	if name == "" {
		return ShapeGeneric, nil
	}
	for shape, n := range shapeNames {
		if n == name {
			return shape, nil
		}
	}
	return ShapeGeneric, fmt.Errorf("unknown shape %q", name)
}

// Class is a runtime type descriptor. A class is mutable while its namespace
// is being built and frozen once the namespace is registered.
type Class struct {
	Name       string
	Abstract   bool
	Shape      Shape
	SuperTypes []*Class

	namespace *Namespace
	own       []*Feature
	all       []*Feature
	byName    map[string]*Feature
	sealed    bool
}

// Namespace returns the namespace that declares the class.
func (c *Class) Namespace() *Namespace {
	return c.namespace
}

// QualifiedName renders the class as "<namespace uri>#<name>" for diagnostics.
func (c *Class) QualifiedName() string {
	if c.namespace == nil {
		return c.Name
	}
	return c.namespace.URI + "#" + c.Name
}

func (c *Class) String() string {
	return c.QualifiedName()
}

// AddFeatures appends features declared by this class. It panics if the
// owning namespace is already registered.
func (c *Class) AddFeatures(features ...*Feature) *Class {
	if c.sealed {
		panic(fmt.Sprintf("class %s is registered and cannot be modified", c))
	}
	for _, f := range features {
		f.owner = c
		c.own = append(c.own, f)
	}
	return c
}

// Extends appends super types.
func (c *Class) Extends(supers ...*Class) *Class {
	if c.sealed {
		panic(fmt.Sprintf("class %s is registered and cannot be modified", c))
	}
	c.SuperTypes = append(c.SuperTypes, supers...)
	return c
}

// DeclaredFeatures returns only the features declared on this class.
func (c *Class) DeclaredFeatures() []*Feature {
	return slices.Clone(c.own)
}

// Features returns the ordered list of all features including inherited ones.
// Inherited features come first, in super type declaration order.
func (c *Class) Features() []*Feature {
	if c.sealed {
		return slices.Clone(c.all)
	}
	return collectFeatures(c, map[*Class]bool{})
}

// Feature looks up a feature by name.
func (c *Class) Feature(name string) *Feature {
	if c.sealed {
		return c.byName[name]
	}
	for _, f := range c.Features() {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// IsSubtypeOf reports whether c equals other or inherits from it.
func (c *Class) IsSubtypeOf(other *Class) bool {
	if other == nil || c == other {
		return true
	}
	for _, super := range c.SuperTypes {
		if super.IsSubtypeOf(other) {
			return true
		}
	}
	return false
}

// IDFeature returns the attribute marked as intrinsic identifier, if any.
func (c *Class) IDFeature() *Feature {
	for _, f := range c.Features() {
		if f.ID && f.Kind == KindAttribute {
			return f
		}
	}
	return nil
}

func collectFeatures(c *Class, seen map[*Class]bool) []*Feature {
	if seen[c] {
		return nil
	}
	seen[c] = true
	var features []*Feature
	for _, super := range c.SuperTypes {
		for _, f := range collectFeatures(super, seen) {
			if !slices.Contains(features, f) {
				features = append(features, f)
			}
		}
	}
	return append(features, c.own...)
}

func (c *Class) seal() error {
	if c.sealed {
		return nil
	}
	if err := checkHierarchy(c, nil); err != nil {
		return err
	}
	all := collectFeatures(c, map[*Class]bool{})
	byName := make(map[string]*Feature, len(all))
	for _, f := range all {
		if f.Name == "" {
			return fmt.Errorf("class %s declares a feature without a name", c)
		}
		if _, exists := byName[f.Name]; exists {
			return fmt.Errorf("class %s has more than one feature named %q", c, f.Name)
		}
		if err := f.validate(); err != nil {
			return fmt.Errorf("class %s: %w", c, err)
		}
		byName[f.Name] = f
	}
	c.all = all
	c.byName = byName
	c.sealed = true
	return nil
}

func checkHierarchy(c *Class, path []*Class) error {
	if slices.Contains(path, c) {
		return fmt.Errorf("class %s inherits from itself", c)
	}
	path = append(path, c)
	for _, super := range c.SuperTypes {
		if super == nil {
			return fmt.Errorf("class %s has a nil super type", c)
		}
		if err := checkHierarchy(super, path); err != nil {
			return err
		}
	}
	return nil
}

// Feature is a named, typed slot on a class.
type Feature struct {
	Name        string
	Kind        FeatureKind
	Many        bool
	DataType    *DataType
	Target      *Class
	Containment bool
	Opposite    string
	Transient   bool
	Derived     bool
	Unsettable  bool
	ID          bool
	Default     any

	owner *Class
}

// FeatureOption customizes a feature created with NewAttribute, NewReference or NewContainment.
type FeatureOption func(*Feature)

// Many marks a feature as multi-valued.
func Many() FeatureOption {
	return func(f *Feature) { f.Many = true }
}

// Transient excludes the feature from serialization by default.
func Transient() FeatureOption {
	return func(f *Feature) { f.Transient = true }
}

// Derived marks the feature as computed from other features.
func Derived() FeatureOption {
	return func(f *Feature) { f.Derived = true }
}

// Unsettable makes an explicitly assigned default value count as set.
func Unsettable() FeatureOption {
	return func(f *Feature) { f.Unsettable = true }
}

// AsID marks a string attribute as the intrinsic identifier of its class.
func AsID() FeatureOption {
	return func(f *Feature) { f.ID = true }
}

// WithOpposite names the feature on the target class that mirrors this reference.
func WithOpposite(name string) FeatureOption {
	return func(f *Feature) { f.Opposite = name }
}

// WithDefault sets the value reported for an attribute that was never assigned.
func WithDefault(v any) FeatureOption {
	return func(f *Feature) { f.Default = v }
}

// NewAttribute creates an attribute feature.
func NewAttribute(name string, dt *DataType, opts ...FeatureOption) *Feature {
	return newFeature(&Feature{Name: name, Kind: KindAttribute, DataType: dt}, opts)
}

// NewReference creates a non-containment reference. A nil target accepts objects of any class.
func NewReference(name string, target *Class, opts ...FeatureOption) *Feature {
	return newFeature(&Feature{Name: name, Kind: KindReference, Target: target}, opts)
}

// NewContainment creates a containment reference.
func NewContainment(name string, target *Class, opts ...FeatureOption) *Feature {
	return newFeature(&Feature{Name: name, Kind: KindReference, Target: target, Containment: true}, opts)
}

func newFeature(f *Feature, opts []FeatureOption) *Feature {
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Owner returns the class that declares the feature.
func (f *Feature) Owner() *Class {
	return f.owner
}

// IsAttribute reports whether the feature holds data values.
func (f *Feature) IsAttribute() bool {
	return f.Kind == KindAttribute
}

// IsReference reports whether the feature holds objects.
func (f *Feature) IsReference() bool {
	return f.Kind == KindReference
}

// OppositeFeature resolves the opposite name against the target class.
func (f *Feature) OppositeFeature() *Feature {
	if f.Opposite == "" || f.Target == nil {
		return nil
	}
	return f.Target.Feature(f.Opposite)
}

// IsContainerReference reports whether the feature is the back pointer of a containment.
func (f *Feature) IsContainerReference() bool {
	opposite := f.OppositeFeature()
	return opposite != nil && opposite.Containment
}

func (f *Feature) String() string {
	if f.owner == nil {
		return f.Name
	}
	return f.owner.Name + "." + f.Name
}

func (f *Feature) validate() error {
	switch f.Kind {
	case KindAttribute:
		if f.DataType == nil {
			return fmt.Errorf("attribute %q has no data type", f.Name)
		}
		if f.Containment {
			return fmt.Errorf("attribute %q cannot be a containment", f.Name)
		}
	case KindReference:
		if f.DataType != nil {
			return fmt.Errorf("reference %q cannot have a data type", f.Name)
		}
		if f.ID {
			return fmt.Errorf("reference %q cannot be an identifier", f.Name)
		}
	default:
		return fmt.Errorf("feature %q has unknown kind %d", f.Name, f.Kind)
	}
	return nil
}
