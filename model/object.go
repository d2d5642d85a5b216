package model

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

var (
	// ErrFeatureNotInClass is returned when a feature is used on an object of an unrelated class.
	ErrFeatureNotInClass = errors.New("feature is not part of the object's class")
	// ErrInvalidValue is returned when a value does not match the feature's type.
	ErrInvalidValue = errors.New("invalid value for feature")
	// ErrContainmentCycle is returned when an object would contain one of its ancestors.
	ErrContainmentCycle = errors.New("containment cycle")
)

// Object is an instance of a class. Objects are created through
// Registry.Instantiate or NewProxy and are not safe for concurrent mutation.
type Object struct {
	class  *Class
	values map[*Feature]any

	container         *Object
	containingFeature *Feature
	// document is the direct document, set for root objects only.
	document *Document

	proxyURI string
}

func newObject(c *Class) *Object {
	return &Object{class: c, values: make(map[*Feature]any)}
}

// NewProxy creates a placeholder for an object that lives in another,
// not yet loaded document. The class may be nil if it is unknown.
func NewProxy(c *Class, uri string) *Object {
	obj := newObject(c)
	obj.proxyURI = uri
	return obj
}

func (o *Object) Class() *Class {
	return o.class
}

// IsProxy reports whether the object is an unresolved external reference.
func (o *Object) IsProxy() bool {
	return o.proxyURI != ""
}

// ProxyURI returns "document#fragment" for proxies and "" otherwise.
func (o *Object) ProxyURI() string {
	return o.proxyURI
}

func (o *Object) Container() *Object {
	return o.container
}

func (o *Object) ContainingFeature() *Feature {
	return o.containingFeature
}

// DirectDocument returns the document the object is a root of, if any.
func (o *Object) DirectDocument() *Document {
	return o.document
}

// Document returns the owning document: the direct document of the object
// or of its nearest ancestor that has one.
func (o *Object) Document() *Document {
	for cur := o; cur != nil; cur = cur.container {
		if cur.document != nil {
			return cur.document
		}
	}
	return nil
}

// Root returns the top of the containment tree.
func (o *Object) Root() *Object {
	cur := o
	for cur.container != nil {
		cur = cur.container
	}
	return cur
}

// IsAncestorOf reports whether o contains other directly or transitively.
func (o *Object) IsAncestorOf(other *Object) bool {
	for cur := other.container; cur != nil; cur = cur.container {
		if cur == o {
			return true
		}
	}
	return false
}

// IntrinsicID returns the value of the class's identifier attribute.
func (o *Object) IntrinsicID() string {
	if o.class == nil {
		return ""
	}
	f := o.class.IDFeature()
	if f == nil {
		return ""
	}
	id, _ := o.values[f].(string)
	return id
}

func (o *Object) String() string {
	if o.IsProxy() {
		return fmt.Sprintf("proxy(%s)", o.proxyURI)
	}
	if o.class == nil {
		return "object"
	}
	if id := o.IntrinsicID(); id != "" {
		return fmt.Sprintf("%s[%s]", o.class.QualifiedName(), id)
	}
	return o.class.QualifiedName()
}

// FeatureByName resolves a feature of the object's class.
func (o *Object) FeatureByName(name string) *Feature {
	if o.class == nil {
		return nil
	}
	return o.class.Feature(name)
}

func (o *Object) check(f *Feature) error {
	if f == nil {
		return fmt.Errorf("%w: nil feature", ErrFeatureNotInClass)
	}
	if o.class == nil || o.class.Feature(f.Name) != f {
		return fmt.Errorf("%w: %s on %s", ErrFeatureNotInClass, f, o)
	}
	return nil
}

// IsSet reports whether the feature holds a value different from its default.
func (o *Object) IsSet(f *Feature) bool {
	v, ok := o.values[f]
	if !ok {
		return false
	}
	switch {
	case f.Many && f.IsReference():
		return len(v.([]*Object)) > 0
	case f.Many:
		return len(v.([]any)) > 0
	case f.IsReference():
		return v.(*Object) != nil
	case f.Unsettable:
		return true
	default:
		return !ValuesEqual(v, f.Default)
	}
}

// Get returns the current value. Multi-valued attributes return []any,
// multi-valued references []*Object, single references *Object.
func (o *Object) Get(f *Feature) any {
	v, ok := o.values[f]
	switch {
	case f.Many && f.IsReference():
		if !ok {
			return []*Object{}
		}
		return slices.Clone(v.([]*Object))
	case f.Many:
		if !ok {
			return []any{}
		}
		return slices.Clone(v.([]any))
	case f.IsReference():
		if !ok {
			return (*Object)(nil)
		}
		return v
	case ok:
		return v
	case f.Default != nil:
		return f.Default
	default:
		return f.DataType.ZeroValue()
	}
}

// GetByName returns the value of the named feature, or nil if unknown.
func (o *Object) GetByName(name string) any {
	f := o.FeatureByName(name)
	if f == nil {
		return nil
	}
	return o.Get(f)
}

// Ref returns the target of a single-valued reference.
func (o *Object) Ref(f *Feature) *Object {
	v, _ := o.values[f].(*Object)
	return v
}

// Refs returns the targets of a multi-valued reference.
func (o *Object) Refs(f *Feature) []*Object {
	v, _ := o.values[f].([]*Object)
	return slices.Clone(v)
}

// Values returns the elements of a multi-valued attribute.
func (o *Object) Values(f *Feature) []any {
	v, _ := o.values[f].([]any)
	return slices.Clone(v)
}

// SetByName is Set addressed by feature name.
func (o *Object) SetByName(name string, v any) error {
	f := o.FeatureByName(name)
	if f == nil {
		return fmt.Errorf("%w: %q on %s", ErrFeatureNotInClass, name, o)
	}
	return o.Set(f, v)
}

// Set assigns a value. For multi-valued features v must be a []any or
// []*Object and replaces the whole list. Containment and opposite
// references are kept consistent.
func (o *Object) Set(f *Feature, v any) error {
	if err := o.check(f); err != nil {
		return err
	}
	if f.Many {
		return o.setMany(f, v)
	}
	if f.IsAttribute() {
		if !f.DataType.Accepts(v) {
			return fmt.Errorf("%w: %T for %s of type %s", ErrInvalidValue, v, f, f.DataType)
		}
		if v == nil {
			delete(o.values, f)
			return nil
		}
		o.values[f] = v
		return nil
	}
	target, err := o.asObject(f, v)
	if err != nil {
		return err
	}
	if f.IsContainerReference() {
		return o.setContainer(f, target)
	}
	old := o.Ref(f)
	if old == target {
		return nil
	}
	if f.Containment && target != nil {
		if err := o.canContain(target); err != nil {
			return err
		}
	}
	if old != nil {
		o.basicRemove(f, old)
	}
	if target != nil {
		o.basicAdd(f, target, -1)
	}
	return nil
}

// Add appends to a multi-valued feature. References are unique: adding an
// object already present is a no-op.
func (o *Object) Add(f *Feature, v any) error {
	return o.Insert(f, -1, v)
}

// Insert inserts into a multi-valued feature at index; a negative index appends.
func (o *Object) Insert(f *Feature, index int, v any) error {
	if err := o.check(f); err != nil {
		return err
	}
	if !f.Many {
		return fmt.Errorf("%w: %s is single-valued", ErrInvalidValue, f)
	}
	if f.IsAttribute() {
		if v == nil || !f.DataType.Accepts(v) {
			return fmt.Errorf("%w: %T for %s of type %s", ErrInvalidValue, v, f, f.DataType)
		}
		list, _ := o.values[f].([]any)
		if index > len(list) {
			return fmt.Errorf("%w: index %d out of range for %s", ErrInvalidValue, index, f)
		}
		if index < 0 {
			index = len(list)
		}
		o.values[f] = slices.Insert(list, index, v)
		return nil
	}
	target, err := o.asObject(f, v)
	if err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("%w: nil element for %s", ErrInvalidValue, f)
	}
	list, _ := o.values[f].([]*Object)
	if slices.Contains(list, target) {
		return nil
	}
	if index > len(list) {
		return fmt.Errorf("%w: index %d out of range for %s", ErrInvalidValue, index, f)
	}
	if f.Containment {
		if err := o.canContain(target); err != nil {
			return err
		}
	}
	o.basicAdd(f, target, index)
	return nil
}

// Remove deletes an element from a multi-valued feature, or clears a
// single-valued feature holding v. It reports whether anything changed.
func (o *Object) Remove(f *Feature, v any) bool {
	if o.check(f) != nil {
		return false
	}
	if f.IsAttribute() {
		if !f.Many {
			if cur, ok := o.values[f]; ok && ValuesEqual(cur, v) {
				delete(o.values, f)
				return true
			}
			return false
		}
		list, _ := o.values[f].([]any)
		i := slices.IndexFunc(list, func(e any) bool { return ValuesEqual(e, v) })
		if i < 0 {
			return false
		}
		o.values[f] = slices.Delete(list, i, i+1)
		return true
	}
	target, ok := v.(*Object)
	if !ok || target == nil {
		return false
	}
	if f.IsContainerReference() {
		if o.container == target && o.containingFeature == f.OppositeFeature() {
			o.moveOut()
			return true
		}
		return false
	}
	if !o.holds(f, target) {
		return false
	}
	o.basicRemove(f, target)
	return true
}

// Unset clears a feature.
func (o *Object) Unset(f *Feature) {
	if o.check(f) != nil {
		return
	}
	switch {
	case f.IsAttribute():
		delete(o.values, f)
	case f.IsContainerReference():
		if o.container != nil && o.containingFeature == f.OppositeFeature() {
			o.moveOut()
		}
	case f.Many:
		for _, target := range o.Refs(f) {
			o.basicRemove(f, target)
		}
		delete(o.values, f)
	default:
		if target := o.Ref(f); target != nil {
			o.basicRemove(f, target)
		}
	}
}

// Contents returns the directly contained objects in feature order.
func (o *Object) Contents() []*Object {
	var contents []*Object
	if o.class == nil {
		return nil
	}
	for _, f := range o.class.Features() {
		if !f.Containment {
			continue
		}
		if f.Many {
			contents = append(contents, o.Refs(f)...)
		} else if child := o.Ref(f); child != nil {
			contents = append(contents, child)
		}
	}
	return contents
}

// AllContents iterates the containment subtree below o in depth-first pre-order.
func (o *Object) AllContents() iter.Seq[*Object] {
	return func(yield func(*Object) bool) {
		walkContents(o, yield)
	}
}

func walkContents(o *Object, yield func(*Object) bool) bool {
	for _, child := range o.Contents() {
		if !yield(child) || !walkContents(child, yield) {
			return false
		}
	}
	return true
}

func (o *Object) setMany(f *Feature, v any) error {
	if f.IsAttribute() {
		list, ok := v.([]any)
		if !ok && v != nil {
			return fmt.Errorf("%w: %T for multi-valued %s, expected []any", ErrInvalidValue, v, f)
		}
		for _, e := range list {
			if e == nil || !f.DataType.Accepts(e) {
				return fmt.Errorf("%w: element %T for %s of type %s", ErrInvalidValue, e, f, f.DataType)
			}
		}
		if len(list) == 0 {
			delete(o.values, f)
			return nil
		}
		o.values[f] = slices.Clone(list)
		return nil
	}
	var targets []*Object
	switch t := v.(type) {
	case nil:
	case []*Object:
		targets = t
	case []any:
		for _, e := range t {
			obj, ok := e.(*Object)
			if !ok {
				return fmt.Errorf("%w: element %T for %s", ErrInvalidValue, e, f)
			}
			targets = append(targets, obj)
		}
	default:
		return fmt.Errorf("%w: %T for multi-valued %s, expected []*Object", ErrInvalidValue, v, f)
	}
	for _, target := range o.Refs(f) {
		o.basicRemove(f, target)
	}
	for _, target := range targets {
		if err := o.Insert(f, -1, target); err != nil {
			return err
		}
	}
	return nil
}

func (o *Object) asObject(f *Feature, v any) (*Object, error) {
	if v == nil {
		return nil, nil
	}
	target, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("%w: %T for reference %s", ErrInvalidValue, v, f)
	}
	if target == nil {
		return nil, nil
	}
	if target.class != nil && !target.class.IsSubtypeOf(f.Target) {
		return nil, fmt.Errorf("%w: %s is not a %s", ErrInvalidValue, target.class, f.Target)
	}
	return target, nil
}

func (o *Object) canContain(child *Object) error {
	if child == o || child.IsAncestorOf(o) {
		return fmt.Errorf("%w: %s cannot contain %s", ErrContainmentCycle, o, child)
	}
	return nil
}

func (o *Object) holds(f *Feature, target *Object) bool {
	if f.Many {
		list, _ := o.values[f].([]*Object)
		return slices.Contains(list, target)
	}
	return o.Ref(f) == target
}

// basicAdd links target into f and maintains containment and opposites.
func (o *Object) basicAdd(f *Feature, target *Object, index int) {
	var oldDoc *Document
	if f.Containment {
		oldDoc = target.Document()
		target.unlink()
	}
	o.store(f, target, index)
	if f.Containment {
		target.container = o
		target.containingFeature = f
	}
	if opposite := f.OppositeFeature(); opposite != nil {
		if f.Containment {
			target.store(opposite, o, -1)
		} else {
			target.inverseAdd(opposite, o, f)
		}
	}
	if f.Containment {
		relocate(target, oldDoc, target.Document())
	}
}

// basicRemove unlinks target from f and maintains containment and opposites.
func (o *Object) basicRemove(f *Feature, target *Object) {
	if f.Containment && target.container == o && target.containingFeature == f {
		target.moveOut()
		return
	}
	o.drop(f, target)
	if opposite := f.OppositeFeature(); opposite != nil {
		target.drop(opposite, o)
	}
}

// moveOut removes o from its container and detaches its subtree from the
// document it leaves.
func (o *Object) moveOut() {
	oldDoc := o.Document()
	o.unlinkContainer()
	relocate(o, oldDoc, o.Document())
}

// unlink removes o from its container and from the root list of its direct document.
func (o *Object) unlink() {
	o.unlinkContainer()
	if o.document != nil {
		o.document.dropRoot(o)
		o.document = nil
	}
}

func (o *Object) unlinkContainer() {
	c, f := o.container, o.containingFeature
	if c == nil {
		return
	}
	c.drop(f, o)
	o.container = nil
	o.containingFeature = nil
	if opposite := f.OppositeFeature(); opposite != nil {
		o.drop(opposite, c)
	}
}

func (o *Object) setContainer(f *Feature, parent *Object) error {
	containment := f.OppositeFeature()
	if parent == nil {
		if o.container != nil && o.containingFeature == containment {
			o.moveOut()
		}
		return nil
	}
	if containment.Many {
		return parent.Insert(containment, -1, o)
	}
	return parent.Set(containment, o)
}

func (o *Object) inverseAdd(f *Feature, source *Object, sourceFeature *Feature) {
	if !f.Many {
		if prev := o.Ref(f); prev != nil && prev != source {
			prev.drop(sourceFeature, o)
		}
	}
	o.store(f, source, -1)
}

func (o *Object) store(f *Feature, target *Object, index int) {
	if !f.Many {
		o.values[f] = target
		return
	}
	list, _ := o.values[f].([]*Object)
	if slices.Contains(list, target) {
		return
	}
	if index < 0 || index > len(list) {
		index = len(list)
	}
	o.values[f] = slices.Insert(list, index, target)
}

func (o *Object) drop(f *Feature, target *Object) {
	if !f.Many {
		if o.Ref(f) == target {
			delete(o.values, f)
		}
		return
	}
	list, _ := o.values[f].([]*Object)
	if i := slices.Index(list, target); i >= 0 {
		list = slices.Delete(list, i, i+1)
		if len(list) == 0 {
			delete(o.values, f)
		} else {
			o.values[f] = list
		}
	}
}

// relocate moves the identifier bookkeeping of a subtree between documents.
func relocate(obj *Object, from, to *Document) {
	if from == to {
		return
	}
	if from != nil {
		from.detachTree(obj)
	}
	if to != nil {
		to.attachTree(obj)
	}
}
