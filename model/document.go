package model

import (
	"fmt"
	"iter"
	"slices"
)

// Document owns an ordered list of root objects, an identifier index and
// the diagnostics collected while reading or writing it.
type Document struct {
	uri       string
	contents  []*Object
	ids       map[string]*Object
	idManager IDManager
	errors    []error
	warnings  []error
	set       *DocumentSet
	loaded    bool
}

// DocumentOption configures a Document created with NewDocument.
type DocumentOption func(*Document)

// WithIDManager enables extrinsic identifiers for all objects attached to the document.
func WithIDManager(m IDManager) DocumentOption {
	return func(d *Document) {
		d.idManager = m
	}
}

// NewDocument creates an empty document.
func NewDocument(uri string, opts ...DocumentOption) *Document {
	d := &Document{
		uri: uri,
		ids: make(map[string]*Object),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Document) URI() string {
	return d.uri
}

// SetURI renames the document. Documents registered in a set should be
// renamed through DocumentSet.Rename.
func (d *Document) SetURI(uri string) {
	d.uri = uri
}

// Set returns the document set the document belongs to, if any.
func (d *Document) Set() *DocumentSet {
	return d.set
}

func (d *Document) IDManager() IDManager {
	return d.idManager
}

// IsLoaded reports whether the document content was read from a source.
func (d *Document) IsLoaded() bool {
	return d.loaded
}

// MarkLoaded records that the document content was read from a source.
func (d *Document) MarkLoaded() {
	d.loaded = true
}

// Contents returns the root objects.
func (d *Document) Contents() []*Object {
	return slices.Clone(d.contents)
}

// Len returns the number of root objects.
func (d *Document) Len() int {
	return len(d.contents)
}

// Add appends a root object, moving it out of any previous container or document.
func (d *Document) Add(obj *Object) error {
	return d.Insert(len(d.contents), obj)
}

// Insert places a root object at index.
func (d *Document) Insert(index int, obj *Object) error {
	if obj == nil {
		return fmt.Errorf("cannot add nil object to document %q", d.uri)
	}
	if obj.IsProxy() {
		return fmt.Errorf("cannot add proxy %s to document %q", obj, d.uri)
	}
	if obj.document == d && obj.container == nil {
		return nil
	}
	oldDoc := obj.Document()
	obj.unlink()
	if index < 0 || index > len(d.contents) {
		index = len(d.contents)
	}
	d.contents = slices.Insert(d.contents, index, obj)
	obj.document = d
	relocate(obj, oldDoc, d)
	return nil
}

// Control makes a contained object a root of this document while keeping
// its container. The containment edge then crosses documents.
func (d *Document) Control(obj *Object) error {
	if obj == nil || obj.container == nil {
		return fmt.Errorf("only contained objects can be controlled by document %q", d.uri)
	}
	if obj.document == d {
		return nil
	}
	oldDoc := obj.Document()
	if obj.document != nil {
		obj.document.dropRoot(obj)
	}
	d.contents = append(d.contents, obj)
	obj.document = d
	relocate(obj, oldDoc, d)
	return nil
}

// Remove detaches a root object. Its identifiers are cleared.
func (d *Document) Remove(obj *Object) bool {
	if obj == nil || obj.document != d {
		return false
	}
	d.dropRoot(obj)
	obj.document = nil
	relocate(obj, d, obj.Document())
	return true
}

func (d *Document) dropRoot(obj *Object) {
	if i := slices.Index(d.contents, obj); i >= 0 {
		d.contents = slices.Delete(d.contents, i, i+1)
	}
}

// AllContents iterates every object owned by the document in depth-first
// pre-order. Subtrees controlled by another document are skipped.
func (d *Document) AllContents() iter.Seq[*Object] {
	return func(yield func(*Object) bool) {
		for _, root := range d.contents {
			if !d.walk(root, yield) {
				return
			}
		}
	}
}

func (d *Document) walk(obj *Object, yield func(*Object) bool) bool {
	if !yield(obj) {
		return false
	}
	for _, child := range obj.Contents() {
		if child.document != nil && child.document != d {
			continue
		}
		if !d.walk(child, yield) {
			return false
		}
	}
	return true
}

func (d *Document) subtree(obj *Object) iter.Seq[*Object] {
	return func(yield func(*Object) bool) {
		d.walk(obj, yield)
	}
}

func (d *Document) attachTree(obj *Object) {
	if d.idManager == nil {
		return
	}
	for o := range d.subtree(obj) {
		d.SetID(o, d.idManager.GetOrCreateID(o))
	}
}

func (d *Document) detachTree(obj *Object) {
	if d.idManager == nil {
		return
	}
	for o := range d.subtree(obj) {
		if id, ok := d.idManager.FindID(o); ok && d.ids[id] == o {
			delete(d.ids, id)
		}
		d.idManager.ClearID(o)
	}
}

// SetID assigns an extrinsic identifier and updates the index. An empty id
// removes the object from the index. Without identifier manager SetID is a no-op.
func (d *Document) SetID(obj *Object, id string) {
	if d.idManager == nil {
		return
	}
	if old, ok := d.idManager.FindID(obj); ok && d.ids[old] == obj {
		delete(d.ids, old)
	}
	if id == "" {
		d.idManager.ClearID(obj)
		return
	}
	d.idManager.SetID(obj, id)
	d.ids[id] = obj
}

// ID returns the identifier of obj: the extrinsic one if an identifier
// manager is configured, otherwise the intrinsic identifier attribute.
func (d *Document) ID(obj *Object) string {
	if d.idManager != nil {
		if id, ok := d.idManager.FindID(obj); ok {
			return id
		}
	}
	return obj.IntrinsicID()
}

// ObjectByID looks up an object by extrinsic or intrinsic identifier.
func (d *Document) ObjectByID(id string) *Object {
	if obj, ok := d.ids[id]; ok {
		return obj
	}
	for obj := range d.AllContents() {
		if obj.IntrinsicID() == id {
			return obj
		}
	}
	return nil
}

// Errors returns the error diagnostics.
func (d *Document) Errors() []error {
	return slices.Clone(d.errors)
}

// Warnings returns the warning diagnostics.
func (d *Document) Warnings() []error {
	return slices.Clone(d.warnings)
}

func (d *Document) AddError(err error) {
	d.errors = append(d.errors, err)
}

func (d *Document) AddWarning(err error) {
	d.warnings = append(d.warnings, err)
}

// ClearDiagnostics drops all recorded errors and warnings.
func (d *Document) ClearDiagnostics() {
	d.errors = nil
	d.warnings = nil
}

// Unload removes all content, clears identifiers and diagnostics.
func (d *Document) Unload() {
	for _, root := range slices.Clone(d.contents) {
		d.Remove(root)
	}
	if d.idManager != nil {
		for _, obj := range d.ids {
			d.idManager.ClearID(obj)
		}
	}
	clear(d.ids)
	d.ClearDiagnostics()
	d.loaded = false
}

func (d *Document) String() string {
	return d.uri
}
