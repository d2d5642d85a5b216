package modeljson

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"ocm.software/open-component-model/bindings/go/modeljson/internal/log"
	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

// serializer turns one document, or a subset of objects, into an ordered JSON tree.
type serializer struct {
	ctx    context.Context
	opts   *SaveOptions
	doc    *model.Document
	roots  []*model.Object
	names  *namespaceTable
	refs   *referenceWriter
	logger *slog.Logger

	// dangling collects references handled under DanglingRecord and DanglingThrow.
	dangling []*DanglingReferenceError
}

func newSerializer(ctx context.Context, doc *model.Document, roots []*model.Object, opts *SaveOptions) *serializer {
	names := newNamespaceTable(opts.ForcePrefixOnEmptyNamespace)
	uris := opts.URIHandler
	if uris == nil {
		uris = defaultURIHandler{}
	}
	s := &serializer{
		ctx:    ctx,
		opts:   opts,
		doc:    doc,
		roots:  roots,
		names:  names,
		logger: log.Logger(ctx),
	}
	s.refs = &referenceWriter{
		doc:          doc,
		baseURI:      documentURI(doc),
		uris:         uris,
		names:        names,
		forceDefault: opts.ForceDefaultReferenceSerialization,
		dynamicType:  opts.DisplayDynamicType,
	}
	if opts.RootObjects != nil || doc == nil {
		s.refs.roots = slices.Clone(roots)
		if s.refs.roots == nil {
			s.refs.roots = []*model.Object{}
		}
	}
	return s
}

func documentURI(doc *model.Document) string {
	if doc == nil {
		return ""
	}
	return doc.URI()
}

// encode builds the envelope. The namespace header is written after the
// content walk has assigned all prefixes but is placed before it.
func (s *serializer) encode() (*Object, error) {
	content := make([]any, 0, len(s.roots))
	for _, root := range s.roots {
		obj, err := s.encodeObject(root, nil)
		if err != nil {
			return nil, err
		}
		content = append(content, obj)
	}

	out := newObject()
	header := newObject()
	header.Set(KeyVersion, s.opts.Version)
	header.Set(KeyEncoding, s.opts.Encoding)
	out.Set(KeyJSON, header)

	entries := s.names.Entries()
	ns := newObject()
	for _, e := range entries {
		ns.Set(e.Prefix, e.URI)
	}
	out.Set(KeyNS, ns)

	if s.opts.SchemaLocation && len(entries) > 0 {
		locations := newObject()
		uris := make([]string, 0, len(entries))
		for _, e := range entries {
			uris = append(uris, e.URI)
		}
		slices.Sort(uris)
		for _, uri := range slices.Compact(uris) {
			location := uri
			if l, ok := s.opts.SchemaLocations[uri]; ok {
				location = l
			}
			locations.Set(uri, location)
		}
		out.Set(KeySchemaLocation, locations)
	}

	out.Set(KeyContent, content)
	return out, nil
}

// encodeObject writes obj in its generic form, or in the compact form of its
// shape when it is nested through a containment typed exactly by its class.
func (s *serializer) encodeObject(obj *model.Object, via *model.Feature) (*Object, error) {
	var (
		out *Object
		err error
	)
	if via != nil && via.Target == obj.Class() && obj.Class().Shape != model.ShapeGeneric {
		out, err = s.encodeCompact(obj)
	} else {
		out, err = s.encodeGeneric(obj)
	}
	if err != nil {
		return nil, err
	}
	if s.opts.ObjectHandler != nil {
		s.opts.ObjectHandler.ProcessSerialized(out, obj)
	}
	return out, nil
}

func (s *serializer) encodeGeneric(obj *model.Object) (*Object, error) {
	out := newObject()
	c := obj.Class()
	out.Set(KeyClass, s.names.QualifiedName(c.Namespace(), c.Name))
	if id := s.extrinsicID(obj); id != "" {
		out.Set(KeyID, id)
	}
	data := newObject()
	for _, f := range c.Features() {
		if err := s.encodeFeature(data, obj, f); err != nil {
			return nil, err
		}
	}
	if data.Len() > 0 {
		out.Set(KeyData, data)
	}
	return out, nil
}

// extrinsicID returns the identifier kept by the identifier manager of the
// owning document, creating one if needed.
func (s *serializer) extrinsicID(obj *model.Object) string {
	owner := obj.Document()
	if owner == nil {
		return ""
	}
	ids := owner.IDManager()
	if ids == nil {
		return ""
	}
	if id, ok := ids.FindID(obj); ok {
		return id
	}
	id := ids.GetOrCreateID(obj)
	owner.SetID(obj, id)
	return id
}

func (s *serializer) shouldSave(obj *model.Object, f *model.Feature) bool {
	switch {
	case f.Transient && !s.opts.SaveTransient:
		return false
	case f.Derived && !s.opts.SaveDerived:
		return false
	case f.IsContainerReference():
		return false
	case !obj.IsSet(f) && !s.opts.SaveUnset:
		return false
	}
	if s.opts.FeatureFilter != nil {
		return s.opts.FeatureFilter.ShouldSave(obj, f)
	}
	return true
}

// encodeFeature writes the value of f into data if it is to be saved.
func (s *serializer) encodeFeature(data *Object, obj *model.Object, f *model.Feature) error {
	if !s.shouldSave(obj, f) {
		return nil
	}
	switch {
	case f.IsAttribute():
		return s.encodeAttribute(data, obj, f)
	case f.Containment:
		return s.encodeContainment(data, obj, f)
	default:
		s.encodeReference(data, obj, f)
		return nil
	}
}

func (s *serializer) encodeAttribute(data *Object, obj *model.Object, f *model.Feature) error {
	var (
		value any
		err   error
	)
	if f.Many {
		value, err = EncodeValues(f.DataType, obj.Values(f))
	} else {
		value, err = EncodeValue(f.DataType, obj.Get(f))
	}
	if err != nil {
		return &ValueError{
			Document: documentURI(s.doc),
			Object:   s.location(obj),
			Feature:  f.Name,
			Err:      err,
		}
	}
	data.Set(f.Name, value)
	return nil
}

func (s *serializer) encodeContainment(data *Object, obj *model.Object, f *model.Feature) error {
	if !f.Many {
		child := obj.Ref(f)
		if child == nil {
			return nil
		}
		value, err := s.encodeChild(obj, f, child)
		if err != nil {
			return err
		}
		if value != nil {
			data.Set(f.Name, value)
		}
		return nil
	}
	children := obj.Refs(f)
	values := make([]any, 0, len(children))
	for _, child := range children {
		value, err := s.encodeChild(obj, f, child)
		if err != nil {
			return err
		}
		if value != nil {
			values = append(values, value)
		}
	}
	data.Set(f.Name, values)
	return nil
}

// encodeChild nests child, or writes a reference if child is controlled by
// another document or is an unresolved proxy.
func (s *serializer) encodeChild(obj *model.Object, f *model.Feature, child *model.Object) (any, error) {
	if child.IsProxy() || (child.DirectDocument() != nil && child.DirectDocument() != obj.Document()) {
		ref, ok := s.refs.reference(localityCross, child)
		if !ok {
			s.handleDangling(obj, f, child)
			return nil, nil
		}
		return ref, nil
	}
	return s.encodeObject(child, f)
}

func (s *serializer) encodeReference(data *Object, obj *model.Object, f *model.Feature) {
	if !f.Many {
		target := obj.Ref(f)
		kind := s.refs.classify(target)
		if kind == localitySkip {
			return
		}
		ref, ok := s.refs.reference(kind, target)
		if !ok {
			s.handleDangling(obj, f, target)
			return
		}
		data.Set(f.Name, ref)
		return
	}
	targets := obj.Refs(f)
	kind := s.refs.classifyMany(targets)
	refs := make([]any, 0, len(targets))
	for _, target := range targets {
		ref, ok := s.refs.reference(kind, target)
		if !ok {
			s.handleDangling(obj, f, target)
			continue
		}
		refs = append(refs, ref)
	}
	data.Set(f.Name, refs)
}

func (s *serializer) handleDangling(obj *model.Object, f *model.Feature, target *model.Object) {
	if s.opts.Dangling == DanglingDiscard {
		return
	}
	err := &DanglingReferenceError{
		Document: cmp.Or(documentURI(s.doc), "unknown"),
		Source:   s.location(obj),
		Feature:  f.Name,
		Target:   target.String(),
	}
	s.logger.Log(s.ctx, slog.LevelDebug, "dangling reference", slog.String("error", err.Error()))
	if s.doc != nil {
		s.doc.AddError(err)
	}
	s.dangling = append(s.dangling, err)
}

func (s *serializer) location(obj *model.Object) string {
	if s.refs.roots != nil {
		if p, ok := s.refs.subsetPath(obj); ok {
			return p
		}
		return model.DanglingFragment
	}
	return s.doc.Path(obj)
}

// failure returns the error that fails the save, if any.
func (s *serializer) failure() error {
	if s.opts.Dangling == DanglingThrow && len(s.dangling) > 0 {
		return s.dangling[0]
	}
	return nil
}

// remaining lists the features of obj not named in skip, in class order.
func remaining(obj *model.Object, skip map[string]bool) []*model.Feature {
	var out []*model.Feature
	for _, f := range obj.Class().Features() {
		if !skip[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

func nameSet(names ...string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
