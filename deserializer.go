package modeljson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/semver/v3"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"ocm.software/open-component-model/bindings/go/modeljson/internal/log"
	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

var supportedVersions = func() *semver.Constraints {
	c, err := semver.NewConstraint("1.x")
	if err != nil {
		panic(err)
	}
	return c
}()

// forwardReference is a reference token that did not resolve while reading
// and is retried once the whole document is built.
type forwardReference struct {
	source   *model.Object
	feature  *model.Feature
	fragment string
	token    string
	position int
}

// deserializer populates one document from a parsed envelope.
type deserializer struct {
	ctx      context.Context
	opts     *LoadOptions
	doc      *model.Document
	registry TypeRegistry
	uris     URIHandler
	logger   *slog.Logger

	prefixes map[string]string
	pending  []forwardReference
}

func newDeserializer(ctx context.Context, doc *model.Document, opts *LoadOptions) *deserializer {
	uris := opts.URIHandler
	if uris == nil {
		uris = defaultURIHandler{}
	}
	return &deserializer{
		ctx:      ctx,
		opts:     opts,
		doc:      doc,
		registry: opts.Registry,
		uris:     uris,
		logger:   log.Logger(ctx),
		prefixes: make(map[string]string),
	}
}

func parseObject(raw json.RawMessage, location string) (*RawObject, error) {
	if kindOf(raw) != '{' {
		return nil, structural(location, "expected object, got %s", describeRaw(raw))
	}
	obj := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, obj); err != nil {
		return nil, &StructuralError{Location: location, Err: err}
	}
	return obj, nil
}

func parseArray(raw json.RawMessage, location string) ([]json.RawMessage, error) {
	if kindOf(raw) != '[' {
		return nil, structural(location, "expected array, got %s", describeRaw(raw))
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, &StructuralError{Location: location, Err: err}
	}
	return elements, nil
}

// kindOf returns the first significant byte of raw: one of {[" tfn or a digit.
func kindOf(raw json.RawMessage) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func describeRaw(raw json.RawMessage) string {
	switch kindOf(raw) {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	case 0:
		return "nothing"
	default:
		return "number"
	}
}

func rawString(raw json.RawMessage) (string, bool) {
	if kindOf(raw) != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// decode reads the envelope into the document. Structural problems abort;
// everything else is recorded on the document.
func (d *deserializer) decode(data []byte) error {
	root, err := parseObject(data, "/")
	if err != nil {
		return err
	}
	if raw, ok := root.Get(KeyJSON); ok {
		if err := d.decodeHeader(raw); err != nil {
			return err
		}
	}
	if raw, ok := root.Get(KeyNS); ok {
		if err := d.decodeNamespaces(raw); err != nil {
			return err
		}
	}
	if raw, ok := root.Get(KeySchemaLocation); ok {
		if err := d.decodeSchemaLocations(raw); err != nil {
			return err
		}
	}
	raw, ok := root.Get(KeyContent)
	if !ok {
		return nil
	}
	content, err := parseArray(raw, "/"+KeyContent)
	if err != nil {
		return err
	}
	for i, element := range content {
		location := fmt.Sprintf("/%s/%d", KeyContent, i)
		props, err := parseObject(element, location)
		if err != nil {
			return err
		}
		if _, err := d.decodeObject(props, location, nil, nil); err != nil {
			return err
		}
	}
	d.resolvePending()
	return nil
}

func (d *deserializer) decodeHeader(raw json.RawMessage) error {
	header, err := parseObject(raw, "/"+KeyJSON)
	if err != nil {
		return err
	}
	rawVersion, ok := header.Get(KeyVersion)
	if !ok {
		return nil
	}
	text, ok := rawString(rawVersion)
	if !ok {
		return structural("/"+KeyJSON+"/"+KeyVersion, "expected string, got %s", describeRaw(rawVersion))
	}
	version, err := semver.NewVersion(text)
	switch {
	case err != nil:
		d.doc.AddWarning(fmt.Errorf("invalid format version %q: %w", text, err))
	case !supportedVersions.Check(version):
		d.doc.AddWarning(fmt.Errorf("unsupported format version %q", text))
	}
	return nil
}

func (d *deserializer) decodeNamespaces(raw json.RawMessage) error {
	ns, err := parseObject(raw, "/"+KeyNS)
	if err != nil {
		return err
	}
	for pair := ns.Oldest(); pair != nil; pair = pair.Next() {
		uri, ok := rawString(pair.Value)
		if !ok {
			return structural("/"+KeyNS+"/"+pair.Key, "expected string, got %s", describeRaw(pair.Value))
		}
		d.prefixes[pair.Key] = uri
	}
	return nil
}

func (d *deserializer) decodeSchemaLocations(raw json.RawMessage) error {
	locations, err := parseObject(raw, "/"+KeySchemaLocation)
	if err != nil {
		return err
	}
	for pair := locations.Oldest(); pair != nil; pair = pair.Next() {
		location, ok := rawString(pair.Value)
		if !ok {
			return structural("/"+KeySchemaLocation+"/"+pair.Key, "expected string, got %s", describeRaw(pair.Value))
		}
		if _, known := d.registry.Namespace(pair.Key); known || d.opts.SchemaLoader == nil {
			continue
		}
		location = d.uris.Resolve(d.doc.URI(), location)
		if err := d.opts.SchemaLoader.LoadSchema(d.ctx, location, d.registry); err != nil {
			d.doc.AddError(&TypeNotFoundError{Document: d.doc.URI(), Namespace: pair.Key, Err: err})
		}
	}
	return nil
}

// namespace resolves a namespace uri, consulting the missing namespace handler.
func (d *deserializer) namespace(uri string) (*model.Namespace, bool) {
	if ns, ok := d.registry.Namespace(uri); ok {
		return ns, true
	}
	if d.opts.MissingNamespaceHandler == nil {
		return nil, false
	}
	ns := d.opts.MissingNamespaceHandler(uri)
	if ns == nil || ns.URI != uri {
		return nil, false
	}
	if err := d.registry.Register(ns); err != nil {
		d.logger.Log(d.ctx, slog.LevelWarn, "could not register supplied namespace", slog.String("namespace", uri), slog.String("error", err.Error()))
		return nil, false
	}
	return ns, true
}

// resolveClass resolves "prefix:Name" through the ns header.
func (d *deserializer) resolveClass(qualified string) (*model.Class, error) {
	prefix, name, ok := strings.Cut(qualified, ":")
	if !ok {
		prefix, name = "", qualified
	}
	uri, ok := d.prefixes[prefix]
	if !ok {
		return nil, &TypeNotFoundError{Document: d.doc.URI(), Name: qualified, Err: fmt.Errorf("undeclared prefix %q", prefix)}
	}
	if _, ok := d.namespace(uri); !ok {
		return nil, &TypeNotFoundError{Document: d.doc.URI(), Name: qualified, Namespace: uri, Err: model.ErrUnknownNamespace}
	}
	c, err := d.registry.ClassOf(uri, name)
	if err != nil {
		return nil, &TypeNotFoundError{Document: d.doc.URI(), Name: qualified, Namespace: uri, Err: err}
	}
	return c, nil
}

// decodeObject creates an object from props and attaches it to parent via f,
// or to the document for roots. It returns nil when the object was skipped.
func (d *deserializer) decodeObject(props *RawObject, location string, parent *model.Object, via *model.Feature) (*model.Object, error) {
	c, err := d.objectClass(props, location, via)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	obj, err := d.registry.Instantiate(c)
	if err != nil {
		d.doc.AddError(&TypeNotFoundError{Document: d.doc.URI(), Name: c.QualifiedName(), Err: err})
		return nil, nil
	}

	if parent == nil {
		err = d.doc.Add(obj)
	} else if via.Many {
		err = parent.Add(via, obj)
	} else {
		err = parent.Set(via, obj)
	}
	if err != nil {
		d.doc.AddError(&ValueError{Document: d.doc.URI(), Object: location, Feature: featureName(via), Err: err})
		return nil, nil
	}

	if raw, ok := props.Get(KeyID); ok {
		id, ok := rawString(raw)
		if !ok {
			return nil, structural(location+"/"+KeyID, "expected string, got %s", describeRaw(raw))
		}
		d.doc.SetID(obj, id)
	}

	data := props
	if raw, ok := props.Get(KeyData); ok {
		if data, err = parseObject(raw, location+"/"+KeyData); err != nil {
			return nil, err
		}
		location += "/" + KeyData
	}
	for pair := data.Oldest(); pair != nil; pair = pair.Next() {
		if data == props && (pair.Key == KeyClass || pair.Key == KeyID) {
			continue
		}
		f := c.Feature(pair.Key)
		if f == nil {
			d.doc.AddError(&FeatureNotFoundError{Document: d.doc.URI(), Class: c.QualifiedName(), Feature: pair.Key})
			continue
		}
		if d.opts.FeatureFilter != nil && !d.opts.FeatureFilter.ShouldLoad(obj, f) {
			continue
		}
		if err := d.decodeFeature(obj, f, pair.Value, location+"/"+pair.Key); err != nil {
			return nil, err
		}
	}

	if d.opts.ObjectHandler != nil {
		d.opts.ObjectHandler.ProcessDeserialized(obj, props)
	}
	return obj, nil
}

// objectClass determines the class from eClass or, for compact nested
// objects, from the containing feature. A nil class skips the object.
func (d *deserializer) objectClass(props *RawObject, location string, via *model.Feature) (*model.Class, error) {
	raw, ok := props.Get(KeyClass)
	if !ok {
		if via != nil && via.Target != nil && !via.Target.Abstract {
			return via.Target, nil
		}
		d.doc.AddError(&TypeNotFoundError{Document: d.doc.URI(), Err: fmt.Errorf("object at %s has no %s", location, KeyClass)})
		return nil, nil
	}
	qualified, ok := rawString(raw)
	if !ok {
		return nil, structural(location+"/"+KeyClass, "expected string, got %s", describeRaw(raw))
	}
	c, err := d.resolveClass(qualified)
	if err != nil {
		d.doc.AddError(err)
		return nil, nil
	}
	return c, nil
}

func featureName(f *model.Feature) string {
	if f == nil {
		return KeyContent
	}
	return f.Name
}

func (d *deserializer) decodeFeature(obj *model.Object, f *model.Feature, raw json.RawMessage, location string) error {
	if isNull(raw) || f.IsContainerReference() {
		return nil
	}
	switch {
	case f.IsAttribute():
		d.decodeAttribute(obj, f, raw, location)
		return nil
	case f.Containment:
		return d.decodeContainment(obj, f, raw, location)
	default:
		d.decodeReference(obj, f, raw, location)
		return nil
	}
}

func (d *deserializer) decodeAttribute(obj *model.Object, f *model.Feature, raw json.RawMessage, location string) {
	var (
		value any
		err   error
	)
	if f.Many {
		value, err = DecodeValues(f.DataType, raw)
	} else {
		value, err = DecodeValue(f.DataType, raw)
	}
	if err == nil {
		err = obj.Set(f, value)
	}
	if err != nil {
		d.doc.AddError(&ValueError{Document: d.doc.URI(), Object: location, Feature: f.Name, Value: string(raw), Err: err})
	}
}

func (d *deserializer) decodeContainment(obj *model.Object, f *model.Feature, raw json.RawMessage, location string) error {
	elements := []json.RawMessage{raw}
	if f.Many {
		var err error
		if elements, err = parseArray(raw, location); err != nil {
			return err
		}
	}
	for i, element := range elements {
		elementLocation := location
		if f.Many {
			elementLocation = fmt.Sprintf("%s/%d", location, i)
		}
		if token, ok := rawString(element); ok {
			d.decodeReferenceToken(obj, f, token, i, elementLocation)
			continue
		}
		props, err := parseObject(element, elementLocation)
		if err != nil {
			return err
		}
		if _, err := d.decodeObject(props, elementLocation, obj, f); err != nil {
			return err
		}
	}
	return nil
}

func (d *deserializer) decodeReference(obj *model.Object, f *model.Feature, raw json.RawMessage, location string) {
	if !f.Many {
		token, ok := rawString(raw)
		if !ok {
			d.doc.AddError(&ValueError{Document: d.doc.URI(), Object: location, Feature: f.Name, Value: string(raw), Err: errors.New("expected reference string")})
			return
		}
		if token != "" {
			d.decodeReferenceToken(obj, f, token, 0, location)
		}
		return
	}
	var tokens []json.RawMessage
	if err := json.Unmarshal(raw, &tokens); err != nil || kindOf(raw) != '[' {
		d.doc.AddError(&ValueError{Document: d.doc.URI(), Object: location, Feature: f.Name, Value: string(raw), Err: errors.New("expected array of reference strings")})
		return
	}
	for i, element := range tokens {
		token, ok := rawString(element)
		if !ok || token == "" {
			d.doc.AddError(&ValueError{Document: d.doc.URI(), Object: fmt.Sprintf("%s/%d", location, i), Feature: f.Name, Value: string(element), Err: errors.New("expected reference string")})
			continue
		}
		d.decodeReferenceToken(obj, f, token, i, location)
	}
}

// decodeReferenceToken resolves token now or queues it for the second phase.
// Tokens without '#' and "#fragment" address this document; "uri#fragment"
// addresses another one and yields a proxy if it cannot be loaded.
func (d *deserializer) decodeReferenceToken(obj *model.Object, f *model.Feature, token string, position int, location string) {
	class, ref := d.splitDynamicType(token)
	uri, fragment, qualified := splitReference(ref)
	if !qualified {
		fragment = ref
	}
	if qualified && uri != "" {
		absolute := d.uris.Resolve(d.doc.URI(), uri)
		if absolute != d.doc.URI() {
			d.assign(obj, f, d.external(class, f, absolute, fragment), location)
			return
		}
	}
	if target := d.doc.Object(fragment); target != nil {
		d.assign(obj, f, target, location)
		return
	}
	d.pending = append(d.pending, forwardReference{
		source:   obj,
		feature:  f,
		fragment: fragment,
		token:    token,
		position: position,
	})
}

// splitDynamicType strips a leading "prefix:Class " from an href token.
// Identifiers may contain spaces, so any other token is returned unchanged.
func (d *deserializer) splitDynamicType(token string) (*model.Class, string) {
	typeName, ref, ok := strings.Cut(token, " ")
	if !ok || !strings.Contains(ref, "#") {
		return nil, token
	}
	c, err := d.resolveClass(typeName)
	if err != nil {
		d.logger.Log(d.ctx, slog.LevelDebug, "not a reference type", slog.String("type", typeName))
		return nil, token
	}
	return c, ref
}

// external resolves a reference into another document of the set, loading
// it on demand, or creates a proxy.
func (d *deserializer) external(class *model.Class, f *model.Feature, uri, fragment string) *model.Object {
	if set := d.doc.Set(); set != nil {
		other, err := set.Get(d.ctx, uri, true)
		if err == nil {
			if target := other.Object(fragment); target != nil {
				return target
			}
		} else {
			d.logger.Log(d.ctx, slog.LevelDebug, "referenced document not available", slog.String("uri", uri), slog.String("error", err.Error()))
		}
	}
	if class == nil {
		class = f.Target
	}
	return model.NewProxy(class, uri+"#"+fragment)
}

func (d *deserializer) assign(obj *model.Object, f *model.Feature, target *model.Object, location string) {
	// A containment into another document keeps the child a root there.
	var controller *model.Document
	if f.Containment && !target.IsProxy() {
		if owner := target.DirectDocument(); owner != d.doc {
			controller = owner
		}
	}
	var err error
	if f.Many {
		err = obj.Add(f, target)
	} else {
		err = obj.Set(f, target)
	}
	if err == nil && controller != nil {
		err = controller.Control(target)
	}
	if err != nil {
		d.doc.AddError(&ValueError{Document: d.doc.URI(), Object: location, Feature: f.Name, Value: target.String(), Err: err})
	}
}

// resolvePending retries forward references in document order. Resolved
// elements of lists are inserted at their original position.
func (d *deserializer) resolvePending() {
	for _, ref := range d.pending {
		target := d.doc.Object(ref.fragment)
		if target == nil {
			err := &UnresolvedReferenceError{
				Document: d.doc.URI(),
				Source:   d.doc.Path(ref.source),
				Feature:  ref.feature.Name,
				Token:    ref.token,
			}
			d.doc.AddWarning(err)
			if d.opts.UnresolvedReferenceHandler != nil {
				d.opts.UnresolvedReferenceHandler(err)
			}
			continue
		}
		var err error
		if ref.feature.Many {
			position := min(ref.position, len(ref.source.Refs(ref.feature)))
			err = ref.source.Insert(ref.feature, position, target)
		} else {
			err = ref.source.Set(ref.feature, target)
		}
		if err != nil {
			d.doc.AddError(&ValueError{Document: d.doc.URI(), Object: d.doc.Path(ref.source), Feature: ref.feature.Name, Value: ref.token, Err: err})
		}
	}
	d.pending = nil
}
