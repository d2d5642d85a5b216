package modeljson

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

// DanglingPolicy decides what happens to references whose target is in no document.
type DanglingPolicy int

const (
	// DanglingThrow records the reference and fails the save after the output was written.
	DanglingThrow DanglingPolicy = iota
	// DanglingRecord records the reference as a document error.
	DanglingRecord
	// DanglingDiscard drops the reference silently.
	DanglingDiscard
)

var danglingPolicyNames = map[DanglingPolicy]string{
	DanglingThrow:   "throw",
	DanglingRecord:  "record",
	DanglingDiscard: "discard",
}

func (p DanglingPolicy) String() string {
	if name, ok := danglingPolicyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("DanglingPolicy(%d)", int(p))
}

// ParseDanglingPolicy parses the case insensitive name of a policy.
func ParseDanglingPolicy(name string) (DanglingPolicy, error) {
	for p, n := range danglingPolicyNames {
		if strings.EqualFold(n, name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown dangling reference policy %q", name)
}

func (p DanglingPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *DanglingPolicy) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseDanglingPolicy(name)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// TypeRegistry is the type lookup used by the codec. *model.Registry implements it.
type TypeRegistry interface {
	model.NamespaceLookup
	ClassOf(uri, name string) (*model.Class, error)
	Instantiate(c *model.Class) (*model.Object, error)
	FeaturesOf(c *model.Class) []*model.Feature
	Register(namespaces ...*model.Namespace) error
}

var _ TypeRegistry = (*model.Registry)(nil)

// FeatureFilter vetoes features during save and load.
type FeatureFilter interface {
	ShouldSave(obj *model.Object, f *model.Feature) bool
	ShouldLoad(obj *model.Object, f *model.Feature) bool
}

// ObjectHandler observes every object after it was written or read.
type ObjectHandler interface {
	ProcessSerialized(out *Object, obj *model.Object)
	ProcessDeserialized(obj *model.Object, in *RawObject)
}

// DocumentHandler is called around whole document operations.
type DocumentHandler interface {
	PreSave(doc *model.Document)
	PostSave(doc *model.Document)
	PreLoad(doc *model.Document)
	PostLoad(doc *model.Document)
}

// URIHandler rewrites document uris written to and read from references.
type URIHandler interface {
	// Deresolve makes uri relative to base for writing.
	Deresolve(base, uri string) string
	// Resolve makes a written uri absolute against base.
	Resolve(base, uri string) string
}

// MissingNamespaceHandler supplies a namespace for an unregistered uri.
// Returning nil leaves the namespace unresolved.
type MissingNamespaceHandler func(uri string) *model.Namespace

// UnresolvedReferenceHandler is notified of every reference left unresolved after a load.
type UnresolvedReferenceHandler func(err *UnresolvedReferenceError)

// SchemaLoader loads the namespace declared at a schemaLocation entry.
type SchemaLoader interface {
	LoadSchema(ctx context.Context, location string, registry TypeRegistry) error
}

// SaveOptions control serialization.
type SaveOptions struct {
	// Indent is the number of spaces per nesting level; 0 writes compact JSON.
	Indent int
	// Encoding names the target character encoding, written to the header.
	Encoding string
	// Version is written to the header. Defaults to FormatVersion.
	Version string

	SaveUnset     bool
	SaveDerived   bool
	SaveTransient bool

	Dangling DanglingPolicy
	// DisplayDynamicType prefixes cross document references with the qualified class name.
	DisplayDynamicType bool
	// ForcePrefixOnEmptyNamespace assigns "_" to namespaces without prefix.
	ForcePrefixOnEmptyNamespace bool
	// RootObjects restricts output to these objects and their contents.
	RootObjects []*model.Object
	// SchemaLocation writes the schemaLocation header from the namespace schema locations.
	SchemaLocation bool
	// SchemaLocations maps namespace uris to locations. Namespaces without
	// entry fall back to their uri.
	SchemaLocations map[string]string
	// ForceDefaultReferenceSerialization writes paths instead of extrinsic identifiers.
	ForceDefaultReferenceSerialization bool
	// Canonical writes RFC 8785 canonical JSON; Indent is ignored.
	Canonical bool

	FeatureFilter   FeatureFilter
	ObjectHandler   ObjectHandler
	DocumentHandler DocumentHandler
	URIHandler      URIHandler
}

// DefaultSaveOptions returns the options used for a nil *SaveOptions.
func DefaultSaveOptions() *SaveOptions {
	return &SaveOptions{
		Encoding: DefaultEncoding,
		Version:  FormatVersion,
		Dangling: DanglingThrow,
	}
}

func (o *SaveOptions) withDefaults() *SaveOptions {
	if o == nil {
		return DefaultSaveOptions()
	}
	c := *o
	if c.Encoding == "" {
		c.Encoding = DefaultEncoding
	}
	if c.Version == "" {
		c.Version = FormatVersion
	}
	return &c
}

// LoadOptions control deserialization.
type LoadOptions struct {
	// Registry resolves classes; defaults to the registry of the document set.
	Registry TypeRegistry
	// Encoding of the input. Empty detects UTF-8 and UTF-16 by byte order mark.
	Encoding string
	// AllowComments strips // and /* */ comments and trailing commas before parsing.
	AllowComments bool
	// ValidateEnvelope checks the input against the envelope JSON schema first.
	ValidateEnvelope bool

	FeatureFilter              FeatureFilter
	ObjectHandler              ObjectHandler
	DocumentHandler            DocumentHandler
	URIHandler                 URIHandler
	MissingNamespaceHandler    MissingNamespaceHandler
	UnresolvedReferenceHandler UnresolvedReferenceHandler
	SchemaLoader               SchemaLoader
}

func (o *LoadOptions) withDefaults(doc *model.Document) (*LoadOptions, error) {
	var c LoadOptions
	if o != nil {
		c = *o
	}
	if c.Registry == nil {
		if set := doc.Set(); set != nil && set.Registry() != nil {
			c.Registry = set.Registry()
		}
	}
	if c.Registry == nil {
		return nil, ErrNoRegistry
	}
	return &c, nil
}
