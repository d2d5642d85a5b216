package modeljson

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Keys of the document envelope and of serialized objects.
const (
	KeyJSON           = "json"
	KeyVersion        = "version"
	KeyEncoding       = "encoding"
	KeyNS             = "ns"
	KeySchemaLocation = "schemaLocation"
	KeyContent        = "content"
	KeyClass          = "eClass"
	KeyID             = "id"
	KeyData           = "data"
)

const (
	// FormatVersion is written into the header of every document.
	FormatVersion = "1.0"
	// DefaultEncoding is the character encoding used when none is configured.
	DefaultEncoding = "utf-8"
)

// Object is the ordered JSON object produced for one model object.
type Object = orderedmap.OrderedMap[string, any]

// RawObject is an ordered JSON object whose values are not decoded yet.
type RawObject = orderedmap.OrderedMap[string, json.RawMessage]

func newObject() *Object {
	return orderedmap.New[string, any]()
}

// Envelope describes the top level document layout. It is not used for
// encoding; the codec works on ordered maps. It is the source of the
// generated JSON schema.
type Envelope struct {
	JSON           Header            `json:"json"`
	NS             map[string]string `json:"ns,omitempty" jsonschema:"description=prefix to namespace uri"`
	SchemaLocation map[string]string `json:"schemaLocation,omitempty" jsonschema:"description=namespace uri to schema location"`
	Content        []EnvelopeObject  `json:"content"`
}

type Header struct {
	Version  string `json:"version" jsonschema:"pattern=^[0-9]+\\.[0-9]+$"`
	Encoding string `json:"encoding"`
}

// EnvelopeObject is a serialized root object in its generic form.
type EnvelopeObject struct {
	Class string         `json:"eClass" jsonschema:"minLength=1"`
	ID    string         `json:"id,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}
