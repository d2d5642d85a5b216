package modeljson

import (
	"bytes"
	"fmt"
	"reflect"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const envelopeSchemaResource = "modeljson-envelope.schema.json"

// EnvelopeSchema generates the JSON schema of the document envelope.
func EnvelopeSchema() ([]byte, error) {
	r := &invopop.Reflector{
		Mapper: func(t reflect.Type) *invopop.Schema {
			if t == reflect.TypeOf(map[string]any{}) {
				return &invopop.Schema{Type: "object"}
			}
			return nil
		},
	}
	schema := r.ReflectFromType(reflect.TypeOf(Envelope{}))
	schema.Title = "model document envelope"
	data, err := schema.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to create json schema for envelope: %w", err)
	}
	return data, nil
}

// GetEnvelopeSchema compiles the envelope schema once and caches it.
var GetEnvelopeSchema = sync.OnceValues[*jsonschema.Schema, error](func() (*jsonschema.Schema, error) {
	data, err := EnvelopeSchema()
	if err != nil {
		return nil, err
	}
	return compile(data)
})

func compile(data []byte) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	unmarshaler, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	if err := c.AddResource(envelopeSchemaResource, unmarshaler); err != nil {
		return nil, fmt.Errorf("failed to add schema: %w", err)
	}
	sch, err := c.Compile(envelopeSchemaResource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return sch, nil
}

// ValidateEnvelope checks raw JSON against the envelope schema. Only the
// envelope and the generic form of root objects are checked.
func ValidateEnvelope(raw []byte) error {
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", err)
	}
	schema, err := GetEnvelopeSchema()
	if err != nil {
		return fmt.Errorf("failed to get schema: %w", err)
	}
	return schema.Validate(instance)
}
