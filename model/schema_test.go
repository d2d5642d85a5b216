package model_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

const librarySchema = `
namespaces:
- uri: http://example.com/library
  prefix: lib
  dataTypes:
  - name: Genre
    category: enum
    literals: [fiction, poetry]
  classes:
  - name: Named
    abstract: true
    features:
    - name: name
      kind: attribute
      type: String
      id: true
  - name: Library
    superTypes: [Named]
    features:
    - name: books
      kind: containment
      type: Book
      many: true
      opposite: library
    - name: writers
      kind: containment
      type: http://example.com/people#Writer
      many: true
  - name: Book
    superTypes: [Named]
    features:
    - name: genre
      type: Genre
    - name: pages
      kind: attribute
      type: Int
    - name: library
      kind: reference
      type: Library
      opposite: books
    - name: author
      kind: reference
      type: http://example.com/people#Writer
  - name: Note
    shape: annotation
- uri: http://example.com/people
  prefix: ppl
  classes:
  - name: Writer
    features:
    - name: name
      type: String
`

func TestLoadSchema(t *testing.T) {
	r := require.New(t)
	reg := model.NewRegistry()

	namespaces, err := model.DecodeSchema(strings.NewReader(librarySchema), reg)
	r.NoError(err)
	r.Len(namespaces, 2)
	r.True(reg.IsRegistered("http://example.com/library"))
	r.True(reg.IsRegistered("http://example.com/people"))

	book, err := reg.ClassOf("http://example.com/library", "Book")
	r.NoError(err)
	writer, err := reg.ClassOf("http://example.com/people", "Writer")
	r.NoError(err)

	names := []string{}
	for _, f := range book.Features() {
		names = append(names, f.Name)
	}
	r.Equal([]string{"name", "genre", "pages", "library", "author"}, names)
	r.True(book.Feature("name").ID)
	r.Equal(model.CategoryEnum, book.Feature("genre").DataType.Category)
	r.Same(model.IntType, book.Feature("pages").DataType)
	r.Same(writer, book.Feature("author").Target)
	r.True(book.Feature("library").IsContainerReference())

	note, err := reg.ClassOf("http://example.com/library", "Note")
	r.NoError(err)
	r.Equal(model.ShapeAnnotation, note.Shape)

	t.Run("marshal and reload", func(t *testing.T) {
		r := require.New(t)
		data, err := model.MarshalSchema(namespaces...)
		r.NoError(err)
		reloaded, err := model.LoadSchema(data, model.NewRegistry())
		r.NoError(err)
		r.Equal(model.DefinitionOf(namespaces...), model.DefinitionOf(reloaded...))
	})
}

func TestLoadSchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		msg    string
	}{
		{"unknown field", "namespaces:\n- uri: x\n  bogus: 1\n", "unknown field"},
		{"missing uri", "namespaces:\n- prefix: x\n", "without uri"},
		{"unknown data type", "namespaces:\n- uri: x\n  classes:\n  - name: A\n    features:\n    - name: f\n      type: Nope\n", "unknown data type"},
		{"unknown class", "namespaces:\n- uri: x\n  classes:\n  - name: A\n    superTypes: [B]\n", "unknown class"},
		{"unknown kind", "namespaces:\n- uri: x\n  classes:\n  - name: A\n    features:\n    - name: f\n      kind: pointer\n", "unknown feature kind"},
		{"unknown category", "namespaces:\n- uri: x\n  dataTypes:\n  - name: D\n    category: blob\n", "unknown data type category"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := model.LoadSchema([]byte(tc.schema), model.NewRegistry())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}
