package cmd_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/bindings/go/modeljson/cmd/modeljson/cmd"
)

const librarySchema = `namespaces:
- uri: http://example.com/library
  prefix: lib
  classes:
  - name: Library
    features:
    - name: name
      kind: attribute
      type: String
    - name: books
      kind: containment
      type: Book
      many: true
    - name: favorite
      kind: reference
      type: Book
  - name: Book
    features:
    - name: title
      kind: attribute
      type: String
`

const libraryDocument = `{
  "ns": {"lib": "http://example.com/library"},
  "content": [{"eClass": "lib:Library", "data": {
    "name": "city",
    "favorite": "//@books.0",
    "books": [{"eClass": "lib:Book", "data": {"title": "Go"}}]
  }}]
}`

const libraryFormatted = `{"json":{"version":"1.0","encoding":"utf-8"},"ns":{"lib":"http://example.com/library"},` +
	`"content":[{"eClass":"lib:Library","data":{"name":"city","books":[{"eClass":"lib:Book","data":{"title":"Go"}}],"favorite":"//@books.0"}}]}`

type fixture struct {
	dir      string
	schema   string
	document string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("MODELJSON_CONFIG", "")
	f := &fixture{
		dir:      dir,
		schema:   filepath.Join(dir, "library.yaml"),
		document: filepath.Join(dir, "library.json"),
	}
	require.NoError(t, os.WriteFile(f.schema, []byte(librarySchema), 0o600))
	require.NoError(t, os.WriteFile(f.document, []byte(libraryDocument), 0o600))
	return f
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := cmd.New()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestFormat(t *testing.T) {
	f := setup(t)

	t.Run("compact to stdout", func(t *testing.T) {
		out, err := run(t, "", "format", "--schema", f.schema, f.document)
		require.NoError(t, err)
		assert.Equal(t, libraryFormatted, out)
	})

	t.Run("indented", func(t *testing.T) {
		out, err := run(t, "", "format", "--schema", f.schema, "--indent", "2", f.document)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(out, "}\n"))
		assert.Contains(t, out, "\n  \"ns\": {")
		assert.JSONEq(t, libraryFormatted, out)
	})

	t.Run("from stdin to file", func(t *testing.T) {
		r := require.New(t)
		target := filepath.Join(t.TempDir(), "out.json")
		out, err := run(t, libraryDocument, "format", "--schema", f.schema, "-o", target, "-")
		r.NoError(err)
		r.Empty(out)
		written, err := os.ReadFile(target)
		r.NoError(err)
		r.Equal(libraryFormatted, string(written))
	})

	t.Run("canonical", func(t *testing.T) {
		out, err := run(t, "", "format", "--schema", f.schema, "--canonical", f.document)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, `{"content":`))
	})

	t.Run("unknown class", func(t *testing.T) {
		_, err := run(t, "", "format", f.document)
		assert.ErrorContains(t, err, "1 errors")
	})

	t.Run("missing input", func(t *testing.T) {
		_, err := run(t, "", "format", "--schema", f.schema, filepath.Join(f.dir, "missing.json"))
		assert.Error(t, err)
	})
}

func TestFormatWithConfiguration(t *testing.T) {
	f := setup(t)
	configPath := filepath.Join(f.dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`type: modeljson.config.ocm.software/v1
save:
  indent: 4
load:
  schemas:
  - library.yaml
`), 0o600))

	out, err := run(t, "", "--config", configPath, "format", f.document)
	require.NoError(t, err)
	assert.Contains(t, out, "\n    \"ns\": {")

	out, err = run(t, "", "--config", configPath, "format", "--indent", "0", f.document)
	require.NoError(t, err)
	assert.Equal(t, libraryFormatted, out, "flags override the configuration")
}

func TestValidate(t *testing.T) {
	f := setup(t)

	t.Run("clean document", func(t *testing.T) {
		out, err := run(t, "", "validate", "--schema", f.schema, f.document)
		require.NoError(t, err)
		assert.Equal(t, "no problems found\n", out)
	})

	broken := filepath.Join(f.dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{
  "ns": {"lib": "http://example.com/library"},
  "content": [{"eClass": "lib:Library", "data": {"name": "city", "color": "red", "favorite": "//@books.3"}}]
}`), 0o600))

	t.Run("table", func(t *testing.T) {
		out, err := run(t, "", "validate", "--schema", f.schema, broken)
		require.ErrorIs(t, err, cmd.ErrInvalidDocument)
		assert.Contains(t, out, "SEVERITY")
		assert.Contains(t, out, "feature")
		assert.Contains(t, out, "unresolved")
	})

	t.Run("json", func(t *testing.T) {
		r := require.New(t)
		out, err := run(t, "", "validate", "--schema", f.schema, "-o", "json", broken)
		r.ErrorIs(err, cmd.ErrInvalidDocument)
		var diagnostics []cmd.Diagnostic
		r.NoError(json.Unmarshal([]byte(out), &diagnostics))
		r.Len(diagnostics, 2)
		r.Equal(cmd.Diagnostic{Severity: cmd.SeverityError, Kind: "feature", Message: diagnostics[0].Message}, diagnostics[0])
		r.Equal(cmd.SeverityWarning, diagnostics[1].Severity)
		r.Equal("unresolved", diagnostics[1].Kind)
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := run(t, "", "validate", "--schema", f.schema, "-o", "yaml", broken)
		require.Error(t, err)
		assert.Contains(t, out, "- kind: feature")
	})

	t.Run("invalid output format", func(t *testing.T) {
		_, err := run(t, "", "validate", "--schema", f.schema, "-o", "xml", f.document)
		assert.Error(t, err)
	})
}

func TestDigest(t *testing.T) {
	r := require.New(t)
	f := setup(t)

	first, err := run(t, "", "digest", "--schema", f.schema, f.document)
	r.NoError(err)
	r.True(strings.HasPrefix(first, "sha256:"))

	formatted, err := run(t, "", "format", "--schema", f.schema, "--indent", "8", f.document)
	r.NoError(err)
	second, err := run(t, formatted, "digest", "--schema", f.schema, "-")
	r.NoError(err)
	r.Equal(first, second)
}

func TestSchema(t *testing.T) {
	r := require.New(t)
	setup(t)
	out, err := run(t, "", "schema")
	r.NoError(err)
	var schema map[string]any
	r.NoError(json.Unmarshal([]byte(out), &schema))
	r.Contains(out, `"eClass"`)
	r.Contains(out, `"schemaLocation"`)
}

func TestLoggingFlags(t *testing.T) {
	f := setup(t)
	_, err := run(t, "", "--loglevel", "verbose", "digest", "--schema", f.schema, f.document)
	assert.Error(t, err)
	_, err = run(t, "", "--loglevel", "debug", "--logformat", "json", "digest", "--schema", f.schema, f.document)
	assert.NoError(t, err)
}
