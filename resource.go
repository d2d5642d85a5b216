package modeljson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"github.com/tidwall/jsonc"

	"ocm.software/open-component-model/bindings/go/modeljson/internal/log"
	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

// Marshal serializes doc. Under DanglingThrow the returned data is complete
// even if an error is returned for a dangling reference.
func Marshal(ctx context.Context, doc *model.Document, opts *SaveOptions) (_ []byte, err error) {
	done := log.Operation(ctx, "marshal document", log.DocumentAttr(doc))
	defer func() { done(err) }()

	opts = opts.withDefaults()
	if opts.DocumentHandler != nil {
		opts.DocumentHandler.PreSave(doc)
	}
	roots := doc.Contents()
	if opts.RootObjects != nil {
		roots = opts.RootObjects
	}
	s := newSerializer(ctx, doc, roots, opts)
	data, err := s.render()
	if err != nil {
		return nil, err
	}
	if opts.DocumentHandler != nil {
		opts.DocumentHandler.PostSave(doc)
	}
	return data, s.failure()
}

// MarshalObjects serializes objects that need not belong to a document.
// References between them are written as paths below the given roots.
func MarshalObjects(ctx context.Context, objects []*model.Object, opts *SaveOptions) ([]byte, error) {
	opts = opts.withDefaults()
	s := newSerializer(ctx, nil, objects, opts)
	data, err := s.render()
	if err != nil {
		return nil, err
	}
	return data, s.failure()
}

func (s *serializer) render() ([]byte, error) {
	tree, err := s.encode()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(tree); err != nil {
		return nil, fmt.Errorf("could not encode document: %w", err)
	}
	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	switch {
	case s.opts.Canonical:
		if data, err = jsoncanonicalizer.Transform(data); err != nil {
			return nil, fmt.Errorf("could not canonicalize document: %w", err)
		}
	case s.opts.Indent > 0:
		var indented bytes.Buffer
		if err := json.Indent(&indented, data, "", strings.Repeat(" ", s.opts.Indent)); err != nil {
			return nil, fmt.Errorf("could not indent document: %w", err)
		}
		data = indented.Bytes()
	}
	return encodeCharset(data, s.opts.Encoding)
}

// Save writes doc to w. The output is written completely before a dangling
// reference error is returned.
func Save(ctx context.Context, w io.Writer, doc *model.Document, opts *SaveOptions) error {
	data, err := Marshal(ctx, doc, opts)
	if data == nil {
		return err
	}
	if _, werr := w.Write(data); werr != nil {
		return fmt.Errorf("could not write document %q: %w", doc.URI(), werr)
	}
	return err
}

// SaveFile writes doc to the file its uri points to.
func SaveFile(ctx context.Context, doc *model.Document, opts *SaveOptions) error {
	path, err := FilePath(doc.URI())
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %q: %w", path, err)
	}
	saveErr := Save(ctx, f, doc, opts)
	if err := f.Close(); err != nil && saveErr == nil {
		return fmt.Errorf("could not close %q: %w", path, err)
	}
	return saveErr
}

// Unmarshal populates doc from data. Structural errors abort the load;
// type, feature and value problems are recorded as document errors and
// unresolved references as warnings.
func Unmarshal(ctx context.Context, data []byte, doc *model.Document, opts *LoadOptions) (err error) {
	done := log.Operation(ctx, "unmarshal document", slog.String("uri", doc.URI()))
	defer func() { done(err) }()

	if opts, err = opts.withDefaults(doc); err != nil {
		return err
	}
	if opts.DocumentHandler != nil {
		opts.DocumentHandler.PreLoad(doc)
	}
	if data, err = decodeCharset(data, opts.Encoding); err != nil {
		return &StructuralError{Err: err}
	}
	if opts.AllowComments {
		data = jsonc.ToJSON(data)
	}
	if opts.ValidateEnvelope {
		if err := ValidateEnvelope(data); err != nil {
			return &StructuralError{Err: err}
		}
	}
	if !json.Valid(data) {
		return structural("", "input is not valid JSON")
	}

	d := newDeserializer(ctx, doc, opts)
	if err := d.decode(data); err != nil {
		return err
	}
	doc.MarkLoaded()
	if len(doc.Errors()) > 0 || len(doc.Warnings()) > 0 {
		d.logger.Log(ctx, slog.LevelDebug, "document loaded with diagnostics", log.DocumentAttr(doc), log.DiagnosticsAttr(doc))
	}
	if opts.DocumentHandler != nil {
		opts.DocumentHandler.PostLoad(doc)
	}
	return nil
}

// Load reads r completely and populates doc.
func Load(ctx context.Context, r io.Reader, doc *model.Document, opts *LoadOptions) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("could not read document %q: %w", doc.URI(), err)
	}
	return Unmarshal(ctx, data, doc, opts)
}

// LoadFile populates doc from the file its uri points to.
func LoadFile(ctx context.Context, doc *model.Document, opts *LoadOptions) error {
	path, err := FilePath(doc.URI())
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read %q: %w", path, err)
	}
	return Unmarshal(ctx, data, doc, opts)
}
