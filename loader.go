package modeljson

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"ocm.software/open-component-model/bindings/go/modeljson/internal/log"
	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

// FilePath maps a document uri to a local path. Scheme less uris are paths
// already; "file" uris are converted; other schemes are rejected.
func FilePath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid document uri %q: %w", uri, err)
	}
	if u.Scheme != "" && u.Scheme != "file" {
		return "", fmt.Errorf("document uri %q is not a local file", uri)
	}
	return filepath.FromSlash(u.Path), nil
}

// FileLoader loads referenced documents of a set from the file system.
type FileLoader struct {
	// Options are used for every loaded document. The registry defaults to
	// the one of the set.
	Options *LoadOptions
}

var _ model.DocumentLoader = (*FileLoader)(nil)

func (l *FileLoader) Load(ctx context.Context, set *model.DocumentSet, uri string) (_ *model.Document, err error) {
	done := log.Operation(ctx, "load referenced document", slog.String("uri", uri))
	defer func() { done(err) }()

	path, err := FilePath(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDocumentNotFound, err)
	}
	doc := set.Create(uri)
	if err := Unmarshal(ctx, data, doc, l.Options); err != nil {
		set.Remove(uri)
		return nil, err
	}
	return doc, nil
}

// FileSchemaLoader reads schemaLocation entries as schema definition files.
type FileSchemaLoader struct{}

var _ SchemaLoader = FileSchemaLoader{}

func (FileSchemaLoader) LoadSchema(ctx context.Context, location string, registry TypeRegistry) (err error) {
	done := log.Operation(ctx, "load schema", slog.String("location", location))
	defer func() { done(err) }()

	path, err := FilePath(location)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read schema: %w", err)
	}
	def, err := model.ParseSchema(data)
	if err != nil {
		return err
	}
	namespaces, err := def.Build(registry)
	if err != nil {
		return err
	}
	return registry.Register(namespaces...)
}
