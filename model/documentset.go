package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	slogcontext "github.com/veqryn/slog-context"
)

// ErrDocumentNotFound is returned when a document is neither present nor loadable.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentLoader reads a document on demand. Implementations should add the
// document to the set before reading its content so that cyclic references
// between documents terminate.
type DocumentLoader interface {
	Load(ctx context.Context, set *DocumentSet, uri string) (*Document, error)
}

// DocumentLoaderFunc adapts a function to DocumentLoader.
type DocumentLoaderFunc func(ctx context.Context, set *DocumentSet, uri string) (*Document, error)

func (f DocumentLoaderFunc) Load(ctx context.Context, set *DocumentSet, uri string) (*Document, error) {
	return f(ctx, set, uri)
}

// DocumentSet is the universe of documents reachable for cross-document
// references, keyed by uri. It is safe for concurrent use; the documents it
// holds are not.
type DocumentSet struct {
	mu        sync.Mutex
	registry  *Registry
	documents map[string]*Document
	order     []string
	loader    DocumentLoader
	idManager func() IDManager
}

// DocumentSetOption configures a DocumentSet created with NewDocumentSet.
type DocumentSetOption func(*DocumentSet)

// WithLoader sets the loader used for documents that are not yet present.
func WithLoader(loader DocumentLoader) DocumentSetOption {
	return func(s *DocumentSet) {
		s.loader = loader
	}
}

// WithDocumentIDManager makes Create attach an identifier manager to every new document.
func WithDocumentIDManager(factory func() IDManager) DocumentSetOption {
	return func(s *DocumentSet) {
		s.idManager = factory
	}
}

// NewDocumentSet creates an empty set backed by registry.
func NewDocumentSet(registry *Registry, opts ...DocumentSetOption) *DocumentSet {
	s := &DocumentSet{
		registry:  registry,
		documents: make(map[string]*Document),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DocumentSet) Registry() *Registry {
	return s.registry
}

// SetLoader replaces the loader.
func (s *DocumentSet) SetLoader(loader DocumentLoader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loader = loader
}

// Create adds a new empty document. An existing document with the same uri is returned unchanged.
func (s *DocumentSet) Create(uri string, opts ...DocumentOption) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.documents[uri]; ok {
		return doc
	}
	if s.idManager != nil {
		opts = append([]DocumentOption{WithIDManager(s.idManager())}, opts...)
	}
	doc := NewDocument(uri, opts...)
	s.add(doc)
	return doc
}

// Add registers an existing document.
func (s *DocumentSet) Add(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.documents[doc.uri]; ok {
		if existing == doc {
			return nil
		}
		return fmt.Errorf("document %q is already part of the set", doc.uri)
	}
	if doc.set != nil && doc.set != s {
		return fmt.Errorf("document %q belongs to another set", doc.uri)
	}
	s.add(doc)
	return nil
}

func (s *DocumentSet) add(doc *Document) {
	doc.set = s
	s.documents[doc.uri] = doc
	s.order = append(s.order, doc.uri)
}

// Remove drops a document from the set without unloading it.
func (s *DocumentSet) Remove(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[uri]
	if !ok {
		return false
	}
	doc.set = nil
	delete(s.documents, uri)
	for i, u := range s.order {
		if u == uri {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Rename changes the uri of a document held by the set.
func (s *DocumentSet) Rename(doc *Document, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.documents[doc.uri] != doc {
		return fmt.Errorf("%w: %q", ErrDocumentNotFound, doc.uri)
	}
	if _, taken := s.documents[uri]; taken {
		return fmt.Errorf("document %q is already part of the set", uri)
	}
	delete(s.documents, doc.uri)
	for i, u := range s.order {
		if u == doc.uri {
			s.order[i] = uri
		}
	}
	doc.uri = uri
	s.documents[uri] = doc
	return nil
}

// Lookup returns a document without loading it.
func (s *DocumentSet) Lookup(uri string) (*Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[uri]
	return doc, ok
}

// Documents returns all documents in insertion order.
func (s *DocumentSet) Documents() []*Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]*Document, 0, len(s.order))
	for _, uri := range s.order {
		docs = append(docs, s.documents[uri])
	}
	return docs
}

// Get returns the document for uri, loading it through the loader when it
// is not yet present and load is true. Loading blocks the caller; bound it
// with ctx.
func (s *DocumentSet) Get(ctx context.Context, uri string, load bool) (*Document, error) {
	s.mu.Lock()
	doc, ok := s.documents[uri]
	loader := s.loader
	s.mu.Unlock()
	if ok {
		return doc, nil
	}
	if !load || loader == nil {
		return nil, fmt.Errorf("%w: %q", ErrDocumentNotFound, uri)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slogcontext.FromCtx(ctx).With(slog.String("realm", "modeljson")).Log(ctx, slog.LevelDebug, "loading document on demand", slog.String("uri", uri))
	doc, err := loader.Load(ctx, s, uri)
	if err != nil {
		return nil, fmt.Errorf("could not load document %q: %w", uri, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %q", ErrDocumentNotFound, uri)
	}
	if err := s.Add(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Resolve replaces a proxy with the object it designates. Non-proxies are
// returned unchanged.
func (s *DocumentSet) Resolve(ctx context.Context, proxy *Object) (*Object, error) {
	if !proxy.IsProxy() {
		return proxy, nil
	}
	uri, fragment, _ := strings.Cut(proxy.ProxyURI(), "#")
	doc, err := s.Get(ctx, uri, true)
	if err != nil {
		return nil, err
	}
	obj := doc.Object(fragment)
	if obj == nil {
		return nil, fmt.Errorf("%w: no object at %q", ErrDocumentNotFound, proxy.ProxyURI())
	}
	return obj, nil
}
