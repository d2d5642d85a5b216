package modeljson

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

// DefaultConcurrency bounds the documents written in parallel by SaveAll and MarshalAll.
const DefaultConcurrency = 4

// MarshalAll serializes documents concurrently. The documents must not be
// modified while this runs. The result is keyed by document uri.
func MarshalAll(ctx context.Context, docs []*model.Document, opts *SaveOptions, concurrency int) (map[string][]byte, error) {
	var mu sync.Mutex
	out := make(map[string][]byte, len(docs))
	err := forEachDocument(ctx, docs, concurrency, func(ctx context.Context, doc *model.Document) error {
		data, err := Marshal(ctx, doc, opts)
		if err != nil {
			return fmt.Errorf("could not marshal %q: %w", doc.URI(), err)
		}
		mu.Lock()
		defer mu.Unlock()
		out[doc.URI()] = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SaveAll writes every document to the file its uri points to.
func SaveAll(ctx context.Context, docs []*model.Document, opts *SaveOptions, concurrency int) error {
	return forEachDocument(ctx, docs, concurrency, func(ctx context.Context, doc *model.Document) error {
		if err := SaveFile(ctx, doc, opts); err != nil {
			return fmt.Errorf("could not save %q: %w", doc.URI(), err)
		}
		return nil
	})
}

func forEachDocument(ctx context.Context, docs []*model.Document, concurrency int, fn func(context.Context, *model.Document) error) error {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for _, doc := range docs {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			return fn(egctx, doc)
		})
	}
	return eg.Wait()
}
