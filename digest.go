package modeljson

import (
	"context"
	"fmt"

	"github.com/opencontainers/go-digest"

	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

// Digest returns the sha256 digest of the canonical serialization of doc.
// Formatting options of opts are ignored so equal documents have equal digests.
func Digest(ctx context.Context, doc *model.Document, opts *SaveOptions) (digest.Digest, error) {
	opts = opts.withDefaults()
	opts.Canonical = true
	opts.Indent = 0
	opts.Encoding = DefaultEncoding
	data, err := Marshal(ctx, doc, opts)
	if err != nil {
		return "", fmt.Errorf("could not digest %q: %w", doc.URI(), err)
	}
	return digest.Canonical.FromBytes(data), nil
}

// VerifyDigest reports whether doc serializes to expected.
func VerifyDigest(ctx context.Context, doc *model.Document, expected digest.Digest, opts *SaveOptions) (bool, error) {
	if err := expected.Validate(); err != nil {
		return false, err
	}
	actual, err := Digest(ctx, doc, opts)
	if err != nil {
		return false, err
	}
	return actual == expected, nil
}
