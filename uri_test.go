package modeljson_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ocm.software/open-component-model/bindings/go/modeljson"
)

func TestResolveURI(t *testing.T) {
	for _, tc := range []struct {
		base, ref, want string
	}{
		{base: "", ref: "lib.json", want: "lib.json"},
		{base: "main.json", ref: "lib.json", want: "lib.json"},
		{base: "dir/main.json", ref: "../lib.json#//@items.0", want: "lib.json#//@items.0"},
		{base: "dir/main.json", ref: "sub/lib.json", want: "dir/sub/lib.json"},
		{base: "/a/main.json", ref: "/b/lib.json", want: "/b/lib.json"},
		{base: "http://example.com/a/main.json", ref: "lib.json", want: "http://example.com/a/lib.json"},
		{base: "main.json", ref: "http://example.com/x.json", want: "http://example.com/x.json"},
	} {
		t.Run(tc.base+"+"+tc.ref, func(t *testing.T) {
			assert.Equal(t, tc.want, modeljson.ResolveURI(tc.base, tc.ref))
		})
	}
}

func TestDeresolveURI(t *testing.T) {
	for _, tc := range []struct {
		base, target, want string
	}{
		{base: "", target: "lib.json", want: "lib.json"},
		{base: "main.json", target: "lib.json#//@items.0", want: "lib.json#//@items.0"},
		{base: "/a/b/main.json", target: "/a/c/lib.json#x", want: "../c/lib.json#x"},
		{base: "dir/main.json", target: "dir/sub/lib.json", want: "sub/lib.json"},
		{base: "/a/main.json", target: "/a/main.json#/", want: "main.json#/"},
		{base: "http://example.com/a/main.json", target: "http://example.com/a/lib.json", want: "lib.json"},
		{base: "http://example.com/a/main.json", target: "http://other.com/lib.json", want: "http://other.com/lib.json"},
		{base: "http://example.com/main.json", target: "http://example.com/lib.json?v=1", want: "http://example.com/lib.json?v=1"},
		{base: "/a/main.json", target: "lib.json", want: "lib.json"},
	} {
		t.Run(tc.base+"+"+tc.target, func(t *testing.T) {
			got := modeljson.DeresolveURI(tc.base, tc.target)
			assert.Equal(t, tc.want, got)
			if got != tc.target {
				assert.Equal(t, tc.target, modeljson.ResolveURI(tc.base, got), "deresolved uris resolve back")
			}
		})
	}
}
