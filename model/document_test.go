package model_test

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

func TestDocumentPaths(t *testing.T) {
	m := newFS(t)
	r := require.New(t)

	doc := model.NewDocument("fs.json")
	root := m.newFolder(t, "root")
	a, b := m.newFile(t, "a"), m.newFile(t, "b")
	sub := m.newFolder(t, "sub")
	r.NoError(root.Add(m.items, a))
	r.NoError(root.Add(m.items, b))
	r.NoError(root.Set(m.sub, sub))
	r.NoError(doc.Add(root))

	tests := []struct {
		obj  *model.Object
		path string
	}{
		{root, "/"},
		{a, "//@items.0"},
		{b, "//@items.1"},
		{sub, "//@sub"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.path, doc.Path(tc.obj))
			assert.Same(t, tc.obj, doc.Object(tc.path))
		})
	}

	t.Run("multiple roots carry their index", func(t *testing.T) {
		r := require.New(t)
		second := m.newFolder(t, "second")
		r.NoError(doc.Add(second))
		r.Equal("/1", doc.Path(second))
		r.Equal("/0/@items.1", doc.Path(b))
		r.Same(b, doc.Object("/0/@items.1"))
		r.Same(b, doc.Object("//@items.1"), "empty root segment addresses the first root")
		r.True(doc.Remove(second))
	})

	t.Run("unowned objects are dangling", func(t *testing.T) {
		assert.Equal(t, model.DanglingFragment, doc.Path(m.newFile(t, "loose")))
	})

	t.Run("unresolvable paths", func(t *testing.T) {
		for _, fragment := range []string{"//@items.7", "//@missing", "/9", "//items.0", ""} {
			assert.Nil(t, doc.Object(fragment), fragment)
		}
	})
}

func TestDocumentIdentifiers(t *testing.T) {
	m := newFS(t)
	r := require.New(t)

	ids := model.NewUUIDManager()
	doc := model.NewDocument("fs.json", model.WithIDManager(ids))
	root := m.newFolder(t, "root")
	a := m.newFile(t, "a")
	r.NoError(root.Add(m.items, a))

	_, ok := ids.FindID(a)
	r.False(ok, "no identifier before attach")

	r.NoError(doc.Add(root))
	idA, ok := ids.FindID(a)
	r.True(ok, "attach creates identifiers for the whole subtree")
	r.Same(a, doc.ObjectByID(idA))
	r.Same(a, doc.Object(idA))
	r.Equal(idA, doc.Fragment(a))
	r.Equal("//@items.0", doc.Path(a))

	t.Run("set id replaces the index entry", func(t *testing.T) {
		r := require.New(t)
		doc.SetID(a, "file-a")
		r.Nil(doc.ObjectByID(idA))
		r.Same(a, doc.ObjectByID("file-a"))
		r.Equal("file-a", doc.ID(a))
	})

	t.Run("detach clears identifiers", func(t *testing.T) {
		r := require.New(t)
		r.True(root.Remove(m.items, a))
		r.Nil(doc.ObjectByID("file-a"))
		_, ok := ids.FindID(a)
		r.False(ok)
	})

	t.Run("unload clears everything", func(t *testing.T) {
		r := require.New(t)
		doc.AddError(assert.AnError)
		doc.Unload()
		r.Zero(doc.Len())
		r.Zero(ids.Len())
		r.Empty(doc.Errors())
	})
}

func TestDocumentIntrinsicIdentifiers(t *testing.T) {
	r := require.New(t)
	ns := model.NewNamespace("http://example.com/ids", "ids")
	node := ns.NewClass("Node", model.NewAttribute("key", model.StringType, model.AsID()))
	reg := model.NewRegistry(model.WithNamespaces(ns))

	doc := model.NewDocument("ids.json")
	obj := reg.MustInstantiate(node)
	r.NoError(obj.SetByName("key", "n1"))
	r.NoError(doc.Add(obj))

	r.Equal("n1", doc.Fragment(obj))
	r.Same(obj, doc.Object("n1"))
}

func TestDocumentControl(t *testing.T) {
	m := newFS(t)
	r := require.New(t)

	main := model.NewDocument("main.json")
	part := model.NewDocument("part.json")
	root := m.newFolder(t, "root")
	child := m.newFolder(t, "child")
	r.NoError(root.Set(m.sub, child))
	r.NoError(main.Add(root))
	r.Same(main, child.Document())

	r.NoError(part.Control(child))
	r.Same(root, child.Container(), "controlled objects keep their container")
	r.Same(part, child.Document())
	r.Equal("/", part.Path(child))
	r.Equal([]*model.Object{root}, slices.Collect(main.AllContents()), "controlled subtrees belong to their own document")

	r.True(part.Remove(child))
	r.Same(main, child.Document())
}

func TestDocumentSet(t *testing.T) {
	m := newFS(t)
	r := require.New(t)
	ctx := t.Context()

	var loads []string
	set := model.NewDocumentSet(m.reg, model.WithLoader(model.DocumentLoaderFunc(
		func(ctx context.Context, set *model.DocumentSet, uri string) (*model.Document, error) {
			loads = append(loads, uri)
			doc := set.Create(uri)
			folder := m.newFolder(t, uri)
			if err := folder.Add(m.items, m.newFile(t, "x")); err != nil {
				return nil, err
			}
			return doc, doc.Add(folder)
		})))

	main := set.Create("main.json")
	r.Same(main, set.Create("main.json"))
	r.Same(set, main.Set())

	doc, err := set.Get(ctx, "main.json", true)
	r.NoError(err)
	r.Same(main, doc)
	r.Empty(loads)

	_, err = set.Get(ctx, "lib.json", false)
	r.ErrorIs(err, model.ErrDocumentNotFound)

	lib, err := set.Get(ctx, "lib.json", true)
	r.NoError(err)
	r.Equal([]string{"lib.json"}, loads)
	r.Equal(1, lib.Len())

	proxy := model.NewProxy(m.file, "lib.json#//@items.0")
	resolved, err := set.Resolve(ctx, proxy)
	r.NoError(err)
	r.Equal("x", resolved.Get(m.fileName))
	r.Equal([]string{"lib.json"}, loads, "loaded documents are reused")

	_, err = set.Resolve(ctx, model.NewProxy(nil, "lib.json#//@items.5"))
	r.ErrorIs(err, model.ErrDocumentNotFound)

	r.NoError(set.Rename(lib, "renamed.json"))
	_, ok := set.Lookup("lib.json")
	r.False(ok)
	r.Equal([]*model.Document{main, lib}, set.Documents())
	r.True(set.Remove("renamed.json"))
	r.Nil(lib.Set())
}

func TestDiff(t *testing.T) {
	m := newFS(t)
	build := func(name string) *model.Document {
		doc := model.NewDocument("fs.json")
		root := m.newFolder(t, "root")
		a := m.newFile(t, name)
		require.NoError(t, root.Add(m.items, a))
		require.NoError(t, root.Add(m.links, a))
		require.NoError(t, doc.Add(root))
		return doc
	}
	assert.True(t, model.Equal(build("a"), build("a")))
	diffs := model.Diff(build("a"), build("b"))
	require.Len(t, diffs, 1)
	assert.Contains(t, diffs[0], "//@items.0: name")
}
