package modeljson_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

const fsURI = "http://example.com/fs"

type fsModel struct {
	ns      *model.Namespace
	reg     *model.Registry
	folder  *model.Class
	file    *model.Class
	pkg     *model.Class
	element *model.Class

	folderName *model.Feature
	items      *model.Feature
	sub        *model.Feature
	owned      *model.Feature
	links      *model.Feature

	fileName *model.Feature
	size     *model.Feature
	tags     *model.Feature
	parent   *model.Feature
	owner    *model.Feature
	color    *model.Feature
}

func newFS(t testing.TB) *fsModel {
	t.Helper()
	m := &fsModel{ns: model.NewNamespace(fsURI, "fs")}
	colors := m.ns.NewEnum("Color", "red", "green")
	m.folder = m.ns.NewClass("Folder")
	m.file = m.ns.NewClass("File")

	m.folderName = model.NewAttribute("name", model.StringType)
	m.items = model.NewContainment("items", m.file, model.Many(), model.WithOpposite("parent"))
	m.sub = model.NewContainment("sub", m.folder)
	m.owned = model.NewReference("owned", m.file, model.Many(), model.WithOpposite("owner"))
	m.links = model.NewReference("links", m.file, model.Many())
	m.folder.AddFeatures(m.folderName, m.items, m.sub, m.owned, m.links)

	m.fileName = model.NewAttribute("name", model.StringType)
	m.size = model.NewAttribute("size", model.LongType, model.WithDefault(int64(0)))
	m.tags = model.NewAttribute("tags", model.StringType, model.Many())
	m.parent = model.NewReference("parent", m.folder, model.WithOpposite("items"))
	m.owner = model.NewReference("owner", m.folder, model.WithOpposite("owned"))
	m.color = model.NewAttribute("color", colors)
	m.file.AddFeatures(m.fileName, m.size, m.tags, m.parent, m.owner, m.color)

	// Package carries annotations and operations of the meta namespace.
	m.pkg = m.ns.NewClass("Package",
		model.NewAttribute("name", model.StringType),
		model.NewContainment("operations", model.MetaClass(model.ClassOperation), model.Many()),
		model.NewContainment("literals", model.MetaClass(model.ClassEnumLiteral), model.Many()),
	).Extends(model.MetaClass(model.ClassModelElement))
	m.element = m.ns.NewClass("Element",
		model.NewAttribute("key", model.StringType, model.AsID()),
		model.NewReference("next", nil),
	)

	m.reg = model.NewRegistry(model.WithMetaNamespace())
	require.NoError(t, m.reg.Register(m.ns))
	return m
}

func (m *fsModel) newFolder(t testing.TB, name string) *model.Object {
	t.Helper()
	obj := m.reg.MustInstantiate(m.folder)
	require.NoError(t, obj.Set(m.folderName, name))
	return obj
}

func (m *fsModel) newFile(t testing.TB, name string) *model.Object {
	t.Helper()
	obj := m.reg.MustInstantiate(m.file)
	require.NoError(t, obj.Set(m.fileName, name))
	return obj
}

// tree builds root{items: [a, b], owned: [a], links: [b, a]} in a new document.
func (m *fsModel) tree(t testing.TB, uri string) (doc *model.Document, root, a, b *model.Object) {
	t.Helper()
	r := require.New(t)
	doc = model.NewDocument(uri)
	root = m.newFolder(t, "root")
	a, b = m.newFile(t, "a"), m.newFile(t, "b")
	r.NoError(a.Set(m.size, int64(42)))
	r.NoError(a.Set(m.tags, []any{"x", "y"}))
	r.NoError(root.Add(m.items, a))
	r.NoError(root.Add(m.items, b))
	r.NoError(root.Add(m.owned, a))
	r.NoError(root.Add(m.links, b))
	r.NoError(root.Add(m.links, a))
	r.NoError(doc.Add(root))
	return doc, root, a, b
}
