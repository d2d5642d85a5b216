package model_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

type fsModel struct {
	ns     *model.Namespace
	reg    *model.Registry
	folder *model.Class
	file   *model.Class

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
}

func newFS(t testing.TB) *fsModel {
	t.Helper()
	m := &fsModel{ns: model.NewNamespace("http://example.com/fs", "fs")}
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
	m.file.AddFeatures(m.fileName, m.size, m.tags, m.parent, m.owner)

	m.reg = model.NewRegistry()
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
