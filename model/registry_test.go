package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

func TestRegistry(t *testing.T) {
	r := require.New(t)

	ns := model.NewNamespace("http://example.com/fs", "fs")
	named := ns.NewClass("Named", model.NewAttribute("name", model.StringType))
	named.Abstract = true
	file := ns.NewClass("File").Extends(named)

	reg := model.NewRegistry()
	r.NoError(reg.Register(ns))
	r.True(reg.IsRegistered(ns.URI))
	r.True(ns.Sealed())

	t.Run("register same namespace twice", func(t *testing.T) {
		require.NoError(t, reg.Register(ns))
	})

	t.Run("register conflicting namespace", func(t *testing.T) {
		err := reg.Register(model.NewNamespace(ns.URI, "other"))
		require.Error(t, err)
	})

	t.Run("class lookup", func(t *testing.T) {
		r := require.New(t)
		c, err := reg.ClassOf(ns.URI, "File")
		r.NoError(err)
		r.Same(file, c)

		_, err = reg.ClassOf(ns.URI, "Missing")
		r.ErrorIs(err, model.ErrUnknownClass)

		_, err = reg.ClassOf("http://unknown", "File")
		r.ErrorIs(err, model.ErrUnknownNamespace)
	})

	t.Run("inherited features come first", func(t *testing.T) {
		features := reg.FeaturesOf(file)
		require.Len(t, features, 1)
		assert.Equal(t, "name", features[0].Name)
		assert.Same(t, named, features[0].Owner())
	})

	t.Run("instantiate", func(t *testing.T) {
		r := require.New(t)
		obj, err := reg.Instantiate(file)
		r.NoError(err)
		r.Same(file, obj.Class())

		_, err = reg.Instantiate(named)
		r.ErrorIs(err, model.ErrAbstractClass)

		unregistered := model.NewNamespace("http://example.com/other", "o").NewClass("X")
		_, err = reg.Instantiate(unregistered)
		r.ErrorIs(err, model.ErrUnknownNamespace)
	})

	t.Run("clone is independent", func(t *testing.T) {
		clone := reg.Clone()
		clone.MustRegister(model.Meta())
		assert.True(t, clone.IsRegistered(model.MetaNamespaceURI))
		assert.False(t, reg.IsRegistered(model.MetaNamespaceURI))
	})
}

func TestRegistryRejectsInvalidNamespaces(t *testing.T) {
	tests := []struct {
		name  string
		build func() *model.Namespace
	}{
		{
			name: "duplicate feature",
			build: func() *model.Namespace {
				ns := model.NewNamespace("http://example.com/dup", "d")
				ns.NewClass("A", model.NewAttribute("x", model.IntType), model.NewAttribute("x", model.IntType))
				return ns
			},
		},
		{
			name: "attribute without data type",
			build: func() *model.Namespace {
				ns := model.NewNamespace("http://example.com/nodt", "d")
				ns.NewClass("A", model.NewAttribute("x", nil))
				return ns
			},
		},
		{
			name: "unknown opposite",
			build: func() *model.Namespace {
				ns := model.NewNamespace("http://example.com/opp", "d")
				a := ns.NewClass("A")
				a.AddFeatures(model.NewReference("self", a, model.WithOpposite("missing")))
				return ns
			},
		},
		{
			name: "inheritance cycle",
			build: func() *model.Namespace {
				ns := model.NewNamespace("http://example.com/cycle", "d")
				a := ns.NewClass("A")
				b := ns.NewClass("B").Extends(a)
				a.Extends(b)
				return ns
			},
		},
		{
			name: "duplicate class",
			build: func() *model.Namespace {
				ns := model.NewNamespace("http://example.com/dupclass", "d")
				ns.NewClass("A")
				ns.NewClass("A")
				return ns
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := model.NewRegistry().Register(tc.build())
			require.Error(t, err)
		})
	}
}

func TestMetaNamespace(t *testing.T) {
	r := require.New(t)
	reg := model.NewRegistry(model.WithMetaNamespace())

	for name, shape := range map[string]model.Shape{
		model.ClassAnnotation:    model.ShapeAnnotation,
		model.ClassDetailEntry:   model.ShapeDetailEntry,
		model.ClassEnumLiteral:   model.ShapeEnumLiteral,
		model.ClassOperation:     model.ShapeOperation,
		model.ClassParameter:     model.ShapeParameter,
		model.ClassTypeParameter: model.ShapeTypeParameter,
		model.ClassGenericType:   model.ShapeGenericType,
	} {
		c, err := reg.ClassOf(model.MetaNamespaceURI, name)
		r.NoError(err, name)
		r.Equal(shape, c.Shape, name)
	}

	operation := model.MetaClass(model.ClassOperation)
	for _, name := range []string{
		model.FeatureAnnotations, model.FeatureName, model.FeatureType, model.FeatureGenericType,
		model.FeatureTypeParameters, model.FeatureParameters, model.FeatureExceptions, model.FeatureGenericExceptions,
	} {
		r.NotNil(operation.Feature(name), name)
	}
	r.Same(model.Meta(), model.Meta())
	r.Same(model.Meta(), model.StringType.Namespace())

	_, err := reg.Instantiate(model.MetaClass(model.ClassNamedElement))
	r.True(errors.Is(err, model.ErrAbstractClass))
}
