package model

import "sync"

const (
	// MetaNamespaceURI identifies the built-in meta namespace.
	MetaNamespaceURI = "http://ocm.software/modeljson/meta/1.0"
	// MetaPrefix is the preferred prefix of the meta namespace.
	MetaPrefix = "meta"
)

// Class names of the meta namespace.
const (
	ClassModelElement  = "ModelElement"
	ClassNamedElement  = "NamedElement"
	ClassTypedElement  = "TypedElement"
	ClassAnnotation    = "Annotation"
	ClassDetailEntry   = "DetailEntry"
	ClassEnumLiteral   = "EnumLiteral"
	ClassOperation     = "Operation"
	ClassParameter     = "Parameter"
	ClassTypeParameter = "TypeParameter"
	ClassGenericType   = "GenericType"
)

// Feature names used by the meta shapes.
const (
	FeatureAnnotations       = "eAnnotations"
	FeatureName              = "name"
	FeatureSource            = "source"
	FeatureReferences        = "references"
	FeatureDetails           = "details"
	FeatureKey               = "key"
	FeatureValue             = "value"
	FeatureLiteral           = "literal"
	FeatureType              = "eType"
	FeatureGenericType       = "eGenericType"
	FeatureTypeParameters    = "eTypeParameters"
	FeatureParameters        = "eParameters"
	FeatureExceptions        = "eExceptions"
	FeatureGenericExceptions = "eGenericExceptions"
	FeatureBounds            = "eBounds"
	FeatureClassifier        = "eClassifier"
	FeatureTypeParameter     = "eTypeParameter"
	FeatureTypeArguments     = "eTypeArguments"
)

// Meta returns the built-in namespace declaring the annotation, operation,
// generic type and enumeration literal shapes as well as the built-in data
// types. The same instance is returned on every call.
var Meta = sync.OnceValue(newMeta)

func newMeta() *Namespace {
	ns := NewNamespace(MetaNamespaceURI, MetaPrefix)
	for _, dt := range BuiltinDataTypes() {
		ns.AddDataType(dt)
	}

	modelElement := ns.NewClass(ClassModelElement)
	modelElement.Abstract = true
	annotation := ns.NewClass(ClassAnnotation)
	annotation.Shape = ShapeAnnotation
	detail := ns.NewClass(ClassDetailEntry)
	detail.Shape = ShapeDetailEntry
	named := ns.NewClass(ClassNamedElement)
	named.Abstract = true
	typed := ns.NewClass(ClassTypedElement)
	typed.Abstract = true
	literal := ns.NewClass(ClassEnumLiteral)
	literal.Shape = ShapeEnumLiteral
	operation := ns.NewClass(ClassOperation)
	operation.Shape = ShapeOperation
	parameter := ns.NewClass(ClassParameter)
	parameter.Shape = ShapeParameter
	typeParameter := ns.NewClass(ClassTypeParameter)
	typeParameter.Shape = ShapeTypeParameter
	genericType := ns.NewClass(ClassGenericType)
	genericType.Shape = ShapeGenericType

	modelElement.AddFeatures(NewContainment(FeatureAnnotations, annotation, Many()))

	annotation.Extends(modelElement).AddFeatures(
		NewAttribute(FeatureSource, StringType),
		NewContainment(FeatureDetails, detail, Many()),
		NewReference(FeatureReferences, nil, Many()),
	)
	detail.AddFeatures(
		NewAttribute(FeatureKey, StringType),
		NewAttribute(FeatureValue, StringType),
	)
	named.Extends(modelElement).AddFeatures(NewAttribute(FeatureName, StringType))
	typed.Extends(named).AddFeatures(
		NewReference(FeatureType, nil),
		NewContainment(FeatureGenericType, genericType),
	)
	literal.Extends(named).AddFeatures(
		NewAttribute(FeatureValue, IntType),
		NewAttribute(FeatureLiteral, StringType),
	)
	operation.Extends(typed).AddFeatures(
		NewContainment(FeatureTypeParameters, typeParameter, Many()),
		NewContainment(FeatureParameters, parameter, Many()),
		NewReference(FeatureExceptions, nil, Many()),
		NewContainment(FeatureGenericExceptions, genericType, Many()),
	)
	parameter.Extends(typed)
	typeParameter.Extends(named).AddFeatures(NewContainment(FeatureBounds, genericType, Many()))
	genericType.AddFeatures(
		NewReference(FeatureClassifier, nil),
		NewReference(FeatureTypeParameter, typeParameter),
		NewContainment(FeatureTypeArguments, genericType, Many()),
	)
	return ns
}

// MetaClass returns a class of the meta namespace by name.
func MetaClass(name string) *Class {
	return Meta().Class(name)
}
