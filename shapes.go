package modeljson

import (
	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

// encodeCompact writes a meta model element without envelope: its features
// are inlined in a fixed order and the class is implied by the containing
// feature. Features not covered by the shape follow in class order.
func (s *serializer) encodeCompact(obj *model.Object) (*Object, error) {
	order, suppressed := compactLayout(obj)
	skip := nameSet(order...)
	for name := range suppressed {
		skip[name] = true
	}
	out := newObject()
	for _, name := range order {
		if suppressed[name] {
			continue
		}
		f := obj.Class().Feature(name)
		if f == nil {
			continue
		}
		if err := s.encodeFeature(out, obj, f); err != nil {
			return nil, err
		}
	}
	for _, f := range remaining(obj, skip) {
		if err := s.encodeFeature(out, obj, f); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// compactLayout returns the feature order of the shape of obj and the
// features it leaves out for this particular object.
func compactLayout(obj *model.Object) (order []string, suppressed map[string]bool) {
	suppressed = map[string]bool{}
	isSet := func(name string) bool {
		f := obj.Class().Feature(name)
		return f != nil && obj.IsSet(f)
	}
	typed := func() {
		if isSet(model.FeatureGenericType) {
			suppressed[model.FeatureType] = true
		} else {
			suppressed[model.FeatureGenericType] = true
		}
	}

	switch obj.Class().Shape {
	case model.ShapeAnnotation:
		order = []string{model.FeatureSource, model.FeatureReferences, model.FeatureDetails, model.FeatureAnnotations}
	case model.ShapeDetailEntry:
		order = []string{model.FeatureKey, model.FeatureValue}
	case model.ShapeEnumLiteral:
		order = []string{model.FeatureAnnotations, model.FeatureName, model.FeatureValue, model.FeatureLiteral}
		if v, ok := obj.GetByName(model.FeatureValue).(int32); ok && v == 0 {
			suppressed[model.FeatureValue] = true
		}
	case model.ShapeOperation:
		order = []string{
			model.FeatureName, model.FeatureAnnotations, model.FeatureType, model.FeatureGenericType,
			model.FeatureTypeParameters, model.FeatureParameters, model.FeatureExceptions, model.FeatureGenericExceptions,
		}
		typed()
		if isSet(model.FeatureGenericExceptions) {
			suppressed[model.FeatureExceptions] = true
		} else {
			suppressed[model.FeatureGenericExceptions] = true
		}
	case model.ShapeParameter:
		order = []string{model.FeatureName, model.FeatureType, model.FeatureGenericType, model.FeatureAnnotations}
		typed()
	case model.ShapeTypeParameter:
		order = []string{model.FeatureName, model.FeatureAnnotations, model.FeatureBounds}
	case model.ShapeGenericType:
		order = []string{model.FeatureTypeParameter, model.FeatureClassifier, model.FeatureTypeArguments}
		if isSet(model.FeatureTypeParameter) {
			suppressed[model.FeatureClassifier] = true
			suppressed[model.FeatureTypeArguments] = true
		}
	}
	return order, suppressed
}
