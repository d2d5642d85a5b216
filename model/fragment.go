package model

import (
	"slices"
	"strconv"
	"strings"
)

const (
	segmentSeparator = "/"
	featurePrefix    = "@"
	indexSeparator   = "."
	// DanglingFragment is the path of an object not contained in the document.
	DanglingFragment = "/-1"
)

// Path returns the structural fragment of obj inside the document:
// "/" + root segment followed by one "@feature" or "@feature.index" segment
// per containment step. The root segment is empty for single-root
// documents and the root index otherwise. Objects not owned by the
// document yield DanglingFragment.
func (d *Document) Path(obj *Object) string {
	var segments []string
	cur := obj
	for cur.document != d {
		if cur.container == nil {
			return DanglingFragment
		}
		segments = append(segments, Segment(cur.containingFeature, cur.container, cur))
		cur = cur.container
	}
	segments = append(segments, d.rootSegment(cur), "")
	slices.Reverse(segments)
	return strings.Join(segments, segmentSeparator)
}

// Fragment returns the identifier of obj if it has one, the structural
// path otherwise.
func (d *Document) Fragment(obj *Object) string {
	if id := d.ID(obj); id != "" {
		return id
	}
	return d.Path(obj)
}

func (d *Document) rootSegment(root *Object) string {
	if len(d.contents) > 1 {
		return strconv.Itoa(slices.Index(d.contents, root))
	}
	return ""
}

// Segment renders the path step from container to child through f.
func Segment(f *Feature, container, child *Object) string {
	if !f.Many {
		return featurePrefix + f.Name
	}
	return featurePrefix + f.Name + indexSeparator + strconv.Itoa(slices.Index(container.Refs(f), child))
}

// Object resolves a fragment produced by Fragment or Path. Fragments that do
// not start with "/" are looked up as identifiers. Unresolvable fragments
// return nil.
func (d *Document) Object(fragment string) *Object {
	if !strings.HasPrefix(fragment, segmentSeparator) {
		if fragment == "" {
			return nil
		}
		return d.ObjectByID(fragment)
	}
	segments := strings.Split(fragment[1:], segmentSeparator)
	root := d.rootFor(segments[0])
	if root == nil {
		return nil
	}
	return Navigate(root, segments[1:])
}

func (d *Document) rootFor(segment string) *Object {
	if segment == "" {
		if len(d.contents) == 0 {
			return nil
		}
		return d.contents[0]
	}
	index, err := strconv.Atoi(segment)
	if err != nil || index < 0 || index >= len(d.contents) {
		return nil
	}
	return d.contents[index]
}

// Navigate follows "@feature" or "@feature.index" segments from obj.
func Navigate(obj *Object, segments []string) *Object {
	cur := obj
	for _, segment := range segments {
		if cur == nil {
			return nil
		}
		if segment == "" {
			continue
		}
		name, ok := strings.CutPrefix(segment, featurePrefix)
		if !ok {
			return nil
		}
		index := -1
		if dot := strings.LastIndex(name, indexSeparator); dot >= 0 {
			i, err := strconv.Atoi(name[dot+1:])
			if err == nil {
				index = i
				name = name[:dot]
			}
		}
		f := cur.FeatureByName(name)
		if f == nil || !f.IsReference() {
			return nil
		}
		if f.Many {
			refs := cur.Refs(f)
			if index < 0 {
				index = 0
			}
			if index >= len(refs) {
				return nil
			}
			cur = refs[index]
		} else {
			cur = cur.Ref(f)
		}
	}
	return cur
}
