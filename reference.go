package modeljson

import (
	"slices"
	"strconv"
	"strings"

	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

// locality classifies where a reference target lives relative to the
// document being written.
type locality int

const (
	localitySkip locality = iota
	localitySame
	localityCross
	localityDangling
)

// referenceWriter renders reference targets as fragment or href strings.
type referenceWriter struct {
	doc *model.Document
	// roots is set when only a subset of objects is written.
	roots        []*model.Object
	baseURI      string
	uris         URIHandler
	names        *namespaceTable
	forceDefault bool
	dynamicType  bool
}

func (w *referenceWriter) classify(target *model.Object) locality {
	switch {
	case target == nil:
		return localitySkip
	case target.IsProxy():
		return localityCross
	}
	if w.roots != nil {
		if w.rootIndex(target) >= 0 {
			return localitySame
		}
		if owner := target.Document(); owner != nil && owner != w.doc {
			return localityCross
		}
		return localityDangling
	}
	switch owner := target.Document(); owner {
	case w.doc:
		return localitySame
	case nil:
		return localityDangling
	default:
		return localityCross
	}
}

// classifyMany decides the locality of a whole list: empty lists are
// skipped and a single foreign element makes the list cross document.
func (w *referenceWriter) classifyMany(targets []*model.Object) locality {
	if len(targets) == 0 {
		return localitySkip
	}
	for _, t := range targets {
		if w.classify(t) == localityCross {
			return localityCross
		}
	}
	return localitySame
}

// fragment renders a same document reference. ok is false for dangling targets.
func (w *referenceWriter) fragment(target *model.Object) (string, bool) {
	if w.roots != nil {
		if w.doc != nil && !w.forceDefault {
			if id := w.doc.ID(target); id != "" {
				return id, true
			}
		} else if id := target.IntrinsicID(); id != "" {
			return id, true
		}
		return w.subsetPath(target)
	}
	var fragment string
	if w.forceDefault {
		if fragment = target.IntrinsicID(); fragment == "" {
			fragment = w.doc.Path(target)
		}
	} else {
		fragment = w.doc.Fragment(target)
	}
	if fragment == model.DanglingFragment {
		return "", false
	}
	return fragment, true
}

// subsetPath renders the path of target below the written roots. The first
// root has an empty root segment.
func (w *referenceWriter) subsetPath(target *model.Object) (string, bool) {
	i := w.rootIndex(target)
	if i < 0 {
		return "", false
	}
	root := w.roots[i]
	var segments []string
	for cur := target; cur != root; cur = cur.Container() {
		segments = append(segments, model.Segment(cur.ContainingFeature(), cur.Container(), cur))
	}
	rootSegment := ""
	if i > 0 {
		rootSegment = strconv.Itoa(i)
	}
	segments = append(segments, rootSegment, "")
	slices.Reverse(segments)
	return strings.Join(segments, "/"), true
}

func (w *referenceWriter) rootIndex(target *model.Object) int {
	for i, root := range w.roots {
		if root == target || root.IsAncestorOf(target) {
			return i
		}
	}
	return -1
}

// href renders a cross document reference as "uri#fragment" relative to the
// written document, prefixed by the qualified class name when dynamic types
// are displayed.
func (w *referenceWriter) href(target *model.Object) (string, bool) {
	var uri string
	if target.IsProxy() {
		uri = target.ProxyURI()
	} else {
		owner := target.Document()
		if owner == nil {
			return "", false
		}
		var fragment string
		if w.forceDefault {
			if fragment = target.IntrinsicID(); fragment == "" {
				fragment = owner.Path(target)
			}
		} else {
			fragment = owner.Fragment(target)
		}
		uri = owner.URI() + "#" + fragment
	}
	uri = w.uris.Deresolve(w.baseURI, uri)
	if w.dynamicType && target.Class() != nil {
		return w.names.QualifiedName(target.Class().Namespace(), target.Class().Name) + " " + uri, true
	}
	return uri, true
}

// reference renders target given the locality decided for its feature.
func (w *referenceWriter) reference(kind locality, target *model.Object) (string, bool) {
	switch w.classify(target) {
	case localitySame:
		fragment, ok := w.fragment(target)
		if ok && kind == localityCross {
			return "#" + fragment, true
		}
		return fragment, ok
	case localityCross:
		if kind != localityCross {
			return "", false
		}
		return w.href(target)
	default:
		return "", false
	}
}
