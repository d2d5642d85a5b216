package model

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"
	"time"
)

// ValuesEqual compares two attribute values of the same data type.
func ValuesEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case *big.Int:
		bv, ok := b.(*big.Int)
		return ok && (av == bv || av != nil && bv != nil && av.Cmp(bv) == 0)
	case *big.Rat:
		bv, ok := b.(*big.Rat)
		return ok && (av == bv || av != nil && bv != nil && av.Cmp(bv) == 0)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	default:
		return reflect.DeepEqual(a, b)
	}
}

// Diff compares two documents structurally: root count, classes, attribute
// values and reference targets by position. Same-document targets are
// compared by path, other targets by "document#fragment". Document uris
// and identifiers are ignored. An empty result means the documents are equal.
func Diff(a, b *Document) []string {
	var diffs []string
	if a.Len() != b.Len() {
		return append(diffs, fmt.Sprintf("root count %d != %d", a.Len(), b.Len()))
	}
	ca, cb := a.Contents(), b.Contents()
	for i := range ca {
		diffs = append(diffs, diffObjects(a, b, ca[i], cb[i])...)
	}
	return diffs
}

// Equal reports whether Diff finds no difference.
func Equal(a, b *Document) bool {
	return len(Diff(a, b)) == 0
}

func diffObjects(da, db *Document, a, b *Object) []string {
	location := da.Path(a)
	if a.class != b.class {
		return []string{fmt.Sprintf("%s: class %s != %s", location, a.class, b.class)}
	}
	var diffs []string
	for _, f := range a.class.Features() {
		if f.Transient || f.Derived {
			continue
		}
		switch {
		case f.IsAttribute() && f.Many:
			va, vb := a.Values(f), b.Values(f)
			if len(va) != len(vb) {
				diffs = append(diffs, fmt.Sprintf("%s: %s has %d values != %d", location, f.Name, len(va), len(vb)))
				continue
			}
			for i := range va {
				if !ValuesEqual(va[i], vb[i]) {
					diffs = append(diffs, fmt.Sprintf("%s: %s[%d] %v != %v", location, f.Name, i, va[i], vb[i]))
				}
			}
		case f.IsAttribute():
			if a.IsSet(f) != b.IsSet(f) || !ValuesEqual(a.Get(f), b.Get(f)) {
				diffs = append(diffs, fmt.Sprintf("%s: %s %v != %v", location, f.Name, a.Get(f), b.Get(f)))
			}
		case f.Containment:
			ra, rb := containedList(a, f), containedList(b, f)
			if len(ra) != len(rb) {
				diffs = append(diffs, fmt.Sprintf("%s: %s has %d children != %d", location, f.Name, len(ra), len(rb)))
				continue
			}
			for i := range ra {
				diffs = append(diffs, diffObjects(da, db, ra[i], rb[i])...)
			}
		case f.IsContainerReference():
		default:
			ra, rb := containedList(a, f), containedList(b, f)
			if len(ra) != len(rb) {
				diffs = append(diffs, fmt.Sprintf("%s: %s has %d targets != %d", location, f.Name, len(ra), len(rb)))
				continue
			}
			for i := range ra {
				ta, tb := address(da, ra[i]), address(db, rb[i])
				if ta != tb {
					diffs = append(diffs, fmt.Sprintf("%s: %s[%d] -> %s != %s", location, f.Name, i, ta, tb))
				}
			}
		}
	}
	return diffs
}

func containedList(o *Object, f *Feature) []*Object {
	if f.Many {
		return o.Refs(f)
	}
	if r := o.Ref(f); r != nil {
		return []*Object{r}
	}
	return nil
}

func address(doc *Document, target *Object) string {
	if target.IsProxy() {
		return target.ProxyURI()
	}
	owner := target.Document()
	switch owner {
	case doc:
		return doc.Path(target)
	case nil:
		return DanglingFragment
	default:
		return owner.URI() + "#" + owner.Path(target)
	}
}
