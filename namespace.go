package modeljson

import (
	"slices"
	"strconv"

	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

const (
	emptyPrefixReplacement = "_"
	prefixSuffixSeparator  = "_"
)

// namespaceTable assigns document unique prefixes to namespaces during a save.
type namespaceTable struct {
	mustHavePrefix bool
	assigned       map[*model.Namespace]string
	prefixes       map[string]string
	uriPrefixes    map[string][]string
	order          []string
}

func newNamespaceTable(mustHavePrefix bool) *namespaceTable {
	return &namespaceTable{
		mustHavePrefix: mustHavePrefix,
		assigned:       make(map[*model.Namespace]string),
		prefixes:       make(map[string]string),
		uriPrefixes:    make(map[string][]string),
	}
}

// PrefixFor returns the prefix of ns, assigning one on first use. A prefix
// already taken by another uri gets a "_<n>" suffix.
func (t *namespaceTable) PrefixFor(ns *model.Namespace) string {
	return t.prefixFor(ns, t.mustHavePrefix)
}

func (t *namespaceTable) prefixFor(ns *model.Namespace, mustHavePrefix bool) string {
	prefix, ok := t.assigned[ns]
	if ok && (!mustHavePrefix || prefix != "") {
		return prefix
	}
	for _, candidate := range t.uriPrefixes[ns.URI] {
		if !mustHavePrefix || candidate != "" {
			return candidate
		}
	}
	prefix = ns.Prefix
	if prefix == "" && mustHavePrefix {
		prefix = emptyPrefixReplacement
	}
	prefix = t.unique(prefix, ns.URI)
	if !ok {
		t.assigned[ns] = prefix
	}
	return prefix
}

func (t *namespaceTable) unique(prefix, uri string) string {
	if existing, taken := t.prefixes[prefix]; taken && existing != uri {
		for i := 1; ; i++ {
			candidate := prefix + prefixSuffixSeparator + strconv.Itoa(i)
			if _, taken := t.prefixes[candidate]; !taken {
				prefix = candidate
				break
			}
		}
	}
	if _, taken := t.prefixes[prefix]; !taken {
		t.prefixes[prefix] = uri
		t.uriPrefixes[uri] = append(t.uriPrefixes[uri], prefix)
		t.order = append(t.order, prefix)
	}
	return prefix
}

// QualifiedName renders "prefix:Name", "Name" for an empty prefix and
// "prefix" for an empty name.
func (t *namespaceTable) QualifiedName(ns *model.Namespace, name string) string {
	if ns == nil {
		return name
	}
	prefix := t.PrefixFor(ns)
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	}
	return prefix + ":" + name
}

// Entries lists the assigned prefixes sorted by prefix.
func (t *namespaceTable) Entries() []namespaceEntry {
	prefixes := slices.Clone(t.order)
	slices.Sort(prefixes)
	entries := make([]namespaceEntry, 0, len(prefixes))
	for _, p := range prefixes {
		entries = append(entries, namespaceEntry{Prefix: p, URI: t.prefixes[p]})
	}
	return entries
}

type namespaceEntry struct {
	Prefix string
	URI    string
}
