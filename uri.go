package modeljson

import (
	"net/url"
	"path"
	"strings"
)

// ResolveURI resolves ref against base. Scheme less bases are treated as
// relative file paths and stay relative.
func ResolveURI(base, ref string) string {
	if base == "" || ref == "" {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil || refURL.IsAbs() || refURL.Host != "" {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	if baseURL.IsAbs() || baseURL.Host != "" {
		return baseURL.ResolveReference(refURL).String()
	}
	if strings.HasPrefix(refURL.Path, "/") {
		return ref
	}
	resolved := path.Join(path.Dir(baseURL.Path), refURL.Path)
	if refURL.Fragment != "" {
		resolved += "#" + refURL.EscapedFragment()
	}
	return resolved
}

// DeresolveURI makes target relative to base where both share scheme and
// host. Anything else is returned unchanged.
func DeresolveURI(base, target string) string {
	if base == "" {
		return target
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Opaque != "" {
		return target
	}
	targetURL, err := url.Parse(target)
	if err != nil || targetURL.Opaque != "" || targetURL.RawQuery != "" {
		return target
	}
	if baseURL.Scheme != targetURL.Scheme || baseURL.Host != targetURL.Host {
		return target
	}
	if path.IsAbs(baseURL.Path) != path.IsAbs(targetURL.Path) {
		return target
	}
	rel := targetURL.Path
	if rel != baseURL.Path {
		dir := path.Dir(baseURL.Path)
		if dir != "." || path.IsAbs(rel) {
			rel = relativePath(dir, targetURL.Path)
		}
	} else {
		rel = path.Base(rel)
	}
	if targetURL.Fragment != "" {
		rel += "#" + targetURL.EscapedFragment()
	}
	return rel
}

// relativePath is filepath.Rel for slash separated paths.
func relativePath(base, target string) string {
	base, target = path.Clean(base), path.Clean(target)
	if base == "." {
		base = ""
	}
	baseParts := splitPath(base)
	targetParts := splitPath(target)
	common := 0
	for common < len(baseParts) && common < len(targetParts) && baseParts[common] == targetParts[common] {
		common++
	}
	parts := make([]string, 0, len(baseParts)-common+len(targetParts)-common)
	for range baseParts[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, targetParts[common:]...)
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// splitReference separates "uri#fragment". ok is false without '#'.
func splitReference(token string) (uri, fragment string, ok bool) {
	return strings.Cut(token, "#")
}

type defaultURIHandler struct{}

func (defaultURIHandler) Resolve(base, uri string) string   { return ResolveURI(base, uri) }
func (defaultURIHandler) Deresolve(base, uri string) string { return DeresolveURI(base, uri) }
