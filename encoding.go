package modeljson

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func isUTF8(name string) bool {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	// "utf-16" without an explicit byte order carries a byte order mark so
	// the document can be read back without knowing its encoding.
	if strings.EqualFold(name, "utf-16") {
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	return enc, nil
}

// encodeCharset converts UTF-8 output to the named encoding.
func encodeCharset(data []byte, name string) ([]byte, error) {
	if isUTF8(name) {
		return data, nil
	}
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewEncoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("could not encode document as %s: %w", name, err)
	}
	return out, nil
}

// decodeCharset converts input to UTF-8. Without a name, a UTF-8 or UTF-16
// byte order mark decides and UTF-8 is assumed otherwise.
func decodeCharset(data []byte, name string) ([]byte, error) {
	var fallback encoding.Encoding = unicode.UTF8
	if !isUTF8(name) {
		enc, err := lookupEncoding(name)
		if err != nil {
			return nil, err
		}
		fallback = enc
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(fallback.NewDecoder()), data)
	if err != nil {
		return nil, fmt.Errorf("could not decode document: %w", err)
	}
	return out, nil
}
