package xpath

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// collationRegistry resolves the collation URIs ordering and grouping
// functions accept into comparator funcs, caching one collate.Collator
// per requested locale/URI.
type collationRegistry struct {
	byURI map[string]*collate.Collator
}

func newCollationRegistry() *collationRegistry {
	return &collationRegistry{byURI: make(map[string]*collate.Collator)}
}

// defaultCollationURI is returned by fn:default-collation when no
// other collation has been declared.
const defaultCollationURI = "http://www.w3.org/2005/xpath-functions/collation/codepoint"

// resolve returns the collator for uri and true, or false when uri
// names neither the default codepoint collation nor a recognizable
// BCP-47-flavored locale collation. Callers must treat a false result
// as a hard evaluation error rather than silently comparing under a
// fallback locale.
func (r *collationRegistry) resolve(uri string) (func(a, b string) int, bool) {
	if uri == "" || uri == defaultCollationURI {
		return strings.Compare, true
	}
	if c, ok := r.byURI[uri]; ok {
		return func(a, b string) int { return c.CompareString(a, b) }, true
	}
	tag, ok := collationTagFor(uri)
	if !ok {
		return nil, false
	}
	c := collate.New(tag, collate.Loose)
	r.byURI[uri] = c
	return func(a, b string) int { return c.CompareString(a, b) }, true
}

// collationTagFor maps a subset of BCP-47-flavored collation URIs
// (e.g. ".../collation/de") onto a language.Tag, reporting false when
// the trailing path segment isn't a parseable BCP-47 tag.
func collationTagFor(uri string) (language.Tag, bool) {
	idx := strings.LastIndex(uri, "/")
	if idx < 0 || idx == len(uri)-1 {
		return language.Und, false
	}
	tag, err := language.Parse(uri[idx+1:])
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

// normalizeUnicode applies the Unicode normalization form fn:normalize
// -unicode names ("NFC", "NFD", "NFKC", "NFKD", "" meaning NFC).
func normalizeUnicode(s, form string) string {
	switch strings.ToUpper(form) {
	case "", "NFC":
		return norm.NFC.String(s)
	case "NFD":
		return norm.NFD.String(s)
	case "NFKC":
		return norm.NFKC.String(s)
	case "NFKD":
		return norm.NFKD.String(s)
	}
	return s
}
