// Package scanner locates candidate script and stylesheet tags in raw markup
// and parses their attribute fragments.
//
// The scanner is deliberately pattern-based rather than a full HTML
// tokenizer. Two limitations follow from that and are part of the contract:
// an attribute value cannot contain its own delimiting quote character, and
// attribute values cannot contain angle brackets. Both are accepted tradeoffs
// for a scanner that keeps stable byte offsets for in-place splicing.
//
// A quoted-empty value (a="") parses identically to a bare attribute, so
// empty-valued attributes collapse to boolean form on re-serialization.
package scanner

import (
	"regexp"
	"strings"
)

// attributePattern matches one attribute token: a name of word characters and
// hyphens, optionally followed by a double-quoted, single-quoted, or bare
// value. Whitespace between tokens is insignificant.
var attributePattern = regexp.MustCompile(`([\w-]+)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+)))?`)

// Attributes is the parsed name/value mapping for one tag occurrence.
// Insertion order is preserved so that formatting is deterministic and
// keeps the author's attribute order.
type Attributes struct {
	names  []string
	values map[string]string
}

// ParseAttributes parses a raw tag-attribute fragment into an Attributes map.
// Boolean (bare) attributes map to the empty string. Parsing is pure: the
// same fragment always yields the same result.
func ParseAttributes(fragment string) *Attributes {
	attrs := &Attributes{values: make(map[string]string)}

	for _, m := range attributePattern.FindAllStringSubmatch(fragment, -1) {
		name := m[1]
		value := ""
		switch {
		case m[2] != "":
			value = m[2]
		case m[3] != "":
			value = m[3]
		case m[4] != "":
			value = m[4]
		}
		attrs.Set(name, value)
	}

	return attrs
}

// Get returns the value for name and whether the attribute is present.
func (a *Attributes) Get(name string) (string, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Has reports whether the attribute is present, including bare attributes.
func (a *Attributes) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Set adds or replaces an attribute. A replaced attribute keeps its original
// position.
func (a *Attributes) Set(name, value string) {
	if _, ok := a.values[name]; !ok {
		a.names = append(a.names, name)
	}
	a.values[name] = value
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	return len(a.names)
}

// Names returns the attribute names in document order.
func (a *Attributes) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Map returns a plain name/value map copy.
func (a *Attributes) Map() map[string]string {
	out := make(map[string]string, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// Format re-serializes the attributes, skipping the excluded names. Bare
// attributes are emitted without a value, everything else as name="value".
// The result carries a single leading space when non-empty so it can be
// spliced directly after a tag name, and is empty otherwise.
func (a *Attributes) Format(exclude ...string) string {
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}

	var b strings.Builder
	for _, name := range a.names {
		if skip[name] {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(name)
		if value := a.values[name]; value != "" {
			b.WriteString(`="`)
			b.WriteString(value)
			b.WriteByte('"')
		}
	}

	return b.String()
}
