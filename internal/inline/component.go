package inline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/conneroisu/inliner/internal/scanner"
)

// DefaultImportSuffix distinguishes an inline-build import of a file from an
// ordinary import of the same file in the surrounding module-resolution
// system.
const DefaultImportSuffix = "?inline"

// DefaultProperty is the raw-content binding attribute used when rewriting a
// marked tag in component source.
const DefaultProperty = "innerHTML"

// ComponentOptions controls the component-source transform.
type ComponentOptions struct {
	// TriggerAttr is the attribute that selects a tag. Defaults to
	// DefaultTriggerAttr.
	TriggerAttr string
	// ImportSuffix is appended to the reference path to form the import
	// specifier. Defaults to DefaultImportSuffix.
	ImportSuffix string
	// Property is the raw-content binding attribute on the rewritten tag.
	// Defaults to DefaultProperty.
	Property string
}

func (o *ComponentOptions) trigger() string {
	if o.TriggerAttr == "" {
		return DefaultTriggerAttr
	}
	return o.TriggerAttr
}

func (o *ComponentOptions) suffix() string {
	if o.ImportSuffix == "" {
		return DefaultImportSuffix
	}
	return o.ImportSuffix
}

func (o *ComponentOptions) property() string {
	if o.Property == "" {
		return DefaultProperty
	}
	return o.Property
}

// componentMatch pairs a tag occurrence with the reference it imports and the
// attributes the rewritten tag keeps.
type componentMatch struct {
	start, end int
	path       string
	element    string // rewritten element name: script or style
	rest       string // formatted remaining attributes
}

// TransformComponent rewrites templated component source so each marked tag
// becomes an import of `<path><suffix>` bound to a fresh local name
// `__inline_<n>`, with the tag's raw-content property bound to that name.
// Binding numbers count matches in document order starting at 0.
//
// Returns ("", false) when no tag qualifies: the source is not touched.
func TransformComponent(source string, opts ComponentOptions) (string, bool) {
	trigger := opts.trigger()

	// Cheap pre-check before any tag scanning: the trigger attribute has to
	// appear inside a script or link tag somewhere.
	pre := regexp.MustCompile(`(?is)<(?:script|link)\b[^>]*\b` + regexp.QuoteMeta(trigger) + `\b`)
	if !pre.MatchString(source) {
		return "", false
	}

	var matches []componentMatch

	for _, m := range scanner.FindScriptTags(source) {
		attrs := scanner.ParseAttributes(m.Attrs)
		if !attrs.Has(trigger) {
			continue
		}
		src, ok := attrs.Get("src")
		if !ok || src == "" {
			continue
		}
		matches = append(matches, componentMatch{
			start:   m.Start,
			end:     m.End,
			path:    src,
			element: "script",
			rest:    attrs.Format(trigger, "src"),
		})
	}

	for _, m := range scanner.FindLinkTags(source) {
		attrs := scanner.ParseAttributes(m.Attrs)
		if !attrs.Has(trigger) {
			continue
		}
		rel, _ := attrs.Get("rel")
		if !strings.EqualFold(rel, stylesheetRel) {
			continue
		}
		href, ok := attrs.Get("href")
		if !ok || href == "" {
			continue
		}
		matches = append(matches, componentMatch{
			start:   m.Start,
			end:     m.End,
			path:    href,
			element: "style",
			rest:    attrs.Format(trigger, "rel", "href"),
		})
	}

	if len(matches) == 0 {
		return "", false
	}

	// Number bindings in first-encountered document order.
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].start < matches[j].start
	})

	imports := make([]string, len(matches))
	splices := make([]splice, len(matches))
	property := opts.property()

	for n, m := range matches {
		binding := fmt.Sprintf("__inline_%d", n)
		imports[n] = fmt.Sprintf("import %s from %q;", binding, m.path+opts.suffix())
		splices[n] = splice{
			start: m.start,
			end:   m.end,
			text:  fmt.Sprintf("<%s%s %s={%s}></%s>", m.element, m.rest, property, binding, m.element),
		}
	}

	return strings.Join(imports, "\n") + "\n" + applySplices(source, splices), true
}
