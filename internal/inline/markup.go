// Package inline implements the content-inlining transforms.
//
// The direct transform resolves referenced scripts and stylesheets eagerly
// through a caller-supplied resolver and splices their content into markup.
// The component transform rewrites templated component source so a marked tag
// becomes an import plus a raw-content binding, leaving resolution to the
// surrounding module system.
package inline

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/conneroisu/inliner/internal/logging"
	"github.com/conneroisu/inliner/internal/scanner"
)

// DefaultTriggerAttr is the attribute name that marks a tag for inlining.
const DefaultTriggerAttr = "inline"

// stylesheetRel is the rel value a link tag must carry to qualify.
const stylesheetRel = "stylesheet"

// Resolver maps a reference path to its content. The second return value is
// false when the reference cannot be resolved, a recoverable signal: the tag
// is left untouched.
type Resolver func(path string) (string, bool)

// Options controls the direct markup transform.
type Options struct {
	// TriggerAttr is the attribute that selects a tag for inlining.
	// Defaults to DefaultTriggerAttr.
	TriggerAttr string
	// Logger receives one warning per unresolvable reference. Optional.
	Logger logging.Logger
}

func (o *Options) trigger() string {
	if o.TriggerAttr == "" {
		return DefaultTriggerAttr
	}
	return o.TriggerAttr
}

func (o *Options) logger() logging.Logger {
	if o.Logger == nil {
		return logging.Discard()
	}
	return o.Logger
}

// splice is one pending replacement against the original text.
type splice struct {
	start, end int
	text       string
}

// closingScriptPattern matches a literal closing-script sequence inside
// content about to be inlined into a script element.
var closingScriptPattern = regexp.MustCompile(`(?i)</script`)

// escapeScriptBody neutralizes closing-script sequences so inlined content
// cannot terminate the enclosing element early.
func escapeScriptBody(content string) string {
	return closingScriptPattern.ReplaceAllStringFunc(content, func(m string) string {
		return `<\/` + m[2:]
	})
}

// Transform runs the direct resolve-and-splice pipeline over text.
//
// Script tags need the trigger attribute and a src; link tags need the
// trigger attribute, rel="stylesheet", and an href. Tags missing a required
// companion attribute are silently skipped, so the trigger name stays safe to
// reuse elsewhere. When no tag matches, the input string itself is returned.
func Transform(text string, resolve Resolver, opts Options) string {
	trigger := opts.trigger()
	log := opts.logger()

	var splices []splice

	for _, m := range scanner.FindScriptTags(text) {
		attrs := scanner.ParseAttributes(m.Attrs)
		if !attrs.Has(trigger) {
			continue
		}
		src, ok := attrs.Get("src")
		if !ok || src == "" {
			continue
		}

		content, ok := resolve(src)
		if !ok {
			log.Warn(context.Background(), nil, "could not resolve inline script, leaving tag as-is", "src", src)
			continue
		}

		rest := attrs.Format(trigger, "src")
		splices = append(splices, splice{
			start: m.Start,
			end:   m.End,
			text:  "<script" + rest + ">" + escapeScriptBody(content) + "</script>",
		})
	}

	for _, m := range scanner.FindLinkTags(text) {
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

		content, ok := resolve(href)
		if !ok {
			log.Warn(context.Background(), nil, "could not resolve inline stylesheet, leaving tag as-is", "href", href)
			continue
		}

		rest := attrs.Format(trigger, "rel", "href")
		splices = append(splices, splice{
			start: m.Start,
			end:   m.End,
			text:  "<style" + rest + ">" + content + "</style>",
		})
	}

	if len(splices) == 0 {
		return text
	}

	return applySplices(text, splices)
}

// applySplices rewrites text by applying replacements in reverse document
// order, keeping earlier offsets valid as the document changes length.
func applySplices(text string, splices []splice) string {
	sort.Slice(splices, func(i, j int) bool {
		return splices[i].start > splices[j].start
	})

	out := text
	for _, s := range splices {
		out = out[:s.start] + s.text + out[s.end:]
	}
	return out
}
