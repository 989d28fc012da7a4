package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttributes(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		expected map[string]string
	}{
		{
			name:     "mixed quoting styles",
			fragment: `a b="c" d='e' f=g`,
			expected: map[string]string{"a": "", "b": "c", "d": "e", "f": "g"},
		},
		{
			name:     "empty fragment",
			fragment: "",
			expected: map[string]string{},
		},
		{
			name:     "single boolean attribute",
			fragment: "inline",
			expected: map[string]string{"inline": ""},
		},
		{
			name:     "hyphenated names",
			fragment: `data-src="x.js" aria-hidden`,
			expected: map[string]string{"data-src": "x.js", "aria-hidden": ""},
		},
		{
			name:     "whitespace insensitive",
			fragment: "  src =  \"main.js\" \n\t defer ",
			expected: map[string]string{"src": "main.js", "defer": ""},
		},
		{
			name:     "value with spaces",
			fragment: `class="btn btn-primary"`,
			expected: map[string]string{"class": "btn btn-primary"},
		},
		{
			name:     "single quotes around double",
			fragment: `onclick='say("hi")'`,
			expected: map[string]string{"onclick": `say("hi")`},
		},
		{
			name:     "quoted-empty collapses to boolean form",
			fragment: `a="" b=''`,
			expected: map[string]string{"a": "", "b": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := ParseAttributes(tt.fragment)
			assert.Equal(t, tt.expected, attrs.Map())
		})
	}
}

func TestParseAttributesOrder(t *testing.T) {
	attrs := ParseAttributes(`c="1" a b="2"`)
	assert.Equal(t, []string{"c", "a", "b"}, attrs.Names())
}

func TestParseAttributesIsPure(t *testing.T) {
	fragment := `inline src="app.js" defer`

	first := ParseAttributes(fragment)
	second := ParseAttributes(fragment)

	assert.Equal(t, first.Map(), second.Map())
	assert.Equal(t, first.Names(), second.Names())
}

func TestFormatAttributes(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		exclude  []string
		expected string
	}{
		{
			name:     "bare and valued",
			fragment: `inline src="a.js" defer`,
			exclude:  nil,
			expected: ` inline src="a.js" defer`,
		},
		{
			name:     "exclusions applied",
			fragment: `inline src="a.js" defer`,
			exclude:  []string{"inline", "src"},
			expected: " defer",
		},
		{
			name:     "everything excluded",
			fragment: `inline src="a.js"`,
			exclude:  []string{"inline", "src"},
			expected: "",
		},
		{
			name:     "empty input",
			fragment: "",
			exclude:  nil,
			expected: "",
		},
		{
			name:     "quoted-empty re-emitted bare",
			fragment: `a="" defer`,
			exclude:  nil,
			expected: " a defer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := ParseAttributes(tt.fragment)
			assert.Equal(t, tt.expected, attrs.Format(tt.exclude...))
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	attrs := ParseAttributes(`type="module" async src='m.js'`)

	reparsed := ParseAttributes(attrs.Format())
	require.Equal(t, attrs.Map(), reparsed.Map())
	require.Equal(t, attrs.Names(), reparsed.Names())
}

func TestGetAndHas(t *testing.T) {
	attrs := ParseAttributes(`rel="stylesheet" inline`)

	v, ok := attrs.Get("rel")
	assert.True(t, ok)
	assert.Equal(t, "stylesheet", v)

	v, ok = attrs.Get("inline")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = attrs.Get("href")
	assert.False(t, ok)
	assert.True(t, attrs.Has("inline"))
	assert.False(t, attrs.Has("missing"))
	assert.Equal(t, 2, attrs.Len())
}
