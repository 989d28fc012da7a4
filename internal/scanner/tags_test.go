package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindScriptTags(t *testing.T) {
	text := `<html><script inline src="a.js"></script><p>x</p><script defer>var a = 1;</script></html>`

	matches := FindScriptTags(text)
	require.Len(t, matches, 2)

	first := matches[0]
	assert.Equal(t, ` inline src="a.js"`, first.Attrs)
	assert.Equal(t, "", first.Body)
	assert.False(t, first.SelfClosing)
	assert.Equal(t, `<script inline src="a.js"></script>`, text[first.Start:first.End])

	second := matches[1]
	assert.Equal(t, " defer", second.Attrs)
	assert.Equal(t, "var a = 1;", second.Body)
	assert.Equal(t, `<script defer>var a = 1;</script>`, text[second.Start:second.End])
}

func TestFindScriptTagsSelfClosing(t *testing.T) {
	text := `before <script inline src="b.js"/> after`

	matches := FindScriptTags(text)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.True(t, m.SelfClosing)
	assert.Equal(t, ` inline src="b.js"`, m.Attrs)
	assert.Equal(t, "", m.Body)
	assert.Equal(t, `<script inline src="b.js"/>`, text[m.Start:m.End])
}

func TestFindScriptTagsMultiline(t *testing.T) {
	text := "<script\n  inline\n  src=\"x.js\"\n>\nbody()\n</script>"

	matches := FindScriptTags(text)
	require.Len(t, matches, 1)
	assert.Contains(t, matches[0].Attrs, "inline")
	assert.Contains(t, matches[0].Body, "body()")
}

func TestFindScriptTagsCaseInsensitive(t *testing.T) {
	text := `<SCRIPT SRC="a.js"></SCRIPT>`

	matches := FindScriptTags(text)
	require.Len(t, matches, 1)
}

func TestFindScriptTagsNone(t *testing.T) {
	assert.Empty(t, FindScriptTags(`<p>no scripts here</p>`))
	// Unclosed tags never match.
	assert.Empty(t, FindScriptTags(`<script src="a.js">`))
}

func TestFindLinkTags(t *testing.T) {
	text := `<link rel="stylesheet" href="a.css"><link inline rel="stylesheet" href="b.css" />`

	matches := FindLinkTags(text)
	require.Len(t, matches, 2)

	assert.Equal(t, `<link rel="stylesheet" href="a.css">`, text[matches[0].Start:matches[0].End])
	assert.False(t, matches[0].SelfClosing)

	assert.Equal(t, `<link inline rel="stylesheet" href="b.css" />`, text[matches[1].Start:matches[1].End])
	assert.True(t, matches[1].SelfClosing)
	assert.Equal(t, "b.css", mustGet(t, matches[1].Attrs, "href"))
}

func TestOffsetsStableForReverseSplicing(t *testing.T) {
	text := `<script a>1</script>...<script b>2</script>`

	matches := FindScriptTags(text)
	require.Len(t, matches, 2)

	// Splicing the later match first must leave the earlier offsets valid.
	out := text[:matches[1].Start] + "[B]" + text[matches[1].End:]
	out = out[:matches[0].Start] + "[A]" + out[matches[0].End:]
	assert.Equal(t, "[A]...[B]", out)
}

func mustGet(t *testing.T, fragment, name string) string {
	t.Helper()
	v, ok := ParseAttributes(fragment).Get(name)
	require.True(t, ok)
	return v
}
