package scanner

import "regexp"

// TagMatch is one candidate tag occurrence with stable offsets into the
// scanned text. Start and End delimit the entire tag, including any body and
// closing tag. Replacements must be applied in reverse document order so
// earlier offsets stay valid while the document shrinks or grows.
type TagMatch struct {
	// Start is the byte offset of the opening '<'.
	Start int
	// End is the byte offset just past the tag (after '>' or the closing tag).
	End int
	// Attrs is the raw attribute fragment between the tag name and '>'.
	Attrs string
	// Body is the raw content between open and close tags, empty for
	// self-closing tags.
	Body string
	// SelfClosing reports whether the tag closed itself.
	SelfClosing bool
}

// scriptPattern matches self-closing script tags first, then open/close
// pairs. Attribute fragments cannot contain '>', bodies are matched lazily.
var scriptPattern = regexp.MustCompile(`(?is)<script\b([^>]*?)/>|<script\b([^>]*)>(.*?)</script>`)

// linkPattern matches link tags, self-closing or not.
var linkPattern = regexp.MustCompile(`(?is)<link\b([^>]*?)/?>`)

// FindScriptTags locates every script tag occurrence in text. Both
// `<script ...>...</script>` and self-closing `<script ... />` forms are
// returned, in document order.
func FindScriptTags(text string) []TagMatch {
	var matches []TagMatch

	for _, idx := range scriptPattern.FindAllStringSubmatchIndex(text, -1) {
		m := TagMatch{Start: idx[0], End: idx[1]}
		if idx[2] >= 0 {
			m.Attrs = text[idx[2]:idx[3]]
			m.SelfClosing = true
		} else {
			m.Attrs = text[idx[4]:idx[5]]
			m.Body = text[idx[6]:idx[7]]
		}
		matches = append(matches, m)
	}

	return matches
}

// FindLinkTags locates every link tag occurrence in text, in document order.
func FindLinkTags(text string) []TagMatch {
	var matches []TagMatch

	for _, idx := range linkPattern.FindAllStringSubmatchIndex(text, -1) {
		matches = append(matches, TagMatch{
			Start:       idx[0],
			End:         idx[1],
			Attrs:       text[idx[2]:idx[3]],
			SelfClosing: idx[1] >= 2 && text[idx[1]-2] == '/',
		})
	}

	return matches
}
