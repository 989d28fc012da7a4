// Package session holds the per-build-invocation state of the inlining
// engine: the marker registry, the marker counter, and the protocol mode.
//
// A Session is constructed once per build invocation and threaded through
// every call; it is never shared across invocations. Phase 1 (discovery) is
// the only writer and phase 2 (finalization) only reads, with the phases
// strictly non-overlapping, so no locking is required. Two fresh sessions
// over identical input produce identical markers.
package session

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AssetKind classifies an inline reference.
type AssetKind int

const (
	AssetScript AssetKind = iota
	AssetStyle
)

// String returns the string representation of the asset kind.
func (k AssetKind) String() string {
	switch k {
	case AssetScript:
		return "script"
	case AssetStyle:
		return "style"
	default:
		return "unknown"
	}
}

// Mode is the protocol mode of one session. It is fixed at construction for
// the session's whole lifetime; direct and deferred resolution are never
// mixed within one session.
type Mode int

const (
	// ModeDirect resolves content synchronously at discovery time.
	ModeDirect Mode = iota
	// ModeDeferred mints markers at discovery and resolves them at build
	// finalization.
	ModeDeferred
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeDirect:
		return "direct"
	case ModeDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// markerFormat keeps markers to word characters only so a minted token
// survives as the literal content of a quoted string in any generated code.
const markerFormat = "__INLINE_CONTENT_%d__"

// InlineEntry records one pending inline request.
type InlineEntry struct {
	// ResolvedPath is the absolute path of the referenced asset.
	ResolvedPath string
	// Kind is the asset classification, decided by extension at discovery.
	Kind AssetKind
	// Marker is the per-session-unique placeholder token standing in for
	// the not-yet-known final content. Empty in direct mode.
	Marker string
	// Handle is the backend-specific reference to an emitted artifact, set
	// once when the backend supports deferred emission.
	Handle string
}

// Session owns the marker registry and counter for one build invocation.
type Session struct {
	triggerAttr string
	mode        Mode
	counter     int
	entries     map[string]*InlineEntry
	order       []string
}

// New creates a session with the given trigger attribute and protocol mode.
// The mode is decided once, from the backend's static capability, and never
// changes.
func New(triggerAttr string, mode Mode) *Session {
	return &Session{
		triggerAttr: triggerAttr,
		mode:        mode,
		entries:     make(map[string]*InlineEntry),
	}
}

// TriggerAttr returns the trigger attribute name for this session.
func (s *Session) TriggerAttr() string {
	return s.triggerAttr
}

// Mode returns the session's protocol mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// Register returns the entry for resolvedPath, creating it on first sight.
// In deferred mode a fresh marker is minted at creation, monotonically
// numbered from 0; direct-mode entries carry no marker.
func (s *Session) Register(resolvedPath string, kind AssetKind) *InlineEntry {
	if entry, ok := s.entries[resolvedPath]; ok {
		return entry
	}

	entry := &InlineEntry{
		ResolvedPath: resolvedPath,
		Kind:         kind,
	}
	if s.mode == ModeDeferred {
		entry.Marker = fmt.Sprintf(markerFormat, s.counter)
		s.counter++
	}

	s.entries[resolvedPath] = entry
	s.order = append(s.order, resolvedPath)
	return entry
}

// Entries returns all entries in registration order.
func (s *Session) Entries() []*InlineEntry {
	out := make([]*InlineEntry, 0, len(s.order))
	for _, path := range s.order {
		out = append(out, s.entries[path])
	}
	return out
}

// Count returns the number of registered entries.
func (s *Session) Count() int {
	return len(s.order)
}

// KindForPath classifies an asset path by extension: style extensions map to
// AssetStyle, everything else to AssetScript.
func KindForPath(path string) AssetKind {
	if strings.EqualFold(filepath.Ext(path), ".css") {
		return AssetStyle
	}
	return AssetScript
}
