// Package build implements the two-phase build resolver: discovery of marked
// references against a host build graph, and finalization that replaces every
// minted marker with real content once the graph is complete.
package build

import "strings"

// ArtifactKind classifies a produced build artifact.
type ArtifactKind int

const (
	// KindChunk is generated module code.
	KindChunk ArtifactKind = iota
	// KindAsset is a non-module output such as extracted styles.
	KindAsset
	// KindMarkup is an HTML document in the output set.
	KindMarkup
)

// String returns the string representation of the artifact kind.
func (k ArtifactKind) String() string {
	switch k {
	case KindChunk:
		return "chunk"
	case KindAsset:
		return "asset"
	case KindMarkup:
		return "markup"
	default:
		return "unknown"
	}
}

// Artifact is one produced build output.
type Artifact struct {
	// Name is the produced filename, relative to the output root.
	Name string
	// Kind classifies the artifact.
	Kind ArtifactKind
	// Code is the textual content. Artifacts with empty code are skipped
	// during marker substitution.
	Code string
	// AssociatedStyle carries style output the backend extracted from a
	// loader artifact and attached as metadata.
	AssociatedStyle string
	// FromLoader marks synthetic loader artifacts created only to route a
	// stylesheet through the backend's native style pipeline.
	FromLoader bool
}

// IsStyle reports whether the artifact is a style-type output.
func (a *Artifact) IsStyle() bool {
	return strings.HasSuffix(strings.ToLower(a.Name), ".css")
}

// Bundle is the finalized artifact graph of one build.
type Bundle struct {
	artifacts []*Artifact
	byName    map[string]*Artifact
}

// NewBundle creates a bundle over the given artifacts.
func NewBundle(artifacts ...*Artifact) *Bundle {
	b := &Bundle{byName: make(map[string]*Artifact, len(artifacts))}
	for _, a := range artifacts {
		b.Add(a)
	}
	return b
}

// normalizeName strips a single leading path separator so lookups by
// reference path and by produced filename agree.
func normalizeName(name string) string {
	return strings.TrimPrefix(name, "/")
}

// Add inserts an artifact, replacing any artifact with the same name.
func (b *Bundle) Add(a *Artifact) {
	name := normalizeName(a.Name)
	if _, exists := b.byName[name]; exists {
		for i, existing := range b.artifacts {
			if normalizeName(existing.Name) == name {
				b.artifacts[i] = a
				break
			}
		}
	} else {
		b.artifacts = append(b.artifacts, a)
	}
	b.byName[name] = a
}

// Lookup returns the artifact with the given produced filename, tolerating a
// leading path separator. Returns nil when absent.
func (b *Bundle) Lookup(name string) *Artifact {
	return b.byName[normalizeName(name)]
}

// Remove deletes the artifact with the given name from the bundle.
func (b *Bundle) Remove(name string) {
	key := normalizeName(name)
	if _, ok := b.byName[key]; !ok {
		return
	}
	delete(b.byName, key)
	for i, a := range b.artifacts {
		if normalizeName(a.Name) == key {
			b.artifacts = append(b.artifacts[:i], b.artifacts[i+1:]...)
			break
		}
	}
}

// Artifacts returns the artifacts in insertion order.
func (b *Bundle) Artifacts() []*Artifact {
	out := make([]*Artifact, len(b.artifacts))
	copy(out, b.artifacts)
	return out
}

// Len returns the number of artifacts in the bundle.
func (b *Bundle) Len() int {
	return len(b.artifacts)
}
