package build

import "context"

// Capability classifies what a host build backend can do for deferred
// inlining. It is a static, per-backend-integration fact supplied by the
// integration, never detected at runtime by the engine.
type Capability int

const (
	// CapabilityNone means no deferral primitive exists; references resolve
	// synchronously at discovery time.
	CapabilityNone Capability = iota
	// CapabilityEmit means the backend can emit new build artifacts whose
	// final content becomes available at finalization.
	CapabilityEmit
	// CapabilityChildBuild means the backend can spawn an isolated nested
	// build at finalization.
	CapabilityChildBuild
)

// String returns the string representation of the capability.
func (c Capability) String() string {
	switch c {
	case CapabilityNone:
		return "none"
	case CapabilityEmit:
		return "emit"
	case CapabilityChildBuild:
		return "child-build"
	default:
		return "unknown"
	}
}

// Backend is the host build integration the resolver drives. Integrations
// implement exactly one of the capability variants below; the resolver
// dispatches over the declared capability rather than duck-typing against
// each host's shape.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string
	// Capability is the backend's static capability classification.
	Capability() Capability
}

// EmitBackend is a backend with the artifact-emission capability.
type EmitBackend interface {
	Backend

	// EmitChunk requests a new build artifact rooted at the given script
	// path and returns its handle (the produced artifact name).
	EmitChunk(ctx context.Context, path string) (string, error)

	// EmitStyleLoader emits a synthetic loader artifact that merely imports
	// the style path, so the backend's native style pipeline processes it
	// and attaches the extracted output to the loader as metadata.
	EmitStyleLoader(ctx context.Context, path string) (string, error)
}

// ChildBackend is a backend with the child-build capability.
type ChildBackend interface {
	Backend

	// BuildChild spawns an isolated nested build for one entry path. The
	// overrides bag is passed through unmodified from configuration.
	BuildChild(ctx context.Context, entryPath string, overrides map[string]interface{}) ([]*Artifact, error)

	// Fallback reports whether a failed nested build may substitute the raw
	// file's content instead of leaving the marker unresolved.
	Fallback() bool
}

// FileBuilder is an optional minimal primitive a CapabilityNone backend may
// expose: a single-file build whose output replaces a raw file read during
// synchronous resolution.
type FileBuilder interface {
	// BuildFile builds one file and returns its processed content.
	BuildFile(ctx context.Context, path string) (string, error)
}
