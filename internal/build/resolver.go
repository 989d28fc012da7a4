package build

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	ierrors "github.com/conneroisu/inliner/internal/errors"
	"github.com/conneroisu/inliner/internal/inline"
	"github.com/conneroisu/inliner/internal/logging"
	"github.com/conneroisu/inliner/internal/session"
)

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// TriggerAttr is the attribute that marks a tag for inlining. Defaults
	// to inline.DefaultTriggerAttr.
	TriggerAttr string
	// ImportSuffix is the query suffix that distinguishes inline-build
	// imports. Defaults to inline.DefaultImportSuffix.
	ImportSuffix string
	// Overrides is the opaque configuration bag passed through unmodified
	// to nested builds.
	Overrides map[string]interface{}
	// Logger receives discovery and finalization diagnostics. Optional.
	Logger logging.Logger
}

// Resolver drives the two-phase marker protocol against one host build.
//
// Phase 1 (Discover) runs while the host build encounters references: it
// resolves paths, classifies assets, mints markers, and requests artifact
// emission where the backend supports it. Phase 2 (Finalize) runs once, after
// the host's artifact graph is complete: it obtains final content for every
// entry, substitutes every quoted marker occurrence across all artifacts, and
// re-runs markup inlining against the finished graph.
//
// No failure inside the resolver aborts the host build; every error degrades
// to leave-as-is or a raw-file fallback.
type Resolver struct {
	backend   Backend
	sess      *session.Session
	root      string
	suffix    string
	overrides map[string]interface{}
	log       logging.Logger

	// emitted tracks paths whose emission was already attempted, so an
	// entry's handle is attached at most once.
	emitted map[string]bool

	// disabled is set when the backend declares a capability it does not
	// implement; the whole inlining step is skipped for the session.
	disabled bool
}

// NewResolver creates a resolver for one build invocation. The session and
// its protocol mode are derived from the backend's declared capability:
// emit and child-build backends defer via markers, everything else resolves
// directly at discovery.
func NewResolver(backend Backend, projectRoot string, opts ResolverOptions) *Resolver {
	trigger := opts.TriggerAttr
	if trigger == "" {
		trigger = inline.DefaultTriggerAttr
	}
	suffix := opts.ImportSuffix
	if suffix == "" {
		suffix = inline.DefaultImportSuffix
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	log = log.WithComponent("build-resolver")

	r := &Resolver{
		backend:   backend,
		root:      projectRoot,
		suffix:    suffix,
		overrides: opts.Overrides,
		log:       log,
		emitted:   make(map[string]bool),
	}

	mode := session.ModeDirect
	switch backend.Capability() {
	case CapabilityEmit:
		if _, ok := backend.(EmitBackend); !ok {
			r.disabled = true
		}
		mode = session.ModeDeferred
	case CapabilityChildBuild:
		if _, ok := backend.(ChildBackend); !ok {
			r.disabled = true
		}
		mode = session.ModeDeferred
	case CapabilityNone:
		mode = session.ModeDirect
	default:
		r.disabled = true
	}

	if r.disabled {
		// One session-level line; individual references are not reported.
		log.Warn(context.Background(), ierrors.ErrMissingCapability(backend.Name()),
			"inlining skipped for this backend")
	}

	r.sess = session.New(trigger, mode)
	return r
}

// Session returns the session owned by this resolver.
func (r *Resolver) Session() *session.Session {
	return r.sess
}

// Enabled reports whether the resolver will attempt inlining at all.
func (r *Resolver) Enabled() bool {
	return !r.disabled
}

// Discover handles one marked reference `<path><query>` encountered by the
// host build and returns replacement module code. An empty return with nil
// error means the reference should be left untouched.
func (r *Resolver) Discover(ctx context.Context, ref, importer string) (string, error) {
	if r.disabled {
		return "", nil
	}

	path, _ := strings.CutSuffix(ref, r.suffix)
	resolved := r.resolveAssetPath(path, importer)
	kind := session.KindForPath(resolved)

	switch r.backend.Capability() {
	case CapabilityEmit:
		entry := r.sess.Register(resolved, kind)
		r.emitEntry(ctx, entry)
		return markerModule(entry.Marker), nil

	case CapabilityChildBuild:
		entry := r.sess.Register(resolved, kind)
		return markerModule(entry.Marker), nil

	default:
		content, ok := r.buildOrRead(ctx, resolved)
		if !ok {
			r.log.Warn(ctx, ierrors.ErrUnresolvableAsset(resolved),
				"could not resolve inline asset, leaving reference as-is")
			return "", nil
		}
		return literalModule(content), nil
	}
}

// emitEntry requests artifact emission for an entry exactly once and attaches
// the returned handle. Emission failure is recoverable: finalization falls
// back to the raw file when no handle is present.
func (r *Resolver) emitEntry(ctx context.Context, entry *session.InlineEntry) {
	if r.emitted[entry.ResolvedPath] {
		return
	}
	r.emitted[entry.ResolvedPath] = true

	eb := r.backend.(EmitBackend)

	var handle string
	var err error
	if entry.Kind == session.AssetStyle {
		handle, err = eb.EmitStyleLoader(ctx, entry.ResolvedPath)
	} else {
		handle, err = eb.EmitChunk(ctx, entry.ResolvedPath)
	}
	if err != nil {
		r.log.Warn(ctx, ierrors.ErrBuildFailed(entry.ResolvedPath, err),
			"artifact emission failed, will fall back to raw content")
		return
	}

	entry.Handle = handle
}

// resolveAssetPath maps a reference path to an absolute path: a path rooted
// at a leading separator resolves against the project root, otherwise
// relative to the referencing module's directory, falling back to the project
// root when there is no referencing context.
func (r *Resolver) resolveAssetPath(path, importer string) string {
	if strings.HasPrefix(path, "/") {
		return filepath.Join(r.root, path)
	}
	if importer != "" {
		return filepath.Join(filepath.Dir(importer), path)
	}
	return filepath.Join(r.root, path)
}

// entryResult is one entry's phase-2 outcome.
type entryResult struct {
	content      string
	removeLoader string
	ok           bool
}

// Finalize resolves every marker against the finished artifact graph and
// performs the final text substitution across all produced artifacts,
// including a second markup-inlining pass. Only deferred sessions finalize;
// direct sessions have nothing pending.
func (r *Resolver) Finalize(ctx context.Context, bundle *Bundle) error {
	if r.disabled || r.sess.Mode() != session.ModeDeferred {
		return nil
	}

	entries := r.sess.Entries()
	results := make([]entryResult, len(entries))

	// Independent entries share no mutable state: resolve them
	// concurrently and apply all bundle mutations afterwards.
	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			results[i] = r.resolveEntry(gctx, entry, bundle)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, entry := range entries {
		res := results[i]
		if !res.ok {
			// The marker stays literally in the output: a detectable,
			// reported defect rather than a fatal error.
			r.log.Error(ctx, ierrors.ErrBuildFailed(entry.ResolvedPath, nil),
				"marker left unresolved in output", "marker", entry.Marker)
			continue
		}
		substituteMarker(bundle, entry.Marker, res.content)
		if res.removeLoader != "" {
			bundle.Remove(res.removeLoader)
		}
	}

	r.inlineMarkupArtifacts(ctx, bundle)
	return nil
}

// resolveEntry obtains the final content for one entry according to the
// backend's capability branch.
func (r *Resolver) resolveEntry(ctx context.Context, entry *session.InlineEntry, bundle *Bundle) entryResult {
	switch r.backend.Capability() {
	case CapabilityEmit:
		return r.resolveEmitted(ctx, entry, bundle)
	case CapabilityChildBuild:
		return r.resolveViaChildBuild(ctx, entry)
	default:
		return entryResult{}
	}
}

// resolveEmitted looks up the emitted artifact for an entry. Any handle
// lookup failure falls back to reading the raw resolved file.
func (r *Resolver) resolveEmitted(ctx context.Context, entry *session.InlineEntry, bundle *Bundle) entryResult {
	if entry.Handle == "" {
		return r.rawFileResult(ctx, entry)
	}

	if entry.Kind == session.AssetScript {
		art := bundle.Lookup(entry.Handle)
		if art == nil {
			r.log.Warn(ctx, ierrors.ErrArtifactNotFound(entry.Handle),
				"emitted chunk missing from bundle, reading raw file")
			return r.rawFileResult(ctx, entry)
		}
		return entryResult{content: art.Code, ok: true}
	}

	// Stylesheet: prefer the style output the backend attached to the
	// loader, then the basename heuristic over style-type artifacts.
	loader := bundle.Lookup(entry.Handle)
	if loader != nil && loader.AssociatedStyle != "" {
		return entryResult{content: loader.AssociatedStyle, removeLoader: loader.Name, ok: true}
	}

	base := strings.TrimSuffix(filepath.Base(entry.ResolvedPath), filepath.Ext(entry.ResolvedPath))
	for _, art := range bundle.Artifacts() {
		if art.IsStyle() && strings.Contains(filepath.Base(art.Name), base) {
			return entryResult{content: art.Code, ok: true}
		}
	}

	r.log.Warn(ctx, ierrors.ErrArtifactNotFound(entry.Handle),
		"no style output found for loader, reading raw file")
	return r.rawFileResult(ctx, entry)
}

// resolveViaChildBuild spawns a nested build for an entry and takes its first
// produced artifact. First-found is the documented behavior; no secondary
// ordering is guaranteed when a nested build yields more than one artifact.
func (r *Resolver) resolveViaChildBuild(ctx context.Context, entry *session.InlineEntry) entryResult {
	cb := r.backend.(ChildBackend)

	artifacts, err := cb.BuildChild(ctx, entry.ResolvedPath, r.overrides)
	if err == nil && len(artifacts) == 0 {
		err = ierrors.ErrBuildFailed(entry.ResolvedPath, nil)
	}
	if err != nil {
		if cb.Fallback() {
			r.log.Warn(ctx, err, "nested build failed, substituting raw file content")
			return r.rawFileResult(ctx, entry)
		}
		r.log.Warn(ctx, err, "nested build failed")
		return entryResult{}
	}

	return entryResult{content: artifacts[0].Code, ok: true}
}

// rawFileResult reads the entry's resolved file directly from storage.
func (r *Resolver) rawFileResult(ctx context.Context, entry *session.InlineEntry) entryResult {
	data, err := os.ReadFile(entry.ResolvedPath)
	if err != nil {
		r.log.Warn(ctx, ierrors.NewIOError(ierrors.ErrCodeFileNotFound, "raw file read failed", err).WithPath(entry.ResolvedPath),
			"raw fallback failed")
		return entryResult{}
	}
	return entryResult{content: string(data), ok: true}
}

// buildOrRead resolves content synchronously for direct mode, preferring the
// backend's minimal single-file build primitive over a raw read.
func (r *Resolver) buildOrRead(ctx context.Context, path string) (string, bool) {
	if fb, ok := r.backend.(FileBuilder); ok {
		content, err := fb.BuildFile(ctx, path)
		if err == nil {
			return content, true
		}
		r.log.Warn(ctx, ierrors.ErrBuildFailed(path, err),
			"single-file build failed, reading raw file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// inlineMarkupArtifacts re-detects marked tags in every markup artifact and
// resolves referenced content against the finished graph by produced
// filename.
func (r *Resolver) inlineMarkupArtifacts(ctx context.Context, bundle *Bundle) {
	resolve := func(ref string) (string, bool) {
		art := bundle.Lookup(ref)
		if art == nil {
			return "", false
		}
		return art.Code, true
	}

	opts := inline.Options{TriggerAttr: r.sess.TriggerAttr(), Logger: r.log}
	for _, art := range bundle.Artifacts() {
		if art.Kind != KindMarkup {
			continue
		}
		art.Code = inline.Transform(art.Code, resolve, opts)
	}
}

// substituteMarker replaces every quoted occurrence of a marker across every
// textual artifact with the content as a string literal. A marker may appear
// in more than one artifact, for example after code splitting; all
// occurrences are replaced.
func substituteMarker(bundle *Bundle, marker, content string) {
	if marker == "" {
		return
	}

	literal := jsString(content)
	for _, art := range bundle.Artifacts() {
		if art.Code == "" {
			continue
		}
		for _, quote := range []string{`"`, `'`, "`"} {
			art.Code = strings.ReplaceAll(art.Code, quote+marker+quote, literal)
		}
	}
}

// jsString encodes content as a string literal safe for generated code. A
// JSON string is a valid JS string literal.
func jsString(content string) string {
	encoded, err := json.Marshal(content)
	if err != nil {
		// Marshalling a string cannot fail; keep the compiler honest.
		return `""`
	}
	return string(encoded)
}

// markerModule is the tiny virtual module whose sole export is the marker
// token, so the rest of the module graph behaves as if it imported a string
// literal.
func markerModule(marker string) string {
	return "export default " + jsString(marker) + ";\n"
}

// literalModule exports already-resolved content as a string literal.
func literalModule(content string) string {
	return "export default " + jsString(content) + ";\n"
}
