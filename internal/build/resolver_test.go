package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/conneroisu/inliner/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolverDerivesMode(t *testing.T) {
	emit := NewResolver(&fakeEmitBackend{}, "/root", ResolverOptions{})
	assert.Equal(t, session.ModeDeferred, emit.Session().Mode())
	assert.True(t, emit.Enabled())

	child := NewResolver(&fakeChildBackend{}, "/root", ResolverOptions{})
	assert.Equal(t, session.ModeDeferred, child.Session().Mode())

	direct := NewResolver(plainBackend{}, "/root", ResolverOptions{})
	assert.Equal(t, session.ModeDirect, direct.Session().Mode())
}

func TestNewResolverDisabledForUnimplementedCapability(t *testing.T) {
	r := NewResolver(liarBackend{}, "/root", ResolverOptions{})

	assert.False(t, r.Enabled())

	code, err := r.Discover(context.Background(), "/src/app.js?inline", "")
	require.NoError(t, err)
	assert.Equal(t, "", code)
	assert.Equal(t, 0, r.Session().Count())
}

func TestDiscoverEmitMintsMarkerAndHandle(t *testing.T) {
	backend := &fakeEmitBackend{}
	r := NewResolver(backend, "/proj", ResolverOptions{})

	code, err := r.Discover(context.Background(), "/src/app.js?inline", "")
	require.NoError(t, err)

	assert.Equal(t, "export default \"__INLINE_CONTENT_0__\";\n", code)

	entries := r.Session().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Join("/proj", "/src/app.js"), entries[0].ResolvedPath)
	assert.Equal(t, session.AssetScript, entries[0].Kind)
	assert.Equal(t, "assets/app.js", entries[0].Handle)
}

func TestDiscoverEmitsOncePerPath(t *testing.T) {
	backend := &fakeEmitBackend{}
	r := NewResolver(backend, "/proj", ResolverOptions{})

	ctx := context.Background()
	first, err := r.Discover(ctx, "/src/app.js?inline", "")
	require.NoError(t, err)
	second, err := r.Discover(ctx, "/src/app.js?inline", "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, backend.emitted, 1)
	assert.Equal(t, 1, r.Session().Count())
}

func TestDiscoverStyleEmitsLoader(t *testing.T) {
	backend := &fakeEmitBackend{}
	r := NewResolver(backend, "/proj", ResolverOptions{})

	_, err := r.Discover(context.Background(), "/styles/theme.css?inline", "")
	require.NoError(t, err)

	entries := r.Session().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, session.AssetStyle, entries[0].Kind)
	assert.Equal(t, "assets/theme.css.loader.js", entries[0].Handle)
}

func TestDiscoverEmitFailureLeavesHandleEmpty(t *testing.T) {
	backend := &fakeEmitBackend{emitFailure: errors.New("emit refused")}
	r := NewResolver(backend, "/proj", ResolverOptions{})

	code, err := r.Discover(context.Background(), "/src/app.js?inline", "")
	require.NoError(t, err)

	// The marker is still minted; finalization falls back to the raw file.
	assert.Contains(t, code, "__INLINE_CONTENT_0__")
	assert.Equal(t, "", r.Session().Entries()[0].Handle)
}

func TestResolveAssetPath(t *testing.T) {
	r := NewResolver(&fakeEmitBackend{}, "/proj", ResolverOptions{})

	tests := []struct {
		name     string
		path     string
		importer string
		expected string
	}{
		{"rooted path resolves against project root", "/src/a.js", "/proj/pages/index.mts", filepath.Join("/proj", "src/a.js")},
		{"relative path resolves against importer dir", "./a.js", "/proj/pages/index.mts", filepath.Join("/proj/pages", "a.js")},
		{"parent-relative path", "../shared/a.js", "/proj/pages/index.mts", filepath.Join("/proj/shared", "a.js")},
		{"no importer falls back to project root", "a.js", "", filepath.Join("/proj", "a.js")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.resolveAssetPath(tt.path, tt.importer))
		})
	}
}

func TestDiscoverDirectModeReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(path, []byte(`alert("hi")`), 0644))

	r := NewResolver(plainBackend{}, dir, ResolverOptions{})

	code, err := r.Discover(context.Background(), "/app.js?inline", "")
	require.NoError(t, err)

	assert.Equal(t, "export default \"alert(\\\"hi\\\")\";\n", code)
	// Direct mode never mints markers.
	assert.Equal(t, 0, r.Session().Count())
}

func TestDiscoverDirectModePrefersFileBuilder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(path, []byte("raw"), 0644))

	backend := fileBuilderBackend{outputs: map[string]string{path: "minified"}}
	r := NewResolver(backend, dir, ResolverOptions{})

	code, err := r.Discover(context.Background(), "/app.js?inline", "")
	require.NoError(t, err)
	assert.Equal(t, "export default \"minified\";\n", code)
}

func TestDiscoverDirectModeUnresolvable(t *testing.T) {
	r := NewResolver(plainBackend{}, t.TempDir(), ResolverOptions{})

	code, err := r.Discover(context.Background(), "/missing.js?inline", "")
	require.NoError(t, err)
	assert.Equal(t, "", code)
}

func TestFinalizeScriptViaEmit(t *testing.T) {
	backend := &fakeEmitBackend{}
	r := NewResolver(backend, "/proj", ResolverOptions{})
	ctx := context.Background()

	_, err := r.Discover(ctx, "/src/app.js?inline", "")
	require.NoError(t, err)

	bundle := NewBundle(
		&Artifact{Name: "assets/app.js", Kind: KindChunk, Code: "console.log(1);"},
		&Artifact{Name: "index.js", Kind: KindChunk, Code: `const code = "__INLINE_CONTENT_0__";`},
	)

	require.NoError(t, r.Finalize(ctx, bundle))

	assert.Equal(t, `const code = "console.log(1);";`, bundle.Lookup("index.js").Code)
}

func TestFinalizeReplacesEveryOccurrenceAcrossArtifacts(t *testing.T) {
	backend := &fakeEmitBackend{}
	r := NewResolver(backend, "/proj", ResolverOptions{})
	ctx := context.Background()

	_, err := r.Discover(ctx, "/src/shared.js?inline", "")
	require.NoError(t, err)

	// Code splitting can duplicate the marker across chunks; every quoted
	// occurrence must be replaced, whatever the quote style.
	bundle := NewBundle(
		&Artifact{Name: "assets/shared.js", Kind: KindChunk, Code: "S"},
		&Artifact{Name: "page-a.js", Kind: KindChunk, Code: `var a = "__INLINE_CONTENT_0__";`},
		&Artifact{Name: "page-b.js", Kind: KindChunk, Code: "var b = '__INLINE_CONTENT_0__' + `__INLINE_CONTENT_0__`;"},
	)

	require.NoError(t, r.Finalize(ctx, bundle))

	assert.Equal(t, `var a = "S";`, bundle.Lookup("page-a.js").Code)
	assert.Equal(t, `var b = "S" + "S";`, bundle.Lookup("page-b.js").Code)
}

func TestFinalizeStyleViaLoaderMetadata(t *testing.T) {
	backend := &fakeEmitBackend{}
	r := NewResolver(backend, "/proj", ResolverOptions{})
	ctx := context.Background()

	_, err := r.Discover(ctx, "/styles/theme.css?inline", "")
	require.NoError(t, err)

	bundle := NewBundle(
		&Artifact{Name: "assets/theme.css.loader.js", Kind: KindChunk, FromLoader: true, AssociatedStyle: "body{margin:0}"},
		&Artifact{Name: "index.js", Kind: KindChunk, Code: `inject("__INLINE_CONTENT_0__");`},
	)

	require.NoError(t, r.Finalize(ctx, bundle))

	assert.Equal(t, `inject("body{margin:0}");`, bundle.Lookup("index.js").Code)
	// The loader artifact is dropped from the final output set.
	assert.Nil(t, bundle.Lookup("assets/theme.css.loader.js"))
}

func TestFinalizeStyleBasenameHeuristic(t *testing.T) {
	backend := &fakeEmitBackend{}
	r := NewResolver(backend, "/proj", ResolverOptions{})
	ctx := context.Background()

	_, err := r.Discover(ctx, "/styles/theme.css?inline", "")
	require.NoError(t, err)

	// No loader metadata: fall back to a style artifact whose name contains
	// the source basename.
	bundle := NewBundle(
		&Artifact{Name: "assets/theme-8f3a.css", Kind: KindAsset, Code: "h1{color:red}"},
		&Artifact{Name: "index.js", Kind: KindChunk, Code: `inject("__INLINE_CONTENT_0__");`},
	)

	require.NoError(t, r.Finalize(ctx, bundle))

	assert.Equal(t, `inject("h1{color:red}");`, bundle.Lookup("index.js").Code)
}

func TestFinalizeHandleLookupFailureFallsBackToRawFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(path, []byte("raw content"), 0644))

	backend := &fakeEmitBackend{handles: map[string]string{path: "assets/vanished.js"}}
	r := NewResolver(backend, dir, ResolverOptions{})
	ctx := context.Background()

	_, err := r.Discover(ctx, "/app.js?inline", "")
	require.NoError(t, err)

	bundle := NewBundle(
		&Artifact{Name: "index.js", Kind: KindChunk, Code: `run("__INLINE_CONTENT_0__");`},
	)

	require.NoError(t, r.Finalize(ctx, bundle))

	assert.Equal(t, `run("raw content");`, bundle.Lookup("index.js").Code)
}

func TestFinalizeChildBuildTakesFirstArtifact(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "app.js")

	backend := &fakeChildBackend{artifacts: map[string][]*Artifact{
		entry: {
			{Name: "app.min.js", Kind: KindChunk, Code: "first"},
			{Name: "app.min.js.map", Kind: KindAsset, Code: "second"},
		},
	}}
	r := NewResolver(backend, dir, ResolverOptions{Overrides: map[string]interface{}{"minify": true}})
	ctx := context.Background()

	_, err := r.Discover(ctx, "/app.js?inline", "")
	require.NoError(t, err)

	bundle := NewBundle(
		&Artifact{Name: "index.js", Kind: KindChunk, Code: `use("__INLINE_CONTENT_0__");`},
	)

	require.NoError(t, r.Finalize(ctx, bundle))

	assert.Equal(t, `use("first");`, bundle.Lookup("index.js").Code)
	// The configuration bag reaches the nested build unmodified.
	assert.Equal(t, map[string]interface{}{"minify": true}, backend.overrides)
}

func TestFinalizeChildBuildFailureLeavesMarker(t *testing.T) {
	backend := &fakeChildBackend{failure: errors.New("boom")}
	r := NewResolver(backend, "/proj", ResolverOptions{})
	ctx := context.Background()

	_, err := r.Discover(ctx, "/app.js?inline", "")
	require.NoError(t, err)

	bundle := NewBundle(
		&Artifact{Name: "index.js", Kind: KindChunk, Code: `use("__INLINE_CONTENT_0__");`},
	)

	require.NoError(t, r.Finalize(ctx, bundle))

	// Unresolved content is a detectable defect, never a fatal error.
	assert.Contains(t, bundle.Lookup("index.js").Code, "__INLINE_CONTENT_0__")
}

func TestFinalizeChildBuildFailureWithFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(path, []byte("fallback content"), 0644))

	backend := &fakeChildBackend{failure: errors.New("boom"), fallback: true}
	r := NewResolver(backend, dir, ResolverOptions{})
	ctx := context.Background()

	_, err := r.Discover(ctx, "/app.js?inline", "")
	require.NoError(t, err)

	bundle := NewBundle(
		&Artifact{Name: "index.js", Kind: KindChunk, Code: `use("__INLINE_CONTENT_0__");`},
	)

	require.NoError(t, r.Finalize(ctx, bundle))

	assert.Equal(t, `use("fallback content");`, bundle.Lookup("index.js").Code)
}

func TestFinalizeSecondMarkupPass(t *testing.T) {
	backend := &fakeEmitBackend{}
	r := NewResolver(backend, "/proj", ResolverOptions{})
	ctx := context.Background()

	// Markup artifacts are re-scanned against the finished graph: the
	// reference resolves by produced filename, leading separator tolerated.
	bundle := NewBundle(
		&Artifact{Name: "assets/app.js", Kind: KindChunk, Code: "ready();"},
		&Artifact{Name: "index.html", Kind: KindMarkup, Code: `<script inline src="/assets/app.js"></script>`},
	)

	require.NoError(t, r.Finalize(ctx, bundle))

	assert.Equal(t, `<script>ready();</script>`, bundle.Lookup("index.html").Code)
}

func TestFinalizeSecondMarkupPassHonorsCustomTrigger(t *testing.T) {
	backend := &fakeEmitBackend{}
	r := NewResolver(backend, "/proj", ResolverOptions{TriggerAttr: "data-embed"})
	ctx := context.Background()

	bundle := NewBundle(
		&Artifact{Name: "assets/app.js", Kind: KindChunk, Code: "X"},
		&Artifact{Name: "index.html", Kind: KindMarkup, Code: `<script data-embed src="/assets/app.js"></script><script inline src="/assets/app.js"></script>`},
	)

	require.NoError(t, r.Finalize(ctx, bundle))

	out := bundle.Lookup("index.html").Code
	assert.Contains(t, out, "<script>X</script>")
	assert.Contains(t, out, `<script inline src="/assets/app.js"></script>`)
}

func TestFinalizeDirectModeIsNoop(t *testing.T) {
	r := NewResolver(plainBackend{}, "/proj", ResolverOptions{})

	bundle := NewBundle(
		&Artifact{Name: "index.html", Kind: KindMarkup, Code: `<script inline src="/a.js"></script>`},
	)

	require.NoError(t, r.Finalize(context.Background(), bundle))
	assert.Equal(t, `<script inline src="/a.js"></script>`, bundle.Lookup("index.html").Code)
}

func TestJSString(t *testing.T) {
	assert.Equal(t, `"plain"`, jsString("plain"))
	assert.Equal(t, `"with \"quotes\""`, jsString(`with "quotes"`))
	assert.Equal(t, `"line\nbreak"`, jsString("line\nbreak"))
}
