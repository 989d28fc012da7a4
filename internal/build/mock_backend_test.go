package build

import (
	"context"
	"errors"
	"path/filepath"
)

// fakeEmitBackend implements EmitBackend for resolver tests. Handles are
// derived from the asset basename unless overridden per path.
type fakeEmitBackend struct {
	handles     map[string]string // resolved path -> handle
	emitted     []string
	emitFailure error
}

func (f *fakeEmitBackend) Name() string           { return "fake-emit" }
func (f *fakeEmitBackend) Capability() Capability { return CapabilityEmit }

func (f *fakeEmitBackend) EmitChunk(_ context.Context, path string) (string, error) {
	if f.emitFailure != nil {
		return "", f.emitFailure
	}
	f.emitted = append(f.emitted, path)
	if h, ok := f.handles[path]; ok {
		return h, nil
	}
	return "assets/" + filepath.Base(path), nil
}

func (f *fakeEmitBackend) EmitStyleLoader(_ context.Context, path string) (string, error) {
	if f.emitFailure != nil {
		return "", f.emitFailure
	}
	f.emitted = append(f.emitted, path)
	if h, ok := f.handles[path]; ok {
		return h, nil
	}
	return "assets/" + filepath.Base(path) + ".loader.js", nil
}

// fakeChildBackend implements ChildBackend for resolver tests.
type fakeChildBackend struct {
	artifacts map[string][]*Artifact // entry path -> produced artifacts
	fallback  bool
	failure   error
	overrides map[string]interface{} // last overrides bag seen
}

func (f *fakeChildBackend) Name() string           { return "fake-child" }
func (f *fakeChildBackend) Capability() Capability { return CapabilityChildBuild }
func (f *fakeChildBackend) Fallback() bool         { return f.fallback }

func (f *fakeChildBackend) BuildChild(_ context.Context, entryPath string, overrides map[string]interface{}) ([]*Artifact, error) {
	f.overrides = overrides
	if f.failure != nil {
		return nil, f.failure
	}
	arts, ok := f.artifacts[entryPath]
	if !ok {
		return nil, errors.New("no build output configured for " + entryPath)
	}
	return arts, nil
}

// plainBackend has no deferral primitive at all.
type plainBackend struct{}

func (plainBackend) Name() string           { return "plain" }
func (plainBackend) Capability() Capability { return CapabilityNone }

// fileBuilderBackend is a CapabilityNone backend exposing a minimal
// single-file build primitive.
type fileBuilderBackend struct {
	outputs map[string]string
}

func (fileBuilderBackend) Name() string           { return "minimal" }
func (fileBuilderBackend) Capability() Capability { return CapabilityNone }

func (f fileBuilderBackend) BuildFile(_ context.Context, path string) (string, error) {
	out, ok := f.outputs[path]
	if !ok {
		return "", errors.New("cannot build " + path)
	}
	return out, nil
}

// liarBackend declares a capability it does not implement.
type liarBackend struct{}

func (liarBackend) Name() string           { return "liar" }
func (liarBackend) Capability() Capability { return CapabilityEmit }
