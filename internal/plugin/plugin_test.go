package plugin

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexfn/useclient/internal/synth"
)

type fakeHost struct {
	nextRef  int
	requests []ChunkRequest
	watched  []string
	warnings []string
	errs     []string
}

func (h *fakeHost) EmitChunk(req ChunkRequest) (string, error) {
	ref := fmt.Sprintf("REF_%d", h.nextRef)
	h.nextRef++
	h.requests = append(h.requests, req)
	return ref, nil
}

func (h *fakeHost) AddWatchFile(path string) { h.watched = append(h.watched, path) }

func (h *fakeHost) ResolveExternal(id, importer string, skipSelf bool) (string, bool) {
	return "", false
}

func (h *fakeHost) Warn(msg string)  { h.warnings = append(h.warnings, msg) }
func (h *fakeHost) Error(msg string) { h.errs = append(h.errs, msg) }

const handlerSource = `export const h = () => { "use client"; return 1; };`

func newPlugin(t *testing.T, host Host, opts Options) *Plugin {
	t.Helper()
	p, err := New(host, opts)
	require.NoError(t, err)
	return p
}

func TestTransformHook(t *testing.T) {
	host := &fakeHost{}
	p := newPlugin(t, host, Options{})
	p.BuildStart()

	res, err := p.Transform(context.Background(), handlerSource, "/proj/src/widget.tsx")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Contains(t, res.Code, "new URL(import.meta.REF_0).pathname")
	assert.Nil(t, res.Map, "the rewrite carries no source map")
	require.Len(t, host.requests, 1)
	assert.False(t, host.requests[0].ModuleSideEffects)
	assert.True(t, synth.IsInlineID(host.requests[0].ID))
	assert.Equal(t, []string{"/proj/src/widget.tsx"}, host.watched)
}

func TestTransformHookFilters(t *testing.T) {
	host := &fakeHost{}
	p := newPlugin(t, host, Options{})
	p.BuildStart()

	for _, id := range []string{
		"/proj/node_modules/lib/index.tsx",
		"/proj/src/styles.css",
		"/proj/src/README.md",
	} {
		res, err := p.Transform(context.Background(), handlerSource, id)
		require.NoError(t, err)
		assert.Nil(t, res, "id %q should be filtered out", id)
	}
	assert.Empty(t, host.requests)

	// Custom excludes extend the defaults.
	p2 := newPlugin(t, host, Options{Exclude: []string{`\.generated\.`}})
	p2.BuildStart()
	res, err := p2.Transform(context.Background(), handlerSource, "/proj/src/widget.generated.tsx")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestTransformHookSurfacesFatals(t *testing.T) {
	host := &fakeHost{}
	p := newPlugin(t, host, Options{})
	p.BuildStart()

	src := "import \"./reset.css\";\nconst h = () => { \"use client\"; return 1; };"
	_, err := p.Transform(context.Background(), src, "/proj/src/widget.tsx")
	require.Error(t, err)
	require.Len(t, host.errs, 1, "fatal errors also go through the host's error channel")
	assert.Contains(t, host.errs[0], "side-effect imports")
}

func TestLoadHook(t *testing.T) {
	host := &fakeHost{}
	p := newPlugin(t, host, Options{})
	p.BuildStart()

	res, err := p.Transform(context.Background(), handlerSource, "/proj/src/widget.tsx")
	require.NoError(t, err)
	require.Len(t, res.Chunks, 1)

	loaded, ok := p.Load(res.Chunks[0].InlineID)
	require.True(t, ok)
	assert.Equal(t, "tsx", loaded.ModuleType)
	assert.True(t, strings.HasPrefix(loaded.Code, "\"use client\";\n"))

	_, ok = p.Load("/proj/src/widget.tsx")
	assert.False(t, ok, "load declines real paths")
}

func TestInstanceIsolation(t *testing.T) {
	hostA, hostB := &fakeHost{}, &fakeHost{}
	a := newPlugin(t, hostA, Options{})
	b := newPlugin(t, hostB, Options{})
	a.BuildStart()
	b.BuildStart()

	res, err := a.Transform(context.Background(), handlerSource, "/proj/src/widget.tsx")
	require.NoError(t, err)
	require.Len(t, res.Chunks, 1)

	_, ok := b.Load(res.Chunks[0].InlineID)
	assert.False(t, ok, "instance B must never serve instance A's chunks")
}

func TestBuildStartClearsRegistry(t *testing.T) {
	host := &fakeHost{}
	p := newPlugin(t, host, Options{})
	p.BuildStart()

	res, err := p.Transform(context.Background(), handlerSource, "/proj/src/widget.tsx")
	require.NoError(t, err)
	require.Len(t, res.Chunks, 1)
	id := res.Chunks[0].InlineID

	p.BuildStart()
	_, ok := p.Load(id)
	assert.False(t, ok, "a new build starts with an empty registry")
}

func TestResolveID(t *testing.T) {
	host := &fakeHost{}
	p := newPlugin(t, host, Options{})

	inline := synth.Prefix + "/proj/src/widget.abc.client.tsx"

	resolved, ok := p.ResolveID(inline, "/proj/src/app.tsx")
	assert.True(t, ok)
	assert.Equal(t, inline, resolved, "inline ids resolve to themselves")

	resolved, ok = p.ResolveID("./helper.ts", inline)
	assert.True(t, ok)
	assert.Equal(t, "/proj/src/helper.ts", resolved,
		"relative imports from inline modules resolve against the synthetic path")

	resolved, ok = p.ResolveID("/abs/dep.ts", inline)
	assert.True(t, ok)
	assert.Equal(t, "/abs/dep.ts", resolved)

	_, ok = p.ResolveID("react", "/proj/src/app.tsx")
	assert.False(t, ok, "ordinary requests from ordinary importers are declined")
}

func TestTransformSkipsInlineIDs(t *testing.T) {
	host := &fakeHost{}
	p := newPlugin(t, host, Options{})
	p.BuildStart()

	res, err := p.Transform(context.Background(), handlerSource, synth.Prefix+"/proj/x.client.tsx")
	require.NoError(t, err)
	assert.Nil(t, res, "inline modules are never re-transformed")
}

func TestInvalidFilterExpression(t *testing.T) {
	_, err := New(&fakeHost{}, Options{Include: []string{"("}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid include filter")
}
