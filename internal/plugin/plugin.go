// Package plugin exposes the transform as three bundler hooks —
// transform, resolveId, load — over a narrow host interface. One Plugin
// value corresponds to one bundler plugin instance; instances never share
// state.
package plugin

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/apexfn/useclient/internal/synth"
	"github.com/apexfn/useclient/internal/transform"
)

// ChunkRequest asks the host to register a new bundle entry whose source
// will be served by the plugin's load hook.
type ChunkRequest struct {
	ID                string
	FileName          string
	ModuleSideEffects bool
}

// Host is everything the plugin needs from the bundler.
type Host interface {
	// EmitChunk registers the entry and returns a reference token that
	// the host expands to the final asset URL after bundling.
	EmitChunk(req ChunkRequest) (string, error)
	// AddWatchFile registers a dependency so edits retrigger transform.
	AddWatchFile(absolutePath string)
	// ResolveExternal resolves an import requested from a synthesized
	// inline module against the host's own resolution.
	ResolveExternal(id, importer string, skipSelf bool) (string, bool)
	Warn(msg string)
	// Error reports a fatal diagnostic; the plugin also returns the
	// error so the host's promise rejects.
	Error(msg string)
}

// TransformResult is the rewritten module. Map is always nil: the rewrite
// carries no source map.
type TransformResult struct {
	Code   string
	Map    any
	Chunks []transform.EmittedChunk
}

// LoadResult serves a synthesized inline module.
type LoadResult struct {
	Code       string
	Map        any
	ModuleType string
}

// Plugin is one instance of the use-client transform.
type Plugin struct {
	host Host
	reg  *synth.Registry
	opts Options
	filt *filter
	log  *slog.Logger
}

// New builds a plugin instance around the given host. Invalid filter
// expressions in opts are reported as an error.
func New(host Host, opts Options) (*Plugin, error) {
	opts = opts.normalized()
	filt, err := newFilter(opts.Include, opts.Exclude)
	if err != nil {
		return nil, err
	}
	return &Plugin{
		host: host,
		reg:  synth.NewRegistry(),
		opts: opts,
		filt: filt,
		log:  opts.Logger,
	}, nil
}

// Name identifies the plugin to the host.
func (p *Plugin) Name() string { return "use-client" }

// Registry exposes this instance's chunk registry to hosts that flush
// chunks themselves.
func (p *Plugin) Registry() *synth.Registry { return p.reg }

// BuildStart clears the registry for a fresh build.
func (p *Plugin) BuildStart() { p.reg.Reset() }

// Transform runs the pipeline over one module. It returns (nil, nil)
// when the module is filtered out or needs no rewriting. Fatal errors go
// through the host's error channel and are also returned.
func (p *Plugin) Transform(ctx context.Context, code, id string) (*TransformResult, error) {
	if synth.IsInlineID(id) || !p.filt.match(id) {
		return nil, nil
	}

	res, err := transform.File(ctx, []byte(code), id, p.reg, hostEmitter{p.host}, p.opts.transform())
	if err != nil {
		p.host.Error(err.Error())
		return nil, err
	}
	if res == nil {
		return nil, nil
	}

	p.host.AddWatchFile(id)
	if p.opts.Debug {
		p.log.Debug("transformed module", "module", id, "chunks", len(res.Chunks))
	}
	return &TransformResult{Code: res.Code, Chunks: res.Chunks}, nil
}

// ResolveID keeps inline ids reserved and roots imports that originate
// from a synthesized module at its synthetic path.
func (p *Plugin) ResolveID(id, importer string) (string, bool) {
	if synth.IsInlineID(id) {
		return id, true
	}
	if !synth.IsInlineID(importer) {
		return "", false
	}

	syntheticPath := synth.InlinePath(importer)
	if resolved, ok := p.host.ResolveExternal(id, syntheticPath, true); ok {
		return resolved, true
	}
	if strings.HasPrefix(id, "./") || strings.HasPrefix(id, "../") {
		return path.Join(path.Dir(syntheticPath), id), true
	}
	if path.IsAbs(id) {
		return id, true
	}
	return "", false
}

// Load serves synthesized inline modules from the registry and declines
// everything else.
func (p *Plugin) Load(id string) (*LoadResult, bool) {
	if !synth.IsInlineID(id) {
		return nil, false
	}
	code, ok := p.reg.Get(id)
	if !ok {
		return nil, false
	}
	return &LoadResult{Code: code, ModuleType: p.opts.ClientExt}, true
}

// hostEmitter adapts the Host to the pipeline's Emitter slice, pinning
// ModuleSideEffects to false: a client chunk is inert until loaded.
type hostEmitter struct{ host Host }

func (e hostEmitter) EmitChunk(inlineID, fileName string) (string, error) {
	return e.host.EmitChunk(ChunkRequest{ID: inlineID, FileName: fileName, ModuleSideEffects: false})
}

func (e hostEmitter) Warn(msg string) { e.host.Warn(msg) }
