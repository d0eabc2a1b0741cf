// Package bundle provides a filesystem-backed Host for running the
// transform outside a real bundler: it collects emitted chunks, writes
// them under the output directory (optionally lowered to plain JS), substitutes
// reference tokens in rewritten server modules, and renders a build
// report.
package bundle

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/apexfn/useclient/internal/plugin"
	"github.com/apexfn/useclient/internal/synth"
)

// Asset is one client chunk written to disk.
type Asset struct {
	InlineID string `json:"inlineId"`
	FileName string `json:"fileName"`
	RefToken string `json:"refToken"`
	Bytes    int    `json:"bytes"`
}

// LocalHost implements plugin.Host over the local filesystem.
type LocalHost struct {
	// OutDir is where assets land. FileName paths from the plugin are
	// joined under it.
	OutDir string

	// Lower runs each chunk through esbuild to strip types and JSX
	// before writing. Off, chunks are written verbatim as .tsx next to
	// the proposed name.
	Lower bool

	Logger *slog.Logger

	mu       sync.Mutex
	nextRef  int
	pending  []Asset
	watch    []string
	warnings []string
}

const refTokenPrefix = "UC_ASSET_URL_"

// EmitChunk queues a chunk and hands back its reference token.
func (h *LocalHost) EmitChunk(req plugin.ChunkRequest) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	token := refTokenPrefix + strconv.Itoa(h.nextRef)
	h.nextRef++
	h.pending = append(h.pending, Asset{
		InlineID: req.ID,
		FileName: req.FileName,
		RefToken: token,
	})
	return token, nil
}

// AddWatchFile records a dependency for watch mode.
func (h *LocalHost) AddWatchFile(absolutePath string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.watch = append(h.watch, absolutePath)
}

// ResolveExternal resolves relative ids against the importing synthetic
// module's directory.
func (h *LocalHost) ResolveExternal(id, importer string, skipSelf bool) (string, bool) {
	if strings.HasPrefix(id, "./") || strings.HasPrefix(id, "../") {
		return filepath.Join(filepath.Dir(importer), id), true
	}
	return "", false
}

// Warn collects and logs a warning.
func (h *LocalHost) Warn(msg string) {
	h.mu.Lock()
	h.warnings = append(h.warnings, msg)
	h.mu.Unlock()
	if h.Logger != nil {
		h.Logger.Warn(msg)
	}
}

// Error logs a fatal diagnostic. The plugin also returns the error, so
// the host only needs to surface it.
func (h *LocalHost) Error(msg string) {
	if h.Logger != nil {
		h.Logger.Error(msg)
	}
}

// Warnings returns the warnings collected so far.
func (h *LocalHost) Warnings() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.warnings...)
}

// WatchFiles returns the registered watch dependencies.
func (h *LocalHost) WatchFiles() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.watch...)
}

// WriteAssets flushes every pending chunk to disk, reading its source
// from the registry, and returns the written assets with their final
// sizes. Tokens become resolvable through Substitute afterwards.
func (h *LocalHost) WriteAssets(reg *synth.Registry) ([]Asset, error) {
	h.mu.Lock()
	pending := h.pending
	h.pending = nil
	h.mu.Unlock()

	written := make([]Asset, 0, len(pending))
	for _, asset := range pending {
		code, ok := reg.Get(asset.InlineID)
		if !ok {
			return written, fmt.Errorf("no registry entry for %q", asset.InlineID)
		}

		out := code
		name := asset.FileName
		if h.Lower {
			res := api.Transform(code, api.TransformOptions{
				Loader: api.LoaderTSX,
				Format: api.FormatESModule,
				Target: api.ES2022,
			})
			if len(res.Errors) > 0 {
				return written, fmt.Errorf("lowering %s: %s", asset.InlineID, res.Errors[0].Text)
			}
			out = string(res.Code)
		} else {
			name = strings.TrimSuffix(name, ".js") + ".tsx"
		}

		target := filepath.Join(h.OutDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, err
		}
		if err := os.WriteFile(target, []byte(out), 0o644); err != nil {
			return written, err
		}

		asset.FileName = name
		asset.Bytes = len(out)
		written = append(written, asset)
	}
	return written, nil
}

// Substitute expands reference tokens in rewritten server code to file
// URLs of the written assets, the local stand-in for the bundler's
// post-bundle constant substitution.
func (h *LocalHost) Substitute(code string, assets []Asset) string {
	for _, asset := range assets {
		abs, err := filepath.Abs(filepath.Join(h.OutDir, filepath.FromSlash(asset.FileName)))
		if err != nil {
			abs = filepath.Join(h.OutDir, filepath.FromSlash(asset.FileName))
		}
		url := "\"file://" + filepath.ToSlash(abs) + "\""
		code = strings.ReplaceAll(code, "import.meta."+asset.RefToken, url)
	}
	return code
}
