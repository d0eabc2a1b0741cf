package transform

import (
	"log/slog"

	"github.com/apexfn/useclient/internal/analyse"
)

// Policy selects what happens when a handler references names the module
// cannot supply.
type Policy string

const (
	// PolicyError aborts the transform.
	PolicyError Policy = "error"
	// PolicyWarn reports through the host and proceeds; the chunk will
	// fail at client load time if the name is really absent there.
	PolicyWarn Policy = "warn"
	// PolicyIgnore proceeds silently. An explicit escape hatch.
	PolicyIgnore Policy = "ignore"
)

// Options configures one transform run.
type Options struct {
	// Unresolved is the policy for free names with no import, top-level
	// declaration, or known global. Empty means warn, or error under
	// Strict.
	Unresolved Policy

	// Strict makes parse failures fatal and tightens the default
	// unresolved policy to error.
	Strict bool

	// Debug enables internal diagnostics through Logger.
	Debug bool

	// Logger receives debug diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Globals extends the built-in globals set for this instance.
	Globals analyse.Scope

	// ClientExt is the extension of synthesized client modules.
	// Defaults to "tsx".
	ClientExt string
}

// DefaultOptions returns the non-strict defaults.
func DefaultOptions() Options {
	return Options{Unresolved: PolicyWarn, ClientExt: "tsx"}
}

func (o Options) normalized() Options {
	if o.Unresolved == "" {
		if o.Strict {
			o.Unresolved = PolicyError
		} else {
			o.Unresolved = PolicyWarn
		}
	}
	if o.ClientExt == "" {
		o.ClientExt = "tsx"
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) debugf(msg string, args ...any) {
	if o.Debug {
		o.Logger.Debug(msg, args...)
	}
}
