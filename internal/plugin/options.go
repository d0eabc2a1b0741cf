package plugin

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/apexfn/useclient/internal/analyse"
	"github.com/apexfn/useclient/internal/transform"
)

// Options configures a plugin instance. The zero value is usable.
type Options struct {
	// Include and Exclude are regular expressions combined with the
	// defaults: script extensions in, node_modules out.
	Include []string
	Exclude []string

	// Debug enables diagnostics through Logger.
	Debug bool

	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Unresolved selects error/warn/ignore for handler references the
	// module cannot supply. Defaults to warn, or error under Strict.
	Unresolved transform.Policy

	// Strict makes parse failures fatal and defaults Unresolved to
	// error.
	Strict bool

	// Globals extends the built-in globals set.
	Globals []string

	// ClientExt is the synthesized module extension. Defaults to "tsx".
	ClientExt string
}

func (o Options) normalized() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.ClientExt == "" {
		o.ClientExt = "tsx"
	}
	return o
}

// transform projects the plugin options onto the pipeline's options.
func (o Options) transform() transform.Options {
	var globals analyse.Scope
	if len(o.Globals) > 0 {
		globals = analyse.NewScope(o.Globals...)
	}
	return transform.Options{
		Unresolved: o.Unresolved,
		Strict:     o.Strict,
		Debug:      o.Debug,
		Logger:     o.Logger,
		Globals:    globals,
		ClientExt:  o.ClientExt,
	}
}

var (
	defaultInclude = regexp.MustCompile(`\.[cm]?[jt]sx?$`)
	defaultExclude = regexp.MustCompile(`(^|[\\/])node_modules[\\/]`)
)

type filter struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

func newFilter(include, exclude []string) (*filter, error) {
	f := &filter{
		include: []*regexp.Regexp{defaultInclude},
		exclude: []*regexp.Regexp{defaultExclude},
	}
	for _, expr := range include {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%s invalid include filter %q: %w", transform.Tag, expr, err)
		}
		f.include = append(f.include, re)
	}
	for _, expr := range exclude {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%s invalid exclude filter %q: %w", transform.Tag, expr, err)
		}
		f.exclude = append(f.exclude, re)
	}
	return f, nil
}

// match accepts ids that hit any include expression and no exclude
// expression.
func (f *filter) match(id string) bool {
	for _, re := range f.exclude {
		if re.MatchString(id) {
			return false
		}
	}
	for _, re := range f.include {
		if re.MatchString(id) {
			return true
		}
	}
	return false
}
