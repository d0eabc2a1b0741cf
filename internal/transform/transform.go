// Package transform implements the per-module pipeline: locate handlers,
// validate the module, synthesize one client chunk per handler, and
// splice URL expressions into the server source.
package transform

import (
	"bytes"
	"context"
	"errors"
	"path"
	"strings"

	"github.com/apexfn/useclient/internal/index"
	"github.com/apexfn/useclient/internal/parse"
	"github.com/apexfn/useclient/internal/synth"
)

// Emitter is the slice of the host the pipeline needs: chunk emission and
// the warning channel. Fatal errors travel back as return values.
type Emitter interface {
	// EmitChunk registers a bundle entry for the inline module id and
	// returns the reference token the host later expands to the asset
	// URL.
	EmitChunk(inlineID, fileName string) (string, error)
	Warn(msg string)
}

// EmittedChunk describes one chunk produced by a transform call.
type EmittedChunk struct {
	InlineID string
	FileName string
	RefToken string
	Start    int // handler start offset in the source
}

// Result is a successful transform of a module that contained handlers.
type Result struct {
	Code   string
	Chunks []EmittedChunk
}

// File runs the pipeline over one module. It returns (nil, nil) when the
// module needs no rewriting: no directive substring, no qualifying
// handlers, or an unparsable source under the non-strict policy. All
// registry writes and chunk emissions complete, in handler source order,
// before the rewritten code is returned.
func File(ctx context.Context, source []byte, id string, reg *synth.Registry, em Emitter, opts Options) (*Result, error) {
	opts = opts.normalized()

	if !bytes.Contains(source, []byte(directive)) {
		return nil, nil
	}
	if moduleIsClientMarked(source) {
		// A module-level directive marks the whole file as client code;
		// there is nothing to split out of it.
		return nil, nil
	}

	file, err := parse.Parse(ctx, id, source)
	if err != nil {
		var pf *parse.ParseFailedError
		if errors.As(err, &pf) && !opts.Strict {
			em.Warn(Tag + " skipping " + id + ": " + pf.Reason)
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	handlers, err := LocateHandlers(file.Root, source, id)
	if err != nil {
		return nil, err
	}
	if len(handlers) == 0 {
		return nil, nil
	}

	if err := CheckSideEffectImports(file.Root, source, id); err != nil {
		return nil, err
	}
	if err := CheckCallableUses(file.Root, source, id, handlers); err != nil {
		return nil, err
	}

	syn := &synth.Synthesizer{
		Source:  source,
		Imports: index.BuildImportTable(file.Root, source),
		Decls:   index.BuildDeclTable(file.Root, source),
		Globals: opts.Globals,
	}
	offsets := parse.NewOffsets(source)

	var (
		reps   []Replacement
		chunks []EmittedChunk
	)
	for _, h := range handlers {
		mod := syn.Build(h.Node)
		if len(mod.Unresolved) > 0 {
			uerr := &UnresolvedReferenceError{ID: id, Names: mod.Unresolved}
			switch opts.Unresolved {
			case PolicyError:
				return nil, uerr
			case PolicyWarn:
				em.Warn(uerr.Error())
			}
		}

		chunkName := synth.ChunkName(id, source, h.Start, opts.ClientExt)
		inlineID := synth.InlineID(id, chunkName)

		// Plan before emitting so a malformed span skips the handler
		// without registering a chunk for it.
		probe := PlanReplacement(source, h, "__probe__")
		if err := validateSpan(offsets, source, probe); err != nil {
			opts.debugf("skipping handler", "module", id, "err", err.Error())
			continue
		}

		reg.Set(inlineID, mod.Code)
		ref, err := em.EmitChunk(inlineID, assetFileName(chunkName))
		if err != nil {
			return nil, err
		}

		reps = append(reps, PlanReplacement(source, h, ref))
		chunks = append(chunks, EmittedChunk{
			InlineID: inlineID,
			FileName: assetFileName(chunkName),
			RefToken: ref,
			Start:    h.Start,
		})
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	return &Result{Code: string(ApplyReplacements(source, reps)), Chunks: chunks}, nil
}

// assetFileName proposes the output location for a chunk: under assets/,
// with the client extension lowered to plain js for the bundled artifact.
func assetFileName(chunkName string) string {
	ext := path.Ext(chunkName)
	return "assets/" + strings.TrimSuffix(chunkName, ext) + ".js"
}

// moduleIsClientMarked reports whether the module's first real token is
// the directive itself, i.e. the whole file opts into client semantics.
func moduleIsClientMarked(source []byte) bool {
	rest := source[parse.FirstTokenOffset(source):]
	return bytes.HasPrefix(rest, []byte(`"`+directive+`"`)) ||
		bytes.HasPrefix(rest, []byte(`'`+directive+`'`))
}
