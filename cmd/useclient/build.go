package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/apexfn/useclient/internal/bundle"
	"github.com/apexfn/useclient/internal/plugin"
	"github.com/apexfn/useclient/internal/transform"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "useclient",
		Short:         "Extract \"use client\" handlers into standalone client chunks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBuildCmd())
	return root
}

type buildFlags struct {
	configPath string
	outDir     string
	lower      bool
	metafile   string
	watch      bool
	strict     bool
	unresolved string
	debug      bool
}

func newBuildCmd() *cobra.Command {
	flags := &buildFlags{}
	cmd := &cobra.Command{
		Use:   "build <file>...",
		Short: "Transform server modules and write their client chunks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), flags, args)
		},
	}
	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	cmd.Flags().StringVarP(&flags.outDir, "out", "o", "dist", "output directory")
	cmd.Flags().BoolVar(&flags.lower, "lower", true, "lower chunks to plain JS via esbuild")
	cmd.Flags().StringVar(&flags.metafile, "metafile", "", "write a JSON build report to this path")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "rebuild when inputs change")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "treat parse failures and unresolved names as errors")
	cmd.Flags().StringVar(&flags.unresolved, "unresolved", "", "unresolved-name policy: error, warn or ignore")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "verbose diagnostics")
	return cmd
}

func runBuild(ctx context.Context, flags *buildFlags, files []string) error {
	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return err
	}
	if flags.outDir != "" {
		cfg.OutDir = flags.outDir
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "dist"
	}
	cfg.Lower = flags.lower
	if flags.metafile != "" {
		cfg.Metafile = flags.metafile
	}
	if flags.strict {
		cfg.Strict = true
	}
	if flags.unresolved != "" {
		cfg.Unresolved = flags.unresolved
	}

	level := slog.LevelInfo
	if flags.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	abs := make([]string, len(files))
	for i, f := range files {
		a, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		abs[i] = a
	}

	if err := buildOnce(ctx, cfg, flags.debug, logger, abs); err != nil {
		return err
	}
	if !flags.watch {
		return nil
	}
	return watchLoop(ctx, cfg, flags.debug, logger, abs)
}

func buildOnce(ctx context.Context, cfg *fileConfig, debug bool, logger *slog.Logger, files []string) error {
	host := &bundle.LocalHost{OutDir: cfg.OutDir, Lower: cfg.Lower, Logger: logger}
	p, err := plugin.New(host, plugin.Options{
		Include:    cfg.Include,
		Exclude:    cfg.Exclude,
		Globals:    cfg.Globals,
		Unresolved: transform.Policy(cfg.Unresolved),
		Strict:     cfg.Strict,
		ClientExt:  cfg.ClientExt,
		Debug:      debug,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	p.BuildStart()

	report := &bundle.Report{}
	for _, file := range files {
		source, err := os.ReadFile(file)
		if err != nil {
			return err
		}

		res, err := p.Transform(ctx, string(source), filepath.ToSlash(file))
		if err != nil {
			return err
		}
		if res == nil {
			logger.Debug("no handlers", "module", file)
			continue
		}

		assets, err := host.WriteAssets(p.Registry())
		if err != nil {
			return err
		}
		code := host.Substitute(res.Code, assets)

		outPath := filepath.Join(cfg.OutDir, filepath.Base(file))
		if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(outPath, []byte(code), 0o644); err != nil {
			return err
		}

		report.Modules = append(report.Modules, bundle.ModuleReport{
			Module: filepath.ToSlash(file),
			Output: filepath.ToSlash(outPath),
			Chunks: assets,
		})
		logger.Info("transformed", "module", file, "chunks", len(assets))
	}
	report.Warnings = host.Warnings()

	if cfg.Metafile != "" {
		if err := report.WriteFile(cfg.Metafile); err != nil {
			return err
		}
	}
	logger.Info("build complete", "modules", len(report.Modules), "chunks", report.ChunkCount())
	return nil
}

func watchLoop(ctx context.Context, cfg *fileConfig, debug bool, logger *slog.Logger, files []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, f := range files {
		if err := watcher.Add(f); err != nil {
			return fmt.Errorf("watching %s: %w", f, err)
		}
	}
	logger.Info("watching", "files", len(files))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Info("change detected", "file", event.Name)
			if err := buildOnce(ctx, cfg, debug, logger, files); err != nil {
				// Keep watching; a broken edit should not end the session.
				logger.Error(err.Error())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "err", err.Error())
		}
	}
}
