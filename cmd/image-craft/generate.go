package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/ironsheep/image-craft/internal/config"
	"github.com/ironsheep/image-craft/internal/ledger"
	"github.com/ironsheep/image-craft/internal/pipeline"
	"github.com/ironsheep/image-craft/internal/storage"
)

type generateFlags struct {
	configFlags
	sourceDisk   string
	relativePath string
	concurrency  int
}

func (f *generateFlags) register(fs *pflag.FlagSet) {
	f.configFlags.register(fs)
	fs.StringVar(&f.sourceDisk, "source-disk", "", "override the configured source disk")
	fs.StringVar(&f.relativePath, "relative-source-path", "", "override the configured source directory")
	fs.IntVarP(&f.concurrency, "concurrency", "j", 0, "source images processed in parallel (0 keeps the configured value)")
}

func (f *generateFlags) apply(cfg *config.Config) *config.Config {
	cfg = cfg.WithOverrides(f.sourceDisk, f.relativePath)
	if f.concurrency > 0 {
		cfg.Concurrency = f.concurrency
	}
	return cfg
}

func (a *app) generateCommand() *Command {
	var flags generateFlags
	return &Command{
		Name:    "generate",
		Summary: "Generate every derivative of the source directory",
		Usage:   "image-craft generate [--config file] [--source-disk name] [--relative-source-path dir]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("generate", pflag.ContinueOnError)
			flags.register(fs)
			return fs
		},
		Run: func(args []string) error {
			cfg, err := a.loadConfig(flags.configFlags)
			if err != nil {
				return err
			}
			_, err = a.generate(a.ctx, flags.apply(cfg))
			return err
		},
	}
}

// generate runs the pipeline once and prints its summary. The summary is
// printed even when the run fails after discovery.
func (a *app) generate(ctx context.Context, cfg *config.Config) (*ledger.Ledger, error) {
	g, err := a.generator(cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	l, err := g.Run(ctx)
	if l != nil {
		a.printSummary(l.Snapshot(), time.Since(start))
	}
	return l, err
}

func (a *app) generator(cfg *config.Config) (*pipeline.Generator, error) {
	source, err := storage.OpenNamed(cfg, cfg.SourceDisk)
	if err != nil {
		return nil, fmt.Errorf("failed to open source disk: %w", err)
	}
	target, err := storage.OpenNamed(cfg, cfg.TargetDisk)
	if err != nil {
		return nil, fmt.Errorf("failed to open target disk: %w", err)
	}
	return pipeline.New(cfg, pipeline.Deps{
		Source: source,
		Target: target,
		Logger: a.logger,
	})
}

func (a *app) printSummary(c ledger.Counts, elapsed time.Duration) {
	fmt.Fprintf(a.out, "%s responsive images generated (%s) from %s of %s source images in %s\n",
		humanize.Comma(int64(c.Files)),
		humanize.Bytes(uint64(c.Bytes)),
		humanize.Comma(int64(c.Processed)),
		humanize.Comma(int64(c.Discovered)),
		elapsed.Round(time.Millisecond))
	if c.Failed > 0 {
		fmt.Fprintf(a.out, "%s source images have errors, see %s\n", humanize.Comma(int64(c.Failed)), config.LedgerFilename)
	}
}
