package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"

	"github.com/ironsheep/image-craft/internal/config"
	"github.com/ironsheep/image-craft/internal/ledger"
	"github.com/ironsheep/image-craft/internal/variant"
	"github.com/ironsheep/image-craft/internal/watch"
)

func (a *app) watchCommand() *Command {
	var (
		flags    generateFlags
		debounce time.Duration
	)
	return &Command{
		Name:    "watch",
		Summary: "Regenerate derivatives whenever the local source directory changes",
		Usage:   "image-craft watch [--config file] [--debounce 500ms]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
			flags.register(fs)
			fs.DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before a regeneration")
			return fs
		},
		Run: func(args []string) error {
			cfg, err := a.loadConfig(flags.configFlags)
			if err != nil {
				return err
			}
			cfg = flags.apply(cfg)

			root, filter, err := watchPlan(cfg)
			if err != nil {
				return err
			}
			regenerate := func(ctx context.Context) error {
				l, err := a.generate(ctx, cfg)
				filter.record(l)
				return err
			}

			// An initial run catches changes made while nothing was watching.
			if err := regenerate(a.ctx); err != nil {
				a.logger.Error("initial generation failed", "error", err)
			}

			w := watch.New(root, cfg.Rules().Classifier, regenerate, watch.Options{
				Debounce: debounce,
				Logger:   a.logger,
				Ignore:   filter.ignore,
			})
			return w.Run(a.ctx)
		},
	}
}

// watchPlan resolves the local directory to watch and the filter for files
// the runs themselves write into it. Derivatives may share the watched tree
// only in place; a target nested inside or around it is refused.
func watchPlan(cfg *config.Config) (string, *derivativeFilter, error) {
	src, err := cfg.Disk(cfg.SourceDisk)
	if err != nil {
		return "", nil, err
	}
	if !isLocal(src) {
		return "", nil, fmt.Errorf("%w: watch needs a local source disk, %q uses %q", config.ErrInvalid, cfg.SourceDisk, src.Driver)
	}
	dir := filepath.FromSlash(strings.Trim(cfg.SourceDirectory, "/"))
	root := filepath.Join(src.Root, dir)

	filter := &derivativeFilter{rules: cfg.Rules(), produced: map[string]bool{}}
	dst, err := cfg.Disk(cfg.TargetDisk)
	if err != nil {
		return "", nil, err
	}
	if !isLocal(dst) {
		return root, filter, nil
	}

	if cfg.InPlace() {
		filter.root = src.Root
		return root, filter, nil
	}
	written := filepath.Join(dst.Root, dir)
	if nested(root, written) || nested(written, root) {
		return "", nil, fmt.Errorf("%w: target disk %q writes to %s, which overlaps the watched %s", config.ErrInvalid, cfg.TargetDisk, written, root)
	}
	return root, filter, nil
}

func isLocal(d config.Disk) bool {
	driver := strings.ToLower(d.Driver)
	return driver == "" || driver == "local"
}

// nested reports whether p lies inside parent.
func nested(parent, p string) bool {
	parent, p = absPath(parent), absPath(p)
	rel, err := filepath.Rel(parent, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// derivativeFilter recognizes the derivatives runs write next to their
// sources. A zero root means the target is elsewhere and nothing is
// filtered.
type derivativeFilter struct {
	root  string
	rules variant.Rules

	mu       sync.Mutex
	produced map[string]bool
}

// record adds the derivatives of a run. Addresses accumulate across runs.
func (f *derivativeFilter) record(l *ledger.Ledger) {
	if f.root == "" || l == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, address := range l.Addresses() {
		f.produced[address] = true
	}
}

func (f *derivativeFilter) ignore(p string) bool {
	if f.root == "" {
		return false
	}
	rel, err := filepath.Rel(absPath(f.root), absPath(p))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	rel = filepath.ToSlash(rel)
	if f.rules.IsSizedName(variant.NewSourceImage(rel)) {
		return true
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.produced[rel]
}
