package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/image-craft/internal/config"
	"github.com/ironsheep/image-craft/internal/imaging"
	"github.com/ironsheep/image-craft/internal/ledger"
	"github.com/ironsheep/image-craft/internal/storage"
	"github.com/ironsheep/image-craft/internal/variant"
)

var (
	// ErrEnumerate is returned when the source directory cannot be listed.
	ErrEnumerate = errors.New("source enumeration failed")

	// ErrLedgerWrite is returned when the ledger cannot be stored.
	ErrLedgerWrite = errors.New("ledger write failed")

	errEmptyResize = errors.New("resize produced an empty image")
)

// Deps are the collaborators of a Generator.
type Deps struct {
	Source storage.Disk
	Target storage.Disk

	// Engine and Optimizer default to imaging.NewCodec and
	// imaging.NewSqueezer at the configured quality.
	Engine    imaging.Engine
	Optimizer imaging.Optimizer

	Logger *slog.Logger
	Clock  ledger.Clock

	// WorkDir is the parent directory of per-source work areas. Empty uses
	// the system temp directory.
	WorkDir string
}

// Generator runs derivative generation for one configuration.
type Generator struct {
	cfg   *config.Config
	rules variant.Rules
	deps  Deps
	log   *slog.Logger

	// inPlace is set when derivatives are written next to their sources.
	inPlace bool
}

// New returns a Generator. Source and Target are required.
func New(cfg *config.Config, deps Deps) (*Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuration is required", config.ErrInvalid)
	}
	if deps.Source == nil || deps.Target == nil {
		return nil, fmt.Errorf("%w: source and target disks are required", config.ErrInvalid)
	}
	if deps.Engine == nil {
		deps.Engine = imaging.NewCodec(cfg.Quality)
	}
	if deps.Optimizer == nil {
		deps.Optimizer = imaging.NewSqueezer(cfg.Quality)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Generator{
		cfg:     cfg,
		rules:   cfg.Rules(),
		deps:    deps,
		log:     logger,
		inPlace: cfg.InPlace(),
	}, nil
}

// Run processes every eligible source and writes the ledger to the target
// disk. The returned ledger is non-nil even when err is not.
func (g *Generator) Run(ctx context.Context) (*ledger.Ledger, error) {
	l := ledger.New(g.deps.Clock)

	sources, err := g.discover(ctx, l)
	if err != nil {
		return l, err
	}
	g.log.Info("generation started", "sources", len(sources), "concurrency", g.cfg.Concurrency)

	var eg errgroup.Group
	eg.SetLimit(max(1, g.cfg.Concurrency))
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			g.process(ctx, l, src)
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return l, fmt.Errorf("run cancelled: %w", err)
	}

	ledgerPath := g.cfg.LedgerPath()
	if err := l.Write(ctx, g.deps.Target, ledgerPath); err != nil {
		return l, fmt.Errorf("%w: %w", ErrLedgerWrite, err)
	}
	g.log.Info("ledger written", "path", ledgerPath)
	return l, nil
}

// discover lists the eligible sources. When derivatives share the source
// tree, files an earlier run generated and files named like resized
// derivatives are not sources.
func (g *Generator) discover(ctx context.Context, l *ledger.Ledger) ([]variant.SourceImage, error) {
	dir := g.cfg.SourceDirectory
	paths, err := g.deps.Source.List(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEnumerate, dir, err)
	}

	var derived map[string]bool
	if g.inPlace {
		derived, err = ledger.ReadAddresses(ctx, g.deps.Target, g.cfg.LedgerPath())
		if err != nil {
			g.log.Warn("previous ledger unavailable", "error", err)
		}
	}

	sources := make([]variant.SourceImage, 0, len(paths))
	for _, p := range paths {
		src := variant.NewSourceImage(p)
		if verdict := g.rules.Classifier.Classify(src); verdict != variant.Eligible {
			g.log.Debug("skipping file", "path", p, "reason", verdict.String())
			continue
		}
		if g.inPlace && (derived[src.Path()] || g.rules.IsSizedName(src)) {
			g.log.Debug("skipping file", "path", p, "reason", "derivative")
			continue
		}
		l.Discovered()
		sources = append(sources, src)
	}
	return sources, nil
}

// process produces every derivative of src. It never returns an error:
// failures are recorded in l.
func (g *Generator) process(ctx context.Context, l *ledger.Ledger, src variant.SourceImage) {
	log := g.log.With("source", src.Path())
	original := variant.DerivativeSpec{Source: src, Format: src.Extension()}

	area, err := newWorkArea(g.deps.WorkDir)
	if err != nil {
		g.abandon(l, log, failed(original, src.Path(), KindStore, err))
		return
	}
	defer func() {
		if err := area.close(); err != nil {
			log.Warn("failed to remove work area", "dir", area.dir, "error", err)
		}
	}()

	data, err := g.deps.Source.Read(ctx, src.Path())
	if err != nil {
		g.abandon(l, log, failed(original, src.Path(), KindRead, err))
		return
	}
	decoded, err := g.deps.Engine.Decode(data)
	if err != nil {
		g.abandon(l, log, failed(original, src.Path(), KindDecode, err))
		return
	}
	if log.Enabled(ctx, slog.LevelDebug) {
		log.Debug("decoded original",
			"width", decoded.Width,
			"height", decoded.Height,
			"format", decoded.Format,
			"placeholder", imaging.Placeholder(decoded.Image))
	}

	anyFailed := false
	for _, spec := range g.rules.Derivatives(src, decoded.Width) {
		if ctx.Err() != nil {
			break
		}
		o := g.derive(ctx, area, spec, data, decoded)
		if o.Failed() {
			anyFailed = true
			l.RecordError(src.Path(), o.Message())
			log.Warn("derivative failed", "address", o.Address, "kind", o.Kind.String(), "error", o.Err)
			continue
		}
		l.RecordGenerated(src.Path(), spec.Format, spec.WidthKey(), o.Address, o.Bytes)
		log.Debug("derivative stored", "address", o.Address, "bytes", o.Bytes)
	}

	l.Processed()
	if anyFailed {
		l.Failed()
	}
}

func (g *Generator) abandon(l *ledger.Ledger, log *slog.Logger, o Outcome) {
	l.RecordError(o.Spec.Source.Path(), o.Message())
	l.Failed()
	log.Warn("source abandoned", "kind", o.Kind.String(), "error", o.Err)
}

// derive produces and stores one derivative. The optimized original reuses
// the source bytes; every other spec is encoded from the decoded image.
func (g *Generator) derive(ctx context.Context, area *workArea, spec variant.DerivativeSpec, original []byte, decoded *imaging.Decoded) Outcome {
	address := g.rules.Address(spec)

	// In place, the optimized original would overwrite its own source.
	if g.inPlace && spec.IsOriginal() {
		return Outcome{Spec: spec, Address: address, Bytes: int64(len(original))}
	}

	encoded := original
	if !spec.IsOriginal() {
		img := decoded.Image
		if !spec.Full() {
			img = g.deps.Engine.Resize(img, spec.Width)
			if img == nil || img.Bounds().Empty() {
				return failed(spec, address, KindResize, errEmptyResize)
			}
		}
		var err error
		encoded, err = g.deps.Engine.Encode(img, spec.Format)
		if err != nil {
			return failed(spec, address, KindEncode, err)
		}
	}

	optimized, err := g.deps.Optimizer.Optimize(encoded, spec.Format)
	if err != nil {
		return failed(spec, address, KindOptimize, err)
	}

	if err := g.store(ctx, area, address, optimized, spec.Format); err != nil {
		return failed(spec, address, KindStore, err)
	}
	return Outcome{Spec: spec, Address: address, Bytes: int64(len(optimized))}
}

// store stages data in the work area and uploads it publicly.
func (g *Generator) store(ctx context.Context, area *workArea, address string, data []byte, format string) error {
	f, err := area.stage(path.Base(address), data)
	if err != nil {
		return err
	}
	defer f.Close()

	return g.deps.Target.Write(ctx, address, f, storage.WriteOptions{
		Visibility:  storage.Public,
		ContentType: variant.MIMEType(format),
	})
}
