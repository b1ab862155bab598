// Package pipeline orchestrates one product run: resolve inputs, derive
// render parameters, drive the external renderer and compositor, publish the
// results, and notify. Stages run strictly sequentially; each stage's output
// must exist on disk before the next stage starts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/turtlewatch/internal/domain"
	"github.com/couchcryptid/turtlewatch/internal/observability"
)

// InputResolver locates the composite grid and current-vector pair.
type InputResolver interface {
	ResolveComposite(explicit string) (domain.CompositeGrid, error)
	ResolveCurrents() (domain.CurrentVectorPair, error)
}

// Renderer is the external plotting toolkit: it computes the clipped grid's
// data extent and draws the map to a page-description file.
type Renderer interface {
	GridExtent(ctx context.Context, gridPath string, region domain.RegionSpec) (min, max float64, err error)
	RenderMap(ctx context.Context, params domain.RenderParameters, workDir string) (pagePath string, err error)
}

// Compositor is the external raster toolkit: it rasterizes the page
// description, overlays the locale logo and zone masks, and resizes.
type Compositor interface {
	Composite(ctx context.Context, pagePath string, loc domain.Locale, workDir string) ([]domain.Artifact, error)
}

// Publisher copies finished artifacts to the distribution area.
type Publisher interface {
	Publish(ctx context.Context, product domain.Product) error
}

// Notifier reports run outcomes (status email, product events).
type Notifier interface {
	NotifySuccess(ctx context.Context, product domain.Product) error
	NotifyFailure(ctx context.Context, runDate time.Time, runErr error) error
}

// Pipeline runs the product end to end. One run per invocation; no state is
// shared between runs beyond the staged output files.
type Pipeline struct {
	resolver   InputResolver
	renderer   Renderer
	compositor Compositor
	publisher  Publisher
	notifiers  []Notifier

	workRoot string
	logger   *slog.Logger
	metrics  *observability.Metrics

	ready atomic.Bool
	last  atomic.Pointer[domain.Product]
}

// New creates a Pipeline. workRoot is where per-run temp directories are
// created; empty means the system temp dir.
func New(r InputResolver, rend Renderer, comp Compositor, pub Publisher, notifiers []Notifier,
	workRoot string, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		resolver:   r,
		renderer:   rend,
		compositor: comp,
		publisher:  pub,
		notifiers:  notifiers,
		workRoot:   workRoot,
		logger:     logger,
		metrics:    metrics,
	}
}

// RunOptions are the per-run operator switches.
type RunOptions struct {
	// GridFile names the composite grid explicitly instead of resolving by
	// today's date token.
	GridFile string
	// EnglishOnly skips the Vietnamese and Korean variants.
	EnglishOnly bool
	// NoMail suppresses all notifications, success and failure alike.
	NoMail bool
}

// CheckReadiness returns nil once at least one run has completed, for the
// serve-mode readiness probe.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no completed product run yet")
	}
	return nil
}

// LastProduct returns the most recent successful product, if any.
func (p *Pipeline) LastProduct() (domain.Product, bool) {
	if prod := p.last.Load(); prod != nil {
		return *prod, true
	}
	return domain.Product{}, false
}

// Run executes one complete product run. Any error is fatal for the run: a
// failure notification goes out (unless suppressed) and the error is
// returned for the caller to exit nonzero on.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (err error) {
	runDate := domain.Today()
	runStart := time.Now()

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.logger.Info("product run starting", "date", domain.Label(runDate),
		"explicit_grid", opts.GridFile, "english_only", opts.EnglishOnly, "no_mail", opts.NoMail)

	defer func() {
		p.metrics.RunDuration.Observe(time.Since(runStart).Seconds())
		if err != nil {
			p.metrics.RunsTotal.WithLabelValues("failure").Inc()
			p.logger.Error("product run failed", "date", domain.Label(runDate), "error", err)
			if !opts.NoMail {
				p.notifyFailure(ctx, runDate, err)
			}
			return
		}
		p.metrics.RunsTotal.WithLabelValues("success").Inc()
		p.metrics.LastSuccess.SetToCurrentTime()
		p.ready.Store(true)
		p.logger.Info("product run complete", "date", domain.Label(runDate), "duration", time.Since(runStart))
	}()

	// Stage: resolve inputs.
	stageStart := time.Now()
	grid, err := p.resolver.ResolveComposite(opts.GridFile)
	if err != nil {
		return fmt.Errorf("resolve composite grid: %w", err)
	}
	currents, err := p.resolver.ResolveCurrents()
	if err != nil {
		return fmt.Errorf("resolve current vectors: %w", err)
	}
	p.observeStage("resolve", stageStart)

	// Private per-run workspace, removed on every exit path.
	workDir, err := os.MkdirTemp(p.workRoot, "turtlewatch-")
	if err != nil {
		return fmt.Errorf("create work directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			p.logger.Warn("work directory cleanup failed", "dir", workDir, "error", rmErr)
		}
	}()

	// Stage: color scale from the clipped, converted grid's data extent.
	stageStart = time.Now()
	dataMin, dataMax, err := p.renderer.GridExtent(ctx, grid.Path, domain.ProductRegion())
	if err != nil {
		return fmt.Errorf("grid extent: %w", err)
	}
	scale := domain.RoundScale(dataMin, dataMax)
	p.observeStage("extent", stageStart)
	p.logger.Info("color scale computed", "data_min", dataMin, "data_max", dataMax,
		"scale_min", scale.Min, "scale_max", scale.Max)

	locales := domain.Locales()
	if opts.EnglishOnly {
		locales = []domain.Locale{domain.LocaleEnglish}
	}

	var artifacts []domain.Artifact
	for _, loc := range locales {
		params := domain.BuildRenderParameters(grid, currents, scale, loc)

		stageStart = time.Now()
		page, err := p.renderer.RenderMap(ctx, params, workDir)
		if err != nil {
			return fmt.Errorf("render %s map: %w", loc.Tag, err)
		}
		if err := requireOutput(page); err != nil {
			return fmt.Errorf("render %s map: %w", loc.Tag, err)
		}
		p.observeStage("render", stageStart)

		stageStart = time.Now()
		arts, err := p.compositor.Composite(ctx, page, loc, workDir)
		if err != nil {
			return fmt.Errorf("composite %s variants: %w", loc.Tag, err)
		}
		for _, a := range arts {
			if err := requireOutput(a.Path); err != nil {
				return fmt.Errorf("composite %s %s: %w", a.Locale, a.Size, err)
			}
		}
		p.observeStage("composite", stageStart)
		artifacts = append(artifacts, arts...)
	}

	product := domain.Product{
		Date:        runDate,
		WindowStart: grid.Start,
		WindowEnd:   grid.End,
		Artifacts:   artifacts,
	}

	stageStart = time.Now()
	if err := p.publisher.Publish(ctx, product); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	for _, a := range artifacts {
		p.metrics.ProductsPublished.WithLabelValues(a.Locale, a.Size).Inc()
	}
	p.observeStage("publish", stageStart)

	if !opts.NoMail {
		stageStart = time.Now()
		for _, n := range p.notifiers {
			if err := n.NotifySuccess(ctx, product); err != nil {
				return fmt.Errorf("notify: %w", err)
			}
		}
		p.observeStage("notify", stageStart)
	}

	p.last.Store(&product)
	return nil
}

// notifyFailure reports an aborted run on a fresh, bounded context so a
// cancelled or expired run context cannot swallow the failure report.
func (p *Pipeline) notifyFailure(ctx context.Context, runDate time.Time, runErr error) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	defer cancel()
	for _, n := range p.notifiers {
		if err := n.NotifyFailure(nctx, runDate, runErr); err != nil {
			p.logger.Error("failure notification failed", "error", err)
		}
	}
}

func (p *Pipeline) observeStage(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// requireOutput verifies a declared stage output exists before the next
// stage may consume it.
func requireOutput(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%s: %w", path, domain.ErrMissingOutput)
	}
	return nil
}
