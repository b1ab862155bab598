// Package ferret drives the external Ferret plotting toolkit. Each operation
// writes a journal script and execs the tool; Ferret owns the contouring,
// masking, and vector-drawing mathematics, this adapter only assembles
// scripts from render parameters and checks the invocation outcome.
package ferret

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/turtlewatch/internal/domain"
)

// runner abstracts tool execution for tests.
type runner interface {
	Run(ctx context.Context, tool string, args ...string) ([]byte, error)
}

// Renderer implements pipeline.Renderer on top of the Ferret binary.
type Renderer struct {
	bin    string
	run    runner
	logger *slog.Logger
}

// NewRenderer creates a Renderer for the given Ferret binary.
func NewRenderer(bin string, run runner, logger *slog.Logger) *Renderer {
	return &Renderer{bin: bin, run: run, logger: logger}
}

// GridExtent computes the min/max of the clipped, Fahrenheit-converted grid.
// The color-scale statistics stay delegated to Ferret; only the two numbers
// come back.
func (r *Renderer) GridExtent(ctx context.Context, gridPath string, region domain.RegionSpec) (float64, float64, error) {
	script, err := os.CreateTemp("", "turtlewatch-extent-*.jnl")
	if err != nil {
		return 0, 0, fmt.Errorf("create extent journal: %w", err)
	}
	defer os.Remove(script.Name())

	if _, err := script.WriteString(extentJournal(gridPath, region)); err != nil {
		script.Close()
		return 0, 0, fmt.Errorf("write extent journal: %w", err)
	}
	if err := script.Close(); err != nil {
		return 0, 0, fmt.Errorf("close extent journal: %w", err)
	}

	out, err := r.run.Run(ctx, r.bin, "-nodisplay", "-script", script.Name())
	if err != nil {
		return 0, 0, err
	}
	min, max, err := parseExtent(out)
	if err != nil {
		return 0, 0, fmt.Errorf("grid %s: %w", gridPath, err)
	}
	r.logger.Debug("grid extent", "grid", gridPath, "min", min, "max", max)
	return min, max, nil
}

// RenderMap writes the product journal for one locale and runs it, producing
// a PostScript page description in workDir.
func (r *Renderer) RenderMap(ctx context.Context, params domain.RenderParameters, workDir string) (string, error) {
	pagePath := filepath.Join(workDir, "turtlewatch"+params.Locale.Suffix+".ps")
	journalPath := filepath.Join(workDir, "turtlewatch"+params.Locale.Suffix+".jnl")

	if err := os.WriteFile(journalPath, []byte(mapJournal(params, pagePath)), 0o644); err != nil {
		return "", fmt.Errorf("write map journal: %w", err)
	}
	if _, err := r.run.Run(ctx, r.bin, "-nodisplay", "-script", journalPath); err != nil {
		return "", err
	}
	return pagePath, nil
}

// extentJournal lists the min and max of the converted grid over the map
// region, one value per line.
func extentJournal(gridPath string, region domain.RegionSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "use \"%s\"\n", gridPath)
	fmt.Fprintf(&b, "set region/x=%g:%g/y=%g:%g\n", region.LonMin, region.LonMax, region.LatMin, region.LatMax)
	b.WriteString("let sst_f = sst * 9 / 5 + 32\n")
	b.WriteString("list/nohead/norowlab sst_f[x=@min,y=@min,t=@min]\n")
	b.WriteString("list/nohead/norowlab sst_f[x=@max,y=@max,t=@max]\n")
	return b.String()
}

// mapJournal draws the full product page: shaded SST, the four isotherm
// band fills, the current-vector overlay, and the annotations.
func mapJournal(p domain.RenderParameters, pagePath string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "use \"%s\"\n", p.Grid.Path)
	fmt.Fprintf(&b, "set region/x=%g:%g/y=%g:%g\n", p.Region.LonMin, p.Region.LonMax, p.Region.LatMin, p.Region.LatMax)
	b.WriteString("let sst_f = sst * 9 / 5 + 32\n")

	// Shaded temperature field on the rounded scale.
	fmt.Fprintf(&b, "shade/set_up/levels=(%g,%g,%g)/key sst_f\n", p.Scale.Min, p.Scale.Max, p.Scale.Step)
	b.WriteString("go fland\n")

	// Thin filled polygons along each habitat isotherm.
	for _, band := range p.Bands {
		fmt.Fprintf(&b, "contour/over/fill/levels=(%.2f,%.2f)/nolabel sst_f ! %s\n", band.Low, band.High, band.Name)
	}

	// Current vectors, clipped above the display cutoff.
	fmt.Fprintf(&b, "use \"%s\"\n", p.Currents.UPath)
	fmt.Fprintf(&b, "use \"%s\"\n", p.Currents.VPath)
	fmt.Fprintf(&b, "let spd = (u[d=2]^2 + v[d=3]^2)^0.5\n")
	fmt.Fprintf(&b, "let u_clip = if spd le %g then u[d=2]\n", p.VectorClipSpeed)
	fmt.Fprintf(&b, "let v_clip = if spd le %g then v[d=3]\n", p.VectorClipSpeed)
	fmt.Fprintf(&b, "vector/over/nolabel/length=%g u_clip, v_clip\n", p.VectorArrowScale)

	// Annotations: title, composite note, observation window.
	fmt.Fprintf(&b, "label/nouser 0.5, 8.4, -1, 0, 0.18 @AC%s\n", p.Locale.Title)
	fmt.Fprintf(&b, "label/nouser 0.5, 8.1, -1, 0, 0.12 @AC%s: %s - %s\n", p.Locale.CompositeNote, p.StartLabel, p.EndLabel)

	fmt.Fprintf(&b, "frame/format=ps/file=\"%s\"\n", pagePath)
	return b.String()
}

// parseExtent reads the two listed values from Ferret's output. Anything
// other than exactly two parsable numbers is a tool contract violation.
func parseExtent(out []byte) (float64, float64, error) {
	var vals []float64
	for _, line := range strings.Split(string(out), "\n") {
		for _, field := range strings.Fields(line) {
			v, err := strconv.ParseFloat(field, 64)
			if err == nil {
				vals = append(vals, v)
			}
		}
	}
	if len(vals) != 2 {
		return 0, 0, fmt.Errorf("extent output: want 2 values, got %d: %w", len(vals), domain.ErrToolFailure)
	}
	min, max := vals[0], vals[1]
	if min > max {
		return 0, 0, fmt.Errorf("extent output: min %g above max %g: %w", min, max, domain.ErrToolFailure)
	}
	return min, max, nil
}
