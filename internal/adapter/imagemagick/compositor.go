// Package imagemagick composites the rendered page description into the
// published raster variants: rasterize, overlay the locale logo and the
// habitat-zone masks, then resize to the medium and thumbnail widths.
package imagemagick

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/turtlewatch/internal/domain"
)

// Raster geometry of the published product.
const (
	rasterDensity  = 144 // dpi when rasterizing the PostScript page
	mediumWidth    = 640
	thumbnailWidth = 200

	// Opacity of the translucent zone masks blended over the base raster.
	maskDissolvePercent = 35
)

// zoneMasks are the translucent highlight overlays shipped with the assets,
// one per habitat zone. Shared across locales.
var zoneMasks = []string{"mask_leatherback.png", "mask_loggerhead.png"}

type runner interface {
	Run(ctx context.Context, tool string, args ...string) ([]byte, error)
}

// Compositor implements pipeline.Compositor with the ImageMagick convert and
// composite binaries.
type Compositor struct {
	convertBin   string
	compositeBin string
	assetsDir    string
	run          runner
	logger       *slog.Logger
}

// New creates a Compositor. assetsDir holds the locale logos and zone masks.
func New(convertBin, compositeBin, assetsDir string, run runner, logger *slog.Logger) *Compositor {
	return &Compositor{
		convertBin:   convertBin,
		compositeBin: compositeBin,
		assetsDir:    assetsDir,
		run:          run,
		logger:       logger,
	}
}

// Composite produces the full, medium, and thumbnail PNGs for one locale.
// Every intermediate output is checked on disk before the next tool call
// consumes it.
func (c *Compositor) Composite(ctx context.Context, pagePath string, loc domain.Locale, workDir string) ([]domain.Artifact, error) {
	full := filepath.Join(workDir, "turtlewatch"+loc.Suffix+".png")
	medium := filepath.Join(workDir, "turtlewatch"+loc.Suffix+"_medium.png")
	thumb := filepath.Join(workDir, "turtlewatch"+loc.Suffix+"_thumbnail.png")

	// Rasterize the page description.
	if _, err := c.run.Run(ctx, c.convertBin,
		"-density", strconv.Itoa(rasterDensity), pagePath, "-flatten", full); err != nil {
		return nil, fmt.Errorf("rasterize %s: %w", loc.Tag, err)
	}
	if err := requireFile(full); err != nil {
		return nil, err
	}

	// Translucent habitat-zone masks, then the locale logo on top.
	for _, mask := range zoneMasks {
		if _, err := c.run.Run(ctx, c.compositeBin,
			"-dissolve", strconv.Itoa(maskDissolvePercent), "-gravity", "center",
			filepath.Join(c.assetsDir, mask), full, full); err != nil {
			return nil, fmt.Errorf("overlay %s on %s: %w", mask, loc.Tag, err)
		}
	}
	if _, err := c.run.Run(ctx, c.compositeBin,
		"-gravity", "northwest", "-geometry", "+12+12",
		filepath.Join(c.assetsDir, loc.LogoFile), full, full); err != nil {
		return nil, fmt.Errorf("overlay logo on %s: %w", loc.Tag, err)
	}
	if err := requireFile(full); err != nil {
		return nil, err
	}

	// Downscaled variants from the finished full raster.
	for _, rs := range []struct {
		width int
		out   string
	}{
		{mediumWidth, medium},
		{thumbnailWidth, thumb},
	} {
		if _, err := c.run.Run(ctx, c.convertBin,
			full, "-resize", strconv.Itoa(rs.width), rs.out); err != nil {
			return nil, fmt.Errorf("resize %s to %d: %w", loc.Tag, rs.width, err)
		}
		if err := requireFile(rs.out); err != nil {
			return nil, err
		}
	}

	c.logger.Debug("composited locale variants", "locale", loc.Tag)
	return []domain.Artifact{
		{Locale: loc.Tag, Size: domain.SizeFull, Path: full},
		{Locale: loc.Tag, Size: domain.SizeMedium, Path: medium},
		{Locale: loc.Tag, Size: domain.SizeThumbnail, Path: thumb},
	}, nil
}

func requireFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%s: %w", path, domain.ErrMissingOutput)
	}
	return nil
}
