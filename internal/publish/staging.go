// Package publish copies finished product images to the web staging
// directory under both a date-stamped name and a stable "latest" name.
package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/turtlewatch/internal/domain"
)

// Staging implements pipeline.Publisher against a local directory that the
// web server exports.
type Staging struct {
	dir    string
	logger *slog.Logger
}

// NewStaging creates a Staging publisher rooted at dir.
func NewStaging(dir string, logger *slog.Logger) *Staging {
	return &Staging{dir: dir, logger: logger}
}

// Publish copies every artifact into the staging directory. Each artifact
// lands twice: once under its product date and once as the "latest" file the
// site links to, so yesterday's product survives until today's overwrite.
func (s *Staging) Publish(ctx context.Context, product domain.Product) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	for _, a := range product.Artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, name := range []string{
			StagedName(a, product.Date.Format("20060102")),
			StagedName(a, "latest"),
		} {
			dst := filepath.Join(s.dir, name)
			if err := copyFile(a.Path, dst); err != nil {
				return fmt.Errorf("stage %s: %w", name, err)
			}
		}
		s.logger.Info("staged artifact", "locale", a.Locale, "size", a.Size)
	}
	return nil
}

// StagedName builds the published filename for an artifact and a date stamp
// ("20130505" or "latest"): turtlewatch_<locale>_<size>_<stamp>.png.
func StagedName(a domain.Artifact, stamp string) string {
	return fmt.Sprintf("turtlewatch_%s_%s_%s.png", a.Locale, a.Size, stamp)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(dst), ".staging-*")
	if err != nil {
		return err
	}
	defer os.Remove(out.Name())

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// Rename so readers never observe a half-written image.
	return os.Rename(out.Name(), dst)
}
