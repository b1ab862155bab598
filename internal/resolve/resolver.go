// Package resolve locates the input grids for a product run: the 3-day
// composite SST file for today and the nearest available current-vector pair.
package resolve

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/turtlewatch/internal/config"
	"github.com/couchcryptid/turtlewatch/internal/domain"
)

// Resolver finds input grids by date token. "Today" comes from the domain
// clock so tests can freeze it.
type Resolver struct {
	sstDir      string
	currentsDir string
	schema      domain.NamingSchema

	currentsPrefix  string
	currentsUSuffix string
	currentsVSuffix string
	searchDays      int

	logger *slog.Logger
}

// New creates a Resolver from the service configuration.
func New(cfg *config.Config, logger *slog.Logger) *Resolver {
	return &Resolver{
		sstDir:          cfg.SSTDataDir,
		currentsDir:     cfg.CurrentsDataDir,
		schema:          cfg.CompositeSchema(),
		currentsPrefix:  cfg.CurrentsPrefix,
		currentsUSuffix: cfg.CurrentsUSuffix,
		currentsVSuffix: cfg.CurrentsVSuffix,
		searchDays:      cfg.CurrentsSearchDays,
		logger:          logger,
	}
}

// ResolveComposite locates the composite grid. With an explicit name the file
// is resolved against the SST data directory and must exist. Without one, the
// directory is globbed for grids matching the schema and the first (sorted)
// file whose window ends today is selected.
func (r *Resolver) ResolveComposite(explicit string) (domain.CompositeGrid, error) {
	if explicit != "" {
		return r.resolveExplicit(explicit)
	}

	// Glob on prefix and suffix only: a window ending in early January
	// starts in the previous year, so its name carries last year's token.
	today := domain.Today()
	pattern := filepath.Join(r.sstDir, r.schema.Prefix+"*"+r.schema.Suffix)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return domain.CompositeGrid{}, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(matches)

	for _, path := range matches {
		start, end, err := r.schema.ParseWindow(path)
		if err != nil {
			r.logger.Warn("skipping unparseable grid file", "path", path, "error", err)
			continue
		}
		if end.Equal(today) {
			r.logger.Info("resolved composite grid", "path", path,
				"window_start", domain.Label(start), "window_end", domain.Label(end))
			return domain.CompositeGrid{Path: path, Start: start, End: end}, nil
		}
	}
	return domain.CompositeGrid{}, fmt.Errorf("no composite grid for %s under %s: %w",
		r.schema.Token(today), r.sstDir, domain.ErrNoMatchingFile)
}

func (r *Resolver) resolveExplicit(name string) (domain.CompositeGrid, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.sstDir, name)
	}
	if _, err := os.Stat(path); err != nil {
		return domain.CompositeGrid{}, fmt.Errorf("%s: %w", path, domain.ErrFileNotFound)
	}
	start, end, err := r.schema.ParseWindow(path)
	if err != nil {
		return domain.CompositeGrid{}, err
	}
	r.logger.Info("resolved composite grid", "path", path,
		"window_start", domain.Label(start), "window_end", domain.Label(end))
	return domain.CompositeGrid{Path: path, Start: start, End: end}, nil
}

// ResolveCurrents searches backward from today, one day at a time, for a
// u-component grid; the v-component name is derived by substituting the
// component marker and both files must exist. The search is bounded so a
// permanently empty archive fails instead of looping forever.
func (r *Resolver) ResolveCurrents() (domain.CurrentVectorPair, error) {
	today := domain.Today()
	for back := 0; back < r.searchDays; back++ {
		day := today.AddDate(0, 0, -back)
		uPath := filepath.Join(r.currentsDir, r.currentsPrefix+r.schema.Token(day)+r.currentsUSuffix)
		if _, err := os.Stat(uPath); err != nil {
			continue
		}
		vPath := strings.TrimSuffix(uPath, r.currentsUSuffix) + r.currentsVSuffix
		if _, err := os.Stat(vPath); err != nil {
			r.logger.Warn("u-component present but v-component missing, continuing search",
				"u_path", uPath, "v_path", vPath)
			continue
		}
		if back > 0 {
			r.logger.Info("using current vectors from an earlier day", "days_back", back, "date", domain.Label(day))
		}
		return domain.CurrentVectorPair{UPath: uPath, VPath: vPath, Date: day}, nil
	}
	return domain.CurrentVectorPair{}, fmt.Errorf("no current-vector pair within %d days of %s: %w",
		r.searchDays, domain.Label(today), domain.ErrNoMatchingFile)
}
