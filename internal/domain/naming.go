package domain

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// dateLabelLayout renders dates for map annotations, e.g. "09Jan2007".
const dateLabelLayout = "02Jan2006"

// NamingSchema describes the fixed-width filename convention of the grid
// archives. Composite grids carry two YYYYDDD tokens separated by Separator;
// current-vector grids carry one token followed by a component marker. The
// widths are configuration, not inferred from content: a name that does not
// fit the schema is rejected rather than partially parsed.
type NamingSchema struct {
	Prefix    string // leading product code, e.g. "AG"
	YearWidth int    // digits in the year field
	DayWidth  int    // digits in the day-of-year field
	Separator string // between the two window tokens
	Suffix    string // trailing variable/extension, e.g. "_sst.grd"
}

// DefaultCompositeSchema matches the satellite ingest archive,
// e.g. AG2013123_2013125_sst.grd.
func DefaultCompositeSchema() NamingSchema {
	return NamingSchema{
		Prefix:    "AG",
		YearWidth: 4,
		DayWidth:  3,
		Separator: "_",
		Suffix:    "_sst.grd",
	}
}

func (s NamingSchema) tokenWidth() int { return s.YearWidth + s.DayWidth }

// Token formats t as the schema's year+day-of-year form, e.g. "2013125".
func (s NamingSchema) Token(t time.Time) string {
	return fmt.Sprintf("%0*d%0*d", s.YearWidth, t.Year(), s.DayWidth, t.YearDay())
}

// ParseToken converts a YYYYDDD token to a UTC calendar date. The day of year
// must fall within the year's length, so day 365 of a non-leap year is
// December 31 and day 366 is rejected.
func (s NamingSchema) ParseToken(tok string) (time.Time, error) {
	if len(tok) != s.tokenWidth() {
		return time.Time{}, fmt.Errorf("token %q: want %d characters: %w", tok, s.tokenWidth(), ErrMalformedFilename)
	}
	year, err := strconv.Atoi(tok[:s.YearWidth])
	if err != nil {
		return time.Time{}, fmt.Errorf("token %q: year field: %w", tok, ErrMalformedFilename)
	}
	day, err := strconv.Atoi(tok[s.YearWidth:])
	if err != nil {
		return time.Time{}, fmt.Errorf("token %q: day-of-year field: %w", tok, ErrMalformedFilename)
	}
	if day < 1 || day > daysInYear(year) {
		return time.Time{}, fmt.Errorf("token %q: day %d out of range for %d: %w", tok, day, year, ErrMalformedFilename)
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day-1), nil
}

// ParseWindow extracts the composite window (start, end) from a grid path or
// base filename. The window end must be strictly after the start.
func (s NamingSchema) ParseWindow(name string) (start, end time.Time, err error) {
	base := filepath.Base(name)
	w := s.tokenWidth()
	need := len(s.Prefix) + w + len(s.Separator) + w
	if len(base) < need {
		return time.Time{}, time.Time{}, fmt.Errorf("filename %q shorter than schema (%d): %w", base, need, ErrMalformedFilename)
	}
	if !strings.HasPrefix(base, s.Prefix) {
		return time.Time{}, time.Time{}, fmt.Errorf("filename %q: missing prefix %q: %w", base, s.Prefix, ErrMalformedFilename)
	}

	startTok := base[len(s.Prefix) : len(s.Prefix)+w]
	sepAt := len(s.Prefix) + w
	if base[sepAt:sepAt+len(s.Separator)] != s.Separator {
		return time.Time{}, time.Time{}, fmt.Errorf("filename %q: missing separator at offset %d: %w", base, sepAt, ErrMalformedFilename)
	}
	endTok := base[sepAt+len(s.Separator) : need]

	start, err = s.ParseToken(startTok)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("filename %q: window start: %w", base, err)
	}
	end, err = s.ParseToken(endTok)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("filename %q: window end: %w", base, err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("filename %q: window end %s not after start %s: %w",
			base, Label(end), Label(start), ErrMalformedFilename)
	}
	return start, end, nil
}

// Label formats a date for display in map annotations and email subjects.
func Label(t time.Time) string { return t.Format(dateLabelLayout) }

func daysInYear(year int) int {
	if isLeap(year) {
		return 366
	}
	return 365
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
