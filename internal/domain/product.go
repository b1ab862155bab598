package domain

import "time"

// CompositeGrid is a resolved 3-day composite SST file and its observation
// window as parsed from the filename.
type CompositeGrid struct {
	Path  string
	Start time.Time
	End   time.Time
}

// CurrentVectorPair is the u/v component grid pair for one date. Both files
// exist at resolution time or the pair would not have been produced.
type CurrentVectorPair struct {
	UPath string
	VPath string
	Date  time.Time
}

// RegionSpec is the geographic bounding box constraining all grid operations.
type RegionSpec struct {
	LonMin float64
	LonMax float64
	LatMin float64
	LatMax float64
}

// ThresholdBand is a narrow native-unit interval centered on a Celsius
// habitat boundary, used to fill a thin isotherm polygon.
type ThresholdBand struct {
	Name    string
	Celsius float64
	Low     float64
	High    float64
}

// ColorScale is the shade range for the clipped, converted grid.
type ColorScale struct {
	Min  float64
	Max  float64
	Step float64
}

// RenderParameters is the complete input contract handed to the renderer for
// one locale variant: region, thresholds, scale, vector display constants,
// formatted window labels, and the input file paths.
type RenderParameters struct {
	Region RegionSpec
	Bands  []ThresholdBand
	Scale  ColorScale

	// Vector display: arrows faster than VectorClipSpeed are suppressed,
	// the rest are drawn at VectorArrowScale.
	VectorClipSpeed  float64
	VectorArrowScale float64

	StartLabel string
	EndLabel   string

	Grid     CompositeGrid
	Currents CurrentVectorPair
	Locale   Locale
}

// Artifact sizes produced by the compositor.
const (
	SizeFull      = "full"
	SizeMedium    = "medium"
	SizeThumbnail = "thumbnail"
)

// Artifact is one composited PNG: a locale at a size.
type Artifact struct {
	Locale string
	Size   string
	Path   string
}

// Product is the complete output of one run, handed to the publisher and
// notifiers.
type Product struct {
	Date        time.Time
	WindowStart time.Time
	WindowEnd   time.Time
	Artifacts   []Artifact
}

// Attachment returns the artifact mailed with the status notification: the
// full-size variant of the first (English) locale, if present.
func (p Product) Attachment() (Artifact, bool) {
	for _, a := range p.Artifacts {
		if a.Size == SizeFull && a.Locale == LocaleEnglish.Tag {
			return a, true
		}
	}
	return Artifact{}, false
}
