package domain

import "math"

// Product constants for this map version. The region and display constants
// are fixed by the published chart layout; the band half-width keeps each
// isotherm fill a thin closed polygon.
const (
	regionLonMin = 185
	regionLonMax = 225
	regionLatMin = 20.0
	regionLatMax = 38.0

	bandHalfWidth  = 0.01
	colorScaleStep = 3.0

	vectorClipSpeed  = 1.5  // current speed (m/s) above which arrows are suppressed
	vectorArrowScale = 0.15 // arrow length per unit speed
)

// CelsiusToNative converts a Celsius habitat boundary to the grid's native
// Fahrenheit-scaled unit.
func CelsiusToNative(c float64) float64 {
	return c*9/5 + 32
}

// ProductRegion returns the published map area.
func ProductRegion() RegionSpec {
	return RegionSpec{
		LonMin: regionLonMin,
		LonMax: regionLonMax,
		LatMin: regionLatMin,
		LatMax: regionLatMax,
	}
}

// NewThresholdBand builds the native-unit band for a Celsius boundary.
func NewThresholdBand(name string, celsius float64) ThresholdBand {
	native := CelsiusToNative(celsius)
	return ThresholdBand{
		Name:    name,
		Celsius: celsius,
		Low:     native - bandHalfWidth,
		High:    native + bandHalfWidth,
	}
}

// TurtleBands returns the four isotherm bands bounding the leatherback and
// loggerhead habitat zones, in ascending temperature order.
func TurtleBands() []ThresholdBand {
	return []ThresholdBand{
		NewThresholdBand("leatherback-lower", 17.0),
		NewThresholdBand("leatherback-upper", 18.5),
		NewThresholdBand("loggerhead-lower", 22.4),
		NewThresholdBand("loggerhead-upper", 23.4),
	}
}

// RoundScale expands a sampled data extent outward to the fixed shade step.
func RoundScale(dataMin, dataMax float64) ColorScale {
	return ColorScale{
		Min:  math.Floor(dataMin/colorScaleStep) * colorScaleStep,
		Max:  math.Ceil(dataMax/colorScaleStep) * colorScaleStep,
		Step: colorScaleStep,
	}
}

// BuildRenderParameters assembles the renderer contract for one locale from
// the resolved inputs and the externally computed color scale.
func BuildRenderParameters(grid CompositeGrid, currents CurrentVectorPair, scale ColorScale, loc Locale) RenderParameters {
	return RenderParameters{
		Region:           ProductRegion(),
		Bands:            TurtleBands(),
		Scale:            scale,
		VectorClipSpeed:  vectorClipSpeed,
		VectorArrowScale: vectorArrowScale,
		StartLabel:       Label(grid.Start),
		EndLabel:         Label(grid.End),
		Grid:             grid,
		Currents:         currents,
		Locale:           loc,
	}
}
