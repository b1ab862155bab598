// Package domain models the TurtleWatch sea-surface-temperature map product.
//
// # Data Source
//
// The product is built from a 3-day composite SST grid produced by the
// satellite ingest system, plus a pair of ocean-current vector grids
// (u- and v-components) from the weekly currents archive. Both archives
// drop flat files into data directories; nothing is served over a network.
//
// # Filename Conventions
//
// Composite grids embed their observation window as two fixed-width
// year + day-of-year tokens:
//
//	AG2013123_2013125_sst.grd
//	^ ^       ^
//	| |       window end: 2013, day 125 (05May2013)
//	| window start: 2013, day 123 (03May2013)
//	prefix
//
// The token format is YYYYDDD: a 4-digit year followed by a 3-digit
// day-of-year, zero padded. Current-vector files carry a single token and a
// component marker, e.g. oscar2013125_u.grd / oscar2013125_v.grd. Field
// widths and affixes are described by [NamingSchema] rather than hard-coded
// substring offsets; parsing fails with [ErrMalformedFilename] instead of
// extracting garbage when a name does not match the schema.
//
// # Temperature Units
//
// Grids store temperature on the Fahrenheit scale. Habitat boundaries are
// defined in Celsius and converted with the standard affine transform
// (native = c*9/5 + 32, see [CelsiusToNative]).
//
// # TurtleWatch Zones
//
// Four isotherm threshold bands bound two habitat zones drawn on the map:
//
//	Leatherback: 17.0 C (62.60 native) to 18.5 C (65.30 native)
//	Loggerhead:  22.4 C (72.32 native) to 23.4 C (74.12 native)
//
// Each band is a narrow interval (width 0.02 native units) centered on the
// converted boundary so the external contour-fill operation produces a thin
// closed polygon along the isotherm.
//
// # Map Region
//
// All grid operations are clipped to the published map area: longitude
// 185-225, latitude 20.0-38.0. The region is a constant of this product
// version, not derived from the data.
//
// # Locale Variants
//
// The same map is rendered for English, Vietnamese, and Korean audiences.
// A [Locale] descriptor carries the translated annotation strings, the logo
// asset, and the output filename suffix; the pipeline is parameterized by
// the descriptor rather than duplicated per language.
package domain
