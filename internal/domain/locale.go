package domain

// Locale describes one language variant of the map product: the annotation
// strings drawn by the renderer, the logo composited over the raster, and the
// suffix distinguishing output filenames. One pipeline run renders every
// locale from the same parameters.
type Locale struct {
	Tag           string // BCP-47-ish short tag used in filenames and events
	Title         string // map title annotation
	CompositeNote string // "3-day composite" annotation
	LogoFile      string // logo asset filename within the assets directory
	Suffix        string // output filename infix, empty for English
}

// The published locale set. English first: its full-size artifact is the one
// attached to status email.
var (
	LocaleEnglish = Locale{
		Tag:           "en",
		Title:         "TurtleWatch Sea Surface Temperature",
		CompositeNote: "3-Day Composite",
		LogoFile:      "logo_en.png",
	}
	LocaleVietnamese = Locale{
		Tag:           "vi",
		Title:         "TurtleWatch Nhiệt độ mặt nước biển",
		CompositeNote: "Ảnh tổng hợp 3 ngày",
		LogoFile:      "logo_vi.png",
		Suffix:        "_vi",
	}
	LocaleKorean = Locale{
		Tag:           "ko",
		Title:         "TurtleWatch 해수면 온도",
		CompositeNote: "3일 합성",
		LogoFile:      "logo_ko.png",
		Suffix:        "_ko",
	}
)

// Locales returns the full locale set in render order.
func Locales() []Locale {
	return []Locale{LocaleEnglish, LocaleVietnamese, LocaleKorean}
}
