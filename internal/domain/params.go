package domain

// ContractVersion is the parameter-schema version this service speaks.
// Any breaking change to the URL contract bumps it; clients declaring a
// different version are rejected, never silently coerced.
const ContractVersion = 2

type FitMode string

const (
	FitCover   FitMode = "cover"
	FitContain FitMode = "contain"
	FitFill    FitMode = "fill"
	FitInside  FitMode = "inside"
)

type OutputFormat string

const (
	FormatJPEG OutputFormat = "jpeg"
	FormatWebP OutputFormat = "webp"
)

type CropMode string

const (
	CropFace     CropMode = "face"
	CropBody     CropMode = "body"
	CropInterest CropMode = "interest"
	CropExplicit CropMode = "explicit"
	CropCenter   CropMode = "center"
)

type BlurMode string

const (
	BlurNone BlurMode = "none"
	BlurEyes BlurMode = "eyes"
	BlurFace BlurMode = "face"
	BlurFull BlurMode = "full"
)

// blurRank encodes the total order none < eyes < face < full used when
// folding the requested mode with the policy floor.
var blurRank = map[BlurMode]int{
	BlurNone: 0,
	BlurEyes: 1,
	BlurFace: 2,
	BlurFull: 3,
}

// StrongerBlur returns the stricter of two blur modes.
func StrongerBlur(a, b BlurMode) BlurMode {
	if blurRank[a] >= blurRank[b] {
		return a
	}
	return b
}

// WeakerThan reports whether m is strictly weaker than other.
func (m BlurMode) WeakerThan(other BlurMode) bool {
	return blurRank[m] < blurRank[other]
}

type RequestContext string

const (
	ContextPublic  RequestContext = "public"
	ContextPrivate RequestContext = "private"
)

type WatermarkKind string

const (
	WatermarkBrand WatermarkKind = "brand"
	WatermarkUser  WatermarkKind = "user"
	WatermarkNone  WatermarkKind = "none"
)

// ImageURLParams is the fully validated, fully populated request entering
// the transform pipeline. Every field is either explicitly supplied and
// within range, or filled from a preset / documented default; nothing is
// ambiguous past the parser.
type ImageURLParams struct {
	Version   int
	Width     int
	Height    int
	Fit       FitMode
	Format    OutputFormat
	Quality   int
	Crop      CropMode
	Blur      BlurMode
	Context   RequestContext
	Watermark WatermarkKind

	// Preset is the sanctioned preset name the request came in under,
	// empty for ad-hoc parameter sets.
	Preset string

	// BlurFloor is the minimum blur contributed by the preset (none for
	// ad-hoc requests). The blur policy folds it into its own floor.
	BlurFloor BlurMode

	// AllowNoWatermark is set by presets sanctioned to serve unwatermarked
	// output (link-preview images).
	AllowNoWatermark bool
}

func (p ImageURLParams) ContentType() string {
	if p.Format == FormatWebP {
		return "image/webp"
	}
	return "image/jpeg"
}
