package types

// PaperSize holds the physical page geometry used when placing scanned
// images on export artifacts.
type PaperSize struct {
	Name     string
	WidthMM  float64
	HeightMM float64
}

// Supported paper sizes.
var (
	PaperLetter = PaperSize{Name: "letter", WidthMM: 215.9, HeightMM: 279.4}
	PaperA4     = PaperSize{Name: "a4", WidthMM: 210, HeightMM: 297}
)

// paperSizes maps recognized names to geometries.
var paperSizes = map[string]PaperSize{
	PaperLetter.Name: PaperLetter,
	PaperA4.Name:     PaperA4,
}

// PaperSizeByName returns the geometry for a recognized paper size name.
// Returns ErrUnknownPaperSize otherwise.
func PaperSizeByName(name string) (PaperSize, error) {
	p, ok := paperSizes[name]
	if !ok {
		return PaperSize{}, ErrUnknownPaperSize
	}
	return p, nil
}

// WidthIn and HeightIn return the geometry in inches, the unit scan
// resolutions are expressed in.
func (p PaperSize) WidthIn() float64  { return p.WidthMM / 25.4 }
func (p PaperSize) HeightIn() float64 { return p.HeightMM / 25.4 }
