package types

import "time"

// Page is one captured sheet. Created exactly once when the capture
// pipeline finishes decoding a feeder pass; the pixel payload is never
// mutated afterward. Pixels are always RGB regardless of the mode the
// device scanned in; the pipeline normalizes gray and lineart frames
// at decode time.
type Page struct {
	PageID     string    // UUID v7, generated at capture.
	Seq        uint64    // Capture sequence, strictly increasing per session.
	Pixels     []byte    // RGB, 3 bytes per pixel, row-major, no padding.
	Width      int       // Pixels per row.
	Height     int       // Rows.
	Mode       string    // Pixel layout; ModeRGB after decoding.
	DPI        int       // Scan resolution the page was captured at.
	CapturedAt time.Time // Timestamp of capture.
	Exported   bool      // Set once the page has been written to an artifact.
}

// WidthIn and HeightIn return the physical size of the page in inches
// at its scan resolution.
func (p Page) WidthIn() float64  { return float64(p.Width) / float64(p.DPI) }
func (p Page) HeightIn() float64 { return float64(p.Height) / float64(p.DPI) }
