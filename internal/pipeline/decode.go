package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sheafscan/sheaf/pkg/types"
)

// decode turns a raw frame into a page: validates the geometry, strips
// row padding, and normalizes gray and lineart data to RGB so every
// page carries the same pixel layout. The page gets its ID and capture
// sequence here, exactly once.
func (p *Pipeline) decode(frame *types.Frame) (types.Page, error) {
	pixels, err := normalize(frame)
	if err != nil {
		return types.Page{}, err
	}

	dpi := frame.DPI
	if dpi <= 0 {
		dpi = p.cfg.DefaultDPI
	}

	return types.Page{
		PageID:     uuid.Must(uuid.NewV7()).String(),
		Seq:        p.cfg.NextSeq(),
		Pixels:     pixels,
		Width:      frame.Width,
		Height:     frame.Height,
		Mode:       types.ModeRGB,
		DPI:        dpi,
		CapturedAt: time.Now().UTC(),
	}, nil
}

// normalize converts frame pixel data to tightly-packed RGB.
func normalize(frame *types.Frame) ([]byte, error) {
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", types.ErrFrameCorrupt, frame.Width, frame.Height)
	}

	var bpp int
	switch frame.Mode {
	case types.ModeRGB:
		bpp = 3
	case types.ModeGray, types.ModeLineart:
		bpp = 1
	default:
		return nil, fmt.Errorf("%w: mode %q", types.ErrFrameCorrupt, frame.Mode)
	}

	stride := frame.BytesPerRow
	if stride == 0 {
		stride = frame.Width * bpp
	}
	if stride < frame.Width*bpp {
		return nil, fmt.Errorf("%w: stride %d below row width %d", types.ErrFrameCorrupt, stride, frame.Width*bpp)
	}
	if len(frame.Pixels) < stride*frame.Height {
		return nil, fmt.Errorf("%w: %d bytes for %d rows of stride %d",
			types.ErrFrameCorrupt, len(frame.Pixels), frame.Height, stride)
	}

	out := make([]byte, 0, frame.Width*frame.Height*3)
	for row := 0; row < frame.Height; row++ {
		line := frame.Pixels[row*stride : row*stride+frame.Width*bpp]
		if bpp == 3 {
			out = append(out, line...)
			continue
		}
		// Single-channel data: repeat each byte across R, G, B.
		for _, v := range line {
			out = append(out, v, v, v)
		}
	}
	return out, nil
}
