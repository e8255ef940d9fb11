package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/sheafscan/sheaf/pkg/types"
)

// pageImage widens a page's packed RGB pixel buffer into an RGBA
// image the encoders accept.
func pageImage(p types.Page) (image.Image, error) {
	if len(p.Pixels) != p.Width*p.Height*3 {
		return nil, fmt.Errorf("%w: page %s pixel buffer is %d bytes for %dx%d",
			types.ErrFrameCorrupt, p.PageID, len(p.Pixels), p.Width, p.Height)
	}
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	for i := 0; i < p.Width*p.Height; i++ {
		img.Pix[i*4+0] = p.Pixels[i*3+0]
		img.Pix[i*4+1] = p.Pixels[i*3+1]
		img.Pix[i*4+2] = p.Pixels[i*3+2]
		img.Pix[i*4+3] = 0xFF
	}
	return img, nil
}

// encodePNG renders a page to an in-memory PNG.
func encodePNG(p types.Page) (*bytes.Buffer, error) {
	img, err := pageImage(p)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page %s: %w", p.PageID, err)
	}
	return &buf, nil
}
