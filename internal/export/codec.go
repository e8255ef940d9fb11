package export

import (
	"image"
	"image/png"
	"io"

	"golang.org/x/image/tiff"
)

func pngEncode(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

func tiffEncode(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}
