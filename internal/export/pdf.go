package export

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/sheafscan/sheaf/pkg/types"
)

// paperForms maps our paper size names onto pdfcpu form size names.
var paperForms = map[string]string{
	types.PaperLetter.Name: "Letter",
	types.PaperA4.Name:     "A4",
}

// assemblePDF renders pages to in-memory PNGs and imports them onto
// fixed-size PDF pages, one scanned sheet per PDF page, scaled to the
// paper geometry.
func (e *Exporter) assemblePDF(pages []types.Page, w io.Writer) error {
	form, ok := paperForms[e.paper.Name]
	if !ok {
		return fmt.Errorf("%w: no PDF form size for paper %q", types.ErrUnknownPaperSize, e.paper.Name)
	}

	imgs := make([]io.Reader, 0, len(pages))
	for _, p := range pages {
		buf, err := encodePNG(p)
		if err != nil {
			return err
		}
		imgs = append(imgs, buf)
	}

	imp, err := pdfcpu.ParseImportDetails(
		fmt.Sprintf("formsize:%s, pos:c, scalefactor:1.0 rel", form), pdftypes.POINTS)
	if err != nil {
		return fmt.Errorf("pdf import setup: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ImportImages(nil, w, imgs, imp, conf); err != nil {
		return fmt.Errorf("assemble pdf: %w", err)
	}
	return nil
}
