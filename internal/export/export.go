// Package export writes finalized documents to disk artifacts. An
// export operates on a snapshot taken at call time and runs entirely
// outside the session's mutation path; it holds no lock while encoding
// or writing. Artifacts are written to a temporary location and renamed
// into place, so the destination either holds a complete artifact or
// nothing at all.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sheafscan/sheaf/pkg/types"
)

// validFormats is the set of recognized export formats.
var validFormats = map[string]bool{
	types.FormatPDF:  true,
	types.FormatPNG:  true,
	types.FormatTIFF: true,
}

// defaultBaseName is used when the destination is a directory.
const defaultBaseName = "scan"

// Exporter writes documents to disk. Safe for concurrent use; each
// call is independent.
type Exporter struct {
	paper  types.PaperSize
	logger zerolog.Logger
}

// New creates an Exporter placing page images on the given paper size.
func New(paper types.PaperSize, logger zerolog.Logger) *Exporter {
	return &Exporter{paper: paper, logger: logger}
}

// Export writes the document's pages, in PageRefs order, to dest.
// When dest names an existing directory the artifact is placed inside
// it under a default name. Returns the final artifact path.
func (e *Exporter) Export(doc types.Document, pages []types.Page, dest string, opts types.ExportOptions) (string, error) {
	if opts.Format == "" {
		opts.Format = types.FormatPDF
	}
	if !validFormats[opts.Format] {
		return "", fmt.Errorf("%w: %q", types.ErrUnknownFormat, opts.Format)
	}
	if len(pages) == 0 {
		return "", types.ErrEmptyDocument
	}

	path := resolveDest(dest, opts.Format)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create destination directory: %w", err)
	}

	e.logger.Info().
		Str("document", doc.DocumentID).
		Str("format", opts.Format).
		Int("pages", len(pages)).
		Str("path", path).
		Msg("exporting document")

	var err error
	switch opts.Format {
	case types.FormatPDF:
		err = e.writePDF(doc, pages, path, opts)
	case types.FormatPNG, types.FormatTIFF:
		err = e.writeImageDir(doc, pages, path, opts)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// resolveDest appends a default file name when dest is a directory,
// and normalizes the extension for single-file formats.
func resolveDest(dest, format string) string {
	isDir := strings.HasSuffix(dest, string(os.PathSeparator))
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		isDir = true
	}
	if isDir {
		dest = filepath.Join(dest, defaultBaseName)
	}
	if format == types.FormatPDF && !strings.EqualFold(filepath.Ext(dest), ".pdf") {
		dest += ".pdf"
	}
	return dest
}

// writePDF renders every page to an in-memory image and assembles the
// PDF via a temporary file next to the destination.
func (e *Exporter) writePDF(doc types.Document, pages []types.Page, path string, opts types.ExportOptions) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sheaf-export-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := e.assemblePDF(pages, tmp); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flush artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("finalize artifact: %w", err)
	}

	if opts.Manifest {
		if err := writeManifest(doc, pages, types.FormatPDF, path+".manifest.yaml"); err != nil {
			return err
		}
	}
	return nil
}

// writeImageDir writes one image file per page into a directory,
// staging the whole directory in a temporary location first.
func (e *Exporter) writeImageDir(doc types.Document, pages []types.Page, path string, opts types.ExportOptions) error {
	parent := filepath.Dir(path)
	tmpDir, err := os.MkdirTemp(parent, ".sheaf-export-*")
	if err != nil {
		return fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	for i, p := range pages {
		name := fmt.Sprintf("page-%04d.%s", i+1, opts.Format)
		if err := e.writePageFile(p, filepath.Join(tmpDir, name), opts.Format); err != nil {
			return err
		}
	}
	if opts.Manifest {
		if err := writeManifest(doc, pages, opts.Format, filepath.Join(tmpDir, "manifest.yaml")); err != nil {
			return err
		}
	}

	// An existing artifact at the destination is replaced, matching
	// the single-file rename semantics.
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("replace existing artifact: %w", err)
	}
	if err := os.Rename(tmpDir, path); err != nil {
		return fmt.Errorf("finalize artifact: %w", err)
	}
	return nil
}

func (e *Exporter) writePageFile(p types.Page, path, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create page file: %w", err)
	}
	defer f.Close()

	if err := encodePageTo(f, p, format); err != nil {
		return err
	}
	return f.Close()
}

// encodePageTo writes one page in the given image format.
func encodePageTo(w io.Writer, p types.Page, format string) error {
	img, err := pageImage(p)
	if err != nil {
		return err
	}
	switch format {
	case types.FormatPNG:
		if err := pngEncode(w, img); err != nil {
			return fmt.Errorf("encode page %s: %w", p.PageID, err)
		}
	case types.FormatTIFF:
		if err := tiffEncode(w, img); err != nil {
			return fmt.Errorf("encode page %s: %w", p.PageID, err)
		}
	default:
		return fmt.Errorf("%w: %q", types.ErrUnknownFormat, format)
	}
	return nil
}
