package export

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sheafscan/sheaf/pkg/types"
)

// manifest is the YAML sidecar describing an exported artifact.
type manifest struct {
	DocumentID string         `yaml:"document_id"`
	Title      string         `yaml:"title"`
	Format     string         `yaml:"format"`
	ExportedAt time.Time      `yaml:"exported_at"`
	Pages      []manifestPage `yaml:"pages"`
}

// manifestPage describes one page, in artifact order.
type manifestPage struct {
	PageID     string    `yaml:"page_id"`
	Seq        uint64    `yaml:"capture_seq"`
	Width      int       `yaml:"width"`
	Height     int       `yaml:"height"`
	DPI        int       `yaml:"dpi"`
	CapturedAt time.Time `yaml:"captured_at"`
}

// writeManifest writes the sidecar for an export. Pages arrive in
// PageRefs order and are listed in that order.
func writeManifest(doc types.Document, pages []types.Page, format, path string) error {
	m := manifest{
		DocumentID: doc.DocumentID,
		Title:      doc.Title,
		Format:     format,
		ExportedAt: time.Now().UTC(),
		Pages:      make([]manifestPage, 0, len(pages)),
	}
	for _, p := range pages {
		m.Pages = append(m.Pages, manifestPage{
			PageID:     p.PageID,
			Seq:        p.Seq,
			Width:      p.Width,
			Height:     p.Height,
			DPI:        p.DPI,
			CapturedAt: p.CapturedAt,
		})
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
