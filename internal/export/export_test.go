package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/sheafscan/sheaf/pkg/types"
)

func testExporter() *Exporter {
	return New(types.PaperLetter, zerolog.Nop())
}

func exportPage(id string, seq uint64, w, h int) types.Page {
	px := make([]byte, w*h*3)
	for i := range px {
		px[i] = byte(seq)
	}
	return types.Page{
		PageID:     id,
		Seq:        seq,
		Pixels:     px,
		Width:      w,
		Height:     h,
		Mode:       types.ModeRGB,
		DPI:        300,
		CapturedAt: time.Now().UTC(),
	}
}

func exportDoc(refs ...string) types.Document {
	return types.Document{
		DocumentID: "doc-1",
		Title:      "Invoice",
		PageRefs:   refs,
		CreatedAt:  time.Now().UTC(),
	}
}

// checkNoTempFiles verifies no staging leftovers remain in dir.
func checkNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".sheaf-export-") {
			t.Errorf("staging leftover %s", e.Name())
		}
	}
}

func TestExportEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	_, err := testExporter().Export(exportDoc(), nil, filepath.Join(dir, "out.pdf"), types.ExportOptions{})
	if !errors.Is(err, types.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out.pdf")); !os.IsNotExist(err) {
		t.Error("no artifact may exist after a failed export")
	}
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := testExporter().Export(exportDoc("p1"), []types.Page{exportPage("p1", 1, 2, 2)},
		filepath.Join(t.TempDir(), "out"), types.ExportOptions{Format: "bmp"})
	if !errors.Is(err, types.ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestExportPDF(t *testing.T) {
	dir := t.TempDir()
	pages := []types.Page{exportPage("p1", 1, 4, 6), exportPage("p2", 2, 4, 6)}

	path, err := testExporter().Export(exportDoc("p1", "p2"), pages,
		filepath.Join(dir, "invoice.pdf"), types.ExportOptions{Format: types.FormatPDF, Manifest: true})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Error("artifact is not a PDF")
	}
	if _, err := os.Stat(path + ".manifest.yaml"); err != nil {
		t.Errorf("manifest sidecar missing: %v", err)
	}
	checkNoTempFiles(t, dir)
}

func TestExportPDFDefaultName(t *testing.T) {
	dir := t.TempDir()
	path, err := testExporter().Export(exportDoc("p1"), []types.Page{exportPage("p1", 1, 2, 2)},
		dir, types.ExportOptions{})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if filepath.Base(path) != "scan.pdf" {
		t.Errorf("default artifact name = %s, want scan.pdf", filepath.Base(path))
	}
}

func TestExportPNGDirectory(t *testing.T) {
	dir := t.TempDir()
	pages := []types.Page{exportPage("p2", 2, 3, 3), exportPage("p1", 1, 3, 3)}

	path, err := testExporter().Export(exportDoc("p2", "p1"), pages,
		filepath.Join(dir, "invoice"), types.ExportOptions{Format: types.FormatPNG, Manifest: true})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	for _, name := range []string{"page-0001.png", "page-0002.png", "manifest.yaml"} {
		if _, err := os.Stat(filepath.Join(path, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	// Manifest lists pages in PageRefs order, not capture order.
	data, err := os.ReadFile(filepath.Join(path, "manifest.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatalf("manifest does not parse: %v", err)
	}
	if len(m.Pages) != 2 || m.Pages[0].PageID != "p2" || m.Pages[1].PageID != "p1" {
		t.Errorf("manifest order wrong: %+v", m.Pages)
	}
	if m.Title != "Invoice" {
		t.Errorf("manifest title = %q", m.Title)
	}
	checkNoTempFiles(t, dir)
}

func TestExportTIFFDirectory(t *testing.T) {
	dir := t.TempDir()
	path, err := testExporter().Export(exportDoc("p1"), []types.Page{exportPage("p1", 1, 3, 3)},
		filepath.Join(dir, "out"), types.ExportOptions{Format: types.FormatTIFF})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(path, "page-0001.tiff")); err != nil {
		t.Errorf("missing tiff page: %v", err)
	}
}

func TestExportCorruptPageLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	bad := exportPage("p1", 1, 4, 4)
	bad.Pixels = bad.Pixels[:5] // Truncated buffer.

	_, err := testExporter().Export(exportDoc("p1"), []types.Page{bad},
		filepath.Join(dir, "out.pdf"), types.ExportOptions{})
	if err == nil {
		t.Fatal("expected an encoding error")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "out.pdf")); !os.IsNotExist(statErr) {
		t.Error("no artifact may exist after an encoding failure")
	}
	checkNoTempFiles(t, dir)
}

func TestExportReplacesExistingArtifact(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out")

	for i := 0; i < 2; i++ {
		if _, err := testExporter().Export(exportDoc("p1"), []types.Page{exportPage("p1", 1, 2, 2)},
			dest, types.ExportOptions{Format: types.FormatPNG}); err != nil {
			t.Fatalf("export %d failed: %v", i, err)
		}
	}
	checkNoTempFiles(t, dir)
}
