package integration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/sheafscan/sheaf/pkg/types"
)

// TestScanAssembleExport walks the whole session flow: capture a batch
// from the feeder, split the pages across two documents, reorder, and
// export both a PDF and a PNG directory.
func TestScanAssembleExport(t *testing.T) {
	feeder := makeFeeder(t, 4)
	s := setupSession(t, "")

	captureBatch(t, s, feeder, nil)

	snap := s.Snapshot()
	if len(snap.Pages) != 4 {
		t.Fatalf("captured %d pages, want 4", len(snap.Pages))
	}
	if len(snap.Unassigned) != 4 {
		t.Fatalf("%d unassigned pages, want 4", len(snap.Unassigned))
	}

	invoices := mustCreateDocument(t, s, "Invoices")
	receipts := mustCreateDocument(t, s, "Receipts")

	if err := s.AssignPages(invoices.DocumentID, snap.Unassigned[:2], 0); err != nil {
		t.Fatalf("AssignPages invoices: %v", err)
	}
	if err := s.AssignPages(receipts.DocumentID, snap.Unassigned[2:], 0); err != nil {
		t.Fatalf("AssignPages receipts: %v", err)
	}

	// Move the first invoice page to the front of receipts.
	moved := snap.Unassigned[0]
	if err := s.MovePages(invoices.DocumentID, receipts.DocumentID, []string{moved}, 0); err != nil {
		t.Fatalf("MovePages: %v", err)
	}

	snap = s.Snapshot()
	inv, _ := snap.Document(invoices.DocumentID)
	rec, _ := snap.Document(receipts.DocumentID)
	if len(inv.PageRefs) != 1 || len(rec.PageRefs) != 3 {
		t.Fatalf("unexpected split: invoices=%d receipts=%d", len(inv.PageRefs), len(rec.PageRefs))
	}
	if rec.PageRefs[0] != moved {
		t.Errorf("moved page should lead receipts")
	}

	outDir := t.TempDir()
	pdfPath, err := s.ExportDocument(receipts.DocumentID, filepath.Join(outDir, "receipts.pdf"), types.ExportOptions{Format: types.FormatPDF})
	if err != nil {
		t.Fatalf("export PDF: %v", err)
	}
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("artifact is not a PDF")
	}

	pngPath, err := s.ExportDocument(invoices.DocumentID, filepath.Join(outDir, "invoices"), types.ExportOptions{Format: types.FormatPNG, Manifest: true})
	if err != nil {
		t.Fatalf("export PNG: %v", err)
	}
	entries, err := os.ReadDir(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if len(names) != 2 { // one page plus the manifest
		t.Fatalf("PNG export produced %v", names)
	}

	var m struct {
		Title string `yaml:"title"`
		Pages []struct {
			PageID string `yaml:"page_id"`
		} `yaml:"pages"`
	}
	raw, err := os.ReadFile(filepath.Join(pngPath, "manifest.yaml"))
	if err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
	if err := yaml.Unmarshal(raw, &m); err != nil {
		t.Fatalf("manifest does not parse: %v", err)
	}
	if m.Title != "Invoices" || len(m.Pages) != 1 {
		t.Errorf("unexpected manifest: %+v", m)
	}

	// Exported pages are flagged in later snapshots.
	snap = s.Snapshot()
	for _, ref := range rec.PageRefs {
		p, ok := snap.Page(ref)
		if !ok || !p.Exported {
			t.Errorf("page %s not flagged as exported", ref)
		}
	}
}

// TestCaptureWithDeviceOptions configures the feeder before capture and
// checks the options show up in the captured pages.
func TestCaptureWithDeviceOptions(t *testing.T) {
	feeder := makeFeeder(t, 2)
	s := setupSession(t, "")

	captureBatch(t, s, feeder, map[string]any{"resolution": 600, "mode": "Gray"})

	snap := s.Snapshot()
	if len(snap.Pages) != 2 {
		t.Fatalf("captured %d pages, want 2", len(snap.Pages))
	}
	for _, p := range snap.Pages {
		if p.DPI != 600 {
			t.Errorf("page DPI = %d, want 600", p.DPI)
		}
		// Gray frames are widened to RGB during decode.
		if p.Mode != types.ModeRGB {
			t.Errorf("page mode = %s, want rgb", p.Mode)
		}
		if len(p.Pixels) != p.Width*p.Height*3 {
			t.Errorf("page pixels not RGB sized: %d", len(p.Pixels))
		}
	}
}

// TestCatalogSurvivesSessions runs a batch and an export in one
// session, then reads the history back from a second session over the
// same catalog directory.
func TestCatalogSurvivesSessions(t *testing.T) {
	feeder := makeFeeder(t, 2)
	catalogDir := t.TempDir()

	s := setupSession(t, catalogDir)
	captureBatch(t, s, feeder, nil)

	doc := mustCreateDocument(t, s, "Archive")
	if err := s.AssignPages(doc.DocumentID, s.Snapshot().Unassigned, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ExportDocument(doc.DocumentID, filepath.Join(t.TempDir(), "archive.pdf"), types.ExportOptions{Format: types.FormatPDF}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2 := setupSession(t, catalogDir)
	batches, err := s2.BatchHistory()
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 || batches[0].Outcome != "complete" || batches[0].Pages != 2 {
		t.Fatalf("unexpected batch history: %+v", batches)
	}
	exports, err := s2.ExportHistory()
	if err != nil {
		t.Fatal(err)
	}
	if len(exports) != 1 || exports[0].Title != "Archive" || exports[0].Pages != 2 {
		t.Fatalf("unexpected export history: %+v", exports)
	}
}
