package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/sheafscan/sheaf/pkg/types"
)

func TestBatchLifecycle(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer c.Close()

	id, err := c.BeginBatch("net:scanner0")
	if err != nil {
		t.Fatalf("BeginBatch failed: %v", err)
	}

	batches, err := c.Batches()
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	if batches[0].Outcome != OutcomeRunning || batches[0].FinishedAt != nil {
		t.Errorf("fresh batch should be running, got %+v", batches[0])
	}

	if err := c.FinishBatch(id, OutcomeComplete, 5); err != nil {
		t.Fatalf("FinishBatch failed: %v", err)
	}
	batches, _ = c.Batches()
	if batches[0].Outcome != OutcomeComplete || batches[0].Pages != 5 {
		t.Errorf("finished batch wrong: %+v", batches[0])
	}
	if batches[0].FinishedAt == nil {
		t.Error("FinishedAt should be set")
	}

	if err := c.FinishBatch("missing", OutcomeError, 0); err == nil {
		t.Error("finishing an unknown batch should fail")
	}
}

func TestExportHistory(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	doc := types.Document{DocumentID: "d1", Title: "Invoice", CreatedAt: time.Now().UTC()}
	if _, err := c.RecordExport(doc, "/tmp/scan.pdf", "pdf", 3); err != nil {
		t.Fatalf("RecordExport failed: %v", err)
	}

	exports, err := c.Exports()
	if err != nil {
		t.Fatal(err)
	}
	if len(exports) != 1 {
		t.Fatalf("expected 1 export, got %d", len(exports))
	}
	e := exports[0]
	if e.DocumentID != "d1" || e.Title != "Invoice" || e.Format != "pdf" || e.Pages != 3 {
		t.Errorf("export record wrong: %+v", e)
	}
}

func TestBatchesNewestFirst(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	// Recorded in rapid succession; ordering must hold regardless of
	// how the start timestamps render as text.
	var ids []string
	for i := 0; i < 3; i++ {
		id, err := c.BeginBatch("dev0")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	batches, err := c.Batches()
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	for i, b := range batches {
		if b.BatchID != ids[len(ids)-1-i] {
			t.Errorf("batch %d = %s, want %s", i, b.BatchID, ids[len(ids)-1-i])
		}
	}
}

func TestReopenPreservesRecords(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	id, _ := c.BeginBatch("dev0")
	c.FinishBatch(id, OutcomeCancelled, 2)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	c, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer c.Close()

	batches, err := c.Batches()
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 || batches[0].Outcome != OutcomeCancelled {
		t.Errorf("records lost across reopen: %+v", batches)
	}
}

func TestClosedCatalog(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	// Idempotent.
	if err := c.Close(); err != nil {
		t.Errorf("second Close should not error, got %v", err)
	}

	if _, err := c.BeginBatch("dev0"); !errors.Is(err, types.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
	if _, err := c.Batches(); !errors.Is(err, types.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}
