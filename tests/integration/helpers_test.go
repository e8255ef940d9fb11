// Package integration provides end-to-end tests for scan sessions:
// capture through a directory feeder, document assembly, export, and
// catalog persistence.
package integration

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sheafscan/sheaf/internal/device"
	"github.com/sheafscan/sheaf/pkg/scan"
	"github.com/sheafscan/sheaf/pkg/types"
)

// makeFeeder creates a directory of numbered PNG pages acting as a
// document feeder. Page n is filled with red value 10*n so capture
// order is observable in the frames.
func makeFeeder(t *testing.T, pages int) string {
	t.Helper()
	dir := t.TempDir()
	for i := 1; i <= pages; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		c := color.RGBA{byte(10 * i), 0, 0, 255}
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				img.Set(x, y, c)
			}
		}
		path := filepath.Join(dir, "page"+string(rune('a'+i-1))+".png")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			t.Fatal(err)
		}
		f.Close()
	}
	return dir
}

// setupSession creates a session over the directory feeder driver with
// a catalog in an isolated temp directory.
func setupSession(t *testing.T, catalogDir string) types.Session {
	t.Helper()
	s, err := scan.NewSession(scan.Config{
		Driver:  device.DirDriver{},
		Session: types.Config{CatalogDir: catalogDir},
		Logger:  zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil && !errors.Is(err, types.ErrSessionClosed) {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

// captureBatch runs a capture to completion and fails the test on a
// capture error.
func captureBatch(t *testing.T, s types.Session, deviceDir string, options map[string]any) {
	t.Helper()
	events, stop := s.SubscribeEvents()
	defer stop()

	if err := s.StartCapture(deviceDir, options); err != nil {
		t.Fatalf("StartCapture: %v", err)
	}
	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev := <-events:
			switch ev.Kind {
			case types.EventBatchComplete:
				return
			case types.EventCaptureError:
				t.Fatalf("capture failed: %v", ev.Err)
			case types.EventCancelled:
				t.Fatal("capture unexpectedly cancelled")
			}
		case <-deadline:
			t.Fatal("timed out waiting for batch to complete")
		}
	}
}

// mustCreateDocument creates a document or fails the test.
func mustCreateDocument(t *testing.T, s types.Session, title string) types.Document {
	t.Helper()
	doc, err := s.CreateDocument(title)
	if err != nil {
		t.Fatalf("CreateDocument(%q): %v", title, err)
	}
	return doc
}
