// Scan command captures a batch and exports it as one document.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sheafscan/sheaf/internal/device"
	"github.com/sheafscan/sheaf/pkg/types"
)

var (
	scanTitle      string
	scanOut        string
	scanFormat     string
	scanManifest   bool
	scanResolution int
	scanMode       string
)

var scanCmd = &cobra.Command{
	Use:   "scan <device>",
	Short: "Capture a batch and export it as one document",
	Long: `Scan captures every page the device produces, groups them into a
single document, and exports an artifact.

The device is a directory of image files acting as a document feeder;
files are fed in name order. Interrupt (Ctrl-C) cancels the batch;
pages captured before an error are still exported.

Example:
  sheaf scan ./inbox --title "Tax receipts" --out receipts.pdf
  sheaf scan ./inbox --format png --out pages/ --manifest`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanTitle, "title", "Scanned document", "document title")
	scanCmd.Flags().StringVar(&scanOut, "out", "scan.pdf", "artifact destination path")
	scanCmd.Flags().StringVar(&scanFormat, "format", types.FormatPDF, "artifact format (pdf, png, tiff)")
	scanCmd.Flags().BoolVar(&scanManifest, "manifest", false, "also write a YAML manifest")
	scanCmd.Flags().IntVar(&scanResolution, "resolution", 0, "scan resolution in DPI (0 = device default)")
	scanCmd.Flags().StringVar(&scanMode, "mode", "", "scan mode (Color, Gray; empty = device default)")
}

func runScan(cmd *cobra.Command, args []string) error {
	options := make(map[string]any)
	if scanResolution != 0 {
		options[device.OptResolution] = scanResolution
	}
	if scanMode != "" {
		options[device.OptMode] = scanMode
	}

	events, stop := sess.SubscribeEvents()
	defer stop()

	if err := sess.StartCapture(args[0], options); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	if err := waitForBatch(events, interrupt); err != nil {
		if len(sess.Snapshot().Pages) == 0 {
			return err
		}
		// Keep what we have.
		logger.Warn().Err(err).Msg("batch ended early, exporting captured pages")
	}

	snap := sess.Snapshot()
	if len(snap.Unassigned) == 0 {
		return errors.New("no pages captured")
	}

	doc, err := sess.CreateDocument(scanTitle)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if err := sess.AssignPages(doc.DocumentID, snap.Unassigned, 0); err != nil {
		return fmt.Errorf("assign pages: %w", err)
	}

	path, err := sess.ExportDocument(doc.DocumentID, scanOut, types.ExportOptions{
		Format:   scanFormat,
		Manifest: scanManifest,
	})
	if err != nil {
		return fmt.Errorf("export document: %w", err)
	}

	if jsonOutput {
		out, err := json.MarshalIndent(map[string]any{
			"document_id": doc.DocumentID,
			"title":       scanTitle,
			"pages":       len(snap.Unassigned),
			"path":        path,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		fmt.Printf("Exported %d page(s) to %s\n", len(snap.Unassigned), path)
	}
	return nil
}

// waitForBatch consumes capture events until the batch ends. An
// interrupt requests cancellation and keeps waiting for the pipeline
// to acknowledge it.
func waitForBatch(events <-chan types.Event, interrupt <-chan os.Signal) error {
	for {
		select {
		case <-interrupt:
			logger.Info().Msg("cancelling capture")
			if err := sess.CancelCapture(); err != nil && !errors.Is(err, types.ErrCaptureIdle) {
				return err
			}
		case ev, ok := <-events:
			if !ok {
				return errors.New("session closed during capture")
			}
			switch ev.Kind {
			case types.EventPageCaptured:
				logger.Info().Str("page_id", ev.PageID).Msg("page captured")
			case types.EventBatchComplete:
				logger.Info().Int("pages", ev.Pages).Msg("batch complete")
				return nil
			case types.EventCancelled:
				return errors.New("capture cancelled")
			case types.EventCaptureError:
				return fmt.Errorf("capture failed: %w", ev.Err)
			}
		}
	}
}
