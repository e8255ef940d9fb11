package types

import "time"

// Export formats.
const (
	FormatPDF  = "pdf"  // One PDF, one page image per PDF page.
	FormatPNG  = "png"  // Directory of numbered PNG files.
	FormatTIFF = "tiff" // Directory of numbered TIFF files.
)

// ExportOptions select the artifact shape for one export call.
type ExportOptions struct {
	Format   string // One of the Format constants; FormatPDF when empty.
	Manifest bool   // Also write a YAML manifest describing the pages.
}

// EventKind discriminates capture events delivered to event subscribers.
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventPageCaptured
	EventBatchComplete
	EventCaptureError
	EventCancelled
)

// Event is a capture lifecycle notification. Snapshots carry the full
// session state; events carry the things a snapshot cannot, such as a
// cancellation acknowledgment or the error that ended a batch.
type Event struct {
	Kind   EventKind
	State  CaptureState // EventStateChanged
	PageID string       // EventPageCaptured
	Pages  int          // EventBatchComplete
	Err    error        // EventCaptureError
}

// BatchRecord is one capture run in the session catalog.
type BatchRecord struct {
	BatchID    string
	DeviceID   string
	StartedAt  time.Time
	FinishedAt *time.Time // nil while the batch is still running
	Outcome    string
	Pages      int
}

// ExportRecord is one written artifact in the session catalog.
type ExportRecord struct {
	ExportID   string
	DocumentID string
	Title      string
	Path       string
	Format     string
	Pages      int
	ExportedAt time.Time
}

// Session is a scan session: the single owner of captured pages,
// documents, and the capture pipeline. Implementations are safe for
// concurrent use. Methods on a closed session return ErrSessionClosed.
type Session interface {
	// StartCapture opens the named device and begins an acquisition
	// batch. Returns ErrCaptureInProgress while a batch is running.
	StartCapture(deviceID string, options map[string]any) error
	// CancelCapture requests cancellation of the running batch; the
	// request is acknowledged asynchronously by an EventCancelled
	// event. Returns ErrCaptureIdle when no batch is running.
	CancelCapture() error
	// State reports the current capture state.
	State() CaptureState
	// Snapshot returns an immutable view of the session's pages and
	// documents.
	Snapshot() Snapshot
	// Subscribe registers a snapshot observer. The channel always
	// holds the latest snapshot; stale snapshots are replaced, never
	// queued. The returned function unregisters the observer.
	Subscribe() (<-chan Snapshot, func())
	// SubscribeEvents registers a capture event observer.
	SubscribeEvents() (<-chan Event, func())

	// CreateDocument creates an empty document with the given title.
	CreateDocument(title string) (Document, error)
	// RenameDocument changes a document's title.
	RenameDocument(docID, title string) error
	// AssignPages moves pages from the unassigned pool into a
	// document at the given position.
	AssignPages(docID string, pageIDs []string, position int) error
	// MovePages moves pages between documents, or back to the pool
	// when toDoc is empty.
	MovePages(fromDoc, toDoc string, pageIDs []string, position int) error
	// RemovePages detaches pages from their documents. Discarded
	// pages are deleted; the rest return to the pool.
	RemovePages(pageIDs []string, discard bool) error
	// DeleteDocument removes a document, keeping or discarding its
	// pages.
	DeleteDocument(docID string, keepPages bool) error

	// ExportDocument writes the document's pages to dest and returns
	// the artifact path.
	ExportDocument(docID, dest string, opts ExportOptions) (string, error)
	// BatchHistory returns recorded capture batches, newest first.
	BatchHistory() ([]BatchRecord, error)
	// ExportHistory returns recorded exports, newest first.
	ExportHistory() ([]ExportRecord, error)

	// Close cancels any running capture and releases resources.
	Close() error
}
