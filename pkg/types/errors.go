package types

import "errors"

// Device errors, surfaced by Driver and Handle implementations and
// reported by the capture pipeline as capture events.
var (
	ErrDeviceNotFound     = errors.New("device not found")
	ErrDeviceBusy         = errors.New("device is busy")
	ErrPermissionDenied   = errors.New("permission denied opening device")
	ErrDeviceDisconnected = errors.New("device disconnected")
	ErrPaperJam           = errors.New("paper jam in feeder")
	ErrReadTimeout        = errors.New("timed out reading frame")
	ErrCancelled          = errors.New("acquisition cancelled")
	ErrNoDocumentLoaded   = errors.New("no document loaded in feeder")
	ErrFrameCorrupt       = errors.New("frame data does not match reported geometry")
)

// ErrEndOfBatch is returned by Handle.ReadFrame when the feeder batch is
// exhausted. It marks normal completion, not a fault.
var ErrEndOfBatch = errors.New("end of feeder batch")

// Configuration errors, returned by Handle.Configure.
var (
	ErrUnsupportedOption  = errors.New("option not supported by device")
	ErrInvalidOptionValue = errors.New("invalid option value")
	ErrOptionNotSettable  = errors.New("option cannot be set in software")
)

// Store errors, returned synchronously to command issuers. A failed
// command is a no-op; the store is never left partially mutated.
var (
	ErrUnknownDocument     = errors.New("document not found")
	ErrUnknownPage         = errors.New("page not found")
	ErrPageAlreadyAssigned = errors.New("page already belongs to a document")
	ErrDuplicatePage       = errors.New("duplicate page ID in request")
	ErrPageNotInDocument   = errors.New("page does not belong to the source document")
	ErrInvalidTitle        = errors.New("title must not be empty")
	ErrInvalidPosition     = errors.New("position must not be negative")
)

// Persistence errors. Encoding and I/O failures are wrapped underlying
// errors; these sentinels cover the cases the exporter detects itself.
var (
	ErrEmptyDocument = errors.New("document has no pages")
	ErrUnknownFormat = errors.New("unknown export format")
)

// Session lifecycle errors.
var (
	ErrCaptureInProgress = errors.New("a capture is already in progress")
	ErrCaptureIdle       = errors.New("no capture in progress")
	ErrSessionClosed     = errors.New("session is closed")
)

// Config validation errors.
var (
	ErrUnknownPaperSize = errors.New("unknown paper size")
	ErrInvalidDPI       = errors.New("default DPI must be positive")
)
