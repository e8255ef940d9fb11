package types

// ColorMode identifies the pixel layout of a raw frame as reported by
// the device.
const (
	ModeRGB     = "rgb"     // 3 bytes per pixel
	ModeGray    = "gray"    // 1 byte per pixel
	ModeLineart = "lineart" // 1 byte per pixel, 0 or 255
)

// validColorModes is the set of recognized color mode values.
var validColorModes = map[string]bool{
	ModeRGB:     true,
	ModeGray:    true,
	ModeLineart: true,
}

// ValidColorMode reports whether mode is a recognized color mode.
func ValidColorMode(mode string) bool {
	return validColorModes[mode]
}

// Frame is one raw scanned image unit returned by the hardware layer,
// prior to decoding into a Page. Pixel layout depends on Mode;
// BytesPerRow may exceed Width*bytes-per-pixel when the device pads
// rows.
type Frame struct {
	Pixels      []byte // Raw pixel data, row-major.
	Width       int    // Pixels per row.
	Height      int    // Rows.
	BytesPerRow int    // Row stride in bytes.
	Mode        string // One of the Mode constants.
	DPI         int    // Scan resolution; 0 when the device does not report it.
}

// Driver is the entry point of a device capability adapter. One
// implementation exists per transport or vendor; the core depends only
// on this interface.
type Driver interface {
	// Open acquires the device with the given identifier.
	// Returns ErrDeviceNotFound, ErrDeviceBusy, or ErrPermissionDenied.
	Open(deviceID string) (Handle, error)
}

// Handle is an open device session. The capture pipeline owns the
// handle for the duration of a batch; no call is safe from another
// goroutine except Cancel.
type Handle interface {
	// Options returns the device-reported option descriptors.
	Options() ([]Option, error)

	// Configure applies option values before acquisition. Unknown
	// option names are rejected with ErrUnsupportedOption, never
	// silently ignored; values that fail the option's constraint are
	// rejected with ErrInvalidOptionValue.
	Configure(values map[string]any) error

	// BeginAcquisition starts a feeder batch.
	// Returns ErrDeviceBusy or ErrNoDocumentLoaded.
	BeginAcquisition() error

	// ReadFrame blocks until the next physical page has been scanned.
	// Returns ErrEndOfBatch when the feeder is exhausted, ErrCancelled
	// after Cancel, or a device error (ErrDeviceDisconnected,
	// ErrPaperJam, ErrReadTimeout).
	ReadFrame() (*Frame, error)

	// Cancel aborts the batch, best effort. Safe to call at any time
	// from any goroutine, including during a blocking ReadFrame, which
	// then returns ErrCancelled promptly.
	Cancel()

	// Close releases the device.
	Close() error
}
