package device

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	// Decoders for the formats a feeder directory may contain.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/sheafscan/sheaf/pkg/types"
)

// Directory feeder option names.
const (
	OptResolution = "resolution"
	OptMode       = "mode"
)

// Mode option values, mirroring the strings scanner backends report.
const (
	modeColor = "Color"
	modeGray  = "Gray"
)

// imageExts are the file extensions the feeder picks up.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// DirDriver simulates a feeder scanner from a directory of image
// files: each file becomes one frame, in lexical name order. Useful
// for development, demos, and driving the full pipeline in tests
// without hardware.
type DirDriver struct{}

// Open treats deviceID as a directory path.
func (DirDriver) Open(deviceID string) (types.Handle, error) {
	info, err := os.Stat(deviceID)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", types.ErrDeviceNotFound, deviceID)
	}
	return &dirHandle{
		dir:        deviceID,
		resolution: 300,
		mode:       modeColor,
		cancelCh:   make(chan struct{}),
	}, nil
}

type dirHandle struct {
	dir string

	mu         sync.Mutex
	resolution int
	mode       string
	files      []string
	pos        int
	acquiring  bool
	closed     bool

	cancelOnce sync.Once
	cancelCh   chan struct{}
}

func (h *dirHandle) Options() ([]types.Option, error) {
	return []types.Option{
		{
			Name:     OptResolution,
			Title:    "Scan resolution",
			Desc:     "Resolution in dots per inch",
			Type:     types.OptionInt,
			Settable: true,
			Constraint: &types.Constraint{
				Words: []int{75, 150, 300, 600},
			},
		},
		{
			Name:     OptMode,
			Title:    "Scan mode",
			Desc:     "Color mode of the acquired frames",
			Type:     types.OptionString,
			Settable: true,
			Constraint: &types.Constraint{
				Strings: []string{modeColor, modeGray},
			},
		},
	}, nil
}

func (h *dirHandle) Configure(values map[string]any) error {
	opts, _ := h.Options()
	byName := make(map[string]types.Option, len(opts))
	for _, o := range opts {
		byName[o.Name] = o
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.acquiring {
		return types.ErrDeviceBusy
	}

	for name, value := range values {
		opt, ok := byName[name]
		if !ok {
			return fmt.Errorf("%w: %q", types.ErrUnsupportedOption, name)
		}
		if err := opt.CheckValue(value); err != nil {
			return fmt.Errorf("%q: %w", name, err)
		}
		switch name {
		case OptResolution:
			// CheckValue admits any integer kind, so widen rather
			// than assert a concrete one.
			n, _ := types.IntValue(value)
			h.resolution = n
		case OptMode:
			h.mode = value.(string)
		}
	}
	return nil
}

func (h *dirHandle) BeginAcquisition() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.acquiring {
		return types.ErrDeviceBusy
	}

	entries, err := os.ReadDir(h.dir)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrDeviceDisconnected, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(h.dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return types.ErrNoDocumentLoaded
	}
	sort.Strings(files)

	h.files = files
	h.pos = 0
	h.acquiring = true
	return nil
}

func (h *dirHandle) ReadFrame() (*types.Frame, error) {
	select {
	case <-h.cancelCh:
		return nil, types.ErrCancelled
	default:
	}

	h.mu.Lock()
	if !h.acquiring {
		h.mu.Unlock()
		return nil, types.ErrDeviceBusy
	}
	if h.pos >= len(h.files) {
		h.acquiring = false
		h.mu.Unlock()
		return nil, types.ErrEndOfBatch
	}
	path := h.files[h.pos]
	h.pos++
	resolution := h.resolution
	mode := h.mode
	h.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDeviceDisconnected, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrFrameCorrupt, filepath.Base(path), err)
	}

	return frameFromImage(img, mode, resolution), nil
}

func (h *dirHandle) Cancel() {
	h.cancelOnce.Do(func() { close(h.cancelCh) })
}

func (h *dirHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.acquiring = false
	return nil
}

// frameFromImage flattens a decoded image into raw frame data in the
// configured mode.
func frameFromImage(img image.Image, mode string, dpi int) *types.Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if mode == modeGray {
		pixels := make([]byte, 0, w*h)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
				pixels = append(pixels, g.Y)
			}
		}
		return &types.Frame{
			Pixels: pixels, Width: w, Height: h, Mode: types.ModeGray, DPI: dpi,
		}
	}

	pixels := make([]byte, 0, w*h*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			pixels = append(pixels, byte(r>>8), byte(g>>8), byte(bl>>8))
		}
	}
	return &types.Frame{
		Pixels: pixels, Width: w, Height: h, Mode: types.ModeRGB, DPI: dpi,
	}
}
