// Package pipeline implements the capture worker. One pipeline drives
// one feeder batch: it owns the device handle, runs the blocking
// scan-to-completion loop on its own goroutine, and hands each decoded
// page to its sink in capture order. All blocking device calls are
// confined here; nothing else in the session ever blocks on hardware.
package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sheafscan/sheaf/pkg/types"
)

// Sink receives pipeline events. PageReady is synchronous: the pipeline
// does not read the next frame until the call returns, which bounds
// buffering to a single in-flight frame beyond the store's pages.
// Implementations must not block on I/O.
type Sink interface {
	// PageReady delivers one decoded page. A non-nil error aborts the
	// batch and is reported through CaptureError.
	PageReady(p types.Page) error

	// BatchComplete reports normal end of batch with the page count.
	BatchComplete(pages int)

	// CaptureError reports an aborted batch. Pages already delivered
	// remain valid; the pipeline is back at idle when this fires.
	CaptureError(err error)

	// Cancelled acknowledges a cancel request; the device has stopped.
	Cancelled()

	// StateChanged mirrors every pipeline state transition.
	StateChanged(s types.CaptureState)
}

// Config holds everything a pipeline run needs. Driver, DeviceID, Sink,
// and NextSeq are required.
type Config struct {
	Driver   types.Driver
	DeviceID string
	Options  map[string]any // Applied before acquisition; may be nil.
	Sink     Sink
	NextSeq  func() uint64 // Session-owned capture sequence counter.

	// DefaultDPI is assumed for frames whose device reports no
	// resolution.
	DefaultDPI int

	Logger zerolog.Logger
}

// Pipeline is a single-use capture worker. Start may be called once;
// a new batch needs a new Pipeline.
type Pipeline struct {
	cfg Config

	mu        sync.Mutex
	state     types.CaptureState
	handle    types.Handle // Non-nil while the device session is open.
	cancelled bool
	started   bool
	finished  bool

	done chan struct{}
}

// New validates the config and creates an idle pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Driver == nil {
		return nil, fmt.Errorf("pipeline: driver is required")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("pipeline: sink is required")
	}
	if cfg.NextSeq == nil {
		return nil, fmt.Errorf("pipeline: sequence source is required")
	}
	if cfg.DefaultDPI <= 0 {
		cfg.DefaultDPI = 300
	}
	return &Pipeline{
		cfg:  cfg,
		done: make(chan struct{}),
	}, nil
}

// State returns the current pipeline state.
func (p *Pipeline) State() types.CaptureState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Done is closed when the worker goroutine has fully unwound and the
// device handle is released.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

// Start launches the capture worker. Returns ErrCaptureInProgress if
// the pipeline was already started.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return types.ErrCaptureInProgress
	}
	p.started = true
	p.mu.Unlock()

	go p.run()
	return nil
}

// Cancel requests a cancel, best effort and asynchronous. The caller
// must not assume the device has stopped until the sink observes
// Cancelled. Safe to call at any time, from any goroutine.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	// No-op once cancelled, or once the worker has already unwound.
	if p.cancelled || p.finished {
		return
	}
	p.cancelled = true
	if p.handle != nil {
		// Unblocks an in-flight ReadFrame.
		p.handle.Cancel()
	}
}

// run is the worker goroutine: open, configure, acquire, drain.
func (p *Pipeline) run() {
	defer func() {
		p.mu.Lock()
		p.finished = true
		p.mu.Unlock()
		close(p.done)
	}()

	p.transition(types.StateConfiguring)

	handle, err := p.cfg.Driver.Open(p.cfg.DeviceID)
	if err != nil {
		p.fail(fmt.Errorf("open %s: %w", p.cfg.DeviceID, err))
		return
	}

	p.mu.Lock()
	p.handle = handle
	cancelled := p.cancelled
	p.mu.Unlock()
	if cancelled {
		p.unwindCancelled(handle)
		return
	}

	if len(p.cfg.Options) > 0 {
		if err := handle.Configure(p.cfg.Options); err != nil {
			p.closeHandle(handle)
			p.fail(fmt.Errorf("configure: %w", err))
			return
		}
	}

	if err := handle.BeginAcquisition(); err != nil {
		p.closeHandle(handle)
		p.fail(fmt.Errorf("begin acquisition: %w", err))
		return
	}

	p.transition(types.StateAcquiring)
	p.cfg.Logger.Debug().Str("device", p.cfg.DeviceID).Msg("acquiring")

	pages := 0
	for {
		frame, err := handle.ReadFrame()
		switch {
		case errors.Is(err, types.ErrEndOfBatch):
			p.transition(types.StateDraining)
			p.closeHandle(handle)
			p.transition(types.StateIdle)
			p.cfg.Logger.Info().Int("pages", pages).Msg("batch complete")
			p.cfg.Sink.BatchComplete(pages)
			return
		case errors.Is(err, types.ErrCancelled):
			p.unwindCancelled(handle)
			return
		case err != nil:
			p.closeHandle(handle)
			p.fail(fmt.Errorf("read frame: %w", err))
			return
		}

		// A cancel that raced the read wins: the frame is discarded
		// and never becomes a visible page.
		if p.isCancelled() {
			p.unwindCancelled(handle)
			return
		}

		page, err := p.decode(frame)
		if err != nil {
			p.closeHandle(handle)
			p.fail(err)
			return
		}

		if err := p.cfg.Sink.PageReady(page); err != nil {
			p.closeHandle(handle)
			p.fail(fmt.Errorf("deliver page: %w", err))
			return
		}
		pages++
	}
}

func (p *Pipeline) isCancelled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

// unwindCancelled closes the device and acknowledges the cancel.
func (p *Pipeline) unwindCancelled(handle types.Handle) {
	p.transition(types.StateCancelling)
	p.closeHandle(handle)
	p.transition(types.StateIdle)
	p.cfg.Logger.Info().Msg("capture cancelled")
	p.cfg.Sink.Cancelled()
}

// fail returns the pipeline to idle and reports the error. The session
// is never left in an ambiguous state: by the time the sink sees the
// error, the device is released.
func (p *Pipeline) fail(err error) {
	p.transition(types.StateIdle)
	p.cfg.Logger.Warn().Err(err).Msg("capture failed")
	p.cfg.Sink.CaptureError(err)
}

func (p *Pipeline) closeHandle(handle types.Handle) {
	if err := handle.Close(); err != nil {
		p.cfg.Logger.Warn().Err(err).Msg("closing device handle")
	}
	p.mu.Lock()
	p.handle = nil
	p.mu.Unlock()
}

// transition moves to the next state, tolerating the shortcuts error
// paths take (any state may fall back to idle on failure).
func (p *Pipeline) transition(next types.CaptureState) {
	p.mu.Lock()
	if err := p.state.ValidateTransitionTo(next); err != nil && next != types.StateIdle {
		// Only reachable through a pipeline bug; keep going rather
		// than wedge the session.
		p.cfg.Logger.Error().Err(err).Msg("forcing capture state transition")
	}
	p.state = next
	p.mu.Unlock()

	p.cfg.Sink.StateChanged(next)
}
