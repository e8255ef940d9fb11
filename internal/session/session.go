// Package session implements the scan session controller. A Session is
// the single serialization point for everything that mutates session
// state: capture results arriving from the pipeline goroutine, document
// commands issued by a frontend, and exports. Observers never see the
// store directly; they receive immutable snapshots through Subscribe.
package session

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/sheafscan/sheaf/internal/catalog"
	"github.com/sheafscan/sheaf/internal/export"
	"github.com/sheafscan/sheaf/internal/pipeline"
	"github.com/sheafscan/sheaf/internal/store"
	"github.com/sheafscan/sheaf/pkg/types"
)

// Config carries the session's collaborators and parameters.
type Config struct {
	Driver  types.Driver
	Session types.Config
	Logger  zerolog.Logger
}

// docExporter is the slice of the export layer the session drives.
type docExporter interface {
	Export(doc types.Document, pages []types.Page, dest string, opts types.ExportOptions) (string, error)
}

// Session owns the page and document store, the capture sequence
// counter, and at most one running capture pipeline. All methods are
// safe for concurrent use.
type Session struct {
	driver   types.Driver
	logger   zerolog.Logger
	store    *store.Store
	exporter docExporter
	catalog  *catalog.Catalog // nil when the catalog is disabled

	defaultDPI int
	seq        atomic.Uint64

	mu         sync.Mutex
	closed     bool
	state      types.CaptureState
	pipe       *pipeline.Pipeline
	batchID    string
	batchPages int
	snapSubs   map[chan types.Snapshot]struct{}
	eventSubs  map[chan types.Event]struct{}
}

// New builds a Session from the given configuration. The catalog is
// opened when cfg.Session.CatalogDir is set; an unopenable catalog is a
// hard error, since a caller asking for history should not silently go
// without it.
func New(cfg Config) (*Session, error) {
	if cfg.Driver == nil {
		return nil, fmt.Errorf("session: driver is required")
	}
	cfg.Session.Defaults()
	if err := cfg.Session.Validate(); err != nil {
		return nil, err
	}
	paper, err := types.PaperSizeByName(cfg.Session.PaperSize)
	if err != nil {
		return nil, err
	}

	s := &Session{
		driver:     cfg.Driver,
		logger:     cfg.Logger,
		store:      store.New(),
		exporter:   export.New(paper, cfg.Logger),
		defaultDPI: cfg.Session.DefaultDPI,
		state:      types.StateIdle,
		snapSubs:   make(map[chan types.Snapshot]struct{}),
		eventSubs:  make(map[chan types.Event]struct{}),
	}
	if cfg.Session.CatalogDir != "" {
		cat, err := catalog.Open(cfg.Session.CatalogDir)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		s.catalog = cat
	}
	return s, nil
}

// State reports the capture state as last seen by the session.
func (s *Session) State() types.CaptureState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns an immutable view of the current session state.
func (s *Session) Snapshot() types.Snapshot {
	return s.store.Snapshot()
}

// Subscribe registers a snapshot observer. The channel has capacity one
// and always holds the latest snapshot: when the observer lags, stale
// snapshots are replaced, never queued. The returned function
// unregisters the observer and closes the channel.
func (s *Session) Subscribe() (<-chan types.Snapshot, func()) {
	ch := make(chan types.Snapshot, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.snapSubs[ch] = struct{}{}
	ch <- s.store.Snapshot()
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.snapSubs[ch]; ok {
			delete(s.snapSubs, ch)
			close(ch)
		}
	}
}

// SubscribeEvents registers a capture event observer. Events are
// delivered in order; an observer that stops draining its channel loses
// events, which are logged and dropped rather than blocking capture.
func (s *Session) SubscribeEvents() (<-chan types.Event, func()) {
	ch := make(chan types.Event, 64)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.eventSubs[ch] = struct{}{}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.eventSubs[ch]; ok {
			delete(s.eventSubs, ch)
			close(ch)
		}
	}
}

// publishLocked pushes the current snapshot to every snapshot
// subscriber, replacing any stale snapshot still sitting in a channel.
// Callers hold s.mu.
func (s *Session) publishLocked() {
	if len(s.snapSubs) == 0 {
		return
	}
	snap := s.store.Snapshot()
	for ch := range s.snapSubs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// emitLocked delivers an event to every event subscriber. Callers hold
// s.mu.
func (s *Session) emitLocked(ev types.Event) {
	for ch := range s.eventSubs {
		select {
		case ch <- ev:
		default:
			s.logger.Warn().Int("kind", int(ev.Kind)).Msg("event subscriber full, dropping event")
		}
	}
}

// StartCapture opens the named device and begins an acquisition batch.
// It returns ErrCaptureInProgress while a previous batch is still
// running. Pages arrive through the session's snapshot and event
// subscriptions as the device produces them.
func (s *Session) StartCapture(deviceID string, options map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSessionClosed
	}
	if s.state != types.StateIdle {
		return types.ErrCaptureInProgress
	}

	pipe, err := pipeline.New(pipeline.Config{
		Driver:     s.driver,
		DeviceID:   deviceID,
		Options:    options,
		Sink:       sinkAdapter{s},
		NextSeq:    func() uint64 { return s.seq.Add(1) },
		DefaultDPI: s.defaultDPI,
		Logger:     s.logger,
	})
	if err != nil {
		return err
	}

	s.batchID = ""
	s.batchPages = 0
	if s.catalog != nil {
		id, err := s.catalog.BeginBatch(deviceID)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to record batch start")
		} else {
			s.batchID = id
		}
	}

	// Mirror the pipeline's first transition immediately so a second
	// StartCapture racing ahead of the pipeline goroutine is rejected.
	s.state = types.StateConfiguring
	s.pipe = pipe
	if err := pipe.Start(); err != nil {
		s.state = types.StateIdle
		s.pipe = nil
		return err
	}
	return nil
}

// CancelCapture requests cancellation of the running batch. The request
// is acknowledged asynchronously by an EventCancelled event once the
// pipeline has unwound. Returns ErrCaptureIdle when no batch is running.
func (s *Session) CancelCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSessionClosed
	}
	if s.pipe == nil || s.state == types.StateIdle {
		return types.ErrCaptureIdle
	}
	s.pipe.Cancel()
	return nil
}

// finishBatchLocked records the batch outcome in the catalog and clears
// the pipeline reference. Callers hold s.mu.
func (s *Session) finishBatchLocked(outcome string) {
	if s.catalog != nil && s.batchID != "" {
		if err := s.catalog.FinishBatch(s.batchID, outcome, s.batchPages); err != nil {
			s.logger.Error().Err(err).Str("batch_id", s.batchID).Msg("failed to record batch outcome")
		}
	}
	s.batchID = ""
	s.pipe = nil
}

// sinkAdapter forwards pipeline callbacks into the session without
// exposing them on Session's public surface.
type sinkAdapter struct{ s *Session }

func (a sinkAdapter) PageReady(p types.Page) error {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSessionClosed
	}
	if err := s.store.AddPage(p); err != nil {
		return err
	}
	s.batchPages++
	s.publishLocked()
	s.emitLocked(types.Event{Kind: types.EventPageCaptured, PageID: p.PageID})
	return nil
}

func (a sinkAdapter) BatchComplete(pages int) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishBatchLocked(catalog.OutcomeComplete)
	if s.closed {
		return
	}
	s.emitLocked(types.Event{Kind: types.EventBatchComplete, Pages: pages})
}

func (a sinkAdapter) CaptureError(err error) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishBatchLocked(catalog.OutcomeError)
	if s.closed {
		return
	}
	s.emitLocked(types.Event{Kind: types.EventCaptureError, Err: err})
}

func (a sinkAdapter) Cancelled() {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishBatchLocked(catalog.OutcomeCancelled)
	if s.closed {
		return
	}
	s.emitLocked(types.Event{Kind: types.EventCancelled})
}

func (a sinkAdapter) StateChanged(state types.CaptureState) {
	s := a.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	if s.closed {
		return
	}
	s.emitLocked(types.Event{Kind: types.EventStateChanged, State: state})
}

// CreateDocument creates an empty document with the given title.
func (s *Session) CreateDocument(title string) (types.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.Document{}, types.ErrSessionClosed
	}
	doc, err := s.store.CreateDocument(title)
	if err != nil {
		return types.Document{}, err
	}
	s.publishLocked()
	return doc, nil
}

// RenameDocument changes a document's title.
func (s *Session) RenameDocument(docID, title string) error {
	return s.command(func() error { return s.store.RenameDocument(docID, title) })
}

// AssignPages moves pages from the unassigned pool into a document at
// the given position.
func (s *Session) AssignPages(docID string, pageIDs []string, position int) error {
	return s.command(func() error { return s.store.AssignPages(docID, pageIDs, position) })
}

// MovePages moves pages between documents, or back to the unassigned
// pool when toDoc is empty.
func (s *Session) MovePages(fromDoc, toDoc string, pageIDs []string, position int) error {
	return s.command(func() error { return s.store.MovePages(fromDoc, toDoc, pageIDs, position) })
}

// RemovePages detaches pages from their documents. When discard is set
// the pages are deleted outright; otherwise they return to the pool.
func (s *Session) RemovePages(pageIDs []string, discard bool) error {
	return s.command(func() error { return s.store.RemovePages(pageIDs, discard) })
}

// DeleteDocument removes a document. Its pages return to the pool when
// keepPages is set and are deleted otherwise.
func (s *Session) DeleteDocument(docID string, keepPages bool) error {
	return s.command(func() error { return s.store.DeleteDocument(docID, keepPages) })
}

// command runs a store mutation under the session lock and publishes a
// snapshot when it succeeds.
func (s *Session) command(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSessionClosed
	}
	if err := fn(); err != nil {
		return err
	}
	s.publishLocked()
	return nil
}

// ExportDocument writes the document's pages to dest and returns the
// artifact path. The export works from a snapshot taken at call time;
// capture and document commands may continue concurrently without
// affecting the artifact. On success the exported pages are flagged in
// the store and the export is recorded in the catalog.
func (s *Session) ExportDocument(docID, dest string, opts types.ExportOptions) (string, error) {
	if opts.Format == "" {
		opts.Format = types.FormatPDF
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", types.ErrSessionClosed
	}
	snap := s.store.Snapshot()
	s.mu.Unlock()

	doc, ok := snap.Document(docID)
	if !ok {
		return "", types.ErrUnknownDocument
	}
	pages, ok := snap.DocumentPages(docID)
	if !ok {
		return "", types.ErrUnknownDocument
	}

	path, err := s.exporter.Export(doc, pages, dest, opts)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.store.MarkExported(doc.PageRefs)
	if !s.closed {
		s.publishLocked()
	}
	s.mu.Unlock()

	if s.catalog != nil {
		if _, err := s.catalog.RecordExport(doc, path, opts.Format, len(pages)); err != nil {
			s.logger.Error().Err(err).Str("path", path).Msg("failed to record export")
		}
	}
	return path, nil
}

// BatchHistory returns recorded capture batches, newest first. Without
// a catalog it returns nil.
func (s *Session) BatchHistory() ([]types.BatchRecord, error) {
	if s.catalog == nil {
		return nil, nil
	}
	return s.catalog.Batches()
}

// ExportHistory returns recorded exports, newest first. Without a
// catalog it returns nil.
func (s *Session) ExportHistory() ([]types.ExportRecord, error) {
	if s.catalog == nil {
		return nil, nil
	}
	return s.catalog.Exports()
}

// Close cancels any running capture, waits for the pipeline to unwind,
// and releases the session's resources. Subscriptions are closed; later
// calls on the session return ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.ErrSessionClosed
	}
	pipe := s.pipe
	s.mu.Unlock()

	if pipe != nil {
		pipe.Cancel()
		<-pipe.Done()
	}

	s.mu.Lock()
	s.closed = true
	for ch := range s.snapSubs {
		close(ch)
	}
	for ch := range s.eventSubs {
		close(ch)
	}
	s.snapSubs = make(map[chan types.Snapshot]struct{})
	s.eventSubs = make(map[chan types.Event]struct{})
	s.mu.Unlock()

	if s.catalog != nil {
		return s.catalog.Close()
	}
	return nil
}
