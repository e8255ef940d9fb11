// Package store implements the in-memory page and document model for a
// scan session. Every operation is atomic with respect to the
// structural invariants: documents only reference pages that exist, no
// page belongs to two documents, and a failed operation leaves the
// store untouched.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sheafscan/sheaf/pkg/types"
)

// Store holds all captured pages and document groupings for one
// session. Safe for concurrent use; mutations are serialized through a
// single mutex and never block on I/O.
type Store struct {
	mu        sync.RWMutex
	pages     map[string]*types.Page
	pageOrder []string                   // page IDs in capture order
	docs      map[string]*types.Document
	docOrder  []string                   // document IDs in creation order
	assigned  map[string]string          // page ID -> owning document ID
}

// New creates an empty store.
func New() *Store {
	return &Store{
		pages:    make(map[string]*types.Page),
		docs:     make(map[string]*types.Document),
		assigned: make(map[string]string),
	}
}

// newUUID generates a UUID v7 string.
func newUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// AddPage adds a captured page to the unassigned pool. The page ID must
// be unique within the session.
func (s *Store) AddPage(p types.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pages[p.PageID]; exists {
		return types.ErrDuplicatePage
	}
	s.pages[p.PageID] = &p
	s.pageOrder = append(s.pageOrder, p.PageID)
	return nil
}

// CreateDocument creates a new empty document and returns a copy of it.
func (s *Store) CreateDocument(title string) (types.Document, error) {
	doc := types.Document{
		DocumentID: newUUID(),
		CreatedAt:  time.Now().UTC(),
	}
	if err := doc.Rename(title); err != nil {
		return types.Document{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.DocumentID] = &doc
	s.docOrder = append(s.docOrder, doc.DocumentID)
	return doc.Clone(), nil
}

// RenameDocument sets a document's title.
func (s *Store) RenameDocument(docID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[docID]
	if !ok {
		return types.ErrUnknownDocument
	}
	return doc.Rename(title)
}

// AssignPages inserts unassigned pages into a document's refs at the
// given position, shifting subsequent entries. Position is clamped to
// the end of the refs; a negative position is rejected. The pages keep
// the order they are passed in.
func (s *Store) AssignPages(docID string, pageIDs []string, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[docID]
	if !ok {
		return types.ErrUnknownDocument
	}
	if err := s.checkPages(pageIDs); err != nil {
		return err
	}
	for _, id := range pageIDs {
		if _, taken := s.assigned[id]; taken {
			return types.ErrPageAlreadyAssigned
		}
	}
	if position < 0 {
		return types.ErrInvalidPosition
	}

	doc.PageRefs = insertRefs(doc.PageRefs, pageIDs, position)
	for _, id := range pageIDs {
		s.assigned[id] = docID
	}
	doc.ModifiedAt = time.Now().UTC()
	return nil
}

// MovePages atomically moves pages between documents, or between a
// document and the unassigned pool. An empty document ID denotes the
// pool. The exclusive-membership invariant holds at every observable
// instant: the whole move commits under one lock or not at all.
// Position applies to the destination document and is ignored when
// moving to the pool, which always stays in capture order.
func (s *Store) MovePages(fromDoc, toDoc string, pageIDs []string, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var src, dst *types.Document
	var ok bool
	if fromDoc != "" {
		if src, ok = s.docs[fromDoc]; !ok {
			return types.ErrUnknownDocument
		}
	}
	if toDoc != "" {
		if dst, ok = s.docs[toDoc]; !ok {
			return types.ErrUnknownDocument
		}
	}
	if err := s.checkPages(pageIDs); err != nil {
		return err
	}
	if position < 0 {
		return types.ErrInvalidPosition
	}

	// Every page must currently live where the caller says it does.
	for _, id := range pageIDs {
		owner, taken := s.assigned[id]
		switch {
		case fromDoc == "" && taken:
			return types.ErrPageAlreadyAssigned
		case fromDoc != "" && (!taken || owner != fromDoc):
			return types.ErrPageNotInDocument
		}
	}

	now := time.Now().UTC()
	moving := make(map[string]bool, len(pageIDs))
	for _, id := range pageIDs {
		moving[id] = true
	}

	if src != nil {
		src.PageRefs = dropRefs(src.PageRefs, moving)
		src.ModifiedAt = now
	}
	if dst != nil {
		// When source and destination are the same document this is a
		// reorder: the refs were already dropped above, so the insert
		// position is relative to the remaining entries.
		dst.PageRefs = insertRefs(dst.PageRefs, pageIDs, position)
		dst.ModifiedAt = now
		for _, id := range pageIDs {
			s.assigned[id] = dst.DocumentID
		}
	} else {
		for _, id := range pageIDs {
			delete(s.assigned, id)
		}
	}
	return nil
}

// RemovePages takes pages out of whatever document references them.
// With discard false the pages return to the unassigned pool; with
// discard true they are deleted from the session permanently.
func (s *Store) RemovePages(pageIDs []string, discard bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPages(pageIDs); err != nil {
		return err
	}

	removing := make(map[string]bool, len(pageIDs))
	for _, id := range pageIDs {
		removing[id] = true
	}

	now := time.Now().UTC()
	touched := make(map[string]bool)
	for _, id := range pageIDs {
		if owner, taken := s.assigned[id]; taken {
			touched[owner] = true
		}
		delete(s.assigned, id)
	}
	for docID := range touched {
		doc := s.docs[docID]
		doc.PageRefs = dropRefs(doc.PageRefs, removing)
		doc.ModifiedAt = now
	}

	if discard {
		for _, id := range pageIDs {
			delete(s.pages, id)
		}
		s.pageOrder = dropRefs(s.pageOrder, removing)
	}
	return nil
}

// DeleteDocument removes a document. With keepPages true its pages
// return to the unassigned pool; otherwise they are deleted with it.
func (s *Store) DeleteDocument(docID string, keepPages bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[docID]
	if !ok {
		return types.ErrUnknownDocument
	}

	refs := make(map[string]bool, len(doc.PageRefs))
	for _, id := range doc.PageRefs {
		refs[id] = true
		delete(s.assigned, id)
	}
	if !keepPages {
		for id := range refs {
			delete(s.pages, id)
		}
		s.pageOrder = dropRefs(s.pageOrder, refs)
	}

	delete(s.docs, docID)
	s.docOrder = dropRefs(s.docOrder, map[string]bool{docID: true})
	return nil
}

// MarkExported flags pages as written to an artifact. Unknown IDs are
// ignored; an export snapshot may reference pages discarded since.
func (s *Store) MarkExported(pageIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range pageIDs {
		if p, ok := s.pages[id]; ok {
			p.Exported = true
		}
	}
}

// Snapshot returns an immutable view of the full store. Pixel buffers
// are shared, not copied; pages are immutable after capture so sharing
// is safe.
func (s *Store) Snapshot() types.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := types.Snapshot{
		TakenAt:   time.Now().UTC(),
		Pages:     make([]types.Page, 0, len(s.pageOrder)),
		Documents: make([]types.Document, 0, len(s.docOrder)),
	}
	for _, id := range s.pageOrder {
		snap.Pages = append(snap.Pages, *s.pages[id])
		if _, taken := s.assigned[id]; !taken {
			snap.Unassigned = append(snap.Unassigned, id)
		}
	}
	for _, id := range s.docOrder {
		snap.Documents = append(snap.Documents, s.docs[id].Clone())
	}
	return snap
}

// checkPages validates a page ID list: non-empty, no duplicates, every
// ID present in the store. Callers hold the lock.
func (s *Store) checkPages(pageIDs []string) error {
	if len(pageIDs) == 0 {
		return types.ErrUnknownPage
	}
	seen := make(map[string]bool, len(pageIDs))
	for _, id := range pageIDs {
		if seen[id] {
			return types.ErrDuplicatePage
		}
		seen[id] = true
		if _, ok := s.pages[id]; !ok {
			return types.ErrUnknownPage
		}
	}
	return nil
}

// insertRefs inserts ids into refs at position, clamped to the end.
func insertRefs(refs, ids []string, position int) []string {
	if position > len(refs) {
		position = len(refs)
	}
	out := make([]string, 0, len(refs)+len(ids))
	out = append(out, refs[:position]...)
	out = append(out, ids...)
	out = append(out, refs[position:]...)
	return out
}

// dropRefs returns refs without the IDs in drop, preserving order.
func dropRefs(refs []string, drop map[string]bool) []string {
	out := refs[:0]
	for _, id := range refs {
		if !drop[id] {
			out = append(out, id)
		}
	}
	return out
}
