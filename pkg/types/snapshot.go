package types

import "time"

// Snapshot is an immutable, point-in-time view of the session store.
// Observers (a frontend, the exporter) read snapshots without any
// synchronization; a snapshot never changes after it is taken. Page
// pixel slices are shared with the store, which is safe because pages
// are immutable after capture.
type Snapshot struct {
	TakenAt    time.Time
	Pages      []Page     // All captured pages, in capture order.
	Documents  []Document // All documents, in creation order.
	Unassigned []string   // Page IDs not referenced by any document, capture order.
}

// Page returns the page with the given ID.
func (s Snapshot) Page(id string) (Page, bool) {
	for _, p := range s.Pages {
		if p.PageID == id {
			return p, true
		}
	}
	return Page{}, false
}

// Document returns the document with the given ID.
func (s Snapshot) Document(id string) (Document, bool) {
	for _, d := range s.Documents {
		if d.DocumentID == id {
			return d, true
		}
	}
	return Document{}, false
}

// DocumentPages resolves a document's refs to pages, in PageRefs order.
// The second return is false when the document is unknown or any ref
// fails to resolve; the latter indicates a store bug, since referential
// integrity is enforced on every mutation.
func (s Snapshot) DocumentPages(id string) ([]Page, bool) {
	d, ok := s.Document(id)
	if !ok {
		return nil, false
	}
	pages := make([]Page, 0, len(d.PageRefs))
	for _, ref := range d.PageRefs {
		p, ok := s.Page(ref)
		if !ok {
			return nil, false
		}
		pages = append(pages, p)
	}
	return pages, true
}
