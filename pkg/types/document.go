package types

import (
	"strings"
	"time"
)

// Document is an ordered grouping of page references. PageRefs order is
// user-significant and independent of capture order. A page belongs to
// at most one document at a time; the store enforces that, along with
// referential integrity, on every mutation.
type Document struct {
	DocumentID string    // UUID v7, generated on creation.
	Title      string    // Human-readable title.
	PageRefs   []string  // Page IDs in user-chosen order, no duplicates.
	CreatedAt  time.Time // Timestamp of creation.
	ModifiedAt time.Time // Timestamp of last title or PageRefs change.
}

// Rename sets the document title. Returns ErrInvalidTitle when the
// title is empty or whitespace.
func (d *Document) Rename(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrInvalidTitle
	}
	d.Title = title
	d.ModifiedAt = time.Now().UTC()
	return nil
}

// Contains reports whether the document references the given page.
func (d *Document) Contains(pageID string) bool {
	for _, ref := range d.PageRefs {
		if ref == pageID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the document. Page pixel data is not
// involved; only the refs slice needs copying.
func (d *Document) Clone() Document {
	out := *d
	out.PageRefs = append([]string(nil), d.PageRefs...)
	return out
}
