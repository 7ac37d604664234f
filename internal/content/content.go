// Package content implements the lifecycle, slug, and mutation rules shared
// by every publishable content kind. The rules operate purely on the Item
// capability interface so projects and blog posts share one implementation
// instead of duplicating it per entity type.
package content

import "time"

type Kind string

const (
	KindProject Kind = "project"
	KindPost    Kind = "post"
)

// Item is the capability surface a publishable content type exposes to the
// shared slug, lifecycle, and policy rules.
type Item interface {
	ItemID() string
	OwnerID() string
	ItemTitle() string

	CurrentSlug() string
	SetSlug(slug string)

	IsPublished() bool
	SetPublished(published bool)
	// FirstPublishedAt is the timestamp of the first ever publish. It is set
	// once and survives unpublish.
	FirstPublishedAt() *time.Time
	SetFirstPublishedAt(t time.Time)

	// Validate returns per-field messages; an empty map means the item is
	// valid.
	Validate() map[string][]string
}

// ReadingTimed is implemented by kinds that carry a rich-text body whose
// reading time is stored alongside the item.
type ReadingTimed interface {
	BodyHTML() string
	SetReadingTime(minutes int)
}

// PlainTextRenderer strips rich-text markup so the word count reflects prose,
// not tags.
type PlainTextRenderer interface {
	PlainText(html string) string
}
