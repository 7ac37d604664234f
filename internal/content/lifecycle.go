package content

import "time"

// Publish transitions an item from draft to published. The first-publish
// timestamp is set only when it was never set before: re-publishing an
// already-published item, or publishing again after an unpublish, leaves it
// untouched. Authorization happens before this is called.
func Publish(item Item, now time.Time) {
	item.SetPublished(true)
	if item.FirstPublishedAt() == nil {
		item.SetFirstPublishedAt(now)
	}
}

// Unpublish returns an item to draft. The first-publish timestamp is kept as
// an audit record of the first ever publish.
func Unpublish(item Item) {
	item.SetPublished(false)
}
