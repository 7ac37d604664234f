package content

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SlugStore is the slice of the repository the generator needs: live and
// historical ownership lookups plus history appends.
type SlugStore interface {
	// LiveSlugOwner returns the item id currently holding slug within kind,
	// or "" when the slug is free.
	LiveSlugOwner(ctx context.Context, kind Kind, slug string) (string, error)
	// HistoricalSlugOwner returns the item id that last owned a retired
	// slug, or "" when it was never used.
	HistoricalSlugOwner(ctx context.Context, kind Kind, slug string) (string, error)
	// RetireSlug appends a live slug to the history before it is replaced,
	// keeping old links resolvable.
	RetireSlug(ctx context.Context, kind Kind, slug, itemID string) error
}

var deslugger = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify normalizes a title to a URL-safe, lowercase, hyphen-separated
// token: diacritics folded away, non-alphanumeric runs collapsed to single
// hyphens, leading and trailing hyphens trimmed.
func Slugify(title string) string {
	folded, _, err := transform.String(deslugger, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// NeedsNewSlug reports whether a save should regenerate the slug: only when
// the title changed since the last save or no slug exists yet. Unrelated
// field updates never touch the slug.
func NeedsNewSlug(currentSlug, title, lastSavedTitle string) bool {
	return currentSlug == "" || title != lastSavedTitle
}

// NextSlug derives the lowest available slug for title within kind. A slug is
// available when neither the live column nor the history maps it to a
// different item; candidates are base, base-2, base-3, ... so the suffix is
// deterministic. The result is still subject to the storage-layer unique
// constraint under concurrent generation; callers retry once on ErrSlugTaken.
func NextSlug(ctx context.Context, slugs SlugStore, kind Kind, title, itemID string) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = "untitled"
	}

	for n := 1; ; n++ {
		candidate := base
		if n > 1 {
			candidate = fmt.Sprintf("%s-%d", base, n)
		}
		free, err := slugAvailable(ctx, slugs, kind, candidate, itemID)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
}

func slugAvailable(ctx context.Context, slugs SlugStore, kind Kind, slug, itemID string) (bool, error) {
	owner, err := slugs.LiveSlugOwner(ctx, kind, slug)
	if err != nil {
		return false, fmt.Errorf("check live slug: %w", err)
	}
	if owner != "" && owner != itemID {
		return false, nil
	}
	owner, err = slugs.HistoricalSlugOwner(ctx, kind, slug)
	if err != nil {
		return false, fmt.Errorf("check slug history: %w", err)
	}
	if owner != "" && owner != itemID {
		return false, nil
	}
	return true, nil
}
