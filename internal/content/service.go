package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"folio/api/internal/rbac"
)

// Side-effect intents emitted by mutations. The core only describes the
// deferred work; an external dispatcher executes it.
const (
	IntentDeriveImageVariants = "derive_image_variants"
	IntentContactNotification = "contact_notification"
)

type Intent struct {
	Kind   string `json:"kind"`
	ItemID string `json:"itemId"`
}

// Result is a successful mutation: the persisted item plus the intents the
// caller must dispatch asynchronously.
type Result struct {
	Item    Item
	Intents []Intent
}

// Repository is the persistence surface the core needs. Implementations
// return ErrSlugTaken when an insert or update trips the per-kind slug
// uniqueness constraint, and ErrNotFound for missing rows.
type Repository interface {
	SlugStore

	FindByID(ctx context.Context, kind Kind, id string) (Item, error)
	FindBySlug(ctx context.Context, kind Kind, slug string) (Item, error)
	Insert(ctx context.Context, kind Kind, item Item) error
	Update(ctx context.Context, kind Kind, item Item) error
	Delete(ctx context.Context, kind Kind, id string) error
}

// Service orchestrates create/update/destroy and the publish transitions for
// every content kind: authorize, validate, derive, persist, emit intents.
type Service struct {
	repo Repository
	text PlainTextRenderer
	now  func() time.Time
}

func NewService(repo Repository, text PlainTextRenderer) *Service {
	return &Service{
		repo: repo,
		text: text,
		now:  time.Now,
	}
}

// Create persists a new draft item for the viewer. The caller has already
// whitelisted attributes into the concrete type; slug, first-publish
// timestamp, and reading time are derived here and never externally settable.
func (s *Service) Create(ctx context.Context, viewer rbac.Viewer, kind Kind, item Item, imageAttached bool) (*Result, error) {
	if !rbac.CanContent(viewer, rbac.ActionCreate, item.OwnerID(), false) {
		return nil, ErrUnauthorized
	}
	// Editors create content they own; only admins may attribute an item to
	// another account.
	if !viewer.Admin() && item.OwnerID() != viewer.ID {
		return nil, ErrUnauthorized
	}
	if fields := item.Validate(); len(fields) > 0 {
		return nil, newValidationError(fields)
	}

	s.deriveReadingTime(item)
	persist := func() error { return s.repo.Insert(ctx, kind, item) }
	if err := s.assignSlugAndPersist(ctx, kind, item, persist); err != nil {
		return nil, err
	}

	return &Result{Item: item, Intents: imageIntents(item, imageAttached)}, nil
}

// Update persists changes to an existing item. lastSavedTitle is the title as
// loaded from the store, before attributes were applied; the slug regenerates
// only when the title actually changed. bodyChanged gates the reading-time
// recompute so listings are not re-parsed on unrelated edits.
func (s *Service) Update(ctx context.Context, viewer rbac.Viewer, kind Kind, item Item, lastSavedTitle string, bodyChanged, imageChanged bool) (*Result, error) {
	if !rbac.CanContent(viewer, rbac.ActionUpdate, item.OwnerID(), item.IsPublished()) {
		return nil, ErrUnauthorized
	}
	if fields := item.Validate(); len(fields) > 0 {
		return nil, newValidationError(fields)
	}

	if bodyChanged {
		s.deriveReadingTime(item)
	}

	if NeedsNewSlug(item.CurrentSlug(), item.ItemTitle(), lastSavedTitle) {
		old := item.CurrentSlug()
		persist := func() error { return s.repo.Update(ctx, kind, item) }
		if err := s.assignSlugAndPersist(ctx, kind, item, persist); err != nil {
			return nil, err
		}
		// Retired only once the rename is durable; a failed persist must not
		// leave a stray history row.
		if old != "" && old != item.CurrentSlug() {
			if err := s.repo.RetireSlug(ctx, kind, old, item.ItemID()); err != nil {
				return nil, fmt.Errorf("retire slug %q: %w", old, err)
			}
		}
	} else {
		if err := s.repo.Update(ctx, kind, item); err != nil {
			return nil, fmt.Errorf("update %s: %w", kind, err)
		}
	}

	return &Result{Item: item, Intents: imageIntents(item, imageChanged)}, nil
}

// Destroy deletes an item after an explicit policy check.
func (s *Service) Destroy(ctx context.Context, viewer rbac.Viewer, kind Kind, item Item) error {
	if !rbac.CanContent(viewer, rbac.ActionDestroy, item.OwnerID(), item.IsPublished()) {
		return ErrUnauthorized
	}
	if err := s.repo.Delete(ctx, kind, item.ItemID()); err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	return nil
}

// Publish makes an item publicly visible. Re-publishing is permitted and a
// no-op state-wise; the first-publish timestamp is never reset.
func (s *Service) Publish(ctx context.Context, viewer rbac.Viewer, kind Kind, item Item) error {
	if !rbac.CanContent(viewer, rbac.ActionPublish, item.OwnerID(), item.IsPublished()) {
		return ErrUnauthorized
	}
	Publish(item, s.now())
	if err := s.repo.Update(ctx, kind, item); err != nil {
		return fmt.Errorf("publish %s: %w", kind, err)
	}
	return nil
}

// Unpublish returns an item to draft, keeping its first-publish timestamp.
func (s *Service) Unpublish(ctx context.Context, viewer rbac.Viewer, kind Kind, item Item) error {
	if !rbac.CanContent(viewer, rbac.ActionPublish, item.OwnerID(), item.IsPublished()) {
		return ErrUnauthorized
	}
	Unpublish(item)
	if err := s.repo.Update(ctx, kind, item); err != nil {
		return fmt.Errorf("unpublish %s: %w", kind, err)
	}
	return nil
}

// Resolve looks an item up by slug or id for a viewer: live slug first, then
// slug history, then id. A draft the viewer may not see resolves to
// ErrNotFound, indistinguishable from an absent item.
func (s *Service) Resolve(ctx context.Context, viewer rbac.Viewer, kind Kind, slugOrID string) (Item, error) {
	item, err := s.repo.FindBySlug(ctx, kind, slugOrID)
	if errors.Is(err, ErrNotFound) {
		var ownerID string
		ownerID, err = s.repo.HistoricalSlugOwner(ctx, kind, slugOrID)
		if err != nil {
			return nil, fmt.Errorf("resolve slug history: %w", err)
		}
		if ownerID != "" {
			item, err = s.repo.FindByID(ctx, kind, ownerID)
		} else {
			item, err = s.repo.FindByID(ctx, kind, slugOrID)
		}
	}
	if err != nil {
		return nil, err
	}

	if !rbac.CanContent(viewer, rbac.ActionShow, item.OwnerID(), item.IsPublished()) {
		return nil, ErrNotFound
	}
	return item, nil
}

// assignSlugAndPersist derives the next available slug and persists. A
// concurrent creation with the same title can still trip the storage unique
// constraint; one bounded retry re-derives the candidate before giving up
// with ErrConflictRetryExhausted.
func (s *Service) assignSlugAndPersist(ctx context.Context, kind Kind, item Item, persist func() error) error {
	const attempts = 2
	for attempt := 0; attempt < attempts; attempt++ {
		slug, err := NextSlug(ctx, s.repo, kind, item.ItemTitle(), item.ItemID())
		if err != nil {
			return fmt.Errorf("generate slug: %w", err)
		}
		item.SetSlug(slug)

		err = persist()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrSlugTaken) {
			return fmt.Errorf("persist %s: %w", kind, err)
		}
	}
	return ErrConflictRetryExhausted
}

func (s *Service) deriveReadingTime(item Item) {
	timed, ok := item.(ReadingTimed)
	if !ok {
		return
	}
	timed.SetReadingTime(ReadingTime(s.text.PlainText(timed.BodyHTML())))
}

func imageIntents(item Item, imageChanged bool) []Intent {
	if !imageChanged {
		return nil
	}
	return []Intent{{Kind: IntentDeriveImageVariants, ItemID: item.ItemID()}}
}
