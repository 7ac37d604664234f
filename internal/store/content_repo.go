package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"folio/api/internal/content"
	"folio/api/internal/rbac"
	"folio/api/internal/util"
)

const pgUniqueViolation = "23505"

// PostgresStore implements the core's content.Repository plus the wider
// persistence surface for users, skills, experiences, messages, and
// sessions.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func tableFor(kind content.Kind) (string, error) {
	switch kind {
	case content.KindProject:
		return "projects", nil
	case content.KindPost:
		return "blog_posts", nil
	default:
		return "", fmt.Errorf("unknown content kind %q", kind)
	}
}

func slugTaken(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	return false
}

// FindByID loads a content item by primary key.
func (s *PostgresStore) FindByID(ctx context.Context, kind content.Kind, id string) (content.Item, error) {
	return s.findContentItem(ctx, kind, "id", id)
}

// FindBySlug loads a content item by its live slug.
func (s *PostgresStore) FindBySlug(ctx context.Context, kind content.Kind, slug string) (content.Item, error) {
	return s.findContentItem(ctx, kind, "slug", slug)
}

func (s *PostgresStore) findContentItem(ctx context.Context, kind content.Kind, column, value string) (content.Item, error) {
	switch kind {
	case content.KindProject:
		project, err := s.getProjectBy(ctx, column, value)
		if err != nil {
			return nil, err
		}
		return project, nil
	case content.KindPost:
		post, err := s.getPostBy(ctx, column, value)
		if err != nil {
			return nil, err
		}
		return post, nil
	default:
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
}

func (s *PostgresStore) getProjectBy(ctx context.Context, column, value string) (*Project, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, slug, description, technologies, live_url, github_url,
			image_key, featured, published, published_at, created_at, updated_at
		FROM projects
		WHERE %s = $1
	`, column)
	var item Project
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&item.ID, &item.UserID, &item.Title, &item.Slug, &item.Description,
		&item.Technologies, &item.LiveURL, &item.GithubURL, &item.ImageKey,
		&item.Featured, &item.Published, &item.PublishedAt, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project by %s: %w", column, err)
	}
	return &item, nil
}

func (s *PostgresStore) getPostBy(ctx context.Context, column, value string) (*BlogPost, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, slug, content, excerpt, cover_image_key,
			reading_time, published, published_at, created_at, updated_at
		FROM blog_posts
		WHERE %s = $1
	`, column)
	var item BlogPost
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&item.ID, &item.UserID, &item.Title, &item.Slug, &item.Content,
		&item.Excerpt, &item.CoverImageKey, &item.ReadingTime,
		&item.Published, &item.PublishedAt, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post by %s: %w", column, err)
	}
	return &item, nil
}

// Insert persists a new item. A slug collision with a concurrent writer
// surfaces as content.ErrSlugTaken so the core can retry with the next
// candidate.
func (s *PostgresStore) Insert(ctx context.Context, kind content.Kind, item content.Item) error {
	switch typed := item.(type) {
	case *Project:
		if typed.ID == "" {
			typed.ID = util.NewID("prj")
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO projects (id, user_id, title, slug, description, technologies,
				live_url, github_url, image_key, featured, published, published_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, typed.ID, typed.UserID, typed.Title, typed.Slug, typed.Description, typed.Technologies,
			typed.LiveURL, typed.GithubURL, typed.ImageKey, typed.Featured, typed.Published, typed.PublishedAt)
		if err != nil {
			if slugTaken(err) {
				return content.ErrSlugTaken
			}
			return fmt.Errorf("insert project: %w", err)
		}
		return nil
	case *BlogPost:
		if typed.ID == "" {
			typed.ID = util.NewID("post")
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO blog_posts (id, user_id, title, slug, content, excerpt,
				cover_image_key, reading_time, published, published_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, typed.ID, typed.UserID, typed.Title, typed.Slug, typed.Content, typed.Excerpt,
			typed.CoverImageKey, typed.ReadingTime, typed.Published, typed.PublishedAt)
		if err != nil {
			if slugTaken(err) {
				return content.ErrSlugTaken
			}
			return fmt.Errorf("insert post: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported item type %T for kind %q", item, kind)
	}
}

// Update rewrites all mutable columns of an item.
func (s *PostgresStore) Update(ctx context.Context, kind content.Kind, item content.Item) error {
	switch typed := item.(type) {
	case *Project:
		_, err := s.db.ExecContext(ctx, `
			UPDATE projects
			SET title=$2, slug=$3, description=$4, technologies=$5, live_url=$6,
				github_url=$7, image_key=$8, featured=$9, published=$10, published_at=$11,
				updated_at=NOW()
			WHERE id=$1
		`, typed.ID, typed.Title, typed.Slug, typed.Description, typed.Technologies,
			typed.LiveURL, typed.GithubURL, typed.ImageKey, typed.Featured, typed.Published, typed.PublishedAt)
		if err != nil {
			if slugTaken(err) {
				return content.ErrSlugTaken
			}
			return fmt.Errorf("update project: %w", err)
		}
		return nil
	case *BlogPost:
		_, err := s.db.ExecContext(ctx, `
			UPDATE blog_posts
			SET title=$2, slug=$3, content=$4, excerpt=$5, cover_image_key=$6,
				reading_time=$7, published=$8, published_at=$9, updated_at=NOW()
			WHERE id=$1
		`, typed.ID, typed.Title, typed.Slug, typed.Content, typed.Excerpt,
			typed.CoverImageKey, typed.ReadingTime, typed.Published, typed.PublishedAt)
		if err != nil {
			if slugTaken(err) {
				return content.ErrSlugTaken
			}
			return fmt.Errorf("update post: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported item type %T for kind %q", item, kind)
	}
}

func (s *PostgresStore) Delete(ctx context.Context, kind content.Kind, id string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, table), id); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

// LiveSlugOwner checks the live slug column of the kind's table.
func (s *PostgresStore) LiveSlugOwner(ctx context.Context, kind content.Kind, slug string) (string, error) {
	table, err := tableFor(kind)
	if err != nil {
		return "", err
	}
	var owner string
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT id FROM %s WHERE slug=$1`, table), slug).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("live slug owner: %w", err)
	}
	return owner, nil
}

// HistoricalSlugOwner checks retired slugs for the kind.
func (s *PostgresStore) HistoricalSlugOwner(ctx context.Context, kind content.Kind, slug string) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, `
		SELECT item_id FROM slug_history WHERE kind=$1 AND slug=$2
	`, string(kind), slug).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("historical slug owner: %w", err)
	}
	return owner, nil
}

// RetireSlug records a slug in the append-only history. Re-retiring the same
// slug for the same item is a no-op; the uniqueness constraint keeps one
// owner per retired slug.
func (s *PostgresStore) RetireSlug(ctx context.Context, kind content.Kind, slug, itemID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slug_history (kind, slug, item_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind, slug) DO UPDATE SET item_id=EXCLUDED.item_id
	`, string(kind), slug, itemID)
	if err != nil {
		return fmt.Errorf("retire slug: %w", err)
	}
	return nil
}

// scopeClause translates a visibility scope into SQL so drafts never reach
// the application layer, or pagination counts, for viewers who may not see
// them.
func scopeClause(scope rbac.Scope, args *[]any) string {
	if scope.All {
		return "TRUE"
	}
	if scope.OwnerID != "" {
		*args = append(*args, scope.OwnerID)
		return fmt.Sprintf("(user_id = $%d OR published)", len(*args))
	}
	return "published"
}

// ProjectFilters are the caller-facing listing filters for projects.
type ProjectFilters struct {
	Technology   string
	FeaturedOnly bool
}

// ListProjects returns projects inside scope, newest first.
func (s *PostgresStore) ListProjects(ctx context.Context, scope rbac.Scope, filters ProjectFilters) ([]Project, error) {
	args := []any{}
	where := []string{scopeClause(scope, &args)}
	if strings.TrimSpace(filters.Technology) != "" {
		args = append(args, "%"+filters.Technology+"%")
		where = append(where, fmt.Sprintf("technologies ILIKE $%d", len(args)))
	}
	if filters.FeaturedOnly {
		where = append(where, "featured")
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, title, slug, description, technologies, live_url, github_url,
			image_key, featured, published, published_at, created_at, updated_at
		FROM projects
		WHERE %s
		ORDER BY created_at DESC
	`, strings.Join(where, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]Project, 0)
	for rows.Next() {
		var item Project
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Title, &item.Slug, &item.Description,
			&item.Technologies, &item.LiveURL, &item.GithubURL, &item.ImageKey,
			&item.Featured, &item.Published, &item.PublishedAt, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return items, nil
}

// ListPosts returns blog posts inside scope, most recently published first,
// drafts (for viewers who can see them) ordered by creation time.
func (s *PostgresStore) ListPosts(ctx context.Context, scope rbac.Scope) ([]BlogPost, error) {
	args := []any{}
	where := scopeClause(scope, &args)

	query := fmt.Sprintf(`
		SELECT id, user_id, title, slug, content, excerpt, cover_image_key,
			reading_time, published, published_at, created_at, updated_at
		FROM blog_posts
		WHERE %s
		ORDER BY published_at DESC NULLS LAST, created_at DESC
	`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	items := make([]BlogPost, 0)
	for rows.Next() {
		var item BlogPost
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Title, &item.Slug, &item.Content,
			&item.Excerpt, &item.CoverImageKey, &item.ReadingTime,
			&item.Published, &item.PublishedAt, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return items, nil
}
