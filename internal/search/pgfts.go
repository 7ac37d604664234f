package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
// Only published rows are searched, matching what Meilisearch indexes.
type PgFTS struct {
	db *sql.DB
}

func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across projects and blog_posts using
// plainto_tsquery with ts_rank ordering and ts_headline snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	const tsQuery = "plainto_tsquery('english', $1)"
	args := []any{q.Text}

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultProject {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'project'::text AS type, p.id, p.title, p.slug,
				ts_headline('english', coalesce(p.description, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				ts_rank(p.fts, %s) AS rank
			FROM projects p
			WHERE p.published AND p.fts @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultPost {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'post'::text AS type, b.id, b.title, b.slug,
				ts_headline('english', coalesce(b.excerpt, b.content, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				ts_rank(b.fts, %s) AS rank
			FROM blog_posts b
			WHERE b.published AND b.fts @@ %s`, tsQuery, tsQuery, tsQuery))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	union := strings.Join(subQueries, " UNION ALL ")

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub", union)
	dataSQL := fmt.Sprintf(`SELECT type, id, title, slug, snippet
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`, union, limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts search: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var rtyp string
		if err := rows.Scan(&rtyp, &r.ID, &r.Title, &r.Slug, &r.Snippet); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(rtyp)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgfts iterate: %w", err)
	}

	return results, total, nil
}

// LoadAllRecords reads every published item for reindexing into Meilisearch.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]ProjectRecord, []PostRecord, error) {
	projectRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, description, technologies, slug
		FROM projects
		WHERE published
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load project records: %w", err)
	}
	defer projectRows.Close()

	var projects []ProjectRecord
	for projectRows.Next() {
		var rec ProjectRecord
		if err := projectRows.Scan(&rec.ID, &rec.Title, &rec.Description, &rec.Technologies, &rec.Slug); err != nil {
			return nil, nil, fmt.Errorf("scan project record: %w", err)
		}
		projects = append(projects, rec)
	}
	if err := projectRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate project records: %w", err)
	}

	postRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, coalesce(excerpt, ''), content, slug
		FROM blog_posts
		WHERE published
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load post records: %w", err)
	}
	defer postRows.Close()

	var posts []PostRecord
	for postRows.Next() {
		var rec PostRecord
		if err := postRows.Scan(&rec.ID, &rec.Title, &rec.Excerpt, &rec.Body, &rec.Slug); err != nil {
			return nil, nil, fmt.Errorf("scan post record: %w", err)
		}
		posts = append(posts, rec)
	}
	if err := postRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate post records: %w", err)
	}

	return projects, posts, nil
}
