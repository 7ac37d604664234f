// Package search provides full-text search over published content, backed
// by Meilisearch with a PostgreSQL fallback.
package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultProject ResultType = "project"
	ResultPost    ResultType = "post"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
	Slug    string     `json:"slug"`
}

// Query describes a search request. Only published content is ever indexed,
// so no visibility filtering happens at query time.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// ProjectRecord is the data indexed for a published project.
type ProjectRecord struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Technologies string `json:"technologies"`
	Slug         string `json:"slug"`
}

// PostRecord is the data indexed for a published blog post. Body carries the
// plain-text rendering of the rich-text content.
type PostRecord struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Body    string `json:"body"`
	Slug    string `json:"slug"`
}
