package store

import (
	"net/mail"
	"strconv"
	"strings"
	"time"

	"folio/api/internal/content"
)

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Bio          string
	Tagline      string
	AvatarKey    string
	GithubURL    string
	LinkedinURL  string
	TwitterURL   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Project is a portfolio project. Pointer receivers below satisfy
// content.Item so the shared slug/lifecycle/policy rules drive it.
type Project struct {
	ID           string
	UserID       string
	Title        string
	Slug         string
	Description  string
	Technologies string
	LiveURL      string
	GithubURL    string
	ImageKey     string
	Featured     bool
	Published    bool
	PublishedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p *Project) ItemID() string                  { return p.ID }
func (p *Project) OwnerID() string                 { return p.UserID }
func (p *Project) ItemTitle() string               { return p.Title }
func (p *Project) CurrentSlug() string             { return p.Slug }
func (p *Project) SetSlug(slug string)             { p.Slug = slug }
func (p *Project) IsPublished() bool               { return p.Published }
func (p *Project) SetPublished(published bool)     { p.Published = published }
func (p *Project) FirstPublishedAt() *time.Time    { return p.PublishedAt }
func (p *Project) SetFirstPublishedAt(t time.Time) { p.PublishedAt = &t }

func (p *Project) Validate() map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(p.Title) == "" {
		fields["title"] = append(fields["title"], "can't be blank")
	}
	if strings.TrimSpace(p.Description) == "" {
		fields["description"] = append(fields["description"], "can't be blank")
	}
	return fields
}

// TechnologiesList splits the stored comma list into trimmed entries.
func (p *Project) TechnologiesList() []string {
	if strings.TrimSpace(p.Technologies) == "" {
		return nil
	}
	parts := strings.Split(p.Technologies, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	return list
}

// BlogPost is an article with a rich-text body. It additionally satisfies
// content.ReadingTimed so the derived reading time is recomputed on body
// changes.
type BlogPost struct {
	ID            string
	UserID        string
	Title         string
	Slug          string
	Content       string
	Excerpt       string
	CoverImageKey string
	ReadingTime   int
	Published     bool
	PublishedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *BlogPost) ItemID() string                  { return p.ID }
func (p *BlogPost) OwnerID() string                 { return p.UserID }
func (p *BlogPost) ItemTitle() string               { return p.Title }
func (p *BlogPost) CurrentSlug() string             { return p.Slug }
func (p *BlogPost) SetSlug(slug string)             { p.Slug = slug }
func (p *BlogPost) IsPublished() bool               { return p.Published }
func (p *BlogPost) SetPublished(published bool)     { p.Published = published }
func (p *BlogPost) FirstPublishedAt() *time.Time    { return p.PublishedAt }
func (p *BlogPost) SetFirstPublishedAt(t time.Time) { p.PublishedAt = &t }
func (p *BlogPost) BodyHTML() string                { return p.Content }
func (p *BlogPost) SetReadingTime(minutes int)      { p.ReadingTime = minutes }

func (p *BlogPost) Validate() map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(p.Title) == "" {
		fields["title"] = append(fields["title"], "can't be blank")
	}
	return fields
}

// ReadingTimeText renders the stored estimate for display.
func (p *BlogPost) ReadingTimeText() string {
	minutes := p.ReadingTime
	if minutes < 1 {
		minutes = 1
	}
	return strconv.Itoa(minutes) + " min read"
}

// SlugEntry is an append-only record of a retired slug, scoped by kind.
type SlugEntry struct {
	Kind      content.Kind
	Slug      string
	ItemID    string
	CreatedAt time.Time
}

var skillCategories = map[string]struct{}{
	"Frontend": {},
	"Backend":  {},
	"DevOps":   {},
	"Database": {},
	"Tools":    {},
	"Mobile":   {},
	"Other":    {},
}

type Skill struct {
	ID          string
	UserID      string
	Name        string
	Category    string
	Proficiency int
	Icon        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s *Skill) Validate() map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(s.Name) == "" {
		fields["name"] = append(fields["name"], "can't be blank")
	}
	if _, ok := skillCategories[s.Category]; !ok {
		fields["category"] = append(fields["category"], "is not included in the list")
	}
	if s.Proficiency != 0 && (s.Proficiency < 1 || s.Proficiency > 5) {
		fields["proficiency"] = append(fields["proficiency"], "must be between 1 and 5")
	}
	return fields
}

func (s *Skill) ProficiencyLabel() string {
	switch s.Proficiency {
	case 1:
		return "Beginner"
	case 2:
		return "Intermediate"
	case 3:
		return "Advanced"
	case 4:
		return "Expert"
	case 5:
		return "Master"
	default:
		return "Unknown"
	}
}

func (s *Skill) ProficiencyPercent() int {
	return s.Proficiency * 20
}

type Experience struct {
	ID          string
	UserID      string
	Company     string
	Role        string
	Location    string
	Description string
	StartDate   time.Time
	EndDate     *time.Time
	Current     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (e *Experience) Validate() map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(e.Company) == "" {
		fields["company"] = append(fields["company"], "can't be blank")
	}
	if strings.TrimSpace(e.Role) == "" {
		fields["role"] = append(fields["role"], "can't be blank")
	}
	if e.StartDate.IsZero() {
		fields["start_date"] = append(fields["start_date"], "can't be blank")
	}
	if e.EndDate != nil && !e.StartDate.IsZero() && e.EndDate.Before(e.StartDate) {
		fields["end_date"] = append(fields["end_date"], "must be after start date")
	}
	return fields
}

func (e *Experience) IsCurrent() bool {
	return e.Current || e.EndDate == nil
}

func (e *Experience) DurationMonths(now time.Time) int {
	return content.DurationMonths(e.StartDate, e.EndDate, now)
}

func (e *Experience) DurationText(now time.Time) string {
	return content.FormatDuration(e.DurationMonths(now))
}

type Message struct {
	ID        string
	Name      string
	Email     string
	Subject   string
	Body      string
	Read      bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m *Message) Validate() map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(m.Name) == "" {
		fields["name"] = append(fields["name"], "can't be blank")
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		fields["email"] = append(fields["email"], "is invalid")
	}
	if strings.TrimSpace(m.Subject) == "" {
		fields["subject"] = append(fields["subject"], "can't be blank")
	}
	if body := strings.TrimSpace(m.Body); len(body) < 10 {
		fields["body"] = append(fields["body"], "is too short (minimum is 10 characters)")
	} else if len(body) > 5000 {
		fields["body"] = append(fields["body"], "is too long (maximum is 5000 characters)")
	}
	return fields
}
