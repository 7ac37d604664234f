// Package app wires the core content rules to persistence, sessions, search,
// and background jobs, and shapes the HTTP payloads.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"folio/api/internal/auth"
	"folio/api/internal/authpw"
	"folio/api/internal/config"
	"folio/api/internal/content"
	"folio/api/internal/jobs"
	"folio/api/internal/rbac"
	"folio/api/internal/richtext"
	"folio/api/internal/search"
	"folio/api/internal/store"
	"folio/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	Email        string
	Name         string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

// Viewer derives the acting identity for policy checks. The zero session is
// an anonymous visitor.
func (s Session) Viewer() rbac.Viewer {
	if s.UserID == "" {
		return rbac.Viewer{}
	}
	return rbac.Viewer{ID: s.UserID, Role: rbac.Normalize(s.Role)}
}

type ProjectInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Technologies string `json:"technologies"`
	LiveURL      string `json:"liveUrl"`
	GithubURL    string `json:"githubUrl"`
	ImageKey     string `json:"imageKey"`
	Featured     bool   `json:"featured"`
}

type PostInput struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Excerpt       string `json:"excerpt"`
	CoverImageKey string `json:"coverImageKey"`
}

type SkillInput struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Proficiency int    `json:"proficiency"`
	Icon        string `json:"icon"`
}

type ExperienceInput struct {
	Company     string     `json:"company"`
	Role        string     `json:"role"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Current     bool       `json:"current"`
}

type MessageInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type ProfileInput struct {
	Name        string `json:"name"`
	Bio         string `json:"bio"`
	Tagline     string `json:"tagline"`
	AvatarKey   string `json:"avatarKey"`
	GithubURL   string `json:"githubUrl"`
	LinkedinURL string `json:"linkedinUrl"`
	TwitterURL  string `json:"twitterUrl"`
}

// dataStore is the persistence surface the application service needs,
// satisfied by store.PostgresStore.
type dataStore interface {
	content.Repository

	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
	UpdateUserProfile(ctx context.Context, user store.User) error
	FirstAdminEmail(ctx context.Context) (string, error)

	ListProjects(ctx context.Context, scope rbac.Scope, filters store.ProjectFilters) ([]store.Project, error)
	ListPosts(ctx context.Context, scope rbac.Scope) ([]store.BlogPost, error)

	InsertMessage(ctx context.Context, item *store.Message) error
	GetMessage(ctx context.Context, id string) (store.Message, error)
	ListMessages(ctx context.Context, unreadOnly bool) ([]store.Message, error)
	MarkMessageRead(ctx context.Context, id string, read bool) error
	DeleteMessage(ctx context.Context, id string) error
	UnreadMessageCount(ctx context.Context) (int, error)

	ListSkills(ctx context.Context, category string) ([]store.Skill, error)
	GetSkill(ctx context.Context, id string) (store.Skill, error)
	InsertSkill(ctx context.Context, item *store.Skill) error
	UpdateSkill(ctx context.Context, item *store.Skill) error
	DeleteSkill(ctx context.Context, id string) error

	ListExperiences(ctx context.Context) ([]store.Experience, error)
	GetExperience(ctx context.Context, id string) (store.Experience, error)
	InsertExperience(ctx context.Context, item *store.Experience) error
	UpdateExperience(ctx context.Context, item *store.Experience) error
	DeleteExperience(ctx context.Context, id string) error

	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)

	Ping(ctx context.Context) error
}

// sessionStore holds refresh sessions. Redis when available, Postgres
// otherwise.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	content  *content.Service
	auth     *authpw.Service
	search   *search.Service
	jobs     *jobs.Dispatcher
	text     richtext.Renderer
}

func New(cfg config.Config, dataStore dataStore, authSvc *authpw.Service, searchSvc *search.Service, dispatcher *jobs.Dispatcher) *Service {
	renderer := richtext.Renderer{}
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: dataStore,
		content:  content.NewService(dataStore, renderer),
		auth:     authSvc,
		search:   searchSvc,
		jobs:     dispatcher,
		text:     renderer,
	}
}

// UseSessionStore swaps refresh-session storage to an external backend.
func (s *Service) UseSessionStore(sessions sessionStore) {
	s.sessions = sessions
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Bootstrap seeds the admin account when none exists and an admin password
// is configured.
func (s *Service) Bootstrap(ctx context.Context) error {
	adminEmail, err := s.store.FirstAdminEmail(ctx)
	if err != nil {
		return err
	}
	if adminEmail != "" || s.cfg.AdminPassword == "" {
		return nil
	}

	user, err := s.auth.SignUp(ctx, s.cfg.AdminEmail, s.cfg.AdminName, s.cfg.AdminPassword, string(rbac.RoleAdmin))
	if err != nil {
		return fmt.Errorf("seed admin account: %w", err)
	}
	log.Printf("app: seeded admin account %s", user.Email)
	return nil
}

// Login exchanges credentials for an access/refresh token pair.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, authpw.ErrInvalidCredentials) {
			return Session{}, domainError(401, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		}
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

// Refresh rotates a refresh token and issues a fresh pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, domainError(401, "UNAUTHORIZED", "Refresh token invalid", nil)
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		Role:  user.Role,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, session Session, current, next string) error {
	if session.UserID == "" {
		return content.ErrUnauthorized
	}
	return s.auth.ChangePassword(ctx, session.UserID, current, next)
}

// Profile returns the site owner's public profile.
func (s *Service) Profile(ctx context.Context) (map[string]any, error) {
	email, err := s.store.FirstAdminEmail(ctx)
	if err != nil {
		return nil, err
	}
	if email == "" {
		email = s.cfg.AdminEmail
	}
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"name":        user.Name,
		"bio":         user.Bio,
		"tagline":     user.Tagline,
		"avatarKey":   user.AvatarKey,
		"githubUrl":   user.GithubURL,
		"linkedinUrl": user.LinkedinURL,
		"twitterUrl":  user.TwitterURL,
	}, nil
}

func (s *Service) UpdateProfile(ctx context.Context, session Session, input ProfileInput) (map[string]any, error) {
	if session.UserID == "" {
		return nil, content.ErrUnauthorized
	}
	user, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	user.Name = input.Name
	user.Bio = input.Bio
	user.Tagline = input.Tagline
	user.AvatarKey = input.AvatarKey
	user.GithubURL = input.GithubURL
	user.LinkedinURL = input.LinkedinURL
	user.TwitterURL = input.TwitterURL
	if err := s.store.UpdateUserProfile(ctx, user); err != nil {
		return nil, err
	}
	return map[string]any{
		"name":        user.Name,
		"bio":         user.Bio,
		"tagline":     user.Tagline,
		"avatarKey":   user.AvatarKey,
		"githubUrl":   user.GithubURL,
		"linkedinUrl": user.LinkedinURL,
		"twitterUrl":  user.TwitterURL,
	}, nil
}

// ListProjects returns projects visible to the viewer, newest first.
func (s *Service) ListProjects(ctx context.Context, viewer rbac.Viewer, filters store.ProjectFilters) ([]map[string]any, error) {
	items, err := s.store.ListProjects(ctx, rbac.VisibleScope(viewer), filters)
	if err != nil {
		return nil, err
	}
	payloads := make([]map[string]any, 0, len(items))
	for i := range items {
		payloads = append(payloads, projectPayload(&items[i]))
	}
	return payloads, nil
}

// GetProject resolves a project by slug, retired slug, or id.
func (s *Service) GetProject(ctx context.Context, viewer rbac.Viewer, slugOrID string) (map[string]any, error) {
	item, err := s.content.Resolve(ctx, viewer, content.KindProject, slugOrID)
	if err != nil {
		return nil, err
	}
	return projectPayload(item.(*store.Project)), nil
}

func (s *Service) CreateProject(ctx context.Context, viewer rbac.Viewer, input ProjectInput) (map[string]any, error) {
	project := &store.Project{
		UserID:       viewer.ID,
		Title:        input.Title,
		Description:  input.Description,
		Technologies: input.Technologies,
		LiveURL:      input.LiveURL,
		GithubURL:    input.GithubURL,
		ImageKey:     input.ImageKey,
		Featured:     input.Featured,
	}
	result, err := s.content.Create(ctx, viewer, content.KindProject, project, input.ImageKey != "")
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, result.Intents)
	return projectPayload(project), nil
}

func (s *Service) UpdateProject(ctx context.Context, viewer rbac.Viewer, id string, input ProjectInput) (map[string]any, error) {
	item, err := s.store.FindByID(ctx, content.KindProject, id)
	if err != nil {
		return nil, err
	}
	project := item.(*store.Project)

	lastSavedTitle := project.Title
	imageChanged := input.ImageKey != "" && input.ImageKey != project.ImageKey

	project.Title = input.Title
	project.Description = input.Description
	project.Technologies = input.Technologies
	project.LiveURL = input.LiveURL
	project.GithubURL = input.GithubURL
	project.ImageKey = input.ImageKey
	project.Featured = input.Featured

	result, err := s.content.Update(ctx, viewer, content.KindProject, project, lastSavedTitle, false, imageChanged)
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, result.Intents)
	s.syncProjectIndex(project)
	return projectPayload(project), nil
}

func (s *Service) DeleteProject(ctx context.Context, viewer rbac.Viewer, id string) error {
	item, err := s.store.FindByID(ctx, content.KindProject, id)
	if err != nil {
		return err
	}
	project := item.(*store.Project)
	if err := s.content.Destroy(ctx, viewer, content.KindProject, project); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteProject(project.ID)
	}
	return nil
}

func (s *Service) PublishProject(ctx context.Context, viewer rbac.Viewer, id string) (map[string]any, error) {
	item, err := s.store.FindByID(ctx, content.KindProject, id)
	if err != nil {
		return nil, err
	}
	project := item.(*store.Project)
	if err := s.content.Publish(ctx, viewer, content.KindProject, project); err != nil {
		return nil, err
	}
	s.syncProjectIndex(project)
	return projectPayload(project), nil
}

func (s *Service) UnpublishProject(ctx context.Context, viewer rbac.Viewer, id string) (map[string]any, error) {
	item, err := s.store.FindByID(ctx, content.KindProject, id)
	if err != nil {
		return nil, err
	}
	project := item.(*store.Project)
	if err := s.content.Unpublish(ctx, viewer, content.KindProject, project); err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.DeleteProject(project.ID)
	}
	return projectPayload(project), nil
}

// ListPosts returns blog posts visible to the viewer.
func (s *Service) ListPosts(ctx context.Context, viewer rbac.Viewer) ([]map[string]any, error) {
	items, err := s.store.ListPosts(ctx, rbac.VisibleScope(viewer))
	if err != nil {
		return nil, err
	}
	payloads := make([]map[string]any, 0, len(items))
	for i := range items {
		payloads = append(payloads, postPayload(&items[i]))
	}
	return payloads, nil
}

func (s *Service) GetPost(ctx context.Context, viewer rbac.Viewer, slugOrID string) (map[string]any, error) {
	item, err := s.content.Resolve(ctx, viewer, content.KindPost, slugOrID)
	if err != nil {
		return nil, err
	}
	return postPayload(item.(*store.BlogPost)), nil
}

func (s *Service) CreatePost(ctx context.Context, viewer rbac.Viewer, input PostInput) (map[string]any, error) {
	post := &store.BlogPost{
		UserID:        viewer.ID,
		Title:         input.Title,
		Content:       input.Content,
		Excerpt:       input.Excerpt,
		CoverImageKey: input.CoverImageKey,
	}
	result, err := s.content.Create(ctx, viewer, content.KindPost, post, input.CoverImageKey != "")
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, result.Intents)
	return postPayload(post), nil
}

func (s *Service) UpdatePost(ctx context.Context, viewer rbac.Viewer, id string, input PostInput) (map[string]any, error) {
	item, err := s.store.FindByID(ctx, content.KindPost, id)
	if err != nil {
		return nil, err
	}
	post := item.(*store.BlogPost)

	lastSavedTitle := post.Title
	bodyChanged := input.Content != post.Content
	imageChanged := input.CoverImageKey != "" && input.CoverImageKey != post.CoverImageKey

	post.Title = input.Title
	post.Content = input.Content
	post.Excerpt = input.Excerpt
	post.CoverImageKey = input.CoverImageKey

	result, err := s.content.Update(ctx, viewer, content.KindPost, post, lastSavedTitle, bodyChanged, imageChanged)
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, result.Intents)
	s.syncPostIndex(post)
	return postPayload(post), nil
}

func (s *Service) DeletePost(ctx context.Context, viewer rbac.Viewer, id string) error {
	item, err := s.store.FindByID(ctx, content.KindPost, id)
	if err != nil {
		return err
	}
	post := item.(*store.BlogPost)
	if err := s.content.Destroy(ctx, viewer, content.KindPost, post); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeletePost(post.ID)
	}
	return nil
}

func (s *Service) PublishPost(ctx context.Context, viewer rbac.Viewer, id string) (map[string]any, error) {
	item, err := s.store.FindByID(ctx, content.KindPost, id)
	if err != nil {
		return nil, err
	}
	post := item.(*store.BlogPost)
	if err := s.content.Publish(ctx, viewer, content.KindPost, post); err != nil {
		return nil, err
	}
	s.syncPostIndex(post)
	return postPayload(post), nil
}

func (s *Service) UnpublishPost(ctx context.Context, viewer rbac.Viewer, id string) (map[string]any, error) {
	item, err := s.store.FindByID(ctx, content.KindPost, id)
	if err != nil {
		return nil, err
	}
	post := item.(*store.BlogPost)
	if err := s.content.Unpublish(ctx, viewer, content.KindPost, post); err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.DeletePost(post.ID)
	}
	return postPayload(post), nil
}

// syncProjectIndex mirrors publish state into the search index. Drafts are
// never indexed.
func (s *Service) syncProjectIndex(project *store.Project) {
	if s.search == nil {
		return
	}
	if !project.Published {
		s.search.DeleteProject(project.ID)
		return
	}
	s.search.IndexProject(search.ProjectRecord{
		ID:           project.ID,
		Title:        project.Title,
		Description:  project.Description,
		Technologies: project.Technologies,
		Slug:         project.Slug,
	})
}

func (s *Service) syncPostIndex(post *store.BlogPost) {
	if s.search == nil {
		return
	}
	if !post.Published {
		s.search.DeletePost(post.ID)
		return
	}
	s.search.IndexPost(search.PostRecord{
		ID:      post.ID,
		Title:   post.Title,
		Excerpt: post.Excerpt,
		Body:    s.text.PlainText(post.Content),
		Slug:    post.Slug,
	})
}

func (s *Service) Search(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

// ListSkills is public; skills have no draft state.
func (s *Service) ListSkills(ctx context.Context, category string) ([]map[string]any, error) {
	items, err := s.store.ListSkills(ctx, category)
	if err != nil {
		return nil, err
	}
	payloads := make([]map[string]any, 0, len(items))
	for i := range items {
		payloads = append(payloads, skillPayload(&items[i]))
	}
	return payloads, nil
}

func (s *Service) CreateSkill(ctx context.Context, viewer rbac.Viewer, input SkillInput) (map[string]any, error) {
	if !viewer.Admin() {
		return nil, content.ErrUnauthorized
	}
	skill := &store.Skill{
		UserID:      viewer.ID,
		Name:        input.Name,
		Category:    input.Category,
		Proficiency: input.Proficiency,
		Icon:        input.Icon,
	}
	if fields := skill.Validate(); len(fields) > 0 {
		return nil, &content.ValidationError{Fields: fields}
	}
	if err := s.store.InsertSkill(ctx, skill); err != nil {
		return nil, err
	}
	return skillPayload(skill), nil
}

func (s *Service) UpdateSkill(ctx context.Context, viewer rbac.Viewer, id string, input SkillInput) (map[string]any, error) {
	if !viewer.Admin() {
		return nil, content.ErrUnauthorized
	}
	skill, err := s.store.GetSkill(ctx, id)
	if err != nil {
		return nil, err
	}
	skill.Name = input.Name
	skill.Category = input.Category
	skill.Proficiency = input.Proficiency
	skill.Icon = input.Icon
	if fields := skill.Validate(); len(fields) > 0 {
		return nil, &content.ValidationError{Fields: fields}
	}
	if err := s.store.UpdateSkill(ctx, &skill); err != nil {
		return nil, err
	}
	return skillPayload(&skill), nil
}

func (s *Service) DeleteSkill(ctx context.Context, viewer rbac.Viewer, id string) error {
	if !viewer.Admin() {
		return content.ErrUnauthorized
	}
	if _, err := s.store.GetSkill(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteSkill(ctx, id)
}

// ListExperiences is public, ordered current-first then reverse
// chronological.
func (s *Service) ListExperiences(ctx context.Context) ([]map[string]any, error) {
	items, err := s.store.ListExperiences(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	payloads := make([]map[string]any, 0, len(items))
	for i := range items {
		payloads = append(payloads, experiencePayload(&items[i], now))
	}
	return payloads, nil
}

func (s *Service) CreateExperience(ctx context.Context, viewer rbac.Viewer, input ExperienceInput) (map[string]any, error) {
	if !viewer.Admin() {
		return nil, content.ErrUnauthorized
	}
	experience := &store.Experience{
		UserID:      viewer.ID,
		Company:     input.Company,
		Role:        input.Role,
		Location:    input.Location,
		Description: input.Description,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Current:     input.Current,
	}
	if fields := experience.Validate(); len(fields) > 0 {
		return nil, &content.ValidationError{Fields: fields}
	}
	if err := s.store.InsertExperience(ctx, experience); err != nil {
		return nil, err
	}
	return experiencePayload(experience, time.Now()), nil
}

func (s *Service) UpdateExperience(ctx context.Context, viewer rbac.Viewer, id string, input ExperienceInput) (map[string]any, error) {
	if !viewer.Admin() {
		return nil, content.ErrUnauthorized
	}
	experience, err := s.store.GetExperience(ctx, id)
	if err != nil {
		return nil, err
	}
	experience.Company = input.Company
	experience.Role = input.Role
	experience.Location = input.Location
	experience.Description = input.Description
	experience.StartDate = input.StartDate
	experience.EndDate = input.EndDate
	experience.Current = input.Current
	if fields := experience.Validate(); len(fields) > 0 {
		return nil, &content.ValidationError{Fields: fields}
	}
	if err := s.store.UpdateExperience(ctx, &experience); err != nil {
		return nil, err
	}
	return experiencePayload(&experience, time.Now()), nil
}

func (s *Service) DeleteExperience(ctx context.Context, viewer rbac.Viewer, id string) error {
	if !viewer.Admin() {
		return content.ErrUnauthorized
	}
	if _, err := s.store.GetExperience(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteExperience(ctx, id)
}

// SubmitMessage accepts a contact-form submission from anyone and queues the
// owner notification.
func (s *Service) SubmitMessage(ctx context.Context, viewer rbac.Viewer, input MessageInput) (map[string]any, error) {
	if !rbac.CanMessage(viewer, rbac.ActionCreate) {
		return nil, content.ErrUnauthorized
	}
	message := &store.Message{
		Name:    input.Name,
		Email:   input.Email,
		Subject: input.Subject,
		Body:    input.Body,
	}
	if fields := message.Validate(); len(fields) > 0 {
		return nil, &content.ValidationError{Fields: fields}
	}
	if err := s.store.InsertMessage(ctx, message); err != nil {
		return nil, err
	}
	s.dispatch(ctx, []content.Intent{{Kind: content.IntentContactNotification, ItemID: message.ID}})
	return messagePayload(message), nil
}

func (s *Service) ListMessages(ctx context.Context, viewer rbac.Viewer, unreadOnly bool) ([]map[string]any, error) {
	if !rbac.CanMessage(viewer, rbac.ActionIndex) {
		return nil, content.ErrUnauthorized
	}
	items, err := s.store.ListMessages(ctx, unreadOnly)
	if err != nil {
		return nil, err
	}
	payloads := make([]map[string]any, 0, len(items))
	for i := range items {
		payloads = append(payloads, messagePayload(&items[i]))
	}
	return payloads, nil
}

func (s *Service) GetMessage(ctx context.Context, viewer rbac.Viewer, id string) (map[string]any, error) {
	if !rbac.CanMessage(viewer, rbac.ActionShow) {
		return nil, content.ErrUnauthorized
	}
	message, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	return messagePayload(&message), nil
}

func (s *Service) MarkMessageRead(ctx context.Context, viewer rbac.Viewer, id string, read bool) error {
	if !rbac.CanMessage(viewer, rbac.ActionMarkRead) {
		return content.ErrUnauthorized
	}
	return s.store.MarkMessageRead(ctx, id, read)
}

func (s *Service) DeleteMessage(ctx context.Context, viewer rbac.Viewer, id string) error {
	if !rbac.CanMessage(viewer, rbac.ActionDestroy) {
		return content.ErrUnauthorized
	}
	if _, err := s.store.GetMessage(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteMessage(ctx, id)
}

func (s *Service) UnreadMessageCount(ctx context.Context, viewer rbac.Viewer) (int, error) {
	if !rbac.CanMessage(viewer, rbac.ActionIndex) {
		return 0, content.ErrUnauthorized
	}
	return s.store.UnreadMessageCount(ctx)
}

func (s *Service) dispatch(ctx context.Context, intents []content.Intent) {
	if s.jobs == nil || len(intents) == 0 {
		return
	}
	s.jobs.Dispatch(ctx, intents...)
}

func projectPayload(p *store.Project) map[string]any {
	return map[string]any{
		"id":           p.ID,
		"slug":         p.Slug,
		"title":        p.Title,
		"description":  p.Description,
		"technologies": p.TechnologiesList(),
		"liveUrl":      p.LiveURL,
		"githubUrl":    p.GithubURL,
		"imageKey":     p.ImageKey,
		"featured":     p.Featured,
		"published":    p.Published,
		"publishedAt":  p.PublishedAt,
		"createdAt":    p.CreatedAt,
		"updatedAt":    p.UpdatedAt,
	}
}

func postPayload(p *store.BlogPost) map[string]any {
	return map[string]any{
		"id":            p.ID,
		"slug":          p.Slug,
		"title":         p.Title,
		"content":       p.Content,
		"excerpt":       p.Excerpt,
		"coverImageKey": p.CoverImageKey,
		"readingTime":   p.ReadingTime,
		"readingTimeText": p.ReadingTimeText(),
		"published":   p.Published,
		"publishedAt": p.PublishedAt,
		"createdAt":   p.CreatedAt,
		"updatedAt":   p.UpdatedAt,
	}
}

func skillPayload(s *store.Skill) map[string]any {
	return map[string]any{
		"id":                 s.ID,
		"name":               s.Name,
		"category":           s.Category,
		"proficiency":        s.Proficiency,
		"proficiencyLabel":   s.ProficiencyLabel(),
		"proficiencyPercent": s.ProficiencyPercent(),
		"icon":               s.Icon,
	}
}

func experiencePayload(e *store.Experience, now time.Time) map[string]any {
	return map[string]any{
		"id":           e.ID,
		"company":      e.Company,
		"role":         e.Role,
		"location":     e.Location,
		"description":  e.Description,
		"startDate":    e.StartDate,
		"endDate":      e.EndDate,
		"current":      e.IsCurrent(),
		"durationText": e.DurationText(now),
	}
}

func messagePayload(m *store.Message) map[string]any {
	return map[string]any{
		"id":        m.ID,
		"name":      m.Name,
		"email":     m.Email,
		"subject":   m.Subject,
		"body":      m.Body,
		"read":      m.Read,
		"createdAt": m.CreatedAt,
	}
}
