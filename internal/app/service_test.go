package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"folio/api/internal/authpw"
	"folio/api/internal/config"
	"folio/api/internal/content"
	"folio/api/internal/jobs"
	"folio/api/internal/rbac"
	"folio/api/internal/store"
	"folio/api/internal/util"
)

// fakeStore is an in-memory dataStore. It also satisfies authpw.UserStore so
// the same instance backs credentials and persistence in tests.
type fakeStore struct {
	mu          sync.Mutex
	users       map[string]store.User
	projects    map[string]*store.Project
	posts       map[string]*store.BlogPost
	liveSlugs   map[string]string
	history     map[string]string
	skills      map[string]*store.Skill
	experiences map[string]*store.Experience
	messages    map[string]*store.Message
	sessions    map[string]string
	revokedJTIs map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[string]store.User{},
		projects:    map[string]*store.Project{},
		posts:       map[string]*store.BlogPost{},
		liveSlugs:   map[string]string{},
		history:     map[string]string{},
		skills:      map[string]*store.Skill{},
		experiences: map[string]*store.Experience{},
		messages:    map[string]*store.Message{},
		sessions:    map[string]string{},
		revokedJTIs: map[string]bool{},
	}
}

func slugKey(kind content.Kind, slug string) string {
	return string(kind) + "/" + slug
}

func (f *fakeStore) seedUser(t *testing.T, email, password, role string) store.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := store.User{
		ID:           util.NewID("usr"),
		Email:        email,
		Name:         "Test User",
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now(),
	}
	f.users[user.ID] = user
	return user
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return store.User{}, content.ErrNotFound
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return store.User{}, content.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) CreateUser(_ context.Context, user store.User) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeStore) UpdateUserProfile(_ context.Context, user store.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.users[user.ID]
	if !ok {
		return content.ErrNotFound
	}
	user.PasswordHash = existing.PasswordHash
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) UpdateUserPassword(_ context.Context, userID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return content.ErrNotFound
	}
	user.PasswordHash = passwordHash
	f.users[userID] = user
	return nil
}

func (f *fakeStore) FirstAdminEmail(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Role == "admin" {
			return user.Email, nil
		}
	}
	return "", nil
}

func (f *fakeStore) LiveSlugOwner(_ context.Context, kind content.Kind, slug string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liveSlugs[slugKey(kind, slug)], nil
}

func (f *fakeStore) HistoricalSlugOwner(_ context.Context, kind content.Kind, slug string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history[slugKey(kind, slug)], nil
}

func (f *fakeStore) RetireSlug(_ context.Context, kind content.Kind, slug, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history[slugKey(kind, slug)] = itemID
	return nil
}

func (f *fakeStore) FindByID(_ context.Context, kind content.Kind, id string) (content.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if kind == content.KindProject {
		if item, ok := f.projects[id]; ok {
			return item, nil
		}
		return nil, content.ErrNotFound
	}
	if item, ok := f.posts[id]; ok {
		return item, nil
	}
	return nil, content.ErrNotFound
}

func (f *fakeStore) FindBySlug(ctx context.Context, kind content.Kind, slug string) (content.Item, error) {
	f.mu.Lock()
	id, ok := f.liveSlugs[slugKey(kind, slug)]
	f.mu.Unlock()
	if !ok {
		return nil, content.ErrNotFound
	}
	return f.FindByID(ctx, kind, id)
}

func (f *fakeStore) Insert(_ context.Context, kind content.Kind, item content.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := slugKey(kind, item.CurrentSlug())
	if owner, taken := f.liveSlugs[key]; taken && owner != item.ItemID() {
		return content.ErrSlugTaken
	}
	switch v := item.(type) {
	case *store.Project:
		if v.ID == "" {
			v.ID = util.NewID("prj")
		}
		v.CreatedAt = time.Now()
		f.projects[v.ID] = v
	case *store.BlogPost:
		if v.ID == "" {
			v.ID = util.NewID("post")
		}
		v.CreatedAt = time.Now()
		f.posts[v.ID] = v
	}
	f.liveSlugs[key] = item.ItemID()
	return nil
}

func (f *fakeStore) Update(_ context.Context, kind content.Kind, item content.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := slugKey(kind, item.CurrentSlug())
	if owner, taken := f.liveSlugs[key]; taken && owner != item.ItemID() {
		return content.ErrSlugTaken
	}
	for k, id := range f.liveSlugs {
		if id == item.ItemID() && k != key {
			delete(f.liveSlugs, k)
		}
	}
	f.liveSlugs[key] = item.ItemID()
	return nil
}

func (f *fakeStore) Delete(_ context.Context, kind content.Kind, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if kind == content.KindProject {
		delete(f.projects, id)
	} else {
		delete(f.posts, id)
	}
	for k, itemID := range f.liveSlugs {
		if itemID == id {
			delete(f.liveSlugs, k)
		}
	}
	return nil
}

func (f *fakeStore) ListProjects(_ context.Context, scope rbac.Scope, filters store.ProjectFilters) ([]store.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []store.Project
	for _, p := range f.projects {
		if !scope.Includes(p.UserID, p.Published) {
			continue
		}
		if filters.FeaturedOnly && !p.Featured {
			continue
		}
		items = append(items, *p)
	}
	return items, nil
}

func (f *fakeStore) ListPosts(_ context.Context, scope rbac.Scope) ([]store.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []store.BlogPost
	for _, p := range f.posts {
		if scope.Includes(p.UserID, p.Published) {
			items = append(items, *p)
		}
	}
	return items, nil
}

func (f *fakeStore) InsertMessage(_ context.Context, item *store.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item.ID == "" {
		item.ID = util.NewID("msg")
	}
	item.CreatedAt = time.Now()
	f.messages[item.ID] = item
	return nil
}

func (f *fakeStore) GetMessage(_ context.Context, id string) (store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.messages[id]
	if !ok {
		return store.Message{}, content.ErrNotFound
	}
	return *item, nil
}

func (f *fakeStore) ListMessages(_ context.Context, unreadOnly bool) ([]store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []store.Message
	for _, m := range f.messages {
		if unreadOnly && m.Read {
			continue
		}
		items = append(items, *m)
	}
	return items, nil
}

func (f *fakeStore) MarkMessageRead(_ context.Context, id string, read bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.messages[id]
	if !ok {
		return content.ErrNotFound
	}
	item.Read = read
	return nil
}

func (f *fakeStore) DeleteMessage(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.messages, id)
	return nil
}

func (f *fakeStore) UnreadMessageCount(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, m := range f.messages {
		if !m.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ListSkills(_ context.Context, category string) ([]store.Skill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []store.Skill
	for _, s := range f.skills {
		if category != "" && s.Category != category {
			continue
		}
		items = append(items, *s)
	}
	return items, nil
}

func (f *fakeStore) GetSkill(_ context.Context, id string) (store.Skill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.skills[id]
	if !ok {
		return store.Skill{}, content.ErrNotFound
	}
	return *item, nil
}

func (f *fakeStore) InsertSkill(_ context.Context, item *store.Skill) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item.ID == "" {
		item.ID = util.NewID("skl")
	}
	f.skills[item.ID] = item
	return nil
}

func (f *fakeStore) UpdateSkill(_ context.Context, item *store.Skill) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.skills[item.ID]; !ok {
		return content.ErrNotFound
	}
	f.skills[item.ID] = item
	return nil
}

func (f *fakeStore) DeleteSkill(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.skills, id)
	return nil
}

func (f *fakeStore) ListExperiences(_ context.Context) ([]store.Experience, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []store.Experience
	for _, e := range f.experiences {
		items = append(items, *e)
	}
	return items, nil
}

func (f *fakeStore) GetExperience(_ context.Context, id string) (store.Experience, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.experiences[id]
	if !ok {
		return store.Experience{}, content.ErrNotFound
	}
	return *item, nil
}

func (f *fakeStore) InsertExperience(_ context.Context, item *store.Experience) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item.ID == "" {
		item.ID = util.NewID("exp")
	}
	f.experiences[item.ID] = item
	return nil
}

func (f *fakeStore) UpdateExperience(_ context.Context, item *store.Experience) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.experiences[item.ID]; !ok {
		return content.ErrNotFound
	}
	f.experiences[item.ID] = item
	return nil
}

func (f *fakeStore) DeleteExperience(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.experiences, id)
	return nil
}

func (f *fakeStore) SaveRefreshSession(_ context.Context, tokenHash, userID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[tokenHash] = userID
	return nil
}

func (f *fakeStore) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	f.mu.Lock()
	userID, ok := f.sessions[tokenHash]
	f.mu.Unlock()
	if !ok {
		return store.User{}, content.ErrNotFound
	}
	return f.GetUserByID(ctx, userID)
}

func (f *fakeStore) RevokeRefreshSession(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, tokenHash)
	return nil
}

func (f *fakeStore) RevokeAccessToken(_ context.Context, jti string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokedJTIs[jti] = true
	return nil
}

func (f *fakeStore) IsAccessTokenRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revokedJTIs[jti], nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func testConfig() config.Config {
	return config.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 30 * 24 * time.Hour,
		AdminEmail: "admin@folio.local",
		AdminName:  "Admin",
	}
}

func newTestService(fs *fakeStore) *Service {
	return New(testConfig(), fs, authpw.NewService(fs), nil, jobs.NewDispatcher())
}

func TestNewWiresPlainTextRenderer(t *testing.T) {
	svc := newTestService(newFakeStore())
	if got := svc.text.PlainText("<p>hello <strong>world</strong></p>"); got != "hello world" {
		t.Errorf("PlainText() = %q, want %q", got, "hello world")
	}
}

func TestLoginAndSessionRoundTrip(t *testing.T) {
	fs := newFakeStore()
	admin := fs.seedUser(t, "admin@folio.local", "password123", "admin")
	svc := newTestService(fs)
	ctx := context.Background()

	session, err := svc.Login(ctx, "admin@folio.local", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if session.Token == "" || session.RefreshToken == "" {
		t.Fatal("expected access and refresh tokens")
	}
	if session.UserID != admin.ID || session.Role != "admin" {
		t.Errorf("session = %+v, want admin identity", session)
	}

	resolved, err := svc.SessionFromToken(ctx, session.Token)
	if err != nil {
		t.Fatalf("SessionFromToken() error = %v", err)
	}
	if resolved.UserID != admin.ID {
		t.Errorf("resolved user = %s, want %s", resolved.UserID, admin.ID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	fs := newFakeStore()
	fs.seedUser(t, "admin@folio.local", "password123", "admin")
	svc := newTestService(fs)

	_, err := svc.Login(context.Background(), "admin@folio.local", "wrong-password")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 401 {
		t.Errorf("Login() error = %v, want 401 DomainError", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	fs := newFakeStore()
	fs.seedUser(t, "admin@folio.local", "password123", "admin")
	svc := newTestService(fs)
	ctx := context.Background()

	first, err := svc.Login(ctx, "admin@folio.local", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	second, err := svc.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	// The consumed token must be dead.
	if _, err := svc.Refresh(ctx, first.RefreshToken); err == nil {
		t.Error("Refresh() with consumed token expected error")
	}
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	fs := newFakeStore()
	fs.seedUser(t, "admin@folio.local", "password123", "admin")
	svc := newTestService(fs)
	ctx := context.Background()

	session, err := svc.Login(ctx, "admin@folio.local", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := svc.Logout(ctx, session, session.RefreshToken); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.SessionFromToken(ctx, session.Token); err == nil {
		t.Error("SessionFromToken() after logout expected error")
	}
	if _, err := svc.Refresh(ctx, session.RefreshToken); err == nil {
		t.Error("Refresh() after logout expected error")
	}
}

func TestBootstrapSeedsAdminOnce(t *testing.T) {
	fs := newFakeStore()
	cfg := testConfig()
	cfg.AdminPassword = "bootstrap-password"
	svc := New(cfg, fs, authpw.NewService(fs), nil, jobs.NewDispatcher())
	ctx := context.Background()

	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if _, err := svc.Login(ctx, "admin@folio.local", "bootstrap-password"); err != nil {
		t.Fatalf("Login() with seeded account error = %v", err)
	}

	// A second run must not create another account.
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("second Bootstrap() error = %v", err)
	}
	if len(fs.users) != 1 {
		t.Errorf("user count = %d, want 1", len(fs.users))
	}
}

func TestCreateProjectStartsAsDraft(t *testing.T) {
	fs := newFakeStore()
	admin := fs.seedUser(t, "admin@folio.local", "password123", "admin")
	svc := newTestService(fs)
	viewer := rbac.Viewer{ID: admin.ID, Role: rbac.RoleAdmin}

	payload, err := svc.CreateProject(context.Background(), viewer, ProjectInput{
		Title:       "Side Project",
		Description: "A small tool",
	})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if payload["slug"] != "side-project" {
		t.Errorf("slug = %v, want side-project", payload["slug"])
	}
	if payload["published"] != false {
		t.Error("new project must be a draft")
	}
	if payload["publishedAt"] != (*time.Time)(nil) {
		t.Errorf("publishedAt = %v, want nil", payload["publishedAt"])
	}
}

func TestPublishProjectFlow(t *testing.T) {
	fs := newFakeStore()
	admin := fs.seedUser(t, "admin@folio.local", "password123", "admin")
	svc := newTestService(fs)
	viewer := rbac.Viewer{ID: admin.ID, Role: rbac.RoleAdmin}
	ctx := context.Background()

	created, err := svc.CreateProject(ctx, viewer, ProjectInput{Title: "Side Project", Description: "A small tool"})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	id := created["id"].(string)

	published, err := svc.PublishProject(ctx, viewer, id)
	if err != nil {
		t.Fatalf("PublishProject() error = %v", err)
	}
	if published["published"] != true {
		t.Error("project should be published")
	}

	// Now visible to anonymous listings.
	items, err := svc.ListProjects(ctx, rbac.Viewer{}, store.ProjectFilters{})
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("anonymous sees %d projects, want 1", len(items))
	}
}

func TestListProjectsScoping(t *testing.T) {
	fs := newFakeStore()
	admin := fs.seedUser(t, "admin@folio.local", "password123", "admin")
	svc := newTestService(fs)
	viewer := rbac.Viewer{ID: admin.ID, Role: rbac.RoleAdmin}
	ctx := context.Background()

	if _, err := svc.CreateProject(ctx, viewer, ProjectInput{Title: "Draft One", Description: "d"}); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	created, err := svc.CreateProject(ctx, viewer, ProjectInput{Title: "Live One", Description: "d"})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if _, err := svc.PublishProject(ctx, viewer, created["id"].(string)); err != nil {
		t.Fatalf("PublishProject() error = %v", err)
	}

	anonItems, err := svc.ListProjects(ctx, rbac.Viewer{}, store.ProjectFilters{})
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(anonItems) != 1 {
		t.Errorf("anonymous sees %d projects, want 1", len(anonItems))
	}

	adminItems, err := svc.ListProjects(ctx, viewer, store.ProjectFilters{})
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(adminItems) != 2 {
		t.Errorf("admin sees %d projects, want 2", len(adminItems))
	}
}

func TestSubmitMessageDispatchesNotification(t *testing.T) {
	fs := newFakeStore()
	dispatcher := jobs.NewDispatcher()

	var mu sync.Mutex
	var notified []content.Intent
	dispatcher.Register(content.IntentContactNotification, func(_ context.Context, intent content.Intent) error {
		mu.Lock()
		defer mu.Unlock()
		notified = append(notified, intent)
		return nil
	})

	svc := New(testConfig(), fs, authpw.NewService(fs), nil, dispatcher)

	payload, err := svc.SubmitMessage(context.Background(), rbac.Viewer{}, MessageInput{
		Name:    "Jane Visitor",
		Email:   "jane@visitor.example",
		Subject: "Hello",
		Body:    "I would like to talk about a project.",
	})
	if err != nil {
		t.Fatalf("SubmitMessage() error = %v", err)
	}
	dispatcher.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(notified) != 1 || notified[0].ItemID != payload["id"] {
		t.Errorf("notified = %v, want one intent for %v", notified, payload["id"])
	}
}

func TestSubmitMessageValidation(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	_, err := svc.SubmitMessage(context.Background(), rbac.Viewer{}, MessageInput{
		Name:    "",
		Email:   "not-an-email",
		Subject: "",
		Body:    "short",
	})
	var validationErr *content.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("SubmitMessage() error = %v, want *ValidationError", err)
	}
	for _, field := range []string{"name", "email", "subject", "body"} {
		if len(validationErr.Fields[field]) == 0 {
			t.Errorf("expected validation errors for %q, got %v", field, validationErr.Fields)
		}
	}
	if len(fs.messages) != 0 {
		t.Error("invalid message must not be persisted")
	}
}

func TestMessageManagementIsAdminOnly(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)
	editor := rbac.Viewer{ID: "usr_editor", Role: rbac.RoleEditor}
	ctx := context.Background()

	if _, err := svc.ListMessages(ctx, editor, false); !errors.Is(err, content.ErrUnauthorized) {
		t.Errorf("ListMessages() error = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.GetMessage(ctx, editor, "msg_1"); !errors.Is(err, content.ErrUnauthorized) {
		t.Errorf("GetMessage() error = %v, want ErrUnauthorized", err)
	}
	if err := svc.MarkMessageRead(ctx, editor, "msg_1", true); !errors.Is(err, content.ErrUnauthorized) {
		t.Errorf("MarkMessageRead() error = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.UnreadMessageCount(ctx, editor); !errors.Is(err, content.ErrUnauthorized) {
		t.Errorf("UnreadMessageCount() error = %v, want ErrUnauthorized", err)
	}
}

func TestUnreadMessageFlow(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)
	admin := rbac.Viewer{ID: "usr_admin", Role: rbac.RoleAdmin}
	ctx := context.Background()

	payload, err := svc.SubmitMessage(ctx, rbac.Viewer{}, MessageInput{
		Name:    "Jane Visitor",
		Email:   "jane@visitor.example",
		Subject: "Hello",
		Body:    "I would like to talk about a project.",
	})
	if err != nil {
		t.Fatalf("SubmitMessage() error = %v", err)
	}

	count, err := svc.UnreadMessageCount(ctx, admin)
	if err != nil {
		t.Fatalf("UnreadMessageCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("unread count = %d, want 1", count)
	}

	if err := svc.MarkMessageRead(ctx, admin, payload["id"].(string), true); err != nil {
		t.Fatalf("MarkMessageRead() error = %v", err)
	}
	count, err = svc.UnreadMessageCount(ctx, admin)
	if err != nil {
		t.Fatalf("UnreadMessageCount() error = %v", err)
	}
	if count != 0 {
		t.Errorf("unread count = %d, want 0", count)
	}
}

func TestSkillManagementIsAdminOnly(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)
	editor := rbac.Viewer{ID: "usr_editor", Role: rbac.RoleEditor}

	if _, err := svc.CreateSkill(context.Background(), editor, SkillInput{Name: "Go", Category: "Backend"}); !errors.Is(err, content.ErrUnauthorized) {
		t.Errorf("CreateSkill() error = %v, want ErrUnauthorized", err)
	}
}

func TestCreateSkillValidation(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)
	admin := rbac.Viewer{ID: "usr_admin", Role: rbac.RoleAdmin}

	_, err := svc.CreateSkill(context.Background(), admin, SkillInput{
		Name:        "",
		Category:    "Witchcraft",
		Proficiency: 9,
	})
	var validationErr *content.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("CreateSkill() error = %v, want *ValidationError", err)
	}
	for _, field := range []string{"name", "category", "proficiency"} {
		if len(validationErr.Fields[field]) == 0 {
			t.Errorf("expected validation errors for %q, got %v", field, validationErr.Fields)
		}
	}
}

func TestExperienceManagement(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)
	admin := rbac.Viewer{ID: "usr_admin", Role: rbac.RoleAdmin}
	ctx := context.Background()

	payload, err := svc.CreateExperience(ctx, admin, ExperienceInput{
		Company:   "Acme",
		Role:      "Engineer",
		StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Current:   true,
	})
	if err != nil {
		t.Fatalf("CreateExperience() error = %v", err)
	}
	if payload["current"] != true {
		t.Error("experience should be current")
	}
	if payload["durationText"] == "" {
		t.Error("expected a derived duration")
	}

	if _, err := svc.CreateExperience(ctx, rbac.Viewer{ID: "usr_editor", Role: rbac.RoleEditor}, ExperienceInput{
		Company:   "Acme",
		Role:      "Engineer",
		StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}); !errors.Is(err, content.ErrUnauthorized) {
		t.Errorf("CreateExperience() error = %v, want ErrUnauthorized", err)
	}
}

func TestGetProjectHidesDraftsFromAnonymous(t *testing.T) {
	fs := newFakeStore()
	admin := fs.seedUser(t, "admin@folio.local", "password123", "admin")
	svc := newTestService(fs)
	viewer := rbac.Viewer{ID: admin.ID, Role: rbac.RoleAdmin}
	ctx := context.Background()

	if _, err := svc.CreateProject(ctx, viewer, ProjectInput{Title: "Secret", Description: "d"}); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	if _, err := svc.GetProject(ctx, rbac.Viewer{}, "secret"); !errors.Is(err, content.ErrNotFound) {
		t.Errorf("GetProject() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetProject(ctx, viewer, "secret"); err != nil {
		t.Errorf("owner GetProject() error = %v", err)
	}
}

func TestRenamedPostReachableByOldSlug(t *testing.T) {
	fs := newFakeStore()
	admin := fs.seedUser(t, "admin@folio.local", "password123", "admin")
	svc := newTestService(fs)
	viewer := rbac.Viewer{ID: admin.ID, Role: rbac.RoleAdmin}
	ctx := context.Background()

	created, err := svc.CreatePost(ctx, viewer, PostInput{Title: "My First Post", Content: "<p>hello world</p>"})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	id := created["id"].(string)
	if _, err := svc.PublishPost(ctx, viewer, id); err != nil {
		t.Fatalf("PublishPost() error = %v", err)
	}

	if _, err := svc.UpdatePost(ctx, viewer, id, PostInput{Title: "My Renamed Post", Content: "<p>hello world</p>"}); err != nil {
		t.Fatalf("UpdatePost() error = %v", err)
	}

	payload, err := svc.GetPost(ctx, rbac.Viewer{}, "my-first-post")
	if err != nil {
		t.Fatalf("GetPost(old slug) error = %v", err)
	}
	if payload["slug"] != "my-renamed-post" {
		t.Errorf("slug = %v, want my-renamed-post", payload["slug"])
	}
}
