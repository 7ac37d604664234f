package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"folio/api/internal/auth"
	"folio/api/internal/content"
	"folio/api/internal/rbac"
	"folio/api/internal/search"
	"folio/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withMiddleware)

	r.Get("/api/health", s.handleHealth)
	r.Head("/api/health", s.handleHealth)
	r.Get("/api/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/auth/session", s.handleSession)

		r.Get("/profile", s.handleGetProfile)

		r.Get("/projects", s.handleListProjects)
		r.Get("/projects/{slug}", s.handleGetProject)
		r.Get("/posts", s.handleListPosts)
		r.Get("/posts/{slug}", s.handleGetPost)
		r.Get("/skills", s.handleListSkills)
		r.Get("/experiences", s.handleListExperiences)
		r.Get("/search", s.handleSearch)

		r.Post("/messages", s.handleSubmitMessage)

		// Authenticated management surface. Each operation still runs its
		// own policy check; this gate only rejects requests with no valid
		// session at all.
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Put("/profile", s.handleUpdateProfile)
			r.Post("/auth/password", s.handleChangePassword)

			r.Post("/projects", s.handleCreateProject)
			r.Put("/projects/{id}", s.handleUpdateProject)
			r.Delete("/projects/{id}", s.handleDeleteProject)
			r.Post("/projects/{id}/publish", s.handlePublishProject)
			r.Post("/projects/{id}/unpublish", s.handleUnpublishProject)

			r.Post("/posts", s.handleCreatePost)
			r.Put("/posts/{id}", s.handleUpdatePost)
			r.Delete("/posts/{id}", s.handleDeletePost)
			r.Post("/posts/{id}/publish", s.handlePublishPost)
			r.Post("/posts/{id}/unpublish", s.handleUnpublishPost)

			r.Post("/skills", s.handleCreateSkill)
			r.Put("/skills/{id}", s.handleUpdateSkill)
			r.Delete("/skills/{id}", s.handleDeleteSkill)

			r.Post("/experiences", s.handleCreateExperience)
			r.Put("/experiences/{id}", s.handleUpdateExperience)
			r.Delete("/experiences/{id}", s.handleDeleteExperience)

			r.Get("/messages", s.handleListMessages)
			r.Get("/messages/unread-count", s.handleUnreadMessageCount)
			r.Get("/messages/{id}", s.handleGetMessage)
			r.Post("/messages/{id}/read", s.handleMarkMessageRead)
			r.Delete("/messages/{id}", s.handleDeleteMessage)
		})
	})

	return r
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	session, err := s.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(session, true))
}

func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	session, err := s.service.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(session, true))
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	session := Session{}
	if token := bearerToken(r); token != "" {
		if parsed, err := s.service.SessionFromToken(r.Context(), token); err == nil {
			session = parsed
		}
	}
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = decodeBody(r, &body)
	_ = s.service.Logout(r.Context(), session, body.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	payload := sessionPayload(session, false)
	payload["authenticated"] = true
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := s.service.ChangePassword(r.Context(), session, body.CurrentPassword, body.NewPassword); err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	payload, err := s.service.Profile(r.Context())
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	var input ProfileInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	payload, err := s.service.UpdateProfile(r.Context(), session, input)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleListProjects(w http.ResponseWriter, r *http.Request) {
	viewer := s.viewerFromRequest(r)
	filters := store.ProjectFilters{
		Technology:   strings.TrimSpace(r.URL.Query().Get("technology")),
		FeaturedOnly: r.URL.Query().Get("featured") == "true",
	}
	payloads, err := s.service.ListProjects(r.Context(), viewer, filters)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": payloads})
}

func (s *HTTPServer) handleGetProject(w http.ResponseWriter, r *http.Request) {
	viewer := s.viewerFromRequest(r)
	payload, err := s.service.GetProject(r.Context(), viewer, chi.URLParam(r, "slug"))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	var input ProjectInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	payload, err := s.service.CreateProject(r.Context(), session.Viewer(), input)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (s *HTTPServer) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	var input ProjectInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	payload, err := s.service.UpdateProject(r.Context(), session.Viewer(), chi.URLParam(r, "id"), input)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if err := s.service.DeleteProject(r.Context(), session.Viewer(), chi.URLParam(r, "id")); err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handlePublishProject(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	payload, err := s.service.PublishProject(r.Context(), session.Viewer(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleUnpublishProject(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	payload, err := s.service.UnpublishProject(r.Context(), session.Viewer(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleListPosts(w http.ResponseWriter, r *http.Request) {
	viewer := s.viewerFromRequest(r)
	payloads, err := s.service.ListPosts(r.Context(), viewer)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": payloads})
}

func (s *HTTPServer) handleGetPost(w http.ResponseWriter, r *http.Request) {
	viewer := s.viewerFromRequest(r)
	payload, err := s.service.GetPost(r.Context(), viewer, chi.URLParam(r, "slug"))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	var input PostInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	payload, err := s.service.CreatePost(r.Context(), session.Viewer(), input)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (s *HTTPServer) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	var input PostInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	payload, err := s.service.UpdatePost(r.Context(), session.Viewer(), chi.URLParam(r, "id"), input)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if err := s.service.DeletePost(r.Context(), session.Viewer(), chi.URLParam(r, "id")); err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handlePublishPost(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	payload, err := s.service.PublishPost(r.Context(), session.Viewer(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleUnpublishPost(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	payload, err := s.service.UnpublishPost(r.Context(), session.Viewer(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleListSkills(w http.ResponseWriter, r *http.Request) {
	payloads, err := s.service.ListSkills(r.Context(), strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"skills": payloads})
}

func (s *HTTPServer) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	var input SkillInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	payload, err := s.service.CreateSkill(r.Context(), session.Viewer(), input)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (s *HTTPServer) handleUpdateSkill(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	var input SkillInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	payload, err := s.service.UpdateSkill(r.Context(), session.Viewer(), chi.URLParam(r, "id"), input)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if err := s.service.DeleteSkill(r.Context(), session.Viewer(), chi.URLParam(r, "id")); err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleListExperiences(w http.ResponseWriter, r *http.Request) {
	payloads, err := s.service.ListExperiences(r.Context())
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"experiences": payloads})
}

func (s *HTTPServer) handleCreateExperience(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	var input ExperienceInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	payload, err := s.service.CreateExperience(r.Context(), session.Viewer(), input)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (s *HTTPServer) handleUpdateExperience(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	var input ExperienceInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	payload, err := s.service.UpdateExperience(r.Context(), session.Viewer(), chi.URLParam(r, "id"), input)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleDeleteExperience(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if err := s.service.DeleteExperience(r.Context(), session.Viewer(), chi.URLParam(r, "id")); err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	viewer := s.viewerFromRequest(r)
	var input MessageInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	payload, err := s.service.SubmitMessage(r.Context(), viewer, input)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (s *HTTPServer) handleListMessages(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	unreadOnly := r.URL.Query().Get("unread") == "true"
	payloads, err := s.service.ListMessages(r.Context(), session.Viewer(), unreadOnly)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": payloads})
}

func (s *HTTPServer) handleUnreadMessageCount(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	count, err := s.service.UnreadMessageCount(r.Context(), session.Viewer())
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

func (s *HTTPServer) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	payload, err := s.service.GetMessage(r.Context(), session.Viewer(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleMarkMessageRead(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	var body struct {
		Read *bool `json:"read"`
	}
	_ = decodeBody(r, &body)
	read := true
	if body.Read != nil {
		read = *body.Read
	}
	if err := s.service.MarkMessageRead(r.Context(), session.Viewer(), chi.URLParam(r, "id"), read); err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if err := s.service.DeleteMessage(r.Context(), session.Viewer(), chi.URLParam(r, "id")); err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := search.Query{
		Text:       strings.TrimSpace(r.URL.Query().Get("q")),
		FilterType: search.ResultType(strings.TrimSpace(r.URL.Query().Get("type"))),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
			return
		}
		q.Limit = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be an integer", nil)
			return
		}
		q.Offset = parsed
	}
	writeJSON(w, http.StatusOK, s.service.Search(q))
}

// viewerFromRequest derives the viewer on public routes where a session is
// optional. An invalid or missing token means an anonymous viewer, never an
// error.
func (s *HTTPServer) viewerFromRequest(r *http.Request) rbac.Viewer {
	token := bearerToken(r)
	if token == "" {
		return rbac.Viewer{}
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		return rbac.Viewer{}
	}
	return session.Viewer()
}

type sessionKey struct{}

func sessionFromContext(ctx context.Context) Session {
	session, _ := ctx.Value(sessionKey{}).(Session)
	return session
}

// requireSession rejects requests without a valid access token and stores
// the session on the request context.
func (s *HTTPServer) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return
		}
		session, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, content.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
				return
			}
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, session)))
	})
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		if r.Method == http.MethodOptions {
			writer.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func sessionPayload(session Session, includeTokens bool) map[string]any {
	payload := map[string]any{
		"userId": session.UserID,
		"email":  session.Email,
		"name":   session.Name,
		"role":   session.Role,
	}
	if includeTokens {
		payload["token"] = session.Token
		payload["refreshToken"] = session.RefreshToken
	}
	return payload
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func (s *HTTPServer) writeMappedError(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	writeError(w, status, code, message, details)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var validationErr *content.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", validationErr.Fields
	}
	if errors.Is(err, content.ErrNotFound) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, content.ErrUnauthorized) {
		return http.StatusForbidden, "FORBIDDEN", "Forbidden", nil
	}
	if errors.Is(err, content.ErrConflictRetryExhausted) {
		return http.StatusConflict, "CONFLICT", "Conflicting concurrent update, retry", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
