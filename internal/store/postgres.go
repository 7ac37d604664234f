package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"folio/api/internal/content"
	"folio/api/internal/util"
)

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, role, bio, tagline, avatar_key,
			github_url, linkedin_url, twitter_url, created_at, updated_at
		FROM users
		WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Role,
		&user.Bio, &user.Tagline, &user.AvatarKey,
		&user.GithubURL, &user.LinkedinURL, &user.TwitterURL,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, content.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, role, bio, tagline, avatar_key,
			github_url, linkedin_url, twitter_url, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Role,
		&user.Bio, &user.Tagline, &user.AvatarKey,
		&user.GithubURL, &user.LinkedinURL, &user.TwitterURL,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, content.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	if user.ID == "" {
		user.ID = util.NewID("usr")
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, bio, tagline, avatar_key,
			github_url, linkedin_url, twitter_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, user.ID, user.Email, user.Name, user.PasswordHash, user.Role, user.Bio,
		user.Tagline, user.AvatarKey, user.GithubURL, user.LinkedinURL, user.TwitterURL,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) UpdateUserProfile(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name=$2, bio=$3, tagline=$4, avatar_key=$5,
			github_url=$6, linkedin_url=$7, twitter_url=$8, updated_at=NOW()
		WHERE id=$1
	`, user.ID, user.Name, user.Bio, user.Tagline, user.AvatarKey,
		user.GithubURL, user.LinkedinURL, user.TwitterURL)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1
	`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	return nil
}

// FirstAdminEmail returns the oldest admin account's email, or "" when no
// admin exists yet.
func (s *PostgresStore) FirstAdminEmail(ctx context.Context) (string, error) {
	var email string
	err := s.db.QueryRowContext(ctx, `
		SELECT email FROM users WHERE role='admin' ORDER BY created_at ASC LIMIT 1
	`).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("first admin email: %w", err)
	}
	return email, nil
}

func (s *PostgresStore) InsertMessage(ctx context.Context, item *Message) error {
	if item.ID == "" {
		item.ID = util.NewID("msg")
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO messages (id, name, email, subject, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, item.ID, item.Name, item.Email, item.Subject, item.Body).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetMessage(ctx context.Context, messageID string) (Message, error) {
	var item Message
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, subject, body, read, created_at, updated_at
		FROM messages
		WHERE id=$1
	`, messageID).Scan(
		&item.ID, &item.Name, &item.Email, &item.Subject, &item.Body,
		&item.Read, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, content.ErrNotFound
	}
	if err != nil {
		return Message{}, fmt.Errorf("get message: %w", err)
	}
	return item, nil
}

// ListMessages returns messages newest first. With unreadOnly set only
// unread ones are returned.
func (s *PostgresStore) ListMessages(ctx context.Context, unreadOnly bool) ([]Message, error) {
	query := `
		SELECT id, name, email, subject, body, read, created_at, updated_at
		FROM messages
	`
	if unreadOnly {
		query += ` WHERE NOT read`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]Message, 0)
	for rows.Next() {
		var item Message
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Email, &item.Subject, &item.Body,
			&item.Read, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) MarkMessageRead(ctx context.Context, messageID string, read bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE messages SET read=$2, updated_at=NOW() WHERE id=$1
	`, messageID, read)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return content.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteMessage(ctx context.Context, messageID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (s *PostgresStore) UnreadMessageCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE NOT read`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}

// ListSkills returns skills grouped for display: category, then proficiency
// descending. An empty category lists everything.
func (s *PostgresStore) ListSkills(ctx context.Context, category string) ([]Skill, error) {
	query := `
		SELECT id, user_id, name, category, proficiency, icon, created_at, updated_at
		FROM skills
	`
	args := []any{}
	if strings.TrimSpace(category) != "" {
		query += ` WHERE category=$1`
		args = append(args, category)
	}
	query += ` ORDER BY category ASC, proficiency DESC, name ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	items := make([]Skill, 0)
	for rows.Next() {
		var item Skill
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Name, &item.Category,
			&item.Proficiency, &item.Icon, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skills: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetSkill(ctx context.Context, skillID string) (Skill, error) {
	var item Skill
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, category, proficiency, icon, created_at, updated_at
		FROM skills
		WHERE id=$1
	`, skillID).Scan(
		&item.ID, &item.UserID, &item.Name, &item.Category,
		&item.Proficiency, &item.Icon, &item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Skill{}, content.ErrNotFound
	}
	if err != nil {
		return Skill{}, fmt.Errorf("get skill: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) InsertSkill(ctx context.Context, item *Skill) error {
	if item.ID == "" {
		item.ID = util.NewID("skl")
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO skills (id, user_id, name, category, proficiency, icon)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, item.ID, item.UserID, item.Name, item.Category, item.Proficiency, item.Icon,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert skill: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateSkill(ctx context.Context, item *Skill) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE skills
		SET name=$2, category=$3, proficiency=$4, icon=$5, updated_at=NOW()
		WHERE id=$1
	`, item.ID, item.Name, item.Category, item.Proficiency, item.Icon)
	if err != nil {
		return fmt.Errorf("update skill: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteSkill(ctx context.Context, skillID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM skills WHERE id=$1`, skillID); err != nil {
		return fmt.Errorf("delete skill: %w", err)
	}
	return nil
}

// ListExperiences returns experiences in reverse chronological order, with
// current positions first.
func (s *PostgresStore) ListExperiences(ctx context.Context) ([]Experience, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, company, role, location, description,
			start_date, end_date, current, created_at, updated_at
		FROM experiences
		ORDER BY current DESC, start_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list experiences: %w", err)
	}
	defer rows.Close()

	items := make([]Experience, 0)
	for rows.Next() {
		var item Experience
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Company, &item.Role, &item.Location,
			&item.Description, &item.StartDate, &item.EndDate, &item.Current,
			&item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan experience: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate experiences: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetExperience(ctx context.Context, experienceID string) (Experience, error) {
	var item Experience
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, company, role, location, description,
			start_date, end_date, current, created_at, updated_at
		FROM experiences
		WHERE id=$1
	`, experienceID).Scan(
		&item.ID, &item.UserID, &item.Company, &item.Role, &item.Location,
		&item.Description, &item.StartDate, &item.EndDate, &item.Current,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Experience{}, content.ErrNotFound
	}
	if err != nil {
		return Experience{}, fmt.Errorf("get experience: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) InsertExperience(ctx context.Context, item *Experience) error {
	if item.ID == "" {
		item.ID = util.NewID("exp")
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO experiences (id, user_id, company, role, location, description,
			start_date, end_date, current)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, item.ID, item.UserID, item.Company, item.Role, item.Location, item.Description,
		item.StartDate, item.EndDate, item.Current,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert experience: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateExperience(ctx context.Context, item *Experience) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE experiences
		SET company=$2, role=$3, location=$4, description=$5,
			start_date=$6, end_date=$7, current=$8, updated_at=NOW()
		WHERE id=$1
	`, item.ID, item.Company, item.Role, item.Location, item.Description,
		item.StartDate, item.EndDate, item.Current)
	if err != nil {
		return fmt.Errorf("update experience: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteExperience(ctx context.Context, experienceID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM experiences WHERE id=$1`, experienceID); err != nil {
		return fmt.Errorf("delete experience: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.email, u.name, u.role
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(&user.ID, &user.Email, &user.Name, &user.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, content.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup refresh session: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}
