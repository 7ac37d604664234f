package authpw

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"folio/api/internal/content"
	"folio/api/internal/store"
)

type fakeUserStore struct {
	byEmail map[string]store.User
	byID    map[string]store.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: map[string]store.User{},
		byID:    map[string]store.User{},
	}
}

func (f *fakeUserStore) add(t *testing.T, email, password, role string) store.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := store.User{
		ID:           "usr_" + email,
		Email:        email,
		Name:         "Test User",
		PasswordHash: string(hash),
		Role:         role,
	}
	f.byEmail[email] = user
	f.byID[user.ID] = user
	return user
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return store.User{}, content.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return store.User{}, content.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) CreateUser(_ context.Context, user store.User) (store.User, error) {
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeUserStore) UpdateUserPassword(_ context.Context, userID, passwordHash string) error {
	user, ok := f.byID[userID]
	if !ok {
		return content.ErrNotFound
	}
	user.PasswordHash = passwordHash
	f.byID[userID] = user
	f.byEmail[user.Email] = user
	return nil
}

func TestSignUp(t *testing.T) {
	users := newFakeUserStore()
	svc := NewService(users)

	created, err := svc.SignUp(context.Background(), "  Admin@Example.com ", "Admin", "password123", "admin")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if created.Email != "admin@example.com" {
		t.Errorf("email = %q, want lowercased trimmed", created.Email)
	}
	if !strings.HasPrefix(created.ID, "usr_") {
		t.Errorf("id = %q, want usr_ prefix", created.ID)
	}
	if created.PasswordHash == "password123" {
		t.Error("password stored unhashed")
	}
	if _, err := users.GetUserByEmail(context.Background(), "admin@example.com"); err != nil {
		t.Errorf("created user not persisted: %v", err)
	}
}

func TestSignUpRejections(t *testing.T) {
	users := newFakeUserStore()
	users.add(t, "taken@example.com", "password123", "editor")
	svc := NewService(users)

	tests := []struct {
		name     string
		email    string
		userName string
		password string
	}{
		{"short password", "new@example.com", "New", "short"},
		{"missing email", "", "New", "password123"},
		{"missing name", "new@example.com", "  ", "password123"},
		{"duplicate email", "taken@example.com", "New", "password123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SignUp(context.Background(), tt.email, tt.userName, tt.password, "editor"); err == nil {
				t.Error("SignUp() expected error")
			}
		})
	}
}

func TestSignIn(t *testing.T) {
	users := newFakeUserStore()
	users.add(t, "admin@example.com", "password123", "admin")
	svc := NewService(users)

	user, err := svc.SignIn(context.Background(), "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if user.Role != "admin" {
		t.Errorf("role = %q, want admin", user.Role)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "admin@example.com", "wrong-password"},
		{"unknown email", "nobody@example.com", "password123"},
		{"empty password", "admin@example.com", ""},
		{"empty email", "", "password123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SignIn(context.Background(), tt.email, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("SignIn() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestChangePassword(t *testing.T) {
	users := newFakeUserStore()
	user := users.add(t, "admin@example.com", "password123", "admin")
	svc := NewService(users)

	if err := svc.ChangePassword(context.Background(), user.ID, "wrong-password", "newpassword1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("ChangePassword() error = %v, want ErrInvalidCredentials", err)
	}
	if err := svc.ChangePassword(context.Background(), user.ID, "password123", "short"); err == nil {
		t.Error("ChangePassword() expected error for short password")
	}

	if err := svc.ChangePassword(context.Background(), user.ID, "password123", "newpassword1"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	if _, err := svc.SignIn(context.Background(), "admin@example.com", "newpassword1"); err != nil {
		t.Errorf("SignIn() with new password error = %v", err)
	}
	if _, err := svc.SignIn(context.Background(), "admin@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("SignIn() with old password error = %v, want ErrInvalidCredentials", err)
	}
}
