package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelhrube/go-account-api/internal/logging"
	"github.com/pavelhrube/go-account-api/internal/user"
)

// fakeUserRepo is an in-memory credential store with the same uniqueness
// semantics as the real one (case-insensitive email, one winner per email)
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User // keyed by normalized email
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*user.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, email, name, passwordHash string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(email))
	if _, exists := f.users[key]; exists {
		return nil, user.ErrDuplicateEmail
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		Email:        key,
		Name:         &name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.users[key] = u
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, update user.ProfileUpdate) (*user.User, error) {
	f.mu.Lock()
	for _, u := range f.users {
		if u.ID == id {
			if update.Name != nil {
				u.Name = update.Name
			}
			if update.Bio != nil {
				u.Bio = update.Bio
			}
			if update.Location != nil {
				u.Location = update.Location
			}
			if update.Website != nil {
				u.Website = update.Website
			}
			u.UpdatedAt = time.Now()
			f.mu.Unlock()
			return u, nil
		}
	}
	f.mu.Unlock()
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) UpdatePreferences(_ context.Context, id uuid.UUID, prefs user.Preferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.ID == id {
			p := prefs
			u.Preferences = &p
			u.UpdatedAt = time.Now()
			return nil
		}
	}
	return user.ErrNotFound
}

func newTestService(repo UserRepository) *Service {
	return NewService(repo, logging.NewLogger(true))
}

func TestServiceRegister(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	u, err := svc.Register(context.Background(), "a@x.com", "Ann", "password1")
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", u.Email)
	require.NotNil(t, u.Name)
	assert.Equal(t, "Ann", *u.Name)

	// Stored hash verifies against the original password and is not the plaintext
	assert.NotEqual(t, "password1", u.PasswordHash)
	assert.True(t, VerifyPassword(u.PasswordHash, "password1"))
}

func TestServiceRegister_DuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), "a@x.com", "Ann", "password1")
	require.NoError(t, err)

	// Case-insensitive: A@X.COM collides with a@x.com
	_, err = svc.Register(context.Background(), "A@X.COM", "Ann Again", "password2")
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)

	assert.Len(t, repo.users, 1)
}

func TestServiceLogin(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	registered, err := svc.Register(context.Background(), "a@x.com", "Ann", "password1")
	require.NoError(t, err)

	u, err := svc.Login(context.Background(), "a@x.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)
}

func TestServiceLogin_IndistinguishableFailures(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), "a@x.com", "Ann", "password1")
	require.NoError(t, err)

	// Wrong password and unknown email produce the exact same error
	_, wrongPassword := svc.Login(context.Background(), "a@x.com", "password2")
	_, unknownEmail := svc.Login(context.Background(), "nobody@x.com", "password1")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}
