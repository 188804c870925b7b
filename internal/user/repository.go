package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/pavelhrube/go-account-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// ProfileUpdate is a partial update: nil fields are left untouched.
type ProfileUpdate struct {
	Name     *string
	Bio      *string
	Location *string
	Website  *string
}

// IsEmpty reports whether the update carries no fields at all
func (p ProfileUpdate) IsEmpty() bool {
	return p.Name == nil && p.Bio == nil && p.Location == nil && p.Website == nil
}

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// NormalizeEmail lowercases and trims an email so uniqueness and lookups are
// case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, email, name, passwordHash string) (*User, error) {
	dbUser := &database.User{
		Email:        NormalizeEmail(email),
		Name:         &name,
		PasswordHash: passwordHash,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser)
}

// GetByEmail retrieves a user by email (case-insensitive)
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("lower(email) = ?", NormalizeEmail(email)).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser)
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser)
}

// UpdateProfile applies a partial profile update. Only non-nil fields are
// written; the merged record is returned.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*User, error) {
	if update.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	q := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("updated_at = NOW()").
		Where("id = ?", id)

	if update.Name != nil {
		q = q.Set("name = ?", *update.Name)
	}
	if update.Bio != nil {
		q = q.Set("bio = ?", *update.Bio)
	}
	if update.Location != nil {
		q = q.Set("location = ?", *update.Location)
	}
	if update.Website != nil {
		q = q.Set("website = ?", *update.Website)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// UpdatePreferences replaces the stored preference block
func (r *Repository) UpdatePreferences(ctx context.Context, id uuid.UUID, prefs Preferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("preferences = ?", string(raw)).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) (*User, error) {
	u := &User{
		ID:           dbu.ID,
		Email:        dbu.Email,
		Name:         dbu.Name,
		PasswordHash: dbu.PasswordHash,
		Bio:          dbu.Bio,
		Location:     dbu.Location,
		Website:      dbu.Website,
		CreatedAt:    dbu.CreatedAt,
		UpdatedAt:    dbu.UpdatedAt,
	}

	if len(dbu.Preferences) > 0 {
		prefs := new(Preferences)
		if err := json.Unmarshal(dbu.Preferences, prefs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
		u.Preferences = prefs
	}

	return u, nil
}
