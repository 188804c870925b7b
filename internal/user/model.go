package user

import (
	"time"

	"github.com/google/uuid"
)

// Theme values accepted by the preferences endpoint
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// ValidTheme reports whether s is one of the supported theme values
func ValidTheme(s string) bool {
	return s == ThemeLight || s == ThemeDark || s == ThemeSystem
}

// EmailNotifications holds the per-category notification flags
type EmailNotifications struct {
	AccountUpdates bool `json:"accountUpdates"`
	SecurityAlerts bool `json:"securityAlerts"`
	Newsletters    bool `json:"newsletters"`
	Tips           bool `json:"tips"`
}

// Preferences is the structured preference block stored per user
type Preferences struct {
	EmailNotifications EmailNotifications `json:"emailNotifications"`
	Theme              string             `json:"theme"`
	Language           string             `json:"language"`
}

// DefaultPreferences is what a user sees before ever saving preferences
func DefaultPreferences() Preferences {
	return Preferences{
		EmailNotifications: EmailNotifications{
			AccountUpdates: true,
			SecurityAlerts: true,
			Newsletters:    false,
			Tips:           false,
		},
		Theme:    ThemeSystem,
		Language: "en",
	}
}

type User struct {
	ID           uuid.UUID    `json:"id"`
	Email        string       `json:"email"`
	Name         *string      `json:"name"`
	PasswordHash string       `json:"-"` // Never expose password hash in JSON
	Bio          *string      `json:"bio"`
	Location     *string      `json:"location"`
	Website      *string      `json:"website"`
	Preferences  *Preferences `json:"-"` // nil until the user saves preferences
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// SafeUser is the projection returned by the API: everything except the
// password hash and the preference block (which has its own endpoints).
type SafeUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Bio       *string   `json:"bio"`
	Location  *string   `json:"location"`
	Website   *string   `json:"website"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Safe strips the sensitive fields for API responses
func (u *User) Safe() SafeUser {
	return SafeUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Bio:       u.Bio,
		Location:  u.Location,
		Website:   u.Website,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// EffectivePreferences returns the stored block, or the defaults when the
// user never saved one
func (u *User) EffectivePreferences() Preferences {
	if u.Preferences != nil {
		return *u.Preferences
	}
	return DefaultPreferences()
}

// DisplayName returns the name or an empty string when unset
func (u *User) DisplayName() string {
	if u.Name != nil {
		return *u.Name
	}
	return ""
}
