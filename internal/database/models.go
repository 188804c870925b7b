package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the bun row model for the users table. The domain model lives in
// internal/user; repositories map between the two.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID       `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email        string          `bun:"email,notnull,unique"`
	Name         *string         `bun:"name"`
	PasswordHash string          `bun:"password_hash,notnull"`
	Bio          *string         `bun:"bio"`
	Location     *string         `bun:"location"`
	Website      *string         `bun:"website"`
	Preferences  json.RawMessage `bun:"preferences,type:jsonb,nullzero"`
	CreatedAt    time.Time       `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time       `bun:"updated_at,notnull,default:current_timestamp"`
}
