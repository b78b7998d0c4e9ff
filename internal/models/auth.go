package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"     json:"id"`
	Username       string     `gorm:"uniqueIndex;not null"     json:"username"`
	PasswordHash   string     `gorm:"not null"                 json:"-"`
	Role           string     `gorm:"not null"                 json:"role"`
	ForcedLogoutAt *time.Time `                                json:"forced_logout_at,omitempty"`
	CreatedAt      time.Time  `                                json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"           json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null" json:"jti"`
	TokenHash string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt int64     `gorm:"not null"             json:"expires_at"`
	Revoked   bool      `gorm:"not null"             json:"revoked"`
	CreatedAt time.Time `                            json:"created_at"`
}

// AdminLink is a one-time login link issued by an admin for a user.
type AdminLink struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"      json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null"  json:"user_id"`
	IssuedBy  uuid.UUID  `gorm:"type:uuid;not null"        json:"issued_by"`
	TokenHash string     `gorm:"uniqueIndex;not null"      json:"-"`
	ExpiresAt time.Time  `gorm:"not null"                  json:"expires_at"`
	UsedAt    *time.Time `                                 json:"used_at,omitempty"`
	CreatedAt time.Time  `                                 json:"created_at"`
}

func (a *AdminLink) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
