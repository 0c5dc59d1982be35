package models

import (
	"time"
)

type User struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	Name              string     `json:"name"`
	Email             string     `json:"email" gorm:"unique"`
	Password          string     `json:"password,omitempty"`
	IsVerified        bool       `json:"is_verified"`
	FailedAttempts    int        `json:"failed_attempts" gorm:"default:0;index:idx_users_lockout"`
	LockedUntil       *time.Time `json:"locked_until,omitempty" gorm:"index:idx_users_lockout"`
	PermanentlyLocked bool       `json:"permanently_locked" gorm:"default:false"`
	RoleID            uint       `json:"role_id"`
	Role              Role       `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IsLocked reports whether the account is currently unable to log in,
// either permanently or until LockedUntil passes.
func (u *User) IsLocked(now time.Time) bool {
	if u.PermanentlyLocked {
		return true
	}
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
