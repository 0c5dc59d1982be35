package models

import (
	"time"

	"gorm.io/gorm"
)

// Role groups users by their function in the clinic: patient, doctor,
// receptionist or admin. Abilities attach through the role_permissions join
// table rather than being hardcoded per role.
type Role struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"unique"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
	Permissions []Permission   `json:"permissions,omitempty" gorm:"many2many:role_permissions;"`
}
