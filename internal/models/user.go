package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleAdmin    = "ADMIN"
	RoleOperator = "OPERATOR"
	RoleCustomer = "CUSTOMER"
	RoleViewer   = "VIEWER"
)

// User represents an operator, customer or administrator. Operators may be
// bound to the workstation they work at.
type User struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Username      string         `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	PasswordHash  string         `json:"-" gorm:"type:varchar(255);not null"`
	Role          string         `json:"role" gorm:"type:varchar(20);not null;index"`
	WorkstationID *uint          `json:"workstationId,omitempty" gorm:"index"`
	IsActive      bool           `json:"isActive" gorm:"default:true;index"`
	LastLoginAt   *time.Time     `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}
