package models

// User is a read-only view of the dashboard's user directory. The audit trail
// only needs it to resolve emails for display and for the user filter.
type User struct {
	Base
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	FullName string `json:"full_name"`
	Role     string `gorm:"size:32" json:"role"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}
