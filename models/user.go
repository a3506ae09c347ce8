package models

import "gorm.io/gorm"

// User represents a registered account. The password hash never leaves
// the server; the json tag strips it from every member listing.
type User struct {
	gorm.Model

	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Relations
	OwnedProjects []Project `gorm:"foreignKey:OwnerID" json:"owned_projects,omitempty"`
	Issues        []Issue   `gorm:"foreignKey:CreatedByID" json:"issues,omitempty"`
}
