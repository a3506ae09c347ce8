package models

import "gorm.io/gorm"

// Project groups issues and members under a single owner.
type Project struct {
	gorm.Model

	Name    string `gorm:"not null" json:"name"`
	OwnerID uint   `gorm:"not null;index" json:"owner_id"`

	// Relations. The owner is appended to Members at creation, so the
	// members list is always the full set of people with access.
	Owner   User    `json:"owner,omitempty"`
	Members []User  `gorm:"many2many:project_members" json:"members,omitempty"`
	Issues  []Issue `gorm:"foreignKey:ProjectID" json:"issues,omitempty"`
}

// IsOwner reports whether userID owns the project. Ownership grants
// invite, member removal and deletion; plain membership does not.
func (p *Project) IsOwner(userID uint) bool {
	return p.OwnerID == userID
}

// HasMember reports whether userID appears in the members set. Members
// must be preloaded.
func (p *Project) HasMember(userID uint) bool {
	for _, m := range p.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// CanAccess is the membership gate for project-scoped reads: the owner
// is implicitly authorized even if missing from the members set.
func (p *Project) CanAccess(userID uint) bool {
	return p.IsOwner(userID) || p.HasMember(userID)
}
