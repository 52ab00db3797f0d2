package models

import "github.com/google/uuid"

// GroupMembership is one (group, user) pair. The composite unique index is
// what makes join idempotent: a concurrent double-submit resolves to a
// single row via insert-or-ignore.
type GroupMembership struct {
	BaseModel
	GroupID uuid.UUID `json:"groupID" gorm:"type:uuid;not null;index;uniqueIndex:idx_group_member"`
	UserID  uuid.UUID `json:"userID" gorm:"type:uuid;not null;index;uniqueIndex:idx_group_member"`

	Group Group `json:"-" gorm:"foreignKey:GroupID"`
	User  User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
