package models

import "github.com/google/uuid"

// Group is a collaborative outfit-sharing circle. The invite code is stable
// for the group's lifetime and is only shown to members.
type Group struct {
	BaseModel
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	CreatorID   uuid.UUID `json:"creatorID" gorm:"type:uuid;not null;index"`
	InviteCode  string    `json:"inviteCode" gorm:"type:varchar(16);uniqueIndex;not null"`

	Creator     User              `json:"-" gorm:"foreignKey:CreatorID;references:ID"`
	Memberships []GroupMembership `json:"-" gorm:"foreignKey:GroupID"`
}
