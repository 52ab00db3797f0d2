package models

import "github.com/google/uuid"

// GroupShare records that a member exposed one of their outfits to a group.
// It is a read-only reference, never a copy. A sharer may share a given
// outfit into a group once; a different member may share the same outfit
// independently.
type GroupShare struct {
	BaseModel
	GroupID  uuid.UUID `json:"groupID" gorm:"type:uuid;not null;index;uniqueIndex:idx_group_outfit_sharer"`
	OutfitID uuid.UUID `json:"outfitID" gorm:"type:uuid;not null;index;uniqueIndex:idx_group_outfit_sharer"`
	SharerID uuid.UUID `json:"sharerID" gorm:"type:uuid;not null;uniqueIndex:idx_group_outfit_sharer"`

	Group  Group  `json:"-" gorm:"foreignKey:GroupID"`
	Outfit Outfit `json:"-" gorm:"foreignKey:OutfitID"`
	Sharer User   `json:"-" gorm:"foreignKey:SharerID"`
}

func (GroupShare) TableName() string {
	return "group_shares"
}
