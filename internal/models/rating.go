package models

import "github.com/google/uuid"

// Rating holds one member's current 1-5 score for an outfit within a group.
// The unique triple makes a repeat rating an upsert: last write wins, no
// history. Aggregates are computed from the live rows on read, never cached.
type Rating struct {
	BaseModel
	GroupID  uuid.UUID `json:"groupID" gorm:"type:uuid;not null;index;uniqueIndex:idx_rating_group_outfit_rater"`
	OutfitID uuid.UUID `json:"outfitID" gorm:"type:uuid;not null;index;uniqueIndex:idx_rating_group_outfit_rater"`
	RaterID  uuid.UUID `json:"raterID" gorm:"type:uuid;not null;uniqueIndex:idx_rating_group_outfit_rater"`
	Value    int       `json:"value" gorm:"not null"`

	Group  Group  `json:"-" gorm:"foreignKey:GroupID"`
	Outfit Outfit `json:"-" gorm:"foreignKey:OutfitID"`
	Rater  User   `json:"-" gorm:"foreignKey:RaterID"`
}
