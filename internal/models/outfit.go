package models

import (
	"time"

	"github.com/google/uuid"
)

type OutfitCategory string

const (
	OutfitCategoryCasual      OutfitCategory = "casual"
	OutfitCategoryFormal      OutfitCategory = "formal"
	OutfitCategorySport       OutfitCategory = "sport"
	OutfitCategoryTraditional OutfitCategory = "traditional"
)

type OutfitSeason string

const (
	OutfitSeasonAll    OutfitSeason = "all"
	OutfitSeasonSpring OutfitSeason = "spring"
	OutfitSeasonSummer OutfitSeason = "summer"
	OutfitSeasonFall   OutfitSeason = "fall"
	OutfitSeasonWinter OutfitSeason = "winter"
)

func ValidOutfitCategory(value string) bool {
	switch OutfitCategory(value) {
	case OutfitCategoryCasual, OutfitCategoryFormal, OutfitCategorySport, OutfitCategoryTraditional:
		return true
	default:
		return false
	}
}

func ValidOutfitSeason(value string) bool {
	switch OutfitSeason(value) {
	case OutfitSeasonAll, OutfitSeasonSpring, OutfitSeasonSummer, OutfitSeasonFall, OutfitSeasonWinter:
		return true
	default:
		return false
	}
}

// Outfit is a privately owned wardrobe item. UsageCount only ever grows,
// through the atomic increment in the usage service.
type Outfit struct {
	BaseModel
	OwnerID    uuid.UUID      `json:"ownerID" gorm:"type:uuid;not null;index;uniqueIndex:idx_outfit_owner_name"`
	Name       string         `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:idx_outfit_owner_name"`
	Category   OutfitCategory `json:"category" gorm:"type:varchar(20);not null"`
	Season     OutfitSeason   `json:"season" gorm:"type:varchar(20);not null"`
	Color      string         `json:"color" gorm:"type:varchar(50);not null"`
	ImagePath  *string        `json:"-" gorm:"type:text"`
	UsageCount int64          `json:"usageCount" gorm:"not null;default:0"`
	LastUsedAt *time.Time     `json:"lastUsedAt,omitempty"`

	ImageURL string `json:"imageURL,omitempty" gorm:"-"`

	Owner User `json:"-" gorm:"foreignKey:OwnerID;references:ID"`
}
