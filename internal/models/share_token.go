package models

import (
	"time"

	"github.com/google/uuid"
)

// ShareToken grants anonymous read/clone access to one outfit until it
// expires or is revoked. The token value is the capability itself; it is
// never reused across outfits and several live tokens may point at the
// same outfit. Deleting the outfit invalidates tokens lazily: resolution
// checks that the subject still exists instead of fanning out deletes.
type ShareToken struct {
	BaseModel
	Token     string    `json:"-" gorm:"type:varchar(64);uniqueIndex;not null"`
	OutfitID  uuid.UUID `json:"outfitID" gorm:"type:uuid;not null;index"`
	IssuerID  uuid.UUID `json:"issuerID" gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null"`
	Revoked   bool      `json:"revoked" gorm:"not null;default:false"`

	Outfit Outfit `json:"-" gorm:"foreignKey:OutfitID;references:ID"`
	Issuer User   `json:"-" gorm:"foreignKey:IssuerID;references:ID"`
}

func (ShareToken) TableName() string {
	return "share_tokens"
}

// Live reports whether the token itself is still valid. The caller must
// separately verify the subject outfit still exists.
func (s *ShareToken) Live(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}
