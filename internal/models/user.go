package models

type User struct {
	BaseModel
	Username       string  `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	Email          string  `json:"email" gorm:"type:varchar(255);not null"`
	PasswordHash   string  `json:"-" gorm:"type:text;not null"`
	Gender         string  `json:"gender" gorm:"type:varchar(20);not null"`
	Phone          *string `json:"phone,omitempty" gorm:"type:varchar(30)"`
	ProfilePicPath *string `json:"-" gorm:"type:text"`

	ProfilePicURL string `json:"profilePicURL,omitempty" gorm:"-"`

	Outfits     []Outfit     `json:"-" gorm:"foreignKey:OwnerID"`
	ShareTokens []ShareToken `json:"-" gorm:"foreignKey:IssuerID"`
}
