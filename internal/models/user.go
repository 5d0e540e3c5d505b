package models

// User is a registered account. New accounts start inactive until the
// activation token emailed at registration is redeemed.
type User struct {
	BaseModel

	Username string  `gorm:"size:32;not null" json:"username"`
	Email    string  `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password string  `gorm:"not null" json:"-"`
	Image    *string `json:"image"`

	Inactive           bool   `gorm:"default:true;index" json:"-"`
	ActivationToken    string `gorm:"size:64;index" json:"-"`
	PasswordResetToken string `gorm:"size:64;index" json:"-"`

	Tokens []Token `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Hoaxes []Hoax  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// ImageName returns the stored profile image filename or an empty string.
func (u *User) ImageName() string {
	if u == nil || u.Image == nil {
		return ""
	}
	return *u.Image
}
