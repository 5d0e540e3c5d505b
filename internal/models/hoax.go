package models

// Hoax is a short post authored by a user. Timestamp holds unix milliseconds
// assigned by the server.
type Hoax struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Content   string `gorm:"type:text;not null" json:"content"`
	Timestamp int64  `gorm:"not null" json:"timestamp"`
	UserID    uint   `gorm:"not null;index" json:"-"`

	User           User            `gorm:"foreignKey:UserID" json:"user"`
	FileAttachment *FileAttachment `gorm:"foreignKey:HoaxID;constraint:OnDelete:CASCADE" json:"fileAttachment,omitempty"`
}
