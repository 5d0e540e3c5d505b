package models

import (
	"time"

	"gorm.io/gorm"
)

// FileAttachment is an uploaded file. It is orphaned until a hoax claims it
// through HoaxID.
type FileAttachment struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename   string    `gorm:"size:255;not null" json:"filename"`
	UploadDate time.Time `gorm:"not null;index" json:"-"`
	FileType   *string   `gorm:"size:255" json:"fileType"`
	HoaxID     *uint     `gorm:"index" json:"-"`
}

// BeforeCreate stamps UploadDate when the caller did not.
func (f *FileAttachment) BeforeCreate(tx *gorm.DB) error {
	if f.UploadDate.IsZero() {
		f.UploadDate = time.Now().UTC()
	}
	return nil
}

// Orphaned reports whether no hoax has claimed the attachment.
func (f *FileAttachment) Orphaned() bool {
	return f.HoaxID == nil
}
