package services

import (
	"math"

	"github.com/hoaxify/hoaxify/internal/models"
)

// Page is a single page of a paginated listing.
type Page[T any] struct {
	Content    []T `json:"content"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	TotalPages int `json:"totalPages"`
}

func newPage[T any](content []T, page, size int, total int64) *Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if size > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(size)))
	}
	return &Page[T]{
		Content:    content,
		Page:       page,
		Size:       size,
		TotalPages: totalPages,
	}
}

// UserView is the public projection of a user.
type UserView struct {
	ID       uint    `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Image    *string `json:"image"`
}

func newUserView(user *models.User) UserView {
	return UserView{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Image:    user.Image,
	}
}

// AttachmentView is the projection of an attachment embedded in a hoax.
type AttachmentView struct {
	Filename string  `json:"filename"`
	FileType *string `json:"fileType"`
}

// HoaxView is the projection of a hoax in listings.
type HoaxView struct {
	ID             uint            `json:"id"`
	Content        string          `json:"content"`
	Timestamp      int64           `json:"timestamp"`
	User           UserView        `json:"user"`
	FileAttachment *AttachmentView `json:"fileAttachment"`
}

func newHoaxView(hoax *models.Hoax) HoaxView {
	view := HoaxView{
		ID:        hoax.ID,
		Content:   hoax.Content,
		Timestamp: hoax.Timestamp,
		User:      newUserView(&hoax.User),
	}
	if hoax.FileAttachment != nil {
		view.FileAttachment = &AttachmentView{
			Filename: hoax.FileAttachment.Filename,
			FileType: hoax.FileAttachment.FileType,
		}
	}
	return view
}
