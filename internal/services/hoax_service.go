package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/internal/database"
	"github.com/hoaxify/hoaxify/internal/models"
	"github.com/hoaxify/hoaxify/internal/storage"
	"github.com/hoaxify/hoaxify/pkg/logger"
)

// CreateHoaxInput is a validated hoax submission.
type CreateHoaxInput struct {
	Content        string
	FileAttachment *uint
}

// HoaxOption customises a HoaxService.
type HoaxOption func(*HoaxService)

// WithHoaxClock overrides the clock used to stamp new hoaxes.
func WithHoaxClock(now func() time.Time) HoaxOption {
	return func(s *HoaxService) {
		if now != nil {
			s.now = now
		}
	}
}

// HoaxService stores and lists hoaxes.
type HoaxService struct {
	db     *gorm.DB
	files  *storage.FileService
	now    func() time.Time
	logger *zap.Logger
}

// NewHoaxService constructs a HoaxService.
func NewHoaxService(db *gorm.DB, files *storage.FileService, opts ...HoaxOption) (*HoaxService, error) {
	if db == nil {
		return nil, errors.New("hoax service: db is required")
	}
	if files == nil {
		return nil, errors.New("hoax service: file service is required")
	}

	svc := &HoaxService{
		db:     db,
		files:  files,
		now:    time.Now,
		logger: logger.WithModule("hoaxes"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create stores a hoax for userID and links the referenced attachment, if any.
func (s *HoaxService) Create(ctx context.Context, in CreateHoaxInput, userID uint) (*models.Hoax, error) {
	hoax := &models.Hoax{
		Content:   in.Content,
		Timestamp: s.now().UnixMilli(),
		UserID:    userID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User", "FileAttachment").Create(hoax).Error; err != nil {
			return fmt.Errorf("hoax service: create hoax: %w", err)
		}

		if in.FileAttachment != nil {
			return s.files.WithDB(tx).AssociateFileToHoax(ctx, *in.FileAttachment, hoax.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hoax, nil
}

// List pages through hoaxes newest first. A non-nil userID restricts the
// listing to that user's hoaxes and must reference an existing account.
func (s *HoaxService) List(ctx context.Context, page, size int, userID *uint) (*Page[HoaxView], error) {
	query := s.db.WithContext(ctx).Model(&models.Hoax{})
	if userID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", *userID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("hoax service: check user: %w", err)
		}
		if count == 0 {
			return nil, ErrUserNotFound
		}
		query = query.Where("user_id = ?", *userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("hoax service: count hoaxes: %w", err)
	}

	var hoaxes []models.Hoax
	err := query.
		Preload("User").
		Preload("FileAttachment").
		Order("id DESC").
		Limit(size).
		Offset(page * size).
		Find(&hoaxes).Error
	if err != nil {
		return nil, fmt.Errorf("hoax service: list hoaxes: %w", err)
	}

	views := make([]HoaxView, 0, len(hoaxes))
	for i := range hoaxes {
		views = append(views, newHoaxView(&hoaxes[i]))
	}
	return newPage(views, page, size, total), nil
}

// Delete removes a hoax owned by userID along with its attachment file.
func (s *HoaxService) Delete(ctx context.Context, hoaxID, userID uint) error {
	var hoax models.Hoax
	err := s.db.WithContext(ctx).
		Preload("FileAttachment").
		Where("id = ? AND user_id = ?", hoaxID, userID).
		Take(&hoax).Error
	if err != nil {
		if database.IsNotFound(err) {
			return ErrUnauthorizedHoaxDelete
		}
		return fmt.Errorf("hoax service: load hoax: %w", err)
	}

	if hoax.FileAttachment != nil {
		if err := s.files.DeleteAttachment(hoax.FileAttachment.Filename); err != nil {
			s.logger.Warn("remove hoax attachment",
				zap.Uint("hoax_id", hoaxID),
				zap.String("filename", hoax.FileAttachment.Filename),
				zap.Error(err))
		}
	}

	if err := s.db.WithContext(ctx).Delete(&models.Hoax{}, hoax.ID).Error; err != nil {
		return fmt.Errorf("hoax service: delete hoax: %w", err)
	}
	return nil
}
