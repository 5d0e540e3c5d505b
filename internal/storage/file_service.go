package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/internal/models"
	"github.com/hoaxify/hoaxify/pkg/crypto"
	"github.com/hoaxify/hoaxify/pkg/logger"
	"github.com/hoaxify/hoaxify/pkg/metrics"
)

const (
	// ProfileImageLimit is the exclusive upper bound for profile image size.
	ProfileImageLimit = 2 * 1024 * 1024
	// DefaultAttachmentMaxAge is how long an unclaimed attachment survives.
	DefaultAttachmentMaxAge = 24 * time.Hour

	profileNameLength = 32
	fallbackExtension = ".txt"
)

// Config describes the upload folder layout.
type Config struct {
	UploadDir        string
	ProfileDir       string
	AttachmentDir    string
	AttachmentMaxAge time.Duration
	Clock            func() time.Time
}

// FileService stores profile images and post attachments on an afero filesystem
// and keeps the file_attachments table in step with the files on disk.
type FileService struct {
	fs     afero.Fs
	db     *gorm.DB
	cfg    Config
	now    func() time.Time
	logger *zap.Logger
}

// NewFileService constructs a FileService rooted at cfg.UploadDir on fs.
func NewFileService(fs afero.Fs, db *gorm.DB, cfg Config) (*FileService, error) {
	if fs == nil {
		return nil, errors.New("file service: filesystem is required")
	}
	if db == nil {
		return nil, errors.New("file service: db is required")
	}

	cfg.UploadDir = strings.TrimSpace(cfg.UploadDir)
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if strings.TrimSpace(cfg.ProfileDir) == "" {
		cfg.ProfileDir = "profile"
	}
	if strings.TrimSpace(cfg.AttachmentDir) == "" {
		cfg.AttachmentDir = "attachment"
	}
	if cfg.AttachmentMaxAge <= 0 {
		cfg.AttachmentMaxAge = DefaultAttachmentMaxAge
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}
	// sqlite stores times as offset-bearing text and compares them lexically.
	now := func() time.Time { return clock().UTC() }

	return &FileService{
		fs:     fs,
		db:     db,
		cfg:    cfg,
		now:    now,
		logger: logger.WithModule("storage"),
	}, nil
}

// ProfileFolder is the directory holding profile images.
func (s *FileService) ProfileFolder() string {
	return path.Join(s.cfg.UploadDir, s.cfg.ProfileDir)
}

// AttachmentFolder is the directory holding post attachments.
func (s *FileService) AttachmentFolder() string {
	return path.Join(s.cfg.UploadDir, s.cfg.AttachmentDir)
}

// CreateFolders ensures the upload directory tree exists.
func (s *FileService) CreateFolders() error {
	for _, dir := range []string{s.cfg.UploadDir, s.ProfileFolder(), s.AttachmentFolder()} {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("file service: create %s: %w", dir, err)
		}
	}
	return nil
}

// ProfileFS exposes the profile folder for static serving.
func (s *FileService) ProfileFS() http.FileSystem {
	return afero.NewHttpFs(afero.NewBasePathFs(s.fs, s.ProfileFolder()))
}

// DecodeImage decodes a base64 image, accepting an optional data URL prefix.
func DecodeImage(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if idx := strings.Index(encoded, ";base64,"); idx != -1 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("file service: decode image: %w", err)
	}
	return data, nil
}

// SaveProfileImage writes a base64 encoded image under a random name and returns that name.
func (s *FileService) SaveProfileImage(encoded string) (string, error) {
	data, err := DecodeImage(encoded)
	if err != nil {
		return "", err
	}

	name, err := crypto.RandomString(profileNameLength)
	if err != nil {
		return "", fmt.Errorf("file service: generate name: %w", err)
	}

	if err := afero.WriteFile(s.fs, path.Join(s.ProfileFolder(), name), data, 0o644); err != nil {
		return "", fmt.Errorf("file service: write profile image: %w", err)
	}

	metrics.UploadedBytes.WithLabelValues("profile").Observe(float64(len(data)))
	return name, nil
}

// DeleteProfileImage removes a profile image. A missing file is ignored.
func (s *FileService) DeleteProfileImage(name string) error {
	return s.remove(s.ProfileFolder(), name)
}

// SaveAttachment stores data in the attachment folder and records it as an
// unclaimed attachment. The extension and file type come from the content.
func (s *FileService) SaveAttachment(ctx context.Context, data []byte) (*models.FileAttachment, error) {
	ext, fileType := DetectType(data)
	filename := uuid.NewString() + ext

	target := path.Join(s.AttachmentFolder(), filename)
	if err := afero.WriteFile(s.fs, target, data, 0o644); err != nil {
		return nil, fmt.Errorf("file service: write attachment: %w", err)
	}

	attachment := &models.FileAttachment{
		Filename:   filename,
		UploadDate: s.now(),
		FileType:   fileType,
	}
	if err := s.db.WithContext(ctx).Create(attachment).Error; err != nil {
		_ = s.fs.Remove(target)
		return nil, fmt.Errorf("file service: create attachment: %w", err)
	}

	metrics.UploadedBytes.WithLabelValues("attachment").Observe(float64(len(data)))
	return attachment, nil
}

// WithDB returns a copy of the service bound to db, typically a transaction.
func (s *FileService) WithDB(db *gorm.DB) *FileService {
	cpy := *s
	cpy.db = db
	return &cpy
}

// AssociateFileToHoax links an unclaimed attachment to hoaxID. Attachments that
// already belong to a hoax are left untouched.
func (s *FileService) AssociateFileToHoax(ctx context.Context, attachmentID, hoaxID uint) error {
	err := s.db.WithContext(ctx).
		Model(&models.FileAttachment{}).
		Where("id = ? AND hoax_id IS NULL", attachmentID).
		Update("hoax_id", hoaxID).Error
	if err != nil {
		return fmt.Errorf("file service: associate attachment: %w", err)
	}
	return nil
}

// IsSupportedFileType reports whether buf holds a PNG or JPEG image.
func IsSupportedFileType(buf []byte) bool {
	detected := mimetype.Detect(buf)
	return detected.Is("image/png") || detected.Is("image/jpeg")
}

// IsLessThan2MB reports whether buf is below the profile image limit.
func IsLessThan2MB(buf []byte) bool {
	return len(buf) < ProfileImageLimit
}

// DetectType sniffs data and returns the extension to store it under and its
// MIME type. Plain text and unrecognised content map to ".txt" and a nil type.
func DetectType(data []byte) (string, *string) {
	detected := mimetype.Detect(data)
	if detected.Is("application/octet-stream") || isText(detected) {
		return fallbackExtension, nil
	}

	ext := detected.Extension()
	if ext == "" {
		ext = fallbackExtension
	}

	mime := detected.String()
	if idx := strings.Index(mime, ";"); idx != -1 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return ext, &mime
}

func isText(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// RemoveUnusedAttachments deletes attachments that no hoax claimed within the
// configured age. Per-item failures are logged and collected without stopping
// the sweep.
func (s *FileService) RemoveUnusedAttachments(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cfg.AttachmentMaxAge)

	var attachments []models.FileAttachment
	err := s.db.WithContext(ctx).
		Where("upload_date < ? AND hoax_id IS NULL", cutoff).
		Find(&attachments).Error
	if err != nil {
		return 0, fmt.Errorf("file service: load unused attachments: %w", err)
	}

	var (
		removed int
		errs    error
	)
	for _, attachment := range attachments {
		ok, err := s.removeUnclaimed(ctx, attachment)
		if err != nil {
			s.sweepFailure(attachment, err)
			errs = multierr.Append(errs, err)
			continue
		}
		if ok {
			removed++
		}
	}

	if removed > 0 {
		metrics.SweepRemovals.WithLabelValues("attachments").Add(float64(removed))
	}
	return removed, errs
}

// removeUnclaimed deletes the row only while it is still unclaimed and removes
// the file only when that delete took effect. A failed file removal rolls the
// row back so the next sweep retries it.
func (s *FileService) removeUnclaimed(ctx context.Context, attachment models.FileAttachment) (bool, error) {
	var removed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("hoax_id IS NULL").Delete(&models.FileAttachment{}, attachment.ID)
		if result.Error != nil {
			return fmt.Errorf("file service: delete attachment row %d: %w", attachment.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if err := s.DeleteAttachment(attachment.Filename); err != nil {
			return err
		}
		removed = true
		return nil
	})
	return removed, err
}

func (s *FileService) sweepFailure(attachment models.FileAttachment, err error) {
	metrics.SweepFailures.WithLabelValues("attachments").Inc()
	s.logger.Warn("remove unused attachment",
		zap.Uint("attachment_id", attachment.ID),
		zap.String("filename", attachment.Filename),
		zap.Error(err),
	)
}

// DeleteAttachment removes an attachment file. A missing file is ignored.
func (s *FileService) DeleteAttachment(filename string) error {
	return s.remove(s.AttachmentFolder(), filename)
}

func (s *FileService) remove(dir, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return nil
	}

	if err := s.fs.Remove(path.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("file service: remove %s: %w", name, err)
	}
	return nil
}
