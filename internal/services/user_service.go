package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/internal/auth"
	"github.com/hoaxify/hoaxify/internal/database"
	"github.com/hoaxify/hoaxify/internal/models"
	"github.com/hoaxify/hoaxify/internal/storage"
	"github.com/hoaxify/hoaxify/pkg/crypto"
	appErrors "github.com/hoaxify/hoaxify/pkg/errors"
	"github.com/hoaxify/hoaxify/pkg/logger"
	"github.com/hoaxify/hoaxify/pkg/metrics"
)

const (
	activationTokenLength    = 16
	passwordResetTokenLength = 16
)

// CreateUserInput is the registration payload after validation.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
}

// UpdateUserInput carries the editable profile fields. Image is a base64
// encoded PNG or JPEG; nil or empty keeps the current image.
type UpdateUserInput struct {
	Username string
	Image    *string
}

// UserService manages accounts, activation and password resets.
type UserService struct {
	db     *gorm.DB
	files  *storage.FileService
	email  *EmailService
	tokens *auth.TokenService
	logger *zap.Logger
}

// NewUserService constructs a UserService with its collaborators.
func NewUserService(db *gorm.DB, files *storage.FileService, email *EmailService, tokens *auth.TokenService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	if files == nil {
		return nil, errors.New("user service: file service is required")
	}
	if email == nil {
		return nil, errors.New("user service: email service is required")
	}
	if tokens == nil {
		return nil, errors.New("user service: token service is required")
	}

	return &UserService{
		db:     db,
		files:  files,
		email:  email,
		tokens: tokens,
		logger: logger.WithModule("users"),
	}, nil
}

// Create registers an inactive user and emails the activation token. The row
// is only committed when the email was handed to the mailer.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) error {
	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}

	token, err := crypto.RandomString(activationTokenLength)
	if err != nil {
		return fmt.Errorf("user service: generate activation token: %w", err)
	}

	user := &models.User{
		Username:        strings.TrimSpace(in.Username),
		Email:           strings.TrimSpace(in.Email),
		Password:        hash,
		ActivationToken: token,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return emailInUse()
			}
			return fmt.Errorf("user service: create user: %w", err)
		}

		if err := s.email.SendAccountActivation(ctx, user.Email, token); err != nil {
			return appErrors.ErrEmailFailure.WithInternal(err)
		}
		return nil
	})
}

// FindByEmail loads a user by email address.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: find by email: %w", err)
	}
	return &user, nil
}

// EmailInUse reports whether an account already uses email.
func (s *UserService) EmailInUse(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Activate redeems an activation token.
func (s *UserService) Activate(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrActivationFailure
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("activation_token = ?", token).Take(&user).Error; err != nil {
		if database.IsNotFound(err) {
			return ErrActivationFailure
		}
		return fmt.Errorf("user service: find activation token: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"inactive":         false,
		"activation_token": "",
	}).Error; err != nil {
		return fmt.Errorf("user service: activate: %w", err)
	}
	return nil
}

// Authenticate checks credentials. Unknown users and wrong passwords share
// the same error; inactive accounts are reported separately.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			return nil, appErrors.ErrAuthentication
		}
		return nil, err
	}

	if !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, appErrors.ErrAuthentication
	}

	if user.Inactive {
		metrics.AuthAttempts.WithLabelValues("inactive").Inc()
		return nil, appErrors.ErrInactiveAuthentication
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return user, nil
}

// List returns active users ordered by id, omitting the caller when authUserID is set.
func (s *UserService) List(ctx context.Context, page, size int, authUserID uint) (*Page[UserView], error) {
	query := s.db.WithContext(ctx).Model(&models.User{}).Where("inactive = ?", false)
	if authUserID != 0 {
		query = query.Where("id <> ?", authUserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("user service: count users: %w", err)
	}

	var users []models.User
	if err := query.Order("id ASC").Limit(size).Offset(page * size).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user service: list users: %w", err)
	}

	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, newUserView(&users[i]))
	}
	return newPage(views, page, size, total), nil
}

// Get returns an active user.
func (s *UserService) Get(ctx context.Context, id uint) (*UserView, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ? AND inactive = ?", id, false).Take(&user).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: get user: %w", err)
	}

	view := newUserView(&user)
	return &view, nil
}

// Update changes the username and optionally replaces the profile image. The
// new image is written before the old one is removed.
func (s *UserService) Update(ctx context.Context, id uint, in UpdateUserInput) (*UserView, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	updates := map[string]any{"username": strings.TrimSpace(in.Username)}

	previousImage := user.ImageName()
	var newImage string
	if in.Image != nil && strings.TrimSpace(*in.Image) != "" {
		name, err := s.files.SaveProfileImage(*in.Image)
		if err != nil {
			return nil, err
		}
		newImage = name
		updates["image"] = name
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		if newImage != "" {
			_ = s.files.DeleteProfileImage(newImage)
		}
		return nil, fmt.Errorf("user service: update user: %w", err)
	}

	if newImage != "" && previousImage != "" {
		if err := s.files.DeleteProfileImage(previousImage); err != nil {
			s.logger.Warn("remove previous profile image", zap.Uint("user_id", id), zap.Error(err))
		}
	}

	user.Username = updates["username"].(string)
	if newImage != "" {
		user.Image = &newImage
	}
	view := newUserView(&user)
	return &view, nil
}

// Delete removes a user together with their tokens, hoaxes and attachments,
// then deletes the files those rows referenced.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, id).Error; err != nil {
		if database.IsNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("user service: load user: %w", err)
	}

	var attachments []string
	err := s.db.WithContext(ctx).
		Model(&models.FileAttachment{}).
		Joins("JOIN hoaxes ON hoaxes.id = file_attachments.hoax_id").
		Where("hoaxes.user_id = ?", id).
		Pluck("file_attachments.filename", &attachments).Error
	if err != nil {
		return fmt.Errorf("user service: collect attachments: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&models.User{}, id).Error; err != nil {
		return fmt.Errorf("user service: delete user: %w", err)
	}

	if image := user.ImageName(); image != "" {
		if err := s.files.DeleteProfileImage(image); err != nil {
			s.logger.Warn("remove profile image", zap.Uint("user_id", id), zap.Error(err))
		}
	}
	for _, filename := range attachments {
		if err := s.files.DeleteAttachment(filename); err != nil {
			s.logger.Warn("remove attachment", zap.Uint("user_id", id), zap.String("filename", filename), zap.Error(err))
		}
	}
	return nil
}

// PasswordResetRequest stores a reset token for the account and emails it.
func (s *UserService) PasswordResetRequest(ctx context.Context, email string) error {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrEmailNotInUse
		}
		return err
	}

	token, err := crypto.RandomString(passwordResetTokenLength)
	if err != nil {
		return fmt.Errorf("user service: generate reset token: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).Update("password_reset_token", token).Error; err != nil {
		return fmt.Errorf("user service: store reset token: %w", err)
	}

	if err := s.email.SendPasswordReset(ctx, user.Email, token); err != nil {
		return appErrors.ErrEmailFailure.WithInternal(err)
	}
	return nil
}

// FindByPasswordResetToken loads the user holding token.
func (s *UserService) FindByPasswordResetToken(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthorizedPasswordReset
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("password_reset_token = ?", token).Take(&user).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUnauthorizedPasswordReset
		}
		return nil, fmt.Errorf("user service: find reset token: %w", err)
	}
	return &user, nil
}

// UpdatePassword completes a password reset. It also activates the account,
// since the reset proved ownership of the email, and signs out every session.
func (s *UserService) UpdatePassword(ctx context.Context, token, password string) error {
	user, err := s.FindByPasswordResetToken(ctx, token)
	if err != nil {
		return err
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"password":             hash,
		"password_reset_token": "",
		"inactive":             false,
		"activation_token":     "",
	}).Error; err != nil {
		return fmt.Errorf("user service: update password: %w", err)
	}

	return s.tokens.ClearTokens(ctx, user.ID)
}
