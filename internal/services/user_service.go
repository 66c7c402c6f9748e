// file: internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"hackspeech/internal/events"
	"hackspeech/internal/models"
	"hackspeech/internal/repositories"
	"hackspeech/internal/storage"
	"hackspeech/internal/validation"

	"go.uber.org/zap"
)

const msgUserNotFound = "Utilisateur non trouvé"

// profileBuilder attaches badge names and linked children to a user.
type profileBuilder struct {
	badges   repositories.BadgeRepository
	guardian repositories.GuardianRepository
}

func newProfileBuilder(badges repositories.BadgeRepository, guardian repositories.GuardianRepository) *profileBuilder {
	return &profileBuilder{badges: badges, guardian: guardian}
}

func (p *profileBuilder) build(ctx context.Context, user *models.User) (*models.UserProfile, error) {
	badges, err := p.badges.UnlockedNames(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load badges: %w", err)
	}

	children, err := p.guardian.ChildIDs(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load linked children: %w", err)
	}

	return user.ToProfile(badges, children), nil
}

// userService implements UserService
type userService struct {
	users    repositories.UserRepository
	profiles *profileBuilder
	avatars  storage.AvatarStore
	events   events.EventBus
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	users repositories.UserRepository,
	profiles *profileBuilder,
	avatars storage.AvatarStore,
	eventBus events.EventBus,
	logger *zap.Logger,
) UserService {
	return &userService{
		users:    users,
		profiles: profiles,
		avatars:  avatars,
		events:   eventBus,
		logger:   logger,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profiles.build(ctx, user)
}

// UpdateProfile applies the non-empty fields only. Settings are merged over
// the stored ones before validation.
func (s *userService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*models.UserProfile, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("Données de profil invalides", err)
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		update  repositories.ProfileUpdate
		changed []string
	)

	if name := strings.TrimSpace(req.Name); name != "" {
		update.Name = &name
		changed = append(changed, "name")
	}
	if avatar := strings.TrimSpace(req.Avatar); avatar != "" {
		update.Avatar = &avatar
		changed = append(changed, "avatar")
	}
	if len(req.Settings) > 0 && string(req.Settings) != "null" {
		merged, err := models.MergeSettings(user.Settings, req.Settings)
		if err != nil {
			return nil, NewValidationError("Paramètres invalides", err)
		}
		if errs := merged.Validate(); len(errs) > 0 {
			verr := NewValidationError("Paramètres invalides", errs)
			verr.Details = map[string]interface{}{"fields": errs}
			return nil, verr
		}
		update.Settings = &merged
		changed = append(changed, "settings")
	}

	if len(changed) == 0 {
		return s.profiles.build(ctx, user)
	}

	updated, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if updated == nil {
		return nil, NewNotFoundError(msgUserNotFound)
	}

	s.events.Publish(ctx, events.NewUserUpdatedEvent(userID, changed...))
	return s.profiles.build(ctx, updated)
}

// UploadAvatar stores the image with the avatar host and saves its URL.
func (s *userService) UploadAvatar(ctx context.Context, userID int64, filename string, file io.Reader) (*models.UserProfile, error) {
	if s.avatars == nil || !s.avatars.Configured() {
		return nil, NewServiceUnavailableError("Stockage d'images non configuré")
	}

	if _, err := s.load(ctx, userID); err != nil {
		return nil, err
	}

	result, err := s.avatars.Upload(ctx, userID, filename, file)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileTooLarge):
			return nil, NewValidationError("Image trop volumineuse", err)
		case errors.Is(err, storage.ErrInvalidContentType), errors.Is(err, storage.ErrInvalidExtension):
			return nil, NewValidationError("Format d'image non supporté", err)
		default:
			s.logger.Error("Avatar upload failed", zap.Int64("user_id", userID), zap.Error(err))
			return nil, NewServiceUnavailableError("Échec du téléversement de l'image")
		}
	}

	url := result.URL
	updated, err := s.users.UpdateProfile(ctx, userID, repositories.ProfileUpdate{Avatar: &url})
	if err != nil {
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}
	if updated == nil {
		return nil, NewNotFoundError(msgUserNotFound)
	}

	s.events.Publish(ctx, events.NewUserUpdatedEvent(userID, "avatar"))
	return s.profiles.build(ctx, updated)
}

func (s *userService) load(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, NewNotFoundError(msgUserNotFound)
	}
	return user, nil
}
