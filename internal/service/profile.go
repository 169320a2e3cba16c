package service

//go:generate mockgen -source=profile.go -destination=mocks/mock_profile.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/Manthan2028/resqnet/internal/config"
	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ProfileRepository определяет контракт хранилища профилей пользователей
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	ListByRole(ctx context.Context, role models.Role, city string) ([]*models.Profile, error)
	SetAvailability(ctx context.Context, id string, available bool) error
}

// ProfileService - регистрация профилей и доступность волонтеров
type ProfileService interface {
	Register(ctx context.Context, input models.RegisterInput) (*models.Profile, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	ListResponders(ctx context.Context, city string, onlyAvailable bool) ([]*models.Profile, error)
	SetAvailability(ctx context.Context, actor models.Profile, available bool) (*models.Profile, error)
}

type profileService struct {
	repo     ProfileRepository
	logger   *logrus.Logger
	policy   WritePolicy
	validate *validator.Validate
}

func NewProfileService(repo ProfileRepository, logger *logrus.Logger, cfg *config.Config) ProfileService {
	return &profileService{
		repo:     repo,
		logger:   logger,
		policy:   NewWritePolicy(cfg),
		validate: validator.New(),
	}
}

// Register создает профиль. Новый волонтер по умолчанию доступен.
func (s *profileService) Register(ctx context.Context, input models.RegisterInput) (*models.Profile, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "profile",
		"method":  "Register",
		"role":    input.Role,
		"city":    input.City,
	})
	log.Info("Attempting to register profile")

	if err := s.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Registration validation failed")
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	profile := &models.Profile{
		ID:    uuid.NewString(),
		Email: input.Email,
		Role:  input.Role,
		Name:  input.Name,
		Phone: input.Phone,
		City:  input.City,
	}
	switch input.Role {
	case models.RoleVolunteer:
		profile.Category = input.Category
		if profile.Category == "" {
			profile.Category = models.CategoryGeneral
		}
		profile.IsAvailable = true
	case models.RoleAgency:
		profile.AuthorityName = input.AuthorityName
		profile.Department = input.Department
		profile.Region = input.Region
	}

	err := s.policy.Do(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, profile)
	})
	if err != nil {
		log.WithError(err).Error("Failed to create profile in repository")
		return nil, fmt.Errorf("service: could not register profile: %w", err)
	}

	log.WithField("profile_id", profile.ID).Info("Profile registered successfully")
	return profile, nil
}

// GetProfile возвращает профиль по ID
func (s *profileService) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service":    "profile",
			"method":     "GetProfile",
			"profile_id": id,
		}).WithError(err).Warn("Failed to get profile in repository")
		return nil, fmt.Errorf("service: could not get profile: %w", err)
	}
	return profile, nil
}

// ListResponders возвращает волонтеров города, при onlyAvailable только доступных
func (s *profileService) ListResponders(ctx context.Context, city string, onlyAvailable bool) ([]*models.Profile, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":        "profile",
		"method":         "ListResponders",
		"city":           city,
		"only_available": onlyAvailable,
	})
	log.Info("Listing responders")

	volunteers, err := s.repo.ListByRole(ctx, models.RoleVolunteer, city)
	if err != nil {
		log.WithError(err).Error("Failed to list responders from repository")
		return nil, fmt.Errorf("service: could not list responders: %w", err)
	}
	if !onlyAvailable {
		return volunteers, nil
	}

	available := make([]*models.Profile, 0, len(volunteers))
	for _, v := range volunteers {
		if v.IsAvailable {
			available = append(available, v)
		}
	}
	return available, nil
}

// SetAvailability меняет флаг доступности волонтера. Менять его может только сам владелец профиля.
func (s *profileService) SetAvailability(ctx context.Context, actor models.Profile, available bool) (*models.Profile, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "profile",
		"method":    "SetAvailability",
		"actor":     actor.ID,
		"available": available,
	})
	log.Info("Attempting to set availability")

	if actor.Role != models.RoleVolunteer {
		log.Warn("Only volunteers have availability")
		return nil, fmt.Errorf("%w: role %q has no availability", models.ErrForbidden, actor.Role)
	}

	err := s.policy.Do(ctx, func(ctx context.Context) error {
		return s.repo.SetAvailability(ctx, actor.ID, available)
	})
	if err != nil {
		log.WithError(err).Error("Failed to set availability in repository")
		return nil, fmt.Errorf("service: could not set availability: %w", err)
	}

	updated := actor
	updated.IsAvailable = available
	log.Info("Availability updated successfully")
	return &updated, nil
}
