package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Manthan2028/resqnet/internal/config"
	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/Manthan2028/resqnet/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestProfileService(t *testing.T) (ProfileService, *mocks.MockProfileRepository) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockProfileRepository(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{WriteTimeout: time.Second, WriteMaxRetries: 1, WriteBaseDelay: time.Millisecond}
	return NewProfileService(repoMock, logger, cfg), repoMock
}

func TestRegister_VolunteerDefaults(t *testing.T) {
	service, repoMock := newTestProfileService(t)

	repoMock.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p *models.Profile) error {
			p.CreatedAt = time.Now()
			return nil
		}).
		Times(1)

	profile, err := service.Register(context.Background(), models.RegisterInput{
		Email: "asha@example.com",
		Role:  models.RoleVolunteer,
		Name:  "Asha Rao",
		Phone: "9876500000",
		City:  "Mumbai",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, models.CategoryGeneral, profile.Category)
	assert.True(t, profile.IsAvailable)
	assert.Empty(t, profile.AuthorityName)
}

func TestRegister_AgencyFields(t *testing.T) {
	service, repoMock := newTestProfileService(t)

	repoMock.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	profile, err := service.Register(context.Background(), models.RegisterInput{
		Email:         "control@thane.gov.in",
		Role:          models.RoleAgency,
		Name:          "Thane Control Room",
		Phone:         "100",
		City:          "Thane",
		AuthorityName: "Thane Police",
		Department:    "Emergency Response",
		Region:        "Thane",
		Category:      models.CategoryRescue,
	})

	require.NoError(t, err)
	assert.Equal(t, "Thane Police", profile.AuthorityName)
	assert.Empty(t, profile.Category)
	assert.False(t, profile.IsAvailable)
}

func TestRegister_Validation(t *testing.T) {
	service, _ := newTestProfileService(t)

	_, err := service.Register(context.Background(), models.RegisterInput{
		Email: "not-an-email",
		Role:  "admin",
		Name:  "X",
	})

	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestRegister_DuplicateEmailNotRetried(t *testing.T) {
	service, repoMock := newTestProfileService(t)

	repoMock.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(models.ErrConflict).
		Times(1)

	_, err := service.Register(context.Background(), models.RegisterInput{
		Email: "citizen@demo.com",
		Role:  models.RoleCitizen,
		Name:  "Rahul Sharma",
		Phone: "9876543210",
		City:  "Mumbai",
	})

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestListResponders_OnlyAvailable(t *testing.T) {
	service, repoMock := newTestProfileService(t)
	ctx := context.Background()
	volunteers := []*models.Profile{
		{ID: "v1", Role: models.RoleVolunteer, Name: "Asha", IsAvailable: true},
		{ID: "v2", Role: models.RoleVolunteer, Name: "Vikram", IsAvailable: false},
	}

	repoMock.EXPECT().ListByRole(ctx, models.RoleVolunteer, "Mumbai").Return(volunteers, nil).Times(2)

	all, err := service.ListResponders(ctx, "Mumbai", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	available, err := service.ListResponders(ctx, "Mumbai", true)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "v1", available[0].ID)
}

func TestListResponders_RepositoryError(t *testing.T) {
	service, repoMock := newTestProfileService(t)

	repoMock.EXPECT().ListByRole(gomock.Any(), models.RoleVolunteer, "").Return(nil, errors.New("db down")).Times(1)

	_, err := service.ListResponders(context.Background(), "", false)

	assert.Error(t, err)
}

func TestSetAvailability(t *testing.T) {
	service, repoMock := newTestProfileService(t)
	actor := models.Profile{ID: "demo-user-volunteer", Role: models.RoleVolunteer, IsAvailable: true}

	repoMock.EXPECT().SetAvailability(gomock.Any(), actor.ID, false).Return(nil).Times(1)

	updated, err := service.SetAvailability(context.Background(), actor, false)

	require.NoError(t, err)
	assert.False(t, updated.IsAvailable)
	assert.True(t, actor.IsAvailable)
}

func TestSetAvailability_NonVolunteer(t *testing.T) {
	service, _ := newTestProfileService(t)

	_, err := service.SetAvailability(context.Background(), models.Profile{ID: "a", Role: models.RoleAgency}, true)

	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestGetProfile_NotFound(t *testing.T) {
	service, repoMock := newTestProfileService(t)

	repoMock.EXPECT().GetByID(gomock.Any(), "ghost").Return(nil, models.ErrNotFound).Times(1)

	_, err := service.GetProfile(context.Background(), "ghost")

	assert.ErrorIs(t, err, models.ErrNotFound)
}
