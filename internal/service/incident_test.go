package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Manthan2028/resqnet/internal/config"
	"github.com/Manthan2028/resqnet/internal/lifecycle"
	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/Manthan2028/resqnet/internal/service/mocks"
	"github.com/Manthan2028/resqnet/internal/webhook"
	webhook_mocks "github.com/Manthan2028/resqnet/internal/webhook/mocks"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	citizen   = models.Profile{ID: "demo-user-normal", Role: models.RoleCitizen, Name: "Rahul Sharma", City: "Mumbai"}
	volunteer = models.Profile{ID: "demo-user-volunteer", Role: models.RoleVolunteer, Name: "Priya Patel", City: "Mumbai", IsAvailable: true}
	agency    = models.Profile{ID: "demo-user-agency", Role: models.RoleAgency, Name: "Mumbai Control Room", City: "Mumbai"}
)

type testDeps struct {
	repo     *mocks.MockIncidentRepository
	profiles *mocks.MockProfileRepository
	media    *mocks.MockMediaStore
	events   *mocks.MockEventPublisher
	webhooks *webhook_mocks.MockWebhookPublisher
}

// newTestIncidentService — вспомогательная функция для создания инстанса сервиса с моками.
func newTestIncidentService(t *testing.T) (*incidentService, testDeps) {
	ctrl := gomock.NewController(t)
	deps := testDeps{
		repo:     mocks.NewMockIncidentRepository(ctrl),
		profiles: mocks.NewMockProfileRepository(ctrl),
		media:    mocks.NewMockMediaStore(ctrl),
		events:   mocks.NewMockEventPublisher(ctrl),
		webhooks: webhook_mocks.NewMockWebhookPublisher(ctrl),
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		WriteTimeout:    time.Second,
		WriteMaxRetries: 2,
		WriteBaseDelay:  time.Millisecond,
	}

	svc := NewIncidentService(deps.repo, deps.profiles, deps.media, deps.events, deps.webhooks, logger, cfg).(*incidentService)
	svc.now = func() time.Time { return time.UnixMilli(1772359200000) }
	return svc, deps
}

// expectPublish ожидает уведомление лент и вебхуков о событии kind
func (d testDeps) expectPublish(kind models.EventKind) {
	d.events.EXPECT().
		Publish(gomock.Any(), gomock.Cond(func(e models.IncidentEvent) bool { return e.Kind == kind })).
		Return(nil).
		Times(1)
	d.webhooks.EXPECT().
		Publish(gomock.Any(), gomock.Cond(func(e webhook.WebhookEvent) bool { return e.Event == kind })).
		Return(nil).
		Times(1)
}

func reportInput() models.ReportInput {
	return models.ReportInput{
		Type:        models.TypeFire,
		Severity:    models.SeverityHigh,
		Description: "Smoke from the third floor",
		Location:    &models.Location{Lat: 19.076, Lng: 72.8777, Address: "Dadar"},
	}
}

// storeCreate имитирует хранилище, которое присваивает ID и время создания
func storeCreate(_ context.Context, inc *models.Incident) error {
	inc.ID = uuid.New()
	inc.Revision = 1
	inc.CreatedAt = time.Now().UTC()
	inc.UpdatedAt = inc.CreatedAt
	return nil
}

func pendingIncident() *models.Incident {
	return &models.Incident{
		ID:             uuid.New(),
		ReportedBy:     citizen.ID,
		ReportedByName: citizen.Name,
		ReportedByRole: models.RoleCitizen,
		City:           "Mumbai",
		Type:           models.TypeFire,
		Severity:       models.SeverityHigh,
		Status:         models.StatusPending,
		Updates:        []models.IncidentUpdate{},
		Revision:       3,
	}
}

// applied имитирует условную запись: проверяет ревизию и применяет изменение
func applied(current *models.Incident) func(context.Context, uuid.UUID, int64, models.IncidentChange) (*models.Incident, error) {
	return func(_ context.Context, _ uuid.UUID, revision int64, change models.IncidentChange) (*models.Incident, error) {
		if revision != current.Revision {
			return nil, models.ErrStaleRevision
		}
		out := change.Apply(current)
		out.Revision++
		return out, nil
	}
}

// --- ReportIncident ---

func TestReportIncident_Success(t *testing.T) {
	// Подготовка
	service, deps := newTestIncidentService(t)
	ctx := context.Background()

	// Ожидания
	deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(storeCreate).Times(1)
	deps.expectPublish(models.EventCreated)

	// Действие
	incident, err := service.ReportIncident(ctx, citizen, reportInput())

	// Проверки
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, incident.ID)
	assert.Equal(t, models.StatusPending, incident.Status)
	assert.Equal(t, citizen.ID, incident.ReportedBy)
	assert.Equal(t, citizen.Name, incident.ReportedByName)
	assert.Equal(t, models.RoleCitizen, incident.ReportedByRole)
	assert.Equal(t, "Mumbai", incident.City)
	assert.NotNil(t, incident.Updates)
	assert.Empty(t, incident.Updates)
	assert.Nil(t, incident.ImageURL)
	assert.False(t, incident.Assigned())
}

func TestReportIncident_OnlyCitizens(t *testing.T) {
	service, _ := newTestIncidentService(t)

	// Ожидания: хранилище не вызывается
	_, err := service.ReportIncident(context.Background(), volunteer, reportInput())

	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestReportIncident_ValidationError(t *testing.T) {
	service, _ := newTestIncidentService(t)

	missingLocation := reportInput()
	missingLocation.Location = nil
	_, err := service.ReportIncident(context.Background(), citizen, missingLocation)
	assert.ErrorIs(t, err, models.ErrValidation)

	badSeverity := reportInput()
	badSeverity.Severity = "Critical"
	_, err = service.ReportIncident(context.Background(), citizen, badSeverity)
	assert.ErrorIs(t, err, models.ErrValidation)

	badLat := reportInput()
	badLat.Location = &models.Location{Lat: 123, Lng: 72}
	_, err = service.ReportIncident(context.Background(), citizen, badLat)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestReportIncident_ZeroLongitude(t *testing.T) {
	service, deps := newTestIncidentService(t)

	deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(storeCreate).Times(1)
	deps.expectPublish(models.EventCreated)

	input := reportInput()
	input.Location = &models.Location{Lat: 51.4779, Lng: 0}
	incident, err := service.ReportIncident(context.Background(), citizen, input)

	require.NoError(t, err)
	assert.Equal(t, 0.0, incident.Location.Lng)
}

func TestReportIncident_BlankDescription(t *testing.T) {
	service, _ := newTestIncidentService(t)

	// Ожидания: хранилище не вызывается
	for _, description := range []string{"   ", "\t\n"} {
		input := reportInput()
		input.Description = description
		_, err := service.ReportIncident(context.Background(), citizen, input)
		assert.ErrorIs(t, err, models.ErrValidation, "%q", description)
	}
}

func TestReportIncident_WithImage(t *testing.T) {
	service, deps := newTestIncidentService(t)
	input := reportInput()
	input.Image = &models.Upload{Name: "C:/photos/fire.jpg", Body: strings.NewReader("jpeg")}

	deps.media.EXPECT().
		Upload(gomock.Any(), "incidents/1772359200000_fire.jpg", gomock.Any()).
		Return("/media/incidents/1772359200000_fire.jpg", nil).
		Times(1)
	deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(storeCreate).Times(1)
	deps.expectPublish(models.EventCreated)

	incident, err := service.ReportIncident(context.Background(), citizen, input)

	require.NoError(t, err)
	require.NotNil(t, incident.ImageURL)
	assert.Equal(t, "/media/incidents/1772359200000_fire.jpg", *incident.ImageURL)
}

func TestReportIncident_UploadFailureIsNotFatal(t *testing.T) {
	service, deps := newTestIncidentService(t)
	input := reportInput()
	input.Image = &models.Upload{Name: "fire.jpg", Body: strings.NewReader("jpeg")}

	// Ожидания
	// 1. Загрузка падает
	deps.media.EXPECT().
		Upload(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.New("bucket unavailable")).
		Times(1)
	// 2. Инцидент все равно создается
	deps.repo.EXPECT().
		Create(gomock.Any(), gomock.Cond(func(inc *models.Incident) bool { return inc.ImageURL == nil })).
		DoAndReturn(storeCreate).
		Times(1)
	deps.expectPublish(models.EventCreated)

	incident, err := service.ReportIncident(context.Background(), citizen, input)

	require.NoError(t, err)
	assert.Nil(t, incident.ImageURL)
	assert.Equal(t, models.StatusPending, incident.Status)
}

func TestReportIncident_RetriesTransientStoreErrors(t *testing.T) {
	service, deps := newTestIncidentService(t)

	gomock.InOrder(
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset")).Times(2),
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(storeCreate).Times(1),
	)
	deps.expectPublish(models.EventCreated)

	_, err := service.ReportIncident(context.Background(), citizen, reportInput())

	require.NoError(t, err)
}

func TestReportIncident_StoreUnavailable(t *testing.T) {
	service, deps := newTestIncidentService(t)

	// 1 попытка + 2 повтора
	deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection refused")).Times(3)

	incident, err := service.ReportIncident(context.Background(), citizen, reportInput())

	require.Error(t, err)
	assert.Nil(t, incident)
}

func TestReportIncident_PublishFailureKeepsWrite(t *testing.T) {
	service, deps := newTestIncidentService(t)

	deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(storeCreate).Times(1)
	deps.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("redis down")).Times(1)
	deps.webhooks.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("redis down")).Times(1)

	incident, err := service.ReportIncident(context.Background(), citizen, reportInput())

	require.NoError(t, err)
	assert.NotNil(t, incident)
}

// --- AcceptIncident ---

func TestAcceptIncident_Success(t *testing.T) {
	service, deps := newTestIncidentService(t)
	current := pendingIncident()

	deps.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil).Times(1)
	deps.repo.EXPECT().ApplyChange(gomock.Any(), current.ID, int64(3), gomock.Any()).DoAndReturn(applied(current)).Times(1)
	deps.repo.EXPECT().InvalidateIncidentCache(gomock.Any(), current.ID).Return(nil).Times(1)
	deps.expectPublish(models.EventAccepted)

	incident, err := service.AcceptIncident(context.Background(), volunteer, current.ID)

	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, incident.Status)
	assert.Equal(t, volunteer.ID, incident.AssignedResponderID)
	assert.Equal(t, volunteer.Name, incident.AssignedResponderName)
	assert.Equal(t, int64(4), incident.Revision)
}

func TestAcceptIncident_AlreadyAssigned(t *testing.T) {
	service, deps := newTestIncidentService(t)
	current := pendingIncident()
	current.AssignedResponderID = "someone-else"
	current.AssignedResponderName = "Vikram"

	// Ожидания: записи нет
	deps.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil).Times(1)

	_, err := service.AcceptIncident(context.Background(), volunteer, current.ID)

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestAcceptIncident_LostRace(t *testing.T) {
	service, deps := newTestIncidentService(t)
	current := pendingIncident()

	// Ожидания: конфликт ревизии не повторяется
	deps.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil).Times(1)
	deps.repo.EXPECT().ApplyChange(gomock.Any(), current.ID, int64(3), gomock.Any()).Return(nil, models.ErrStaleRevision).Times(1)

	_, err := service.AcceptIncident(context.Background(), volunteer, current.ID)

	assert.ErrorIs(t, err, models.ErrStaleRevision)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestAcceptIncident_NotFound(t *testing.T) {
	service, deps := newTestIncidentService(t)
	id := uuid.New()

	deps.repo.EXPECT().GetByID(gomock.Any(), id).Return(nil, models.ErrNotFound).Times(1)

	_, err := service.AcceptIncident(context.Background(), volunteer, id)

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAcceptIncident_OtherCity(t *testing.T) {
	service, deps := newTestIncidentService(t)
	current := pendingIncident()
	current.City = "Pune"

	deps.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil).Times(1)

	_, err := service.AcceptIncident(context.Background(), volunteer, current.ID)

	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestAcceptIncident_CacheInvalidationFailureIsNotFatal(t *testing.T) {
	service, deps := newTestIncidentService(t)
	current := pendingIncident()

	deps.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil).Times(1)
	deps.repo.EXPECT().ApplyChange(gomock.Any(), current.ID, int64(3), gomock.Any()).DoAndReturn(applied(current)).Times(1)
	deps.repo.EXPECT().InvalidateIncidentCache(gomock.Any(), current.ID).Return(errors.New("redis down")).Times(1)
	deps.expectPublish(models.EventAccepted)

	_, err := service.AcceptIncident(context.Background(), volunteer, current.ID)

	require.NoError(t, err)
}

// --- SubmitUpdate ---

func assignedIncident() *models.Incident {
	inc := pendingIncident()
	inc.Status = models.StatusVerified
	inc.AssignedResponderID = volunteer.ID
	inc.AssignedResponderName = volunteer.Name
	return inc
}

func TestSubmitUpdate_AppendsAndChangesStatusTogether(t *testing.T) {
	service, deps := newTestIncidentService(t)
	current := assignedIncident()
	input := models.UpdateInput{
		Message: "Team on site",
		Status:  models.StatusInProgress,
		Image:   &models.Upload{Name: "site.png", Body: strings.NewReader("png")},
	}

	deps.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil).Times(1)
	deps.media.EXPECT().
		Upload(gomock.Any(), "updates/1772359200000_site.png", gomock.Any()).
		Return("/media/updates/1772359200000_site.png", nil).
		Times(1)
	deps.repo.EXPECT().
		ApplyChange(gomock.Any(), current.ID, int64(3), gomock.Cond(func(c models.IncidentChange) bool {
			return c.Status != nil && c.Append != nil && c.Assign == nil
		})).
		DoAndReturn(applied(current)).
		Times(1)
	deps.repo.EXPECT().InvalidateIncidentCache(gomock.Any(), current.ID).Return(nil).Times(1)
	deps.expectPublish(models.EventUpdated)

	incident, err := service.SubmitUpdate(context.Background(), volunteer, current.ID, input)

	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, incident.Status)
	require.Len(t, incident.Updates, 1)
	entry := incident.Updates[0]
	assert.Equal(t, "Team on site", entry.Message)
	assert.Equal(t, models.StatusInProgress, entry.Status)
	assert.Equal(t, volunteer.ID, entry.UpdatedBy)
	assert.Equal(t, models.RoleVolunteer, entry.UpdatedByRole)
	require.NotNil(t, entry.ImageURL)
	assert.Equal(t, "/media/updates/1772359200000_site.png", *entry.ImageURL)
	assert.NotEmpty(t, entry.ID)
}

func TestSubmitUpdate_UploadFailureIsNotFatal(t *testing.T) {
	service, deps := newTestIncidentService(t)
	current := assignedIncident()
	input := models.UpdateInput{
		Message: "Resolved, area is safe",
		Status:  models.StatusResolved,
		Image:   &models.Upload{Name: "done.jpg", Body: strings.NewReader("jpeg")},
	}

	deps.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil).Times(1)
	deps.media.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("quota exceeded")).Times(1)
	deps.repo.EXPECT().ApplyChange(gomock.Any(), current.ID, int64(3), gomock.Any()).DoAndReturn(applied(current)).Times(1)
	deps.repo.EXPECT().InvalidateIncidentCache(gomock.Any(), current.ID).Return(nil).Times(1)
	deps.expectPublish(models.EventUpdated)

	incident, err := service.SubmitUpdate(context.Background(), volunteer, current.ID, input)

	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, incident.Status)
	require.Len(t, incident.Updates, 1)
	assert.Nil(t, incident.Updates[0].ImageURL)
}

func TestSubmitUpdate_NotAssignedSkipsUpload(t *testing.T) {
	service, deps := newTestIncidentService(t)
	current := pendingIncident()
	input := models.UpdateInput{
		Message: "On my way",
		Status:  models.StatusInProgress,
		Image:   &models.Upload{Name: "x.jpg", Body: strings.NewReader("jpeg")},
	}

	// Ожидания: ни загрузки, ни записи
	deps.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil).Times(1)

	_, err := service.SubmitUpdate(context.Background(), volunteer, current.ID, input)

	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestSubmitUpdate_InvalidStatus(t *testing.T) {
	service, deps := newTestIncidentService(t)
	current := assignedIncident()

	deps.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil).Times(1)

	_, err := service.SubmitUpdate(context.Background(), volunteer, current.ID, models.UpdateInput{Message: "x", Status: models.StatusPending})

	assert.ErrorIs(t, err, models.ErrValidation)
}

// --- SetStatus / Reopen ---

func TestSetStatus_Success(t *testing.T) {
	service, deps := newTestIncidentService(t)
	current := pendingIncident()

	deps.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil).Times(1)
	deps.repo.EXPECT().ApplyChange(gomock.Any(), current.ID, int64(3), gomock.Any()).DoAndReturn(applied(current)).Times(1)
	deps.repo.EXPECT().InvalidateIncidentCache(gomock.Any(), current.ID).Return(nil).Times(1)
	deps.expectPublish(models.EventStatusChanged)

	incident, err := service.SetStatus(context.Background(), agency, current.ID, models.StatusResolved)

	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, incident.Status)
	assert.Empty(t, incident.Updates)
}

func TestSetStatus_ResolvedRequiresReopen(t *testing.T) {
	service, deps := newTestIncidentService(t)
	current := pendingIncident()
	current.Status = models.StatusResolved

	deps.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil).Times(1)

	_, err := service.SetStatus(context.Background(), agency, current.ID, models.StatusInProgress)

	assert.ErrorIs(t, err, lifecycle.ErrReopenRequired)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestSetStatus_VolunteerForbidden(t *testing.T) {
	service, deps := newTestIncidentService(t)
	current := assignedIncident()

	deps.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil).Times(1)

	_, err := service.SetStatus(context.Background(), volunteer, current.ID, models.StatusResolved)

	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestReopenIncident_Success(t *testing.T) {
	service, deps := newTestIncidentService(t)
	current := assignedIncident()
	current.Status = models.StatusResolved

	deps.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil).Times(1)
	deps.repo.EXPECT().ApplyChange(gomock.Any(), current.ID, int64(3), gomock.Any()).DoAndReturn(applied(current)).Times(1)
	deps.repo.EXPECT().InvalidateIncidentCache(gomock.Any(), current.ID).Return(nil).Times(1)
	deps.expectPublish(models.EventReopened)

	incident, err := service.ReopenIncident(context.Background(), agency, current.ID, "")

	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, incident.Status)
	require.Len(t, incident.Updates, 1)
	assert.Equal(t, "Incident reopened", incident.Updates[0].Message)
	assert.Equal(t, models.RoleAgency, incident.Updates[0].UpdatedByRole)
}

// --- AssignResponder ---

func TestAssignResponder_Success(t *testing.T) {
	service, deps := newTestIncidentService(t)
	current := pendingIncident()
	responder := volunteer

	deps.profiles.EXPECT().GetByID(gomock.Any(), responder.ID).Return(&responder, nil).Times(1)
	deps.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil).Times(1)
	deps.repo.EXPECT().ApplyChange(gomock.Any(), current.ID, int64(3), gomock.Any()).DoAndReturn(applied(current)).Times(1)
	deps.repo.EXPECT().InvalidateIncidentCache(gomock.Any(), current.ID).Return(nil).Times(1)
	deps.expectPublish(models.EventAssigned)

	incident, err := service.AssignResponder(context.Background(), agency, current.ID, responder.ID)

	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, incident.Status)
	assert.Equal(t, responder.ID, incident.AssignedResponderID)
}

func TestAssignResponder_DifferentAssigneeConflict(t *testing.T) {
	service, deps := newTestIncidentService(t)
	current := pendingIncident()
	current.AssignedResponderID = "vol-2"
	current.AssignedResponderName = "Vikram"
	responder := volunteer

	// Ожидания: без записи
	deps.profiles.EXPECT().GetByID(gomock.Any(), responder.ID).Return(&responder, nil).Times(1)
	deps.repo.EXPECT().GetByID(gomock.Any(), current.ID).Return(current, nil).Times(1)

	_, err := service.AssignResponder(context.Background(), agency, current.ID, responder.ID)

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestAssignResponder_UnknownResponder(t *testing.T) {
	service, deps := newTestIncidentService(t)
	id := uuid.New()

	deps.profiles.EXPECT().GetByID(gomock.Any(), "ghost").Return(nil, models.ErrNotFound).Times(1)

	_, err := service.AssignResponder(context.Background(), agency, id, "ghost")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

// --- GetIncident / ListIncidents ---

func TestGetIncident_Success_FromCache(t *testing.T) {
	// Подготовка
	service, deps := newTestIncidentService(t)
	ctx := context.Background()
	expected := pendingIncident()

	// Ожидания
	deps.repo.EXPECT().
		GetIncidentFromCache(ctx, expected.ID).
		Return(expected, nil).
		Times(1)

	// Действие
	incident, err := service.GetIncident(ctx, expected.ID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expected, incident)
}

func TestGetIncident_Success_FromDB(t *testing.T) {
	// Подготовка
	service, deps := newTestIncidentService(t)
	ctx := context.Background()
	expected := pendingIncident()

	// Ожидания
	// 1. Промах кеша
	deps.repo.EXPECT().
		GetIncidentFromCache(ctx, expected.ID).
		Return(nil, nil).
		Times(1)

	// 2. Попадание в БД
	deps.repo.EXPECT().
		GetByID(ctx, expected.ID).
		Return(expected, nil).
		Times(1)

	// 3. Запись в кеш
	deps.repo.EXPECT().
		SetIncidentCache(ctx, expected).
		Return(nil).
		Times(1)

	// Действие
	incident, err := service.GetIncident(ctx, expected.ID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expected, incident)
}

func TestGetIncident_NotFound(t *testing.T) {
	service, deps := newTestIncidentService(t)
	ctx := context.Background()
	id := uuid.New()

	deps.repo.EXPECT().GetIncidentFromCache(ctx, id).Return(nil, nil).Times(1)
	deps.repo.EXPECT().GetByID(ctx, id).Return(nil, models.ErrNotFound).Times(1)

	incident, err := service.GetIncident(ctx, id)

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Nil(t, incident)
}

func TestListIncidents_NewestFirst(t *testing.T) {
	service, deps := newTestIncidentService(t)
	ctx := context.Background()
	older := pendingIncident()
	older.CreatedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	newer := pendingIncident()
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)
	filter := models.IncidentFilter{City: "Mumbai"}

	deps.repo.EXPECT().Query(ctx, filter).Return([]*models.Incident{older, newer}, nil).Times(1)

	incidents, err := service.ListIncidents(ctx, filter)

	require.NoError(t, err)
	require.Len(t, incidents, 2)
	assert.Equal(t, newer.ID, incidents[0].ID)
	assert.Equal(t, older.ID, incidents[1].ID)
}
