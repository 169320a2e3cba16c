package v1

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Manthan2028/resqnet/internal/config"
	"github.com/Manthan2028/resqnet/internal/dashboard"
	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/Manthan2028/resqnet/internal/service"
	"github.com/Manthan2028/resqnet/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	incidentService service.IncidentService
	profileService  service.ProfileService
	deps            dashboard.Deps
	sessions        *session.Issuer
	logger          *logrus.Logger
	validate        *validator.Validate
	cfg             *config.Config
}

func NewHandler(deps dashboard.Deps, sessions *session.Issuer, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		incidentService: deps.Incidents,
		profileService:  deps.Profiles,
		deps:            deps,
		sessions:        sessions,
		logger:          logger,
		validate:        validator.New(),
		cfg:             cfg,
	}
}

// roleDashboard строит набор действий сессии и проверяет, что он относится к роли T
func roleDashboard[T dashboard.Dashboard](h *Handler, c *gin.Context) (T, bool) {
	var zero T
	profile := sessionProfile(c)
	d, err := dashboard.New(profile, h.deps)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return zero, false
	}
	typed, ok := d.(T)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("action is not available to %s", profile.Role)})
		return zero, false
	}
	return typed, true
}

// respondError отображает доменные ошибки в HTTP-статусы
func (h *Handler) respondError(c *gin.Context, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.WithError(err).Error("Request failed in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bind разбирает тело запроса (JSON или форма) и проверяет DTO
func (h *Handler) bind(c *gin.Context, log *logrus.Entry, input any) bool {
	if err := c.ShouldBind(input); err != nil {
		log.WithError(err).Warn("Failed to bind request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func parseIncidentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return uuid.Nil, false
	}
	return id, true
}

// formImage возвращает вложение image из multipart-запроса, если оно есть
func formImage(c *gin.Context) (*models.Upload, io.Closer, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, io.NopCloser(nil), nil
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, io.NopCloser(nil), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read image: %w", err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open image: %w", err)
	}
	return &models.Upload{Name: fh.Filename, Body: f}, f, nil
}

// @Summary Report an incident
// @Description Citizen reports an incident. Accepts JSON or multipart form with an optional image file. A failed image upload does not fail the report.
// @Tags Incidents
// @Accept json,mpfd
// @Produce json
// @Security SessionToken
// @Param incident body CreateIncidentRequest true "Incident report"
// @Param image formData file false "Scene photo"
// @Success 201 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Only citizens can report"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	log := h.logger.WithField("method", "createIncident")
	citizen, ok := roleDashboard[*dashboard.Citizen](h, c)
	if !ok {
		return
	}

	var input CreateIncidentRequest
	if !h.bind(c, log, &input) {
		return
	}

	image, closer, err := formImage(c)
	if err != nil {
		log.WithError(err).Warn("Failed to read image")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
		return
	}
	defer closer.Close()

	incident, err := citizen.Report(c.Request.Context(), DTOToReportInput(input, image))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, ModelToIncidentResponse(incident, citizen.Profile()))
}

// @Summary List incidents
// @Description One-shot query, newest first. Filters combine with AND; status may repeat.
// @Tags Incidents
// @Produce json
// @Security SessionToken
// @Param city query string false "City"
// @Param reporter query string false "Reporter profile ID"
// @Param assignee query string false "Assigned responder ID"
// @Param status query []string false "Statuses" collectionFormat(multi)
// @Success 200 {array} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid status"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")

	filter := models.IncidentFilter{
		City:       c.Query("city"),
		ReporterID: c.Query("reporter"),
		AssigneeID: c.Query("assignee"),
	}
	for _, s := range c.QueryArray("status") {
		status := models.Status(s)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown status %q", s)})
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	incidents, err := h.incidentService.ListIncidents(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents, sessionProfile(c)))
}

// @Summary Get incident by ID
// @Tags Incidents
// @Produce json
// @Security SessionToken
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, ok := parseIncidentID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidentService.GetIncident(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident, sessionProfile(c)))
}

// @Summary Accept an incident
// @Description Volunteer takes an unassigned pending incident of their city. Status becomes verified.
// @Tags Incidents
// @Produce json
// @Security SessionToken
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 403 {object} map[string]string "Not a volunteer of this city"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 409 {object} map[string]string "Already assigned or not pending"
// @Router /incidents/{id}/accept [post]
func (h *Handler) acceptIncident(c *gin.Context) {
	id, ok := parseIncidentID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "acceptIncident").WithField("id", id)
	volunteer, ok := roleDashboard[*dashboard.Volunteer](h, c)
	if !ok {
		return
	}

	incident, err := volunteer.Accept(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident, volunteer.Profile()))
}

// @Summary Submit a field update
// @Description Assigned volunteer appends a log entry and sets the status in one write. Accepts JSON or multipart with an optional image.
// @Tags Incidents
// @Accept json,mpfd
// @Produce json
// @Security SessionToken
// @Param id path string true "Incident ID"
// @Param update body SubmitUpdateRequest true "Update"
// @Param image formData file false "Photo"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Not the assigned volunteer"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 409 {object} map[string]string "Concurrent change"
// @Router /incidents/{id}/updates [post]
func (h *Handler) submitUpdate(c *gin.Context) {
	id, ok := parseIncidentID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "submitUpdate").WithField("id", id)
	volunteer, ok := roleDashboard[*dashboard.Volunteer](h, c)
	if !ok {
		return
	}

	var input SubmitUpdateRequest
	if !h.bind(c, log, &input) {
		return
	}

	image, closer, err := formImage(c)
	if err != nil {
		log.WithError(err).Warn("Failed to read image")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
		return
	}
	defer closer.Close()

	incident, err := volunteer.SubmitUpdate(c.Request.Context(), id, models.UpdateInput{
		Message: input.Message,
		Status:  models.Status(input.Status),
		Image:   image,
	})
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident, volunteer.Profile()))
}

// @Summary Set incident status
// @Description Agency overrides the status. A resolved incident can only leave resolved through reopen.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security SessionToken
// @Param id path string true "Incident ID"
// @Param status body SetStatusRequest true "New status"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Not an agency of this city"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 409 {object} map[string]string "Reopen required or concurrent change"
// @Router /incidents/{id}/status [put]
func (h *Handler) setStatus(c *gin.Context) {
	id, ok := parseIncidentID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "setStatus").WithField("id", id)
	agency, ok := roleDashboard[*dashboard.Agency](h, c)
	if !ok {
		return
	}

	var input SetStatusRequest
	if !h.bind(c, log, &input) {
		return
	}

	incident, err := agency.SetStatus(c.Request.Context(), id, models.Status(input.Status))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident, agency.Profile()))
}

// @Summary Reopen a resolved incident
// @Description Agency moves a resolved incident back to pending and records the reason in the log.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security SessionToken
// @Param id path string true "Incident ID"
// @Param reopen body ReopenRequest false "Reason"
// @Success 200 {object} IncidentResponse
// @Failure 403 {object} map[string]string "Not an agency of this city"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 409 {object} map[string]string "Incident is not resolved"
// @Router /incidents/{id}/reopen [post]
func (h *Handler) reopenIncident(c *gin.Context) {
	id, ok := parseIncidentID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "reopenIncident").WithField("id", id)
	agency, ok := roleDashboard[*dashboard.Agency](h, c)
	if !ok {
		return
	}

	var input ReopenRequest
	if c.Request.ContentLength != 0 && !h.bind(c, log, &input) {
		return
	}

	incident, err := agency.Reopen(c.Request.Context(), id, input.Reason)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident, agency.Profile()))
}

// @Summary Assign a responder
// @Description Agency assigns an available volunteer. Status becomes verified.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security SessionToken
// @Param id path string true "Incident ID"
// @Param assign body AssignRequest true "Responder"
// @Success 200 {object} IncidentResponse
// @Failure 403 {object} map[string]string "Not an agency of this city"
// @Failure 404 {object} map[string]string "Incident or responder not found"
// @Failure 409 {object} map[string]string "Assigned to someone else or responder unavailable"
// @Router /incidents/{id}/assign [post]
func (h *Handler) assignResponder(c *gin.Context) {
	id, ok := parseIncidentID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "assignResponder").WithField("id", id)
	agency, ok := roleDashboard[*dashboard.Agency](h, c)
	if !ok {
		return
	}

	var input AssignRequest
	if !h.bind(c, log, &input) {
		return
	}

	incident, err := agency.Assign(c.Request.Context(), id, input.ResponderID)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident, agency.Profile()))
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
