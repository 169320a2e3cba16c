package v1

import (
	"errors"
	"net/http"

	"github.com/Manthan2028/resqnet/internal/dashboard"
	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/gin-gonic/gin"
)

// @Summary Open a session
// @Description Issues a signed session token for an existing profile. There is no credential check.
// @Tags Session
// @Accept json
// @Produce json
// @Param session body CreateSessionRequest true "Profile to act as"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 404 {object} map[string]string "Profile not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /session [post]
func (h *Handler) createSession(c *gin.Context) {
	log := h.logger.WithField("method", "createSession")

	var input CreateSessionRequest
	if !h.bind(c, log, &input) {
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), input.ProfileID)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	d, err := dashboard.New(*profile, h.deps)
	if err != nil {
		h.respondError(c, log, err)
		return
	}

	token, expires, err := h.sessions.Issue(*profile)
	if err != nil {
		h.respondError(c, log, err)
		return
	}

	log.WithField("profile_id", profile.ID).Info("Session issued")
	c.JSON(http.StatusCreated, SessionResponse{
		Token:     token,
		ExpiresAt: &expires,
		Profile:   ModelToProfileResponse(profile),
		Feeds:     d.Feeds(),
	})
}

// @Summary Current session
// @Tags Session
// @Produce json
// @Security SessionToken
// @Success 200 {object} SessionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /session [get]
func (h *Handler) getSession(c *gin.Context) {
	log := h.logger.WithField("method", "getSession")
	profile := sessionProfile(c)

	d, err := dashboard.New(profile, h.deps)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{
		Profile: ModelToProfileResponse(&profile),
		Feeds:   d.Feeds(),
	})
}

// @Summary Register a profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Param profile body RegisterProfileRequest true "Profile"
// @Success 201 {object} ProfileResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 409 {object} map[string]string "Email already registered"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /profiles [post]
func (h *Handler) registerProfile(c *gin.Context) {
	log := h.logger.WithField("method", "registerProfile")

	var input RegisterProfileRequest
	if !h.bind(c, log, &input) {
		return
	}

	profile, err := h.profileService.Register(c.Request.Context(), DTOToRegisterInput(input))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, ModelToProfileResponse(profile))
}

// @Summary Get profile by ID
// @Tags Profiles
// @Produce json
// @Security SessionToken
// @Param id path string true "Profile ID"
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Profile not found"
// @Router /profiles/{id} [get]
func (h *Handler) getProfile(c *gin.Context) {
	log := h.logger.WithField("method", "getProfile").WithField("id", c.Param("id"))

	profile, err := h.profileService.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToProfileResponse(profile))
}

// @Summary List responders
// @Description Agency lists volunteers of its city, optionally only available ones.
// @Tags Profiles
// @Produce json
// @Security SessionToken
// @Param available query bool false "Only available volunteers"
// @Success 200 {array} ProfileResponse
// @Failure 403 {object} map[string]string "Not an agency"
// @Router /responders [get]
func (h *Handler) listResponders(c *gin.Context) {
	log := h.logger.WithField("method", "listResponders")
	agency, ok := roleDashboard[*dashboard.Agency](h, c)
	if !ok {
		return
	}

	responders, err := agency.Responders(c.Request.Context(), c.Query("available") == "true")
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToProfileResponses(responders))
}

// @Summary Set own availability
// @Tags Profiles
// @Accept json
// @Produce json
// @Security SessionToken
// @Param availability body AvailabilityRequest true "Availability"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Not a volunteer"
// @Router /responders/me/availability [put]
func (h *Handler) setAvailability(c *gin.Context) {
	log := h.logger.WithField("method", "setAvailability")
	volunteer, ok := roleDashboard[*dashboard.Volunteer](h, c)
	if !ok {
		return
	}

	var input AvailabilityRequest
	if !h.bind(c, log, &input) {
		return
	}

	profile, err := volunteer.SetAvailability(c.Request.Context(), *input.Available)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session profile no longer exists"})
			return
		}
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToProfileResponse(profile))
}
