package v1

import (
	"fmt"
	"io"
	"net/http"

	"github.com/Manthan2028/resqnet/internal/catalog"
	"github.com/Manthan2028/resqnet/internal/dashboard"
	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/gin-gonic/gin"
)

// @Summary Stream a live feed
// @Description Server-sent events. Every event "snapshot" carries the full current result of the feed, newest first. The first event is sent immediately. The token may be passed as a query parameter.
// @Tags Feeds
// @Produce text/event-stream
// @Security SessionToken
// @Param name path string true "Feed name" Enums(reports, open, assigned, city, map)
// @Param token query string false "Session token"
// @Success 200 {object} SnapshotResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Feed not available to this role"
// @Router /feeds/{name} [get]
func (h *Handler) streamFeed(c *gin.Context) {
	name := c.Param("name")
	log := h.logger.WithField("method", "streamFeed").WithField("feed", name)
	profile := sessionProfile(c)

	d, err := dashboard.New(profile, h.deps)
	if err != nil {
		h.respondError(c, log, err)
		return
	}

	ctx := c.Request.Context()
	sub, err := d.Watch(ctx, name)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	defer sub.Close()
	log.WithField("profile_id", profile.ID).Info("Feed stream opened")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(io.Writer) bool {
		select {
		case snap, ok := <-sub.Snapshots():
			if !ok {
				return false
			}
			c.SSEvent("snapshot", SnapshotToResponse(name, snap, profile))
			return true
		case <-ctx.Done():
			return false
		}
	})
	log.WithField("profile_id", profile.ID).Info("Feed stream closed")
}

// @Summary Agency dashboard statistics
// @Description Counters over all incidents of the agency city and the incidents matching the optional filters.
// @Tags Dashboard
// @Produce json
// @Security SessionToken
// @Param status query string false "Status filter"
// @Param severity query string false "Severity filter"
// @Success 200 {object} StatsResponse
// @Failure 400 {object} map[string]string "Invalid filter"
// @Failure 403 {object} map[string]string "Not an agency"
// @Router /dashboard/stats [get]
func (h *Handler) getStats(c *gin.Context) {
	log := h.logger.WithField("method", "getStats")
	agency, ok := roleDashboard[*dashboard.Agency](h, c)
	if !ok {
		return
	}

	status := models.Status(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown status %q", status)})
		return
	}
	severity := models.Severity(c.Query("severity"))
	if severity != "" && !severity.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown severity %q", severity)})
		return
	}

	stats, incidents, err := agency.Stats(c.Request.Context(), status, severity)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, StatsResponse{
		Total:      stats.Total,
		Active:     stats.Active,
		Resolved:   stats.Resolved,
		HighActive: stats.HighActive,
		Incidents:  ModelsToIncidentResponses(incidents, agency.Profile()),
	})
}

// @Summary List relief resources
// @Description Catalog of relief resources, available first. Filters combine with AND.
// @Tags Resources
// @Produce json
// @Param type query string false "Resource type"
// @Param status query string false "Available, Limited or Unavailable"
// @Param city query string false "City"
// @Success 200 {array} models.ResourceItem
// @Router /resources [get]
func (h *Handler) listResources(c *gin.Context) {
	if h.deps.Catalog == nil {
		c.JSON(http.StatusOK, []models.ResourceItem{})
		return
	}
	c.JSON(http.StatusOK, h.deps.Catalog.List(catalog.Filter{
		Type:   models.ResourceType(c.Query("type")),
		Status: models.ResourceStatus(c.Query("status")),
		City:   c.Query("city"),
	}))
}
