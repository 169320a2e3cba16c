package feed

import (
	"testing"
	"time"

	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func incidentAt(city string, at time.Time) *models.Incident {
	return &models.Incident{
		ID:        uuid.New(),
		City:      city,
		Status:    models.StatusPending,
		Severity:  models.SeverityMedium,
		CreatedAt: at,
	}
}

func TestProject_NewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	old := incidentAt("Mumbai", base)
	mid := incidentAt("Mumbai", base.Add(time.Minute))
	fresh := incidentAt("Mumbai", base.Add(2*time.Minute))

	out := Project([]*models.Incident{mid, old, nil, fresh})

	require.Len(t, out, 3)
	assert.Equal(t, fresh.ID, out[0].ID)
	assert.Equal(t, mid.ID, out[1].ID)
	assert.Equal(t, old.ID, out[2].ID)
	for i := 1; i < len(out); i++ {
		assert.False(t, out[i].CreatedAt.After(out[i-1].CreatedAt))
	}
}

func TestProject_TieBrokenByID(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := incidentAt("Mumbai", at)
	b := incidentAt("Mumbai", at)

	first := Project([]*models.Incident{a, b})
	second := Project([]*models.Incident{b, a})

	require.Len(t, first, 2)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)
}

func TestNormalize_EmptyUpdatesAndUTC(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	inc := incidentAt("Mumbai", time.Date(2026, 3, 1, 15, 30, 0, 0, loc))
	inc.Updates = nil

	out := Normalize(inc)

	require.NotNil(t, out.Updates)
	assert.Empty(t, out.Updates)
	assert.Equal(t, time.UTC, out.CreatedAt.Location())
	assert.True(t, out.CreatedAt.Equal(inc.CreatedAt))
}

func TestUnassignedAndAssignedTo(t *testing.T) {
	now := time.Now()
	free := incidentAt("Mumbai", now)
	mine := incidentAt("Mumbai", now)
	mine.AssignedResponderID = "vol-1"
	other := incidentAt("Mumbai", now)
	other.AssignedResponderID = "vol-2"
	all := []*models.Incident{free, mine, other}

	unassigned := Unassigned(all)
	require.Len(t, unassigned, 1)
	assert.Equal(t, free.ID, unassigned[0].ID)

	assigned := AssignedTo(all, "vol-1")
	require.Len(t, assigned, 1)
	assert.Equal(t, mine.ID, assigned[0].ID)
}

func TestFilterByAndStats(t *testing.T) {
	now := time.Now()
	high := incidentAt("Mumbai", now)
	high.Severity = models.SeverityHigh
	highResolved := incidentAt("Mumbai", now)
	highResolved.Severity = models.SeverityHigh
	highResolved.Status = models.StatusResolved
	low := incidentAt("Mumbai", now)
	low.Severity = models.SeverityLow
	low.Status = models.StatusInProgress
	all := []*models.Incident{high, highResolved, low}

	assert.Len(t, FilterBy(all, "", ""), 3)
	assert.Len(t, FilterBy(all, "", models.SeverityHigh), 2)
	assert.Len(t, FilterBy(all, models.StatusResolved, models.SeverityHigh), 1)
	assert.Empty(t, FilterBy(all, models.StatusVerified, ""))

	assert.Equal(t, Stats{Total: 3, Active: 2, Resolved: 1, HighActive: 1}, ComputeStats(all))
}

func TestFilters(t *testing.T) {
	open := OpenInCity("Mumbai")
	assert.Equal(t, "Mumbai", open.City)
	assert.ElementsMatch(t, models.OpenStatuses, open.Statuses)

	open.Statuses[0] = models.StatusResolved
	assert.Equal(t, models.StatusPending, models.OpenStatuses[0])

	assert.Equal(t, models.IncidentFilter{ReporterID: "u1"}, ByReporter("u1"))
	assert.Equal(t, models.IncidentFilter{AssigneeID: "v1"}, ByAssignee("v1"))
	assert.Equal(t, models.IncidentFilter{City: "Thane"}, ByCity("Thane"))
	assert.Equal(t, models.IncidentFilter{}, All())
}
