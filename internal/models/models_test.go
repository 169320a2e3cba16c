package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIncidentFilter_Matches(t *testing.T) {
	inc := &Incident{
		ID:                  uuid.New(),
		City:                "Mumbai",
		ReportedBy:          "citizen-1",
		AssignedResponderID: "volunteer-1",
		Status:              StatusVerified,
	}

	tests := []struct {
		name   string
		filter IncidentFilter
		want   bool
	}{
		{"unfiltered", IncidentFilter{}, true},
		{"same city", IncidentFilter{City: "Mumbai"}, true},
		{"other city", IncidentFilter{City: "Thane"}, false},
		{"reporter", IncidentFilter{ReporterID: "citizen-1"}, true},
		{"other reporter", IncidentFilter{ReporterID: "citizen-2"}, false},
		{"assignee", IncidentFilter{AssigneeID: "volunteer-1"}, true},
		{"open statuses", IncidentFilter{City: "Mumbai", Statuses: OpenStatuses}, true},
		{"resolved only", IncidentFilter{Statuses: []Status{StatusResolved}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(inc))
		})
	}
	assert.False(t, IncidentFilter{}.Matches(nil))
}

func TestIncidentChange_ApplyDoesNotMutateSource(t *testing.T) {
	url := "http://media/1.jpg"
	src := &Incident{
		ID:      uuid.New(),
		Status:  StatusVerified,
		Updates: []IncidentUpdate{{ID: "u1", Message: "на месте", ImageURL: &url}},
	}
	resolved := StatusResolved
	change := IncidentChange{
		Status: &resolved,
		Append: &IncidentUpdate{ID: "u2", Message: "готово", Status: StatusResolved},
	}

	out := change.Apply(src)

	assert.Equal(t, StatusResolved, out.Status)
	assert.Len(t, out.Updates, 2)
	assert.Equal(t, StatusVerified, src.Status)
	assert.Len(t, src.Updates, 1)

	*out.Updates[0].ImageURL = "changed"
	assert.Equal(t, "http://media/1.jpg", *src.Updates[0].ImageURL)
}

func TestIsDomainError(t *testing.T) {
	assert.True(t, IsDomainError(ErrStaleRevision))
	assert.True(t, IsDomainError(ErrNotFound))
	assert.False(t, IsDomainError(assert.AnError))
}
