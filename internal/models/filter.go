package models

import "slices"

// IncidentFilter описывает выборку инцидентов. Пустое поле не ограничивает выборку.
type IncidentFilter struct {
	City       string   `json:"city,omitempty"`
	ReporterID string   `json:"reporter_id,omitempty"`
	AssigneeID string   `json:"assignee_id,omitempty"`
	Statuses   []Status `json:"statuses,omitempty"`
}

// Matches проверяет, попадает ли инцидент в выборку
func (f IncidentFilter) Matches(inc *Incident) bool {
	if inc == nil {
		return false
	}
	if f.City != "" && inc.City != f.City {
		return false
	}
	if f.ReporterID != "" && inc.ReportedBy != f.ReporterID {
		return false
	}
	if f.AssigneeID != "" && inc.AssignedResponderID != f.AssigneeID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, inc.Status) {
		return false
	}
	return true
}
