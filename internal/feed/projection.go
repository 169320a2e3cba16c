package feed

import (
	"slices"
	"strings"

	"github.com/Manthan2028/resqnet/internal/models"
)

// Normalize возвращает копию инцидента с пустым (не nil) журналом и временем в UTC
func Normalize(inc *models.Incident) *models.Incident {
	out := inc.Clone()
	out.CreatedAt = out.CreatedAt.UTC()
	out.UpdatedAt = out.UpdatedAt.UTC()
	for i := range out.Updates {
		out.Updates[i].Timestamp = out.Updates[i].Timestamp.UTC()
	}
	return out
}

// Project нормализует выборку и сортирует ее от новых к старым. Индекс 0 - самый свежий инцидент.
func Project(incidents []*models.Incident) []*models.Incident {
	out := make([]*models.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if inc != nil {
			out = append(out, Normalize(inc))
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Incident) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

// Unassigned - инциденты без ответственного, которые волонтер может взять
func Unassigned(incidents []*models.Incident) []*models.Incident {
	return keep(incidents, func(inc *models.Incident) bool { return !inc.Assigned() })
}

// AssignedTo - инциденты, закрепленные за волонтером
func AssignedTo(incidents []*models.Incident, responderID string) []*models.Incident {
	return keep(incidents, func(inc *models.Incident) bool { return inc.AssignedResponderID == responderID })
}

// FilterBy отбирает инциденты по статусу и серьезности. Пустое значение не ограничивает.
func FilterBy(incidents []*models.Incident, status models.Status, severity models.Severity) []*models.Incident {
	return keep(incidents, func(inc *models.Incident) bool {
		if status != "" && inc.Status != status {
			return false
		}
		if severity != "" && inc.Severity != severity {
			return false
		}
		return true
	})
}

// Stats - сводка для диспетчерской
type Stats struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	Resolved   int `json:"resolved"`
	HighActive int `json:"high_active"`
}

func ComputeStats(incidents []*models.Incident) Stats {
	var st Stats
	for _, inc := range incidents {
		st.Total++
		if inc.Status == models.StatusResolved {
			st.Resolved++
			continue
		}
		st.Active++
		if inc.Severity == models.SeverityHigh {
			st.HighActive++
		}
	}
	return st
}

func keep(incidents []*models.Incident, pred func(*models.Incident) bool) []*models.Incident {
	out := make([]*models.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if pred(inc) {
			out = append(out, inc)
		}
	}
	return out
}
