package feed

import (
	"slices"

	"github.com/Manthan2028/resqnet/internal/models"
)

// ByCity - все инциденты города (лента диспетчерской)
func ByCity(city string) models.IncidentFilter {
	return models.IncidentFilter{City: city}
}

// ByReporter - сообщения одного гражданина
func ByReporter(reporterID string) models.IncidentFilter {
	return models.IncidentFilter{ReporterID: reporterID}
}

// OpenInCity - открытые инциденты города (лента волонтера)
func OpenInCity(city string) models.IncidentFilter {
	return models.IncidentFilter{City: city, Statuses: slices.Clone(models.OpenStatuses)}
}

// ByAssignee - инциденты, закрепленные за волонтером, включая решенные
func ByAssignee(responderID string) models.IncidentFilter {
	return models.IncidentFilter{AssigneeID: responderID}
}

// All - без фильтра (общая карта)
func All() models.IncidentFilter {
	return models.IncidentFilter{}
}
