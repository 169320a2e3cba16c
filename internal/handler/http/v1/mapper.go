package v1

import (
	"github.com/Manthan2028/resqnet/internal/feed"
	"github.com/Manthan2028/resqnet/internal/lifecycle"
	"github.com/Manthan2028/resqnet/internal/models"
)

// DTOToReportInput преобразует DTO сообщения в вход сервиса. Координаты уже проверены на наличие.
func DTOToReportInput(dto CreateIncidentRequest, image *models.Upload) models.ReportInput {
	var lat, lng float64
	if dto.Latitude != nil {
		lat = *dto.Latitude
	}
	if dto.Longitude != nil {
		lng = *dto.Longitude
	}
	return models.ReportInput{
		Type:        models.IncidentType(dto.Type),
		Severity:    models.Severity(dto.Severity),
		Description: dto.Description,
		Location: &models.Location{
			Lat:     lat,
			Lng:     lng,
			Address: dto.Address,
		},
		Image: image,
	}
}

func DTOToRegisterInput(dto RegisterProfileRequest) models.RegisterInput {
	return models.RegisterInput{
		Email:         dto.Email,
		Role:          models.Role(dto.Role),
		Name:          dto.Name,
		Phone:         dto.Phone,
		City:          dto.City,
		Category:      models.VolunteerCategory(dto.Category),
		AuthorityName: dto.AuthorityName,
		Department:    dto.Department,
		Region:        dto.Region,
	}
}

func ModelToProfileResponse(p *models.Profile) *ProfileResponse {
	return &ProfileResponse{
		ID:            p.ID,
		Email:         p.Email,
		Role:          string(p.Role),
		Name:          p.Name,
		Phone:         p.Phone,
		City:          p.City,
		Category:      string(p.Category),
		IsAvailable:   p.IsAvailable,
		AuthorityName: p.AuthorityName,
		Department:    p.Department,
		Region:        p.Region,
		CreatedAt:     p.CreatedAt,
	}
}

func ModelsToProfileResponses(profiles []*models.Profile) []*ProfileResponse {
	responses := make([]*ProfileResponse, len(profiles))
	for i, p := range profiles {
		responses[i] = ModelToProfileResponse(p)
	}
	return responses
}

// ModelToIncidentResponse преобразует доменную модель в DTO. Действия считаются для viewer.
func ModelToIncidentResponse(model *models.Incident, viewer models.Profile) *IncidentResponse {
	updates := make([]IncidentUpdateResponse, len(model.Updates))
	for i, u := range model.Updates {
		updates[i] = IncidentUpdateResponse{
			ID:            u.ID,
			Timestamp:     u.Timestamp,
			UpdatedBy:     u.UpdatedBy,
			UpdatedByRole: string(u.UpdatedByRole),
			Message:       u.Message,
			ImageURL:      u.ImageURL,
			Status:        string(u.Status),
		}
	}

	actions := lifecycle.Actions(model, viewer)
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}

	return &IncidentResponse{
		ID:             model.ID,
		ReportedBy:     model.ReportedBy,
		ReportedByName: model.ReportedByName,
		ReportedByRole: string(model.ReportedByRole),
		City:           model.City,
		Type:           string(model.Type),
		Severity:       string(model.Severity),
		Location: LocationResponse{
			Lat:     model.Location.Lat,
			Lng:     model.Location.Lng,
			Address: model.Location.Address,
		},
		Description:           model.Description,
		ImageURL:              model.ImageURL,
		Status:                string(model.Status),
		AssignedResponderID:   model.AssignedResponderID,
		AssignedResponderName: model.AssignedResponderName,
		Updates:               updates,
		Revision:              model.Revision,
		Actions:               names,
		CreatedAt:             model.CreatedAt,
		UpdatedAt:             model.UpdatedAt,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(incidents []*models.Incident, viewer models.Profile) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(incidents))
	for i, model := range incidents {
		responses[i] = ModelToIncidentResponse(model, viewer)
	}
	return responses
}

func SnapshotToResponse(name string, snap feed.Snapshot, viewer models.Profile) *SnapshotResponse {
	return &SnapshotResponse{
		Feed:      name,
		Seq:       snap.Seq,
		At:        snap.At,
		Incidents: ModelsToIncidentResponses(snap.Incidents, viewer),
	}
}
