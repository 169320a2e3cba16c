package v1

import (
	"time"

	"github.com/google/uuid"
)

// CreateSessionRequest DTO для открытия сессии
// @Description DTO для открытия сессии от имени профиля
type CreateSessionRequest struct {
	ProfileID string `json:"profile_id" validate:"required"`
}

// SessionResponse DTO для ответа с токеном сессии
// @Description DTO для ответа с токеном сессии
type SessionResponse struct {
	Token     string           `json:"token,omitempty"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
	Profile   *ProfileResponse `json:"profile"`
	Feeds     []string         `json:"feeds"`
}

// RegisterProfileRequest DTO для регистрации профиля
// @Description DTO для регистрации профиля
type RegisterProfileRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Role          string `json:"role" validate:"required,oneof=citizen volunteer agency"`
	Name          string `json:"name" validate:"required,min=2,max=255"`
	Phone         string `json:"phone" validate:"required,min=3,max=32"`
	City          string `json:"city" validate:"required"`
	Category      string `json:"category,omitempty" validate:"omitempty,oneof=Medical Rescue Transport NGO General"`
	AuthorityName string `json:"authority_name,omitempty"`
	Department    string `json:"department,omitempty"`
	Region        string `json:"region,omitempty"`
}

// ProfileResponse DTO для ответа с профилем
// @Description DTO для ответа с профилем
type ProfileResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	City          string    `json:"city"`
	Category      string    `json:"category,omitempty"`
	IsAvailable   bool      `json:"is_available"`
	AuthorityName string    `json:"authority_name,omitempty"`
	Department    string    `json:"department,omitempty"`
	Region        string    `json:"region,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// AvailabilityRequest DTO для смены доступности волонтера
// @Description DTO для смены доступности волонтера
type AvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// CreateIncidentRequest DTO для сообщения о происшествии. Принимается как JSON или multipart.
// Координаты - указатели: нулевая широта или долгота допустимы, required проверяет наличие.
// @Description DTO для сообщения о происшествии
type CreateIncidentRequest struct {
	Type        string   `json:"type" form:"type" validate:"required,oneof=accident fire medical flood earthquake other"`
	Severity    string   `json:"severity" form:"severity" validate:"required,oneof=Low Medium High"`
	Description string   `json:"description" form:"description" validate:"required,max=4000"`
	Latitude    *float64 `json:"latitude" form:"latitude" validate:"required,latitude"`
	Longitude   *float64 `json:"longitude" form:"longitude" validate:"required,longitude"`
	Address     string   `json:"address,omitempty" form:"address"`
}

// SubmitUpdateRequest DTO для обновления от назначенного волонтера
// @Description DTO для обновления от назначенного волонтера
type SubmitUpdateRequest struct {
	Message string `json:"message" form:"message" validate:"required,max=4000"`
	Status  string `json:"status" form:"status" validate:"required,oneof=verified in-progress resolved"`
}

// SetStatusRequest DTO для смены статуса ведомством
// @Description DTO для смены статуса ведомством
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending verified in-progress resolved"`
}

// ReopenRequest DTO для возврата решенного инцидента в работу
// @Description DTO для возврата решенного инцидента в работу
type ReopenRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=4000"`
}

// AssignRequest DTO для назначения волонтера
// @Description DTO для назначения волонтера
type AssignRequest struct {
	ResponderID string `json:"responder_id" validate:"required"`
}

// LocationResponse DTO координат инцидента
type LocationResponse struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// IncidentUpdateResponse DTO записи журнала
type IncidentUpdateResponse struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	UpdatedBy     string    `json:"updated_by"`
	UpdatedByRole string    `json:"updated_by_role"`
	Message       string    `json:"message"`
	ImageURL      *string   `json:"image_url,omitempty"`
	Status        string    `json:"status"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте. Actions - действия, доступные текущей сессии.
type IncidentResponse struct {
	ID                    uuid.UUID                `json:"id"`
	ReportedBy            string                   `json:"reported_by"`
	ReportedByName        string                   `json:"reported_by_name"`
	ReportedByRole        string                   `json:"reported_by_role"`
	City                  string                   `json:"city"`
	Type                  string                   `json:"type"`
	Severity              string                   `json:"severity"`
	Location              LocationResponse         `json:"location"`
	Description           string                   `json:"description"`
	ImageURL              *string                  `json:"image_url,omitempty"`
	Status                string                   `json:"status"`
	AssignedResponderID   string                   `json:"assigned_responder_id,omitempty"`
	AssignedResponderName string                   `json:"assigned_responder_name,omitempty"`
	Updates               []IncidentUpdateResponse `json:"updates"`
	Revision              int64                    `json:"revision"`
	Actions               []string                 `json:"actions"`
	CreatedAt             time.Time                `json:"created_at"`
	UpdatedAt             time.Time                `json:"updated_at"`
}

// StatsResponse DTO для сводки диспетчерской
// @Description DTO для сводки диспетчерской
type StatsResponse struct {
	Total      int                 `json:"total"`
	Active     int                 `json:"active"`
	Resolved   int                 `json:"resolved"`
	HighActive int                 `json:"high_active"`
	Incidents  []*IncidentResponse `json:"incidents"`
}

// SnapshotResponse DTO снимка ленты, отправляется событием SSE "snapshot"
// @Description DTO снимка ленты
type SnapshotResponse struct {
	Feed      string              `json:"feed"`
	Seq       uint64              `json:"seq"`
	At        time.Time           `json:"at"`
	Incidents []*IncidentResponse `json:"incidents"`
}
