package models

import (
	"time"

	"github.com/google/uuid"
)

// Status - стадия жизненного цикла инцидента
type Status string

const (
	StatusPending    Status = "pending"
	StatusVerified   Status = "verified"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
)

// OpenStatuses - статусы, которые видит волонтер в ленте открытых инцидентов
var OpenStatuses = []Status{StatusPending, StatusVerified, StatusInProgress}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// IncidentType - тип происшествия
type IncidentType string

const (
	TypeAccident   IncidentType = "accident"
	TypeFire       IncidentType = "fire"
	TypeMedical    IncidentType = "medical"
	TypeFlood      IncidentType = "flood"
	TypeEarthquake IncidentType = "earthquake"
	TypeOther      IncidentType = "other"
)

func (t IncidentType) Valid() bool {
	switch t {
	case TypeAccident, TypeFire, TypeMedical, TypeFlood, TypeEarthquake, TypeOther:
		return true
	}
	return false
}

// Severity - степень серьезности
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

type Location struct {
	Lat     float64 `json:"lat" validate:"latitude"`
	Lng     float64 `json:"lng" validate:"longitude"`
	Address string  `json:"address,omitempty"`
}

// IncidentUpdate - запись журнала обновлений. После добавления не изменяется.
type IncidentUpdate struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	UpdatedBy     string    `json:"updated_by"`
	UpdatedByRole Role      `json:"updated_by_role"`
	Message       string    `json:"message"`
	ImageURL      *string   `json:"image_url,omitempty"`
	Status        Status    `json:"status"`
}

type Incident struct {
	ID             uuid.UUID    `json:"id"`
	ReportedBy     string       `json:"reported_by"`
	ReportedByName string       `json:"reported_by_name"`
	ReportedByRole Role         `json:"reported_by_role"`
	City           string       `json:"city"`
	Type           IncidentType `json:"type"`
	Severity       Severity     `json:"severity"`
	Location       Location     `json:"location"`
	Description    string       `json:"description"`
	ImageURL       *string      `json:"image_url,omitempty"`

	Status                Status           `json:"status"`
	AssignedResponderID   string           `json:"assigned_responder_id,omitempty"`
	AssignedResponderName string           `json:"assigned_responder_name,omitempty"`
	Updates               []IncidentUpdate `json:"updates"`

	// Revision увеличивается при каждой записи, используется для условного обновления
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Assigned сообщает, закреплен ли за инцидентом ответственный волонтер
func (i *Incident) Assigned() bool {
	return i.AssignedResponderID != ""
}

// Clone возвращает глубокую копию инцидента
func (i *Incident) Clone() *Incident {
	c := *i
	if i.ImageURL != nil {
		url := *i.ImageURL
		c.ImageURL = &url
	}
	c.Updates = make([]IncidentUpdate, len(i.Updates))
	for n, u := range i.Updates {
		if u.ImageURL != nil {
			url := *u.ImageURL
			u.ImageURL = &url
		}
		c.Updates[n] = u
	}
	return &c
}

// Assignee - волонтер, за которым закрепляется инцидент
type Assignee struct {
	ID   string
	Name string
}

// IncidentChange - частичное обновление инцидента. Все непустые поля записываются одной операцией.
type IncidentChange struct {
	Status *Status
	Assign *Assignee
	Append *IncidentUpdate
}

// Empty сообщает, что изменение ничего не меняет
func (c IncidentChange) Empty() bool {
	return c.Status == nil && c.Assign == nil && c.Append == nil
}

// Apply применяет изменение к копии инцидента
func (c IncidentChange) Apply(inc *Incident) *Incident {
	out := inc.Clone()
	if c.Status != nil {
		out.Status = *c.Status
	}
	if c.Assign != nil {
		out.AssignedResponderID = c.Assign.ID
		out.AssignedResponderName = c.Assign.Name
	}
	if c.Append != nil {
		out.Updates = append(out.Updates, *c.Append)
	}
	return out
}
