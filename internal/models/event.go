package models

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventCreated       EventKind = "incident.created"
	EventAccepted      EventKind = "incident.accepted"
	EventUpdated       EventKind = "incident.updated"
	EventStatusChanged EventKind = "incident.status_changed"
	EventAssigned      EventKind = "incident.assigned"
	EventReopened      EventKind = "incident.reopened"
)

// IncidentEvent - уведомление об успешной записи инцидента
type IncidentEvent struct {
	Kind       EventKind `json:"kind"`
	IncidentID uuid.UUID `json:"incident_id"`
	Incident   *Incident `json:"incident,omitempty"`
	ActorID    string    `json:"actor_id"`
	ActorRole  Role      `json:"actor_role"`
	At         time.Time `json:"at"`
}
