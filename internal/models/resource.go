package models

import "time"

type ResourceType string

const (
	ResourceAmbulance    ResourceType = "Ambulance"
	ResourceHospitalBeds ResourceType = "Hospital Beds"
	ResourceFood         ResourceType = "Food"
	ResourceWater        ResourceType = "Water"
	ResourceShelter      ResourceType = "Shelter"
	ResourceBlood        ResourceType = "Blood"
	ResourceRescue       ResourceType = "Rescue Equipment"
)

type ResourceStatus string

const (
	ResourceAvailable   ResourceStatus = "Available"
	ResourceLimited     ResourceStatus = "Limited"
	ResourceUnavailable ResourceStatus = "Unavailable"
)

// ResourceItem - позиция справочника ресурсов помощи
type ResourceItem struct {
	ID           string         `json:"id" yaml:"id"`
	Type         ResourceType   `json:"type" yaml:"type"`
	City         string         `json:"city" yaml:"city"`
	Location     string         `json:"location" yaml:"location"`
	Status       ResourceStatus `json:"status" yaml:"status"`
	Quantity     string         `json:"quantity" yaml:"quantity"`
	ProviderName string         `json:"provider_name" yaml:"provider_name"`
	ContactNr    string         `json:"contact_nr" yaml:"contact_nr"`
	LastUpdated  time.Time      `json:"last_updated" yaml:"last_updated"`
}
