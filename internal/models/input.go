package models

import "io"

// Upload - вложение, полученное от клиента
type Upload struct {
	Name string
	Body io.Reader
}

// ReportInput - данные сообщения гражданина о происшествии
type ReportInput struct {
	Type        IncidentType `validate:"required,oneof=accident fire medical flood earthquake other"`
	Severity    Severity     `validate:"required,oneof=Low Medium High"`
	Description string       `validate:"required,max=4000"`
	Location    *Location    `validate:"required"`
	Image       *Upload
}

// UpdateInput - обновление от назначенного волонтера
type UpdateInput struct {
	Message string
	Status  Status
	Image   *Upload
}

// RegisterInput - данные регистрации. Пароль не принимается: вход в этой сборке не проверяется.
type RegisterInput struct {
	Email         string            `validate:"required,email"`
	Role          Role              `validate:"required,oneof=citizen volunteer agency"`
	Name          string            `validate:"required,min=2,max=255"`
	Phone         string            `validate:"required,min=3,max=32"`
	City          string            `validate:"required"`
	Category      VolunteerCategory `validate:"omitempty,oneof=Medical Rescue Transport NGO General"`
	AuthorityName string
	Department    string
	Region        string
}
