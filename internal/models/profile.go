package models

import "time"

// Role - роль пользователя в системе
type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleVolunteer Role = "volunteer"
	RoleAgency    Role = "agency"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleVolunteer, RoleAgency:
		return true
	}
	return false
}

type VolunteerCategory string

const (
	CategoryMedical   VolunteerCategory = "Medical"
	CategoryRescue    VolunteerCategory = "Rescue"
	CategoryTransport VolunteerCategory = "Transport"
	CategoryNGO       VolunteerCategory = "NGO"
	CategoryGeneral   VolunteerCategory = "General"
)

// Profile - профиль пользователя. Для волонтера это профиль ответственного.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`

	// Поля волонтера
	Category    VolunteerCategory `json:"category,omitempty"`
	IsAvailable bool              `json:"is_available"`

	// Поля ведомства
	AuthorityName string `json:"authority_name,omitempty"`
	Department    string `json:"department,omitempty"`
	Region        string `json:"region,omitempty"`
}
