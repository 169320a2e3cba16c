package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Manthan2028/resqnet/internal/models"
)

type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*models.Profile
	now      func() time.Time
}

func NewProfileStore(profiles ...models.Profile) *ProfileStore {
	s := &ProfileStore{
		profiles: make(map[string]*models.Profile),
		now:      time.Now,
	}
	for _, p := range profiles {
		p := p
		if p.CreatedAt.IsZero() {
			p.CreatedAt = s.now().UTC()
		}
		s.profiles[p.ID] = &p
	}
	return s
}

func (s *ProfileStore) Create(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.ID]; ok {
		return fmt.Errorf("%w: profile with id %s already exists", models.ErrConflict, profile.ID)
	}
	for _, p := range s.profiles {
		if strings.EqualFold(p.Email, profile.Email) {
			return fmt.Errorf("%w: profile with email %s already exists", models.ErrConflict, profile.Email)
		}
	}
	profile.CreatedAt = s.now().UTC()
	stored := *profile
	s.profiles[profile.ID] = &stored
	return nil
}

func (s *ProfileStore) GetByID(_ context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: profile with id %s", models.ErrNotFound, id)
	}
	out := *p
	return &out, nil
}

func (s *ProfileStore) ListByRole(_ context.Context, role models.Role, city string) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Profile, 0)
	for _, p := range s.profiles {
		if p.Role != role || (city != "" && p.City != city) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Profile) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *ProfileStore) SetAvailability(_ context.Context, id string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok || p.Role != models.RoleVolunteer {
		return fmt.Errorf("%w: volunteer with id %s", models.ErrNotFound, id)
	}
	p.IsAvailable = available
	return nil
}

// DemoProfiles - демонстрационные участники по одному на роль, те же, что в миграции 000002
func DemoProfiles() []models.Profile {
	return []models.Profile{
		{
			ID:    "demo-user-normal",
			Email: "citizen@demo.com",
			Role:  models.RoleCitizen,
			Name:  "Rahul Sharma",
			Phone: "9876543210",
			City:  "Mumbai",
		},
		{
			ID:          "demo-user-volunteer",
			Email:       "volunteer@demo.com",
			Role:        models.RoleVolunteer,
			Name:        "Priya Patel",
			Phone:       "9876543211",
			City:        "Mumbai",
			Category:    models.CategoryMedical,
			IsAvailable: true,
		},
		{
			ID:            "demo-user-agency",
			Email:         "control@demo.com",
			Role:          models.RoleAgency,
			Name:          "Mumbai Control Room",
			Phone:         "100",
			City:          "Mumbai",
			AuthorityName: "Mumbai Police",
			Department:    "Emergency Response",
			Region:        "Mumbai",
		},
	}
}
