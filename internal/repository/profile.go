package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/Manthan2028/resqnet/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const profileColumns = `
	id,
	email,
	role,
	name,
	phone,
	city,
	category,
	is_available,
	authority_name,
	department,
	region,
	created_at`

type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) service.ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create сохраняет профиль. Повтор email дает models.ErrConflict.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (id, email, role, name, phone, city, category, is_available, authority_name, department, region)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at;
	`
	err := r.db.QueryRow(ctx, query,
		profile.ID,
		profile.Email,
		string(profile.Role),
		profile.Name,
		profile.Phone,
		profile.City,
		nullable(string(profile.Category)),
		profile.IsAvailable,
		nullable(profile.AuthorityName),
		nullable(profile.Department),
		nullable(profile.Region),
	).Scan(&profile.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: profile with email %s already exists", models.ErrConflict, profile.Email)
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetByID возвращает профиль по ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1;`
	profile, err := scanProfile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: profile with id %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get profile by id: %w", err)
	}
	return profile, nil
}

// ListByRole возвращает профили роли, при непустом city только этого города
func (r *ProfileRepository) ListByRole(ctx context.Context, role models.Role, city string) ([]*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE role = $1 AND ($2 = '' OR city = $2) ORDER BY name, id;`
	rows, err := r.db.Query(ctx, query, string(role), city)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*models.Profile, 0)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return profiles, nil
}

// SetAvailability меняет флаг доступности волонтера
func (r *ProfileRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE profiles SET is_available = $2 WHERE id = $1 AND role = 'volunteer';`, id, available)
	if err != nil {
		return fmt.Errorf("failed to set availability: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: volunteer with id %s", models.ErrNotFound, id)
	}
	return nil
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var (
		profile                               models.Profile
		role                                  string
		category, authority, department, area *string
	)
	err := row.Scan(
		&profile.ID,
		&profile.Email,
		&role,
		&profile.Name,
		&profile.Phone,
		&profile.City,
		&category,
		&profile.IsAvailable,
		&authority,
		&department,
		&area,
		&profile.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	profile.Role = models.Role(role)
	profile.Category = models.VolunteerCategory(deref(category))
	profile.AuthorityName = deref(authority)
	profile.Department = deref(department)
	profile.Region = deref(area)
	return &profile, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
