package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/Manthan2028/resqnet/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const incidentCacheTTL = 5 * time.Minute

const incidentColumns = `
	id,
	reported_by,
	reported_by_name,
	reported_by_role,
	city,
	type,
	severity,
	lat,
	lng,
	address,
	description,
	image_url,
	status,
	assigned_responder_id,
	assigned_responder_name,
	updates,
	revision,
	created_at,
	updated_at`

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
	}
}

// Create создает новую запись об инциденте в бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	updates, err := json.Marshal(nonNilUpdates(incident.Updates))
	if err != nil {
		return fmt.Errorf("failed to marshal incident updates: %w", err)
	}

	query := `
		INSERT INTO incidents (
			reported_by, reported_by_name, reported_by_role, city, type, severity,
			lat, lng, address, description, image_url, status, updates
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, revision, created_at, updated_at;
	`
	err = r.db.QueryRow(ctx, query,
		incident.ReportedBy,
		incident.ReportedByName,
		string(incident.ReportedByRole),
		incident.City,
		string(incident.Type),
		string(incident.Severity),
		incident.Location.Lat,
		incident.Location.Lng,
		incident.Location.Address,
		incident.Description,
		incident.ImageURL,
		string(incident.Status),
		string(updates),
	).Scan(&incident.ID, &incident.Revision, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetByID возвращает инцидент по его UUID
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1;`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: incident with id %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// Query возвращает инциденты, подходящие под фильтр, от новых к старым
func (r *IncidentRepository) Query(ctx context.Context, filter models.IncidentFilter) ([]*models.Incident, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.City != "" {
		add("city = $%d", filter.City)
	}
	if filter.ReporterID != "" {
		add("reported_by = $%d", filter.ReporterID)
	}
	if filter.AssigneeID != "" {
		add("assigned_responder_id = $%d", filter.AssigneeID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		add("status = ANY($%d)", statuses)
	}

	query := `SELECT ` + incidentColumns + ` FROM incidents`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC, id;`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}

// ApplyChange записывает изменение одной командой UPDATE при совпадении ревизии
func (r *IncidentRepository) ApplyChange(ctx context.Context, id uuid.UUID, revision int64, change models.IncidentChange) (*models.Incident, error) {
	var status, assigneeID, assigneeName *string
	if change.Status != nil {
		s := string(*change.Status)
		status = &s
	}
	if change.Assign != nil {
		assigneeID = &change.Assign.ID
		assigneeName = &change.Assign.Name
	}
	var entry *string
	if change.Append != nil {
		payload, err := json.Marshal(change.Append)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal incident update: %w", err)
		}
		e := string(payload)
		entry = &e
	}

	query := `
		UPDATE incidents SET
			status = COALESCE($3, status),
			assigned_responder_id = COALESCE($4, assigned_responder_id),
			assigned_responder_name = COALESCE($5, assigned_responder_name),
			updates = CASE WHEN $6::jsonb IS NULL THEN updates ELSE updates || jsonb_build_array($6::jsonb) END,
			revision = revision + 1,
			updated_at = NOW()
		WHERE id = $1 AND revision = $2
		RETURNING ` + incidentColumns + `;
	`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id, revision, status, assigneeID, assigneeName, entry))
	if err == nil {
		return incident, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update incident: %w", err)
	}

	// Ни одна строка не обновлена: инцидента нет или ревизия устарела
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM incidents WHERE id = $1);`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check incident existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: incident with id %s not found for update", models.ErrNotFound, id)
	}
	return nil, fmt.Errorf("%w: incident %s changed since revision %d", models.ErrStaleRevision, id, revision)
}

// GetIncidentFromCache пытается получить инцидент из Redis
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	val, err := r.redisClient.Get(ctx, incidentCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache сохраняет инцидент в Redis
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, incidentCacheKey(incident.ID), val, incidentCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error {
	if err := r.redisClient.Del(ctx, incidentCacheKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}

func incidentCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("incident:%s", id.String())
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	var (
		incident                 models.Incident
		reportedByRole, kind     string
		severity, status         string
		assigneeID, assigneeName *string
		updates                  []byte
	)
	err := row.Scan(
		&incident.ID,
		&incident.ReportedBy,
		&incident.ReportedByName,
		&reportedByRole,
		&incident.City,
		&kind,
		&severity,
		&incident.Location.Lat,
		&incident.Location.Lng,
		&incident.Location.Address,
		&incident.Description,
		&incident.ImageURL,
		&status,
		&assigneeID,
		&assigneeName,
		&updates,
		&incident.Revision,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	incident.ReportedByRole = models.Role(reportedByRole)
	incident.Type = models.IncidentType(kind)
	incident.Severity = models.Severity(severity)
	incident.Status = models.Status(status)
	if assigneeID != nil {
		incident.AssignedResponderID = *assigneeID
	}
	if assigneeName != nil {
		incident.AssignedResponderName = *assigneeName
	}
	incident.Updates = []models.IncidentUpdate{}
	if len(updates) > 0 {
		if err := json.Unmarshal(updates, &incident.Updates); err != nil {
			return nil, fmt.Errorf("failed to unmarshal incident updates: %w", err)
		}
	}
	return &incident, nil
}

func nonNilUpdates(updates []models.IncidentUpdate) []models.IncidentUpdate {
	if updates == nil {
		return []models.IncidentUpdate{}
	}
	return updates
}
