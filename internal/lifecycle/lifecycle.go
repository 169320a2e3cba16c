// Package lifecycle описывает допустимые переходы статуса инцидента,
// роли, которым они разрешены, и изменения полей, к которым они приводят.
// Функции пакета чистые: они не обращаются к хранилищу и возвращают
// models.IncidentChange, который записывается одной операцией.
package lifecycle

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Manthan2028/resqnet/internal/models"
)

// Action - действие над инцидентом, доступное участнику
type Action string

const (
	ActionAccept    Action = "accept"
	ActionUpdate    Action = "update"
	ActionSetStatus Action = "set_status"
	ActionReopen    Action = "reopen"
	ActionAssign    Action = "assign"
)

// UpdateStatuses - статусы, которые волонтер может выставить вместе с обновлением
var UpdateStatuses = []models.Status{models.StatusVerified, models.StatusInProgress, models.StatusResolved}

// ErrReopenRequired - решенный инцидент возвращается в работу только через Reopen
var ErrReopenRequired = fmt.Errorf("%w: resolved incident must be reopened explicitly", models.ErrConflict)

// Entry - данные новой записи журнала, присвоенные вызывающим
type Entry struct {
	ID       string
	At       time.Time
	Message  string
	ImageURL *string
	Status   models.Status
}

// Accept - волонтер берет неназначенный инцидент в статусе pending
func Accept(inc *models.Incident, actor models.Profile) (models.IncidentChange, error) {
	if err := requireRole(actor, models.RoleVolunteer); err != nil {
		return models.IncidentChange{}, err
	}
	if err := requireCity(inc, actor); err != nil {
		return models.IncidentChange{}, err
	}
	if inc.Assigned() {
		return models.IncidentChange{}, fmt.Errorf("%w: incident %s already assigned to %s", models.ErrConflict, inc.ID, inc.AssignedResponderName)
	}
	if inc.Status != models.StatusPending {
		return models.IncidentChange{}, fmt.Errorf("%w: incident %s is %s, only pending incidents can be accepted", models.ErrConflict, inc.ID, inc.Status)
	}

	verified := models.StatusVerified
	return models.IncidentChange{
		Status: &verified,
		Assign: &models.Assignee{ID: actor.ID, Name: actor.Name},
	}, nil
}

// SubmitUpdate - назначенный волонтер добавляет запись в журнал и одновременно меняет статус
func SubmitUpdate(inc *models.Incident, actor models.Profile, entry Entry) (models.IncidentChange, error) {
	if err := requireRole(actor, models.RoleVolunteer); err != nil {
		return models.IncidentChange{}, err
	}
	if inc.AssignedResponderID != actor.ID {
		return models.IncidentChange{}, fmt.Errorf("%w: incident %s is not assigned to %s", models.ErrForbidden, inc.ID, actor.ID)
	}
	if !slices.Contains(UpdateStatuses, entry.Status) {
		return models.IncidentChange{}, fmt.Errorf("%w: status %q cannot be set with an update", models.ErrValidation, entry.Status)
	}
	if strings.TrimSpace(entry.Message) == "" {
		return models.IncidentChange{}, fmt.Errorf("%w: update message is required", models.ErrValidation)
	}
	// К решенному инциденту можно добавить запись, но статус не меняется без Reopen
	if inc.Status == models.StatusResolved && entry.Status != models.StatusResolved {
		return models.IncidentChange{}, ErrReopenRequired
	}

	status := entry.Status
	return models.IncidentChange{
		Status: &status,
		Append: newUpdate(actor, entry),
	}, nil
}

// SetStatus - ведомство перезаписывает статус. Выход из resolved только через Reopen.
func SetStatus(inc *models.Incident, actor models.Profile, to models.Status) (models.IncidentChange, error) {
	if err := requireRole(actor, models.RoleAgency); err != nil {
		return models.IncidentChange{}, err
	}
	if err := requireCity(inc, actor); err != nil {
		return models.IncidentChange{}, err
	}
	if !to.Valid() {
		return models.IncidentChange{}, fmt.Errorf("%w: unknown status %q", models.ErrValidation, to)
	}
	if inc.Status == models.StatusResolved && to != models.StatusResolved {
		return models.IncidentChange{}, ErrReopenRequired
	}
	return models.IncidentChange{Status: &to}, nil
}

// Reopen - ведомство возвращает решенный инцидент в pending. Переход фиксируется в журнале.
func Reopen(inc *models.Incident, actor models.Profile, entry Entry) (models.IncidentChange, error) {
	if err := requireRole(actor, models.RoleAgency); err != nil {
		return models.IncidentChange{}, err
	}
	if err := requireCity(inc, actor); err != nil {
		return models.IncidentChange{}, err
	}
	if inc.Status != models.StatusResolved {
		return models.IncidentChange{}, fmt.Errorf("%w: incident %s is %s, only resolved incidents can be reopened", models.ErrConflict, inc.ID, inc.Status)
	}
	if strings.TrimSpace(entry.Message) == "" {
		entry.Message = "Incident reopened"
	}
	entry.Status = models.StatusPending

	pending := models.StatusPending
	return models.IncidentChange{
		Status: &pending,
		Append: newUpdate(actor, entry),
	}, nil
}

// Assign - ведомство назначает волонтера. Статус открытого инцидента становится verified.
func Assign(inc *models.Incident, actor models.Profile, responder *models.Profile) (models.IncidentChange, error) {
	if err := requireRole(actor, models.RoleAgency); err != nil {
		return models.IncidentChange{}, err
	}
	if err := requireCity(inc, actor); err != nil {
		return models.IncidentChange{}, err
	}
	if inc.Status == models.StatusResolved {
		return models.IncidentChange{}, ErrReopenRequired
	}
	if responder == nil || responder.Role != models.RoleVolunteer {
		return models.IncidentChange{}, fmt.Errorf("%w: responder", models.ErrNotFound)
	}
	if inc.Assigned() && inc.AssignedResponderID != responder.ID {
		return models.IncidentChange{}, fmt.Errorf("%w: incident %s already assigned to %s", models.ErrConflict, inc.ID, inc.AssignedResponderName)
	}
	if !responder.IsAvailable {
		return models.IncidentChange{}, fmt.Errorf("%w: responder %s is not available", models.ErrConflict, responder.ID)
	}

	verified := models.StatusVerified
	return models.IncidentChange{
		Status: &verified,
		Assign: &models.Assignee{ID: responder.ID, Name: responder.Name},
	}, nil
}

// Actions возвращает действия, которые участник может выполнить над инцидентом сейчас
func Actions(inc *models.Incident, actor models.Profile) []Action {
	actions := make([]Action, 0, 3)
	if _, err := Accept(inc, actor); err == nil {
		actions = append(actions, ActionAccept)
	}
	if actor.Role == models.RoleVolunteer && inc.AssignedResponderID == actor.ID {
		actions = append(actions, ActionUpdate)
	}
	if actor.Role == models.RoleAgency && actor.City == inc.City {
		if inc.Status == models.StatusResolved {
			actions = append(actions, ActionReopen)
		} else {
			actions = append(actions, ActionSetStatus, ActionAssign)
		}
	}
	return actions
}

func newUpdate(actor models.Profile, entry Entry) *models.IncidentUpdate {
	return &models.IncidentUpdate{
		ID:            entry.ID,
		Timestamp:     entry.At.UTC(),
		UpdatedBy:     actor.ID,
		UpdatedByRole: actor.Role,
		Message:       entry.Message,
		ImageURL:      entry.ImageURL,
		Status:        entry.Status,
	}
}

func requireRole(actor models.Profile, role models.Role) error {
	if actor.Role != role {
		return fmt.Errorf("%w: role %q cannot perform this action", models.ErrForbidden, actor.Role)
	}
	return nil
}

// requireCity - город инцидента определяет, какие волонтеры и ведомства его обслуживают
func requireCity(inc *models.Incident, actor models.Profile) error {
	if inc.City != actor.City {
		return fmt.Errorf("%w: incident %s belongs to %s", models.ErrForbidden, inc.ID, inc.City)
	}
	return nil
}
