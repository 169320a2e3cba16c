// Package dashboard собирает ленты и переходы жизненного цикла в набор действий
// конкретной роли. Набор строится из профиля сессии и не хранит общего состояния.
package dashboard

import (
	"context"
	"fmt"

	"github.com/Manthan2028/resqnet/internal/catalog"
	"github.com/Manthan2028/resqnet/internal/feed"
	"github.com/Manthan2028/resqnet/internal/lifecycle"
	"github.com/Manthan2028/resqnet/internal/models"
	"github.com/Manthan2028/resqnet/internal/service"
	"github.com/google/uuid"
)

// Deps - зависимости, общие для всех ролей
type Deps struct {
	Incidents service.IncidentService
	Profiles  service.ProfileService
	Hub       *feed.Hub
	Catalog   *catalog.Catalog
}

// Dashboard - общая часть набора действий любой роли
type Dashboard interface {
	Profile() models.Profile
	// Feeds - имена лент, доступных роли
	Feeds() []string
	// Watch открывает ленту по имени
	Watch(ctx context.Context, name string) (*feed.Subscription, error)
	Resources(f catalog.Filter) []models.ResourceItem
	Actions(inc *models.Incident) []lifecycle.Action
}

// Имена лент
const (
	FeedReports  = "reports"
	FeedOpen     = "open"
	FeedAssigned = "assigned"
	FeedCity     = "city"
	FeedMap      = "map"
)

// New возвращает *Citizen, *Volunteer или *Agency в зависимости от роли профиля
func New(profile models.Profile, deps Deps) (Dashboard, error) {
	b := base{profile: profile, deps: deps}
	switch profile.Role {
	case models.RoleCitizen:
		return &Citizen{base: b}, nil
	case models.RoleVolunteer:
		return &Volunteer{base: b}, nil
	case models.RoleAgency:
		return &Agency{base: b}, nil
	}
	return nil, fmt.Errorf("%w: unknown role %q", models.ErrForbidden, profile.Role)
}

type base struct {
	profile models.Profile
	deps    Deps
}

func (b base) Profile() models.Profile {
	return b.profile
}

func (b base) Resources(f catalog.Filter) []models.ResourceItem {
	if b.deps.Catalog == nil {
		return []models.ResourceItem{}
	}
	return b.deps.Catalog.List(f)
}

func (b base) Actions(inc *models.Incident) []lifecycle.Action {
	return lifecycle.Actions(inc, b.profile)
}

func (b base) watch(ctx context.Context, filter models.IncidentFilter) (*feed.Subscription, error) {
	sub, err := b.deps.Hub.Subscribe(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("dashboard: could not open feed: %w", err)
	}
	return sub, nil
}

func unknownFeed(name string, role models.Role) error {
	return fmt.Errorf("%w: feed %q is not available to %s", models.ErrNotFound, name, role)
}

// Citizen - гражданин: сообщает о происшествиях и следит за своими сообщениями
type Citizen struct {
	base
}

func (c *Citizen) Feeds() []string {
	return []string{FeedReports}
}

func (c *Citizen) Watch(ctx context.Context, name string) (*feed.Subscription, error) {
	if name != FeedReports {
		return nil, unknownFeed(name, c.profile.Role)
	}
	return c.WatchReports(ctx)
}

func (c *Citizen) Report(ctx context.Context, input models.ReportInput) (*models.Incident, error) {
	return c.deps.Incidents.ReportIncident(ctx, c.profile, input)
}

// WatchReports - лента собственных сообщений
func (c *Citizen) WatchReports(ctx context.Context) (*feed.Subscription, error) {
	return c.watch(ctx, feed.ByReporter(c.profile.ID))
}

// Reports - разовая выборка собственных сообщений
func (c *Citizen) Reports(ctx context.Context) ([]*models.Incident, error) {
	return c.deps.Incidents.ListIncidents(ctx, feed.ByReporter(c.profile.ID))
}

// Volunteer - волонтер: берет открытые инциденты своего города и ведет назначенные
type Volunteer struct {
	base
}

func (v *Volunteer) Feeds() []string {
	return []string{FeedOpen, FeedAssigned}
}

func (v *Volunteer) Watch(ctx context.Context, name string) (*feed.Subscription, error) {
	switch name {
	case FeedOpen:
		return v.WatchOpen(ctx)
	case FeedAssigned:
		return v.WatchAssigned(ctx)
	}
	return nil, unknownFeed(name, v.profile.Role)
}

// WatchOpen - открытые инциденты города волонтера
func (v *Volunteer) WatchOpen(ctx context.Context) (*feed.Subscription, error) {
	return v.watch(ctx, feed.OpenInCity(v.profile.City))
}

// WatchAssigned - инциденты, закрепленные за волонтером, включая решенные
func (v *Volunteer) WatchAssigned(ctx context.Context) (*feed.Subscription, error) {
	return v.watch(ctx, feed.ByAssignee(v.profile.ID))
}

func (v *Volunteer) Accept(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	return v.deps.Incidents.AcceptIncident(ctx, v.profile, id)
}

func (v *Volunteer) SubmitUpdate(ctx context.Context, id uuid.UUID, input models.UpdateInput) (*models.Incident, error) {
	return v.deps.Incidents.SubmitUpdate(ctx, v.profile, id, input)
}

// SetAvailability меняет флаг доступности. Дальнейшие действия используют обновленный профиль.
func (v *Volunteer) SetAvailability(ctx context.Context, available bool) (*models.Profile, error) {
	updated, err := v.deps.Profiles.SetAvailability(ctx, v.profile, available)
	if err != nil {
		return nil, err
	}
	v.profile = *updated
	return updated, nil
}

// Available - инциденты снимка, которые еще можно взять
func (v *Volunteer) Available(snap feed.Snapshot) []*models.Incident {
	return feed.Unassigned(snap.Incidents)
}

// Mine - инциденты снимка, закрепленные за волонтером
func (v *Volunteer) Mine(snap feed.Snapshot) []*models.Incident {
	return feed.AssignedTo(snap.Incidents, v.profile.ID)
}

// Agency - диспетчерская: видит все инциденты города, меняет статус и назначает волонтеров
type Agency struct {
	base
}

func (a *Agency) Feeds() []string {
	return []string{FeedCity, FeedMap}
}

func (a *Agency) Watch(ctx context.Context, name string) (*feed.Subscription, error) {
	switch name {
	case FeedCity:
		return a.WatchCity(ctx)
	case FeedMap:
		return a.WatchMap(ctx)
	}
	return nil, unknownFeed(name, a.profile.Role)
}

// WatchCity - все инциденты города диспетчерской
func (a *Agency) WatchCity(ctx context.Context) (*feed.Subscription, error) {
	return a.watch(ctx, feed.ByCity(a.profile.City))
}

// WatchMap - общая карта без фильтра
func (a *Agency) WatchMap(ctx context.Context) (*feed.Subscription, error) {
	return a.watch(ctx, feed.All())
}

func (a *Agency) SetStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Incident, error) {
	return a.deps.Incidents.SetStatus(ctx, a.profile, id, status)
}

func (a *Agency) Reopen(ctx context.Context, id uuid.UUID, reason string) (*models.Incident, error) {
	return a.deps.Incidents.ReopenIncident(ctx, a.profile, id, reason)
}

func (a *Agency) Assign(ctx context.Context, id uuid.UUID, responderID string) (*models.Incident, error) {
	return a.deps.Incidents.AssignResponder(ctx, a.profile, id, responderID)
}

// Responders - волонтеры города для выбора при назначении
func (a *Agency) Responders(ctx context.Context, onlyAvailable bool) ([]*models.Profile, error) {
	return a.deps.Profiles.ListResponders(ctx, a.profile.City, onlyAvailable)
}

// Stats - сводка по инцидентам города с фильтром по статусу и серьезности
func (a *Agency) Stats(ctx context.Context, status models.Status, severity models.Severity) (feed.Stats, []*models.Incident, error) {
	incidents, err := a.deps.Incidents.ListIncidents(ctx, feed.ByCity(a.profile.City))
	if err != nil {
		return feed.Stats{}, nil, err
	}
	return feed.ComputeStats(incidents), feed.FilterBy(incidents, status, severity), nil
}
