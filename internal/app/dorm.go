package app

import (
	"context"
	"errors"
	"slices"

	"github.com/mmynk/kotconnect/internal/cache"
	"github.com/mmynk/kotconnect/internal/models"
)

// The dorm lives under one fixed key: a session belongs to at most one dorm.
func (a *App) dormKey() cache.Key {
	return a.key("dorm")
}

// WatchDorm subscribes to the caller's dorm. The data is a *models.Dorm,
// nil when the caller has no dorm yet.
func (a *App) WatchDorm() *cache.Subscription {
	return cache.Watch(a.Cache, a.dormKey(), a.fetchDorm)
}

// Dorm reads the caller's dorm through the cache. It returns nil without an
// error when the caller has no dorm.
func (a *App) Dorm(ctx context.Context) (*models.Dorm, error) {
	return get(ctx, a.Cache, a.dormKey(), a.fetchDorm)
}

func (a *App) fetchDorm(ctx context.Context) (*models.Dorm, error) {
	token, err := a.token()
	if err != nil {
		return nil, err
	}
	dorm, err := a.Dorms.GetDorm(ctx, token)
	if err != nil {
		return nil, err
	}
	a.rememberDorm(ctx, dorm)
	return dorm, nil
}

// RefreshDorm refetches the dorm for its subscribers.
func (a *App) RefreshDorm(ctx context.Context) error {
	key := a.dormKey()
	if !key.Enabled() {
		return ErrNotLoggedIn
	}
	return a.Cache.Invalidate(ctx, key)
}

// rememberDorm keeps the session's dorm code in step with the dorm.
func (a *App) rememberDorm(ctx context.Context, dorm *models.Dorm) {
	code := ""
	if dorm != nil {
		code = dorm.Code
	}
	a.logStorageError("set dorm code", a.Session.SetDormCode(ctx, code))
}

// dormCode returns the code of the caller's dorm, asking the backend when
// the session does not know it yet.
func (a *App) dormCode(ctx context.Context) (string, error) {
	sess := a.Session.Current()
	if sess == nil {
		return "", ErrNotLoggedIn
	}
	if sess.DormCode != "" {
		return sess.DormCode, nil
	}
	dorm, err := a.Dorm(ctx)
	if err != nil {
		return "", err
	}
	if dorm == nil {
		return "", ErrNoDorm
	}
	return dorm.Code, nil
}

// JoinDorm joins the dorm with the given code.
func (a *App) JoinDorm(ctx context.Context, code string) (*models.Dorm, error) {
	token, err := a.token()
	if err != nil {
		return nil, err
	}
	dorm, err := a.Dorms.AddUserToDormByCode(ctx, token, code)
	if err != nil {
		return nil, err
	}
	a.rememberDorm(ctx, dorm)
	if err := a.Cache.Mutate(ctx, a.dormKey(), dorm, false); err != nil {
		a.logger.Warn("Failed to cache dorm", "error", err)
	}
	return dorm, nil
}

// CreateDorm creates a dorm with the caller as its first member. The new
// dorm is shown immediately and then refetched.
func (a *App) CreateDorm(ctx context.Context, name string) (*models.Dorm, error) {
	token, err := a.token()
	if err != nil {
		return nil, err
	}
	dorm, err := a.Dorms.CreateDorm(ctx, token, name)
	if err != nil {
		return nil, err
	}
	a.rememberDorm(ctx, dorm)
	if err := a.Cache.Mutate(ctx, a.dormKey(), dorm, true); err != nil {
		a.logger.Warn("Revalidation failed", "key", a.dormKey().String(), "error", err)
	}
	return dorm, nil
}

// LeaveDorm leaves the caller's dorm.
func (a *App) LeaveDorm(ctx context.Context) error {
	token, err := a.token()
	if err != nil {
		return err
	}
	if _, err := a.Dorms.LeaveDorm(ctx, token); err != nil {
		return err
	}
	a.rememberDorm(ctx, nil)
	if err := a.Cache.Mutate(ctx, a.dormKey(), (*models.Dorm)(nil), false); err != nil {
		a.logger.Warn("Failed to cache dorm", "error", err)
	}
	return nil
}

// CompleteTask toggles a task's done flag. The returned task replaces its
// copy inside the cached dorm, no refetch needed. When the dorm is not
// cached yet it is invalidated instead.
func (a *App) CompleteTask(ctx context.Context, taskID int64) (*models.Task, error) {
	token, err := a.token()
	if err != nil {
		return nil, err
	}
	task, err := a.Tasks.CompleteTask(ctx, token, taskID)
	if err != nil {
		return nil, err
	}

	err = a.Cache.Update(ctx, a.dormKey(), func(current any) any {
		return withTask(current, taskID, *task)
	}, false)
	switch {
	case errors.Is(err, cache.ErrNoData):
		// Nothing to patch; the next read fetches the dorm with the change.
		a.invalidate(ctx, a.dormKey())
	case err != nil:
		a.logger.Warn("Failed to patch cached dorm", "task_id", taskID, "error", err)
	}
	return task, nil
}

// withTask returns a copy of the cached dorm with one task replaced. The
// cached value is shared with subscribers and is never modified in place.
func withTask(current any, taskID int64, task models.Task) any {
	dorm, ok := current.(*models.Dorm)
	if !ok || dorm == nil {
		return current
	}
	next := *dorm
	next.Tasks = slices.Clone(dorm.Tasks)
	for i, t := range next.Tasks {
		if t.ID != nil && *t.ID == taskID {
			next.Tasks[i] = task
		}
	}
	return &next
}

// CreateTask adds a task to the caller's dorm.
func (a *App) CreateTask(ctx context.Context, input models.TaskInput) (*models.Task, error) {
	token, err := a.token()
	if err != nil {
		return nil, err
	}
	code, err := a.dormCode(ctx)
	if err != nil {
		return nil, err
	}
	task, err := a.Tasks.CreateTask(ctx, token, code, input)
	if err != nil {
		return nil, err
	}
	a.invalidate(ctx, a.dormKey())
	return task, nil
}

// CreateEvent adds an event to the caller's dorm.
func (a *App) CreateEvent(ctx context.Context, input models.EventInput) (*models.Event, error) {
	token, err := a.token()
	if err != nil {
		return nil, err
	}
	code, err := a.dormCode(ctx)
	if err != nil {
		return nil, err
	}
	event, err := a.Events.CreateEvent(ctx, token, code, input)
	if err != nil {
		return nil, err
	}
	a.invalidate(ctx, a.dormKey())
	return event, nil
}

func (a *App) eventKey(id int64) cache.Key {
	return a.key("event", id)
}

// WatchEvent subscribes to one event.
func (a *App) WatchEvent(id int64) *cache.Subscription {
	return cache.Watch(a.Cache, a.eventKey(id), a.fetchEvent(id))
}

// Event reads one event through the cache.
func (a *App) Event(ctx context.Context, id int64) (*models.Event, error) {
	return get(ctx, a.Cache, a.eventKey(id), a.fetchEvent(id))
}

func (a *App) fetchEvent(id int64) func(context.Context) (*models.Event, error) {
	return func(ctx context.Context) (*models.Event, error) {
		token, err := a.token()
		if err != nil {
			return nil, err
		}
		return a.Events.GetEvent(ctx, token, id)
	}
}

// ToggleEventParticipation joins the event, or leaves it when already
// participating. The dorm and the profile list events too, so both are
// refreshed.
func (a *App) ToggleEventParticipation(ctx context.Context, id int64) (*models.Event, error) {
	token, err := a.token()
	if err != nil {
		return nil, err
	}
	event, err := a.Events.JoinEvent(ctx, token, id)
	if err != nil {
		return nil, err
	}
	if err := a.Cache.Mutate(ctx, a.eventKey(id), event, false); err != nil {
		a.logger.Warn("Failed to cache event", "event_id", id, "error", err)
	}
	a.invalidate(ctx, a.dormKey())
	a.invalidate(ctx, a.key("profile"))
	return event, nil
}
