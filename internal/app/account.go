package app

import (
	"context"
	"fmt"

	"github.com/mmynk/kotconnect/internal/cache"
	"github.com/mmynk/kotconnect/internal/models"
)

// Login authenticates and stores the session. Data cached for a previous
// user is dropped.
func (a *App) Login(ctx context.Context, username, password string) error {
	res, err := a.Users.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := a.Session.Login(ctx, res); err != nil {
		return err
	}
	a.Cache.Clear()
	return nil
}

// Signup registers an account. When the backend also returned a token the
// new user is logged in straight away; otherwise they log in themselves.
func (a *App) Signup(ctx context.Context, input models.SignupInput) (*models.SignupUser, error) {
	created, err := a.Users.Signup(ctx, input)
	if err != nil {
		return nil, err
	}
	if created.Token == "" {
		return created, nil
	}

	err = a.Session.Login(ctx, &models.AuthResponse{
		Token:         created.Token,
		Username:      created.Username,
		Email:         created.Email,
		Geboortedatum: created.Geboortedatum,
		Locatie:       created.Locatie,
	})
	if err != nil {
		return created, err
	}
	a.Cache.Clear()
	return created, nil
}

// Logout clears the session and every cached response.
func (a *App) Logout(ctx context.Context) {
	a.Session.Logout(ctx)
	a.Cache.Clear()
}

// DeleteAccount removes the account on the backend, then logs out.
func (a *App) DeleteAccount(ctx context.Context) error {
	token, err := a.token()
	if err != nil {
		return err
	}
	if err := a.Users.DeleteAccount(ctx, token); err != nil {
		return err
	}
	a.Logout(ctx)
	return nil
}

// UpdateProfile saves the changed fields and copies the backend's answer
// into the session, including a reissued token.
func (a *App) UpdateProfile(ctx context.Context, update models.ProfileUpdate) error {
	token, err := a.token()
	if err != nil {
		return err
	}
	res, err := a.Users.UpdateProfile(ctx, token, update)
	if err != nil {
		return err
	}

	var next models.SessionUpdate
	if res.Token != "" {
		next.Token = &res.Token
	}
	for _, f := range []struct {
		sent *string
		got  string
		dst  **string
	}{
		{update.Username, res.Username, &next.Username},
		{update.Email, res.Email, &next.Email},
		{update.Geboortedatum, res.Geboortedatum, &next.Geboortedatum},
		{update.Locatie, res.Locatie, &next.Locatie},
	} {
		switch {
		case f.got != "":
			*f.dst = &f.got
		case f.sent != nil:
			*f.dst = f.sent
		}
	}
	a.logStorageError("update profile", a.Session.UpdateFields(ctx, next))

	a.invalidate(ctx, a.key("profile"))
	a.invalidate(ctx, a.key("dorm"))
	return nil
}

// WatchProfile subscribes to the caller's profile.
func (a *App) WatchProfile() *cache.Subscription {
	return cache.Watch(a.Cache, a.key("profile"), a.fetchProfile)
}

// Profile reads the caller's profile through the cache.
func (a *App) Profile(ctx context.Context) (*models.User, error) {
	return get(ctx, a.Cache, a.key("profile"), a.fetchProfile)
}

func (a *App) fetchProfile(ctx context.Context) (*models.User, error) {
	token, err := a.token()
	if err != nil {
		return nil, err
	}
	return a.Users.Profile(ctx, token)
}

// selfID resolves the caller's user ID from the profile.
func (a *App) selfID(ctx context.Context) (int64, error) {
	user, err := a.Profile(ctx)
	if err != nil {
		return 0, err
	}
	id, ok := user.UserID()
	if !ok {
		return 0, fmt.Errorf("profile has no id")
	}
	return id, nil
}

// invalidate marks key stale. A refetch failure is reported to the key's
// subscribers already, so it is only logged here.
func (a *App) invalidate(ctx context.Context, key cache.Key) {
	if !key.Enabled() {
		return
	}
	if err := a.Cache.Invalidate(ctx, key); err != nil {
		a.logger.Warn("Revalidation failed", "key", key.String(), "error", err)
	}
}

// get reads key through the cache. A disabled key means logged out.
func get[T any](ctx context.Context, c *cache.Cache, key cache.Key, fetch func(context.Context) (T, error)) (T, error) {
	if !key.Enabled() {
		var zero T
		return zero, ErrNotLoggedIn
	}
	return cache.Get(ctx, c, key, fetch)
}
