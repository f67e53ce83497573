package ui

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/kotconnect/internal/app"
	"github.com/mmynk/kotconnect/internal/backendtest"
	"github.com/mmynk/kotconnect/internal/config"
	"github.com/mmynk/kotconnect/internal/models"
	"github.com/mmynk/kotconnect/internal/ui/keys"
	"github.com/mmynk/kotconnect/internal/ui/styles"
	"github.com/mmynk/kotconnect/internal/ui/views"
)

func newEnv(t *testing.T) (*views.Env, *backendtest.Server) {
	t.Helper()
	backend, url := backendtest.Start(t)

	cfg := config.Default()
	cfg.APIBase = url
	cfg.Platform = config.PlatformWeb
	cfg.DataDir = t.TempDir()

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return &views.Env{
		Ctx:    context.Background(),
		App:    a,
		Styles: styles.NewStyles(),
		Keys:   keys.DefaultKeyMap(),
		Now:    time.Now,
	}, backend
}

func TestNewApp_StartScreen(t *testing.T) {
	env, backend := newEnv(t)

	root := NewApp(env)
	assert.IsType(t, &views.LoginView{}, root.top())
	root.Close()

	_, _, err := backend.Register(env.Ctx, models.SignupInput{
		Username: "nathan", Email: "nathan@example.com", Geboortedatum: "2001-02-03", Locatie: "Leuven", Password: "secret1",
	})
	require.NoError(t, err)
	require.NoError(t, env.App.Login(env.Ctx, "nathan", "secret1"))

	root = NewApp(env)
	defer root.Close()
	assert.IsType(t, &views.HomeView{}, root.top())
}

func TestApp_Navigation(t *testing.T) {
	env, _ := newEnv(t)
	root := NewApp(env)
	defer root.Close()

	root.Update(views.LoggedIn{})
	require.Len(t, root.stack, 1)
	assert.IsType(t, &views.HomeView{}, root.top())

	dorm := &models.Dorm{ID: 1, Name: "Kot"}
	root.Update(views.OpenExpenseForm{Dorm: dorm})
	require.Len(t, root.stack, 2)
	assert.IsType(t, &views.ExpenseFormView{}, root.top())

	root.Update(views.Back{})
	require.Len(t, root.stack, 1)
	assert.IsType(t, &views.HomeView{}, root.top())

	root.Update(views.OpenCreator{Day: "2025-03-14"})
	require.Len(t, root.stack, 2)
	assert.IsType(t, &views.CreatorView{}, root.top())
	root.Update(views.Back{})

	root.Update(views.OpenProfile{})
	require.Len(t, root.stack, 2)
	assert.IsType(t, &views.ProfileView{}, root.top())
	root.Update(views.Back{})

	root.Update(views.Back{})
	assert.Len(t, root.stack, 1, "the last screen stays")

	root.Update(views.LoggedOut{})
	require.Len(t, root.stack, 1)
	assert.IsType(t, &views.LoginView{}, root.top())
}
