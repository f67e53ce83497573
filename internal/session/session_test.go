package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/kotconnect/internal/models"
)

var errDisk = errors.New("disk unavailable")

// memKV is an in-memory storage.KeyValueStore with per-operation failure injection.
type memKV struct {
	mu       sync.Mutex
	data     map[string]string
	failGet  bool
	failSet  map[string]bool
	failDel  bool
	setCalls []string
	delCalls []string
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string), failSet: make(map[string]bool)}
}

func (m *memKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return "", false, errDisk
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls = append(m.setCalls, key)
	if m.failSet[key] {
		return errDisk
	}
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delCalls = append(m.delCalls, key)
	if m.failDel {
		return errDisk
	}
	delete(m.data, key)
	return nil
}

func (m *memKV) Close() error { return nil }

func (m *memKV) value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func TestLogin_PersistsEveryField(t *testing.T) {
	kv := newMemKV()
	store := New(kv, nil)

	err := store.Login(context.Background(), &models.AuthResponse{Token: "abc", Username: "nathan"})
	require.NoError(t, err)

	token, _ := kv.value(KeyToken)
	username, _ := kv.value(KeyUsername)
	assert.Equal(t, "abc", token)
	assert.Equal(t, "nathan", username)

	_, hasEmail := kv.value(KeyEmail)
	assert.False(t, hasEmail, "absent fields must not be stored")

	assert.Equal(t, LoggedIn, store.State())
	assert.Equal(t, "abc", store.Token())
	assert.Equal(t, "nathan", store.Current().Username)
}

func TestLogin_RejectsMissingToken(t *testing.T) {
	store := New(newMemKV(), nil)

	assert.ErrorIs(t, store.Login(context.Background(), &models.AuthResponse{Username: "nathan"}), ErrMissingToken)
	assert.ErrorIs(t, store.Login(context.Background(), nil), ErrMissingToken)
	assert.Equal(t, LoggedOut, store.State())
}

func TestLogin_StorageFailureLeavesSessionUntouched(t *testing.T) {
	kv := newMemKV()
	kv.failSet[KeyEmail] = true
	store := New(kv, nil)

	err := store.Login(context.Background(), &models.AuthResponse{Token: "abc", Email: "n@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errDisk)
	assert.Nil(t, store.Current())
	assert.Equal(t, LoggedOut, store.State())
}

func TestLoad(t *testing.T) {
	t.Run("restores persisted session", func(t *testing.T) {
		kv := newMemKV()
		kv.data[KeyToken] = "abc"
		kv.data[KeyUsername] = "nathan"
		kv.data[KeyLocatie] = "Leuven"
		kv.data[KeyDormCode] = "KOT42"

		store := New(kv, nil)
		assert.False(t, store.Loaded())
		store.Load(context.Background())

		require.True(t, store.Loaded())
		sess := store.Current()
		require.NotNil(t, sess)
		assert.Equal(t, "abc", sess.Token)
		assert.Equal(t, "nathan", sess.Username)
		assert.Equal(t, "Leuven", sess.Locatie)
		assert.Equal(t, "KOT42", sess.DormCode)
		assert.Empty(t, sess.Email)
	})

	t.Run("profile fields without token stay logged out", func(t *testing.T) {
		kv := newMemKV()
		kv.data[KeyUsername] = "nathan"

		store := New(kv, nil)
		store.Load(context.Background())

		assert.True(t, store.Loaded())
		assert.Nil(t, store.Current())
	})

	t.Run("storage failure degrades to logged out", func(t *testing.T) {
		kv := newMemKV()
		kv.data[KeyToken] = "abc"
		kv.failGet = true

		store := New(kv, nil)
		store.Load(context.Background())

		assert.True(t, store.Loaded())
		assert.Nil(t, store.Current())
		assert.Equal(t, LoggedOut, store.State())
	})
}

func TestLogout(t *testing.T) {
	t.Run("deletes every key", func(t *testing.T) {
		kv := newMemKV()
		store := New(kv, nil)
		require.NoError(t, store.Login(context.Background(), &models.AuthResponse{
			Token: "abc", Username: "nathan", Email: "n@example.com", Geboortedatum: "2001-02-03", Locatie: "Gent",
		}))
		require.NoError(t, store.SetDormCode(context.Background(), "KOT42"))

		store.Logout(context.Background())

		assert.Nil(t, store.Current())
		for _, key := range AllKeys {
			_, ok := kv.value(key)
			assert.False(t, ok, "key %s should be deleted", key)
		}
	})

	t.Run("storage failure is swallowed", func(t *testing.T) {
		kv := newMemKV()
		store := New(kv, nil)
		require.NoError(t, store.Login(context.Background(), &models.AuthResponse{Token: "abc"}))
		kv.failDel = true
		kv.delCalls = nil

		store.Logout(context.Background())

		assert.Nil(t, store.Current())
		assert.Equal(t, LoggedOut, store.State())
		assert.Len(t, kv.delCalls, len(AllKeys), "every key is still attempted")
	})
}

func TestUpdateFields(t *testing.T) {
	t.Run("persists only touched keys", func(t *testing.T) {
		kv := newMemKV()
		store := New(kv, nil)
		require.NoError(t, store.Login(context.Background(), &models.AuthResponse{Token: "abc", Username: "nathan"}))
		kv.setCalls = nil

		err := store.UpdateFields(context.Background(), models.SessionUpdate{Locatie: models.Ptr("Brussel")})
		require.NoError(t, err)

		assert.Equal(t, []string{KeyLocatie}, kv.setCalls)
		assert.Equal(t, "Brussel", store.Current().Locatie)
		assert.Equal(t, "nathan", store.Current().Username)
	})

	t.Run("empty value deletes key", func(t *testing.T) {
		kv := newMemKV()
		store := New(kv, nil)
		require.NoError(t, store.Login(context.Background(), &models.AuthResponse{Token: "abc", Email: "n@example.com"}))

		require.NoError(t, store.UpdateFields(context.Background(), models.SessionUpdate{Email: models.Ptr("")}))

		_, ok := kv.value(KeyEmail)
		assert.False(t, ok)
		assert.Empty(t, store.Current().Email)
	})

	t.Run("clearing the token is rejected", func(t *testing.T) {
		store := New(newMemKV(), nil)
		require.NoError(t, store.Login(context.Background(), &models.AuthResponse{Token: "abc"}))

		err := store.UpdateFields(context.Background(), models.SessionUpdate{Token: models.Ptr("")})
		assert.ErrorIs(t, err, ErrMissingToken)
		assert.Equal(t, "abc", store.Token())
	})

	t.Run("logged out is a no-op", func(t *testing.T) {
		kv := newMemKV()
		store := New(kv, nil)

		require.NoError(t, store.UpdateFields(context.Background(), models.SessionUpdate{Username: models.Ptr("x")}))
		assert.Nil(t, store.Current())
		assert.Empty(t, kv.setCalls)
	})

	t.Run("storage failure still updates memory", func(t *testing.T) {
		kv := newMemKV()
		store := New(kv, nil)
		require.NoError(t, store.Login(context.Background(), &models.AuthResponse{Token: "abc"}))
		kv.failSet[KeyUsername] = true

		err := store.UpdateFields(context.Background(), models.SessionUpdate{Username: models.Ptr("nathan")})
		assert.ErrorIs(t, err, errDisk)
		assert.Equal(t, "nathan", store.Current().Username)
	})
}

// Any sequence of updates ends with the last written value per field, both in
// memory and in the persisted store.
func TestUpdateFields_LastWriteWinsPerField(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	values := []string{"", "a", "b", "c"}

	for round := 0; round < 50; round++ {
		kv := newMemKV()
		store := New(kv, nil)
		require.NoError(t, store.Login(context.Background(), &models.AuthResponse{Token: "abc"}))

		want := map[string]string{}
		for step := 0; step < 20; step++ {
			var update models.SessionUpdate
			pick := func() *string {
				if rng.Intn(2) == 0 {
					return nil
				}
				return models.Ptr(values[rng.Intn(len(values))])
			}
			update.Username, update.Email, update.Geboortedatum, update.Locatie = pick(), pick(), pick(), pick()
			for key, v := range map[string]*string{
				KeyUsername: update.Username, KeyEmail: update.Email,
				KeyGeboortedatum: update.Geboortedatum, KeyLocatie: update.Locatie,
			} {
				if v != nil {
					want[key] = *v
				}
			}
			require.NoError(t, store.UpdateFields(context.Background(), update))
		}

		sess := store.Current()
		for key, v := range want {
			assert.Equal(t, v, fieldValue(sess, key), fmt.Sprintf("round %d memory %s", round, key))
			stored, ok := kv.value(key)
			assert.Equal(t, v != "", ok, fmt.Sprintf("round %d presence %s", round, key))
			assert.Equal(t, v, stored, fmt.Sprintf("round %d stored %s", round, key))
		}
	}
}

func TestSetDormCode(t *testing.T) {
	kv := newMemKV()
	store := New(kv, nil)

	require.NoError(t, store.SetDormCode(context.Background(), "KOT42"))
	_, ok := kv.value(KeyDormCode)
	assert.False(t, ok, "ignored while logged out")

	require.NoError(t, store.Login(context.Background(), &models.AuthResponse{Token: "abc"}))
	require.NoError(t, store.SetDormCode(context.Background(), "KOT42"))

	code, _ := kv.value(KeyDormCode)
	assert.Equal(t, "KOT42", code)
	assert.Equal(t, "KOT42", store.Current().DormCode)
}
