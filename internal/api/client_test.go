package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Request(t *testing.T) {
	var got *http.Request
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		got, gotBody = r, string(data)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL + "/"})
	require.NoError(t, err)

	t.Run("authenticated json request", func(t *testing.T) {
		_, err := client.Put(context.Background(), "/dorms",
			WithToken("abc"),
			WithJSON(map[string]string{"code": "KOT42"}),
		)
		require.NoError(t, err)

		assert.Equal(t, http.MethodPut, got.Method)
		assert.Equal(t, "/dorms", got.URL.Path)
		assert.Equal(t, "application/json", got.Header.Get("Accept"))
		assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer abc", got.Header.Get("Authorization"))
		assert.JSONEq(t, `{"code":"KOT42"}`, gotBody)
	})

	t.Run("anonymous request without body", func(t *testing.T) {
		_, err := client.Get(context.Background(), "/expenses", WithQuery(url.Values{"dormId": {"7"}}))
		require.NoError(t, err)

		assert.Equal(t, "7", got.URL.Query().Get("dormId"))
		assert.Empty(t, got.Header.Get("Authorization"))
		assert.Empty(t, got.Header.Get("Content-Type"))
		assert.Empty(t, gotBody)
	})

	t.Run("empty token adds no header", func(t *testing.T) {
		_, err := client.Delete(context.Background(), "/dorms", WithToken(""))
		require.NoError(t, err)
		assert.Empty(t, got.Header.Get("Authorization"))
	})
}

func TestClient_PropagatesRequestError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Invalid dorm code"}`))
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Put(context.Background(), "/dorms", WithJSON(map[string]string{"code": "nope"}))
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "Invalid dorm code", reqErr.Message)
}

func TestClient_KeepsCookies(t *testing.T) {
	var sawCookie bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("JSESSIONID"); err == nil && c.Value == "s1" {
			sawCookie = true
		}
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "s1", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/users/ping")
	require.NoError(t, err)
	_, err = client.Get(context.Background(), "/users/ping")
	require.NoError(t, err)
	assert.True(t, sawCookie)
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
