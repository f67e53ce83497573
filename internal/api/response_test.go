package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func response(status int, body string) *http.Response {
	rec := httptest.NewRecorder()
	rec.WriteHeader(status)
	rec.WriteString(body)
	return rec.Result()
}

func TestHandleResponse_ErrorMessagePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"errors array joined", 400, `{"errors":["title is required","amount must be positive"],"message":"ignored"}`, "title is required\namount must be positive"},
		{"empty errors array falls through", 400, `{"errors":[],"message":"Validation failed"}`, "Validation failed"},
		{"message", 409, `{"message":"Dorm code already in use","error":"Conflict"}`, "Dorm code already in use"},
		{"empty message falls through", 404, `{"message":"","error":"Not Found"}`, "Not Found"},
		{"error", 401, `{"error":"Invalid token"}`, "Invalid token"},
		{"raw text", 500, `Internal explosion`, "Internal explosion"},
		{"json without known fields uses raw text", 422, `{"status":422}`, `{"status":422}`},
		{"status text", 503, ``, "Service Unavailable"},
		{"unknown status", 599, ``, "Request failed (599)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := HandleResponse(response(tt.status, tt.body))
			require.Error(t, err)
			assert.Nil(t, result)

			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, tt.status, reqErr.StatusCode)
			assert.Equal(t, tt.want, reqErr.Error())
			assert.NotEmpty(t, reqErr.Error())
		})
	}
}

func TestHandleResponse_Success(t *testing.T) {
	t.Run("json body", func(t *testing.T) {
		result, err := HandleResponse(response(200, `{"token":"abc"}`))
		require.NoError(t, err)

		var body struct{ Token string }
		require.NoError(t, result.Decode(&body))
		assert.Equal(t, "abc", body.Token)
	})

	t.Run("empty body becomes empty object", func(t *testing.T) {
		result, err := HandleResponse(response(200, ``))
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(result.Body))
	})

	t.Run("non-json body is tolerated", func(t *testing.T) {
		result, err := HandleResponse(response(200, `User deleted`))
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(result.Body))
		assert.Equal(t, "User deleted", result.Raw)
	})

	t.Run("no content", func(t *testing.T) {
		result, err := HandleResponse(response(http.StatusNoContent, ``))
		require.NoError(t, err)
		assert.True(t, result.NoContent())
	})
}

func TestIsUnauthorized(t *testing.T) {
	_, err := HandleResponse(response(401, `{"error":"expired"}`))
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, 401, StatusCode(err))

	_, err = HandleResponse(response(400, `{"error":"bad"}`))
	assert.False(t, IsUnauthorized(err))
	assert.False(t, IsUnauthorized(nil))
	assert.Equal(t, 0, StatusCode(nil))
}
