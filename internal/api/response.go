package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

var emptyObject = []byte("{}")

// Result is a successful response.
type Result struct {
	StatusCode int
	// Body is the JSON payload. It is "{}" when the response body was empty
	// or not valid JSON.
	Body []byte
	// Raw is the response body as received.
	Raw string
}

// NoContent reports a 204 response.
func (r *Result) NoContent() bool {
	return r.StatusCode == http.StatusNoContent
}

// Decode unmarshals the JSON payload into v.
func (r *Result) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// HandleResponse reads the whole body as text, then normalises it.
// A body that is not JSON is not an error by itself. Non-2xx statuses become a
// *RequestError; see errorMessage for how its message is chosen.
func HandleResponse(resp *http.Response) (*Result, error) {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	text := string(data)

	var parsed *gjson.Result
	if strings.TrimSpace(text) != "" && gjson.Valid(text) {
		r := gjson.Parse(text)
		parsed = &r
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(parsed, text, resp.StatusCode),
		}
	}

	body := emptyObject
	if parsed != nil {
		body = data
	}
	return &Result{StatusCode: resp.StatusCode, Body: body, Raw: text}, nil
}

// errorMessage picks the first available source:
//
//	errors[] joined by newlines, message, error, raw text, status text.
func errorMessage(parsed *gjson.Result, text string, status int) string {
	if parsed != nil && parsed.IsObject() {
		if errs := parsed.Get("errors"); errs.IsArray() {
			var lines []string
			for _, e := range errs.Array() {
				lines = append(lines, e.String())
			}
			if joined := strings.Join(lines, "\n"); strings.TrimSpace(joined) != "" {
				return joined
			}
		}
		if msg := truthy(parsed.Get("message")); msg != "" {
			return msg
		}
		if msg := truthy(parsed.Get("error")); msg != "" {
			return msg
		}
	}
	if strings.TrimSpace(text) != "" {
		return text
	}
	return statusMessage(status)
}

// truthy returns the field as text when it is present and not a falsy JSON
// value (null, false, 0, "").
func truthy(r gjson.Result) string {
	switch r.Type {
	case gjson.Null, gjson.False:
		return ""
	case gjson.Number:
		if r.Num == 0 {
			return ""
		}
		return r.Raw
	case gjson.JSON:
		return r.Raw
	}
	return r.String()
}
