package api

import (
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Error is a non-success response from the backend.
type Error struct {
	StatusCode int
	// Status is the transport status text, e.g. "Not Found".
	Status string
	// Detail is the backend-provided message, if any.
	Detail string
}

// Error implements the error interface. The backend detail wins over the status text.
func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Status
}

// Message returns the user-facing message carried by err: the backend detail when
// available, else the status text. ok is false when err is not a backend error.
func Message(err error) (string, bool) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return "", false
	}
	message := apiErr.Error()
	return message, message != ""
}

type errorPayload struct {
	Detail json.RawMessage `json:"detail"`
}

type validationIssue struct {
	Msg string `json:"msg"`
}

func newError(resp *http.Response, body []byte) *Error {
	status := http.StatusText(resp.StatusCode)
	if status == "" {
		status = strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	}
	return &Error{
		StatusCode: resp.StatusCode,
		Status:     status,
		Detail:     decodeDetail(body),
	}
}

// decodeDetail extracts `detail` from an error body. It is either a string or,
// for request validation failures, a list of issues whose messages are joined.
func decodeDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	payload := &errorPayload{}
	if err := json.Unmarshal(body, payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil {
		return detail
	}
	var issues []*validationIssue
	if err := json.Unmarshal(payload.Detail, &issues); err == nil {
		messages := make([]string, 0, len(issues))
		for _, issue := range issues {
			if issue != nil && issue.Msg != "" {
				messages = append(messages, issue.Msg)
			}
		}
		return strings.Join(messages, "; ")
	}
	return ""
}
