package twitter

import (
	"strings"
)

// FollowerIDsPage is one page of a followers/ids listing
type FollowerIDsPage struct {
	IDs            []int64 `json:"ids"`
	NextCursor     int64   `json:"next_cursor"`
	PreviousCursor int64   `json:"previous_cursor"`
}

// APIError is one entry of the API's error payload
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body the API sends with non-2xx statuses
type ErrorResponse struct {
	Errors []APIError `json:"errors"`
	Error  string     `json:"error"`
}

// Message flattens the payload into one line
func (r *ErrorResponse) Message() string {
	if len(r.Errors) == 0 {
		return r.Error
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// HasCode reports whether the payload carries the API error code
func (r *ErrorResponse) HasCode(code int) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// API error codes that decide the error type regardless of the status
const (
	CodeNoUserMatches     = 17
	CodeUserNotFound      = 50
	CodeUserSuspended     = 63
	CodeRateLimitExceeded = 88
)
