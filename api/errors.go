package api

import "fmt"

// SessionNotFoundError is returned when a session id is not known to the
// server.
type SessionNotFoundError struct {
	ID string
}

func (e SessionNotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
