package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/rpsduel/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeRoomNotFound       = "ROOM_NOT_FOUND"
	CodeRoomFull           = "ROOM_FULL"
	CodeSelfJoinRejected   = "SELF_JOIN_REJECTED"
	CodeNotAParticipant    = "NOT_A_PARTICIPANT"
	CodeWrongState         = "WRONG_STATE"
	CodeDuplicateRoom      = "DUPLICATE_ROOM"
	CodeInvalidMove        = "INVALID_MOVE"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeInvalidParticipant = "INVALID_PARTICIPANT"
	CodeShuttingDown       = "SHUTTING_DOWN"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Classify returns the error code and a user-facing message for err.
// The websocket gateway uses it to build room-error notifications.
func Classify(err error) APIError {
	return toHTTPError(err).apiError
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrRoomFull):
		return &httpError{http.StatusConflict, APIError{CodeRoomFull, "Room is full"}}
	case errors.Is(err, model.ErrSelfJoinRejected):
		return &httpError{http.StatusConflict, APIError{CodeSelfJoinRejected, "Already joined this room on this connection"}}
	case errors.Is(err, model.ErrNotAParticipant):
		return &httpError{http.StatusForbidden, APIError{CodeNotAParticipant, "Not a participant in this room"}}
	// Refinements first so their message survives
	case errors.Is(err, model.ErrAlreadyReady):
		return &httpError{http.StatusConflict, APIError{CodeWrongState, "Already signalled ready"}}
	case errors.Is(err, model.ErrAlreadyMoved):
		return &httpError{http.StatusConflict, APIError{CodeWrongState, "Move already submitted this round"}}
	case errors.Is(err, model.ErrWrongState):
		return &httpError{http.StatusConflict, APIError{CodeWrongState, "Action not allowed in the current room state"}}
	case errors.Is(err, model.ErrDuplicateRoom):
		return &httpError{http.StatusConflict, APIError{CodeDuplicateRoom, "Room already exists"}}
	case errors.Is(err, model.ErrInvalidMove):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidMove, "Move must be rock, paper or scissors"}}
	case errors.Is(err, model.ErrProfileNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrInvalidParticipant):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidParticipant, "Participant id and display name are required"}}
	case errors.Is(err, model.ErrShuttingDown):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeShuttingDown, "Server is shutting down"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
