package util

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"coursehub/backend/internal/shared"
)

// JSONResponse structure for successful responses
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// JSONError structure for error responses
type JSONError struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  []shared.FieldError `json:"errors,omitempty"`
}

// M is a shorthand for ad-hoc response bodies
type M map[string]interface{}

// WriteJSON is a helper to write JSON responses
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	var response interface{}

	// Bodies that already carry "success" are written as-is
	if responseMap, ok := payload.(M); ok && responseMap["success"] != nil {
		response = responseMap
	} else if status >= 200 && status < 300 {
		response = JSONResponse{Success: true, Data: payload}
	} else {
		response = JSONError{Success: false, Message: "Unknown error"}
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		zap.S().Errorw("error writing JSON response", "error", err)
	}
}

// OK writes a success body with the given top-level fields
func OK(w http.ResponseWriter, status int, fields M) {
	body := M{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	WriteJSON(w, status, body)
}

// WriteJSONError is a helper to write standardized error JSON responses
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	writeError(w, status, JSONError{Success: false, Message: message})
}

func writeError(w http.ResponseWriter, status int, body JSONError) {
	if status >= http.StatusInternalServerError {
		zap.S().Errorw("http error", "status", status, "message", body.Message)
	} else {
		zap.S().Debugw("http error", "status", status, "message", body.Message)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.S().Errorw("error writing JSON error response", "error", err)
	}
}

// HandleServiceError translates service errors into HTTP responses. Service
// errors carry a gRPC status, so the mapping is by status code.
func HandleServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		WriteJSONError(w, http.StatusGatewayTimeout, "Request timed out")
		return
	}

	st, ok := status.FromError(err)
	if !ok {
		zap.S().Errorw("unclassified service error", "error", err)
		WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	body := JSONError{Success: false, Message: st.Message()}
	var se *shared.Error
	if errors.As(err, &se) {
		body.Errors = se.Fields
	}

	switch st.Code() {
	case codes.InvalidArgument, codes.ResourceExhausted:
		writeError(w, http.StatusBadRequest, body)
	case codes.Unauthenticated:
		writeError(w, http.StatusUnauthorized, body)
	case codes.PermissionDenied, codes.FailedPrecondition:
		writeError(w, http.StatusForbidden, body)
	case codes.NotFound:
		writeError(w, http.StatusNotFound, body)
	case codes.AlreadyExists:
		writeError(w, http.StatusConflict, body)
	case codes.Unavailable:
		WriteJSONError(w, http.StatusServiceUnavailable, "Service Unavailable: the data store is unreachable.")
	case codes.DeadlineExceeded:
		WriteJSONError(w, http.StatusGatewayTimeout, "Request timed out")
	default:
		zap.S().Errorw("internal error", "error", err)
		WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// ExtractToken extracts the token from the Authorization header (Bearer <token>)
func ExtractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}

// DecodeJSON reads the request body into v. An empty body leaves v untouched.
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// QueryPage reads page and limit query parameters
func QueryPage(r *http.Request) shared.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return shared.NewPage(page, limit)
}

// QueryBool reads an optional boolean query parameter
func QueryBool(r *http.Request, key string) *bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	if err != nil {
		return nil
	}
	return &v
}

// ============================================================================
// Request Identity
// ============================================================================

type ctxKey struct{}

// WithUser stores the authenticated user on the request context
func WithUser(ctx context.Context, u *shared.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFrom returns the authenticated user, if any
func UserFrom(ctx context.Context) (*shared.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*shared.User)
	return u, ok && u != nil
}

// ActorFrom returns the authenticated caller as an Actor
func ActorFrom(r *http.Request) shared.Actor {
	u, ok := UserFrom(r.Context())
	if !ok {
		return shared.Actor{}
	}
	return shared.Actor{UserID: u.ID, Role: u.Role}
}
