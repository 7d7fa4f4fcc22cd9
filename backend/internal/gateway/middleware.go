package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"coursehub/backend/internal/auth"
	"coursehub/backend/internal/gateway/util"
	"coursehub/backend/internal/logger"
)

// RequestLogger logs one line per request with its status and latency
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			// Authenticate runs later in the chain, so the user is read
			// back through a holder it fills in.
			holder := &userHolder{}
			next.ServeHTTP(ww, r.WithContext(withUserHolder(r.Context(), holder)))

			kv := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			}
			if holder.userID != "" {
				kv = append(kv, "user_id", holder.userID)
			}

			switch {
			case ww.Status() >= http.StatusInternalServerError:
				log.Error("request", kv...)
			case ww.Status() >= http.StatusBadRequest:
				log.Warn("request", kv...)
			default:
				log.Info("request", kv...)
			}
		})
	}
}

// Authenticate validates the Bearer token and its session, then puts the
// user on the request context.
func Authenticate(authSvc *auth.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := util.ExtractToken(r)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}

			u, err := authSvc.ValidateToken(r.Context(), tokenStr)
			if err != nil {
				util.HandleServiceError(w, err)
				return
			}

			if holder, ok := userHolderFrom(r.Context()); ok {
				holder.userID = u.ID
			}
			next.ServeHTTP(w, r.WithContext(util.WithUser(r.Context(), u)))
		})
	}
}

// RequireRole rejects callers whose role is not listed
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := util.UserFrom(r.Context())
			if !ok {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			for _, role := range roles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			util.WriteJSONError(w, http.StatusForbidden, "Access denied. Insufficient permissions.")
		})
	}
}

type userHolder struct {
	userID string
}

type holderKey struct{}

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

func userHolderFrom(ctx context.Context) (*userHolder, bool) {
	h, ok := ctx.Value(holderKey{}).(*userHolder)
	return h, ok
}
