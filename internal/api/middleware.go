package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/arihooper/Pharmfind/internal/apperr"
	"github.com/arihooper/Pharmfind/internal/auth"
	"github.com/arihooper/Pharmfind/internal/logging"
)

type ctxKey string

const ctxIdentity ctxKey = "identity"

// requestLogger puts a request scoped logger in the context and logs each
// request once it completes.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := h.logger.With(slog.String("request_id", middleware.GetReqID(r.Context())))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(logging.IntoContext(r.Context(), logger)))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("latency", time.Since(start)),
			slog.String("remote_ip", r.RemoteAddr),
		}
		if r.URL.RawQuery != "" {
			attrs = append(attrs, slog.String("query", r.URL.RawQuery))
		}
		logger.LogAttrs(r.Context(), level, "HTTP request", attrs...)
	})
}

func (h *Handler) requestLog(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context())
}

// authenticate requires a valid bearer token and stores its identity in the
// request context. A missing token is 401, a rejected one 403.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "bearer ") {
			respondError(w, r, apperr.Unauthorized("Access token required"))
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		if tokenString == "" {
			respondError(w, r, apperr.Unauthorized("Access token required"))
			return
		}

		claims, err := h.auth.VerifyToken(tokenString)
		if err != nil {
			respondError(w, r, err)
			return
		}
		id := claims.Identity()
		ctx := context.WithValue(r.Context(), ctxIdentity, id)
		ctx = logging.IntoContext(ctx, logging.FromContext(ctx).With(slog.Int64("user_id", id.UserID)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole admits only callers holding one of roles. It must run after
// authenticate.
func (h *Handler) requireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identityFrom(r.Context())
			if !ok {
				respondError(w, r, apperr.Unauthorized("Access token required"))
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, r, apperr.Forbidden("Insufficient permissions"))
		})
	}
}

func identityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(ctxIdentity).(auth.Identity)
	return id, ok
}
