package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/printshop/internal/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SessionCookieName = "printshop_session"
	sessionCookieAge  = 90 * 24 * time.Hour
)

type sessionKey struct{}

// SessionMiddleware resolves the session id from the session cookie and issues a new
// one when the cookie is missing or malformed.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if c, err := r.Cookie(SessionCookieName); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				sessionID = id.String()
			}
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(sessionCookieAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionIDFromContext(ctx context.Context) string {
	if sessionID, ok := ctx.Value(sessionKey{}).(string); ok {
		return sessionID
	}
	return ""
}

// RequestLogger puts a request scoped logger into the context and logs every finished
// request. It must run after middleware.RequestID.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := middleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set(middleware.RequestIDHeader, requestID)
			}

			l := logger.WithTrace(r.Context(), base).With(
				zap.String("request_id", requestID),
				zap.String("session_id", sessionIDFromContext(r.Context())),
			)
			ctx := logger.WithContext(r.Context(), l)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}
			if status >= http.StatusInternalServerError {
				l.Error("request finished", fields...)
				return
			}
			l.Info("request finished", fields...)
		})
	}
}
