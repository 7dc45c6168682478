package gateway

import (
	"log/slog"
	"net/http"
	"time"

	"sana/internal/events"
	"sana/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionCookie names the cookie carrying the browser's session id. The
// value is an opaque handle to server-side state, not a credential.
const SessionCookie = "session_id"

// SessionAuthMiddleware rejects requests without a valid session and injects
// the session's user into the request context. Validity is decided lazily:
// an idle session is cleared here, on the first request that asks.
func SessionAuthMiddleware(sessions SessionRegistry, publisher *events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized: no session cookie",
			})
			return
		}

		ctx := c.Request.Context()
		sess := sessions.Session(sessionID)

		// Remember whether state existed before the validity check so an
		// inactivity expiry is distinguishable from a cookie that never
		// matched anything.
		user, hadUser := sess.CurrentUser(ctx)

		if !sess.IsValid(ctx) {
			if hadUser && publisher != nil {
				_ = publisher.Publish(events.TypeExpired, user.Email, c.GetString("request_id"))
			}
			slog.Warn("Invalid session",
				"session_id", sessionID,
				"expired", hadUser,
				"request_id", c.GetString("request_id"),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized: invalid session",
			})
			return
		}

		if user != nil {
			c.Set("email", user.Email)
			c.Set("full_name", user.FullName)

			// Headers for the proxied guidance service.
			c.Request.Header.Set("X-User-Email", user.Email)
			c.Request.Header.Set("X-User-Name", user.FullName)
		}
		c.Set("session_id", sessionID)

		c.Next()
	}
}

// ActivityMiddleware records a qualifying interaction, extending the expiry
// window. Runs after SessionAuthMiddleware so logouts and dead cookies never
// count as activity. The cookie is reissued alongside the touch: its
// lifetime has to slide with the server-side window, or the browser would
// drop the cookie twelve hours after login no matter how active the user is.
func ActivityMiddleware(sessions SessionRegistry, cookieSecure bool) gin.HandlerFunc {
	maxAge := int(session.InactivityThreshold.Seconds())
	return func(c *gin.Context) {
		if sessionID := c.GetString("session_id"); sessionID != "" {
			sessions.Session(sessionID).Touch(c.Request.Context())
			c.SetCookie(SessionCookie, sessionID, maxAge, "/", "", cookieSecure, true)
		}
		c.Next()
	}
}

// RequestIDMiddleware tags every request for log correlation
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// LoggingMiddleware logs every request with structured attributes, at a
// level picked from the response status.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", float64(time.Since(start).Milliseconds()),
			"client_ip", c.ClientIP(),
			"response_size", c.Writer.Size(),
		}

		if query := c.Request.URL.RawQuery; query != "" {
			attrs = append(attrs, "query", query)
		}
		if email, exists := c.Get("email"); exists {
			attrs = append(attrs, "email", email)
		}
		if upstream, exists := c.Get("upstream_service"); exists {
			attrs = append(attrs, "upstream_service", upstream)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			slog.Error("Request failed - server error", attrs...)
		case status >= 400:
			slog.Warn("Request failed - client error", attrs...)
		default:
			slog.Info("Request completed", attrs...)
		}
	}
}
