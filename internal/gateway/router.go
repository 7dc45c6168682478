// Package gateway implements the session gateway: the HTTP surface the
// web front-end talks to. It owns session establishment and expiry, forwards
// credential submissions to the identity service, and proxies authenticated
// guidance traffic to the backend.
package gateway

import (
	"context"
	"log/slog"

	"sana/internal/consul"
	"sana/internal/events"
	"sana/internal/identity"
	"sana/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SessionRegistry hands out per-browser session handles. Satisfied by
// *session.Manager; tests substitute fakes.
type SessionRegistry interface {
	Session(id string) session.State
}

// AuthClient is the slice of the identity service the gateway consumes.
type AuthClient interface {
	Register(ctx context.Context, req identity.RegisterRequest) (*identity.Account, error)
	Login(ctx context.Context, req identity.LoginRequest) (*identity.Account, error)
}

// Deps carries everything the router needs wired in.
type Deps struct {
	Sessions      SessionRegistry
	Identity      AuthClient
	Discovery     consul.ServiceDiscovery
	Events        *events.Publisher
	Store         session.Store
	Logger        *slog.Logger
	AllowedOrigin string
	CookieSecure  bool
}

// SetupRouter configures and returns the gateway router
func SetupRouter(deps Deps) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())

	origin := deps.AllowedOrigin
	if origin == "" {
		origin = "http://localhost:5173"
	}
	// Credentials must ride along: the browser presents the session cookie
	// on every call.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{origin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	authHandler := NewAuthHandler(deps)

	r.GET("/health", authHandler.Health)

	// Public auth surface consumed by the sign-up and login forms.
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/session", authHandler.Session)
		auth.POST("/password-strength", authHandler.PasswordStrength)
	}

	// Protected guidance API. Every request must carry a valid session and
	// counts as activity that extends it.
	if deps.Discovery != nil {
		proxy := NewProxyHandler(deps.Discovery)
		api := r.Group("/api")
		api.Use(SessionAuthMiddleware(deps.Sessions, deps.Events))
		api.Use(ActivityMiddleware(deps.Sessions, deps.CookieSecure))
		{
			api.Any("/*path", proxy.ProxyWithPathRewrite("guidance-service", "/api"))
		}
	}

	return r
}
