package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"sana/internal/events"
	"sana/internal/identity"
	"sana/internal/session"
	"sana/internal/validate"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthHandler serves the auth surface of the gateway.
type AuthHandler struct {
	sessions     SessionRegistry
	identity     AuthClient
	events       *events.Publisher
	store        session.Store
	logger       *slog.Logger
	cookieSecure bool
}

// NewAuthHandler creates the handler from the router's dependency set.
func NewAuthHandler(deps Deps) *AuthHandler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		sessions:     deps.Sessions,
		identity:     deps.Identity,
		events:       deps.Events,
		store:        deps.Store,
		logger:       logger,
		cookieSecure: deps.CookieSecure,
	}
}

type registerRequest struct {
	Email           string   `json:"email" binding:"required,email"`
	Password        string   `json:"password" binding:"required,min=8"`
	ConfirmPassword string   `json:"confirmPassword" binding:"required,eqfield=Password"`
	FullName        string   `json:"fullName" binding:"required"`
	AgeRange        string   `json:"ageRange"`
	Goals           []string `json:"goals"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type passwordStrengthRequest struct {
	Password string `json:"password"`
}

// bind decodes and validates a request body, answering 422 with per-field
// messages on validation failure and 400 on malformed JSON. Returns false
// when the response has already been written.
func (h *AuthHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if fields, ok := validate.FromBinding(err); ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  "validation_failed",
				"fields": fields,
			})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		}
		return false
	}
	return true
}

// Register handles POST /auth/register: validate the form, forward the
// credentials to the identity service, and establish a session only once the
// service has answered.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req) {
		return
	}

	account, err := h.identity.Register(c.Request.Context(), identity.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		AgeRange: req.AgeRange,
		Goals:    req.Goals,
	})
	if err != nil {
		h.identityFailure(c, "register", err)
		return
	}

	h.startSession(c, account)
	h.publish(c, events.TypeRegistered, account.Email)

	c.JSON(http.StatusCreated, gin.H{"user": account})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}

	account, err := h.identity.Login(c.Request.Context(), identity.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.identityFailure(c, "login", err)
		return
	}

	h.startSession(c, account)
	h.publish(c, events.TypeLoggedIn, account.Email)

	c.JSON(http.StatusOK, gin.H{"user": account})
}

// Logout handles POST /auth/logout. Idempotent: logging out without a
// session is still a 200.
func (h *AuthHandler) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(SessionCookie); err == nil {
		sess := h.sessions.Session(sessionID)
		if user, ok := sess.CurrentUser(c.Request.Context()); ok {
			h.publish(c, events.TypeLoggedOut, user.Email)
		}
		sess.Invalidate(c.Request.Context())
	}

	h.clearCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Session handles GET /auth/session: the page-load check the front-end runs
// to decide whether someone is signed in. Asking is what expires an idle
// session.
func (h *AuthHandler) Session(c *gin.Context) {
	sessionID, err := c.Cookie(SessionCookie)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	ctx := c.Request.Context()
	sess := h.sessions.Session(sessionID)

	if !sess.IsValid(ctx) {
		h.clearCookie(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	// The check itself counts as a page load, so push the cookie's own
	// lifetime out along with the server-side window.
	h.refreshCookie(c, sessionID)

	resp := gin.H{"authenticated": true}
	if user, ok := sess.CurrentUser(ctx); ok {
		resp["user"] = user
	}
	if last, ok := sess.LastActivityTime(ctx); ok {
		resp["lastActivity"] = last
	}
	c.JSON(http.StatusOK, resp)
}

// PasswordStrength handles POST /auth/password-strength, backing the
// sign-up form's strength meter.
func (h *AuthHandler) PasswordStrength(c *gin.Context) {
	var req passwordStrengthRequest
	if !h.bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"strength": validate.PasswordStrength(req.Password).String(),
	})
}

// Health reports gateway and store reachability.
func (h *AuthHandler) Health(c *gin.Context) {
	resp := gin.H{"status": "up"}

	if checker, ok := h.store.(healthChecker); ok {
		if err := checker.Health(c.Request.Context()); err != nil {
			resp["store"] = gin.H{"status": "down", "error": err.Error()}
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		resp["store"] = gin.H{"status": "up"}
	}

	c.JSON(http.StatusOK, resp)
}

// startSession issues a fresh session id, persists the user record against
// it and hands the id to the browser. Establish runs synchronously: the
// response is not written until the session state is down.
func (h *AuthHandler) startSession(c *gin.Context, account *identity.Account) {
	sessionID := uuid.New().String()
	h.sessions.Session(sessionID).Establish(c.Request.Context(), session.User{
		Email:     account.Email,
		FullName:  account.FullName,
		CreatedAt: account.CreatedAt,
	})

	h.refreshCookie(c, sessionID)
}

// refreshCookie (re)issues the session cookie with a full inactivity window.
// Activity extends the server-side window, so the cookie's lifetime must be
// pushed out with it or the browser would drop an active session.
func (h *AuthHandler) refreshCookie(c *gin.Context, sessionID string) {
	maxAge := int(session.InactivityThreshold.Seconds())
	c.SetCookie(SessionCookie, sessionID, maxAge, "/", "", h.cookieSecure, true)
}

func (h *AuthHandler) clearCookie(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", h.cookieSecure, true)
}

// identityFailure maps an identity-service error onto the transient-toast
// contract: the service's detail message when one exists, the generic
// fallback otherwise. Session state is never mutated on failure.
func (h *AuthHandler) identityFailure(c *gin.Context, op string, err error) {
	h.logger.Warn("Identity request failed",
		"op", op,
		"error", err.Error(),
		"request_id", c.GetString("request_id"),
	)

	status := http.StatusBadGateway
	var reqErr *identity.RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode >= 400 && reqErr.StatusCode < 500 {
		status = reqErr.StatusCode
	}

	c.JSON(status, gin.H{"error": identity.Message(err)})
}

func (h *AuthHandler) publish(c *gin.Context, eventType events.Type, email string) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(eventType, email, c.GetString("request_id")); err != nil {
		h.logger.Warn("Failed to publish auth event", "type", string(eventType), "error", err.Error())
	}
}

// healthChecker is implemented by stores that can report reachability.
type healthChecker interface {
	Health(ctx context.Context) error
}
