package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"sana/internal/session"

	"github.com/gin-gonic/gin"
)

// mockState is a scripted session.State for middleware tests.
type mockState struct {
	valid       bool
	user        *session.User
	last        int64
	hasLast     bool
	touched     int
	invalidated int
	established *session.User
}

func (m *mockState) Establish(_ context.Context, u session.User) { m.established = &u }
func (m *mockState) Invalidate(_ context.Context)                { m.invalidated++ }
func (m *mockState) IsValid(_ context.Context) bool              { return m.valid }
func (m *mockState) CurrentUser(_ context.Context) (*session.User, bool) {
	return m.user, m.user != nil
}
func (m *mockState) LastActivityTime(_ context.Context) (int64, bool) { return m.last, m.hasLast }
func (m *mockState) Touch(_ context.Context)                          { m.touched++ }

// mockRegistry hands every id the same scripted state.
type mockRegistry struct {
	state *mockState
}

func (r *mockRegistry) Session(string) session.State { return r.state }

func TestSessionAuthMiddleware_ValidSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	state := &mockState{
		valid: true,
		user:  &session.User{Email: "test@example.com", FullName: "Test User"},
	}

	r := gin.New()
	r.Use(SessionAuthMiddleware(&mockRegistry{state: state}, nil))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"email":        c.GetString("email"),
			"header_email": c.Request.Header.Get("X-User-Email"),
			"header_name":  c.Request.Header.Get("X-User-Name"),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "sid-1"})
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`"email":"test@example.com"`, `"header_email":"test@example.com"`, `"header_name":"Test User"`} {
		if !contains(body, want) {
			t.Errorf("response missing %s: %s", want, body)
		}
	}
}

func TestSessionAuthMiddleware_NoSessionCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(SessionAuthMiddleware(&mockRegistry{state: &mockState{}}, nil))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestSessionAuthMiddleware_InvalidSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	state := &mockState{valid: false}
	r := gin.New()
	r.Use(SessionAuthMiddleware(&mockRegistry{state: state}, nil))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "stale-sid"})
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestActivityMiddleware_TouchesAuthenticatedRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	state := &mockState{valid: true, user: &session.User{Email: "a@b.com"}}
	reg := &mockRegistry{state: state}

	r := gin.New()
	r.Use(SessionAuthMiddleware(reg, nil))
	r.Use(ActivityMiddleware(reg, false))
	r.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "sid-1"})
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if state.touched != 1 {
		t.Errorf("Expected exactly one touch, got %d", state.touched)
	}
}

// An active user must never lose the session to the cookie's own lifetime:
// every touched request reissues the cookie with a full window, matching the
// extension Touch applies server-side.
func TestActivityMiddleware_ReissuesSessionCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)

	state := &mockState{valid: true, user: &session.User{Email: "a@b.com"}}
	reg := &mockRegistry{state: state}

	r := gin.New()
	r.Use(SessionAuthMiddleware(reg, nil))
	r.Use(ActivityMiddleware(reg, false))
	r.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "sid-1"})
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	var reissued *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			reissued = c
		}
	}
	if reissued == nil {
		t.Fatal("expected the session cookie to be reissued")
	}
	if reissued.Value != "sid-1" {
		t.Errorf("reissued cookie value = %q, want sid-1", reissued.Value)
	}
	if want := int(session.InactivityThreshold.Seconds()); reissued.MaxAge != want {
		t.Errorf("reissued cookie MaxAge = %d, want %d", reissued.MaxAge, want)
	}
}

func TestActivityMiddleware_SkipsUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)

	state := &mockState{}
	reg := &mockRegistry{state: state}

	r := gin.New()
	r.Use(ActivityMiddleware(reg, false))
	r.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if state.touched != 0 {
		t.Errorf("Expected no touches without a session, got %d", state.touched)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("no cookie may be issued without a session")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/test", func(c *gin.Context) {
		if c.GetString("request_id") == "" {
			t.Error("request_id missing from context")
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing from response")
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
