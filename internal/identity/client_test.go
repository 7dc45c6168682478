package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterSuccess(t *testing.T) {
	var gotPath string
	var gotBody RegisterRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"email":     "ana@example.com",
			"fullName":  "Ana Gomez",
			"createdAt": "2024-01-01T00:00:00Z",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	account, err := client.Register(context.Background(), RegisterRequest{
		Email:    "ana@example.com",
		Password: "correct horse",
		FullName: "Ana Gomez",
	})
	require.NoError(t, err)

	assert.Equal(t, "/register", gotPath)
	assert.Equal(t, "ana@example.com", gotBody.Email)
	assert.Equal(t, "Ana Gomez", account.FullName)
	assert.Equal(t, "2024-01-01T00:00:00Z", account.CreatedAt)
}

func TestLoginSynthesizesFullName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The service may omit fullName; the client fills it from the
		// email local part, locally only.
		_ = json.NewEncoder(w).Encode(map[string]string{
			"email":     "ana.gomez@example.com",
			"createdAt": "2024-01-01T00:00:00Z",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	account, err := client.Login(context.Background(), LoginRequest{
		Email:    "ana.gomez@example.com",
		Password: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Gomez", account.FullName)
}

func TestRejectionCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"detail": "Incorrect email or password",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "pw"})
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusUnauthorized, reqErr.StatusCode)
	assert.Equal(t, "Incorrect email or password", Message(err))
}

func TestRejectionWithoutDetailFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.Register(context.Background(), RegisterRequest{Email: "a@b.com", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, FallbackMessage, Message(err))
}

func TestNetworkFailureFallsBack(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, FallbackMessage, Message(err))
}

func TestCookiesRideAlong(t *testing.T) {
	var sawCookie bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("transport"); err == nil {
			sawCookie = true
		}
		http.SetCookie(w, &http.Cookie{Name: "transport", Value: "abc"})
		_ = json.NewEncoder(w).Encode(map[string]string{
			"email":     "a@b.com",
			"createdAt": "2024-01-01T00:00:00Z",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	_, err = client.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, sawCookie, "second request must present the cookie from the first")
}

func TestDisplayNameFromEmail(t *testing.T) {
	cases := map[string]string{
		"ana.gomez@example.com": "Ana Gomez",
		"bob@example.com":       "Bob",
		"mary_jane+x@test.io":   "Mary Jane X",
		"x@y.z":                 "X",
		"ñana.gomez@example.mx": "Ñana Gomez",
	}
	for email, want := range cases {
		assert.Equal(t, want, displayNameFromEmail(email), email)
	}
}
