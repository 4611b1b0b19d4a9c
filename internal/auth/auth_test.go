package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return NewService("unit-jwt-key", "admin", string(hash))
}

func login(t *testing.T, s *Service, user, pass string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": user, "password": pass})
	req := httptest.NewRequest("POST", "/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	LoginHandler(s)(w, req)
	return w
}

func TestLoginIssuesToken(t *testing.T) {
	s := newService(t)
	w := login(t, s, "admin", "s3cret")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var res map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := s.Parse(res["access_token"])
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Sub != "admin" {
		t.Fatalf("sub = %q, want admin", claims.Sub)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newService(t)
	for _, tc := range []struct{ user, pass string }{
		{"admin", "wrong"},
		{"other", "s3cret"},
	} {
		if w := login(t, s, tc.user, tc.pass); w.Code != http.StatusUnauthorized {
			t.Fatalf("%s/%s: status = %d, want 401", tc.user, tc.pass, w.Code)
		}
	}
}

func TestLoginRejectsWithoutConfiguredHash(t *testing.T) {
	s := NewService("key", "admin", "")
	if w := login(t, s, "admin", "anything"); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, an unset hash must never authenticate", w.Code)
	}
}

func TestParseRejectsInvalidTokenWithError(t *testing.T) {
	s := newService(t)
	for _, tok := range []string{
		"",
		"not.a.jwt",
		mustIssue(t, NewService("other-key", "admin", "")),
	} {
		claims, err := s.Parse(tok)
		if err == nil {
			t.Fatalf("Parse(%q): err = nil, want non-nil", tok)
		}
		if claims != nil {
			t.Fatalf("Parse(%q): claims = %+v, want nil", tok, claims)
		}
	}
}

func TestJWTMiddleware(t *testing.T) {
	s := newService(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := JWTMiddleware(s)(next)

	tok, err := s.IssueJWT("admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + tok, http.StatusTeapot},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"wrong key", "Bearer " + mustIssue(t, NewService("other-key", "admin", "")), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/sessions/p/s", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func mustIssue(t *testing.T, s *Service) string {
	t.Helper()
	tok, err := s.IssueJWT("admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}
