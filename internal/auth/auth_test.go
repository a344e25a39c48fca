package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSessionRoundTrip(t *testing.T) {
	w := httptest.NewRecorder()
	CreateSession(w, 42)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	uid, ok := ParseSession(req)
	if !ok || uid != 42 {
		t.Fatalf("expected uid 42, got %d ok=%v", uid, ok)
	}
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	w := httptest.NewRecorder()
	CreateSession(w, 7)
	c := w.Result().Cookies()[0]

	// Change the user id but keep the signature.
	parts := strings.SplitN(c.Value, ".", 2)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: c.Name, Value: "8." + parts[1]})
	if _, ok := ParseSession(req); ok {
		t.Fatal("tampered session accepted")
	}
}

func TestResetTokenRoundTrip(t *testing.T) {
	token := MakeResetToken("user@example.com", time.Minute)
	email, ok := VerifyResetToken(token)
	if !ok || email != "user@example.com" {
		t.Fatalf("expected valid token for user@example.com, got %q ok=%v", email, ok)
	}
}

func TestResetTokenExpires(t *testing.T) {
	token := MakeResetToken("user@example.com", -time.Second)
	if _, ok := VerifyResetToken(token); ok {
		t.Fatal("expired token accepted")
	}
}

func TestResetTokenRejectsTampering(t *testing.T) {
	token := MakeResetToken("user@example.com", time.Minute)
	if _, ok := VerifyResetToken(token + "x"); ok {
		t.Fatal("tampered token accepted")
	}
	if _, ok := VerifyResetToken("not.a.token"); ok {
		t.Fatal("garbage token accepted")
	}
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler reached without session")
	}))
	req := httptest.NewRequest(http.MethodGet, "/sales", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %s", loc)
	}
}

func TestRequireAuthJSONGets401(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/sales", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
