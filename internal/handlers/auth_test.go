package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"gestao-app/internal/models"
	"gestao-app/internal/services"
)

func TestLoginSetsSessionCookie(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "alice", "secret", false)
	h := NewAuthHandler(db, services.LogMailer{}, "http://localhost")

	w := httptest.NewRecorder()
	h.login(w, formRequest("/login", url.Values{"email": {"alice@test"}, "password": {"secret"}}, 0))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("no session cookie set")
	}
}

func TestLoginRejectsSoftDeletedUser(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "ghost", "secret", false)
	if err := user.SoftDelete(db); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	h := NewAuthHandler(db, services.LogMailer{}, "http://localhost")

	w := httptest.NewRecorder()
	h.login(w, formRequest("/login", url.Values{"email": {"ghost@test"}, "password": {"secret"}}, 0))
	if w.Code == http.StatusSeeOther {
		t.Fatal("soft-deleted user was allowed to log in")
	}
}

func TestRegisterRequiresAdminPassword(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "boss", "adminpass", true)
	h := NewAuthHandler(db, services.LogMailer{}, "http://localhost")

	form := url.Values{
		"username": {"newbie"}, "email": {"newbie@test"},
		"password": {"pw123456"}, "confirm_password": {"pw123456"},
		"admin_password": {"wrong"},
	}
	w := httptest.NewRecorder()
	h.register(w, formRequest("/register", form, 0))
	if w.Code == http.StatusSeeOther {
		t.Fatal("registration succeeded with wrong admin password")
	}
	var count int64
	db.Model(&models.User{}).Where("username = ?", "newbie").Count(&count)
	if count != 0 {
		t.Fatal("user was created despite failed gate")
	}

	form.Set("admin_password", "adminpass")
	w = httptest.NewRecorder()
	h.register(w, formRequest("/register", form, 0))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	db.Model(&models.User{}).Where("username = ?", "newbie").Count(&count)
	if count != 1 {
		t.Fatal("user was not created")
	}
}

func TestRegisterAllowsReusingSoftDeletedNames(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "boss", "adminpass", true)
	old := createUser(t, db, "retired", "pw", false)
	if err := old.SoftDelete(db); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	h := NewAuthHandler(db, services.LogMailer{}, "http://localhost")

	form := url.Values{
		"username": {"fresh"}, "email": {"retired@test"},
		"password": {"pw123456"}, "confirm_password": {"pw123456"},
		"admin_password": {"adminpass"},
	}
	w := httptest.NewRecorder()
	h.register(w, formRequest("/register", form, 0))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: email of a soft-deleted user should be reusable", w.Code)
	}
}

type captureMailer struct {
	to, link string
}

func (m *captureMailer) SendPasswordReset(to, link string) error {
	m.to, m.link = to, link
	return nil
}

func TestPasswordResetFlow(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "alice", "oldpass", false)
	mailer := &captureMailer{}
	h := NewAuthHandler(db, mailer, "http://localhost")

	w := httptest.NewRecorder()
	h.resetRequest(w, formRequest("/reset-password", url.Values{"email": {"alice@test"}}, 0))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if mailer.to != "alice@test" || mailer.link == "" {
		t.Fatalf("mailer not called: %+v", mailer)
	}

	u, err := url.Parse(mailer.link)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	token := u.Query().Get("token")
	if token == "" {
		t.Fatal("link carries no token")
	}

	form := url.Values{"token": {token}, "password": {"newpass"}, "confirm_password": {"newpass"}}
	w = httptest.NewRecorder()
	h.resetConfirm(w, formRequest("/reset-password/confirm", form, 0))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}

	// Old password no longer works, new one does.
	w = httptest.NewRecorder()
	h.login(w, formRequest("/login", url.Values{"email": {"alice@test"}, "password": {"oldpass"}}, 0))
	if w.Code == http.StatusSeeOther {
		t.Fatal("old password still accepted")
	}
	w = httptest.NewRecorder()
	h.login(w, formRequest("/login", url.Values{"email": {"alice@test"}, "password": {"newpass"}}, 0))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("new password rejected: %d", w.Code)
	}
}

func TestResetConfirmRejectsBadToken(t *testing.T) {
	db := setupTestDB(t)
	h := NewAuthHandler(db, services.LogMailer{}, "http://localhost")

	req := httptest.NewRequest(http.MethodGet, "/reset-password/confirm?token=bogus", nil)
	w := httptest.NewRecorder()
	h.resetConfirm(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/reset-password" {
		t.Fatalf("redirect to %s", loc)
	}
}
