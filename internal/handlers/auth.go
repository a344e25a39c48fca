package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"gestao-app/internal/auth"
	"gestao-app/internal/httpx"
	"gestao-app/internal/middleware"
	"gestao-app/internal/models"
	"gestao-app/internal/services"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 12

// AuthHandler serves login, registration (gated by an admin password),
// logout and the password-reset flow.
type AuthHandler struct {
	DB      *gorm.DB
	Mailer  services.Mailer
	BaseURL string
	// ResetTokenTTL defaults to auth.DefaultResetTokenTTL when zero.
	ResetTokenTTL time.Duration
}

func NewAuthHandler(db *gorm.DB, mailer services.Mailer, baseURL string) *AuthHandler {
	return &AuthHandler{DB: db, Mailer: mailer, BaseURL: baseURL}
}

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/login", h.login)
	mux.HandleFunc("/register", h.register)
	mux.HandleFunc("/logout", h.logout)
	mux.HandleFunc("/reset-password", h.resetRequest)
	mux.HandleFunc("/reset-password/confirm", h.resetConfirm)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if uid, ok := auth.UserIDFromContext(r.Context()); ok && uid != 0 {
			var count int64
			if err := models.ActiveUsers(h.DB).Where("id = ?", uid).Count(&count).Error; err == nil && count > 0 {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			auth.ClearSession(w)
		}
		renderTemplate(w, r, "auth/login.html", nil)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	pass := r.FormValue("password")
	if email == "" || pass == "" {
		renderTemplate(w, r, "auth/login.html", map[string]any{"Error": "Email and password are required."})
		return
	}
	var user models.User
	if err := models.ActiveUsers(h.DB).Where("email = ?", email).First(&user).Error; err != nil {
		renderTemplate(w, r, "auth/login.html", map[string]any{"Error": "Login failed. Check email and password."})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(pass)) != nil {
		renderTemplate(w, r, "auth/login.html", map[string]any{"Error": "Login failed. Check email and password."})
		return
	}
	auth.CreateSession(w, user.ID)
	next := r.URL.Query().Get("next")
	if next == "" || !strings.HasPrefix(next, "/") {
		next = "/"
	}
	http.Redirect(w, r, next, statusSeeOther)
}

// adminPasswordMatches checks the given passphrase against every active
// administrator. Registration is open to anyone who knows one admin password.
func (h *AuthHandler) adminPasswordMatches(pass string) bool {
	var admins []models.User
	if err := models.ActiveUsers(h.DB).Where("is_admin = ?", true).Find(&admins).Error; err != nil {
		return false
	}
	for _, a := range admins {
		if bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(pass)) == nil {
			return true
		}
	}
	return false
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	if uid, ok := auth.UserIDFromContext(r.Context()); ok && uid != 0 {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "auth/register.html", map[string]any{"Username": "", "Email": ""})
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	pass := r.FormValue("password")
	confirm := r.FormValue("confirm_password")
	adminPass := r.FormValue("admin_password")

	fail := func(msg string) {
		renderTemplate(w, r, "auth/register.html", map[string]any{"Error": msg, "Username": username, "Email": email})
	}
	if username == "" || email == "" || pass == "" {
		fail("Username, email and password are required.")
		return
	}
	if pass != confirm {
		fail("Passwords do not match.")
		return
	}
	if !h.adminPasswordMatches(adminPass) {
		fail("Administrator password is incorrect.")
		return
	}
	var count int64
	if models.ActiveUsers(h.DB).Where("username = ?", username).Count(&count); count > 0 {
		fail("Username already exists.")
		return
	}
	if models.ActiveUsers(h.DB).Where("email = ?", email).Count(&count); count > 0 {
		fail("Email is already registered.")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcryptCost)
	if err != nil {
		fail("Could not create account. Please try again.")
		return
	}
	user := models.User{Username: username, Email: email, Password: string(hash), IsAdmin: false}
	if err := h.DB.Create(&user).Error; err != nil {
		fail("Could not create account. Please try again.")
		return
	}
	middleware.Flash(w, "success", "Your account was created. You can now log in.")
	http.Redirect(w, r, "/login", statusSeeOther)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	middleware.Flash(w, "success", "You have been logged out.")
	http.Redirect(w, r, "/", statusSeeOther)
}

func (h *AuthHandler) tokenTTL() time.Duration {
	if h.ResetTokenTTL > 0 {
		return h.ResetTokenTTL
	}
	return auth.DefaultResetTokenTTL
}

func (h *AuthHandler) resetRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "auth/reset_request.html", nil)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	var user models.User
	if err := models.ActiveUsers(h.DB).Where("email = ?", email).First(&user).Error; err != nil {
		renderTemplate(w, r, "auth/reset_request.html", map[string]any{"Error": "There is no account with that email."})
		return
	}
	token := auth.MakeResetToken(user.Email, h.tokenTTL())
	link := h.BaseURL + "/reset-password/confirm?token=" + url.QueryEscape(token)
	if err := h.Mailer.SendPasswordReset(user.Email, link); err != nil {
		renderTemplate(w, r, "auth/reset_request.html", map[string]any{"Error": "Could not send the email. Please try again later."})
		return
	}
	middleware.Flash(w, "info", "An email with reset instructions has been sent. Check your spam folder too.")
	http.Redirect(w, r, "/login", statusSeeOther)
}

// verifyResetUser resolves a token to an active user, failing closed.
func (h *AuthHandler) verifyResetUser(token string) (*models.User, bool) {
	email, ok := auth.VerifyResetToken(token)
	if !ok {
		return nil, false
	}
	var user models.User
	if err := models.ActiveUsers(h.DB).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

func (h *AuthHandler) resetConfirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.FormValue("token")
	}
	user, ok := h.verifyResetUser(token)
	if !ok {
		middleware.Flash(w, "warning", "Invalid or expired token.")
		http.Redirect(w, r, "/reset-password", statusSeeOther)
		return
	}
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "auth/reset_token.html", map[string]any{"Token": token})
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	pass := r.FormValue("password")
	if pass == "" || pass != r.FormValue("confirm_password") {
		renderTemplate(w, r, "auth/reset_token.html", map[string]any{"Token": token, "Error": "Passwords do not match."})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcryptCost)
	if err != nil {
		renderTemplate(w, r, "auth/reset_token.html", map[string]any{"Token": token, "Error": "Could not update the password."})
		return
	}
	if err := h.DB.Model(user).Update("password", string(hash)).Error; err != nil {
		renderTemplate(w, r, "auth/reset_token.html", map[string]any{"Token": token, "Error": "Could not update the password."})
		return
	}
	middleware.Flash(w, "success", "Your password has been updated. You can now log in.")
	http.Redirect(w, r, "/login", statusSeeOther)
}
