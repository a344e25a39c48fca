package handlers

import (
	"net/http"
	"strings"

	"gestao-app/internal/httpx"
	"gestao-app/internal/middleware"
	"gestao-app/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminHandler manages user accounts: admin creation, soft delete of admins,
// promoting/demoting users and permanent user deletion.
type AdminHandler struct {
	DB *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler { return &AdminHandler{DB: db} }

// ListAdmins: GET /admins
func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	var admins []models.User
	if err := models.ActiveUsers(h.DB).Where("is_admin = ?", true).Order("id asc").Find(&admins).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_admins", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, admins)
		return
	}
	renderTemplate(w, r, "admin/list.html", map[string]any{"Admins": admins})
}

// CreateAdmin: GET form / POST create at /admins/create
func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "admin/create.html", map[string]any{"Username": "", "Email": ""})
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
	fail := func(msg string) {
		renderTemplate(w, r, "admin/create.html", map[string]any{"Error": msg, "Username": username, "Email": email})
	}
	if username == "" || email == "" || pass == "" {
		fail("Username, email and password are required.")
		return
	}
	if pass != r.FormValue("confirm_password") {
		fail("Passwords do not match.")
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
		fail("Could not create the administrator. Please try again.")
		return
	}
	admin := models.User{Username: username, Email: email, Password: string(hash), IsAdmin: true}
	if err := h.DB.Create(&admin).Error; err != nil {
		fail("Could not create the administrator. Please try again.")
		return
	}
	middleware.Flash(w, "success", "Administrator created.")
	http.Redirect(w, r, "/admins", statusSeeOther)
}

// DeleteAdmin: POST /admins/delete?id= — soft delete, self-protected.
func (h *AdminHandler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id := idParam(r)
	actor, _ := currentUser(h.DB, r)
	if actor != nil && actor.ID == id {
		middleware.Flash(w, "danger", "You cannot delete your own account.")
		http.Redirect(w, r, "/admins", statusSeeOther)
		return
	}
	var admin models.User
	if err := models.ActiveUsers(h.DB).Where("id = ? AND is_admin = ?", id, true).First(&admin).Error; err != nil {
		http.NotFound(w, r)
		return
	}
	if err := admin.SoftDelete(h.DB); err != nil {
		middleware.Flash(w, "danger", "Could not delete the administrator. Please try again.")
	} else {
		middleware.Flash(w, "success", "Administrator deleted.")
	}
	http.Redirect(w, r, "/admins", statusSeeOther)
}

// ListUsers: GET /users — active users only.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := models.ActiveUsers(h.DB).Order("id asc").Find(&users).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_users", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, users)
		return
	}
	renderTemplate(w, r, "admin/users.html", map[string]any{"Users": users})
}

// ToggleAdmin: POST /users/toggle-admin?id=
func (h *AdminHandler) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id := idParam(r)
	actor, _ := currentUser(h.DB, r)
	if actor != nil && actor.ID == id {
		middleware.Flash(w, "danger", "You cannot change your own administrator status.")
		http.Redirect(w, r, "/users", statusSeeOther)
		return
	}
	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.DB.Model(&user).Update("is_admin", !user.IsAdmin).Error; err != nil {
		middleware.Flash(w, "danger", "Could not update the user. Please try again.")
	} else if user.IsAdmin {
		middleware.Flash(w, "success", "User removed from the administrator group.")
	} else {
		middleware.Flash(w, "success", "User added to the administrator group.")
	}
	http.Redirect(w, r, "/users", statusSeeOther)
}

// DeleteUser: POST /users/delete?id= — permanent removal. Referencing sales
// survive with seller_id set to NULL, inside the same transaction.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id := idParam(r)
	actor, _ := currentUser(h.DB, r)
	if actor != nil && actor.ID == id {
		middleware.Flash(w, "danger", "You cannot delete your own account.")
		http.Redirect(w, r, "/users", statusSeeOther)
		return
	}
	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		http.NotFound(w, r)
		return
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Sale{}).Where("seller_id = ?", user.ID).Update("seller_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		middleware.Flash(w, "danger", "Could not delete the user. Please try again.")
	} else {
		middleware.Flash(w, "success", "User permanently deleted.")
	}
	http.Redirect(w, r, "/users", statusSeeOther)
}
