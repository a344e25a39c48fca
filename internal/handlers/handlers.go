package handlers

import (
	"net/http"
	"strconv"

	"gestao-app/internal/auth"
	"gestao-app/internal/middleware"
	"gestao-app/internal/models"
	"gestao-app/internal/view"

	"gorm.io/gorm"
)

// Explicit constant for 303 See Other (Post/Redirect/Get)
const statusSeeOther = 303

// renderTemplate wraps view.Render, popping any pending flash notice into the
// page data first.
func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Flash"]; !ok {
		if msg, level := middleware.PopFlash(w, r); msg != "" {
			data["Flash"] = msg
			data["FlashLevel"] = level
		}
	}
	if err := view.Render(w, r, name, data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte("template error: " + err.Error())); werr != nil {
			_ = werr
		}
	}
}

// currentUser resolves the authenticated user from the request context.
func currentUser(db *gorm.DB, r *http.Request) (*models.User, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || uid == 0 {
		return nil, false
	}
	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		return nil, false
	}
	return &user, true
}

// idParam reads a numeric id from the query string or form body.
func idParam(r *http.Request) uint {
	s := r.URL.Query().Get("id")
	if s == "" {
		s = r.FormValue("id")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return uint(n)
}
