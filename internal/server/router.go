package server

import (
	"context"
	"net/http"

	"gestao-app/internal/auth"
	"gestao-app/internal/handlers"
	"gestao-app/internal/middleware"
	"gestao-app/internal/models"
	"gestao-app/internal/services"
	"gestao-app/internal/view"

	"gorm.io/gorm"
)

// Options tunes the assembled router.
type Options struct {
	Mailer         services.Mailer
	BaseURL        string
	MaxUploadBytes int64
}

// New assembles the full HTTP handler: session middleware, auth gates per
// route group, and the public health endpoints.
func New(db *gorm.DB, opts Options) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.Mailer == nil {
		opts.Mailer = services.LogMailer{}
	}

	auth.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		var count int64
		if err := models.ActiveUsers(db).Where("id = ?", uid).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})
	auth.SetAdminVerifier(func(ctx context.Context, uid uint) bool {
		var count int64
		if err := models.ActiveUsers(db).Where("id = ? AND is_admin = ?", uid, true).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	authH := handlers.NewAuthHandler(db, opts.Mailer, opts.BaseURL)
	adminH := handlers.NewAdminHandler(db)
	productH := handlers.NewProductHandler(db, opts.MaxUploadBytes)
	clientH := handlers.NewClientHandler(db, opts.MaxUploadBytes)
	saleH := handlers.NewSaleHandler(db)
	dashH := handlers.NewDashboardHandler(db)

	mux := http.NewServeMux()

	// Public
	health := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Exec("SELECT 1").Error; err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
	mux.HandleFunc("/health", health)
	mux.HandleFunc("/healthz", health)
	authH.Register(mux)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
	mux.HandleFunc("/", index)

	// Authenticated
	protect := func(path string, fn http.HandlerFunc) {
		mux.Handle(path, auth.RequireAuth(fn))
	}
	protect("/dashboard", dashH.Show)

	protect("/products", productH.List)
	protect("/products/gallery", productH.Gallery)
	protect("/products/create", productH.Create)
	protect("/products/edit", productH.Edit)
	protect("/products/delete", productH.Delete)
	protect("/products/image", productH.Image)
	protect("/products/image/delete", productH.DeleteImage)

	protect("/clients", clientH.List)
	protect("/clients/create", clientH.Create)
	protect("/clients/edit", clientH.Edit)
	protect("/clients/image", clientH.Image)
	protect("/clients/image/delete", clientH.DeleteImage)

	protect("/sales", saleH.List)
	protect("/sales/create", saleH.Create)
	protect("/sales/edit", saleH.Edit)
	protect("/sales/complete", saleH.Complete)
	protect("/sales/cancel", saleH.Cancel)

	// Admin only
	admin := func(path string, fn http.HandlerFunc) {
		mux.Handle(path, auth.RequireAdmin(fn))
	}
	admin("/admins", adminH.ListAdmins)
	admin("/admins/create", adminH.CreateAdmin)
	admin("/admins/delete", adminH.DeleteAdmin)
	// Cascade delete of a client takes their sales along, so it is admin-only.
	admin("/clients/delete", clientH.Delete)
	admin("/users", adminH.ListUsers)
	admin("/users/toggle-admin", adminH.ToggleAdmin)
	admin("/users/delete", adminH.DeleteUser)
	admin("/categories", productH.Categories)
	admin("/categories/delete", productH.DeleteCategory)

	var handler http.Handler = mux
	handler = auth.Middleware(handler)
	handler = middleware.WithLogging(handler)
	handler = middleware.WithRecover(handler)
	return handler
}

// index serves the landing page; unknown paths 404.
func index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if err := view.Render(w, r, "index.html", map[string]any{}); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
