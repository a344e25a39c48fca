package handlers

import (
	"net/http"
	"time"

	"gestao-app/internal/httpx"
	"gestao-app/internal/services"

	"gorm.io/gorm"
)

// DashboardHandler renders the reporting dashboard.
type DashboardHandler struct {
	DB      *gorm.DB
	Reports *services.ReportService
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db, Reports: services.NewReportService(db)}
}

// Show: GET /dashboard?period=&date=
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	period := services.ParsePeriod(r.URL.Query().Get("period"))
	anchor := time.Now()
	if s := r.URL.Query().Get("date"); s != "" {
		if d, err := time.Parse("2006-01-02", s); err == nil {
			anchor = d
		}
	}
	summary, err := h.Reports.Build(period, anchor)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_build_report", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, summary)
		return
	}
	renderTemplate(w, r, "dashboard/index.html", map[string]any{
		"Summary": summary,
		"Period":  string(period),
		"Anchor":  anchor.Format("2006-01-02"),
	})
}
