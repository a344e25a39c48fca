package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gestao-app/internal/httpx"
	"gestao-app/internal/middleware"
	"gestao-app/internal/models"
	"gestao-app/internal/services"
	"gestao-app/internal/validation"

	"gorm.io/gorm"
)

// SaleHandler drives the sale lifecycle over the sale service.
type SaleHandler struct {
	DB    *gorm.DB
	Sales *services.SaleService
}

func NewSaleHandler(db *gorm.DB) *SaleHandler {
	return &SaleHandler{DB: db, Sales: services.NewSaleService(db)}
}

// List: GET /sales — newest first.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	var sales []models.Sale
	if err := h.DB.
		Preload("Client").Preload("Product").Preload("Seller").
		Order("sale_date desc, id desc").
		Find(&sales).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_sales", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, sales)
		return
	}
	user, _ := currentUser(h.DB, r)
	renderTemplate(w, r, "sales/list.html", map[string]any{"Sales": sales, "User": user})
}

func parseSaleInput(r *http.Request) (services.SaleInput, validation.Violations) {
	v := validation.Violations{}
	var in services.SaleInput

	if n, err := strconv.Atoi(r.FormValue("client_id")); err == nil && n > 0 {
		in.ClientID = uint(n)
	}
	if in.ClientID == 0 {
		v["client_id"] = "required"
	}
	if n, err := strconv.Atoi(r.FormValue("product_id")); err == nil && n > 0 {
		in.ProductID = uint(n)
	}
	if in.ProductID == 0 {
		v["product_id"] = "required"
	}
	in.Quantity, _ = strconv.Atoi(r.FormValue("quantity"))
	validation.PositiveInt("quantity", in.Quantity, v)
	in.DiscountPercentage, _ = strconv.ParseFloat(r.FormValue("discount_percentage"), 64)
	validation.RangeFloat("discount_percentage", in.DiscountPercentage, 0, 100, v)
	in.Notes = strings.TrimSpace(r.FormValue("notes"))

	in.SaleDate = time.Now()
	if s := r.FormValue("sale_date"); s != "" {
		if d, err := time.Parse("2006-01-02", s); err == nil {
			in.SaleDate = d
		}
	}
	if r.FormValue("is_financed") != "" {
		in.IsFinanced = true
		in.FinancingYears, _ = strconv.Atoi(r.FormValue("financing_years"))
		validation.RangeInt("financing_years", in.FinancingYears, 1, 10, v)
		in.InterestRate, _ = strconv.ParseFloat(r.FormValue("interest_rate"), 64)
		validation.PositiveFloat("interest_rate", in.InterestRate, v)
	}
	return in, v
}

func (h *SaleHandler) renderSaleForm(w http.ResponseWriter, r *http.Request, tpl string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	var clients []models.Client
	h.DB.Order("full_name asc").Find(&clients)
	var products []models.Product
	h.DB.Where("is_active = ?", true).Order("name asc").Find(&products)
	data["Clients"] = clients
	data["Products"] = products
	renderTemplate(w, r, tpl, data)
}

// Create: GET form / POST create at /sales/create
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.renderSaleForm(w, r, "sales/create.html", nil)
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
	in, violations := parseSaleInput(r)
	if !violations.Empty() {
		h.renderSaleForm(w, r, "sales/create.html", map[string]any{"Violations": violations})
		return
	}
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	if _, err := h.Sales.Create(in, user.ID); err != nil {
		h.renderSaleForm(w, r, "sales/create.html", map[string]any{"Error": saleErrorMessage(err)})
		return
	}
	middleware.Flash(w, "success", "Sale registered as pending. Stock will move when it completes.")
	http.Redirect(w, r, "/sales", statusSeeOther)
}

// Edit: GET form / POST update at /sales/edit?id=
func (h *SaleHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var sale models.Sale
	if err := h.DB.Preload("Client").Preload("Product").First(&sale, idParam(r)).Error; err != nil {
		http.NotFound(w, r)
		return
	}
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	if !user.IsAdmin && (sale.SellerID == nil || *sale.SellerID != user.ID) {
		middleware.Flash(w, "danger", "Only the seller or an administrator can edit this sale.")
		http.Redirect(w, r, "/sales", statusSeeOther)
		return
	}
	if !sale.Editable() {
		middleware.Flash(w, "warning", "Completed or cancelled sales cannot be edited.")
		http.Redirect(w, r, "/sales", statusSeeOther)
		return
	}
	if r.Method == http.MethodGet {
		h.renderSaleForm(w, r, "sales/edit.html", map[string]any{"Sale": sale})
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
	in, violations := parseSaleInput(r)
	if !violations.Empty() {
		h.renderSaleForm(w, r, "sales/edit.html", map[string]any{"Sale": sale, "Violations": violations})
		return
	}
	if _, err := h.Sales.Update(sale.ID, in, user); err != nil {
		h.renderSaleForm(w, r, "sales/edit.html", map[string]any{"Sale": sale, "Error": saleErrorMessage(err)})
		return
	}
	middleware.Flash(w, "success", "Sale updated.")
	http.Redirect(w, r, "/sales", statusSeeOther)
}

// Complete: POST /sales/complete?id=
func (h *SaleHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if _, err := h.Sales.Complete(idParam(r)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		middleware.Flash(w, "danger", saleErrorMessage(err))
	} else {
		middleware.Flash(w, "success", "Sale completed and stock updated.")
	}
	http.Redirect(w, r, "/sales", statusSeeOther)
}

// Cancel: POST /sales/cancel?id= — cancelling twice is a notice, not an error.
func (h *SaleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if _, err := h.Sales.Cancel(idParam(r)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		if errors.Is(err, services.ErrSaleCancelled) {
			middleware.Flash(w, "info", "This sale was already cancelled.")
		} else {
			middleware.Flash(w, "danger", saleErrorMessage(err))
		}
	} else {
		middleware.Flash(w, "success", "Sale cancelled.")
	}
	http.Redirect(w, r, "/sales", statusSeeOther)
}

// saleErrorMessage maps service sentinels to user-facing notices.
func saleErrorMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrInsufficientStock):
		return "Not enough stock for this sale."
	case errors.Is(err, services.ErrSaleFinalized):
		return "Completed or cancelled sales cannot be modified."
	case errors.Is(err, services.ErrNotAllowed):
		return "Only the seller or an administrator can edit this sale."
	case errors.Is(err, services.ErrInvalidFinancing):
		return "Financing needs 1 to 10 years and a positive interest rate."
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "Record not found."
	default:
		return "The operation failed. Please try again."
	}
}
