package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gestao-app/internal/httpx"
	"gestao-app/internal/middleware"
	"gestao-app/internal/models"
	"gestao-app/internal/validation"

	"gorm.io/gorm"
)

const maxProductImages = 5

// ProductHandler serves the catalog: product CRUD, the image gallery and
// category management.
type ProductHandler struct {
	DB             *gorm.DB
	MaxUploadBytes int64
}

func NewProductHandler(db *gorm.DB, maxUpload int64) *ProductHandler {
	return &ProductHandler{DB: db, MaxUploadBytes: maxUpload}
}

// List: GET /products with an optional ?category= filter.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := h.DB.Preload("Category").Preload("Images").Order("id asc")
	var selected uint
	if s := r.URL.Query().Get("category"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			selected = uint(n)
			q = q.Where("category_id = ?", selected)
		}
	}
	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_products", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, products)
		return
	}
	var categories []models.Category
	h.DB.Order("name asc").Find(&categories)
	renderTemplate(w, r, "products/list.html", map[string]any{
		"Products":   products,
		"Categories": categories,
		"Selected":   selected,
	})
}

// Gallery: GET /products/gallery — card view with the first image per product.
func (h *ProductHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	var products []models.Product
	if err := h.DB.Preload("Images").Preload("Category").Order("id asc").Find(&products).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_products", nil)
		return
	}
	renderTemplate(w, r, "products/gallery.html", map[string]any{"Products": products})
}

type productForm struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	CategoryID  *uint
	Costs       [5]float64
	EntryDate   time.Time
}

func (h *ProductHandler) parseProductForm(r *http.Request) (productForm, validation.Violations) {
	v := validation.Violations{}
	var f productForm
	f.Name = strings.TrimSpace(r.FormValue("name"))
	f.Description = strings.TrimSpace(r.FormValue("description"))
	validation.Required("name", f.Name, v)

	f.Price, _ = strconv.ParseFloat(r.FormValue("price"), 64)
	validation.PositiveFloat("price", f.Price, v)
	f.Stock, _ = strconv.Atoi(r.FormValue("stock"))
	validation.MinInt("stock", f.Stock, 0, v)

	if s := r.FormValue("category_id"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			id := uint(n)
			f.CategoryID = &id
		}
	}
	for i := 0; i < 5; i++ {
		field := "cost" + strconv.Itoa(i+1)
		if s := r.FormValue(field); s != "" {
			c, err := strconv.ParseFloat(s, 64)
			if err != nil || c < 0 {
				v[field] = "must_not_be_negative"
				continue
			}
			f.Costs[i] = c
		}
	}
	f.EntryDate = time.Now()
	if s := r.FormValue("entry_date"); s != "" {
		if d, err := time.Parse("2006-01-02", s); err == nil {
			f.EntryDate = d
		}
	}
	return f, v
}

// collectImages drains up to maxProductImages uploaded files from the
// multipart form, enforcing the extension allow-list.
func collectImages(r *http.Request, field string) ([][]byte, []string, error) {
	if r.MultipartForm == nil || r.MultipartForm.File == nil {
		return nil, nil, nil
	}
	var data [][]byte
	var mimes []string
	for _, fh := range r.MultipartForm.File[field] {
		if fh.Filename == "" {
			continue
		}
		if !validation.AllowedImage(fh.Filename) {
			return nil, nil, errors.New("unsupported image type: " + fh.Filename)
		}
		if len(data) >= maxProductImages {
			break
		}
		f, err := fh.Open()
		if err != nil {
			return nil, nil, err
		}
		buf, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, nil, err
		}
		mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename)))
		if mt == "" {
			mt = "application/octet-stream"
		}
		data = append(data, buf)
		mimes = append(mimes, mt)
	}
	return data, mimes, nil
}

func (h *ProductHandler) renderForm(w http.ResponseWriter, r *http.Request, tpl string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	var categories []models.Category
	h.DB.Order("name asc").Find(&categories)
	data["Categories"] = categories
	renderTemplate(w, r, tpl, data)
}

// Create: GET form / POST create at /products/create
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.renderForm(w, r, "products/create.html", nil)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		h.renderForm(w, r, "products/create.html", map[string]any{"Error": "Upload too large or malformed."})
		return
	}
	f, violations := h.parseProductForm(r)
	if !violations.Empty() {
		h.renderForm(w, r, "products/create.html", map[string]any{"Violations": violations, "Form": f})
		return
	}
	imgs, mimes, err := collectImages(r, "images")
	if err != nil {
		h.renderForm(w, r, "products/create.html", map[string]any{"Error": err.Error(), "Form": f})
		return
	}
	product := models.Product{
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price,
		Stock:       f.Stock,
		CategoryID:  f.CategoryID,
		Cost1:       f.Costs[0],
		Cost2:       f.Costs[1],
		Cost3:       f.Costs[2],
		Cost4:       f.Costs[3],
		Cost5:       f.Costs[4],
		EntryDate:   f.EntryDate,
	}
	product.UpdateStatus()
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		for i := range imgs {
			img := models.ProductImage{ProductID: product.ID, Data: imgs[i], MimeType: mimes[i]}
			if err := tx.Create(&img).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.renderForm(w, r, "products/create.html", map[string]any{"Error": "Could not save the product. Please try again.", "Form": f})
		return
	}
	middleware.Flash(w, "success", "Product registered.")
	http.Redirect(w, r, "/products", statusSeeOther)
}

// Edit: GET form / POST update at /products/edit?id=
func (h *ProductHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := h.DB.Preload("Images").First(&product, idParam(r)).Error; err != nil {
		http.NotFound(w, r)
		return
	}
	// The form needs a concrete category id for the selected option.
	editData := func(extra map[string]any) map[string]any {
		data := map[string]any{"Product": product, "CategoryID": uint(0)}
		if product.CategoryID != nil {
			data["CategoryID"] = *product.CategoryID
		}
		for k, v := range extra {
			data[k] = v
		}
		return data
	}
	if r.Method == http.MethodGet {
		h.renderForm(w, r, "products/edit.html", editData(nil))
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		h.renderForm(w, r, "products/edit.html", editData(map[string]any{"Error": "Upload too large or malformed."}))
		return
	}
	f, violations := h.parseProductForm(r)
	if !violations.Empty() {
		h.renderForm(w, r, "products/edit.html", editData(map[string]any{"Violations": violations}))
		return
	}
	imgs, mimes, err := collectImages(r, "images")
	if err != nil {
		h.renderForm(w, r, "products/edit.html", editData(map[string]any{"Error": err.Error()}))
		return
	}
	var existing int64
	h.DB.Model(&models.ProductImage{}).Where("product_id = ?", product.ID).Count(&existing)
	if int(existing)+len(imgs) > maxProductImages {
		h.renderForm(w, r, "products/edit.html", editData(map[string]any{"Error": "A product can hold at most 5 images."}))
		return
	}
	product.Name = f.Name
	product.Description = f.Description
	product.Price = f.Price
	product.Stock = f.Stock
	product.CategoryID = f.CategoryID
	product.Cost1, product.Cost2, product.Cost3, product.Cost4, product.Cost5 =
		f.Costs[0], f.Costs[1], f.Costs[2], f.Costs[3], f.Costs[4]
	product.EntryDate = f.EntryDate
	product.UpdateStatus()
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&product).Error; err != nil {
			return err
		}
		for i := range imgs {
			img := models.ProductImage{ProductID: product.ID, Data: imgs[i], MimeType: mimes[i]}
			if err := tx.Create(&img).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.renderForm(w, r, "products/edit.html", editData(map[string]any{"Error": "Could not update the product. Please try again."}))
		return
	}
	middleware.Flash(w, "success", "Product updated.")
	http.Redirect(w, r, "/products", statusSeeOther)
}

// Delete: POST /products/delete?id= — refused while sales reference the product.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id := idParam(r)
	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		http.NotFound(w, r)
		return
	}
	var sales int64
	if err := h.DB.Model(&models.Sale{}).Where("product_id = ?", id).Count(&sales).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_check_sales", nil)
		return
	}
	if sales > 0 {
		middleware.Flash(w, "danger", "This product has recorded sales and cannot be deleted.")
		http.Redirect(w, r, "/products", statusSeeOther)
		return
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		middleware.Flash(w, "danger", "Could not delete the product. Please try again.")
	} else {
		middleware.Flash(w, "success", "Product deleted.")
	}
	http.Redirect(w, r, "/products", statusSeeOther)
}

// Image: GET /products/image?id= — serves the stored bytes with their mime type.
func (h *ProductHandler) Image(w http.ResponseWriter, r *http.Request) {
	var img models.ProductImage
	if err := h.DB.First(&img, idParam(r)).Error; err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(img.Data)
}

// DeleteImage: POST /products/image/delete?id= — JSON endpoint for the edit page.
func (h *ProductHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var img models.ProductImage
	if err := h.DB.First(&img, idParam(r)).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "image_not_found", nil)
		return
	}
	if err := h.DB.Delete(&img).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_image", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": img.ID})
}

// Categories: GET list+form / POST create at /categories (admin only).
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
			return
		}
		name := strings.TrimSpace(r.FormValue("name"))
		if name == "" {
			middleware.Flash(w, "danger", "Category name is required.")
			http.Redirect(w, r, "/categories", statusSeeOther)
			return
		}
		cat := models.Category{Name: name, Description: strings.TrimSpace(r.FormValue("description"))}
		if err := h.DB.Create(&cat).Error; err != nil {
			middleware.Flash(w, "danger", "Could not create the category. The name may already exist.")
		} else {
			middleware.Flash(w, "success", "Category created.")
		}
		http.Redirect(w, r, "/categories", statusSeeOther)
		return
	}
	var categories []models.Category
	if err := h.DB.Preload("Products").Order("name asc").Find(&categories).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_categories", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, categories)
		return
	}
	renderTemplate(w, r, "products/categories.html", map[string]any{"Categories": categories})
}

// DeleteCategory: POST /categories/delete?id= — products keep existing with a
// cleared category.
func (h *ProductHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id := idParam(r)
	var cat models.Category
	if err := h.DB.First(&cat, id).Error; err != nil {
		http.NotFound(w, r)
		return
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&cat).Error
	})
	if err != nil {
		middleware.Flash(w, "danger", "Could not delete the category. Please try again.")
	} else {
		middleware.Flash(w, "success", "Category deleted.")
	}
	http.Redirect(w, r, "/categories", statusSeeOther)
}
