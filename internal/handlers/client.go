package handlers

import (
	"net/http"
	"strings"

	"gestao-app/internal/httpx"
	"gestao-app/internal/middleware"
	"gestao-app/internal/models"
	"gestao-app/internal/validation"

	"gorm.io/gorm"
)

// ClientHandler manages customer records and their document images.
type ClientHandler struct {
	DB             *gorm.DB
	MaxUploadBytes int64
}

func NewClientHandler(db *gorm.DB, maxUpload int64) *ClientHandler {
	return &ClientHandler{DB: db, MaxUploadBytes: maxUpload}
}

// List: GET /clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	var clients []models.Client
	if err := h.DB.Preload("Images").Order("id asc").Find(&clients).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_clients", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, clients)
		return
	}
	renderTemplate(w, r, "clients/list.html", map[string]any{"Clients": clients})
}

type clientForm struct {
	FullName     string
	JapanAddress string
	JapanPhone   string
	JapanID      string
	Email        string
}

func parseClientForm(r *http.Request) (clientForm, validation.Violations) {
	v := validation.Violations{}
	f := clientForm{
		FullName:     strings.TrimSpace(r.FormValue("full_name")),
		JapanAddress: strings.TrimSpace(r.FormValue("japan_address")),
		JapanPhone:   strings.TrimSpace(r.FormValue("japan_phone")),
		JapanID:      strings.TrimSpace(r.FormValue("japan_id")),
		Email:        strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
	}
	validation.Required("full_name", f.FullName, v)
	return f, v
}

// uniqueClientFields checks japan_id and email against other clients.
func (h *ClientHandler) uniqueClientFields(f clientForm, excludeID uint, v validation.Violations) {
	var count int64
	if f.JapanID != "" {
		h.DB.Model(&models.Client{}).Where("japan_id = ? AND id <> ?", f.JapanID, excludeID).Count(&count)
		if count > 0 {
			v["japan_id"] = "already_registered"
		}
	}
	if f.Email != "" {
		h.DB.Model(&models.Client{}).Where("email = ? AND id <> ?", f.Email, excludeID).Count(&count)
		if count > 0 {
			v["email"] = "already_registered"
		}
	}
}

// Create: GET form / POST create at /clients/create
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "clients/create.html", map[string]any{"Form": clientForm{}})
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		renderTemplate(w, r, "clients/create.html", map[string]any{"Error": "Upload too large or malformed.", "Form": clientForm{}})
		return
	}
	f, violations := parseClientForm(r)
	h.uniqueClientFields(f, 0, violations)
	if !violations.Empty() {
		renderTemplate(w, r, "clients/create.html", map[string]any{"Violations": violations, "Form": f})
		return
	}
	imgs, mimes, err := collectImages(r, "images")
	if err != nil {
		renderTemplate(w, r, "clients/create.html", map[string]any{"Error": err.Error(), "Form": f})
		return
	}
	client := models.Client{
		FullName:     f.FullName,
		JapanAddress: f.JapanAddress,
		JapanPhone:   f.JapanPhone,
		JapanID:      f.JapanID,
		Email:        f.Email,
	}
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&client).Error; err != nil {
			return err
		}
		for i := range imgs {
			img := models.ClientImage{ClientID: client.ID, Data: imgs[i], MimeType: mimes[i]}
			if err := tx.Create(&img).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		renderTemplate(w, r, "clients/create.html", map[string]any{"Error": "Could not save the client. Please try again.", "Form": f})
		return
	}
	middleware.Flash(w, "success", "Client registered.")
	http.Redirect(w, r, "/clients", statusSeeOther)
}

// Edit: GET form / POST update at /clients/edit?id=
func (h *ClientHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var client models.Client
	if err := h.DB.Preload("Images").First(&client, idParam(r)).Error; err != nil {
		http.NotFound(w, r)
		return
	}
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "clients/edit.html", map[string]any{"Client": client})
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		renderTemplate(w, r, "clients/edit.html", map[string]any{"Client": client, "Error": "Upload too large or malformed."})
		return
	}
	f, violations := parseClientForm(r)
	h.uniqueClientFields(f, client.ID, violations)
	if !violations.Empty() {
		renderTemplate(w, r, "clients/edit.html", map[string]any{"Client": client, "Violations": violations})
		return
	}
	imgs, mimes, err := collectImages(r, "images")
	if err != nil {
		renderTemplate(w, r, "clients/edit.html", map[string]any{"Client": client, "Error": err.Error()})
		return
	}
	var existing int64
	h.DB.Model(&models.ClientImage{}).Where("client_id = ?", client.ID).Count(&existing)
	if int(existing)+len(imgs) > maxProductImages {
		renderTemplate(w, r, "clients/edit.html", map[string]any{"Client": client, "Error": "A client can hold at most 5 images."})
		return
	}
	client.FullName = f.FullName
	client.JapanAddress = f.JapanAddress
	client.JapanPhone = f.JapanPhone
	client.JapanID = f.JapanID
	client.Email = f.Email
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&client).Error; err != nil {
			return err
		}
		for i := range imgs {
			img := models.ClientImage{ClientID: client.ID, Data: imgs[i], MimeType: mimes[i]}
			if err := tx.Create(&img).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		renderTemplate(w, r, "clients/edit.html", map[string]any{"Client": client, "Error": "Could not update the client. Please try again."})
		return
	}
	middleware.Flash(w, "success", "Client updated.")
	http.Redirect(w, r, "/clients", statusSeeOther)
}

// Delete: POST /clients/delete?id= — removes the client together with their
// sales and images in one transaction.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id := idParam(r)
	var client models.Client
	if err := h.DB.First(&client, id).Error; err != nil {
		http.NotFound(w, r)
		return
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ?", id).Delete(&models.Sale{}).Error; err != nil {
			return err
		}
		if err := tx.Where("client_id = ?", id).Delete(&models.ClientImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&client).Error
	})
	if err != nil {
		middleware.Flash(w, "danger", "Could not delete the client. Please try again.")
	} else {
		middleware.Flash(w, "success", "Client and related sales deleted.")
	}
	http.Redirect(w, r, "/clients", statusSeeOther)
}

// Image: GET /clients/image?id=
func (h *ClientHandler) Image(w http.ResponseWriter, r *http.Request) {
	var img models.ClientImage
	if err := h.DB.First(&img, idParam(r)).Error; err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(img.Data)
}

// DeleteImage: POST /clients/image/delete?id= — JSON endpoint for the edit page.
func (h *ClientHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var img models.ClientImage
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
