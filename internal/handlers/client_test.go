package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"gestao-app/internal/models"
)

func TestClientCreateRequiresUniqueJapanID(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice", "pw", false)
	existing := models.Client{FullName: "Taro", JapanID: "RC-1", Email: "taro@test"}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatalf("client: %v", err)
	}
	h := NewClientHandler(db, 10<<20)

	req := multipartRequest(t, "/clients/create", map[string]string{
		"full_name": "Jiro", "japan_id": "RC-1", "email": "jiro@test",
	}, nil, user.ID)
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code == http.StatusSeeOther {
		t.Fatal("duplicate japan_id accepted")
	}
	var count int64
	db.Model(&models.Client{}).Count(&count)
	if count != 1 {
		t.Fatalf("clients = %d, want 1", count)
	}

	req = multipartRequest(t, "/clients/create", map[string]string{
		"full_name": "Jiro", "japan_id": "RC-2", "email": "jiro@test",
	}, map[string][]byte{"card.jpg": []byte("jpegdata")}, user.ID)
	w = httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	var created models.Client
	if err := db.Preload("Images").Where("japan_id = ?", "RC-2").First(&created).Error; err != nil {
		t.Fatalf("created: %v", err)
	}
	if len(created.Images) != 1 || created.Images[0].MimeType != "image/jpeg" {
		t.Fatalf("images: %+v", created.Images)
	}
}

func TestClientEditKeepsOwnUniqueFields(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice", "pw", false)
	client := models.Client{FullName: "Taro", JapanID: "RC-1", Email: "taro@test"}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("client: %v", err)
	}
	h := NewClientHandler(db, 10<<20)

	// Re-submitting the client's own japan_id must not trip the uniqueness check.
	req := multipartRequest(t, "/clients/edit?id="+strconv.Itoa(int(client.ID)), map[string]string{
		"full_name": "Taro Yamada", "japan_id": "RC-1", "email": "taro@test",
	}, nil, user.ID)
	w := httptest.NewRecorder()
	h.Edit(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	var fresh models.Client
	db.First(&fresh, client.ID)
	if fresh.FullName != "Taro Yamada" {
		t.Fatalf("full name = %s", fresh.FullName)
	}
}

func TestClientDeleteCascadesSalesAndImages(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice", "pw", false)
	client := models.Client{FullName: "Taro", JapanID: "RC-1", Email: "taro@test"}
	product := models.Product{Name: "Engine", Price: 1000, Stock: 5, IsActive: true}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("product: %v", err)
	}
	uid := user.ID
	sale := models.Sale{ClientID: client.ID, ProductID: product.ID, SellerID: &uid,
		Quantity: 1, OriginalPrice: 1000, TotalPrice: 1000, Status: models.SaleCompleted, SaleDate: time.Now()}
	img := models.ClientImage{ClientID: client.ID, Data: []byte("x"), MimeType: "image/png"}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("sale: %v", err)
	}
	if err := db.Create(&img).Error; err != nil {
		t.Fatalf("image: %v", err)
	}

	h := NewClientHandler(db, 10<<20)
	w := httptest.NewRecorder()
	h.Delete(w, formRequest("/clients/delete?id="+strconv.Itoa(int(client.ID)), url.Values{}, user.ID))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	var clients, sales, images int64
	db.Model(&models.Client{}).Count(&clients)
	db.Model(&models.Sale{}).Count(&sales)
	db.Model(&models.ClientImage{}).Count(&images)
	if clients != 0 || sales != 0 || images != 0 {
		t.Fatalf("leftovers: clients=%d sales=%d images=%d", clients, sales, images)
	}
}
