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

func TestDeleteAdminIsSoftAndSelfProtected(t *testing.T) {
	db := setupTestDB(t)
	boss := createUser(t, db, "boss", "pw", true)
	colleague := createUser(t, db, "colleague", "pw", true)
	h := NewAdminHandler(db)

	// Self delete refused.
	w := httptest.NewRecorder()
	h.DeleteAdmin(w, formRequest("/admins/delete?id="+strconv.Itoa(int(boss.ID)), url.Values{}, boss.ID))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	var fresh models.User
	db.First(&fresh, boss.ID)
	if fresh.IsDeleted() {
		t.Fatal("admin deleted own account")
	}

	// Deleting a colleague soft-deletes, keeping the row.
	w = httptest.NewRecorder()
	h.DeleteAdmin(w, formRequest("/admins/delete?id="+strconv.Itoa(int(colleague.ID)), url.Values{}, boss.ID))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	fresh = models.User{}
	db.First(&fresh, colleague.ID)
	if !fresh.IsDeleted() {
		t.Fatal("colleague should be soft-deleted")
	}
	var active int64
	models.ActiveUsers(db).Where("id = ?", colleague.ID).Count(&active)
	if active != 0 {
		t.Fatal("soft-deleted admin still counts as active")
	}
}

func TestToggleAdminSelfProtected(t *testing.T) {
	db := setupTestDB(t)
	boss := createUser(t, db, "boss", "pw", true)
	worker := createUser(t, db, "worker", "pw", false)
	h := NewAdminHandler(db)

	w := httptest.NewRecorder()
	h.ToggleAdmin(w, formRequest("/users/toggle-admin?id="+strconv.Itoa(int(boss.ID)), url.Values{}, boss.ID))
	var fresh models.User
	db.First(&fresh, boss.ID)
	if !fresh.IsAdmin {
		t.Fatal("admin demoted themselves")
	}

	w = httptest.NewRecorder()
	h.ToggleAdmin(w, formRequest("/users/toggle-admin?id="+strconv.Itoa(int(worker.ID)), url.Values{}, boss.ID))
	db.First(&fresh, worker.ID)
	if !fresh.IsAdmin {
		t.Fatal("worker should be promoted")
	}
}

func TestHardDeleteUserNullsSellerReference(t *testing.T) {
	db := setupTestDB(t)
	boss := createUser(t, db, "boss", "pw", true)
	seller := createUser(t, db, "seller", "pw", false)
	client := models.Client{FullName: "Taro", JapanID: "RC-1", Email: "taro@test"}
	product := models.Product{Name: "Engine", Price: 1000, Stock: 5, IsActive: true}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("product: %v", err)
	}
	sid := seller.ID
	sale := models.Sale{ClientID: client.ID, ProductID: product.ID, SellerID: &sid,
		Quantity: 1, OriginalPrice: 1000, TotalPrice: 1000, Status: models.SaleCompleted, SaleDate: time.Now()}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("sale: %v", err)
	}

	h := NewAdminHandler(db)
	w := httptest.NewRecorder()
	h.DeleteUser(w, formRequest("/users/delete?id="+strconv.Itoa(int(seller.ID)), url.Values{}, boss.ID))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}

	var gone int64
	db.Model(&models.User{}).Where("id = ?", seller.ID).Count(&gone)
	if gone != 0 {
		t.Fatal("user row should be removed")
	}
	var fresh models.Sale
	db.First(&fresh, sale.ID)
	if fresh.SellerID != nil {
		t.Fatalf("seller_id should be null, got %v", *fresh.SellerID)
	}
}

func TestCreateAdminEnforcesActiveUniqueness(t *testing.T) {
	db := setupTestDB(t)
	boss := createUser(t, db, "boss", "pw", true)
	h := NewAdminHandler(db)

	form := url.Values{
		"username": {"boss"}, "email": {"boss2@test"},
		"password": {"pw123456"}, "confirm_password": {"pw123456"},
	}
	w := httptest.NewRecorder()
	h.CreateAdmin(w, formRequest("/admins/create", form, boss.ID))
	if w.Code == http.StatusSeeOther {
		t.Fatal("duplicate username accepted")
	}

	form.Set("username", "boss2")
	w = httptest.NewRecorder()
	h.CreateAdmin(w, formRequest("/admins/create", form, boss.ID))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	var created models.User
	if err := db.Where("username = ?", "boss2").First(&created).Error; err != nil {
		t.Fatalf("created admin: %v", err)
	}
	if !created.IsAdmin {
		t.Fatal("new account should be an admin")
	}
}
