package db

import (
	"fmt"
	"os"

	"gestao-app/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedAdmin creates the bootstrap administrator if no active admin exists yet.
// Registration is gated behind an admin password, so a fresh database needs
// exactly one of these before anyone can sign up.
func SeedAdmin(db *gorm.DB) error {
	var count int64
	if err := models.ActiveUsers(db).Where("is_admin = ?", true).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	username := getenv("INIT_ADMIN_USERNAME", "admin")
	email := getenv("INIT_ADMIN_EMAIL", "admin@localhost")
	password := getenv("INIT_ADMIN_PASSWORD", "admin")
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}
	admin := models.User{Username: username, Email: email, Password: string(hash), IsAdmin: true}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	fmt.Printf("[DB] Seeded initial admin %q (%s)\n", username, email)
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
