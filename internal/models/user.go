package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an application account. Deletion is soft by default: the row keeps
// existing (historical sales may still reference it as seller) and only the
// deleted_at marker is set. Admin hard delete removes the row and nulls
// seller_id on referencing sales.
// Username and email are deliberately not column-unique: a soft-deleted user
// keeps the row, and their name/email must stay reusable for new accounts.
// Uniqueness is enforced among active users only (ActiveUsers checks, plus a
// partial index in the SQL migrations).
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"size:80;not null;index"`
	Email     string `gorm:"size:120;not null;index"`
	Password  string `gorm:"size:128;not null"` // bcrypt hash
	IsAdmin   bool   `gorm:"default:false"`
	CreatedAt time.Time
	// Not gorm.DeletedAt on purpose: sales of a soft-deleted seller must keep
	// resolving, so the exclusion is applied only through ActiveUsers.
	DeletedAt *time.Time
}

func (u *User) IsDeleted() bool { return u.DeletedAt != nil }

// SoftDelete marks the user as deleted without removing the row.
func (u *User) SoftDelete(db *gorm.DB) error {
	now := time.Now().UTC()
	u.DeletedAt = &now
	return db.Model(u).Update("deleted_at", u.DeletedAt).Error
}

// Restore clears a previous soft delete.
func (u *User) Restore(db *gorm.DB) error {
	u.DeletedAt = nil
	return db.Model(u).Update("deleted_at", nil).Error
}

// ActiveUsers scopes a query to users that are not soft-deleted. Every
// "active user" lookup (login, uniqueness checks, admin lists, reset tokens)
// goes through here so the null-check lives in one place.
func ActiveUsers(db *gorm.DB) *gorm.DB {
	return db.Model(&User{}).Where("deleted_at IS NULL")
}
