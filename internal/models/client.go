package models

import "time"

// Client is a customer record with Japan-specific identity/contact fields
// and up to five attached document images.
type Client struct {
	ID           uint   `gorm:"primaryKey"`
	FullName     string `gorm:"size:100;not null"`
	JapanAddress string `gorm:"size:200"`
	JapanPhone   string `gorm:"size:20"`
	JapanID      string `gorm:"size:50;unique"`
	Email        string `gorm:"size:120;unique"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Images       []ClientImage `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
}

type ClientImage struct {
	ID        uint   `gorm:"primaryKey"`
	ClientID  uint   `gorm:"not null;index"`
	Data      []byte `gorm:"not null"`
	MimeType  string `gorm:"size:128;not null"`
	CreatedAt time.Time
}
