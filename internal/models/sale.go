package models

import (
	"math"
	"time"
)

// Sale status values. New sales are persisted as pending; negotiating is an
// earlier stage that behaves the same for editing and completion purposes.
const (
	SaleNegotiating = "negotiating"
	SalePending     = "pending"
	SaleCompleted   = "completed"
	SaleCancelled   = "cancelled"
)

// Sale joins a client, a product and an optional seller. Stock is not touched
// at creation; completing deducts it, cancelling a completed sale restores it.
type Sale struct {
	ID        uint `gorm:"primaryKey"`
	ClientID  uint `gorm:"not null;index"`
	Client    Client
	ProductID uint `gorm:"not null;index"`
	Product   Product
	// Nullable: hard-deleting a user leaves the sale with no seller.
	SellerID *uint `gorm:"index"`
	Seller   *User `gorm:"foreignKey:SellerID"`

	Quantity           int     `gorm:"not null"`
	OriginalPrice      float64 `gorm:"not null"`
	DiscountPercentage float64 `gorm:"default:0"`
	TotalPrice         float64 `gorm:"not null"`
	Status             string  `gorm:"size:20;default:'negotiating'"`
	StockUpdated       bool    `gorm:"default:false"`
	Notes              string
	SaleDate           time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Financing terms; nil unless the sale is financed.
	IsFinanced     bool `gorm:"default:false"`
	FinancingYears *int
	InterestRate   *float64
	MonthlyPayment *float64
	TotalAmount    *float64
	TotalFinanced  *float64
}

// Editable reports whether the sale may still be modified.
func (s *Sale) Editable() bool {
	return s.Status == SaleNegotiating || s.Status == SalePending
}

// TotalValue returns the amount the sale is worth for reporting:
// the financed total when financed, otherwise the discounted price.
func (s *Sale) TotalValue() float64 {
	if s.IsFinanced {
		if s.TotalFinanced == nil {
			return 0
		}
		return math.Round(*s.TotalFinanced)
	}
	return math.Round(s.TotalPrice)
}
