package models

import "time"

// Catalog models: categories, products and their stored images.

type Category struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:50;unique;not null"`
	Description string `gorm:"size:200"`
	CreatedAt   time.Time
	Products    []Product `gorm:"foreignKey:CategoryID"`
}

type Product struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"size:500"`
	Price       float64 `gorm:"not null"`
	Stock       int     `gorm:"default:0"`
	// Derived: true iff stock > 0. Recomputed on every stock write.
	IsActive   bool `gorm:"default:true"`
	CategoryID *uint
	Category   *Category `gorm:"foreignKey:CategoryID"`
	// Cost breakdown; the sum feeds the profit report.
	Cost1     float64 `gorm:"default:0"`
	Cost2     float64 `gorm:"default:0"`
	Cost3     float64 `gorm:"default:0"`
	Cost4     float64 `gorm:"default:0"`
	Cost5     float64 `gorm:"default:0"`
	EntryDate time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	Images    []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// UpdateStatus recomputes the derived active flag from stock.
func (p *Product) UpdateStatus() { p.IsActive = p.Stock > 0 }

// TotalCost sums the five cost fields.
func (p *Product) TotalCost() float64 {
	return p.Cost1 + p.Cost2 + p.Cost3 + p.Cost4 + p.Cost5
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID uint   `gorm:"not null;index"`
	Data      []byte `gorm:"not null"`
	MimeType  string `gorm:"size:128;not null"`
	CreatedAt time.Time
}
