package services

import (
	"errors"
	"math"
	"time"

	"gestao-app/internal/models"

	"gorm.io/gorm"
)

// Business-rule violations surfaced to the user as notices.
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrSaleFinalized     = errors.New("sale already finalized or cancelled")
	ErrSaleCancelled     = errors.New("sale already cancelled")
	ErrNotAllowed        = errors.New("not allowed to modify this sale")
	ErrInvalidFinancing  = errors.New("financing terms must be positive")
)

// SaleInput carries the validated form fields for creating or editing a sale.
type SaleInput struct {
	ClientID           uint
	ProductID          uint
	Quantity           int
	DiscountPercentage float64
	SaleDate           time.Time
	Notes              string
	IsFinanced         bool
	FinancingYears     int
	InterestRate       float64 // annual, percent
}

// SaleService owns sale pricing, financing and the stock bookkeeping tied to
// the sale lifecycle. Every mutation runs in a single transaction; stock is
// only ever changed through guarded conditional updates so it cannot go
// negative under concurrent completions.
type SaleService struct {
	DB *gorm.DB
}

func NewSaleService(db *gorm.DB) *SaleService { return &SaleService{DB: db} }

// ComputePricing rounds at each stage, matching the stored historical totals:
// the original price and the discount amount are rounded independently before
// the subtraction.
func ComputePricing(unitPrice float64, quantity int, discountPct float64) (original, total float64) {
	original = math.Round(unitPrice * float64(quantity))
	discount := math.Round(original * discountPct / 100)
	total = original - discount
	return original, total
}

// ComputeFinancing applies the standard amortizing-loan formula. A zero
// monthly rate degenerates to simple division.
func ComputeFinancing(totalPrice float64, years int, annualRate float64) (monthly, financed float64) {
	monthlyRate := annualRate / 100 / 12
	n := float64(years * 12)
	if monthlyRate == 0 {
		return math.Round(totalPrice / n), math.Round(totalPrice)
	}
	growth := math.Pow(1+monthlyRate, n)
	monthly = math.Round(totalPrice * monthlyRate * growth / (growth - 1))
	financed = math.Round(monthly * n)
	return monthly, financed
}

// adjustStock applies delta to a product's stock inside tx, recomputing the
// derived active flag in the same statement. Negative deltas are guarded so
// the update only matches when enough stock remains; zero rows affected means
// insufficient stock.
func adjustStock(tx *gorm.DB, productID uint, delta int) error {
	if delta == 0 {
		return nil
	}
	q := tx.Model(&models.Product{}).Where("id = ?", productID)
	if delta < 0 {
		q = q.Where("stock >= ?", -delta)
	}
	res := q.Updates(map[string]any{
		"stock":     gorm.Expr("stock + ?", delta),
		"is_active": gorm.Expr("stock + ? > 0", delta),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func applyFinancing(sale *models.Sale, in SaleInput, total float64) error {
	sale.IsFinanced = in.IsFinanced
	if !in.IsFinanced {
		// Reset to the plain total so reporting sees consistent values.
		sale.FinancingYears = nil
		sale.InterestRate = nil
		sale.MonthlyPayment = &total
		sale.TotalFinanced = &total
		sale.TotalAmount = &total
		return nil
	}
	if in.FinancingYears < 1 || in.FinancingYears > 10 || in.InterestRate <= 0 {
		return ErrInvalidFinancing
	}
	monthly, financed := ComputeFinancing(total, in.FinancingYears, in.InterestRate)
	years := in.FinancingYears
	rate := in.InterestRate
	sale.FinancingYears = &years
	sale.InterestRate = &rate
	sale.MonthlyPayment = &monthly
	sale.TotalFinanced = &financed
	sale.TotalAmount = &financed
	return nil
}

// Create registers a new pending sale. Stock is checked but deliberately not
// deducted; deduction happens at completion.
func (s *SaleService) Create(in SaleInput, sellerID uint) (*models.Sale, error) {
	var sale *models.Sale
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, in.ProductID).Error; err != nil {
			return err
		}
		if product.Stock < in.Quantity {
			return ErrInsufficientStock
		}
		original, total := ComputePricing(product.Price, in.Quantity, in.DiscountPercentage)
		seller := sellerID
		sale = &models.Sale{
			ClientID:           in.ClientID,
			ProductID:          in.ProductID,
			SellerID:           &seller,
			Quantity:           in.Quantity,
			OriginalPrice:      original,
			DiscountPercentage: in.DiscountPercentage,
			TotalPrice:         total,
			Status:             models.SalePending,
			StockUpdated:       false,
			Notes:              in.Notes,
			SaleDate:           in.SaleDate,
		}
		if in.IsFinanced {
			if err := applyFinancing(sale, in, total); err != nil {
				return err
			}
		}
		return tx.Create(sale).Error
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// Update edits a still-open sale. Only the original seller or an admin may
// edit. Stock deltas are re-validated and applied atomically: switching
// products restores the old product and deducts the new one, otherwise only
// the quantity delta moves.
func (s *SaleService) Update(id uint, in SaleInput, actor *models.User) (*models.Sale, error) {
	var sale models.Sale
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sale, id).Error; err != nil {
			return err
		}
		if !actor.IsAdmin && (sale.SellerID == nil || *sale.SellerID != actor.ID) {
			return ErrNotAllowed
		}
		if !sale.Editable() {
			return ErrSaleFinalized
		}
		var product models.Product
		if err := tx.First(&product, in.ProductID).Error; err != nil {
			return err
		}
		if product.ID != sale.ProductID {
			if err := adjustStock(tx, product.ID, -in.Quantity); err != nil {
				return err
			}
			if err := adjustStock(tx, sale.ProductID, sale.Quantity); err != nil {
				return err
			}
		} else if err := adjustStock(tx, product.ID, sale.Quantity-in.Quantity); err != nil {
			return err
		}
		original, total := ComputePricing(product.Price, in.Quantity, in.DiscountPercentage)
		sale.ProductID = in.ProductID
		sale.ClientID = in.ClientID
		sale.Quantity = in.Quantity
		sale.OriginalPrice = original
		sale.DiscountPercentage = in.DiscountPercentage
		sale.TotalPrice = total
		sale.Notes = in.Notes
		sale.SaleDate = in.SaleDate
		if err := applyFinancing(&sale, in, total); err != nil {
			return err
		}
		return tx.Save(&sale).Error
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// Complete transitions an open sale to completed and deducts stock.
func (s *SaleService) Complete(id uint) (*models.Sale, error) {
	var sale models.Sale
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sale, id).Error; err != nil {
			return err
		}
		if !sale.Editable() {
			return ErrSaleFinalized
		}
		if err := adjustStock(tx, sale.ProductID, -sale.Quantity); err != nil {
			return err
		}
		sale.Status = models.SaleCompleted
		sale.StockUpdated = true
		return tx.Model(&sale).Updates(map[string]any{
			"status":        sale.Status,
			"stock_updated": true,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// Cancel transitions a sale to cancelled. Stock is restored only if the sale
// had already been completed; cancelling a cancelled sale returns
// ErrSaleCancelled so the caller can show a notice instead of failing.
func (s *SaleService) Cancel(id uint) (*models.Sale, error) {
	var sale models.Sale
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sale, id).Error; err != nil {
			return err
		}
		if sale.Status == models.SaleCancelled {
			return ErrSaleCancelled
		}
		if sale.Status == models.SaleCompleted {
			if err := adjustStock(tx, sale.ProductID, sale.Quantity); err != nil {
				return err
			}
		}
		sale.Status = models.SaleCancelled
		return tx.Model(&sale).Update("status", sale.Status).Error
	})
	if err != nil {
		return &sale, err
	}
	return &sale, nil
}
