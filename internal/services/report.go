package services

import (
	"math"
	"sort"
	"time"

	"gestao-app/internal/models"

	"gorm.io/gorm"
)

// Period selects the dashboard bucketing window.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// ParsePeriod maps a query value to a Period, defaulting to monthly.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return Period(s)
	default:
		return PeriodMonthly
	}
}

// PeriodRange computes the half-open [start, end) window containing anchor.
// Weeks start on Monday; months and years are calendar-aligned.
func PeriodRange(kind Period, anchor time.Time) (start, end time.Time) {
	y, m, d := anchor.Date()
	loc := anchor.Location()
	switch kind {
	case PeriodDaily:
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 1)
	case PeriodWeekly:
		offset := (int(anchor.Weekday()) + 6) % 7 // Monday = 0
		start = time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -offset)
		end = start.AddDate(0, 0, 7)
	case PeriodYearly:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(1, 0, 0)
	default: // monthly
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, 0)
	}
	return start, end
}

type DailyRevenue struct {
	Date  string
	Total float64
}

type ProductRank struct {
	ProductID uint
	Name      string
	Quantity  int
	Revenue   float64
}

type ClientRank struct {
	ClientID  uint
	FullName  string
	Purchases int
	Spent     float64
}

// Summary is the full dashboard payload.
type Summary struct {
	Period      Period
	Start, End  time.Time
	SalesByDate []DailyRevenue
	// PeriodRevenue is the sum of the SalesByDate buckets.
	PeriodRevenue float64
	TopProducts   []ProductRank
	TopClients    []ClientRank
	LowStock      []models.Product
	TotalSales    int
	TotalRevenue  float64
	TotalCost     float64
	Profit        float64
	TotalClients  int64
	TotalProducts int64
}

// ReportService computes read-only aggregates over completed sales.
type ReportService struct {
	DB *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService { return &ReportService{DB: db} }

// Build assembles the dashboard summary for the window containing anchor.
// Revenue buckets cover only the window; top lists and totals span all
// completed sales, as the operators expect an all-time leaderboard.
func (r *ReportService) Build(kind Period, anchor time.Time) (*Summary, error) {
	start, end := PeriodRange(kind, anchor)
	sum := &Summary{Period: kind, Start: start, End: end}

	var windowSales []models.Sale
	if err := r.DB.
		Where("status = ?", models.SaleCompleted).
		Where("sale_date >= ? AND sale_date < ?", start, end).
		Find(&windowSales).Error; err != nil {
		return nil, err
	}
	byDate := map[string]float64{}
	for _, s := range windowSales {
		key := s.SaleDate.Format("2006-01-02")
		byDate[key] += s.TotalValue()
	}
	for date, total := range byDate {
		sum.SalesByDate = append(sum.SalesByDate, DailyRevenue{Date: date, Total: total})
		sum.PeriodRevenue += total
	}
	sort.Slice(sum.SalesByDate, func(i, j int) bool { return sum.SalesByDate[i].Date < sum.SalesByDate[j].Date })

	var completed []models.Sale
	if err := r.DB.
		Preload("Product").Preload("Client").
		Where("status = ?", models.SaleCompleted).
		Find(&completed).Error; err != nil {
		return nil, err
	}

	prodAgg := map[uint]*ProductRank{}
	clientAgg := map[uint]*ClientRank{}
	for i := range completed {
		s := &completed[i]
		val := s.TotalValue()
		pr, ok := prodAgg[s.ProductID]
		if !ok {
			pr = &ProductRank{ProductID: s.ProductID, Name: s.Product.Name}
			prodAgg[s.ProductID] = pr
		}
		pr.Quantity += s.Quantity
		pr.Revenue += val
		cr, ok := clientAgg[s.ClientID]
		if !ok {
			cr = &ClientRank{ClientID: s.ClientID, FullName: s.Client.FullName}
			clientAgg[s.ClientID] = cr
		}
		cr.Purchases++
		cr.Spent += val

		sum.TotalSales++
		sum.TotalRevenue += val
		sum.TotalCost += s.Product.TotalCost() * float64(s.Quantity)
	}
	sum.TotalRevenue = math.Round(sum.TotalRevenue)
	sum.Profit = math.Round(sum.TotalRevenue - sum.TotalCost)

	for _, pr := range prodAgg {
		sum.TopProducts = append(sum.TopProducts, *pr)
	}
	// Ties break on id ascending so the ranking is deterministic.
	sort.Slice(sum.TopProducts, func(i, j int) bool {
		a, b := sum.TopProducts[i], sum.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.ProductID < b.ProductID
	})
	if len(sum.TopProducts) > 5 {
		sum.TopProducts = sum.TopProducts[:5]
	}
	for _, cr := range clientAgg {
		sum.TopClients = append(sum.TopClients, *cr)
	}
	sort.Slice(sum.TopClients, func(i, j int) bool {
		a, b := sum.TopClients[i], sum.TopClients[j]
		if a.Spent != b.Spent {
			return a.Spent > b.Spent
		}
		return a.ClientID < b.ClientID
	})
	if len(sum.TopClients) > 5 {
		sum.TopClients = sum.TopClients[:5]
	}

	if err := r.DB.
		Where("stock < ?", 10).
		Order("stock asc").
		Find(&sum.LowStock).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&models.Client{}).Count(&sum.TotalClients).Error; err != nil {
		return nil, err
	}
	if err := r.DB.Model(&models.Product{}).Count(&sum.TotalProducts).Error; err != nil {
		return nil, err
	}
	return sum, nil
}
