package repository

import (
	"time"

	"github.com/Amm-ar/delivero-backend/entity"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AnalyticsRepository holds the read-only reporting rollups. Every
// query here aggregates over orders and never mutates state.
type AnalyticsRepository struct {
	DB *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{DB: db}
}

// DateRange filters aggregates by order creation time; zero bounds are
// open-ended.
type DateRange struct {
	From time.Time
	To   time.Time
}

func applyRange(db *gorm.DB, col string, dr DateRange) *gorm.DB {
	if !dr.From.IsZero() {
		db = db.Where(col+" >= ?", dr.From)
	}
	if !dr.To.IsZero() {
		db = db.Where(col+" < ?", dr.To)
	}
	return db
}

type RevenueSummary struct {
	OrderCount         int64           `json:"orderCount"`
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	PlatformCommission decimal.Decimal `json:"platformCommission"`
	RestaurantEarnings decimal.Decimal `json:"restaurantEarnings"`
	DriverEarnings     decimal.Decimal `json:"driverEarnings"`
}

// RevenueSummary sums delivered-order revenue; restaurantID nil means
// platform-wide.
func (r *AnalyticsRepository) RevenueSummary(restaurantID *uint, dr DateRange) (*RevenueSummary, error) {
	q := r.DB.Model(&entity.Order{}).Where("status = ?", entity.StatusDelivered)
	if restaurantID != nil {
		q = q.Where("restaurant_id = ?", *restaurantID)
	}
	q = applyRange(q, "created_at", dr)

	var out RevenueSummary
	err := q.Select(
		"COUNT(*) AS order_count, " +
			"COALESCE(SUM(total), 0) AS total_revenue, " +
			"COALESCE(SUM(platform_commission), 0) AS platform_commission, " +
			"COALESCE(SUM(restaurant_earnings), 0) AS restaurant_earnings, " +
			"COALESCE(SUM(driver_earnings), 0) AS driver_earnings").
		Scan(&out).Error
	return &out, err
}

type StatusCount struct {
	Status entity.OrderStatus `json:"status"`
	Count  int64              `json:"count"`
}

func (r *AnalyticsRepository) CountByStatus(restaurantID *uint, dr DateRange) ([]StatusCount, error) {
	q := r.DB.Model(&entity.Order{})
	if restaurantID != nil {
		q = q.Where("restaurant_id = ?", *restaurantID)
	}
	q = applyRange(q, "created_at", dr)

	var rows []StatusCount
	err := q.Select("status, COUNT(*) AS count").
		Group("status").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

type RevenueBucket struct {
	Period  string          `json:"period"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// RevenueBuckets groups delivered revenue by day, week or month.
func (r *AnalyticsRepository) RevenueBuckets(restaurantID *uint, granularity string, dr DateRange) ([]RevenueBucket, error) {
	var fmtStr string
	switch granularity {
	case "weekly":
		fmtStr = "%Y-W%W"
	case "monthly":
		fmtStr = "%Y-%m"
	default: // daily
		fmtStr = "%Y-%m-%d"
	}

	q := r.DB.Model(&entity.Order{}).Where("status = ?", entity.StatusDelivered)
	if restaurantID != nil {
		q = q.Where("restaurant_id = ?", *restaurantID)
	}
	q = applyRange(q, "created_at", dr)

	var rows []RevenueBucket
	err := q.Select(
		"strftime(?, created_at) AS period, COUNT(*) AS orders, COALESCE(SUM(total), 0) AS revenue",
		fmtStr).
		Group("period").
		Order("period ASC").
		Scan(&rows).Error
	return rows, err
}

type ItemSales struct {
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// TopItems ranks line items of delivered orders by quantity sold.
func (r *AnalyticsRepository) TopItems(restaurantID *uint, dr DateRange, limit int) ([]ItemSales, error) {
	if limit <= 0 {
		limit = 10
	}
	q := r.DB.Table("order_items AS oi").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.status = ?", entity.StatusDelivered)
	if restaurantID != nil {
		q = q.Where("o.restaurant_id = ?", *restaurantID)
	}
	q = applyRange(q, "o.created_at", dr)

	var rows []ItemSales
	err := q.Select("oi.name AS name, SUM(oi.quantity) AS quantity, COALESCE(SUM(oi.subtotal), 0) AS revenue").
		Group("oi.name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

type DriverEarningsSummary struct {
	Deliveries    int64           `json:"deliveries"`
	TotalEarnings decimal.Decimal `json:"totalEarnings"`
}

func (r *AnalyticsRepository) DriverEarnings(driverID uint, dr DateRange) (*DriverEarningsSummary, error) {
	q := r.DB.Model(&entity.Order{}).
		Where("driver_id = ? AND status = ?", driverID, entity.StatusDelivered)
	q = applyRange(q, "delivered_at", dr)

	var out DriverEarningsSummary
	err := q.Select("COUNT(*) AS deliveries, COALESCE(SUM(driver_earnings), 0) AS total_earnings").
		Scan(&out).Error
	return &out, err
}
