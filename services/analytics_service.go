package services

import (
	"github.com/Amm-ar/delivero-backend/entity"
	"github.com/Amm-ar/delivero-backend/pkg/apperr"
	"github.com/Amm-ar/delivero-backend/repository"
)

// AnalyticsService exposes the read-only reporting views. Nothing here
// mutates order state.
type AnalyticsService struct {
	Repo        *repository.AnalyticsRepository
	Restaurants *repository.RestaurantRepository
	Drivers     *repository.DriverRepository
}

func NewAnalyticsService(repo *repository.AnalyticsRepository, restaurants *repository.RestaurantRepository, drivers *repository.DriverRepository) *AnalyticsService {
	return &AnalyticsService{Repo: repo, Restaurants: restaurants, Drivers: drivers}
}

type AnalyticsOut struct {
	Summary  *repository.RevenueSummary `json:"summary"`
	ByStatus []repository.StatusCount   `json:"byStatus"`
	Buckets  []repository.RevenueBucket `json:"buckets"`
	TopItems []repository.ItemSales     `json:"topItems"`
}

func (s *AnalyticsService) build(restaurantID *uint, dr repository.DateRange, granularity string) (*AnalyticsOut, error) {
	summary, err := s.Repo.RevenueSummary(restaurantID, dr)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.Repo.CountByStatus(restaurantID, dr)
	if err != nil {
		return nil, err
	}
	buckets, err := s.Repo.RevenueBuckets(restaurantID, granularity, dr)
	if err != nil {
		return nil, err
	}
	topItems, err := s.Repo.TopItems(restaurantID, dr, 10)
	if err != nil {
		return nil, err
	}
	return &AnalyticsOut{Summary: summary, ByStatus: byStatus, Buckets: buckets, TopItems: topItems}, nil
}

// ForRestaurant is owner- or admin-only.
func (s *AnalyticsService) ForRestaurant(userID uint, role string, restaurantID uint, dr repository.DateRange, granularity string) (*AnalyticsOut, error) {
	if role != entity.RoleAdmin {
		owned, err := s.Restaurants.IsOwnedBy(restaurantID, userID)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, apperr.New(apperr.KindForbidden, "restaurant belongs to another account")
		}
	}
	return s.build(&restaurantID, dr, granularity)
}

// ForPlatform aggregates across all restaurants; the route is
// admin-gated.
func (s *AnalyticsService) ForPlatform(dr repository.DateRange, granularity string) (*AnalyticsOut, error) {
	return s.build(nil, dr, granularity)
}

type DriverEarningsOut struct {
	*repository.DriverEarningsSummary
	TotalDeliveriesAllTime int64 `json:"totalDeliveriesAllTime"`
}

func (s *AnalyticsService) EarningsForDriver(driverUserID uint, dr repository.DateRange) (*DriverEarningsOut, error) {
	d, err := s.Drivers.GetByUserID(driverUserID)
	if err != nil {
		return nil, notFoundOr(err, "no driver profile for this account")
	}
	summary, err := s.Repo.DriverEarnings(d.ID, dr)
	if err != nil {
		return nil, err
	}
	return &DriverEarningsOut{
		DriverEarningsSummary:  summary,
		TotalDeliveriesAllTime: d.TotalDeliveries,
	}, nil
}
