package services

import (
	"errors"
	"sort"

	"github.com/Amm-ar/delivero-backend/entity"
	"github.com/Amm-ar/delivero-backend/pkg/apperr"
	"github.com/Amm-ar/delivero-backend/pkg/geo"
	"github.com/Amm-ar/delivero-backend/repository"

	"gorm.io/gorm"
)

// DispatchService matches ready, unassigned orders to available
// drivers. Assignment is the only contended write in the system and is
// guarded by an atomic check-and-set.
type DispatchService struct {
	DB      *gorm.DB
	Orders  *repository.OrderRepository
	Drivers *repository.DriverRepository
	Coord   *Coordinator

	DefaultRadiusKm float64
}

func NewDispatchService(db *gorm.DB, orders *repository.OrderRepository, drivers *repository.DriverRepository, coord *Coordinator, defaultRadiusKm float64) *DispatchService {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = 10
	}
	return &DispatchService{
		DB:              db,
		Orders:          orders,
		Drivers:         drivers,
		Coord:           coord,
		DefaultRadiusKm: defaultRadiusKm,
	}
}

// candidateScanLimit caps how many ready orders a single matching pass
// considers. The scan is oldest-first, so under a backlog deeper than
// the cap the window still covers the longest-waiting customers; newer
// orders surface as those drain.
const candidateScanLimit = 200

type Candidate struct {
	Order      entity.Order `json:"order"`
	DistanceKm float64      `json:"distanceKm"`
}

// FindCandidates returns ready, unassigned orders whose restaurant lies
// within radiusKm of the driver, nearest first. Equidistant orders rank
// oldest first so waiting customers are served fairly.
func (s *DispatchService) FindCandidates(driverUserID uint, radiusKm float64) ([]Candidate, error) {
	d, err := s.Drivers.GetByUserID(driverUserID)
	if err != nil {
		return nil, notFoundOr(err, "no driver profile for this account")
	}
	if radiusKm <= 0 {
		radiusKm = s.DefaultRadiusKm
	}

	orders, err := s.Orders.ListReadyUnassigned(candidateScanLimit)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(orders))
	for _, o := range orders {
		dist := geo.HaversineKm(d.Lat, d.Lng, o.Restaurant.Lat, o.Restaurant.Lng)
		if dist <= radiusKm {
			candidates = append(candidates, Candidate{Order: o, DistanceKm: dist})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].DistanceKm != candidates[j].DistanceKm {
			return candidates[i].DistanceKm < candidates[j].DistanceKm
		}
		return candidates[i].Order.CreatedAt.Before(candidates[j].Order.CreatedAt)
	})
	return candidates, nil
}

// Assign atomically claims the order for the driver. Exactly one of two
// racing drivers can win: the conditional update fires only while the
// order is still ready and unassigned, and the loser sees a conflict.
func (s *DispatchService) Assign(orderID, driverUserID uint) (*entity.Order, error) {
	d, err := s.Drivers.GetByUserID(driverUserID)
	if err != nil {
		return nil, notFoundOr(err, "no driver profile for this account")
	}

	busy, err := s.Drivers.HasActiveDelivery(d.ID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, apperr.New(apperr.KindConflict, "driver already has an active delivery")
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		claimed, err := s.Drivers.ClaimAvailability(tx, d.ID)
		if err != nil {
			return err
		}
		if claimed == 0 {
			return apperr.New(apperr.KindConflict, "driver is not available")
		}

		affected, err := s.Orders.AssignDriverGuard(tx, orderID, d.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return s.classifyAssignFailure(orderID)
		}
		return s.Orders.AppendHistory(tx, orderID, entity.StatusAssigned, "driver accepted the order")
	})
	if err != nil {
		return nil, err
	}

	out, err := s.Orders.GetOrderDetail(orderID)
	if err != nil {
		return nil, err
	}
	s.Coord.StatusChanged(out)
	return out, nil
}

// classifyAssignFailure explains a zero-row assignment so the caller
// can tell a lost race from a stale candidate list.
func (s *DispatchService) classifyAssignFailure(orderID uint) error {
	o, err := s.Orders.GetOrder(orderID)
	if err != nil {
		return notFoundOr(err, "order not found")
	}
	if o.DriverID != nil {
		return apperr.New(apperr.KindConflict, "order was already assigned to another driver")
	}
	return apperr.Newf(apperr.KindInvalidTransition, "order in status %q is not ready for assignment", o.Status)
}

// SetAvailability puts the driver on or off shift. Going offline with
// an active delivery is not allowed.
func (s *DispatchService) SetAvailability(driverUserID uint, available bool) error {
	d, err := s.Drivers.GetByUserID(driverUserID)
	if err != nil {
		return notFoundOr(err, "no driver profile for this account")
	}
	if !available {
		busy, err := s.Drivers.HasActiveDelivery(d.ID)
		if err != nil {
			return err
		}
		if busy {
			return apperr.New(apperr.KindBusinessRule, "cannot go offline while a delivery is active")
		}
	}
	return s.Drivers.SetAvailability(s.DB, d.ID, available)
}

// UpdateLocation stores the driver's position and, when a delivery is
// active, streams it to the order's subscribers.
func (s *DispatchService) UpdateLocation(driverUserID uint, lat, lng float64) error {
	d, err := s.Drivers.GetByUserID(driverUserID)
	if err != nil {
		return notFoundOr(err, "no driver profile for this account")
	}
	if err := s.Drivers.UpdateLocation(d.ID, lat, lng); err != nil {
		return err
	}
	if o, err := s.Drivers.ActiveDelivery(d.ID); err == nil {
		s.Coord.DriverLocation(o.ID, lat, lng)
	}
	return nil
}

// CurrentDelivery returns the driver's active order, nil when idle.
func (s *DispatchService) CurrentDelivery(driverUserID uint) (*entity.Order, error) {
	d, err := s.Drivers.GetByUserID(driverUserID)
	if err != nil {
		return nil, notFoundOr(err, "no driver profile for this account")
	}
	o, err := s.Drivers.ActiveDelivery(d.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}
