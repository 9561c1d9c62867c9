package services

import (
	"sync"
	"testing"

	"github.com/Amm-ar/delivero-backend/entity"
	"github.com/Amm-ar/delivero-backend/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Around the equator one degree of latitude is ~111.2 km, so these
// offsets put restaurants at ~2, ~8 and ~15 km from a driver at the
// origin.
const (
	lat2km  = 0.018
	lat8km  = 0.072
	lat15km = 0.135
)

func readyOrder(t *testing.T, e *env, lat float64) (*entity.Order, *entity.User) {
	t.Helper()
	owner := e.createUser(entity.RoleOwner)
	rest := e.createRestaurant(owner.ID, lat, 0)
	item := e.createMenuItem(rest.ID, "Margherita", "12.00")
	customer := e.createUser(entity.RoleCustomer)
	o := e.placeOrder(customer.ID, rest.ID, item.ID, 1)

	for _, st := range []entity.OrderStatus{entity.StatusConfirmed, entity.StatusPreparing, entity.StatusReady} {
		var err error
		o, err = e.orders.UpdateStatus(o.ID, st, entity.RoleOwner, owner.ID, "")
		require.NoError(t, err)
	}
	return o, owner
}

func TestFindCandidatesFiltersAndSortsByDistance(t *testing.T) {
	e := newEnv(t)
	driverUser, _ := e.createDriver(true, 0, 0)

	far, _ := readyOrder(t, e, lat15km)
	near, _ := readyOrder(t, e, lat2km)
	mid, _ := readyOrder(t, e, lat8km)

	got, err := e.dispatch.FindCandidates(driverUser.ID, 0) // default radius 10
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, near.ID, got[0].Order.ID)
	assert.Equal(t, mid.ID, got[1].Order.ID)
	assert.InDelta(t, 2.0, got[0].DistanceKm, 0.1)
	assert.InDelta(t, 8.0, got[1].DistanceKm, 0.1)

	// A wider radius brings the far order in, still sorted.
	got, err = e.dispatch.FindCandidates(driverUser.ID, 20)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, far.ID, got[2].Order.ID)
}

func TestFindCandidatesSkipsNonReadyOrders(t *testing.T) {
	e := newEnv(t)
	driverUser, _ := e.createDriver(true, 0, 0)

	owner := e.createUser(entity.RoleOwner)
	rest := e.createRestaurant(owner.ID, lat2km, 0)
	item := e.createMenuItem(rest.ID, "Margherita", "12.00")
	customer := e.createUser(entity.RoleCustomer)
	e.placeOrder(customer.ID, rest.ID, item.ID, 1) // still pending

	got, err := e.dispatch.FindCandidates(driverUser.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAssignClaimsOrderAndDriver(t *testing.T) {
	e := newEnv(t)
	driverUser, driver := e.createDriver(true, 0, 0)
	o, _ := readyOrder(t, e, lat2km)

	out, err := e.dispatch.Assign(o.ID, driverUser.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusAssigned, out.Status)
	require.NotNil(t, out.DriverID)
	assert.Equal(t, driver.ID, *out.DriverID)
	assert.Equal(t, entity.StatusAssigned, out.History[len(out.History)-1].Status)

	d, err := e.driverRepo.GetByID(driver.ID)
	require.NoError(t, err)
	assert.False(t, d.IsAvailable, "assigned driver leaves the pool")
}

func TestAssignConflicts(t *testing.T) {
	e := newEnv(t)
	first, _ := e.createDriver(true, 0, 0)
	second, _ := e.createDriver(true, 0, 0)
	o, _ := readyOrder(t, e, lat2km)

	_, err := e.dispatch.Assign(o.ID, first.ID)
	require.NoError(t, err)

	// The order already belongs to the first driver.
	_, err = e.dispatch.Assign(o.ID, second.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// The first driver is busy and cannot take another order.
	other, _ := readyOrder(t, e, lat2km)
	_, err = e.dispatch.Assign(other.ID, first.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestAssignRequiresReadyOrder(t *testing.T) {
	e := newEnv(t)
	driverUser, _ := e.createDriver(true, 0, 0)

	owner := e.createUser(entity.RoleOwner)
	rest := e.createRestaurant(owner.ID, 0, 0)
	item := e.createMenuItem(rest.ID, "Margherita", "12.00")
	customer := e.createUser(entity.RoleCustomer)
	o := e.placeOrder(customer.ID, rest.ID, item.ID, 1) // pending

	_, err := e.dispatch.Assign(o.ID, driverUser.ID)
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	// The failed claim must release the driver again.
	d, derr := e.driverRepo.GetByUserID(driverUser.ID)
	require.NoError(t, derr)
	assert.True(t, d.IsAvailable)
}

func TestAssignOfflineDriver(t *testing.T) {
	e := newEnv(t)
	driverUser, _ := e.createDriver(false, 0, 0)
	o, _ := readyOrder(t, e, lat2km)

	_, err := e.dispatch.Assign(o.ID, driverUser.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestAssignRaceHasExactlyOneWinner(t *testing.T) {
	e := newEnv(t)
	a, _ := e.createDriver(true, 0, 0)
	b, _ := e.createDriver(true, 0, 0)
	o, _ := readyOrder(t, e, lat2km)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _, errs[0] = e.dispatch.Assign(o.ID, a.ID) }()
	go func() { defer wg.Done(); _, errs[1] = e.dispatch.Assign(o.ID, b.ID) }()
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		}
	}
	assert.Equal(t, 1, wins, "exactly one driver may win the order")

	got, err := e.orderRepo.GetOrder(o.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DriverID)
	assert.Equal(t, entity.StatusAssigned, got.Status)
}

func TestSetAvailabilityBlockedDuringDelivery(t *testing.T) {
	e := newEnv(t)
	driverUser, _ := e.createDriver(true, 0, 0)
	o, _ := readyOrder(t, e, lat2km)

	_, err := e.dispatch.Assign(o.ID, driverUser.ID)
	require.NoError(t, err)

	err = e.dispatch.SetAvailability(driverUser.ID, false)
	assert.Equal(t, apperr.KindBusinessRule, apperr.KindOf(err))

	// Going online again is always allowed.
	require.NoError(t, e.dispatch.SetAvailability(driverUser.ID, true))
}

func TestCurrentDelivery(t *testing.T) {
	e := newEnv(t)
	driverUser, _ := e.createDriver(true, 0, 0)

	idle, err := e.dispatch.CurrentDelivery(driverUser.ID)
	require.NoError(t, err)
	assert.Nil(t, idle)

	o, _ := readyOrder(t, e, lat2km)
	_, err = e.dispatch.Assign(o.ID, driverUser.ID)
	require.NoError(t, err)

	active, err := e.dispatch.CurrentDelivery(driverUser.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, o.ID, active.ID)
}

func TestUpdateLocationStreamsDuringDelivery(t *testing.T) {
	e := newEnv(t)
	driverUser, _ := e.createDriver(true, 0, 0)

	// Idle: position stored, nothing published.
	require.NoError(t, e.dispatch.UpdateLocation(driverUser.ID, 1, 1))
	assert.Empty(t, e.pub.byEvent("driver_location"))

	o, _ := readyOrder(t, e, lat2km)
	_, err := e.dispatch.Assign(o.ID, driverUser.ID)
	require.NoError(t, err)

	require.NoError(t, e.dispatch.UpdateLocation(driverUser.ID, 2, 2))
	locs := e.pub.byEvent("driver_location")
	require.Len(t, locs, 1)
	assert.Equal(t, OrderTopic(o.ID), locs[0].Topic)

	d, err := e.driverRepo.GetByUserID(driverUser.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, d.Lat)
	assert.Equal(t, 2.0, d.Lng)
}
