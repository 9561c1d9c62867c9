package services

import (
	"context"
	"testing"
	"time"

	"github.com/Amm-ar/delivero-backend/entity"
	"github.com/Amm-ar/delivero-backend/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrderSnapshotsPricing(t *testing.T) {
	e := newEnv(t)
	owner := e.createUser(entity.RoleOwner)
	rest := e.createRestaurant(owner.ID, 0, 0)
	item := e.createMenuItem(rest.ID, "Margherita", "9.50", "1.50")
	customer := e.createUser(entity.RoleCustomer)

	o, err := e.orders.Place(context.Background(), customer.ID, PlaceOrderInput{
		RestaurantID: rest.ID,
		Items: []PlaceOrderItem{
			{MenuItemID: item.ID, Quantity: 2, OptionIDs: []uint{item.Options[0].ID}},
		},
		Address:       "1 Test Lane",
		PaymentMethod: entity.PaymentMethodCash,
	})
	require.NoError(t, err)

	// (9.50 + 1.50) * 2 = 22.00
	assert.Equal(t, "22.00", o.Subtotal.StringFixed(2))
	assert.Equal(t, "2.50", o.DeliveryFee.StringFixed(2))
	assert.Equal(t, "1.76", o.ServiceFee.StringFixed(2)) // 22.00 * 0.08
	assert.Equal(t, "26.26", o.Total.StringFixed(2))
	assert.Equal(t, "17.60", o.RestaurantEarnings.StringFixed(2)) // 22.00 - 4.40
	assert.Equal(t, "6.16", o.PlatformCommission.StringFixed(2))  // 4.40 + 1.76
	assert.Equal(t, "2.50", o.DriverEarnings.StringFixed(2))
	assert.False(t, o.SurgeApplied)

	// Commission split reconstructs the subtotal exactly.
	assert.True(t, o.RestaurantEarnings.Add(o.PlatformCommission.Sub(o.ServiceFee)).Equal(o.Subtotal))

	assert.Equal(t, entity.StatusPending, o.Status)
	assert.Regexp(t, `^DLV-\d{8}-[0-9A-F]{6}$`, o.OrderNumber)

	require.Len(t, o.History, 1)
	assert.Equal(t, entity.StatusPending, o.History[0].Status)

	require.NotNil(t, o.Payment)
	assert.Equal(t, entity.PaymentPending, o.Payment.Status)
	assert.Equal(t, "26.26", o.Payment.Amount.StringFixed(2))
	assert.Empty(t, o.Payment.TransactionID) // cash

	// Line snapshot carries the menu name and prices at placement.
	require.Len(t, o.OrderItems, 1)
	assert.Equal(t, "Margherita", o.OrderItems[0].Name)
	assert.Equal(t, "22.00", o.OrderItems[0].Subtotal.StringFixed(2))
	require.Len(t, o.OrderItems[0].Selections, 1)
	assert.Equal(t, "1.50", o.OrderItems[0].Selections[0].Price.StringFixed(2))
}

func TestPlaceOrderSurgePricing(t *testing.T) {
	e := newEnv(t)
	e.orders.IsSurgeTime = func(time.Time) bool { return true }

	owner := e.createUser(entity.RoleOwner)
	rest := e.createRestaurant(owner.ID, 0, 0)
	item := e.createMenuItem(rest.ID, "Diavola", "11.00")
	customer := e.createUser(entity.RoleCustomer)

	o := e.placeOrder(customer.ID, rest.ID, item.ID, 1)
	assert.True(t, o.SurgeApplied)
	assert.Equal(t, "3.75", o.DeliveryFee.StringFixed(2)) // 2.50 * 1.5
	assert.Equal(t, "1.50", o.SurgeMultiplier.StringFixed(2))
	assert.Equal(t, "3.75", o.DriverEarnings.StringFixed(2))
}

func TestPlaceOrderBelowMinimumLeavesNoTrace(t *testing.T) {
	e := newEnv(t)
	owner := e.createUser(entity.RoleOwner)
	rest := e.createRestaurant(owner.ID, 0, 0) // minimum 10.00
	item := e.createMenuItem(rest.ID, "Side salad", "8.00")
	customer := e.createUser(entity.RoleCustomer)

	_, err := e.orders.Place(context.Background(), customer.ID, PlaceOrderInput{
		RestaurantID:  rest.ID,
		Items:         []PlaceOrderItem{{MenuItemID: item.ID, Quantity: 1}},
		Address:       "1 Test Lane",
		PaymentMethod: entity.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindBusinessRule, apperr.KindOf(err))

	var count int64
	require.NoError(t, e.db.Model(&entity.Order{}).Count(&count).Error)
	assert.Zero(t, count, "rejected placement must not persist an order")
}

func TestPlaceOrderClosedRestaurant(t *testing.T) {
	e := newEnv(t)
	owner := e.createUser(entity.RoleOwner)
	rest := e.createRestaurant(owner.ID, 0, 0)
	require.NoError(t, e.db.Model(rest).Update("is_open", false).Error)
	item := e.createMenuItem(rest.ID, "Margherita", "12.00")
	customer := e.createUser(entity.RoleCustomer)

	_, err := e.orders.Place(context.Background(), customer.ID, PlaceOrderInput{
		RestaurantID:  rest.ID,
		Items:         []PlaceOrderItem{{MenuItemID: item.ID, Quantity: 1}},
		Address:       "1 Test Lane",
		PaymentMethod: entity.PaymentMethodCash,
	})
	assert.Equal(t, apperr.KindBusinessRule, apperr.KindOf(err))
}

func TestPlaceOrderValidation(t *testing.T) {
	e := newEnv(t)
	owner := e.createUser(entity.RoleOwner)
	rest := e.createRestaurant(owner.ID, 0, 0)
	item := e.createMenuItem(rest.ID, "Margherita", "12.00")
	otherRest := e.createRestaurant(owner.ID, 0, 0)
	foreign := e.createMenuItem(otherRest.ID, "Pad Thai", "10.00")
	customer := e.createUser(entity.RoleCustomer)

	cases := []struct {
		name string
		in   PlaceOrderInput
	}{
		{"no items", PlaceOrderInput{RestaurantID: rest.ID, Address: "a", PaymentMethod: "cash"}},
		{"no address", PlaceOrderInput{RestaurantID: rest.ID, Items: []PlaceOrderItem{{MenuItemID: item.ID, Quantity: 1}}, PaymentMethod: "cash"}},
		{"bad payment method", PlaceOrderInput{RestaurantID: rest.ID, Items: []PlaceOrderItem{{MenuItemID: item.ID, Quantity: 1}}, Address: "a", PaymentMethod: "crypto"}},
		{"zero quantity", PlaceOrderInput{RestaurantID: rest.ID, Items: []PlaceOrderItem{{MenuItemID: item.ID, Quantity: 0}}, Address: "a", PaymentMethod: "cash"}},
		{"foreign menu item", PlaceOrderInput{RestaurantID: rest.ID, Items: []PlaceOrderItem{{MenuItemID: foreign.ID, Quantity: 1}}, Address: "a", PaymentMethod: "cash"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.orders.Place(context.Background(), customer.ID, tc.in)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestListIsRoleScoped(t *testing.T) {
	e := newEnv(t)
	owner := e.createUser(entity.RoleOwner)
	rest := e.createRestaurant(owner.ID, 0, 0)
	item := e.createMenuItem(rest.ID, "Margherita", "12.00")
	alice := e.createUser(entity.RoleCustomer)
	bob := e.createUser(entity.RoleCustomer)

	e.placeOrder(alice.ID, rest.ID, item.ID, 1)
	e.placeOrder(alice.ID, rest.ID, item.ID, 2)
	e.placeOrder(bob.ID, rest.ID, item.ID, 1)

	aliceOut, err := e.orders.List(alice.ID, entity.RoleCustomer, listFilter(nil))
	require.NoError(t, err)
	assert.EqualValues(t, 2, aliceOut.Total)

	ownerOut, err := e.orders.List(owner.ID, entity.RoleOwner, listFilter(nil))
	require.NoError(t, err)
	assert.EqualValues(t, 3, ownerOut.Total)

	admin := e.createUser(entity.RoleAdmin)
	adminOut, err := e.orders.List(admin.ID, entity.RoleAdmin, listFilter(nil))
	require.NoError(t, err)
	assert.EqualValues(t, 3, adminOut.Total)

	// Status filter narrows the scope further.
	pending := entity.StatusPending
	filtered, err := e.orders.List(alice.ID, entity.RoleCustomer, listFilter(&pending))
	require.NoError(t, err)
	assert.EqualValues(t, 2, filtered.Total)
}

func TestDetailDeniesStrangers(t *testing.T) {
	e := newEnv(t)
	owner := e.createUser(entity.RoleOwner)
	rest := e.createRestaurant(owner.ID, 0, 0)
	item := e.createMenuItem(rest.ID, "Margherita", "12.00")
	alice := e.createUser(entity.RoleCustomer)
	bob := e.createUser(entity.RoleCustomer)

	o := e.placeOrder(alice.ID, rest.ID, item.ID, 1)

	_, err := e.orders.Detail(alice.ID, entity.RoleCustomer, o.ID)
	require.NoError(t, err)

	_, err = e.orders.Detail(bob.ID, entity.RoleCustomer, o.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = e.orders.Detail(alice.ID, entity.RoleCustomer, 9999)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRefund(t *testing.T) {
	e := newEnv(t)
	owner := e.createUser(entity.RoleOwner)
	rest := e.createRestaurant(owner.ID, 0, 0)
	item := e.createMenuItem(rest.ID, "Margherita", "12.00")
	customer := e.createUser(entity.RoleCustomer)

	card, err := e.orders.Place(context.Background(), customer.ID, PlaceOrderInput{
		RestaurantID:  rest.ID,
		Items:         []PlaceOrderItem{{MenuItemID: item.ID, Quantity: 1}},
		Address:       "1 Test Lane",
		PaymentMethod: entity.PaymentMethodCard,
	})
	require.NoError(t, err)
	require.NotEmpty(t, card.Payment.TransactionID)

	ref, err := e.orders.Refund(context.Background(), card.ID, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	p, err := e.orderRepo.GetPayment(card.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentRefunded, p.Status)

	// Refunding twice is rejected.
	_, err = e.orders.Refund(context.Background(), card.ID, nil)
	assert.Equal(t, apperr.KindBusinessRule, apperr.KindOf(err))

	// Cash orders have no gateway transaction to reverse.
	cash := e.placeOrder(customer.ID, rest.ID, item.ID, 1)
	_, err = e.orders.Refund(context.Background(), cash.ID, nil)
	assert.Equal(t, apperr.KindBusinessRule, apperr.KindOf(err))
}
