package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Amm-ar/delivero-backend/entity"
	"github.com/Amm-ar/delivero-backend/payment"
	"github.com/Amm-ar/delivero-backend/pricing"
	"github.com/Amm-ar/delivero-backend/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// fakePublisher records everything published so tests can assert on the
// event stream without a real hub.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	fail   bool
}

type publishedEvent struct {
	Topic string
	Event string
}

func (p *fakePublisher) Publish(topic, event string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("publisher down")
	}
	p.events = append(p.events, publishedEvent{Topic: topic, Event: event})
	return nil
}

func (p *fakePublisher) byEvent(event string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type fakeNotifier struct {
	mu    sync.Mutex
	sends []string // device tokens
	fail  bool
}

func (n *fakeNotifier) Send(_ context.Context, deviceToken, _, _ string, _ map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return fmt.Errorf("push provider down")
	}
	n.sends = append(n.sends, deviceToken)
	return nil
}

type env struct {
	t  *testing.T
	db *gorm.DB

	orderRepo      *repository.OrderRepository
	driverRepo     *repository.DriverRepository
	restaurantRepo *repository.RestaurantRepository
	userRepo       *repository.UserRepository

	orders    *OrderService
	dispatch  *DispatchService
	analytics *AnalyticsService

	pub      *fakePublisher
	notifier *fakeNotifier

	nextEmail int
}

// newTestDB opens a file-backed sqlite database so concurrent
// connections in race tests see each other's commits.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.User{},
		&entity.Restaurant{},
		&entity.Driver{},
		&entity.MenuItem{}, &entity.MenuOption{},
		&entity.Order{}, &entity.OrderItem{}, &entity.OrderItemSelection{},
		&entity.StatusHistory{},
		&entity.Payment{},
	))
	return db
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := newTestDB(t)

	e := &env{
		t:              t,
		db:             db,
		orderRepo:      repository.NewOrderRepository(db),
		driverRepo:     repository.NewDriverRepository(db),
		restaurantRepo: repository.NewRestaurantRepository(db),
		userRepo:       repository.NewUserRepository(db),
		pub:            &fakePublisher{},
		notifier:       &fakeNotifier{},
	}

	menuRepo := repository.NewMenuRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	coord := NewCoordinator(e.pub, e.notifier, e.userRepo, e.driverRepo)
	e.orders = NewOrderService(
		db, e.orderRepo, e.restaurantRepo, menuRepo, e.driverRepo,
		payment.NewMockGateway(), coord, pricing.DefaultParams(), nil,
	)
	e.dispatch = NewDispatchService(db, e.orderRepo, e.driverRepo, coord, 10)
	e.analytics = NewAnalyticsService(analyticsRepo, e.restaurantRepo, e.driverRepo)
	return e
}

func (e *env) createUser(role string) *entity.User {
	e.t.Helper()
	e.nextEmail++
	u := &entity.User{
		Email:    fmt.Sprintf("%s%d@test.local", role, e.nextEmail),
		Password: "x",
		Role:     role,
	}
	require.NoError(e.t, e.db.Create(u).Error)
	return u
}

func (e *env) createRestaurant(ownerID uint, lat, lng float64) *entity.Restaurant {
	e.t.Helper()
	r := &entity.Restaurant{
		Name:           "Test Kitchen",
		Lat:            lat,
		Lng:            lng,
		DeliveryFee:    decimal.RequireFromString("2.50"),
		MinOrderAmount: decimal.RequireFromString("10.00"),
		CommissionRate: decimal.RequireFromString("0.20"),
		IsOpen:         true,
		IsActive:       true,
		UserID:         ownerID,
	}
	require.NoError(e.t, e.db.Create(r).Error)
	return r
}

func (e *env) createMenuItem(restaurantID uint, name, price string, optionPrices ...string) *entity.MenuItem {
	e.t.Helper()
	m := &entity.MenuItem{
		Name:         name,
		Price:        decimal.RequireFromString(price),
		IsAvailable:  true,
		RestaurantID: restaurantID,
	}
	require.NoError(e.t, e.db.Create(m).Error)
	for i, p := range optionPrices {
		opt := &entity.MenuOption{
			Name:       fmt.Sprintf("option %d", i+1),
			Price:      decimal.RequireFromString(p),
			MenuItemID: m.ID,
		}
		require.NoError(e.t, e.db.Create(opt).Error)
		m.Options = append(m.Options, *opt)
	}
	return m
}

func (e *env) createDriver(available bool, lat, lng float64) (*entity.User, *entity.Driver) {
	e.t.Helper()
	u := e.createUser(entity.RoleDriver)
	d := &entity.Driver{
		UserID:      u.ID,
		IsAvailable: available,
		Lat:         lat,
		Lng:         lng,
	}
	require.NoError(e.t, e.db.Create(d).Error)
	return u, d
}

func listFilter(status *entity.OrderStatus) repository.ListFilter {
	return repository.ListFilter{Status: status}
}

// placeOrder places a minimal cash order for one menu item.
func (e *env) placeOrder(customerID uint, restaurantID uint, itemID uint, qty int) *entity.Order {
	e.t.Helper()
	o, err := e.orders.Place(context.Background(), customerID, PlaceOrderInput{
		RestaurantID:  restaurantID,
		Items:         []PlaceOrderItem{{MenuItemID: itemID, Quantity: qty}},
		Address:       "1 Test Lane",
		PaymentMethod: entity.PaymentMethodCash,
	})
	require.NoError(e.t, err)
	return o
}

// advance walks the order through the given statuses, failing on any
// rejected transition.
func (e *env) advance(orderID uint, ownerID, driverUserID uint, statuses ...entity.OrderStatus) *entity.Order {
	e.t.Helper()
	var out *entity.Order
	var err error
	for _, st := range statuses {
		switch st {
		case entity.StatusAssigned:
			out, err = e.dispatch.Assign(orderID, driverUserID)
		case entity.StatusConfirmed, entity.StatusPreparing, entity.StatusReady, entity.StatusRejected:
			out, err = e.orders.UpdateStatus(orderID, st, entity.RoleOwner, ownerID, "")
		default:
			out, err = e.orders.UpdateStatus(orderID, st, entity.RoleDriver, driverUserID, "")
		}
		require.NoError(e.t, err, "transition to %s", st)
	}
	return out
}
