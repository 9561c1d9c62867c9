package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Amm-ar/delivero-backend/entity"
	"github.com/Amm-ar/delivero-backend/pkg/logger"
	"github.com/Amm-ar/delivero-backend/pkg/push"
	"github.com/Amm-ar/delivero-backend/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Publisher is the pub/sub channel used to fan out order events.
// Implementations must not block the caller for long; failures are the
// coordinator's problem, never the transition's.
type Publisher interface {
	Publish(topic, event string, payload any) error
}

// PublisherFunc adapts a plain function to the Publisher interface.
type PublisherFunc func(topic, event string, payload any) error

func (f PublisherFunc) Publish(topic, event string, payload any) error {
	return f(topic, event, payload)
}

func OrderTopic(orderID uint) string { return fmt.Sprintf("order:%d", orderID) }
func UserTopic(userID uint) string   { return fmt.Sprintf("user:%d", userID) }

// Coordinator translates committed state transitions into broadcast
// events and push notifications. Everything here is best-effort: a
// transition is already durable by the time the coordinator runs, so
// errors are logged and dropped.
type Coordinator struct {
	pub      Publisher
	notifier push.Notifier
	users    *repository.UserRepository
	drivers  *repository.DriverRepository
	log      *zap.Logger
}

func NewCoordinator(pub Publisher, notifier push.Notifier, users *repository.UserRepository, drivers *repository.DriverRepository) *Coordinator {
	return &Coordinator{
		pub:      pub,
		notifier: notifier,
		users:    users,
		drivers:  drivers,
		log:      logger.L(),
	}
}

var statusMessages = map[entity.OrderStatus]struct{ Title, Body string }{
	entity.StatusConfirmed: {"Order confirmed", "The restaurant has confirmed your order."},
	entity.StatusPreparing: {"Order in the kitchen", "Your food is being prepared."},
	entity.StatusReady:     {"Order ready", "Your order is packed and waiting for a driver."},
	entity.StatusAssigned:  {"Driver assigned", "A driver is on the way to pick up your order."},
	entity.StatusPickedUp:  {"Order picked up", "The driver has your order."},
	entity.StatusOnTheWay:  {"On the way", "Your order is on its way to you."},
	entity.StatusDelivered: {"Order delivered", "Your order has arrived. Enjoy!"},
	entity.StatusCancelled: {"Order cancelled", "Your order has been cancelled."},
	entity.StatusRejected:  {"Order rejected", "The restaurant could not take your order."},
}

type orderEvent struct {
	OrderID     uint               `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	Status      entity.OrderStatus `json:"status"`
	At          time.Time          `json:"at"`
}

func (c *Coordinator) event(o *entity.Order) orderEvent {
	return orderEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		At:          time.Now(),
	}
}

func (c *Coordinator) publish(topic, event string, payload any) {
	if err := c.pub.Publish(topic, event, payload); err != nil {
		c.log.Warn("publish failed",
			zap.String("topic", topic),
			zap.String("event", event),
			zap.Error(err))
	}
}

// OrderPlaced announces a new pending order to the restaurant owner and
// acknowledges it to the customer.
func (c *Coordinator) OrderPlaced(o *entity.Order, restaurantOwnerID uint) {
	ev := c.event(o)
	c.publish(UserTopic(restaurantOwnerID), "new_order", ev)
	c.publish(UserTopic(o.UserID), "order_update", ev)
	c.publish(OrderTopic(o.ID), "status_changed", ev)

	c.notify(map[uint]notification{
		restaurantOwnerID: {"New order", fmt.Sprintf("Order %s is waiting for confirmation.", o.OrderNumber)},
		o.UserID:          {"Order received", fmt.Sprintf("Order %s has been placed.", o.OrderNumber)},
	}, o)
}

// StatusChanged broadcasts an accepted transition to the order topic
// and to the parties that care about the new status.
func (c *Coordinator) StatusChanged(o *entity.Order) {
	ev := c.event(o)
	c.publish(OrderTopic(o.ID), "status_changed", ev)
	c.publish(UserTopic(o.UserID), "order_update", ev)

	targets := map[uint]notification{}
	if msg, ok := statusMessages[o.Status]; ok {
		targets[o.UserID] = notification{msg.Title, msg.Body}
	}

	// The driver hears about assignment on their personal topic too.
	if o.Status == entity.StatusAssigned && o.DriverID != nil {
		if d, err := c.drivers.GetByID(*o.DriverID); err == nil {
			c.publish(UserTopic(d.UserID), "delivery_assigned", ev)
			targets[d.UserID] = notification{"New delivery", fmt.Sprintf("Pick up order %s.", o.OrderNumber)}
		}
	}

	c.notify(targets, o)
}

// DriverLocation streams a live position update to the order topic.
func (c *Coordinator) DriverLocation(orderID uint, lat, lng float64) {
	c.publish(OrderTopic(orderID), "driver_location", map[string]any{
		"orderId": orderID,
		"lat":     lat,
		"lng":     lng,
		"at":      time.Now(),
	})
}

type notification struct {
	Title string
	Body  string
}

// notify fans push notifications out to each recipient's device,
// off the caller's goroutine and bounded by a timeout.
func (c *Coordinator) notify(targets map[uint]notification, o *entity.Order) {
	if len(targets) == 0 {
		return
	}
	data := map[string]string{
		"orderId":     fmt.Sprint(o.ID),
		"orderNumber": o.OrderNumber,
		"status":      string(o.Status),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		g, ctx := errgroup.WithContext(ctx)
		for userID, msg := range targets {
			userID, msg := userID, msg
			g.Go(func() error {
				u, err := c.users.FindByID(userID)
				if err != nil || u.DeviceToken == "" {
					return nil // no registered device, nothing to send
				}
				if err := c.notifier.Send(ctx, u.DeviceToken, msg.Title, msg.Body, data); err != nil {
					c.log.Warn("push notification failed",
						zap.Uint("user_id", userID),
						zap.Error(err))
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}
