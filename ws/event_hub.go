package ws

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/Amm-ar/delivero-backend/pkg/apperr"
	"github.com/Amm-ar/delivero-backend/services"
	"github.com/Amm-ar/delivero-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EventHub fans order events out over WebSocket. Topics are strings
// like "order:42" and "user:7"; a connection subscribes to exactly one.
type EventHub struct {
	clients    map[string]map[*websocket.Conn]bool // topic -> set of clients
	broadcast  chan envelope
	register   chan subscription
	unregister chan subscription
	mu         sync.Mutex
	orders     *services.OrderService
	log        *zap.Logger
}

type subscription struct {
	Conn   *websocket.Conn
	Topic  string
	UserID uint
}

// envelope is the wire frame every subscriber receives.
type envelope struct {
	Topic   string `json:"-"`
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

func NewEventHub(orders *services.OrderService, log *zap.Logger) *EventHub {
	return &EventHub{
		clients: make(map[string]map[*websocket.Conn]bool),
		// Buffered so Publish never blocks a state transition; if the
		// hub falls this far behind, frames are dropped instead.
		broadcast:  make(chan envelope, 256),
		register:   make(chan subscription),
		unregister: make(chan subscription),
		orders:     orders,
		log:        log,
	}
}

// Publish queues an event for every subscriber of the topic. It never
// blocks; when the hub's queue is full the frame is dropped and an
// error returned so the caller can log it.
func (h *EventHub) Publish(topic, event string, payload any) error {
	select {
	case h.broadcast <- envelope{Topic: topic, Event: event, Payload: payload}:
		return nil
	default:
		return fmt.Errorf("event hub queue full, dropping %s on %s", event, topic)
	}
}

// Run owns the client map. Call it once, in its own goroutine.
func (h *EventHub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			if h.clients[sub.Topic] == nil {
				h.clients[sub.Topic] = make(map[*websocket.Conn]bool)
			}
			h.clients[sub.Topic][sub.Conn] = true
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[sub.Topic][sub.Conn]; ok {
				delete(h.clients[sub.Topic], sub.Conn)
				if len(h.clients[sub.Topic]) == 0 {
					delete(h.clients, sub.Topic)
				}
				sub.Conn.Close()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients[msg.Topic] {
				if err := conn.WriteJSON(msg); err != nil {
					h.log.Warn("ws write failed", zap.String("topic", msg.Topic), zap.Error(err))
					conn.Close()
					delete(h.clients[msg.Topic], conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleOrderSocket serves /ws/orders/:id. Only parties on the order
// may subscribe to its live feed.
func (h *EventHub) HandleOrderSocket(c *gin.Context) {
	var orderID uint
	if _, err := fmt.Sscan(c.Param("id"), &orderID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid order id"})
		return
	}

	userID := utils.CurrentUserID(c)
	role := utils.CurrentRole(c)

	// Detail runs the same authorization gate as the REST endpoint.
	if _, err := h.orders.Detail(userID, role, orderID); err != nil {
		if apperr.KindOf(err) == apperr.KindForbidden {
			c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "no access"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "order not found"})
		return
	}

	h.subscribe(c, services.OrderTopic(orderID), userID)
}

// HandleUserSocket serves /ws/me, the caller's personal event stream.
func (h *EventHub) HandleUserSocket(c *gin.Context) {
	userID := utils.CurrentUserID(c)
	h.subscribe(c, services.UserTopic(userID), userID)
}

func (h *EventHub) subscribe(c *gin.Context, topic string, userID uint) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	sub := subscription{Conn: conn, Topic: topic, UserID: userID}
	h.register <- sub

	go h.listen(sub)
}

// listen drains the client's read side so we notice disconnects. This
// feed is one-way; inbound frames are discarded.
func (h *EventHub) listen(sub subscription) {
	defer func() { h.unregister <- sub }()

	for {
		if _, _, err := sub.Conn.ReadMessage(); err != nil {
			break
		}
	}
}
