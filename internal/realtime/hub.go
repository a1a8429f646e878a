package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	logrus "github.com/sirupsen/logrus"

	"fleet_tracker/internal/metrics"
)

const writeWait = 10 * time.Second

// client wraps a websocket.Conn with a write mutex; gorilla/websocket allows
// one concurrent writer.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub manages live-map subscriptions per company and broadcasts changes to them.
type Hub struct {
	mu        sync.RWMutex
	companies map[string]map[*client]struct{}
	changes   chan Change
}

func NewHub() *Hub {
	return &Hub{
		companies: make(map[string]map[*client]struct{}),
		changes:   make(chan Change, 256),
	}
}

// Run delivers queued changes until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case ch := <-h.changes:
			h.broadcast(ch)
		}
	}
}

// Notify queues a change without blocking; a full queue drops it.
func (h *Hub) Notify(ch Change) {
	select {
	case h.changes <- ch:
	default:
		metrics.BestEffortFailures.WithLabelValues("realtime_notify").Inc()
		logrus.WithFields(logrus.Fields{
			"driver_id":  ch.DriverID,
			"company_id": ch.CompanyID,
		}).Warn("Realtime change queue full, dropping change")
	}
}

// ServeClient subscribes conn to companyID's changes and blocks until the
// peer goes away. Anything the peer sends is ignored.
func (h *Hub) ServeClient(conn *websocket.Conn, companyID string) {
	c := &client{conn: conn}
	h.register(companyID, c)
	defer func() {
		h.unregister(companyID, c)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithError(err).WithField("company_id", companyID).Debug("Realtime subscriber read failed")
			}
			return
		}
	}
}

// ClientCount reports how many subscribers companyID has.
func (h *Hub) ClientCount(companyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.companies[companyID])
}

func (h *Hub) register(companyID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.companies[companyID]; !ok {
		h.companies[companyID] = make(map[*client]struct{})
	}
	h.companies[companyID][c] = struct{}{}
	metrics.RealtimeClients.Inc()
	logrus.WithFields(logrus.Fields{
		"company_id": companyID,
		"conn_ptr":   fmt.Sprintf("%p", c.conn),
	}).Info("Realtime subscriber registered")
}

func (h *Hub) unregister(companyID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.companies[companyID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.companies, companyID)
	}
	metrics.RealtimeClients.Dec()
	logrus.WithFields(logrus.Fields{
		"company_id": companyID,
		"conn_ptr":   fmt.Sprintf("%p", c.conn),
	}).Info("Realtime subscriber unregistered")
}

func (h *Hub) broadcast(ch Change) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.companies[ch.CompanyID]))
	for c := range h.companies[ch.CompanyID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.writeJSON(ch); err != nil {
			logrus.WithError(err).WithField("company_id", ch.CompanyID).Warn("Failed to send change, dropping subscriber")
			h.unregister(ch.CompanyID, c)
			c.conn.Close()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.companies {
		for c := range clients {
			c.mu.Lock()
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			c.mu.Unlock()
			c.conn.Close()
		}
	}
}
