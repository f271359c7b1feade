package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cargo-logistics-service/internal/domain"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Message is pushed to subscribers for every new tracking update.
type Message struct {
	Type           string    `json:"type"`
	TrackingNumber string    `json:"trackingNumber"`
	Status         string    `json:"status"`
	Location       string    `json:"location"`
	Description    string    `json:"description,omitempty"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

type subscriber struct {
	hub   *Hub
	topic string
	conn  *websocket.Conn
	send  chan []byte
}

type envelope struct {
	topic   string
	payload []byte
}

type countReq struct {
	topic string
	reply chan int
}

// Hub fans tracking updates out to websocket subscribers grouped by
// tracking number. A single goroutine (Run) owns the subscriber set;
// subscribers whose buffer is full are disconnected.
type Hub struct {
	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan envelope
	count      chan countReq
	done       chan struct{}

	upgrader websocket.Upgrader
}

func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan envelope, 64),
		count:      make(chan countReq),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// Run serves the hub until ctx is done, then disconnects every subscriber.
func (h *Hub) Run(ctx context.Context) {
	subs := make(map[string]map[*subscriber]struct{})

	drop := func(s *subscriber) {
		set, ok := subs[s.topic]
		if !ok {
			return
		}
		if _, ok := set[s]; !ok {
			return
		}
		delete(set, s)
		close(s.send)
		if len(set) == 0 {
			delete(subs, s.topic)
		}
	}

	defer func() {
		close(h.done)
		for _, set := range subs {
			for s := range set {
				close(s.send)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case s := <-h.register:
			if subs[s.topic] == nil {
				subs[s.topic] = make(map[*subscriber]struct{})
			}
			subs[s.topic][s] = struct{}{}
			zap.L().Debug("tracking subscriber registered", zap.String("tracking_number", s.topic))

		case s := <-h.unregister:
			drop(s)

		case env := <-h.broadcast:
			for s := range subs[env.topic] {
				select {
				case s.send <- env.payload:
				default:
					zap.L().Warn("dropping slow tracking subscriber", zap.String("tracking_number", s.topic))
					drop(s)
				}
			}

		case req := <-h.count:
			req.reply <- len(subs[req.topic])
		}
	}
}

// Broadcast queues u for subscribers of trackingNumber. It never blocks the
// caller; updates are dropped when the hub is stopped or saturated.
func (h *Hub) Broadcast(trackingNumber string, u domain.TrackingUpdate) {
	payload, err := json.Marshal(Message{
		Type:           "tracking_update",
		TrackingNumber: trackingNumber,
		Status:         string(u.Status),
		Location:       u.Location,
		Description:    u.Description,
		Latitude:       u.Latitude,
		Longitude:      u.Longitude,
		OccurredAt:     u.OccurredAt,
	})
	if err != nil {
		zap.L().Error("marshal tracking update", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- envelope{topic: strings.ToUpper(trackingNumber), payload: payload}:
	case <-h.done:
	default:
		zap.L().Warn("tracking broadcast queue full", zap.String("tracking_number", trackingNumber))
	}
}

// Subscribers returns the number of live subscribers for trackingNumber.
func (h *Hub) Subscribers(trackingNumber string) int {
	req := countReq{topic: strings.ToUpper(trackingNumber), reply: make(chan int, 1)}
	select {
	case h.count <- req:
		return <-req.reply
	case <-h.done:
		return 0
	}
}

// ServeWS upgrades the request and subscribes the connection to
// trackingNumber. The caller must have verified the shipment exists.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, trackingNumber string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s := &subscriber{
		hub:   h,
		topic: strings.ToUpper(trackingNumber),
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
	}

	select {
	case h.register <- s:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go s.writePump()
	go s.readPump()
}

// readPump discards client frames and detects disconnects.
func (s *subscriber) readPump() {
	defer func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("tracking websocket closed", zap.Error(err))
			}
			return
		}
	}
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
