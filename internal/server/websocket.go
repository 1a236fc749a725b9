// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/noldarim/tsbridge/internal/protocol"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	maxMessageSize  = 4096
	maxFilters      = 50
	maxSubscribers  = 1000
	subscriberQueue = 64
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	writeWait       = 10 * time.Second
)

const (
	msgSubscribe   = "subscribe"
	msgUnsubscribe = "unsubscribe"
	msgEvent       = "event"
	msgError       = "error"
)

// SubscriptionFilter selects interaction events by target. Empty fields match
// any value.
type SubscriptionFilter struct {
	Namespace  string `json:"namespace,omitempty"`
	WorkflowID string `json:"workflow_id,omitempty"`
}

// Matches reports whether an event addressed to namespace/workflowID passes f.
func (f SubscriptionFilter) Matches(namespace, workflowID string) bool {
	return (f.Namespace == "" || f.Namespace == namespace) &&
		(f.WorkflowID == "" || f.WorkflowID == workflowID)
}

// clientMessage is what a subscriber sends: one filter per message.
type clientMessage struct {
	Type    string             `json:"type"`
	Filters SubscriptionFilter `json:"filters"`
}

// serverMessage carries events, acks and errors to a subscriber.
type serverMessage struct {
	Type      string `json:"type"`
	EventType string `json:"event_type,omitempty"`
	Payload   any    `json:"payload,omitempty"`
	Message   string `json:"message,omitempty"`
}

func marshalEvent(event protocol.Event) ([]byte, error) {
	return json.Marshal(serverMessage{
		Type:      msgEvent,
		EventType: protocol.EventType(event),
		Payload:   event,
	})
}

// subscriber is one WebSocket connection watching interaction events.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	log  zerolog.Logger

	mu      sync.RWMutex
	filters []SubscriptionFilter
}

func newSubscriber(conn *websocket.Conn, remote string) *subscriber {
	return &subscriber{
		conn: conn,
		send: make(chan []byte, subscriberQueue),
		log: getLog().With().
			Str("subscriber", uuid.NewString()).
			Str("remote", remote).
			Logger(),
	}
}

// wants reports whether the event passes any filter. A subscriber with no
// filters receives everything.
func (s *subscriber) wants(namespace, workflowID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.filters) == 0 {
		return true
	}
	return lo.SomeBy(s.filters, func(f SubscriptionFilter) bool {
		return f.Matches(namespace, workflowID)
	})
}

// apply updates the filter set and returns the reply for msg.
func (s *subscriber) apply(msg clientMessage) serverMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg.Type {
	case msgSubscribe:
		if len(s.filters) >= maxFilters {
			s.log.Warn().Int("filters", len(s.filters)).Msg("Subscriber hit filter limit")
			return serverMessage{Type: msgError, Message: "too many filters"}
		}
		s.filters = append(s.filters, msg.Filters)
	case msgUnsubscribe:
		s.filters = removeFilter(s.filters, msg.Filters)
	default:
		return serverMessage{Type: msgError, Message: "unknown message type " + msg.Type}
	}

	s.log.Debug().
		Str("type", msg.Type).
		Str("namespace", msg.Filters.Namespace).
		Str("workflow_id", msg.Filters.WorkflowID).
		Int("filters", len(s.filters)).
		Msg("Subscription updated")
	return serverMessage{Type: msg.Type}
}

func removeFilter(filters []SubscriptionFilter, target SubscriptionFilter) []SubscriptionFilter {
	return lo.Reject(filters, func(f SubscriptionFilter, _ int) bool { return f == target })
}

// offer queues data without blocking; a full queue drops it.
func (s *subscriber) offer(data []byte) bool {
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// Hub tracks live subscribers and fans events out to them.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[*subscriber]struct{})}
}

// Broadcast delivers event to every subscriber whose filters match it.
func (h *Hub) Broadcast(event protocol.Event) {
	data, err := marshalEvent(event)
	if err != nil {
		getLog().Error().Err(err).Str("event_type", protocol.EventType(event)).Msg("Failed to marshal event")
		return
	}
	namespace, workflowID := extractEventScope(event)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subscribers {
		if s.wants(namespace, workflowID) && !s.offer(data) {
			s.log.Warn().Str("workflow_id", workflowID).Msg("Subscriber queue full, dropping event")
		}
	}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) join(s *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.subscribers) >= maxSubscribers {
		return false
	}
	h.subscribers[s] = struct{}{}
	return true
}

func (h *Hub) leave(s *subscriber) {
	h.mu.Lock()
	delete(h.subscribers, s)
	h.mu.Unlock()
}

type namespaceScoped interface {
	GetNamespace() string
}

type workflowScoped interface {
	GetWorkflowID() string
}

func extractEventScope(event protocol.Event) (namespace, workflowID string) {
	if ns, ok := event.(namespaceScoped); ok {
		namespace = ns.GetNamespace()
	}
	if ws, ok := event.(workflowScoped); ok {
		workflowID = ws.GetWorkflowID()
	}
	return namespace, workflowID
}

// HandleWebSocket upgrades the request and streams matching interaction
// events until the peer goes away. An empty allowedOrigins accepts any origin.
func HandleWebSocket(hub *Hub, allowedOrigins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return len(allowedOrigins) == 0 || lo.Contains(allowedOrigins, r.Header.Get("Origin"))
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			getLog().Warn().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket upgrade failed")
			return
		}

		s := newSubscriber(conn, r.RemoteAddr)
		if !hub.join(s) {
			s.log.Warn().Int("limit", maxSubscribers).Msg("Subscriber limit reached")
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many subscribers"),
				time.Now().Add(writeWait))
			conn.Close()
			return
		}
		s.log.Info().Msg("Subscriber connected")

		go s.writeLoop()
		s.readLoop(hub)
	}
}

func (s *subscriber) readLoop(hub *Hub) {
	defer func() {
		hub.leave(s)
		close(s.send)
		s.conn.Close()
		s.log.Info().Msg("Subscriber disconnected")
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				s.offerReply(serverMessage{Type: msgError, Message: "invalid message"})
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("WebSocket read failed")
			}
			return
		}
		s.offerReply(s.apply(msg))
	}
}

func (s *subscriber) offerReply(reply serverMessage) {
	if data, err := json.Marshal(reply); err == nil {
		s.offer(data)
	}
}

// writeLoop owns all writes to the connection; it exits when readLoop closes
// the send queue.
func (s *subscriber) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Warn().Err(err).Msg("WebSocket write failed")
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
