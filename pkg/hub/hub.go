package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"feedbackrelay/pkg/logger"
	"feedbackrelay/pkg/models"
	"feedbackrelay/pkg/store"
	"feedbackrelay/pkg/telemetry"
	"feedbackrelay/pkg/validation"
)

// frame is one decoded inbound event bound to its connection.
type frame struct {
	client *Client
	env    envelope
}

// Hub accepts live connections, groups admin connections for broadcast,
// and routes events between the store and connected parties. All event
// handling runs on the single Run loop, so store mutation happens-before
// the resulting emits and events across connections serialize in arrival
// order.
type Hub struct {
	store    *store.Store
	upgrader websocket.Upgrader

	clients map[*Client]struct{}
	admins  map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	frames     chan frame

	connected atomic.Int64
}

// New builds a Hub over the given store. allowedOrigin restricts websocket
// upgrades to one origin; "*" disables the check (tests, local dev).
func New(st *store.Store, allowedOrigin string) *Hub {
	return &Hub{
		store: st,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
			},
		},
		clients:    make(map[*Client]struct{}),
		admins:     make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		frames:     make(chan frame),
	}
}

// ClientCount reports currently connected clients.
func (h *Hub) ClientCount() int { return int(h.connected.Load()) }

// ServeWS upgrades the request and starts the per-connection pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws_upgrade_failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	c := &Client{id: uuid.NewString(), hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register <- c
	go c.readPump()
	go c.writePump()
}

// Run is the hub event loop. It returns when ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.connected.Add(1)
			telemetry.ClientConnected()
			logger.Info("client_connected", "client", c.id)
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				logger.Info("client_disconnected", "client", c.id)
			}
		case f := <-h.frames:
			if _, ok := h.clients[f.client]; !ok {
				continue
			}
			h.handle(f.client, f.env)
		}
	}
}

// drop removes a client from every group and closes its egress channel.
func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	delete(h.admins, c)
	for name, room := range h.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, name)
		}
	}
	close(c.send)
	h.connected.Add(-1)
	telemetry.ClientDisconnected()
}

func (h *Hub) handle(c *Client, env envelope) {
	telemetry.ObserveHubEvent(env.Event)
	switch env.Event {
	case evJoin:
		h.handleJoin(c, env.Data)
	case evSendMessage:
		h.handleSend(c, env.Data)
	case evGetMessages:
		h.handleGetMessages(c, env.Data)
	case evDeleteMessage:
		h.handleDelete(c, env.Data)
	default:
		logger.Debug("unknown_event", "client", c.id, "event", env.Event)
	}
}

// handleJoin puts an admin connection into the admin broadcast group and
// replies with the current roster. Any other value names the room the
// connection addresses itself by; no response is emitted for those.
func (h *Hub) handleJoin(c *Client, data json.RawMessage) {
	var name flexString
	if err := json.Unmarshal(data, &name); err != nil {
		logger.Debug("join_bad_payload", "client", c.id, "error", err)
		return
	}
	if name == "admin" {
		h.admins[c] = struct{}{}
		h.emit(c, evUserList, h.store.UserIDs())
		logger.Info("admin_joined", "client", c.id)
		return
	}
	if name == "" {
		return
	}
	room := h.rooms[string(name)]
	if room == nil {
		room = make(map[*Client]struct{})
		h.rooms[string(name)] = room
	}
	room[c] = struct{}{}
}

// handleSend validates, persists, and fans the new message out to the
// admin group and the recipient's room. The sender never receives an echo.
func (h *Hub) handleSend(c *Client, data json.RawMessage) {
	var p sendPayload
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Debug("send_bad_payload", "client", c.id, "error", err)
		return
	}
	v := validation.CheckSend(p.Message, string(p.To))
	if v.UserError != "" {
		h.emit(c, evError, v.UserError)
		return
	}
	if !v.OK {
		logger.Debug("send_bad_recipient", "client", c.id, "to", string(p.To))
		return
	}
	h.store.AppendMessage(v.UserID, models.StoredMessage{SentTime: p.Date, Type: p.Type, Content: p.Message})

	out := models.ChatMessage{ID: p.Date, User: p.User, Message: p.Message, Date: p.Date, Type: p.Type}
	for rc := range h.recipients(string(p.To)) {
		if rc == c {
			continue
		}
		h.emit(rc, evMessage, out)
	}
}

// handleGetMessages replies to the requester only with the thread's
// messages reformatted for display.
func (h *Hub) handleGetMessages(c *Client, data json.RawMessage) {
	var id flexString
	if err := json.Unmarshal(data, &id); err != nil {
		logger.Debug("get_messages_bad_payload", "client", c.id, "error", err)
		return
	}
	h.emit(c, evMessages, h.reformat(string(id)))
}

// handleDelete removes one message by its sent_time, prunes the thread if
// empty, and re-emits the remaining messages to the admin group only. A
// missing thread, or an unparsable recipient, is a silent no-op.
func (h *Hub) handleDelete(c *Client, data json.RawMessage) {
	var p deletePayload
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Debug("delete_bad_payload", "client", c.id, "error", err)
		return
	}
	uid, ok := validation.UserID(string(p.To))
	if !ok {
		return
	}
	if !h.store.DeleteMessage(uid, p.ID) {
		return
	}
	remaining := h.reformat(string(p.To))
	for a := range h.admins {
		h.emit(a, evMessages, remaining)
	}
}

// reformat converts a thread's stored messages into the live display
// shape, deriving the user label from the thread's user id.
func (h *Hub) reformat(userID string) []models.ChatMessage {
	out := []models.ChatMessage{}
	uid, ok := validation.UserID(userID)
	if !ok {
		return out
	}
	name := displayName(userID)
	for _, m := range h.store.Messages(uid) {
		out = append(out, models.ChatMessage{ID: m.SentTime, User: name, Message: m.Content, Date: m.SentTime, Type: m.Type})
	}
	return out
}

// recipients is the union of the admin group and the named room.
func (h *Hub) recipients(room string) map[*Client]struct{} {
	out := make(map[*Client]struct{}, len(h.admins)+len(h.rooms[room]))
	for a := range h.admins {
		out[a] = struct{}{}
	}
	for c := range h.rooms[room] {
		out[c] = struct{}{}
	}
	return out
}

// emit queues one event to a client, dropping the client if its egress
// buffer is full.
func (h *Hub) emit(c *Client, event string, data any) {
	b, err := json.Marshal(outEnvelope{Event: event, Data: data})
	if err != nil {
		logger.Error("emit_marshal_failed", "event", event, "error", err)
		return
	}
	select {
	case c.send <- b:
	default:
		logger.Warn("client_send_overflow", "client", c.id, "event", event)
		h.drop(c)
	}
}
