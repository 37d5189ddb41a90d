// Package realtime fans out forum and attendance updates to websocket clients
// grouped in per-event rooms.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/felicity-events/felicity-api/internal/metrics"
)

// Server frame types.
const (
	FrameNewMessage      = "new_message"
	FrameMessageUpdated  = "message_updated"
	FrameUserTyping      = "user_typing"
	FrameNewCheckIn      = "new_checkin"
	FrameCheckInReverted = "checkin_reverted"
	FrameJoined          = "joined"
	FrameError           = "error"
)

func ForumRoom(eventID uint) string {
	return fmt.Sprintf("forum_%d", eventID)
}

func AttendanceRoom(eventID uint) string {
	return fmt.Sprintf("attendance_%d", eventID)
}

type ServerFrame struct {
	Type string      `json:"type"`
	Room string      `json:"room,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// Envelope is one serialized frame addressed to a room. Except names a client
// that should not receive it.
type Envelope struct {
	Room    string          `json:"room"`
	Except  string          `json:"except,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Relay carries envelopes between instances. Every instance, including the
// publisher, receives each envelope through Subscribe.
type Relay interface {
	Publish(ctx context.Context, env Envelope) error
	Subscribe(ctx context.Context, deliver func(Envelope)) error
}

type directFrame struct {
	client  *Client
	payload []byte
}

type membership struct {
	client *Client
	room   string
	ack    bool
}

type Hub struct {
	forum      ForumBackend
	attendance AttendanceBackend
	relay      Relay
	relayUp    atomic.Bool

	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	joins      chan membership
	leaves     chan membership
	direct     chan directFrame
	deliver    chan Envelope
	done       chan struct{}
}

func NewHub(forum ForumBackend, attendance AttendanceBackend, relay Relay) *Hub {
	return &Hub{
		forum:      forum,
		attendance: attendance,
		relay:      relay,
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		joins:      make(chan membership),
		leaves:     make(chan membership),
		direct:     make(chan directFrame),
		deliver:    make(chan Envelope, 256),
		done:       make(chan struct{}),
	}
}

// Run owns the client and room maps until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.relay != nil {
		err := h.relay.Subscribe(ctx, func(env Envelope) {
			select {
			case h.deliver <- env:
			case <-ctx.Done():
			}
		})
		if err != nil {
			zap.L().Error("realtime relay subscription failed, delivering locally only", zap.Error(err))
		} else {
			h.relayUp.Store(true)
		}
	}

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			metrics.RealtimeConnections.Inc()
		case c := <-h.unregister:
			h.drop(c)
		case m := <-h.joins:
			if _, ok := h.clients[m.client]; !ok {
				continue
			}
			if h.rooms[m.room] == nil {
				h.rooms[m.room] = make(map[*Client]struct{})
			}
			h.rooms[m.room][m.client] = struct{}{}
			if m.ack {
				h.sendTo(m.client, frame(ServerFrame{Type: FrameJoined, Room: m.room}))
			}
		case m := <-h.leaves:
			h.removeFromRoom(m.client, m.room)
		case d := <-h.direct:
			if _, ok := h.clients[d.client]; ok {
				h.sendTo(d.client, d.payload)
			}
		case env := <-h.deliver:
			for c := range h.rooms[env.Room] {
				if env.Except != "" && c.id == env.Except {
					continue
				}
				h.sendTo(c, env.Payload)
			}
		}
	}
}

func (h *Hub) sendTo(c *Client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		zap.L().Warn("realtime client too slow, disconnecting", zap.String("client", c.id))
		h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for room := range h.rooms {
		h.removeFromRoom(c, room)
	}
	close(c.send)
	metrics.RealtimeConnections.Dec()
}

func (h *Hub) removeFromRoom(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast sends a frame to every client in room. Delivery is best effort.
func (h *Hub) Broadcast(room, frameType string, data interface{}) {
	h.publish(Envelope{Room: room, Payload: frame(ServerFrame{Type: frameType, Room: room, Data: data})})
}

func (h *Hub) publish(env Envelope) {
	if h.relayUp.Load() {
		err := h.relay.Publish(context.Background(), env)
		if err == nil {
			return
		}
		zap.L().Warn("realtime relay publish failed, delivering locally", zap.String("room", env.Room), zap.Error(err))
	}

	select {
	case h.deliver <- env:
	case <-h.done:
	}
}

func (h *Hub) attach(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) sendDirect(c *Client, payload []byte) {
	select {
	case h.direct <- directFrame{client: c, payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) join(c *Client, room string) {
	select {
	case h.joins <- membership{client: c, room: room, ack: true}:
	case <-h.done:
	}
}

func (h *Hub) leave(c *Client, room string) {
	select {
	case h.leaves <- membership{client: c, room: room}:
	case <-h.done:
	}
}

func frame(f ServerFrame) []byte {
	payload, err := json.Marshal(f)
	if err != nil {
		payload, _ = json.Marshal(ServerFrame{Type: FrameError, Data: err.Error()})
	}

	return payload
}
