package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/felicity-events/felicity-api/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	backendTimeout = 10 * time.Second
)

// Client frame types.
const (
	FrameJoinForum      = "join_forum"
	FrameLeaveForum     = "leave_forum"
	FrameJoinAttendance = "join_attendance"
	FrameSendMessage    = "send_message"
	FrameTyping         = "typing"
)

type ForumBackend interface {
	AuthorizeForum(ctx context.Context, principal domain.Principal, eventID uint) (domain.Sender, error)
	PostMessage(ctx context.Context, principal domain.Principal, eventID uint, content string, parentID *uint) (domain.ForumMessage, error)
}

type AttendanceBackend interface {
	AuthorizeAttendance(ctx context.Context, principal domain.Principal, eventID uint) error
}

type ClientFrame struct {
	Type     string `json:"type"`
	EventID  uint   `json:"eventId"`
	Content  string `json:"content,omitempty"`
	ParentID *uint  `json:"parentId,omitempty"`
}

type typingData struct {
	EventID uint          `json:"eventId"`
	Sender  domain.Sender `json:"sender"`
}

type Client struct {
	id        string
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	principal domain.Principal

	// forums caches the sender identity per joined forum. Only the read pump
	// touches it.
	forums map[uint]domain.Sender
}

// Serve registers the connection with the hub and starts its pumps.
func (h *Hub) Serve(conn *websocket.Conn, principal domain.Principal) {
	c := &Client{
		id:        uuid.NewString(),
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 64),
		principal: principal,
		forums:    make(map[uint]domain.Sender),
	}
	if !h.attach(c) {
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.detach(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("websocket closed unexpectedly", zap.String("client", c.id), zap.Error(err))
			}
			return
		}

		var f ClientFrame
		if err = json.Unmarshal(raw, &f); err != nil {
			c.reply(FrameError, "malformed frame")
			continue
		}
		c.handle(f)
	}
}

func (c *Client) handle(f ClientFrame) {
	ctx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()

	switch f.Type {
	case FrameJoinForum:
		sender, err := c.hub.forum.AuthorizeForum(ctx, c.principal, f.EventID)
		if err != nil {
			c.reply(FrameError, err.Error())
			return
		}
		c.forums[f.EventID] = sender
		c.hub.join(c, ForumRoom(f.EventID))

	case FrameLeaveForum:
		delete(c.forums, f.EventID)
		c.hub.leave(c, ForumRoom(f.EventID))

	case FrameJoinAttendance:
		if err := c.hub.attendance.AuthorizeAttendance(ctx, c.principal, f.EventID); err != nil {
			c.reply(FrameError, err.Error())
			return
		}
		c.hub.join(c, AttendanceRoom(f.EventID))

	case FrameSendMessage:
		if _, ok := c.forums[f.EventID]; !ok {
			c.reply(FrameError, errNotJoined.Error())
			return
		}
		if _, err := c.hub.forum.PostMessage(ctx, c.principal, f.EventID, f.Content, f.ParentID); err != nil {
			c.reply(FrameError, err.Error())
		}

	case FrameTyping:
		sender, ok := c.forums[f.EventID]
		if !ok {
			c.reply(FrameError, errNotJoined.Error())
			return
		}
		room := ForumRoom(f.EventID)
		c.hub.publish(Envelope{
			Room:    room,
			Except:  c.id,
			Payload: frame(ServerFrame{Type: FrameUserTyping, Room: room, Data: typingData{EventID: f.EventID, Sender: sender}}),
		})

	default:
		c.reply(FrameError, "unknown frame type "+f.Type)
	}
}

var errNotJoined = errors.New("join the forum first")

// reply sends a frame to this client only.
func (c *Client) reply(frameType string, data interface{}) {
	c.hub.sendDirect(c, frame(ServerFrame{Type: frameType, Data: data}))
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
