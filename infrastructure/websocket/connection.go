package websocket

import (
	"chat-relay/errors"
	"chat-relay/services"
	"chat-relay/sink"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const writeWait = 10 * time.Second

// Connection is one authenticated socket. The read pump runs requests in order,
// the write pump is the only writer and multiplexes replies, events and pings.
type Connection struct {
	log        *slog.Logger
	conn       *websocket.Conn
	userID     string
	chat       services.IChatService
	channel    *sink.ConnectionSink
	replies    chan Frame
	limiter    *rate.Limiter
	readLimit  int64
	pongWait   time.Duration
	stop       chan struct{}
	writerDone chan struct{}
}

func NewConnection(log *slog.Logger, conn *websocket.Conn, userID string,
	chat services.IChatService, cfg Config) *Connection {
	cfg = cfg.withDefaults()
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Connection{
		log:        log.With("user_id", userID),
		conn:       conn,
		userID:     userID,
		chat:       chat,
		channel:    sink.NewConnectionSink(log, cfg.BufferSize),
		replies:    make(chan Frame, cfg.BufferSize),
		limiter:    rate.NewLimiter(limit, cfg.RateBurst),
		readLimit:  cfg.ReadLimit,
		pongWait:   cfg.PongWait,
		stop:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

// Serve registers the user, runs both pumps and blocks until the socket is gone.
// The user is deregistered before the socket is released.
func (c *Connection) Serve(ctx context.Context) {
	c.chat.Connect(c.userID, c.channel)

	go func() {
		defer close(c.writerDone)
		c.writePump()
	}()
	c.readPump(ctx)

	c.chat.Disconnect(c.userID, c.channel)
	close(c.stop)
	<-c.writerDone
	_ = c.conn.Close()
}

func (c *Connection) readPump(ctx context.Context) {
	c.conn.SetReadLimit(c.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("WebSocket read failed", "error", err)
			} else {
				c.log.Debug("WebSocket closed", "error", err)
			}
			return
		}

		var request Frame
		if err := json.Unmarshal(raw, &request); err != nil {
			c.reply(Frame{Type: "error", Error: &FrameError{
				Kind:    errors.Kind(errors.ErrInvalidPayload),
				Message: fmt.Sprintf("malformed frame: %v", err),
			}})
			continue
		}
		if !c.limiter.Allow() {
			c.reply(errorFrame(request, errors.ErrRateLimited))
			continue
		}
		if !c.reply(handle(ctx, c.chat, c.userID, request)) {
			return
		}
	}
}

// reply queues a frame for the writer. It reports false once the writer is gone.
func (c *Connection) reply(frame Frame) bool {
	select {
	case c.replies <- frame:
		return true
	case <-c.writerDone:
		return false
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.pongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		// Unblocks the read pump when the writer stops first
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.stop:
			return
		case <-c.channel.Done():
			c.log.Info("Connection superseded or server stopping, closing socket")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
				time.Now().Add(writeWait))
			return
		case frame := <-c.replies:
			if err := c.write(frame); err != nil {
				c.log.Debug("Failed to write reply", "error", err)
				return
			}
		case evt := <-c.channel.Events():
			frame, ok := eventFrame(evt)
			if !ok {
				continue
			}
			if err := c.write(frame); err != nil {
				c.log.Debug("Failed to write event", "event", evt.Name(), "error", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.log.Debug("Ping failed", "error", err)
				return
			}
		}
	}
}

func (c *Connection) write(frame Frame) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(frame)
}
