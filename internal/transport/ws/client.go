package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dogfight/internal/config"
	"github.com/cory-johannsen/dogfight/internal/game/session"
)

// client pumps frames between one WebSocket and the relay. The read pump
// runs on the HTTP handler goroutine; the write pump drains the connection's
// outbound Entity.
type client struct {
	id     string
	conn   *websocket.Conn
	entity *session.Entity
	cfg    config.WebSocketConfig
	relay  Relay
	logger *zap.Logger

	closeOnce sync.Once
}

func newClient(id string, conn *websocket.Conn, entity *session.Entity, cfg config.WebSocketConfig, relay Relay, logger *zap.Logger) *client {
	return &client{
		id:     id,
		conn:   conn,
		entity: entity,
		cfg:    cfg,
		relay:  relay,
		logger: logger,
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { _ = c.conn.Close() })
}

// readPump forwards inbound frames to the relay until the socket fails.
func (c *client) readPump(ctx context.Context) {
	defer c.close()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		msgType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Debug("read failed", zap.String("conn", c.id), zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		if err := c.relay.Handle(ctx, c.id, frame); err != nil {
			c.logger.Debug("relay rejected frame", zap.String("conn", c.id), zap.Error(err))
			return
		}
	}
}

// writePump writes queued frames and keepalive pings. It exits when the
// Entity is closed or a write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod())
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame, ok := <-c.entity.Events():
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					c.logger.Debug("write failed", zap.String("conn", c.id), zap.Error(err))
				}
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
