package relay

import (
	"errors"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dogfight/internal/game/room"
	"github.com/cory-johannsen/dogfight/internal/game/session"
	"github.com/cory-johannsen/dogfight/internal/protocol"
)

// broadcast encodes the event once and queues it for every member of rm
// except excludeID. Pass "" to include everyone.
func (r *Relay) broadcast(rm *room.Room, excludeID, event string, data any) {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		r.logger.Error("encoding broadcast", zap.String("event", event), zap.Error(err))
		return
	}
	for _, id := range rm.Members() {
		if id == excludeID {
			continue
		}
		r.deliver(id, event, frame)
	}
}

// sendTo queues an event for a single connection.
func (r *Relay) sendTo(connID, event string, data any) {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		r.logger.Error("encoding event", zap.String("event", event), zap.Error(err))
		return
	}
	r.deliver(connID, event, frame)
}

// sendAck queues the reply to an acknowledged request.
func (r *Relay) sendAck(connID string, ack int64, data any) {
	frame, err := protocol.EncodeAck(ack, data)
	if err != nil {
		r.logger.Error("encoding ack", zap.Int64("ack", ack), zap.Error(err))
		return
	}
	r.deliver(connID, protocol.EventAck, frame)
}

// deliver never blocks: a full queue drops the frame.
func (r *Relay) deliver(connID, event string, frame []byte) {
	err := r.sessions.Push(connID, frame)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrBufferFull):
		r.metrics.OutboundDropped(event)
		r.logger.Warn("outbound queue full, dropping event",
			zap.String("conn", connID),
			zap.String("event", event),
		)
	default:
		r.logger.Debug("push to connection failed",
			zap.String("conn", connID),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}
