package relay

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dogfight/internal/game/room"
	"github.com/cory-johannsen/dogfight/internal/protocol"
)

// Handle decodes one inbound frame from connID and applies it. Replies,
// acks and error events are queued on the connection's Entity from inside
// the loop, so they are ordered with every broadcast the frame causes.
//
// Malformed frames produce an error event for the sender only; they never
// close the connection. The returned error is non-nil only when the relay
// could not run the request at all.
func (r *Relay) Handle(ctx context.Context, connID string, frame []byte) error {
	env, err := protocol.Decode(frame)
	if err != nil {
		return r.do(ctx, func() {
			r.sendTo(connID, protocol.EventError, protocol.Error{Message: err.Error()})
		})
	}
	return r.do(ctx, func() { r.dispatch(connID, env) })
}

func (r *Relay) dispatch(connID string, env protocol.Envelope) {
	var (
		reply any
		err   error
	)
	switch env.Event {
	case protocol.EventGetRooms:
		reply = r.listRooms()

	case protocol.EventCreateRoom:
		var req protocol.CreateRoomRequest
		if err = protocol.DecodeData(env, &req); err == nil {
			var id string
			if id, err = r.createRoom(connID, req.RoomID); err == nil {
				reply = protocol.CreateRoomResponse{Success: true, RoomID: id}
			}
		}

	case protocol.EventJoinRoom:
		var req protocol.JoinRoomRequest
		if err = protocol.DecodeData(env, &req); err == nil {
			reply, err = r.joinRoom(connID, req)
		}

	case protocol.EventLeaveRoom:
		r.leave(connID)
		reply = protocol.LeaveRoomResponse{Success: true}

	case protocol.EventPlayerUpdate:
		var req protocol.PlayerUpdateRequest
		if err = protocol.DecodeData(env, &req); err == nil {
			r.playerUpdate(connID, req)
		}

	case protocol.EventShoot:
		var req protocol.ShootRequest
		if err = protocol.DecodeData(env, &req); err == nil {
			r.shoot(connID, req)
		}

	case protocol.EventHitPlayer:
		var req protocol.HitPlayerRequest
		if err = protocol.DecodeData(env, &req); err == nil {
			r.hitPlayer(connID, req)
		}

	case protocol.EventAADestroyed:
		var req protocol.AADestroyedRequest
		if err = protocol.DecodeData(env, &req); err == nil {
			r.aaDestroyed(connID, req)
		}

	case protocol.EventChatMessage:
		var msg string
		if err = protocol.DecodeData(env, &msg); err == nil {
			r.chat(connID, msg)
		}

	default:
		r.logger.Debug("unknown event", zap.String("conn", connID), zap.String("event", env.Event))
		r.sendTo(connID, protocol.EventError, protocol.Error{Event: env.Event, Message: "unknown event"})
		if env.WantsAck() {
			r.sendAck(connID, *env.Ack, protocol.NewFailure(protocol.ErrTextUnknownEvent))
		}
		return
	}

	if err != nil {
		if text, ok := failureText(err); ok {
			if env.WantsAck() {
				r.sendAck(connID, *env.Ack, protocol.NewFailure(text))
			}
			return
		}
		r.logger.Debug("rejecting frame", zap.String("conn", connID), zap.String("event", env.Event), zap.Error(err))
		r.sendTo(connID, protocol.EventError, protocol.Error{Event: env.Event, Message: err.Error()})
		if env.WantsAck() {
			r.sendAck(connID, *env.Ack, protocol.NewFailure(protocol.ErrTextInvalidPayload))
		}
		return
	}
	if env.WantsAck() && reply != nil {
		r.sendAck(connID, *env.Ack, reply)
	}
}

// failureText maps request-level rejections to the text sent in a failed ack.
func failureText(err error) (string, bool) {
	switch {
	case errors.Is(err, room.ErrRoomExists):
		return protocol.ErrTextRoomExists, true
	case errors.Is(err, ErrRoomFull):
		return protocol.ErrTextRoomFull, true
	case errors.Is(err, ErrRoomIDRequired):
		return protocol.ErrTextRoomIDRequired, true
	case errors.Is(err, ErrUnknownConnection):
		return protocol.ErrTextNotConnected, true
	default:
		return "", false
	}
}
