package relay

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dogfight/internal/game/aircraft"
	"github.com/cory-johannsen/dogfight/internal/game/geom"
	"github.com/cory-johannsen/dogfight/internal/game/room"
	"github.com/cory-johannsen/dogfight/internal/game/session"
	"github.com/cory-johannsen/dogfight/internal/protocol"
)

// defaultNamePrefix plus the first four characters of the connection id
// names a player who joined without one.
const defaultNamePrefix = "Pilot_"

// Connect registers a new connection and returns its outbound queue.
//
// Precondition: connID must be non-empty and unused.
func (r *Relay) Connect(connID string) (*session.Entity, error) {
	e, err := r.sessions.Register(connID)
	if err != nil {
		return nil, fmt.Errorf("connecting %s: %w", connID, err)
	}
	r.logger.Debug("connection registered", zap.String("conn", connID))
	return e, nil
}

// Disconnect leaves the connection's room, if any, and unregisters it.
//
// Postcondition: the connection's Entity is closed.
func (r *Relay) Disconnect(ctx context.Context, connID string) error {
	err := r.do(ctx, func() { r.leave(connID) })
	if uerr := r.sessions.Unregister(connID); uerr != nil {
		r.logger.Debug("unregister", zap.String("conn", connID), zap.Error(uerr))
	}
	r.logger.Debug("connection closed", zap.String("conn", connID))
	return err
}

// ListRooms returns the lobby view of every room, sorted by id.
func (r *Relay) ListRooms(ctx context.Context) ([]protocol.RoomSummary, error) {
	var out []protocol.RoomSummary
	err := r.do(ctx, func() { out = r.listRooms() })
	return out, err
}

func (r *Relay) listRooms() []protocol.RoomSummary {
	return protocol.NewRoomSummaries(r.store.List())
}

// CreateRoom creates an empty room. An empty roomID is replaced by a
// generated one.
//
// Postcondition: Returns the room id, or an error wrapping room.ErrRoomExists.
func (r *Relay) CreateRoom(ctx context.Context, connID, roomID string) (string, error) {
	var (
		id  string
		err error
	)
	if derr := r.do(ctx, func() { id, err = r.createRoom(connID, roomID) }); derr != nil {
		return "", derr
	}
	return id, err
}

func (r *Relay) createRoom(connID, roomID string) (string, error) {
	if roomID == "" {
		roomID = r.store.GenerateID()
	}
	if _, err := r.store.Create(roomID, r.now()); err != nil {
		return "", err
	}
	r.metrics.RoomCreated()
	r.logger.Info("room created", zap.String("room", roomID), zap.String("conn", connID))
	return roomID, nil
}

// JoinRoom places the connection in roomID, creating the room if needed.
// A connection already in a room leaves it first.
//
// Postcondition: On error nothing is mutated and nothing is broadcast.
func (r *Relay) JoinRoom(ctx context.Context, connID string, req protocol.JoinRoomRequest) (protocol.JoinRoomResponse, error) {
	var (
		resp protocol.JoinRoomResponse
		err  error
	)
	if derr := r.do(ctx, func() { resp, err = r.joinRoom(connID, req) }); derr != nil {
		return protocol.JoinRoomResponse{}, derr
	}
	return resp, err
}

func (r *Relay) joinRoom(connID string, req protocol.JoinRoomRequest) (protocol.JoinRoomResponse, error) {
	if _, ok := r.sessions.Entity(connID); !ok {
		return protocol.JoinRoomResponse{}, ErrUnknownConnection
	}
	if req.RoomID == "" {
		return protocol.JoinRoomResponse{}, ErrRoomIDRequired
	}

	now := r.now()
	rm, created := r.store.GetOrCreate(req.RoomID, now)
	if rm.PlayerCount() >= r.cfg.MaxPlayers {
		if created {
			r.store.Delete(rm.ID)
		}
		r.logger.Debug("join rejected, room full",
			zap.String("room", req.RoomID),
			zap.String("conn", connID),
		)
		return protocol.JoinRoomResponse{}, ErrRoomFull
	}
	if created {
		r.metrics.RoomCreated()
		r.logger.Info("room created", zap.String("room", rm.ID), zap.String("conn", connID))
	}

	if r.leave(connID) {
		// Leaving may have emptied and deleted this very room.
		if _, still := r.store.Get(rm.ID); !still {
			rm, created = r.store.GetOrCreate(req.RoomID, now)
			if created {
				r.metrics.RoomCreated()
			}
		}
	}

	spec := r.catalog.Resolve(req.AircraftType)
	idx := aircraft.PaletteIndex(rm.PlayerCount())
	p := &room.PlayerRecord{
		ID:           connID,
		Name:         playerName(req.PlayerName, connID),
		AircraftType: spec.Type,
		Color:        aircraft.Palette[idx],
		Position:     room.JoinSpawnPoint(idx),
		Rotation:     geom.Identity,
		Health:       spec.MaxHealth,
		MaxHealth:    spec.MaxHealth,
		Alive:        true,
		LastUpdate:   now,
	}
	rm.AddPlayer(p)
	r.sessions.Bind(connID, rm.ID, p.ID)
	r.metrics.PlayerJoined(string(spec.Type))

	data := protocol.NewPlayerData(p)
	r.broadcast(rm, p.ID, protocol.EventPlayerJoined, protocol.PlayerJoined{ID: p.ID, Data: data})

	r.logger.Info("player joined",
		zap.String("room", rm.ID),
		zap.String("player", p.ID),
		zap.String("name", p.Name),
		zap.String("aircraft", string(p.AircraftType)),
		zap.Int("players", rm.PlayerCount()),
	)
	return protocol.JoinRoomResponse{
		Success:         true,
		PlayerID:        p.ID,
		PlayerData:      data,
		ExistingPlayers: protocol.NewPlayerMap(rm.Others(p.ID)),
		AntiAirs:        protocol.NewAntiAirs(rm.AntiAirs()),
	}, nil
}

func playerName(requested, connID string) string {
	if requested != "" {
		return requested
	}
	prefix := connID
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return defaultNamePrefix + prefix
}

// LeaveRoom removes the connection's player from its room.
//
// Postcondition: Returns false, with no effect, when the connection is not in a room.
func (r *Relay) LeaveRoom(ctx context.Context, connID string) (bool, error) {
	var left bool
	err := r.do(ctx, func() { left = r.leave(connID) })
	return left, err
}

// leave applies full leave semantics for connID's current binding.
func (r *Relay) leave(connID string) bool {
	b, ok := r.sessions.Binding(connID)
	if !ok {
		return false
	}
	if rm, ok := r.store.Get(b.RoomID); ok {
		r.removePlayer(rm, b.PlayerID, "left")
	}
	r.sessions.Unbind(connID)
	return true
}

// removePlayer drops playerID from rm, tells the remaining members, cancels
// any pending respawn and deletes rm once it is empty.
func (r *Relay) removePlayer(rm *room.Room, playerID, reason string) {
	if !rm.RemovePlayer(playerID) {
		return
	}
	r.respawns.Cancel(rm.ID, playerID)
	if b, ok := r.sessions.Binding(playerID); ok && b.RoomID == rm.ID {
		r.sessions.Unbind(playerID)
	}
	r.broadcast(rm, playerID, protocol.EventPlayerLeft, protocol.PlayerLeft{ID: playerID})

	r.logger.Info("player removed",
		zap.String("room", rm.ID),
		zap.String("player", playerID),
		zap.String("reason", reason),
		zap.Int("players", rm.PlayerCount()),
	)
	if r.store.DeleteIfEmpty(rm.ID) {
		r.metrics.RoomDeleted()
		r.logger.Info("room deleted (empty)", zap.String("room", rm.ID))
	}
}
