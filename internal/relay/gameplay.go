package relay

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dogfight/internal/game/combat"
	"github.com/cory-johannsen/dogfight/internal/game/room"
	"github.com/cory-johannsen/dogfight/internal/protocol"
)

const (
	defaultBulletType = "bullet"
	defaultBulletLife = 2.0
)

// currentRoom returns the room connID is bound to.
func (r *Relay) currentRoom(connID string) (*room.Room, bool) {
	b, ok := r.sessions.Binding(connID)
	if !ok {
		return nil, false
	}
	return r.store.Get(b.RoomID)
}

// currentPlayer returns connID's room and its record there.
func (r *Relay) currentPlayer(connID string) (*room.Room, *room.PlayerRecord, bool) {
	rm, ok := r.currentRoom(connID)
	if !ok {
		return nil, nil, false
	}
	p, ok := rm.Player(connID)
	if !ok {
		return nil, nil, false
	}
	return rm, p, true
}

// PlayerUpdate records the sender's kinematics and relays them to the rest
// of the room. Dead players may still report.
func (r *Relay) PlayerUpdate(ctx context.Context, connID string, req protocol.PlayerUpdateRequest) error {
	return r.do(ctx, func() { r.playerUpdate(connID, req) })
}

func (r *Relay) playerUpdate(connID string, req protocol.PlayerUpdateRequest) {
	rm, p, ok := r.currentPlayer(connID)
	if !ok {
		r.logger.Debug("playerUpdate ignored, not in a room", zap.String("conn", connID))
		return
	}
	if req.Position != nil {
		p.Position = *req.Position
	}
	if req.Rotation != nil {
		p.Rotation = *req.Rotation
	}
	p.Speed = req.Speed
	p.LastUpdate = r.now()

	r.broadcast(rm, p.ID, protocol.EventPlayerMoved, protocol.PlayerMoved{
		ID:       p.ID,
		Position: p.Position,
		Rotation: p.Rotation,
		Speed:    p.Speed,
	})
}

// Shoot records a bullet fired by the sender and announces it to the whole
// room, shooter included. Dead players cannot shoot.
func (r *Relay) Shoot(ctx context.Context, connID string, req protocol.ShootRequest) error {
	return r.do(ctx, func() { r.shoot(connID, req) })
}

func (r *Relay) shoot(connID string, req protocol.ShootRequest) {
	rm, p, ok := r.currentPlayer(connID)
	if !ok || !p.Alive {
		r.logger.Debug("shoot ignored", zap.String("conn", connID), zap.Bool("in_room", ok))
		return
	}

	b := &room.Bullet{
		ID:        rm.NextBulletID(),
		OwnerID:   p.ID,
		Position:  req.Position,
		Velocity:  req.Velocity,
		Type:      req.BulletType,
		Life:      req.Life,
		Damage:    combat.NormalizeDamage(req.Damage),
		IsHoming:  req.IsHoming,
		IsBomb:    req.IsBomb,
		CreatedAt: r.now(),
	}
	if b.Type == "" {
		b.Type = defaultBulletType
	}
	if b.Life <= 0 {
		b.Life = defaultBulletLife
	}
	rm.AddBullet(b)
	r.metrics.BulletSpawned(b.Type)

	r.broadcast(rm, "", protocol.EventBulletSpawned, protocol.NewBullet(b))
}

// HitPlayer applies a client-reported hit from the sender on req.TargetID.
func (r *Relay) HitPlayer(ctx context.Context, connID string, req protocol.HitPlayerRequest) error {
	return r.do(ctx, func() { r.hitPlayer(connID, req) })
}

func (r *Relay) hitPlayer(connID string, req protocol.HitPlayerRequest) {
	rm, ok := r.currentRoom(connID)
	if !ok {
		r.logger.Debug("hitPlayer ignored, not in a room", zap.String("conn", connID))
		return
	}
	res := combat.HitPlayer(rm, connID, req.TargetID, req.Damage)
	if !res.Applied {
		r.logger.Debug("hitPlayer ignored, target absent or dead",
			zap.String("room", rm.ID),
			zap.String("target", req.TargetID),
		)
		return
	}

	if res.Killed {
		if res.Attacker != nil {
			r.broadcast(rm, "", protocol.EventScoreUpdate, protocol.ScoreUpdate{
				ID:    res.Attacker.ID,
				Score: res.Attacker.Score,
			})
		}
		r.broadcast(rm, "", protocol.EventPlayerKilled, protocol.PlayerKilled{
			KillerID:   connID,
			KillerName: res.KillerName(),
			VictimID:   res.Target.ID,
			VictimName: res.Target.Name,
		})
		r.metrics.Kill()
		r.scheduleRespawn(rm.ID, res.Target.ID)
		r.logger.Info("player killed",
			zap.String("room", rm.ID),
			zap.String("killer", connID),
			zap.String("victim", res.Target.ID),
		)
	}

	r.broadcast(rm, "", protocol.EventPlayerDamaged, protocol.PlayerDamaged{
		ID:         res.Target.ID,
		Health:     res.Target.Health,
		MaxHealth:  res.Target.MaxHealth,
		AttackerID: connID,
	})
}

func (r *Relay) scheduleRespawn(roomID, playerID string) {
	r.respawns.Schedule(roomID, playerID, r.cfg.RespawnDelay, func(t combat.Ticket) {
		r.post(func() { r.respawn(t) })
	})
}

// respawn runs on the loop when a respawn timer fires. It is a no-op if the
// respawn was cancelled or the room or player has gone.
func (r *Relay) respawn(t combat.Ticket) {
	if !r.respawns.Complete(t) {
		return
	}
	rm, ok := r.store.Get(t.RoomID)
	if !ok {
		return
	}
	p, ok := rm.Player(t.PlayerID)
	if !ok {
		return
	}
	combat.Respawn(p, r.src)
	r.broadcast(rm, "", protocol.EventPlayerRespawned, protocol.PlayerRespawned{
		ID:   p.ID,
		Data: protocol.NewPlayerData(p),
	})
	r.logger.Debug("player respawned", zap.String("room", rm.ID), zap.String("player", p.ID))
}

// AADestroyed applies client-reported damage to an AA unit. Only the
// destroying hit is announced.
func (r *Relay) AADestroyed(ctx context.Context, connID string, req protocol.AADestroyedRequest) error {
	return r.do(ctx, func() { r.aaDestroyed(connID, req) })
}

func (r *Relay) aaDestroyed(connID string, req protocol.AADestroyedRequest) {
	rm, ok := r.currentRoom(connID)
	if !ok {
		r.logger.Debug("aaDestroyed ignored, not in a room", zap.String("conn", connID))
		return
	}
	res := combat.DamageAntiAir(rm, connID, req.AAID, req.Damage)
	if !res.Destroyed {
		return
	}
	r.metrics.AntiAirDestroyed()
	r.broadcast(rm, "", protocol.EventAAUnitDestroyed, protocol.AAUnitDestroyed{
		AAID:        res.Unit.ID,
		DestroyerID: connID,
	})
}

// Chat relays a chat line from the sender to the whole room.
func (r *Relay) Chat(ctx context.Context, connID, message string) error {
	return r.do(ctx, func() { r.chat(connID, message) })
}

func (r *Relay) chat(connID, message string) {
	rm, p, ok := r.currentPlayer(connID)
	if !ok {
		return
	}
	message = truncateRunes(strings.TrimSpace(message), r.cfg.MaxChatLength)
	if message == "" {
		return
	}
	r.broadcast(rm, "", protocol.EventChatMessage, protocol.ChatMessage{
		Name:      p.Name,
		Message:   message,
		Timestamp: r.now().UnixMilli(),
	})
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
