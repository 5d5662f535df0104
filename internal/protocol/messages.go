package protocol

import (
	"github.com/cory-johannsen/dogfight/internal/game/aircraft"
	"github.com/cory-johannsen/dogfight/internal/game/geom"
	"github.com/cory-johannsen/dogfight/internal/game/room"
)

// CreateRoomRequest is the createRoom payload. An empty RoomID asks the
// server to generate one.
type CreateRoomRequest struct {
	RoomID string `json:"roomId"`
}

// JoinRoomRequest is the joinRoom payload.
type JoinRoomRequest struct {
	RoomID       string `json:"roomId"`
	PlayerName   string `json:"playerName"`
	AircraftType string `json:"aircraftType"`
}

// PlayerUpdateRequest is the playerUpdate payload. Absent vectors keep the
// previously reported values.
type PlayerUpdateRequest struct {
	Position *geom.Vec3 `json:"position"`
	Rotation *geom.Quat `json:"rotation"`
	Speed    float64    `json:"speed"`
}

// ShootRequest is the shoot payload. Zero Life and Damage take the bullet
// defaults.
type ShootRequest struct {
	Position   geom.Vec3 `json:"position"`
	Velocity   geom.Vec3 `json:"velocity"`
	BulletType string    `json:"bulletType"`
	Life       float64   `json:"life"`
	Damage     int       `json:"damage"`
	IsBomb     bool      `json:"isBomb"`
	IsHoming   bool      `json:"isHoming"`
}

// HitPlayerRequest is the hitPlayer payload. BulletID is informational.
type HitPlayerRequest struct {
	TargetID string `json:"targetId"`
	Damage   int    `json:"damage"`
	BulletID *int   `json:"bulletId,omitempty"`
}

// AADestroyedRequest is the aaDestroyed payload.
type AADestroyedRequest struct {
	AAID   int `json:"aaId"`
	Damage int `json:"damage"`
}

// RoomSummary is one lobby entry.
type RoomSummary struct {
	ID          string `json:"id"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
}

// PlayerData is the full wire view of a player record.
type PlayerData struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	AircraftType string         `json:"aircraftType"`
	Color        aircraft.Color `json:"color"`
	Position     geom.Vec3      `json:"position"`
	Rotation     geom.Quat      `json:"rotation"`
	Health       int            `json:"health"`
	MaxHealth    int            `json:"maxHealth"`
	Score        int            `json:"score"`
	Alive        bool           `json:"alive"`
	Speed        float64        `json:"speed"`
	LastUpdate   int64          `json:"lastUpdate"`
}

// AntiAir is the wire view of an AA unit. Units sit on the ground, so only
// the horizontal coordinates are sent.
type AntiAir struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Z      float64 `json:"z"`
	Health int     `json:"health"`
	Alive  bool    `json:"alive"`
}

// Bullet is the bulletSpawned payload.
type Bullet struct {
	ID        int       `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Position  geom.Vec3 `json:"position"`
	Velocity  geom.Vec3 `json:"velocity"`
	Type      string    `json:"type"`
	Life      float64   `json:"life"`
	Damage    int       `json:"damage"`
	IsBomb    bool      `json:"isBomb"`
	IsHoming  bool      `json:"isHoming"`
	CreatedAt int64     `json:"createdAt"`
}

// CreateRoomResponse acks createRoom.
type CreateRoomResponse struct {
	Success bool   `json:"success"`
	RoomID  string `json:"roomId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JoinRoomResponse acks a successful joinRoom. Failures are acked with Failure.
type JoinRoomResponse struct {
	Success         bool                  `json:"success"`
	PlayerID        string                `json:"playerId"`
	PlayerData      PlayerData            `json:"playerData"`
	ExistingPlayers map[string]PlayerData `json:"existingPlayers"`
	AntiAirs        []AntiAir             `json:"antiAirs"`
}

// Failure is the ack for a rejected request.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewFailure builds a Failure ack with the given client-facing text.
func NewFailure(text string) Failure {
	return Failure{Success: false, Error: text}
}

// LeaveRoomResponse acks leaveRoom.
type LeaveRoomResponse struct {
	Success bool `json:"success"`
}

// PlayerJoined announces a new member to the rest of the room.
type PlayerJoined struct {
	ID   string     `json:"id"`
	Data PlayerData `json:"data"`
}

// PlayerLeft announces a departure.
type PlayerLeft struct {
	ID string `json:"id"`
}

// PlayerMoved relays a kinematics update.
type PlayerMoved struct {
	ID       string    `json:"id"`
	Position geom.Vec3 `json:"position"`
	Rotation geom.Quat `json:"rotation"`
	Speed    float64   `json:"speed"`
}

// PlayerDamaged reports the target's health after a hit.
type PlayerDamaged struct {
	ID         string `json:"id"`
	Health     int    `json:"health"`
	MaxHealth  int    `json:"maxHealth"`
	AttackerID string `json:"attackerId"`
}

// PlayerKilled reports a kill.
type PlayerKilled struct {
	KillerID   string `json:"killerId"`
	KillerName string `json:"killerName"`
	VictimID   string `json:"victimId"`
	VictimName string `json:"victimName"`
}

// PlayerRespawned carries the respawned player's full record.
type PlayerRespawned struct {
	ID   string     `json:"id"`
	Data PlayerData `json:"data"`
}

// ScoreUpdate carries a player's new score.
type ScoreUpdate struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}

// AAUnitDestroyed reports a destroyed AA unit.
type AAUnitDestroyed struct {
	AAID        int    `json:"aaId"`
	DestroyerID string `json:"destroyerId"`
}

// ChatMessage is a relayed chat line.
type ChatMessage struct {
	Name      string `json:"name"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Error is sent to a single connection whose frame could not be handled.
type Error struct {
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
}

// NewPlayerData converts a record to its wire form.
//
// Precondition: p must be non-nil.
func NewPlayerData(p *room.PlayerRecord) PlayerData {
	return PlayerData{
		ID:           p.ID,
		Name:         p.Name,
		AircraftType: string(p.AircraftType),
		Color:        p.Color,
		Position:     p.Position,
		Rotation:     p.Rotation,
		Health:       p.Health,
		MaxHealth:    p.MaxHealth,
		Score:        p.Score,
		Alive:        p.Alive,
		Speed:        p.Speed,
		LastUpdate:   p.LastUpdate.UnixMilli(),
	}
}

// NewPlayerMap converts records to a map keyed by player id.
func NewPlayerMap(players map[string]*room.PlayerRecord) map[string]PlayerData {
	out := make(map[string]PlayerData, len(players))
	for id, p := range players {
		out[id] = NewPlayerData(p)
	}
	return out
}

// NewAntiAirs converts AA units to their wire form, preserving order.
func NewAntiAirs(units []*room.AntiAirUnit) []AntiAir {
	out := make([]AntiAir, 0, len(units))
	for _, u := range units {
		out = append(out, AntiAir{
			ID:     u.ID,
			X:      u.Position.X,
			Z:      u.Position.Z,
			Health: u.Health,
			Alive:  u.Alive,
		})
	}
	return out
}

// NewBullet converts a bullet record to its wire form.
func NewBullet(b *room.Bullet) Bullet {
	return Bullet{
		ID:        b.ID,
		OwnerID:   b.OwnerID,
		Position:  b.Position,
		Velocity:  b.Velocity,
		Type:      b.Type,
		Life:      b.Life,
		Damage:    b.Damage,
		IsBomb:    b.IsBomb,
		IsHoming:  b.IsHoming,
		CreatedAt: b.CreatedAt.UnixMilli(),
	}
}

// NewRoomSummaries converts store summaries to lobby entries.
func NewRoomSummaries(in []room.Summary) []RoomSummary {
	out := make([]RoomSummary, 0, len(in))
	for _, s := range in {
		out = append(out, RoomSummary{ID: s.ID, PlayerCount: s.PlayerCount, MaxPlayers: s.MaxPlayers})
	}
	return out
}
