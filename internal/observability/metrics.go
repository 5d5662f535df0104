package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/cory-johannsen/dogfight/internal/observability"

// Metrics holds the relay's OpenTelemetry instruments.
//
// A nil *Metrics is valid; every method is then a no-op.
type Metrics struct {
	roomsActive    metric.Int64UpDownCounter
	playersJoined  metric.Int64Counter
	playersPruned  metric.Int64Counter
	bulletsSpawned metric.Int64Counter
	bulletsExpired metric.Int64Counter
	kills          metric.Int64Counter
	aaDestroyed    metric.Int64Counter
	dropped        metric.Int64Counter
}

// NewMetrics registers all relay instruments on a meter from mp.
//
// Precondition: mp must be non-nil.
// Postcondition: Returns a non-nil *Metrics or the first registration error.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(instrumentationName)
	var (
		out Metrics
		err error
	)
	if out.roomsActive, err = m.Int64UpDownCounter("dogfight.rooms.active",
		metric.WithDescription("Rooms currently held in the store")); err != nil {
		return nil, fmt.Errorf("creating rooms.active: %w", err)
	}
	if out.playersJoined, err = m.Int64Counter("dogfight.players.joined",
		metric.WithDescription("Successful room joins")); err != nil {
		return nil, fmt.Errorf("creating players.joined: %w", err)
	}
	if out.playersPruned, err = m.Int64Counter("dogfight.players.pruned",
		metric.WithDescription("Players removed by the sweep for inactivity")); err != nil {
		return nil, fmt.Errorf("creating players.pruned: %w", err)
	}
	if out.bulletsSpawned, err = m.Int64Counter("dogfight.bullets.spawned",
		metric.WithDescription("Bullets relayed")); err != nil {
		return nil, fmt.Errorf("creating bullets.spawned: %w", err)
	}
	if out.bulletsExpired, err = m.Int64Counter("dogfight.bullets.expired",
		metric.WithDescription("Bullet records dropped by the sweep")); err != nil {
		return nil, fmt.Errorf("creating bullets.expired: %w", err)
	}
	if out.kills, err = m.Int64Counter("dogfight.kills",
		metric.WithDescription("Players killed")); err != nil {
		return nil, fmt.Errorf("creating kills: %w", err)
	}
	if out.aaDestroyed, err = m.Int64Counter("dogfight.antiair.destroyed",
		metric.WithDescription("Anti-air units destroyed")); err != nil {
		return nil, fmt.Errorf("creating antiair.destroyed: %w", err)
	}
	if out.dropped, err = m.Int64Counter("dogfight.outbound.dropped",
		metric.WithDescription("Outbound messages dropped because a connection queue was full")); err != nil {
		return nil, fmt.Errorf("creating outbound.dropped: %w", err)
	}
	return &out, nil
}

// RoomCreated records a room entering the store.
func (m *Metrics) RoomCreated() {
	if m == nil {
		return
	}
	m.roomsActive.Add(context.Background(), 1)
}

// RoomDeleted records a room leaving the store.
func (m *Metrics) RoomDeleted() {
	if m == nil {
		return
	}
	m.roomsActive.Add(context.Background(), -1)
}

// PlayerJoined records a join, tagged by aircraft type.
func (m *Metrics) PlayerJoined(aircraftType string) {
	if m == nil {
		return
	}
	m.playersJoined.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("aircraft", aircraftType)))
}

// PlayersPruned records n stale players removed in one sweep.
func (m *Metrics) PlayersPruned(n int) {
	if m == nil || n == 0 {
		return
	}
	m.playersPruned.Add(context.Background(), int64(n))
}

// BulletSpawned records a relayed shot, tagged by bullet type.
func (m *Metrics) BulletSpawned(bulletType string) {
	if m == nil {
		return
	}
	m.bulletsSpawned.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("type", bulletType)))
}

// BulletsExpired records n bullet records dropped in one sweep.
func (m *Metrics) BulletsExpired(n int) {
	if m == nil || n == 0 {
		return
	}
	m.bulletsExpired.Add(context.Background(), int64(n))
}

// Kill records a player kill.
func (m *Metrics) Kill() {
	if m == nil {
		return
	}
	m.kills.Add(context.Background(), 1)
}

// AntiAirDestroyed records an AA unit destruction.
func (m *Metrics) AntiAirDestroyed() {
	if m == nil {
		return
	}
	m.aaDestroyed.Add(context.Background(), 1)
}

// OutboundDropped records an outbound message dropped for event.
func (m *Metrics) OutboundDropped(event string) {
	if m == nil {
		return
	}
	m.dropped.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("event", event)))
}
