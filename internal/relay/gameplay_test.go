package relay_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dogfight/internal/game/geom"
	"github.com/cory-johannsen/dogfight/internal/protocol"
)

func TestPlayerUpdate_RelayedToOthers(t *testing.T) {
	h := newHarness(t)
	h.join("a", "dogfight", "fighter")
	h.join("b", "dogfight", "fighter")
	h.drain("a")
	h.drain("b")

	h.advance(500 * time.Millisecond)
	pos := geom.Vec3{X: 10, Y: 160, Z: -4}
	rot := geom.Quat{X: 0.1, Y: 0.2, Z: 0.3, W: 0.9}
	require.NoError(t, h.relay.PlayerUpdate(h.ctx, "a", protocol.PlayerUpdateRequest{Position: &pos, Rotation: &rot, Speed: 42}))

	moved := only(h.drain("b"), protocol.EventPlayerMoved)
	require.Len(t, moved, 1)
	assert.Equal(t, protocol.PlayerMoved{ID: "a", Position: pos, Rotation: rot, Speed: 42}, decode[protocol.PlayerMoved](t, moved[0]))
	assert.Empty(t, h.drain("a"), "sender does not get its own update")

	p := h.player("dogfight", "a")
	assert.Equal(t, pos, p.Position)
	assert.Equal(t, 42.0, p.Speed)
	assert.Equal(t, epoch.Add(500*time.Millisecond), p.LastUpdate)
}

func TestPlayerUpdate_MissingVectorsKeepPrevious(t *testing.T) {
	h := newHarness(t)
	resp := h.join("a", "dogfight", "fighter")
	require.NoError(t, h.relay.PlayerUpdate(h.ctx, "a", protocol.PlayerUpdateRequest{Speed: 7}))
	p := h.player("dogfight", "a")
	assert.Equal(t, resp.PlayerData.Position, p.Position)
	assert.Equal(t, 7.0, p.Speed)
}

func TestPlayerUpdate_NotInRoomIgnored(t *testing.T) {
	h := newHarness(t)
	h.connect("a")
	require.NoError(t, h.relay.PlayerUpdate(h.ctx, "a", protocol.PlayerUpdateRequest{Speed: 1}))
	assert.Empty(t, h.drain("a"))
}

func TestPlayerUpdate_DeadPlayerStillRelayed(t *testing.T) {
	h := newHarness(t)
	h.join("a", "dogfight", "fighter")
	h.join("b", "dogfight", "fighter")
	require.NoError(t, h.relay.HitPlayer(h.ctx, "b", protocol.HitPlayerRequest{TargetID: "a", Damage: 99}))
	require.False(t, h.player("dogfight", "a").Alive)
	h.drain("b")

	require.NoError(t, h.relay.PlayerUpdate(h.ctx, "a", protocol.PlayerUpdateRequest{Speed: 3}))
	assert.Len(t, only(h.drain("b"), protocol.EventPlayerMoved), 1)
}

func TestShoot_DefaultsAndBroadcastToAll(t *testing.T) {
	h := newHarness(t)
	h.join("a", "dogfight", "fighter")
	h.join("b", "dogfight", "fighter")
	h.drain("a")
	h.drain("b")

	require.NoError(t, h.relay.Shoot(h.ctx, "a", protocol.ShootRequest{
		Position: geom.Vec3{X: 1, Y: 2, Z: 3},
		Velocity: geom.Vec3{Z: 50},
	}))
	require.NoError(t, h.relay.Shoot(h.ctx, "a", protocol.ShootRequest{BulletType: "missile", Life: 5, Damage: 3, IsHoming: true}))

	for _, id := range []string{"a", "b"} {
		spawned := only(h.drain(id), protocol.EventBulletSpawned)
		require.Len(t, spawned, 2, "conn %s", id)

		first := decode[protocol.Bullet](t, spawned[0])
		assert.Equal(t, 0, first.ID)
		assert.Equal(t, "a", first.OwnerID)
		assert.Equal(t, "bullet", first.Type)
		assert.Equal(t, 2.0, first.Life)
		assert.Equal(t, 1, first.Damage)
		assert.Equal(t, geom.Vec3{X: 1, Y: 2, Z: 3}, first.Position)
		assert.Equal(t, epoch.UnixMilli(), first.CreatedAt)

		second := decode[protocol.Bullet](t, spawned[1])
		assert.Equal(t, 1, second.ID)
		assert.Equal(t, "missile", second.Type)
		assert.Equal(t, 5.0, second.Life)
		assert.Equal(t, 3, second.Damage)
		assert.True(t, second.IsHoming)
	}
}

func TestShoot_DeadOrRoomlessIgnored(t *testing.T) {
	h := newHarness(t)
	h.connect("x")
	require.NoError(t, h.relay.Shoot(h.ctx, "x", protocol.ShootRequest{}))
	assert.Empty(t, h.drain("x"))

	h.join("a", "dogfight", "fighter")
	h.join("b", "dogfight", "fighter")
	require.NoError(t, h.relay.HitPlayer(h.ctx, "b", protocol.HitPlayerRequest{TargetID: "a", Damage: 5}))
	h.drain("a")
	h.drain("b")

	require.NoError(t, h.relay.Shoot(h.ctx, "a", protocol.ShootRequest{}))
	assert.Empty(t, h.drain("b"))
}

func TestHitPlayer_KillScenario(t *testing.T) {
	h := newHarness(t)
	h.join("a", "dogfight", "fighter")
	h.join("b", "dogfight", "bomber")
	require.NoError(t, h.relay.Shoot(h.ctx, "a", protocol.ShootRequest{}))
	h.drain("a")
	h.drain("b")

	hit := protocol.HitPlayerRequest{TargetID: "b", Damage: 3}
	require.NoError(t, h.relay.HitPlayer(h.ctx, "a", hit))
	require.NoError(t, h.relay.HitPlayer(h.ctx, "a", hit))
	b := h.player("dogfight", "b")
	assert.Equal(t, 4, b.Health)
	assert.True(t, b.Alive)

	damaged := only(h.drain("b"), protocol.EventPlayerDamaged)
	require.Len(t, damaged, 2)
	assert.Equal(t, protocol.PlayerDamaged{ID: "b", Health: 4, MaxHealth: 10, AttackerID: "a"}, decode[protocol.PlayerDamaged](t, damaged[1]))
	h.drain("a")

	require.NoError(t, h.relay.HitPlayer(h.ctx, "a", hit))
	b = h.player("dogfight", "b")
	assert.Equal(t, 0, b.Health)
	assert.False(t, b.Alive)
	assert.Equal(t, 100, h.player("dogfight", "a").Score)

	events := h.drain("a")
	assert.Equal(t, []string{
		protocol.EventScoreUpdate,
		protocol.EventPlayerKilled,
		protocol.EventPlayerDamaged,
	}, eventNames(events))
	assert.Equal(t, protocol.ScoreUpdate{ID: "a", Score: 100}, decode[protocol.ScoreUpdate](t, events[0]))
	assert.Equal(t, protocol.PlayerKilled{
		KillerID:   "a",
		KillerName: "Pilot_a",
		VictimID:   "b",
		VictimName: "Pilot_b",
	}, decode[protocol.PlayerKilled](t, events[1]))
	assert.Equal(t, 0, decode[protocol.PlayerDamaged](t, events[2]).Health)
	h.drain("b")

	h.advance(2999 * time.Millisecond)
	assert.Empty(t, only(h.drain("a"), protocol.EventPlayerRespawned))

	h.advance(time.Millisecond)
	respawned := only(h.drain("a"), protocol.EventPlayerRespawned)
	require.Len(t, respawned, 1)
	msg := decode[protocol.PlayerRespawned](t, respawned[0])
	assert.Equal(t, "b", msg.ID)
	assert.Equal(t, 10, msg.Data.Health)
	assert.True(t, msg.Data.Alive)
	assert.InDelta(t, 300, msg.Data.Position.HorizontalDistance(), 1e-9)
	assert.Equal(t, 150.0, msg.Data.Position.Y)
	assert.Len(t, only(h.drain("b"), protocol.EventPlayerRespawned), 1)

	h.advance(10 * time.Second)
	assert.Empty(t, only(h.drain("a"), protocol.EventPlayerRespawned), "exactly one respawn per kill")
}

func TestHitPlayer_DeadTargetNoop(t *testing.T) {
	h := newHarness(t)
	h.join("a", "dogfight", "fighter")
	h.join("b", "dogfight", "fighter")
	require.NoError(t, h.relay.HitPlayer(h.ctx, "a", protocol.HitPlayerRequest{TargetID: "b", Damage: 5}))
	h.drain("a")

	require.NoError(t, h.relay.HitPlayer(h.ctx, "a", protocol.HitPlayerRequest{TargetID: "b", Damage: 5}))
	assert.Empty(t, h.drain("a"))
	assert.Equal(t, 100, h.player("dogfight", "a").Score)
	assert.Equal(t, 0, h.player("dogfight", "b").Health)
}

func TestHitPlayer_ZeroDamageCountsAsOne(t *testing.T) {
	h := newHarness(t)
	h.join("a", "dogfight", "fighter")
	h.join("b", "dogfight", "fighter")
	require.NoError(t, h.relay.HitPlayer(h.ctx, "a", protocol.HitPlayerRequest{TargetID: "b"}))
	assert.Equal(t, 4, h.player("dogfight", "b").Health)
}

func TestHitPlayer_AttackerNotInRoomIgnored(t *testing.T) {
	h := newHarness(t)
	h.join("b", "dogfight", "fighter")
	h.connect("a")
	require.NoError(t, h.relay.HitPlayer(h.ctx, "a", protocol.HitPlayerRequest{TargetID: "b", Damage: 2}))
	assert.Equal(t, 5, h.player("dogfight", "b").Health)
}

func TestRespawn_CancelledWhenVictimLeaves(t *testing.T) {
	h := newHarness(t)
	h.join("a", "dogfight", "fighter")
	h.join("b", "dogfight", "fighter")
	require.NoError(t, h.relay.HitPlayer(h.ctx, "a", protocol.HitPlayerRequest{TargetID: "b", Damage: 5}))
	_, err := h.relay.LeaveRoom(h.ctx, "b")
	require.NoError(t, err)
	h.drain("a")

	h.advance(5 * time.Second)
	assert.Empty(t, only(h.drain("a"), protocol.EventPlayerRespawned))
	assert.Equal(t, 1, h.clock.Pending(), "only the sweep timer remains")
}

func TestRespawn_VictimRejoinedIsNotRespawnedTwice(t *testing.T) {
	h := newHarness(t)
	h.join("a", "dogfight", "fighter")
	h.join("b", "dogfight", "fighter")
	require.NoError(t, h.relay.HitPlayer(h.ctx, "a", protocol.HitPlayerRequest{TargetID: "b", Damage: 5}))
	h.join("b", "dogfight", "bomber")
	h.drain("a")

	h.advance(4 * time.Second)
	assert.Empty(t, only(h.drain("a"), protocol.EventPlayerRespawned))
	assert.Equal(t, 10, h.player("dogfight", "b").Health)
}

func TestRespawn_RoomGoneIsNoop(t *testing.T) {
	h := newHarness(t)
	h.join("a", "dogfight", "fighter")
	h.join("b", "dogfight", "fighter")
	require.NoError(t, h.relay.HitPlayer(h.ctx, "a", protocol.HitPlayerRequest{TargetID: "b", Damage: 5}))
	require.NoError(t, h.relay.Disconnect(h.ctx, "a"))
	require.NoError(t, h.relay.Disconnect(h.ctx, "b"))

	h.advance(5 * time.Second)
	assert.False(t, h.roomExists("dogfight"))
}

func TestAADestroyed_CreditsOnceAndSilentWhenNonLethal(t *testing.T) {
	h := newHarness(t)
	h.join("a", "dogfight", "fighter")
	h.join("b", "dogfight", "fighter")
	h.drain("a")
	h.drain("b")

	require.NoError(t, h.relay.AADestroyed(h.ctx, "a", protocol.AADestroyedRequest{AAID: 3, Damage: 1}))
	assert.Empty(t, h.drain("b"), "non-lethal AA damage is not announced")

	require.NoError(t, h.relay.AADestroyed(h.ctx, "a", protocol.AADestroyedRequest{AAID: 3, Damage: 2}))
	require.NoError(t, h.relay.AADestroyed(h.ctx, "b", protocol.AADestroyedRequest{AAID: 3, Damage: 2}))

	events := h.drain("b")
	assert.Equal(t, []string{protocol.EventAAUnitDestroyed}, eventNames(events), "no scoreUpdate for AA kills")
	assert.Equal(t, protocol.AAUnitDestroyed{AAID: 3, DestroyerID: "a"}, decode[protocol.AAUnitDestroyed](t, events[0]))
	assert.Equal(t, 50, h.player("dogfight", "a").Score)
	assert.Equal(t, 0, h.player("dogfight", "b").Score)

	resp := h.join("c", "dogfight", "fighter")
	assert.False(t, resp.AntiAirs[3].Alive)
	assert.Equal(t, 0, resp.AntiAirs[3].Health)
}

func TestAADestroyed_UnknownUnitIgnored(t *testing.T) {
	h := newHarness(t)
	h.join("a", "dogfight", "fighter")
	require.NoError(t, h.relay.AADestroyed(h.ctx, "a", protocol.AADestroyedRequest{AAID: 42, Damage: 9}))
	assert.Empty(t, h.drain("a"))
}

func TestChat_BroadcastToWholeRoom(t *testing.T) {
	h := newHarness(t)
	h.connect("a")
	_, err := h.relay.JoinRoom(h.ctx, "a", protocol.JoinRoomRequest{RoomID: "dogfight", PlayerName: "Goose"})
	require.NoError(t, err)
	h.join("b", "dogfight", "fighter")
	h.drain("a")

	require.NoError(t, h.relay.Chat(h.ctx, "a", "  talk to me  "))
	for _, id := range []string{"a", "b"} {
		msgs := only(h.drain(id), protocol.EventChatMessage)
		require.Len(t, msgs, 1)
		assert.Equal(t, protocol.ChatMessage{Name: "Goose", Message: "talk to me", Timestamp: epoch.UnixMilli()}, decode[protocol.ChatMessage](t, msgs[0]))
	}
}

func TestChat_TruncatedAndEmptyDropped(t *testing.T) {
	h := newHarness(t)
	h.join("a", "dogfight", "fighter")

	require.NoError(t, h.relay.Chat(h.ctx, "a", "   "))
	assert.Empty(t, h.drain("a"))

	require.NoError(t, h.relay.Chat(h.ctx, "a", strings.Repeat("é", 500)))
	msgs := only(h.drain("a"), protocol.EventChatMessage)
	require.Len(t, msgs, 1)
	assert.Equal(t, strings.Repeat("é", 200), decode[protocol.ChatMessage](t, msgs[0]).Message)
}

func TestChat_NotInRoomIgnored(t *testing.T) {
	h := newHarness(t)
	h.connect("a")
	require.NoError(t, h.relay.Chat(h.ctx, "a", "hello"))
	assert.Empty(t, h.drain("a"))
}

func TestBroadcast_FullQueueDropsWithoutBlocking(t *testing.T) {
	h := newHarness(t, withSendBuffer(1))
	h.join("a", "dogfight", "fighter")
	h.join("b", "dogfight", "fighter")

	for i := 0; i < 5; i++ {
		require.NoError(t, h.relay.Chat(h.ctx, "b", "spam"))
	}
	assert.Len(t, h.drain("a"), 1)
}
