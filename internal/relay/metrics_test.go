package relay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cory-johannsen/dogfight/internal/observability"
	"github.com/cory-johannsen/dogfight/internal/protocol"
	"github.com/cory-johannsen/dogfight/internal/testutil"
)

func newMetered(t *testing.T, opts ...harnessOption) (*harness, *testutil.MetricReader) {
	t.Helper()
	mr := testutil.NewMetricReader(t)
	m, err := observability.NewMetrics(mr.Provider)
	require.NoError(t, err)
	return newHarness(t, append(opts, withMetrics(m))...), mr
}

func TestMetrics_JoinAndKillAreCounted(t *testing.T) {
	h, mr := newMetered(t)
	h.join("a", "dogfight", "fighter")
	h.join("b", "dogfight", "bomber")

	assert.Equal(t, int64(2), mr.Sum(t, "dogfight.players.joined"))
	assert.Equal(t, int64(1), mr.Sum(t, "dogfight.players.joined", attribute.String("aircraft", "bomber")))
	assert.Equal(t, int64(1), mr.Sum(t, "dogfight.rooms.active"))

	require.NoError(t, h.relay.HitPlayer(h.ctx, "b", protocol.HitPlayerRequest{TargetID: "a", Damage: 5}))
	assert.Equal(t, int64(1), mr.Sum(t, "dogfight.kills"))

	require.NoError(t, h.relay.AADestroyed(h.ctx, "b", protocol.AADestroyedRequest{AAID: 0, Damage: 3}))
	assert.Equal(t, int64(1), mr.Sum(t, "dogfight.antiair.destroyed"))
}

func TestMetrics_ShotsExpiryAndRoomLifecycle(t *testing.T) {
	h, mr := newMetered(t)
	h.join("a", "dogfight", "fighter")
	require.NoError(t, h.relay.Shoot(h.ctx, "a", protocol.ShootRequest{BulletType: "missile", Life: 1}))
	require.NoError(t, h.relay.Shoot(h.ctx, "a", protocol.ShootRequest{Life: 1}))

	assert.Equal(t, int64(2), mr.Sum(t, "dogfight.bullets.spawned"))
	assert.Equal(t, int64(1), mr.Sum(t, "dogfight.bullets.spawned", attribute.String("type", "bullet")))

	h.step(1)
	assert.Equal(t, int64(2), mr.Sum(t, "dogfight.bullets.expired"))

	_, err := h.relay.LeaveRoom(h.ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), mr.Sum(t, "dogfight.rooms.active"), "empty room deleted")
}

func TestMetrics_DroppedOutboundIsCounted(t *testing.T) {
	h, mr := newMetered(t, withSendBuffer(1))
	h.join("a", "dogfight", "fighter")
	h.join("b", "dogfight", "fighter")

	for i := 0; i < 3; i++ {
		require.NoError(t, h.relay.Chat(h.ctx, "a", "spam"))
	}
	assert.Positive(t, mr.Sum(t, "dogfight.outbound.dropped", attribute.String("event", protocol.EventChatMessage)))
}
