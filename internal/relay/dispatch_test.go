package relay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dogfight/internal/protocol"
)

func (h *harness) send(id, frame string) {
	h.t.Helper()
	require.NoError(h.t, h.relay.Handle(h.ctx, id, []byte(frame)))
}

func TestHandle_GetRoomsAck(t *testing.T) {
	h := newHarness(t)
	h.join("a", "dogfight", "fighter")

	h.send("a", `{"event":"getRooms","ack":1}`)
	events := h.drain("a")
	require.Len(t, events, 1)
	assert.Equal(t, protocol.EventAck, events[0].Event)
	assert.Equal(t, int64(1), *events[0].Ack)
	assert.JSONEq(t, `[{"id":"dogfight","playerCount":1,"maxPlayers":8}]`, string(events[0].Data))
}

func TestHandle_CreateRoomAcks(t *testing.T) {
	h := newHarness(t)
	h.connect("a")

	h.send("a", `{"event":"createRoom","ack":1,"data":{"roomId":"lobby"}}`)
	h.send("a", `{"event":"createRoom","ack":2,"data":{"roomId":"lobby"}}`)
	events := h.drain("a")
	require.Len(t, events, 2)
	assert.JSONEq(t, `{"success":true,"roomId":"lobby"}`, string(events[0].Data))
	assert.JSONEq(t, `{"success":false,"error":"Room already exists"}`, string(events[1].Data))
	assert.Equal(t, int64(2), *events[1].Ack)
}

func TestHandle_JoinRoomAckAndFullRoom(t *testing.T) {
	h := newHarness(t, withMaxPlayers(1))
	h.connect("a")
	h.connect("b")

	h.send("a", `{"event":"joinRoom","ack":5,"data":{"roomId":"duel","playerName":"Iceman","aircraftType":"attack"}}`)
	events := h.drain("a")
	require.Len(t, events, 1)
	resp := decode[protocol.JoinRoomResponse](t, events[0])
	assert.True(t, resp.Success)
	assert.Equal(t, "a", resp.PlayerID)
	assert.Equal(t, "Iceman", resp.PlayerData.Name)
	assert.Equal(t, 6, resp.PlayerData.Health)

	h.send("b", `{"event":"joinRoom","ack":6,"data":{"roomId":"duel"}}`)
	events = h.drain("b")
	require.Len(t, events, 1)
	assert.JSONEq(t, `{"success":false,"error":"Room is full"}`, string(events[0].Data))
	assert.Empty(t, h.drain("a"))
}

func TestHandle_LeaveRoomAck(t *testing.T) {
	h := newHarness(t)
	h.join("a", "dogfight", "fighter")
	h.send("a", `{"event":"leaveRoom","ack":9}`)
	events := h.drain("a")
	require.Len(t, events, 1)
	assert.JSONEq(t, `{"success":true}`, string(events[0].Data))
	assert.False(t, h.roomExists("dogfight"))
}

func TestHandle_FireAndForgetEvents(t *testing.T) {
	h := newHarness(t)
	h.join("a", "dogfight", "fighter")
	h.join("b", "dogfight", "fighter")
	h.drain("a")
	h.drain("b")

	h.send("a", `{"event":"playerUpdate","data":{"position":{"x":1,"y":2,"z":3},"rotation":{"x":0,"y":0,"z":0,"w":1},"speed":9}}`)
	h.send("a", `{"event":"shoot","data":{"position":{"x":0,"y":0,"z":0},"velocity":{"x":0,"y":0,"z":1},"bulletType":"cannon","damage":2}}`)
	h.send("a", `{"event":"hitPlayer","data":{"targetId":"b","damage":2,"bulletId":0}}`)
	h.send("a", `{"event":"aaDestroyed","data":{"aaId":0,"damage":3}}`)
	h.send("a", `{"event":"chatMessage","data":"gg"}`)

	assert.Equal(t, []string{
		protocol.EventPlayerMoved,
		protocol.EventBulletSpawned,
		protocol.EventPlayerDamaged,
		protocol.EventAAUnitDestroyed,
		protocol.EventChatMessage,
	}, eventNames(h.drain("b")))
	assert.Equal(t, 3, h.player("dogfight", "b").Health)
	assert.Equal(t, 50, h.player("dogfight", "a").Score)
}

func TestHandle_MalformedFrameKeepsConnection(t *testing.T) {
	h := newHarness(t)
	h.join("a", "dogfight", "fighter")

	h.send("a", `not json`)
	h.send("a", `{"event":"hitPlayer","data":"oops"}`)
	h.send("a", `{"event":"barrelRoll"}`)

	events := h.drain("a")
	require.Len(t, events, 3)
	for _, e := range events {
		assert.Equal(t, protocol.EventError, e.Event)
	}
	assert.Equal(t, "hitPlayer", decode[protocol.Error](t, events[1]).Event)
	assert.Equal(t, "barrelRoll", decode[protocol.Error](t, events[2]).Event)

	h.send("a", `{"event":"getRooms","ack":2}`)
	assert.Len(t, h.drain("a"), 1)
	assert.True(t, h.roomExists("dogfight"))
}

func TestHandle_BadPayloadWithAckGetsFailedAck(t *testing.T) {
	h := newHarness(t)
	h.connect("a")

	h.send("a", `{"event":"joinRoom","ack":7,"data":{"roomId":"x","aircraftType":5}}`)
	events := h.drain("a")
	require.Len(t, events, 2)
	assert.Equal(t, protocol.EventError, events[0].Event)
	assert.Equal(t, protocol.EventAck, events[1].Event)
	require.NotNil(t, events[1].Ack)
	assert.Equal(t, int64(7), *events[1].Ack)
	assert.JSONEq(t, `{"success":false,"error":"Invalid payload"}`, string(events[1].Data))
	assert.False(t, h.roomExists("x"))

	h.send("a", `{"event":"barrelRoll","ack":8}`)
	events = h.drain("a")
	require.Len(t, events, 2)
	assert.Equal(t, int64(8), *events[1].Ack)
	assert.JSONEq(t, `{"success":false,"error":"Unknown event"}`, string(events[1].Data))
}

func TestHandle_NoAckNoReply(t *testing.T) {
	h := newHarness(t)
	h.connect("a")
	h.send("a", `{"event":"createRoom","data":{"roomId":"quiet"}}`)
	assert.Empty(t, h.drain("a"))
	assert.True(t, h.roomExists("quiet"))
}
