// Package protocol defines the JSON frames exchanged with game clients over
// the WebSocket transport, and the conversions from room state to wire form.
package protocol

// Inbound event names.
const (
	EventGetRooms     = "getRooms"
	EventCreateRoom   = "createRoom"
	EventJoinRoom     = "joinRoom"
	EventLeaveRoom    = "leaveRoom"
	EventPlayerUpdate = "playerUpdate"
	EventShoot        = "shoot"
	EventHitPlayer    = "hitPlayer"
	EventAADestroyed  = "aaDestroyed"
	EventChatMessage  = "chatMessage"
)

// Outbound event names. EventChatMessage is used in both directions.
const (
	EventAck             = "ack"
	EventError           = "error"
	EventPlayerJoined    = "playerJoined"
	EventPlayerLeft      = "playerLeft"
	EventPlayerMoved     = "playerMoved"
	EventBulletSpawned   = "bulletSpawned"
	EventPlayerDamaged   = "playerDamaged"
	EventPlayerKilled    = "playerKilled"
	EventPlayerRespawned = "playerRespawned"
	EventScoreUpdate     = "scoreUpdate"
	EventAAUnitDestroyed = "aaUnitDestroyed"
)

// Ack error strings returned to clients.
const (
	ErrTextRoomExists     = "Room already exists"
	ErrTextRoomFull       = "Room is full"
	ErrTextRoomIDRequired = "Room id required"
	ErrTextNotConnected   = "Not connected"
	ErrTextInvalidPayload = "Invalid payload"
	ErrTextUnknownEvent   = "Unknown event"
)
