package room

import (
	"time"
)

// Room is one isolated game session.
//
// Invariant: members holds exactly the keys of players, in join order.
type Room struct {
	ID        string
	CreatedAt time.Time

	players      map[string]*PlayerRecord
	members      []string
	bullets      []*Bullet
	antiAirs     []*AntiAirUnit
	nextBulletID int
}

func newRoom(id string, now time.Time, antiAirs []*AntiAirUnit) *Room {
	return &Room{
		ID:        id,
		CreatedAt: now,
		players:   make(map[string]*PlayerRecord),
		antiAirs:  antiAirs,
	}
}

// PlayerCount returns the number of players in the room.
func (r *Room) PlayerCount() int {
	return len(r.players)
}

// Player returns the record for id.
func (r *Room) Player(id string) (*PlayerRecord, bool) {
	p, ok := r.players[id]
	return p, ok
}

// AddPlayer inserts p, replacing any record with the same id.
//
// Precondition: p must be non-nil with a non-empty ID.
func (r *Room) AddPlayer(p *PlayerRecord) {
	if _, exists := r.players[p.ID]; !exists {
		r.members = append(r.members, p.ID)
	}
	r.players[p.ID] = p
}

// RemovePlayer deletes the record for id.
//
// Postcondition: Returns true iff a record was removed.
func (r *Room) RemovePlayer(id string) bool {
	if _, ok := r.players[id]; !ok {
		return false
	}
	delete(r.players, id)
	for i, m := range r.members {
		if m == id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	return true
}

// Members returns the player ids in join order. The slice is a copy.
func (r *Room) Members() []string {
	return append([]string(nil), r.members...)
}

// Players returns the records in join order.
func (r *Room) Players() []*PlayerRecord {
	out := make([]*PlayerRecord, 0, len(r.members))
	for _, id := range r.members {
		out = append(out, r.players[id])
	}
	return out
}

// Others returns every record except the one for excludeID, keyed by id.
func (r *Room) Others(excludeID string) map[string]*PlayerRecord {
	out := make(map[string]*PlayerRecord, len(r.players))
	for id, p := range r.players {
		if id != excludeID {
			out[id] = p
		}
	}
	return out
}

// NextBulletID returns the next room-scoped bullet id and advances the counter.
//
// Postcondition: successive calls return 0, 1, 2, ...; ids are never reused.
func (r *Room) NextBulletID() int {
	id := r.nextBulletID
	r.nextBulletID++
	return id
}

// AddBullet appends b to the bullet list.
func (r *Room) AddBullet(b *Bullet) {
	r.bullets = append(r.bullets, b)
}

// Bullets returns the live bullet records in spawn order. The slice is a copy.
func (r *Room) Bullets() []*Bullet {
	return append([]*Bullet(nil), r.bullets...)
}

// ExpireBullets drops every bullet whose lifetime has elapsed at now.
//
// Postcondition: survivors keep their relative order; returns the number dropped.
func (r *Room) ExpireBullets(now time.Time) int {
	kept := r.bullets[:0]
	for _, b := range r.bullets {
		if !b.Expired(now) {
			kept = append(kept, b)
		}
	}
	dropped := len(r.bullets) - len(kept)
	for i := len(kept); i < len(r.bullets); i++ {
		r.bullets[i] = nil
	}
	r.bullets = kept
	return dropped
}

// StalePlayers returns the ids of players whose last update is more than
// timeout before now, in join order.
func (r *Room) StalePlayers(now time.Time, timeout time.Duration) []string {
	var stale []string
	for _, id := range r.members {
		if now.Sub(r.players[id].LastUpdate) > timeout {
			stale = append(stale, id)
		}
	}
	return stale
}

// AntiAirs returns the room's AA units in id order.
func (r *Room) AntiAirs() []*AntiAirUnit {
	return r.antiAirs
}

// AntiAir returns the unit with the given id.
func (r *Room) AntiAir(id int) (*AntiAirUnit, bool) {
	for _, aa := range r.antiAirs {
		if aa.ID == id {
			return aa, true
		}
	}
	return nil, false
}
