package hub

import (
	"sync"
	"time"
)

type room struct {
	id string

	mu         sync.Mutex
	members    map[string]*session
	history    *history
	emptySince time.Time
	removed    bool // set once the sweeper drops the room from the registry
}

func newRoom(id string, historyLimit int, now time.Time) *room {
	return &room{
		id:         id,
		members:    make(map[string]*session),
		history:    newHistory(historyLimit),
		emptySince: now,
	}
}

// fanout queues data on every member except the one with id except and
// returns how many sends failed. Caller holds r.mu.
func (r *room) fanout(data []byte, except string) int {
	failed := 0
	for id, s := range r.members {
		if id == except {
			continue
		}
		if err := s.conn.Send(data); err != nil {
			failed++
		}
	}
	return failed
}

// remove drops a member. Caller holds r.mu.
func (r *room) remove(sessionID string, now time.Time) {
	delete(r.members, sessionID)
	if len(r.members) == 0 {
		r.emptySince = now
	}
}
