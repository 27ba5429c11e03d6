package hub

import (
	"fmt"

	"github.com/ashish-sjc/scribblAI/domain"
)

// BroadcastChat sends "name: text" to every member of the sender's room,
// the sender included. It does nothing for a session that has not joined.
func (h *Hub) BroadcastChat(sessionID, text string) error {
	s, err := h.session(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := h.memberRoom(s)
	if r == nil {
		return nil
	}

	data, err := domain.Encode(domain.TypeChat, nameOr(s.name, "Anon")+": "+text)
	if err != nil {
		return fmt.Errorf("encode chat: %w", err)
	}

	r.mu.Lock()
	h.deliver(r, data, "")
	r.mu.Unlock()
	return nil
}

// BroadcastDraw relays ev to every other member of the sender's room and
// appends it to the room history. It does nothing for a session that has
// not joined.
func (h *Hub) BroadcastDraw(sessionID string, ev domain.DrawEvent) error {
	s, err := h.session(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := h.memberRoom(s)
	if r == nil {
		return nil
	}

	data, err := domain.Encode(domain.TypeDraw, ev)
	if err != nil {
		return fmt.Errorf("encode draw: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h.deliver(r, data, s.id)
	if r.history.push(ev) {
		h.metrics.HistoryEvicted()
	}
	return nil
}

// SnapshotHistory returns a copy of roomID's history in acceptance order.
// Unknown rooms have an empty history.
func (h *Hub) SnapshotHistory(roomID string) []domain.DrawEvent {
	r := h.lookup(roomID)
	if r == nil {
		return []domain.DrawEvent{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.snapshot()
}

// memberRoom returns the room s belongs to, or nil when unbound or closed.
// Caller holds s.mu.
func (h *Hub) memberRoom(s *session) *room {
	if s.closed || s.room == "" {
		return nil
	}
	return h.lookup(s.room)
}
