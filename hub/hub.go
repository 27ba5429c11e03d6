package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ashish-sjc/scribblAI/domain"
	"github.com/ashish-sjc/scribblAI/metrics"
)

// DefaultHistoryLimit bounds the draw events replayed to a new joiner.
const DefaultHistoryLimit = 20000

const maxSweepInterval = time.Minute

type session struct {
	id   string
	conn domain.Connection

	mu     sync.Mutex
	name   string
	room   string
	closed bool
}

// Hub is the room registry and broadcast engine. Lock order is session,
// then room; the registry lock is never held while a room lock is taken
// except by the sweeper, which only inspects rooms.
type Hub struct {
	log          *slog.Logger
	metrics      *metrics.Metrics
	historyLimit int
	idleTTL      time.Duration
	now          func() time.Time

	mu    sync.RWMutex
	rooms map[string]*room

	smu      sync.RWMutex
	sessions map[string]*session
}

type Option func(*Hub)

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithHistoryLimit sets the per-room history bound. Values below 1 are ignored.
func WithHistoryLimit(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.historyLimit = n
		}
	}
}

// WithRoomIdleTTL enables eviction of rooms that stayed empty for d.
// Zero keeps every room for the life of the process.
func WithRoomIdleTTL(d time.Duration) Option {
	return func(h *Hub) { h.idleTTL = d }
}

func New(opts ...Option) *Hub {
	h := &Hub{
		log:          slog.Default(),
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
		rooms:        make(map[string]*room),
		sessions:     make(map[string]*session),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = metrics.New(prometheus.NewRegistry())
	}
	return h
}

// Connect registers an unjoined session for conn and returns its id.
func (h *Hub) Connect(conn domain.Connection) string {
	s := &session{id: conn.ID(), conn: conn}

	h.smu.Lock()
	h.sessions[s.id] = s
	h.smu.Unlock()

	h.metrics.SessionOpened()
	h.log.Debug("session connected", "sessionId", s.id)
	return s.id
}

// Join moves the session into roomID under name. Leaving a previous room
// notifies its remaining members; the joiner gets a welcome line and the
// room's history, and the other members get a join line. Joining the room
// the session is already in only renames it.
func (h *Hub) Join(sessionID, name, roomID string) error {
	s, err := h.session(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}

	prevName, prevRoom := s.name, s.room
	if prevRoom != "" && prevRoom != roomID {
		h.leave(s, prevRoom, fmt.Sprintf("%s left the room", nameOr(prevName, "Someone")))
	}
	s.name = name
	s.room = roomID

	r := h.lockRoom(roomID)
	defer r.mu.Unlock()

	r.members[s.id] = s
	h.sendTo(s, domain.TypeChat, fmt.Sprintf("Welcome %s to %s", name, roomID))
	h.sendTo(s, domain.TypeDrawHistory, r.history.snapshot())

	if prevRoom == roomID {
		h.log.Debug("session renamed", "sessionId", s.id, "room", roomID, "name", name)
		return nil
	}

	if data, err := domain.Encode(domain.TypeChat, name+" joined the room"); err == nil {
		h.deliver(r, data, s.id)
	}
	h.log.Info("session joined", "sessionId", s.id, "room", roomID, "members", len(r.members))
	return nil
}

// Disconnect removes the session and notifies its room. Repeated calls are no-ops.
func (h *Hub) Disconnect(sessionID string) {
	h.smu.Lock()
	s, ok := h.sessions[sessionID]
	delete(h.sessions, sessionID)
	h.smu.Unlock()

	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	h.metrics.SessionClosed()

	if s.room == "" {
		h.log.Debug("session disconnected", "sessionId", s.id)
		return
	}
	h.leave(s, s.room, fmt.Sprintf("%s disconnected", nameOr(s.name, "Someone")))
	h.log.Info("session disconnected", "sessionId", s.id, "room", s.room)
	s.room = ""
}

func (h *Hub) CurrentRoom(sessionID string) (string, bool) {
	s, err := h.session(sessionID)
	if err != nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room, s.room != ""
}

// RoomMembers returns the sorted session ids currently in roomID.
func (h *Hub) RoomMembers(roomID string) []string {
	r := h.lookup(roomID)
	if r == nil {
		return nil
	}
	r.mu.Lock()
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Strings(ids)
	return ids
}

func (h *Hub) Stats() (rooms, sessions int) {
	h.mu.RLock()
	rooms = len(h.rooms)
	h.mu.RUnlock()

	h.smu.RLock()
	sessions = len(h.sessions)
	h.smu.RUnlock()
	return rooms, sessions
}

// Run evicts idle rooms until ctx is done. With eviction disabled it only
// waits for ctx.
func (h *Hub) Run(ctx context.Context) {
	if h.idleTTL <= 0 {
		<-ctx.Done()
		return
	}

	interval := maxSweepInterval
	if h.idleTTL < interval {
		interval = h.idleTTL
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := h.sweep(); n > 0 {
				h.log.Info("idle rooms evicted", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// sweep drops rooms that have been empty for at least idleTTL.
func (h *Hub) sweep() int {
	cutoff := h.now().Add(-h.idleTTL)

	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for id, r := range h.rooms {
		r.mu.Lock()
		if len(r.members) == 0 && !r.emptySince.After(cutoff) {
			r.removed = true
			delete(h.rooms, id)
			removed++
		}
		r.mu.Unlock()
	}
	h.metrics.RoomsRemoved(removed)
	return removed
}

func (h *Hub) session(id string) (*session, error) {
	h.smu.RLock()
	s, ok := h.sessions[id]
	h.smu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSession, id)
	}
	return s, nil
}

func (h *Hub) lookup(roomID string) *room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[roomID]
}

// lockRoom returns roomID locked, creating it if needed. A room evicted
// between lookup and lock is replaced by a fresh one.
func (h *Hub) lockRoom(roomID string) *room {
	for {
		r := h.lookup(roomID)
		if r == nil {
			h.mu.Lock()
			r = h.rooms[roomID]
			if r == nil {
				r = newRoom(roomID, h.historyLimit, h.now())
				h.rooms[roomID] = r
				h.metrics.RoomCreated()
				h.log.Debug("room created", "room", roomID)
			}
			h.mu.Unlock()
		}

		r.mu.Lock()
		if !r.removed {
			return r
		}
		r.mu.Unlock()
	}
}

// leave removes s from roomID and sends notice to whoever is left.
// Caller holds s.mu.
func (h *Hub) leave(s *session, roomID, notice string) {
	r := h.lookup(roomID)
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.remove(s.id, h.now())
	if data, err := domain.Encode(domain.TypeChat, notice); err == nil {
		h.deliver(r, data, "")
	}
}

func (h *Hub) deliver(r *room, data []byte, except string) {
	if failed := r.fanout(data, except); failed > 0 {
		h.metrics.FramesDropped(failed)
		h.log.Debug("frames dropped", "room", r.id, "count", failed)
	}
}

func (h *Hub) sendTo(s *session, typ string, payload any) {
	data, err := domain.Encode(typ, payload)
	if err != nil {
		h.log.Error("encode frame", "sessionId", s.id, "type", typ, "error", err)
		return
	}
	if err := s.conn.Send(data); err != nil {
		h.metrics.FramesDropped(1)
		h.log.Debug("frame dropped", "sessionId", s.id, "type", typ, "error", err)
	}
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
