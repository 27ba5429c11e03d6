package hub

import "github.com/ashish-sjc/scribblAI/domain"

// history is a FIFO ring of draw events. It grows up to limit and then
// overwrites the oldest entry on every push.
type history struct {
	buf   []domain.DrawEvent
	start int
	limit int
}

func newHistory(limit int) *history {
	return &history{limit: limit}
}

// push appends ev and reports whether the oldest entry was evicted to make room.
func (h *history) push(ev domain.DrawEvent) bool {
	if len(h.buf) < h.limit {
		h.buf = append(h.buf, ev)
		return false
	}
	h.buf[h.start] = ev
	h.start = (h.start + 1) % h.limit
	return true
}

func (h *history) len() int { return len(h.buf) }

// snapshot returns a copy in acceptance order. It is never nil.
func (h *history) snapshot() []domain.DrawEvent {
	out := make([]domain.DrawEvent, len(h.buf))
	n := copy(out, h.buf[h.start:])
	copy(out[n:], h.buf[:h.start])
	return out
}
