package analysis

import (
	"sync"

	domain "github.com/microloan-ai/risk-api/internal/domain/analysis"
)

// subscriber channels are buffered well beyond the number of stages a run
// emits; a consumer that still falls behind is disconnected rather than have
// its events reordered or coalesced.
const subscriberBuffer = 32

// hub fans progress events out to per-analysis listeners. The pipeline task
// owns the producer side; listeners only consume. A listener that connects
// late receives the last known event first, then everything from its
// connection point onward.
type hub struct {
	mu   sync.Mutex
	subs map[domain.AnalysisID]map[int]chan domain.ProgressEvent
	last map[domain.AnalysisID]domain.ProgressEvent
	next int
}

func newHub() *hub {
	return &hub{
		subs: make(map[domain.AnalysisID]map[int]chan domain.ProgressEvent),
		last: make(map[domain.AnalysisID]domain.ProgressEvent),
	}
}

// subscribe registers a listener. The returned cancel func detaches it; the
// run itself is never cancelled by a listener going away.
func (h *hub) subscribe(id domain.AnalysisID) (<-chan domain.ProgressEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan domain.ProgressEvent, subscriberBuffer)
	if ev, ok := h.last[id]; ok {
		ch <- ev
	}
	if h.subs[id] == nil {
		h.subs[id] = make(map[int]chan domain.ProgressEvent)
	}
	h.next++
	token := h.next
	h.subs[id][token] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id][token]; ok {
			delete(h.subs[id], token)
			close(sub)
		}
	}
	return ch, cancel
}

// publish delivers the event to every listener in emit order. A full buffer
// means the listener stopped draining; it gets closed and dropped.
func (h *hub) publish(ev domain.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last[ev.AnalysisID] = ev
	for token, ch := range h.subs[ev.AnalysisID] {
		select {
		case ch <- ev:
		default:
			delete(h.subs[ev.AnalysisID], token)
			close(ch)
		}
	}
}

// closeRun tears down all listeners once the run reaches a terminal state.
func (h *hub) closeRun(id domain.AnalysisID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for token, ch := range h.subs[id] {
		delete(h.subs[id], token)
		close(ch)
	}
	delete(h.subs, id)
	delete(h.last, id)
}
