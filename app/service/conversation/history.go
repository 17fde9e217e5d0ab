package conversation

import (
	"log/slog"
	"sync"
	"time"
)

// Transcript is the append-only conversational memory of one assistant session.
type Transcript struct {
	mu    sync.RWMutex
	turns []Turn
	now   func() time.Time

	subsMu sync.Mutex
	nextID int
	subs   map[int]chan Turn
}

func NewTranscript() *Transcript {
	return &Transcript{
		now:  time.Now,
		subs: make(map[int]chan Turn),
	}
}

// Append stores a copy of the turn and notifies subscribers. Returns the stored turn.
func (t *Transcript) Append(turn Turn) Turn {
	stored := turn.clone()
	if stored.At.IsZero() {
		stored.At = t.now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.turns = append(t.turns, stored)
	t.publish(stored)

	return stored.clone()
}

func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]Turn, len(t.turns))
	for i, turn := range t.turns {
		result[i] = turn.clone()
	}

	return result
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.turns)
}

func (t *Transcript) Last() (Turn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.turns) == 0 {
		return Turn{}, false
	}

	return t.turns[len(t.turns)-1].clone(), true
}

// Subscribe delivers every turn appended after the call. A subscriber that falls
// behind by more than buffer turns misses turns rather than blocking appends.
func (t *Transcript) Subscribe(buffer int) (<-chan Turn, func()) {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()

	id := t.nextID
	t.nextID++

	ch := make(chan Turn, buffer)
	t.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			t.subsMu.Lock()
			defer t.subsMu.Unlock()

			delete(t.subs, id)
			close(ch)
		})
	}

	return ch, cancel
}

// Follow is Subscribe that also returns the turns appended so far. No turn is
// both in the history and delivered on the channel.
func (t *Transcript) Follow(buffer int) ([]Turn, <-chan Turn, func()) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	history := make([]Turn, len(t.turns))
	for i, turn := range t.turns {
		history[i] = turn.clone()
	}

	ch, cancel := t.Subscribe(buffer)

	return history, ch, cancel
}

func (t *Transcript) publish(turn Turn) {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()

	for id, ch := range t.subs {
		select {
		case ch <- turn.clone():
		default:
			slog.Warn("Transcript subscriber is full, dropping turn", "subscriber", id)
		}
	}
}
