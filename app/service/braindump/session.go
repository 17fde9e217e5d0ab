package braindump

import "sync"

// Session keeps at most one extraction between review and commit.
type Session struct {
	mu      sync.Mutex
	pending *Extraction
}

func (s *Session) Set(ext *Extraction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = ext
}

// Pending returns a copy of the pending extraction.
func (s *Session) Pending() (*Extraction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return nil, false
	}

	return s.pending.clone(), true
}

func (s *Session) Toggle(category Category, index int) (*Extraction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return nil, ErrNothingPending
	}

	if err := s.pending.Toggle(category, index); err != nil {
		return nil, err
	}

	return s.pending.clone(), nil
}

// Take removes and returns the pending extraction.
func (s *Session) Take() (*Extraction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ext := s.pending
	s.pending = nil

	return ext, ext != nil
}

// Discard drops the pending extraction without committing it.
func (s *Session) Discard() {
	s.Set(nil)
}
