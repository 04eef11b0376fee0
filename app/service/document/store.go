package document

// Store holds the working copy of a session's markdown document together
// with its undo history. A session owns exactly one store and serializes
// access through its own lock, so there is no locking here.
type Store struct {
	content   string
	history   History
	listeners []func(content string)
}

func NewStore() *Store {
	return &Store{}
}

// Subscribe registers a listener invoked synchronously after every
// mutation. Listeners are best-effort observers and must not mutate the
// store themselves.
func (s *Store) Subscribe(fn func(content string)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Store) Get() string {
	return s.content
}

// Set replaces the document content. When saveHistory is true the previous
// content is pushed to the undo history first.
func (s *Store) Set(content string, saveHistory bool) {
	if saveHistory {
		s.history.Push(s.content)
	}

	s.content = content
	s.notify()
}

// Undo restores the most recent snapshot. It reports false and leaves the
// document untouched when the history is empty.
func (s *Store) Undo() (string, bool) {
	previous, ok := s.history.Pop()
	if !ok {
		return "", false
	}

	s.content = previous
	s.notify()

	return previous, true
}

func (s *Store) HistoryLen() int {
	return s.history.Len()
}

func (s *Store) notify() {
	for _, fn := range s.listeners {
		fn(s.content)
	}
}
