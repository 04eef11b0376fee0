package session

import (
	"sync"
	"time"

	"canvasd/app/service/chatlog"
	"canvasd/app/service/document"
	"canvasd/app/service/proposal"

	"github.com/google/uuid"
)

// Session is the explicit per-user context: one document buffer with its
// undo history, one conversation transcript and one pending-edit tracker.
// Nothing is shared between sessions and every operation receives the
// session it acts on. Internals are not thread safe on their own: callers
// hold the session lock for the duration of each operation, which keeps
// the state single threaded even when the transport serves requests
// concurrently.
type Session struct {
	mu sync.Mutex

	ID        string
	CreatedAt time.Time

	Document *document.Store
	Chat     *chatlog.Log
	Tracker  *proposal.Tracker

	documentUpdated bool
}

func (s *Session) Lock() {
	s.mu.Lock()
}

func (s *Session) Unlock() {
	s.mu.Unlock()
}

// MarkDocumentUpdated records that the document buffer changed. Consumed by
// the orchestrator when it builds the next model prompt.
func (s *Session) MarkDocumentUpdated() {
	s.documentUpdated = true
}

func (s *Session) ConsumeDocumentUpdated() bool {
	updated := s.documentUpdated
	s.documentUpdated = false
	return updated
}

func newSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Document:  document.NewStore(),
		Chat:      chatlog.New(),
		Tracker:   proposal.NewTracker(),
	}
}
