package chatlog

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	HasEdit bool      `json:"has_edit,omitempty"`
	At      time.Time `json:"at"`
}

// Log is an append-only conversation transcript. Whether a cleared log gets
// reseeded with a configuration turn is the caller's decision, not the
// log's.
type Log struct {
	turns []Turn
}

func New() *Log {
	return &Log{}
}

func (l *Log) Append(turn Turn) {
	if turn.At.IsZero() {
		turn.At = time.Now()
	}

	l.turns = append(l.turns, turn)
}

func (l *Log) Clear() {
	l.turns = nil
}

// All returns a copy of the transcript in insertion order.
func (l *Log) All() []Turn {
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

func (l *Log) Len() int {
	return len(l.turns)
}

// Last returns the most recent turn.
func (l *Log) Last() (Turn, bool) {
	if len(l.turns) == 0 {
		return Turn{}, false
	}
	return l.turns[len(l.turns)-1], true
}
