package document

const maxSnapshots = 10

// History is a bounded stack of document snapshots. When full, the oldest
// snapshot is evicted on push. Pushing a snapshot equal to the current top
// is a no-op, so mashing an action that doesn't change the document doesn't
// burn undo slots.
type History struct {
	snapshots []string
}

func (h *History) Push(snapshot string) {
	if n := len(h.snapshots); n > 0 && h.snapshots[n-1] == snapshot {
		return
	}

	if len(h.snapshots) >= maxSnapshots {
		h.snapshots = append(h.snapshots[1:], snapshot)
	} else {
		h.snapshots = append(h.snapshots, snapshot)
	}
}

// Pop removes and returns the most recent snapshot.
func (h *History) Pop() (string, bool) {
	if len(h.snapshots) == 0 {
		return "", false
	}

	last := h.snapshots[len(h.snapshots)-1]
	h.snapshots = h.snapshots[:len(h.snapshots)-1]

	return last, true
}

func (h *History) Len() int {
	return len(h.snapshots)
}
