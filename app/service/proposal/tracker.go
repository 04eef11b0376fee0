package proposal

// Tracker holds at most one pending document replacement awaiting user
// confirmation. Proposing while one is pending overwrites it: the UI only
// ever surfaces the latest suggestion, so last write wins.
type Tracker struct {
	pending Proposal
	hasEdit bool
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) Propose(p Proposal) {
	t.pending = p
	t.hasEdit = true
}

func (t *Tracker) Pending() (Proposal, bool) {
	return t.pending, t.hasEdit
}

// Take returns the pending proposal and clears it in one step.
func (t *Tracker) Take() (Proposal, bool) {
	p, ok := t.pending, t.hasEdit
	t.pending = Proposal{}
	t.hasEdit = false
	return p, ok
}

func (t *Tracker) Clear() {
	t.pending = Proposal{}
	t.hasEdit = false
}
