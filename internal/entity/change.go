package entity

import "sync"

// Change classifies what an upsert did to a record.
type Change int

const (
	// Unchanged means the record existed and no field changed.
	Unchanged Change = iota

	// Inserted means no record existed under the key before the write.
	Inserted

	// Updated means the record existed and at least one field changed.
	Updated

	// Failed marks an item that could not be transformed or persisted.
	Failed
)

// String returns the label used in logs and metrics.
func (c Change) String() string {
	switch c {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	case Failed:
		return "failed"
	default:
		return "unchanged"
	}
}

// Tally counts the outcome of every item handled by one sync pass.
// It is safe for concurrent use.
type Tally struct {
	mu sync.Mutex

	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Deleted   int `json:"deleted"`
	Failed    int `json:"failed"`
}

// Record counts one item.
func (t *Tally) Record(c Change) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch c {
	case Inserted:
		t.Inserted++
	case Updated:
		t.Updated++
	case Failed:
		t.Failed++
	default:
		t.Unchanged++
	}
}

// AddDeleted counts records removed by pruning.
func (t *Tally) AddDeleted(n int64) {
	t.mu.Lock()
	t.Deleted += int(n)
	t.mu.Unlock()
}

// Merge adds the counts of other into t.
func (t *Tally) Merge(other *Tally) {
	if other == nil {
		return
	}
	other.mu.Lock()
	ins, upd, same, del, fail := other.Inserted, other.Updated, other.Unchanged, other.Deleted, other.Failed
	other.mu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.Inserted += ins
	t.Updated += upd
	t.Unchanged += same
	t.Deleted += del
	t.Failed += fail
}

// Total returns the number of items recorded, excluding deletions.
func (t *Tally) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Inserted + t.Updated + t.Unchanged + t.Failed
}
