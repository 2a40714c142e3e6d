package internal

// Sequencer hands out invoice numbers from the durable counter. Numbers
// are unique and strictly increasing under any interleaving because the
// counter only moves under the store lock.
type Sequencer struct {
	store *Store
	saver *Saver
}

func NewSequencer(store *Store, saver *Saver) *Sequencer {
	return &Sequencer{store: store, saver: saver}
}

func (q *Sequencer) Next() int64 {
	q.store.mu.Lock()
	n := q.nextLocked()
	q.store.mu.Unlock()

	q.saver.MarkDirty()
	return n
}

// nextLocked is for callers that already hold the store lock.
func (q *Sequencer) nextLocked() int64 {
	n := q.store.invoiceNext
	q.store.invoiceNext++
	return n
}
