package commands

import (
	"errors"
	"sync"

	"intelstack/internal/domain"
	"intelstack/internal/ports"
)

// ErrWriterClosed is returned by a CatalogWriter after Commit or Rollback
var ErrWriterClosed = errors.New("catalog writer closed")

// CatalogWriter serializes access to one catalog transaction shared by
// concurrent tasks
type CatalogWriter struct {
	mu     sync.Mutex
	tx     ports.CatalogTx
	closed bool
}

// NewCatalogWriter wraps tx
func NewCatalogWriter(tx ports.CatalogTx) *CatalogWriter {
	return &CatalogWriter{tx: tx}
}

// Do runs fn with exclusive access to the transaction
func (w *CatalogWriter) Do(fn func(tx ports.CatalogTx) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	return fn(w.tx)
}

// Commit commits the transaction. Later calls to Do fail.
func (w *CatalogWriter) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true
	return w.tx.Commit()
}

// Rollback discards the transaction. It is a no-op once closed.
func (w *CatalogWriter) Rollback() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.tx.Rollback()
}

type queuedUpsert struct {
	partition domain.Partition
	key       string
	filename  string
	meta      domain.PluginMetadata
}

// UpsertQueue buffers plugin upserts from concurrent tasks until they can be
// applied in one transaction
type UpsertQueue struct {
	mu    sync.Mutex
	items []queuedUpsert
}

// Add queues an upsert keyed like Reconciler.UpsertOne
func (q *UpsertQueue) Add(partition domain.Partition, key, filename string, meta domain.PluginMetadata) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, queuedUpsert{partition: partition, key: key, filename: filename, meta: meta})
}

// Len returns the number of queued upserts
func (q *UpsertQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Apply runs every queued upsert through r in queue order. A failed upsert
// does not stop the rest; its error is returned.
func (q *UpsertQueue) Apply(r *Reconciler) []error {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()

	var failed []error
	for _, it := range items {
		if _, err := r.UpsertOne(it.partition, it.key, it.filename, it.meta); err != nil {
			failed = append(failed, err)
		}
	}
	return failed
}
