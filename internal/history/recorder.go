// internal/history/recorder.go
package history

import (
	"context"

	"github.com/google/uuid"

	"github.com/titovskiy/NeptunSmart/internal/registers"
	"github.com/titovskiy/NeptunSmart/internal/snapshot"
)

// Recorder stores counter values from snapshots, skipping unchanged ones.
type Recorder struct {
	store *Store
	cache *ValueCache
}

func NewRecorder(store *Store, cache *ValueCache) *Recorder {
	return &Recorder{store: store, cache: cache}
}

// Record stores every counter of snap whose value differs from the cached one.
// All rows of one call share a cycle id. Returns the number of rows stored.
func (r *Recorder) Record(ctx context.Context, snap *snapshot.Snapshot) (int, error) {
	if snap == nil {
		return 0, nil
	}

	cycle := uuid.NewString()
	var rows []Reading

	for i := 1; i <= registers.Counters; i++ {
		key := registers.WaterCounterKey(i)
		v, ok := snap.Float(key)
		if !ok {
			continue
		}
		if last, ok := r.cache.Get(key); ok && last == v {
			continue
		}
		rows = append(rows, Reading{
			CycleID:    cycle,
			Counter:    i,
			Key:        key,
			ValueM3:    v,
			RecordedAt: snap.At,
		})
	}

	if err := r.store.Insert(ctx, rows); err != nil {
		return 0, err
	}
	// cache only what reached the database
	for _, row := range rows {
		r.cache.Set(row.Key, row.ValueM3)
	}
	return len(rows), nil
}
