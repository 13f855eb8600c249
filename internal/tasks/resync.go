package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/faithadeola/library-system/internal/syncstore"
)

// Resyncer replays the cached state of one entity to one durable store.
// Implemented by the per-entity dual-write stores.
type Resyncer interface {
	Kind() string
	Resync(id int64, target syncstore.Target) error
}

// ResyncStoreTask retries one store write that previously failed or timed
// out. The payload names the entity, not its data: the processor replays
// whatever the cache holds at execution time, so stale retries are harmless.
type ResyncStoreTask struct {
	Kind   string           `json:"kind"`
	ID     int64            `json:"id"`
	Target syncstore.Target `json:"target"`
}

// Config returns the queue configuration for resync tasks.
func (t ResyncStoreTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "resync_store",
		MaxAttempts: 5,
		Backoff:     30 * time.Second,
		Timeout:     1 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ResyncStoreProcessor creates a processor function for ResyncStoreTask.
// stores maps entity kind names to their dual-write stores.
func ResyncStoreProcessor(stores map[string]Resyncer) backlite.QueueProcessor[ResyncStoreTask] {
	return func(ctx context.Context, task ResyncStoreTask) error {
		store, ok := stores[task.Kind]
		if !ok {
			return fmt.Errorf("no store registered for kind %q", task.Kind)
		}
		if err := store.Resync(task.ID, task.Target); err != nil {
			return fmt.Errorf("resync %s %d to %s: %w", task.Kind, task.ID, task.Target, err)
		}
		log.Printf("[TASK] Resynced %s %d to %s store", task.Kind, task.ID, task.Target)
		return nil
	}
}

// NewResyncStoreQueue creates a backlite queue for resync tasks.
func NewResyncStoreQueue(stores map[string]Resyncer) backlite.Queue {
	return backlite.NewQueue(ResyncStoreProcessor(stores))
}

// FailureHook returns a syncstore failure hook that enqueues a resync task
// for every failed durable write.
func FailureHook(client *Client) syncstore.FailureHook {
	return func(kind string, id int64, target syncstore.Target, err error) {
		op := client.Add(ResyncStoreTask{Kind: kind, ID: id, Target: target})
		if _, err := op.Save(); err != nil {
			log.Printf("[TASK ERROR] Failed to enqueue resync of %s %d to %s: %v", kind, id, target, err)
		}
	}
}
