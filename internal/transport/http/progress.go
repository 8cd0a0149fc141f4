package http

import (
	"sync"
	"time"

	"github.com/mengzhisuoliu/easyVoice/internal/domain/eventbus"
)

// finishedRetention is how long a completed task stays queryable before its
// entry is dropped.
const finishedRetention = 5 * time.Minute

// ProgressTracker is the read model behind the task status endpoint. It
// mirrors progress events into a map that never regresses per task. Completed
// tasks are kept for a retention window so late polls still see 100, then
// evicted so the map does not grow with the process lifetime.
type ProgressTracker struct {
	mu       sync.RWMutex
	tasks    map[string]int
	finished map[string]time.Time

	now func() time.Time
}

func NewProgressTracker(bus *eventbus.Bus) (*ProgressTracker, error) {
	tracker := &ProgressTracker{
		tasks:    make(map[string]int),
		finished: make(map[string]time.Time),
		now:      time.Now,
	}
	if err := bus.SubscribeProgress(tracker.record); err != nil {
		return nil, err
	}
	return tracker, nil
}

func (t *ProgressTracker) record(taskID string, percent int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweepLocked()
	if percent > t.tasks[taskID] {
		t.tasks[taskID] = percent
	}
	if t.tasks[taskID] >= 100 {
		if _, ok := t.finished[taskID]; !ok {
			t.finished[taskID] = t.now()
		}
	}
}

// sweepLocked drops completed tasks past the retention window. Caller holds mu.
func (t *ProgressTracker) sweepLocked() {
	cutoff := t.now().Add(-finishedRetention)
	for taskID, doneAt := range t.finished {
		if doneAt.Before(cutoff) {
			delete(t.finished, taskID)
			delete(t.tasks, taskID)
		}
	}
}

// Percent reports the last seen progress for a task.
func (t *ProgressTracker) Percent(taskID string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	percent, ok := t.tasks[taskID]
	return percent, ok
}
