// Package eventbus distributes generation progress events to in-process
// subscribers such as the task status endpoint.
package eventbus

import (
	evbus "github.com/asaskevich/EventBus"
)

// TopicProgress carries (taskID string, percent int) arguments.
const TopicProgress = "generate:progress"

// Bus wraps the process-wide event bus.
type Bus struct {
	bus evbus.Bus
}

func New() *Bus {
	return &Bus{bus: evbus.New()}
}

// PublishProgress reports that a task reached percent terminal progress.
func (b *Bus) PublishProgress(taskID string, percent int) {
	b.bus.Publish(TopicProgress, taskID, percent)
}

// SubscribeProgress registers fn for progress events.
func (b *Bus) SubscribeProgress(fn func(taskID string, percent int)) error {
	return b.bus.Subscribe(TopicProgress, fn)
}

// UnsubscribeProgress removes a previously registered subscriber.
func (b *Bus) UnsubscribeProgress(fn func(taskID string, percent int)) error {
	return b.bus.Unsubscribe(TopicProgress, fn)
}
