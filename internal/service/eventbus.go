package service

import (
	"sync"
)

// AllJobs subscribes to the events of every job.
const AllJobs = "*"

type EventPublisher interface {
	Publish(jobID string, event Event)
}

type Event struct {
	Type     string // "status"
	JobID    string
	Status   string
	Progress float64
	Message  string
}

type EventBus struct {
	subscribers map[string][]chan Event
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]chan Event),
	}
}

func (eb *EventBus) Subscribe(jobID string) chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan Event, 16)
	eb.subscribers[jobID] = append(eb.subscribers[jobID], ch)
	return ch
}

func (eb *EventBus) Unsubscribe(jobID string, ch chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subs := eb.subscribers[jobID]
	for i, sub := range subs {
		if sub == ch {
			eb.subscribers[jobID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}

	if len(eb.subscribers[jobID]) == 0 {
		delete(eb.subscribers, jobID)
	}
}

// Publish delivers to the job's subscribers and to AllJobs subscribers.
// Delivery never blocks the publisher.
func (eb *EventBus) Publish(jobID string, event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	event.JobID = jobID
	deliver := func(subs []chan Event) {
		for _, ch := range subs {
			select {
			case ch <- event:
			default:
				// Drop event if subscriber is slow
			}
		}
	}
	deliver(eb.subscribers[jobID])
	if jobID != AllJobs {
		deliver(eb.subscribers[AllJobs])
	}
}
