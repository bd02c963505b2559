package memory

import (
	"context"
	"sync"

	"quiz-service/internal/domain"
)

const subscriberBuffer = 8

// AttemptFeed is an in-process implementation of app.AttemptFeed. Events only
// reach subscribers of the same process.
type AttemptFeed struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.AttemptEvent]struct{}
}

func NewAttemptFeed() *AttemptFeed {
	return &AttemptFeed{
		subscribers: make(map[string]map[chan domain.AttemptEvent]struct{}),
	}
}

func (f *AttemptFeed) Publish(_ context.Context, event domain.AttemptEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[event.QuizID] {
		deliver(ch, event)
	}
	return nil
}

func (f *AttemptFeed) Subscribe(_ context.Context, quizID string) (<-chan domain.AttemptEvent, func(), error) {
	ch := make(chan domain.AttemptEvent, subscriberBuffer)

	f.mu.Lock()
	subs, ok := f.subscribers[quizID]
	if !ok {
		subs = make(map[chan domain.AttemptEvent]struct{})
		f.subscribers[quizID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs, ok := f.subscribers[quizID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(f.subscribers, quizID)
		}
	}
	return ch, cancel, nil
}

// Subscribers reports how many live subscriptions a quiz has.
func (f *AttemptFeed) Subscribers(quizID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers[quizID])
}

// deliver sends event without blocking; when the subscriber is behind, the
// oldest buffered event is dropped to make room.
func deliver(ch chan domain.AttemptEvent, event domain.AttemptEvent) {
	select {
	case ch <- event:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
	}
}
