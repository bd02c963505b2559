package redis

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
	"quiz-service/internal/domain"
)

const subscriberBuffer = 8

// AttemptFeed fans out attempt events through Redis pub/sub so that every
// instance behind a load balancer sees every submission.
type AttemptFeed struct {
	client *redis.Client
}

func NewAttemptFeed(client *redis.Client) *AttemptFeed {
	return &AttemptFeed{client: client}
}

func (f *AttemptFeed) Publish(ctx context.Context, event domain.AttemptEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, f.channel(event.QuizID), raw).Err()
}

func (f *AttemptFeed) Subscribe(ctx context.Context, quizID string) (<-chan domain.AttemptEvent, func(), error) {
	pubsub := f.client.Subscribe(ctx, f.channel(quizID))
	// Wait for the subscription confirmation so no publish is missed after return.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan domain.AttemptEvent, subscriberBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(out)
		for msg := range pubsub.Channel() {
			var event domain.AttemptEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("decode attempt event on %s: %v", msg.Channel, err)
				continue
			}
			deliver(out, event)
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = pubsub.Close()
			<-done
		})
	}
	return out, cancel, nil
}

func (f *AttemptFeed) channel(quizID string) string {
	return "quiz:" + quizID + ":attempts"
}

// deliver hands event to a subscriber without blocking the pub/sub reader,
// dropping the oldest buffered event when the subscriber lags.
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
