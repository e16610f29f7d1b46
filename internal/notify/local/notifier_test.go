package local_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akimon658/twittra/internal/domain"
	"github.com/akimon658/twittra/internal/notify/local"
)

func TestNotifier_DeliversToSubscriber(t *testing.T) {
	n := local.New()
	ch, unsubscribe := n.Subscribe(1)
	defer unsubscribe()

	messageID := domain.NewID()
	n.NotifyMessageUpdated(context.Background(), domain.Message{ID: messageID})

	select {
	case got := <-ch:
		assert.Equal(t, messageID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("expected a delivered message")
	}
}

func TestNotifier_UnsubscribeStopsDelivery(t *testing.T) {
	n := local.New()
	ch, unsubscribe := n.Subscribe(1)
	unsubscribe()

	n.NotifyMessageUpdated(context.Background(), domain.Message{ID: domain.NewID()})

	_, open := <-ch
	assert.False(t, open)
}

func TestNotifier_SlowSubscriberDoesNotBlock(t *testing.T) {
	n := local.New()
	_, unsubscribe := n.Subscribe(0) // unbuffered, never read
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		n.NotifyMessageUpdated(context.Background(), domain.Message{ID: domain.NewID()})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyMessageUpdated blocked on a slow subscriber")
	}
}

func TestNotifier_MultipleSubscribersAllReceive(t *testing.T) {
	n := local.New()
	ch1, unsub1 := n.Subscribe(1)
	ch2, unsub2 := n.Subscribe(1)
	defer unsub1()
	defer unsub2()

	messageID := domain.NewID()
	n.NotifyMessageUpdated(context.Background(), domain.Message{ID: messageID})

	for _, ch := range []<-chan domain.Message{ch1, ch2} {
		select {
		case got := <-ch:
			require.Equal(t, messageID, got.ID)
		case <-time.After(time.Second):
			t.Fatal("expected a delivered message on every subscriber")
		}
	}
}
