package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_ReceivesEmittedEvent(t *testing.T) {
	b := New()
	ch := b.Subscribe(TopicDataCollected)

	b.Emit(TopicDataCollected, map[string]any{"device_id": "host1"})

	select {
	case evt := <-ch:
		assert.Equal(t, TopicDataCollected, evt.Topic)
		payload, ok := evt.Payload.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "host1", payload["device_id"])
	case <-time.After(time.Second):
		t.Fatal("expected event was not received")
	}
}

func TestEmit_DoesNotCrossTopics(t *testing.T) {
	b := New()
	ch := b.Subscribe(TopicFileChanged)

	b.Emit(TopicDataCollected, "x")

	select {
	case <-ch:
		t.Fatal("unexpected event on unrelated topic")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmit_FanOutToMultipleSubscribers(t *testing.T) {
	b := New()
	a := b.Subscribe(TopicDataCollected)
	c := b.Subscribe(TopicDataCollected)

	b.Emit(TopicDataCollected, "x")

	for _, ch := range []<-chan Event{a, c} {
		select {
		case evt := <-ch:
			assert.Equal(t, "x", evt.Payload)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestEmit_DropsWhenSubscriberBufferFull(t *testing.T) {
	b := New()
	ch := b.Subscribe(TopicDataCollected)

	for i := 0; i < 64; i++ {
		b.Emit(TopicDataCollected, i)
	}

	// Buffer size is 32; Emit must never block regardless of backlog.
	assert.LessOrEqual(t, len(ch), 32)
}
