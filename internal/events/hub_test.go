package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishSubscribe(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	h.Publish("hello")
	assert.Equal(t, "hello", <-a)
	assert.Equal(t, "hello", <-b)

	h.Unsubscribe(a)
	h.Unsubscribe(a)
	assert.Equal(t, 1, h.Subscribers())

	_, open := <-a
	assert.False(t, open)
}

func TestHub_DropsForSlowSubscriber(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	for i := 0; i < subscriberBuffer+3; i++ {
		h.Publish("x")
	}
	assert.Equal(t, uint64(3), h.Dropped())
	assert.Len(t, ch, subscriberBuffer)
}

func TestMakeEvent(t *testing.T) {
	raw := MakeEvent("req-1", TypeRunCompleted, 1, RunCompleted{RunID: "r1", Source: "upload", Documents: 2})

	var e Event
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	assert.Equal(t, TypeRunCompleted, e.Type)
	assert.Equal(t, 1, e.Version)
	assert.Equal(t, "req-1", e.RequestID)

	var data RunCompleted
	require.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Equal(t, "r1", data.RunID)
	assert.Equal(t, 2, data.Documents)
}
