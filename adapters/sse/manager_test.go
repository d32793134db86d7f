package sse_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"imgnote/adapters/sse"
)

func TestConnectionManager_LocalPublish(t *testing.T) {
	defer goleak.VerifyNone(t)

	cm := sse.NewConnectionManager[Message]()
	cm.Start()
	defer cm.Done()

	ch, err := cm.Subscribe("image-1")
	require.NoError(t, err)

	msg := Message{Data: "summary"}
	require.NoError(t, cm.Publish("image-1", msg))
	require.NoError(t, cm.Publish("image-2", Message{Data: "elsewhere"}))

	select {
	case received := <-ch:
		assert.Equal(t, msg, received)
	case <-time.After(time.Second):
		t.Fatal("did not receive message in time")
	}

	cm.Unsubscribe("image-1", ch)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")
}

func TestConnectionManager_ForwardsFromSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := &fakeSubscriber[sse.PublishRequest[Message]]{ch: make(chan sse.PublishRequest[Message], 1)}
	cm := sse.NewConnectionManager(sse.WithSubscriber[Message](source))
	cm.Start()
	cm.Start()

	ch, err := cm.Subscribe("image-1")
	require.NoError(t, err)

	source.ch <- sse.PublishRequest[Message]{Channel: "image-1", Message: Message{Data: "remote"}}
	select {
	case received := <-ch:
		assert.Equal(t, "remote", received.Data)
	case <-time.After(time.Second):
		t.Fatal("did not receive forwarded message")
	}

	cm.Done()
	cm.Done()
	_, ok := <-ch
	assert.False(t, ok)

	_, err = cm.Subscribe("image-1")
	assert.ErrorIs(t, err, sse.ErrManagerClosed)
	assert.ErrorIs(t, cm.Publish("image-1", Message{}), sse.ErrManagerClosed)
}
