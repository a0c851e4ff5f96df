package realtime_test

import (
	"testing"
	"time"

	"blinddate/backend/internal/models"
	"blinddate/backend/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionDeliversEvents(t *testing.T) {
	sub := realtime.NewSubscription(4, nil)

	ev, err := realtime.NewUserEvent(realtime.EventUpdate, &models.User{ID: "u-1", Status: models.StatusMatched})
	require.NoError(t, err)
	sub.Emit(ev)

	select {
	case got := <-sub.Events():
		assert.Equal(t, realtime.EventUpdate, got.Type)
		assert.Equal(t, realtime.TableUsers, got.Table)
		user, err := got.User()
		require.NoError(t, err)
		assert.Equal(t, "u-1", user.ID)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

// TestSubscriptionDropsOnFullBuffer: доставка не блокує транспорт.
func TestSubscriptionDropsOnFullBuffer(t *testing.T) {
	sub := realtime.NewSubscription(1, nil)

	first, err := realtime.NewMessageEvent(realtime.EventInsert, &models.Message{ID: "m-1"})
	require.NoError(t, err)
	second, err := realtime.NewMessageEvent(realtime.EventInsert, &models.Message{ID: "m-2"})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		sub.Emit(first)
		sub.Emit(second) // buffer full, must not block
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}

	got := <-sub.Events()
	msg, err := got.Message()
	require.NoError(t, err)
	assert.Equal(t, "m-1", msg.ID)
	assert.Empty(t, sub.Events())
}

func TestUnsubscribeClosesChannelAndStopsTransport(t *testing.T) {
	stopped := 0
	sub := realtime.NewSubscription(1, func() { stopped++ })

	sub.Unsubscribe()

	_, ok := <-sub.Events()
	assert.False(t, ok, "Events channel should be closed")
	assert.Equal(t, 1, stopped)

	// Повторний виклик — no-op, транспорт зупиняється один раз.
	sub.Unsubscribe()
	assert.Equal(t, 1, stopped)
}

// TestEmitAfterUnsubscribeIsSafe: транспорт може надіслати подію після
// закриття; це не повинно панікувати на закритому каналі.
func TestEmitAfterUnsubscribeIsSafe(t *testing.T) {
	sub := realtime.NewSubscription(1, nil)
	sub.Unsubscribe()

	ev, err := realtime.NewUserEvent(realtime.EventUpdate, &models.User{ID: "u-1"})
	require.NoError(t, err)
	assert.NotPanics(t, func() { sub.Emit(ev) })
}
