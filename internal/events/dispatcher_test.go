package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherDeliversByType(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []EventType
	d.Subscribe(EventLoggedIn, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})
	d.Subscribe(EventLoggedOut, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})

	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventLoggedIn}))
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventProfileEnriched}))
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventLoggedOut}))

	assert.Equal(t, []EventType{EventLoggedIn, EventLoggedOut}, got)
}

func TestDispatcherRunsAllHandlersOnError(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	calls := 0
	d.Subscribe(EventSessionExpired, func(context.Context, Event) error {
		calls++
		return boom
	})
	d.Subscribe(EventSessionExpired, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventSessionExpired})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestDispatcherRecoversPanickingHandler(t *testing.T) {
	d := NewInMemoryDispatcher()

	after := false
	d.Subscribe(EventLoggedOut, func(context.Context, Event) error {
		panic("flash queue gone")
	})
	d.Subscribe(EventLoggedOut, func(context.Context, Event) error {
		after = true
		return nil
	})

	var err error
	assert.NotPanics(t, func() {
		err = d.Publish(context.Background(), Event{Type: EventLoggedOut})
	})
	assert.ErrorContains(t, err, "session_logged_out handler panicked: flash queue gone")
	assert.True(t, after)
}

func TestDispatcherCatchAllRunsAfterTyped(t *testing.T) {
	d := NewInMemoryDispatcher()

	var order []string
	d.SubscribeAll(func(_ context.Context, e Event) error {
		order = append(order, "all:"+string(e.Type))
		return nil
	})
	d.Subscribe(EventLoggedIn, func(context.Context, Event) error {
		order = append(order, "typed")
		return nil
	})

	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventLoggedIn}))
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventSessionExpired}))
	assert.Equal(t, []string{"typed", "all:session_logged_in", "all:session_expired"}, order)
}
