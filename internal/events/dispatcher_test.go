package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var escalations, creations int
	d.Subscribe(EventTicketEscalated, func(ctx context.Context, e Event) error {
		escalations++
		return nil
	})
	d.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		creations++
		return nil
	})

	ctx := context.Background()
	assert.NoError(t, d.Publish(ctx, Event{Type: EventTicketEscalated}))
	assert.NoError(t, d.Publish(ctx, Event{Type: EventTicketEscalated}))
	assert.NoError(t, d.Publish(ctx, Event{Type: EventTicketCreated}))

	assert.Equal(t, 2, escalations)
	assert.Equal(t, 1, creations)
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()

	var reached bool
	d.Subscribe(EventAssetStatusChanged, func(ctx context.Context, e Event) error {
		return errors.New("boom")
	})
	d.Subscribe(EventAssetStatusChanged, func(ctx context.Context, e Event) error {
		reached = true
		return nil
	})

	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventAssetStatusChanged}))
	assert.True(t, reached)
}

func TestDispatcherNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketAssigned}))
}
