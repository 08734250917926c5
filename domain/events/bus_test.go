package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var order []int
	bus.Subscribe(EventTypeBetPlaced, func(ctx context.Context, event Event) {
		order = append(order, 1)
	})
	bus.Subscribe(EventTypeBetPlaced, func(ctx context.Context, event Event) {
		order = append(order, 2)
	})

	require.NoError(t, bus.Publish(ctx, BetPlacedEvent{BetID: 1}))
	assert.Equal(t, []int{1, 2}, order)
}

func TestBus_PublishOnlyMatchingType(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var got []EventType
	bus.Subscribe(EventTypeBetResolved, func(ctx context.Context, event Event) {
		got = append(got, event.Type())
	})

	require.NoError(t, bus.Publish(ctx, BetPlacedEvent{BetID: 1}))
	require.NoError(t, bus.Publish(ctx, BetResolvedEvent{BetID: 1}))

	assert.Equal(t, []EventType{EventTypeBetResolved}, got)
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	var got []EventType
	bus.SubscribeAll(func(ctx context.Context, event Event) {
		got = append(got, event.Type())
	})

	require.NoError(t, bus.Publish(ctx, BetPlacedEvent{BetID: 1}))
	require.NoError(t, bus.Publish(ctx, BetExpiredEvent{BetID: 1}))
	require.NoError(t, bus.Publish(ctx, SessionRevokedEvent{}))

	assert.Equal(t, []EventType{EventTypeBetPlaced, EventTypeBetExpired, EventTypeSessionRevoked}, got)
}

func TestBus_PanickingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	delivered := false
	bus.Subscribe(EventTypeBetPlaced, func(ctx context.Context, event Event) {
		panic("handler failure")
	})
	bus.Subscribe(EventTypeBetPlaced, func(ctx context.Context, event Event) {
		delivered = true
	})

	require.NoError(t, bus.Publish(ctx, BetPlacedEvent{BetID: 1}))
	assert.True(t, delivered)
}
