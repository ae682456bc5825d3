package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventPublisher(t *testing.T) {
	broker := NewMemoryBroker()
	pub := NewEventPublisher(broker, "bee.appointments")
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	pub.now = func() time.Time { return at }

	require.NoError(t, pub.Publish(context.Background(), "appointment.created", map[string]string{"id": "1"}))

	msgs := broker.Messages("bee.appointments")
	require.Len(t, msgs, 1)
	assert.Equal(t, Message{
		Type:       "appointment.created",
		OccurredAt: at,
		Payload:    map[string]string{"id": "1"},
	}, msgs[0])
	assert.Empty(t, broker.Messages("other"))
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), "x", nil))
}
