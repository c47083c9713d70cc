package rabbitmq_test

import (
	"testing"
	"time"

	"storefront/pkg/rabbitmq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderEvent_EncodeDecode(t *testing.T) {
	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	event := rabbitmq.OrderEvent{
		Type:          rabbitmq.EventOrderCreated,
		OrderID:       "o-1",
		Status:        "pending",
		Total:         "25.00",
		Items:         3,
		CustomerEmail: "ann@example.com",
		OccurredAt:    at,
	}
	body, err := event.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"type":"order.created"`)

	back, err := rabbitmq.DecodeOrderEvent(body)
	require.NoError(t, err)
	assert.Equal(t, event.OrderID, back.OrderID)
	assert.True(t, at.Equal(back.OccurredAt))

	_, err = rabbitmq.DecodeOrderEvent([]byte("{not json"))
	assert.Error(t, err)
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := rabbitmq.NewClient(rabbitmq.Config{URL: "not-a-url"})
	assert.Error(t, err)
}
