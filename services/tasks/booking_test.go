package tasks

import (
	"context"
	"encoding/json"
	"testing"

	"flightbot/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func samplePayload() models.BookingConfirmedPayload {
	return models.BookingConfirmedPayload{
		ConversationID: "c-42",
		Source:         models.Airport{IATA: "JFK", Name: "John F Kennedy International Airport"},
		Destination:    models.Airport{IATA: "LAX", Name: "Los Angeles International Airport"},
		StartDate:      "2025-06-01",
		EndDate:        "2025-06-01",
		Offer: models.FlightOffer{
			Airline:       "Delta Airlines",
			FlightID:      "7",
			DepartureTime: "2025-06-01T07:00:00",
			Price:         decimal.RequireFromString("312.55"),
			Currency:      "USD",
		},
		ConfirmedAt: "2025-05-20T14:30:00Z",
	}
}

func TestNewBookingConfirmedTask(t *testing.T) {
	task, opts, err := NewBookingConfirmedTask(samplePayload())
	require.NoError(t, err)

	assert.Equal(t, TypeBookingConfirmed, task.Type())
	assert.Len(t, opts, 3)

	var decoded models.BookingConfirmedPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, "c-42", decoded.ConversationID)
	assert.True(t, decoded.Offer.Price.Equal(decimal.RequireFromString("312.55")))
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.BookingConfirmed(context.Background(), samplePayload()))

	entries := logs.FilterMessage("Booking confirmed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "c-42", fields["conversationId"])
	assert.Equal(t, "312.55", fields["price"])
}
