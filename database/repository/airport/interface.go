package airportRepo

import (
	"context"

	"flightbot/models"
)

// AirportRepository reads airport reference records.
type AirportRepository interface {
	// ListWithIATA returns every record carrying an IATA code, in insertion order.
	ListWithIATA(ctx context.Context) ([]models.Airport, error)
}
