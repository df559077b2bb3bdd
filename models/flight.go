package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// OfferTier ranks an offer inside one airline's price-sorted list.
type OfferTier string

const (
	TierCheap  OfferTier = "cheap"
	TierMiddle OfferTier = "middle"
	TierHigh   OfferTier = "high"
)

// OfferTiers is the display order of tiers.
var OfferTiers = []OfferTier{TierCheap, TierMiddle, TierHigh}

// Label returns the capitalised tier name, e.g. "Cheap".
func (t OfferTier) Label() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// FlightOffer is a single priced one-way offer. Departure and arrival keep
// the provider's local ISO timestamps as-is.
type FlightOffer struct {
	Airline       string          `json:"airline"`
	FlightID      string          `json:"flightId"`
	DepartureTime string          `json:"departureTime"`
	ArrivalTime   string          `json:"arrivalTime"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
}

// AirlineOffers holds up to one offer per tier for a single airline.
type AirlineOffers struct {
	Airline string                    `json:"airline"`
	Tiers   map[OfferTier]FlightOffer `json:"tiers"`
}

// AirlineOfferSet lists airlines in the order they were first encountered
// in the provider response.
type AirlineOfferSet []AirlineOffers

// Empty reports whether no airline has any offer.
func (s AirlineOfferSet) Empty() bool {
	return len(s) == 0
}
