package dialog

import (
	"fmt"

	"flightbot/models"
)

const (
	msgWelcome            = "Welcome, I will be your flight booking assistant. Where would you like to go?"
	msgInvalidDestination = "Please provide a valid destination airport."
	msgInvalidDate        = "Please provide a valid date or date range."
	msgAskSource          = "Where will you be departing from?"
	msgInvalidSource      = "Please provide a valid source airport."
	msgNoFlights          = "No flights available. Would you like to adjust your search?"
	msgNoSelection        = "No flight was selected. Please try again."
	msgInvalidSelection   = "Invalid selection. Please try again."
	msgConversationReset  = "The conversation will now be reset. Thank you!"
	msgStartOver          = "Let's start over."
	maxMenuAirlines       = 3
)

func message(text string) models.Activity {
	return models.Activity{Type: models.ActivityMessage, Text: text}
}

func endOfConversation() models.Activity {
	return models.Activity{Type: models.ActivityEndOfConversation}
}

func askDate(dst *models.Airport) string {
	return fmt.Sprintf("When would you like to travel to %s?", dst.Name)
}

func summary(slots BookingSlots) string {
	src, dst, dates := slots.Source, slots.Destination, slots.Dates
	return fmt.Sprintf(
		"You would like to fly from %s (%s) to %s (%s) from %s to %s. Is this correct? If not, tell me what to change.",
		src.Name, src.IATA, dst.Name, dst.IATA, dates.Start, dates.End,
	)
}

func bookingThanks(slots BookingSlots, offer models.FlightOffer) string {
	return fmt.Sprintf("Thank you for booking your flight to %s from %s on %s for %s %s.",
		slots.Destination.Name, slots.Source.Name, offer.DepartureTime, offer.Price.StringFixed(2), offer.Currency)
}

func keptAirport(code string, kept *models.Airport) string {
	return fmt.Sprintf("I couldn't find an airport for %s, so I kept %s (%s).", code, kept.Name, kept.IATA)
}

func keptDates(kept *DateRange) string {
	return fmt.Sprintf("That date doesn't work, so I kept %s to %s.", kept.Start, kept.End)
}

// buildMenu takes the first airlines in encounter order and their present
// tiers. An offer shown under several tiers is listed once, under its
// cheapest tier.
func buildMenu(set models.AirlineOfferSet) ([]MenuEntry, map[string]int) {
	var menu []MenuEntry
	index := make(map[string]int)
	for i, airline := range set {
		if i >= maxMenuAirlines {
			break
		}
		for _, tier := range models.OfferTiers {
			offer, ok := airline.Tiers[tier]
			if !ok {
				continue
			}
			if _, dup := index[offer.FlightID]; dup {
				continue
			}
			index[offer.FlightID] = len(menu)
			menu = append(menu, MenuEntry{Airline: airline.Airline, Tier: tier, Offer: offer})
		}
	}
	return menu, index
}

func renderMenu(menu []MenuEntry) models.Activity {
	cards := make([]models.FlightCard, 0, len(menu))
	for i, entry := range menu {
		cards = append(cards, models.FlightCard{
			Airline:       entry.Airline,
			Tier:          entry.Tier,
			Title:         fmt.Sprintf("%s - %s Option", entry.Airline, entry.Tier.Label()),
			FlightID:      entry.Offer.FlightID,
			DepartureTime: entry.Offer.DepartureTime,
			ArrivalTime:   entry.Offer.ArrivalTime,
			Price:         entry.Offer.Price.StringFixed(2),
			Currency:      entry.Offer.Currency,
			Action: models.CardAction{
				Title:          fmt.Sprintf("Select Flight %d", i+1),
				SelectedFlight: entry.Offer.FlightID,
			},
		})
	}
	return models.Activity{Type: models.ActivityCards, Cards: cards}
}
