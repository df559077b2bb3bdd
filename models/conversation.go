package models

// ActivityType is the kind of an outbound conversation event.
type ActivityType string

const (
	ActivityMessage           ActivityType = "message"
	ActivityCards             ActivityType = "cards"
	ActivityEndOfConversation ActivityType = "endOfConversation"
)

// Activity is one outbound event of a turn.
type Activity struct {
	Type  ActivityType `json:"type"`
	Text  string       `json:"text,omitempty"`
	Cards []FlightCard `json:"cards,omitempty"`
}

// FlightCard is one selectable entry of the offer menu.
type FlightCard struct {
	Airline       string     `json:"airline"`
	Tier          OfferTier  `json:"tier"`
	Title         string     `json:"title"`
	FlightID      string     `json:"flightId"`
	DepartureTime string     `json:"departureTime"`
	ArrivalTime   string     `json:"arrivalTime"`
	Price         string     `json:"price"`
	Currency      string     `json:"currency"`
	Action        CardAction `json:"action"`
}

// CardAction is the submit action attached to a card.
type CardAction struct {
	Title          string `json:"title"`
	SelectedFlight string `json:"selectedFlight"`
}

const (
	TurnMessage   = "message"
	TurnSelection = "selection"
)

// TurnRequest is the inbound payload of POST /api/conversations/:id/activities.
type TurnRequest struct {
	Type  string          `json:"type" binding:"required,oneof=message selection"`
	Text  string          `json:"text"`
	Value *SelectionValue `json:"value,omitempty"`
}

// SelectionValue carries the identifier chosen from a rendered menu.
type SelectionValue struct {
	SelectedFlight string `json:"selectedFlight"`
}

// ConversationResponse is returned by every conversation endpoint.
type ConversationResponse struct {
	ConversationID string     `json:"conversationId"`
	Activities     []Activity `json:"activities"`
	Transcript     string     `json:"transcript,omitempty"`
}

// BookingConfirmedPayload is queued when a conversation completes.
type BookingConfirmedPayload struct {
	ConversationID string      `json:"conversationId"`
	Source         Airport     `json:"source"`
	Destination    Airport     `json:"destination"`
	StartDate      string      `json:"startDate"`
	EndDate        string      `json:"endDate"`
	Offer          FlightOffer `json:"offer"`
	ConfirmedAt    string      `json:"confirmedAt"`
}
