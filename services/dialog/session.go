package dialog

import (
	"time"

	"flightbot/models"
)

// Stage is the current node of the booking conversation.
type Stage string

const (
	StageCollectDestination Stage = "collect_destination"
	StageCollectDate        Stage = "collect_date"
	StageCollectSource      Stage = "collect_source"
	StageConfirm            Stage = "confirm"
	StageSearch             Stage = "search"
	StageSelect             Stage = "select"
	StageComplete           Stage = "complete"
)

// DateRange is an inclusive range of civil dates in YYYY-MM-DD form.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BookingSlots is the form being filled in. Fields stay nil until resolved.
type BookingSlots struct {
	Source      *models.Airport `json:"source,omitempty"`
	Destination *models.Airport `json:"destination,omitempty"`
	Dates       *DateRange      `json:"dates,omitempty"`
}

// MenuEntry is one rendered card of the offer menu.
type MenuEntry struct {
	Airline string             `json:"airline"`
	Tier    models.OfferTier   `json:"tier"`
	Offer   models.FlightOffer `json:"offer"`
}

// Session is the state of one conversation. Attempts counts consecutive
// failed replies in the current collect stage.
type Session struct {
	ID        string                 `json:"id"`
	Stage     Stage                  `json:"stage"`
	Slots     BookingSlots           `json:"slots"`
	Offers    models.AirlineOfferSet `json:"offers,omitempty"`
	Menu      []MenuEntry            `json:"menu,omitempty"`
	MenuIndex map[string]int         `json:"menuIndex,omitempty"`
	Selected  *models.FlightOffer    `json:"selected,omitempty"`
	Attempts  int                    `json:"attempts"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Stage:     StageCollectDestination,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// reset discards every slot and offer and returns to the first stage.
func (s *Session) reset() {
	s.Stage = StageCollectDestination
	s.Slots = BookingSlots{}
	s.Offers = nil
	s.Menu = nil
	s.MenuIndex = nil
	s.Selected = nil
	s.Attempts = 0
}

func (s *Session) advance(stage Stage) {
	s.Stage = stage
	s.Attempts = 0
}
