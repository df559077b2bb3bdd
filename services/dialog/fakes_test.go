package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"flightbot/models"
	"flightbot/services/airports"
	"flightbot/services/intelligence"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
	failGet  error
	failSave error
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string][]byte)}
}

func (m *memStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	b, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *memStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.sessions[s.ID] = b
	return nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memStore) session(t *testing.T, id string) *Session {
	t.Helper()
	s, err := m.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("session %s: %v", id, err)
	}
	return s
}

type fakeDirectory struct {
	airports map[string]models.Airport
	err      error
}

func (f fakeDirectory) Resolve(ctx context.Context, code string) (models.Airport, error) {
	if f.err != nil {
		return models.Airport{}, f.err
	}
	a, ok := f.airports[code]
	if !ok {
		return models.Airport{}, airports.ErrAirportNotFound
	}
	return a, nil
}

var (
	jfk = models.Airport{IATA: "JFK", Name: "John F Kennedy International Airport", City: "New York"}
	lax = models.Airport{IATA: "LAX", Name: "Los Angeles International Airport", City: "Los Angeles"}
	cdg = models.Airport{IATA: "CDG", Name: "Charles de Gaulle International Airport", City: "Paris"}
	bos = models.Airport{IATA: "BOS", Name: "General Edward Lawrence Logan International Airport", City: "Boston"}
)

func testDirectory() fakeDirectory {
	return fakeDirectory{airports: map[string]models.Airport{"JFK": jfk, "LAX": lax, "CDG": cdg, "BOS": bos}}
}

type extractKey struct {
	text string
	hint intelligence.Hint
}

// scriptedExtractor answers from a table keyed by text and hint.
type scriptedExtractor struct {
	answers map[extractKey]intelligence.PartialSlots
	calls   int
}

func (s *scriptedExtractor) on(text string, hint intelligence.Hint, slots intelligence.PartialSlots) *scriptedExtractor {
	if s.answers == nil {
		s.answers = make(map[extractKey]intelligence.PartialSlots)
	}
	s.answers[extractKey{text, hint}] = slots
	return s
}

func (s *scriptedExtractor) Extract(ctx context.Context, text string, hint intelligence.Hint) intelligence.PartialSlots {
	s.calls++
	return s.answers[extractKey{text, hint}]
}

type setClassifier map[string]bool

func (c setClassifier) IsAffirmative(ctx context.Context, text string) bool {
	return c[text]
}

type stubOffers struct {
	set   models.AirlineOfferSet
	calls int
	date  string
}

func (s *stubOffers) Query(ctx context.Context, src, dst models.Airport, departureDate string) models.AirlineOfferSet {
	s.calls++
	s.date = departureDate
	return s.set
}

type recordingNotifier struct {
	payloads []models.BookingConfirmedPayload
	err      error
}

func (r *recordingNotifier) BookingConfirmed(ctx context.Context, p models.BookingConfirmedPayload) error {
	r.payloads = append(r.payloads, p)
	return r.err
}

func flight(airline, id, price, departure string) models.FlightOffer {
	return models.FlightOffer{
		Airline:       airline,
		FlightID:      id,
		DepartureTime: departure,
		ArrivalTime:   "2025-06-01T20:00:00",
		Price:         decimal.RequireFromString(price),
		Currency:      "USD",
	}
}

func tiers(cheap, middle, high models.FlightOffer) map[models.OfferTier]models.FlightOffer {
	return map[models.OfferTier]models.FlightOffer{
		models.TierCheap:  cheap,
		models.TierMiddle: middle,
		models.TierHigh:   high,
	}
}

func fourAirlines() models.AirlineOfferSet {
	d1 := flight("Delta Airlines", "1", "120.00", "2025-05-23T07:00:00")
	d2 := flight("Delta Airlines", "2", "180.50", "2025-05-23T09:00:00")
	d3 := flight("Delta Airlines", "3", "410.00", "2025-05-23T18:00:00")
	u1 := flight("United Airlines", "7", "150.00", "2025-05-23T10:00:00")
	a1 := flight("Air France", "9", "99.99", "2025-05-23T21:15:00")
	a2 := flight("Air France", "10", "300.00", "2025-05-23T13:00:00")
	x1 := flight("B6", "42", "80.00", "2025-05-23T06:00:00")
	return models.AirlineOfferSet{
		{Airline: "Delta Airlines", Tiers: tiers(d1, d2, d3)},
		{Airline: "United Airlines", Tiers: tiers(u1, u1, u1)},
		{Airline: "Air France", Tiers: tiers(a1, a2, a2)},
		{Airline: "B6", Tiers: tiers(x1, x1, x1)},
	}
}

type harness struct {
	dialog     *Dialog
	store      *memStore
	extractor  *scriptedExtractor
	classifier setClassifier
	offers     *stubOffers
	notifier   *recordingNotifier
}

var fixedNow = time.Date(2025, 5, 20, 14, 30, 0, 0, time.UTC)

func newHarness(retryLimit int) *harness {
	h := &harness{
		store:      newMemStore(),
		extractor:  &scriptedExtractor{},
		classifier: setClassifier{"yes": true, "yes please": true},
		offers:     &stubOffers{set: fourAirlines()},
		notifier:   &recordingNotifier{},
	}
	h.dialog = New(Deps{
		Store:      h.store,
		Airports:   testDirectory(),
		Extractor:  h.extractor,
		Classifier: h.classifier,
		Offers:     h.offers,
		Notifier:   h.notifier,
		Logger:     zap.NewNop(),
	}, Config{RetryLimit: retryLimit, Location: time.UTC})
	h.dialog.now = func() time.Time { return fixedNow }
	h.dialog.newID = func() string { return "conv-1" }
	return h
}

func (h *harness) say(t *testing.T, text string) []models.Activity {
	t.Helper()
	out, err := h.dialog.Handle(context.Background(), "conv-1", Turn{Text: text})
	if err != nil {
		t.Fatalf("Handle(%q): %v", text, err)
	}
	return out
}

func (h *harness) pick(t *testing.T, id *string) []models.Activity {
	t.Helper()
	out, err := h.dialog.Handle(context.Background(), "conv-1", Turn{Selection: id})
	if err != nil {
		t.Fatalf("Handle(selection): %v", err)
	}
	return out
}

// seedConfirm stores a session waiting for confirmation of JFK -> LAX on 2025-06-01.
func (h *harness) seedConfirm(t *testing.T) {
	t.Helper()
	src, dst := jfk, lax
	sess := newSession("conv-1", fixedNow)
	sess.Stage = StageConfirm
	sess.Slots = BookingSlots{Source: &src, Destination: &dst, Dates: &DateRange{Start: "2025-06-01", End: "2025-06-01"}}
	if err := h.store.Save(context.Background(), sess); err != nil {
		t.Fatal(err)
	}
}

func texts(activities []models.Activity) []string {
	var out []string
	for _, a := range activities {
		if a.Type == models.ActivityMessage {
			out = append(out, a.Text)
		}
	}
	return out
}

func strPtr(s string) *string { return &s }

var errRedisDown = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
