package dialog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flightbot/models"
	"flightbot/services/intelligence"
	"flightbot/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AirportResolver looks up an airport by IATA code.
type AirportResolver interface {
	Resolve(ctx context.Context, code string) (models.Airport, error)
}

// OfferQuerier searches and groups offers. An empty set means no flights.
type OfferQuerier interface {
	Query(ctx context.Context, src, dst models.Airport, departureDate string) models.AirlineOfferSet
}

// Notifier is told about every completed booking.
type Notifier interface {
	BookingConfirmed(ctx context.Context, payload models.BookingConfirmedPayload) error
}

// Turn is one inbound event. Selection is non-nil when the client sent a
// structured menu selection; its value may still be empty.
type Turn struct {
	Text      string
	Selection *string
}

// Config tunes the dialog.
type Config struct {
	// RetryLimit restarts the conversation after this many consecutive failed
	// replies in a collect stage. Zero disables the cap.
	RetryLimit int
	Location   *time.Location
}

// Deps are the collaborators of a Dialog.
type Deps struct {
	Store      SessionStore
	Airports   AirportResolver
	Extractor  intelligence.Extractor
	Classifier intelligence.Classifier
	Offers     OfferQuerier
	Notifier   Notifier
	Logger     *zap.Logger
}

// StoreError wraps a session store failure, the only error Handle returns.
type StoreError struct {
	Op             string
	ConversationID string
	Err            error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("dialog %s %s: %v", e.Op, e.ConversationID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Dialog drives the slot-filling booking conversation. Turns of the same
// conversation run one at a time; different conversations run concurrently.
type Dialog struct {
	store      SessionStore
	airports   AirportResolver
	extractor  intelligence.Extractor
	classifier intelligence.Classifier
	offers     OfferQuerier
	notifier   Notifier
	logger     *zap.Logger
	cfg        Config
	locks      *keyedLocker
	now        func() time.Time
	newID      func() string
}

func New(deps Deps, cfg Config) *Dialog {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dialog{
		store:      deps.Store,
		airports:   deps.Airports,
		extractor:  deps.Extractor,
		classifier: deps.Classifier,
		offers:     deps.Offers,
		notifier:   deps.Notifier,
		logger:     logger,
		cfg:        cfg,
		locks:      newKeyedLocker(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Start opens a new conversation and returns its id and the welcome prompt.
func (d *Dialog) Start(ctx context.Context) (string, []models.Activity, error) {
	id := d.newID()
	sess := newSession(id, d.now())
	if err := d.save(ctx, sess); err != nil {
		return "", nil, err
	}
	d.logger.Info("Conversation started", zap.String("conversationId", id))
	return id, []models.Activity{message(msgWelcome)}, nil
}

// Handle routes one turn into the conversation's current stage. An unknown
// id starts a fresh conversation without consuming the turn.
func (d *Dialog) Handle(ctx context.Context, id string, turn Turn) ([]models.Activity, error) {
	unlock := d.locks.Lock(id)
	defer unlock()

	sess, err := d.store.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		sess = newSession(id, d.now())
		if err := d.save(ctx, sess); err != nil {
			return nil, err
		}
		d.logger.Info("Conversation started", zap.String("conversationId", id))
		return []models.Activity{message(msgWelcome)}, nil
	}
	if err != nil {
		utils.Metrics.ErrorsCount.WithLabelValues("session_load").Inc()
		return nil, &StoreError{Op: "load", ConversationID: id, Err: err}
	}

	utils.Metrics.TurnsHandled.WithLabelValues(string(sess.Stage)).Inc()
	arrived := sess.Stage

	var out []models.Activity
	switch sess.Stage {
	case StageCollectDestination:
		out = d.collectDestination(ctx, sess, turn.Text)
	case StageCollectDate:
		out = d.collectDate(ctx, sess, turn.Text)
	case StageCollectSource:
		out = d.collectSource(ctx, sess, turn.Text)
	case StageConfirm:
		out = d.confirm(ctx, sess, turn.Text)
	case StageSelect:
		out = d.selectFlight(ctx, sess, turn.Selection)
	default:
		d.logger.Warn("Session in unexpected stage, restarting",
			zap.String("conversationId", id),
			zap.String("stage", string(sess.Stage)),
		)
		out = d.restart(sess, "unexpected_stage")
	}

	d.logger.Debug("Turn handled",
		zap.String("conversationId", id),
		zap.String("from", string(arrived)),
		zap.String("to", string(sess.Stage)),
	)

	if sess.Stage == StageComplete {
		if err := d.store.Delete(ctx, id); err != nil {
			utils.Metrics.ErrorsCount.WithLabelValues("session_delete").Inc()
			return nil, &StoreError{Op: "delete", ConversationID: id, Err: err}
		}
		return out, nil
	}
	if err := d.save(ctx, sess); err != nil {
		return nil, err
	}
	return out, nil
}

// Reset drops the conversation's state.
func (d *Dialog) Reset(ctx context.Context, id string) error {
	unlock := d.locks.Lock(id)
	defer unlock()

	if err := d.store.Delete(ctx, id); err != nil {
		return &StoreError{Op: "delete", ConversationID: id, Err: err}
	}
	d.logger.Info("Conversation reset", zap.String("conversationId", id))
	return nil
}

func (d *Dialog) save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = d.now()
	if err := d.store.Save(ctx, sess); err != nil {
		utils.Metrics.ErrorsCount.WithLabelValues("session_save").Inc()
		return &StoreError{Op: "save", ConversationID: sess.ID, Err: err}
	}
	return nil
}

func (d *Dialog) today() time.Time {
	return d.now().In(d.cfg.Location)
}

func (d *Dialog) collectDestination(ctx context.Context, sess *Session, text string) []models.Activity {
	slots := d.extractor.Extract(ctx, text, intelligence.HintDestination)
	dst, ok := d.resolve(ctx, sess.ID, slots.DestinationCode)
	if !ok {
		return d.collectFailed(sess, msgInvalidDestination)
	}
	sess.Slots.Destination = &dst
	sess.advance(StageCollectDate)
	return []models.Activity{message(askDate(&dst))}
}

func (d *Dialog) collectDate(ctx context.Context, sess *Session, text string) []models.Activity {
	slots := d.extractor.Extract(ctx, text, intelligence.HintDate)
	if slots.StartDate == "" {
		return d.collectFailed(sess, msgInvalidDate)
	}
	dates, err := NewDateRange(slots.StartDate, slots.EndDate, d.today())
	if err != nil {
		d.logger.Debug("Rejected extracted dates",
			zap.String("conversationId", sess.ID),
			zap.String("start", slots.StartDate),
			zap.String("end", slots.EndDate),
			zap.Error(err),
		)
		return d.collectFailed(sess, msgInvalidDate)
	}
	sess.Slots.Dates = &dates
	sess.advance(StageCollectSource)
	return []models.Activity{message(msgAskSource)}
}

func (d *Dialog) collectSource(ctx context.Context, sess *Session, text string) []models.Activity {
	slots := d.extractor.Extract(ctx, text, intelligence.HintSource)
	src, ok := d.resolve(ctx, sess.ID, slots.SourceCode)
	if !ok {
		return d.collectFailed(sess, msgInvalidSource)
	}
	sess.Slots.Source = &src
	sess.advance(StageConfirm)
	return []models.Activity{message(summary(sess.Slots))}
}

// collectFailed re-prompts, or restarts once the retry cap is reached.
func (d *Dialog) collectFailed(sess *Session, reprompt string) []models.Activity {
	sess.Attempts++
	if d.cfg.RetryLimit > 0 && sess.Attempts >= d.cfg.RetryLimit {
		out := []models.Activity{message(reprompt), message(msgStartOver)}
		return append(out, d.restart(sess, "retry_limit")...)
	}
	return []models.Activity{message(reprompt)}
}

func (d *Dialog) confirm(ctx context.Context, sess *Session, text string) []models.Activity {
	if d.classifier.IsAffirmative(ctx, text) {
		sess.advance(StageSearch)
		return d.search(ctx, sess)
	}

	var out []models.Activity
	correction := d.extractor.Extract(ctx, text, intelligence.HintCorrection)

	if correction.SourceCode != "" {
		if src, ok := d.resolve(ctx, sess.ID, correction.SourceCode); ok {
			sess.Slots.Source = &src
		} else {
			out = append(out, message(keptAirport(correction.SourceCode, sess.Slots.Source)))
		}
	}
	if correction.DestinationCode != "" {
		if dst, ok := d.resolve(ctx, sess.ID, correction.DestinationCode); ok {
			sess.Slots.Destination = &dst
		} else {
			out = append(out, message(keptAirport(correction.DestinationCode, sess.Slots.Destination)))
		}
	}
	if correction.StartDate != "" || correction.EndDate != "" {
		start := correction.StartDate
		end := correction.EndDate
		if start == "" {
			start = sess.Slots.Dates.Start
		}
		if dates, err := NewDateRange(start, end, d.today()); err == nil {
			sess.Slots.Dates = &dates
		} else {
			out = append(out, message(keptDates(sess.Slots.Dates)))
		}
	}

	return append(out, message(summary(sess.Slots)))
}

func (d *Dialog) search(ctx context.Context, sess *Session) []models.Activity {
	slots := sess.Slots
	set := d.offers.Query(ctx, *slots.Source, *slots.Destination, slots.Dates.Start)
	if set.Empty() {
		d.logger.Info("No flights found",
			zap.String("conversationId", sess.ID),
			zap.String("origin", slots.Source.IATA),
			zap.String("destination", slots.Destination.IATA),
			zap.String("date", slots.Dates.Start),
		)
		out := []models.Activity{message(msgNoFlights)}
		return append(out, d.restart(sess, "no_flights")...)
	}

	menu, index := buildMenu(set)
	sess.Offers = set
	sess.Menu = menu
	sess.MenuIndex = index
	sess.advance(StageSelect)
	return []models.Activity{renderMenu(menu)}
}

func (d *Dialog) selectFlight(ctx context.Context, sess *Session, selection *string) []models.Activity {
	if selection == nil || *selection == "" {
		out := []models.Activity{message(msgNoSelection)}
		return append(out, d.restart(sess, "no_selection")...)
	}

	i, ok := sess.MenuIndex[*selection]
	if !ok || i < 0 || i >= len(sess.Menu) {
		d.logger.Info("Selection not in menu",
			zap.String("conversationId", sess.ID),
			zap.String("selectedFlight", *selection),
		)
		out := []models.Activity{message(msgInvalidSelection)}
		return append(out, d.restart(sess, "invalid_selection")...)
	}

	offer := sess.Menu[i].Offer
	sess.Selected = &offer
	sess.advance(StageComplete)
	utils.Metrics.ConversationsDone.Inc()
	d.notify(ctx, sess)

	return []models.Activity{
		message(bookingThanks(sess.Slots, offer)),
		message(msgConversationReset),
		endOfConversation(),
	}
}

func (d *Dialog) notify(ctx context.Context, sess *Session) {
	if d.notifier == nil {
		return
	}
	payload := models.BookingConfirmedPayload{
		ConversationID: sess.ID,
		Source:         *sess.Slots.Source,
		Destination:    *sess.Slots.Destination,
		StartDate:      sess.Slots.Dates.Start,
		EndDate:        sess.Slots.Dates.End,
		Offer:          *sess.Selected,
		ConfirmedAt:    d.now().UTC().Format(time.RFC3339),
	}
	if err := d.notifier.BookingConfirmed(ctx, payload); err != nil {
		utils.Metrics.ErrorsCount.WithLabelValues("booking_notify").Inc()
		d.logger.Error("Failed to hand off confirmed booking",
			zap.String("conversationId", sess.ID),
			zap.Error(err),
		)
	}
}

// restart clears the session and re-emits the welcome prompt.
func (d *Dialog) restart(sess *Session, reason string) []models.Activity {
	utils.Metrics.Restarts.WithLabelValues(reason).Inc()
	d.logger.Info("Conversation restarted",
		zap.String("conversationId", sess.ID),
		zap.String("reason", reason),
	)
	sess.reset()
	return []models.Activity{message(msgWelcome)}
}

// resolve treats an unavailable directory as a miss for this turn.
func (d *Dialog) resolve(ctx context.Context, conversationID, code string) (models.Airport, bool) {
	if code == "" {
		return models.Airport{}, false
	}
	airport, err := d.airports.Resolve(ctx, code)
	if err != nil {
		d.logger.Debug("Airport lookup failed",
			zap.String("conversationId", conversationID),
			zap.String("code", code),
			zap.Error(err),
		)
		return models.Airport{}, false
	}
	return airport, true
}
