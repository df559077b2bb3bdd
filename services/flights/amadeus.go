package flights

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// AmadeusConfig configures the self-service flight-offers API.
type AmadeusConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	OffersURL    string
	Currency     string
	MaxResults   int
	// ExpiryMargin refreshes the bearer token this long before it expires.
	ExpiryMargin time.Duration
	// Timeout bounds each HTTP exchange, including token refreshes.
	Timeout time.Duration
}

const defaultAmadeusTimeout = 15 * time.Second

// withHTTPClient makes oauth2 use a client bounded by cfg.Timeout. Token
// refreshes run outside any request context, so the client timeout is their
// only bound.
func withHTTPClient(ctx context.Context, cfg AmadeusConfig) context.Context {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultAmadeusTimeout
	}
	return context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})
}

// NewTokenSource returns a client-credentials token source shared by all
// sessions. Refresh is serialised inside the oauth2 package.
func NewTokenSource(ctx context.Context, cfg AmadeusConfig) oauth2.TokenSource {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return oauth2.ReuseTokenSourceWithExpiry(nil, cc.TokenSource(withHTTPClient(ctx, cfg)), cfg.ExpiryMargin)
}

// AmadeusSource implements OfferSource against v2/shopping/flight-offers.
type AmadeusSource struct {
	client *http.Client
	cfg    AmadeusConfig
	logger *zap.Logger
}

func NewAmadeusSource(ctx context.Context, cfg AmadeusConfig, logger *zap.Logger) *AmadeusSource {
	return &AmadeusSource{
		client: oauth2.NewClient(withHTTPClient(ctx, cfg), NewTokenSource(ctx, cfg)),
		cfg:    cfg,
		logger: logger,
	}
}

func (a *AmadeusSource) Name() string { return "amadeus" }

type amadeusResponse struct {
	Data []amadeusOffer `json:"data"`
}

type amadeusOffer struct {
	ID                     string             `json:"id"`
	ValidatingAirlineCodes []string           `json:"validatingAirlineCodes"`
	Itineraries            []amadeusItinerary `json:"itineraries"`
	Price                  struct {
		Total    string `json:"total"`
		Currency string `json:"currency"`
	} `json:"price"`
}

type amadeusItinerary struct {
	Segments []struct {
		Departure struct {
			At string `json:"at"`
		} `json:"departure"`
		Arrival struct {
			At string `json:"at"`
		} `json:"arrival"`
	} `json:"segments"`
}

func (a *AmadeusSource) Search(ctx context.Context, q OfferQuery) ([]Offer, error) {
	params := url.Values{}
	params.Set("originLocationCode", q.Origin)
	params.Set("destinationLocationCode", q.Destination)
	params.Set("departureDate", q.DepartureDate)
	params.Set("adults", "1")
	params.Set("currencyCode", a.cfg.Currency)
	params.Set("max", strconv.Itoa(a.cfg.MaxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.OffersURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build offers request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch flight offers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("fetch flight offers: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload amadeusResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode flight offers: %w", err)
	}

	offers := make([]Offer, 0, len(payload.Data))
	for _, raw := range payload.Data {
		offer, err := raw.toOffer()
		if err != nil {
			a.logger.Warn("Skipping malformed flight offer", zap.String("offerId", raw.ID), zap.Error(err))
			continue
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

func (o amadeusOffer) toOffer() (Offer, error) {
	if o.ID == "" {
		return Offer{}, fmt.Errorf("missing id")
	}
	if len(o.ValidatingAirlineCodes) == 0 || o.ValidatingAirlineCodes[0] == "" {
		return Offer{}, fmt.Errorf("missing validating carrier")
	}
	if len(o.Itineraries) == 0 || len(o.Itineraries[0].Segments) == 0 {
		return Offer{}, fmt.Errorf("missing itinerary segments")
	}
	price, err := decimal.NewFromString(o.Price.Total)
	if err != nil {
		return Offer{}, fmt.Errorf("invalid price %q: %w", o.Price.Total, err)
	}

	segments := o.Itineraries[0].Segments
	return Offer{
		ID:          o.ID,
		CarrierCode: o.ValidatingAirlineCodes[0],
		DepartureAt: segments[0].Departure.At,
		ArrivalAt:   segments[len(segments)-1].Arrival.At,
		Price:       price,
		Currency:    o.Price.Currency,
	}, nil
}
