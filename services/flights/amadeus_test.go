package flights

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const offersPayload = `{
  "meta": {"count": 4},
  "data": [
    {
      "id": "1",
      "validatingAirlineCodes": ["DL"],
      "itineraries": [{"segments": [
        {"departure": {"iataCode": "JFK", "at": "2025-06-01T07:00:00"}, "arrival": {"iataCode": "ATL", "at": "2025-06-01T09:40:00"}},
        {"departure": {"iataCode": "ATL", "at": "2025-06-01T10:30:00"}, "arrival": {"iataCode": "LAX", "at": "2025-06-01T12:15:00"}}
      ]}],
      "price": {"currency": "USD", "total": "312.55", "grandTotal": "312.55"}
    },
    {
      "id": "2",
      "validatingAirlineCodes": ["AA"],
      "itineraries": [],
      "price": {"currency": "USD", "total": "120.00"}
    },
    {
      "id": "3",
      "validatingAirlineCodes": ["UA"],
      "itineraries": [{"segments": [
        {"departure": {"iataCode": "JFK", "at": "2025-06-01T15:00:00"}, "arrival": {"iataCode": "LAX", "at": "2025-06-01T18:20:00"}}
      ]}],
      "price": {"currency": "USD", "total": "not-a-number"}
    },
    {
      "id": "4",
      "validatingAirlineCodes": ["UA"],
      "itineraries": [{"segments": [
        {"departure": {"iataCode": "JFK", "at": "2025-06-01T16:00:00"}, "arrival": {"iataCode": "LAX", "at": "2025-06-01T19:20:00"}}
      ]}],
      "price": {"currency": "USD", "total": "199.99"}
    }
  ]
}`

type amadeusFake struct {
	server     *httptest.Server
	tokenCalls atomic.Int32
	expiresIn  int
	lastQuery  atomic.Value
}

func newAmadeusFake(t *testing.T, expiresIn int) *amadeusFake {
	f := &amadeusFake{expiresIn: expiresIn}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "test-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "test-secret", r.PostForm.Get("client_secret"))

		n := f.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"type":"amadeusOAuth2Token","access_token":"token-%d","token_type":"Bearer","expires_in":%d}`, n, f.expiresIn)
	})
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		want := fmt.Sprintf("Bearer token-%d", f.tokenCalls.Load())
		if r.Header.Get("Authorization") != want {
			http.Error(w, `{"errors":[{"status":401}]}`, http.StatusUnauthorized)
			return
		}
		f.lastQuery.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(offersPayload))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *amadeusFake) config(margin time.Duration) AmadeusConfig {
	return AmadeusConfig{
		ClientID:     "test-id",
		ClientSecret: "test-secret",
		TokenURL:     f.server.URL + "/v1/security/oauth2/token",
		OffersURL:    f.server.URL + "/v2/shopping/flight-offers",
		Currency:     "USD",
		MaxResults:   50,
		ExpiryMargin: margin,
	}
}

func TestAmadeusSource_SearchSkipsMalformedOffers(t *testing.T) {
	fake := newAmadeusFake(t, 1799)
	source := NewAmadeusSource(context.Background(), fake.config(time.Minute), zap.NewNop())

	offers, err := source.Search(context.Background(), OfferQuery{Origin: "JFK", Destination: "LAX", DepartureDate: "2025-06-01"})
	require.NoError(t, err)
	require.Len(t, offers, 2)

	assert.Equal(t, "1", offers[0].ID)
	assert.Equal(t, "DL", offers[0].CarrierCode)
	assert.Equal(t, "2025-06-01T07:00:00", offers[0].DepartureAt)
	assert.Equal(t, "2025-06-01T12:15:00", offers[0].ArrivalAt)
	assert.Equal(t, "312.55", offers[0].Price.String())
	assert.Equal(t, "4", offers[1].ID)

	q := fake.lastQuery.Load().(url.Values)
	assert.Equal(t, []string{"JFK"}, q["originLocationCode"])
	assert.Equal(t, []string{"LAX"}, q["destinationLocationCode"])
	assert.Equal(t, []string{"2025-06-01"}, q["departureDate"])
	assert.Equal(t, []string{"1"}, q["adults"])
	assert.Equal(t, []string{"USD"}, q["currencyCode"])
	assert.Equal(t, []string{"50"}, q["max"])
}

func TestAmadeusSource_ReusesTokenUntilMargin(t *testing.T) {
	fake := newAmadeusFake(t, 1799)
	source := NewAmadeusSource(context.Background(), fake.config(time.Minute), zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := source.Search(context.Background(), OfferQuery{Origin: "JFK", Destination: "LAX", DepartureDate: "2025-06-01"})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, fake.tokenCalls.Load())
}

func TestAmadeusSource_RefreshesTokenInsideMargin(t *testing.T) {
	fake := newAmadeusFake(t, 30)
	source := NewAmadeusSource(context.Background(), fake.config(time.Minute), zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := source.Search(context.Background(), OfferQuery{Origin: "JFK", Destination: "LAX", DepartureDate: "2025-06-01"})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, fake.tokenCalls.Load())
}

func TestAmadeusSource_QueryErrorThroughAggregatorIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := AmadeusConfig{
		ClientID:     "test-id",
		ClientSecret: "wrong",
		TokenURL:     srv.URL + "/token",
		OffersURL:    srv.URL + "/offers",
		Currency:     "USD",
		MaxResults:   50,
		ExpiryMargin: time.Minute,
	}
	agg := NewOfferAggregator(NewAmadeusSource(context.Background(), cfg, zap.NewNop()), nil, zap.NewNop(), time.Second)

	set := agg.Query(context.Background(), airport("JFK"), airport("LAX"), "2025-06-01")
	assert.True(t, set.Empty())
}

func TestAmadeusSource_StalledTokenEndpointIsBounded(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	cfg := AmadeusConfig{
		ClientID:     "test-id",
		ClientSecret: "test-secret",
		TokenURL:     srv.URL + "/token",
		OffersURL:    srv.URL + "/offers",
		Currency:     "USD",
		MaxResults:   50,
		ExpiryMargin: time.Minute,
		Timeout:      200 * time.Millisecond,
	}
	agg := NewOfferAggregator(NewAmadeusSource(context.Background(), cfg, zap.NewNop()), nil, zap.NewNop(), 10*time.Second)

	start := time.Now()
	set := agg.Query(context.Background(), airport("JFK"), airport("LAX"), "2025-06-01")

	assert.True(t, set.Empty())
	assert.Less(t, time.Since(start), 2*time.Second)
}
