package airports

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const airportsDocument = `{
  "00AK": {"icao": "00AK", "iata": "", "name": "Lowell Field", "city": "Anchor Point", "state": "Alaska", "country": "US", "elevation": 450, "lat": 59.94919968, "lon": -151.695999146, "tz": "America/Anchorage"},
  "LFPG": {"icao": "LFPG", "iata": "CDG", "name": "Charles de Gaulle International Airport", "city": "Paris", "state": "Ile-de-France", "country": "FR", "elevation": 392, "lat": 49.0127983093, "lon": 2.5499999523, "tz": "Europe/Paris"},
  "KJFK": {"icao": "KJFK", "iata": "JFK", "name": "John F Kennedy International Airport", "city": "New York", "state": "New-York", "country": "US", "elevation": 13, "lat": 40.6398010254, "lon": -73.7789001465, "tz": "America/New_York"},
  "ZZZZ": {"icao": "ZZZZ", "iata": "CDG", "name": "Later duplicate", "city": "", "state": "", "country": "", "elevation": 0, "lat": 0, "lon": 0, "tz": ""}
}`

func TestHTTPSource_LoadKeepsDocumentOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(airportsDocument))
	}))
	defer srv.Close()

	records, err := NewHTTPSource(srv.URL, srv.Client()).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "CDG", records[0].IATA)
	assert.Equal(t, "Paris", records[0].City)
	assert.InDelta(t, 49.0128, records[0].Lat, 0.001)
	assert.Equal(t, "JFK", records[1].IATA)
	assert.Equal(t, "Later duplicate", records[2].Name)
}

func TestHTTPSource_DirectoryResolvesFirstDuplicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(airportsDocument))
	}))
	defer srv.Close()

	dir := NewDirectory(NewHTTPSource(srv.URL, srv.Client()), zap.NewNop(), time.Second)
	cdg, err := dir.Resolve(context.Background(), "cdg")
	require.NoError(t, err)
	assert.Equal(t, "Charles de Gaulle International Airport", cdg.Name)
}

func TestHTTPSource_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, srv.Client()).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestHTTPSource_MalformedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1, 2, 3]`))
	}))
	defer srv.Close()

	dir := NewDirectory(NewHTTPSource(srv.URL, srv.Client()), zap.NewNop(), time.Second)
	_, err := dir.Resolve(context.Background(), "JFK")
	assert.ErrorIs(t, err, ErrDirectoryUnavailable)
}
