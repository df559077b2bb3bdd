package airports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"flightbot/models"
)

// HTTPSource loads a bulk JSON document keyed by ICAO identifier, each value
// carrying at least "iata" and "name".
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{url: url, client: client}
}

func (s *HTTPSource) Name() string { return "http" }

type rawAirport struct {
	ICAO    string  `json:"icao"`
	IATA    string  `json:"iata"`
	Name    string  `json:"name"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	TZ      string  `json:"tz"`
}

func (s *HTTPSource) Load(ctx context.Context) ([]models.Airport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build airport request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch airports: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch airports: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return decodeAirportDocument(resp.Body)
}

// decodeAirportDocument streams the top-level object so document order is
// kept; the first record for a duplicated IATA code wins downstream.
func decodeAirportDocument(r io.Reader) ([]models.Airport, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode airports: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("decode airports: expected object, got %v", tok)
	}

	var out []models.Airport
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("decode airports: %w", err)
		}
		var raw rawAirport
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode airports: %w", err)
		}
		if raw.IATA == "" {
			continue
		}
		out = append(out, models.Airport{
			IATA:    raw.IATA,
			ICAO:    raw.ICAO,
			Name:    raw.Name,
			City:    raw.City,
			State:   raw.State,
			Country: raw.Country,
			Lat:     raw.Lat,
			Lon:     raw.Lon,
			TZ:      raw.TZ,
		})
	}
	return out, nil
}
