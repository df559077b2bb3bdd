package flights

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// OfferQuery is a one-way, single-adult search.
type OfferQuery struct {
	Origin        string
	Destination   string
	DepartureDate string
}

// Offer is a provider offer before carrier names are applied.
type Offer struct {
	ID          string
	CarrierCode string
	DepartureAt string
	ArrivalAt   string
	Price       decimal.Decimal
	Currency    string
}

// OfferSource searches a flight-offer provider.
type OfferSource interface {
	Name() string
	Search(ctx context.Context, q OfferQuery) ([]Offer, error)
}

type rateLimitedSource struct {
	source  OfferSource
	limiter *rate.Limiter
}

// NewRateLimitedSource spaces calls to source to at most rps per second.
// A non-positive rps disables limiting.
func NewRateLimitedSource(source OfferSource, rps float64) OfferSource {
	if rps <= 0 {
		return source
	}
	return &rateLimitedSource{
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (r *rateLimitedSource) Name() string {
	return r.source.Name()
}

func (r *rateLimitedSource) Search(ctx context.Context, q OfferQuery) ([]Offer, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.source.Search(ctx, q)
}
