package flights

import (
	"context"
	"sort"
	"time"

	"flightbot/models"
	"flightbot/utils"

	"go.uber.org/zap"
)

// OfferAggregator queries a source and ranks offers per airline.
type OfferAggregator struct {
	source   OfferSource
	carriers *CarrierTable
	logger   *zap.Logger
	timeout  time.Duration
}

func NewOfferAggregator(source OfferSource, carriers *CarrierTable, logger *zap.Logger, timeout time.Duration) *OfferAggregator {
	if carriers == nil {
		carriers = NewCarrierTable(nil)
	}
	return &OfferAggregator{source: source, carriers: carriers, logger: logger, timeout: timeout}
}

// Query returns the grouped offers for a one-way trip on departureDate
// (YYYY-MM-DD). Provider failures are logged and yield an empty set.
func (a *OfferAggregator) Query(ctx context.Context, src, dst models.Airport, departureDate string) models.AirlineOfferSet {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := a.source.Search(ctx, OfferQuery{
		Origin:        src.IATA,
		Destination:   dst.IATA,
		DepartureDate: departureDate,
	})
	utils.Metrics.SearchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		utils.Metrics.ErrorsCount.WithLabelValues("offer_search").Inc()
		a.logger.Error("Error querying flights",
			zap.String("source", a.source.Name()),
			zap.String("origin", src.IATA),
			zap.String("destination", dst.IATA),
			zap.String("departureDate", departureDate),
			zap.Error(err),
		)
		return nil
	}

	offers := make([]models.FlightOffer, 0, len(raw))
	for _, o := range raw {
		offers = append(offers, models.FlightOffer{
			Airline:       a.carriers.DisplayName(o.CarrierCode),
			FlightID:      o.ID,
			DepartureTime: o.DepartureAt,
			ArrivalTime:   o.ArrivalAt,
			Price:         o.Price,
			Currency:      o.Currency,
		})
	}

	set := GroupOffers(offers)
	utils.Metrics.OffersReturned.Observe(float64(len(offers)))
	utils.Metrics.AirlinesReturned.Observe(float64(len(set)))
	a.logger.Debug("Flight offers grouped",
		zap.Int("offers", len(offers)),
		zap.Int("airlines", len(set)),
	)
	return set
}

// GroupOffers groups by airline in first-seen order, sorts each group by
// ascending price (stable) and picks Cheap=0, Middle=n/2, High=n-1.
func GroupOffers(offers []models.FlightOffer) models.AirlineOfferSet {
	var order []string
	groups := make(map[string][]models.FlightOffer)
	for _, o := range offers {
		if _, seen := groups[o.Airline]; !seen {
			order = append(order, o.Airline)
		}
		groups[o.Airline] = append(groups[o.Airline], o)
	}

	set := make(models.AirlineOfferSet, 0, len(order))
	for _, airline := range order {
		group := groups[airline]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Price.LessThan(group[j].Price)
		})

		n := len(group)
		cheap := group[0]
		tiers := map[models.OfferTier]models.FlightOffer{
			models.TierCheap:  cheap,
			models.TierMiddle: pick(group, n/2, cheap),
			models.TierHigh:   pick(group, n-1, cheap),
		}
		set = append(set, models.AirlineOffers{Airline: airline, Tiers: tiers})
	}
	return set
}

func pick(group []models.FlightOffer, i int, fallback models.FlightOffer) models.FlightOffer {
	if i < 0 || i >= len(group) {
		return fallback
	}
	return group[i]
}
