package airports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"flightbot/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrAirportNotFound      = errors.New("airport not found")
	ErrDirectoryUnavailable = errors.New("airport directory unavailable")
)

// Source performs the bulk load of airport records.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]models.Airport, error)
}

// Directory resolves IATA codes against a lazily loaded, process-wide cache.
// Concurrent first lookups share a single load.
type Directory struct {
	source  Source
	logger  *zap.Logger
	timeout time.Duration

	group  singleflight.Group
	mu     sync.RWMutex
	byIATA map[string]models.Airport
}

func NewDirectory(source Source, logger *zap.Logger, loadTimeout time.Duration) *Directory {
	return &Directory{
		source:  source,
		logger:  logger,
		timeout: loadTimeout,
	}
}

// Resolve returns the airport with the given IATA code, matched case-insensitively.
func (d *Directory) Resolve(ctx context.Context, code string) (models.Airport, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return models.Airport{}, ErrAirportNotFound
	}

	index, err := d.index(ctx)
	if err != nil {
		return models.Airport{}, err
	}
	airport, ok := index[code]
	if !ok {
		return models.Airport{}, ErrAirportNotFound
	}
	return airport, nil
}

// Warm loads the dataset if it is not cached yet.
func (d *Directory) Warm(ctx context.Context) error {
	_, err := d.index(ctx)
	return err
}

// Len reports how many airports are cached; zero before the first load.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byIATA)
}

func (d *Directory) cached() map[string]models.Airport {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.byIATA
}

func (d *Directory) index(ctx context.Context) (map[string]models.Airport, error) {
	if index := d.cached(); index != nil {
		return index, nil
	}

	ch := d.group.DoChan("load", func() (interface{}, error) {
		if index := d.cached(); index != nil {
			return index, nil
		}
		return d.load(ctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(map[string]models.Airport), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, ctx.Err())
	}
}

// load is detached from the caller's cancellation and bounded by the
// directory's own timeout.
func (d *Directory) load(ctx context.Context) (map[string]models.Airport, error) {
	loadCtx := context.WithoutCancel(ctx)
	if d.timeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(loadCtx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	records, err := d.source.Load(loadCtx)
	if err != nil {
		d.logger.Error("Airport directory load failed",
			zap.String("source", d.source.Name()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}

	index := make(map[string]models.Airport, len(records))
	for _, rec := range records {
		code := strings.ToUpper(strings.TrimSpace(rec.IATA))
		if code == "" {
			continue
		}
		if _, dup := index[code]; dup {
			continue
		}
		rec.IATA = code
		index[code] = rec
	}
	if len(index) == 0 {
		d.logger.Error("Airport directory source returned no IATA airports", zap.String("source", d.source.Name()))
		return nil, fmt.Errorf("%w: empty dataset from %s", ErrDirectoryUnavailable, d.source.Name())
	}

	d.mu.Lock()
	d.byIATA = index
	d.mu.Unlock()

	d.logger.Info("Airport directory loaded",
		zap.String("source", d.source.Name()),
		zap.Int("airports", len(index)),
		zap.Duration("took", time.Since(start)),
	)
	return index, nil
}
