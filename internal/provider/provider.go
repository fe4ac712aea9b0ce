// Package provider resolves the day's flight dataset: today's cache file
// if one exists, otherwise a fresh API fetch persisted as the new cache
// file, degrading to the latest stale cache when the API yields nothing.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/claudian37/lax-flights-dashboard/internal/client"
	"github.com/claudian37/lax-flights-dashboard/internal/models"
	"github.com/claudian37/lax-flights-dashboard/internal/observability"
	"github.com/claudian37/lax-flights-dashboard/internal/store"
)

// ErrNoDataSource means neither a cache file nor the API could produce a
// dataset. The dashboard cannot render; callers should abort startup.
var ErrNoDataSource = errors.New("no dataset available: no cache file and API returned no data")

// Provider loads the dataset once and holds it for the process lifetime.
// A stale view beats a crash: any fetch failure falls back to the most
// recent cache file when one exists.
type Provider struct {
	client  client.SchedulesClient
	store   *store.Store
	airport string
	logger  *zap.Logger
	now     func() time.Time

	dataset *models.Dataset // memoized; single in-process consumer, no lock
}

// New returns a Provider for the given airport.
func New(c client.SchedulesClient, s *store.Store, airport string, logger *zap.Logger) *Provider {
	return &Provider{
		client:  c,
		store:   s,
		airport: airport,
		logger:  logger,
		now:     time.Now,
	}
}

// Dataset returns the process-wide dataset, loading it on first call.
// Subsequent calls return the same value without touching disk or
// network; only a process restart invalidates it.
func (p *Provider) Dataset(ctx context.Context) (*models.Dataset, error) {
	if p.dataset != nil {
		return p.dataset, nil
	}

	ds, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	p.dataset = ds
	observability.DatasetRecords.Set(float64(len(ds.Records)))
	return ds, nil
}

// load implements the freshness decision. The date is evaluated once, at
// load time, so a process straddling midnight keeps serving the dataset
// it started with.
func (p *Provider) load(ctx context.Context) (*models.Dataset, error) {
	today := p.now()

	latest, haveCache, err := p.store.Latest(p.airport)
	if err != nil {
		// A broken scan is treated like an empty cache: the API path is
		// still available.
		p.logger.Warn("cache scan failed", zap.String("dir", p.store.Dir()), zap.Error(err))
		haveCache = false
	}

	if haveCache && sameDate(latest.Date, today) {
		ds, err := p.store.Read(latest)
		if err == nil {
			observability.CacheFileReadsTotal.WithLabelValues("fresh").Inc()
			p.logger.Info("loaded today's cache file",
				zap.String("path", latest.Path),
				zap.Int("records", len(ds.Records)))
			return ds, nil
		}
		observability.CacheFileReadsTotal.WithLabelValues("error").Inc()
		p.logger.Warn("today's cache file unreadable, refetching",
			zap.String("path", latest.Path), zap.Error(err))
	}

	fetchTime := p.now()
	records, fetchErr := p.client.GetSchedules(ctx, p.airport)
	if fetchErr == nil && len(records) == 0 {
		fetchErr = client.ErrEmptyResponse
	}
	if fetchErr != nil {
		p.logger.Error("schedules API yielded no data", zap.String("airport", p.airport), zap.Error(fetchErr))
		if haveCache {
			return p.fallback(latest, fetchErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrNoDataSource, fetchErr)
	}

	ds := &models.Dataset{
		Airport:   p.airport,
		Records:   records,
		FetchTime: fetchTime,
	}

	path, err := p.store.Write(p.airport, today, ds)
	if err != nil {
		// The in-memory dataset is still good; only tomorrow's reuse is lost.
		p.logger.Warn("persist cache file failed", zap.Error(err))
	} else {
		observability.CacheFileWritesTotal.Inc()
		p.logger.Info("fetched and cached today's dataset",
			zap.String("path", path),
			zap.Int("records", len(ds.Records)))
	}
	return ds, nil
}

// fallback serves the latest cache file even though its date is stale.
func (p *Provider) fallback(latest store.CacheRef, cause error) (*models.Dataset, error) {
	ds, err := p.store.Read(latest)
	if err != nil {
		observability.CacheFileReadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: fallback cache %s unreadable: %v", ErrNoDataSource, latest.Path, err)
	}
	ds.Stale = true
	observability.CacheFileReadsTotal.WithLabelValues("stale_fallback").Inc()
	observability.StaleFallbacksTotal.Inc()
	p.logger.Info("serving stale cache file",
		zap.String("path", latest.Path),
		zap.Time("cacheDate", latest.Date),
		zap.NamedError("cause", cause))
	return ds, nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
