// Package rates serves the published rate table and supporting macro series.
// Both come from an upstream feed refreshed on a schedule; readers always get
// the last good snapshot.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"origination-engine/internal/config"
	"origination-engine/internal/pkg/apperrors"
)

// Quote is one row of the published rate table.
type Quote struct {
	Program string  `json:"program"`
	Rate    float64 `json:"rate"`
	APR     float64 `json:"apr"`
	Points  float64 `json:"points"`
}

// Sheet is the rate table served by /api/rates.
type Sheet struct {
	Quotes []Quote   `json:"rates"`
	AsOf   time.Time `json:"asOf"`
}

// SeriesPoint is one observation in a macro time series.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Series is one named macro indicator, e.g. the 10-year treasury yield.
type Series struct {
	Name   string        `json:"name"`
	Points []SeriesPoint `json:"points"`
}

type RatesService interface {
	// Current returns the last fetched rate sheet. Before the first
	// successful refresh it returns the built-in placeholder sheet.
	Current() *Sheet

	// MarketData returns the named macro series, served from cache when the
	// feed already answered for it since the last refresh.
	MarketData(ctx context.Context, name string) (*Series, error)

	// Refresh fetches a fresh rate sheet from the upstream feed, with
	// retries, and swaps it in atomically. The cached market series are
	// dropped so the next read refetches them.
	Refresh(ctx context.Context) error
}

type ratesServiceImpl struct {
	feedURL       string
	marketDataURL string
	http          *http.Client
	logger        *slog.Logger

	mu    sync.RWMutex
	sheet *Sheet

	seriesCache *lru.Cache[string, *Series]
}

// placeholderSheet is served until the first feed refresh lands so the rates
// page never renders empty.
var placeholderSheet = &Sheet{
	Quotes: []Quote{
		{Program: "30-Year Fixed", Rate: 6.875, APR: 6.990, Points: 0.5},
		{Program: "15-Year Fixed", Rate: 6.125, APR: 6.250, Points: 0.5},
		{Program: "7/6 ARM", Rate: 6.500, APR: 6.625, Points: 0.5},
		{Program: "FHA 30-Year Fixed", Rate: 6.250, APR: 6.375, Points: 0.5},
	},
}

func NewRatesService(cfg config.RatesConfig, logger *slog.Logger) (RatesService, error) {
	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New[string, *Series](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create market-data cache: %w", err)
	}
	return &ratesServiceImpl{
		feedURL:       cfg.FeedURL,
		marketDataURL: cfg.MarketDataURL,
		http:          &http.Client{Timeout: cfg.FetchTimeout},
		logger:        logger.With("component", "RatesService"),
		sheet:         placeholderSheet,
		seriesCache:   cache,
	}, nil
}

func (s *ratesServiceImpl) Current() *Sheet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sheet
}

func (s *ratesServiceImpl) MarketData(ctx context.Context, name string) (*Series, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: series name is required", apperrors.ErrInvalidArgument)
	}
	if cached, ok := s.seriesCache.Get(name); ok {
		return cached, nil
	}

	var series Series
	url := fmt.Sprintf("%s?series=%s", s.marketDataURL, name)
	if err := s.getJSON(ctx, url, &series); err != nil {
		return nil, err
	}
	if series.Name == "" {
		series.Name = name
	}
	s.seriesCache.Add(name, &series)
	return &series, nil
}

func (s *ratesServiceImpl) Refresh(ctx context.Context) error {
	var sheet Sheet
	err := retry.Do(
		func() error {
			return s.getJSON(ctx, s.feedURL, &sheet)
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn("Rate feed fetch failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: rate feed unavailable: %v", apperrors.ErrUpstream, err)
	}
	if len(sheet.Quotes) == 0 {
		return fmt.Errorf("%w: rate feed returned an empty sheet", apperrors.ErrUpstream)
	}
	if sheet.AsOf.IsZero() {
		sheet.AsOf = time.Now().UTC()
	}

	s.mu.Lock()
	s.sheet = &sheet
	s.mu.Unlock()
	s.seriesCache.Purge()

	s.logger.Info("Rate sheet refreshed", "programs", len(sheet.Quotes), "as_of", sheet.AsOf)
	return nil
}

func (s *ratesServiceImpl) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("feed returned %d: %s", resp.StatusCode, snippet)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
