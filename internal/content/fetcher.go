package content

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/stress-dost/internal/apperr"
)

// #region config
// FetcherConfig configures the content API client.
type FetcherConfig struct {
	URL         string
	Timeout     time.Duration
	CacheSize   int
	CacheTTL    time.Duration
	Concurrency int
	Headers     map[string]string
}

// DefaultFetcherConfig returns the production content API settings.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		URL:         "https://api.acadza.in/question/details",
		Timeout:     10 * time.Second,
		CacheSize:   512,
		CacheTTL:    time.Hour,
		Concurrency: 4,
		Headers: map[string]string{
			"Accept":          "application/json",
			"Accept-Language": "en-GB,en-US;q=0.9,en;q=0.8,hi;q=0.7",
			"Origin":          "https://www.acadza.com",
			"Referer":         "https://www.acadza.com/",
		},
	}
}

// #endregion config

// #region fetcher
type cacheEntry struct {
	raw      RawQuestion
	storedAt time.Time
}

// Fetcher loads raw questions from the content API, caching successes.
type Fetcher struct {
	config FetcherConfig
	client *http.Client
	cache  *lru.Cache[string, cacheEntry]
	logger *zap.Logger
	now    func() time.Time
}

// NewFetcher builds a fetcher. A nil client gets one with the configured timeout.
func NewFetcher(config FetcherConfig, client *http.Client, logger *zap.Logger) (*Fetcher, error) {
	if config.CacheSize <= 0 {
		config.CacheSize = DefaultFetcherConfig().CacheSize
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.New[string, cacheEntry](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create question cache: %w", err)
	}
	return &Fetcher{
		config: config,
		client: client,
		cache:  cache,
		logger: logger.Named("content"),
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source used for cache expiry.
func (f *Fetcher) WithClock(now func() time.Time) *Fetcher {
	f.now = now
	return f
}

// Fetch returns one raw question, from cache when fresh.
func (f *Fetcher) Fetch(ctx context.Context, id string) (RawQuestion, error) {
	if entry, ok := f.cache.Get(id); ok {
		if f.config.CacheTTL <= 0 || f.now().Sub(entry.storedAt) < f.config.CacheTTL {
			return entry.raw, nil
		}
		f.cache.Remove(id)
	}

	raw, err := f.fetchRemote(ctx, id)
	if err != nil {
		return RawQuestion{}, err
	}
	f.cache.Add(id, cacheEntry{raw: raw, storedAt: f.now()})
	return raw, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, id string) (RawQuestion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.config.URL, bytes.NewReader([]byte("{}")))
	if err != nil {
		return RawQuestion{}, apperr.ContentFetch("build question request", err)
	}
	for k, v := range f.config.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("questionId", id)

	resp, err := f.client.Do(req)
	if err != nil {
		return RawQuestion{}, apperr.ContentFetch("fetch question "+id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return RawQuestion{}, apperr.ContentFetch(fmt.Sprintf("fetch question %s: status %d", id, resp.StatusCode), nil)
	}
	var raw RawQuestion
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return RawQuestion{}, apperr.ContentFetch("decode question "+id, err)
	}
	if raw.ID == "" {
		raw.ID = id
	}
	return raw, nil
}

// FetchMany fetches ids in parallel, keeps request order and skips failures.
// It only errors when the context is cancelled.
func (f *Fetcher) FetchMany(ctx context.Context, ids []string) ([]RawQuestion, error) {
	results := make([]*RawQuestion, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.config.Concurrency)

	for i, id := range ids {
		g.Go(func() error {
			raw, err := f.Fetch(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				f.logger.Warn("question fetch failed", zap.String("question_id", id), zap.Error(err))
				return nil
			}
			results[i] = &raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}

	out := make([]RawQuestion, 0, len(ids))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	f.logger.Info("fetched questions", zap.Int("fetched", len(out)), zap.Int("requested", len(ids)))
	return out, nil
}

// LoadFormatted fetches ids and formats the survivors in order.
func (f *Fetcher) LoadFormatted(ctx context.Context, ids []string) ([]Question, error) {
	raws, err := f.FetchMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Question, len(raws))
	for i, r := range raws {
		out[i] = Format(r, i)
	}
	return out, nil
}

// #endregion fetcher

// #region ids
// LoadIDs reads the question_id column of a CSV file.
func LoadIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open question ids: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read question id header: %w", err)
	}
	col := -1
	for i, h := range header {
		if strings.TrimSpace(h) == "question_id" {
			col = i
		}
	}
	if col == -1 {
		return nil, fmt.Errorf("question id csv %s has no question_id column", path)
	}

	var ids []string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read question ids: %w", err)
		}
		if col < len(rec) {
			if id := strings.TrimSpace(rec[col]); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// SampleIDs picks n distinct ids. With fewer than n available it returns all
// of them in their original order.
func SampleIDs(ids []string, n int, rng *rand.Rand) []string {
	if n >= len(ids) {
		return append([]string(nil), ids...)
	}
	perm := rng.Perm(len(ids))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = ids[perm[i]]
	}
	return out
}

// #endregion ids
