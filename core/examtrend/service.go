package examtrend

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrCacheMiss is returned by a Cache that holds no insights for a user.
	ErrCacheMiss = errors.New("insights not cached")
	// ErrStaleInsights is returned by a Cache asked to store insights computed before a write.
	ErrStaleInsights = errors.New("insights computed before the latest write")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		// CreateRecords stores every record or none of them.
		CreateRecords(ctx context.Context, recs []Record) ([]Record, error)
		// QueryRecords returns all the records of a user, latest date first.
		QueryRecords(ctx context.Context, userID string) ([]Record, error)
	}

	// Cache keeps computed insights per user, guarded by a version that every write bumps.
	Cache interface {
		GetInsights(ctx context.Context, userID string) ([]Insight, error)
		Version(ctx context.Context, userID string) (int64, error)
		// SetInsights stores insights computed from records read at version.
		// It returns ErrStaleInsights when a write bumped the version since.
		SetInsights(ctx context.Context, userID string, version int64, insights []Insight) error
		// Invalidate drops the cached insights and bumps the version.
		Invalidate(ctx context.Context, userID string) error
	}

	// Observer is notified of every analysis run.
	Observer interface {
		ObserveAnalysis(records, insights int, elapsed time.Duration)
	}

	Service struct {
		repo     Repository
		analyzer *Analyzer
		cache    Cache
		observer Observer
	}

	ServiceOption func(*Service)
)

// WithCache caches insights between writes.
func WithCache(cache Cache) ServiceOption {
	return func(svc *Service) {
		if cache != nil {
			svc.cache = cache
		}
	}
}

func WithObserver(obs Observer) ServiceOption {
	return func(svc *Service) {
		if obs != nil {
			svc.observer = obs
		}
	}
}

func WithAnalyzer(a *Analyzer) ServiceOption {
	return func(svc *Service) {
		if a != nil {
			svc.analyzer = a
		}
	}
}

func NewService(repo Repository, opts ...ServiceOption) *Service {
	svc := &Service{
		repo:     repo,
		analyzer: NewAnalyzer(),
		cache:    noCache{},
		observer: noObserver{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Create stores a new record and returns it along with the user's updated insights.
// nr must be valid.
func (svc *Service) Create(ctx context.Context, userID string, nr NewRecord) (Record, []Insight, error) {
	rec, err := svc.repo.CreateRecord(ctx, nr.record(userID, NowFunc().UTC()))
	if err != nil {
		return Record{}, nil, errors.Wrap(err, "creating record")
	}
	_ = svc.cache.Invalidate(ctx, userID)

	insights, err := svc.refresh(ctx, userID)
	if err != nil {
		return Record{}, nil, err
	}
	return rec, insights, nil
}

// Import stores several records at once, all or none; every NewRecord must be valid.
func (svc *Service) Import(ctx context.Context, userID string, nrs []NewRecord) ([]Record, []Insight, error) {
	now := NowFunc().UTC()
	recs := make([]Record, len(nrs))
	for i, nr := range nrs {
		recs[i] = nr.record(userID, now)
	}
	recs, err := svc.repo.CreateRecords(ctx, recs)
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating records")
	}
	_ = svc.cache.Invalidate(ctx, userID)

	insights, err := svc.refresh(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return recs, insights, nil
}

// List returns the user's records, latest date first.
func (svc *Service) List(ctx context.Context, userID string) ([]Record, error) {
	recs, err := svc.repo.QueryRecords(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	return recs, nil
}

// Insights returns the user's insights, from the cache when possible.
func (svc *Service) Insights(ctx context.Context, userID string) ([]Insight, error) {
	insights, err := svc.cache.GetInsights(ctx, userID)
	if err == nil {
		return insights, nil
	}
	return svc.refresh(ctx, userID)
}

// refresh analyzes a fresh snapshot of the user's records and caches the result,
// unless a write happened while it ran. Cache failures never fail the request.
func (svc *Service) refresh(ctx context.Context, userID string) ([]Insight, error) {
	version, verErr := svc.cache.Version(ctx, userID)

	recs, err := svc.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	insights := svc.analyze(recs)
	if verErr == nil {
		_ = svc.cache.SetInsights(ctx, userID, version, insights)
	}
	return insights, nil
}

func (svc *Service) analyze(recs []Record) []Insight {
	start := time.Now()
	insights := svc.analyzer.Analyze(recs)
	svc.observer.ObserveAnalysis(len(recs), len(insights), time.Since(start))
	return insights
}

type noCache struct{}

func (noCache) GetInsights(context.Context, string) ([]Insight, error)       { return nil, ErrCacheMiss }
func (noCache) Version(context.Context, string) (int64, error)              { return 0, nil }
func (noCache) SetInsights(context.Context, string, int64, []Insight) error { return nil }
func (noCache) Invalidate(context.Context, string) error                    { return nil }

type noObserver struct{}

func (noObserver) ObserveAnalysis(int, int, time.Duration) {}
