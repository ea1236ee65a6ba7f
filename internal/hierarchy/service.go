package hierarchy

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/l0p7/regiond/internal/cache"
	"github.com/l0p7/regiond/internal/metrics"
)

// Request carries one lookup after boundary validation.
type Request struct {
	RootID   int64
	Level    *int
	Language string
}

// Service resolves hierarchy requests through the result cache. One instance
// is constructed at startup with the configured TTL and capacity; there is no
// ambient global state.
type Service struct {
	store      Store
	resolver   *Resolver
	translator Translator
	cache      *cache.Group
	logger     *slog.Logger
	metrics    *metrics.Recorder
}

// ServiceOptions wires the service's collaborators. Store and Cache are
// required; Logger and Metrics may be nil.
type ServiceOptions struct {
	Store      Store
	Translator Translator
	Cache      *cache.Group
	Logger     *slog.Logger
	Metrics    *metrics.Recorder
}

// NewService builds the resolution service.
func NewService(opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:      opts.Store,
		resolver:   NewResolver(opts.Store),
		translator: opts.Translator,
		cache:      opts.Cache,
		logger:     logger.With(slog.String("component", "hierarchy")),
		metrics:    opts.Metrics,
	}
}

// Lookup returns the encoded hierarchy slice for the request, serving repeat
// requests from the cache. The hit flag is reported explicitly so callers can
// log and measure cache behavior. Resolution failures are propagated to every
// concurrent waiter and never cached.
func (s *Service) Lookup(ctx context.Context, req Request) ([]byte, bool, error) {
	start := time.Now()
	desc := cache.Descriptor{RootID: req.RootID, Level: req.Level, Language: req.Language}
	payload, hit, err := s.cache.GetOrCompute(ctx, desc.Key(), func(ctx context.Context) ([]byte, error) {
		return s.compute(ctx, req)
	})
	s.metrics.ObserveResolve(outcomeOf(err), statusOf(err), hit, time.Since(start))
	if err != nil {
		s.logger.Debug("lookup failed",
			slog.Int64("root_id", req.RootID),
			slog.String("outcome", outcomeOf(err)),
			slog.Any("error", err))
		return nil, false, err
	}
	s.logger.Debug("lookup served",
		slog.Int64("root_id", req.RootID),
		slog.Bool("from_cache", hit),
		slog.Duration("elapsed", time.Since(start)))
	return payload, hit, nil
}

func (s *Service) compute(ctx context.Context, req Request) ([]byte, error) {
	nodes, err := s.resolver.Resolve(ctx, req.RootID, req.Level)
	if err != nil {
		return nil, err
	}

	// The context level decides when a record carries its own level in the f
	// field: the target level when given, otherwise the next level below the
	// root for a plain children query.
	contextLevel := req.Level
	if contextLevel == nil {
		if root, ok, rerr := s.store.ByID(ctx, req.RootID); rerr == nil && ok && root.Level != nil {
			next := *root.Level + 1
			contextLevel = &next
		}
	}

	result := Encode(nodes, contextLevel, func(n Node) string {
		return s.translator.DisplayName(n, req.Language)
	})
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isNotFound(err):
		return "not_found"
	case isInvalidLevel(err):
		return "invalid_level"
	case isStoreError(err):
		return "store_error"
	default:
		return "error"
	}
}

func statusOf(err error) int {
	switch {
	case err == nil:
		return 200
	case isNotFound(err):
		return 404
	case isInvalidLevel(err):
		return 400
	case isStoreError(err):
		return 503
	default:
		return 500
	}
}

func isNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func isInvalidLevel(err error) bool {
	var target *InvalidLevelError
	return errors.As(err, &target)
}

func isStoreError(err error) bool {
	var target *StoreError
	return errors.As(err, &target)
}
