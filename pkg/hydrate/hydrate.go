package hydrate

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"twhydrate/pkg/batch"
	errs "twhydrate/pkg/errors"
	"twhydrate/pkg/logger"
	"twhydrate/pkg/record"
)

var (
	lookupBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twhydrate_lookup_batches_total",
		Help: "Total lookup batches by mode and resolution path",
	}, []string{"mode", "path"})

	usersProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twhydrate_users_processed_total",
		Help: "Total identifiers counted as processed by mode",
	}, []string{"mode"})

	lookupFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twhydrate_lookup_failures_total",
		Help: "Total identifiers that failed even when looked up alone",
	}, []string{"mode"})
)

// Lookup modes
const (
	ModeIDs     = "ids"
	ModeHandles = "handles"
)

// MaxBatchSize is the largest batch a bulk lookup accepts
const MaxBatchSize = 100

// Client resolves users in bulk. Both calls take at most 100 identifiers
// and fail as a unit.
type Client interface {
	LookupUsersByIDs(ctx context.Context, ids []int64) ([]record.Raw, error)
	LookupUsersByHandles(ctx context.Context, handles []string) ([]record.Raw, error)
}

// Stats accumulates the outcome of one lookup run
type Stats struct {
	Requested int `json:"requested"`
	Processed int `json:"processed"`
	Failures  int `json:"failures"`
	Batches   int `json:"batches"`
	Fallbacks int `json:"fallbacks"`
}

// Result maps user ID to record. Identifiers that could not be resolved
// are absent.
type Result struct {
	Users map[int64]record.UserRecord
	Stats Stats
}

// Progress is reported after each batch
type Progress struct {
	Mode    string
	Batch   int
	Batches int
	Stats   Stats
}

// Options configures a Hydrator
type Options struct {
	// BatchSize defaults to and is capped at 100
	BatchSize int
	Logger    logger.Logger
	OnBatch   func(Progress)
}

// Hydrator runs the batched lookup flow
type Hydrator struct {
	client    Client
	batchSize int
	logger    logger.Logger
	onBatch   func(Progress)
}

// New creates a Hydrator
func New(client Client, opts Options) *Hydrator {
	size := opts.BatchSize
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	return &Hydrator{
		client:    client,
		batchSize: size,
		logger:    logger.OrDefault(opts.Logger),
		onBatch:   opts.OnBatch,
	}
}

// LookupByIDs hydrates user IDs
func (h *Hydrator) LookupByIDs(ctx context.Context, ids []int64) (*Result, error) {
	return run(ctx, h, ModeIDs, ids, h.client.LookupUsersByIDs)
}

// LookupByHandles hydrates screen names. The result is still keyed by the
// numeric ID of each resolved account.
func (h *Hydrator) LookupByHandles(ctx context.Context, handles []string) (*Result, error) {
	return run(ctx, h, ModeHandles, handles, h.client.LookupUsersByHandles)
}

type lookupFunc[K any] func(ctx context.Context, keys []K) ([]record.Raw, error)

// recoverable reports whether a lookup error is isolated by falling back
// (bulk) or by counting a failure (single item). Everything else aborts.
func recoverable(err error) bool {
	return errs.IsRemote(err) || record.IsBuildError(err)
}

func run[K any](ctx context.Context, h *Hydrator, mode string, keys []K, lookup lookupFunc[K]) (*Result, error) {
	res := &Result{
		Users: make(map[int64]record.UserRecord, len(keys)),
		Stats: Stats{Requested: len(keys)},
	}
	if len(keys) == 0 {
		return res, nil
	}

	batches := batch.Partition(keys, h.batchSize)
	log := h.logger.WithField("mode", mode)

	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		items := b.Items()
		res.Stats.Batches++
		logger.LogBatch(log, mode, b.Index+1, len(items))

		users, err := fetchBulk(ctx, items, lookup)
		switch {
		case err == nil:
			for _, u := range users {
				res.Users[u.ID] = u
			}
			res.Stats.Processed += len(items)
			lookupBatchesTotal.WithLabelValues(mode, "bulk").Inc()
			usersProcessedTotal.WithLabelValues(mode).Add(float64(len(items)))

		case recoverable(err):
			res.Stats.Fallbacks++
			lookupBatchesTotal.WithLabelValues(mode, "fallback").Inc()
			log.WithError(err).WarnWithFields("bulk lookup failed, resolving batch one at a time", map[string]interface{}{
				"batch": b.Index + 1,
			})
			if err := resolveEach(ctx, log, mode, items, lookup, res); err != nil {
				return res, err
			}

		default:
			return res, fmt.Errorf("lookup batch %d: %w", b.Index+1, err)
		}

		if h.onBatch != nil {
			h.onBatch(Progress{Mode: mode, Batch: b.Index + 1, Batches: len(batches), Stats: res.Stats})
		}
	}

	logger.LogLookupSummary(log, mode, res.Stats.Processed, res.Stats.Failures)
	return res, nil
}

// fetchBulk looks up a whole batch. Records are only returned when every
// raw object built cleanly, so a failed call never leaks partial results.
func fetchBulk[K any](ctx context.Context, items []K, lookup lookupFunc[K]) ([]record.UserRecord, error) {
	raws, err := lookup(ctx, items)
	if err != nil {
		return nil, err
	}

	users := make([]record.UserRecord, 0, len(raws))
	for _, raw := range raws {
		u, err := record.Build(raw)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// resolveEach looks up every item of a failed batch on its own, in order
func resolveEach[K any](ctx context.Context, log logger.Logger, mode string, items []K, lookup lookupFunc[K], res *Result) error {
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		users, err := fetchBulk(ctx, []K{item}, lookup)
		if err == nil && len(users) == 0 {
			err = errs.New(errs.ErrorTypeNotFound, 0, "user not returned")
		}
		if err != nil {
			if !recoverable(err) {
				return fmt.Errorf("lookup %v: %w", item, err)
			}
			res.Stats.Failures++
			lookupFailuresTotal.WithLabelValues(mode).Inc()
			log.WithError(err).WarnWithFields("user lookup failed", map[string]interface{}{
				"item": fmt.Sprint(item),
			})
			continue
		}

		for _, u := range users {
			res.Users[u.ID] = u
		}
		res.Stats.Processed++
		usersProcessedTotal.WithLabelValues(mode).Inc()
	}
	return nil
}
