package followers

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	errs "twhydrate/pkg/errors"
	"twhydrate/pkg/logger"
)

var (
	followerRootsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twhydrate_follower_roots_total",
		Help: "Total roots pulled by final state",
	}, []string{"state"})

	followersPulledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "twhydrate_followers_pulled_total",
		Help: "Total follower IDs pulled across all roots",
	})
)

// firstCursor starts a cursored listing
const firstCursor int64 = -1

// Client pages the follower IDs of a root. A next cursor of 0 means there
// are no further pages.
type Client interface {
	FollowerIDs(ctx context.Context, root, cursor int64) (ids []int64, next int64, err error)
}

// EdgeSink receives the (root, follower) pairs of a root once it stops
// paging
type EdgeSink interface {
	WriteEdges(root int64, followers []int64) error
}

// State is where a root is in its paging lifecycle
type State int

const (
	StateStart State = iota
	StatePaging
	StateLimitReached
	StateExhausted
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StatePaging:
		return "paging"
	case StateLimitReached:
		return "limit_reached"
	case StateExhausted:
		return "exhausted"
	case StateSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// RootResult is the final outcome of one root
type RootResult struct {
	Root      int64
	State     State
	Pages     int
	Followers []int64
	// Err is the remote error that skipped the root
	Err error
}

// Stats accumulates the outcome of one pull run
type Stats struct {
	Roots        int `json:"roots"`
	Completed    int `json:"completed"`
	LimitReached int `json:"limit_reached"`
	Skipped      int `json:"skipped"`
	Resumed      int `json:"resumed"`
	// Repeated counts roots listed again after they were pulled in the
	// same run
	Repeated     int `json:"repeated"`
	Followers    int `json:"followers"`
}

// Result maps each pulled root to its followers in page order. Duplicates
// across pages are kept.
type Result struct {
	Followers map[int64][]int64
	Stats     Stats
}

// Options configures a Puller
type Options struct {
	// Limit stops paging a root after the first page that takes its total
	// above Limit. 0 means unlimited.
	Limit  int
	Sink   EdgeSink
	Logger logger.Logger
	// Done reports roots finished by an earlier run; they are not pulled
	Done func(root int64) bool
	// OnRoot is called after a root reached a final state and its edges
	// were written. An error aborts the run.
	OnRoot func(RootResult) error
}

// Puller walks the follower listing of each root in turn
type Puller struct {
	client Client
	opts   Options
	logger logger.Logger
}

// NewPuller creates a Puller
func NewPuller(client Client, opts Options) *Puller {
	if opts.Limit < 0 {
		opts.Limit = 0
	}
	return &Puller{
		client: client,
		opts:   opts,
		logger: logger.OrDefault(opts.Logger),
	}
}

// Pull pages the followers of every root. A remote error skips only the
// root it happened on and keeps the pages already pulled. Local errors,
// including sink failures, stop the run and are returned with the partial
// result.
func (p *Puller) Pull(ctx context.Context, roots []int64) (*Result, error) {
	res := &Result{Followers: make(map[int64][]int64, len(roots))}

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Stats.Roots++

		// a root is pulled once per run so the mapping, the sinks and the
		// stats all hold its followers exactly once
		if _, ok := res.Followers[root]; ok {
			res.Stats.Repeated++
			p.logger.WarnWithFields("root listed more than once, already pulled", map[string]interface{}{
				"root": root,
			})
			continue
		}

		if p.opts.Done != nil && p.opts.Done(root) {
			res.Stats.Resumed++
			p.logger.InfoWithFields("root already pulled, skipping", map[string]interface{}{
				"root": root,
			})
			continue
		}

		rr, err := p.pullRoot(ctx, root)
		if err != nil {
			return res, fmt.Errorf("pull followers of %d: %w", root, err)
		}

		res.Followers[root] = rr.Followers
		res.Stats.Followers += len(rr.Followers)
		followersPulledTotal.Add(float64(len(rr.Followers)))
		followerRootsTotal.WithLabelValues(rr.State.String()).Inc()

		switch rr.State {
		case StateExhausted:
			res.Stats.Completed++
		case StateLimitReached:
			res.Stats.LimitReached++
		case StateSkipped:
			res.Stats.Skipped++
		}

		if p.opts.Sink != nil && len(rr.Followers) > 0 {
			if err := p.opts.Sink.WriteEdges(root, rr.Followers); err != nil {
				return res, fmt.Errorf("write edges of %d: %w", root, err)
			}
		}
		if p.opts.OnRoot != nil {
			if err := p.opts.OnRoot(rr); err != nil {
				return res, err
			}
		}
	}

	p.logger.InfoWithFields("follower pull finished", map[string]interface{}{
		"roots":         res.Stats.Roots,
		"completed":     res.Stats.Completed,
		"limit_reached": res.Stats.LimitReached,
		"skipped":       res.Stats.Skipped,
		"repeated":      res.Stats.Repeated,
		"followers":     res.Stats.Followers,
	})
	return res, nil
}

// pullRoot runs the paging state machine for one root
func (p *Puller) pullRoot(ctx context.Context, root int64) (RootResult, error) {
	rr := RootResult{Root: root, State: StateStart, Followers: []int64{}}
	log := p.logger.WithField("root", root)
	cursor := firstCursor

	rr.State = StatePaging
	for rr.State == StatePaging {
		ids, next, err := p.client.FollowerIDs(ctx, root, cursor)
		if err != nil {
			if !errs.IsRemote(err) {
				return rr, err
			}
			rr.Err = err
			rr.State = StateSkipped
			log.WithError(err).WarnWithFields("follower paging failed, skipping root", map[string]interface{}{
				"pages":  rr.Pages,
				"pulled": len(rr.Followers),
			})
			break
		}

		rr.Pages++
		rr.Followers = append(rr.Followers, ids...)
		logger.LogFollowerPage(log, root, rr.Pages, len(rr.Followers))

		switch {
		case p.opts.Limit > 0 && len(rr.Followers) > p.opts.Limit:
			rr.State = StateLimitReached
			log.InfoWithFields("follower limit reached", map[string]interface{}{
				"limit":  p.opts.Limit,
				"pulled": len(rr.Followers),
			})
		case next == 0 || next == cursor:
			rr.State = StateExhausted
		default:
			cursor = next
		}
	}

	log.InfoWithFields("followers pulled", map[string]interface{}{
		"state":  rr.State.String(),
		"pages":  rr.Pages,
		"pulled": len(rr.Followers),
	})
	return rr, nil
}

// MultiSink writes edges to every sink in order
type MultiSink []EdgeSink

// WriteEdges implements EdgeSink
func (m MultiSink) WriteEdges(root int64, followers []int64) error {
	for _, s := range m {
		if err := s.WriteEdges(root, followers); err != nil {
			return err
		}
	}
	return nil
}
