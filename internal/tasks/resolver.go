package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/Rovitz/spotify2tidal/internal/match"
	"github.com/Rovitz/spotify2tidal/internal/models"
	"github.com/Rovitz/spotify2tidal/internal/services"
	"github.com/Rovitz/spotify2tidal/internal/shared"
)

const (
	defaultWorkers       = 50
	defaultSearchTimeout = 30 * time.Second
)

// ResolverOpts contains configuration for the concurrent resolution pool.
type ResolverOpts struct {
	Workers       int           // Concurrent resolution tasks (default: 50)
	RateLimit     float64       // Searches per second; <= 0 disables throttling
	SearchTimeout time.Duration // Per-search deadline (default: 30s)
}

// resolveJob carries one source track and its position in the playlist.
type resolveJob struct {
	index int
	track models.SourceTrack
}

type resolveResult struct {
	index   int
	outcome models.ResolutionOutcome
}

// Resolver resolves source tracks against the destination catalog through a
// bounded pool of concurrent searches.
//
// Each resolution task is independent and stateless: it builds a query for
// its track, issues one search (retried once on failure), and takes the first
// candidate the matcher accepts, in catalog order. Results are reassembled by
// input position, so the outcome sequence always aligns with the source track
// sequence regardless of completion order.
type Resolver struct {
	destination services.DestinationService
	logger      *log.Logger
	limiter     *rate.Limiter
	opts        ResolverOpts
}

// NewResolver creates a resolver over the destination catalog.
func NewResolver(destination services.DestinationService, logger *log.Logger, opts ResolverOpts) *Resolver {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = defaultSearchTimeout
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &Resolver{
		destination: destination,
		logger:      logger,
		limiter:     rate.NewLimiter(limit, 1),
		opts:        opts,
	}
}

// ResolveAll resolves every track concurrently and returns one outcome per
// track, positionally aligned with the input. Misses never abort the pool;
// they come back as zero-valued outcomes. The pool is fully drained before
// ResolveAll returns.
func (r *Resolver) ResolveAll(ctx context.Context, progress chan<- ProgressUpdate, tracks []models.SourceTrack) []models.ResolutionOutcome {
	outcomes := make([]models.ResolutionOutcome, len(tracks))
	if len(tracks) == 0 {
		return outcomes
	}

	jobs := make(chan resolveJob, len(tracks))
	results := make(chan resolveResult, len(tracks))

	var wg sync.WaitGroup
	for i := 0; i < r.opts.Workers; i++ {
		wg.Add(1)
		go r.worker(ctx, &wg, jobs, results)
	}

	for i, track := range tracks {
		jobs <- resolveJob{index: i, track: track}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		outcomes[res.index] = res.outcome
		sendProgress(progress, trackResolvedUpdate(completed, len(tracks), tracks[res.index], res.outcome.Found))
	}

	return outcomes
}

// worker processes jobs until the channel drains or the context is cancelled.
// Jobs left unprocessed on cancellation keep their zero-valued (missed)
// outcomes.
func (r *Resolver) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan resolveJob, results chan<- resolveResult) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- resolveResult{index: job.index, outcome: r.resolve(ctx, job)}
	}
}

// resolve runs one catalog search for the job's track and scans candidates in
// catalog order for the first one the matcher accepts. A failed search is
// retried once, then treated as a miss so one bad call never blocks the rest
// of the playlist.
func (r *Resolver) resolve(ctx context.Context, job resolveJob) models.ResolutionOutcome {
	query := match.SearchQuery(job.track)

	candidates, err := r.search(ctx, query)
	if err != nil && ctx.Err() == nil {
		candidates, err = r.search(ctx, query)
	}
	if err != nil {
		r.logger.Warn(fmt.Sprintf("track n.%d search failed", job.index+1), "title", job.track.Title, "error", err)
		return models.ResolutionOutcome{}
	}
	r.logger.Debug("catalog search", "query", query, "candidates", len(candidates))

	for _, candidate := range candidates {
		if match.Matches(job.track, candidate) {
			return models.ResolutionOutcome{TrackID: candidate.ID, Found: true}
		}
	}

	r.logger.Warn(fmt.Sprintf("track n.%d not found", job.index+1), "title", job.track.Title)
	return models.ResolutionOutcome{}
}

// search issues one rate-limited search call under the per-call deadline.
func (r *Resolver) search(ctx context.Context, query string) ([]models.CandidateTrack, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	searchCtx, cancel := context.WithTimeout(ctx, r.opts.SearchTimeout)
	defer cancel()

	return r.destination.SearchTracks(searchCtx, query)
}
