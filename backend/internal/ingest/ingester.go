package ingest

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "jobgraph/backend/pkg/errors"
	"jobgraph/backend/pkg/logger"
)

// maxInFlight bounds listings being enriched and posted at once
const maxInFlight = 4

var validate = validator.New()

// Source is where listings come from
type Source interface {
	FetchPage(ctx context.Context, page int) (*Page, error)
	FetchCompany(ctx context.Context, startupID int64) (CompanyDetails, error)
}

// Sink is where reshaped jobs go
type Sink interface {
	Post(ctx context.Context, job Job) error
}

// Stats summarizes one run
type Stats struct {
	Fetched int64
	Posted  int64
	Skipped int64
	Failed  int64
}

// Ingester runs fetch, reshape, enrich and post over a number of pages
type Ingester struct {
	source Source
	sink   Sink
	dedupe Dedupe
	pages  int
	now    func() time.Time
	logger *zap.Logger
}

// NewIngester creates an ingester; a nil dedupe posts every listing
func NewIngester(source Source, sink Sink, dedupe Dedupe, pages int) *Ingester {
	if dedupe == nil {
		dedupe = noDedupe{}
	}
	if pages <= 0 {
		pages = 1
	}
	return &Ingester{
		source: source,
		sink:   sink,
		dedupe: dedupe,
		pages:  pages,
		now:    time.Now,
		logger: logger.Named("ingest"),
	}
}

// Run ingests up to the configured number of pages. A page that cannot be fetched
// ends the run; a listing that cannot be posted is counted and retried next run.
func (i *Ingester) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	for page := 1; page <= i.pages; page++ {
		p, err := i.source.FetchPage(ctx, page)
		if err != nil {
			return stats, err
		}
		stats.Fetched += int64(len(p.Jobs))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxInFlight)
		for _, l := range p.Jobs {
			listing := l
			g.Go(func() error {
				i.ingest(gctx, listing, &stats)
				return nil
			})
		}
		_ = g.Wait()

		if p.LastPage > 0 && page >= p.LastPage {
			break
		}
	}

	i.logger.Info("Ingest run finished",
		zap.Int64("fetched", stats.Fetched),
		zap.Int64("posted", stats.Posted),
		zap.Int64("skipped", stats.Skipped),
		zap.Int64("failed", stats.Failed),
	)
	return stats, nil
}

func (i *Ingester) ingest(ctx context.Context, l Listing, stats *Stats) {
	job, company := Reshape(l, i.now())
	if err := validate.Struct(job); err != nil {
		i.logger.Warn("Skipping malformed listing", zap.Int64("listing_id", l.ID), zap.Error(err))
		atomic.AddInt64(&stats.Skipped, 1)
		return
	}

	claimed, err := i.dedupe.Claim(ctx, job.ID)
	if err != nil {
		i.logger.Warn("Dedupe unavailable, posting anyway", zap.String("job_id", job.ID), zap.Error(err))
		claimed = true
	}
	if !claimed {
		atomic.AddInt64(&stats.Skipped, 1)
		return
	}

	// company details are optional; the job is posted without them
	if details, err := i.source.FetchCompany(ctx, l.Startup.ID); err != nil {
		i.logger.Warn("Company details unavailable",
			zap.Int64("startup_id", l.Startup.ID),
			zap.Bool("retryable", apperrors.IsRetryable(err)),
			zap.Error(err),
		)
	} else {
		company.Enrich(details)
	}

	if err := i.sink.Post(ctx, job.WithCompany(company)); err != nil {
		i.logger.Error("Could not create job", zap.String("job_id", job.ID), zap.Error(err))
		atomic.AddInt64(&stats.Failed, 1)
		if rerr := i.dedupe.Release(ctx, job.ID); rerr != nil {
			i.logger.Warn("Could not release claim", zap.String("job_id", job.ID), zap.Error(rerr))
		}
		return
	}
	atomic.AddInt64(&stats.Posted, 1)
}
