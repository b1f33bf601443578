package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ecothreads/threadscore/internal/adapters"
	"github.com/ecothreads/threadscore/internal/assess"
	"github.com/ecothreads/threadscore/internal/errors"
	"github.com/ecothreads/threadscore/internal/monitoring"
	"github.com/ecothreads/threadscore/internal/resilience"
	"github.com/ecothreads/threadscore/internal/textile"
	"github.com/ecothreads/threadscore/internal/types"
)

// Timeouts bounds each stage of a run. The scrape is a prerequisite; the
// three source timeouts apply independently to the fanned-out scorers.
type Timeouts struct {
	Scrape time.Duration
	Source time.Duration
}

// DefaultTimeouts suit interactive API use.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Scrape: 20 * time.Second,
		Source: 15 * time.Second,
	}
}

// Runner orchestrates one assessment: scrape the product, fan out the three
// scorers, synthesize. Collaborators are fixed at construction; a failed or
// slow source degrades to unavailable rather than failing the run.
type Runner struct {
	scraper   adapters.ProductScraper
	directory adapters.ESGDirectory
	sentiment adapters.SentimentScorer

	material *assess.MaterialScorer
	brand    *assess.BrandScorer
	review   *assess.ReviewScorer
	engine   *assess.Engine

	timeouts Timeouts
	logger   *monitoring.Logger
	metrics  *monitoring.Metrics
}

func NewRunner(
	scraper adapters.ProductScraper,
	directory adapters.ESGDirectory,
	sentiment adapters.SentimentScorer,
	table *textile.Table,
	timeouts Timeouts,
	logger *monitoring.Logger,
	metrics *monitoring.Metrics,
) *Runner {
	return &Runner{
		scraper:   scraper,
		directory: directory,
		sentiment: sentiment,
		material:  assess.NewMaterialScorer(table),
		brand:     assess.NewBrandScorer(),
		review:    assess.NewReviewScorer(),
		engine:    assess.NewEngine(),
		timeouts:  timeouts,
		logger:    logger,
		metrics:   metrics,
	}
}

// Assess runs the full pipeline for one product URL. Parent cancellation
// aborts outstanding scorers and returns the context error with no result.
func (r *Runner) Assess(ctx context.Context, productURL string, depth assess.Depth) (assess.Assessment, error) {
	runID := uuid.NewString()
	start := time.Now()

	product, err := r.scrapeProduct(ctx, productURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return assess.Assessment{}, ctxErr
		}
		return assess.Assessment{}, errors.WrapError(err, "scraping product %s", productURL)
	}

	scores := make([]assess.SourceScore, 3)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sub := make(chan struct{}, 3)
		go func() { scores[0] = r.scoreMaterial(ctx, product); sub <- struct{}{} }()
		go func() { scores[1] = r.scoreBrand(ctx, product); sub <- struct{}{} }()
		go func() { scores[2] = r.scoreConsumer(ctx, product); sub <- struct{}{} }()
		for i := 0; i < 3; i++ {
			<-sub
		}
	}()

	select {
	case <-ctx.Done():
		return assess.Assessment{}, ctx.Err()
	case <-done:
	}

	for _, s := range scores {
		if !s.Available {
			r.metrics.RecordSourceUnavailable(string(s.Source))
			if len(s.Evidence) > 0 {
				r.logger.SourceUnavailableLogger(runID, string(s.Source), s.Evidence[0])
			}
		}
	}

	result, err := r.engine.Synthesize(depth, scores)
	if err != nil {
		if stderrors.Is(err, assess.ErrInsufficientData) {
			r.metrics.IncrementAssessmentInsufficient()
		}
		return assess.Assessment{}, err
	}

	result.ID = runID
	result.ProductURL = product.URL
	result.ProductTitle = product.Title
	result.Brand = product.Brand
	result.CreatedAt = time.Now().UTC()

	available := 0
	for _, s := range result.Sources {
		if s.Available {
			available++
		}
	}
	r.metrics.IncrementAssessmentCompleted()
	r.logger.AssessmentLogger(runID, productURL, string(depth), result.OverallRating, available, len(result.Conflicts), time.Since(start))
	return result, nil
}

func (r *Runner) scrapeProduct(ctx context.Context, productURL string) (types.Product, error) {
	scrapeCtx, cancel := context.WithTimeout(ctx, r.timeouts.Scrape)
	defer cancel()

	var product types.Product
	start := time.Now()
	err := resilience.ExecuteWithRetry(scrapeCtx, resilience.CollaboratorScraper, func() error {
		var scrapeErr error
		product, scrapeErr = r.scraper.ScrapeProduct(scrapeCtx, productURL)
		return scrapeErr
	})
	r.recordCollaborator(resilience.CollaboratorScraper, "scrape-product", start, err)
	return product, err
}

// scoreMaterial parses the declared composition, falling back to blend
// inference when the text has no recognizable signal.
func (r *Runner) scoreMaterial(ctx context.Context, product types.Product) assess.SourceScore {
	srcCtx, cancel := context.WithTimeout(ctx, r.timeouts.Source)
	defer cancel()

	components := textile.ParseBlend(product.MaterialsText)
	if components == nil {
		start := time.Now()
		err := resilience.ExecuteWithRetry(srcCtx, resilience.CollaboratorSentiment, func() error {
			var inferErr error
			components, inferErr = r.sentiment.InferBlend(srcCtx, product)
			return inferErr
		})
		r.recordCollaborator(resilience.CollaboratorSentiment, "infer-blend", start, err)
		if err != nil {
			return assess.Unavailable(assess.SourceMaterial,
				fmt.Sprintf("composition unreadable and inference failed: %v", err))
		}
		score := r.material.Score(components)
		if score.Available {
			// Inferred compositions are estimates regardless of match mass.
			score.Confidence = assess.ConfidenceLow
			score.Evidence = append(score.Evidence, "composition inferred from product title and category")
		}
		return score
	}
	return r.material.Score(components)
}

func (r *Runner) scoreBrand(ctx context.Context, product types.Product) assess.SourceScore {
	if product.Brand == "" {
		return assess.Unavailable(assess.SourceBrand, "product listing does not identify a brand")
	}

	srcCtx, cancel := context.WithTimeout(ctx, r.timeouts.Source)
	defer cancel()

	var result types.ESGLookupResult
	start := time.Now()
	err := resilience.ExecuteWithRetry(srcCtx, resilience.CollaboratorDirectory, func() error {
		var lookupErr error
		result, lookupErr = r.directory.FindReport(srcCtx, product.Brand)
		return lookupErr
	})
	r.recordCollaborator(resilience.CollaboratorDirectory, "find-report", start, err)
	if err != nil {
		return assess.Unavailable(assess.SourceBrand,
			fmt.Sprintf("ESG directory lookup failed for %s: %v", product.Brand, err))
	}
	return r.brand.Score(result)
}

func (r *Runner) scoreConsumer(ctx context.Context, product types.Product) assess.SourceScore {
	srcCtx, cancel := context.WithTimeout(ctx, r.timeouts.Source)
	defer cancel()

	var reviews []types.Review
	start := time.Now()
	err := resilience.ExecuteWithRetry(srcCtx, resilience.CollaboratorScraper, func() error {
		var scrapeErr error
		reviews, scrapeErr = r.scraper.ScrapeReviews(srcCtx, product.URL)
		return scrapeErr
	})
	r.recordCollaborator(resilience.CollaboratorScraper, "scrape-reviews", start, err)
	if err != nil {
		return assess.Unavailable(assess.SourceConsumer,
			fmt.Sprintf("review scraping failed: %v", err))
	}
	if len(reviews) == 0 {
		return assess.Unavailable(assess.SourceConsumer, "no consumer reviews available for this product")
	}

	var sentiments []float64
	start = time.Now()
	err = resilience.ExecuteWithRetry(srcCtx, resilience.CollaboratorSentiment, func() error {
		var scoreErr error
		sentiments, scoreErr = r.sentiment.ScoreReviews(srcCtx, reviews)
		return scoreErr
	})
	r.recordCollaborator(resilience.CollaboratorSentiment, "score-reviews", start, err)
	if err != nil {
		return assess.Unavailable(assess.SourceConsumer,
			fmt.Sprintf("sentiment scoring failed: %v", err))
	}
	return r.review.Score(reviews, sentiments)
}

func (r *Runner) recordCollaborator(name, operation string, start time.Time, err error) {
	resilience.RecordCall(name, err)
	r.metrics.RecordCollaboratorCall(name, err == nil)
	r.logger.CollaboratorLogger(name, operation, time.Since(start), err)
}
