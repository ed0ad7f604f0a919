// internal/matching/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"scribematch/internal/common/errors"
	"scribematch/internal/common/logger"
	"scribematch/internal/common/metrics"
	"scribematch/internal/common/observability"
	"scribematch/internal/matching/evaluate"
	"scribematch/internal/matching/rank"
	"scribematch/internal/models"
)

// Announcer is the notification side channel. Announcement failures are
// logged and never fail a run.
type Announcer interface {
	AnnounceMatches(ctx context.Context, student models.StudentProfile, results []models.MatchResult) error
}

// Orchestrator runs one full evaluation pass over a candidate pool. It
// owns the batch semantics: per-run deadline, per-candidate skips, the
// default ordering and the announcement hook. Session state lives in
// Session, not here.
type Orchestrator struct {
	evaluator     *evaluate.Evaluator
	announcer     Announcer
	obs           *observability.Observability
	runTimeout    time.Duration
	defaultPolicy models.RankingPolicy
	logger        logger.Logger
}

func NewOrchestrator(evaluator *evaluate.Evaluator, announcer Announcer, obs *observability.Observability, runTimeout time.Duration, defaultPolicy models.RankingPolicy, log logger.Logger) *Orchestrator {
	if defaultPolicy == "" {
		defaultPolicy = models.RankByScore
	}
	return &Orchestrator{
		evaluator:     evaluator,
		announcer:     announcer,
		obs:           obs,
		runTimeout:    runTimeout,
		defaultPolicy: defaultPolicy,
		logger:        log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// Run evaluates every pool member and returns the ranked result set.
// A failing candidate is skipped and counted, never fatal. An empty
// pool is a valid answer, not an error. When the run deadline expires
// the results scored so far are returned alongside a timeout error so
// callers can tell a truncated set from a complete one.
func (o *Orchestrator) Run(ctx context.Context, trigger string, student models.StudentProfile, exam models.ExamRequest, pool []models.ScribeProfile) ([]models.MatchResult, error) {
	runID := uuid.New().String()
	log := o.logger.WithFields(map[string]interface{}{
		"runId":    runID,
		"trigger":  trigger,
		"poolSize": len(pool),
	})

	if student.ID == "" {
		return nil, errors.NewInvalidMatchRequestError("student profile has no id")
	}
	if exam.Date.IsZero() {
		return nil, errors.NewInvalidMatchRequestError("exam request has no date")
	}

	metrics.MatchRunsActive.Inc()
	defer metrics.MatchRunsActive.Dec()

	start := time.Now()
	if o.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.runTimeout)
		defer cancel()
	}

	log.Info("match run started", nil)

	results := make([]models.MatchResult, 0, len(pool))
	skipped := 0
	for i, scribe := range pool {
		if err := ctx.Err(); err != nil {
			return o.finishTruncated(ctx, log, trigger, start, results, i, len(pool), err)
		}

		result, err := o.evaluator.Evaluate(ctx, student, exam, scribe)
		if err != nil {
			if ctxTerminated(ctx, err) {
				return o.finishTruncated(ctx, log, trigger, start, results, i, len(pool), err)
			}
			skipped++
			metrics.CandidatesSkipped.WithLabelValues(string(errors.AsStandard(err).Code)).Inc()
			log.Warn("candidate skipped", map[string]interface{}{
				"scribeId": scribe.ID,
				"error":    err.Error(),
			})
			continue
		}
		metrics.CandidatesEvaluated.Inc()
		results = append(results, *result)
	}

	ranked := rank.Sort(results, o.defaultPolicy)
	o.recordSuccess(ctx, log, trigger, start, ranked, skipped)

	if o.announcer != nil && len(ranked) > 0 {
		if err := o.announcer.AnnounceMatches(ctx, student, ranked); err != nil {
			log.Warn("match announcement failed", map[string]interface{}{"error": err.Error()})
		}
	}

	return ranked, nil
}

// finishTruncated handles the run deadline: whatever was scored before
// the cutoff is still ranked and returned, with a timeout error marking
// the set incomplete. A cancelled parent context is a plain failure.
func (o *Orchestrator) finishTruncated(ctx context.Context, log logger.Logger, trigger string, start time.Time, results []models.MatchResult, evaluated, total int, cause error) ([]models.MatchResult, error) {
	if !stderrors.Is(cause, context.DeadlineExceeded) && !stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		runErr := errors.NewMatchRunFailedError(cause)
		metrics.MatchRunsFailed.WithLabelValues(trigger, string(runErr.Code)).Inc()
		if o.obs != nil {
			o.obs.RecordRun(ctx, "failed")
		}
		log.Error("match run aborted", map[string]interface{}{"error": cause.Error()})
		return nil, runErr
	}

	runErr := errors.NewMatchRunTimeoutError(evaluated, total)
	metrics.MatchRunsFailed.WithLabelValues(trigger, string(runErr.Code)).Inc()
	if o.obs != nil {
		o.obs.RecordRun(ctx, "timeout")
	}
	log.Warn("match run hit deadline, returning partial results", map[string]interface{}{
		"evaluated": evaluated,
		"total":     total,
		"elapsedMs": time.Since(start).Milliseconds(),
	})
	return rank.Sort(results, o.defaultPolicy), runErr
}

func (o *Orchestrator) recordSuccess(ctx context.Context, log logger.Logger, trigger string, start time.Time, ranked []models.MatchResult, skipped int) {
	elapsed := time.Since(start)
	metrics.MatchRunsCompleted.WithLabelValues(trigger).Inc()
	metrics.MatchRunDuration.WithLabelValues(trigger).Observe(elapsed.Seconds())
	if o.obs != nil {
		o.obs.RecordRun(ctx, "completed")
		o.obs.RecordRunDuration(ctx, elapsed, "completed")
	}

	log.Info("match run completed", map[string]interface{}{
		"matches":   len(ranked),
		"skipped":   skipped,
		"elapsedMs": elapsed.Milliseconds(),
	})
}

func ctxTerminated(ctx context.Context, err error) bool {
	return stderrors.Is(err, context.DeadlineExceeded) ||
		stderrors.Is(ctx.Err(), context.DeadlineExceeded) ||
		stderrors.Is(ctx.Err(), context.Canceled)
}
