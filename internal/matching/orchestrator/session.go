// internal/matching/orchestrator/session.go
package orchestrator

import (
	"context"
	"sync"
	"time"

	"scribematch/internal/common/errors"
	"scribematch/internal/common/logger"
	"scribematch/internal/matching/filter"
	"scribematch/internal/matching/rank"
	"scribematch/internal/models"
)

// PoolSource supplies the candidate pool for a run. The session fetches
// a fresh pool on every run so newly verified scribes show up without a
// restart.
type PoolSource func(ctx context.Context) ([]models.ScribeProfile, error)

// Snapshot is one published result set together with the run state that
// produced it. A failed run keeps the previous results so the UI never
// flashes empty mid-session.
type Snapshot struct {
	Results   []models.MatchResult
	Status    models.RunStatus
	UpdatedAt time.Time
	Err       error
}

// Session owns one student's matching lifecycle: the latest snapshot,
// manual refreshes, and the periodic re-evaluation timer. Runs follow a
// single-flight discipline with coalescing: a refresh requested while a
// run is in flight folds into exactly one follow-up run. Completions
// carry the generation they were started with; a stale generation is
// discarded rather than published.
type Session struct {
	orchestrator    *Orchestrator
	student         models.StudentProfile
	exam            models.ExamRequest
	pool            PoolSource
	refreshInterval time.Duration
	logger          logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	snapshot   Snapshot
	generation uint64
	running    bool
	pending    bool

	tickerOnce sync.Once
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

func NewSession(orch *Orchestrator, student models.StudentProfile, exam models.ExamRequest, pool PoolSource, refreshInterval time.Duration, log logger.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		orchestrator:    orch,
		student:         student,
		exam:            exam,
		pool:            pool,
		refreshInterval: refreshInterval,
		logger: log.WithFields(map[string]interface{}{
			"component": "session",
			"studentId": student.ID,
		}),
		ctx:      ctx,
		cancel:   cancel,
		snapshot: Snapshot{Status: models.RunStatusIdle},
	}
}

// Refresh requests a run. It returns immediately; the result lands in
// the snapshot. Calling it while a run is in flight schedules one
// coalesced follow-up instead of stacking runs.
func (s *Session) Refresh() {
	s.trigger("manual")
}

// StartAutoRefresh begins the periodic re-evaluation loop and fires an
// initial run. Safe to call once per session; Close tears it down.
func (s *Session) StartAutoRefresh() {
	s.tickerOnce.Do(func() {
		s.trigger("initial")
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ticker := time.NewTicker(s.refreshInterval)
			defer ticker.Stop()
			for {
				select {
				case <-s.ctx.Done():
					return
				case <-ticker.C:
					s.trigger("auto")
				}
			}
		}()
	})
}

// Close cancels any in-flight run and stops the refresh loop. The
// generation bump guarantees a run completing after Close never
// publishes.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.generation++
		s.pending = false
		s.mu.Unlock()
		s.cancel()
		s.wg.Wait()
	})
}

// Snapshot returns the current published state. The results slice is
// shared read-only data; callers must not mutate it.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// View applies filter criteria and a ranking policy to the published
// snapshot. It is a pure read: view changes never trigger a run.
func (s *Session) View(criteria models.FilterCriteria, policy models.RankingPolicy) []models.MatchResult {
	snap := s.Snapshot()
	return rank.Sort(filter.Apply(snap.Results, criteria, s.exam.Date), policy)
}

func (s *Session) trigger(trig string) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	if s.running {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.running = true
	s.generation++
	gen := s.generation
	s.snapshot.Status = models.RunStatusLoading
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(gen, trig)
	}()
}

func (s *Session) run(gen uint64, trig string) {
	pool, poolErr := s.pool(s.ctx)

	var results []models.MatchResult
	var runErr error
	if poolErr != nil {
		runErr = errors.NewPoolQueryFailedError(poolErr)
	} else {
		results, runErr = s.orchestrator.Run(s.ctx, trig, s.student, s.exam, pool)
	}

	s.mu.Lock()
	if gen == s.generation {
		s.publishLocked(results, runErr)
	}
	s.running = false
	rerun := s.pending
	s.pending = false
	s.mu.Unlock()

	if rerun {
		s.trigger("coalesced")
	}
}

// publishLocked installs the run outcome. A timeout still publishes its
// partial set as ready; any other error keeps the previous results and
// flips the status to failed.
func (s *Session) publishLocked(results []models.MatchResult, runErr error) {
	now := time.Now()
	switch {
	case runErr == nil:
		s.snapshot = Snapshot{Results: results, Status: models.RunStatusReady, UpdatedAt: now}
	case isTimeout(runErr):
		s.logger.Warn("publishing partial results after run timeout", map[string]interface{}{
			"matches": len(results),
		})
		s.snapshot = Snapshot{Results: results, Status: models.RunStatusReady, UpdatedAt: now, Err: runErr}
	default:
		s.logger.Error("match run failed", map[string]interface{}{"error": runErr.Error()})
		s.snapshot = Snapshot{
			Results:   s.snapshot.Results,
			Status:    models.RunStatusFailed,
			UpdatedAt: now,
			Err:       runErr,
		}
	}
}

func isTimeout(err error) bool {
	std := errors.AsStandard(err)
	return std != nil && std.Code == errors.ErrCodeMatchRunTimeout
}
