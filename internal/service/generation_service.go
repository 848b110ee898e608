package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/shift-planner-api/internal/models"
	"github.com/noah-isme/shift-planner-api/internal/session"
	"github.com/noah-isme/shift-planner-api/pkg/calendar"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
	"github.com/noah-isme/shift-planner-api/pkg/jobs"
)

type generationGateway interface {
	SubmitGeneration(ctx context.Context, yearMonth string, patternCount int) (*models.GenerationJob, error)
	GetJobStatus(ctx context.Context, jobID string) (*models.GenerationJob, error)
}

type patternRefresher interface {
	Refresh(ctx context.Context, state *session.State, yearMonth string) ([]models.ShiftPattern, error)
}

type generationMetrics interface {
	ObservePoll(outcome string, duration time.Duration)
	RecordJobSubmitted()
	RecordJobTerminal(status string)
}

// GenerationConfig tunes job submission and polling.
type GenerationConfig struct {
	PollInterval        time.Duration
	DefaultPatternCount int
	MaxPatternCount     int
	HeuristicCap        int
	HeuristicRate       float64
}

// GenerationService drives optimizer jobs for planning sessions. Each session
// has at most one poll loop; starting a new generation replaces it.
type GenerationService struct {
	gateway   generationGateway
	patterns  patternRefresher
	estimator ProgressEstimator
	cfg       GenerationConfig
	metrics   generationMetrics
	logger    *zap.Logger
	now       func() time.Time
	loopCtx   context.Context
}

// NewGenerationService wires the job lifecycle. Poll loops run under loopCtx,
// so cancelling it stops every loop.
func NewGenerationService(loopCtx context.Context, gateway generationGateway, patterns patternRefresher, metrics generationMetrics, cfg GenerationConfig, logger *zap.Logger) *GenerationService {
	if loopCtx == nil {
		loopCtx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxPatternCount <= 0 {
		cfg.MaxPatternCount = 5
	}
	if cfg.DefaultPatternCount <= 0 {
		cfg.DefaultPatternCount = 3
	}
	if cfg.DefaultPatternCount > cfg.MaxPatternCount {
		cfg.DefaultPatternCount = cfg.MaxPatternCount
	}
	return &GenerationService{
		gateway:   gateway,
		patterns:  patterns,
		estimator: NewProgressEstimator(cfg.HeuristicCap, cfg.HeuristicRate),
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
		loopCtx:   loopCtx,
	}
}

// Start submits a generation for yearMonth and begins polling it. A zero
// patternCount uses the configured default.
func (s *GenerationService) Start(ctx context.Context, state *session.State, yearMonth string, patternCount int) (models.JobSnapshot, error) {
	period, err := calendar.Parse(yearMonth)
	if err != nil {
		return models.JobSnapshot{}, appErrors.Clone(appErrors.ErrSubmission, err.Error())
	}
	if patternCount == 0 {
		patternCount = s.cfg.DefaultPatternCount
	}
	if patternCount < 1 || patternCount > s.cfg.MaxPatternCount {
		return models.JobSnapshot{}, appErrors.Clone(appErrors.ErrSubmission, fmt.Sprintf("pattern_count must be between 1 and %d", s.cfg.MaxPatternCount))
	}

	state.ReplaceLoop(nil)

	job, err := s.gateway.SubmitGeneration(ctx, period.String(), patternCount)
	if err != nil {
		s.logger.Sugar().Warnw("generation submission failed", "session_id", state.ID, "year_month", period.String(), "error", err)
		return models.JobSnapshot{}, err
	}
	if job.ID == "" {
		return models.JobSnapshot{}, appErrors.Clone(appErrors.ErrSubmission, "optimizer returned no job id")
	}
	if job.Status == "" {
		job.Status = models.JobStatusPending
	}
	if job.YearMonth == "" {
		job.YearMonth = period.String()
	}
	if job.PatternCount == 0 {
		job.PatternCount = patternCount
	}
	if s.metrics != nil {
		s.metrics.RecordJobSubmitted()
	}

	state.SetJob(session.JobState{Job: *job, SubmittedAt: s.now(), BackendProgress: job.Progress})
	task := jobs.Start(s.loopCtx, s.pollFunc(state, job.ID), jobs.TaskConfig{
		Name:     "generation:" + job.ID,
		Interval: s.cfg.PollInterval,
		Logger:   s.logger,
	})
	state.ReplaceLoop(task)

	s.logger.Sugar().Infow("generation started", "session_id", state.ID, "job_id", job.ID, "year_month", job.YearMonth, "pattern_count", job.PatternCount)
	return s.snapshot(state)
}

// Poll fetches the job status once, outside the loop cadence. A terminal job
// is returned as stored, and while the session's loop is running the loop's
// latest observation is returned so polls never overlap.
func (s *GenerationService) Poll(ctx context.Context, state *session.State) (models.JobSnapshot, error) {
	js, ok := state.Job()
	if !ok {
		return models.JobSnapshot{}, appErrors.Clone(appErrors.ErrNotFound, "no generation has been started in this session")
	}
	if js.Job.Status.Terminal() || state.LoopRunning() {
		return s.snapshot(state)
	}
	if _, err := s.pollOnce(ctx, state, js.Job.ID); err != nil {
		return models.JobSnapshot{}, err
	}
	return s.snapshot(state)
}

// Current returns the session's job without contacting the optimizer.
func (s *GenerationService) Current(state *session.State) (models.JobSnapshot, error) {
	return s.snapshot(state)
}

// Cancel stops the session's poll loop. The optimizer job itself keeps
// running; only local tracking stops.
func (s *GenerationService) Cancel(state *session.State) (models.JobSnapshot, error) {
	if state.CancelLoop() {
		s.logger.Sugar().Infow("generation polling cancelled", "session_id", state.ID)
	}
	return s.snapshot(state)
}

func (s *GenerationService) pollFunc(state *session.State, jobID string) jobs.PollFunc {
	return func(ctx context.Context) (bool, error) {
		js, err := s.pollOnce(ctx, state, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return true, nil
			}
			s.recordLoopError(state, jobID, err)
			return true, err
		}
		return js.Job.Status.Terminal(), nil
	}
}

// pollOnce fetches the job, advances the progress estimate and, the first
// time completion is seen, refreshes the period's patterns.
func (s *GenerationService) pollOnce(ctx context.Context, state *session.State, jobID string) (session.JobState, error) {
	started := s.now()
	job, err := s.gateway.GetJobStatus(ctx, jobID)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObservePoll("error", s.now().Sub(started))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return session.JobState{}, ctxErr
		}
		return session.JobState{}, err
	}
	if s.metrics != nil {
		s.metrics.ObservePoll(string(job.Status), s.now().Sub(started))
	}

	var becameTerminal, settled bool
	js, ok := state.UpdateJob(jobID, func(current *session.JobState) {
		if current.Job.Status.Terminal() {
			settled = true
			return
		}
		becameTerminal = job.Status.Terminal()
		current.Progress = s.estimator.Next(current.Progress, *job, s.now().Sub(current.SubmittedAt))
		current.BackendProgress = job.Progress
		current.Job = *job
		switch job.Status {
		case models.JobStatusFailed:
			current.Err = &models.LoopError{Code: appErrors.ErrGenerationFailed.Code, Message: failureMessage(job)}
		case models.JobStatusCompleted:
			current.Err = nil
		}
	})
	if !ok {
		// A newer generation replaced this job; report it terminal so its loop ends.
		return session.JobState{Job: models.GenerationJob{ID: jobID, Status: models.JobStatusFailed}}, nil
	}
	if settled {
		// Another poll already saw the job finish; a late response cannot reopen it.
		return js, nil
	}

	if becameTerminal {
		if s.metrics != nil {
			s.metrics.RecordJobTerminal(string(job.Status))
		}
		if job.Status == models.JobStatusFailed {
			s.logger.Sugar().Warnw("generation failed", "session_id", state.ID, "job_id", jobID, "message", failureMessage(job))
		}
	}

	if job.Status == models.JobStatusCompleted && state.ClaimRefresh(jobID) {
		js = s.loadPatterns(ctx, state, js)
	}
	return js, nil
}

func (s *GenerationService) loadPatterns(ctx context.Context, state *session.State, js session.JobState) session.JobState {
	jobID := js.Job.ID
	patterns, err := s.patterns.Refresh(ctx, state, js.Job.YearMonth)
	if err != nil {
		s.logger.Sugar().Warnw("pattern refresh after generation failed", "session_id", state.ID, "job_id", jobID, "error", err)
		updated, _ := state.UpdateJob(jobID, func(current *session.JobState) {
			current.Err = &models.LoopError{Code: appErrors.FromError(err).Code, Message: "patterns could not be loaded: " + err.Error()}
		})
		return updated
	}
	updated, ok := state.UpdateJob(jobID, func(current *session.JobState) {
		current.PatternsLoaded = true
	})
	if !ok {
		return js
	}
	s.logger.Sugar().Infow("generation completed", "session_id", state.ID, "job_id", jobID, "patterns", len(patterns))
	return updated
}

func (s *GenerationService) recordLoopError(state *session.State, jobID string, err error) {
	code := appErrors.ErrTransientFetch.Code
	var domainErr *appErrors.Error
	if errors.As(err, &domainErr) {
		code = domainErr.Code
	}
	state.UpdateJob(jobID, func(current *session.JobState) {
		current.Err = &models.LoopError{Code: code, Message: err.Error()}
	})
	s.logger.Sugar().Warnw("generation polling stopped", "session_id", state.ID, "job_id", jobID, "code", code, "error", err)
}

func (s *GenerationService) snapshot(state *session.State) (models.JobSnapshot, error) {
	js, ok := state.Job()
	if !ok {
		return models.JobSnapshot{}, appErrors.Clone(appErrors.ErrNotFound, "no generation has been started in this session")
	}
	now := s.now()
	end := now
	if js.Job.Status.Terminal() && js.Job.CompletedAt != nil && js.Job.CompletedAt.After(js.SubmittedAt) {
		end = *js.Job.CompletedAt
	}
	return models.JobSnapshot{
		Job:             js.Job,
		Progress:        js.Progress,
		BackendProgress: js.BackendProgress,
		ElapsedSeconds:  end.Sub(js.SubmittedAt).Seconds(),
		Polling:         state.LoopRunning(),
		PatternsLoaded:  js.PatternsLoaded,
		Error:           js.Err,
		ObservedAt:      now,
	}, nil
}

func failureMessage(job *models.GenerationJob) string {
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		return *job.ErrorMessage
	}
	return appErrors.ErrGenerationFailed.Message
}
