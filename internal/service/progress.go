package service

import (
	"time"

	"github.com/noah-isme/shift-planner-api/internal/models"
)

const (
	DefaultProgressCap  = 90
	DefaultProgressRate = 2.0

	// maxRunningProgress keeps 100 reserved for completed jobs.
	maxRunningProgress = 99
)

// ProgressEstimator smooths the progress shown while the optimizer runs. The
// backend often reports 0 until it finishes, so elapsed time drives a
// heuristic floor that stops at Cap.
type ProgressEstimator struct {
	Cap  int
	Rate float64
}

// NewProgressEstimator returns an estimator, substituting defaults for
// non-positive settings.
func NewProgressEstimator(cap int, rate float64) ProgressEstimator {
	if cap <= 0 {
		cap = DefaultProgressCap
	}
	if cap > maxRunningProgress {
		cap = maxRunningProgress
	}
	if rate <= 0 {
		rate = DefaultProgressRate
	}
	return ProgressEstimator{Cap: cap, Rate: rate}
}

// Next returns the progress to show after observing job, given the previously
// shown value and the time since submission.
func (e ProgressEstimator) Next(previous int, job models.GenerationJob, elapsed time.Duration) int {
	switch job.Status {
	case models.JobStatusCompleted:
		return 100
	case models.JobStatusProcessing:
		heuristic := int(elapsed.Seconds() * e.Rate)
		if heuristic > e.Cap {
			heuristic = e.Cap
		}
		next := previous
		if job.Progress > next {
			next = job.Progress
		}
		if heuristic > next {
			next = heuristic
		}
		if next > maxRunningProgress {
			next = maxRunningProgress
		}
		return next
	default:
		// pending keeps its value; failed freezes at the last shown value.
		if previous < 0 {
			return 0
		}
		return previous
	}
}
