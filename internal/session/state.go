package session

import (
	"sync"
	"time"

	"github.com/noah-isme/shift-planner-api/internal/models"
	"github.com/noah-isme/shift-planner-api/pkg/jobs"
)

// JobState is the session's record of its current generation job.
type JobState struct {
	Job             models.GenerationJob
	SubmittedAt     time.Time
	Progress        int
	BackendProgress int
	Err             *models.LoopError
	PatternsLoaded  bool
}

// State is everything one planning session holds in memory. All access goes
// through its methods.
type State struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
	closed   bool

	job       *JobState
	loop      *jobs.Task
	refreshed map[string]bool

	period   string
	patterns []models.ShiftPattern
	current  *models.ShiftPattern

	constraints       []models.Constraint
	constraintsLoaded bool

	inflight map[string]struct{}
	plans    map[string]*models.RequestPlan
}

func newState(id string, now time.Time) *State {
	return &State{
		ID:        id,
		CreatedAt: now,
		lastSeen:  now,
		refreshed: make(map[string]bool),
		inflight:  make(map[string]struct{}),
		plans:     make(map[string]*models.RequestPlan),
	}
}

// Touch records activity for idle eviction.
func (s *State) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *State) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Closed reports whether the session has been torn down.
func (s *State) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ReplaceLoop installs task as the session's poll loop and cancels the
// previous one. A nil task just cancels.
func (s *State) ReplaceLoop(task *jobs.Task) {
	s.mu.Lock()
	previous := s.loop
	if s.closed && task != nil {
		s.mu.Unlock()
		task.Cancel()
		previous.Cancel()
		return
	}
	s.loop = task
	s.mu.Unlock()

	if previous != nil && previous != task {
		previous.Cancel()
	}
}

// CancelLoop stops the poll loop if one is running.
func (s *State) CancelLoop() bool {
	s.mu.Lock()
	loop := s.loop
	s.loop = nil
	s.mu.Unlock()
	if loop == nil || !loop.Running() {
		return false
	}
	loop.Cancel()
	return true
}

// LoopRunning reports whether a poll loop is active.
func (s *State) LoopRunning() bool {
	s.mu.Lock()
	loop := s.loop
	s.mu.Unlock()
	return loop.Running()
}

// Loop returns the current poll task, possibly already finished.
func (s *State) Loop() *jobs.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

// SetJob replaces the tracked job.
func (s *State) SetJob(js JobState) {
	s.mu.Lock()
	s.job = &js
	s.mu.Unlock()
}

// Job returns a copy of the tracked job.
func (s *State) Job() (JobState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return JobState{}, false
	}
	return *s.job, true
}

// UpdateJob mutates the tracked job under the session lock if its id still
// matches jobID. It reports whether the update was applied.
func (s *State) UpdateJob(jobID string, fn func(*JobState)) (JobState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil || s.job.Job.ID != jobID {
		return JobState{}, false
	}
	fn(s.job)
	return *s.job, true
}

// ClaimRefresh returns true the first time it is called for jobID.
func (s *State) ClaimRefresh(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshed[jobID] {
		return false
	}
	s.refreshed[jobID] = true
	return true
}

// SetPatterns replaces the pattern list for period.
func (s *State) SetPatterns(period string, patterns []models.ShiftPattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.period = period
	s.patterns = append([]models.ShiftPattern(nil), patterns...)
}

// Patterns returns the loaded period and a copy of its patterns.
func (s *State) Patterns() (string, []models.ShiftPattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period, append([]models.ShiftPattern(nil), s.patterns...)
}

// StorePattern updates one pattern in the list and, if it is the current
// pattern, the current pattern too. Siblings are never touched.
func (s *State) StorePattern(p models.ShiftPattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.patterns {
		if s.patterns[i].ID == p.ID {
			merged := p
			if merged.Entries == nil {
				merged.Entries = s.patterns[i].Entries
			}
			if merged.Summary == nil {
				merged.Summary = s.patterns[i].Summary
			}
			s.patterns[i] = merged
			break
		}
	}
	if s.current != nil && s.current.ID == p.ID {
		merged := p
		if merged.Entries == nil {
			merged.Entries = s.current.Entries
		}
		s.current = &merged
	}
}

// SetCurrent makes p the pattern under edit.
func (s *State) SetCurrent(p models.ShiftPattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	cp.Entries = append([]models.ShiftEntry(nil), p.Entries...)
	s.current = &cp
}

// Current returns a copy of the pattern under edit.
func (s *State) Current() (models.ShiftPattern, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return models.ShiftPattern{}, false
	}
	cp := *s.current
	cp.Entries = append([]models.ShiftEntry(nil), s.current.Entries...)
	return cp, true
}

// FindEntry looks up an entry of the current pattern.
func (s *State) FindEntry(entryID string) (models.ShiftEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return models.ShiftEntry{}, false
	}
	for _, e := range s.current.Entries {
		if e.ID == entryID {
			return e, true
		}
	}
	return models.ShiftEntry{}, false
}

// SetConstraints replaces the cached constraint list.
func (s *State) SetConstraints(list []models.Constraint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.constraints = append([]models.Constraint(nil), list...)
	s.constraintsLoaded = true
}

// Constraints returns the cached constraint list and whether one was loaded.
func (s *State) Constraints() ([]models.Constraint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Constraint(nil), s.constraints...), s.constraintsLoaded
}

// FindConstraint looks up a cached constraint by id.
func (s *State) FindConstraint(id string) (models.Constraint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.constraints {
		if c.ID == id {
			return c, true
		}
	}
	return models.Constraint{}, false
}

// UpsertConstraint replaces the cached constraint with the same id or
// appends c.
func (s *State) UpsertConstraint(c models.Constraint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.constraints {
		if s.constraints[i].ID == c.ID {
			s.constraints[i] = c
			return
		}
	}
	s.constraints = append(s.constraints, c)
}

// RemoveConstraint drops a cached constraint.
func (s *State) RemoveConstraint(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.constraints {
		if s.constraints[i].ID == id {
			s.constraints = append(s.constraints[:i], s.constraints[i+1:]...)
			return
		}
	}
}

// BeginEdit marks entryID as in flight. It returns false when an edit for
// the entry is already running.
func (s *State) BeginEdit(entryID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[entryID]; busy {
		return false
	}
	s.inflight[entryID] = struct{}{}
	return true
}

// EndEdit releases entryID.
func (s *State) EndEdit(entryID string) {
	s.mu.Lock()
	delete(s.inflight, entryID)
	s.mu.Unlock()
}

func planKey(staffID, period string) string {
	return period + "/" + staffID
}

// Plan returns the request plan for a staff member and period.
func (s *State) Plan(staffID, period string) (models.RequestPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planKey(staffID, period)]
	if !ok {
		return models.RequestPlan{}, false
	}
	return plan.Clone(), true
}

// SetPlan stores a request plan.
func (s *State) SetPlan(plan *models.RequestPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[planKey(plan.StaffID, plan.YearMonth)] = plan
}

// WithPlan runs fn on the stored plan under the session lock.
func (s *State) WithPlan(staffID, period string, fn func(*models.RequestPlan) error) (models.RequestPlan, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planKey(staffID, period)]
	if !ok {
		return models.RequestPlan{}, false, nil
	}
	if err := fn(plan); err != nil {
		return models.RequestPlan{}, true, err
	}
	return plan.Clone(), true, nil
}

// close cancels the poll loop and marks the session closed.
func (s *State) close() {
	s.mu.Lock()
	s.closed = true
	loop := s.loop
	s.loop = nil
	s.mu.Unlock()
	loop.Cancel()
}
