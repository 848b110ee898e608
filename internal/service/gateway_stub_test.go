package service

import (
	"context"
	"sync"

	"github.com/noah-isme/shift-planner-api/internal/models"
	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
)

// gatewayStub answers every gateway call from function fields and counts calls.
type gatewayStub struct {
	mu    sync.Mutex
	calls map[string]int

	submit       func(yearMonth string, count int) (*models.GenerationJob, error)
	jobStatus    func(jobID string) (*models.GenerationJob, error)
	listPatterns func(yearMonth string) ([]models.ShiftPattern, error)
	getPattern   func(id string) (*models.ShiftPattern, error)
	selectFn     func(id string) (*models.ShiftPattern, error)
	finalizeFn   func(id string) (*models.ShiftPattern, error)
	updateEntry  func(id string, times models.EntryTimes) (*models.EntryUpdate, error)
	createEntry  func(draft models.EntryDraft) (*models.ShiftEntry, error)
	deleteEntry  func(id string) error

	listConstraints  func(filter models.ConstraintFilter) ([]models.Constraint, error)
	getConstraint    func(id string) (*models.Constraint, error)
	createConstraint func(def models.Constraint) (*models.Constraint, error)
	updateConstraint func(id string, patch models.ConstraintPatch) (*models.Constraint, error)
	deleteConstraint func(id string) error

	listRequests  func(yearMonth, staffID string) ([]models.ShiftRequest, error)
	batchRequests func(drafts []models.ShiftRequestDraft) ([]models.ShiftRequest, error)
	listSettings  func(yearMonth, staffID string) ([]models.StaffMonthlySetting, error)
	createSetting func(input models.MonthlySettingInput) (*models.StaffMonthlySetting, error)
	updateSetting func(id string, input models.MonthlySettingInput) (*models.StaffMonthlySetting, error)
	deleteSetting func(id string) error
}

func (g *gatewayStub) hit(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls == nil {
		g.calls = make(map[string]int)
	}
	g.calls[name]++
}

func (g *gatewayStub) count(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[name]
}

var errNotStubbed = appErrors.Clone(appErrors.ErrInternal, "not stubbed")

func (g *gatewayStub) SubmitGeneration(_ context.Context, yearMonth string, count int) (*models.GenerationJob, error) {
	g.hit("SubmitGeneration")
	if g.submit == nil {
		return nil, errNotStubbed
	}
	return g.submit(yearMonth, count)
}

func (g *gatewayStub) GetJobStatus(_ context.Context, jobID string) (*models.GenerationJob, error) {
	g.hit("GetJobStatus")
	if g.jobStatus == nil {
		return nil, errNotStubbed
	}
	return g.jobStatus(jobID)
}

func (g *gatewayStub) ListPatterns(_ context.Context, yearMonth string) ([]models.ShiftPattern, error) {
	g.hit("ListPatterns")
	if g.listPatterns == nil {
		return nil, errNotStubbed
	}
	return g.listPatterns(yearMonth)
}

func (g *gatewayStub) GetPattern(_ context.Context, id string) (*models.ShiftPattern, error) {
	g.hit("GetPattern")
	if g.getPattern == nil {
		return nil, errNotStubbed
	}
	return g.getPattern(id)
}

func (g *gatewayStub) SelectPattern(_ context.Context, id string) (*models.ShiftPattern, error) {
	g.hit("SelectPattern")
	if g.selectFn == nil {
		return nil, errNotStubbed
	}
	return g.selectFn(id)
}

func (g *gatewayStub) FinalizePattern(_ context.Context, id string) (*models.ShiftPattern, error) {
	g.hit("FinalizePattern")
	if g.finalizeFn == nil {
		return nil, errNotStubbed
	}
	return g.finalizeFn(id)
}

func (g *gatewayStub) ValidateAndUpdateEntry(_ context.Context, id string, times models.EntryTimes) (*models.EntryUpdate, error) {
	g.hit("ValidateAndUpdateEntry")
	if g.updateEntry == nil {
		return nil, errNotStubbed
	}
	return g.updateEntry(id, times)
}

func (g *gatewayStub) CreateEntry(_ context.Context, draft models.EntryDraft) (*models.ShiftEntry, error) {
	g.hit("CreateEntry")
	if g.createEntry == nil {
		return nil, errNotStubbed
	}
	return g.createEntry(draft)
}

func (g *gatewayStub) DeleteEntry(_ context.Context, id string) error {
	g.hit("DeleteEntry")
	if g.deleteEntry == nil {
		return errNotStubbed
	}
	return g.deleteEntry(id)
}

func (g *gatewayStub) ListConstraints(_ context.Context, filter models.ConstraintFilter) ([]models.Constraint, error) {
	g.hit("ListConstraints")
	if g.listConstraints == nil {
		return nil, errNotStubbed
	}
	return g.listConstraints(filter)
}

func (g *gatewayStub) GetConstraint(_ context.Context, id string) (*models.Constraint, error) {
	g.hit("GetConstraint")
	if g.getConstraint == nil {
		return nil, errNotStubbed
	}
	return g.getConstraint(id)
}

func (g *gatewayStub) CreateConstraint(_ context.Context, def models.Constraint) (*models.Constraint, error) {
	g.hit("CreateConstraint")
	if g.createConstraint == nil {
		return nil, errNotStubbed
	}
	return g.createConstraint(def)
}

func (g *gatewayStub) UpdateConstraint(_ context.Context, id string, patch models.ConstraintPatch) (*models.Constraint, error) {
	g.hit("UpdateConstraint")
	if g.updateConstraint == nil {
		return nil, errNotStubbed
	}
	return g.updateConstraint(id, patch)
}

func (g *gatewayStub) DeleteConstraint(_ context.Context, id string) error {
	g.hit("DeleteConstraint")
	if g.deleteConstraint == nil {
		return errNotStubbed
	}
	return g.deleteConstraint(id)
}

func (g *gatewayStub) ListShiftRequests(_ context.Context, yearMonth, staffID string) ([]models.ShiftRequest, error) {
	g.hit("ListShiftRequests")
	if g.listRequests == nil {
		return nil, errNotStubbed
	}
	return g.listRequests(yearMonth, staffID)
}

func (g *gatewayStub) BatchCreateShiftRequests(_ context.Context, drafts []models.ShiftRequestDraft) ([]models.ShiftRequest, error) {
	g.hit("BatchCreateShiftRequests")
	if g.batchRequests == nil {
		return nil, errNotStubbed
	}
	return g.batchRequests(drafts)
}

func (g *gatewayStub) ListMonthlySettings(_ context.Context, yearMonth, staffID string) ([]models.StaffMonthlySetting, error) {
	g.hit("ListMonthlySettings")
	if g.listSettings == nil {
		return nil, errNotStubbed
	}
	return g.listSettings(yearMonth, staffID)
}

func (g *gatewayStub) CreateMonthlySetting(_ context.Context, input models.MonthlySettingInput) (*models.StaffMonthlySetting, error) {
	g.hit("CreateMonthlySetting")
	if g.createSetting == nil {
		return nil, errNotStubbed
	}
	return g.createSetting(input)
}

func (g *gatewayStub) UpdateMonthlySetting(_ context.Context, id string, input models.MonthlySettingInput) (*models.StaffMonthlySetting, error) {
	g.hit("UpdateMonthlySetting")
	if g.updateSetting == nil {
		return nil, errNotStubbed
	}
	return g.updateSetting(id, input)
}

func (g *gatewayStub) DeleteMonthlySetting(_ context.Context, id string) error {
	g.hit("DeleteMonthlySetting")
	if g.deleteSetting == nil {
		return errNotStubbed
	}
	return g.deleteSetting(id)
}

func strPtr(s string) *string { return &s }
