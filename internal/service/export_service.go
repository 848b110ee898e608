package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/shift-planner-api/internal/dto"
	"github.com/noah-isme/shift-planner-api/internal/hours"
	"github.com/noah-isme/shift-planner-api/internal/models"
	"github.com/noah-isme/shift-planner-api/internal/session"
	"github.com/noah-isme/shift-planner-api/pkg/export"
)

type patternFetcher interface {
	GetPattern(ctx context.Context, id string) (*models.ShiftPattern, error)
}

type tableRenderer interface {
	Render(table export.Table) ([]byte, error)
}

var rosterHeaders = []string{"date", "staff_id", "staff_name", "start_time", "end_time", "break_minutes", "worked_hours"}

// ExportService renders patterns as downloadable rosters.
type ExportService struct {
	gateway patternFetcher
	csv     tableRenderer
	logger  *zap.Logger
}

// NewExportService constructs the roster exporter.
func NewExportService(gateway patternFetcher, csv tableRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{gateway: gateway, csv: csv, logger: logger}
}

// Pattern renders one row per entry ordered by date and staff, followed by a
// total row per staff member. The session copy is used when it holds entries.
func (s *ExportService) Pattern(ctx context.Context, state *session.State, id string) (dto.PatternExport, error) {
	pattern, ok := cachedPattern(state, id)
	if !ok || pattern.Entries == nil {
		fetched, err := s.gateway.GetPattern(ctx, id)
		if err != nil {
			return dto.PatternExport{}, err
		}
		pattern = *fetched
	}

	entries := append([]models.ShiftEntry(nil), pattern.Entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].StaffID < entries[j].StaffID
	})

	rows := make([][]string, 0, len(entries)+8)
	for _, e := range entries {
		start, end := e.StartTime, e.EndTime
		if e.DayOff() {
			start, end = "", ""
		}
		rows = append(rows, []string{
			e.Date, e.StaffID, e.StaffName, start, end,
			strconv.Itoa(e.BreakMinutes),
			formatHours(hours.WorkedMinutes(e)),
		})
	}
	for _, total := range hours.Breakdown(entries) {
		rows = append(rows, []string{"total", total.StaffID, total.StaffName, "", "", "", formatHours(total.Minutes)})
	}

	content, err := s.csv.Render(export.Table{Headers: rosterHeaders, Rows: rows})
	if err != nil {
		return dto.PatternExport{}, err
	}
	s.logger.Sugar().Infow("pattern exported", "session_id", state.ID, "pattern_id", id, "entries", len(entries))
	return dto.PatternExport{
		Filename:    fmt.Sprintf("roster-%s-%s.csv", pattern.YearMonth, pattern.ID),
		ContentType: "text/csv; charset=utf-8",
		Content:     content,
	}, nil
}

func formatHours(minutes int) string {
	return strconv.FormatFloat(float64(minutes)/60, 'f', 2, 64)
}
