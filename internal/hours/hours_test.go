package hours

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/shift-planner-api/internal/models"
)

func entry(staff, date, start, end string, breakMinutes int) models.ShiftEntry {
	return models.ShiftEntry{StaffID: staff, StaffName: "name-" + staff, Date: date, StartTime: start, EndTime: end, BreakMinutes: breakMinutes}
}

func TestWorkedMinutes(t *testing.T) {
	assert.Equal(t, 420, WorkedMinutes(entry("a", "2025-01-01", "09:00", "17:00", 60)))
	assert.Equal(t, 0, WorkedMinutes(entry("a", "2025-01-01", "", "", 0)))
	assert.Equal(t, 0, WorkedMinutes(entry("a", "2025-01-01", "09:00", "", 0)))
	assert.Equal(t, 0, WorkedMinutes(entry("a", "2025-01-01", "17:00", "09:00", 0)))
	assert.Equal(t, 0, WorkedMinutes(entry("a", "2025-01-01", "09:00", "10:00", 90)))
	assert.Equal(t, 510, WorkedMinutes(entry("a", "2025-01-01", "09:00:00", "18:00:00", 30)))
}

func TestAggregateHours(t *testing.T) {
	entries := []models.ShiftEntry{
		entry("a", "2025-01-01", "09:00", "17:00", 60),
		entry("a", "2025-01-02", "09:00", "13:30", 0),
		entry("b", "2025-01-01", "10:00", "19:00", 60),
		entry("b", "2025-01-02", "", "", 0),
	}
	totals := AggregateHours(entries)
	assert.Equal(t, map[string]float64{"a": 11.5, "b": 8}, totals)

	summary := Summarize(entries)
	assert.Equal(t, 4, summary.TotalEntries)
	assert.Equal(t, totals, summary.StaffHours)
}

func TestAggregateHoursOrderIndependent(t *testing.T) {
	entries := []models.ShiftEntry{
		entry("a", "2025-01-01", "09:00", "17:20", 45),
		entry("a", "2025-01-02", "08:10", "12:00", 0),
		entry("b", "2025-01-01", "10:00", "19:00", 60),
		entry("c", "2025-01-03", "13:00", "22:00", 15),
		entry("b", "2025-01-04", "07:05", "15:55", 30),
		entry("c", "2025-01-04", "", "", 0),
	}
	want := AggregateHours(entries)
	wantRows := Breakdown(entries)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]models.ShiftEntry(nil), entries...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, AggregateHours(shuffled))
		assert.Equal(t, wantRows, Breakdown(shuffled))
	}
}

func TestBreakdown(t *testing.T) {
	rows := Breakdown([]models.ShiftEntry{
		entry("b", "2025-01-01", "09:00", "12:00", 0),
		entry("a", "2025-01-01", "09:00", "17:00", 60),
		entry("a", "2025-01-02", "", "", 0),
	})
	assert.Equal(t, []StaffHours{
		{StaffID: "a", StaffName: "name-a", Minutes: 420, Hours: 7, Shifts: 1},
		{StaffID: "b", StaffName: "name-b", Minutes: 180, Hours: 3, Shifts: 1},
	}, rows)
}

func TestAggregateHoursEmpty(t *testing.T) {
	assert.Empty(t, AggregateHours(nil))
	assert.Equal(t, 0, Summarize(nil).TotalEntries)
}
