package watcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/noah-isme/shift-planner-api/internal/models"
)

// API is the slice of the planner surface the watcher drives.
type API interface {
	OpenSession(ctx context.Context) (string, error)
	CloseSession(ctx context.Context, sessionID string) error
	StartGeneration(ctx context.Context, sessionID, yearMonth string, patternCount int) (models.JobSnapshot, error)
	Poll(ctx context.Context, sessionID string) (models.JobSnapshot, error)
	CancelGeneration(ctx context.Context, sessionID string) error
	Patterns(ctx context.Context, sessionID, yearMonth string) ([]models.ShiftPattern, error)
}

// Options configures one watch run.
type Options struct {
	YearMonth    string
	PatternCount int
	Interval     time.Duration
}

type phase int

const (
	phaseOpening phase = iota
	phaseSubmitting
	phasePolling
	phaseLoading
	phaseDone
	phaseFailed
)

type (
	sessionOpenedMsg struct{ id string }
	snapshotMsg      struct{ snapshot models.JobSnapshot }
	patternsMsg      struct{ patterns []models.ShiftPattern }
	pollTickMsg      struct{}
	errMsg           struct{ err error }
	closedMsg        struct{}
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	statusStyles = map[models.PatternStatus]lipgloss.Style{
		models.PatternStatusDraft:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		models.PatternStatusSelected:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.PatternStatusFinalized: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

// Model is the bubbletea model of the progress watcher.
type Model struct {
	api       API
	opts      Options
	sessionID string
	phase     phase
	snapshot  models.JobSnapshot
	patterns  []models.ShiftPattern
	err       error
	quitting  bool

	spinner  spinner.Model
	progress progress.Model
}

// NewModel returns a watcher that opens a session and generates opts.YearMonth.
func NewModel(api API, opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{
		api:      api,
		opts:     opts,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(48)),
	}
}

// Init opens the planning session.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.openSession())
}

// Update advances the watcher on each message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.quitting {
				return m, tea.Quit
			}
			m.quitting = true
			return m, m.teardown(m.phase == phasePolling || m.phase == phaseSubmitting)
		}
		return m, nil

	case sessionOpenedMsg:
		m.sessionID = msg.id
		m.phase = phaseSubmitting
		return m, m.start()

	case snapshotMsg:
		m.snapshot = msg.snapshot
		if msg.snapshot.Error != nil {
			m.phase = phaseFailed
			m.err = fmt.Errorf("%s: %s", msg.snapshot.Error.Code, msg.snapshot.Error.Message)
			return m, nil
		}
		switch msg.snapshot.Job.Status {
		case models.JobStatusCompleted:
			m.phase = phaseLoading
			return m, m.loadPatterns()
		case models.JobStatusFailed:
			m.phase = phaseFailed
			m.err = fmt.Errorf("generation failed")
			return m, nil
		}
		m.phase = phasePolling
		return m, m.schedulePoll()

	case pollTickMsg:
		if m.phase != phasePolling || m.quitting {
			return m, nil
		}
		return m, m.poll()

	case patternsMsg:
		m.patterns = msg.patterns
		m.phase = phaseDone
		return m, nil

	case errMsg:
		m.err = msg.err
		m.phase = phaseFailed
		return m, nil

	case closedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the current phase.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Shift generation "+m.opts.YearMonth) + "\n\n")

	switch m.phase {
	case phaseOpening:
		b.WriteString(m.spinner.View() + " opening session\n")
	case phaseSubmitting:
		b.WriteString(m.spinner.View() + " submitting job\n")
	case phasePolling:
		b.WriteString(m.spinner.View() + " " + statusLine(m.snapshot) + "\n")
		b.WriteString(m.progress.ViewAs(float64(m.snapshot.Progress)/100) + "\n")
	case phaseLoading:
		b.WriteString(m.progress.ViewAs(1) + "\n")
		b.WriteString(m.spinner.View() + " loading patterns\n")
	case phaseDone:
		b.WriteString(m.progress.ViewAs(1) + "\n\n")
		b.WriteString(renderPatterns(m.patterns))
	case phaseFailed:
		b.WriteString(errorStyle.Render("error: "+errorText(m.err)) + "\n")
	}

	if m.quitting {
		b.WriteString("\n" + mutedStyle.Render("closing session...") + "\n")
	} else {
		b.WriteString("\n" + mutedStyle.Render("q: cancel and quit") + "\n")
	}
	return b.String()
}

// Err returns the error that ended the run, if any.
func (m Model) Err() error {
	return m.err
}

func (m Model) openSession() tea.Cmd {
	return func() tea.Msg {
		id, err := m.api.OpenSession(context.Background())
		if err != nil {
			return errMsg{err: err}
		}
		return sessionOpenedMsg{id: id}
	}
}

func (m Model) start() tea.Cmd {
	sessionID := m.sessionID
	return func() tea.Msg {
		snapshot, err := m.api.StartGeneration(context.Background(), sessionID, m.opts.YearMonth, m.opts.PatternCount)
		if err != nil {
			return errMsg{err: err}
		}
		return snapshotMsg{snapshot: snapshot}
	}
}

func (m Model) schedulePoll() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(time.Time) tea.Msg { return pollTickMsg{} })
}

func (m Model) poll() tea.Cmd {
	sessionID := m.sessionID
	return func() tea.Msg {
		snapshot, err := m.api.Poll(context.Background(), sessionID)
		if err != nil {
			return errMsg{err: err}
		}
		return snapshotMsg{snapshot: snapshot}
	}
}

func (m Model) loadPatterns() tea.Cmd {
	sessionID := m.sessionID
	return func() tea.Msg {
		patterns, err := m.api.Patterns(context.Background(), sessionID, m.opts.YearMonth)
		if err != nil {
			return errMsg{err: err}
		}
		return patternsMsg{patterns: patterns}
	}
}

// teardown cancels the job's poll loop when one is running, then closes the session.
func (m Model) teardown(cancel bool) tea.Cmd {
	sessionID := m.sessionID
	return func() tea.Msg {
		if sessionID == "" {
			return closedMsg{}
		}
		ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if cancel {
			_ = m.api.CancelGeneration(ctx, sessionID)
		}
		_ = m.api.CloseSession(ctx, sessionID)
		return closedMsg{}
	}
}

func statusLine(s models.JobSnapshot) string {
	line := fmt.Sprintf("%s %d%%", s.Job.Status, s.Progress)
	if s.Job.StatusMessage != nil && *s.Job.StatusMessage != "" {
		line += " · " + *s.Job.StatusMessage
	}
	return line
}

func renderPatterns(patterns []models.ShiftPattern) string {
	if len(patterns) == 0 {
		return mutedStyle.Render("no patterns generated") + "\n"
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-38s %8s %-10s %s", "PATTERN", "SCORE", "STATUS", "VIOLATIONS")) + "\n")
	for _, p := range patterns {
		score := "-"
		if p.Score != nil {
			score = fmt.Sprintf("%.1f", *p.Score)
		}
		style, ok := statusStyles[p.Status]
		if !ok {
			style = lipgloss.NewStyle()
		}
		status := style.Render(fmt.Sprintf("%-10s", p.Status))
		b.WriteString(fmt.Sprintf("%-38s %8s %s %d\n", p.ID, score, status, len(p.ConstraintViolations)))
	}
	return b.String()
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
