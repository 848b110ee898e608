package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/noah-isme/shift-planner-api/internal/watcher"
	"github.com/noah-isme/shift-planner-api/pkg/calendar"
)

func main() {
	_ = godotenv.Load()

	defaultURL := os.Getenv("SHIFTCTL_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080/api/v1"
	}

	apiURL := flag.String("api", defaultURL, "planner API base URL")
	yearMonth := flag.String("month", calendar.Of(time.Now()).Next().String(), "period to generate (YYYY-MM)")
	patterns := flag.Int("patterns", 0, "number of patterns to request (0 uses the server default)")
	interval := flag.Duration("interval", 2*time.Second, "poll interval")
	timeout := flag.Duration("timeout", 15*time.Second, "per-request timeout")
	flag.Parse()

	period, err := calendar.Parse(*yearMonth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -month: %v\n", err)
		os.Exit(2)
	}

	model := watcher.NewModel(watcher.NewClient(*apiURL, *timeout), watcher.Options{
		YearMonth:    period.String(),
		PatternCount: *patterns,
		Interval:     *interval,
	})

	final, err := tea.NewProgram(model).Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running watcher: %v\n", err)
		os.Exit(1)
	}
	if m, ok := final.(watcher.Model); ok && m.Err() != nil {
		os.Exit(1)
	}
}
