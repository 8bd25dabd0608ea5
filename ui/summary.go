package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/go-scripts/ycscrape/internal/types"
)

const (
	sampleCount        = 3
	descriptionPreview = 60
	linkPreview        = 50
)

var (
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// Summary holds the totals of a finished run.
type Summary struct {
	Loaded    int
	Slugs     int
	Attempted int
	Failed    int
	Output    string
	Elapsed   time.Duration
	Records   []types.CompanyRecord
}

// RenderSummary formats the run totals and a preview of the first few records.
func RenderSummary(s Summary) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Scrape complete"))
	b.WriteString("\n\n")

	output := s.Output
	if output == "" {
		output = "(nothing written)"
	}

	stats := []struct {
		label string
		value string
	}{
		{"Loaded", fmt.Sprintf("%d", s.Loaded)},
		{"Companies found", fmt.Sprintf("%d", s.Slugs)},
		{"Pages fetched", fmt.Sprintf("%d", s.Attempted)},
		{"Scraped", fmt.Sprintf("%d", len(s.Records))},
		{"Skipped", fmt.Sprintf("%d", s.Failed)},
		{"Output", output},
	}
	if s.Elapsed > 0 {
		stats = append(stats, struct {
			label string
			value string
		}{"Elapsed", s.Elapsed.Round(time.Second).String()})
	}

	for _, stat := range stats {
		b.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render(fmt.Sprintf("%-16s", stat.label+":")),
			valueStyle.Render(stat.value)))
	}

	if len(s.Records) == 0 {
		b.WriteString("\n")
		b.WriteString(warningStyle.Render("No companies were scraped."))
		return borderStyle.Render(b.String())
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Sample"))
	for i, r := range s.Records {
		if i == sampleCount {
			break
		}
		b.WriteString("\n\n")
		b.WriteString(renderRecord(i+1, r))
	}

	return borderStyle.Render(b.String())
}

func renderRecord(n int, r types.CompanyRecord) string {
	batch := r.Batch
	if batch == "" {
		batch = "N/A"
	}
	cols := r.Columns()

	lines := []string{
		fmt.Sprintf("%d. %s", n, valueStyle.Render(r.Name)),
		fmt.Sprintf("   %s %s", labelStyle.Render("Batch:"), batch),
		fmt.Sprintf("   %s %s", labelStyle.Render("Description:"), preview(strings.Join(strings.Fields(r.Description), " "), descriptionPreview)),
		fmt.Sprintf("   %s %s", labelStyle.Render("Founders:"), cols[3]),
		fmt.Sprintf("   %s %s", labelStyle.Render("LinkedIn:"), preview(cols[4], linkPreview)),
	}
	return strings.Join(lines, "\n")
}

// preview cuts s to limit runes and marks the cut.
func preview(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
