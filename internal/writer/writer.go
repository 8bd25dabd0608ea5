package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/ycscrape/internal/types"
)

const (
	// MaxDescription is the cleaned description length before the ellipsis.
	MaxDescription = 200
	ellipsis       = "..."
)

// Sink writes record sets to CSV or XLSX files, picked by file extension.
type Sink struct {
	logger *log.Logger
}

// New creates a Sink that reports through logger.
func New(logger *log.Logger) *Sink {
	return &Sink{logger: logger}
}

// CleanDescription flattens line breaks, collapses whitespace and truncates
// to MaxDescription runes plus an ellipsis.
func CleanDescription(desc string) string {
	if desc == "" {
		return ""
	}

	cleaned := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(desc)
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	runes := []rune(cleaned)
	if len(runes) > MaxDescription {
		return string(runes[:MaxDescription]) + ellipsis
	}
	return cleaned
}

// Rows returns the header followed by one numbered row per record, with
// descriptions cleaned. The input records are not modified.
func Rows(records []types.CompanyRecord) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, types.Header)

	for i, record := range records {
		record.Description = CleanDescription(record.Description)
		row := append([]string{strconv.Itoa(i + 1)}, record.Columns()...)
		rows = append(rows, row)
	}
	return rows
}

// WriteRecords replaces path with the given records. An empty record set is
// logged and nothing is written.
func (s *Sink) WriteRecords(records []types.CompanyRecord, path string) error {
	if len(records) == 0 {
		s.logger.Warn("no companies to save", "path", path)
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}

	rows := Rows(records)

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		err = writeExcel(path, rows)
	default:
		err = writeCSV(path, rows)
	}
	if err != nil {
		return err
	}

	s.logger.Info("saved companies", "count", len(records), "path", path)
	return nil
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return file.Close()
}
