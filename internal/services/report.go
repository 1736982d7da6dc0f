package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"alfredoptarigan/agentic-curie/internal/models"
)

const CSVContentType = "text/csv"

var csvHeader = []string{"Resume", "Score", "Strengths", "Gaps", "Summary"}

// ResultsCSV renders match results, one row per resume, with list fields
// joined by " | ".
func ResultsCSV(results []models.MatchResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range results {
		row := []string{
			r.Name,
			strconv.Itoa(r.Score),
			strings.Join(r.Strengths, " | "),
			strings.Join(r.Gaps, " | "),
			r.Summary,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row for %s: %w", r.Name, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
