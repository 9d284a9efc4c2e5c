package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"lexora-backend/internal/models"
)

// excelize.NewFile creates a workbook with this single sheet.
const exportSheet = "Sheet1"

var exportHeader = []string{
	"word", "phonetic", "meaning", "example", "difficulty",
	"mastery_score", "review_count", "error_count", "last_reviewed_at", "next_review_at",
}

func exportRecord(r models.ExportRow) []string {
	return []string{
		r.Word,
		deref(r.Phonetic),
		r.Meaning,
		deref(r.Example),
		strconv.Itoa(r.Difficulty),
		strconv.Itoa(r.MasteryScore),
		strconv.Itoa(r.ReviewCount),
		strconv.Itoa(r.ErrorCount),
		formatTime(r.LastReviewedAt),
		formatTime(r.NextReviewAt),
	}
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []models.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(exportRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes rows to a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []models.ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, rec := range append([][]string{exportHeader}, recordsOf(rows)...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(rec))
		for j, v := range rec {
			values[j] = v
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func recordsOf(rows []models.ExportRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, exportRecord(r))
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
