// Package export writes interview result summaries to an Excel workbook.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rbright/intervu/internal/interview"
)

const (
	SummarySheet = "Summary"
	ResultsSheet = "Results"
)

var resultHeaders = []string{
	"Date", "Candidate", "Position", "Job", "Overall", "Technical",
	"Communication", "Recommendation", "Answered", "Feedback",
}

// WriteWorkbook writes rows for email to path and returns the final path (".xlsx" appended when missing).
func WriteWorkbook(path, email string, rows []interview.ResultSummary, generated time.Time) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("export path cannot be empty")
	}
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return "", fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(ResultsSheet); err != nil {
		return "", fmt.Errorf("create results sheet: %w", err)
	}

	if err := writeSummary(f, email, rows, generated); err != nil {
		return "", fmt.Errorf("write summary sheet: %w", err)
	}
	if err := writeResults(f, rows); err != nil {
		return "", fmt.Errorf("write results sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook %s: %w", path, err)
	}
	return path, nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

func writeSummary(f *excelize.File, email string, rows []interview.ResultSummary, generated time.Time) error {
	sheet := SummarySheet
	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	label, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 40); err != nil {
		return err
	}

	counts := map[interview.Recommendation]int{}
	var total float64
	for _, r := range rows {
		counts[r.Recommendation]++
		total += r.OverallScore
	}
	average := "n/a"
	if len(rows) > 0 {
		average = fmt.Sprintf("%.1f", total/float64(len(rows)))
	}

	entries := [][2]any{
		{"Candidate email", email},
		{"Generated", generated.Format("2006-01-02 15:04:05")},
		{"Interviews", len(rows)},
		{"Average overall score", average},
		{"Hire", counts[interview.RecommendationHire]},
		{"Consider", counts[interview.RecommendationConsider]},
		{"Reject", counts[interview.RecommendationReject]},
	}

	if err := f.SetCellValue(sheet, "A1", "Interview Results"); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", "B1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", header); err != nil {
		return err
	}
	for i, e := range entries {
		row := i + 3
		a, _ := excelize.CoordinatesToCellName(1, row)
		b, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellValue(sheet, a, e[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, a, a, label); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, b, e[1]); err != nil {
			return err
		}
	}
	return nil
}

func recommendationFill(r interview.Recommendation) string {
	switch r {
	case interview.RecommendationHire:
		return "C6EFCE"
	case interview.RecommendationConsider:
		return "FFEB9C"
	case interview.RecommendationReject:
		return "FFC7CE"
	}
	return ""
}

func writeResults(f *excelize.File, rows []interview.ResultSummary) error {
	sheet := ResultsSheet
	header, err := headerStyle(f)
	if err != nil {
		return err
	}

	for col, h := range resultHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(resultHeaders), 1)
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "I", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "J", "J", 60); err != nil {
		return err
	}

	fills := map[interview.Recommendation]int{}
	for i, r := range rows {
		row := i + 2
		values := []any{
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.CandidateName,
			r.Position,
			r.JobID,
			r.OverallScore,
			r.TechnicalScore,
			r.CommunicationScore,
			string(r.Recommendation),
			fmt.Sprintf("%d/%d", r.QuestionsAnswered, r.TotalQuestions),
			r.FinalFeedback,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return err
		}

		color := recommendationFill(r.Recommendation)
		if color == "" {
			continue
		}
		style, ok := fills[r.Recommendation]
		if !ok {
			style, err = f.NewStyle(&excelize.Style{
				Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
				Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
			})
			if err != nil {
				return err
			}
			fills[r.Recommendation] = style
		}
		end, _ := excelize.CoordinatesToCellName(len(resultHeaders), row)
		if err := f.SetCellStyle(sheet, start, end, style); err != nil {
			return err
		}
	}

	if len(rows) > 0 {
		end, _ := excelize.CoordinatesToCellName(len(resultHeaders), len(rows)+1)
		if err := f.AutoFilter(sheet, "A1:"+end, nil); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
