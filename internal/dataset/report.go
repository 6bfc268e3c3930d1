package dataset

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"sdr-automation-go/internal/aggregator"
	"sdr-automation-go/internal/types"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

var reportHeader = []interface{}{
	"Call ID", "Prospect Email", "Prospect", "Company", "Decision", "Confidence",
	"Reasoning", "Action", "Action Detail", "Email Subject", "Send At", "Task ID",
	"Error", "Duration (ms)",
}

// WriteReport saves one row per call plus a summary sheet.
func WriteReport(path string, results []types.CallResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := f.SetSheetRow(resultsSheet, "A1", &reportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetRowStyle(resultsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range results {
		row := resultRow(r)
		axis, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(resultsSheet, axis, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := writeSummary(f, aggregator.Aggregate(results), bold); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func resultRow(r types.CallResult) []interface{} {
	var name, company string
	email := r.Transcript.ProspectEmail
	if r.Prospect != nil {
		name = r.Prospect.FullName()
		company = r.Prospect.Company
		if r.Prospect.Email != "" {
			email = r.Prospect.Email
		}
	}

	var subject, sendAt string
	if r.Outcome.Email != nil {
		subject = r.Outcome.Email.Subject
		sendAt = r.Outcome.Email.SendAt.Format(time.RFC3339)
	}

	errText := r.Error
	if errText == "" {
		errText = r.Outcome.Error
	}

	return []interface{}{
		r.CallID, email, name, company,
		string(r.Classification.Decision), r.Classification.Confidence, r.Classification.Reasoning,
		r.Outcome.Action, actionDetail(r.Outcome), subject, sendAt, r.TaskID,
		errText, r.DurationMs,
	}
}

func actionDetail(o types.Outcome) string {
	switch {
	case o.Skipped != "":
		return "skipped: " + o.Skipped
	case o.Scheduled:
		return "email scheduled"
	case o.Drafted:
		return "email drafted"
	case o.AddedSequence != "":
		return "added to " + o.AddedSequence
	case o.Action == types.ActionDisqualify:
		return fmt.Sprintf("removed from %d sequence(s)", o.RemovedCount)
	default:
		return ""
	}
}

func writeSummary(f *excelize.File, sum aggregator.Summary, bold int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total calls", sum.Total},
		{"Average confidence", sum.AverageConfidence},
		{"Emails scheduled", sum.Scheduled},
		{"Emails drafted", sum.Drafted},
		{"Errors", sum.Errors},
	}
	for _, d := range aggregator.DecisionOrder {
		rows = append(rows, []interface{}{string(d), sum.ByDecision[d]})
	}

	for i, row := range rows {
		axis, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, axis, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return f.SetRowStyle(summarySheet, 1, 1, bold)
}
