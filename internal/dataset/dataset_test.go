package dataset

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"sdr-automation-go/internal/logger"
	"sdr-automation-go/internal/types"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calls.xlsx")
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", axis, &row))
	}
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestDetectColumns(t *testing.T) {
	cols := detectColumns([]string{"Call ID", "Rep", "Prospect Email", "Transcript"})
	assert.Equal(t, columns{transcript: 3, email: 2, id: 0}, cols)

	cols = detectColumns([]string{"text", "call_id"})
	assert.Equal(t, columns{transcript: 0, email: -1, id: 1}, cols)

	cols = detectColumns([]string{"Transcript ID", "Transcript", "Prospect Email"})
	assert.Equal(t, columns{transcript: 1, email: 2, id: 0}, cols)

	cols = detectColumns([]string{"transcript_id", "Call Transcript"})
	assert.Equal(t, columns{transcript: 1, email: -1, id: 0}, cols)
}

func TestLoadTranscripts(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Call ID", "Prospect Email", "Transcript"},
		{"c1", "jane@x.edu", "Prospect: send me pricing"},
		{"c2", "dan@y.edu", "   "},
		{"", "", "Prospect: not interested"},
	})

	got, err := LoadTranscripts(path, logger.Discard())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, types.Transcript{ID: "c1", Text: "Prospect: send me pricing", ProspectEmail: "jane@x.edu", Source: types.SourceBatch}, got[0])
	assert.Equal(t, "row-4", got[1].ID)
	assert.Empty(t, got[1].ProspectEmail)
}

func TestLoadTranscripts_Errors(t *testing.T) {
	_, err := LoadTranscripts(filepath.Join(t.TempDir(), "missing.xlsx"), logger.Discard())
	assert.Error(t, err)

	headerOnly := writeWorkbook(t, [][]interface{}{{"Transcript"}})
	_, err = LoadTranscripts(headerOnly, logger.Discard())
	assert.Error(t, err)

	noTranscript := writeWorkbook(t, [][]interface{}{{"Name", "Email"}, {"Jane", "jane@x.edu"}})
	_, err = LoadTranscripts(noTranscript, logger.Discard())
	assert.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	results := []types.CallResult{
		{
			CallID:         "c1",
			Transcript:     types.Transcript{ProspectEmail: "jane@x.edu"},
			Classification: types.Classification{Decision: types.DecisionInterested, Confidence: 9, Reasoning: "asked for pricing"},
			Prospect:       &types.Prospect{FirstName: "Jane", LastName: "Doe", Email: "jane@x.edu", Company: "Example U"},
			Outcome: types.Outcome{
				Action:    types.ActionSendEmail,
				Scheduled: true,
				Email:     &types.Email{Subject: "Following up on pricing", SendAt: time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)},
			},
			TaskID: "00T1",
		},
		{
			CallID:         "c2",
			Classification: types.Classification{Decision: types.DecisionError},
			Outcome:        types.Outcome{Action: types.ActionManualReview},
			Error:          "llm timeout",
		},
	}
	require.NoError(t, WriteReport(path, results))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(resultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Call ID", rows[0][0])
	assert.Equal(t, []string{"c1", "jane@x.edu", "Jane Doe", "Example U", "INTERESTED", "9", "asked for pricing",
		"send_email", "email scheduled", "Following up on pricing", "2026-03-11T09:00:00Z", "00T1", "", "0"}, rows[1])
	assert.Equal(t, "ERROR", rows[2][4])
	assert.Equal(t, "llm timeout", rows[2][12])

	total, err := f.GetCellValue(summarySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
}

func TestActionDetail(t *testing.T) {
	assert.Equal(t, "skipped: no prospect email", actionDetail(types.Outcome{Action: types.ActionNurture, Skipped: "no prospect email"}))
	assert.Equal(t, "email drafted", actionDetail(types.Outcome{Drafted: true}))
	assert.Equal(t, "added to Long-Term Nurture", actionDetail(types.Outcome{AddedSequence: "Long-Term Nurture"}))
	assert.Equal(t, "removed from 2 sequence(s)", actionDetail(types.Outcome{Action: types.ActionDisqualify, RemovedCount: 2}))
	assert.Empty(t, actionDetail(types.Outcome{Action: types.ActionManualReview}))
}
