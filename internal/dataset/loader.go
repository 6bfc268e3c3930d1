package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"sdr-automation-go/internal/logger"
	"sdr-automation-go/internal/types"
)

type columns struct {
	transcript int
	email      int
	id         int
}

// detectColumns finds the transcript, email and id columns by header name.
func detectColumns(header []string) columns {
	cols := columns{transcript: -1, email: -1, id: -1}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case isIDHeader(l):
			if cols.id == -1 {
				cols.id = i
			}
		case strings.Contains(l, "transcript") || l == "text" || strings.Contains(l, "call text"):
			if cols.transcript == -1 {
				cols.transcript = i
			}
		case strings.Contains(l, "email") || strings.Contains(l, "e-mail"):
			if cols.email == -1 {
				cols.email = i
			}
		}
	}
	return cols
}

// isIDHeader matches "id", "call id", "callid", "transcript_id", "Transcript ID".
func isIDHeader(l string) bool {
	return l == "id" || strings.Contains(l, "callid") ||
		strings.HasSuffix(l, " id") || strings.HasSuffix(l, "_id")
}

// LoadTranscripts reads call transcripts from the first sheet of an xlsx
// workbook. Rows without transcript text are skipped.
func LoadTranscripts(path string, log *logger.Logger) ([]types.Transcript, error) {
	if log == nil {
		log = logger.New()
	}
	log = log.With("component", "dataset").With("path", path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	cols := detectColumns(rows[0])
	if cols.transcript == -1 {
		return nil, fmt.Errorf("no transcript column in header %q", rows[0])
	}
	log.WithField("transcript_idx", cols.transcript).
		WithField("email_idx", cols.email).
		WithField("id_idx", cols.id).
		Debug("detected column indices")

	var out []types.Transcript
	for i, r := range rows[1:] {
		text := strings.TrimSpace(cell(r, cols.transcript))
		if text == "" {
			continue
		}
		id := strings.TrimSpace(cell(r, cols.id))
		if id == "" {
			id = fmt.Sprintf("row-%d", i+2)
		}
		out = append(out, types.Transcript{
			ID:            id,
			Text:          text,
			ProspectEmail: strings.TrimSpace(cell(r, cols.email)),
			Source:        types.SourceBatch,
		})
	}

	log.WithField("count", len(out)).Info("loaded transcripts")
	return out, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
