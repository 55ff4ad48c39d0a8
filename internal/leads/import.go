package leads

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/store"
)

// ImportResult summarizes a spreadsheet import.
type ImportResult struct {
	Imported   int
	Duplicates int
	Skipped    int
}

// importColumns maps recognized header names to lead fields. Headers are
// matched case-insensitively with spaces treated as underscores.
var importColumns = map[string]func(*model.Lead, string){
	"email":        func(l *model.Lead, v string) { l.Email = v },
	"first_name":   func(l *model.Lead, v string) { l.FirstName = v },
	"last_name":    func(l *model.Lead, v string) { l.LastName = v },
	"company":      func(l *model.Lead, v string) { l.Company = v },
	"job_title":    func(l *model.Lead, v string) { l.JobTitle = v },
	"phone":        func(l *model.Lead, v string) { l.Phone = v },
	"website":      func(l *model.Lead, v string) { l.Website = v },
	"linkedin_url": func(l *model.Lead, v string) { l.LinkedInURL = v },
	"notes":        func(l *model.Lead, v string) { l.Notes = v },
	"source": func(l *model.Lead, v string) {
		if src := model.LeadSource(strings.ToLower(v)); src.Valid() {
			l.Source = src
		}
	},
}

// ImportXLSX reads leads from the first sheet of an XLSX file and inserts
// them one by one. The first row is the header. Rows without an email are
// skipped; duplicate emails are counted and left untouched.
func ImportXLSX(ctx context.Context, st store.Store, path string) (*ImportResult, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "import: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("import: file has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return &ImportResult{}, nil
	}

	setters := headerSetters(sheet.Rows[0])
	if len(setters) == 0 {
		return nil, eris.New("import: no recognized columns in header row")
	}

	result := &ImportResult{}
	for _, row := range sheet.Rows[1:] {
		if ctx.Err() != nil {
			return result, eris.Wrap(ctx.Err(), "import: cancelled")
		}

		lead := &model.Lead{}
		for col, set := range setters {
			if col < len(row.Cells) {
				if v := strings.TrimSpace(row.Cells[col].String()); v != "" {
					set(lead, v)
				}
			}
		}

		if lead.Email == "" {
			result.Skipped++
			continue
		}

		switch _, err := st.CreateLead(ctx, lead); {
		case err == nil:
			result.Imported++
		case eris.Is(err, store.ErrDuplicateEmail):
			result.Duplicates++
		default:
			return result, eris.Wrapf(err, "import: row for %s", lead.Email)
		}
	}

	zap.L().Info("import: complete",
		zap.Int("imported", result.Imported),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func headerSetters(header *xlsx.Row) map[int]func(*model.Lead, string) {
	setters := make(map[int]func(*model.Lead, string))
	for i, cell := range header.Cells {
		key := strings.ToLower(strings.TrimSpace(cell.String()))
		key = strings.ReplaceAll(key, " ", "_")
		if set, ok := importColumns[key]; ok {
			setters[i] = set
		}
	}
	return setters
}
