package export

import (
	"strings"
	"time"

	"exclusioncheck/internal/screening/models"
)

var csvHeader = []string{
	"Result ID", "First Name", "Last Name", "DOB", "Status", "Check Date", "Message",
	"Medical Check Status", "OIG Status", "SAM Status", "NSOPW Status",
}

// CSV renders one row per result under a fixed header. Every field is
// double-quoted and embedded quotes are doubled; a database that was not
// checked reads "not checked".
func CSV(results []models.OverallResult) string {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))
	b.WriteByte('\n')

	for _, r := range results {
		row := []string{
			r.ResultID,
			r.FirstName,
			r.LastName,
			formatDOB(r.DateOfBirth),
			string(r.Status),
			formatDate(r.CheckDate),
			r.Message,
		}
		for _, id := range models.DatabaseOrder {
			row = append(row, databaseStatus(r, id))
		}
		for i, field := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quote(field))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// CSVFilename is the download name for a CSV export made at now.
func CSVFilename(now time.Time) string {
	return "exclusion-verification-" + now.Format(fileDate) + ".csv"
}

func quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
