package attendance

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/timeutil"
	"github.com/xuri/excelize/v2"
)

const (
	maxImportRows = 100000
	maxRowErrors  = 50
)

// punchSheet is the parsed content of an uploaded punch-clock export.
type punchSheet struct {
	TotalRows   int
	InvalidRows int
	RowErrors   []attendance.RowError
	Punches     map[string][]attendance.Punch
}

func (p *punchSheet) accepted() int {
	n := 0
	for _, punches := range p.Punches {
		n += len(punches)
	}
	return n
}

func (p *punchSheet) reject(row int, msg string) {
	p.InvalidRows++
	if len(p.RowErrors) < maxRowErrors {
		p.RowErrors = append(p.RowErrors, attendance.RowError{Row: row, Message: msg})
	}
}

// parsePunchSheet reads the first sheet of an xlsx export. The header row
// must name an employee code column plus either a timestamp column or
// separate date and time columns. Rows with unparseable timestamps are
// dropped and counted.
func parsePunchSheet(r io.Reader) (punchSheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return punchSheet{}, fmt.Errorf("%w: %v", attendance.ErrInvalidImportFile, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0), excelize.Options{RawCellValue: true})
	if err != nil {
		return punchSheet{}, fmt.Errorf("%w: %v", attendance.ErrInvalidImportFile, err)
	}
	if len(rows) < 2 {
		return punchSheet{}, attendance.ErrImportNoData
	}
	if len(rows)-1 > maxImportRows {
		return punchSheet{}, fmt.Errorf("%w: more than %d rows", attendance.ErrInvalidImportFile, maxImportRows)
	}

	col := parseHeaderIndex(rows[0])
	if col["employee_code"] < 0 || (col["timestamp"] < 0 && (col["date"] < 0 || col["time"] < 0)) {
		return punchSheet{}, attendance.ErrImportBadHeader
	}

	sheet := punchSheet{Punches: make(map[string][]attendance.Punch)}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		rowNum := i + 1

		code := cell(row, col["employee_code"])
		var stamp, date, clock string
		if col["timestamp"] >= 0 {
			stamp = cell(row, col["timestamp"])
		} else {
			date, clock = cell(row, col["date"]), cell(row, col["time"])
		}

		// Skip blank rows
		if code == "" && stamp == "" && date == "" && clock == "" {
			continue
		}
		sheet.TotalRows++

		if code == "" {
			sheet.reject(rowNum, "employee code is empty")
			continue
		}

		var ts time.Time
		if col["timestamp"] >= 0 {
			ts, err = timeutil.ParseTimestamp(stamp)
		} else {
			ts, err = combineDateTime(date, clock)
		}
		if err != nil {
			sheet.reject(rowNum, err.Error())
			continue
		}

		sheet.Punches[code] = append(sheet.Punches[code], attendance.Punch{EmployeeCode: code, Timestamp: ts})
	}

	if sheet.accepted() == 0 && sheet.InvalidRows == 0 {
		return punchSheet{}, attendance.ErrImportNoData
	}

	return sheet, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseHeaderIndex maps known column names to their index, -1 if absent.
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{
		"employee_code": -1,
		"timestamp":     -1,
		"date":          -1,
		"time":          -1,
	}
	for i, h := range header {
		name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
		switch name {
		case "employee_code", "code", "emp_code", "employee_id", "badge", "ac-no.", "ac_no":
			idx["employee_code"] = i
		case "timestamp", "datetime", "date_time", "punch_time", "checktime":
			idx["timestamp"] = i
		case "date":
			idx["date"] = i
		case "time":
			idx["time"] = i
		}
	}
	return idx
}

// combineDateTime joins separate date and time cells. Either may be a
// formatted string or a raw spreadsheet serial.
func combineDateTime(dateRaw, clockRaw string) (time.Time, error) {
	if dateRaw == "" || clockRaw == "" {
		return time.Time{}, timeutil.ErrInvalidTimestamp
	}

	var date time.Time
	if d, err := timeutil.ParseDate(dateRaw); err == nil {
		date = d
	} else if ts, err := timeutil.ParseTimestamp(dateRaw); err == nil {
		date = timeutil.TruncateDay(ts)
	} else {
		return time.Time{}, fmt.Errorf("%w: date %q", timeutil.ErrInvalidTimestamp, dateRaw)
	}

	clock, err := timeutil.ParseClock(clockRaw)
	if err != nil {
		frac, ferr := strconv.ParseFloat(clockRaw, 64)
		if ferr != nil || frac < 0 || frac >= 1 {
			return time.Time{}, fmt.Errorf("%w: time %q", timeutil.ErrInvalidTimestamp, clockRaw)
		}
		seconds := math.Round(frac * 24 * 60 * 60)
		clock = time.Time{}.Add(time.Duration(seconds) * time.Second)
	}

	return timeutil.Combine(date, clock), nil
}
