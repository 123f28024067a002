// Package sheetsvc reads and writes exam records as xlsx spreadsheets.
package sheetsvc

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/examtrend"
)

const (
	examSheet  = "Exam Records"
	dateLayout = "2006-01-02"
)

// ExamColumns are the header cells of an exam records sheet.
var ExamColumns = []string{"subject", "topic", "difficulty", "study_hours", "grade", "date"}

var (
	ErrNoSheet       = errors.New("the file does not contain any sheet")
	ErrNoRows        = errors.New("the sheet does not contain any record")
	ErrMissingColumn = errors.New("missing column")
)

// RowError reports the sheet row (1-based, header included) that could not be read.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }
func (e *RowError) Unwrap() error { return e.Err }

// ReadExamRecords reads the first sheet of an xlsx file. The first row is the header; columns
// are matched by name in any order and blank rows are skipped.
// When given, check is run on every record read; a failing record aborts the read with a RowError.
func ReadExamRecords(r io.Reader, check ...func(nr *examtrend.NewRecord) error) ([]examtrend.NewRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, core.NewFieldValidationError("file", "invalid xlsx file")
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %q", sheet)
	}
	if len(rows) < 2 {
		return nil, ErrNoRows
	}

	index, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	nrs := make([]examtrend.NewRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		nr, err := readRow(row, index)
		if err == nil && len(check) > 0 {
			err = check[0](&nr)
		}
		if err != nil {
			return nil, &RowError{Row: i + 2, Err: err}
		}
		nrs = append(nrs, nr)
	}
	if len(nrs) == 0 {
		return nil, ErrNoRows
	}
	return nrs, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(ExamColumns))
	for i, cell := range header {
		name := strings.ReplaceAll(core.CleanString(cell, true /* lower */), " ", "_")
		if core.ContainsString(ExamColumns, name) {
			if _, dup := index[name]; !dup {
				index[name] = i
			}
		}
	}
	for _, col := range ExamColumns {
		if _, ok := index[col]; !ok {
			return nil, errors.Wrap(ErrMissingColumn, col)
		}
	}
	return index, nil
}

func readRow(row []string, index map[string]int) (examtrend.NewRecord, error) {
	cell := func(col string) string {
		if i := index[col]; i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	nr := examtrend.NewRecord{
		Subject:    cell("subject"),
		Topic:      cell("topic"),
		Difficulty: cell("difficulty"),
		Date:       cell("date"),
	}
	var err error
	if nr.StudyHours, err = number(cell("study_hours")); err != nil {
		return nr, errors.Wrap(err, "study_hours")
	}
	if nr.Grade, err = number(cell("grade")); err != nil {
		return nr, errors.Wrap(err, "grade")
	}

	// date cells hold Excel serial numbers
	if serial, err := strconv.ParseFloat(nr.Date, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			nr.Date = t.Format(dateLayout)
		}
	}
	return nr, nil
}

// number returns nil for an empty cell.
func number(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.New("must be a number")
	}
	return &v, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteExamRecords writes recs to w as a single sheet xlsx file, in the order given.
func WriteExamRecords(w io.Writer, recs []examtrend.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), examSheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	header := make([]interface{}, len(ExamColumns))
	for i, col := range ExamColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(examSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(examSheet, 1, 1, style)
	}

	for i, rec := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "locating row")
		}
		row := []interface{}{
			rec.Subject, rec.Topic, rec.Difficulty, rec.StudyHours, rec.Grade, rec.Date.Format(dateLayout),
		}
		if err = f.SetSheetRow(examSheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}
	}
	_ = f.SetColWidth(examSheet, "A", "F", 16)

	return errors.Wrap(f.Write(w), "writing xlsx file")
}
