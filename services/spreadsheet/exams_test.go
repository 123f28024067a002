package sheetsvc

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/examtrend"
)

// sheet builds an xlsx file from rows.
func sheet(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	name := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow(name, cell, &row))
	}
	buf := new(bytes.Buffer)
	require.NoError(t, f.Write(buf))
	return buf
}

func TestReadExamRecords(t *testing.T) {
	header := []interface{}{"subject", "topic", "difficulty", "study_hours", "grade", "date"}

	t.Run("valid sheet", func(t *testing.T) {
		buf := sheet(t, [][]interface{}{
			header,
			{"Math", "Algebra", "easy", 2.5, 80, "2024-01-15"},
			{},
			{"Physics", "Optics", "hard", 4, 65.5, "2024-02-01"},
		})
		nrs, err := ReadExamRecords(buf)
		require.NoError(t, err)
		require.Len(t, nrs, 2)

		assert.Equal(t, "Math", nrs[0].Subject)
		assert.Equal(t, "Algebra", nrs[0].Topic)
		assert.Equal(t, "easy", nrs[0].Difficulty)
		assert.Equal(t, 2.5, *nrs[0].StudyHours)
		assert.Equal(t, 80.0, *nrs[0].Grade)
		assert.Equal(t, "2024-01-15", nrs[0].Date)
		assert.Equal(t, "Physics", nrs[1].Subject)
		assert.Equal(t, 65.5, *nrs[1].Grade)
	})

	t.Run("columns in any order", func(t *testing.T) {
		buf := sheet(t, [][]interface{}{
			{"Date", "Grade", "Study Hours", "Difficulty", "Topic", "Subject"},
			{"2024-03-10", 90, 3, "medium", "Cells", "Biology"},
		})
		nrs, err := ReadExamRecords(buf)
		require.NoError(t, err)
		require.Len(t, nrs, 1)
		assert.Equal(t, "Biology", nrs[0].Subject)
		assert.Equal(t, "Cells", nrs[0].Topic)
		assert.Equal(t, 3.0, *nrs[0].StudyHours)
		assert.Equal(t, 90.0, *nrs[0].Grade)
	})

	t.Run("date cells", func(t *testing.T) {
		buf := sheet(t, [][]interface{}{
			header,
			{"Math", "Algebra", "easy", 2, 80, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)},
		})
		nrs, err := ReadExamRecords(buf)
		require.NoError(t, err)
		require.Len(t, nrs, 1)
		assert.Equal(t, "2024-05-20", nrs[0].Date)
	})

	t.Run("empty numbers", func(t *testing.T) {
		buf := sheet(t, [][]interface{}{
			header,
			{"Math", "Algebra", "easy", "", "", "2024-01-15"},
		})
		nrs, err := ReadExamRecords(buf)
		require.NoError(t, err)
		assert.Nil(t, nrs[0].StudyHours)
		assert.Nil(t, nrs[0].Grade)
	})

	t.Run("invalid number", func(t *testing.T) {
		buf := sheet(t, [][]interface{}{
			header,
			{"Math", "Algebra", "easy", 2, 80, "2024-01-15"},
			{"Math", "Algebra", "easy", "two", 80, "2024-01-15"},
		})
		_, err := ReadExamRecords(buf)
		var rowErr *RowError
		require.True(t, errors.As(err, &rowErr), "got %v", err)
		assert.Equal(t, 3, rowErr.Row)
		assert.True(t, strings.HasPrefix(err.Error(), "row 3: study_hours"), err.Error())
	})

	t.Run("failed check", func(t *testing.T) {
		buf := sheet(t, [][]interface{}{
			header,
			{"Math", "Algebra", "easy", 2, 80, "2024-01-15"},
			{},
			{"Math", "Geometry", "easy", 2, 180, "2024-01-15"},
		})
		errTooHigh := errors.New("grade too high")
		_, err := ReadExamRecords(buf, func(nr *examtrend.NewRecord) error {
			if *nr.Grade > 100 {
				return errTooHigh
			}
			return nil
		})
		var rowErr *RowError
		require.True(t, errors.As(err, &rowErr), "got %v", err)
		assert.Equal(t, 4, rowErr.Row)
		assert.Equal(t, errTooHigh, rowErr.Err)
	})

	t.Run("missing column", func(t *testing.T) {
		buf := sheet(t, [][]interface{}{
			{"subject", "topic", "difficulty", "study_hours", "grade"},
			{"Math", "Algebra", "easy", 2, 80},
		})
		_, err := ReadExamRecords(buf)
		assert.Equal(t, ErrMissingColumn, errors.Cause(err))
		assert.Contains(t, err.Error(), "date")
	})

	t.Run("header only", func(t *testing.T) {
		_, err := ReadExamRecords(sheet(t, [][]interface{}{header}))
		assert.Equal(t, ErrNoRows, err)
	})

	t.Run("not a spreadsheet", func(t *testing.T) {
		_, err := ReadExamRecords(strings.NewReader("subject,topic\nMath,Algebra"))
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "got %v", err)
		assert.Equal(t, "file", vErr.Fields[0].Field)
	})
}

func TestWriteExamRecords(t *testing.T) {
	recs := []examtrend.Record{
		{Subject: "Math", Topic: "Algebra", Difficulty: "easy", StudyHours: 2.5, Grade: 80, Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{Subject: "Physics", Topic: "Optics", Difficulty: "hard", StudyHours: 4, Grade: 65, Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}

	buf := new(bytes.Buffer)
	require.NoError(t, WriteExamRecords(buf, recs))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, examSheet, f.GetSheetName(0))
	rows, err := f.GetRows(examSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ExamColumns, rows[0])
	assert.Equal(t, []string{"Math", "Algebra", "easy", "2.5", "80", "2024-02-01"}, rows[1])
	assert.Equal(t, []string{"Physics", "Optics", "hard", "4", "65", "2024-01-15"}, rows[2])

	// round trip
	nrs, err := ReadExamRecords(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, nrs, 2)
	assert.Equal(t, "2024-02-01", nrs[0].Date)
	assert.Equal(t, 2.5, *nrs[0].StudyHours)
}
