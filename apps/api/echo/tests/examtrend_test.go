package tests

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	echoapi "github.com/trezcool/campusconnect/apps/api/echo"
	"github.com/trezcool/campusconnect/core/examtrend"
	sheetsvc "github.com/trezcool/campusconnect/services/spreadsheet"
)

func recordBody(subject, topic string, hours, grade float64, date string) []byte {
	return []byte(fmt.Sprintf(
		`{"subject":%q,"topic":%q,"difficulty":"medium","study_hours":%v,"grade":%v,"date":%q}`,
		subject, topic, hours, grade, date,
	))
}

// workbook builds an xlsx upload with the standard header.
func workbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	name := f.GetSheetName(0)
	rows = append([][]interface{}{{"subject", "topic", "difficulty", "study_hours", "grade", "date"}}, rows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow(name, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func Test_examTrendApi_create(t *testing.T) {
	env := setup(t)
	_, token := env.createUser(t, "Alice", "alice@test.cd")

	tests := []httpTest{
		{name: "auth required", body: recordBody("Math", "Algebra", 2, 80, "2024-01-15"), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "missing fields", token: token, body: []byte(`{"subject":"Math"}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{
				"topic":"this field is required",
				"difficulty":"this field is required",
				"study_hours":"this field is required",
				"grade":"this field is required",
				"date":"this field is required"
			}`),
		},
		{
			name: "blank subject", token: token, body: recordBody("  ", "Algebra", 2, 80, "2024-01-15"), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"subject":"this field is required"}`),
		},
		{name: "grade above 100", token: token, body: recordBody("Math", "Algebra", 2, 101, "2024-01-15"), wantCode: http.StatusBadRequest},
		{name: "negative hours", token: token, body: recordBody("Math", "Algebra", -1, 80, "2024-01-15"), wantCode: http.StatusBadRequest},
		{
			name: "invalid date", token: token, body: recordBody("Math", "Algebra", 2, 80, "15/01/2024"), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"date":"invalid date format"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/api/exam-trends"
			checkCodeAndData(t, tt, env.serve(tt))
		})
	}

	t.Run("success", func(t *testing.T) {
		var resp echoapi.CreateRecordResponse

		// a single record is never above its own average
		rec := env.serve(httpTest{method: http.MethodPost, path: "/api/exam-trends", token: token, body: recordBody("Math", "Algebra", 2, 80, "2024-01-15")})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &resp)
		assert.Equal(t, "Math", resp.Trend.Subject)
		assert.Equal(t, "2024-01-15", resp.Trend.Date.Format("2006-01-02"))
		assert.Empty(t, resp.Insights)

		rec = env.serve(httpTest{method: http.MethodPost, path: "/api/exam-trends", token: token, body: recordBody("Math", "Geometry", 4, 90, "2024-02-01T10:00:00")})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &resp)
		require.Len(t, resp.Insights, 1)
		ins := resp.Insights[0]
		assert.Equal(t, "Math", ins.Subject)
		assert.Equal(t, 85.0, ins.AvgGrade)
		assert.Equal(t, 3.0, ins.AvgStudyHours)
		assert.Equal(t, 4.0, ins.OptimalStudyHours)
		assert.ElementsMatch(t, []string{"Algebra", "Geometry"}, ins.Topics)
		assert.Equal(t, "For Math, studying around 4.0 hours tends to yield better results", ins.Recommendation)
	})

	t.Run("camelCase study hours", func(t *testing.T) {
		rec := env.serve(httpTest{
			method: http.MethodPost,
			path:   "/api/exam-trends",
			token:  token,
			body:   []byte(`{"subject":"Chemistry","topic":"Acids","difficulty":"hard","studyHours":1.5,"grade":72,"date":"2024-03-01"}`),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created struct {
			Trend map[string]interface{} `json:"trend"`
		}
		unmarshal(t, rec, &created)
		assert.Equal(t, 1.5, created.Trend["study_hours"])
		assert.NotContains(t, created.Trend, "studyHours")
	})
}

func Test_examTrendApi_queryAndAnalysis(t *testing.T) {
	env := setup(t)
	_, aliceToken := env.createUser(t, "Alice", "alice@test.cd")
	_, bobToken := env.createUser(t, "Bob", "bob@test.cd")

	for _, body := range [][]byte{
		recordBody("Math", "Algebra", 1, 60, "2024-01-10"),
		recordBody("Math", "Algebra", 3, 90, "2024-03-10"),
		recordBody("Physics", "Optics", 2, 70, "2024-02-10"),
	} {
		rec := env.serve(httpTest{method: http.MethodPost, path: "/api/exam-trends", token: aliceToken, body: body})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	t.Run("latest date first", func(t *testing.T) {
		rec := env.serve(httpTest{path: "/api/exam-trends", token: aliceToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var recs []examtrend.Record
		unmarshal(t, rec, &recs)
		require.Len(t, recs, 3)
		assert.Equal(t, 90.0, recs[0].Grade)
		assert.Equal(t, "Physics", recs[1].Subject)
		assert.Equal(t, 60.0, recs[2].Grade)
	})

	t.Run("records are private", func(t *testing.T) {
		rec := env.serve(httpTest{path: "/api/exam-trends", token: bobToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("analysis", func(t *testing.T) {
		rec := env.serve(httpTest{path: "/api/exam-trends/analysis", token: aliceToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp echoapi.AnalysisResponse
		unmarshal(t, rec, &resp)
		// Physics has a single record, which is not above its average
		require.Len(t, resp.Insights, 1)
		assert.Equal(t, "Math", resp.Insights[0].Subject)
		assert.Equal(t, 3.0, resp.Insights[0].OptimalStudyHours)

		rec = env.serve(httpTest{path: "/api/exam-trends/analysis", token: bobToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"insights":[]}`, rec.Body.String())
	})
}

func Test_examTrendApi_import(t *testing.T) {
	env := setup(t)
	usr, token := env.createUser(t, "Alice", "alice@test.cd")
	path := "/api/exam-trends/import"

	upload := func(t *testing.T, files map[string][]byte) *httptest.ResponseRecorder {
		t.Helper()
		req, rec := newUploadRequest(t, http.MethodPost, path, token, "file", files)
		env.app.ServeHTTP(rec, req)
		return rec
	}

	t.Run("no file", func(t *testing.T) {
		rec := upload(t, nil)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: []byte(`{"file":"no file provided"}`)}, rec)
	})

	t.Run("not a spreadsheet", func(t *testing.T) {
		rec := upload(t, map[string][]byte{"trends.xlsx": []byte("subject,topic")})
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: []byte(`{"file":"invalid xlsx file"}`)}, rec)
	})

	t.Run("invalid row rejects the file", func(t *testing.T) {
		rec := upload(t, map[string][]byte{"trends.xlsx": workbook(t,
			[]interface{}{"Math", "Algebra", "easy", 2, 80, "2024-01-15"},
			[]interface{}{"Math", "Algebra", "easy", 2, 180, "2024-01-16"},
		)})
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

		var resp map[string]string
		unmarshal(t, rec, &resp)
		assert.True(t, strings.HasPrefix(resp["file"], "row 3: grade"), resp["file"])

		recs, err := env.recordRepo.QueryRecords(context.Background(), usr.ID)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("success", func(t *testing.T) {
		rec := upload(t, map[string][]byte{"trends.xlsx": workbook(t,
			[]interface{}{"Math", "Algebra", "easy", 1, 60, "2024-01-15"},
			[]interface{}{"Math", "Calculus", "hard", 5, 95, "2024-01-20"},
			[]interface{}{"Physics", "Optics", "medium", 2, 70, "2024-02-01"},
		)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp echoapi.ImportResponse
		unmarshal(t, rec, &resp)
		assert.Equal(t, 3, resp.Imported)
		require.Len(t, resp.Insights, 1)
		assert.Equal(t, "Math", resp.Insights[0].Subject)
		assert.Equal(t, 5.0, resp.Insights[0].OptimalStudyHours)
	})

	t.Run("export", func(t *testing.T) {
		rec := env.serve(httpTest{path: "/api/exam-trends/export", token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "exam_records.xlsx")

		nrs, err := sheetsvc.ReadExamRecords(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		require.Len(t, nrs, 3)
		assert.Equal(t, "Physics", nrs[0].Subject)
		assert.Equal(t, "2024-02-01", nrs[0].Date)
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "campus_exam_analyses_total")
		assert.Contains(t, body, "campus_exam_records_imported_total 3")
		assert.Contains(t, body, `route="/api/exam-trends/import"`)
	})
}
