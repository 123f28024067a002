package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/campusconnect/apps/api/echo"
	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/club"
	"github.com/trezcool/campusconnect/core/examtrend"
	"github.com/trezcool/campusconnect/core/lostfound"
	"github.com/trezcool/campusconnect/core/market"
	"github.com/trezcool/campusconnect/core/studygroup"
	"github.com/trezcool/campusconnect/core/user"
	appfs "github.com/trezcool/campusconnect/fs"
	emailsvc "github.com/trezcool/campusconnect/services/email"
	logsvc "github.com/trezcool/campusconnect/services/logger"
	metricsvc "github.com/trezcool/campusconnect/services/metrics"
	uploadsvc "github.com/trezcool/campusconnect/services/upload"
	inmemdb "github.com/trezcool/campusconnect/storage/database/inmem"
	"github.com/trezcool/campusconnect/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app     *echoapi.Server
	conf    *core.Config
	metrics *metricsvc.Manager

	usrRepo     user.Repository
	clubRepo    club.Repository
	groupRepo   studygroup.Repository
	itemRepo    lostfound.Repository
	listingRepo market.Repository
	recordRepo  examtrend.Repository
}

// setup returns a server backed by a fresh in-memory database.
func setup(t *testing.T) *testEnv {
	t.Helper()
	conf := testutil.NewConfig(t)
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "API : ", log.LstdFlags), conf)
	validate, translator := testutil.NewValidator()
	core.ParseEmailTemplates(appfs.FS, conf, logger)
	emailsvc.ResetSentMessages()

	// set up DB & repos
	db := inmemdb.Open()
	env := &testEnv{
		conf:        conf,
		metrics:     metricsvc.NewManager(),
		usrRepo:     inmemdb.NewUserRepository(db),
		clubRepo:    inmemdb.NewClubRepository(db),
		groupRepo:   inmemdb.NewStudyGroupRepository(db),
		itemRepo:    inmemdb.NewLostFoundRepository(db),
		listingRepo: inmemdb.NewListingRepository(db),
		recordRepo:  inmemdb.NewExamRecordRepository(db),
	}

	// set up services
	images, err := uploadsvc.NewDiskStore(conf.Server.UploadDir)
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	// set up server
	env.app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		Metrics:       env.metrics,
		UserSvc:       user.NewServiceMock(env.usrRepo, mailSvc, conf),
		ClubSvc:       club.NewService(env.clubRepo),
		StudyGroupSvc: studygroup.NewService(env.groupRepo),
		LostFoundSvc:  lostfound.NewService(env.itemRepo),
		MarketSvc:     market.NewService(env.listingRepo, images),
		ExamSvc:       examtrend.NewService(env.recordRepo, examtrend.WithObserver(env.metrics)),
	})
	return env
}

func (env *testEnv) createUser(t *testing.T, name, email string, roles ...string) (user.User, string) {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{user.RoleStudent}
	}
	usr := testutil.CreateUser(t, env.usrRepo, name, email, "pwd12345", roles, true)
	return usr, getToken(t, env.conf, usr)
}

// serve runs tt against the server and returns the recorded response.
func (env *testEnv) serve(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	env.app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newUploadRequest sends files as a multipart form, every file under field.
func newUploadRequest(t *testing.T, method, path, token, field string, files map[string][]byte) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := w.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("newUploadRequest() failed: %v", err)
		}
		if _, err = part.Write(content); err != nil {
			t.Fatalf("newUploadRequest() failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("newUploadRequest() failed: %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	t.Helper()
	token, err := echoapi.GenerateToken(echoapi.GetUserClaims(usr, conf), conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

// getTokenWithOrigIat returns a token whose refresh period started delta from now.
func getTokenWithOrigIat(t *testing.T, env *testEnv, usr user.User, delta time.Duration) string {
	t.Helper()
	claims := echoapi.GetUserClaims(usr, env.conf, time.Now().Add(delta).Unix())
	token, err := echoapi.GenerateToken(claims, env.conf)
	if err != nil {
		t.Fatalf("getTokenWithOrigIat() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
