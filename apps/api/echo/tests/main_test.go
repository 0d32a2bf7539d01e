package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/aranzadi/pictotea/apps/api/echo"
	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/achievement"
	"github.com/aranzadi/pictotea/core/activity"
	"github.com/aranzadi/pictotea/core/patient"
	"github.com/aranzadi/pictotea/core/user"
	logsvc "github.com/aranzadi/pictotea/services/logger"
	dummydb "github.com/aranzadi/pictotea/storage/database/dummy"
	testutil "github.com/aranzadi/pictotea/tests"
)

var (
	app Server

	usrRepo  user.Repository
	actRepo  activity.Repository
	patRepo  testutil.PatientCreatorRepository
	achvRepo testutil.AchievementCreatorRepository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	os.Setenv("ENV", "TEST")
	os.Setenv("TEST_DEBUG", "false")
	conf := core.NewConfig("test")
	core.InitValidators()

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		fmt.Printf("dummydb.Open(): %v", err)
		os.Exit(1)
	}
	uRepo := dummydb.NewUserRepository(db)
	pRepo := dummydb.NewPatientRepository(db)
	aRepo := dummydb.NewActivityRepository(db)
	gRepo := dummydb.NewAchievementRepository(db)
	usrRepo, patRepo, actRepo, achvRepo = uRepo, pRepo, aRepo, gRepo

	// set up services
	logger := logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))
	logger.Enable(false)
	usrSvc := user.NewService(uRepo, logger)
	patSvc := patient.NewService(pRepo, aRepo, logger)
	actSvc := activity.NewService(db, aRepo, pRepo, logger)
	achvSvc := achievement.NewService(db, gRepo, pRepo, uRepo, logger)

	// set up server
	shutdown := make(chan os.Signal, 1)
	app = NewServer(
		&Options{
			Conf:           conf,
			Logger:         logger,
			DisableReqLogs: true,
			UserSvc:        usrSvc,
			ActivitySvc:    actSvc,
			PatientSvc:     patSvc,
			AchievementSvc: achvSvc,
		},
		shutdown,
	)

	os.Exit(m.Run())
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

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
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
	return assert.ObjectsAreEqual(j1, j2), nil
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
