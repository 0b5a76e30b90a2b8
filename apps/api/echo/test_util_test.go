package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/tsakani/alama/core"
	"github.com/tsakani/alama/core/academic"
	"github.com/tsakani/alama/core/user"
	emailsvc "github.com/tsakani/alama/services/email"
	inmemdb "github.com/tsakani/alama/storage/database/inmem"
)

var testConf = &core.Config{
	TestMode:        true,
	AppName:         "Alama",
	SecretKey:       "secret",
	FrontendBaseURL: "http://localhost:3000",
	Server: core.ServerConfig{
		JWTExpirationDelta:        10 * time.Minute,
		JWTRefreshExpirationDelta: 4 * time.Hour,
	},
	PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestMain(m *testing.M) {
	core.ParseEmailTemplates(testConf, nopLogger{})
	os.Exit(m.Run())
}

type testApp struct {
	server  Server
	db      *inmemdb.DB
	usrRepo user.Repository
	usrSvc  user.ServiceInterface
	acadSvc academic.ServiceInterface
	mailSvc *emailsvc.DummyService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := inmemdb.NewDB()
	mailSvc := emailsvc.NewDummyService()
	usrRepo := inmemdb.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, mailSvc, testConf)
	acadSvc := academic.NewService(
		inmemdb.NewProfileRepository(db),
		inmemdb.NewScaleRepository(db),
		inmemdb.NewSemesterRepository(db),
		inmemdb.NewModuleRepository(db),
		inmemdb.NewUserRepository(db),
		mailSvc,
		testConf,
	)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:           testConf,
		Logger:         nopLogger{},
		UserSvc:        usrSvc,
		AcademicSvc:    acadSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return &testApp{
		server:  server,
		db:      db,
		usrRepo: usrRepo,
		usrSvc:  usrSvc,
		acadSvc: acadSvc,
		mailSvc: mailSvc,
	}
}

func (app *testApp) createUser(t *testing.T, name, uname, email, pwd string, roles []string) user.User {
	t.Helper()
	now := time.Now().UTC()
	isActive := true
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		IsActive:  &isActive,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := app.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func (app *testApp) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(testConf, GetUserClaims(testConf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func (app *testApp) request(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
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
	app.server.ServeHTTP(rec, req)
	return rec
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func checkCode(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("code = %d; want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}
