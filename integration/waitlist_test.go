package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akeren/go-waitlist/config"
	"github.com/akeren/go-waitlist/config/router"
	"github.com/akeren/go-waitlist/domain"
	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/internal/models"
	"github.com/akeren/go-waitlist/pkg/brevo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type brevoCall struct {
	Path string
	Body map[string]any
}

// fakeBrevo records every call and answers contact creation with a canned response.
type fakeBrevo struct {
	server *httptest.Server

	mu              sync.Mutex
	calls           []brevoCall
	contactStatus   int
	contactResponse string
}

func newFakeBrevo() *fakeBrevo {
	f := &fakeBrevo{contactStatus: http.StatusCreated, contactResponse: `{"id":1}`}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		f.mu.Lock()
		f.calls = append(f.calls, brevoCall{Path: r.URL.Path, Body: body})
		status, response := http.StatusCreated, `{"messageId":"<1@brevo>"}`
		if r.URL.Path == "/contacts" {
			status, response = f.contactStatus, f.contactResponse
		}
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	return f
}

func (f *fakeBrevo) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
	f.contactStatus = http.StatusCreated
	f.contactResponse = `{"id":1}`
}

func (f *fakeBrevo) snapshot() []brevoCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]brevoCall(nil), f.calls...)
}

type testApp struct {
	db        *gorm.DB
	appConfig *config.ApplicationConfig
	server    *httptest.Server
}

func newTestApp(t *testing.T, brevoURL string) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "waitlist.db")+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	appLogger := log.NewLogger(io.Discard, log.ParseLevel("error"))

	notifierConfig := &config.NotifierConfig{
		APIKey:          "test-key",
		BaseURL:         brevoURL,
		SenderEmail:     "hello@example.com",
		SenderName:      brevo.DefaultSenderName,
		TemplateID:      "",
		ListID:          "5",
		Workers:         2,
		QueueSize:       16,
		CallTimeout:     2 * time.Second,
		ShutdownTimeout: 5 * time.Second,

		BreakerFailureThreshold: 5,
		BreakerRecoveryTimeout:  time.Minute,
	}

	appConfig := &config.ApplicationConfig{
		DB:       db,
		Logger:   appLogger,
		Notifier: notifierConfig,
	}
	appConfig.Brevo = notifierConfig.NewBrevoClientOrNil(appLogger)
	appConfig.NotificationPool = notifierConfig.NewWorkerPool(appLogger)
	appConfig.RouterService = router.CreateRouterService(appLogger, nil, &router.RouterConfig{
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    30 * time.Second,
	})

	require.NoError(t, domain.SetupCoreDomain(appConfig))

	app := &testApp{
		db:        db,
		appConfig: appConfig,
		server:    httptest.NewServer(appConfig.RouterService.GetEngine()),
	}
	t.Cleanup(func() {
		app.server.Close()
		appConfig.Cleanup()
	})

	return app
}

func (app *testApp) join(t *testing.T, body string) (int, string) {
	t.Helper()

	resp, err := http.Post(app.server.URL+"/api/join-waitlist", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(raw)
}

type WaitlistAPITestSuite struct {
	suite.Suite
	brevo *fakeBrevo
	app   *testApp
}

func (suite *WaitlistAPITestSuite) SetupSuite() {
	suite.brevo = newFakeBrevo()
	suite.app = newTestApp(suite.T(), suite.brevo.server.URL)
}

func (suite *WaitlistAPITestSuite) TearDownSuite() {
	suite.brevo.server.Close()
}

func (suite *WaitlistAPITestSuite) SetupTest() {
	suite.app.db.Exec("DELETE FROM waitlist")
	suite.brevo.reset()
}

func (suite *WaitlistAPITestSuite) waitForBrevoCalls(n int) []brevoCall {
	suite.Require().Eventually(func() bool {
		return len(suite.brevo.snapshot()) >= n
	}, 3*time.Second, 10*time.Millisecond)
	return suite.brevo.snapshot()
}

func (suite *WaitlistAPITestSuite) assertNoBrevoCalls() {
	suite.Never(func() bool {
		return len(suite.brevo.snapshot()) > 0
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func (suite *WaitlistAPITestSuite) TestHealthCheck() {
	resp, err := http.Get(suite.app.server.URL + "/health")
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusOK, resp.StatusCode)

	var response struct {
		Data struct {
			Database          int    `json:"database"`
			NotificationQueue int    `json:"notification_queue"`
			BrevoCircuit      string `json:"brevo_circuit"`
		} `json:"data"`
	}
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&response))
	suite.Equal(1, response.Data.Database)
	suite.Equal(1, response.Data.NotificationQueue)
	suite.Equal("closed", response.Data.BrevoCircuit)
}

func (suite *WaitlistAPITestSuite) TestJoin_NewEmailStoresAndNotifies() {
	status, body := suite.app.join(suite.T(), `{"email":"a@x.io","country":"NG","state":"Lagos"}`)

	suite.Equal(http.StatusOK, status)
	suite.JSONEq(`{"message":"Success"}`, body)

	var entry models.WaitlistEntry
	suite.Require().NoError(suite.app.db.Where("email = ?", "a@x.io").First(&entry).Error)
	suite.Equal("NG", entry.Country)
	suite.Require().NotNil(entry.State)
	suite.Equal("Lagos", *entry.State)

	calls := suite.waitForBrevoCalls(2)
	suite.Equal("/contacts", calls[0].Path)
	suite.Equal("a@x.io", calls[0].Body["email"])
	suite.Equal(map[string]any{"COUNTRY": "NG", "STATE": "Lagos"}, calls[0].Body["attributes"])
	suite.Equal([]any{float64(5)}, calls[0].Body["listIds"])

	suite.Equal("/smtp/email", calls[1].Path)
	suite.Equal("Welcome to the list!", calls[1].Body["subject"])
	suite.Equal([]any{map[string]any{"email": "a@x.io"}}, calls[1].Body["to"])
}

func (suite *WaitlistAPITestSuite) TestJoin_DuplicateEmailIsIdempotent() {
	status, _ := suite.app.join(suite.T(), `{"email":"a@x.io","country":"NG"}`)
	suite.Equal(http.StatusOK, status)
	suite.waitForBrevoCalls(2)

	suite.brevo.mu.Lock()
	suite.brevo.contactStatus = http.StatusBadRequest
	suite.brevo.contactResponse = `{"code":"duplicate_parameter","message":"Contact already exist"}`
	suite.brevo.mu.Unlock()

	status, body := suite.app.join(suite.T(), `{"email":"a@x.io","country":"US"}`)
	suite.Equal(http.StatusOK, status)
	suite.JSONEq(`{"message":"Success"}`, body)

	var rows []models.WaitlistEntry
	suite.Require().NoError(suite.app.db.Where("email = ?", "a@x.io").Find(&rows).Error)
	suite.Require().Len(rows, 1)
	suite.Equal("NG", rows[0].Country)

	// The duplicate contact is recognized and the confirmation email still goes out.
	calls := suite.waitForBrevoCalls(4)
	suite.Equal("/smtp/email", calls[3].Path)
}

func (suite *WaitlistAPITestSuite) TestJoin_MissingCountryIsRejected() {
	status, body := suite.app.join(suite.T(), `{"email":"a@x.io"}`)

	suite.Equal(http.StatusBadRequest, status)

	var response struct {
		Error  string `json:"error"`
		Fields []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"fields"`
	}
	suite.Require().NoError(json.Unmarshal([]byte(body), &response))
	suite.Equal("Invalid request payload", response.Error)
	suite.Require().Len(response.Fields, 1)
	suite.Equal("country", response.Fields[0].Field)

	var count int64
	suite.app.db.Model(&models.WaitlistEntry{}).Count(&count)
	suite.Zero(count)
	suite.assertNoBrevoCalls()
}

func (suite *WaitlistAPITestSuite) TestJoin_EmptyEmailIsRejected() {
	status, body := suite.app.join(suite.T(), `{"email":"","country":"US"}`)

	suite.Equal(http.StatusBadRequest, status)
	suite.JSONEq(`{"error":"Invalid request payload","fields":[{"field":"email","message":"Email is required"}]}`, body)

	var count int64
	suite.Require().NoError(suite.app.db.Model(&models.WaitlistEntry{}).Count(&count).Error)
	suite.Zero(count)
	suite.assertNoBrevoCalls()
}

func (suite *WaitlistAPITestSuite) TestJoin_LongValuesAreStoredAsGiven() {
	email := strings.Repeat("a", 300) + "@x.io"
	country := strings.Repeat("C", 300)

	status, body := suite.app.join(suite.T(), `{"email":"`+email+`","country":"`+country+`"}`)

	suite.Equal(http.StatusOK, status)
	suite.JSONEq(`{"message":"Success"}`, body)

	var entry models.WaitlistEntry
	suite.Require().NoError(suite.app.db.Where("email = ?", email).First(&entry).Error)
	suite.Equal(country, entry.Country)
}

func (suite *WaitlistAPITestSuite) TestJoin_NonObjectBodyIsRejected() {
	status, body := suite.app.join(suite.T(), `[]`)

	suite.Equal(http.StatusBadRequest, status)
	suite.JSONEq(`{"error":"Invalid request payload","fields":[{"field":"body","message":"Request body must be a JSON object"}]}`, body)
	suite.NotContains(body, "waitlist.")
	suite.assertNoBrevoCalls()
}

func (suite *WaitlistAPITestSuite) TestJoin_MalformedJSONIsRejected() {
	for _, body := range []string{`{"email":`, `not json`, `{"email":"   ","country":"NG"}`} {
		status, response := suite.app.join(suite.T(), body)
		suite.Equal(http.StatusBadRequest, status, body)
		suite.Contains(response, "Invalid request payload")
	}

	suite.assertNoBrevoCalls()
}

func (suite *WaitlistAPITestSuite) TestJoin_CorrelationIDIsEchoed() {
	req, err := http.NewRequest(http.MethodPost, suite.app.server.URL+"/api/join-waitlist", bytes.NewBufferString(`{"email":"c@x.io","country":"GH"}`))
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-ID", "abc-123")

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("abc-123", resp.Header.Get("X-Correlation-ID"))
}

func TestWaitlistAPITestSuite(t *testing.T) {
	suite.Run(t, new(WaitlistAPITestSuite))
}

func TestJoin_StoreFailureReturns500WithoutNotification(t *testing.T) {
	fake := newFakeBrevo()
	defer fake.server.Close()

	app := newTestApp(t, fake.server.URL)
	require.NoError(t, app.db.Migrator().DropTable("waitlist"))

	status, body := app.join(t, `{"email":"a@x.io","country":"NG"}`)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.JSONEq(t, `{"error":"Failed to save user"}`, body)
	assert.Never(t, func() bool { return len(fake.snapshot()) > 0 }, 200*time.Millisecond, 20*time.Millisecond)
}

func TestJoin_ProviderOutageDoesNotAffectResponse(t *testing.T) {
	var hits atomic.Int32
	outage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer outage.Close()

	app := newTestApp(t, outage.URL)

	for _, email := range []string{"one@x.io", "two@x.io", "three@x.io"} {
		status, body := app.join(t, `{"email":"`+email+`","country":"NG"}`)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"message":"Success"}`, body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.appConfig.NotificationPool.Shutdown(ctx))
	app.appConfig.NotificationPool = nil

	assert.Positive(t, hits.Load())

	var count int64
	require.NoError(t, app.db.Model(&models.WaitlistEntry{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}
