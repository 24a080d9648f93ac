package waitlist

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/pkg/brevo"
	"github.com/akeren/go-waitlist/pkg/workerpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// inlineSubmitter runs tasks on the calling goroutine.
type inlineSubmitter struct{}

func (inlineSubmitter) Submit(task workerpool.Task) bool {
	task(context.Background())
	return true
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			matched := 0
			for _, pair := range metric.GetLabel() {
				if labels[pair.GetName()] == pair.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}

	return 0
}

func testSettings() NotificationSettings {
	return NotificationSettings{
		SenderEmail: "hello@example.com",
		TemplateID:  "7",
		ListID:      "3",
		CallTimeout: time.Second,
	}
}

func TestNotificationDispatcher_ProcessHappyPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := NewMockBrevoAPI(ctrl)
	reg := prometheus.NewRegistry()
	dispatcher := NewNotificationDispatcher(api, inlineSubmitter{}, testSettings(), log.NewLoggerWithJSONOutput(), reg)

	gomock.InOrder(
		api.EXPECT().
			CreateContact(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, contact *brevo.Contact) (*brevo.Response, error) {
				assert.Equal(t, "a@x.io", contact.Email)
				assert.True(t, contact.UpdateEnabled)
				assert.Equal(t, map[string]string{"COUNTRY": "NG", "STATE": "Lagos"}, contact.Attributes)
				assert.Equal(t, []int64{3}, contact.ListIDs)
				return &brevo.Response{StatusCode: http.StatusCreated}, nil
			}),
		api.EXPECT().
			SendTransactionalEmail(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, email *brevo.TransactionalEmail) (*brevo.Response, error) {
				assert.Equal(t, brevo.Sender{Name: brevo.DefaultSenderName, Email: "hello@example.com"}, email.Sender)
				assert.Equal(t, []brevo.Recipient{{Email: "a@x.io"}}, email.To)
				require.NotNil(t, email.TemplateID)
				assert.Equal(t, int64(7), *email.TemplateID)
				assert.Empty(t, email.Subject)
				assert.Empty(t, email.HTMLContent)
				return &brevo.Response{StatusCode: http.StatusCreated}, nil
			}),
	)

	state := dispatcher.process(context.Background(), Notification{Email: "a@x.io", Country: "NG", State: strPtr("Lagos")})

	assert.Equal(t, TaskDone, state)
	assert.Equal(t, 1.0, counterValue(t, reg, "waitlist_notification_steps_total", map[string]string{"step": "contact", "outcome": "success"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "waitlist_notification_steps_total", map[string]string{"step": "email", "outcome": "success"}))
}

func TestNotificationDispatcher_DuplicateContactStillSendsEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := NewMockBrevoAPI(ctrl)
	reg := prometheus.NewRegistry()
	dispatcher := NewNotificationDispatcher(api, inlineSubmitter{}, testSettings(), log.NewLoggerWithJSONOutput(), reg)

	api.EXPECT().
		CreateContact(gomock.Any(), gomock.Any()).
		Return(&brevo.Response{StatusCode: http.StatusBadRequest, Body: []byte(`{"code":"duplicate_parameter","message":"Contact already exist"}`)}, nil)
	api.EXPECT().
		SendTransactionalEmail(gomock.Any(), gomock.Any()).
		Return(&brevo.Response{StatusCode: http.StatusCreated}, nil)

	assert.Equal(t, TaskDone, dispatcher.process(context.Background(), Notification{Email: "a@x.io", Country: "NG"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "waitlist_notification_steps_total", map[string]string{"step": "contact", "outcome": "recognized_conflict"}))
}

func TestNotificationDispatcher_ContactFailureStillSendsEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := NewMockBrevoAPI(ctrl)
	reg := prometheus.NewRegistry()
	dispatcher := NewNotificationDispatcher(api, inlineSubmitter{}, testSettings(), log.NewLoggerWithJSONOutput(), reg)

	api.EXPECT().
		CreateContact(gomock.Any(), gomock.Any()).
		Return(&brevo.Response{StatusCode: http.StatusUnauthorized, Body: []byte(`{"code":"unauthorized"}`)}, nil)
	api.EXPECT().
		SendTransactionalEmail(gomock.Any(), gomock.Any()).
		Return(nil, context.DeadlineExceeded)

	assert.Equal(t, TaskDone, dispatcher.process(context.Background(), Notification{Email: "a@x.io", Country: "NG"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "waitlist_notification_steps_total", map[string]string{"step": "contact", "outcome": "failure"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "waitlist_notification_steps_total", map[string]string{"step": "email", "outcome": "failure"}))
}

func TestNotificationDispatcher_EmailDuplicateIsAFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := NewMockBrevoAPI(ctrl)
	reg := prometheus.NewRegistry()
	dispatcher := NewNotificationDispatcher(api, inlineSubmitter{}, testSettings(), log.NewLoggerWithJSONOutput(), reg)

	api.EXPECT().CreateContact(gomock.Any(), gomock.Any()).Return(&brevo.Response{StatusCode: http.StatusNoContent}, nil)
	api.EXPECT().
		SendTransactionalEmail(gomock.Any(), gomock.Any()).
		Return(&brevo.Response{StatusCode: http.StatusBadRequest, Body: []byte(`{"code":"duplicate_parameter"}`)}, nil)

	dispatcher.process(context.Background(), Notification{Email: "a@x.io", Country: "NG"})

	assert.Equal(t, 1.0, counterValue(t, reg, "waitlist_notification_steps_total", map[string]string{"step": "email", "outcome": "failure"}))
}

func TestNotificationDispatcher_DispatchDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	submitter := NewMockTaskSubmitter(ctrl)
	submitter.EXPECT().Submit(gomock.Any()).Times(0)

	dispatcher := NewNotificationDispatcher(nil, submitter, testSettings(), log.NewLoggerWithJSONOutput(), nil)

	assert.False(t, dispatcher.Enabled())
	assert.False(t, dispatcher.Dispatch(Notification{Email: "a@x.io", Country: "NG"}))
}

func TestNotificationDispatcher_DispatchRejectedCountsDrop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	api := NewMockBrevoAPI(ctrl)
	submitter := NewMockTaskSubmitter(ctrl)
	submitter.EXPECT().Submit(gomock.Any()).Return(false)

	reg := prometheus.NewRegistry()
	dispatcher := NewNotificationDispatcher(api, submitter, testSettings(), log.NewLoggerWithJSONOutput(), reg)

	assert.False(t, dispatcher.Dispatch(Notification{Email: "a@x.io", Country: "NG"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "waitlist_notification_dropped_total", nil))
}

func TestNotificationDispatcher_DispatchDoesNotWait(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	release := make(chan struct{})
	var done sync.WaitGroup
	done.Add(1)

	api := NewMockBrevoAPI(ctrl)
	api.EXPECT().
		CreateContact(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *brevo.Contact) (*brevo.Response, error) {
			<-release
			return &brevo.Response{StatusCode: http.StatusCreated}, nil
		})
	api.EXPECT().
		SendTransactionalEmail(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *brevo.TransactionalEmail) (*brevo.Response, error) {
			defer done.Done()
			return &brevo.Response{StatusCode: http.StatusCreated}, nil
		})

	pool := workerpool.New(&workerpool.Config{Workers: 1, QueueSize: 1})
	pool.Start()
	defer func() { _ = pool.Shutdown(context.Background()) }()

	dispatcher := NewNotificationDispatcher(api, pool, testSettings(), log.NewLoggerWithJSONOutput(), nil)

	returned := make(chan bool, 1)
	go func() { returned <- dispatcher.Dispatch(Notification{Email: "a@x.io", Country: "NG"}) }()

	select {
	case accepted := <-returned:
		assert.True(t, accepted)
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on the notification task")
	}

	close(release)
	done.Wait()
}

func TestNotificationDispatcher_AgainstBrevoServer(t *testing.T) {
	type captured struct {
		path   string
		apiKey string
		body   map[string]any
	}

	var mu sync.Mutex
	var calls []captured

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		mu.Lock()
		calls = append(calls, captured{path: r.URL.Path, apiKey: r.Header.Get("api-key"), body: body})
		mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := brevo.NewClient(&brevo.Config{APIKey: "secret", BaseURL: server.URL})
	settings := NotificationSettings{SenderEmail: "hello@example.com", SenderName: "Crew", TemplateID: "abc", ListID: "not-a-number"}
	dispatcher := NewNotificationDispatcher(client, inlineSubmitter{}, settings, log.NewLoggerWithJSONOutput(), nil)

	require.True(t, dispatcher.Dispatch(Notification{Email: "a@x.io", Country: "NG"}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 2)

	assert.Equal(t, "/contacts", calls[0].path)
	assert.Equal(t, "secret", calls[0].apiKey)
	assert.Equal(t, "a@x.io", calls[0].body["email"])
	assert.Equal(t, true, calls[0].body["updateEnabled"])
	assert.Equal(t, map[string]any{"COUNTRY": "NG"}, calls[0].body["attributes"])
	assert.NotContains(t, calls[0].body, "listIds")

	assert.Equal(t, "/smtp/email", calls[1].path)
	assert.Equal(t, "secret", calls[1].apiKey)
	assert.NotContains(t, calls[1].body, "templateId")
	assert.Equal(t, "Welcome to the list!", calls[1].body["subject"])
	assert.Contains(t, calls[1].body["htmlContent"], "You are on the list!")
	assert.Equal(t, map[string]any{"name": "Crew", "email": "hello@example.com"}, calls[1].body["sender"])
	assert.Equal(t, []any{map[string]any{"email": "a@x.io"}}, calls[1].body["to"])
}

func TestNotificationMetrics_RegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := newNotificationMetrics(reg)
	second := newNotificationMetrics(reg)

	first.observeDropped()
	second.observeDropped()

	assert.Equal(t, 2.0, counterValue(t, reg, "waitlist_notification_dropped_total", nil))
}
