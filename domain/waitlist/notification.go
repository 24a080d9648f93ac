package waitlist

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/pkg/brevo"
	"github.com/akeren/go-waitlist/pkg/workerpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultNotificationTimeout = 10 * time.Second

	fallbackSubject     = "Welcome to the list!"
	fallbackHTMLContent = "<html><body><h1>You are on the list!</h1><p>Thank you for joining our waitlist.</p></body></html>"

	attributeCountry = "COUNTRY"
	attributeState   = "STATE"

	stepContact = "contact"
	stepEmail   = "email"
)

// TaskState tracks a notification task. There is no error state: every task
// ends in TaskDone and only logs tell success from failure.
type TaskState string

const (
	TaskStarted          TaskState = "STARTED"
	TaskContactAttempted TaskState = "CONTACT_ATTEMPTED"
	TaskEmailAttempted   TaskState = "EMAIL_ATTEMPTED"
	TaskDone             TaskState = "DONE"
)

//go:generate mockgen -source=notification.go -destination=mock_notification.go -package=waitlist

type BrevoAPI interface {
	CreateContact(ctx context.Context, contact *brevo.Contact) (*brevo.Response, error)
	SendTransactionalEmail(ctx context.Context, email *brevo.TransactionalEmail) (*brevo.Response, error)
}

type TaskSubmitter interface {
	Submit(task workerpool.Task) bool
}

// Notifier hands a notification off for detached processing and reports
// whether it was accepted. It never waits for the work itself.
type Notifier interface {
	Dispatch(notification Notification) bool
}

type NotificationSettings struct {
	SenderName  string
	SenderEmail string
	// TemplateID and ListID are raw config values; non-numeric values are ignored.
	TemplateID  string
	ListID      string
	CallTimeout time.Duration
}

type NotificationDispatcher struct {
	api      BrevoAPI
	pool     TaskSubmitter
	settings NotificationSettings
	logger   *log.Logger
	metrics  *notificationMetrics
	tracer   trace.Tracer
}

// NewNotificationDispatcher returns a dispatcher that drops every notification
// when api or pool is nil.
func NewNotificationDispatcher(
	api BrevoAPI,
	pool TaskSubmitter,
	settings NotificationSettings,
	logger *log.Logger,
	registerer prometheus.Registerer,
) *NotificationDispatcher {
	if settings.SenderName == "" {
		settings.SenderName = brevo.DefaultSenderName
	}
	if settings.CallTimeout <= 0 {
		settings.CallTimeout = DefaultNotificationTimeout
	}
	if logger == nil {
		logger = log.NewLoggerWithJSONOutput()
	}

	return &NotificationDispatcher{
		api:      api,
		pool:     pool,
		settings: settings,
		logger:   logger,
		metrics:  newNotificationMetrics(registerer),
		tracer:   otel.Tracer("github.com/akeren/go-waitlist/domain/waitlist"),
	}
}

func (d *NotificationDispatcher) Enabled() bool {
	return d.api != nil && d.pool != nil
}

func (d *NotificationDispatcher) Dispatch(notification Notification) bool {
	logger := d.taskLogger(notification)

	if !d.Enabled() {
		logger.Debug("Notifications disabled; skipping contact registration and confirmation email")
		return false
	}

	accepted := d.pool.Submit(func(ctx context.Context) {
		d.process(ctx, notification)
	})

	if !accepted {
		d.metrics.observeDropped()
		logger.Warn("Notification queue unavailable; notification dropped")
	}

	return accepted
}

// process walks a task through STARTED, CONTACT_ATTEMPTED, EMAIL_ATTEMPTED and
// DONE. The email step runs whatever the contact step returned.
func (d *NotificationDispatcher) process(ctx context.Context, notification Notification) TaskState {
	logger := d.taskLogger(notification)

	var opts []trace.SpanStartOption
	if notification.SpanContext.IsValid() {
		opts = append(opts, trace.WithLinks(trace.Link{SpanContext: notification.SpanContext}))
	}
	ctx, span := d.tracer.Start(ctx, "waitlist.notification", opts...)
	defer span.End()

	state := TaskStarted
	logger.Debug("Notification task state", "state", state)

	contactResult := d.registerContact(ctx, notification)
	span.SetAttributes(attribute.String("waitlist.contact.outcome", contactResult.Outcome.String()))
	state = TaskContactAttempted
	logger.Debug("Notification task state", "state", state, "outcome", contactResult.Outcome.String())

	emailResult := d.sendConfirmation(ctx, notification)
	span.SetAttributes(attribute.String("waitlist.email.outcome", emailResult.Outcome.String()))
	state = TaskEmailAttempted
	logger.Debug("Notification task state", "state", state, "outcome", emailResult.Outcome.String())

	state = TaskDone
	logger.Debug("Notification task state", "state", state)

	return state
}

func (d *NotificationDispatcher) registerContact(ctx context.Context, notification Notification) brevo.Result {
	logger := d.taskLogger(notification)

	callCtx, cancel := context.WithTimeout(ctx, d.settings.CallTimeout)
	defer cancel()

	resp, err := d.api.CreateContact(callCtx, buildContact(notification, d.settings.ListID))
	result := brevo.Classify(resp, err)
	d.metrics.observeStep(stepContact, result.Outcome)

	switch result.Outcome {
	case brevo.OutcomeSuccess:
		logger.Info("Contact registered")
	case brevo.OutcomeRecognizedConflict:
		logger.Info("Contact already exists; treated as registered")
	default:
		// Log-only: the sign-up already succeeded and nothing is retried.
		logger.Error("Failed to register contact", "status", result.StatusCode, "response", result.Detail)
	}

	return result
}

func (d *NotificationDispatcher) sendConfirmation(ctx context.Context, notification Notification) brevo.Result {
	logger := d.taskLogger(notification)

	callCtx, cancel := context.WithTimeout(ctx, d.settings.CallTimeout)
	defer cancel()

	resp, err := d.api.SendTransactionalEmail(callCtx, buildConfirmationEmail(notification.Email, d.settings))
	result := brevo.Classify(resp, err)

	if result.Outcome != brevo.OutcomeSuccess {
		result.Outcome = brevo.OutcomeFailure
	}
	d.metrics.observeStep(stepEmail, result.Outcome)

	if result.IsFailure() {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Error("Confirmation email timed out", "timeout", d.settings.CallTimeout.String())
		} else {
			logger.Error("Failed to send confirmation email", "status", result.StatusCode, "response", result.Detail)
		}
		return result
	}

	logger.Info("Confirmation email sent")
	return result
}

func (d *NotificationDispatcher) taskLogger(notification Notification) *log.Logger {
	return d.logger.With("correlation_id", notification.CorrelationID, "email", notification.Email)
}

func buildContact(notification Notification, rawListID string) *brevo.Contact {
	attributes := map[string]string{attributeCountry: notification.Country}
	if notification.State != nil {
		attributes[attributeState] = *notification.State
	}

	contact := &brevo.Contact{
		Email:         notification.Email,
		Attributes:    attributes,
		UpdateEnabled: true,
	}

	if listID, ok := parseNumericID(rawListID); ok {
		contact.ListIDs = []int64{listID}
	}

	return contact
}

func buildConfirmationEmail(to string, settings NotificationSettings) *brevo.TransactionalEmail {
	email := &brevo.TransactionalEmail{
		Sender: brevo.Sender{Name: settings.SenderName, Email: settings.SenderEmail},
		To:     []brevo.Recipient{{Email: to}},
	}

	if templateID, ok := parseNumericID(settings.TemplateID); ok {
		email.TemplateID = &templateID
	} else {
		email.Subject = fallbackSubject
		email.HTMLContent = fallbackHTMLContent
	}

	return email
}

func parseNumericID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

type notificationMetrics struct {
	steps   *prometheus.CounterVec
	dropped prometheus.Counter
}

func newNotificationMetrics(reg prometheus.Registerer) *notificationMetrics {
	if reg == nil {
		return nil
	}

	steps := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_notification_steps_total",
			Help: "Notification steps attempted, by step and outcome.",
		},
		[]string{"step", "outcome"},
	)
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "waitlist_notification_dropped_total",
		Help: "Notifications rejected because the worker queue was full or stopped.",
	})

	return &notificationMetrics{
		steps:   registerOrExisting(reg, steps).(*prometheus.CounterVec),
		dropped: registerOrExisting(reg, dropped).(prometheus.Counter),
	}
}

func registerOrExisting(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector
		}
		panic(err)
	}
	return c
}

func (m *notificationMetrics) observeStep(step string, outcome brevo.Outcome) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(step, outcome.String()).Inc()
}

func (m *notificationMetrics) observeDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}
