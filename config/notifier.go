package config

import (
	"time"

	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/pkg/brevo"
	"github.com/akeren/go-waitlist/pkg/circuitbreaker"
	"github.com/akeren/go-waitlist/pkg/utils"
	"github.com/akeren/go-waitlist/pkg/workerpool"
)

const (
	DefaultNotifyWorkers         = 4
	DefaultNotifyQueueSize       = 256
	DefaultNotifyTimeout         = 10 * time.Second
	DefaultNotifyShutdownTimeout = 15 * time.Second
)

// NotifierConfig is read from the environment once at startup.
type NotifierConfig struct {
	APIKey      string
	BaseURL     string
	SenderEmail string
	SenderName  string
	// TemplateID and ListID stay raw; the dispatcher ignores non-numeric values.
	TemplateID string
	ListID     string

	Workers         int
	QueueSize       int
	CallTimeout     time.Duration
	ShutdownTimeout time.Duration

	BreakerFailureThreshold int
	BreakerRecoveryTimeout  time.Duration
}

func NewNotifierConfigFromEnv() *NotifierConfig {
	return &NotifierConfig{
		APIKey:      sanitizeEnv(utils.GetEnvTrimmed("BREVO_API_KEY")),
		BaseURL:     utils.GetEnvTrimmedOrDefault("BREVO_BASE_URL", brevo.DefaultBaseURL),
		SenderEmail: utils.GetEnvTrimmed("SENDER_EMAIL"),
		SenderName:  utils.GetEnvTrimmedOrDefault("SENDER_NAME", brevo.DefaultSenderName),
		TemplateID:  utils.GetEnvTrimmed("BREVO_TEMPLATE_ID"),
		ListID:      utils.GetEnvTrimmed("BREVO_LIST_ID"),

		Workers:         utils.GetEnvIntOrDefault("NOTIFY_WORKERS", DefaultNotifyWorkers),
		QueueSize:       utils.GetEnvIntOrDefault("NOTIFY_QUEUE_SIZE", DefaultNotifyQueueSize),
		CallTimeout:     utils.GetEnvDurationOrDefault("NOTIFY_TIMEOUT", DefaultNotifyTimeout),
		ShutdownTimeout: utils.GetEnvDurationOrDefault("NOTIFY_SHUTDOWN_TIMEOUT", DefaultNotifyShutdownTimeout),

		BreakerFailureThreshold: utils.GetEnvIntOrDefault("BREVO_BREAKER_FAILURES", 5),
		BreakerRecoveryTimeout:  utils.GetEnvDurationOrDefault("BREVO_BREAKER_RECOVERY", 30*time.Second),
	}
}

// IsConfigured reports whether both the API key and the sender are present.
// Without them the service still accepts sign-ups but sends nothing.
func (nc *NotifierConfig) IsConfigured() bool {
	return nc.APIKey != "" && nc.SenderEmail != ""
}

// NewBrevoClientOrNil returns nil, with a warning, when the notifier is not configured.
func (nc *NotifierConfig) NewBrevoClientOrNil(logger *log.Logger) *brevo.Client {
	if !nc.IsConfigured() {
		missing := []string{}
		if nc.APIKey == "" {
			missing = append(missing, "BREVO_API_KEY")
		}
		if nc.SenderEmail == "" {
			missing = append(missing, "SENDER_EMAIL")
		}
		logger.Warn("Notifications disabled; sign-ups will be stored without contact registration or confirmation email", "missing_vars", missing)
		return nil
	}

	breaker := circuitbreaker.NewCircuitBreaker(&circuitbreaker.Config{
		Name:             "brevo",
		FailureThreshold: nc.BreakerFailureThreshold,
		RecoveryTimeout:  nc.BreakerRecoveryTimeout,
		SuccessThreshold: 1,
		OnStateChange: func(from, to circuitbreaker.CircuitState) {
			logger.Warn("Brevo circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	})

	logger.Info("Brevo client configured",
		"base_url", nc.BaseURL,
		"sender", nc.SenderEmail,
		"template_id", nc.TemplateID,
		"list_id", nc.ListID,
	)

	return brevo.NewClient(&brevo.Config{
		APIKey:  nc.APIKey,
		BaseURL: nc.BaseURL,
		Timeout: nc.CallTimeout,
		Breaker: breaker,
	})
}

func (nc *NotifierConfig) NewWorkerPool(logger *log.Logger) *workerpool.Pool {
	pool := workerpool.New(&workerpool.Config{
		Workers:   nc.Workers,
		QueueSize: nc.QueueSize,
		Logger:    logger,
	})
	pool.Start()
	return pool
}
