package config

import (
	"context"
	"testing"
	"time"

	"github.com/akeren/go-waitlist/pkg/brevo"
	"github.com/akeren/go-waitlist/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotifierConfigFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"BREVO_API_KEY", "BREVO_BASE_URL", "SENDER_EMAIL", "SENDER_NAME", "BREVO_TEMPLATE_ID", "BREVO_LIST_ID",
		"NOTIFY_WORKERS", "NOTIFY_QUEUE_SIZE", "NOTIFY_TIMEOUT", "NOTIFY_SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	cfg := NewNotifierConfigFromEnv()

	assert.False(t, cfg.IsConfigured())
	assert.Equal(t, brevo.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, brevo.DefaultSenderName, cfg.SenderName)
	assert.Equal(t, DefaultNotifyWorkers, cfg.Workers)
	assert.Equal(t, DefaultNotifyQueueSize, cfg.QueueSize)
	assert.Equal(t, DefaultNotifyTimeout, cfg.CallTimeout)
	assert.Nil(t, cfg.NewBrevoClientOrNil(quietLogger()))
}

func TestNewNotifierConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("BREVO_API_KEY", "key")
	t.Setenv("SENDER_EMAIL", "hello@example.com")
	t.Setenv("SENDER_NAME", "Crew")
	t.Setenv("BREVO_TEMPLATE_ID", "12")
	t.Setenv("BREVO_LIST_ID", "4")
	t.Setenv("NOTIFY_WORKERS", "2")
	t.Setenv("NOTIFY_QUEUE_SIZE", "8")
	t.Setenv("NOTIFY_TIMEOUT", "3s")

	cfg := NewNotifierConfigFromEnv()

	require.True(t, cfg.IsConfigured())
	assert.Equal(t, "Crew", cfg.SenderName)
	assert.Equal(t, "12", cfg.TemplateID)
	assert.Equal(t, "4", cfg.ListID)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 8, cfg.QueueSize)
	assert.Equal(t, 3*time.Second, cfg.CallTimeout)
	assert.NotNil(t, cfg.NewBrevoClientOrNil(quietLogger()))
}

func TestNotifierConfig_SenderRequired(t *testing.T) {
	cfg := &NotifierConfig{APIKey: "key"}
	assert.False(t, cfg.IsConfigured())
}

func TestNotifierConfig_NewWorkerPool(t *testing.T) {
	cfg := &NotifierConfig{Workers: 1, QueueSize: 1}
	pool := cfg.NewWorkerPool(quietLogger())

	assert.True(t, pool.Running())
	require.NoError(t, pool.Shutdown(context.Background()))
	assert.False(t, pool.Running())
}

func TestNewAppConfig_StaticDir(t *testing.T) {
	t.Setenv("STATIC_DIR", "")
	assert.Equal(t, DefaultStaticDir, NewAppConfig().StaticDir)

	t.Setenv("STATIC_DIR", "/srv/dist")
	assert.Equal(t, "/srv/dist", NewAppConfig().StaticDir)
}

func TestNewAppConfig_LimitsFromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "")
	t.Setenv("RATE_LIMIT_WINDOW", "")
	t.Setenv("REQUEST_TIMEOUT", "")

	cfg := NewAppConfig()
	assert.Equal(t, constants.DefaultRateLimitRequests, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)

	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "10s")
	t.Setenv("REQUEST_TIMEOUT", "-1s")

	cfg = NewAppConfig()
	assert.Equal(t, 5, cfg.RateLimitRequests)
	assert.Equal(t, 10*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}
