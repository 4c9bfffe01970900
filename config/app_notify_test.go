package config

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/internal/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setNotifyEnv(t *testing.T, values map[string]string) {
	t.Helper()

	keys := []string{
		"NOTIFY_TRANSPORT_API_KEY", "NOTIFY_TEST_MODE", "NOTIFY_TEST_ADDRESS", "NOTIFY_OPERATOR_ADDRESS",
		"NOTIFY_SENDER", "NOTIFY_SEND_TIMEOUT", "NOTIFY_TRANSPORT", "NOTIFY_API_URL", "NOTIFY_MAX_ATTEMPTS",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME",
	}
	for _, key := range keys {
		t.Setenv(key, values[key])
	}
}

func validNotifyEnv() map[string]string {
	return map[string]string{
		"NOTIFY_TRANSPORT_API_KEY": "re_test_key",
		"NOTIFY_OPERATOR_ADDRESS":  "ops@example.com",
	}
}

func TestLoadNotificationSettings_Defaults(t *testing.T) {
	setNotifyEnv(t, validNotifyEnv())

	settings, err := LoadNotificationSettings()

	require.NoError(t, err)
	assert.Equal(t, "re_test_key", settings.Notify.TransportCredential)
	assert.False(t, settings.Notify.TestMode)
	assert.Equal(t, notify.DefaultSenderIdentity, settings.Notify.SenderIdentity)
	assert.Equal(t, notify.DefaultSendTimeout, settings.Notify.SendTimeout)
	assert.Equal(t, NotifyTransportAPI, settings.Transport)
	assert.Equal(t, notify.DefaultAPIEndpoint, settings.APIEndpoint)
	assert.Equal(t, 2, settings.MaxAttempts)
}

func TestLoadNotificationSettings_Overrides(t *testing.T) {
	env := validNotifyEnv()
	env["NOTIFY_TEST_MODE"] = "true"
	env["NOTIFY_TEST_ADDRESS"] = "\"qa@example.com\""
	env["NOTIFY_SENDER"] = "Waitlist <hello@example.com>"
	env["NOTIFY_SEND_TIMEOUT"] = "3s"
	env["NOTIFY_TRANSPORT"] = "SMTP"
	env["SMTP_HOST"] = "smtp.example.com"
	env["NOTIFY_MAX_ATTEMPTS"] = "4"
	setNotifyEnv(t, env)

	settings, err := LoadNotificationSettings()

	require.NoError(t, err)
	assert.True(t, settings.Notify.TestMode)
	assert.Equal(t, "qa@example.com", settings.Notify.TestAddress)
	assert.Equal(t, "Waitlist <hello@example.com>", settings.Notify.SenderIdentity)
	assert.Equal(t, 3*time.Second, settings.Notify.SendTimeout)
	assert.Equal(t, NotifyTransportSMTP, settings.Transport)
	assert.Equal(t, "587", settings.SMTPPort)
	assert.Equal(t, 4, settings.MaxAttempts)

	_, ok := settings.NewTransport(log.NewLoggerWithJSONOutput()).(*notify.ResilientTransport)
	assert.True(t, ok)
}

func TestLoadNotificationSettings_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(env map[string]string)
		wantErr error
	}{
		{name: "missing credential", mutate: func(env map[string]string) { delete(env, "NOTIFY_TRANSPORT_API_KEY") }, wantErr: notify.ErrMissingTransportCredential},
		{name: "missing operator", mutate: func(env map[string]string) { delete(env, "NOTIFY_OPERATOR_ADDRESS") }, wantErr: notify.ErrMissingOperatorAddress},
		{name: "test mode without address", mutate: func(env map[string]string) { env["NOTIFY_TEST_MODE"] = "1" }, wantErr: notify.ErrMissingTestAddress},
		{name: "unparseable test mode", mutate: func(env map[string]string) { env["NOTIFY_TEST_MODE"] = "sometimes" }},
		{name: "bad timeout", mutate: func(env map[string]string) { env["NOTIFY_SEND_TIMEOUT"] = "soon" }},
		{name: "bad attempts", mutate: func(env map[string]string) { env["NOTIFY_MAX_ATTEMPTS"] = "0" }},
		{name: "unknown transport", mutate: func(env map[string]string) { env["NOTIFY_TRANSPORT"] = "pigeon" }},
		{name: "smtp without host", mutate: func(env map[string]string) { env["NOTIFY_TRANSPORT"] = "smtp" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := validNotifyEnv()
			tt.mutate(env)
			setNotifyEnv(t, env)

			settings, err := LoadNotificationSettings()

			require.Error(t, err)
			assert.Nil(t, settings)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
		})
	}
}

func TestNewNotificationDispatcher_RegistersMetrics(t *testing.T) {
	setNotifyEnv(t, validNotifyEnv())
	settings, err := LoadNotificationSettings()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	dispatcher, err := NewNotificationDispatcher(log.NewLoggerWithJSONOutput(), settings, reg)

	require.NoError(t, err)
	assert.True(t, dispatcher.TransportHealthy())

	// Registering twice on the same registry reuses the existing collectors.
	_, err = NewNotificationDispatcher(log.NewLoggerWithJSONOutput(), settings, reg)
	assert.NoError(t, err)
}

func TestNewTransport_RejectedRecipientDoesNotBlockOthers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			To []string `json:"to"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if len(payload.To) == 1 && payload.To[0] == "bad@example.com" {
			http.Error(w, "invalid recipient", http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	env := validNotifyEnv()
	env["NOTIFY_API_URL"] = server.URL
	env["NOTIFY_MAX_ATTEMPTS"] = "1"
	setNotifyEnv(t, env)

	settings, err := LoadNotificationSettings()
	require.NoError(t, err)
	transport := settings.NewTransport(log.NewLoggerWithJSONOutput())

	for i := 0; i < 10; i++ {
		var delivery *notify.DeliveryError
		require.ErrorAs(t, transport.Send(context.Background(), notify.Message{To: "bad@example.com"}), &delivery)
		assert.Equal(t, http.StatusUnprocessableEntity, delivery.StatusCode)
	}

	assert.NoError(t, transport.Send(context.Background(), notify.Message{To: "good@example.com"}))
	assert.True(t, transport.(*notify.ResilientTransport).Healthy())
}
