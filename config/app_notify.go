package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/internal/notify"
	"github.com/akeren/waitlist-api/pkg/circuitbreaker"
	"github.com/akeren/waitlist-api/pkg/retry"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	NotifyTransportAPI  = "api"
	NotifyTransportSMTP = "smtp"

	defaultNotifyMaxAttempts = 2
)

// NotificationSettings is everything needed to build the signup Dispatcher.
type NotificationSettings struct {
	Notify notify.Config

	Transport    string
	APIEndpoint  string
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	MaxAttempts  int
}

// LoadNotificationSettings reads NOTIFY_* and SMTP_* once. A missing transport credential is an
// error: the service must not start without a way to deliver notifications.
func LoadNotificationSettings() (*NotificationSettings, error) {
	testMode, err := parseBoolEnv("NOTIFY_TEST_MODE", false)
	if err != nil {
		return nil, err
	}

	sendTimeout := notify.DefaultSendTimeout
	if raw := envString("NOTIFY_SEND_TIMEOUT", ""); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("invalid NOTIFY_SEND_TIMEOUT %q", raw)
		}
		sendTimeout = parsed
	}

	maxAttempts := defaultNotifyMaxAttempts
	if raw := envString("NOTIFY_MAX_ATTEMPTS", ""); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("invalid NOTIFY_MAX_ATTEMPTS %q", raw)
		}
		maxAttempts = parsed
	}

	settings := &NotificationSettings{
		Notify: notify.Config{
			TransportCredential: envString("NOTIFY_TRANSPORT_API_KEY", ""),
			TestMode:            testMode,
			TestAddress:         envString("NOTIFY_TEST_ADDRESS", ""),
			OperatorAddress:     envString("NOTIFY_OPERATOR_ADDRESS", ""),
			SenderIdentity:      envString("NOTIFY_SENDER", notify.DefaultSenderIdentity),
			SendTimeout:         sendTimeout,
		},
		Transport:    strings.ToLower(envString("NOTIFY_TRANSPORT", NotifyTransportAPI)),
		APIEndpoint:  envString("NOTIFY_API_URL", notify.DefaultAPIEndpoint),
		SMTPHost:     envString("SMTP_HOST", ""),
		SMTPPort:     envString("SMTP_PORT", "587"),
		SMTPUsername: envString("SMTP_USERNAME", ""),
		MaxAttempts:  maxAttempts,
	}

	if err := settings.Notify.Validate(); err != nil {
		return nil, err
	}

	switch settings.Transport {
	case NotifyTransportAPI:
	case NotifyTransportSMTP:
		if settings.SMTPHost == "" {
			return nil, fmt.Errorf("SMTP_HOST is required when NOTIFY_TRANSPORT=%s", NotifyTransportSMTP)
		}
	default:
		return nil, fmt.Errorf("unsupported NOTIFY_TRANSPORT %q (allowed: %s, %s)", settings.Transport, NotifyTransportAPI, NotifyTransportSMTP)
	}

	return settings, nil
}

// NewTransport builds the configured transport behind a circuit breaker and retry policy.
// Breaker transitions are logged on logger.
func (s *NotificationSettings) NewTransport(logger *log.Logger) notify.Transport {
	var base notify.Transport
	if s.Transport == NotifyTransportSMTP {
		base = notify.NewSMTPTransport(s.SMTPHost, s.SMTPPort, s.SMTPUsername, s.Notify.TransportCredential)
	} else {
		base = notify.NewAPITransport(s.APIEndpoint, s.Notify.TransportCredential, nil)
	}

	policy := retry.NewExponentialBackoff(&retry.Config{
		MaxAttempts: s.MaxAttempts,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Multiplier:  2.0,
	})

	breakerConfig := circuitbreaker.DefaultConfig()
	breakerConfig.IsFailure = notify.IsProviderFailure
	breakerConfig.OnStateChange = func(from, to circuitbreaker.CircuitState) {
		if to == circuitbreaker.Open {
			logger.Warn("Notification circuit opened", "transport", s.Transport, "from", from.String())
			return
		}
		logger.Info("Notification circuit state changed", "transport", s.Transport, "from", from.String(), "to", to.String())
	}

	return notify.NewResilientTransport(base, circuitbreaker.NewCircuitBreaker(breakerConfig), policy)
}

// NewNotificationDispatcher wires logging and, when reg is non-nil, Prometheus outcome sinks.
func NewNotificationDispatcher(logger *log.Logger, settings *NotificationSettings, reg prometheus.Registerer) (*notify.Dispatcher, error) {
	var sinks []notify.OutcomeSink

	if reg != nil {
		promSink, err := notify.NewPrometheusSink(reg)
		if err != nil {
			return nil, fmt.Errorf("register notification metrics: %w", err)
		}
		sinks = append(sinks, promSink)
	}

	dispatcher, err := notify.NewDispatcher(settings.Notify, settings.NewTransport(logger), logger, sinks...)
	if err != nil {
		return nil, err
	}

	logger.Info("Notification dispatcher configured",
		"transport", settings.Transport,
		"test_mode", settings.Notify.TestMode,
		"operator", settings.Notify.OperatorAddress,
		"send_timeout", settings.Notify.SendTimeout.String(),
	)
	if settings.Notify.TestMode {
		logger.Warn("Notification test mode enabled; all notifications go to the test address", "test_address", settings.Notify.TestAddress)
	}

	return dispatcher, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := envString(key, "")
	if raw == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return parsed, nil
}
