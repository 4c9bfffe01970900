package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultAPIEndpoint is the transactional mail API the service has always delivered through.
const DefaultAPIEndpoint = "https://api.resend.com/emails"

// Transport delivers one message. It is shared by all requests.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

type TransportFunc func(ctx context.Context, msg Message) error

func (f TransportFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// DeliveryError is a non-2xx answer from the mail API.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("mail api responded %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Temporary reports whether the provider asked us to come back later.
func (e *DeliveryError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsProviderFailure reports whether err means the provider itself is unhealthy. A message the
// provider rejected, or a caller that gave up, says nothing about the provider.
func IsProviderFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var delivery *DeliveryError
	if errors.As(err, &delivery) {
		return delivery.Temporary()
	}
	return true
}

// APITransport posts messages as JSON to an HTTP mail API using a bearer credential.
type APITransport struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

type apiPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// NewAPITransport uses a default client when client is nil; it is instrumented when tracing is on.
func NewAPITransport(endpoint, apiKey string, client *http.Client) *APITransport {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultAPIEndpoint
	}

	if client == nil {
		var rt http.RoundTripper = http.DefaultTransport
		if utils.IsTracingEnabled() {
			rt = otelhttp.NewTransport(rt)
		}
		client = &http.Client{Timeout: 30 * time.Second, Transport: log.PropagatingTransport(rt)}
	}

	return &APITransport{endpoint: endpoint, apiKey: apiKey, client: client}
}

func (t *APITransport) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(apiPayload{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s notification: %w", msg.Kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &DeliveryError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
