package log

import (
	"context"
	"net/http"
)

// CorrelationHeader carries the correlation ID on inbound and outbound HTTP requests.
const CorrelationHeader = "X-Correlation-ID"

// ContextWithCorrelationID stores id so later loggers and outbound calls reuse it.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = GenerateCorrelationID()
	}
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext returns the stored ID, or "" when none was set.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

type propagatingTransport struct {
	next http.RoundTripper
}

// PropagatingTransport stamps the request context's correlation ID onto outbound requests.
func PropagatingTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &propagatingTransport{next: next}
}

func (t *propagatingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	id := CorrelationIDFromContext(r.Context())
	if id == "" || r.Header.Get(CorrelationHeader) != "" {
		return t.next.RoundTrip(r)
	}

	clone := r.Clone(r.Context())
	clone.Header.Set(CorrelationHeader, id)
	return t.next.RoundTrip(clone)
}
