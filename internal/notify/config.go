package notify

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const (
	DefaultSenderIdentity = "Marketplace <noreply@example.com>"
	DefaultSendTimeout    = 10 * time.Second
)

var (
	ErrMissingTransportCredential = errors.New("notify: transport credential is required")
	ErrMissingOperatorAddress     = errors.New("notify: operator address is required")
	ErrMissingTestAddress         = errors.New("notify: test address is required when test mode is enabled")
)

// Config is resolved once at startup and never changes for the life of the process.
type Config struct {
	TransportCredential string
	TestMode            bool
	TestAddress         string
	OperatorAddress     string
	SenderIdentity      string
	SendTimeout         time.Duration
}

// Validate fills defaults and rejects configurations the process must not start with.
func (c *Config) Validate() error {
	c.TransportCredential = strings.TrimSpace(c.TransportCredential)
	c.TestAddress = strings.TrimSpace(c.TestAddress)
	c.OperatorAddress = strings.TrimSpace(c.OperatorAddress)
	c.SenderIdentity = strings.TrimSpace(c.SenderIdentity)

	if c.TransportCredential == "" {
		return ErrMissingTransportCredential
	}

	if c.OperatorAddress == "" {
		return ErrMissingOperatorAddress
	}
	if _, err := mail.ParseAddress(c.OperatorAddress); err != nil {
		return fmt.Errorf("notify: invalid operator address %q: %w", c.OperatorAddress, err)
	}

	if c.TestMode {
		if c.TestAddress == "" {
			return ErrMissingTestAddress
		}
		if _, err := mail.ParseAddress(c.TestAddress); err != nil {
			return fmt.Errorf("notify: invalid test address %q: %w", c.TestAddress, err)
		}
	}

	if c.SenderIdentity == "" {
		c.SenderIdentity = DefaultSenderIdentity
	}
	if _, err := mail.ParseAddress(c.SenderIdentity); err != nil {
		return fmt.Errorf("notify: invalid sender identity %q: %w", c.SenderIdentity, err)
	}

	if c.SendTimeout <= 0 {
		c.SendTimeout = DefaultSendTimeout
	}

	return nil
}

// Destinations is where each of the two signup notifications is delivered.
type Destinations struct {
	Welcome string
	Alert   string
}

// Destinations applies the test-mode redirect identically to both notifications.
func (c Config) Destinations(signerEmail string) Destinations {
	if c.TestMode {
		return Destinations{Welcome: c.TestAddress, Alert: c.TestAddress}
	}

	return Destinations{Welcome: signerEmail, Alert: c.OperatorAddress}
}
