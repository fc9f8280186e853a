package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codeWithMuze/Prompteon/internal/config"
)

// ErrProviderUnavailable marks a failure to reach a provider at all. The
// fallback chain moves on to the next provider only for these.
var ErrProviderUnavailable = errors.New("sms provider unavailable")

type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// SMSProvider is one concrete gateway in the fallback chain.
type SMSProvider interface {
	Name() string
	Send(ctx context.Context, to, body string) error
}

// FallbackSMSSender tries providers in order. With no providers configured it
// logs the message and reports success so flows can be exercised locally.
type FallbackSMSSender struct {
	providers []SMSProvider
}

func NewFallbackSMSSender(providers ...SMSProvider) *FallbackSMSSender {
	return &FallbackSMSSender{providers: providers}
}

func (s *FallbackSMSSender) Send(ctx context.Context, to, body string) error {
	if len(s.providers) == 0 {
		slog.Info("sms mock", "to", to, "message", body)
		return nil
	}

	var lastErr error
	for _, p := range s.providers {
		slog.Info("sending sms", "provider", p.Name(), "to", to)
		err := p.Send(ctx, to, body)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrProviderUnavailable) {
			slog.Error("sms provider rejected message", "provider", p.Name(), "error", err)
			return err
		}
		slog.Warn("sms provider unavailable, trying next", "provider", p.Name(), "error", err)
		lastErr = err
	}
	return fmt.Errorf("all sms providers failed: %w", lastErr)
}

// NewSMSSender builds the chain Fast2SMS, then Twilio, from whichever
// credentials are present.
func NewSMSSender(cfg *config.Config) *FallbackSMSSender {
	var providers []SMSProvider
	if cfg.Fast2SMSAPIKey != "" {
		providers = append(providers, NewFast2SMS(cfg.Fast2SMSAPIURL, cfg.Fast2SMSAPIKey))
	}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioPhone != "" {
		providers = append(providers, NewTwilio(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhone))
	}
	if len(providers) == 0 {
		slog.Warn("no SMS provider configured, messages will be logged")
	}
	return NewFallbackSMSSender(providers...)
}
