package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"
)

// Fast2SMS sends codes through the Fast2SMS OTP route. The route takes only
// the digits of the message and expects national numbers without +91.
type Fast2SMS struct {
	apiURL string
	apiKey string
	client *http.Client
}

func NewFast2SMS(apiURL, apiKey string) *Fast2SMS {
	return &Fast2SMS{
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *Fast2SMS) Name() string { return "fast2sms" }

type fast2smsRequest struct {
	Route           string `json:"route"`
	VariablesValues string `json:"variables_values"`
	Numbers         string `json:"numbers"`
}

type fast2smsResponse struct {
	Return  bool            `json:"return"`
	Message json.RawMessage `json:"message"`
}

func (f *Fast2SMS) Send(ctx context.Context, to, body string) error {
	reqBody, err := json.Marshal(fast2smsRequest{
		Route:           "otp",
		VariablesValues: digitsOnly(body),
		Numbers:         strings.TrimPrefix(to, "+91"),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authorization", f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	var out fast2smsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("%w: unreadable response (status %d)", ErrProviderUnavailable, resp.StatusCode)
	}
	if !out.Return {
		return fmt.Errorf("fast2sms rejected message: %s", string(out.Message))
	}
	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
