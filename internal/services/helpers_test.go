package services

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/codeWithMuze/Prompteon/internal/identity/identitytest"
	"github.com/codeWithMuze/Prompteon/internal/ratelimit"
)

type sentMessage struct {
	to, subject, body string
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeEmail) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{to: to, subject: subject, body: body})
	return f.err
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeSMS) Send(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{to: to, body: body})
	return f.err
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func codeIn(body string) string {
	return codePattern.FindString(body)
}

type accountFixture struct {
	dir     *identitytest.Directory
	tokens  *TokenService
	clock   *fakeClock
	email   *fakeEmail
	sms     *fakeSMS
	limiter *ratelimit.MemoryCounter
	auth    *AuthService
	account *AccountService
}

func newAccountFixture() *accountFixture {
	clock := &fakeClock{t: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)}
	dir := identitytest.New()
	tokens := NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour).WithClock(clock.Now)
	otp := NewOTPService(dir).WithClock(clock.Now)
	email := &fakeEmail{}
	sms := &fakeSMS{}
	limiter := ratelimit.NewMemoryCounter(ratelimit.DefaultLimit, ratelimit.DefaultWindow).WithClock(clock.Now)
	return &accountFixture{
		dir:     dir,
		tokens:  tokens,
		clock:   clock,
		email:   email,
		sms:     sms,
		limiter: limiter,
		auth:    NewAuthService(dir, tokens, otp, email),
		account: NewAccountService(dir, tokens, otp, limiter, email, sms),
	}
}
