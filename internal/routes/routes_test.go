package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codeWithMuze/Prompteon/internal/config"
	"github.com/codeWithMuze/Prompteon/internal/handlers"
	"github.com/codeWithMuze/Prompteon/internal/history/historytest"
	"github.com/codeWithMuze/Prompteon/internal/identity"
	"github.com/codeWithMuze/Prompteon/internal/identity/identitytest"
	"github.com/codeWithMuze/Prompteon/internal/llm"
	"github.com/codeWithMuze/Prompteon/internal/models"
	"github.com/codeWithMuze/Prompteon/internal/ratelimit"
	"github.com/codeWithMuze/Prompteon/internal/services"
	"github.com/codeWithMuze/Prompteon/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "routes-test-secret"

type stubEmail struct {
	mu   sync.Mutex
	sent int
}

func (s *stubEmail) Send(context.Context, string, string, string) error {
	s.mu.Lock()
	s.sent++
	s.mu.Unlock()
	return nil
}

type stubSMS struct{}

func (stubSMS) Send(context.Context, string, string) error { return nil }

type stubForger struct {
	err error
}

func (stubForger) Model() string { return "stub-model" }

func (f stubForger) Forge(_ context.Context, prompt string, _ llm.Mode) (*llm.Analysis, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Analysis{
		Score:          72,
		Difficulty:     "Medium",
		Metrics:        llm.Metrics{Clarity: 80, Specificity: 70},
		Strengths:      []string{"short"},
		Improvements:   []string{"add context"},
		ImprovedPrompt: "Improved: " + prompt,
	}, nil
}

type testServer struct {
	app    *fiber.App
	dir    *identitytest.Directory
	store  *historytest.Store
	tokens *services.TokenService
	email  *stubEmail
	pingOK bool
}

func newTestServer(t *testing.T, forger llm.Forger) *testServer {
	t.Helper()
	cfg := &config.Config{JWTSecret: testSecret, CORSOrigins: "http://localhost:3000"}
	ts := &testServer{
		dir:    identitytest.New(),
		store:  historytest.New(),
		tokens: services.NewTokenService(testSecret, 15*time.Minute, 7*24*time.Hour),
		email:  &stubEmail{},
		pingOK: true,
	}
	cookies := session.NewCookies(ts.tokens.AccessTTL(), ts.tokens.RefreshTTL(), false)
	otp := services.NewOTPService(ts.dir)
	limiter := ratelimit.NewMemoryCounter(ratelimit.DefaultLimit, ratelimit.DefaultWindow)

	auth := services.NewAuthService(ts.dir, ts.tokens, otp, ts.email)
	account := services.NewAccountService(ts.dir, ts.tokens, otp, limiter, ts.email, stubSMS{})
	forge := services.NewForgeService(ts.tokens, ts.dir, services.NewUsageService(ts.store), ts.store, forger)

	ts.app = fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	Setup(ts.app, cfg, ts.tokens, cookies, Handlers{
		Auth:     handlers.NewAuthHandler(auth, cookies),
		Settings: handlers.NewSettingsHandler(account, cookies),
		Forge:    handlers.NewForgeHandler(forge),
		History:  handlers.NewHistoryHandler(services.NewHistoryService(ts.store)),
		Health: handlers.NewHealthHandler(func() error {
			if ts.pingOK {
				return nil
			}
			return errors.New("connection refused")
		}),
	})
	return ts
}

// signIn seeds a user and returns its session cookies.
func (ts *testServer) signIn(t *testing.T, email, plan string) (*models.User, []*http.Cookie) {
	t.Helper()
	u := ts.dir.Seed(email, "secret123", "Test User", plan)
	pair, err := ts.tokens.IssuePair(u)
	require.NoError(t, err)
	return u, []*http.Cookie{
		{Name: session.AccessCookie, Value: pair.AccessToken},
		{Name: session.RefreshCookie, Value: pair.RefreshToken},
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func responseCookie(resp *http.Response, name string) *http.Cookie {
	for _, ck := range resp.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestSignup_SetsSessionCookies(t *testing.T) {
	ts := newTestServer(t, stubForger{})

	resp, body := ts.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "New@Example.com", "password": "secret123", "name": "New",
	})

	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	user, _ := body["user"].(map[string]interface{})
	assert.Equal(t, "new@example.com", user["email"])

	access := responseCookie(resp, session.AccessCookie)
	refresh := responseCookie(resp, session.RefreshCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, 900, access.MaxAge)
	assert.Equal(t, 604800, refresh.MaxAge)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t, stubForger{})
	ts.dir.Seed("a@example.com", "secret123", "A", models.PlanFree)

	resp, body := ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@example.com", "password": "nope"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", body["error"])

	resp, _ = ts.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@example.com", "password": "secret123"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotNil(t, responseCookie(resp, session.AccessCookie))
}

func TestLogout_ClearsCookies(t *testing.T) {
	ts := newTestServer(t, stubForger{})

	resp, body := ts.do(t, http.MethodPost, "/api/auth/logout", nil)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	access := responseCookie(resp, session.AccessCookie)
	require.NotNil(t, access)
	assert.Empty(t, access.Value)
}

func TestLogoutAll_RevokesOldRefreshToken(t *testing.T) {
	ts := newTestServer(t, stubForger{})
	_, old := ts.signIn(t, "b@example.com", models.PlanFree)

	resp, body := ts.do(t, http.MethodPost, "/api/settings/security/logout-all", nil, old...)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out of all other devices", body["message"])
	fresh := responseCookie(resp, session.RefreshCookie)
	require.NotNil(t, fresh)

	resp, body = ts.do(t, http.MethodPost, "/api/auth/refresh", nil, old[1])
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid refresh token", body["error"])

	resp, _ = ts.do(t, http.MethodPost, "/api/auth/refresh", nil, &http.Cookie{Name: session.RefreshCookie, Value: fresh.Value})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRefresh_MissingCookie(t *testing.T) {
	ts := newTestServer(t, stubForger{})

	resp, body := ts.do(t, http.MethodPost, "/api/auth/refresh", nil)

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "No refresh token", body["error"])
}

func TestSettings_RequireSession(t *testing.T) {
	ts := newTestServer(t, stubForger{})

	resp, body := ts.do(t, http.MethodGet, "/api/settings/me", nil)

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized", body["error"])
}

func TestSettings_RefreshCookieAloneKeepsSession(t *testing.T) {
	ts := newTestServer(t, stubForger{})
	u, cookies := ts.signIn(t, "c@example.com", models.PlanPro)

	resp, body := ts.do(t, http.MethodGet, "/api/settings/me", nil, cookies[1])

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	user, _ := body["user"].(map[string]interface{})
	assert.Equal(t, u.Email, user["email"])
	assert.NotNil(t, responseCookie(resp, session.AccessCookie))
}

func TestPhoneOTP_FourthSendRateLimited(t *testing.T) {
	ts := newTestServer(t, stubForger{})
	_, cookies := ts.signIn(t, "d@example.com", models.PlanFree)

	for i := 0; i < 3; i++ {
		resp, body := ts.do(t, http.MethodPost, "/api/settings/otp/send", map[string]string{"phone": "+919876543210"}, cookies...)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, "send %d", i+1)
		assert.Equal(t, "OTP sent successfully", body["message"])
		assert.NotEmpty(t, body["expiresAt"])
	}

	resp, body := ts.do(t, http.MethodPost, "/api/settings/otp/send", map[string]string{"phone": "+919876543210"}, cookies...)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many attempts. Please try again later.", body["error"])
}

func TestPhoneOTP_VerifyWrongCode(t *testing.T) {
	ts := newTestServer(t, stubForger{})
	u, cookies := ts.signIn(t, "e@example.com", models.PlanFree)

	resp, _ := ts.do(t, http.MethodPost, "/api/settings/otp/send", map[string]string{"phone": "+15550001111"}, cookies...)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	pending, ok := ts.dir.Code(u.ID, identity.PurposePhone)
	require.True(t, ok)
	wrong := "000000"
	if pending.Code == wrong {
		wrong = "111111"
	}

	resp, body := ts.do(t, http.MethodPost, "/api/settings/otp/verify", map[string]string{"phone": "+15550001111", "otp": wrong}, cookies...)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid OTP", body["error"])

	resp, body = ts.do(t, http.MethodPost, "/api/settings/otp/verify", map[string]string{"phone": "+15550001111", "otp": pending.Code}, cookies...)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Phone verified successfully", body["message"])
}

func TestForgotPassword_GenericResponse(t *testing.T) {
	ts := newTestServer(t, stubForger{})
	ts.dir.Seed("f@example.com", "secret123", "F", models.PlanFree)

	for _, email := range []string{"f@example.com", "ghost@example.com"} {
		resp, body := ts.do(t, http.MethodPost, "/api/auth/forgot-password/send", map[string]string{"email": email})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "If account exists, OTP sent.", body["message"])
	}
	assert.Equal(t, 1, ts.email.sent)
}

func TestHistory_DeleteOwnership(t *testing.T) {
	ts := newTestServer(t, stubForger{})
	owner, _ := ts.signIn(t, "owner@example.com", models.PlanFree)
	_, intruder := ts.signIn(t, "intruder@example.com", models.PlanFree)
	row := ts.store.Add(owner.ID, time.Now().UTC())

	resp, body := ts.do(t, http.MethodDelete, "/api/history/"+row.ID.String(), nil, intruder...)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Forbidden", body["error"])
	assert.Equal(t, 1, ts.store.Len())

	resp, _ = ts.do(t, http.MethodDelete, "/api/history/"+uuid.NewString(), nil, intruder...)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodDelete, "/api/history/not-a-uuid", nil, intruder...)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHistory_SaveAndRecent(t *testing.T) {
	ts := newTestServer(t, stubForger{})
	_, cookies := ts.signIn(t, "g@example.com", models.PlanFree)

	resp, body := ts.do(t, http.MethodPost, "/api/history/save", map[string]interface{}{
		"original_prompt": "write a poem",
		"improved_prompt": "write a sonnet about rain",
		"score":           64,
	}, cookies...)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, body = ts.do(t, http.MethodGet, "/api/history/recent", nil, cookies...)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	items, _ := body["data"].([]interface{})
	require.Len(t, items, 1)
	item, _ := items[0].(map[string]interface{})
	assert.Equal(t, "gpt-4", item["model"])
	assert.Equal(t, "success", item["status"])
}

func TestGenerate_AnonymousWritesNoHistory(t *testing.T) {
	ts := newTestServer(t, stubForger{})

	resp, body := ts.do(t, http.MethodPost, "/api/generate", map[string]string{"prompt": "summarise this"})

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	data, _ := body["data"].(map[string]interface{})
	assert.Equal(t, "Improved: summarise this", data["improvedPrompt"])
	assert.Equal(t, 0, ts.store.Len())
}

func TestGenerate_SignedInRecordsHistory(t *testing.T) {
	ts := newTestServer(t, stubForger{})
	_, cookies := ts.signIn(t, "h@example.com", models.PlanFree)

	resp, _ := ts.do(t, http.MethodPost, "/api/generate", map[string]string{"prompt": "hello", "mode": "Technical"}, cookies[0])

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, ts.store.Len())
}

func TestGenerate_FreePlanAtLimit(t *testing.T) {
	ts := newTestServer(t, stubForger{})
	u, cookies := ts.signIn(t, "i@example.com", models.PlanFree)
	for i := 0; i < 3; i++ {
		ts.store.Add(u.ID, time.Now().UTC())
	}

	resp, body := ts.do(t, http.MethodPost, "/api/generate", map[string]string{"prompt": "one more"}, cookies[0])

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, services.UsageExceededMsg, body["error"])
	assert.Equal(t, 3, ts.store.Len())
}

func TestGenerate_UpstreamFailure(t *testing.T) {
	ts := newTestServer(t, stubForger{err: llm.ErrMalformedOutput})

	resp, body := ts.do(t, http.MethodPost, "/api/generate", map[string]string{"prompt": "hello"})

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "The Neural Bridge is currently overloaded. Please retry.", body["error"])
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	ts := newTestServer(t, stubForger{})

	resp, body := ts.do(t, http.MethodPost, "/api/generate", map[string]string{"prompt": "   "})

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Input is empty.", body["error"])
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, stubForger{})

	resp, body := ts.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	ts.pingOK = false
	_, body = ts.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unhealthy", body["db"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, stubForger{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "prompteon_")
}

func TestPreferences_UnknownKeysRoundTrip(t *testing.T) {
	ts := newTestServer(t, stubForger{})
	_, cookies := ts.signIn(t, "prefs@example.com", models.PlanFree)

	resp, body := ts.do(t, http.MethodPost, "/api/settings/preferences", map[string]interface{}{
		"theme": "dark", "model": "gpt-4", "language": "fr", "notifications": true,
	}, cookies...)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	user, _ := body["user"].(map[string]interface{})
	prefs, _ := user["preferences"].(map[string]interface{})
	assert.Equal(t, "dark", prefs["theme"])
	assert.Equal(t, "fr", prefs["language"])
	assert.Equal(t, true, prefs["notifications"])

	access := responseCookie(resp, session.AccessCookie)
	require.NotNil(t, access)
	claims, ok := ts.tokens.Verify(access.Value)
	require.True(t, ok)
	require.NotNil(t, claims.Preferences)
	assert.JSONEq(t, `"fr"`, string(claims.Preferences.Extra["language"]))

	resp, body = ts.do(t, http.MethodGet, "/api/settings/me", nil, access)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	user, _ = body["user"].(map[string]interface{})
	prefs, _ = user["preferences"].(map[string]interface{})
	assert.Equal(t, true, prefs["notifications"])
}

func TestChangePassword_CodeWorksOnce(t *testing.T) {
	ts := newTestServer(t, stubForger{})
	u, cookies := ts.signIn(t, "once@example.com", models.PlanFree)

	resp, _ := ts.do(t, http.MethodPost, "/api/settings/security/email-otp/send", nil, cookies...)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	pending, ok := ts.dir.Code(u.ID, identity.PurposeEmailConfirm)
	require.True(t, ok)

	resp, body := ts.do(t, http.MethodPost, "/api/settings/security/password", map[string]string{"password": "brand-new", "otp": pending.Code}, cookies...)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Password updated successfully", body["message"])

	resp, body = ts.do(t, http.MethodPost, "/api/settings/security/password", map[string]string{"password": "again-new", "otp": pending.Code}, cookies...)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No OTP requested", body["error"])
}
