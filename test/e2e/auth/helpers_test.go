package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/fernwood-health/apothecary/internal/auth/domain"
	httpapi "github.com/fernwood-health/apothecary/internal/auth/http"
	"github.com/fernwood-health/apothecary/internal/auth/service"
	"github.com/fernwood-health/apothecary/internal/auth/store"
	"github.com/fernwood-health/apothecary/internal/auth/store/drivers/memory"
	"github.com/fernwood-health/apothecary/pkg/cookiex"
	"github.com/fernwood-health/apothecary/pkg/cryptox"
	"github.com/fernwood-health/apothecary/pkg/idx"
	"github.com/fernwood-health/apothecary/pkg/sessiontoken"
)

/*
 * End-to-end tests run the full router over an in-process HTTP server
 * with the memory drivers. Each scenario gets its own server, stores and
 * cookie jar.
 */

const (
	testPassword = "correct horse battery staple"
	testEmail    = "freya@fernwood.health"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "e2e-auth")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type env struct {
	server *httptest.Server
	client *http.Client
	users  *memory.Users
	codes  *memory.Codes
	mailer *recordingMailer
}

type recordingMailer struct {
	codes []string
}

func (m *recordingMailer) SendVerificationCode(_ context.Context, _ string, code string) error {
	m.codes = append(m.codes, code)
	return nil
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := memory.NewUsers()
	codes := memory.NewCodes()
	mailer := &recordingMailer{}

	codec := sessiontoken.NewCodec([]byte("e2e-secret-0123456789abcdef01234"), "apothecary-auth")
	// Secure=false so the cookie jar round-trips over the plain-HTTP
	// test server, matching the dev configuration.
	cookies := cookiex.NewManager(cookiex.Config{
		Name:        "session_auth",
		TTL:         time.Hour,
		LegacyNames: []string{"session"},
	})

	router := httpapi.NewRouter(codec, cookies, "e2e", logger)
	router.LoginService = &service.LoginService{
		Credentials: &service.CredentialService{Users: users},
		TwoFactor: &service.TwoFactorService{
			Codes:       codes,
			Logger:      logger,
			CodeTTL:     10 * time.Minute,
			MaxAttempts: 5,
		},
		Mailer:   mailer,
		Users:    users,
		Codec:    codec,
		Logger:   logger,
		Issuer:   "apothecary-auth",
		TokenTTL: time.Hour,
	}
	router.Metrics = httpapi.NewMetrics(prometheus.NewRegistry())
	router.Pingers = map[string]store.Pinger{"codes": codes}
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &env{
		server: server,
		client: &http.Client{Jar: jar},
		users:  users,
		codes:  codes,
		mailer: mailer,
	}
}

func (e *env) seedUser(t *testing.T, twoFactor bool) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(testPassword)
	require.NoError(t, err)

	now := time.Now().UTC()
	u := domain.User{
		ID:               idx.New().String(),
		Email:            testEmail,
		DisplayName:      "Freya",
		PasswordHash:     hash,
		Role:             "pharmacist",
		EmailVerified:    true,
		TwoFactorEnabled: twoFactor,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, e.users.CreateUser(context.Background(), u))
	return u
}

func (e *env) postJSON(t *testing.T, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	resp, err := e.client.Post(e.server.URL+path, "application/json", &buf)
	require.NoError(t, err)
	return resp, decodeJSON(t, resp)
}

func (e *env) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := e.client.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp, decodeJSON(t, resp)
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func (e *env) sessionCookieValue(t *testing.T) string {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, e.server.URL, nil)
	require.NoError(t, err)
	for _, c := range e.client.Jar.Cookies(req.URL) {
		if c.Name == "session_auth" {
			return c.Value
		}
	}
	return ""
}
