package slack

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nixolabs/triage-service/internal/config"
	apperrors "github.com/nixolabs/triage-service/pkg/util"
)

const testSecret = "8f742231b10e8888abcd99yyyzzz85a5"

func newVerifyApp(cfg config.SlackConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"code": domainErr.Code})
		},
	})
	app.Post("/slack/events", VerifyMiddleware(cfg, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func signedRequest(t *testing.T, body, timestamp, signature string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if timestamp != "" {
		req.Header.Set("X-Slack-Request-Timestamp", timestamp)
	}
	if signature != "" {
		req.Header.Set("X-Slack-Signature", signature)
	}
	return req
}

func TestSign(t *testing.T) {
	got := Sign("secret", "123", []byte("body"))

	assert.True(t, strings.HasPrefix(got, "v0="))
	assert.Len(t, got, 3+64)
	assert.Equal(t, got, Sign("secret", "123", []byte("body")))
	assert.NotEqual(t, got, Sign("other", "123", []byte("body")))
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	app := newVerifyApp(config.SlackConfig{SigningSecret: testSecret})
	body := `{"type":"event_callback"}`
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	resp, err := app.Test(signedRequest(t, body, ts, Sign(testSecret, ts, []byte(body))))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	app := newVerifyApp(config.SlackConfig{SigningSecret: testSecret})
	body := `{"type":"event_callback"}`
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	resp, err := app.Test(signedRequest(t, body, ts, "v0="+strings.Repeat("0", 64)))

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVerifyRejectsMissingHeaders(t *testing.T) {
	app := newVerifyApp(config.SlackConfig{SigningSecret: testSecret})

	resp, err := app.Test(signedRequest(t, "{}", "", ""))

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	app := newVerifyApp(config.SlackConfig{SigningSecret: testSecret})
	body := `{}`
	ts := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)

	resp, err := app.Test(signedRequest(t, body, ts, Sign(testSecret, ts, []byte(body))))

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVerifySkippedWithoutSecret(t *testing.T) {
	app := newVerifyApp(config.SlackConfig{})

	resp, err := app.Test(signedRequest(t, "{}", "", ""))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIsUserMessage(t *testing.T) {
	tests := []struct {
		name  string
		event *MessageEvent
		want  bool
	}{
		{name: "plain user message", event: &MessageEvent{Type: "message"}, want: true},
		{name: "bot message", event: &MessageEvent{Type: "message", BotID: "B1"}, want: false},
		{name: "edited message", event: &MessageEvent{Type: "message", Subtype: "message_changed"}, want: false},
		{name: "non message", event: &MessageEvent{Type: "reaction_added"}, want: false},
		{name: "nil event", event: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.IsUserMessage())
		})
	}
}
