package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/nixolabs/triage-service/internal/config"
	apperrors "github.com/nixolabs/triage-service/pkg/util"
)

const (
	headerSignature = "X-Slack-Signature"
	headerTimestamp = "X-Slack-Request-Timestamp"
	signaturePrefix = "v0"
)

// VerifyMiddleware authenticates Events API requests with the signing
// secret: HMAC-SHA256 over "v0:<timestamp>:<body>", compared in constant
// time. Requests with stale timestamps are rejected to block replays.
// When no secret is configured, verification is skipped with a warning.
func VerifyMiddleware(cfg config.SlackConfig, logger *zap.Logger) fiber.Handler {
	if cfg.SigningSecret == "" {
		logger.Warn("SLACK_SIGNING_SECRET not set; webhook verification disabled")
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	tolerance := cfg.TimestampTolerance
	if tolerance <= 0 {
		tolerance = 5 * time.Minute
	}

	return func(c *fiber.Ctx) error {
		timestamp := c.Get(headerTimestamp)
		signature := c.Get(headerSignature)
		if timestamp == "" || signature == "" {
			return apperrors.NewUnauthorized("missing signature headers")
		}

		ts, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			return apperrors.NewUnauthorized("invalid timestamp")
		}
		age := time.Since(time.Unix(ts, 0))
		if age > tolerance || age < -tolerance {
			return apperrors.NewUnauthorized("stale request")
		}

		if !hmac.Equal([]byte(signature), []byte(Sign(cfg.SigningSecret, timestamp, c.Body()))) {
			logger.Warn("rejected webhook with bad signature")
			return apperrors.NewUnauthorized("signature mismatch")
		}
		return c.Next()
	}
}

// Sign computes the v0 request signature for the given timestamp and body.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signaturePrefix + ":" + timestamp + ":"))
	mac.Write(body)
	return signaturePrefix + "=" + hex.EncodeToString(mac.Sum(nil))
}
