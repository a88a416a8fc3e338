package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signWebhook(secret, msgID string, ts time.Time, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%d.", msgID, ts.Unix())
	mac.Write(body)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "whsec-test"
	body := []byte(`{"type":"user.created","data":{"id":"user-1"}}`)
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	ts := fmt.Sprintf("%d", now.Unix())

	t.Run("valid signature", func(t *testing.T) {
		header := signWebhook(secret, "msg-1", now, body)
		err := VerifyWebhookSignature(secret, "msg-1", ts, body, header, 5*time.Minute, now)
		require.NoError(t, err)
	})

	t.Run("multiple entries with one match", func(t *testing.T) {
		header := "v1,Zm9yZ2VkCg== " + signWebhook(secret, "msg-1", now, body)
		err := VerifyWebhookSignature(secret, "msg-1", ts, body, header, 5*time.Minute, now)
		require.NoError(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		header := signWebhook("other-secret", "msg-1", now, body)
		err := VerifyWebhookSignature(secret, "msg-1", ts, body, header, 5*time.Minute, now)
		assert.ErrorIs(t, err, ErrWebhookSignature)
	})

	t.Run("tampered body", func(t *testing.T) {
		header := signWebhook(secret, "msg-1", now, body)
		err := VerifyWebhookSignature(secret, "msg-1", ts, []byte(`{}`), header, 5*time.Minute, now)
		assert.ErrorIs(t, err, ErrWebhookSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		old := now.Add(-10 * time.Minute)
		header := signWebhook(secret, "msg-1", old, body)
		err := VerifyWebhookSignature(secret, "msg-1", fmt.Sprintf("%d", old.Unix()), body, header, 5*time.Minute, now)
		assert.ErrorIs(t, err, ErrWebhookTimestamp)
	})

	t.Run("unparseable timestamp", func(t *testing.T) {
		header := signWebhook(secret, "msg-1", now, body)
		err := VerifyWebhookSignature(secret, "msg-1", "yesterday", body, header, 5*time.Minute, now)
		assert.Error(t, err)
	})
}
