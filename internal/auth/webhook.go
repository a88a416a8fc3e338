package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Identity-provider webhooks are signed HMAC-SHA256 over "id.timestamp.body"
// with the shared secret; the signature header carries one or more
// "v1,<base64>" entries.

var (
	ErrWebhookSignature = errors.New("webhook signature mismatch")
	ErrWebhookTimestamp = errors.New("webhook timestamp outside tolerance")
)

// VerifyWebhookSignature checks the signature and the timestamp skew.
func VerifyWebhookSignature(secret, msgID, timestamp string, body []byte, signatureHeader string, tolerance time.Duration, now time.Time) error {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("parse webhook timestamp: %w", err)
	}
	sent := time.Unix(ts, 0)
	if sent.Before(now.Add(-tolerance)) || sent.After(now.Add(tolerance)) {
		return ErrWebhookTimestamp
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msgID + "." + timestamp + "."))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, entry := range strings.Split(signatureHeader, " ") {
		parts := strings.SplitN(entry, ",", 2)
		if len(parts) != 2 || parts[0] != "v1" {
			continue
		}
		if hmac.Equal([]byte(parts[1]), []byte(expected)) {
			return nil
		}
	}
	return ErrWebhookSignature
}
