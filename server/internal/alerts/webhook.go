package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// deliver sends webhook notifications for a to all configured targets.
// Errors are logged but do not affect the caller.
func (e *Engine) deliver(a *Alert) {
	for _, wh := range e.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var body []byte
		switch wh.Type {
		case "slack":
			body = slackPayload(a)
		case "teams":
			body = teamsPayload(a)
		case "http":
			body = httpPayload(a)
		default:
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		err := backoff.RetryNotify(
			func() error { return e.post(url, body) },
			e.newBackOff(),
			func(err error, wait time.Duration) {
				slog.Debug("alerts: webhook retry", "type", wh.Type, "err", err, "wait", wait)
			},
		)
		if err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type,
				"rule", a.RuleName,
				"err", err,
			)
			continue
		}
		slog.Debug("alerts: webhook delivered",
			"type", wh.Type,
			"rule", a.RuleName,
			"state", a.State,
		)
	}
}

func slackPayload(a *Alert) []byte {
	body, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf("*%s* %s", severityLabel(a.Severity, a.State), a.Message),
	})
	return body
}

func teamsPayload(a *Alert) []byte {
	body, _ := json.Marshal(map[string]any{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(a.Severity, a.State),
		"summary":    a.RuleName,
		"title":      fmt.Sprintf("DecisionStack Alert: %s (%s)", a.RuleName, a.State),
		"text":       a.Message,
	})
	return body
}

func httpPayload(a *Alert) []byte {
	body, _ := json.Marshal(map[string]any{"alert": a})
	return body
}

// post sends body once. Client errors other than 429 are not retried.
func (e *Engine) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		err := fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}
	return nil
}

func severityLabel(sev, state string) string {
	if state == StateResolved {
		return "[RESOLVED]"
	}
	switch sev {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(sev, state string) string {
	if state == StateResolved {
		return "2EB67D"
	}
	switch sev {
	case "critical":
		return "FF4F6A"
	case "warning":
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
