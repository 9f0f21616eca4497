package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"git.home.luguber.info/inful/rosterwatch/internal/config"
	"git.home.luguber.info/inful/rosterwatch/internal/foundation/errors"
	"git.home.luguber.info/inful/rosterwatch/internal/retry"
)

// MaxWebhookContent is the per-message character limit of Discord webhooks.
const MaxWebhookContent = 2000

// WebhookSink posts batches to a Discord-compatible webhook.
type WebhookSink struct {
	httpClient *http.Client
	url        string
	username   string
	timeout    time.Duration
	userAgent  string

	// progress tracks chunks of the last partially delivered batch so a
	// redelivery resumes after the last accepted chunk.
	mu       sync.Mutex
	progress webhookProgress
}

type webhookProgress struct {
	batchID string
	sent    int
}

// NewWebhookSink creates a sink for cfg. A nil httpClient uses a fresh http.Client.
func NewWebhookSink(httpClient *http.Client, cfg *config.WebhookConfig) *WebhookSink {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultNotifyTimeout
	}
	return &WebhookSink{
		httpClient: httpClient,
		url:        cfg.Endpoint(),
		username:   cfg.Username,
		timeout:    timeout,
		userAgent:  config.DefaultUserAgent,
	}
}

func (s *WebhookSink) Name() string { return "webhook" }

type webhookPayload struct {
	Content  string `json:"content"`
	Username string `json:"username,omitempty"`
}

// Send posts the batch content, split into several messages when it exceeds
// MaxWebhookContent. Sending the same batch again after a partial failure
// skips the chunks the webhook already accepted.
func (s *WebhookSink) Send(ctx context.Context, b Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if s.progress.batchID == b.ID {
		start = s.progress.sent
	}
	chunks := SplitContent(b.Content, MaxWebhookContent)
	for i := start; i < len(chunks); i++ {
		if err := s.post(ctx, chunks[i]); err != nil {
			s.progress = webhookProgress{batchID: b.ID, sent: i}
			if ce, ok := errors.AsClassified(err); ok {
				return ce.WithContext("batch_id", b.ID).WithContext("part", i+1)
			}
			return err
		}
	}
	s.progress = webhookProgress{}
	return nil
}

func (s *WebhookSink) post(ctx context.Context, content string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(webhookPayload{Content: content, Username: s.username})
	if err != nil {
		return errors.InternalError("failed to marshal webhook payload").WithCause(err).Build()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return errors.ConfigError("failed to create webhook request").WithCause(err).Build()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.NotifyError("failed to post webhook").WithCause(err).Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	bodyStr := strings.ReplaceAll(string(limitedBody), "\n", " ")
	b := errors.NotifyError(fmt.Sprintf("webhook rejected message: %s", resp.Status)).
		WithContext("status", resp.Status).
		WithContext("code", resp.StatusCode).
		WithContext("response", bodyStr)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		b = b.RateLimit().WithContext(retry.RetryAfterKey, parseRetryAfter(resp.Header, limitedBody))
	case resp.StatusCode >= 500:
		b = b.Retryable()
	default:
		b = b.UserAction().Fatal()
	}
	return b.Build()
}

// parseRetryAfter reads the wait advertised by a 429 response, preferring the
// Retry-After header and falling back to Discord's JSON retry_after field.
func parseRetryAfter(h http.Header, body []byte) time.Duration {
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	var payload struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.RetryAfter > 0 {
		return time.Duration(payload.RetryAfter * float64(time.Second))
	}
	return 0
}

// SplitContent breaks content into pieces of at most limit characters,
// cutting on line boundaries where possible. A single line longer than limit
// is cut mid-line.
func SplitContent(content string, limit int) []string {
	if utf8.RuneCountInString(content) <= limit {
		return []string{content}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.Split(content, "\n") {
		for utf8.RuneCountInString(line) > limit {
			flush()
			r := []rune(line)
			chunks = append(chunks, string(r[:limit]))
			line = string(r[limit:])
		}
		n := utf8.RuneCountInString(line)
		sep := 0
		if curLen > 0 {
			sep = 1
		}
		if curLen+sep+n > limit {
			flush()
			sep = 0
		}
		if sep == 1 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
		curLen += sep + n
	}
	flush()
	return chunks
}
