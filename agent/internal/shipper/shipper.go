package shipper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/decisionstack/decisionstack/agent/internal/config"
	"github.com/decisionstack/decisionstack/agent/internal/source"
	"github.com/decisionstack/decisionstack/pkg/types"
)

const (
	// ReportsPath is the server endpoint that accepts report batches.
	ReportsPath = "/api/v1/reports"

	sendTimeout     = 10 * time.Second
	maxRetryElapsed = time.Minute
)

// Shipper buffers reports and ships them to decisionstack-server over HTTP.
// Ship() is non-blocking; when the buffer is full the oldest report is evicted.
// Run() must be called in a goroutine to drain the buffer.
type Shipper struct {
	cfg    config.AgentConfig
	url    string
	buf    chan types.Report
	client *http.Client

	// newBackOff is injectable so tests can retry without sleeping.
	newBackOff func() backoff.BackOff
}

// New creates a Shipper using the given agent config.
func New(cfg config.AgentConfig) (*Shipper, error) {
	if cfg.ServerEndpoint == "" {
		return nil, fmt.Errorf("shipper: server_endpoint is required")
	}
	client, err := source.NewHTTPClient(cfg.ServerAuth, cfg.ServerTLS, sendTimeout)
	if err != nil {
		return nil, fmt.Errorf("shipper: build http client: %w", err)
	}
	return &Shipper{
		cfg:        cfg,
		url:        strings.TrimRight(cfg.ServerEndpoint, "/") + ReportsPath,
		buf:        make(chan types.Report, cfg.BufferSize),
		client:     client,
		newBackOff: defaultBackOff,
	}, nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxRetryElapsed
	return b
}

// Ship enqueues a report. If the buffer is full the oldest entry is evicted
// to make room.
func (s *Shipper) Ship(r types.Report) {
	select {
	case s.buf <- r:
	default:
		select {
		case old := <-s.buf:
			slog.Warn("shipper: buffer full, evicted oldest report",
				"source", old.SourceID, "buffer_cap", cap(s.buf))
		default:
		}
		select {
		case s.buf <- r:
		default:
		}
	}
}

// Pending returns the number of buffered reports.
func (s *Shipper) Pending() int { return len(s.buf) }

// Run flushes the buffer every ship interval until ctx is cancelled.
func (s *Shipper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ShipInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil && ctx.Err() == nil {
				slog.Error("shipper: flush failed", "endpoint", s.url, "err", err)
			}
		}
	}
}

// Flush sends every buffered report in one batch. On a transient failure the
// batch is re-queued; permanent rejections are discarded. A report that cannot
// be encoded is dropped on its own.
func (s *Shipper) Flush(ctx context.Context) error {
	batch, body, err := encodeBatch(s.drain())
	if err != nil {
		return fmt.Errorf("shipper: encode batch: %w", err)
	}
	if len(batch) == 0 {
		return nil
	}

	op := func() error { return s.send(ctx, body) }
	notify := func(err error, wait time.Duration) {
		slog.Warn("shipper: send failed, will retry", "endpoint", s.url, "err", err, "retry_in", wait)
	}

	err = backoff.RetryNotify(op, backoff.WithContext(s.newBackOff(), ctx), notify)
	switch {
	case err == nil:
		slog.Debug("shipper: batch delivered", "reports", len(batch))
		return nil
	case isPermanent(err):
		slog.Error("shipper: server rejected batch, discarding", "reports", len(batch), "err", err)
		return err
	default:
		for _, r := range batch {
			s.Ship(r)
		}
		return fmt.Errorf("shipper: send batch of %d: %w", len(batch), err)
	}
}

// encodeBatch marshals reports one at a time and returns the ones that made
// it into body.
func encodeBatch(reports []types.Report) ([]types.Report, []byte, error) {
	kept := reports[:0]
	raw := make([]json.RawMessage, 0, len(reports))
	for _, r := range reports {
		b, err := json.Marshal(r)
		if err != nil {
			slog.Error("shipper: dropping report that cannot be encoded",
				"source", r.SourceID, "id", r.ID, "err", err)
			continue
		}
		kept = append(kept, r)
		raw = append(raw, b)
	}
	if len(kept) == 0 {
		return nil, nil, nil
	}
	body, err := json.Marshal(struct {
		Reports []json.RawMessage `json:"reports"`
	}{raw})
	return kept, body, err
}

// drain takes every report currently buffered without blocking.
func (s *Shipper) drain() []types.Report {
	var out []types.Report
	for {
		select {
		case r := <-s.buf:
			out = append(out, r)
		default:
			return out
		}
	}
}

// rejectedError is a 4xx response other than 429.
type rejectedError struct {
	status int
	msg    string
}

func (e *rejectedError) Error() string {
	return fmt.Sprintf("server rejected batch: %d %s", e.status, e.msg)
}

func isPermanent(err error) bool {
	var rerr *rejectedError
	return errors.As(err, &rerr)
}

func (s *Shipper) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return backoff.Permanent(&rejectedError{status: resp.StatusCode, msg: strings.TrimSpace(string(msg))})
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}
