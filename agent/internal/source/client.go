package source

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/decisionstack/decisionstack/agent/internal/config"
)

const (
	// maxBodyBytes caps a fetched document.
	maxBodyBytes = 32 << 20

	fetchesPerSecond = 2
	fetchBurst       = 2
	maxRetryElapsed  = 30 * time.Second
)

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// retryable reports whether a request with this status may succeed later.
func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// fetcher performs rate-limited, retried GETs for one source.
type fetcher struct {
	id      string
	client  *http.Client
	limiter *rate.Limiter

	// newBackOff is injectable so tests can retry without sleeping.
	newBackOff func() backoff.BackOff
}

func newFetcher(src config.Source) (*fetcher, error) {
	client, err := buildHTTPClient(src)
	if err != nil {
		return nil, err
	}
	return &fetcher{
		id:         src.ID,
		client:     client,
		limiter:    rate.NewLimiter(rate.Limit(fetchesPerSecond), fetchBurst),
		newBackOff: defaultBackOff,
	}, nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxRetryElapsed
	return b
}

// get fetches url and returns the body and Content-Type header.
func (f *fetcher) get(ctx context.Context, url, accept string) ([]byte, string, error) {
	var body []byte
	var contentType string

	op := func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		if accept != "" {
			req.Header.Set("Accept", accept)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("http get: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			serr := &StatusError{StatusCode: resp.StatusCode}
			if !serr.retryable() {
				return backoff.Permanent(serr)
			}
			return serr
		}

		var buf bytes.Buffer
		n, err := io.Copy(&buf, io.LimitReader(resp.Body, maxBodyBytes+1))
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		if n > maxBodyBytes {
			return backoff.Permanent(fmt.Errorf("body exceeds %d bytes", maxBodyBytes))
		}
		body = buf.Bytes()
		contentType = resp.Header.Get("Content-Type")
		return nil
	}

	notify := func(err error, wait time.Duration) {
		slog.Debug("source: fetch failed, retrying", "source", f.id, "err", err, "retry_in", wait)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(f.newBackOff(), ctx), notify); err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

// authRoundTripper injects authentication headers into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.AuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "apikey":
		req = req.Clone(req.Context())
		req.Header.Set(t.auth.EffectiveHeader(), t.auth.Key())
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	case "basic":
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.auth.Username, t.auth.Password())
	}
	return t.base.RoundTrip(req)
}

// NewHTTPClient constructs an http.Client for the given auth and TLS settings.
// The shipper uses it for the server connection.
func NewHTTPClient(auth config.AuthConfig, tlsOpts config.TLSConfig, timeout time.Duration) (*http.Client, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: tlsOpts.InsecureSkipVerify, //nolint:gosec // user-configured
	}

	if auth.Mode == "mtls" {
		cert, err := tls.LoadX509KeyPair(auth.CertFile, auth.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}

		if auth.CAFile != "" {
			caPEM, err := os.ReadFile(auth.CAFile)
			if err != nil {
				return nil, fmt.Errorf("read ca file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caPEM) {
				return nil, fmt.Errorf("no valid certs found in ca file %q", auth.CAFile)
			}
			tlsCfg.RootCAs = pool
		}
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = tlsCfg
	return &http.Client{
		Transport: &authRoundTripper{base: base, auth: auth},
		Timeout:   timeout,
	}, nil
}

func buildHTTPClient(src config.Source) (*http.Client, error) {
	timeout := src.Timeout
	if timeout <= 0 {
		timeout = config.DefaultFetchTimeout
	}
	return NewHTTPClient(src.Auth, src.TLS, timeout)
}
