package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/prometheus/common/expfmt"

	"github.com/decisionstack/decisionstack/agent/internal/config"
	"github.com/decisionstack/decisionstack/pkg/dataset"
)

type httpSource struct {
	src    config.Source
	fetch  *fetcher
	format dataset.Format
}

// Fetch downloads the document and parses it in the configured format, or
// the one implied by the response Content-Type or URL path.
func (s *httpSource) Fetch(ctx context.Context) (*dataset.Table, error) {
	body, contentType, err := s.fetch.get(ctx, s.src.Endpoint, "")
	if err != nil {
		return nil, fmt.Errorf("http source %q: %w", s.src.ID, err)
	}

	format := s.format
	if format == "" {
		format = dataset.FormatFromContentType(contentType)
	}
	if format == "" {
		format = dataset.FormatFromPath(urlPath(s.src.Endpoint))
	}

	t, err := dataset.Parse(bytes.NewReader(body), format, urlPath(s.src.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("http source %q: %w", s.src.ID, err)
	}
	return t, nil
}

func (s *httpSource) Accumulates() bool { return false }

type promSource struct {
	src   config.Source
	fetch *fetcher
}

// Fetch scrapes the exposition endpoint into a one-row table.
func (s *promSource) Fetch(ctx context.Context) (*dataset.Table, error) {
	accept := string(expfmt.NewFormat(expfmt.TypeTextPlain))
	body, _, err := s.fetch.get(ctx, s.src.Endpoint, accept)
	if err != nil {
		return nil, fmt.Errorf("prometheus source %q: %w", s.src.ID, err)
	}
	t, err := dataset.ParsePrometheus(bytes.NewReader(body), s.src.ID)
	if err != nil {
		return nil, fmt.Errorf("prometheus source %q: %w", s.src.ID, err)
	}
	return t, nil
}

func (s *promSource) Accumulates() bool { return true }

func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return raw
	}
	return u.Path
}
