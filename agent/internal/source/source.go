package source

import (
	"context"
	"fmt"

	"github.com/decisionstack/decisionstack/agent/internal/config"
	"github.com/decisionstack/decisionstack/pkg/dataset"
)

// Source is the common interface implemented by every dataset source.
type Source interface {
	// Fetch reads the current dataset.
	Fetch(ctx context.Context) (*dataset.Table, error)

	// Accumulates reports whether each Fetch returns a single new row that
	// the caller must append to its own history.
	Accumulates() bool
}

// New returns the appropriate Source for the given configuration.
// HTTP clients are built once and reused across fetches.
func New(src config.Source) (Source, error) {
	format, err := dataset.ParseFormat(src.Format)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", src.ID, err)
	}

	switch src.Type {
	case config.SourceFile:
		if format == "" {
			format = dataset.FormatFromPath(src.Path)
		}
		return &fileSource{src: src, format: format}, nil

	case config.SourceHTTP, config.SourcePrometheus:
		f, err := newFetcher(src)
		if err != nil {
			return nil, fmt.Errorf("source %q: build http client: %w", src.ID, err)
		}
		if src.Type == config.SourcePrometheus {
			return &promSource{src: src, fetch: f}, nil
		}
		return &httpSource{src: src, fetch: f, format: format}, nil

	default:
		return nil, fmt.Errorf("source: unsupported type %q", src.Type)
	}
}
