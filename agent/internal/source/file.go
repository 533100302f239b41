package source

import (
	"context"
	"fmt"
	"os"

	"github.com/decisionstack/decisionstack/agent/internal/config"
	"github.com/decisionstack/decisionstack/pkg/dataset"
)

type fileSource struct {
	src    config.Source
	format dataset.Format
}

// Fetch re-reads the file on every call so edits show up on the next cycle.
func (s *fileSource) Fetch(ctx context.Context) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.src.Path)
	if err != nil {
		return nil, fmt.Errorf("file source %q: %w", s.src.ID, err)
	}
	defer f.Close()

	t, err := dataset.Parse(f, s.format, s.src.Path)
	if err != nil {
		return nil, fmt.Errorf("file source %q: %w", s.src.ID, err)
	}
	return t, nil
}

func (s *fileSource) Accumulates() bool { return false }
