package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/decisionstack/decisionstack/agent/internal/config"
	"github.com/decisionstack/decisionstack/agent/internal/source"
	"github.com/decisionstack/decisionstack/pkg/dataset"
	"github.com/decisionstack/decisionstack/pkg/engine"
	"github.com/decisionstack/decisionstack/pkg/types"
)

// Reporter receives every report the monitor produces.
type Reporter interface {
	Ship(types.Report)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(types.Report)

func (f ReporterFunc) Ship(r types.Report) { f(r) }

// Monitor maintains per-source state across evaluation cycles.
//
// All exported methods are safe for concurrent use.
type Monitor struct {
	out Reporter

	// newSource is injectable for tests.
	newSource func(config.Source) (source.Source, error)

	mu      sync.Mutex
	cfg     config.AgentConfig
	order   []string
	sources map[string]*sourceState
	reload  chan struct{}
}

// sourceState holds one configured source and, for accumulating sources,
// its row history.
type sourceState struct {
	cfg     config.Source
	src     source.Source
	history *dataset.Table
}

// New builds a Monitor for cfg. Sources that fail to build are logged and
// skipped.
func New(cfg config.AgentConfig, out Reporter) *Monitor {
	return newMonitor(cfg, out, source.New)
}

func newMonitor(cfg config.AgentConfig, out Reporter, factory func(config.Source) (source.Source, error)) *Monitor {
	m := &Monitor{
		out:       out,
		newSource: factory,
		sources:   make(map[string]*sourceState),
		reload:    make(chan struct{}, 1),
	}
	m.apply(cfg)
	return m
}

// Reload swaps the source set. History is kept for sources whose ID, type
// and location are unchanged.
func (m *Monitor) Reload(cfg config.AgentConfig) {
	m.apply(cfg)
	select {
	case m.reload <- struct{}{}:
	default:
	}
}

func (m *Monitor) apply(cfg config.AgentConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make(map[string]*sourceState, len(cfg.Sources))
	order := make([]string, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		src, err := m.newSource(sc)
		if err != nil {
			slog.Error("monitor: skipping source, could not build it", "source", sc.ID, "err", err)
			continue
		}
		st := &sourceState{cfg: sc, src: src}
		if prev, ok := m.sources[sc.ID]; ok && sameOrigin(prev.cfg, sc) {
			st.history = prev.history
		}
		if st.history != nil {
			st.history.Truncate(cfg.HistorySize)
		}
		next[sc.ID] = st
		order = append(order, sc.ID)
		slog.Info("monitor: registered source", "id", sc.ID, "type", sc.Type, "location", sc.Location())
	}
	if len(order) == 0 {
		slog.Warn("monitor: no sources configured, agent will idle")
	}

	m.cfg = cfg
	m.sources = next
	m.order = order
}

func sameOrigin(a, b config.Source) bool {
	return a.Type == b.Type && a.Location() == b.Location()
}

// Sources returns the IDs of the active sources in config order.
func (m *Monitor) Sources() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Process evaluates one fetched table for sourceID and returns the report.
// For accumulating sources tbl is appended to the source history first.
// Evaluation failures yield an error report rather than an error.
func (m *Monitor) Process(sourceID string, tbl *dataset.Table, now time.Time) types.Report {
	m.mu.Lock()
	cfg := m.cfg
	st, ok := m.sources[sourceID]
	if !ok {
		st = &sourceState{cfg: config.Source{ID: sourceID}}
	}
	data := tbl
	if ok && st.src.Accumulates() {
		if st.history == nil {
			st.history = dataset.New(sourceID, nil)
		}
		st.history.Append(tbl)
		st.history.Truncate(cfg.HistorySize)
		data = st.history.Tail(cfg.HistorySize)
	}
	m.mu.Unlock()

	meta := types.Meta{
		SourceID:      sourceID,
		SourceType:    st.cfg.Type,
		Title:         data.Title(),
		IncludeSeries: cfg.IncludeSeries,
	}

	res, err := engine.EvaluateDataset(data, st.cfg.Metric, cfg.Scenario)
	if err != nil {
		slog.Warn("monitor: evaluation failed", "source", sourceID, "rows", data.Len(), "err", err)
		return types.ErrorReport(meta, err, now)
	}

	slog.Debug("monitor: evaluated",
		"source", sourceID,
		"metric", res.Metric,
		"score", res.Decision.Score,
		"priority", res.Decision.Priority,
		"sim_priority", res.Scenario.SimPriority,
	)
	return types.NewReport(meta, res, now)
}

// Evaluate fetches and processes every source once, shipping each report.
func (m *Monitor) Evaluate(ctx context.Context, now time.Time) []types.Report {
	m.mu.Lock()
	states := make([]*sourceState, 0, len(m.order))
	for _, id := range m.order {
		states = append(states, m.sources[id])
	}
	m.mu.Unlock()

	reports := make([]types.Report, 0, len(states))
	for _, st := range states {
		if ctx.Err() != nil {
			break
		}
		r := m.fetchAndProcess(ctx, st, now)
		m.out.Ship(r)
		reports = append(reports, r)
	}
	return reports
}

func (m *Monitor) fetchAndProcess(ctx context.Context, st *sourceState, now time.Time) types.Report {
	tbl, err := st.src.Fetch(ctx)
	if err != nil {
		slog.Warn("monitor: fetch failed", "source", st.cfg.ID, "err", err)
		return types.ErrorReport(types.Meta{SourceID: st.cfg.ID, SourceType: st.cfg.Type}, err, now)
	}
	return m.Process(st.cfg.ID, tbl, now)
}

// Run evaluates immediately and then every evaluate interval until ctx is
// cancelled. A Reload restarts the interval.
func (m *Monitor) Run(ctx context.Context) {
	for {
		m.Evaluate(ctx, time.Now())

		m.mu.Lock()
		interval := m.cfg.EvaluateInterval
		m.mu.Unlock()

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-m.reload:
			timer.Stop()
		case <-timer.C:
		}
	}
}
