package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/decisionstack/decisionstack/pkg/types"
	"github.com/decisionstack/decisionstack/server/internal/config"
)

const (
	defaultCooldown   = 15 * time.Minute
	maxHistoryLen     = 200
	recentWindowHours = 1
)

// Alert states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	SourceID   string     `json:"source_id"`
	Metric     string     `json:"metric"`
	Severity   string     `json:"severity"`
	Condition  string     `json:"condition"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"`
}

type compiledRule struct {
	config.AlertRule
	cond condition
}

// Engine evaluates alert rules against incoming reports and delivers
// webhook notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	rules    []compiledRule
	webhooks []config.WebhookConfig

	mu       sync.Mutex
	active   map[string]*Alert    // key: "ruleName:sourceID"
	lastFire map[string]time.Time // last fire time per key (for cooldown)
	history  []*Alert             // recently resolved alerts

	client     *http.Client
	now        func() time.Time
	newBackOff func() backoff.BackOff
	wg         sync.WaitGroup
}

// New compiles the configured rules. An Engine with no rules is valid and
// Evaluate becomes a no-op.
func New(cfg config.AlertsConfig) (*Engine, error) {
	e := &Engine{
		webhooks: cfg.Webhooks,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = 30 * time.Second
			return backoff.WithMaxRetries(b, 4)
		},
	}
	for _, r := range cfg.Rules {
		c, err := parseCondition(r.Condition)
		if err != nil {
			return nil, fmt.Errorf("alerts: rule %q: %w", r.Name, err)
		}
		e.rules = append(e.rules, compiledRule{AlertRule: r, cond: c})
	}
	return e, nil
}

// Evaluate tests all configured rules against r. Alerts that fire are stored
// and webhook delivery happens in the background. Alerts that were firing
// but whose condition is now false are resolved. Error reports carry no
// decision and are ignored.
func (e *Engine) Evaluate(r types.Report) {
	if len(e.rules) == 0 || !r.OK() {
		return
	}

	now := e.now()
	for _, rule := range e.rules {
		key := rule.Name + ":" + r.SourceID
		fires, value := rule.cond.eval(r)

		if fires {
			if a := e.fire(key, rule, r, value, now); a != nil {
				slog.Warn("alerts: fired",
					"rule", rule.Name,
					"source", r.SourceID,
					"value", value,
					"severity", a.Severity,
				)
				e.notify(a)
			}
			continue
		}
		if a := e.resolve(key, now); a != nil {
			slog.Info("alerts: resolved", "rule", rule.Name, "source", r.SourceID)
			e.notify(a)
		}
	}
}

// fire records a firing alert unless the rule is still cooling down. It
// returns a copy of the new alert, or nil.
func (e *Engine) fire(key string, rule compiledRule, r types.Report, value float64, now time.Time) *Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, firing := e.active[key]; firing {
		return nil
	}
	cooldown := rule.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	if last, ok := e.lastFire[key]; ok && now.Sub(last) < cooldown {
		return nil
	}

	sev := rule.Severity
	if sev == "" {
		sev = "warning"
	}
	a := &Alert{
		ID:        uuid.NewString(),
		RuleName:  rule.Name,
		SourceID:  r.SourceID,
		Metric:    r.Metric,
		Severity:  sev,
		Condition: rule.Condition,
		Value:     value,
		Message: fmt.Sprintf("[%s] %s fired on %s (%s): %s, value %.2f",
			sev, rule.Name, r.SourceID, r.Metric, rule.Condition, value),
		FiredAt: now,
		State:   StateFiring,
	}
	e.active[key] = a
	e.lastFire[key] = now
	cp := *a
	return &cp
}

// resolve moves a firing alert into history. It returns a copy, or nil when
// nothing was firing under key.
func (e *Engine) resolve(key string, now time.Time) *Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.active[key]
	if !ok {
		return nil
	}
	resolved := now
	a.State = StateResolved
	a.ResolvedAt = &resolved
	delete(e.active, key)

	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	cp := *a
	return &cp
}

func (e *Engine) notify(a *Alert) {
	if len(e.webhooks) == 0 {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.deliver(a)
	}()
}

// Wait blocks until all in-flight webhook deliveries have finished.
func (e *Engine) Wait() { e.wg.Wait() }

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour, sorted newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindowHours * time.Hour)
	out := make([]*Alert, 0, len(e.active))

	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}

// Firing returns the number of alerts currently firing.
func (e *Engine) Firing() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}
