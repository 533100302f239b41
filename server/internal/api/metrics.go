package api

import (
	"bytes"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/decisionstack/decisionstack/pkg/engine"
	"github.com/decisionstack/decisionstack/pkg/types"
	"github.com/decisionstack/decisionstack/server/internal/store"
)

// gauge describes one per-report gauge family.
type gauge struct {
	name  string
	help  string
	value func(types.Report) float64
}

var reportGauges = []gauge{
	{"decision_readiness_score", "Readiness score in [0, 100].", func(r types.Report) float64 { return float64(r.Score) }},
	{"decision_priority", "Current priority rank: 1=Low, 2=Medium, 3=High.", func(r types.Report) float64 { return rank(r.Priority) }},
	{"decision_simulated_priority", "Priority rank under the what-if scenario.", func(r types.Report) float64 { return rank(r.Scenario.SimPriority) }},
	{"decision_confidence", "Confidence rank: 1=Low, 2=Medium, 3=High.", func(r types.Report) float64 { return rank(r.Confidence) }},
	{"decision_stability", "Stability rank: 1=Low, 2=Medium, 3=High.", func(r types.Report) float64 { return rank(r.Stability) }},
	{"decision_change_ratio", "Relative change of the recent mean against the baseline mean.", func(r types.Report) float64 { return r.Signals.ChangeRatio }},
	{"decision_variability_ratio", "Recent standard deviation over baseline standard deviation.", func(r types.Report) float64 { return r.Signals.VariabilityRatio }},
	{"decision_trend_consistency", "Net directional agreement of step signs in [0, 1].", func(r types.Report) float64 { return r.Signals.TrendConsistency }},
	{"decision_records", "Values evaluated for the metric.", func(r types.Report) float64 { return float64(r.TotalRecords) }},
}

func rank(level string) float64 { return float64(engine.Level(level).Rank()) }

// metrics serves GET /metrics in the Prometheus text exposition format.
func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var buf bytes.Buffer
	for _, mf := range gatherFamilies(h.store, h.opts.Alerts) {
		if len(mf.Metric) == 0 {
			continue // the text encoder rejects empty families
		}
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			jsonErr(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// gatherFamilies builds one gauge family per report field plus server-level
// counts. Error reports only show up in decision_report_errors.
func gatherFamilies(st *store.Store, al AlertSource) []*dto.MetricFamily {
	entries := st.List()

	families := make([]*dto.MetricFamily, 0, len(reportGauges)+3)
	for _, g := range reportGauges {
		mf := newGaugeFamily(g.name, g.help)
		for _, e := range entries {
			if !e.Report.OK() {
				continue
			}
			mf.Metric = append(mf.Metric, gaugeMetric(g.value(e.Report),
				"source", e.Report.SourceID,
				"metric", e.Report.Metric,
			))
		}
		families = append(families, mf)
	}

	errs := newGaugeFamily("decision_report_errors", "1 when the latest report for a source is an error.")
	for _, e := range entries {
		v := 0.0
		if !e.Report.OK() {
			v = 1
		}
		errs.Metric = append(errs.Metric, gaugeMetric(v, "source", e.Report.SourceID))
	}
	families = append(families, errs)

	sources := newGaugeFamily("decision_sources", "Sources with a live report.")
	sources.Metric = append(sources.Metric, gaugeMetric(float64(len(entries))))
	families = append(families, sources)

	if al != nil {
		firing := newGaugeFamily("decision_alerts_firing", "Alerts currently firing.")
		firing.Metric = append(firing.Metric, gaugeMetric(float64(al.Firing())))
		families = append(families, firing)
	}
	return families
}

func newGaugeFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

// gaugeMetric builds a gauge sample; labels are name/value pairs.
func gaugeMetric(v float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: proto.Float64(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  proto.String(labels[i]),
			Value: proto.String(labels[i+1]),
		})
	}
	return m
}
