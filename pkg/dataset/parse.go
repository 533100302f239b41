package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"gopkg.in/yaml.v3"
)

// Format names an input encoding.
type Format string

const (
	FormatCSV        Format = "csv"
	FormatJSON       Format = "json"
	FormatYAML       Format = "yaml"
	FormatPrometheus Format = "prometheus"
)

// ErrUnsupportedFormat is returned for formats Parse does not know.
var ErrUnsupportedFormat = errors.New("dataset: unsupported format")

// ParseFormat validates a format name. Empty input returns "" so callers
// can fall back to FormatFromPath.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatCSV, FormatJSON, FormatYAML, FormatPrometheus:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "prom":
		return FormatPrometheus, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath guesses the format from a file extension, defaulting to CSV.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".prom", ".metrics":
		return FormatPrometheus
	default:
		return FormatCSV
	}
}

// FormatFromContentType maps well-known media types to a format. Unknown or
// generic types return "".
func FormatFromContentType(ct string) Format {
	mt, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	switch mt {
	case "text/csv", "application/csv":
		return FormatCSV
	case "application/json":
		return FormatJSON
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return FormatYAML
	case "text/plain":
		if params["version"] == "0.0.4" {
			return FormatPrometheus
		}
	}
	return ""
}

// Parse reads r in the given format into a table called name.
func Parse(r io.Reader, format Format, name string) (*Table, error) {
	switch format {
	case FormatCSV, "":
		return ParseCSV(r, name)
	case FormatJSON:
		return ParseJSON(r, name)
	case FormatYAML:
		return ParseYAML(r, name)
	case FormatPrometheus:
		return ParsePrometheus(r, name)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ParseCSV reads a CSV document whose first record is the header. Ragged
// rows are allowed: missing trailing fields are missing values and extra
// fields are ignored.
func ParseCSV(r io.Reader, name string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("dataset: parse csv %q: missing header row", name)
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: parse csv %q: %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := New(name, header)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: parse csv %q: %w", name, err)
		}
		cells := make([]cell, 0, len(rec))
		for _, raw := range rec {
			cells = append(cells, parseCell(raw))
		}
		t.appendCells(cells)
	}
	return t, nil
}

// ParseJSON reads an array of flat objects. Key order of first appearance
// defines column order. Numbers are numeric, null is missing, strings are
// parsed like CSV fields and anything else is text.
func ParseJSON(r io.Reader, name string) (*Table, error) {
	var records []json.RawMessage
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("dataset: parse json %q: %w", name, err)
	}

	t := New(name, nil)
	for i, raw := range records {
		keys, values, err := orderedObject(raw)
		if err != nil {
			return nil, fmt.Errorf("dataset: parse json %q: record %d: %w", name, i, err)
		}
		t.appendRecord(keys, values)
	}
	return t, nil
}

// orderedObject decodes one JSON object keeping key order.
func orderedObject(raw json.RawMessage) ([]string, []cell, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	var cells []cell
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := kt.(string)

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		cells = append(cells, jsonCell(v))
	}
	return keys, cells, nil
}

func jsonCell(v any) cell {
	switch x := v.(type) {
	case nil:
		return cell{}
	case json.Number:
		return parseCell(x.String())
	case string:
		return parseCell(x)
	default:
		return cell{kind: text}
	}
}

// ParseYAML reads a sequence of flat mappings, with the same column rules
// as ParseJSON.
func ParseYAML(r io.Reader, name string) (*Table, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return New(name, nil), nil
		}
		return nil, fmt.Errorf("dataset: parse yaml %q: %w", name, err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("dataset: parse yaml %q: expected a sequence of records", name)
	}

	t := New(name, nil)
	for i, rec := range root.Content {
		if rec.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("dataset: parse yaml %q: record %d is not a mapping", name, i)
		}
		keys := make([]string, 0, len(rec.Content)/2)
		cells := make([]cell, 0, len(rec.Content)/2)
		for j := 0; j+1 < len(rec.Content); j += 2 {
			keys = append(keys, rec.Content[j].Value)
			cells = append(cells, yamlCell(rec.Content[j+1]))
		}
		t.appendRecord(keys, cells)
	}
	return t, nil
}

func yamlCell(n *yaml.Node) cell {
	if n.Kind != yaml.ScalarNode {
		return cell{kind: text}
	}
	switch n.Tag {
	case "!!null":
		return cell{}
	case "!!int", "!!float", "!!str":
		return parseCell(n.Value)
	default:
		return cell{kind: text}
	}
}

// appendRecord adds a row from parallel key/value slices, creating columns
// on first sight.
func (t *Table) appendRecord(keys []string, cells []cell) {
	row := make([]cell, len(t.columns), len(t.columns)+len(keys))
	for i, k := range keys {
		idx, ok := t.index[k]
		if !ok {
			idx = t.addColumn(k)
			row = append(row, cell{})
		}
		row[idx] = cells[i]
	}
	t.rows = append(t.rows, row)
}

// ParsePrometheus reads a Prometheus text exposition into a one-row table,
// one column per metric family holding the sum of its samples. Families
// with no counter, gauge or untyped samples are omitted.
func ParsePrometheus(r io.Reader, name string) (*Table, error) {
	mfs, err := parseMetrics(r)
	if err != nil {
		return nil, fmt.Errorf("dataset: parse prometheus %q: %w", name, err)
	}
	row := sample(mfs)
	if len(row) == 0 {
		return nil, fmt.Errorf("dataset: parse prometheus %q: no counter, gauge or untyped samples", name)
	}
	t := New(name, nil)
	t.AppendRow(row)
	return t, nil
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, err
	}
	return mfs, nil
}

// sample flattens metric families into one numeric row keyed by family name.
func sample(mfs map[string]*dto.MetricFamily) map[string]float64 {
	row := make(map[string]float64, len(mfs))
	for name, mf := range mfs {
		if v, ok := sumFamily(mf); ok {
			row[name] = v
		}
	}
	return row
}

// sumFamily adds up all counter, gauge, or untyped values in a MetricFamily.
func sumFamily(mf *dto.MetricFamily) (float64, bool) {
	if mf == nil {
		return 0, false
	}
	var total float64
	var seen bool
	for _, m := range mf.GetMetric() {
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		default:
			continue
		}
		seen = true
	}
	return total, seen
}
