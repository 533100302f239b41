package dataset

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrUnknownColumn is returned by Column for a name not in the table.
	ErrUnknownColumn = errors.New("dataset: unknown column")

	// ErrNotNumeric is returned by Column for a column holding text.
	ErrNotNumeric = errors.New("dataset: column is not numeric")
)

type kind uint8

const (
	missing kind = iota
	number
	text
)

type cell struct {
	kind kind
	num  float64
}

// Table is a parsed dataset: named columns over rows of cells.
type Table struct {
	// Name is the source name (usually a file name), used for Title.
	Name string

	columns []string
	index   map[string]int
	rows    [][]cell
}

// New returns an empty table with the given columns. Duplicate or blank
// column names are renamed ("a", "a.1", "Unnamed: 2").
func New(name string, columns []string) *Table {
	t := &Table{Name: name, index: make(map[string]int)}
	for i, c := range columns {
		t.addColumn(uniqueName(t.index, c, i))
	}
	return t
}

func uniqueName(taken map[string]int, name string, pos int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Unnamed: %d", pos)
	}
	if _, dup := taken[name]; !dup {
		return name
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s.%d", name, n)
		if _, dup := taken[candidate]; !dup {
			return candidate
		}
	}
}

func (t *Table) addColumn(name string) int {
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], cell{})
	}
	return t.index[name]
}

// Columns returns all column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// appendCells adds a row; short rows are padded with missing cells.
func (t *Table) appendCells(cells []cell) {
	row := make([]cell, len(t.columns))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// AppendRow adds a row of numeric values keyed by column name. Columns not
// yet in the table are added, with missing values in earlier rows.
func (t *Table) AppendRow(values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	row := make([]cell, len(t.columns), len(t.columns)+len(values))
	for _, name := range names {
		idx, ok := t.index[name]
		if !ok {
			idx = t.addColumn(name)
			row = append(row, cell{})
		}
		row[idx] = numberCell(values[name])
	}
	t.rows = append(t.rows, row)
}

// Append adds every row of other, matching columns by name. Columns only
// in other are added to t.
func (t *Table) Append(other *Table) {
	for _, src := range other.rows {
		row := make([]cell, len(t.columns), len(t.columns)+len(other.columns))
		for j, name := range other.columns {
			idx, ok := t.index[name]
			if !ok {
				idx = t.addColumn(name)
				row = append(row, cell{})
			}
			row[idx] = src[j]
		}
		t.rows = append(t.rows, row)
	}
}

// Truncate drops the oldest rows so at most n remain.
func (t *Table) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if drop := len(t.rows) - n; drop > 0 {
		t.rows = append(t.rows[:0:0], t.rows[drop:]...)
	}
}

// Tail returns a copy of the table holding at most the last n rows.
func (t *Table) Tail(n int) *Table {
	if n < 0 {
		n = 0
	}
	start := len(t.rows) - n
	if start < 0 {
		start = 0
	}
	out := &Table{
		Name:    t.Name,
		columns: t.Columns(),
		index:   make(map[string]int, len(t.index)),
		rows:    make([][]cell, 0, len(t.rows)-start),
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	for _, r := range t.rows[start:] {
		row := make([]cell, len(r))
		copy(row, r)
		out.rows = append(out.rows, row)
	}
	return out
}

// NumericColumns lists columns with no text values, in table order.
// A column whose values are all missing counts as numeric.
func (t *Table) NumericColumns() []string {
	var out []string
	for i, name := range t.columns {
		if t.numeric(i) {
			out = append(out, name)
		}
	}
	return out
}

func (t *Table) numeric(col int) bool {
	for _, r := range t.rows {
		if r[col].kind == text {
			return false
		}
	}
	return true
}

// Column returns the named numeric column in row order with missing values
// removed. The result is never nil.
func (t *Table) Column(name string) ([]float64, error) {
	idx, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if !t.numeric(idx) {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, name)
	}
	out := make([]float64, 0, len(t.rows))
	for _, r := range t.rows {
		if r[idx].kind == number {
			out = append(out, r[idx].num)
		}
	}
	return out, nil
}

// Title derives a display title from the table name: the base name without
// extension, with '_' and '-' turned into spaces, title-cased.
func (t *Table) Title() string {
	return Title(t.Name)
}

// Title is the free-function form of Table.Title.
func Title(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return cases.Title(language.English).String(base)
}

// missingMarkers are the textual spellings treated as missing values.
var missingMarkers = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"-nan": {},
	"null": {},
	"none": {},
	"#n/a": {},
	"<na>": {},
}

// parseCell classifies a raw textual value.
func parseCell(raw string) cell {
	s := strings.TrimSpace(raw)
	if _, ok := missingMarkers[strings.ToLower(s)]; ok {
		return cell{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return cell{kind: text}
	}
	return numberCell(v)
}

// numberCell drops non-finite values to missing.
func numberCell(v float64) cell {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return cell{}
	}
	return cell{kind: number, num: v}
}
