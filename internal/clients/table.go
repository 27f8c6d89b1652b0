package clients

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/clientdesk/internal/api"
)

// DateLayout renders dates as dd/mm/yyyy.
const DateLayout = "02/01/2006"

// Column keys.
const (
	ColName  = "name"
	ColPanel = "panel"
	ColStart = "start"
	ColEnd   = "end"
)

// Column describes one rendered field of a record.
type Column struct {
	Key    string
	Header string
	Cell   func(api.ClientRecord) string

	// less orders two records by the underlying value, not the cell text.
	less func(a, b api.ClientRecord) bool
}

// FormatDate renders ts as dd/mm/yyyy. The zero timestamp is empty. A
// nil loc keeps the timestamp's own zone.
func FormatDate(ts api.Timestamp, loc *time.Location) string {
	if ts.IsZero() {
		return ""
	}
	t := ts.Time
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}

// DefaultColumns returns Name, Panel, Effective Start and Effective End.
func DefaultColumns(loc *time.Location) []Column {
	return []Column{
		{
			Key:    ColName,
			Header: "Name",
			Cell:   func(r api.ClientRecord) string { return r.Name },
			less:   func(a, b api.ClientRecord) bool { return lessFold(a.Name, b.Name) },
		},
		{
			Key:    ColPanel,
			Header: "Panel",
			Cell:   func(r api.ClientRecord) string { return r.PanelName },
			less:   func(a, b api.ClientRecord) bool { return lessFold(a.PanelName, b.PanelName) },
		},
		{
			Key:    ColStart,
			Header: "Effective Start",
			Cell:   func(r api.ClientRecord) string { return FormatDate(r.EffectiveStartAt, loc) },
			less:   func(a, b api.ClientRecord) bool { return a.EffectiveStartAt.Before(b.EffectiveStartAt.Time) },
		},
		{
			Key:    ColEnd,
			Header: "Effective End",
			Cell:   func(r api.ClientRecord) string { return FormatDate(r.EffectiveEndAt, loc) },
			less:   func(a, b api.ClientRecord) bool { return a.EffectiveEndAt.Before(b.EffectiveEndAt.Time) },
		},
	}
}

// ColumnKeys lists the keys of cols, for flag help and errors.
func ColumnKeys(cols []Column) []string {
	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.Key
	}
	return keys
}

func lessFold(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

// Table is a sorted, filtered view over a slice of records. The records
// passed to NewTable are never modified.
type Table struct {
	columns []Column
	source  []api.ClientRecord

	sortKey string
	desc    bool
	query   string
}

// NewTable creates a view in source order.
func NewTable(records []api.ClientRecord, columns []Column) *Table {
	return &Table{columns: columns, source: records}
}

// Columns returns the table's columns.
func (t *Table) Columns() []Column { return t.columns }

// Headers returns the column headers.
func (t *Table) Headers() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Header
	}
	return out
}

// SortBy orders by key. Sorting again by the same key flips direction.
func (t *Table) SortBy(key string) error {
	if t.column(key) == nil {
		return fmt.Errorf("unknown column %q (available: %s)", key, strings.Join(ColumnKeys(t.columns), ", "))
	}
	if t.sortKey == key {
		t.desc = !t.desc
		return nil
	}
	t.sortKey = key
	t.desc = false
	return nil
}

// SetSort sets key and direction explicitly. An empty key restores source order.
func (t *Table) SetSort(key string, desc bool) error {
	if key != "" && t.column(key) == nil {
		return fmt.Errorf("unknown column %q (available: %s)", key, strings.Join(ColumnKeys(t.columns), ", "))
	}
	t.sortKey = key
	t.desc = desc
	return nil
}

// Sort reports the active sort key and direction.
func (t *Table) Sort() (key string, desc bool) { return t.sortKey, t.desc }

// Filter keeps records where any cell contains query, ignoring case.
func (t *Table) Filter(query string) { t.query = strings.TrimSpace(query) }

// Query returns the active filter.
func (t *Table) Query() string { return t.query }

// Len is the total number of records, before filtering.
func (t *Table) Len() int { return len(t.source) }

// Records returns the visible records in display order.
func (t *Table) Records() []api.ClientRecord {
	out := make([]api.ClientRecord, 0, len(t.source))
	needle := strings.ToLower(t.query)
	for _, r := range t.source {
		if needle == "" || t.matches(r, needle) {
			out = append(out, r)
		}
	}

	if col := t.column(t.sortKey); col != nil && col.less != nil {
		sort.SliceStable(out, func(i, j int) bool {
			if t.desc {
				return col.less(out[j], out[i])
			}
			return col.less(out[i], out[j])
		})
	}
	return out
}

// Rows returns the formatted cells of the visible records.
func (t *Table) Rows() [][]string {
	records := t.Records()
	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(t.columns))
		for j, c := range t.columns {
			row[j] = c.Cell(r)
		}
		rows[i] = row
	}
	return rows
}

func (t *Table) matches(r api.ClientRecord, needle string) bool {
	for _, c := range t.columns {
		if strings.Contains(strings.ToLower(c.Cell(r)), needle) {
			return true
		}
	}
	return false
}

func (t *Table) column(key string) *Column {
	for i := range t.columns {
		if t.columns[i].Key == key {
			return &t.columns[i]
		}
	}
	return nil
}
