package domain

import (
	"fmt"
	"sort"
	"time"
)

// dayFormat is the canonical key for a day-resolution date.
const dayFormat = "2006-01-02"

// Day truncates a timestamp to midnight UTC. All series and records in this
// package are keyed at day resolution.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey formats a date as its canonical YYYY-MM-DD key.
func DayKey(t time.Time) string {
	return Day(t).Format(dayFormat)
}

// ParseDay parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(dayFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return t, nil
}

// Point is a single dated sample.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TimeSeries is an immutable ordered sequence of daily samples, strictly
// increasing by date. Gaps are legal and represent missing samples, not
// zeros. Construct via NewTimeSeries, which sorts and deduplicates.
type TimeSeries struct {
	points []Point
}

// NewTimeSeries builds a TimeSeries from arbitrary samples. Dates are
// truncated to UTC midnight, sorted ascending, and deduplicated; when the
// same day appears more than once the last sample in input order wins.
func NewTimeSeries(points ...Point) TimeSeries {
	if len(points) == 0 {
		return TimeSeries{}
	}

	byDay := make(map[string]Point, len(points))
	for _, p := range points {
		p.Date = Day(p.Date)
		byDay[DayKey(p.Date)] = p
	}

	out := make([]Point, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	return TimeSeries{points: out}
}

// Len returns the number of samples.
func (s TimeSeries) Len() int { return len(s.points) }

// Empty reports whether the series has no samples.
func (s TimeSeries) Empty() bool { return len(s.points) == 0 }

// Points returns a copy of the samples in ascending date order.
func (s TimeSeries) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// At returns the sample value for a day, if present.
func (s TimeSeries) At(date time.Time) (float64, bool) {
	key := Day(date)
	i := sort.Search(len(s.points), func(i int) bool {
		return !s.points[i].Date.Before(key)
	})
	if i < len(s.points) && s.points[i].Date.Equal(key) {
		return s.points[i].Value, true
	}
	return 0, false
}

// Has reports whether the series contains a sample for the given day.
func (s TimeSeries) Has(date time.Time) bool {
	_, ok := s.At(date)
	return ok
}

// Slice returns the sub-series of samples falling inside the inclusive
// range.
func (s TimeSeries) Slice(r DateRange) TimeSeries {
	out := make([]Point, 0, len(s.points))
	for _, p := range s.points {
		if p.Date.Before(r.Start) || p.Date.After(r.End) {
			continue
		}
		out = append(out, p)
	}
	return TimeSeries{points: out}
}

// First returns the earliest sample, if any.
func (s TimeSeries) First() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[0], true
}

// Last returns the latest sample, if any.
func (s TimeSeries) Last() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}

// DateRange is an inclusive day-resolution date interval.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange validates and normalizes an inclusive [start, end] range.
func NewDateRange(start, end time.Time) (DateRange, error) {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("invalid date range: end %s before start %s",
			end.Format(dayFormat), start.Format(dayFormat))
	}
	return DateRange{Start: start, End: end}, nil
}

// Days enumerates every day of the range in ascending order.
func (r DateRange) Days() []time.Time {
	var out []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Len returns the number of days in the range.
func (r DateRange) Len() int {
	if r.Start.IsZero() && r.End.IsZero() {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// AlignedTable is a rectangular view over several named series: one row per
// date in the union of all input dates, one column per series, with missing
// samples filled by a caller-supplied default. Built once per computation
// and read-only afterwards.
type AlignedTable struct {
	names  []string
	dates  []time.Time
	rows   map[string]map[string]float64
	filled map[string]int
	fill   float64
}

// Align unions the date axes of the named series into one table.
// Every (date, series) cell missing from its input is set to def; the
// per-series count of such fills is retained for gap reporting. An empty
// input yields an empty table, which is a valid boundary state.
func Align(def float64, series map[string]TimeSeries) *AlignedTable {
	t := &AlignedTable{
		rows:   make(map[string]map[string]float64),
		filled: make(map[string]int),
		fill:   def,
	}

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)
	t.names = names

	union := make(map[string]time.Time)
	for _, s := range series {
		for _, p := range s.points {
			union[DayKey(p.Date)] = p.Date
		}
	}

	dates := make([]time.Time, 0, len(union))
	for _, d := range union {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	t.dates = dates

	for _, d := range dates {
		row := make(map[string]float64, len(names))
		for _, name := range names {
			v, ok := series[name].At(d)
			if !ok {
				v = def
				t.filled[name]++
			}
			row[name] = v
		}
		t.rows[DayKey(d)] = row
	}

	return t
}

// Names returns the column names in sorted order.
func (t *AlignedTable) Names() []string { return t.names }

// Dates returns the unified date axis in ascending order.
func (t *AlignedTable) Dates() []time.Time { return t.dates }

// Len returns the number of rows.
func (t *AlignedTable) Len() int { return len(t.dates) }

// Value returns the aligned value for a date and series. Dates outside the
// union axis return the fill default, keeping lookups total over any
// requested range.
func (t *AlignedTable) Value(date time.Time, name string) float64 {
	if row, ok := t.rows[DayKey(date)]; ok {
		if v, ok := row[name]; ok {
			return v
		}
	}
	return t.fill
}

// FilledDays reports, per series, how many union dates were default-filled
// because the series had no sample there.
func (t *AlignedTable) FilledDays() map[string]int {
	out := make(map[string]int, len(t.filled))
	for k, v := range t.filled {
		out[k] = v
	}
	return out
}
