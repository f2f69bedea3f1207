package devserver

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Stats is the analysis returned for an uploaded equipment CSV
type Stats struct {
	TotalCount  int      `json:"total_count"`
	AvgPressure float64  `json:"avg_pressure"`
	AvgTemp     float64  `json:"avg_temp"`
	ChartLabels []string `json:"chart_labels"`
	ChartData   []int    `json:"chart_data"`
}

const (
	colType        = "Type"
	colPressure    = "Pressure"
	colTemperature = "Temperature"
)

// Analyze computes the summary of an equipment CSV. The Type column is
// required; Pressure and Temperature average to 0 when absent. Blank cells
// are skipped.
func Analyze(r io.Reader) (Stats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Stats{}, errors.New("no columns to parse from file")
	}
	if err != nil {
		return Stats{}, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	typeIdx, ok := cols[colType]
	if !ok {
		return Stats{}, fmt.Errorf("missing column %q", colType)
	}

	pressure := newMean(colPressure, cols)
	temperature := newMean(colTemperature, cols)

	var (
		stats  = Stats{ChartLabels: []string{}, ChartData: []int{}}
		counts = make(map[string]int)
		line   = 1
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Stats{}, fmt.Errorf("read row: %w", err)
		}
		line++
		if len(rec) > len(header) {
			return Stats{}, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(header), len(rec))
		}

		stats.TotalCount++
		if err := pressure.add(rec, line); err != nil {
			return Stats{}, err
		}
		if err := temperature.add(rec, line); err != nil {
			return Stats{}, err
		}

		label := cell(rec, typeIdx)
		if label == "" {
			continue
		}
		if _, seen := counts[label]; !seen {
			stats.ChartLabels = append(stats.ChartLabels, label)
		}
		counts[label]++
	}

	for _, l := range stats.ChartLabels {
		stats.ChartData = append(stats.ChartData, counts[l])
	}
	stats.AvgPressure = pressure.value()
	stats.AvgTemp = temperature.value()
	return stats, nil
}

// mean accumulates a numeric column; idx < 0 means the column is absent
type mean struct {
	name string
	idx  int
	sum  float64
	n    int
}

func newMean(name string, cols map[string]int) *mean {
	idx, ok := cols[name]
	if !ok {
		idx = -1
	}
	return &mean{name: name, idx: idx}
}

func (m *mean) add(rec []string, line int) error {
	if m.idx < 0 {
		return nil
	}
	v := cell(rec, m.idx)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("line %d: column %q is not numeric: %q", line, m.name, v)
	}
	m.sum += f
	m.n++
	return nil
}

// value is the mean rounded to 2 decimals, 0 without data
func (m *mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return math.Round(m.sum/float64(m.n)*100) / 100
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
