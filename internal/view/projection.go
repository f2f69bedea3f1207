package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/satyamaryan14/ChemicalApp/internal/model"
)

// Project derives the chart series for a result. It never mutates or
// aliases its input; nil projects to the empty series, meaning "no data".
func Project(r *model.AnalysisResult) model.ChartSeries {
	if r == nil || len(r.TypeDistribution) == 0 {
		return model.ChartSeries{}
	}

	labels := make([]string, len(r.TypeDistribution))
	values := make([]float64, len(r.TypeDistribution))
	for i, c := range r.TypeDistribution {
		labels[i] = c.Label
		values[i] = c.Count
	}

	var limits []float64
	if len(r.Limits) == len(values) {
		limits = append([]float64(nil), r.Limits...)
	}

	return model.ChartSeries{
		Title:  seriesTitle(r),
		Labels: labels,
		Values: values,
		Limits: limits,
	}
}

func seriesTitle(r *model.AnalysisResult) string {
	name := CleanFilename(r.Filename)
	if r.Source == model.SourceHistory {
		return "Analysis: " + name + " (approximation)"
	}
	return "Equipment Distribution: " + name
}

// Stats is the display-ready summary shown next to the chart
type Stats struct {
	TotalCount     string
	AvgPressure    string
	AvgTemperature string
	Approximate    bool
}

// Summarize formats the summary statistics of r; nil yields zero Stats
func Summarize(r *model.AnalysisResult) Stats {
	if r == nil {
		return Stats{}
	}
	total := fmt.Sprintf("%d", r.TotalCount)
	if r.Source == model.SourceHistory {
		total = "n/a"
	}
	return Stats{
		TotalCount:     total,
		AvgPressure:    fmt.Sprintf("%.2f bar", r.AvgPressure),
		AvgTemperature: fmt.Sprintf("%.2f °C", r.AvgTemperature),
		Approximate:    r.Source == model.SourceHistory,
	}
}

// CleanFilename turns "batch_01.csv" into "batch 01"
func CleanFilename(name string) string {
	if name == "" {
		return "Unknown File"
	}
	name = strings.Replace(name, ".csv", "", 1)
	return strings.ReplaceAll(name, "_", " ")
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatDate renders an upload timestamp as "Jan 2, 2006"
func FormatDate(s string) string {
	if s == "" {
		return "Just Now"
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
