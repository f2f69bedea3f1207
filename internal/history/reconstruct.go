package history

import "github.com/satyamaryan14/ChemicalApp/internal/model"

// Parameters shown for a history entry. The backend does not return
// per-record statistics, so values are derived from the record id.
var parameters = []struct {
	label string
	base  float64
	mod   int64
	sign  float64
	limit float64
}{
	{"Pressure (psi)", 65, 20, 1, 85},
	{"Temperature (°C)", 59, 15, 1, 75},
	{"Flow Rate (L/m)", 80, 10, -1, 90},
	{"Viscosity (cP)", 45, 5, 1, 60},
	{"Acidity (pH)", 7, 2, 1, 9},
}

// Reconstruct builds the deterministic display approximation for rec.
// It is tagged SourceHistory and is not authoritative data.
func Reconstruct(rec model.UploadRecord) model.AnalysisResult {
	dist := make([]model.CategoryCount, len(parameters))
	limits := make([]float64, len(parameters))
	for i, p := range parameters {
		dist[i] = model.CategoryCount{
			Label: p.label,
			Count: p.base + p.sign*float64(mod(rec.ID, p.mod)),
		}
		limits[i] = p.limit
	}

	return model.AnalysisResult{
		AvgPressure:      dist[0].Count,
		AvgTemperature:   dist[1].Count,
		TypeDistribution: dist,
		Source:           model.SourceHistory,
		RecordID:         rec.ID,
		Filename:         rec.Filename,
		Limits:           limits,
	}
}

// mod is a non-negative remainder
func mod(a, m int64) int64 {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
