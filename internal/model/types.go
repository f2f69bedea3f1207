package model

// Credential is the opaque token proving an authenticated session.
// The zero value is the absent credential.
type Credential struct {
	Token string
}

// Present reports whether the credential holds a token
func (c Credential) Present() bool {
	return c.Token != ""
}

// UploadRecord is a reference to a past upload (metadata only)
type UploadRecord struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	UploadedAt string `json:"uploaded_at"`
}

// CategoryCount is one entry of an equipment type distribution
type CategoryCount struct {
	Label string
	Count float64
}

// ResultSource tells where an AnalysisResult came from
type ResultSource string

const (
	// SourceUpload is a result returned by the server for an upload
	SourceUpload ResultSource = "upload"
	// SourceHistory is a display approximation rebuilt from an UploadRecord
	SourceHistory ResultSource = "history"
)

// AnalysisResult holds summary statistics for one uploaded file.
// TypeDistribution keeps the server's label order.
type AnalysisResult struct {
	TotalCount       int
	AvgPressure      float64
	AvgTemperature   float64
	TypeDistribution []CategoryCount

	Source   ResultSource
	RecordID int64 // set for SourceHistory
	Filename string
	Limits   []float64 // reference limits, aligned with TypeDistribution
}

// Clone returns a deep copy so callers never share slices with the original
func (r AnalysisResult) Clone() AnalysisResult {
	out := r
	if r.TypeDistribution != nil {
		out.TypeDistribution = append([]CategoryCount(nil), r.TypeDistribution...)
	}
	if r.Limits != nil {
		out.Limits = append([]float64(nil), r.Limits...)
	}
	return out
}

// ChartSeries is the display-ready projection of an AnalysisResult
type ChartSeries struct {
	Title  string
	Labels []string
	Values []float64
	Limits []float64 // optional reference line, same length as Values
}

// Empty reports whether the series has no data to render
func (s ChartSeries) Empty() bool {
	return len(s.Labels) == 0
}

// Report is a downloaded PDF report
type Report struct {
	Filename string
	Data     []byte
}
