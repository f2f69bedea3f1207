package api

import (
	"encoding/json"
	"fmt"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// historyEntry accepts both "filename" and "file_name"; backends disagree
type historyEntry struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	FileName   string `json:"file_name"`
	UploadedAt string `json:"uploaded_at"`
}

func (h historyEntry) name() string {
	if h.Filename != "" {
		return h.Filename
	}
	return h.FileName
}

type uploadStats struct {
	TotalCount  int       `json:"total_count"`
	AvgPressure float64   `json:"avg_pressure"`
	AvgTemp     float64   `json:"avg_temp"`
	ChartLabels []any     `json:"chart_labels"`
	ChartData   []float64 `json:"chart_data"`
}

type uploadResponse struct {
	Status string       `json:"status"`
	Stats  *uploadStats `json:"stats"`
}

// errorResponse covers {"error": ...} and Django REST Framework's {"detail": ...}
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// serverMessage extracts a human-readable message from an error body
func serverMessage(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return ""
	}
	if er.Error != "" {
		return er.Error
	}
	return er.Detail
}

func labelString(v any) string {
	switch l := v.(type) {
	case string:
		return l
	case nil:
		return ""
	default:
		return fmt.Sprint(l)
	}
}
