package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/satyamaryan14/ChemicalApp/internal/logging"
	"github.com/satyamaryan14/ChemicalApp/internal/model"
)

// countingServer wraps h and records how many requests reached the network
func countingServer(t *testing.T, h http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, WithLogger(logging.Discard())), &calls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var testCred = model.Credential{Token: "T1"}

func TestLogin(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      any
		wantToken string
		wantErr   error
	}{
		{"success", http.StatusOK, map[string]string{"token": "T1"}, "T1", nil},
		{"bad request", http.StatusBadRequest, map[string]string{"detail": "bad"}, "", ErrInvalidCredentials},
		{"unauthorized", http.StatusUnauthorized, nil, "", ErrInvalidCredentials},
		{"server error", http.StatusInternalServerError, nil, "", ErrUnreachable},
		{"forbidden", http.StatusForbidden, nil, "", ErrUnreachable},
		{"missing token", http.StatusOK, map[string]string{}, "", ErrUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/api/login/" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				var req loginRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode body: %v", err)
				}
				if req.Username != "alice" || req.Password != "pw" {
					t.Errorf("unexpected credentials %+v", req)
				}
				if r.Header.Get("Authorization") != "" {
					t.Errorf("login must not carry Authorization")
				}
				writeJSON(w, tt.status, tt.body)
			})

			cred, err := c.Login(context.Background(), "alice", "pw")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
				}
				if cred.Present() {
					t.Errorf("expected absent credential on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if cred.Token != tt.wantToken {
				t.Errorf("token = %q, want %q", cred.Token, tt.wantToken)
			}
		})
	}
}

func TestLoginTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, WithLogger(logging.Discard()), WithTimeout(time.Second))
	_, err := c.Login(context.Background(), "alice", "pw")
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("Login() error = %v, want ErrUnreachable", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != 0 {
		t.Errorf("expected *Error without status, got %#v", err)
	}
}

func TestAuthorizedCallsWithoutCredentialSkipNetwork(t *testing.T) {
	c, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()
	absent := model.Credential{}

	if _, err := c.ListHistory(ctx, absent); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("ListHistory() error = %v, want ErrUnauthenticated", err)
	}
	if _, err := c.UploadFile(ctx, absent, []byte("a,b\n"), "x.csv"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("UploadFile() error = %v, want ErrUnauthenticated", err)
	}
	if _, err := c.FetchReport(ctx, absent); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("FetchReport() error = %v, want ErrUnauthenticated", err)
	}
	if n := atomic.LoadInt32(calls); n != 0 {
		t.Errorf("expected 0 network calls, got %d", n)
	}
}

func TestUploadFileInvalidInputSkipsNetwork(t *testing.T) {
	c, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		data     []byte
		filename string
	}{
		{"empty bytes and filename", nil, ""},
		{"empty bytes", []byte{}, "batch1.csv"},
		{"empty filename", []byte("Type\nPump\n"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.UploadFile(context.Background(), testCred, tt.data, tt.filename)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("UploadFile() error = %v, want ErrInvalidInput", err)
			}
		})
	}
	if n := atomic.LoadInt32(calls); n != 0 {
		t.Errorf("expected 0 network calls, got %d", n)
	}
}

func TestListHistory(t *testing.T) {
	c, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer T1" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing X-Request-ID")
		}
		_, _ = io.WriteString(w, `[
			{"id": 2, "filename": "batch2.csv", "uploaded_at": "2024-01-02T10:00:00Z"},
			{"id": 1, "file_name": "batch1.csv", "uploaded_at": "2024-01-01"}
		]`)
	})

	records, err := c.ListHistory(context.Background(), testCred)
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	want := []model.UploadRecord{
		{ID: 2, Filename: "batch2.csv", UploadedAt: "2024-01-02T10:00:00Z"},
		{ID: 1, Filename: "batch1.csv", UploadedAt: "2024-01-01"},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("record[%d] = %+v, want %+v (server order must be kept)", i, records[i], want[i])
		}
	}
}

func TestListHistoryErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"Invalid token."}`, ErrUnauthenticated},
		{"server error", http.StatusBadGateway, ``, ErrUnreachable},
		{"not found", http.StatusNotFound, ``, ErrUnreachable},
		{"malformed body", http.StatusOK, `{"not":"a list"}`, ErrUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.ListHistory(context.Background(), testCred)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ListHistory() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUploadFile(t *testing.T) {
	c, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		if hdr.Filename != "batch1.csv" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		content, _ := io.ReadAll(f)
		if string(content) != "Type,Pressure\nPump,5\n" {
			t.Errorf("content = %q", content)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"stats": map[string]any{
				"total_count":  3,
				"avg_pressure": 5.25,
				"avg_temp":     110.5,
				"chart_labels": []any{"Pump", "Valve", 7},
				"chart_data":   []float64{2, 1},
			},
		})
	})

	res, err := c.UploadFile(context.Background(), testCred, []byte("Type,Pressure\nPump,5\n"), "/tmp/data/batch1.csv")
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if res.TotalCount != 3 || res.AvgPressure != 5.25 || res.AvgTemperature != 110.5 {
		t.Errorf("unexpected stats %+v", res)
	}
	if res.Source != model.SourceUpload || res.Filename != "batch1.csv" {
		t.Errorf("unexpected source/filename %q/%q", res.Source, res.Filename)
	}
	want := []model.CategoryCount{
		{Label: "Pump", Count: 2},
		{Label: "Valve", Count: 1},
		{Label: "7", Count: 0},
	}
	if len(res.TypeDistribution) != len(want) {
		t.Fatalf("distribution = %+v", res.TypeDistribution)
	}
	for i := range want {
		if res.TypeDistribution[i] != want[i] {
			t.Errorf("distribution[%d] = %+v, want %+v", i, res.TypeDistribution[i], want[i])
		}
	}
}

func TestUploadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"unauthorized", http.StatusUnauthorized, ``, ErrUnauthenticated, ""},
		{"bad request", http.StatusBadRequest, `{"error":"No file uploaded"}`, ErrUploadRejected, "No file uploaded"},
		{"too large", http.StatusRequestEntityTooLarge, ``, ErrUploadRejected, ""},
		{"parse failure", http.StatusInternalServerError, `{"error":"'Type'"}`, ErrUploadRejected, "'Type'"},
		{"opaque 500", http.StatusInternalServerError, `<html>oops</html>`, ErrUnreachable, ""},
		{"unavailable", http.StatusServiceUnavailable, ``, ErrUnreachable, ""},
		{"missing stats", http.StatusOK, `{"status":"success"}`, ErrUnreachable, "response missing stats"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.UploadFile(context.Background(), testCred, []byte("x"), "x.csv")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("UploadFile() error = %v, want %v", err, tt.wantErr)
			}
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestFetchReport(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake")
	c, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pdf/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="../weekly.pdf"`)
		_, _ = w.Write(pdf)
	})

	rep, err := c.FetchReport(context.Background(), testCred)
	if err != nil {
		t.Fatalf("FetchReport() error = %v", err)
	}
	if string(rep.Data) != string(pdf) {
		t.Errorf("data = %q", rep.Data)
	}
	if rep.Filename != "weekly.pdf" {
		t.Errorf("filename = %q, want weekly.pdf", rep.Filename)
	}
}

func TestFetchReportErrors(t *testing.T) {
	for _, tt := range []struct {
		status  int
		wantErr error
	}{
		{http.StatusUnauthorized, ErrUnauthenticated},
		{http.StatusNotFound, ErrUnreachable},
		{http.StatusInternalServerError, ErrUnreachable},
	} {
		c, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})
		if _, err := c.FetchReport(context.Background(), testCred); !errors.Is(err, tt.wantErr) {
			t.Errorf("status %d: error = %v, want %v", tt.status, err, tt.wantErr)
		}
	}
}

func TestAuthScheme(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", WithAuthScheme("Token"), WithLogger(logging.Discard()))
	if _, err := c.ListHistory(context.Background(), testCred); err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	if got != "Token T1" {
		t.Errorf("Authorization = %q, want %q", got, "Token T1")
	}
}

func TestReportFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", DefaultReportFilename},
		{"attachment", DefaultReportFilename},
		{`attachment; filename="report.pdf"`, "report.pdf"},
		{`attachment; filename="/etc/passwd"`, "passwd"},
		{`inline; filename=`, DefaultReportFilename},
		{`;;;`, DefaultReportFilename},
	}
	for _, tt := range tests {
		if got := reportFilename(tt.in); got != tt.want {
			t.Errorf("reportFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestErrorString(t *testing.T) {
	err := newError("upload", ErrUploadRejected, 400, "No file uploaded", nil)
	want := "upload: upload rejected (HTTP 400): No file uploaded"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !IsUnauthenticated(newError("history", ErrUnauthenticated, 401, "", nil)) {
		t.Errorf("IsUnauthenticated() = false")
	}
}
