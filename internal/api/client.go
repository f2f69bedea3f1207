package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/satyamaryan14/ChemicalApp/internal/logging"
	"github.com/satyamaryan14/ChemicalApp/internal/model"
)

const (
	// DefaultReportFilename is used when the server does not suggest one
	DefaultReportFilename = "Chemical_Report.pdf"

	pathLogin   = "/api/login/"
	pathHistory = "/api/history/"
	pathUpload  = "/api/upload/"
	pathReport  = "/api/pdf/"
)

// Client is the REST gateway to the analysis backend. It is the only
// component that performs network I/O and it holds no session state:
// the credential is passed in on every authorized call.
type Client struct {
	baseURL    string
	authScheme string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithAuthScheme sets the Authorization scheme ("Bearer", "Token")
func WithAuthScheme(scheme string) Option {
	return func(c *Client) {
		if scheme != "" {
			c.authScheme = scheme
		}
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a new gateway for the backend at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authScheme: "Bearer",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDefault(c.logger)
	return c
}

// Login exchanges a username and password for a fresh credential
func (c *Client) Login(ctx context.Context, username, password string) (model.Credential, error) {
	const op = "login"

	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return model.Credential{}, newError(op, ErrUnreachable, 0, "", fmt.Errorf("marshal request: %w", err))
	}

	req, err := c.newRequest(ctx, op, http.MethodPost, pathLogin, bytes.NewReader(body))
	if err != nil {
		return model.Credential{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	status, respBody, err := c.do(op, req)
	if err != nil {
		return model.Credential{}, err
	}

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		return model.Credential{}, newError(op, ErrInvalidCredentials, status, serverMessage(respBody), nil)
	case !isSuccess(status):
		return model.Credential{}, newError(op, ErrUnreachable, status, serverMessage(respBody), nil)
	}

	var lr loginResponse
	if err := json.Unmarshal(respBody, &lr); err != nil {
		return model.Credential{}, newError(op, ErrUnreachable, status, "", fmt.Errorf("unmarshal response: %w", err))
	}
	if lr.Token == "" {
		return model.Credential{}, newError(op, ErrUnreachable, status, "response missing token", nil)
	}

	return model.Credential{Token: lr.Token}, nil
}

// ListHistory returns past uploads in server order (most recent first)
func (c *Client) ListHistory(ctx context.Context, cred model.Credential) ([]model.UploadRecord, error) {
	const op = "history"

	req, err := c.newAuthorizedRequest(ctx, op, cred, http.MethodGet, pathHistory, nil)
	if err != nil {
		return nil, err
	}

	status, respBody, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	if err := classifyStatus(op, status, respBody, ErrUnreachable); err != nil {
		return nil, err
	}

	var entries []historyEntry
	if err := json.Unmarshal(respBody, &entries); err != nil {
		return nil, newError(op, ErrUnreachable, status, "", fmt.Errorf("unmarshal response: %w", err))
	}

	records := make([]model.UploadRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, model.UploadRecord{
			ID:         e.ID,
			Filename:   e.name(),
			UploadedAt: e.UploadedAt,
		})
	}
	return records, nil
}

// UploadFile sends a CSV for analysis and returns the server's statistics
func (c *Client) UploadFile(ctx context.Context, cred model.Credential, data []byte, filename string) (model.AnalysisResult, error) {
	const op = "upload"

	if filename == "" {
		return model.AnalysisResult{}, newError(op, ErrInvalidInput, 0, "filename is empty", nil)
	}
	if len(data) == 0 {
		return model.AnalysisResult{}, newError(op, ErrInvalidInput, 0, "file is empty", nil)
	}
	if !cred.Present() {
		return model.AnalysisResult{}, newError(op, ErrUnauthenticated, 0, "", nil)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return model.AnalysisResult{}, newError(op, ErrUnreachable, 0, "", fmt.Errorf("create form file: %w", err))
	}
	if _, err := part.Write(data); err != nil {
		return model.AnalysisResult{}, newError(op, ErrUnreachable, 0, "", fmt.Errorf("write form file: %w", err))
	}
	if err := mw.Close(); err != nil {
		return model.AnalysisResult{}, newError(op, ErrUnreachable, 0, "", fmt.Errorf("close multipart: %w", err))
	}

	req, err := c.newAuthorizedRequest(ctx, op, cred, http.MethodPost, pathUpload, &buf)
	if err != nil {
		return model.AnalysisResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	status, respBody, err := c.do(op, req)
	if err != nil {
		return model.AnalysisResult{}, err
	}

	// The backend reports unparseable CSVs as 500 {"error": ...}; that is a
	// processing rejection, not an outage.
	if status == http.StatusInternalServerError {
		if msg := serverMessage(respBody); msg != "" {
			return model.AnalysisResult{}, newError(op, ErrUploadRejected, status, msg, nil)
		}
	}
	if err := classifyStatus(op, status, respBody, ErrUploadRejected); err != nil {
		return model.AnalysisResult{}, err
	}

	var ur uploadResponse
	if err := json.Unmarshal(respBody, &ur); err != nil {
		return model.AnalysisResult{}, newError(op, ErrUnreachable, status, "", fmt.Errorf("unmarshal response: %w", err))
	}
	if ur.Stats == nil {
		return model.AnalysisResult{}, newError(op, ErrUnreachable, status, "response missing stats", nil)
	}

	return resultFromStats(ur.Stats, filepath.Base(filename)), nil
}

// FetchReport downloads the generated PDF report
func (c *Client) FetchReport(ctx context.Context, cred model.Credential) (model.Report, error) {
	const op = "report"

	req, err := c.newAuthorizedRequest(ctx, op, cred, http.MethodGet, pathReport, nil)
	if err != nil {
		return model.Report{}, err
	}
	req.Header.Set("Accept", "application/pdf")

	status, respBody, resp, err := c.doRaw(op, req)
	if err != nil {
		return model.Report{}, err
	}
	if err := classifyStatus(op, status, respBody, ErrUnreachable); err != nil {
		return model.Report{}, err
	}

	return model.Report{
		Filename: reportFilename(resp.Header.Get("Content-Disposition")),
		Data:     respBody,
	}, nil
}

// newRequest builds a request carrying a fresh request ID
func (c *Client) newRequest(ctx context.Context, op, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, newError(op, ErrUnreachable, 0, "", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("X-Request-ID", uuid.New().String())
	return req, nil
}

// newAuthorizedRequest refuses to build a request without a credential
func (c *Client) newAuthorizedRequest(ctx context.Context, op string, cred model.Credential, method, path string, body io.Reader) (*http.Request, error) {
	if !cred.Present() {
		return nil, newError(op, ErrUnauthenticated, 0, "", nil)
	}
	req, err := c.newRequest(ctx, op, method, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.authScheme+" "+cred.Token)
	return req, nil
}

func (c *Client) do(op string, req *http.Request) (int, []byte, error) {
	status, body, _, err := c.doRaw(op, req)
	return status, body, err
}

// doRaw executes req and reads the full body. Transport failures become
// ErrUnreachable.
func (c *Client) doRaw(op string, req *http.Request) (int, []byte, *http.Response, error) {
	start := time.Now()
	requestID := req.Header.Get("X-Request-ID")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			"op", op,
			"request_id", requestID,
			"error", err,
		)
		return 0, nil, nil, newError(op, ErrUnreachable, 0, "", fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, resp, newError(op, ErrUnreachable, resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug("request",
		"op", op,
		"request_id", requestID,
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp.StatusCode, body, resp, nil
}

// classifyStatus maps a non-2xx status of an authorized call to an error:
// 401 is ErrUnauthenticated, other 4xx use clientKind, everything else is
// ErrUnreachable.
func classifyStatus(op string, status int, body []byte, clientKind error) error {
	switch {
	case isSuccess(status):
		return nil
	case status == http.StatusUnauthorized:
		return newError(op, ErrUnauthenticated, status, serverMessage(body), nil)
	case status >= 400 && status < 500:
		return newError(op, clientKind, status, serverMessage(body), nil)
	default:
		return newError(op, ErrUnreachable, status, serverMessage(body), nil)
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// resultFromStats converts the wire stats. Missing counts are 0, extra
// counts without a label are dropped.
func resultFromStats(s *uploadStats, filename string) model.AnalysisResult {
	dist := make([]model.CategoryCount, 0, len(s.ChartLabels))
	for i, l := range s.ChartLabels {
		var count float64
		if i < len(s.ChartData) {
			count = s.ChartData[i]
		}
		dist = append(dist, model.CategoryCount{Label: labelString(l), Count: count})
	}
	return model.AnalysisResult{
		TotalCount:       s.TotalCount,
		AvgPressure:      s.AvgPressure,
		AvgTemperature:   s.AvgTemp,
		TypeDistribution: dist,
		Source:           model.SourceUpload,
		Filename:         filename,
	}
}

func reportFilename(contentDisposition string) string {
	if contentDisposition == "" {
		return DefaultReportFilename
	}
	_, params, err := mime.ParseMediaType(contentDisposition)
	if err != nil {
		return DefaultReportFilename
	}
	name := filepath.Base(params["filename"])
	if name == "" || name == "." || name == "/" {
		return DefaultReportFilename
	}
	return name
}
