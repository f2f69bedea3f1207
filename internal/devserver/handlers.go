package devserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const maxUploadBytes = 32 << 20

// Handler serves the REST contract of the analysis backend
type Handler struct {
	db        *DB
	users     map[string]string
	uploadDir string
	logger    *slog.Logger
}

func NewHandler(db *DB, users map[string]string, uploadDir string, logger *slog.Logger) *Handler {
	return &Handler{db: db, users: users, uploadDir: uploadDir, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type historyItem struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	UploadedAt string `json:"uploaded_at"`
}

// Login handles POST /api/login/
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	want, ok := h.users[req.Username]
	if !ok || req.Password == "" || req.Password != want {
		writeError(w, http.StatusBadRequest, "Invalid Credentials")
		return
	}

	token, err := h.db.IssueToken(req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// History handles GET /api/history/
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	uploads, err := h.db.ListUploads()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]historyItem, 0, len(uploads))
	for _, u := range uploads {
		items = append(items, historyItem{ID: u.ID, Filename: u.Filename, UploadedAt: u.UploadedAt})
	}
	writeJSON(w, http.StatusOK, items)
}

// Upload handles POST /api/upload/. The file is recorded before it is
// parsed, so unparseable uploads still appear in the history.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	name := filepath.Base(hdr.Filename)
	stored, err := h.store(name, data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	id, err := h.db.InsertUpload(name, stored)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stats, err := Analyze(bytes.NewReader(data))
	if err != nil {
		h.logger.Info("upload not analysable", "id", id, "filename", name, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.db.SetStats(id, stats); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "stats": stats})
}

// Report handles GET /api/pdf/ for the latest analysed upload
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	u, err := h.db.LatestAnalysed()
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "no analysed upload to report on")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	pdf, err := RenderReport(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ReportFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// store keeps a copy of the upload under a unique name
func (h *Handler) store(name string, data []byte) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(h.uploadDir, uuid.New().String()[:8]+"_"+name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return path, nil
}
