package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/satyamaryan14/ChemicalApp/internal/model"
	"github.com/satyamaryan14/ChemicalApp/internal/session"
	"github.com/satyamaryan14/ChemicalApp/internal/upload"
)

// Gateway is the part of the REST client the UI calls directly
type Gateway interface {
	Login(ctx context.Context, username, password string) (model.Credential, error)
	FetchReport(ctx context.Context, cred model.Credential) (model.Report, error)
}

// Sessions owns the credential
type Sessions interface {
	Login(cred model.Credential)
	Logout()
	Invalidate(epoch uint64) bool
}

// History loads and selects past uploads
type History interface {
	Refresh(ctx context.Context) error
	Select(id int64) (model.AnalysisResult, error)
}

// Uploads runs the upload sequence
type Uploads interface {
	UploadPath(ctx context.Context, path string) (upload.Outcome, error)
}

// Services bundles everything the root model drives. The UI never mutates
// State directly; it only reads snapshots.
type Services struct {
	Gateway  Gateway
	Sessions Sessions
	History  History
	Uploads  Uploads
	State    *session.State

	ReportDir string
	Timeout   time.Duration
	Logger    *slog.Logger
}

func (s Services) context() (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), s.Timeout)
}
