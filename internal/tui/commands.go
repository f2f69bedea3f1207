package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/satyamaryan14/ChemicalApp/internal/api"
	"github.com/satyamaryan14/ChemicalApp/internal/model"
	"github.com/satyamaryan14/ChemicalApp/internal/upload"
	"github.com/satyamaryan14/ChemicalApp/internal/view"
)

// Messages
type stateChangedMsg struct{}

type loginResultMsg struct {
	cred model.Credential
	err  error
}

// Results of session-bound calls carry the credential epoch they were
// started under.
type refreshResultMsg struct {
	epoch uint64
	err   error
}

type uploadResultMsg struct {
	epoch   uint64
	path    string
	outcome upload.Outcome
	err     error
}

type reportSavedMsg struct {
	epoch uint64
	path  string
	err   error
}

type chartExportedMsg struct {
	path string
	err  error
}

type noticeExpiredMsg struct {
	id int
}

type spinnerTickMsg struct{}

// Spinner animation frames
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const noticeTTL = 5 * time.Second

// waitForChange blocks until the session state changed. Notifications are
// coalesced, so one message may stand for several transitions.
func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if changes == nil {
			return nil
		}
		if _, ok := <-changes; !ok {
			return nil
		}
		return stateChangedMsg{}
	}
}

// spinnerTickCmd returns a fast tick command for spinner animation
func spinnerTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func expireNoticeCmd(id int) tea.Cmd {
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

// loginCmd exchanges credentials for a token. The session is only touched
// by Update once the result arrives.
func (m Model) loginCmd(username, password string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := svc.context()
		defer cancel()
		cred, err := svc.Gateway.Login(ctx, username, password)
		return loginResultMsg{cred: cred, err: err}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		_, epoch := svc.State.Credential()
		ctx, cancel := svc.context()
		defer cancel()
		return refreshResultMsg{epoch: epoch, err: svc.History.Refresh(ctx)}
	}
}

func (m Model) uploadCmd(path string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		_, epoch := svc.State.Credential()
		ctx, cancel := svc.context()
		defer cancel()
		out, err := svc.Uploads.UploadPath(ctx, path)
		return uploadResultMsg{epoch: epoch, path: path, outcome: out, err: err}
	}
}

// reportCmd downloads the PDF report and writes it into the report dir
func (m Model) reportCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		cred, epoch := svc.State.Credential()

		ctx, cancel := svc.context()
		defer cancel()
		rep, err := svc.Gateway.FetchReport(ctx, cred)
		if err != nil {
			if api.IsUnauthenticated(err) {
				svc.Sessions.Invalidate(epoch)
			}
			return reportSavedMsg{epoch: epoch, err: err}
		}

		path, err := writeOutput(svc.ReportDir, rep.Filename, rep.Data)
		return reportSavedMsg{epoch: epoch, path: path, err: err}
	}
}

// exportChartCmd renders series as a PNG next to the reports
func (m Model) exportChartCmd(series model.ChartSeries, filename string) tea.Cmd {
	dir := m.svc.ReportDir
	return func() tea.Msg {
		name := strings.ReplaceAll(view.CleanFilename(filename), " ", "_") + "_chart.png"
		if err := os.MkdirAll(dirOrCwd(dir), 0755); err != nil {
			return chartExportedMsg{err: fmt.Errorf("create report dir: %w", err)}
		}
		path := filepath.Join(dirOrCwd(dir), name)
		f, err := os.Create(path)
		if err != nil {
			return chartExportedMsg{err: fmt.Errorf("create %s: %w", path, err)}
		}
		if err := view.RenderPNG(series, f); err != nil {
			f.Close()
			os.Remove(path)
			return chartExportedMsg{err: err}
		}
		if err := f.Close(); err != nil {
			return chartExportedMsg{err: fmt.Errorf("close %s: %w", path, err)}
		}
		return chartExportedMsg{path: path}
	}
}

func writeOutput(dir, name string, data []byte) (string, error) {
	dir = dirOrCwd(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func dirOrCwd(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

// describe turns a component error into a one-line notice
func describe(err error) string {
	var apiErr *api.Error
	msg := ""
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = ": " + apiErr.Message
	}

	switch {
	case errors.Is(err, upload.ErrAlreadyInProgress):
		return "An upload is already in progress"
	case errors.Is(err, api.ErrInvalidInput):
		return "Please select a CSV file first" + msg
	case errors.Is(err, api.ErrUploadRejected):
		return "Upload rejected" + msg
	case errors.Is(err, api.ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, api.ErrUnauthenticated):
		return "Session expired, please log in again"
	case errors.Is(err, api.ErrUnreachable):
		return "Server unreachable" + msg
	case errors.Is(err, view.ErrNoData):
		return "Nothing to export yet"
	default:
		return err.Error()
	}
}
