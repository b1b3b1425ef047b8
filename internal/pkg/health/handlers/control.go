package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Vodeneev/bacbo-signals/internal/control"
	"github.com/Vodeneev/bacbo-signals/internal/pkg/logging"
)

const maxBodySize = 64 << 10

// Controller is the bot lifecycle behind the /api endpoints.
type Controller interface {
	Start(req control.StartRequest) error
	Stop() error
	SetLanguage(code string) error
	Status() control.Status
	Logs() []logging.Entry
}

type response struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	Language string `json:"language,omitempty"`
}

// API serves the control endpoints.
type API struct {
	ctl Controller
}

func NewAPI(ctl Controller) *API {
	return &API{ctl: ctl}
}

// HandleStart handles POST /api/start
func (a *API) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req control.StartRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.ctl.Start(req); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Bot started successfully"})
}

// HandleStop handles POST /api/stop
func (a *API) HandleStop(w http.ResponseWriter, r *http.Request) {
	if err := a.ctl.Stop(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Bot stopped successfully"})
}

// HandleStatus handles GET /api/status
func (a *API) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.ctl.Status())
}

// HandleLogs handles GET /api/logs
func (a *API) HandleLogs(w http.ResponseWriter, r *http.Request) {
	logs := a.ctl.Logs()
	if logs == nil {
		logs = []logging.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

// HandleChangeLanguage handles POST /api/change-language
func (a *API) HandleChangeLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.ctl.SetLanguage(req.Language); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	st := a.ctl.Status()
	writeJSON(w, http.StatusOK, response{
		Success:  true,
		Message:  fmt.Sprintf("Language changed to %s", st.Language),
		Language: st.Language,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("invalid request data: empty body")
		}
		return fmt.Errorf("invalid request data: %w", err)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, control.ErrAlreadyRunning),
		errors.Is(err, control.ErrNotRunning),
		errors.Is(err, control.ErrInvalidLanguage),
		errors.Is(err, control.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	slog.Warn("Control request failed", "status", status, "error", err)
	writeJSON(w, status, response{Success: false, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
