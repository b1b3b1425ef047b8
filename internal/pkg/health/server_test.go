package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Vodeneev/bacbo-signals/internal/control"
	"github.com/Vodeneev/bacbo-signals/internal/pkg/logging"
	"github.com/Vodeneev/bacbo-signals/internal/pkg/metrics"
)

type fakeController struct {
	running bool
	lang    string
	startFn func(control.StartRequest) error
	gotReq  control.StartRequest
}

func (c *fakeController) Start(req control.StartRequest) error {
	c.gotReq = req
	if c.startFn != nil {
		return c.startFn(req)
	}
	c.running = true
	return nil
}

func (c *fakeController) Stop() error {
	if !c.running {
		return control.ErrNotRunning
	}
	c.running = false
	return nil
}

func (c *fakeController) SetLanguage(code string) error {
	if code != "en" && code != "pt" {
		return control.ErrInvalidLanguage
	}
	c.lang = code
	return nil
}

func (c *fakeController) Status() control.Status {
	return control.Status{Running: c.running, Language: c.lang}
}

func (c *fakeController) Logs() []logging.Entry {
	return []logging.Entry{{Time: time.Unix(0, 0), Level: "INFO", Message: "Bot started"}}
}

func do(t *testing.T, mux http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: bad json %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestControlAPI(t *testing.T) {
	ctl := &fakeController{lang: "en"}
	mux := NewMux(ctl, prometheus.NewRegistry())

	rec, body := do(t, mux, http.MethodPost, "/api/start", `{"token":"123456789:AAE-test-token","channel_id":"@c","language":"pt","mode":"demo"}`)
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("start: %d %v", rec.Code, body)
	}
	if ctl.gotReq.ChannelID != "@c" || ctl.gotReq.Mode != control.ModeDemo || ctl.gotReq.Language != "pt" {
		t.Errorf("start request = %+v", ctl.gotReq)
	}

	rec, body = do(t, mux, http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK || body["running"] != true {
		t.Errorf("status: %d %v", rec.Code, body)
	}

	rec, body = do(t, mux, http.MethodPost, "/api/change-language", `{"language":"pt"}`)
	if rec.Code != http.StatusOK || body["language"] != "pt" {
		t.Errorf("change-language: %d %v", rec.Code, body)
	}
	rec, body = do(t, mux, http.MethodPost, "/api/change-language", `{"language":"xx"}`)
	if rec.Code != http.StatusBadRequest || body["success"] != false || body["error"] == "" {
		t.Errorf("bad language: %d %v", rec.Code, body)
	}

	rec, body = do(t, mux, http.MethodGet, "/api/logs", "")
	logs, _ := body["logs"].([]interface{})
	if rec.Code != http.StatusOK || len(logs) != 1 {
		t.Errorf("logs: %d %v", rec.Code, body)
	}

	rec, _ = do(t, mux, http.MethodPost, "/api/stop", "")
	if rec.Code != http.StatusOK {
		t.Errorf("stop: %d", rec.Code)
	}
	rec, body = do(t, mux, http.MethodPost, "/api/stop", "")
	if rec.Code != http.StatusBadRequest || body["success"] != false {
		t.Errorf("second stop: %d %v", rec.Code, body)
	}
}

func TestControlAPIErrors(t *testing.T) {
	tests := []struct {
		name     string
		startErr error
		body     string
		want     int
	}{
		{"empty body", nil, "", http.StatusBadRequest},
		{"malformed", nil, "{", http.StatusBadRequest},
		{"already running", control.ErrAlreadyRunning, `{}`, http.StatusBadRequest},
		{"telegram down", errors.New("failed to connect to telegram"), `{}`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := &fakeController{startFn: func(control.StartRequest) error { return tt.startErr }}
			rec, body := do(t, NewMux(ctl, prometheus.NewRegistry()), http.MethodPost, "/api/start", tt.body)
			if rec.Code != tt.want || body["success"] != false {
				t.Errorf("start: %d %v, want %d", rec.Code, body, tt.want)
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)
	metrics.Polls.Inc()
	mux := NewMux(&fakeController{}, reg)

	rec, _ := do(t, mux, http.MethodGet, "/ping", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "pong\n" {
		t.Errorf("/ping = %d %q", rec.Code, rec.Body.String())
	}
	rec, _ = do(t, mux, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "bacbo_polls_total") {
		t.Errorf("/metrics missing poll counter: %d", rec.Code)
	}

	rec, _ = do(t, mux, http.MethodGet, "/api/start", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/start = %d, want 405", rec.Code)
	}
}
