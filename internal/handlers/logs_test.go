package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wifi_provisioner/internal/models"
)

func TestLogsHandler_ListAndValidation(t *testing.T) {
	d := newTestDeps(models.JoinedSTA)
	now := time.Now().UTC().Truncate(time.Second)
	d.events.resp = []models.DeviceEvent{
		{EventID: "e1", OccurredAt: now, Type: models.EventBoot, Description: "Server started | IP: 10.0.0.7 | 00:00:04"},
		{EventID: "e2", OccurredAt: now.Add(time.Second), Type: models.EventCommand, Description: "Command received: LED ON"},
	}
	r := newTestRouter(d)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/logs?from=notatime", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid from: status=%d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/logs?from=2025-08-02&to=2025-08-01", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("inverted range: status=%d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/logs?from=2025-08-01&to=2025-08-01&type=command", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                  `json:"count"`
		Events []models.DeviceEvent `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if d.events.lastType != models.EventCommand {
		t.Fatalf("type = %q", d.events.lastType)
	}
	wantTo := time.Date(2025, 8, 1, 23, 59, 59, 999999999, time.UTC)
	if !d.events.lastTo.Equal(wantTo) {
		t.Fatalf("date-only 'to' = %v, want end of day", d.events.lastTo)
	}

	d.events.err = errors.New("storage unavailable")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("repo failure: status=%d", w.Code)
	}
}

func TestStatusHandler(t *testing.T) {
	d := newTestDeps(models.JoinedSTA)
	d.device.network = "home"
	d.telemetry.snap = models.StatusSnapshot{TemperatureC: 41.5, SignalDBm: -61, UptimeSeconds: 90, IndicatorOn: true}
	r := newTestRouter(d)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var st models.DeviceStatus
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Mode != models.JoinedSTA || st.Network != "home" || st.Snapshot.SignalDBm != -61 || st.OTA.Phase != models.OTAIdle {
		t.Fatalf("status %+v", st)
	}

	d.runner.err = errors.New("run loop stopped")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("stopped loop: status=%d", w.Code)
	}
}
