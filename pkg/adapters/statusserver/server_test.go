package statusserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framehost/pkg/metrics"
	"github.com/user/framehost/pkg/mocks"
	"github.com/user/framehost/pkg/orchestrator"
)

type fakeStatus struct {
	streams []orchestrator.StreamStatus
}

func (f *fakeStatus) Status() []orchestrator.StreamStatus { return f.streams }
func (f *fakeStatus) RunID() string                       { return "run-7" }

func newTestServer() (*Server, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	status := &fakeStatus{streams: []orchestrator.StreamStatus{
		{ID: "cam1", Plugin: "delay", State: "processing", FramesIn: 12, FramesOut: 8},
		{ID: "cam2", Plugin: "scale", State: "closed", Error: "boom"},
	}}
	return New(status, reg, mocks.NewLogger()), m
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer()
	w := get(t, s.Handler(), "/healthz")

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServer_ListStreams(t *testing.T) {
	s, _ := newTestServer()
	w := get(t, s.Handler(), "/streams")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		RunID   string `json:"run_id"`
		Total   int    `json:"total"`
		Streams []struct {
			ID        string `json:"id"`
			State     string `json:"state"`
			FramesOut int64  `json:"frames_out"`
			Error     string `json:"error"`
		} `json:"streams"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "run-7", body.RunID)
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, "processing", body.Streams[0].State)
	assert.Equal(t, int64(8), body.Streams[0].FramesOut)
	assert.Equal(t, "boom", body.Streams[1].Error)
}

func TestServer_GetStream(t *testing.T) {
	s, _ := newTestServer()

	w := get(t, s.Handler(), "/streams/cam2")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"plugin":"scale"`)

	w = get(t, s.Handler(), "/streams/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	s, m := newTestServer()
	m.RecordStageOpen("delay")
	m.RecordForward("delay", 3)

	w := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "framehost_active_stages 1"))
	assert.True(t, strings.Contains(body, `framehost_frames_out_total{plugin="delay"} 3`))
}

func TestServer_StartShutdown(t *testing.T) {
	s, _ := newTestServer()
	addr, err := s.Start("127.0.0.1:0")
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Shutdown(context.Background()))
}
