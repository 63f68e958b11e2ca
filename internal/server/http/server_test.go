package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/blinkhub/internal/config"
	"github.com/rzbill/blinkhub/internal/metrics"
	"github.com/rzbill/blinkhub/internal/runtime"
	pebblestore "github.com/rzbill/blinkhub/internal/storage/pebble"
	logpkg "github.com/rzbill/blinkhub/pkg/log"
)

func newServer(t *testing.T) (*Server, *runtime.Runtime) {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	logger, _ := logpkg.ApplyConfig(&logpkg.Config{Level: "error", Format: "text"})
	return New(rt, logger, Services{Metrics: metrics.New()}), rt
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	s, _ := newServer(t)
	w := do(t, s, http.MethodGet, "/v1/healthz", "")
	if w.Code != 200 {
		t.Fatalf("status: %d", w.Code)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("missing request id")
	}
}

func TestHealthHandlerAfterClose(t *testing.T) {
	s, rt := newServer(t)
	_ = rt.Close()
	if w := do(t, s, http.MethodGet, "/v1/healthz", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	s, _ := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("request id: %q", got)
	}
}

func TestSettingsCRUD(t *testing.T) {
	s, _ := newServer(t)
	if w := do(t, s, http.MethodPut, "/v1/settings/motion.name", `{"value":"porch"}`); w.Code != http.StatusNoContent {
		t.Fatalf("put: %d %s", w.Code, w.Body.String())
	}
	if w := do(t, s, http.MethodPut, "/v1/settings/other.key", `{"value":"{\"on\":true}"}`); w.Code != http.StatusNoContent {
		t.Fatalf("put: %d", w.Code)
	}
	w := do(t, s, http.MethodGet, "/v1/settings/motion.name", "")
	if w.Code != 200 || !strings.Contains(w.Body.String(), `"porch"`) {
		t.Fatalf("get: %d %s", w.Code, w.Body.String())
	}

	var list struct {
		Records map[string]string `json:"records"`
		Count   int               `json:"count"`
	}
	w = do(t, s, http.MethodGet, "/v1/settings?prefix=motion.", "")
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Count != 1 || list.Records["motion.name"] != "porch" {
		t.Fatalf("prefix list: %+v", list)
	}

	w = do(t, s, http.MethodGet, "/v1/settings?filter=json.on%20%3D%3D%20true", "")
	list.Records = nil
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Count != 1 || list.Records["other.key"] == "" {
		t.Fatalf("filter list: %s", w.Body.String())
	}

	if w := do(t, s, http.MethodGet, "/v1/settings?filter=%3D%3D", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad filter: %d", w.Code)
	}
	if w := do(t, s, http.MethodDelete, "/v1/settings/motion.name", ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/v1/settings/motion.name", ""); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", w.Code)
	}
}

func TestChatFlow(t *testing.T) {
	s, _ := newServer(t)
	if w := do(t, s, http.MethodPost, "/v1/chat/connect", ""); w.Code != http.StatusNotFound {
		t.Fatalf("connect without token: %d", w.Code)
	}
	if w := do(t, s, http.MethodPut, "/v1/chat/token", `{"token":"xoxb-1"}`); w.Code != http.StatusNoContent {
		t.Fatalf("token: %d", w.Code)
	}
	w := do(t, s, http.MethodGet, "/v1/chat/token", "")
	if strings.Contains(w.Body.String(), "xoxb") || !strings.Contains(w.Body.String(), `"configured":true`) {
		t.Fatalf("token get: %s", w.Body.String())
	}
	if w := do(t, s, http.MethodPut, "/v1/chat/notify", `{"id":"C1","type":"bogus"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad target: %d", w.Code)
	}
	if w := do(t, s, http.MethodPut, "/v1/chat/notify", `{"id":"C1","type":"channel"}`); w.Code != http.StatusNoContent {
		t.Fatalf("target: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/v1/chat/notify", `{"text":"hi"}`); w.Code != http.StatusConflict {
		t.Fatalf("notify before connect: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/v1/chat/connect", ""); w.Code != 200 {
		t.Fatalf("connect: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/v1/chat/notify", `{"text":"hi"}`); w.Code != http.StatusAccepted {
		t.Fatalf("notify: %d", w.Code)
	}
	w = do(t, s, http.MethodGet, "/v1/chat/status", "")
	if !strings.Contains(w.Body.String(), `"connected":true`) {
		t.Fatalf("status: %s", w.Body.String())
	}
	if w := do(t, s, http.MethodPost, "/v1/chat/restart", ""); w.Code != 200 {
		t.Fatalf("restart: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/v1/chat/disconnect", ""); w.Code != 200 {
		t.Fatalf("disconnect: %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/v1/chat/connect", ""); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("connect via GET: %d", w.Code)
	}
}

func TestMotionSnapshots(t *testing.T) {
	s, _ := newServer(t)
	if w := do(t, s, http.MethodGet, "/v1/motion/source", ""); w.Code != http.StatusNotFound {
		t.Fatalf("source unset: %d", w.Code)
	}
	if w := do(t, s, http.MethodPut, "/v1/motion/source", `{"name":"porch","url":"http://cam.local/s.jpg"}`); w.Code != http.StatusNoContent {
		t.Fatalf("source: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/v1/motion/snapshots", `{"url":"nope"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad url: %d", w.Code)
	}
	for i := 0; i < 7; i++ {
		w := do(t, s, http.MethodPost, "/v1/motion/snapshots", fmt.Sprintf(`{"url":"http://cam.local/%d.jpg"}`, i))
		if w.Code != http.StatusCreated {
			t.Fatalf("record %d: %d %s", i, w.Code, w.Body.String())
		}
	}
	var list struct {
		Snapshots []struct {
			URL string `json:"url"`
		} `json:"snapshots"`
	}
	w := do(t, s, http.MethodGet, "/v1/motion/snapshots", "")
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Snapshots) != 5 || list.Snapshots[0].URL != "http://cam.local/6.jpg" {
		t.Fatalf("snapshots: %s", w.Body.String())
	}
	w = do(t, s, http.MethodPost, "/v1/motion/snapshots/trim", "")
	if w.Code != 200 || !strings.Contains(w.Body.String(), `"deleted":0`) {
		t.Fatalf("trim: %d %s", w.Code, w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newServer(t)
	do(t, s, http.MethodGet, "/v1/healthz", "")
	w := do(t, s, http.MethodGet, "/metrics", "")
	if w.Code != 200 {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/v1/healthz") {
		t.Fatalf("route not instrumented")
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newServer(t)
	w := do(t, s, http.MethodOptions, "/v1/settings", "")
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight: %d", w.Code)
	}
}

func TestCloseDrainsInFlightRequests(t *testing.T) {
	s, _ := newServer(t)
	started := make(chan struct{})
	var finished atomic.Bool
	s.srv.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		finished.Store(true)
	})

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- s.Serve(context.Background(), l) }()

	type result struct {
		code int
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := http.Get("http://" + l.Addr().String() + "/slow")
		if err != nil {
			done <- result{err: err}
			return
		}
		resp.Body.Close()
		done <- result{code: resp.StatusCode}
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the handler")
	}
	s.Close()
	if !finished.Load() {
		t.Fatal("Close returned before the in-flight request finished")
	}

	select {
	case res := <-done:
		if res.err != nil || res.code != http.StatusOK {
			t.Fatalf("in-flight request cut off: code=%d err=%v", res.code, res.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("client never got a response")
	}
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after close")
	}
	if _, err := http.Get("http://" + l.Addr().String() + "/slow"); err == nil {
		t.Fatal("server still accepting after close")
	}
}
