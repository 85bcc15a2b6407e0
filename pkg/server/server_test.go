package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/chrismichaelps/effuse-sub003/pkg/dom"
	"github.com/chrismichaelps/effuse-sub003/pkg/effuse"
	"github.com/chrismichaelps/effuse-sub003/pkg/vnode"
)

// counterApp is a minimal interactive root: a button whose label is a
// signal incremented on click.
func counterApp() (func() *vnode.VNode, *effuse.Signal[int]) {
	count := effuse.NewSignal(0)
	root := func() *vnode.VNode {
		return vnode.El("button",
			vnode.On("click", func(any) {
				count.Set(count.Peek() + 1)
			}),
			count,
		)
	}
	return root, count
}

func startTestServer(t *testing.T, root func() *vnode.VNode) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(root, &Config{
		CheckOrigin: func(*http.Request) bool { return true },
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dialLive(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) serverFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame serverFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame failed: %v", err)
	}
	return frame
}

func TestIndexServesShell(t *testing.T) {
	root, _ := counterApp()
	_, ts := startTestServer(t, root)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected HTML content type, got %q", ct)
	}
}

func TestInitialPatchesFrame(t *testing.T) {
	root, _ := counterApp()
	_, ts := startTestServer(t, root)
	conn := dialLive(t, ts)

	frame := readFrame(t, conn)
	if frame.Type != frameTypePatches {
		t.Fatalf("Expected patches frame, got %q", frame.Type)
	}
	if frame.Seq != 1 {
		t.Errorf("Expected seq 1, got %d", frame.Seq)
	}

	var sawButton, sawText bool
	for _, p := range frame.Patches {
		if p.Op == dom.OpCreateElement && p.Tag == "button" {
			sawButton = true
		}
		if p.Op == dom.OpCreateText && p.Value == "0" {
			sawText = true
		}
	}
	if !sawButton {
		t.Error("Expected a create-element patch for the button")
	}
	if !sawText {
		t.Error("Expected a create-text patch with the initial count")
	}
}

func TestEventRoundTrip(t *testing.T) {
	root, count := counterApp()
	_, ts := startTestServer(t, root)
	conn := dialLive(t, ts)

	initial := readFrame(t, conn)
	var buttonID uint64
	for _, p := range initial.Patches {
		if p.Op == dom.OpCreateElement && p.Tag == "button" {
			buttonID = p.Node
		}
	}
	if buttonID == 0 {
		t.Fatal("button node not found in initial patches")
	}

	msg, _ := json.Marshal(clientFrame{Type: frameTypeEvent, Node: buttonID, Event: "click"})
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	frame := readFrame(t, conn)
	if frame.Type != frameTypePatches {
		t.Fatalf("Expected patches frame after event, got %q", frame.Type)
	}
	var sawUpdate bool
	for _, p := range frame.Patches {
		if p.Op == dom.OpSetText && p.Value == "1" {
			sawUpdate = true
		}
	}
	if !sawUpdate {
		t.Errorf("Expected set-text patch to '1', got %+v", frame.Patches)
	}
	if count.Peek() != 1 {
		t.Errorf("Expected signal incremented to 1, got %d", count.Peek())
	}
}

func TestUnknownTargetNode(t *testing.T) {
	root, _ := counterApp()
	_, ts := startTestServer(t, root)
	conn := dialLive(t, ts)
	readFrame(t, conn) // initial patches

	msg, _ := json.Marshal(clientFrame{Type: frameTypeEvent, Node: 99999, Event: "click"})
	conn.WriteMessage(websocket.TextMessage, msg)

	frame := readFrame(t, conn)
	if frame.Type != frameTypeError || frame.Code != "E061" {
		t.Errorf("Expected E061 error frame, got type=%q code=%q", frame.Type, frame.Code)
	}
}

func TestMalformedFrame(t *testing.T) {
	root, _ := counterApp()
	_, ts := startTestServer(t, root)
	conn := dialLive(t, ts)
	readFrame(t, conn) // initial patches

	conn.WriteMessage(websocket.TextMessage, []byte("not json"))

	frame := readFrame(t, conn)
	if frame.Type != frameTypeError || frame.Code != "E060" {
		t.Errorf("Expected E060 error frame, got type=%q code=%q", frame.Type, frame.Code)
	}
}

func TestPingPong(t *testing.T) {
	root, _ := counterApp()
	_, ts := startTestServer(t, root)
	conn := dialLive(t, ts)
	readFrame(t, conn) // initial patches

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`))
	frame := readFrame(t, conn)
	if frame.Type != frameTypePong {
		t.Errorf("Expected pong frame, got %q", frame.Type)
	}
}

func TestSessionLifecycle(t *testing.T) {
	root, _ := counterApp()
	srv, ts := startTestServer(t, root)
	conn := dialLive(t, ts)
	readFrame(t, conn)

	deadline := time.Now().Add(2 * time.Second)
	for srv.Sessions().Count() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.Sessions().Count() != 1 {
		t.Fatalf("Expected 1 live session, got %d", srv.Sessions().Count())
	}

	conn.Close()
	for srv.Sessions().Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.Sessions().Count() != 0 {
		t.Errorf("Expected session removed after close, got %d", srv.Sessions().Count())
	}
}

func TestMetricsRecording(t *testing.T) {
	root, _ := counterApp()
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	srv := New(root, &Config{
		CheckOrigin: func(*http.Request) bool { return true },
		Metrics:     m,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	conn := dialLive(t, ts)
	initial := readFrame(t, conn)

	var buttonID uint64
	for _, p := range initial.Patches {
		if p.Op == dom.OpCreateElement && p.Tag == "button" {
			buttonID = p.Node
		}
	}
	msg, _ := json.Marshal(clientFrame{Type: frameTypeEvent, Node: buttonID, Event: "click"})
	conn.WriteMessage(websocket.TextMessage, msg)
	readFrame(t, conn)

	if got := testutil.ToFloat64(m.patchFrames); got < 2 {
		t.Errorf("Expected at least 2 patch frames recorded, got %v", got)
	}
	if got := testutil.ToFloat64(m.eventsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("Expected 1 successful event, got %v", got)
	}
}

func TestManagerGetUnknown(t *testing.T) {
	m := NewManager(nil)
	if _, err := m.Get("nope"); err == nil {
		t.Error("Expected error for unknown session ID")
	}
}
