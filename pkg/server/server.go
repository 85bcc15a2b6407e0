package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/chrismichaelps/effuse-sub003/pkg/vnode"
)

// Server serves the page shell over HTTP and live sessions over
// WebSocket.
type Server struct {
	config   *Config
	logger   *slog.Logger
	root     func() *vnode.VNode
	sessions *Manager
	upgrader websocket.Upgrader
	router   chi.Router

	httpServer *http.Server
}

// New creates a server rendering root for every new session. A nil
// config uses DefaultConfig.
func New(root func() *vnode.VNode, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	config.fillDefaults()

	logger := slog.Default().With("component", "server")

	s := &Server{
		config:   config,
		logger:   logger,
		root:     root,
		sessions: NewManager(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleIndex)
	r.Get("/live", s.handleWebSocket)
	s.router = r

	return s
}

// Handler returns the server's HTTP handler, for embedding under an
// existing router or an httptest server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions exposes the session manager.
func (s *Server) Sessions() *Manager {
	return s.sessions
}

// Start listens on the configured address and blocks until SIGINT or
// SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.config.Address,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "address", s.config.Address)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		s.logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown closes all sessions and stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.CloseAll()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(s.config.Shell()))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err)
		return
	}

	sess, err := newSession(conn, s.root, s.config, s.logger)
	if err != nil {
		s.logger.Error("session render failed", "error", err)
		conn.WriteJSON(serverFrame{
			Type:    frameTypeError,
			Code:    "E004",
			Message: err.Error(),
		})
		conn.Close()
		return
	}

	s.sessions.add(sess)
	s.config.Metrics.sessionOpened()
	sess.Run()
	s.config.Metrics.sessionClosed()
}

// defaultShell is the minimal page served on the index route. It
// connects to /live and applies patch frames to the real DOM.
func defaultShell() string {
	return `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>effuse</title></head>
<body>
<div id="root"></div>
<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/live");
  var nodes = { 1: document.getElementById("root") };
  ws.onmessage = function (msg) {
    var frame = JSON.parse(msg.data);
    if (frame.type !== "patches") return;
    frame.patches.forEach(function (p) {
      switch (p.op) {
      case "create-element": nodes[p.node] = document.createElement(p.tag); break;
      case "create-text":    nodes[p.node] = document.createTextNode(p.value); break;
      case "set-text":       nodes[p.node].textContent = p.value; break;
      case "set-attr":       nodes[p.node].setAttribute(p.name, p.value); break;
      case "remove-attr":    nodes[p.node].removeAttribute(p.name); break;
      case "insert":         nodes[p.parent].insertBefore(nodes[p.node], nodes[p.ref] || null); break;
      case "remove":         var n = nodes[p.node]; if (n && n.parentNode) n.parentNode.removeChild(n); break;
      }
    });
  };
  document.addEventListener("click", function (ev) {
    var id = Object.keys(nodes).find(function (k) { return nodes[k] === ev.target; });
    if (id) ws.send(JSON.stringify({ type: "event", node: Number(id), event: "click" }));
  });
})();
</script>
</body>
</html>`
}
