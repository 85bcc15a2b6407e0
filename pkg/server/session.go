package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chrismichaelps/effuse-sub003/internal/errors"
	"github.com/chrismichaelps/effuse-sub003/pkg/dom"
	"github.com/chrismichaelps/effuse-sub003/pkg/effuse"
	"github.com/chrismichaelps/effuse-sub003/pkg/mount"
	"github.com/chrismichaelps/effuse-sub003/pkg/store"
	"github.com/chrismichaelps/effuse-sub003/pkg/vnode"
)

// Session is one live connection: its own document, mount, signal scope
// and websocket loops. All document mutation happens on the event loop
// goroutine; the read loop only decodes and queues.
type Session struct {
	ID        string
	CreatedAt time.Time

	conn   *websocket.Conn
	config *Config
	logger *slog.Logger

	doc     *dom.MemDocument
	engine  *mount.Engine
	owner   *effuse.Owner
	scope   *store.Scope
	unmount effuse.Cleanup

	pendingMu sync.Mutex
	pending   []dom.Mutation
	seq       atomic.Uint64

	send   chan serverFrame
	events chan *clientFrame

	done      chan struct{}
	closeOnce sync.Once
	onClose   func(*Session)

	lastActive atomic.Int64
}

func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// Weak session IDs are worse than a crash.
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

// newSession mounts root into a fresh document and buffers the resulting
// mutations as the client's initial patch frame.
func newSession(conn *websocket.Conn, root func() *vnode.VNode, config *Config, logger *slog.Logger) (*Session, error) {
	doc := dom.NewDocument()
	s := &Session{
		ID:        generateSessionID(),
		CreatedAt: time.Now(),
		conn:      conn,
		config:    config,
		doc:       doc,
		owner:     effuse.NewOwner(nil),
		scope:     store.NewScope(),
		send:      make(chan serverFrame, config.SendQueue),
		events:    make(chan *clientFrame, config.SendQueue),
		done:      make(chan struct{}),
	}
	s.logger = logger.With("session", s.ID[:8])
	s.engine = mount.New(doc, mount.WithLogger(s.logger))
	s.touch()

	doc.Observe(func(m dom.Mutation) {
		s.pendingMu.Lock()
		s.pending = append(s.pending, m)
		s.pendingMu.Unlock()
	})

	var renderErr error
	effuse.WithOwner(s.owner, func() {
		effuse.SetContext(store.ScopeKey, s.scope)
		s.unmount, renderErr = s.engine.Render(root(), doc.Root())
	})
	if renderErr != nil {
		s.owner.Dispose()
		return nil, renderErr
	}

	s.flushPatches()
	return s, nil
}

// Run starts the read, write, and event loops and blocks until the
// session closes.
func (s *Session) Run() {
	go s.writeLoop()
	go s.eventLoop()
	s.readLoop()
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// LastActive returns the time of the last inbound message.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Document exposes the session's live document, mainly for tests.
func (s *Session) Document() *dom.MemDocument {
	return s.doc
}

// Close tears down the session: reactive scope first so effects stop
// writing to the document, then the connection.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.unmount != nil {
			s.unmount()
		}
		s.owner.Dispose()
		s.conn.Close()
		if s.onClose != nil {
			s.onClose(s)
		}
		s.logger.Info("session closed")
	})
}

// readLoop decodes inbound frames and queues events for the event loop.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		s.touch()

		frame, err := decodeClientFrame(msg)
		if err != nil {
			s.sendError(errors.New("E060").Wrap(err))
			continue
		}

		switch frame.Type {
		case frameTypePing:
			s.enqueue(serverFrame{Type: frameTypePong})

		case frameTypeEvent:
			select {
			case s.events <- frame:
			default:
				s.logger.Warn("event queue full, dropping event",
					"event", frame.Event)
			}

		default:
			s.sendError(errors.New("E060").WithDetail("unknown frame type %q", frame.Type))
		}
	}
}

// writeLoop owns the connection's write side: outbound frames plus
// periodic pings.
func (s *Session) writeLoop() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := s.conn.WriteJSON(frame); err != nil {
				s.logger.Error("write error", "error", err)
				s.Close()
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}

		case <-s.done:
			return
		}
	}
}

// eventLoop serializes all reactive work for the session. Each client
// event is dispatched into the document, pending effects are drained,
// and whatever mutations resulted go out as one patch frame.
func (s *Session) eventLoop() {
	for {
		select {
		case frame := <-s.events:
			s.handleEvent(frame)

		case <-s.done:
			return
		}
	}
}

func (s *Session) handleEvent(frame *clientFrame) {
	start := time.Now()

	node, ok := s.doc.NodeByID(frame.Node)
	if !ok {
		s.sendError(errors.New("E061").WithDetail("node %d", frame.Node))
		s.config.Metrics.observeEvent(time.Since(start), false)
		return
	}

	effuse.WithOwner(s.owner, func() {
		node.Dispatch(dom.Event{
			Type:   frame.Event,
			Target: node,
			Value:  frame.eventValue(),
		})
	})

	// Handlers write signals; immediate effects have already run. Drain
	// anything deferred to the post queue before snapshotting patches.
	s.owner.RunPendingEffects()
	effuse.Flush()

	s.flushPatches()
	s.config.Metrics.observeEvent(time.Since(start), true)
}

// flushPatches drains buffered mutations into one outbound frame.
func (s *Session) flushPatches() {
	s.pendingMu.Lock()
	patches := s.pending
	s.pending = nil
	s.pendingMu.Unlock()

	if len(patches) == 0 {
		return
	}
	s.config.Metrics.recordPatchFrame(len(patches))
	s.enqueue(serverFrame{
		Type:    frameTypePatches,
		Seq:     s.seq.Add(1),
		Patches: patches,
	})
}

func (s *Session) sendError(err *errors.EffuseError) {
	s.logger.Warn("client error", "code", err.Code, "error", err)
	s.enqueue(serverFrame{
		Type:    frameTypeError,
		Code:    err.Code,
		Message: err.Message,
	})
}

// enqueue queues a frame, dropping the session if the client cannot
// keep up.
func (s *Session) enqueue(frame serverFrame) {
	select {
	case s.send <- frame:
	case <-s.done:
	default:
		s.logger.Warn("send queue full, closing session")
		go s.Close()
	}
}
