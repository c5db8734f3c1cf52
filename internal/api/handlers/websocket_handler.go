package handlers

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/legal-assistant/docclient/internal/session"
	"github.com/legal-assistant/docclient/internal/view"
	"github.com/legal-assistant/docclient/pkg/logger"
)

// WebSocketHandler streams a session's view after every change and accepts
// the same actions as the REST routes.
type WebSocketHandler struct {
	registry *Registry
}

func NewWebSocketHandler(registry *Registry) *WebSocketHandler {
	return &WebSocketHandler{
		registry: registry,
	}
}

type clientMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Upgrade resolves the session before the protocol switch so an unknown id
// gets a plain 404.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	s, ok := h.registry.Get(c.UserContext(), c.Params("id"))
	if !ok {
		return notFound(c)
	}

	c.Locals("session", s)
	return c.Next()
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	s, ok := c.Locals("session").(*session.Session)
	if !ok {
		c.Close()
		return
	}

	logger.Info("WebSocket connection established", zap.String("session_id", s.ID()))

	out := newOutbox()
	cancel := s.Subscribe(out.pushSnapshot)
	out.pushSnapshot(s.Snapshot())

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(c, out)
	}()

	defer func() {
		cancel()
		out.close()
		<-done
		c.Close()
		logger.Info("WebSocket connection closed", zap.String("session_id", s.ID()))
	}()

	for {
		var msg clientMessage
		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.String("session_id", s.ID()), zap.Error(err))
			return
		}

		if errMsg := h.apply(s, msg, out); errMsg != "" {
			out.pushError(errMsg)
		}
	}
}

// apply runs one client message. Errors known immediately are returned;
// a rejected submit is reported through out once Submit returns.
func (h *WebSocketHandler) apply(s *session.Session, msg clientMessage, out *outbox) string {
	switch msg.Type {
	case "setText":
		s.SetText(msg.Content)
	case "setQuestion":
		s.SetQuestion(msg.Content)
	case "setMode":
		mode, err := session.ParseMode(msg.Content)
		if err != nil {
			return err.Error()
		}
		s.SetMode(mode)
	case "setQaMode":
		qaMode, err := session.ParseQAMode(msg.Content)
		if err != nil {
			return err.Error()
		}
		s.SetQAMode(qaMode)
	case "submit":
		go func() {
			if _, err := s.Submit(context.Background()); err != nil {
				logger.Debug("WebSocket submission rejected", zap.String("session_id", s.ID()), zap.Error(err))
				out.pushError(err.Error())
			}
		}()
	default:
		return "Unknown message type: " + msg.Type
	}
	return ""
}

func (h *WebSocketHandler) writeLoop(c *websocket.Conn, out *outbox) {
	for {
		snap, errs, ok := out.next()
		if !ok {
			return
		}

		for _, e := range errs {
			if err := c.WriteJSON(fiber.Map{"type": "error", "error": e}); err != nil {
				return
			}
		}

		if snap != nil {
			if err := c.WriteJSON(fiber.Map{"type": "view", "view": view.Build(*snap)}); err != nil {
				return
			}
		}
	}
}

// outbox keeps only the newest snapshot so a slow client skips intermediate
// views instead of blocking the session.
type outbox struct {
	mu      sync.Mutex
	latest  *session.Snapshot
	version uint64
	seen    bool
	errors  []string
	closed  bool
	pending chan struct{}
}

func newOutbox() *outbox {
	return &outbox{pending: make(chan struct{}, 1)}
}

func (o *outbox) pushSnapshot(snap session.Snapshot) {
	o.mu.Lock()
	if o.seen && snap.Version <= o.version {
		o.mu.Unlock()
		return
	}
	o.seen = true
	o.version = snap.Version
	o.latest = &snap
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) pushError(msg string) {
	o.mu.Lock()
	o.errors = append(o.errors, msg)
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) signal() {
	select {
	case o.pending <- struct{}{}:
	default:
	}
}

func (o *outbox) next() (*session.Snapshot, []string, bool) {
	for {
		<-o.pending

		o.mu.Lock()
		if o.closed {
			o.mu.Unlock()
			return nil, nil, false
		}
		snap, errs := o.latest, o.errors
		o.latest, o.errors = nil, nil
		o.mu.Unlock()

		if snap != nil || len(errs) > 0 {
			return snap, errs, true
		}
	}
}
