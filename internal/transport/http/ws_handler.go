package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"bondrizz-funnel/internal/app"
	"bondrizz-funnel/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Funnel is the slice of app.FunnelService the socket drives.
type Funnel interface {
	Start(ctx context.Context, catalogID string) (string, app.FlowView, error)
	Restart(ctx context.Context, sessionID string) (app.FlowView, error)
	Answer(ctx context.Context, sessionID string, value any) (app.FlowView, error)
	Dismiss(ctx context.Context, sessionID string) (app.FlowView, error)
	Back(ctx context.Context, sessionID string) (app.FlowView, error)
	BeginLoading(ctx context.Context, sessionID string) (*app.LoadingRun, error)
	CaptureEmail(ctx context.Context, sessionID, email string) (string, error)
	LoadResults(ctx context.Context, sessionID, resultID string) (app.ResultsView, error)
	Checkout(ctx context.Context, sessionID string, req app.CheckoutRequest) (app.Receipt, error)
	End(ctx context.Context, sessionID string) error
}

type WSHandler struct {
	funnel         Funnel
	defaultCatalog string
	logger         *zap.Logger
	upgrader       websocket.Upgrader
}

func NewWSHandler(funnel Funnel, defaultCatalog string, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		funnel:         funnel,
		defaultCatalog: defaultCatalog,
		logger:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(nil),
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Value any `json:"value"`
}

type emailPayload struct {
	Email string `json:"email"`
}

type resultsPayload struct {
	ResultID string `json:"resultId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
}

type loadingPayload struct {
	Step  int    `json:"step"`
	Total int    `json:"total"`
	Label string `json:"label"`
}

type navigatePayload struct {
	Route    domain.Route `json:"route"`
	ResultID string       `json:"resultId,omitempty"`
}

type noticePayload struct {
	Message string `json:"message"`
}

type errorPayload struct {
	Message   string       `json:"message"`
	Retryable bool         `json:"retryable"`
	Redirect  domain.Route `json:"redirect,omitempty"`
}

// ServeWS upgrades HTTP requests to websockets and runs one visitor's funnel
// over the connection. The session ends with the socket.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	catalogID := r.URL.Query().Get("catalogId")
	if catalogID == "" {
		catalogID = h.defaultCatalog
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	sessionID, view, err := h.funnel.Start(ctx, catalogID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: toErrorPayload(err)})
		return
	}
	logger := h.logger.With(zap.String("session", sessionID))
	defer func() {
		if err := h.funnel.End(context.WithoutCancel(ctx), sessionID); err != nil {
			logger.Warn("end session failed", zap.Error(err))
		}
	}()

	c := &funnelConn{
		funnel:       h.funnel,
		sessionID:    sessionID,
		logger:       logger,
		send:         make(chan outboundMessage[any], 16),
		closeSignals: make(chan struct{}),
	}
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	c.emit(nil, "session", sessionPayload{SessionID: sessionID})
	c.emit(nil, "state", view)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		c.handle(ctx, inbound)
	}

	close(c.closeSignals)
	c.stopLoading()
	close(c.send)
	<-writerDone
}

// funnelConn is the per-connection state. Only the read loop mutates it.
type funnelConn struct {
	funnel    Funnel
	sessionID string
	logger    *zap.Logger

	send         chan outboundMessage[any]
	closeSignals chan struct{}

	loading       *app.LoadingRun
	forwarderDone chan struct{}
}

// emit queues a message unless the connection (or the given run) is closing.
func (c *funnelConn) emit(done <-chan struct{}, typ string, payload any) {
	select {
	case c.send <- outboundMessage[any]{Type: typ, Payload: payload}:
	case <-c.closeSignals:
	case <-done:
	}
}

func (c *funnelConn) fail(err error) {
	c.emit(nil, "error", toErrorPayload(err))
}

func (c *funnelConn) handle(ctx context.Context, inbound inboundMessage) {
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.emit(nil, "error", errorPayload{Message: "invalid answer payload", Retryable: true})
			return
		}
		view, err := c.funnel.Answer(ctx, c.sessionID, payload.Value)
		if err != nil {
			c.fail(err)
			return
		}
		c.emit(nil, "state", view)
		if view.State == app.FlowComplete {
			c.startLoading(ctx)
		}
	case "dismiss":
		c.flowStep(c.funnel.Dismiss(ctx, c.sessionID))
	case "back":
		c.flowStep(c.funnel.Back(ctx, c.sessionID))
	case "email":
		var payload emailPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.emit(nil, "error", errorPayload{Message: "invalid email payload", Retryable: true})
			return
		}
		resultID, err := c.funnel.CaptureEmail(ctx, c.sessionID, payload.Email)
		if err != nil {
			c.fail(err)
			return
		}
		c.emit(nil, "notice", noticePayload{Message: "Results sent to your email!"})
		c.emit(nil, "navigate", navigatePayload{Route: domain.RouteResults, ResultID: resultID})
	case "results":
		var payload resultsPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				c.emit(nil, "error", errorPayload{Message: "invalid results payload", Retryable: true})
				return
			}
		}
		view, err := c.funnel.LoadResults(ctx, c.sessionID, payload.ResultID)
		if err != nil {
			c.fail(err)
			return
		}
		c.emit(nil, "results", view)
	case "checkout":
		var payload app.CheckoutRequest
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.emit(nil, "error", errorPayload{Message: "invalid checkout payload", Retryable: true})
			return
		}
		receipt, err := c.funnel.Checkout(ctx, c.sessionID, payload)
		if err != nil {
			c.fail(err)
			return
		}
		c.emit(nil, "order", receipt)
		c.emit(nil, "notice", noticePayload{Message: "Payment successful!"})
		c.emit(nil, "navigate", navigatePayload{Route: domain.RouteSuccess})
	case "restart":
		c.stopLoading()
		view, err := c.funnel.Restart(ctx, c.sessionID)
		if err != nil {
			c.fail(err)
			return
		}
		c.emit(nil, "navigate", navigatePayload{Route: domain.RouteStart})
		c.emit(nil, "state", view)
	default:
		c.emit(nil, "error", errorPayload{Message: "unsupported message type"})
	}
}

func (c *funnelConn) flowStep(view app.FlowView, err error) {
	if err != nil {
		c.fail(err)
		return
	}
	c.emit(nil, "state", view)
}

func (c *funnelConn) startLoading(ctx context.Context) {
	c.stopLoading()
	run, err := c.funnel.BeginLoading(ctx, c.sessionID)
	if err != nil {
		c.fail(err)
		return
	}
	c.emit(nil, "navigate", navigatePayload{Route: domain.RouteLoading})

	c.loading = run
	c.forwarderDone = make(chan struct{})
	go c.forward(run, c.forwarderDone)
}

func (c *funnelConn) forward(run *app.LoadingRun, done chan struct{}) {
	defer close(done)
	total := run.StepCount()
	for step := range run.Steps() {
		c.emit(run.Stopped(), "loading", loadingPayload{Step: step, Total: total, Label: run.Label(step)})
	}
	select {
	case <-run.Advanced():
		c.logger.Debug("loading advanced to email gate")
		c.emit(run.Stopped(), "navigate", navigatePayload{Route: domain.RouteEmail})
	case <-run.Stopped():
	case <-c.closeSignals:
	}
}

func (c *funnelConn) stopLoading() {
	if c.loading == nil {
		return
	}
	c.loading.Stop()
	<-c.forwarderDone
	c.loading = nil
	c.forwarderDone = nil
}

func toErrorPayload(err error) errorPayload {
	payload := errorPayload{Message: userMessage(err), Retryable: app.Retryable(err)}
	if route, ok := app.RedirectFor(err); ok {
		payload.Redirect = route
	}
	return payload
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidEmail):
		return "Please enter a valid email address"
	case errors.Is(err, domain.ErrMissingResult), errors.Is(err, domain.ErrMissingAnswers):
		return "Quiz results not found. Please retake the quiz."
	case errors.Is(err, domain.ErrResultNotFound):
		return "Results not found"
	case errors.Is(err, domain.ErrNetworkFailure):
		return "Something went wrong. Please try again."
	default:
		return err.Error()
	}
}
